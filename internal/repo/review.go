package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/storefront/internal/models"
	"gorm.io/gorm"
)

// UpsertReview updates the user's review of the product when one exists.
// The returned bool reports whether a new review was created.
func (r *GormRepo) UpsertReview(ctx context.Context, rv *models.ReviewRating) (bool, error) {
	created := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ReviewRating
		err := tx.Where("user_id = ? AND product_id = ?", rv.UserID, rv.ProductID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rv.Status = true
			created = true
			return tx.Create(rv).Error
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&existing).Updates(map[string]any{
			"subject": rv.Subject,
			"review":  rv.Review,
			"rating":  rv.Rating,
		}).Error; err != nil {
			return err
		}
		return tx.First(rv, existing.ID).Error
	})
	return created, err
}

func (r *GormRepo) ListApprovedReviews(ctx context.Context, productID uint) ([]models.ReviewRating, error) {
	var out []models.ReviewRating
	if err := r.DB.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, true).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
