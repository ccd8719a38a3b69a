package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/storefront/internal/cartmerge"
	"github.com/Skotchmaster/storefront/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ cartmerge.Store = (*GormRepo)(nil)

// Owner selects the items of either an anonymous cart or an account.
type Owner struct {
	UserID uint
	CartID uint
}

func (o Owner) scope(db *gorm.DB) *gorm.DB {
	if o.UserID != 0 {
		return db.Where("user_id = ?", o.UserID)
	}
	return db.Where("cart_id = ?", o.CartID)
}

func (o Owner) apply(item *models.CartItem) {
	if o.UserID != 0 {
		uid := o.UserID
		item.UserID = &uid
		return
	}
	cid := o.CartID
	item.CartID = &cid
}

func (r *GormRepo) FindCartByToken(ctx context.Context, token string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB.WithContext(ctx).Where("cart_token = ?", token).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cartmerge.ErrCartNotFound
		}
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) EnsureCart(ctx context.Context, token string) (*models.Cart, error) {
	cart := models.Cart{CartToken: token}
	if err := r.DB.WithContext(ctx).Where("cart_token = ?", token).FirstOrCreate(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func toLines(items []models.CartItem) []cartmerge.Line {
	lines := make([]cartmerge.Line, 0, len(items))
	for _, it := range items {
		ids := make([]uint, 0, len(it.Variations))
		for _, v := range it.Variations {
			ids = append(ids, v.ID)
		}
		lines = append(lines, cartmerge.Line{
			ItemID:     it.ID,
			ProductID:  it.ProductID,
			Variations: cartmerge.NewVariationSet(ids...),
			Quantity:   it.Quantity,
		})
	}
	return lines
}

func (r *GormRepo) listLines(ctx context.Context, owner Owner) ([]cartmerge.Line, error) {
	var items []models.CartItem
	q := owner.scope(r.DB.WithContext(ctx).Preload("Variations"))
	if err := q.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return toLines(items), nil
}

func (r *GormRepo) ListCartLines(ctx context.Context, cartID uint) ([]cartmerge.Line, error) {
	return r.listLines(ctx, Owner{CartID: cartID})
}

func (r *GormRepo) ListUserLines(ctx context.Context, userID uint) ([]cartmerge.Line, error) {
	return r.listLines(ctx, Owner{UserID: userID})
}

func (r *GormRepo) AccumulateLine(ctx context.Context, targetID, sourceID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var src models.CartItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND cart_id IS NOT NULL", sourceID).
			First(&src).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cartmerge.ErrSourceGone
			}
			return err
		}

		res := tx.Model(&models.CartItem{}).
			Where("id = ?", targetID).
			Update("quantity", gorm.Expr("quantity + ?", src.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return cartmerge.ErrTargetGone
		}

		return tx.Select("Variations").Delete(&src).Error
	})
}

func (r *GormRepo) ReassignLine(ctx context.Context, itemID, cartID, userID uint) error {
	res := r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Updates(map[string]any{"user_id": userID, "cart_id": nil})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return cartmerge.ErrLineGone
	}
	return nil
}

func (r *GormRepo) ListCartItems(ctx context.Context, owner Owner) ([]models.CartItem, error) {
	var items []models.CartItem
	q := owner.scope(r.DB.WithContext(ctx).Preload("Product").Preload("Variations"))
	if err := q.Where("is_active = ?", true).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart increments the owner's line with the same product and variation
// set, or creates a new one.
func (r *GormRepo) AddToCart(ctx context.Context, owner Owner, productID uint, variations []models.Variation, quantity uint) (*models.CartItem, error) {
	ids := make([]uint, 0, len(variations))
	for _, v := range variations {
		ids = append(ids, v.ID)
	}
	want := cartmerge.NewVariationSet(ids...)

	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.CartItem
		if err := owner.scope(tx.Preload("Variations")).
			Where("product_id = ?", productID).
			Order("id ASC").
			Find(&existing).Error; err != nil {
			return err
		}

		for _, line := range toLines(existing) {
			if !line.Variations.Equal(want) {
				continue
			}
			if err := tx.Model(&models.CartItem{}).
				Where("id = ?", line.ItemID).
				Update("quantity", gorm.Expr("quantity + ?", quantity)).Error; err != nil {
				return err
			}
			return tx.Preload("Variations").First(&item, line.ItemID).Error
		}

		item = models.CartItem{
			ProductID:  productID,
			Variations: variations,
			Quantity:   quantity,
			IsActive:   true,
		}
		owner.apply(&item)
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveOneFromCart decrements the item and deletes it when it reaches zero.
func (r *GormRepo) RemoveOneFromCart(ctx context.Context, owner Owner, itemID uint) (bool, *models.CartItem, error) {
	var item models.CartItem
	deleted := false

	if err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := owner.scope(tx.Clauses(clause.Locking{Strength: "UPDATE"})).
			Where("id = ?", itemID).
			First(&item).Error; err != nil {
			return err
		}
		if item.Quantity > 1 {
			if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity - 1")).Error; err != nil {
				return err
			}
			return tx.First(&item, item.ID).Error
		}
		if err := tx.Select("Variations").Delete(&item).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	}); err != nil {
		return false, nil, notFound(err)
	}
	return deleted, &item, nil
}

func (r *GormRepo) ProductInCart(ctx context.Context, owner Owner, productID uint) (bool, error) {
	var count int64
	if err := owner.scope(r.DB.WithContext(ctx).Model(&models.CartItem{})).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
