package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"gorm.io/gorm"
)

func (r *GormRepo) CreateAccountIfNotExists(ctx context.Context, a *models.Account) error {
	tx := r.DB.WithContext(ctx).Where("email = ?", a.Email).FirstOrCreate(a)
	if tx.Error != nil {
		// a concurrent registration won the insert
		return duplicate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrAlreadyExist
	}
	return nil
}

func (r *GormRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *GormRepo) GetAccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *GormRepo) ActivateAccount(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Update("is_active", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Update("last_login", at).Error
}

func (r *GormRepo) SetPassword(ctx context.Context, id uint, passwordHash string) error {
	res := r.DB.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProfile returns an empty, unsaved profile when the account has none yet.
func (r *GormRepo) GetProfile(ctx context.Context, accountID uint) (*models.UserProfile, error) {
	var p models.UserProfile
	err := r.DB.WithContext(ctx).Where("account_id = ?", accountID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserProfile{AccountID: accountID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) SaveProfile(ctx context.Context, a *models.Account, p *models.UserProfile) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Account{}).Where("id = ?", a.ID).Updates(map[string]any{
			"first_name":   a.FirstName,
			"last_name":    a.LastName,
			"phone_number": a.PhoneNumber,
		}).Error; err != nil {
			return err
		}
		p.AccountID = a.ID
		return tx.Save(p).Error
	})
}
