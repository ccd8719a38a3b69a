package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
	"gorm.io/gorm"
)

func (r *GormRepo) CountPlacedOrders(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("user_id = ? AND is_ordered = ?", userID, true).
		Count(&n).Error
	return n, err
}

func (r *GormRepo) ListPlacedOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_ordered = ?", userID, true).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) GetOrderByNumber(ctx context.Context, userID uint, number string) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND order_number = ?", userID, number).
		First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *GormRepo) ListOrderProducts(ctx context.Context, orderID uint) ([]models.OrderProduct, error) {
	var lines []models.OrderProduct
	if err := r.DB.WithContext(ctx).
		Preload("Product").Preload("Variations").
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) HasOrderedProduct(ctx context.Context, userID, productID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.OrderProduct{}).
		Where("user_id = ? AND product_id = ? AND ordered = ?", userID, productID, true).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order, lines []models.OrderProduct) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
			lines[i].UserID = order.UserID
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}
