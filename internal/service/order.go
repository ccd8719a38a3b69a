package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type OrderService struct {
	Repo *repo.GormRepo
}

func (s *OrderService) MyOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.Repo.ListPlacedOrders(ctx, userID)
}

// OrderDetail returns the caller's lines of the order. The subtotal is priced
// at the current product price.
func (s *OrderService) OrderDetail(ctx context.Context, userID uint, number string) (*transport.OrderDetail, error) {
	order, err := s.Repo.GetOrderByNumber(ctx, userID, number)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("order %s: %w", number, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	lines, err := s.Repo.ListOrderProducts(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("order %s has no lines: %w", number, ErrNotFound)
	}

	var subtotal float64
	for _, l := range lines {
		if l.Product != nil {
			subtotal += l.Product.Price * float64(l.Quantity)
		}
	}
	return &transport.OrderDetail{Order: order, Lines: lines, SubTotal: subtotal}, nil
}
