package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Skotchmaster/storefront/internal/cartmerge"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CartService struct {
	Repo *repo.GormRepo
}

// owner resolves the cart a request works on. Authenticated users own their
// items directly; visitors work on the cart behind cartToken, which is created
// on demand when create is set.
func (s *CartService) owner(ctx context.Context, userID uint, cartToken string, create bool) (repo.Owner, bool, error) {
	if userID != 0 {
		return repo.Owner{UserID: userID}, true, nil
	}
	if cartToken == "" {
		return repo.Owner{}, false, nil
	}
	if create {
		cart, err := s.Repo.EnsureCart(ctx, cartToken)
		if err != nil {
			return repo.Owner{}, false, err
		}
		return repo.Owner{CartID: cart.ID}, true, nil
	}
	cart, err := s.Repo.FindCartByToken(ctx, cartToken)
	if errors.Is(err, cartmerge.ErrCartNotFound) {
		return repo.Owner{}, false, nil
	}
	if err != nil {
		return repo.Owner{}, false, err
	}
	return repo.Owner{CartID: cart.ID}, true, nil
}

func (s *CartService) Items(ctx context.Context, userID uint, cartToken string) (*transport.CartView, error) {
	view := &transport.CartView{Items: []models.CartItem{}}
	owner, ok, err := s.owner(ctx, userID, cartToken, false)
	if err != nil || !ok {
		return view, err
	}

	items, err := s.Repo.ListCartItems(ctx, owner)
	if err != nil {
		return nil, err
	}
	view.Items = items
	for _, it := range items {
		view.Total += it.SubTotal()
		view.Quantity += it.Quantity
	}
	return view, nil
}

func (s *CartService) Add(ctx context.Context, userID uint, cartToken string, req transport.AddToCartRequest) (*models.CartItem, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if userID == 0 && cartToken == "" {
		return nil, fmt.Errorf("cart token is required: %w", ErrValidation)
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	product, err := s.Repo.GetProduct(ctx, req.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("product %d: %w", req.ProductID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, fmt.Errorf("product %d is not available: %w", req.ProductID, ErrValidation)
	}

	ids := slices.Compact(slices.Sorted(slices.Values(req.VariationIDs)))
	variations, err := s.Repo.ListVariations(ctx, product.ID, ids)
	if err != nil {
		return nil, err
	}
	if len(variations) != len(ids) {
		return nil, fmt.Errorf("variation does not belong to product %d: %w", product.ID, ErrValidation)
	}

	owner, _, err := s.owner(ctx, userID, cartToken, true)
	if err != nil {
		return nil, err
	}
	return s.Repo.AddToCart(ctx, owner, product.ID, variations, qty)
}

func (s *CartService) RemoveOne(ctx context.Context, userID uint, cartToken string, itemID uint) (bool, *models.CartItem, error) {
	if itemID == 0 {
		return false, nil, fmt.Errorf("item id must be set: %w", ErrValidation)
	}
	owner, ok, err := s.owner(ctx, userID, cartToken, false)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}

	deleted, item, err := s.Repo.RemoveOneFromCart(ctx, owner, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil, fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	return deleted, item, err
}
