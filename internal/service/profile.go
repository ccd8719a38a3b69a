package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type ProfileService struct {
	Repo *repo.GormRepo
}

func (s *ProfileService) account(ctx context.Context, userID uint) (*models.Account, error) {
	a, err := s.Repo.GetAccountByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("account: %w", ErrNotFound)
	}
	return a, err
}

func (s *ProfileService) Dashboard(ctx context.Context, userID uint) (*transport.Dashboard, error) {
	a, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.Repo.CountPlacedOrders(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.Repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		p = nil
	}
	return &transport.Dashboard{OrdersCount: count, Account: a, Profile: p}, nil
}

func (s *ProfileService) Profile(ctx context.Context, userID uint) (*models.Account, *models.UserProfile, error) {
	a, err := s.account(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.Repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return a, p, nil
}

// EditProfile updates the account names and phone together with the profile,
// creating the profile on first edit.
func (s *ProfileService) EditProfile(ctx context.Context, userID uint, req transport.EditProfileRequest) (*models.Account, *models.UserProfile, error) {
	if err := validateStruct(req); err != nil {
		return nil, nil, err
	}
	a, p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	a.FirstName = req.FirstName
	a.LastName = req.LastName
	a.PhoneNumber = req.PhoneNumber
	p.AddressLine1 = req.AddressLine1
	p.AddressLine2 = req.AddressLine2
	p.City = req.City
	p.State = req.State
	p.Country = req.Country
	if req.ProfilePicture != "" {
		p.ProfilePicture = req.ProfilePicture
	}

	if err := s.Repo.SaveProfile(ctx, a, p); err != nil {
		return nil, nil, err
	}
	return a, p, nil
}
