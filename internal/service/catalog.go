package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/cartmerge"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type ProductSearcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type CatalogService struct {
	Repo      *repo.GormRepo
	Searcher  ProductSearcher
	Publisher Publisher
	PageSize  int
}

// Viewer identifies who is looking at the catalog: an account, an anonymous
// cart, both or neither.
type Viewer struct {
	UserID    uint
	CartToken string
}

func (s *CatalogService) pageSize() int {
	if s.PageSize <= 0 {
		return util.StorePageSize
	}
	return s.PageSize
}

func (s *CatalogService) Store(ctx context.Context, categorySlug string, page int) (*transport.ProductPage, error) {
	var categoryID uint
	if categorySlug != "" {
		c, err := s.Repo.GetCategoryBySlug(ctx, categorySlug)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("category %q: %w", categorySlug, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		categoryID = c.ID
	}

	if page < 1 {
		page = 1
	}
	offset, limit := util.Calculate(page, s.pageSize())
	total, items, err := s.Repo.ListAvailableProducts(ctx, categoryID, offset, limit)
	if err != nil {
		return nil, err
	}
	return &transport.ProductPage{Products: items, Count: total, Page: page, Pages: util.Pages(total, limit)}, nil
}

func (s *CatalogService) ProductDetail(ctx context.Context, categorySlug, productSlug string, v Viewer) (*transport.ProductDetail, error) {
	p, err := s.Repo.GetProductBySlug(ctx, categorySlug, productSlug)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("product %s/%s: %w", categorySlug, productSlug, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	out := &transport.ProductDetail{Product: p}
	if out.InCart, err = s.inCart(ctx, p.ID, v); err != nil {
		return nil, err
	}
	if v.UserID != 0 {
		ordered, err := s.Repo.HasOrderedProduct(ctx, v.UserID, p.ID)
		if err != nil {
			return nil, err
		}
		out.IsOrderedProduct = &ordered
	}
	if out.Reviews, err = s.Repo.ListApprovedReviews(ctx, p.ID); err != nil {
		return nil, err
	}
	if out.Gallery, err = s.Repo.ListGallery(ctx, p.ID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CatalogService) inCart(ctx context.Context, productID uint, v Viewer) (bool, error) {
	if v.UserID != 0 {
		ok, err := s.Repo.ProductInCart(ctx, repo.Owner{UserID: v.UserID}, productID)
		if err != nil || ok {
			return ok, err
		}
	}
	if v.CartToken == "" {
		return false, nil
	}
	cart, err := s.Repo.FindCartByToken(ctx, v.CartToken)
	if errors.Is(err, cartmerge.ErrCartNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.Repo.ProductInCart(ctx, repo.Owner{CartID: cart.ID}, productID)
}

// Search looks keyword up in the search index when one is configured and falls
// back to a substring match in the database. An empty keyword finds nothing.
func (s *CatalogService) Search(ctx context.Context, keyword string, page int) (*transport.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	out := &transport.ProductPage{Products: []models.Product{}, Page: page}
	if keyword == "" {
		return out, nil
	}
	offset, limit := util.Calculate(page, util.DefaultPageSize)

	if s.Searcher != nil {
		total, ids, err := s.Searcher.Search(ctx, keyword, offset, limit)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			out.Products = orderByIDs(items, ids)
			out.Count = total
			out.Pages = util.Pages(total, limit)
			return out, nil
		}
		logging.FromContext(ctx).Warn("es_search_failed", "reason", "falling back to database", "error", err)
	}

	total, items, err := s.Repo.SearchProducts(ctx, keyword, offset, limit)
	if err != nil {
		return nil, err
	}
	out.Products = items
	out.Count = total
	out.Pages = util.Pages(total, limit)
	return out, nil
}

func orderByIDs(items []models.Product, ids []uint) []models.Product {
	byID := make(map[uint]models.Product, len(items))
	for _, p := range items {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(items))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *CatalogService) ApplySort(ctx context.Context, req transport.SortRequest) (*transport.ProductPage, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.MinPrice > req.MaxPrice {
		return nil, fmt.Errorf("max price should be larger than min price: %w", ErrValidation)
	}
	items, err := s.Repo.ProductsInPriceRange(ctx, req.MinPrice, req.MaxPrice)
	if err != nil {
		return nil, err
	}
	n := int64(len(items))
	return &transport.ProductPage{Products: items, Count: n, Page: 1, Pages: util.Pages(n, len(items))}, nil
}

// SubmitReview stores the user's review of a product, replacing an earlier
// review by the same user.
func (s *CatalogService) SubmitReview(ctx context.Context, userID, productID uint, ip string, req transport.ReviewRequest) (*models.ReviewRating, bool, error) {
	if err := validateStruct(req); err != nil {
		return nil, false, err
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, false, err
	}

	rv := &models.ReviewRating{
		ProductID: productID,
		UserID:    userID,
		Subject:   req.Subject,
		Review:    req.Review,
		Rating:    req.Rating,
		IP:        ip,
	}
	created, err := s.Repo.UpsertReview(ctx, rv)
	if err != nil {
		return nil, false, err
	}

	kind := "review_updated"
	if created {
		kind = "review_submitted"
	}
	publish(ctx, s.Publisher, mykafka.TopicReviewEvents, userID, map[string]any{
		"type":      kind,
		"productID": productID,
		"rating":    rv.Rating,
	})
	return rv, created, nil
}
