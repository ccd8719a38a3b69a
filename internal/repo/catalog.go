package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListAvailableProducts pages through available products, optionally within
// one category. categoryID 0 means every category.
func (r *GormRepo) ListAvailableProducts(ctx context.Context, categoryID uint, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("is_available = ?", true)
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *GormRepo) GetProductBySlug(ctx context.Context, categorySlug, productSlug string) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Category").
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("categories.slug = ? AND products.slug = ?", categorySlug, productSlug).
		First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchProducts matches keyword as a case-insensitive substring of the name
// or description, newest first.
func (r *GormRepo) SearchProducts(ctx context.Context, keyword string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(keyword)) + "%"
	q := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ProductsInPriceRange(ctx context.Context, minPrice, maxPrice float64) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Where("is_available = ? AND price >= ? AND price <= ?", true, minPrice, maxPrice).
		Order("price ASC").Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ListVariations(ctx context.Context, productID uint, ids []uint) ([]models.Variation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var vs []models.Variation
	if err := r.DB.WithContext(ctx).
		Where("product_id = ? AND id IN ? AND is_active = ?", productID, ids, true).
		Order("id ASC").
		Find(&vs).Error; err != nil {
		return nil, err
	}
	return vs, nil
}

func (r *GormRepo) ListGallery(ctx context.Context, productID uint) ([]models.ProductGallery, error) {
	var g []models.ProductGallery
	if err := r.DB.WithContext(ctx).Where("product_id = ?", productID).Order("id ASC").Find(&g).Error; err != nil {
		return nil, err
	}
	return g, nil
}
