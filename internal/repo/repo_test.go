package repo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	gdb, err := db.Open(context.Background(), db.Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))
	return New(gdb)
}

func setupMockDB(t *testing.T) (*GormRepo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return New(gdb), mock
}

type fixture struct {
	category models.Category
	shirt    models.Product
	jeans    models.Product
	red      models.Variation
	blue     models.Variation
	large    models.Variation
}

func seedCatalog(t *testing.T, r *GormRepo) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{category: models.Category{Name: "Shirts", Slug: "shirts"}}
	require.NoError(t, r.DB.WithContext(ctx).Create(&f.category).Error)

	f.shirt = models.Product{Name: "Oxford shirt", Slug: "oxford-shirt", Description: "Cotton shirt", Price: 40, IsAvailable: true, CategoryID: f.category.ID, Stock: 10}
	f.jeans = models.Product{Name: "Slim jeans", Slug: "slim-jeans", Description: "Blue denim", Price: 60, IsAvailable: true, CategoryID: f.category.ID, Stock: 5}
	require.NoError(t, r.DB.Create(&f.shirt).Error)
	require.NoError(t, r.DB.Create(&f.jeans).Error)

	f.red = models.Variation{ProductID: f.shirt.ID, Category: models.VariationColor, Value: "red", IsActive: true}
	f.blue = models.Variation{ProductID: f.shirt.ID, Category: models.VariationColor, Value: "blue", IsActive: true}
	f.large = models.Variation{ProductID: f.shirt.ID, Category: models.VariationSize, Value: "large", IsActive: true}
	require.NoError(t, r.DB.Create(&f.red).Error)
	require.NoError(t, r.DB.Create(&f.blue).Error)
	require.NoError(t, r.DB.Create(&f.large).Error)
	return f
}

func seedAccount(t *testing.T, r *GormRepo, email string) models.Account {
	t.Helper()
	a := models.Account{FirstName: "Ann", LastName: "Lee", Username: "ann", Email: email, PasswordHash: "x", Role: models.RoleUser, IsActive: true}
	require.NoError(t, r.DB.Create(&a).Error)
	return a
}
