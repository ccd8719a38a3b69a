package config

import (
	"context"
	"fmt"
	"log"

	"github.com/Skotchmaster/storefront/internal/models"
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// Load reads envFile when it exists and then the process environment.
// Secrets must be set or the process exits.
func Load(envFile string) pkgconfig.Config {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("notice: %s not loaded: %v, using system environment", envFile, err)
	}

	cfg := pkgconfig.Load()
	pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgconfig.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	pkgconfig.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	pkgconfig.MustNonEmptyBytes(cfg.ActionSecret, "ACTION_TOKEN_SECRET")
	return cfg
}

// InitDB opens the configured database and migrates the schema.
func InitDB(ctx context.Context, cfg pkgconfig.Config) (*gorm.DB, error) {
	db, err := pkgdb.Open(ctx, pkgdb.Options{
		Driver:        cfg.DBDriver,
		DSN:           cfg.DatabaseURL,
		SQLDriverName: cfg.SQLDriverName,
	})
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
