package config

import (
	"context"
	"testing"

	"github.com/Skotchmaster/storefront/internal/models"
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "b")
	t.Setenv("ACTION_TOKEN_SECRET", "c")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load("testdata/missing.env")
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 4, cfg.StorePageSize)
	assert.Equal(t, "products", cfg.ESIndex)
}

func TestInitDB_Migrates(t *testing.T) {
	db, err := InitDB(context.Background(), pkgconfig.Config{DBDriver: "sqlite", DatabaseURL: ":memory:"})
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&models.CartItem{}))
	assert.True(t, db.Migrator().HasTable(&models.Account{}))
}

func TestInitDB_UnknownDriver(t *testing.T) {
	_, err := InitDB(context.Background(), pkgconfig.Config{DBDriver: "oracle", DatabaseURL: "x"})
	assert.Error(t, err)
}
