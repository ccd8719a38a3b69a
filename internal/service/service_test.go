package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/db"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	gdb, err := db.Open(context.Background(), db.Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))
	return repo.New(gdb)
}

type recordedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, _ := event.(map[string]any)
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: m})
	return nil
}

func (p *recordingPublisher) types(topic string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e.Event["type"].(string))
		}
	}
	return out
}

type recordingMailer struct {
	sent []mykafka.EmailRequest
}

func (m *recordingMailer) Send(ctx context.Context, req mykafka.EmailRequest) error {
	m.sent = append(m.sent, req)
	return nil
}

// lastLink splits the link of the last email into its uid and token.
func (m *recordingMailer) lastLink(t *testing.T) (string, string) {
	t.Helper()
	require.NotEmpty(t, m.sent)
	parts := strings.Split(m.sent[len(m.sent)-1].Data["link"], "/")
	require.GreaterOrEqual(t, len(parts), 2)
	return parts[len(parts)-2], parts[len(parts)-1]
}

type catalogFixture struct {
	category models.Category
	shirt    models.Product
	jeans    models.Product
	red      models.Variation
	blue     models.Variation
}

func seedCatalog(t *testing.T, r *repo.GormRepo) catalogFixture {
	t.Helper()
	f := catalogFixture{category: models.Category{Name: "Shirts", Slug: "shirts"}}
	require.NoError(t, r.DB.Create(&f.category).Error)
	f.shirt = models.Product{Name: "Oxford shirt", Slug: "oxford-shirt", Description: "Cotton shirt", Price: 40, IsAvailable: true, CategoryID: f.category.ID}
	f.jeans = models.Product{Name: "Slim jeans", Slug: "slim-jeans", Description: "Blue denim", Price: 60, IsAvailable: true, CategoryID: f.category.ID}
	require.NoError(t, r.DB.Create(&f.shirt).Error)
	require.NoError(t, r.DB.Create(&f.jeans).Error)
	f.red = models.Variation{ProductID: f.shirt.ID, Category: models.VariationColor, Value: "red", IsActive: true}
	f.blue = models.Variation{ProductID: f.shirt.ID, Category: models.VariationColor, Value: "blue", IsActive: true}
	require.NoError(t, r.DB.Create(&f.red).Error)
	require.NoError(t, r.DB.Create(&f.blue).Error)
	return f
}

func seedActiveAccount(t *testing.T, r *repo.GormRepo, email, password string) models.Account {
	t.Helper()
	h, err := pkg_hash.HashPassword(password)
	require.NoError(t, err)
	a := models.Account{FirstName: "Ann", LastName: "Lee", Username: strings.Split(email, "@")[0], Email: email, PasswordHash: h, Role: models.RoleUser, IsActive: true}
	require.NoError(t, r.DB.Create(&a).Error)
	return a
}
