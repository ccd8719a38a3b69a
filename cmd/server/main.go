package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/cartmerge"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

type eventPublisher interface {
	service.Publisher
	Close() error
}

func main() {
	cfg := config.Load(".env")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init: %v", err)
	}
	r := repo.New(db)

	var pub eventPublisher = mykafka.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		pub = prod
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	catalogSvc := &service.CatalogService{Repo: r, Publisher: pub, PageSize: cfg.StorePageSize}
	if cfg.ESURL != "" {
		esCtx := logging.IntoContext(context.Background(), logger)
		esCtx, esCancel := context.WithTimeout(esCtx, 30*time.Second)
		searcher, err := newSearcher(esCtx, cfg.ESURL, cfg.ESUser, cfg.ESPassword, cfg.ESIndex, r)
		esCancel()
		if err != nil {
			logger.Error("es_init_failed", "error", err)
		} else {
			catalogSvc.Searcher = searcher
		}
	}

	authSvc := &service.AuthService{
		Repo:          r,
		Merger:        cartmerge.New(r),
		Publisher:     pub,
		Mailer:        mykafka.NewMailer(pub),
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		ActionSecret:  cfg.ActionSecret,
		SiteURL:       cfg.SiteURL,
	}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	e.Use(echomw.Secure())

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.SkipPaths = []string{"/health/live", "/health/ready"}
	e.Use(csrf.Middleware(csrfCfg))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: authSvc},
		AccountHandler: &httpserver.AccountHTTP{
			Profiles: &service.ProfileService{Repo: r},
			Orders:   &service.OrderService{Repo: r},
		},
		StoreHandler: &httpserver.StoreHTTP{Svc: catalogSvc},
		CartHandler:  &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		Auth:         authmw.NewAutoRefreshMiddleware(cfg.JWTAccessSecret, authSvc),
		LoginRate:    cfg.LoginRate,
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := pub.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}

// newSearcher connects to Elasticsearch and loads the current catalog into
// the index.
func newSearcher(ctx context.Context, url, user, password, index string, r *repo.GormRepo) (*search.Searcher, error) {
	client, err := search.NewClient(ctx, search.Config{URL: url, User: user, Password: password, Index: index})
	if err != nil {
		return nil, err
	}
	s := search.New(client, index)

	products, err := r.ListAllProducts(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Reindex(ctx, products); err != nil {
		return nil, err
	}
	return s, nil
}
