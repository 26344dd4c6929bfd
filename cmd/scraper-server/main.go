package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/rafadias/shopee-scraper/internal/api"
	"github.com/rafadias/shopee-scraper/internal/browser"
	"github.com/rafadias/shopee-scraper/internal/config"
	"github.com/rafadias/shopee-scraper/internal/extractor"
	"github.com/rafadias/shopee-scraper/internal/httpclient"
	"github.com/rafadias/shopee-scraper/internal/images"
	"github.com/rafadias/shopee-scraper/internal/jobs"
	"github.com/rafadias/shopee-scraper/internal/queue"
	"github.com/rafadias/shopee-scraper/internal/ratelimit"
	"github.com/rafadias/shopee-scraper/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := httpclient.New(&httpclient.Options{
		Timeout:    cfg.Scraper.RequestTimeout,
		Identities: identitiesFrom(cfg.Scraper.UserAgents),
	})

	store, closeStore, err := setupStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up product store", "error", err)
		os.Exit(1)
	}
	if closeStore != nil {
		defer closeStore()
	}

	strategies := []extractor.Strategy{
		newAPIStrategy(client, cfg, logger),
		extractor.NewEmbeddedJSONStrategy(client, logger),
		extractor.NewHTMLScrapeStrategy(client, logger),
	}

	if cfg.Scraper.BrowserFallback {
		b, err := browser.New(&browser.Options{
			Headless:       cfg.Browser.Headless,
			Timeout:        cfg.Browser.Timeout,
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
			AcceptLanguage: cfg.Browser.AcceptLanguage,
			TimezoneID:     cfg.Browser.TimezoneID,
			Locale:         cfg.Browser.Locale,
		})
		if err != nil {
			logger.Error("failed to initialize browser", "error", err)
			os.Exit(1)
		}
		defer b.Close()

		strategies = append(strategies, extractor.NewBrowserStrategy(b, logger))
	}

	chain := extractor.NewChain(strategies, &extractor.ChainOptions{
		Known: store,
		Images: images.NewMaterializer(client, images.Options{
			DestDir:     cfg.Images.Dir,
			Concurrency: cfg.Images.Concurrency,
		}),
		Limiter: ratelimit.NewJitteredLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax),
		Logger:  logger,
	})

	taskQueue := queue.NewInMemoryQueue()
	defer taskQueue.Close()

	jobManager := jobs.NewManager(taskQueue, chain, logger)
	for i := 0; i < cfg.Scraper.WorkerCount; i++ {
		go jobManager.StartWorker(ctx)
	}

	handlers := api.NewHandlers(chain, jobManager, store, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"queue_depth": taskQueue.Size(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/extract", handlers.Extract)
		r.Post("/jobs", handlers.CreateJob)
		r.Get("/jobs", handlers.ListJobs)
		r.Get("/jobs/{jobID}", handlers.GetJob)
		r.Get("/stats", handlers.GetStats)
		r.Get("/products/{itemID}", handlers.GetProduct)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr, "workers", cfg.Scraper.WorkerCount)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func identitiesFrom(userAgents []string) []httpclient.Identity {
	if len(userAgents) == 0 {
		return nil
	}

	identities := make([]httpclient.Identity, 0, len(userAgents))
	for _, ua := range userAgents {
		identities = append(identities, httpclient.Identity{
			UserAgent:      ua,
			AcceptLanguage: "pt-BR,pt;q=0.9,en;q=0.8",
		})
	}
	return identities
}

func newAPIStrategy(client *httpclient.Client, cfg *config.Config, logger *slog.Logger) *extractor.APIStrategy {
	s := extractor.NewAPIStrategy(client, logger)
	if cfg.Scraper.BaseURL != "" {
		s.BaseURL = cfg.Scraper.BaseURL
	}
	return s
}

// setupStore builds the known-product repository from config: Postgres
// (optionally fronted by Redis), a local JSON file, or nothing at all.
func setupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (extractor.KnownProductRepository, func(), error) {
	switch cfg.Store.Backend {
	case "disabled":
		return nil, nil, nil

	case "file":
		store, err := repository.NewFileStore(cfg.Store.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case "postgres":
		pg, err := repository.NewPostgresStore(ctx, repository.PostgresConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.DBName,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}

		if !cfg.Redis.Enabled {
			return pg, pg.Close, nil
		}

		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}

		cached := repository.NewCachedStore(pg, redisClient, cfg.Redis.TTL)
		closer := func() {
			redisClient.Close()
			pg.Close()
		}
		logger.Info("product store ready", "backend", "postgres+redis")
		return cached, closer, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
