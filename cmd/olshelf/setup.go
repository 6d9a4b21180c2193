package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mheiman/openlibrary-reader-sub000/internal/auth"
	"github.com/mheiman/openlibrary-reader-sub000/internal/cache"
	"github.com/mheiman/openlibrary-reader-sub000/internal/config"
	"github.com/mheiman/openlibrary-reader-sub000/internal/home"
	"github.com/mheiman/openlibrary-reader-sub000/internal/openlibrary"
	syncpkg "github.com/mheiman/openlibrary-reader-sub000/internal/sync"
)

// app bundles the wired components a command needs.
type app struct {
	Engine *syncpkg.Engine
	Auth   *auth.Source
	Config *config.Manager
	Logger *slog.Logger
}

// buildApp wires home dir, config, cache, API clients and the sync engine.
// The returned engine is not initialized; callers drive auth state and call
// Initialize themselves.
func buildApp(logger *slog.Logger) (*app, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}

	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	mgr, err := config.NewManager(path)
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()

	store, err := cache.NewStore(h.CachePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	client := openlibrary.NewClient(openlibrary.ClientConfig{
		BaseURL:  cfg.API.BaseURL,
		Token:    config.ResolveEnvVars(cfg.API.Token),
		Timeout:  time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		Attempts: cfg.API.RetryAttempts,
		PageSize: cfg.API.PageSize,
		Logger:   logger,
	})

	source := auth.NewSource()
	engine := syncpkg.NewEngine(syncpkg.EngineConfig{
		Repo:                openlibrary.NewRepository(client, store, logger),
		Lists:               openlibrary.NewListService(client, store, logger),
		Works:               openlibrary.NewWorkResolver(client, logger),
		Prefs:               store,
		Janitor:             store,
		AuthSource:          source,
		Logger:              logger,
		StalenessThreshold:  cfg.Sync.StalenessThreshold(),
		Debounce:            cfg.Sync.Debounce(),
		LoginRetryDelay:     cfg.Sync.LoginRetryDelay(),
		LoginRetryAttempts:  cfg.Sync.LoginRetryAttempts,
		DisableRedirectScan: !cfg.Sync.RedirectScan,
	})

	return &app{
		Engine: engine,
		Auth:   source,
		Config: mgr,
		Logger: logger,
	}, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
