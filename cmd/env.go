package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	anthropicpkg "github.com/mshadianto/wbs-bpkh-2026/pkg/anthropic"

	"github.com/mshadianto/wbs-bpkh-2026/internal/knowledge"
	"github.com/mshadianto/wbs-bpkh-2026/internal/notify"
	"github.com/mshadianto/wbs-bpkh-2026/internal/pipeline"
	"github.com/mshadianto/wbs-bpkh-2026/internal/service"
	"github.com/mshadianto/wbs-bpkh-2026/internal/store"
)

// appEnv holds the initialized store, notifier and service shared by the
// serve/submit/watch/import commands.
type appEnv struct {
	Store    store.Store
	Sender   notify.Sender
	Pipeline *pipeline.Pipeline
	Service  *service.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEnv sets up the store, the triage pipeline and the service.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	kb, err := knowledge.Load()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	// Without an API key the pipeline runs entirely on fallbacks.
	var ai anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		ai = anthropicpkg.NewClient(cfg.Anthropic.Key,
			anthropicpkg.WithRateLimit(cfg.Anthropic.RatePerSec, cfg.Anthropic.RateBurst))
	} else {
		zap.L().Warn("WBS_ANTHROPIC_KEY not set, running in fallback-only mode")
	}

	pipe := pipeline.New(ai, kb, cfg.Anthropic, cfg.Pipeline)
	sender := notify.New(cfg.Notify)

	return &appEnv{
		Store:    st,
		Sender:   sender,
		Pipeline: pipe,
		Service:  service.New(pipe, st, sender),
	}, nil
}
