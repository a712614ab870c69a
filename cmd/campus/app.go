package main

import (
	"context"
	"io"
	"os"

	"github.com/goliatone/go-portal"
	"github.com/goliatone/go-portal/accounts"
	"github.com/goliatone/go-portal/activitymap"
	"github.com/goliatone/go-portal/config"
	"github.com/goliatone/go-portal/store"
	"github.com/goliatone/go-print"
)

// app wires the portal session for a single CLI invocation
type app struct {
	cfg     *config.Config
	logger  slogLogger
	store   portal.TokenStore
	client  *accounts.Client
	manager *portal.Manager
	closer  io.Closer
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := newLogger(os.Stderr, cfg.Log.Level)

	tokens, closer, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	client := accounts.New(accounts.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		Logger:    logger,
		UserAgent: "campus-cli",
	})

	manager := portal.NewManager(tokens, client, client,
		portal.WithLogger(logger),
		portal.WithNotifier(toastNotifier{out: os.Stdout}),
		portal.WithResolveTimeout(cfg.Session.ResolveTimeout),
		portal.WithResolveRetry(cfg.Session.ResolveRetries, cfg.Session.RetryBackoff),
		portal.WithActivitySink(activityLogger(logger)),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   tokens,
		client:  client,
		manager: manager,
		closer:  closer,
	}, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger portal.Logger) (portal.TokenStore, io.Closer, error) {
	opts := []store.Option{store.WithKey(cfg.Key), store.WithLogger(logger)}

	switch cfg.Driver {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil, nil
	case config.StoreSQLite:
		if err := os.MkdirAll(dirOf(cfg.Path), 0o700); err != nil {
			return nil, nil, err
		}
		s, err := store.OpenSQLite(ctx, cfg.Path, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return store.NewFileStore(cfg.Path, opts...), nil, nil
	}
}

// start bootstraps the session and puts the manager in ctx
func (a *app) start(ctx context.Context) (context.Context, portal.Snapshot) {
	snap := a.manager.Start(ctx)
	return portal.WithManager(ctx, a.manager), snap
}

func (a *app) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// activityLogger writes normalized activity records to the debug log
func activityLogger(logger portal.Logger) portal.ActivitySink {
	return portal.ActivitySinkFunc(func(_ context.Context, e portal.ActivityEvent) error {
		record := activitymap.Normalize(e, activitymap.WithChannel("cli"))
		logger.Debug("activity %s", print.MaybePrettyJSON(record))
		return nil
	})
}
