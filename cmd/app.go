package cmd

import (
	"context"
	"fmt"

	"sms-bridge/internal/bridge"
	"sms-bridge/internal/config"
	"sms-bridge/internal/events"
	"sms-bridge/internal/inbox"
	"sms-bridge/internal/listener"
	"sms-bridge/internal/logging"
	"sms-bridge/internal/store"
)

// app is the wired set of components shared by every command.
type app struct {
	store    *store.MetadataStore
	inbox    inbox.Provider
	listener *listener.Listener
	bridge   *bridge.Bridge
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn().Err(err).Msg("close failed")
		}
	}
}

// openKV opens the configured store backend.
func openKV(ctx context.Context, c config.StoreConfig) (store.KV, error) {
	switch c.Backend {
	case config.BackendMemory:
		return store.NewMemoryKV(), nil
	case config.BackendSQLite:
		return store.NewSQLiteKV(ctx, c.Path, c.Namespace)
	case config.BackendRedis:
		return store.NewRedisKV(ctx, c.RedisURL, c.Namespace)
	case config.BackendPostgres:
		return store.NewPostgresKV(ctx, c.PostgresURL, c.Namespace)
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}

// openInbox opens the configured inbox source. A source that cannot be
// opened is logged and replaced by inbox.Unavailable so permission checks
// and stored-record commands keep working.
func openInbox(ctx context.Context, c config.InboxConfig) inbox.Provider {
	switch c.Source {
	case config.SourceBackup:
		return inbox.NewBackupProvider(c.Path)
	default:
		p, err := inbox.NewSQLiteProvider(ctx, c.Path)
		if err != nil {
			logger.Warn().Err(err).Str("path", c.Path).Msg("inbox database unavailable")
			return inbox.Unavailable{Err: err}
		}
		return p
	}
}

func permissionFor(c config.InboxConfig) inbox.Permission {
	switch c.Permission {
	case config.PermissionGranted:
		return inbox.StaticPermission(true)
	case config.PermissionDenied:
		return inbox.StaticPermission(false)
	default:
		return inbox.FilePermission{Path: c.Path}
	}
}

// newApp wires store, inbox, listener and bridge. emitter may be nil.
func newApp(ctx context.Context, emitter events.Emitter) (*app, error) {
	kv, err := openKV(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &app{}
	a.store = store.NewMetadataStore(kv, logger)
	a.closers = append(a.closers, a.store.Close)

	a.inbox = openInbox(ctx, cfg.Inbox)
	a.closers = append(a.closers, a.inbox.Close)

	a.listener = listener.New(nil, a.store, logger)
	a.bridge = bridge.New(bridge.Deps{
		Inbox:      a.inbox,
		Permission: permissionFor(cfg.Inbox),
		Store:      a.store,
		Listener:   a.listener,
		Emitter:    emitter,
		Logger:     logger,
	})

	appLog := logging.WithComponent(logger, "app")
	appLog.Debug().
		Str("store", cfg.Store.Backend).
		Str("inbox", cfg.Inbox.Source).
		Msg("components wired")
	return a, nil
}
