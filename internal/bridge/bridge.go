// Package bridge is the query surface offered to the host application:
// permission checks, inbox reads, stored-record retrieval and realtime sync
// control. Every failure is returned as an *apperr.Error.
package bridge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"sms-bridge/internal/apperr"
	"sms-bridge/internal/events"
	"sms-bridge/internal/inbox"
	"sms-bridge/internal/models"
)

// Store is the part of the metadata store the bridge needs.
type Store interface {
	Snapshot(ctx context.Context) ([]models.Record, int, error)
	Clear(ctx context.Context) (int, error)
	ClearThrough(ctx context.Context, n int) (int, error)
}

// Realtime controls whether the listener forwards events.
type Realtime interface {
	Attach(e events.Emitter)
	Detach()
	Attached() bool
}

// Deps wires a Bridge.
type Deps struct {
	Inbox      inbox.Provider
	Permission inbox.Permission
	Store      Store
	Listener   Realtime
	// Emitter is attached to Listener by StartRealtimeSync.
	Emitter events.Emitter
	Logger  zerolog.Logger
}

// Bridge implements the host-facing operations.
type Bridge struct {
	inbox      inbox.Provider
	permission inbox.Permission
	store      Store
	listener   Realtime
	emitter    events.Emitter
	logger     zerolog.Logger
}

// New creates a Bridge from d.
func New(d Deps) *Bridge {
	return &Bridge{
		inbox:      d.Inbox,
		permission: d.Permission,
		store:      d.Store,
		listener:   d.Listener,
		emitter:    d.Emitter,
		logger:     d.Logger.With().Str("component", "bridge").Logger(),
	}
}

// CheckPermission reports whether the inbox may be read.
func (b *Bridge) CheckPermission(ctx context.Context) (bool, error) {
	granted, err := b.permission.Granted(ctx)
	if err != nil {
		return false, apperr.New(apperr.CodeCheckPermission, err)
	}
	return granted, nil
}

// RequestPermission cannot prompt the user; it returns true only when the
// permission is already held.
func (b *Bridge) RequestPermission(ctx context.Context) (bool, error) {
	granted, err := b.permission.Granted(ctx)
	if err != nil {
		return false, apperr.New(apperr.CodeRequestPerm, err)
	}
	if !granted {
		b.logger.Info().Msg("sms read permission requested but not held; no prompt available")
	}
	return granted, nil
}

func (b *Bridge) requireGranted(ctx context.Context, code string) error {
	granted, err := b.permission.Granted(ctx)
	if err != nil {
		return apperr.New(code, err)
	}
	if !granted {
		return apperr.New(code, apperr.ErrPermissionDenied)
	}
	return nil
}

func (b *Bridge) query(ctx context.Context, code string, q inbox.Query) ([]models.InboxMessage, error) {
	if err := b.requireGranted(ctx, code); err != nil {
		return nil, err
	}
	q.SkipEmpty = true
	msgs, err := b.inbox.Query(ctx, q)
	if err != nil {
		b.logger.Error().Err(err).Str("code", code).Msg("inbox query failed")
		return nil, apperr.New(code, err)
	}
	if msgs == nil {
		msgs = []models.InboxMessage{}
	}
	return msgs, nil
}

// ListAll returns every received message with a sender and body, newest first.
func (b *Bridge) ListAll(ctx context.Context) ([]models.InboxMessage, error) {
	return b.query(ctx, apperr.CodeReadSMS, inbox.Query{})
}

// ListInRange returns the ListAll messages whose timestamp lies in
// [start, end]. An inverted range yields an empty list.
func (b *Bridge) ListInRange(ctx context.Context, start, end int64) ([]models.InboxMessage, error) {
	return b.query(ctx, apperr.CodeReadRange, inbox.Between(start, end))
}

// ListPage returns one page of ListAll. A zero limit means no limit.
func (b *Bridge) ListPage(ctx context.Context, limit, offset int) ([]models.InboxMessage, error) {
	if limit < 0 || offset < 0 {
		return nil, apperr.New(apperr.CodeReadSMS,
			fmt.Errorf("%w: limit and offset must not be negative", apperr.ErrInvalidInput))
	}
	return b.query(ctx, apperr.CodeReadSMS, inbox.Query{Limit: limit, Offset: offset})
}

// ListFromSender returns the ListAll messages whose address contains sender.
func (b *Bridge) ListFromSender(ctx context.Context, sender string) ([]models.InboxMessage, error) {
	if sender == "" {
		return nil, apperr.New(apperr.CodeReadSMS,
			fmt.Errorf("%w: sender must not be empty", apperr.ErrInvalidInput))
	}
	return b.query(ctx, apperr.CodeReadSMS, inbox.Query{Sender: sender})
}

// Count returns the inbox size, or 0 when the permission is not held.
func (b *Bridge) Count(ctx context.Context) (int, error) {
	granted, err := b.permission.Granted(ctx)
	if err != nil {
		return 0, apperr.New(apperr.CodeCountSMS, err)
	}
	if !granted {
		return 0, nil
	}
	n, err := b.inbox.Count(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("inbox count failed")
		return 0, apperr.New(apperr.CodeCountSMS, err)
	}
	return n, nil
}

// DrainStored returns every stored record without clearing the store.
func (b *Bridge) DrainStored(ctx context.Context) ([]models.StoredSMS, error) {
	out, _, err := b.SnapshotStored(ctx)
	return out, err
}

// SnapshotStored is DrainStored that also returns the index bound to hand to
// ClearStoredThrough once the records have been forwarded.
func (b *Bridge) SnapshotStored(ctx context.Context) ([]models.StoredSMS, int, error) {
	records, upto, err := b.store.Snapshot(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("reading stored sms failed")
		return nil, 0, apperr.New(apperr.CodeGetStored, err)
	}
	out := make([]models.StoredSMS, 0, len(records))
	for _, r := range records {
		out = append(out, r.Stored())
	}
	return out, upto, nil
}

// ClearStoredThrough removes the first n stored indices, keeping anything
// stored after the snapshot that produced n.
func (b *Bridge) ClearStoredThrough(ctx context.Context, n int) (int, error) {
	removed, err := b.store.ClearThrough(ctx, n)
	if err != nil {
		b.logger.Error().Err(err).Int("through", n).Msg("clearing stored sms failed")
		return 0, apperr.New(apperr.CodeClearStored, err)
	}
	b.logger.Info().Int("cleared", removed).Msg("stored sms cleared")
	return removed, nil
}

// ClearStored empties the store.
func (b *Bridge) ClearStored(ctx context.Context) (bool, error) {
	n, err := b.store.Clear(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("clearing stored sms failed")
		return false, apperr.New(apperr.CodeClearStored, err)
	}
	b.logger.Info().Int("cleared", n).Msg("stored sms cleared")
	return true, nil
}

// StartRealtimeSync attaches the configured emitter to the listener and
// reports whether one is now attached.
func (b *Bridge) StartRealtimeSync() bool {
	if b.emitter == nil {
		b.logger.Warn().Msg("realtime sync requested but no emitter configured")
		return b.listener.Attached()
	}
	b.listener.Attach(b.emitter)
	b.logger.Info().Msg("realtime sync started")
	return true
}

// StopRealtimeSync detaches the emitter; broadcasts are then stored only.
func (b *Bridge) StopRealtimeSync() bool {
	b.listener.Detach()
	b.logger.Info().Msg("realtime sync stopped")
	return false
}

// RealtimeAttached reports whether events are currently forwarded.
func (b *Bridge) RealtimeAttached() bool {
	return b.listener.Attached()
}
