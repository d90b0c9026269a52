// Package sync owns the in-memory guild state: it reconciles remote document
// snapshots into the local cache, runs the one-shot legacy migration on first
// launch, and translates dispatched actions into partial updates.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/ebrown/guildhall/internal/docstore"
	"github.com/ebrown/guildhall/internal/guild"
	"github.com/ebrown/guildhall/internal/model"
)

// ErrNotLoaded is returned when an action is dispatched before the first
// snapshot has arrived.
var ErrNotLoaded = errors.New("guild state not loaded yet")

// ErrBadLedger is returned when an imported ledger does not parse.
var ErrBadLedger = errors.New("invalid ledger data")

// LegacyReader reads the v1 on-device state, or returns (nil, nil) when no
// legacy install exists.
type LegacyReader interface {
	Read(defaults model.GuildState) (*model.GuildState, error)
}

// resubscribeDelay spaces reconnect attempts after the snapshot stream fails.
const resubscribeDelay = 5 * time.Second

// Engine is the reconciliation engine. The local state is a read cache: it
// changes only when the store echoes a snapshot back, never optimistically.
type Engine struct {
	store      docstore.Store
	legacy     LegacyReader
	logger     *slog.Logger
	onSync     func(fields []string)
	now        func() time.Time
	retryDelay time.Duration

	mu     gosync.RWMutex
	state  model.GuildState
	loaded bool
}

// New creates an engine seeded with the default document. legacy may be nil
// when no local v1 database is configured; onSync may be nil.
func New(store docstore.Store, legacy LegacyReader, logger *slog.Logger, onSync func(fields []string)) *Engine {
	return &Engine{
		store:      store,
		legacy:     legacy,
		logger:     logger,
		onSync:     onSync,
		now:        time.Now,
		retryDelay: resubscribeDelay,
		state:      model.DefaultState(),
	}
}

// Run subscribes to the snapshot stream and blocks until ctx is cancelled.
// A failed stream is resubscribed after a fixed delay so a running install
// recovers without a restart; the cache serves stale reads in between.
func (e *Engine) Run(ctx context.Context) {
	for {
		failed := make(chan error, 1)
		unsub := e.store.Subscribe(ctx,
			func(snap docstore.Snapshot) { e.handleSnapshot(ctx, snap) },
			func(err error) {
				select {
				case failed <- err:
				default:
				}
			},
		)

		select {
		case <-ctx.Done():
			unsub()
			return
		case err := <-failed:
			unsub()
			e.logger.Error("snapshot stream failed, resubscribing", "error", err, "delay", e.retryDelay)
		}

		select {
		case <-time.After(e.retryDelay):
		case <-ctx.Done():
			return
		}
	}
}

// State returns a deep copy of the cached state and whether a snapshot has
// been loaded.
func (e *Engine) State() (model.GuildState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return model.Clone(e.state), e.loaded
}

// Dispatch applies an action to the current state and sends the resulting
// partial update, fire and forget. Send failures are logged and dropped; the
// cache stays stale until the next successful snapshot. Actions whose
// preconditions fail are silent no-ops.
func (e *Engine) Dispatch(ctx context.Context, action guild.Action) error {
	e.mu.RLock()
	if !e.loaded {
		e.mu.RUnlock()
		return ErrNotLoaded
	}
	update := guild.Apply(e.state, action, e.now())
	e.mu.RUnlock()

	if len(update) == 0 {
		e.logger.Debug("action was a no-op", "action", guild.Name(action))
		return nil
	}

	if err := e.store.Update(ctx, map[string]any(update)); err != nil {
		e.logger.Error("sync update failed", "action", guild.Name(action), "error", err)
	}
	return nil
}

// ExportLedger serializes the cached state as indented JSON.
func (e *Engine) ExportLedger() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return json.MarshalIndent(e.state, "", "  ")
}

// ImportLedger replaces the remote document with a pasted ledger. A parse
// failure is surfaced and changes nothing.
func (e *Engine) ImportLedger(ctx context.Context, text []byte) error {
	var state model.GuildState
	if err := json.Unmarshal(text, &state); err != nil {
		return fmt.Errorf("%w: %v", ErrBadLedger, err)
	}
	model.Normalize(&state)
	if err := e.store.Set(ctx, state); err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}
	return nil
}

func (e *Engine) handleSnapshot(ctx context.Context, snap docstore.Snapshot) {
	if !snap.Exists {
		e.migrateOrSeed(ctx)
		return
	}

	fields := e.reconcile(snap.Data)
	if e.onSync != nil {
		e.onSync(fields)
	}
}

// reconcile shallow-merges the snapshot over local state: every top-level
// field present in the snapshot wins wholesale, fields the snapshot omits
// keep their local value. Returns the list of merged fields.
func (e *Engine) reconcile(data map[string]any) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := model.Clone(e.state)
	fields := make([]string, 0, len(data))
	for key, value := range data {
		if err := assignField(&next, key, value); err != nil {
			e.logger.Warn("skipping unreadable snapshot field", "field", key, "error", err)
			continue
		}
		fields = append(fields, key)
	}
	model.Normalize(&next)

	e.state = next
	e.loaded = true
	return fields
}

// migrateOrSeed creates the initial remote document: from the legacy local
// store when present, otherwise from the in-memory defaults. Gated only on
// document absence; if two clients race, the last full set wins.
func (e *Engine) migrateOrSeed(ctx context.Context) {
	seed, loaded := func() (model.GuildState, bool) {
		e.mu.RLock()
		defer e.mu.RUnlock()
		return model.Clone(e.state), e.loaded
	}()
	if loaded {
		// Remote document deleted out from under a running install; reseed
		// from the cache rather than re-running the legacy migration.
		e.logger.Warn("remote document vanished, reseeding from cache")
	} else if e.legacy != nil {
		migrated, err := e.legacy.Read(seed)
		if err != nil {
			e.logger.Error("legacy read failed, seeding defaults", "error", err)
		} else if migrated != nil {
			e.logger.Info("migrating legacy state to remote document")
			seed = *migrated
		}
	}

	if err := e.store.Set(ctx, seed); err != nil {
		e.logger.Error("seed document failed", "error", err)
	}
}

// assignField decodes one top-level document field into its typed slot,
// replacing the previous value entirely.
func assignField(state *model.GuildState, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	switch key {
	case "familyXP":
		return json.Unmarshal(raw, &state.FamilyXP)
	case "familyGold":
		return json.Unmarshal(raw, &state.FamilyGold)
	case "members":
		state.Members = nil
		return json.Unmarshal(raw, &state.Members)
	case "quests":
		state.Quests = nil
		return json.Unmarshal(raw, &state.Quests)
	case "reminders":
		state.Reminders = nil
		return json.Unmarshal(raw, &state.Reminders)
	case "claimedBonuses":
		state.ClaimedBonuses = model.ClaimedBonuses{}
		return json.Unmarshal(raw, &state.ClaimedBonuses)
	case "rewards":
		state.Rewards = nil
		return json.Unmarshal(raw, &state.Rewards)
	case "menu":
		state.Menu = nil
		return json.Unmarshal(raw, &state.Menu)
	}
	// Unknown fields from other clients are preserved remotely but have no
	// local slot; ignore them.
	return nil
}
