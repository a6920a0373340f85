package draft

import (
	"context"
	"log/slog"
	"time"

	"cardpress/internal/composition"
	"cardpress/internal/logging"
)

// SessionOptions describe how the editor was entered.
type SessionOptions struct {
	// EditPublicID is set when the session opened an existing published card.
	EditPublicID string
	// PrefilledImage is set when an image was handed to the editor directly.
	PrefilledImage string
}

// ShouldOfferRestore reports whether a fresh session may offer a stored
// draft. Edit-mode sessions and sessions entered with a pre-filled image
// skip restoration entirely.
func (o SessionOptions) ShouldOfferRestore() bool {
	return o.EditPublicID == "" && o.PrefilledImage == ""
}

// Autosaver periodically snapshots a composition while it is being edited.
// Writes are skipped while a publish result exists or a publish is in
// flight, so a soon-to-be-obsolete draft is never persisted.
type Autosaver struct {
	store    *Store
	key      string
	comp     *composition.Composition
	interval time.Duration
	inFlight func() bool
	logger   *slog.Logger
}

// NewAutosaver constructs an Autosaver. inFlight reports whether a publish
// attempt is currently running; nil means never.
func NewAutosaver(store *Store, key string, comp *composition.Composition, interval time.Duration, inFlight func() bool, logger *slog.Logger) *Autosaver {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if inFlight == nil {
		inFlight = func() bool { return false }
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Autosaver{
		store:    store,
		key:      key,
		comp:     comp,
		interval: interval,
		inFlight: inFlight,
		logger:   logger.With(logging.String(logging.FieldComponent, "draft")),
	}
}

// Run snapshots on a ticker until the context is cancelled.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.SaveNow(ctx)
		}
	}
}

// SaveNow writes a snapshot immediately, honoring the skip conditions.
func (a *Autosaver) SaveNow(ctx context.Context) {
	if a.comp.Published() || a.inFlight() {
		return
	}
	if err := a.store.Save(ctx, a.key, a.comp, time.Now()); err != nil {
		a.logger.Warn("draft autosave failed",
			logging.String(logging.FieldDraftKey, a.key),
			logging.Error(err))
	}
}
