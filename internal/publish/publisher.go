// Package publish runs the publication pipeline: bake the front image when
// the composition has pan/zoom or filter edits, upload pending media, build
// the wire payload, and issue the create-or-update call. Media steps degrade
// to inline fallbacks on failure; only the final backend call is fatal.
package publish

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"cardpress/internal/baker"
	"cardpress/internal/composition"
	"cardpress/internal/config"
	"cardpress/internal/draft"
	"cardpress/internal/logging"
	"cardpress/internal/notifications"
	"cardpress/internal/services"
	"cardpress/internal/services/postal"
	"cardpress/internal/uploads"
)

// ErrInFlight is returned when a publish trigger arrives while a previous
// run has not finished. The trigger is dropped; the running publish is the
// one that counts.
var ErrInFlight = errors.New("publish already in flight")

// Saver issues the create-or-update backend call.
type Saver interface {
	Save(ctx context.Context, payload postal.CardPayload) (postal.SaveResponse, error)
}

// Deps collects the pipeline's collaborators. Drafts and Notify may be nil.
type Deps struct {
	Baker   *baker.Baker
	Uploads *uploads.Orchestrator
	Tickets *uploads.Client
	Backend Saver
	Drafts  *draft.Store
	Notify  notifications.Service
	Logger  *slog.Logger
}

// Publisher orchestrates a publish run. At most one run is in flight at a
// time; concurrent triggers are dropped rather than queued so a double-fired
// preview entry cannot create the same card twice.
type Publisher struct {
	deps      Deps
	shareBase string
	inFlight  atomic.Bool
	logger    *slog.Logger
}

// New constructs a Publisher. Share links are built from the backend base URL.
func New(cfg *config.Config, deps Deps) *Publisher {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{
		deps:      deps,
		shareBase: strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/"),
		logger:    logger.With(logging.String(logging.FieldComponent, "publish")),
	}
}

// InFlight reports whether a publish run is currently executing. The draft
// autosaver consults this to avoid snapshotting mid-publish state.
func (p *Publisher) InFlight() bool {
	return p.inFlight.Load()
}

// Publish runs the full pipeline for a composition. key names the draft
// snapshot to clear on success; it may be empty for compositions that were
// never autosaved. A composition with a RemoteID updates the existing card,
// everything else creates a new one.
//
// On backend failure the composition is left untouched (minus completed
// uploads, which remain valid) so the caller can retry.
func (p *Publisher) Publish(ctx context.Context, key string, comp *composition.Composition) (*composition.PublishResult, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Debug("publish trigger dropped, run already in flight",
			logging.String(logging.FieldDraftKey, key))
		return nil, ErrInFlight
	}
	defer p.inFlight.Store(false)

	if !comp.HasFrontImage() {
		return nil, services.Wrap(services.ErrValidation, "publish", "publish",
			"composition has no front image", nil)
	}

	logger := p.logger.With(logging.String(logging.FieldDraftKey, key))
	logger.Info("publishing card",
		logging.String("plan", string(comp.Plan)),
		logging.Bool("update", comp.RemoteID != ""),
		logging.Int("assets", len(comp.Assets)))

	p.bakeFrontImage(ctx, comp, logger)
	p.uploadFrontImage(ctx, comp, logger)

	if p.deps.Uploads != nil {
		report := p.deps.Uploads.UploadAll(ctx, comp)
		logger.Info("media upload pass complete",
			logging.Int("uploaded", report.Uploaded),
			logging.Int("fallbacks", report.Fallbacks),
			logging.Int("rejected", report.Rejected))
	}

	saved, err := p.deps.Backend.Save(ctx, postal.BuildPayload(comp))
	if err != nil {
		logger.Error("create-or-update failed", logging.Error(err))
		p.notifyFailure(ctx, err, logger)
		return nil, err
	}

	result := &composition.PublishResult{
		PublicID:   saved.PublicID,
		InternalID: saved.ID,
		ShareURL:   p.shareURL(saved.PublicID),
	}
	comp.Result = result
	if saved.ID != "" {
		comp.RemoteID = saved.ID
	}
	logger.Info("card published",
		logging.String("public_id", result.PublicID),
		logging.String("share_url", result.ShareURL))

	p.clearSnapshot(ctx, key, logger)
	p.notifySuccess(ctx, result, logger)
	return result, nil
}

// bakeFrontImage replaces the inline front image with its rasterized form
// when crop or filter edits exist. Baking invalidates any previously
// negotiated upload key, since that key refers to the unbaked bytes.
func (p *Publisher) bakeFrontImage(ctx context.Context, comp *composition.Composition, logger *slog.Logger) {
	if p.deps.Baker == nil || len(comp.FrontImageData) == 0 {
		return
	}
	if !baker.NeedsBake(comp.Crop, comp.Filter) {
		return
	}
	baked, ok := p.deps.Baker.Bake(ctx, comp.FrontImageData, comp.Crop, comp.Filter)
	if !ok {
		logger.Warn("bake failed, publishing original image")
		return
	}
	comp.FrontImageData = baked
	comp.FrontImageKey = ""
}

// uploadFrontImage tries to swap the inline front image for an upload key.
// Failure is silent: the payload carries the inline bytes instead.
func (p *Publisher) uploadFrontImage(ctx context.Context, comp *composition.Composition, logger *slog.Logger) {
	if p.deps.Tickets == nil || comp.FrontImageKey != "" || len(comp.FrontImageData) == 0 {
		return
	}
	ticket, err := p.deps.Tickets.Negotiate(ctx, uploads.TicketRequest{
		Filename: "front.jpg",
		MIMEType: "image/jpeg",
		Filesize: len(comp.FrontImageData),
	})
	if err != nil {
		logger.Debug("front image ticket negotiation failed, sending inline", logging.Error(err))
		return
	}
	if err := p.deps.Tickets.Transfer(ctx, ticket, "image/jpeg", comp.FrontImageData); err != nil {
		logger.Debug("front image transfer failed, sending inline", logging.Error(err))
		return
	}
	comp.FrontImageKey = ticket.Key
}

func (p *Publisher) clearSnapshot(ctx context.Context, key string, logger *slog.Logger) {
	if p.deps.Drafts == nil || key == "" {
		return
	}
	if err := p.deps.Drafts.Delete(ctx, key); err != nil {
		logger.Warn("failed to clear draft snapshot", logging.Error(err))
	}
}

func (p *Publisher) notifySuccess(ctx context.Context, result *composition.PublishResult, logger *slog.Logger) {
	if p.deps.Notify == nil {
		return
	}
	if err := p.deps.Notify.NotifyPublished(ctx, result.PublicID, result.ShareURL); err != nil {
		logger.Debug("publish notification failed", logging.Error(err))
	}
}

func (p *Publisher) notifyFailure(ctx context.Context, cause error, logger *slog.Logger) {
	if p.deps.Notify == nil {
		return
	}
	if err := p.deps.Notify.NotifyPublishFailed(ctx, cause); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
}

func (p *Publisher) shareURL(publicID string) string {
	if publicID == "" {
		return ""
	}
	return p.shareBase + "/c/" + publicID
}
