// Package uploads implements the per-asset two-phase upload protocol:
// negotiate a ticket, then transfer the raw bytes. Assets whose upload fails
// fall back silently to their inline-encoded representation; the failure
// never aborts the publish flow.
package uploads

import (
	"context"
	"log/slog"

	"cardpress/internal/composition"
	"cardpress/internal/logging"
)

// Progress reports per-asset upload progress. done counts resolved assets
// (uploaded or fallen back), total is the number being processed.
type Progress func(done, total int, asset *composition.MediaAsset)

// Report summarizes an orchestrator pass.
type Report struct {
	Uploaded  int
	Fallbacks int
	Rejected  int
}

// Orchestrator uploads a composition's pending assets sequentially, in the
// order they were added. Sequential transfer keeps quota counting and
// progress percentages deterministic: no asset starts before the previous
// one resolves.
type Orchestrator struct {
	client   *Client
	logger   *slog.Logger
	progress Progress
}

// NewOrchestrator constructs an Orchestrator. logger and progress may be nil.
func NewOrchestrator(client *Client, logger *slog.Logger, progress Progress) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		client:   client,
		logger:   logger.With(logging.String(logging.FieldComponent, "uploads")),
		progress: progress,
	}
}

// UploadAll runs the two-phase protocol for every asset lacking an uploaded
// reference. Per asset: re-check the plan quota, negotiate a ticket, transfer
// the bytes, and record the opaque key. Negotiation or transfer failure falls
// back silently: the asset keeps only its inline representation and stays
// usable. The quota re-check guards against plan downgrades between insertion
// and publish; over-quota assets are counted as rejected but other assets are
// unaffected.
func (o *Orchestrator) UploadAll(ctx context.Context, comp *composition.Composition) Report {
	pending := comp.PendingUploads()
	total := len(pending)
	report := Report{}

	counts := map[composition.MediaType]int{}
	for _, asset := range comp.Assets {
		if asset.Uploaded() {
			counts[asset.Type]++
		}
	}

	for i, asset := range pending {
		if err := ctx.Err(); err != nil {
			o.logger.Debug("upload pass cancelled", logging.Error(err))
			break
		}

		if counts[asset.Type] >= comp.Plan.Quota(asset.Type) {
			report.Rejected++
			o.logger.Warn("asset over plan quota, not uploading",
				logging.String(logging.FieldAssetID, asset.ID),
				logging.String("type", string(asset.Type)),
				logging.String("plan", string(comp.Plan)))
			o.report(i+1, total, asset)
			continue
		}
		counts[asset.Type]++

		if o.uploadOne(ctx, asset) {
			report.Uploaded++
		} else {
			report.Fallbacks++
		}
		o.report(i+1, total, asset)
	}
	return report
}

// uploadOne resolves a single asset. Returns true when the asset now carries
// an uploaded reference.
func (o *Orchestrator) uploadOne(ctx context.Context, asset *composition.MediaAsset) bool {
	ticket, err := o.client.Negotiate(ctx, TicketRequest{
		Filename: asset.Filename,
		MIMEType: asset.MIMEType,
		Filesize: asset.Size(),
	})
	if err != nil {
		o.logger.Debug("ticket negotiation failed, keeping inline encoding",
			logging.String(logging.FieldAssetID, asset.ID),
			logging.Error(err))
		return false
	}

	if err := o.client.Transfer(ctx, ticket, asset.MIMEType, asset.InlineData); err != nil {
		o.logger.Debug("byte transfer failed, keeping inline encoding",
			logging.String(logging.FieldAssetID, asset.ID),
			logging.Error(err))
		return false
	}

	asset.UploadedRef = ticket.Key
	o.logger.Debug("asset uploaded",
		logging.String(logging.FieldAssetID, asset.ID),
		logging.String("key", ticket.Key),
		logging.Int("bytes", asset.Size()))
	return true
}

func (o *Orchestrator) report(done, total int, asset *composition.MediaAsset) {
	if o.progress != nil {
		o.progress(done, total, asset)
	}
}
