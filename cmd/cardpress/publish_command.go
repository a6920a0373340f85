package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cardpress/internal/baker"
	"cardpress/internal/composition"
	"cardpress/internal/config"
	"cardpress/internal/draft"
	"cardpress/internal/logging"
	"cardpress/internal/notifications"
	"cardpress/internal/publish"
	"cardpress/internal/services"
	"cardpress/internal/services/postal"
	"cardpress/internal/uploads"
	"cardpress/internal/wizard"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "publish <key>",
		Short: "Publish a draft through the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			key := strings.TrimSpace(args[0])

			store, release, err := ctx.openDrafts()
			if err != nil {
				return err
			}
			defer release()

			snap, err := store.Restore(cmd.Context(), key, time.Now())
			if errors.Is(err, draft.ErrNoSnapshot) {
				return fmt.Errorf("no restorable draft for %q (missing or older than %s)", key, store.TTL())
			}
			if err != nil {
				return err
			}
			comp := snap.Composition

			if !force {
				if blocked := firstBlockedStep(cmd, comp); blocked != "" {
					return fmt.Errorf("draft is not ready: the %s step is incomplete (use --force to skip the flow checks)", blocked)
				}
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			out := cmd.OutOrStdout()
			pub := newPublisher(cfg, store, logger, func(done, total int, _ *composition.MediaAsset) {
				fmt.Fprintf(out, "  uploading media %d/%d\n", done, total)
			})

			result, err := pub.Publish(cmd.Context(), key, comp)
			if err != nil {
				if services.Retryable(err) {
					return fmt.Errorf("publish failed (retryable, draft kept): %w", err)
				}
				return fmt.Errorf("publish failed: %w", err)
			}

			fmt.Fprintf(out, "Published %s\n", result.PublicID)
			if result.ShareURL != "" {
				fmt.Fprintf(out, "Share URL: %s\n", result.ShareURL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Publish even when flow guards report the draft incomplete")
	return cmd
}

// firstBlockedStep walks the flow guards and names the step that refuses to
// advance, or returns empty when the draft reaches preview.
func firstBlockedStep(cmd *cobra.Command, comp *composition.Composition) string {
	controller := wizard.New(comp)
	for controller.Current() != wizard.StepPreview {
		if !controller.CanAdvance() {
			return string(controller.Current())
		}
		controller.Advance(cmd.Context())
	}
	return ""
}

// newPublisher wires the full pipeline from configuration.
func newPublisher(cfg *config.Config, store *draft.Store, logger *slog.Logger, progress uploads.Progress) *publish.Publisher {
	timeout := time.Duration(cfg.Uploads.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	tickets := uploads.NewClient(cfg.Backend.BaseURL, cfg.Uploads.TicketPath, cfg.Backend.Token,
		&http.Client{Timeout: timeout})

	return publish.New(cfg, publish.Deps{
		Baker:   baker.New(baker.Options{Width: cfg.Output.Width, Height: cfg.Output.Height, Quality: cfg.Output.Quality}, logger),
		Uploads: uploads.NewOrchestrator(tickets, logger, progress),
		Tickets: tickets,
		Backend: postal.NewClient(cfg),
		Drafts:  store,
		Notify:  notifications.NewService(cfg),
		Logger:  logger,
	})
}
