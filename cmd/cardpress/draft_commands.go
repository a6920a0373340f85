package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cardpress/internal/composition"
	"cardpress/internal/draft"
	"cardpress/internal/wizard"
)

func newDraftCommand(ctx *commandContext) *cobra.Command {
	draftCmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect and manage local draft snapshots",
	}

	draftCmd.AddCommand(newDraftListCommand(ctx))
	draftCmd.AddCommand(newDraftStatusCommand(ctx))
	draftCmd.AddCommand(newDraftAttachCommand(ctx))
	draftCmd.AddCommand(newDraftDiscardCommand(ctx))

	return draftCmd
}

func newDraftAttachCommand(ctx *commandContext) *cobra.Command {
	var mediaType string
	var note string

	cmd := &cobra.Command{
		Use:   "attach <key> <file>",
		Short: "Attach a media file to a draft",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			path := args[1]

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read media file: %w", err)
			}

			store, release, err := ctx.openDrafts()
			if err != nil {
				return err
			}
			defer release()

			snap, err := store.Restore(cmd.Context(), key, time.Now())
			if errors.Is(err, draft.ErrNoSnapshot) {
				return fmt.Errorf("no restorable draft for %q", key)
			}
			if err != nil {
				return err
			}
			comp := snap.Composition

			asset := composition.NewMediaAsset(composition.MediaType(mediaType),
				filepath.Base(path), attachmentMIME(path), data)
			asset.Note = note
			if err := comp.AddAsset(asset); err != nil {
				return err
			}
			if err := store.Save(cmd.Context(), key, comp, time.Now()); err != nil {
				return err
			}

			used := comp.AssetCount(asset.Type)
			quota := comp.Plan.Quota(asset.Type)
			fmt.Fprintf(cmd.OutOrStdout(), "Attached %s to %s (%d/%d %s slots used)\n",
				filepath.Base(path), key, used, quota, mediaType)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mediaType, "type", "t", "image", "Media type: image, video, or audio")
	cmd.Flags().StringVar(&note, "note", "", "Caption for the attachment")
	return cmd
}

func newDraftListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := ctx.openDrafts()
			if err != nil {
				return err
			}
			defer release()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list drafts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No drafts stored.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				age := time.Since(entry.UpdatedAt).Round(time.Minute)
				rows = append(rows, []string{
					entry.Key,
					entry.UpdatedAt.Local().Format("2006-01-02 15:04"),
					age.String(),
					fmt.Sprintf("%d", entry.Bytes),
				})
			}
			renderTable(out, []string{"KEY", "UPDATED", "AGE", "SIZE"}, rows, 4)
			return nil
		},
	}
}

func newDraftStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <key>",
		Short: "Show how far a draft can progress through the flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			controller := wizard.New(comp)
			for controller.CanAdvance() {
				if !controller.Advance(cmd.Context()) {
					break
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Draft %s (saved %s ago)\n", key, snap.Age(time.Now()).Round(time.Minute))
			fmt.Fprintf(out, "  plan:        %s\n", comp.Plan)
			fmt.Fprintf(out, "  front image: %v\n", comp.HasFrontImage())
			fmt.Fprintf(out, "  message:     %d chars\n", len(comp.Message))
			fmt.Fprintf(out, "  assets:      %d\n", len(comp.Assets))
			fmt.Fprintf(out, "  reaches:     %s step\n", controller.Current())
			if comp.EditMode() {
				fmt.Fprintf(out, "  editing:     remote card %s\n", comp.RemoteID)
			}
			if controller.Current() == wizard.StepPreview {
				fmt.Fprintln(out, "Draft is ready to publish.")
			}
			return nil
		},
	}
}

func newDraftDiscardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discard <key>",
		Short: "Delete a stored draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := ctx.openDrafts()
			if err != nil {
				return err
			}
			defer release()

			key := strings.TrimSpace(args[0])
			if err := store.Delete(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Discarded draft %s\n", key)
			return nil
		},
	}
}
