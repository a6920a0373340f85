package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cardpress/internal/services"
	"cardpress/internal/services/postal"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var keyFlag string

	cmd := &cobra.Command{
		Use:   "edit <public-id>",
		Short: "Fetch a published card into a local draft for editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			publicID := strings.TrimSpace(args[0])

			comp, err := postal.NewClient(cfg).Fetch(cmd.Context(), publicID)
			if errors.Is(err, services.ErrNotFound) {
				return fmt.Errorf("no card found for %q", publicID)
			}
			if err != nil {
				return fmt.Errorf("fetch card: %w", err)
			}

			key := strings.TrimSpace(keyFlag)
			if key == "" {
				key = "edit-" + publicID
			}

			store, release, err := ctx.openDrafts()
			if err != nil {
				return err
			}
			defer release()

			// Edit-mode sessions never offer an old snapshot; the fetched
			// card replaces whatever was stored under the key.
			if err := store.Save(cmd.Context(), key, comp, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fetched card %s into draft %s\n", publicID, key)
			fmt.Fprintf(cmd.OutOrStdout(), "Publishing this draft will update the existing card.\n")
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyFlag, "key", "k", "", "Draft key to store the fetched card under")
	return cmd
}
