package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cardpress/internal/composition"
	"cardpress/internal/crop"
	"cardpress/internal/filter"
	"cardpress/internal/services/geocode"
)

func newNewCommand(ctx *commandContext) *cobra.Command {
	var (
		imagePath string
		message   string
		recipient string
		sender    string
		promo     string
		paid      bool
		scale     float64
		panX      float64
		panY      float64
		grayscale int
		sepia     int
		lat       float64
		lon       float64
		place     string
	)

	cmd := &cobra.Command{
		Use:   "new <key>",
		Short: "Start a draft from an image and message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			key := strings.TrimSpace(args[0])
			if key == "" {
				return fmt.Errorf("draft key is required")
			}

			comp := composition.New(composition.ParsePlan(cfg.Plan))
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read front image: %w", err)
				}
				comp.FrontImageData = data
				comp.FrontImageRef = filepath.Base(imagePath)
			}
			comp.Message = message
			comp.SetRecipient(recipient)
			comp.SetSender(sender)
			comp.Payment = composition.Payment{Paid: paid, PromoCode: promo}
			comp.Crop = crop.State{Scale: scale, X: panX, Y: panY}.Clamp()
			comp.Filter = filter.State{
				Brightness: 100,
				Contrast:   100,
				Saturation: 100,
				Grayscale:  grayscale,
				Sepia:      sepia,
			}.Clamp()

			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				comp.Location = composition.Location{
					Latitude:  lat,
					Longitude: lon,
					Label:     strings.TrimSpace(place),
				}
				// A lookup failure leaves the label empty; the coordinates
				// still publish.
				if comp.Location.Label == "" && cfg.Geocode.Enabled {
					if resolved, err := geocode.NewClient(cfg).Reverse(cmd.Context(), lat, lon); err == nil {
						comp.Location.Label = resolved.ShortLabel()
					}
				}
			}

			store, release, err := ctx.openDrafts()
			if err != nil {
				return err
			}
			defer release()

			if err := store.Save(cmd.Context(), key, comp, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved draft %s (plan %s)\n", key, comp.Plan)
			return nil
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Front image file")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Back-side message")
	cmd.Flags().StringVar(&recipient, "to", "", "Recipient name")
	cmd.Flags().StringVar(&sender, "from", "", "Sender name")
	cmd.Flags().StringVar(&promo, "promo", "", "Promo code for the payment step")
	cmd.Flags().BoolVar(&paid, "paid", false, "Mark the payment step as settled")
	cmd.Flags().Float64Var(&scale, "zoom", 1, "Front image zoom factor (1 to 3)")
	cmd.Flags().Float64Var(&panX, "pan-x", 50, "Horizontal focal point in percent (50 is centered)")
	cmd.Flags().Float64Var(&panY, "pan-y", 50, "Vertical focal point in percent (50 is centered)")
	cmd.Flags().IntVar(&grayscale, "grayscale", 0, "Grayscale intensity (0 to 100)")
	cmd.Flags().IntVar(&sepia, "sepia", 0, "Sepia intensity (0 to 100)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Location latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Location longitude")
	cmd.Flags().StringVar(&place, "place", "", "Location label (looked up via reverse geocoding when omitted)")
	return cmd
}

// attachmentMIME guesses the MIME type for an asset file, defaulting to a
// generic binary type when the extension is unknown.
func attachmentMIME(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
