// Package baker rasterizes the live crop/filter transform into the final
// fixed-aspect postcard image. Baking is best-effort: any decode or encode
// failure falls back to the original bytes so publishing is never blocked by
// a rendering problem.
package baker

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"log/slog"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"cardpress/internal/crop"
	"cardpress/internal/filter"
	"cardpress/internal/logging"
)

// Options controls the baked output raster.
type Options struct {
	Width   int
	Height  int
	Quality int
}

// Baker renders compositions into final postcard JPEGs.
type Baker struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a Baker. A nil logger is replaced with a nop logger.
func New(opts Options, logger *slog.Logger) *Baker {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		opts.Quality = 85
	}
	return &Baker{opts: opts, logger: logger.With(logging.String(logging.FieldComponent, "baker"))}
}

// NeedsBake reports whether the source must be re-rendered at publish time.
// An identity crop with an unmodified filter ships the original bytes
// untouched, avoiding a redundant re-encode.
func NeedsBake(c crop.State, f filter.State) bool {
	return !c.IsIdentity() || f.IsModified()
}

// Bake renders src through the crop and filter state into a JPEG of the
// configured output size. The second return reports whether baking actually
// happened: on any failure the original bytes come back unchanged with
// baked=false. Bake never returns an error to callers because baking failure
// is non-fatal to publishing.
func (b *Baker) Bake(ctx context.Context, src []byte, c crop.State, f filter.State) ([]byte, bool) {
	if len(src) == 0 {
		return src, false
	}
	select {
	case <-ctx.Done():
		return src, false
	default:
	}

	source, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		b.logger.Warn("front image decode failed, publishing unbaked original",
			logging.Error(err))
		return src, false
	}

	natural := source.Bounds().Size()
	output := image.Pt(b.opts.Width, b.opts.Height)
	srcRect := crop.SourceRect(c, natural, output).Add(source.Bounds().Min)
	if srcRect.Empty() {
		b.logger.Warn("computed source rectangle is empty, publishing unbaked original",
			logging.String("format", format))
		return src, false
	}

	canvas := image.NewRGBA(image.Rect(0, 0, output.X, output.Y))
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), source, srcRect, xdraw.Src, nil)

	applyFilterChain(canvas, f)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, canvas, &jpeg.Options{Quality: b.opts.Quality}); err != nil {
		b.logger.Warn("baked image encode failed, publishing unbaked original",
			logging.Error(err))
		return src, false
	}

	b.logger.Debug("front image baked",
		logging.Int("natural_width", natural.X),
		logging.Int("natural_height", natural.Y),
		logging.Int("output_width", output.X),
		logging.Int("output_height", output.Y),
		logging.Int("bytes", out.Len()))
	return out.Bytes(), true
}
