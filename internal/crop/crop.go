// Package crop models the pan/zoom transform applied to a postcard's front
// image. The same state drives both the live preview placement and the source
// rectangle sampled when the final card is rasterized, so the two renderings
// stay pixel-equivalent.
package crop

import (
	"image"
	"math"
)

// State is a normalized pan/zoom description. X and Y are the focal point of
// the crop expressed as percentages of the source image, not the viewport.
type State struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Identity returns the state that leaves the image untouched: no zoom,
// focal point centered.
func Identity() State {
	return State{Scale: 1, X: 50, Y: 50}
}

// IsIdentity reports whether s would render the image without any crop.
func (s State) IsIdentity() bool {
	return s.Scale == 1 && s.X == 50 && s.Y == 50
}

// Clamp normalizes out-of-range values into the valid domain:
// scale >= 1, x and y within [0,100].
func (s State) Clamp() State {
	if s.Scale < 1 || math.IsNaN(s.Scale) {
		s.Scale = 1
	}
	s.X = clamp(s.X, 0, 100)
	s.Y = clamp(s.Y, 0, 100)
	return s
}

// PreviewPlacement positions the un-cropped image inside a fixed-aspect
// preview frame. All fields are percentages of the frame.
type PreviewPlacement struct {
	WidthPct  float64
	HeightPct float64
	LeftPct   float64
	TopPct    float64
}

// CoverScale returns the multiplier that makes an image of the given aspect
// ratio fully cover a container of the given aspect ratio. It is the larger
// of the width-fit and height-fit scales.
func CoverScale(containerAspect, imageAspect float64) float64 {
	if containerAspect <= 0 || imageAspect <= 0 {
		return 1
	}
	widthFit := 1.0
	heightFit := imageAspect / containerAspect
	return math.Max(widthFit, heightFit)
}

// PreviewRect computes where the source image sits inside the preview frame
// so that panning and zooming the overlay is visually equivalent to
// repositioning the source. The frame has the given aspect ratio
// (width / height).
func PreviewRect(s State, natural image.Point, frameAspect float64) PreviewPlacement {
	s = s.Clamp()
	if natural.X <= 0 || natural.Y <= 0 || frameAspect <= 0 {
		return PreviewPlacement{WidthPct: 100, HeightPct: 100}
	}
	imageAspect := float64(natural.X) / float64(natural.Y)
	cover := CoverScale(frameAspect, imageAspect)

	var widthPct, heightPct float64
	if imageAspect >= frameAspect {
		// Image is wider than the frame: height fills, width overflows.
		heightPct = 100 * s.Scale
		widthPct = heightPct * imageAspect / frameAspect
	} else {
		widthPct = 100 * cover * s.Scale
		heightPct = widthPct * frameAspect / imageAspect
	}

	return PreviewPlacement{
		WidthPct:  widthPct,
		HeightPct: heightPct,
		LeftPct:   50 - (s.X/100)*widthPct,
		TopPct:    50 - (s.Y/100)*heightPct,
	}
}

// SourceRect computes the rectangle of the source image to sample when
// rasterizing the final output. The returned rectangle always lies within
// the source bounds, even at extreme pan values.
func SourceRect(s State, natural, output image.Point) image.Rectangle {
	s = s.Clamp()
	if natural.X <= 0 || natural.Y <= 0 || output.X <= 0 || output.Y <= 0 {
		return image.Rectangle{}
	}

	natW := float64(natural.X)
	natH := float64(natural.Y)
	cover := math.Max(float64(output.X)/natW, float64(output.Y)/natH)
	displayScale := cover * s.Scale

	visibleW := float64(output.X) / displayScale
	visibleH := float64(output.Y) / displayScale

	centerX := s.X / 100 * natW
	centerY := s.Y / 100 * natH

	sx := clamp(centerX-visibleW/2, 0, natW-visibleW)
	sy := clamp(centerY-visibleH/2, 0, natH-visibleH)

	return image.Rect(
		int(math.Round(sx)),
		int(math.Round(sy)),
		int(math.Round(sx+visibleW)),
		int(math.Round(sy+visibleH)),
	)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
