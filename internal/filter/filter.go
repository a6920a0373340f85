// Package filter holds the percentage-based color adjustments a user can
// apply to the front image and converts them into a deterministic render
// description shared by the live preview and the baker.
package filter

import (
	"fmt"
	"strings"
)

// Field bounds. Brightness, contrast and saturation pivot around 100;
// sepia and grayscale are plain 0-100 intensities.
const (
	MinLevel     = 0
	MaxLevel     = 200
	MaxIntensity = 100
)

// State is the five-field adjustment vector. All values are percentages.
type State struct {
	Brightness int `json:"brightness"`
	Contrast   int `json:"contrast"`
	Saturation int `json:"saturation"`
	Sepia      int `json:"sepia"`
	Grayscale  int `json:"grayscale"`
}

// Default returns the canonical unedited vector used for dirty-checking.
func Default() State {
	return State{Brightness: 100, Contrast: 100, Saturation: 100}
}

// IsModified reports whether s deviates from the default vector in any
// field. It gates baking and UI options that only apply to unedited images.
func (s State) IsModified() bool {
	return s != Default()
}

// Clamp forces every field into its declared bounds.
func (s State) Clamp() State {
	s.Brightness = clampInt(s.Brightness, MinLevel, MaxLevel)
	s.Contrast = clampInt(s.Contrast, MinLevel, MaxLevel)
	s.Saturation = clampInt(s.Saturation, MinLevel, MaxLevel)
	s.Sepia = clampInt(s.Sepia, 0, MaxIntensity)
	s.Grayscale = clampInt(s.Grayscale, 0, MaxIntensity)
	return s
}

// Op is a single step of the render chain.
type Op struct {
	Name  string
	Value int
}

// RenderChain returns the ordered filter pipeline. The order is fixed
// (brightness, contrast, saturate, sepia, grayscale) because the operations
// do not commute; both renderers must apply them identically.
func (s State) RenderChain() []Op {
	s = s.Clamp()
	return []Op{
		{Name: "brightness", Value: s.Brightness},
		{Name: "contrast", Value: s.Contrast},
		{Name: "saturate", Value: s.Saturation},
		{Name: "sepia", Value: s.Sepia},
		{Name: "grayscale", Value: s.Grayscale},
	}
}

// String renders the chain as a CSS-filter-compatible description, e.g.
// "brightness(110%) contrast(100%) saturate(90%) sepia(0%) grayscale(0%)".
func (s State) String() string {
	ops := s.RenderChain()
	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		parts = append(parts, fmt.Sprintf("%s(%d%%)", op.Name, op.Value))
	}
	return strings.Join(parts, " ")
}

func clampInt(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
