package baker

import (
	"image"

	"cardpress/internal/filter"
)

// applyFilterChain mutates the canvas in place, applying the adjustment
// vector in the same fixed order the preview renderer declares
// (brightness, contrast, saturate, sepia, grayscale). Applying after the
// crop scale keeps the per-pixel cost bounded by the output size.
func applyFilterChain(canvas *image.RGBA, f filter.State) {
	ops := f.RenderChain()

	pix := canvas.Pix
	for i := 0; i < len(pix); i += 4 {
		r := float64(pix[i])
		g := float64(pix[i+1])
		b := float64(pix[i+2])

		for _, op := range ops {
			amount := float64(op.Value) / 100
			switch op.Name {
			case "brightness":
				r, g, b = r*amount, g*amount, b*amount
			case "contrast":
				r = (r-128)*amount + 128
				g = (g-128)*amount + 128
				b = (b-128)*amount + 128
			case "saturate":
				luma := luminance(r, g, b)
				r = luma + (r-luma)*amount
				g = luma + (g-luma)*amount
				b = luma + (b-luma)*amount
			case "sepia":
				sr := 0.393*r + 0.769*g + 0.189*b
				sg := 0.349*r + 0.686*g + 0.168*b
				sb := 0.272*r + 0.534*g + 0.131*b
				r = r + (sr-r)*amount
				g = g + (sg-g)*amount
				b = b + (sb-b)*amount
			case "grayscale":
				luma := luminance(r, g, b)
				r = r + (luma-r)*amount
				g = g + (luma-g)*amount
				b = b + (luma-b)*amount
			}
		}

		pix[i] = clampByte(r)
		pix[i+1] = clampByte(g)
		pix[i+2] = clampByte(b)
	}
}

// luminance uses the Rec. 601 weights, matching the CSS filter definitions
// the preview relies on.
func luminance(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v + 0.5)
}
