package baker_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"cardpress/internal/baker"
	"cardpress/internal/crop"
	"cardpress/internal/filter"
)

func encodeTestImage(t *testing.T, width, height int, fill color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestNeedsBake(t *testing.T) {
	cases := []struct {
		name string
		crop crop.State
		filt filter.State
		want bool
	}{
		{"identity untouched", crop.Identity(), filter.Default(), false},
		{"zoomed", crop.State{Scale: 2, X: 50, Y: 50}, filter.Default(), true},
		{"panned", crop.State{Scale: 1, X: 40, Y: 50}, filter.Default(), true},
		{"filtered", crop.Identity(), filter.State{Brightness: 120, Contrast: 100, Saturation: 100}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := baker.NeedsBake(tc.crop, tc.filt); got != tc.want {
				t.Fatalf("NeedsBake = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBakeProducesOutputDimensions(t *testing.T) {
	b := baker.New(baker.Options{Width: 300, Height: 200, Quality: 85}, nil)
	src := encodeTestImage(t, 1200, 900, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	out, baked := b.Bake(context.Background(), src, crop.State{Scale: 2, X: 30, Y: 70}, filter.Default())
	if !baked {
		t.Fatal("expected bake to succeed")
	}

	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode baked output: %v", err)
	}
	if size := decoded.Bounds().Size(); size != image.Pt(300, 200) {
		t.Fatalf("baked size = %v, want 300x200", size)
	}
}

func TestBakeFallsBackOnUndecodableInput(t *testing.T) {
	b := baker.New(baker.Options{Width: 300, Height: 200, Quality: 85}, nil)
	src := []byte("definitely not an image")

	out, baked := b.Bake(context.Background(), src, crop.State{Scale: 2, X: 50, Y: 50}, filter.Default())
	if baked {
		t.Fatal("bake should report failure for undecodable input")
	}
	if !bytes.Equal(out, src) {
		t.Fatal("fallback must return the original bytes unchanged")
	}
}

func TestBakeGrayscaleRemovesChroma(t *testing.T) {
	b := baker.New(baker.Options{Width: 120, Height: 80, Quality: 95}, nil)
	src := encodeTestImage(t, 600, 400, color.RGBA{R: 220, G: 40, B: 40, A: 255})

	filt := filter.Default()
	filt.Grayscale = 100
	out, baked := b.Bake(context.Background(), src, crop.Identity(), filt)
	if !baked {
		t.Fatal("expected bake to succeed")
	}

	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode baked output: %v", err)
	}
	r, g, bl, _ := decoded.At(60, 40).RGBA()
	maxDelta := func(a, b uint32) uint32 {
		if a > b {
			return a - b
		}
		return b - a
	}
	// JPEG quantization allows a little wiggle; full grayscale should leave
	// channels nearly equal.
	if maxDelta(r, g) > 2048 || maxDelta(g, bl) > 2048 {
		t.Fatalf("expected gray pixel, got r=%d g=%d b=%d", r>>8, g>>8, bl>>8)
	}
}

func TestBakeBrightnessZeroIsBlack(t *testing.T) {
	b := baker.New(baker.Options{Width: 60, Height: 40, Quality: 95}, nil)
	src := encodeTestImage(t, 600, 400, color.RGBA{R: 180, G: 180, B: 180, A: 255})

	filt := filter.Default()
	filt.Brightness = 0
	out, baked := b.Bake(context.Background(), src, crop.Identity(), filt)
	if !baked {
		t.Fatal("expected bake to succeed")
	}
	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode baked output: %v", err)
	}
	r, g, bl, _ := decoded.At(30, 20).RGBA()
	if r>>8 > 4 || g>>8 > 4 || bl>>8 > 4 {
		t.Fatalf("expected near-black pixel, got r=%d g=%d b=%d", r>>8, g>>8, bl>>8)
	}
}
