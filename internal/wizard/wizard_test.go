package wizard_test

import (
	"context"
	"testing"

	"cardpress/internal/composition"
	"cardpress/internal/wizard"
)

func readyComposition() *composition.Composition {
	comp := composition.New(composition.PlanFree)
	comp.FrontImageRef = "photo.jpg"
	comp.Message = "Hello"
	return comp
}

func TestPhotoGuardRequiresFrontImage(t *testing.T) {
	comp := composition.New(composition.PlanFree)
	ctrl := wizard.New(comp)

	if ctrl.CanAdvance() {
		t.Fatal("photo step must block without a front image")
	}
	comp.FrontImageRef = "photo.jpg"
	if !ctrl.CanAdvance() {
		t.Fatal("photo step should pass once an image is selected")
	}
}

func TestRedactionGuardTrimsWhitespace(t *testing.T) {
	comp := composition.New(composition.PlanFree)
	comp.FrontImageRef = "photo.jpg"
	ctrl := wizard.New(comp)
	if !ctrl.Advance(context.Background()) {
		t.Fatal("expected to reach redaction")
	}

	comp.Message = "   "
	if ctrl.CanAdvance() {
		t.Fatal("whitespace-only message must not pass the redaction guard")
	}
	comp.Message = "Hello"
	if !ctrl.CanAdvance() {
		t.Fatal("non-empty message should pass the redaction guard")
	}
}

func TestPaymentGuardAlternatives(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*composition.Composition)
		want   bool
	}{
		{"free plan", func(c *composition.Composition) { c.Plan = composition.PlanFree }, true},
		{"paid", func(c *composition.Composition) { c.Plan = composition.PlanPremium; c.Payment.Paid = true }, true},
		{"promo code", func(c *composition.Composition) { c.Plan = composition.PlanPremium; c.Payment.PromoCode = "POSTCARD" }, true},
		{"admin override", func(c *composition.Composition) { c.Plan = composition.PlanPremium; c.Payment.AdminOverride = true }, true},
		{"nothing", func(c *composition.Composition) { c.Plan = composition.PlanPremium }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			comp := readyComposition()
			tc.mutate(comp)
			ctrl := wizard.New(comp)
			ctx := context.Background()
			if !ctrl.Advance(ctx) || !ctrl.Advance(ctx) {
				t.Fatal("expected to reach payment")
			}
			if got := ctrl.CanAdvance(); got != tc.want {
				t.Fatalf("payment guard = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBackAlwaysAllowedWithFloor(t *testing.T) {
	ctrl := wizard.New(readyComposition())
	ctx := context.Background()
	ctrl.Advance(ctx)
	ctrl.Advance(ctx)

	if !ctrl.Back() || ctrl.Current() != wizard.StepRedaction {
		t.Fatalf("expected redaction after back, got %s", ctrl.Current())
	}
	if !ctrl.Back() || ctrl.Current() != wizard.StepPhoto {
		t.Fatalf("expected photo after back, got %s", ctrl.Current())
	}
	if ctrl.Back() {
		t.Fatal("photo is the floor; back must fail")
	}
}

func TestPreviewEntryTriggersPublishOnce(t *testing.T) {
	comp := readyComposition()
	triggers := 0
	ctrl := wizard.New(comp, wizard.WithPreviewTrigger(func(context.Context) {
		triggers++
		comp.Result = &composition.PublishResult{PublicID: "p1", ShareURL: "https://x/p1"}
	}))

	ctx := context.Background()
	for ctrl.Current() != wizard.StepPreview {
		if !ctrl.Advance(ctx) {
			t.Fatalf("flow stuck at %s", ctrl.Current())
		}
	}
	if triggers != 1 {
		t.Fatalf("expected exactly one publish trigger, got %d", triggers)
	}

	// Revisit: back out and re-enter. The stored result suppresses re-publish.
	ctrl.Back()
	if !ctrl.Advance(ctx) {
		t.Fatal("expected to re-enter preview")
	}
	if triggers != 1 {
		t.Fatalf("re-entering preview must not re-trigger, got %d", triggers)
	}

	// Explicitly clearing the result re-arms the trigger.
	comp.ClearResult()
	ctrl.Back()
	if !ctrl.Advance(ctx) {
		t.Fatal("expected to re-enter preview after clear")
	}
	if triggers != 2 {
		t.Fatalf("cleared result should re-trigger, got %d", triggers)
	}
}

func TestPreviewIsTerminal(t *testing.T) {
	ctrl := wizard.New(readyComposition())
	ctx := context.Background()
	for ctrl.Current() != wizard.StepPreview {
		if !ctrl.Advance(ctx) {
			t.Fatalf("flow stuck at %s", ctrl.Current())
		}
	}
	if ctrl.CanAdvance() || ctrl.Advance(ctx) {
		t.Fatal("preview must be terminal")
	}
}
