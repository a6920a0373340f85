// Package wizard sequences the four-step postcard flow: photo, redaction,
// payment, preview. Backward navigation is always allowed; forward movement
// is gated by per-step guards over the composition state.
package wizard

import (
	"context"
	"strings"

	"cardpress/internal/composition"
)

// Step is one state of the linear flow.
type Step string

const (
	StepPhoto     Step = "photo"
	StepRedaction Step = "redaction"
	StepPayment   Step = "payment"
	StepPreview   Step = "preview"
)

var stepOrder = []Step{StepPhoto, StepRedaction, StepPayment, StepPreview}

// Index returns the position of the step in the linear order, or -1.
func (s Step) Index() int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// PromoValidator decides whether a promo code satisfies the payment guard.
type PromoValidator func(code string) bool

// DefaultPromoValidator accepts any non-empty code. Real code validation
// happens backend-side at publish; the guard only needs "a code was applied".
func DefaultPromoValidator(code string) bool {
	return strings.TrimSpace(code) != ""
}

// Controller tracks the current step for a composition and fires the publish
// trigger on first entry to the preview step.
type Controller struct {
	comp       *composition.Composition
	step       Step
	validPromo PromoValidator

	// onPreview runs when the preview step is entered and no publish result
	// is stored yet. The publisher's own latch guarantees at most one
	// concurrent attempt, so re-firing here is harmless.
	onPreview func(context.Context)
}

// Option configures a Controller.
type Option func(*Controller)

// WithPromoValidator overrides the promo code check.
func WithPromoValidator(v PromoValidator) Option {
	return func(c *Controller) {
		if v != nil {
			c.validPromo = v
		}
	}
}

// WithPreviewTrigger sets the hook fired on entering the preview step.
func WithPreviewTrigger(fn func(context.Context)) Option {
	return func(c *Controller) {
		c.onPreview = fn
	}
}

// New constructs a controller starting at the photo step.
func New(comp *composition.Composition, opts ...Option) *Controller {
	c := &Controller{
		comp:       comp,
		step:       StepPhoto,
		validPromo: DefaultPromoValidator,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the active step.
func (c *Controller) Current() Step {
	return c.step
}

// CanAdvance evaluates the forward guard for the current step.
func (c *Controller) CanAdvance() bool {
	switch c.step {
	case StepPhoto:
		return c.comp.HasFrontImage()
	case StepRedaction:
		return strings.TrimSpace(c.comp.Message) != ""
	case StepPayment:
		pay := c.comp.Payment
		return pay.Paid ||
			pay.AdminOverride ||
			c.comp.Plan == composition.PlanFree ||
			c.validPromo(pay.PromoCode)
	case StepPreview:
		// Preview has no step after it, so its "always" guard and being
		// terminal collapse to the same answer: the flow never moves on.
		return false
	default:
		return false
	}
}

// Advance moves one step forward when the guard holds. Entering preview with
// no stored publish result fires the publish trigger; re-entering preview
// later does not unless the result was explicitly cleared.
func (c *Controller) Advance(ctx context.Context) bool {
	if !c.CanAdvance() {
		return false
	}
	idx := c.step.Index()
	if idx < 0 || idx+1 >= len(stepOrder) {
		return false
	}
	c.step = stepOrder[idx+1]

	if c.step == StepPreview && !c.comp.Published() && c.onPreview != nil {
		c.onPreview(ctx)
	}
	return true
}

// Back moves one step backward. Backward navigation is always allowed; the
// floor is the photo step.
func (c *Controller) Back() bool {
	idx := c.step.Index()
	if idx <= 0 {
		return false
	}
	c.step = stepOrder[idx-1]
	return true
}
