// Package composition models the in-progress postcard draft aggregate: the
// front image with its crop and filter state, text fields, attached media
// assets, the selected plan tier, and the publish result once one exists.
package composition

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cardpress/internal/crop"
	"cardpress/internal/filter"
	"cardpress/internal/services"
)

// Caption holds the front-side caption text and its typography.
type Caption struct {
	Text   string `json:"text,omitempty"`
	Font   string `json:"font,omitempty"`
	Size   int    `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
	Shadow bool   `json:"shadow,omitempty"`
}

// Stamp holds the stamp corner styling.
type Stamp struct {
	Style string `json:"style,omitempty"`
	Label string `json:"label,omitempty"`
}

// Location is an optional place attached to the card.
type Location struct {
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Label     string  `json:"label,omitempty"`
}

// Sticker is a decorative overlay placed on the front image.
type Sticker struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Payment captures how the payment wizard step was satisfied.
type Payment struct {
	Paid          bool   `json:"paid,omitempty"`
	PromoCode     string `json:"promo_code,omitempty"`
	AdminOverride bool   `json:"admin_override,omitempty"`
}

// PublishResult is set once a create-or-update call succeeds.
type PublishResult struct {
	PublicID   string `json:"public_id"`
	InternalID string `json:"internal_id,omitempty"`
	ShareURL   string `json:"share_url"`
}

// Composition is the complete draft aggregate. A composition is either a
// fresh draft (empty RemoteID) or bound to an existing remote document.
type Composition struct {
	FrontImageRef  string       `json:"front_image_ref,omitempty"`
	FrontImageData []byte       `json:"front_image_data,omitempty"`
	FrontImageKey  string       `json:"front_image_key,omitempty"`
	Crop           crop.State   `json:"crop"`
	Filter         filter.State `json:"filter"`
	Caption        Caption      `json:"caption"`
	Message        string       `json:"message"`
	Recipient      string       `json:"recipient,omitempty"`
	Sender         string       `json:"sender,omitempty"`
	Location       Location     `json:"location"`
	Stamp          Stamp        `json:"stamp"`
	Stickers       []Sticker    `json:"stickers,omitempty"`
	Assets         []MediaAsset `json:"assets,omitempty"`
	Plan           Plan         `json:"plan"`
	Payment        Payment      `json:"payment"`
	RemoteID       string       `json:"remote_id,omitempty"`
	Result         *PublishResult `json:"result,omitempty"`
}

// New returns a fresh composition with default crop and filter state.
func New(plan Plan) *Composition {
	return &Composition{
		Crop:   crop.Identity(),
		Filter: filter.Default(),
		Plan:   plan,
	}
}

// EditMode reports whether the composition is bound to a remote document,
// making the eventual publish an update rather than a create.
func (c *Composition) EditMode() bool {
	return strings.TrimSpace(c.RemoteID) != ""
}

// HasFrontImage reports whether a front image has been selected.
func (c *Composition) HasFrontImage() bool {
	return strings.TrimSpace(c.FrontImageRef) != "" || len(c.FrontImageData) > 0
}

// Published reports whether a publish result has been stored.
func (c *Composition) Published() bool {
	return c.Result != nil
}

// ClearResult drops the stored publish result so the next preview entry may
// trigger a fresh publish (creating a variant).
func (c *Composition) ClearResult() {
	c.Result = nil
}

// AssetCount returns the number of attached assets of the given type.
func (c *Composition) AssetCount(t MediaType) int {
	count := 0
	for _, asset := range c.Assets {
		if asset.Type == t {
			count++
		}
	}
	return count
}

// AddAsset appends an asset after checking the plan quota for its type.
// The quota is enforced at insertion, never retroactively: lowering the plan
// afterwards does not evict already-attached assets. On rejection the asset
// list is left unchanged.
func (c *Composition) AddAsset(asset MediaAsset) error {
	limit := c.Plan.Quota(asset.Type)
	if c.AssetCount(asset.Type) >= limit {
		return services.Wrap(services.ErrQuotaExceeded, "composition", "add asset",
			fmt.Sprintf("plan %s allows %d %s asset(s)", c.Plan, limit, asset.Type), nil)
	}
	c.Assets = append(c.Assets, asset)
	return nil
}

// RemoveAsset deletes the asset with the given id, if present.
func (c *Composition) RemoveAsset(id string) bool {
	for i, asset := range c.Assets {
		if asset.ID == id {
			c.Assets = append(c.Assets[:i], c.Assets[i+1:]...)
			return true
		}
	}
	return false
}

// PendingUploads returns pointers to the assets still lacking a backend
// reference key, in insertion order.
func (c *Composition) PendingUploads() []*MediaAsset {
	var pending []*MediaAsset
	for i := range c.Assets {
		if !c.Assets[i].Uploaded() {
			pending = append(pending, &c.Assets[i])
		}
	}
	return pending
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// SetRecipient stores a tidied recipient name.
func (c *Composition) SetRecipient(name string) {
	c.Recipient = tidyName(name)
}

// SetSender stores a tidied sender name.
func (c *Composition) SetSender(name string) {
	c.Sender = tidyName(name)
}

func tidyName(name string) string {
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}
