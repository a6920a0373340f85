// Package geocode resolves coordinates to a human-readable place label for
// the card's location field. Lookups are best-effort decoration: callers
// treat any failure as "no label" and keep the raw coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cardpress/internal/config"
	"cardpress/internal/services"
)

// HTTPDoer describes the HTTP client used by the geocode service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Place is a resolved location.
type Place struct {
	Label   string `json:"display_name"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// Client performs reverse-geocoding lookups against a Nominatim-compatible
// endpoint.
type Client struct {
	baseURL string
	doer    HTTPDoer
	enabled bool
}

// NewClient constructs a geocode client from configuration. A disabled
// client answers every lookup with a not-found error.
func NewClient(cfg *config.Config) *Client {
	client := New(cfg.Geocode.BaseURL, &http.Client{Timeout: 10 * time.Second})
	client.enabled = cfg.Geocode.Enabled && client.baseURL != ""
	return client
}

// New constructs an enabled geocode client with an injectable HTTP doer.
func New(baseURL string, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		doer:    doer,
		enabled: true,
	}
}

// Reverse resolves a coordinate pair to a place. Out-of-range coordinates
// are a validation error; a lookup miss is a not-found error so callers can
// distinguish "no place there" from transport trouble.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	if !c.enabled {
		return Place{}, services.Wrap(services.ErrNotFound, "geocode", "reverse",
			"reverse geocoding is disabled", nil)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Place{}, services.Wrap(services.ErrValidation, "geocode", "reverse",
			fmt.Sprintf("coordinates out of range: %f, %f", lat, lon), nil)
	}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.6f", lat))
	query.Set("lon", fmt.Sprintf("%.6f", lon))
	query.Set("format", "jsonv2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return Place{}, services.Wrap(services.ErrTransient, "geocode", "reverse", "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return Place{}, services.Wrap(services.ErrTransient, "geocode", "reverse", "lookup failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Place{}, services.Wrap(services.ErrNotFound, "geocode", "reverse", "no place found", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return Place{}, services.Wrap(services.ErrTransient, "geocode", "reverse",
			fmt.Sprintf("geocoder returned %d", resp.StatusCode), nil)
	}

	var body struct {
		DisplayName string `json:"display_name"`
		Address     struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
			Country string `json:"country"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, services.Wrap(services.ErrTransient, "geocode", "reverse", "decode response", err)
	}
	if strings.TrimSpace(body.DisplayName) == "" {
		return Place{}, services.Wrap(services.ErrNotFound, "geocode", "reverse", "no place found", nil)
	}

	place := Place{
		Label:   body.DisplayName,
		Country: body.Address.Country,
	}
	for _, candidate := range []string{body.Address.City, body.Address.Town, body.Address.Village} {
		if candidate != "" {
			place.City = candidate
			break
		}
	}
	return place, nil
}

// ShortLabel returns "City, Country" when both parts are known, falling back
// to the full display name.
func (p Place) ShortLabel() string {
	if p.City != "" && p.Country != "" {
		return p.City + ", " + p.Country
	}
	return p.Label
}
