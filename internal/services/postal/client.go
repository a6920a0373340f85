// Package postal is the client for the postcard backend: the create-or-update
// call that publishes a composition and the edit-mode fetch that rehydrates
// one from a public identifier.
package postal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cardpress/internal/composition"
	"cardpress/internal/config"
	"cardpress/internal/crop"
	"cardpress/internal/filter"
	"cardpress/internal/services"
)

// HTTPDoer describes the HTTP client used by the postal service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the postcard backend API.
type Client struct {
	baseURL string
	token   string
	doer    HTTPDoer
}

// NewClient constructs a backend client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Backend.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return New(cfg.Backend.BaseURL, cfg.Backend.Token, &http.Client{Timeout: timeout})
}

// New constructs a backend client with an injectable HTTP doer.
func New(baseURL, token string, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		doer:    doer,
	}
}

// Save performs the create-or-update call. The payload's ID field decides
// which of the two it is. A transport failure or an unsuccessful response is
// returned as a retryable backend error; the caller keeps the composition.
func (c *Client) Save(ctx context.Context, payload CardPayload) (SaveResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return SaveResponse{}, services.Wrap(services.ErrTransient, "postal", "save", "encode payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/cards", bytes.NewReader(body))
	if err != nil {
		return SaveResponse{}, services.Wrap(services.ErrTransient, "postal", "save", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.doer.Do(req)
	if err != nil {
		return SaveResponse{}, services.Wrap(services.ErrBackend, "postal", "save", "create-or-update failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return SaveResponse{}, services.Wrap(services.ErrBackend, "postal", "save",
			fmt.Sprintf("backend returned %d", resp.StatusCode), nil)
	}

	var saved SaveResponse
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		return SaveResponse{}, services.Wrap(services.ErrBackend, "postal", "save", "decode response", err)
	}
	if !saved.Success {
		message := strings.TrimSpace(saved.Error)
		if message == "" {
			message = "backend rejected the card"
		}
		return saved, services.Wrap(services.ErrBackend, "postal", "save", message, nil)
	}
	return saved, nil
}

// Document is the backend's stored card shape returned by the edit fetch.
type Document struct {
	ID        string                `json:"id"`
	PublicID  string                `json:"publicId"`
	ImageURL  string                `json:"imageUrl"`
	Crop      crop.State            `json:"crop"`
	Filter    filter.State          `json:"filter"`
	Caption   composition.Caption   `json:"caption"`
	Message   string                `json:"message"`
	Recipient string                `json:"recipient"`
	Sender    string                `json:"sender"`
	Location  composition.Location  `json:"location"`
	Stamp     composition.Stamp     `json:"stamp"`
	Stickers  []composition.Sticker `json:"stickers"`
	Plan      string                `json:"plan"`
	Media     []MediaDocument       `json:"media"`
}

// MediaDocument is a stored media item with its resolved URL.
type MediaDocument struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
	Key  string `json:"key"`
	Note string `json:"note,omitempty"`
}

// Fetch retrieves a published card and field-maps it into a fresh
// composition bound to the remote document (edit mode).
func (c *Client) Fetch(ctx context.Context, publicID string) (*composition.Composition, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, services.Wrap(services.ErrValidation, "postal", "fetch", "public id is required", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/cards/"+publicID, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "postal", "fetch", "build request", err)
	}
	c.authorize(req)

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrBackend, "postal", "fetch", "fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "postal", "fetch",
			fmt.Sprintf("card %s not found", publicID), nil)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrBackend, "postal", "fetch",
			fmt.Sprintf("backend returned %d", resp.StatusCode), nil)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, services.Wrap(services.ErrBackend, "postal", "fetch", "decode document", err)
	}

	return doc.ToComposition(), nil
}

// ToComposition maps a stored document into an editable composition.
func (d Document) ToComposition() *composition.Composition {
	comp := composition.New(composition.ParsePlan(d.Plan))
	comp.RemoteID = d.ID
	comp.FrontImageRef = d.ImageURL
	comp.Crop = d.Crop.Clamp()
	comp.Filter = d.Filter.Clamp()
	comp.Caption = d.Caption
	comp.Message = d.Message
	comp.Recipient = d.Recipient
	comp.Sender = d.Sender
	comp.Location = d.Location
	comp.Stamp = d.Stamp
	comp.Stickers = d.Stickers
	for _, media := range d.Media {
		comp.Assets = append(comp.Assets, composition.MediaAsset{
			ID:          media.ID,
			Type:        composition.MediaType(media.Type),
			SourceRef:   media.URL,
			UploadedRef: media.Key,
			Note:        media.Note,
		})
	}
	return comp
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
