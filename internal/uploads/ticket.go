package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cardpress/internal/services"
)

// HTTPDoer describes the HTTP client used for ticket negotiation and byte
// transfer.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Ticket is the short-lived authorization returned by the negotiation step.
// Key is the opaque reference stored on the asset once the transfer succeeds.
type Ticket struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// TicketRequest describes the asset for which a ticket is requested.
type TicketRequest struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mimeType"`
	Filesize int    `json:"filesize"`
}

// Client negotiates upload tickets and transfers asset bytes.
type Client struct {
	ticketURL string
	token     string
	doer      HTTPDoer
}

// NewClient constructs an upload client against the given ticket endpoint.
func NewClient(baseURL, ticketPath, token string, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		ticketURL: strings.TrimRight(strings.TrimSpace(baseURL), "/") + ticketPath,
		token:     strings.TrimSpace(token),
		doer:      doer,
	}
}

// Negotiate requests an upload ticket for the described asset.
func (c *Client) Negotiate(ctx context.Context, treq TicketRequest) (Ticket, error) {
	body, err := json.Marshal(treq)
	if err != nil {
		return Ticket{}, services.Wrap(services.ErrTransient, "uploads", "negotiate", "encode ticket request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ticketURL, bytes.NewReader(body))
	if err != nil {
		return Ticket{}, services.Wrap(services.ErrTransient, "uploads", "negotiate", "build ticket request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return Ticket{}, services.Wrap(services.ErrBackend, "uploads", "negotiate", "ticket request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Ticket{}, services.Wrap(services.ErrBackend, "uploads", "negotiate",
			fmt.Sprintf("ticket endpoint returned %d", resp.StatusCode), nil)
	}

	var ticket Ticket
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		return Ticket{}, services.Wrap(services.ErrBackend, "uploads", "negotiate", "decode ticket response", err)
	}
	if strings.TrimSpace(ticket.URL) == "" || strings.TrimSpace(ticket.Key) == "" {
		return Ticket{}, services.Wrap(services.ErrBackend, "uploads", "negotiate", "ticket response missing url or key", nil)
	}
	return ticket, nil
}

// Transfer writes the raw asset bytes to the ticket destination with a
// matching content-type header.
func (c *Client) Transfer(ctx context.Context, ticket Ticket, mimeType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ticket.URL, bytes.NewReader(data))
	if err != nil {
		return services.Wrap(services.ErrTransient, "uploads", "transfer", "build transfer request", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.ContentLength = int64(len(data))

	resp, err := c.doer.Do(req)
	if err != nil {
		return services.Wrap(services.ErrBackend, "uploads", "transfer", "byte transfer failed", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrBackend, "uploads", "transfer",
			fmt.Sprintf("transfer destination returned %d", resp.StatusCode), nil)
	}
	return nil
}
