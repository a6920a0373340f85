package uploads_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"cardpress/internal/composition"
	"cardpress/internal/uploads"
)

// ticketServer implements the negotiation endpoint plus a transfer target.
type ticketServer struct {
	mu        sync.Mutex
	negotiated int
	transfers  map[string][]byte
	failNegotiate bool
	failTransfer  bool
	server    *httptest.Server
}

func newTicketServer(t *testing.T) *ticketServer {
	t.Helper()
	ts := &ticketServer{transfers: map[string][]byte{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/uploads/tickets", func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		if ts.failNegotiate {
			http.Error(w, "no tickets", http.StatusServiceUnavailable)
			return
		}
		ts.negotiated++
		key := fmt.Sprintf("key-%d", ts.negotiated)
		_ = json.NewEncoder(w).Encode(uploads.Ticket{
			URL: ts.server.URL + "/blob/" + key,
			Key: key,
		})
	})
	mux.HandleFunc("PUT /blob/{key}", func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		if ts.failTransfer {
			http.Error(w, "disk full", http.StatusInsufficientStorage)
			return
		}
		data, _ := io.ReadAll(r.Body)
		ts.transfers[r.PathValue("key")] = data
		w.WriteHeader(http.StatusCreated)
	})
	ts.server = httptest.NewServer(mux)
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *ticketServer) client() *uploads.Client {
	return uploads.NewClient(ts.server.URL, "/api/v1/uploads/tickets", "", ts.server.Client())
}

func TestUploadAllRecordsKeys(t *testing.T) {
	ts := newTicketServer(t)
	comp := composition.New(composition.PlanPremium)
	for i := 0; i < 3; i++ {
		asset := composition.NewMediaAsset(composition.MediaImage, fmt.Sprintf("a%d.jpg", i), "image/jpeg", []byte{byte(i), 1, 2})
		if err := comp.AddAsset(asset); err != nil {
			t.Fatalf("AddAsset: %v", err)
		}
	}

	var order []int
	orch := uploads.NewOrchestrator(ts.client(), nil, func(done, total int, _ *composition.MediaAsset) {
		order = append(order, done)
		if total != 3 {
			t.Fatalf("total = %d, want 3", total)
		}
	})
	report := orch.UploadAll(context.Background(), comp)

	if report.Uploaded != 3 || report.Fallbacks != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	for i, asset := range comp.Assets {
		if !asset.Uploaded() {
			t.Fatalf("asset %d missing uploaded ref", i)
		}
	}
	// Sequential ordering: progress counts up one at a time.
	for i, done := range order {
		if done != i+1 {
			t.Fatalf("progress out of order: %v", order)
		}
	}
	if len(ts.transfers) != 3 {
		t.Fatalf("expected 3 transferred blobs, got %d", len(ts.transfers))
	}
}

func TestNegotiationFailureFallsBackToInline(t *testing.T) {
	ts := newTicketServer(t)
	ts.failNegotiate = true

	comp := composition.New(composition.PlanPremium)
	asset := composition.NewMediaAsset(composition.MediaImage, "a.jpg", "image/jpeg", []byte{1, 2, 3})
	if err := comp.AddAsset(asset); err != nil {
		t.Fatalf("AddAsset: %v", err)
	}

	orch := uploads.NewOrchestrator(ts.client(), nil, nil)
	report := orch.UploadAll(context.Background(), comp)

	if report.Fallbacks != 1 || report.Uploaded != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	got := comp.Assets[0]
	if got.Uploaded() {
		t.Fatal("asset must not carry an uploaded ref after failed negotiation")
	}
	if len(got.InlineData) == 0 {
		t.Fatal("inline encoding must be preserved for the payload")
	}
}

func TestTransferFailureFallsBackToInline(t *testing.T) {
	ts := newTicketServer(t)
	ts.failTransfer = true

	comp := composition.New(composition.PlanPremium)
	if err := comp.AddAsset(composition.NewMediaAsset(composition.MediaImage, "a.jpg", "image/jpeg", []byte{9})); err != nil {
		t.Fatalf("AddAsset: %v", err)
	}

	orch := uploads.NewOrchestrator(ts.client(), nil, nil)
	report := orch.UploadAll(context.Background(), comp)
	if report.Fallbacks != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if comp.Assets[0].Uploaded() {
		t.Fatal("failed transfer must not record a key")
	}
}

func TestUploadAllSkipsAlreadyUploaded(t *testing.T) {
	ts := newTicketServer(t)
	comp := composition.New(composition.PlanPremium)
	done := composition.NewMediaAsset(composition.MediaImage, "done.jpg", "image/jpeg", []byte{1})
	done.UploadedRef = "existing"
	if err := comp.AddAsset(done); err != nil {
		t.Fatalf("AddAsset: %v", err)
	}

	orch := uploads.NewOrchestrator(ts.client(), nil, nil)
	report := orch.UploadAll(context.Background(), comp)
	if report.Uploaded != 0 || ts.negotiated != 0 {
		t.Fatalf("already-uploaded asset should be skipped: %+v, negotiated=%d", report, ts.negotiated)
	}
}
