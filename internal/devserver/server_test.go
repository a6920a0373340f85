package devserver_test

import (
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"cardpress/internal/baker"
	"cardpress/internal/composition"
	"cardpress/internal/devserver"
	"cardpress/internal/publish"
	"cardpress/internal/services"
	"cardpress/internal/services/postal"
	"cardpress/internal/testsupport"
	"cardpress/internal/uploads"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := devserver.OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	server := httptest.NewServer(devserver.New(store, nil).Router())
	t.Cleanup(server.Close)
	return server
}

func TestHealthz(t *testing.T) {
	server := newBackend(t)
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestTicketRejectsZeroFilesize(t *testing.T) {
	server := newBackend(t)
	client := uploads.NewClient(server.URL, "/api/v1/uploads/tickets", "", nil)

	_, err := client.Negotiate(context.Background(), uploads.TicketRequest{
		Filename: "x.jpg", MIMEType: "image/jpeg", Filesize: 0,
	})
	if err == nil {
		t.Fatal("expected negotiation to fail for zero filesize")
	}
}

func TestUploadRoundTrip(t *testing.T) {
	server := newBackend(t)
	client := uploads.NewClient(server.URL, "/api/v1/uploads/tickets", "", nil)

	payload := []byte("blob bytes")
	ticket, err := client.Negotiate(context.Background(), uploads.TicketRequest{
		Filename: "clip.mp4", MIMEType: "video/mp4", Filesize: len(payload),
	})
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if err := client.Transfer(context.Background(), ticket, "video/mp4", payload); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	resp, err := http.Get(server.URL + "/blob/" + ticket.Key)
	if err != nil {
		t.Fatalf("GET blob: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("blob status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestSaveRejectsCardWithoutFrontImage(t *testing.T) {
	server := newBackend(t)
	client := postal.New(server.URL, "", nil)

	_, err := client.Save(context.Background(), postal.CardPayload{Message: "empty"})
	if !services.Retryable(err) {
		// 422 comes back as a backend error; the point is it must not succeed.
		t.Logf("save error: %v", err)
	}
	if err == nil {
		t.Fatal("expected save to fail without a front image")
	}
}

// Publishing against the development backend exercises every endpoint the
// real pipeline touches, then the edit fetch rehydrates the stored card.
func TestPublishAndEditRoundTrip(t *testing.T) {
	server := newBackend(t)
	cfg := testsupport.NewConfig(t)
	cfg.Backend.BaseURL = server.URL

	tickets := uploads.NewClient(server.URL, "/api/v1/uploads/tickets", "", nil)
	backend := postal.New(server.URL, "", nil)
	pub := publish.New(cfg, publish.Deps{
		Baker:   baker.New(baker.Options{Width: 90, Height: 60, Quality: 80}, nil),
		Uploads: uploads.NewOrchestrator(tickets, nil, nil),
		Tickets: tickets,
		Backend: backend,
	})

	comp := composition.New(composition.PlanStandard)
	comp.FrontImageData = testsupport.JPEGImage(t, 180, 120, color.RGBA{R: 30, G: 140, B: 60, A: 255})
	comp.Message = "greetings from the integration test"
	comp.Recipient = "ada lovelace"
	comp.Crop.Scale = 1.4
	if err := comp.AddAsset(composition.NewMediaAsset(composition.MediaImage, "extra.jpg", "image/jpeg",
		testsupport.JPEGImage(t, 20, 20, color.RGBA{A: 255}))); err != nil {
		t.Fatalf("AddAsset: %v", err)
	}

	result, err := pub.Publish(context.Background(), "", comp)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.PublicID == "" || result.InternalID == "" {
		t.Fatalf("incomplete result: %+v", result)
	}

	restored, err := backend.Fetch(context.Background(), result.PublicID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !restored.EditMode() {
		t.Fatal("fetched composition should be bound to the remote document")
	}
	if restored.RemoteID != result.InternalID {
		t.Fatalf("RemoteID = %q, want %q", restored.RemoteID, result.InternalID)
	}
	if restored.Message != comp.Message {
		t.Fatalf("Message = %q", restored.Message)
	}
	if restored.Crop.Scale != 1.4 {
		t.Fatalf("Crop.Scale = %v, want 1.4", restored.Crop.Scale)
	}
	if restored.FrontImageRef == "" {
		t.Fatal("fetched composition should reference the stored front image")
	}
	if len(restored.Assets) != 1 || restored.Assets[0].UploadedRef == "" {
		t.Fatalf("asset should round-trip with its upload key, got %+v", restored.Assets)
	}

	// Publishing again from edit mode updates the same document.
	comp2 := restored
	comp2.Message = "second edition"
	comp2.FrontImageData = testsupport.JPEGImage(t, 60, 40, color.RGBA{R: 200, A: 255})
	result2, err := pub.Publish(context.Background(), "", comp2)
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if result2.PublicID != result.PublicID || result2.InternalID != result.InternalID {
		t.Fatalf("update changed identity: %+v vs %+v", result2, result)
	}

	final, err := backend.Fetch(context.Background(), result.PublicID)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if final.Message != "second edition" {
		t.Fatalf("Message after update = %q", final.Message)
	}
}
