package postal_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cardpress/internal/composition"
	"cardpress/internal/services"
	"cardpress/internal/services/postal"
)

func TestBuildPayloadPrefersUploadKeys(t *testing.T) {
	comp := composition.New(composition.PlanStandard)
	comp.FrontImageKey = "front-key"
	comp.FrontImageData = []byte{1, 2, 3}

	uploaded := composition.NewMediaAsset(composition.MediaImage, "a.jpg", "image/jpeg", []byte{4})
	uploaded.UploadedRef = "asset-key"
	inline := composition.NewMediaAsset(composition.MediaImage, "b.jpg", "image/jpeg", []byte{5, 6})
	comp.Assets = []composition.MediaAsset{uploaded, inline}

	payload := postal.BuildPayload(comp)

	if payload.FrontImageKey != "front-key" {
		t.Fatalf("front image key lost: %q", payload.FrontImageKey)
	}
	if payload.FrontImageInline != nil {
		t.Fatal("front image inline bytes must be dropped when a key exists")
	}
	if payload.Assets[0].Key != "asset-key" || payload.Assets[0].Inline != nil {
		t.Fatalf("uploaded asset must ship only its key: %+v", payload.Assets[0])
	}
	if payload.Assets[1].Key != "" || len(payload.Assets[1].Inline) == 0 {
		t.Fatalf("fallback asset must ship only inline bytes: %+v", payload.Assets[1])
	}
}

func TestBuildPayloadIncludesRemoteIDInEditMode(t *testing.T) {
	comp := composition.New(composition.PlanFree)
	comp.RemoteID = "doc-9"
	if got := postal.BuildPayload(comp).ID; got != "doc-9" {
		t.Fatalf("payload ID = %q, want doc-9", got)
	}
}

func TestSaveSuccess(t *testing.T) {
	var got postal.CardPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/cards" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(postal.SaveResponse{Success: true, PublicID: "pub-1", ID: "int-1"})
	}))
	defer server.Close()

	client := postal.New(server.URL, "secret", server.Client())
	comp := composition.New(composition.PlanFree)
	comp.Message = "hello"

	saved, err := client.Save(context.Background(), postal.BuildPayload(comp))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.PublicID != "pub-1" || saved.ID != "int-1" {
		t.Fatalf("unexpected response: %+v", saved)
	}
	if got.Message != "hello" {
		t.Fatalf("payload message lost: %q", got.Message)
	}
}

func TestSaveFailureIsRetryableBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := postal.New(server.URL, "", server.Client())
	_, err := client.Save(context.Background(), postal.CardPayload{})
	if !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatal("save failures must be retryable")
	}
}

func TestSaveRejectionCarriesBackendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(postal.SaveResponse{Success: false, Error: "message too long"})
	}))
	defer server.Close()

	client := postal.New(server.URL, "", server.Client())
	_, err := client.Save(context.Background(), postal.CardPayload{})
	if err == nil || !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestFetchMapsDocument(t *testing.T) {
	doc := postal.Document{
		ID:        "int-7",
		PublicID:  "pub-7",
		ImageURL:  "https://cdn/front.jpg",
		Message:   "wish you were here",
		Recipient: "Ada",
		Plan:      "premium",
		Media: []postal.MediaDocument{
			{ID: "m1", Type: "image", URL: "https://cdn/m1.jpg", Key: "k1"},
		},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/cards/pub-7" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(doc)
	}))
	defer server.Close()

	client := postal.New(server.URL, "", server.Client())
	comp, err := client.Fetch(context.Background(), "pub-7")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !comp.EditMode() || comp.RemoteID != "int-7" {
		t.Fatalf("fetched composition should be in edit mode: %+v", comp)
	}
	if comp.Plan != composition.PlanPremium {
		t.Fatalf("plan not mapped: %q", comp.Plan)
	}
	if len(comp.Assets) != 1 || !comp.Assets[0].Uploaded() {
		t.Fatalf("media not mapped: %+v", comp.Assets)
	}
}

func TestFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer server.Close()

	client := postal.New(server.URL, "", server.Client())
	_, err := client.Fetch(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
