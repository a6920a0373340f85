// Package devserver implements a self-contained development backend: upload
// ticket negotiation, blob storage, and the create-or-update card API. It
// exists so the full publish pipeline can run against localhost without
// credentials for the hosted service.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"

	"cardpress/internal/logging"
	"cardpress/internal/services/postal"
)

// Server is the development backend.
type Server struct {
	store  *Store
	logger *slog.Logger
}

// New constructs a Server around an open store.
func New(store *Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		store:  store,
		logger: logger.With(logging.String(logging.FieldComponent, "devserver")),
	}
}

// Router builds the HTTP routing tree.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/uploads/tickets", s.handleTicket)
		r.Post("/cards", s.handleSaveCard)
		r.Get("/cards/{publicID}", s.handleGetCard)
	})

	r.Route("/blob/{key}", func(r chi.Router) {
		r.Put("/", s.handlePutBlob)
		r.Get("/", s.handleGetBlob)
	})

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, bind string) error {
	server := &http.Server{
		Addr:              bind,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.logger.Info("development backend listening", logging.String("bind", bind))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
		MIMEType string `json:"mimeType"`
		Filesize int    `json:"filesize"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "invalid ticket request"})
		return
	}
	if req.Filesize <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "filesize must be positive"})
		return
	}

	key := strings.ToLower(ulid.Make().String())
	s.logger.Debug("ticket issued",
		logging.String("key", key),
		logging.String("filename", req.Filename),
		logging.Int("filesize", req.Filesize))
	render.JSON(w, r, map[string]string{
		"url": baseURL(r) + "/blob/" + key,
		"key": key,
	})
}

func (s *Server) handlePutBlob(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	data, err := io.ReadAll(r.Body)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "unreadable body"})
		return
	}
	if len(data) == 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "empty body"})
		return
	}

	blob := Blob{Key: key, MIMEType: r.Header.Get("Content-Type"), Data: data}
	if err := s.store.PutBlob(r.Context(), blob); err != nil {
		s.logger.Error("blob store failed", logging.Error(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "failed to store blob"})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	blob, err := s.store.GetBlob(r.Context(), chi.URLParam(r, "key"))
	if errors.Is(err, ErrBlobNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "blob not found"})
		return
	}
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "failed to load blob"})
		return
	}
	if blob.MIMEType != "" {
		w.Header().Set("Content-Type", blob.MIMEType)
	}
	w.Write(blob.Data)
}

func (s *Server) handleSaveCard(w http.ResponseWriter, r *http.Request) {
	var payload postal.CardPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, postal.SaveResponse{Error: "invalid card payload"})
		return
	}
	if payload.FrontImageKey == "" && len(payload.FrontImageInline) == 0 {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, postal.SaveResponse{Error: "card has no front image"})
		return
	}

	stored, err := json.Marshal(payload)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, postal.SaveResponse{Error: "failed to encode card"})
		return
	}

	if payload.ID != "" {
		record, err := s.store.GetCardByID(r.Context(), payload.ID)
		if errors.Is(err, ErrCardNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, postal.SaveResponse{Error: "card not found"})
			return
		}
		if err == nil {
			err = s.store.UpdateCard(r.Context(), payload.ID, stored)
		}
		if err != nil {
			s.logger.Error("card update failed", logging.Error(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, postal.SaveResponse{Error: "failed to update card"})
			return
		}
		s.logger.Info("card updated",
			logging.String("id", record.ID),
			logging.String("public_id", record.PublicID))
		render.JSON(w, r, postal.SaveResponse{Success: true, PublicID: record.PublicID, ID: record.ID})
		return
	}

	record := CardRecord{
		ID:       strings.ToLower(ulid.Make().String()),
		PublicID: "pc-" + strings.ToLower(ulid.Make().String()[16:]),
		Payload:  stored,
	}
	if err := s.store.CreateCard(r.Context(), record); err != nil {
		s.logger.Error("card create failed", logging.Error(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, postal.SaveResponse{Error: "failed to create card"})
		return
	}
	s.logger.Info("card created",
		logging.String("id", record.ID),
		logging.String("public_id", record.PublicID))
	render.JSON(w, r, postal.SaveResponse{Success: true, PublicID: record.PublicID, ID: record.ID})
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.GetCardByPublicID(r.Context(), chi.URLParam(r, "publicID"))
	if errors.Is(err, ErrCardNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "card not found"})
		return
	}
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "failed to load card"})
		return
	}

	var payload postal.CardPayload
	if err := json.Unmarshal(record.Payload, &payload); err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "stored card is unreadable"})
		return
	}

	render.JSON(w, r, documentFromRecord(record, payload, baseURL(r)))
}

// documentFromRecord maps a stored payload into the edit-fetch document
// shape, resolving blob keys to servable URLs.
func documentFromRecord(record CardRecord, payload postal.CardPayload, base string) postal.Document {
	doc := postal.Document{
		ID:        record.ID,
		PublicID:  record.PublicID,
		Crop:      payload.Crop,
		Filter:    payload.Filter,
		Caption:   payload.Caption,
		Message:   payload.Message,
		Recipient: payload.Recipient,
		Sender:    payload.Sender,
		Location:  payload.Location,
		Stamp:     payload.Stamp,
		Stickers:  payload.Stickers,
		Plan:      payload.Plan,
	}
	if payload.FrontImageKey != "" {
		doc.ImageURL = base + "/blob/" + payload.FrontImageKey
	}
	for _, asset := range payload.Assets {
		media := postal.MediaDocument{
			ID:   asset.ID,
			Type: asset.Type,
			Key:  asset.Key,
			Note: asset.Note,
		}
		if asset.Key != "" {
			media.URL = base + "/blob/" + asset.Key
		}
		doc.Media = append(doc.Media, media)
	}
	return doc
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
