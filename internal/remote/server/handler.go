package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/edkvist/maskann/internal/mask"
	"github.com/edkvist/maskann/internal/models"
	"github.com/edkvist/maskann/internal/remote"
	"github.com/google/uuid"
)

// Version is the server version reported on /api/v1/info.
const Version = "0.3.0"

// Config holds configurable limits for the server.
type Config struct {
	MaxRequestBody int64  // bytes, for JSON endpoints
	Token          string // bearer token; empty disables auth
}

// DefaultConfig returns reasonable defaults. Mask payloads are base64 PNG
// strings, so request bodies stay small.
func DefaultConfig() *Config {
	return &Config{
		MaxRequestBody: 32 * 1024 * 1024, // 32MB
	}
}

// Handler creates the HTTP handler with all routes and middleware.
func Handler(st *Store, cfg *Config, logger *slog.Logger) http.Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{store: st, cfg: cfg}
	auth := authMiddleware(cfg.Token, logger)

	withAuth := func(fn http.HandlerFunc) http.Handler {
		return applyMiddleware(fn, auth)
	}

	mux := http.NewServeMux()

	// Health endpoint (no auth)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("GET /api/v1/info", withAuth(h.handleInfo))

	// Collections
	mux.Handle("POST /api/v1/collections", withAuth(h.handleCreateCollection))
	mux.Handle("GET /api/v1/collections/{id}", withAuth(h.handleGetCollection))
	mux.Handle("GET /api/v1/collections/{id}/sources", withAuth(h.handleListSources))
	mux.Handle("GET /api/v1/collections/{id}/sources/{source}/imageset", withAuth(h.handleGetImageset))

	// Imagesets
	mux.Handle("GET /api/v1/imagesets/{id}/lookup", withAuth(h.handleGetLookup))

	// Annotations
	mux.Handle("POST /api/v1/collections/{id}/annotations", withAuth(h.handleUploadAnnotation))
	mux.Handle("GET /api/v1/collections/{id}/annotations", withAuth(h.handleListAnnotations))
	mux.Handle("GET /api/v1/collections/{id}/annotations/{annID}", withAuth(h.handleGetAnnotation))

	return applyMiddleware(mux, requestIDMiddleware, loggingMiddleware(logger), recoveryMiddleware(logger))
}

type handlers struct {
	store *Store
	cfg   *Config
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, format string, args ...interface{}) {
	writeJSON(w, status, &remote.ErrorResponse{
		Error:   code,
		Message: fmt.Sprintf(format, args...),
	})
}

// writeStoreError maps store errors to 404/500.
func writeStoreError(w http.ResponseWriter, err error) {
	var nf *ErrNotFound
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, "not_found", "%v", nf)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", "%v", err)
}

func (h *handlers) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: %v", err)
		return false
	}
	return true
}

func (h *handlers) handleInfo(w http.ResponseWriter, r *http.Request) {
	collections, annotations, err := h.store.Counts()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &remote.ServiceInfo{
		Name:            "maskann-server",
		Version:         Version,
		CollectionCount: collections,
		AnnotationCount: annotations,
	})
}

func (h *handlers) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req remote.CreateCollectionRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "collection name is required")
		return
	}
	if len(req.Sources) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "at least one source is required")
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}

	sources := make([]*remote.SourceInfo, 0, len(req.Sources))
	lookups := make(map[string][]int, len(req.Sources))
	for _, spec := range req.Sources {
		if spec.Name == "" {
			writeError(w, http.StatusBadRequest, "bad_request", "source name is required")
			return
		}
		imagesetID := spec.ImagesetID
		if imagesetID == "" {
			imagesetID = uuid.New().String()
		}
		sources = append(sources, &remote.SourceInfo{
			Name:       spec.Name,
			ImagesetID: imagesetID,
			ImageCount: len(spec.ImageIndices),
		})
		lookups[imagesetID] = spec.ImageIndices
	}

	info := &remote.CollectionInfo{ID: id, Name: req.Name, SourceCount: len(sources)}
	if err := h.store.CreateCollection(info, sources, lookups); err != nil {
		writeError(w, http.StatusConflict, "conflict", "%v", err)
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

func (h *handlers) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	info, _, err := h.store.GetCollection(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handlers) handleListSources(w http.ResponseWriter, r *http.Request) {
	_, sources, err := h.store.GetCollection(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (h *handlers) findSource(w http.ResponseWriter, collectionID, source string) (*remote.SourceInfo, bool) {
	_, sources, err := h.store.GetCollection(collectionID)
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	for _, s := range sources {
		if s.Name == source {
			return s, true
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "source '%s' not found in collection '%s'", source, collectionID)
	return nil, false
}

func (h *handlers) handleGetImageset(w http.ResponseWriter, r *http.Request) {
	src, ok := h.findSource(w, r.PathValue("id"), r.PathValue("source"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, &remote.ImagesetResponse{ImagesetID: src.ImagesetID})
}

func (h *handlers) handleGetLookup(w http.ResponseWriter, r *http.Request) {
	lookup, err := h.store.GetLookup(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &remote.LookupResponse{ImageIndices: lookup})
}

// validateUpload checks an uploadable package against the spec of the mask
// encoding before anything is stored: the declared format and type, the
// decodability of the payload, and the declared dimensions.
func validateUpload(up *models.Uploadable) error {
	if up == nil {
		return fmt.Errorf("uploadable is required")
	}
	if up.Type != models.KindMask {
		return fmt.Errorf("unsupported annotation type %q, expected %q", up.Type, models.KindMask)
	}
	if up.Format != models.FormatOneBit {
		return fmt.Errorf("unsupported mask format %q, expected %q", up.Format, models.FormatOneBit)
	}
	if up.Annotation == nil {
		return fmt.Errorf("annotation payload is required")
	}

	p, err := mask.DecodeDataURI(up.Annotation.Mask)
	if err != nil {
		return fmt.Errorf("invalid mask payload: %w", err)
	}
	if p.Width() != up.Annotation.Width || p.Height() != up.Annotation.Height {
		return fmt.Errorf("mask decodes to %dx%d but payload declares %dx%d",
			p.Width(), p.Height(), up.Annotation.Width, up.Annotation.Height)
	}
	return nil
}

func (h *handlers) handleUploadAnnotation(w http.ResponseWriter, r *http.Request) {
	collectionID := r.PathValue("id")

	var req remote.UploadAnnotationRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := validateUpload(req.Uploadable); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "%v", err)
		return
	}

	src, ok := h.findSource(w, collectionID, req.Source)
	if !ok {
		return
	}

	lookup, err := h.store.GetLookup(src.ImagesetID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	known := false
	for _, idx := range lookup {
		if idx == req.ImageIndex {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusBadRequest, "bad_request",
			"image index %d not present in imageset '%s'", req.ImageIndex, src.ImagesetID)
		return
	}

	idx := req.ImageIndex
	stored := &models.StoredAnnotation{
		ID:         uuid.New().String(),
		ImagesetID: src.ImagesetID,
		ImageIndex: &idx,
		Source:     req.Source,
		Type:       req.Uploadable.Type,
		Format:     req.Uploadable.Format,
		ClassID:    req.Uploadable.ClassID,
		Annotation: req.Uploadable.Annotation,
	}

	if err := h.store.PutAnnotation(collectionID, stored); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, stored)
}

func (h *handlers) handleGetAnnotation(w http.ResponseWriter, r *http.Request) {
	ann, err := h.store.GetAnnotation(r.PathValue("id"), r.PathValue("annID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ann)
}

func (h *handlers) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	collectionID := r.PathValue("id")

	// Verify the collection exists so a typo'd id is a 404, not an empty list.
	if _, _, err := h.store.GetCollection(collectionID); err != nil {
		writeStoreError(w, err)
		return
	}

	anns, err := h.store.ListAnnotations(collectionID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	source := r.URL.Query().Get("source")
	imageIndex := remote.AllImages
	if raw := r.URL.Query().Get("image_index"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid image_index %q", raw)
			return
		}
		imageIndex = v
	}

	filtered := make([]*models.StoredAnnotation, 0, len(anns))
	for _, a := range anns {
		if source != "" && a.Source != source {
			continue
		}
		if imageIndex != remote.AllImages && (a.ImageIndex == nil || *a.ImageIndex != imageIndex) {
			continue
		}
		filtered = append(filtered, a)
	}

	writeJSON(w, http.StatusOK, &remote.AnnotationListResponse{Annotations: filtered})
}
