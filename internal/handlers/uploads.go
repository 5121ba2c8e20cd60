package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/httpx"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/storage"
)

const maxUploadRequestBody = 8 * 1024

// UploadHandlers issues signed URLs so browsers talk to Cloud Storage
// directly: customers upload the photos printed on their merch, operators
// archive generated batch exports.
type UploadHandlers struct {
	signer        *storage.Client
	imagesBucket  string
	exportsBucket string
	ttl           time.Duration
}

// NewUploadHandlers constructs the upload handlers.
func NewUploadHandlers(signer *storage.Client, imagesBucket, exportsBucket string, ttl time.Duration) *UploadHandlers {
	return &UploadHandlers{
		signer:        signer,
		imagesBucket:  imagesBucket,
		exportsBucket: exportsBucket,
		ttl:           ttl,
	}
}

// PublicRoutes registers the storefront upload endpoint.
func (h *UploadHandlers) PublicRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/uploads/image-url", h.imageUploadURL)
}

// AdminRoutes registers the export archive endpoints.
func (h *UploadHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/exports/upload-url", h.exportUploadURL)
	r.Post("/exports/download-url", h.exportDownloadURL)
}

type imageUploadURLRequest struct {
	ClubName    string `json:"clubName"`
	Category    string `json:"category"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type signedURLResponse struct {
	URL       string `json:"url"`
	Method    string `json:"method"`
	Object    string `json:"object"`
	ExpiresAt string `json:"expiresAt"`
}

func (h *UploadHandlers) imageUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.signer == nil {
		httpx.WriteError(ctx, w, httpx.NewError("uploads_unavailable", "upload signing unavailable", http.StatusServiceUnavailable))
		return
	}

	var req imageUploadURLRequest
	if err := decodeJSONBody(r, maxUploadRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "contentType is required", http.StatusBadRequest))
		return
	}

	object, err := storage.BuildProductImagePath(req.ClubName, req.Category, req.FileName)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	result, err := h.signer.SignUploadURL(ctx, h.imagesBucket, object, contentType, h.ttl)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("sign_failed", "failed to sign upload url", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, signedURLResponse{
		URL:       result.URL,
		Method:    result.Method,
		Object:    object,
		ExpiresAt: formatTime(result.ExpiresAt),
	})
}

type exportURLRequest struct {
	ClubName    string `json:"clubName"`
	Batch       string `json:"batch"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

func (h *UploadHandlers) exportUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.signer == nil {
		httpx.WriteError(ctx, w, httpx.NewError("uploads_unavailable", "upload signing unavailable", http.StatusServiceUnavailable))
		return
	}

	var req exportURLRequest
	if err := decodeJSONBody(r, maxUploadRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "contentType is required", http.StatusBadRequest))
		return
	}

	object, err := storage.BuildExportPath(req.ClubName, req.Batch, req.FileName)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	result, err := h.signer.SignUploadURL(ctx, h.exportsBucket, object, contentType, h.ttl)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("sign_failed", "failed to sign upload url", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, signedURLResponse{
		URL:       result.URL,
		Method:    result.Method,
		Object:    object,
		ExpiresAt: formatTime(result.ExpiresAt),
	})
}

func (h *UploadHandlers) exportDownloadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.signer == nil {
		httpx.WriteError(ctx, w, httpx.NewError("uploads_unavailable", "upload signing unavailable", http.StatusServiceUnavailable))
		return
	}

	var req exportURLRequest
	if err := decodeJSONBody(r, maxUploadRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	object, err := storage.BuildExportPath(req.ClubName, req.Batch, req.FileName)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	result, err := h.signer.SignDownloadURL(ctx, h.exportsBucket, object, h.ttl)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("sign_failed", "failed to sign download url", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, signedURLResponse{
		URL:       result.URL,
		Method:    result.Method,
		Object:    object,
		ExpiresAt: formatTime(result.ExpiresAt),
	})
}
