package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/storage"
)

type stubSigner struct{}

func (stubSigner) Email() string { return "signer@test.iam.gserviceaccount.com" }

func (stubSigner) SignBytes(_ context.Context, payload []byte) ([]byte, error) {
	return payload, nil
}

func uploadRouter(t *testing.T) *chi.Mux {
	t.Helper()

	client, err := storage.NewClient(stubSigner{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	h := NewUploadHandlers(client, "merch-images", "merch-exports", 10*time.Minute)
	r := chi.NewRouter()
	h.PublicRoutes(r)
	h.AdminRoutes(r)
	return r
}

func TestImageUploadURL(t *testing.T) {
	r := uploadRouter(t)

	body := `{"clubName":"Atletico Poble","category":"camisetas","fileName":"foto.jpg","contentType":"image/jpeg"}`
	req := httptest.NewRequest(http.MethodPost, "/uploads/image-url", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp signedURLResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Method != http.MethodPut {
		t.Fatalf("expected PUT method, got %q", resp.Method)
	}
	if resp.URL == "" {
		t.Fatalf("expected a signed URL")
	}
	if !strings.Contains(resp.Object, "foto.jpg") {
		t.Fatalf("expected object path to contain file name, got %q", resp.Object)
	}
}

func TestImageUploadURLRejectsTraversal(t *testing.T) {
	r := uploadRouter(t)

	body := `{"clubName":"Atletico","category":"..","fileName":"foto.jpg","contentType":"image/jpeg"}`
	req := httptest.NewRequest(http.MethodPost, "/uploads/image-url", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExportDownloadURL(t *testing.T) {
	r := uploadRouter(t)

	body := `{"clubName":"Atletico Poble","batch":"3","fileName":"lote_3.csv"}`
	req := httptest.NewRequest(http.MethodPost, "/exports/download-url", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp signedURLResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Method != http.MethodGet {
		t.Fatalf("expected GET method, got %q", resp.Method)
	}
}

func TestUploadURLUnavailableWithoutSigner(t *testing.T) {
	h := NewUploadHandlers(nil, "merch-images", "merch-exports", time.Minute)
	r := chi.NewRouter()
	h.PublicRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/uploads/image-url", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
