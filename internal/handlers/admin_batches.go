package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/export"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/httpx"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

const maxBatchRequestBody = 16 * 1024

// AdminBatchHandlers drives batch-level operations per club: listing groups,
// the batch-wide status rewrite, counter close/reopen and printable exports.
type AdminBatchHandlers struct {
	batches    services.BatchService
	clubs      services.ClubService
	accounting services.AccountingService
}

// NewAdminBatchHandlers constructs the admin batch handlers.
func NewAdminBatchHandlers(batches services.BatchService, clubs services.ClubService, accounting services.AccountingService) *AdminBatchHandlers {
	return &AdminBatchHandlers{
		batches:    batches,
		clubs:      clubs,
		accounting: accounting,
	}
}

// Routes registers the batch endpoints under the provided router.
func (h *AdminBatchHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/clubs/{clubID}/batches", h.listBatches)
	r.Put("/clubs/{clubID}/batches/{batchKey}/status", h.setStatus)
	r.Post("/clubs/{clubID}/batches/close", h.closeGlobal)
	r.Post("/clubs/{clubID}/batches/close-error", h.closeError)
	r.Post("/clubs/{clubID}/batches/reopen", h.reopen)
	r.Get("/clubs/{clubID}/batches/{batchKey}/export", h.exportCSV)
	r.Get("/clubs/{clubID}/batches/{batchKey}/document", h.document)
}

func (h *AdminBatchHandlers) listBatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.batches == nil {
		httpx.WriteError(ctx, w, httpx.NewError("batches_unavailable", "batch service unavailable", http.StatusServiceUnavailable))
		return
	}

	groups, err := h.batches.ListBatches(ctx, strings.TrimSpace(chi.URLParam(r, "clubID")))
	if err != nil {
		writeBatchError(ctx, w, err)
		return
	}

	out := make([]batchGroupResponse, 0, len(groups))
	for _, group := range groups {
		out = append(out, toBatchGroupResponse(group))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"batches": out})
}

type setBatchStatusRequest struct {
	Status          string `json:"status"`
	NotifyCustomers bool   `json:"notifyCustomers"`
}

func (h *AdminBatchHandlers) setStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.batches == nil {
		httpx.WriteError(ctx, w, httpx.NewError("batches_unavailable", "batch service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req setBatchStatusRequest
	if err := decodeJSONBody(r, maxBatchRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	status := domain.OrderStatus(strings.TrimSpace(req.Status))
	if !status.Valid() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("unknown status %q", req.Status), http.StatusBadRequest))
		return
	}

	orders, err := h.batches.SetBatchStatus(ctx, services.SetBatchStatusCommand{
		ClubID:          strings.TrimSpace(chi.URLParam(r, "clubID")),
		Batch:           domain.ParseBatchKey(strings.TrimSpace(chi.URLParam(r, "batchKey"))),
		Status:          status,
		NotifyCustomers: req.NotifyCustomers,
	})
	if err != nil {
		writeBatchError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"orders": toOrderResponses(orders)})
}

type closeBatchRequest struct {
	Expected int `json:"expected"`
}

type closeBatchResponse struct {
	NextBatch int `json:"nextBatch"`
}

func (h *AdminBatchHandlers) closeGlobal(w http.ResponseWriter, r *http.Request) {
	h.closeCounter(w, r, false)
}

func (h *AdminBatchHandlers) closeError(w http.ResponseWriter, r *http.Request) {
	h.closeCounter(w, r, true)
}

func (h *AdminBatchHandlers) closeCounter(w http.ResponseWriter, r *http.Request, errorBatch bool) {
	ctx := r.Context()
	if h.batches == nil {
		httpx.WriteError(ctx, w, httpx.NewError("batches_unavailable", "batch service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req closeBatchRequest
	if err := decodeJSONBody(r, maxBatchRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.CloseBatchCommand{
		ClubID:   strings.TrimSpace(chi.URLParam(r, "clubID")),
		Expected: req.Expected,
	}

	var (
		next int
		err  error
	)
	if errorBatch {
		next, err = h.batches.CloseErrorBatch(ctx, cmd)
	} else {
		next, err = h.batches.CloseGlobalBatch(ctx, cmd)
	}
	if err != nil {
		writeBatchError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, closeBatchResponse{NextBatch: next})
}

type reopenBatchRequest struct {
	Target int `json:"target"`
}

func (h *AdminBatchHandlers) reopen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.batches == nil {
		httpx.WriteError(ctx, w, httpx.NewError("batches_unavailable", "batch service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req reopenBatchRequest
	if err := decodeJSONBody(r, maxBatchRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	err := h.batches.ReopenGlobalBatch(ctx, services.ReopenBatchCommand{
		ClubID: strings.TrimSpace(chi.URLParam(r, "clubID")),
		Target: req.Target,
	})
	if err != nil {
		writeBatchError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminBatchHandlers) exportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	club, group, rate, ok := h.resolveExport(w, r)
	if !ok {
		return
	}

	data, err := export.BatchCSV(club, group, rate)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("export_failed", "failed to build batch export", http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFilename(club, group.Key)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *AdminBatchHandlers) document(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	club, group, rate, ok := h.resolveExport(w, r)
	if !ok {
		return
	}

	data, err := export.BatchHTML(club, group, rate)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("export_failed", "failed to build batch document", http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *AdminBatchHandlers) resolveExport(w http.ResponseWriter, r *http.Request) (domain.Club, services.BatchGroup, float64, bool) {
	ctx := r.Context()
	if h.batches == nil || h.clubs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("batches_unavailable", "batch service unavailable", http.StatusServiceUnavailable))
		return domain.Club{}, services.BatchGroup{}, 0, false
	}

	clubID := strings.TrimSpace(chi.URLParam(r, "clubID"))
	key := domain.ParseBatchKey(strings.TrimSpace(chi.URLParam(r, "batchKey")))

	club, err := h.clubs.GetClub(ctx, clubID)
	if err != nil {
		writeClubError(ctx, w, err)
		return domain.Club{}, services.BatchGroup{}, 0, false
	}

	groups, err := h.batches.ListBatches(ctx, clubID)
	if err != nil {
		writeBatchError(ctx, w, err)
		return domain.Club{}, services.BatchGroup{}, 0, false
	}

	for _, group := range groups {
		if group.Key == key {
			cfg := domain.FinancialConfig{}
			if h.accounting != nil {
				if loaded, cfgErr := h.accounting.GetFinancialConfig(ctx); cfgErr == nil {
					cfg = loaded
				}
			}
			return club, group, domain.ClubCommissionRate(club, cfg), true
		}
	}

	httpx.WriteError(ctx, w, httpx.NewError("batch_not_found", fmt.Sprintf("batch %s has no orders", key), http.StatusNotFound))
	return domain.Club{}, services.BatchGroup{}, 0, false
}

func writeBatchError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrBatchInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrBatchNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("batch_not_found", "batch has no orders", http.StatusNotFound))
	case errors.Is(err, services.ErrBatchInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", "status transition not allowed", http.StatusConflict))
	case errors.Is(err, services.ErrBatchCounterMoved):
		httpx.WriteError(ctx, w, httpx.NewError("counter_moved", "batch counter moved; reload and retry", http.StatusConflict))
	case errors.Is(err, services.ErrClubNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("club_not_found", "club not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("batch_error", "failed to process batch request", http.StatusInternalServerError))
	}
}
