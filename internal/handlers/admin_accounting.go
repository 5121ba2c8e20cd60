package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/httpx"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

const maxAccountingRequestBody = 16 * 1024

// AdminAccountingHandlers exposes the financial configuration, season windows
// and the per-season reconciliation report.
type AdminAccountingHandlers struct {
	accounting services.AccountingService
}

// NewAdminAccountingHandlers constructs the admin accounting handlers.
func NewAdminAccountingHandlers(accounting services.AccountingService) *AdminAccountingHandlers {
	return &AdminAccountingHandlers{accounting: accounting}
}

// Routes registers the accounting endpoints under the provided router.
func (h *AdminAccountingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/accounting/config", h.getConfig)
	r.Put("/accounting/config", h.saveConfig)
	r.Get("/accounting/seasons", h.listSeasons)
	r.Post("/accounting/seasons", h.saveSeason)
	r.Get("/accounting/seasons/{seasonID}/report", h.seasonReport)
}

func (h *AdminAccountingHandlers) getConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.accounting == nil {
		httpx.WriteError(ctx, w, httpx.NewError("accounting_unavailable", "accounting service unavailable", http.StatusServiceUnavailable))
		return
	}

	cfg, err := h.accounting.GetFinancialConfig(ctx)
	if err != nil {
		writeAccountingError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toFinancialConfigResponse(cfg))
}

type financialConfigRequest struct {
	ClubCommissionPct       float64 `json:"clubCommissionPct"`
	CommercialCommissionPct float64 `json:"commercialCommissionPct"`
	GatewayPercentFee       float64 `json:"gatewayPercentFee"`
	GatewayFixedFee         int64   `json:"gatewayFixedFee"`
	ModificationFee         int64   `json:"modificationFee"`
}

func (h *AdminAccountingHandlers) saveConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.accounting == nil {
		httpx.WriteError(ctx, w, httpx.NewError("accounting_unavailable", "accounting service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req financialConfigRequest
	if err := decodeJSONBody(r, maxAccountingRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	saved, err := h.accounting.SaveFinancialConfig(ctx, domain.FinancialConfig{
		ClubCommissionPct:       req.ClubCommissionPct,
		CommercialCommissionPct: req.CommercialCommissionPct,
		GatewayPercentFee:       req.GatewayPercentFee,
		GatewayFixedFee:         req.GatewayFixedFee,
		ModificationFee:         req.ModificationFee,
	})
	if err != nil {
		writeAccountingError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toFinancialConfigResponse(saved))
}

func (h *AdminAccountingHandlers) listSeasons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.accounting == nil {
		httpx.WriteError(ctx, w, httpx.NewError("accounting_unavailable", "accounting service unavailable", http.StatusServiceUnavailable))
		return
	}

	includeHidden := strings.TrimSpace(r.URL.Query().Get("includeHidden")) == "true"
	seasons, err := h.accounting.ListSeasons(ctx, includeHidden)
	if err != nil {
		writeAccountingError(ctx, w, err)
		return
	}

	out := make([]seasonResponse, 0, len(seasons))
	for _, season := range seasons {
		out = append(out, toSeasonResponse(season))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"seasons": out})
}

type saveSeasonRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	HiddenForClubs bool   `json:"hiddenForClubs"`
}

func (h *AdminAccountingHandlers) saveSeason(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.accounting == nil {
		httpx.WriteError(ctx, w, httpx.NewError("accounting_unavailable", "accounting service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req saveSeasonRequest
	if err := decodeJSONBody(r, maxAccountingRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartDate))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "startDate must be RFC3339", http.StatusBadRequest))
		return
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndDate))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "endDate must be RFC3339", http.StatusBadRequest))
		return
	}

	saved, err := h.accounting.SaveSeason(ctx, domain.Season{
		ID:             strings.TrimSpace(req.ID),
		Name:           req.Name,
		StartDate:      start,
		EndDate:        end,
		HiddenForClubs: req.HiddenForClubs,
	})
	if err != nil {
		writeAccountingError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toSeasonResponse(saved))
}

type seasonReportResponse struct {
	Season         seasonResponse         `json:"season"`
	Reconciliation reconciliationResponse `json:"reconciliation"`
}

func (h *AdminAccountingHandlers) seasonReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.accounting == nil {
		httpx.WriteError(ctx, w, httpx.NewError("accounting_unavailable", "accounting service unavailable", http.StatusServiceUnavailable))
		return
	}

	report, err := h.accounting.SeasonReport(ctx, services.SeasonReportQuery{
		SeasonID: strings.TrimSpace(chi.URLParam(r, "seasonID")),
		ClubID:   strings.TrimSpace(r.URL.Query().Get("clubId")),
	})
	if err != nil {
		writeAccountingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, seasonReportResponse{
		Season:         toSeasonResponse(report.Season),
		Reconciliation: toReconciliationResponse(report.Reconciliation),
	})
}

func writeAccountingError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAccountingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrAccountingNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "season or config not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("accounting_error", "failed to process accounting request", http.StatusInternalServerError))
	}
}
