package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/httpx"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

const maxClubRequestBody = 32 * 1024

// AdminClubHandlers owns the tenant management surface.
type AdminClubHandlers struct {
	clubs services.ClubService
}

// NewAdminClubHandlers constructs the admin club handlers.
func NewAdminClubHandlers(clubs services.ClubService) *AdminClubHandlers {
	return &AdminClubHandlers{clubs: clubs}
}

// Routes registers the club endpoints under the provided router.
func (h *AdminClubHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/clubs", h.listClubs)
	r.Post("/clubs", h.createClub)
	r.Get("/clubs/{clubID}", h.getClub)
	r.Put("/clubs/{clubID}", h.updateClub)
	r.Put("/clubs/{clubID}/accounting-flags", h.setAccountingFlag)
	r.Put("/clubs/{clubID}/next-batch-date", h.setNextBatchDate)
}

func (h *AdminClubHandlers) listClubs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.clubs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("clubs_unavailable", "club service unavailable", http.StatusServiceUnavailable))
		return
	}

	clubs, err := h.clubs.ListClubs(ctx)
	if err != nil {
		writeClubError(ctx, w, err)
		return
	}

	out := make([]clubResponse, 0, len(clubs))
	for _, club := range clubs {
		out = append(out, toClubResponse(club))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"clubs": out})
}

type createClubRequest struct {
	Name               string   `json:"name"`
	Code               string   `json:"code"`
	Username           string   `json:"username"`
	Password           string   `json:"password"`
	Color              string   `json:"color"`
	LogoPath           string   `json:"logoPath"`
	CommissionPct      *float64 `json:"commissionPct"`
	CashPaymentEnabled bool     `json:"cashPaymentEnabled"`
}

func (h *AdminClubHandlers) createClub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.clubs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("clubs_unavailable", "club service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createClubRequest
	if err := decodeJSONBody(r, maxClubRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	club, err := h.clubs.CreateClub(ctx, services.CreateClubCommand{
		Name:               req.Name,
		Code:               req.Code,
		Username:           req.Username,
		Password:           req.Password,
		Color:              req.Color,
		LogoPath:           req.LogoPath,
		CommissionPct:      req.CommissionPct,
		CashPaymentEnabled: req.CashPaymentEnabled,
	})
	if err != nil {
		writeClubError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toClubResponse(club))
}

func (h *AdminClubHandlers) getClub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.clubs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("clubs_unavailable", "club service unavailable", http.StatusServiceUnavailable))
		return
	}

	club, err := h.clubs.GetClub(ctx, strings.TrimSpace(chi.URLParam(r, "clubID")))
	if err != nil {
		writeClubError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toClubResponse(club))
}

type updateClubRequest struct {
	Name               *string  `json:"name"`
	Password           *string  `json:"password"`
	Color              *string  `json:"color"`
	LogoPath           *string  `json:"logoPath"`
	CommissionPct      *float64 `json:"commissionPct"`
	ClearCommission    bool     `json:"clearCommission"`
	CashPaymentEnabled *bool    `json:"cashPaymentEnabled"`
	Blocked            *bool    `json:"blocked"`
}

func (h *AdminClubHandlers) updateClub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.clubs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("clubs_unavailable", "club service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req updateClubRequest
	if err := decodeJSONBody(r, maxClubRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	club, err := h.clubs.UpdateClub(ctx, services.UpdateClubCommand{
		ClubID:             strings.TrimSpace(chi.URLParam(r, "clubID")),
		Name:               req.Name,
		Password:           req.Password,
		Color:              req.Color,
		LogoPath:           req.LogoPath,
		CommissionPct:      req.CommissionPct,
		ClearCommission:    req.ClearCommission,
		CashPaymentEnabled: req.CashPaymentEnabled,
		Blocked:            req.Blocked,
	})
	if err != nil {
		writeClubError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toClubResponse(club))
}

type setAccountingFlagRequest struct {
	Batch string `json:"batch"`
	Flag  string `json:"flag"`
	Value bool   `json:"value"`
}

func (h *AdminClubHandlers) setAccountingFlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.clubs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("clubs_unavailable", "club service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req setAccountingFlagRequest
	if err := decodeJSONBody(r, maxClubRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	entry, err := h.clubs.SetAccountingFlag(ctx, services.SetAccountingFlagCommand{
		ClubID: strings.TrimSpace(chi.URLParam(r, "clubID")),
		Batch:  domain.ParseBatchKey(strings.TrimSpace(req.Batch)),
		Flag:   strings.TrimSpace(req.Flag),
		Value:  req.Value,
	})
	if err != nil {
		writeClubError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toAccountingEntryResponse(entry))
}

type setNextBatchDateRequest struct {
	// Date clears the advertised closure date when omitted or empty.
	Date string `json:"date"`
}

func (h *AdminClubHandlers) setNextBatchDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.clubs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("clubs_unavailable", "club service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req setNextBatchDateRequest
	if err := decodeJSONBody(r, maxClubRequestBody, &req); err != nil && !errorsIsEmptyBody(err) {
		writeBodyError(ctx, w, err)
		return
	}

	var date *time.Time
	if raw := strings.TrimSpace(req.Date); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "date must be RFC3339", http.StatusBadRequest))
			return
		}
		date = &parsed
	}

	if err := h.clubs.SetNextBatchDate(ctx, strings.TrimSpace(chi.URLParam(r, "clubID")), date); err != nil {
		writeClubError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
