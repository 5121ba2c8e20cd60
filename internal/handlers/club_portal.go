package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/export"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/auth"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/httpx"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

const maxLoginRequestBody = 8 * 1024

// ClubPortalHandlers exposes the self-service endpoints for club users. Every
// route except login is scoped to the club carried by the session token.
type ClubPortalHandlers struct {
	clubs      services.ClubService
	batches    services.BatchService
	accounting services.AccountingService
	sessionMW  func(http.Handler) http.Handler
}

// NewClubPortalHandlers constructs the club portal handlers.
func NewClubPortalHandlers(clubs services.ClubService, batches services.BatchService, accounting services.AccountingService, sessionMW func(http.Handler) http.Handler) *ClubPortalHandlers {
	return &ClubPortalHandlers{
		clubs:      clubs,
		batches:    batches,
		accounting: accounting,
		sessionMW:  sessionMW,
	}
}

// Routes registers the club portal endpoints under the provided router.
func (h *ClubPortalHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/login", h.login)

	group := r
	if h.sessionMW != nil {
		group = group.With(h.sessionMW)
	}
	group.Get("/me", h.me)
	group.Get("/batches", h.listBatches)
	group.Get("/batches/{batchKey}", h.getBatch)
	group.Get("/batches/{batchKey}/export", h.exportBatchCSV)
	group.Get("/batches/{batchKey}/document", h.batchDocument)
	group.Get("/seasons", h.listSeasons)
}

type clubLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type clubLoginResponse struct {
	Token string       `json:"token"`
	Club  clubResponse `json:"club"`
}

func (h *ClubPortalHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.clubs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("clubs_unavailable", "club service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req clubLoginRequest
	if err := decodeJSONBody(r, maxLoginRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	result, err := h.clubs.Login(ctx, services.ClubLoginCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeClubError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, clubLoginResponse{
		Token: result.Token,
		Club:  toClubResponse(result.Club),
	})
}

func (h *ClubPortalHandlers) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := auth.ClubSessionFromContext(ctx)
	if !ok || session == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "club session required", http.StatusUnauthorized))
		return
	}
	if h.clubs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("clubs_unavailable", "club service unavailable", http.StatusServiceUnavailable))
		return
	}

	club, err := h.clubs.GetClub(ctx, session.ClubID)
	if err != nil {
		writeClubError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toClubResponse(club))
}

func (h *ClubPortalHandlers) listBatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := auth.ClubSessionFromContext(ctx)
	if !ok || session == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "club session required", http.StatusUnauthorized))
		return
	}
	if h.batches == nil {
		httpx.WriteError(ctx, w, httpx.NewError("batches_unavailable", "batch service unavailable", http.StatusServiceUnavailable))
		return
	}

	groups, err := h.batches.ListBatches(ctx, session.ClubID)
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

func (h *ClubPortalHandlers) getBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := auth.ClubSessionFromContext(ctx)
	if !ok || session == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "club session required", http.StatusUnauthorized))
		return
	}

	group, ok := h.findBatch(w, r, session.ClubID)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, toBatchGroupResponse(group))
}

func (h *ClubPortalHandlers) exportBatchCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := auth.ClubSessionFromContext(ctx)
	if !ok || session == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "club session required", http.StatusUnauthorized))
		return
	}

	group, ok := h.findBatch(w, r, session.ClubID)
	if !ok {
		return
	}

	club, rate, err := h.clubWithRate(r, session.ClubID)
	if err != nil {
		writeClubError(ctx, w, err)
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

func (h *ClubPortalHandlers) batchDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := auth.ClubSessionFromContext(ctx)
	if !ok || session == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "club session required", http.StatusUnauthorized))
		return
	}

	group, ok := h.findBatch(w, r, session.ClubID)
	if !ok {
		return
	}

	club, rate, err := h.clubWithRate(r, session.ClubID)
	if err != nil {
		writeClubError(ctx, w, err)
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

func (h *ClubPortalHandlers) listSeasons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.accounting == nil {
		httpx.WriteError(ctx, w, httpx.NewError("accounting_unavailable", "accounting service unavailable", http.StatusServiceUnavailable))
		return
	}

	seasons, err := h.accounting.ListSeasons(ctx, false)
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

// findBatch resolves the batch key URL parameter against the club's current
// batch groups. It writes the error response itself when the lookup fails.
func (h *ClubPortalHandlers) findBatch(w http.ResponseWriter, r *http.Request, clubID string) (services.BatchGroup, bool) {
	ctx := r.Context()
	if h.batches == nil {
		httpx.WriteError(ctx, w, httpx.NewError("batches_unavailable", "batch service unavailable", http.StatusServiceUnavailable))
		return services.BatchGroup{}, false
	}

	key := domain.ParseBatchKey(strings.TrimSpace(chi.URLParam(r, "batchKey")))
	groups, err := h.batches.ListBatches(ctx, clubID)
	if err != nil {
		writeBatchError(ctx, w, err)
		return services.BatchGroup{}, false
	}

	for _, group := range groups {
		if group.Key == key {
			return group, true
		}
	}
	httpx.WriteError(ctx, w, httpx.NewError("batch_not_found", fmt.Sprintf("batch %s has no orders", key), http.StatusNotFound))
	return services.BatchGroup{}, false
}

func (h *ClubPortalHandlers) clubWithRate(r *http.Request, clubID string) (domain.Club, float64, error) {
	ctx := r.Context()
	if h.clubs == nil {
		return domain.Club{}, 0, services.ErrClubNotFound
	}
	club, err := h.clubs.GetClub(ctx, clubID)
	if err != nil {
		return domain.Club{}, 0, err
	}

	cfg := domain.FinancialConfig{}
	if h.accounting != nil {
		if loaded, err := h.accounting.GetFinancialConfig(ctx); err == nil {
			cfg = loaded
		}
	}
	return club, domain.ClubCommissionRate(club, cfg), nil
}
