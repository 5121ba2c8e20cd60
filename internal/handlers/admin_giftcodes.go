package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/httpx"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

const maxGiftCodeRequestBody = 8 * 1024

// AdminGiftCodeHandlers manages the discount code catalogue.
type AdminGiftCodeHandlers struct {
	giftCodes services.GiftCodeService
}

// NewAdminGiftCodeHandlers constructs the admin gift code handlers.
func NewAdminGiftCodeHandlers(giftCodes services.GiftCodeService) *AdminGiftCodeHandlers {
	return &AdminGiftCodeHandlers{giftCodes: giftCodes}
}

// Routes registers the gift code endpoints under the provided router.
func (h *AdminGiftCodeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/gift-codes", h.listGiftCodes)
	r.Post("/gift-codes", h.createGiftCode)
}

func (h *AdminGiftCodeHandlers) listGiftCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.giftCodes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("gift_codes_unavailable", "gift code service unavailable", http.StatusServiceUnavailable))
		return
	}

	codes, err := h.giftCodes.List(ctx)
	if err != nil {
		writeGiftCodeError(ctx, w, err)
		return
	}

	out := make([]giftCodeResponse, 0, len(codes))
	for _, code := range codes {
		out = append(out, toGiftCodeResponse(code))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"giftCodes": out})
}

type createGiftCodeRequest struct {
	Code        string `json:"code"`
	Type        string `json:"type"`
	Value       int64  `json:"value"`
	ApplyTo     string `json:"applyTo"`
	AllowedClub string `json:"allowedClub"`
	ProductID   string `json:"productId"`
}

func (h *AdminGiftCodeHandlers) createGiftCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.giftCodes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("gift_codes_unavailable", "gift code service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createGiftCodeRequest
	if err := decodeJSONBody(r, maxGiftCodeRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	code, err := h.giftCodes.Create(ctx, services.CreateGiftCodeCommand{
		Code:        req.Code,
		Type:        domain.GiftCodeType(strings.TrimSpace(req.Type)),
		Value:       req.Value,
		ApplyTo:     strings.TrimSpace(req.ApplyTo),
		AllowedClub: strings.TrimSpace(req.AllowedClub),
		ProductID:   strings.TrimSpace(req.ProductID),
	})
	if err != nil {
		writeGiftCodeError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toGiftCodeResponse(code))
}
