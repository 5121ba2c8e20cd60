package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/httpx"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

const maxCheckoutRequestBody = 64 * 1024

// PublicHandlers exposes the unauthenticated storefront endpoints.
type PublicHandlers struct {
	orders    services.OrderService
	giftCodes services.GiftCodeService
	clubs     services.ClubService
}

// NewPublicHandlers constructs the storefront handlers.
func NewPublicHandlers(orders services.OrderService, giftCodes services.GiftCodeService, clubs services.ClubService) *PublicHandlers {
	return &PublicHandlers{
		orders:    orders,
		giftCodes: giftCodes,
		clubs:     clubs,
	}
}

// Routes registers the storefront endpoints under the provided router.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/checkout", h.checkout)
	r.Post("/gift-codes/validate", h.validateGiftCode)
	r.Get("/clubs/{clubID}", h.clubProfile)
	r.Get("/orders/{orderID}/status", h.orderStatus)
}

type checkoutItemRequest struct {
	ProductRef          string                `json:"productRef"`
	ProductName         string                `json:"productName"`
	UnitPrice           int64                 `json:"unitPrice"`
	UnitCost            int64                 `json:"unitCost"`
	Quantity            int                   `json:"quantity"`
	PlayerName          string                `json:"playerName"`
	PlayerNumber        string                `json:"playerNumber"`
	Size                string                `json:"size"`
	Color               string                `json:"color"`
	Category            string                `json:"category"`
	ImageRef            string                `json:"imageRef"`
	ExtraPlayers        []extraPlayerResponse `json:"extraPlayers"`
	ModifiedFromDefault bool                  `json:"modifiedFromDefault"`
}

type checkoutCustomerRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	MarketingConsent bool   `json:"marketingConsent"`
	EmailUpdates     bool   `json:"emailUpdates"`
}

type checkoutRequest struct {
	ClubID         string                  `json:"clubId"`
	Items          []checkoutItemRequest   `json:"items"`
	Customer       checkoutCustomerRequest `json:"customer"`
	Payment        string                  `json:"payment"`
	DiscountCode   string                  `json:"discountCode"`
	ManualSeasonID string                  `json:"manualSeasonId"`
}

type checkoutResponse struct {
	Order               orderResponse `json:"order"`
	PaymentClientSecret string        `json:"paymentClientSecret,omitempty"`
}

func toCheckoutItems(items []checkoutItemRequest) []services.CheckoutItem {
	out := make([]services.CheckoutItem, 0, len(items))
	for _, item := range items {
		extras := make([]domain.ExtraPlayer, 0, len(item.ExtraPlayers))
		for _, extra := range item.ExtraPlayers {
			extras = append(extras, domain.ExtraPlayer{Name: extra.Name, Number: extra.Number, Size: extra.Size})
		}
		if len(extras) == 0 {
			extras = nil
		}
		out = append(out, services.CheckoutItem{
			ProductRef:          item.ProductRef,
			ProductName:         item.ProductName,
			UnitPrice:           item.UnitPrice,
			UnitCost:            item.UnitCost,
			Quantity:            item.Quantity,
			PlayerName:          item.PlayerName,
			PlayerNumber:        item.PlayerNumber,
			Size:                item.Size,
			Color:               item.Color,
			Category:            item.Category,
			ImageRef:            item.ImageRef,
			ExtraPlayers:        extras,
			ModifiedFromDefault: item.ModifiedFromDefault,
		})
	}
	return out
}

func (h *PublicHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req checkoutRequest
	if err := decodeJSONBody(r, maxCheckoutRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.CheckoutCommand{
		ClubID: strings.TrimSpace(req.ClubID),
		Items:  toCheckoutItems(req.Items),
		Customer: domain.Customer{
			Name:             req.Customer.Name,
			Email:            req.Customer.Email,
			Phone:            req.Customer.Phone,
			MarketingConsent: req.Customer.MarketingConsent,
			EmailUpdates:     req.Customer.EmailUpdates,
		},
		Payment:        domain.PaymentMethod(strings.TrimSpace(req.Payment)),
		DiscountCode:   req.DiscountCode,
		ManualSeasonID: strings.TrimSpace(req.ManualSeasonID),
	}

	result, err := h.orders.CreateFromCheckout(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, checkoutResponse{
		Order:               toOrderResponse(result.Order),
		PaymentClientSecret: result.PaymentClientSecret,
	})
}

type validateGiftCodeRequest struct {
	Code      string `json:"code"`
	ClubID    string `json:"clubId"`
	Context   string `json:"context"`
	Total     int64  `json:"total"`
	ProductID string `json:"productId"`
}

type giftCodeResolutionResponse struct {
	Code          string `json:"code"`
	Type          string `json:"type"`
	Discount      int64  `json:"discount"`
	FinalTotal    int64  `json:"finalTotal"`
	FreeProductID string `json:"freeProductId,omitempty"`
}

func (h *PublicHandlers) validateGiftCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.giftCodes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("gift_codes_unavailable", "gift code service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req validateGiftCodeRequest
	if err := decodeJSONBody(r, maxCheckoutRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	codeCtx := services.GiftCodeContextCart
	if strings.TrimSpace(req.Context) == string(services.GiftCodeContextProduct) {
		codeCtx = services.GiftCodeContextProduct
	}

	resolution, err := h.giftCodes.Validate(ctx, services.ValidateGiftCodeCommand{
		Code:      req.Code,
		ClubID:    strings.TrimSpace(req.ClubID),
		Context:   codeCtx,
		Total:     req.Total,
		ProductID: strings.TrimSpace(req.ProductID),
	})
	if err != nil {
		writeGiftCodeError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, giftCodeResolutionResponse{
		Code:          resolution.Code.Code,
		Type:          string(resolution.Code.Type),
		Discount:      resolution.Discount,
		FinalTotal:    resolution.FinalTotal,
		FreeProductID: resolution.FreeProductID,
	})
}

type publicClubResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Color              string `json:"color,omitempty"`
	LogoPath           string `json:"logoPath,omitempty"`
	CashPaymentEnabled bool   `json:"cashPaymentEnabled"`
	NextBatchDate      string `json:"nextBatchDate,omitempty"`
}

// clubProfile serves the storefront-facing slice of a club document. Blocked
// clubs are hidden so their stores stop taking orders.
func (h *PublicHandlers) clubProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.clubs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("clubs_unavailable", "club service unavailable", http.StatusServiceUnavailable))
		return
	}

	clubID := strings.TrimSpace(chi.URLParam(r, "clubID"))
	club, err := h.clubs.GetClub(ctx, clubID)
	if err != nil {
		writeClubError(ctx, w, err)
		return
	}
	if club.Blocked {
		httpx.WriteError(ctx, w, httpx.NewError("club_not_found", "club not found", http.StatusNotFound))
		return
	}

	writeJSONResponse(w, http.StatusOK, publicClubResponse{
		ID:                 club.ID,
		Name:               club.Name,
		Color:              club.Color,
		LogoPath:           club.LogoPath,
		CashPaymentEnabled: club.CashPaymentEnabled,
		NextBatchDate:      formatTimePtr(club.NextBatchDate),
	})
}

type orderStatusResponse struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	VisibleStatus string `json:"visibleStatus"`
	Batch         string `json:"batch"`
}

// orderStatus lets a customer poll the visible status of their order without
// exposing the rest of the document.
func (h *PublicHandlers) orderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderStatusResponse{
		OrderID:       order.ID,
		Status:        string(order.Status),
		VisibleStatus: domain.VisibleStatus(order.Status),
		Batch:         order.Batch.String(),
	})
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, errBodyTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCashPaymentDisabled):
		httpx.WriteError(ctx, w, httpx.NewError("cash_payment_disabled", "cash payment is not enabled for this club", http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_state", "order is not in a state that allows this operation", http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", "order changed concurrently; reload and retry", http.StatusConflict))
	case errors.Is(err, services.ErrGiftCodeNotFound), errors.Is(err, services.ErrGiftCodeWrongClub),
		errors.Is(err, services.ErrGiftCodeRedeemed), errors.Is(err, services.ErrGiftCodeWrongContext):
		writeGiftCodeError(ctx, w, err)
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}

func writeGiftCodeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrGiftCodeNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("gift_code_invalid", "gift code does not exist", http.StatusNotFound))
	case errors.Is(err, services.ErrGiftCodeWrongClub):
		httpx.WriteError(ctx, w, httpx.NewError("gift_code_wrong_club", "gift code is not valid for this club", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrGiftCodeRedeemed):
		httpx.WriteError(ctx, w, httpx.NewError("gift_code_redeemed", "gift code has already been used", http.StatusConflict))
	case errors.Is(err, services.ErrGiftCodeWrongContext):
		httpx.WriteError(ctx, w, httpx.NewError("gift_code_wrong_context", "gift code is not applicable in this context", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrGiftCodeInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("gift_code_error", "failed to process gift code request", http.StatusInternalServerError))
	}
}

func writeClubError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrClubInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrClubNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("club_not_found", "club not found", http.StatusNotFound))
	case errors.Is(err, services.ErrClubInvalidCredentials):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid username or password", http.StatusUnauthorized))
	case errors.Is(err, services.ErrClubBlocked):
		httpx.WriteError(ctx, w, httpx.NewError("club_blocked", "club account is blocked", http.StatusForbidden))
	case errors.Is(err, services.ErrClubUsernameTaken):
		httpx.WriteError(ctx, w, httpx.NewError("username_taken", "username already in use", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("club_error", "failed to process club request", http.StatusInternalServerError))
	}
}
