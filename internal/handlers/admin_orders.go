package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/httpx"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

const maxOrderRequestBody = 64 * 1024

// AdminOrderHandlers exposes the back-office order surface: listing, manual
// entry, edits, cash confirmation, right-to-forget and the incident ledger.
type AdminOrderHandlers struct {
	orders    services.OrderService
	incidents services.IncidentService
}

// NewAdminOrderHandlers constructs the admin order handlers.
func NewAdminOrderHandlers(orders services.OrderService, incidents services.IncidentService) *AdminOrderHandlers {
	return &AdminOrderHandlers{
		orders:    orders,
		incidents: incidents,
	}
}

// Routes registers the order endpoints under the provided router.
func (h *AdminOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.listOrders)
	r.Post("/orders", h.createManual)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Put("/orders/{orderID}", h.updateOrder)
	r.Delete("/orders/{orderID}", h.deleteOrder)
	r.Post("/orders/{orderID}/confirm-cash", h.confirmCash)
	r.Post("/orders/{orderID}/forget", h.forgetCustomer)
	r.Post("/orders/{orderID}/incidents", h.addIncident)
	r.Post("/orders/{orderID}/incidents/{incidentID}/resolve", h.resolveIncident)
	r.Post("/orders/{orderID}/incidents/{incidentID}/replacement", h.createReplacement)
}

type orderListResponse struct {
	Orders        []orderResponse `json:"orders"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

func (h *AdminOrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := services.OrderListQuery{
		ClubID:  strings.TrimSpace(r.URL.Query().Get("clubId")),
		Payment: domain.PaymentMethod(strings.TrimSpace(r.URL.Query().Get("payment"))),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("batch")); raw != "" {
		key := domain.ParseBatchKey(raw)
		query.Batch = &key
	}
	for _, raw := range strings.Split(r.URL.Query().Get("status"), ",") {
		status := domain.OrderStatus(strings.TrimSpace(raw))
		if status.Valid() {
			query.Statuses = append(query.Statuses, status)
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "from must be RFC3339", http.StatusBadRequest))
			return
		}
		query.CreatedFrom = &from
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "to must be RFC3339", http.StatusBadRequest))
			return
		}
		query.CreatedTo = &to
	}
	if strings.TrimSpace(r.URL.Query().Get("order")) == string(domain.SortAsc) {
		query.Order = domain.SortAsc
	} else {
		query.Order = domain.SortDesc
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("pageSize")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "pageSize must be a non-negative integer", http.StatusBadRequest))
			return
		}
		query.Pagination.PageSize = size
	}
	query.Pagination.PageToken = strings.TrimSpace(r.URL.Query().Get("pageToken"))

	page, err := h.orders.ListOrders(ctx, query)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderListResponse{
		Orders:        toOrderResponses(page.Items),
		NextPageToken: page.NextPageToken,
	})
}

type manualOrderRequest struct {
	ClubID         string                  `json:"clubId"`
	Items          []checkoutItemRequest   `json:"items"`
	Customer       checkoutCustomerRequest `json:"customer"`
	Payment        string                  `json:"payment"`
	Classification string                  `json:"classification"`
	Responsibility string                  `json:"responsibility"`
	Special        bool                    `json:"special"`
	ManualSeasonID string                  `json:"manualSeasonId"`
}

func (h *AdminOrderHandlers) createManual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req manualOrderRequest
	if err := decodeJSONBody(r, maxOrderRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.ManualOrderCommand{
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
		Classification: domain.Classification(strings.TrimSpace(req.Classification)),
		Responsibility: domain.Responsibility(strings.TrimSpace(req.Responsibility)),
		Special:        req.Special,
		ManualSeasonID: strings.TrimSpace(req.ManualSeasonID),
	}

	order, err := h.orders.CreateManual(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toOrderResponse(order))
}

func (h *AdminOrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.orders.GetOrder(ctx, strings.TrimSpace(chi.URLParam(r, "orderID")))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderResponse(order))
}

type updateOrderRequest struct {
	Customer       *checkoutCustomerRequest `json:"customer"`
	Items          []checkoutItemRequest    `json:"items"`
	Payment        *string                  `json:"payment"`
	Batch          *string                  `json:"batch"`
	ManualSeasonID *string                  `json:"manualSeasonId"`
}

func (h *AdminOrderHandlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req updateOrderRequest
	if err := decodeJSONBody(r, maxOrderRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.UpdateOrderCommand{
		OrderID:        strings.TrimSpace(chi.URLParam(r, "orderID")),
		Items:          toCheckoutItems(req.Items),
		ManualSeasonID: req.ManualSeasonID,
	}
	if len(req.Items) == 0 {
		cmd.Items = nil
	}
	if req.Customer != nil {
		cmd.Customer = &domain.Customer{
			Name:             req.Customer.Name,
			Email:            req.Customer.Email,
			Phone:            req.Customer.Phone,
			MarketingConsent: req.Customer.MarketingConsent,
			EmailUpdates:     req.Customer.EmailUpdates,
		}
	}
	if req.Payment != nil {
		payment := domain.PaymentMethod(strings.TrimSpace(*req.Payment))
		cmd.Payment = &payment
	}
	if req.Batch != nil {
		key := domain.ParseBatchKey(strings.TrimSpace(*req.Batch))
		cmd.Batch = &key
	}

	order, err := h.orders.UpdateOrder(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderResponse(order))
}

func (h *AdminOrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.orders.DeleteOrder(ctx, strings.TrimSpace(chi.URLParam(r, "orderID"))); err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminOrderHandlers) confirmCash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.orders.ConfirmCashReceipt(ctx, strings.TrimSpace(chi.URLParam(r, "orderID")))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderResponse(order))
}

func (h *AdminOrderHandlers) forgetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.orders.ForgetCustomer(ctx, strings.TrimSpace(chi.URLParam(r, "orderID")))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderResponse(order))
}

type addIncidentRequest struct {
	ItemID         string `json:"itemId"`
	Reason         string `json:"reason"`
	Responsibility string `json:"responsibility"`
}

func (h *AdminOrderHandlers) addIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.incidents == nil {
		httpx.WriteError(ctx, w, httpx.NewError("incidents_unavailable", "incident service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req addIncidentRequest
	if err := decodeJSONBody(r, maxOrderRequestBody, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.incidents.AddIncident(ctx, services.AddIncidentCommand{
		OrderID:        strings.TrimSpace(chi.URLParam(r, "orderID")),
		ItemID:         strings.TrimSpace(req.ItemID),
		Reason:         req.Reason,
		Responsibility: domain.Responsibility(strings.TrimSpace(req.Responsibility)),
	})
	if err != nil {
		writeIncidentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toOrderResponse(order))
}

func (h *AdminOrderHandlers) resolveIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.incidents == nil {
		httpx.WriteError(ctx, w, httpx.NewError("incidents_unavailable", "incident service unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.incidents.ResolveIncident(ctx,
		strings.TrimSpace(chi.URLParam(r, "orderID")),
		strings.TrimSpace(chi.URLParam(r, "incidentID")))
	if err != nil {
		writeIncidentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrderResponse(order))
}

type createReplacementRequest struct {
	Quantity int `json:"quantity"`
}

func (h *AdminOrderHandlers) createReplacement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.incidents == nil {
		httpx.WriteError(ctx, w, httpx.NewError("incidents_unavailable", "incident service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createReplacementRequest
	if err := decodeJSONBody(r, maxOrderRequestBody, &req); err != nil && !errorsIsEmptyBody(err) {
		writeBodyError(ctx, w, err)
		return
	}

	replacement, err := h.incidents.CreateReplacement(ctx, services.CreateReplacementCommand{
		OrderID:    strings.TrimSpace(chi.URLParam(r, "orderID")),
		IncidentID: strings.TrimSpace(chi.URLParam(r, "incidentID")),
		Quantity:   req.Quantity,
	})
	if err != nil {
		writeIncidentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toOrderResponse(replacement))
}

func writeIncidentError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrIncidentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrIncidentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("incident_not_found", "order, item or incident not found", http.StatusNotFound))
	case errors.Is(err, services.ErrIncidentAlreadyOpen):
		httpx.WriteError(ctx, w, httpx.NewError("incident_already_open", "item already has an open incident or replacement", http.StatusConflict))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("incident_error", "failed to process incident request", http.StatusInternalServerError))
	}
}
