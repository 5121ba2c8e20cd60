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

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

func publicRouter(h *PublicHandlers) chi.Router {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestCheckoutCreatesOrder(t *testing.T) {
	var captured services.CheckoutCommand
	orders := &stubOrderService{
		createFromCheckoutFn: func(_ context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
			captured = cmd
			return services.CheckoutResult{
				Order: domain.Order{
					ID:        "ord_1",
					ClubID:    cmd.ClubID,
					Total:     5000,
					Payment:   cmd.Payment,
					Status:    domain.StatusCollecting,
					Type:      domain.OrderTypeWeb,
					Batch:     domain.NumericBatch(3),
					Customer:  cmd.Customer,
					CreatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
				},
				PaymentClientSecret: "pi_secret",
			}, nil
		},
	}

	router := publicRouter(NewPublicHandlers(orders, &stubGiftCodeService{}, &stubClubService{}))

	body := `{
		"clubId": "club_atletico",
		"payment": "card",
		"customer": {"name": "Marta Vidal", "email": "marta@example.com"},
		"items": [{"productName": "Camiseta", "unitPrice": 2500, "unitCost": 1000, "quantity": 2, "playerName": "VIDAL"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.ClubID != "club_atletico" || captured.Payment != domain.PaymentCard {
		t.Fatalf("unexpected command: %+v", captured)
	}
	if len(captured.Items) != 1 || captured.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", captured.Items)
	}

	var resp checkoutResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Order.ID != "ord_1" {
		t.Fatalf("expected order ord_1, got %s", resp.Order.ID)
	}
	if resp.Order.Batch != "3" {
		t.Fatalf("expected batch 3, got %s", resp.Order.Batch)
	}
	if resp.Order.VisibleStatus != "Recopilando pedidos" {
		t.Fatalf("unexpected visible status %q", resp.Order.VisibleStatus)
	}
	if resp.PaymentClientSecret != "pi_secret" {
		t.Fatalf("expected client secret, got %q", resp.PaymentClientSecret)
	}
}

func TestCheckoutMapsValidationError(t *testing.T) {
	orders := &stubOrderService{
		createFromCheckoutFn: func(context.Context, services.CheckoutCommand) (services.CheckoutResult, error) {
			return services.CheckoutResult{}, services.ErrOrderInvalidInput
		},
	}
	router := publicRouter(NewPublicHandlers(orders, &stubGiftCodeService{}, &stubClubService{}))

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"payment":"card"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestCheckoutRejectsEmptyBody(t *testing.T) {
	router := publicRouter(NewPublicHandlers(&stubOrderService{}, &stubGiftCodeService{}, &stubClubService{}))

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("  "))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestValidateGiftCodeResolution(t *testing.T) {
	giftCodes := &stubGiftCodeService{
		validateFn: func(_ context.Context, cmd services.ValidateGiftCodeCommand) (services.GiftCodeResolution, error) {
			if cmd.Code != "SUMMER10" || cmd.Total != 10000 {
				t.Fatalf("unexpected command: %+v", cmd)
			}
			return services.GiftCodeResolution{
				Code:       domain.GiftCode{Code: "SUMMER10", Type: domain.GiftCodePercent},
				Discount:   1000,
				FinalTotal: 9000,
			}, nil
		},
	}
	router := publicRouter(NewPublicHandlers(&stubOrderService{}, giftCodes, &stubClubService{}))

	body := `{"code": "SUMMER10", "clubId": "club_atletico", "context": "cart", "total": 10000}`
	req := httptest.NewRequest(http.MethodPost, "/gift-codes/validate", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp giftCodeResolutionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Discount != 1000 || resp.FinalTotal != 9000 {
		t.Fatalf("unexpected resolution: %+v", resp)
	}
}

func TestValidateGiftCodeErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "unknown code", err: services.ErrGiftCodeNotFound, wantStatus: http.StatusNotFound},
		{name: "wrong club", err: services.ErrGiftCodeWrongClub, wantStatus: http.StatusUnprocessableEntity},
		{name: "redeemed", err: services.ErrGiftCodeRedeemed, wantStatus: http.StatusConflict},
		{name: "wrong context", err: services.ErrGiftCodeWrongContext, wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			giftCodes := &stubGiftCodeService{
				validateFn: func(context.Context, services.ValidateGiftCodeCommand) (services.GiftCodeResolution, error) {
					return services.GiftCodeResolution{}, tc.err
				},
			}
			router := publicRouter(NewPublicHandlers(&stubOrderService{}, giftCodes, &stubClubService{}))

			req := httptest.NewRequest(http.MethodPost, "/gift-codes/validate", strings.NewReader(`{"code":"X","total":100}`))
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
		})
	}
}

func TestClubProfileHidesBlockedClub(t *testing.T) {
	clubs := &stubClubService{
		getClubFn: func(_ context.Context, clubID string) (domain.Club, error) {
			return domain.Club{ID: clubID, Name: "Atletico Poble", Blocked: true}, nil
		},
	}
	router := publicRouter(NewPublicHandlers(&stubOrderService{}, &stubGiftCodeService{}, clubs))

	req := httptest.NewRequest(http.MethodGet, "/clubs/club_atletico", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for blocked club, got %d", rr.Code)
	}
}

func TestOrderStatusExposesVisibleStatusOnly(t *testing.T) {
	orders := &stubOrderService{
		getOrderFn: func(_ context.Context, orderID string) (domain.Order, error) {
			return domain.Order{
				ID:     orderID,
				Status: domain.StatusInProduction,
				Batch:  domain.NumericBatch(7),
				Customer: domain.Customer{
					Name:  "Marta Vidal",
					Email: "marta@example.com",
				},
			}, nil
		},
	}
	router := publicRouter(NewPublicHandlers(orders, &stubGiftCodeService{}, &stubClubService{}))

	req := httptest.NewRequest(http.MethodGet, "/orders/ord_1/status", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["visibleStatus"] != "En producción" {
		t.Fatalf("unexpected visible status %v", resp["visibleStatus"])
	}
	if _, leaked := resp["customer"]; leaked {
		t.Fatalf("status endpoint must not expose customer data: %v", resp)
	}
}
