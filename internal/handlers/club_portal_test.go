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
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/auth"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

func clubPortalRouter(t *testing.T, clubs services.ClubService, batches services.BatchService, accounting services.AccountingService) (chi.Router, *auth.ClubSessionManager) {
	t.Helper()
	manager, err := auth.NewClubSessionManager("portal-test-secret")
	if err != nil {
		t.Fatalf("NewClubSessionManager: %v", err)
	}
	h := NewClubPortalHandlers(clubs, batches, accounting, auth.RequireClubSession(manager))
	r := chi.NewRouter()
	h.Routes(r)
	return r, manager
}

func TestClubLogin(t *testing.T) {
	clubs := &stubClubService{
		loginFn: func(_ context.Context, cmd services.ClubLoginCommand) (services.ClubLoginResult, error) {
			if cmd.Username != "atletico" || cmd.Password != "secreto123" {
				return services.ClubLoginResult{}, services.ErrClubInvalidCredentials
			}
			return services.ClubLoginResult{
				Token: "signed-token",
				Club:  domain.Club{ID: "club_atletico", Name: "Atletico Poble", Username: "atletico"},
			}, nil
		},
	}
	router, _ := clubPortalRouter(t, clubs, &stubBatchService{}, &stubAccountingService{})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"atletico","password":"secreto123"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp clubLoginResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Token != "signed-token" {
		t.Fatalf("expected token, got %q", resp.Token)
	}
	if resp.Club.ID != "club_atletico" {
		t.Fatalf("unexpected club %+v", resp.Club)
	}
}

func TestClubLoginFailureIsGeneric(t *testing.T) {
	clubs := &stubClubService{
		loginFn: func(context.Context, services.ClubLoginCommand) (services.ClubLoginResult, error) {
			return services.ClubLoginResult{}, services.ErrClubInvalidCredentials
		},
	}
	router, _ := clubPortalRouter(t, clubs, &stubBatchService{}, &stubAccountingService{})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"atletico","password":"wrong"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "password") && !strings.Contains(rr.Body.String(), "username or password") {
		t.Fatalf("error body must not say which credential failed: %s", rr.Body.String())
	}
}

func TestClubLoginBlockedClub(t *testing.T) {
	clubs := &stubClubService{
		loginFn: func(context.Context, services.ClubLoginCommand) (services.ClubLoginResult, error) {
			return services.ClubLoginResult{}, services.ErrClubBlocked
		},
	}
	router, _ := clubPortalRouter(t, clubs, &stubBatchService{}, &stubAccountingService{})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"atletico","password":"secreto123"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}

func TestClubPortalRequiresSession(t *testing.T) {
	router, _ := clubPortalRouter(t, &stubClubService{}, &stubBatchService{}, &stubAccountingService{})

	req := httptest.NewRequest(http.MethodGet, "/batches", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rr.Code)
	}
}

func TestClubPortalBatchesScopedToSession(t *testing.T) {
	var requestedClub string
	batches := &stubBatchService{
		listBatchesFn: func(_ context.Context, clubID string) ([]services.BatchGroup, error) {
			requestedClub = clubID
			return []services.BatchGroup{
				{
					Key:            domain.NumericBatch(3),
					AggregateTotal: 5000,
					ItemCount:      2,
					Status:         domain.StatusCollecting,
					VisibleStatus:  "Recopilando pedidos",
					Orders: []domain.Order{
						{ID: "ord_1", Batch: domain.NumericBatch(3), Status: domain.StatusCollecting},
					},
				},
			}, nil
		},
	}
	router, manager := clubPortalRouter(t, &stubClubService{}, batches, &stubAccountingService{})

	token, err := manager.Issue(auth.ClubSession{ClubID: "club_atletico", ClubName: "Atletico Poble"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/batches", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if requestedClub != "club_atletico" {
		t.Fatalf("expected lookup scoped to session club, got %q", requestedClub)
	}

	var resp struct {
		Batches []batchGroupResponse `json:"batches"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Batches) != 1 || resp.Batches[0].Batch != "3" {
		t.Fatalf("unexpected batches: %+v", resp.Batches)
	}
}

func TestClubPortalSeasonsHideHidden(t *testing.T) {
	accounting := &stubAccountingService{
		listSeasonsFn: func(_ context.Context, includeHidden bool) ([]domain.Season, error) {
			if includeHidden {
				t.Fatalf("portal must not request hidden seasons")
			}
			return []domain.Season{
				{
					ID:        "season_2024",
					Name:      "Temporada 2024/25",
					StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
					EndDate:   time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC),
				},
			}, nil
		},
	}
	router, manager := clubPortalRouter(t, &stubClubService{}, &stubBatchService{}, accounting)

	token, err := manager.Issue(auth.ClubSession{ClubID: "club_atletico"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/seasons", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Seasons []seasonResponse `json:"seasons"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Seasons) != 1 || resp.Seasons[0].ID != "season_2024" {
		t.Fatalf("unexpected seasons: %+v", resp.Seasons)
	}
}
