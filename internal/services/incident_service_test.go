package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
)

func newIncidentServiceForTest(t *testing.T, deps IncidentServiceDeps) IncidentService {
	t.Helper()
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepo{}
	}
	if deps.Clubs == nil {
		deps.Clubs = &stubClubRepo{findFn: func(context.Context, string) (domain.Club, error) {
			return testClub(), nil
		}}
	}
	if deps.Clock == nil {
		deps.Clock = fixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = sequenceIDs("01A", "01B", "01C")
	}
	svc, err := NewIncidentService(deps)
	if err != nil {
		t.Fatalf("NewIncidentService: %v", err)
	}
	return svc
}

func incidentSourceOrder() domain.Order {
	return domain.Order{
		ID:     "ord_src",
		ClubID: "club_atletico",
		Total:  2500,
		Status: domain.StatusDeliveredClub,
		Batch:  domain.NumericBatch(3),
		Items: []domain.OrderItem{
			{ID: "itm_1", ProductName: "Camiseta", UnitPrice: 2500, UnitCost: 1000, Quantity: 1, PlayerName: "VIDAL"},
		},
		Customer: domain.Customer{Name: "Marta Vidal", Email: "marta@example.com"},
	}
}

func TestAddIncident(t *testing.T) {
	stored := incidentSourceOrder()
	var replaced []domain.Incident
	orders := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		replaceIncidentsFn: func(_ context.Context, _ string, incidents []domain.Incident, _ time.Time) error {
			replaced = incidents
			return nil
		},
	}
	svc := newIncidentServiceForTest(t, IncidentServiceDeps{Orders: orders})

	order, err := svc.AddIncident(context.Background(), AddIncidentCommand{
		OrderID:        "ord_src",
		ItemID:         "itm_1",
		Reason:         "estampado defectuoso",
		Responsibility: domain.ResponsibilityInternal,
	})
	if err != nil {
		t.Fatalf("AddIncident: %v", err)
	}
	if len(order.Incidents) != 1 {
		t.Fatalf("incidents = %d, want 1", len(order.Incidents))
	}
	incident := order.Incidents[0]
	if incident.ItemID != "itm_1" || incident.Resolved {
		t.Fatalf("incident = %+v", incident)
	}
	if incident.ReportedAt.IsZero() {
		t.Fatal("ReportedAt was not stamped")
	}
	if len(replaced) != 1 {
		t.Fatalf("persisted incidents = %d, want 1", len(replaced))
	}
}

func TestAddIncidentRejectsDuplicateOpen(t *testing.T) {
	stored := incidentSourceOrder()
	stored.Incidents = []domain.Incident{
		{ID: "inc_1", ItemID: "itm_1", Reason: "talla equivocada", Responsibility: domain.ResponsibilityInternal},
	}
	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) { return stored, nil }}
	svc := newIncidentServiceForTest(t, IncidentServiceDeps{Orders: orders})

	_, err := svc.AddIncident(context.Background(), AddIncidentCommand{
		OrderID:        "ord_src",
		ItemID:         "itm_1",
		Reason:         "otra vez",
		Responsibility: domain.ResponsibilityInternal,
	})
	if !errors.Is(err, ErrIncidentAlreadyOpen) {
		t.Fatalf("err = %v, want ErrIncidentAlreadyOpen", err)
	}
}

func TestAddIncidentAllowsNewAfterResolved(t *testing.T) {
	stored := incidentSourceOrder()
	stored.Incidents = []domain.Incident{
		{ID: "inc_1", ItemID: "itm_1", Reason: "talla equivocada", Responsibility: domain.ResponsibilityInternal, Resolved: true},
	}
	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) { return stored, nil }}
	svc := newIncidentServiceForTest(t, IncidentServiceDeps{Orders: orders})

	order, err := svc.AddIncident(context.Background(), AddIncidentCommand{
		OrderID:        "ord_src",
		ItemID:         "itm_1",
		Reason:         "nuevo fallo",
		Responsibility: domain.ResponsibilityClub,
	})
	if err != nil {
		t.Fatalf("AddIncident: %v", err)
	}
	if len(order.Incidents) != 2 {
		t.Fatalf("incidents = %d, want 2", len(order.Incidents))
	}
}

func TestAddIncidentUnknownItem(t *testing.T) {
	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) {
		return incidentSourceOrder(), nil
	}}
	svc := newIncidentServiceForTest(t, IncidentServiceDeps{Orders: orders})

	_, err := svc.AddIncident(context.Background(), AddIncidentCommand{
		OrderID:        "ord_src",
		ItemID:         "itm_missing",
		Reason:         "falla",
		Responsibility: domain.ResponsibilityInternal,
	})
	if !errors.Is(err, ErrIncidentNotFound) {
		t.Fatalf("err = %v, want ErrIncidentNotFound", err)
	}
}

func TestResolveIncident(t *testing.T) {
	stored := incidentSourceOrder()
	stored.Incidents = []domain.Incident{
		{ID: "inc_1", ItemID: "itm_1", Reason: "talla equivocada", Responsibility: domain.ResponsibilityInternal},
	}
	var replaced []domain.Incident
	orders := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		replaceIncidentsFn: func(_ context.Context, _ string, incidents []domain.Incident, _ time.Time) error {
			replaced = incidents
			return nil
		},
	}
	svc := newIncidentServiceForTest(t, IncidentServiceDeps{Orders: orders})

	order, err := svc.ResolveIncident(context.Background(), "ord_src", "inc_1")
	if err != nil {
		t.Fatalf("ResolveIncident: %v", err)
	}
	if !order.Incidents[0].Resolved {
		t.Fatal("incident was not marked resolved")
	}
	if len(replaced) != 1 || !replaced[0].Resolved {
		t.Fatalf("persisted incidents = %+v", replaced)
	}

	if _, err := svc.ResolveIncident(context.Background(), "ord_src", "inc_missing"); !errors.Is(err, ErrIncidentNotFound) {
		t.Fatalf("err = %v, want ErrIncidentNotFound", err)
	}
}

func TestCreateReplacementLinksBothWays(t *testing.T) {
	stored := incidentSourceOrder()
	stored.Incidents = []domain.Incident{
		{ID: "inc_1", ItemID: "itm_1", Reason: "estampado defectuoso", Responsibility: domain.ResponsibilitySupplier},
	}
	var inserted *domain.Order
	var linked []domain.Incident
	orders := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		insertFn: func(_ context.Context, order domain.Order) error {
			inserted = &order
			return nil
		},
		replaceIncidentsFn: func(_ context.Context, orderID string, incidents []domain.Incident, _ time.Time) error {
			if orderID != "ord_src" {
				t.Fatalf("link-back targeted %q", orderID)
			}
			linked = incidents
			return nil
		},
	}
	events := &captureOrderEvents{}
	svc := newIncidentServiceForTest(t, IncidentServiceDeps{Orders: orders, Events: events})

	replacement, err := svc.CreateReplacement(context.Background(), CreateReplacementCommand{
		OrderID:    "ord_src",
		IncidentID: "inc_1",
	})
	if err != nil {
		t.Fatalf("CreateReplacement: %v", err)
	}
	if inserted == nil {
		t.Fatal("replacement was not inserted")
	}
	if replacement.Type != domain.OrderTypeReplacement || replacement.Payment != domain.PaymentIncident {
		t.Fatalf("replacement type/payment = %q/%q", replacement.Type, replacement.Payment)
	}
	if got, want := replacement.Batch.String(), "ERR-2"; got != want {
		t.Fatalf("batch = %q, want %q", got, want)
	}
	if replacement.Replaced == nil {
		t.Fatal("replacement lacks incident details")
	}
	if replacement.Replaced.SourceOrderID != "ord_src" || replacement.Replaced.ResolvesIncidentID != "inc_1" {
		t.Fatalf("forward link = %+v", replacement.Replaced)
	}
	if len(linked) != 1 || linked[0].LinkedReplacementOrderID != replacement.ID {
		t.Fatalf("back link = %+v", linked)
	}
	// Supplier warranty zeroes both price and cost.
	if replacement.Total != 0 || replacement.Items[0].UnitCost != 0 {
		t.Fatalf("supplier replacement not zeroed: total %d cost %d", replacement.Total, replacement.Items[0].UnitCost)
	}
	if len(events.events) != 1 || events.events[0].Metadata["incident"] != "inc_1" {
		t.Fatalf("events = %+v", events.events)
	}
}

func TestCreateReplacementResponsibilityPricing(t *testing.T) {
	cases := []struct {
		name           string
		responsibility domain.Responsibility
		wantPrice      int64
		wantCost       int64
	}{
		{"club pays full price", domain.ResponsibilityClub, 2500, 1000},
		{"internal keeps cost only", domain.ResponsibilityInternal, 0, 1000},
		{"supplier zeroes both", domain.ResponsibilitySupplier, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stored := incidentSourceOrder()
			stored.Incidents = []domain.Incident{
				{ID: "inc_1", ItemID: "itm_1", Reason: "fallo", Responsibility: tc.responsibility},
			}
			orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) { return stored, nil }}
			svc := newIncidentServiceForTest(t, IncidentServiceDeps{Orders: orders})

			replacement, err := svc.CreateReplacement(context.Background(), CreateReplacementCommand{
				OrderID:    "ord_src",
				IncidentID: "inc_1",
			})
			if err != nil {
				t.Fatalf("CreateReplacement: %v", err)
			}
			if replacement.Items[0].UnitPrice != tc.wantPrice {
				t.Fatalf("price = %d, want %d", replacement.Items[0].UnitPrice, tc.wantPrice)
			}
			if replacement.Items[0].UnitCost != tc.wantCost {
				t.Fatalf("cost = %d, want %d", replacement.Items[0].UnitCost, tc.wantCost)
			}
		})
	}
}

func TestCreateReplacementRejectsSecondReprint(t *testing.T) {
	stored := incidentSourceOrder()
	stored.Incidents = []domain.Incident{
		{ID: "inc_1", ItemID: "itm_1", Reason: "fallo", Responsibility: domain.ResponsibilityInternal, LinkedReplacementOrderID: "ord_prev"},
	}
	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) { return stored, nil }}
	svc := newIncidentServiceForTest(t, IncidentServiceDeps{Orders: orders})

	_, err := svc.CreateReplacement(context.Background(), CreateReplacementCommand{OrderID: "ord_src", IncidentID: "inc_1"})
	if !errors.Is(err, ErrIncidentAlreadyOpen) {
		t.Fatalf("err = %v, want ErrIncidentAlreadyOpen", err)
	}
}

func TestCreateReplacementQuantityOverride(t *testing.T) {
	stored := incidentSourceOrder()
	stored.Items[0].Quantity = 3
	stored.Incidents = []domain.Incident{
		{ID: "inc_1", ItemID: "itm_1", Reason: "fallo", Responsibility: domain.ResponsibilityClub},
	}
	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) { return stored, nil }}
	svc := newIncidentServiceForTest(t, IncidentServiceDeps{Orders: orders})

	replacement, err := svc.CreateReplacement(context.Background(), CreateReplacementCommand{
		OrderID:    "ord_src",
		IncidentID: "inc_1",
		Quantity:   1,
	})
	if err != nil {
		t.Fatalf("CreateReplacement: %v", err)
	}
	if replacement.Items[0].Quantity != 1 {
		t.Fatalf("quantity = %d, want 1", replacement.Items[0].Quantity)
	}
	if replacement.Total != 2500 {
		t.Fatalf("total = %d, want 2500", replacement.Total)
	}
}

func TestHasOpenIncident(t *testing.T) {
	svc := newIncidentServiceForTest(t, IncidentServiceDeps{})
	order := incidentSourceOrder()
	order.Incidents = []domain.Incident{
		{ID: "inc_1", ItemID: "itm_1", Resolved: true},
		{ID: "inc_2", ItemID: "itm_2"},
	}
	if svc.HasOpenIncident(order, "itm_1") {
		t.Fatal("resolved incident must not count as open")
	}
	if !svc.HasOpenIncident(order, "itm_2") {
		t.Fatal("expected open incident on itm_2")
	}
}
