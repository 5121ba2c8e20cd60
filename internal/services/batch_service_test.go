package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
)

func newBatchServiceForTest(t *testing.T, deps BatchServiceDeps) BatchService {
	t.Helper()
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepo{}
	}
	if deps.Clubs == nil {
		deps.Clubs = &stubClubRepo{}
	}
	if deps.Clock == nil {
		deps.Clock = fixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	}
	svc, err := NewBatchService(deps)
	if err != nil {
		t.Fatalf("NewBatchService: %v", err)
	}
	return svc
}

func batchOrder(id string, batch domain.BatchKey, total int64, qty int) domain.Order {
	return domain.Order{
		ID:     id,
		ClubID: "club_atletico",
		Batch:  batch,
		Total:  total,
		Status: domain.StatusCollecting,
		Items:  []domain.OrderItem{{ID: "itm_" + id, ProductName: "Camiseta", Quantity: qty}},
	}
}

func TestClassifyGroupsAndSorts(t *testing.T) {
	svc := newBatchServiceForTest(t, BatchServiceDeps{})

	orders := []domain.Order{
		batchOrder("o1", domain.NumericBatch(7), 2500, 1),
		batchOrder("o2", domain.IndividualBatch(), 1200, 2),
		batchOrder("o3", domain.NumericBatch(12), 900, 1),
		batchOrder("o4", domain.NumericBatch(7), 1500, 3),
		batchOrder("o5", domain.ErrorBatch(2), 0, 1),
		batchOrder("o6", domain.SpecialBatch(), 4000, 4),
		batchOrder("o7", domain.ErrorBatch(1), 0, 1),
	}

	groups := svc.Classify(orders)

	wantKeys := []string{"12", "7", "ERR-2", "ERR-1", "INDIVIDUAL", "SPECIAL"}
	if len(groups) != len(wantKeys) {
		t.Fatalf("groups = %d, want %d", len(groups), len(wantKeys))
	}
	for i, want := range wantKeys {
		if got := groups[i].Key.String(); got != want {
			t.Fatalf("group[%d] key = %q, want %q", i, got, want)
		}
	}

	seven := groups[1]
	if len(seven.Orders) != 2 {
		t.Fatalf("batch 7 members = %d, want 2", len(seven.Orders))
	}
	if seven.AggregateTotal != 4000 {
		t.Fatalf("batch 7 total = %d, want 4000", seven.AggregateTotal)
	}
	if seven.ItemCount != 4 {
		t.Fatalf("batch 7 item count = %d, want 4", seven.ItemCount)
	}
	if seven.Orders[0].ID != "o1" || seven.Orders[1].ID != "o4" {
		t.Fatalf("member order not preserved: %s, %s", seven.Orders[0].ID, seven.Orders[1].ID)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	svc := newBatchServiceForTest(t, BatchServiceDeps{})

	orders := []domain.Order{
		batchOrder("o1", domain.NumericBatch(3), 100, 1),
		batchOrder("o2", domain.ErrorBatch(1), 200, 1),
		batchOrder("o3", domain.NumericBatch(3), 300, 2),
		batchOrder("o4", domain.SpecialBatch(), 400, 1),
	}

	first := svc.Classify(orders)
	second := svc.Classify(orders)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("classification of identical input differed between runs")
	}
}

func TestClassifyDefaultsMissingBatchToOne(t *testing.T) {
	svc := newBatchServiceForTest(t, BatchServiceDeps{})

	groups := svc.Classify([]domain.Order{
		batchOrder("o1", domain.BatchKey{}, 100, 1),
		batchOrder("o2", domain.NumericBatch(1), 200, 1),
	})
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1 (missing batch folds into batch 1)", len(groups))
	}
	if got := groups[0].Key.String(); got != "1" {
		t.Fatalf("key = %q, want %q", got, "1")
	}
}

func TestSetBatchStatusRewritesEveryMember(t *testing.T) {
	ctx := context.Background()
	batch := domain.NumericBatch(7)
	members := []domain.Order{
		batchOrder("o1", batch, 2500, 1),
		batchOrder("o2", batch, 1500, 1),
		batchOrder("o3", batch, 900, 1),
	}
	members[0].Customer = domain.Customer{Name: "Marta", Email: "marta@example.com"}
	members[2].Customer = domain.Customer{Name: "Luis", Email: "luis@example.com"}

	var capturedStatus domain.OrderStatus
	var capturedEntry domain.NotificationEntry
	orders := &stubOrderRepo{
		listByBatchFn: func(_ context.Context, clubID string, key domain.BatchKey) ([]domain.Order, error) {
			if clubID != "club_atletico" || key.String() != "7" {
				return nil, notFoundErr("wrong batch")
			}
			return members, nil
		},
		updateStatusFn: func(_ context.Context, _ string, _ domain.BatchKey, status domain.OrderStatus, entry domain.NotificationEntry) ([]domain.Order, error) {
			capturedStatus = status
			capturedEntry = entry
			updated := make([]domain.Order, len(members))
			copy(updated, members)
			for i := range updated {
				updated[i].Status = status
			}
			return updated, nil
		},
	}
	var history []domain.BatchHistoryEntry
	clubs := &stubClubRepo{appendHistoryFn: func(_ context.Context, _ string, entry domain.BatchHistoryEntry) error {
		history = append(history, entry)
		return nil
	}}
	mail := &captureMailRepo{}
	events := &captureOrderEvents{}
	svc := newBatchServiceForTest(t, BatchServiceDeps{Orders: orders, Clubs: clubs, Mail: mail, Events: events})

	updated, err := svc.SetBatchStatus(ctx, SetBatchStatusCommand{
		ClubID:          "club_atletico",
		Batch:           batch,
		Status:          domain.StatusInProduction,
		NotifyCustomers: true,
	})
	if err != nil {
		t.Fatalf("SetBatchStatus: %v", err)
	}
	if capturedStatus != domain.StatusInProduction {
		t.Fatalf("repo status = %q, want %q", capturedStatus, domain.StatusInProduction)
	}
	if capturedEntry.Method != "email" {
		t.Fatalf("entry method = %q, want email", capturedEntry.Method)
	}
	for _, order := range updated {
		if order.Status != domain.StatusInProduction {
			t.Fatalf("order %s status = %q", order.ID, order.Status)
		}
	}
	// Only the two members with an email get a status mail.
	if len(mail.messages) != 2 {
		t.Fatalf("status mails = %d, want 2", len(mail.messages))
	}
	if len(history) != 1 || history[0].Action != batchActionStatusChanged {
		t.Fatalf("history = %+v", history)
	}
	if len(events.events) != 1 || events.events[0].PreviousStatus != string(domain.StatusCollecting) {
		t.Fatalf("events = %+v", events.events)
	}
}

func TestSetBatchStatusSameStatusIsNoOp(t *testing.T) {
	batch := domain.NumericBatch(7)
	members := []domain.Order{batchOrder("o1", batch, 2500, 1)}
	updateCalled := false
	orders := &stubOrderRepo{
		listByBatchFn: func(context.Context, string, domain.BatchKey) ([]domain.Order, error) {
			return members, nil
		},
		updateStatusFn: func(context.Context, string, domain.BatchKey, domain.OrderStatus, domain.NotificationEntry) ([]domain.Order, error) {
			updateCalled = true
			return members, nil
		},
	}
	svc := newBatchServiceForTest(t, BatchServiceDeps{Orders: orders})

	got, err := svc.SetBatchStatus(context.Background(), SetBatchStatusCommand{
		ClubID: "club_atletico",
		Batch:  batch,
		Status: domain.StatusCollecting,
	})
	if err != nil {
		t.Fatalf("SetBatchStatus: %v", err)
	}
	if updateCalled {
		t.Fatal("same-status request must not rewrite the batch")
	}
	if len(got) != 1 {
		t.Fatalf("members = %d, want 1", len(got))
	}
}

func TestSetBatchStatusRejectsInvalidTransition(t *testing.T) {
	batch := domain.NumericBatch(7)
	orders := &stubOrderRepo{listByBatchFn: func(context.Context, string, domain.BatchKey) ([]domain.Order, error) {
		return []domain.Order{batchOrder("o1", batch, 2500, 1)}, nil
	}}
	svc := newBatchServiceForTest(t, BatchServiceDeps{Orders: orders})

	_, err := svc.SetBatchStatus(context.Background(), SetBatchStatusCommand{
		ClubID: "club_atletico",
		Batch:  batch,
		Status: domain.StatusDeliveredClub,
	})
	if !errors.Is(err, ErrBatchInvalidTransition) {
		t.Fatalf("err = %v, want ErrBatchInvalidTransition", err)
	}
}

func TestSetBatchStatusEmptyBatch(t *testing.T) {
	orders := &stubOrderRepo{listByBatchFn: func(context.Context, string, domain.BatchKey) ([]domain.Order, error) {
		return nil, nil
	}}
	svc := newBatchServiceForTest(t, BatchServiceDeps{Orders: orders})

	_, err := svc.SetBatchStatus(context.Background(), SetBatchStatusCommand{
		ClubID: "club_atletico",
		Batch:  domain.NumericBatch(9),
		Status: domain.StatusInProduction,
	})
	if !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("err = %v, want ErrBatchNotFound", err)
	}
}

func TestCloseGlobalBatchAdvancesByOne(t *testing.T) {
	var capturedExpected int
	var capturedEntry domain.BatchHistoryEntry
	clubs := &stubClubRepo{closeGlobalFn: func(_ context.Context, _ string, expected int, entry domain.BatchHistoryEntry) (int, error) {
		capturedExpected = expected
		capturedEntry = entry
		return expected + 1, nil
	}}
	svc := newBatchServiceForTest(t, BatchServiceDeps{Clubs: clubs})

	next, err := svc.CloseGlobalBatch(context.Background(), CloseBatchCommand{ClubID: "club_atletico", Expected: 3})
	if err != nil {
		t.Fatalf("CloseGlobalBatch: %v", err)
	}
	if next != 4 {
		t.Fatalf("next = %d, want 4", next)
	}
	if capturedExpected != 3 {
		t.Fatalf("expected passed to repo = %d, want 3", capturedExpected)
	}
	if capturedEntry.Action != batchActionClosed || capturedEntry.Batch.String() != "3" {
		t.Fatalf("history entry = %+v", capturedEntry)
	}
}

func TestCloseErrorBatchUsesErrorKey(t *testing.T) {
	var capturedEntry domain.BatchHistoryEntry
	clubs := &stubClubRepo{closeErrorFn: func(_ context.Context, _ string, expected int, entry domain.BatchHistoryEntry) (int, error) {
		capturedEntry = entry
		return expected + 1, nil
	}}
	svc := newBatchServiceForTest(t, BatchServiceDeps{Clubs: clubs})

	next, err := svc.CloseErrorBatch(context.Background(), CloseBatchCommand{ClubID: "club_atletico", Expected: 2})
	if err != nil {
		t.Fatalf("CloseErrorBatch: %v", err)
	}
	if next != 3 {
		t.Fatalf("next = %d, want 3", next)
	}
	if capturedEntry.Batch.String() != "ERR-2" {
		t.Fatalf("entry batch = %q, want ERR-2", capturedEntry.Batch.String())
	}
}

func TestCloseBatchConflictMapsToCounterMoved(t *testing.T) {
	clubs := &stubClubRepo{closeGlobalFn: func(context.Context, string, int, domain.BatchHistoryEntry) (int, error) {
		return 0, conflictErr("batch counter moved: expected 3, stored 4")
	}}
	svc := newBatchServiceForTest(t, BatchServiceDeps{Clubs: clubs})

	_, err := svc.CloseGlobalBatch(context.Background(), CloseBatchCommand{ClubID: "club_atletico", Expected: 3})
	if !errors.Is(err, ErrBatchCounterMoved) {
		t.Fatalf("err = %v, want ErrBatchCounterMoved", err)
	}
}

func TestCloseBatchRejectsBadExpected(t *testing.T) {
	svc := newBatchServiceForTest(t, BatchServiceDeps{})
	_, err := svc.CloseGlobalBatch(context.Background(), CloseBatchCommand{ClubID: "club_atletico", Expected: 0})
	if !errors.Is(err, ErrBatchInvalidInput) {
		t.Fatalf("err = %v, want ErrBatchInvalidInput", err)
	}
}

func TestReopenGlobalBatch(t *testing.T) {
	var capturedTarget int
	clubs := &stubClubRepo{reopenFn: func(_ context.Context, _ string, target int, entry domain.BatchHistoryEntry) error {
		capturedTarget = target
		if entry.Action != batchActionReopened {
			t.Fatalf("entry action = %q", entry.Action)
		}
		return nil
	}}
	svc := newBatchServiceForTest(t, BatchServiceDeps{Clubs: clubs})

	if err := svc.ReopenGlobalBatch(context.Background(), ReopenBatchCommand{ClubID: "club_atletico", Target: 2}); err != nil {
		t.Fatalf("ReopenGlobalBatch: %v", err)
	}
	if capturedTarget != 2 {
		t.Fatalf("target = %d, want 2", capturedTarget)
	}

	if err := svc.ReopenGlobalBatch(context.Background(), ReopenBatchCommand{ClubID: "club_atletico", Target: 0}); !errors.Is(err, ErrBatchInvalidInput) {
		t.Fatalf("err = %v, want ErrBatchInvalidInput", err)
	}
}
