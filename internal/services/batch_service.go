package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

const (
	batchActionStatusChanged = "status_changed"
	batchActionClosed        = "closed"
	batchActionReopened      = "reopened"
)

var (
	// ErrBatchInvalidInput signals the caller provided invalid data.
	ErrBatchInvalidInput = errors.New("batch: invalid input")
	// ErrBatchNotFound indicates the club or batch could not be located.
	ErrBatchNotFound = errors.New("batch: not found")
	// ErrBatchInvalidTransition indicates the requested status change is not allowed.
	ErrBatchInvalidTransition = errors.New("batch: invalid status transition")
	// ErrBatchCounterMoved indicates another closure won the compare-and-set race.
	// The caller should reload the club and retry with the fresh counter value.
	ErrBatchCounterMoved = errors.New("batch: counter moved, reload and retry")
)

// BatchGroup is one batch key with its member orders and aggregates.
type BatchGroup struct {
	Key            BatchKey
	Orders         []Order
	AggregateTotal int64
	ItemCount      int
	Status         OrderStatus
	VisibleStatus  string
}

// SetBatchStatusCommand applies a new status to every order in one batch.
type SetBatchStatusCommand struct {
	ClubID string
	Batch  BatchKey
	Status OrderStatus
	// NotifyCustomers enqueues a status mail per member order with an email.
	NotifyCustomers bool
}

// CloseBatchCommand advances a club batch counter. Expected carries the counter
// value the operator saw; the close only succeeds while it still matches.
type CloseBatchCommand struct {
	ClubID   string
	Expected int
}

// ReopenBatchCommand rewinds the numeric counter to an earlier batch.
type ReopenBatchCommand struct {
	ClubID string
	Target int
}

// BatchServiceDeps bundles collaborators for the batch service.
type BatchServiceDeps struct {
	Orders      repositories.OrderRepository
	Clubs       repositories.ClubRepository
	Mail        repositories.MailRepository
	MailBuilder *MailBuilder
	Clock       func() time.Time
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type batchService struct {
	orders      repositories.OrderRepository
	clubs       repositories.ClubRepository
	mail        repositories.MailRepository
	mailBuilder *MailBuilder
	clock       func() time.Time
	events      OrderEventPublisher
	logger      func(context.Context, string, map[string]any)
}

// NewBatchService wires dependencies into a concrete BatchService.
func NewBatchService(deps BatchServiceDeps) (BatchService, error) {
	if deps.Orders == nil {
		return nil, errors.New("batch service: order repository is required")
	}
	if deps.Clubs == nil {
		return nil, errors.New("batch service: club repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	builder := deps.MailBuilder
	if builder == nil {
		builder = NewMailBuilder()
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &batchService{
		orders:      deps.Orders,
		clubs:       deps.Clubs,
		mail:        deps.Mail,
		mailBuilder: builder,
		clock: func() time.Time {
			return clock().UTC()
		},
		events: deps.Events,
		logger: logger,
	}, nil
}

// Classify groups orders by batch key. Pure and deterministic: member order
// follows input order, the group status is taken from the first member, and
// groups sort numeric-descending first, then error batches, then INDIVIDUAL
// and SPECIAL.
func (s *batchService) Classify(orders []Order) []BatchGroup {
	index := make(map[string]int)
	var groups []BatchGroup

	for _, order := range orders {
		key := order.Batch
		if key.IsZero() {
			key = domain.NumericBatch(1)
		}
		encoded := key.String()
		pos, ok := index[encoded]
		if !ok {
			pos = len(groups)
			index[encoded] = pos
			groups = append(groups, BatchGroup{
				Key:           key,
				Status:        order.Status,
				VisibleStatus: domain.VisibleStatus(order.Status),
			})
		}
		group := &groups[pos]
		group.Orders = append(group.Orders, order)
		group.AggregateTotal += order.Total
		for _, item := range order.Items {
			group.ItemCount += item.Quantity
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key.Less(groups[j].Key)
	})
	return groups
}

// ListBatches loads a club's orders and classifies them.
func (s *batchService) ListBatches(ctx context.Context, clubID string) ([]BatchGroup, error) {
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return nil, fmt.Errorf("%w: club id is required", ErrBatchInvalidInput)
	}

	page, err := s.orders.List(ctx, repositories.OrderListFilter{
		ClubID: clubID,
		Order:  domain.SortAsc,
	})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return s.Classify(page.Items), nil
}

// SetBatchStatus rewrites every member order's status in one transaction. The
// transition is checked against the batch's current status before any write.
func (s *batchService) SetBatchStatus(ctx context.Context, cmd SetBatchStatusCommand) ([]Order, error) {
	clubID := strings.TrimSpace(cmd.ClubID)
	if clubID == "" {
		return nil, fmt.Errorf("%w: club id is required", ErrBatchInvalidInput)
	}
	if err := cmd.Batch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBatchInvalidInput, err)
	}
	if !cmd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrBatchInvalidInput, cmd.Status)
	}

	members, err := s.orders.ListByBatch(ctx, clubID, cmd.Batch)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: batch %s has no orders", ErrBatchNotFound, cmd.Batch)
	}
	current := members[0].Status
	if current == cmd.Status {
		return members, nil
	}
	if !domain.CanTransition(current, cmd.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrBatchInvalidTransition, current, cmd.Status)
	}

	now := s.clock()
	method := ""
	if cmd.NotifyCustomers {
		method = "email"
	}
	updated, err := s.orders.UpdateStatusForBatch(ctx, clubID, cmd.Batch, cmd.Status, domain.NotificationEntry{
		Date:   now,
		Method: method,
	})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}

	s.appendHistory(ctx, clubID, domain.BatchHistoryEntry{
		Batch:  cmd.Batch,
		Status: cmd.Status,
		Action: batchActionStatusChanged,
		Date:   now,
	})

	if cmd.NotifyCustomers && s.mail != nil {
		for _, order := range updated {
			if strings.TrimSpace(order.Customer.Email) == "" {
				continue
			}
			msg := s.mailBuilder.StatusChange(order, cmd.Status)
			if _, err := s.mail.Enqueue(ctx, msg); err != nil {
				s.logger(ctx, "batch.status.mail.failed", map[string]any{
					"order": order.ID,
					"error": err.Error(),
				})
			}
		}
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventStatusChanged,
		ClubID:         clubID,
		PreviousStatus: string(current),
		CurrentStatus:  string(cmd.Status),
		OccurredAt:     now,
		Metadata:       map[string]any{"batch": cmd.Batch.String(), "orders": len(updated)},
	})
	return updated, nil
}

// CloseGlobalBatch advances the numeric counter by exactly one. The operation
// does not touch existing orders; it only changes where future orders land.
func (s *batchService) CloseGlobalBatch(ctx context.Context, cmd CloseBatchCommand) (int, error) {
	return s.closeCounter(ctx, cmd, false)
}

// CloseErrorBatch advances the ERR-<n> counter by exactly one.
func (s *batchService) CloseErrorBatch(ctx context.Context, cmd CloseBatchCommand) (int, error) {
	return s.closeCounter(ctx, cmd, true)
}

func (s *batchService) closeCounter(ctx context.Context, cmd CloseBatchCommand, errorBatch bool) (int, error) {
	clubID := strings.TrimSpace(cmd.ClubID)
	if clubID == "" {
		return 0, fmt.Errorf("%w: club id is required", ErrBatchInvalidInput)
	}
	if cmd.Expected < 1 {
		return 0, fmt.Errorf("%w: expected counter must be at least 1", ErrBatchInvalidInput)
	}

	now := s.clock()
	closed := domain.NumericBatch(cmd.Expected)
	if errorBatch {
		closed = domain.ErrorBatch(cmd.Expected)
	}
	entry := domain.BatchHistoryEntry{
		Batch:  closed,
		Action: batchActionClosed,
		Date:   now,
	}

	var next int
	var err error
	if errorBatch {
		next, err = s.clubs.CloseErrorBatch(ctx, clubID, cmd.Expected, entry)
	} else {
		next, err = s.clubs.CloseGlobalBatch(ctx, clubID, cmd.Expected, entry)
	}
	if err != nil {
		return 0, s.mapRepositoryError(err)
	}
	return next, nil
}

// ReopenGlobalBatch points the counter back at an earlier batch so new
// standard orders append there. Order statuses are left untouched.
func (s *batchService) ReopenGlobalBatch(ctx context.Context, cmd ReopenBatchCommand) error {
	clubID := strings.TrimSpace(cmd.ClubID)
	if clubID == "" {
		return fmt.Errorf("%w: club id is required", ErrBatchInvalidInput)
	}
	if cmd.Target < 1 {
		return fmt.Errorf("%w: batch number must be at least 1", ErrBatchInvalidInput)
	}

	err := s.clubs.ReopenGlobalBatch(ctx, clubID, cmd.Target, domain.BatchHistoryEntry{
		Batch:  domain.NumericBatch(cmd.Target),
		Action: batchActionReopened,
		Date:   s.clock(),
	})
	if err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *batchService) appendHistory(ctx context.Context, clubID string, entry domain.BatchHistoryEntry) {
	if err := s.clubs.AppendBatchHistory(ctx, clubID, entry); err != nil {
		s.logger(ctx, "batch.history.append.failed", map[string]any{
			"club":  clubID,
			"batch": entry.Batch.String(),
			"error": err.Error(),
		})
	}
}

func (s *batchService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "batch.event.publish.failed", map[string]any{
			"type":  event.Type,
			"error": err.Error(),
		})
	}
}

func (s *batchService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrBatchNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrBatchCounterMoved, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("batch: repository unavailable: %w", err)
		}
	}
	return err
}
