package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

var (
	// ErrIncidentInvalidInput signals the caller provided invalid data.
	ErrIncidentInvalidInput = errors.New("incident: invalid input")
	// ErrIncidentNotFound indicates the order, item, or incident is missing.
	ErrIncidentNotFound = errors.New("incident: not found")
	// ErrIncidentAlreadyOpen rejects a duplicate report for an item with an open incident.
	ErrIncidentAlreadyOpen = errors.New("incident: item already has an open incident")
)

// AddIncidentCommand records a quality failure on one order item.
type AddIncidentCommand struct {
	OrderID        string
	ItemID         string
	Reason         string
	Responsibility domain.Responsibility
}

// CreateReplacementCommand fabricates a reprint order resolving one incident.
type CreateReplacementCommand struct {
	OrderID    string
	IncidentID string
	// Quantity overrides the reprint quantity; zero reprints the failed line as-is.
	Quantity int
}

// IncidentServiceDeps bundles collaborators for the incident service.
type IncidentServiceDeps struct {
	Orders      repositories.OrderRepository
	Clubs       repositories.ClubRepository
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type incidentService struct {
	orders repositories.OrderRepository
	clubs  repositories.ClubRepository
	clock  func() time.Time
	newID  func() string
	events OrderEventPublisher
	logger func(context.Context, string, map[string]any)
}

// NewIncidentService wires dependencies into a concrete IncidentService.
func NewIncidentService(deps IncidentServiceDeps) (IncidentService, error) {
	if deps.Orders == nil {
		return nil, errors.New("incident service: order repository is required")
	}
	if deps.Clubs == nil {
		return nil, errors.New("incident service: club repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &incidentService{
		orders: deps.Orders,
		clubs:  deps.Clubs,
		clock:  func() time.Time { return clock().UTC() },
		newID:  idGen,
		events: deps.Events,
		logger: logger,
	}, nil
}

func (s *incidentService) AddIncident(ctx context.Context, cmd AddIncidentCommand) (Order, error) {
	if strings.TrimSpace(cmd.Reason) == "" {
		return Order{}, fmt.Errorf("%w: reason is required", ErrIncidentInvalidInput)
	}
	switch cmd.Responsibility {
	case domain.ResponsibilityInternal, domain.ResponsibilityClub, domain.ResponsibilitySupplier:
	default:
		return Order{}, fmt.Errorf("%w: unknown responsibility %q", ErrIncidentInvalidInput, cmd.Responsibility)
	}

	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}
	itemID := strings.TrimSpace(cmd.ItemID)
	if findItem(order, itemID) == nil {
		return Order{}, fmt.Errorf("%w: item %q on order %s", ErrIncidentNotFound, itemID, order.ID)
	}
	if s.HasOpenIncident(order, itemID) {
		return Order{}, fmt.Errorf("%w: item %q", ErrIncidentAlreadyOpen, itemID)
	}

	now := s.clock()
	order.Incidents = append(order.Incidents, domain.Incident{
		ID:             incidentIDPrefix + s.newID(),
		ItemID:         itemID,
		Reason:         strings.TrimSpace(cmd.Reason),
		Responsibility: cmd.Responsibility,
		ReportedAt:     now,
	})
	if err := s.orders.ReplaceIncidents(ctx, order.ID, order.Incidents, now); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	order.UpdatedAt = now
	return order, nil
}

func (s *incidentService) ResolveIncident(ctx context.Context, orderID, incidentID string) (Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}

	incidentID = strings.TrimSpace(incidentID)
	found := false
	for i := range order.Incidents {
		if order.Incidents[i].ID == incidentID {
			order.Incidents[i].Resolved = true
			found = true
			break
		}
	}
	if !found {
		return Order{}, fmt.Errorf("%w: incident %q on order %s", ErrIncidentNotFound, incidentID, order.ID)
	}

	now := s.clock()
	if err := s.orders.ReplaceIncidents(ctx, order.ID, order.Incidents, now); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	order.UpdatedAt = now
	return order, nil
}

// CreateReplacement fabricates a reprint order in the club's active error
// batch and links it to the incident both ways: the order carries
// sourceOrderId/resolvesIncidentId, the incident gets linkedReplacementOrderId.
func (s *incidentService) CreateReplacement(ctx context.Context, cmd CreateReplacementCommand) (Order, error) {
	source, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}

	incidentID := strings.TrimSpace(cmd.IncidentID)
	var incident *domain.Incident
	for i := range source.Incidents {
		if source.Incidents[i].ID == incidentID {
			incident = &source.Incidents[i]
			break
		}
	}
	if incident == nil {
		return Order{}, fmt.Errorf("%w: incident %q on order %s", ErrIncidentNotFound, incidentID, source.ID)
	}
	if incident.LinkedReplacementOrderID != "" {
		return Order{}, fmt.Errorf("%w: incident %q already has replacement %s", ErrIncidentAlreadyOpen, incidentID, incident.LinkedReplacementOrderID)
	}
	failed := findItem(source, incident.ItemID)
	if failed == nil {
		return Order{}, fmt.Errorf("%w: item %q on order %s", ErrIncidentNotFound, incident.ItemID, source.ID)
	}

	club, err := s.clubs.FindByID(ctx, source.ClubID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	quantity := cmd.Quantity
	if quantity <= 0 {
		quantity = failed.Quantity
	}

	item := *failed
	item.ID = itemIDPrefix + s.newID()
	item.Quantity = quantity
	// Cost attribution follows the responsible party: the club pays full
	// price, supplier warranty zeroes both sides, internal reprints cost us
	// the supplier cost only.
	switch incident.Responsibility {
	case domain.ResponsibilityClub:
	case domain.ResponsibilitySupplier:
		item.UnitPrice = 0
		item.UnitCost = 0
	default:
		item.UnitPrice = 0
	}

	now := s.clock()
	replacement := domain.Order{
		ID:       orderIDPrefix + s.newID(),
		ClubID:   club.ID,
		ClubName: club.Name,
		Items:    []domain.OrderItem{item},
		Total:    item.UnitPrice * int64(item.Quantity),
		Payment:  domain.PaymentIncident,
		Status:   domain.StatusCollecting,
		Type:     domain.OrderTypeReplacement,
		Batch:    domain.ErrorBatch(club.ActiveErrorBatch),
		Replaced: &domain.IncidentDetails{
			Reason:             incident.Reason,
			Responsibility:     incident.Responsibility,
			SourceOrderID:      source.ID,
			ResolvesIncidentID: incident.ID,
		},
		Customer:  source.Customer,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Insert(ctx, replacement); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	incident.LinkedReplacementOrderID = replacement.ID
	if err := s.orders.ReplaceIncidents(ctx, source.ID, source.Incidents, now); err != nil {
		// The reprint order exists; surface the broken back-link rather than hide it.
		return Order{}, fmt.Errorf("incident: replacement %s created but link-back failed: %w", replacement.ID, s.mapRepositoryError(err))
	}

	if s.events != nil {
		event := OrderEvent{
			Type:          orderEventCreated,
			OrderID:       replacement.ID,
			ClubID:        replacement.ClubID,
			CurrentStatus: string(replacement.Status),
			OccurredAt:    now,
			Metadata: map[string]any{
				"sourceOrder": source.ID,
				"incident":    incident.ID,
			},
		}
		if err := s.events.PublishOrderEvent(ctx, event); err != nil {
			s.logger(ctx, "incident.event.publish.failed", map[string]any{
				"order": replacement.ID,
				"error": err.Error(),
			})
		}
	}
	return replacement, nil
}

// HasOpenIncident reports whether any unresolved incident references the item.
func (s *incidentService) HasOpenIncident(order Order, itemID string) bool {
	for _, incident := range order.Incidents {
		if incident.ItemID == itemID && !incident.Resolved {
			return true
		}
	}
	return false
}

func (s *incidentService) loadOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrIncidentInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *incidentService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrIncidentNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("incident: repository unavailable: %w", err)
		}
	}
	return err
}

func findItem(order Order, itemID string) *domain.OrderItem {
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			return &order.Items[i]
		}
	}
	return nil
}
