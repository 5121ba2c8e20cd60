package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status.changed"
	orderEventDeleted       = "order.deleted"

	orderIDPrefix    = "ord_"
	itemIDPrefix     = "itm_"
	incidentIDPrefix = "inc_"

	// GenericClubID groups storefront orders placed outside any club context.
	GenericClubID = "generic"

	forgottenPlaceholder = "[eliminado]"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrOrderConflict indicates concurrent writes collided.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrCashPaymentDisabled rejects cash checkout for clubs without the option.
	ErrCashPaymentDisabled = errors.New("order: cash payment not enabled for club")
)

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type           string
	OrderID        string
	ClubID         string
	PreviousStatus string
	CurrentStatus  string
	OccurredAt     time.Time
	Metadata       map[string]any
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// PaymentIntentRequest asks the payment gateway to prepare a card charge.
type PaymentIntentRequest struct {
	OrderID     string
	AmountCents int64
	Description string
	Email       string
}

// PaymentIntent carries the gateway handle the storefront needs to confirm the charge.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentProvider prepares card charges with the external gateway.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, req PaymentIntentRequest) (PaymentIntent, error)
}

// CheckoutItem is one storefront cart line submitted at checkout.
type CheckoutItem struct {
	ProductRef          string
	ProductName         string
	UnitPrice           int64
	UnitCost            int64
	Quantity            int
	PlayerName          string
	PlayerNumber        string
	Size                string
	Color               string
	Category            string
	ImageRef            string
	ExtraPlayers        []domain.ExtraPlayer
	ModifiedFromDefault bool
}

// CheckoutCommand creates a storefront order.
type CheckoutCommand struct {
	ClubID         string
	Items          []CheckoutItem
	Customer       Customer
	Payment        PaymentMethod
	DiscountCode   string
	ManualSeasonID string
}

// CheckoutResult returns the stored order plus the gateway handle for card payments.
type CheckoutResult struct {
	Order               Order
	PaymentClientSecret string
}

// ManualOrderCommand creates a back-office order. Classification gift/incident
// forces the payment method and the per-item price/cost fields.
type ManualOrderCommand struct {
	ClubID         string
	Items          []CheckoutItem
	Customer       Customer
	Payment        PaymentMethod
	Classification domain.Classification
	Responsibility domain.Responsibility
	Special        bool
	ManualSeasonID string
}

// OrderListQuery filters order listings.
type OrderListQuery struct {
	ClubID      string
	Batch       *BatchKey
	Statuses    []OrderStatus
	Payment     PaymentMethod
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Order       SortOrder
	Pagination  Pagination
}

// UpdateOrderCommand edits mutable order fields. Nil pointers leave the field untouched.
type UpdateOrderCommand struct {
	OrderID        string
	Customer       *Customer
	Items          []CheckoutItem
	Payment        *PaymentMethod
	Batch          *BatchKey
	ManualSeasonID *string
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Clubs       repositories.ClubRepository
	Mail        repositories.MailRepository
	GiftCodes   GiftCodeService
	Payments    PaymentProvider
	MailBuilder *MailBuilder
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)

	// FinancialConfig supplies the per-unit surcharge applied to customised
	// items; ModificationFee is the fallback before a config is saved.
	FinancialConfig repositories.FinancialConfigRepository
	ModificationFee int64
}

type orderService struct {
	orders      repositories.OrderRepository
	clubs       repositories.ClubRepository
	mail        repositories.MailRepository
	giftCodes   GiftCodeService
	payments    PaymentProvider
	mailBuilder *MailBuilder
	clock       func() time.Time
	newID       func() string
	events      OrderEventPublisher
	logger      func(context.Context, string, map[string]any)
	finConfig   repositories.FinancialConfigRepository
	modFee      int64
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Clubs == nil {
		return nil, errors.New("order service: club repository is required")
	}
	if deps.Mail == nil {
		return nil, errors.New("order service: mail repository is required")
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
	builder := deps.MailBuilder
	if builder == nil {
		builder = NewMailBuilder()
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:      deps.Orders,
		clubs:       deps.Clubs,
		mail:        deps.Mail,
		giftCodes:   deps.GiftCodes,
		payments:    deps.Payments,
		mailBuilder: builder,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:     idGen,
		events:    deps.Events,
		logger:    logger,
		finConfig: deps.FinancialConfig,
		modFee:    deps.ModificationFee,
	}, nil
}

func (s *orderService) CreateFromCheckout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	if len(cmd.Items) == 0 {
		return CheckoutResult{}, fmt.Errorf("%w: at least one item is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.Customer.Name) == "" {
		return CheckoutResult{}, fmt.Errorf("%w: customer name is required", ErrOrderInvalidInput)
	}
	email := strings.TrimSpace(cmd.Customer.Email)
	if email == "" {
		return CheckoutResult{}, fmt.Errorf("%w: customer email is required", ErrOrderInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return CheckoutResult{}, fmt.Errorf("%w: customer email %q is not valid", ErrOrderInvalidInput, email)
	}
	switch cmd.Payment {
	case domain.PaymentCard, domain.PaymentCash, domain.PaymentBizum, domain.PaymentTransfer:
	default:
		return CheckoutResult{}, fmt.Errorf("%w: unsupported payment method %q", ErrOrderInvalidInput, cmd.Payment)
	}

	club, batch, err := s.resolveClubAndBatch(ctx, cmd.ClubID, false)
	if err != nil {
		return CheckoutResult{}, err
	}
	if cmd.Payment == domain.PaymentCash && club.ID != GenericClubID && !club.CashPaymentEnabled {
		return CheckoutResult{}, ErrCashPaymentDisabled
	}

	now := s.clock()
	items, err := s.buildItems(ctx, cmd.Items)
	if err != nil {
		return CheckoutResult{}, err
	}

	subtotal := itemsTotal(items)
	total := subtotal
	order := domain.Order{
		ID:             orderIDPrefix + s.newID(),
		ClubID:         club.ID,
		ClubName:       club.Name,
		Items:          items,
		Total:          total,
		Payment:        cmd.Payment,
		Status:         domain.InitialStatus(cmd.Payment),
		Type:           domain.OrderTypeWeb,
		Batch:          batch,
		Customer:       cmd.Customer,
		ManualSeasonID: strings.TrimSpace(cmd.ManualSeasonID),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if code := strings.TrimSpace(cmd.DiscountCode); code != "" {
		if s.giftCodes == nil {
			return CheckoutResult{}, fmt.Errorf("%w: discount codes are not enabled", ErrOrderInvalidInput)
		}
		resolution, err := s.giftCodes.Validate(ctx, ValidateGiftCodeCommand{
			Code:    code,
			ClubID:  club.ID,
			Context: GiftCodeContextCart,
			Total:   subtotal,
		})
		if err != nil {
			return CheckoutResult{}, err
		}
		order.Subtotal = &subtotal
		order.Total = resolution.FinalTotal
		order.DiscountCode = resolution.Code.Code
		order.DiscountCodeID = resolution.Code.ID
		if err := s.giftCodes.Redeem(ctx, resolution.Code.ID); err != nil {
			return CheckoutResult{}, err
		}
	}

	var clientSecret string
	if cmd.Payment == domain.PaymentCard && s.payments != nil && order.Total > 0 {
		intent, err := s.payments.CreateIntent(ctx, PaymentIntentRequest{
			OrderID:     order.ID,
			AmountCents: order.Total,
			Description: fmt.Sprintf("Pedido %s (%s)", order.ID, club.Name),
			Email:       email,
		})
		if err != nil {
			return CheckoutResult{}, fmt.Errorf("order: payment intent: %w", err)
		}
		clientSecret = intent.ClientSecret
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return CheckoutResult{}, s.mapRepositoryError(err)
	}

	// Cash orders get their invoice when the receipt is confirmed.
	if order.Payment != domain.PaymentCash {
		s.enqueueInvoice(ctx, order)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		ClubID:        order.ClubID,
		CurrentStatus: string(order.Status),
		OccurredAt:    now,
	})
	return CheckoutResult{Order: order, PaymentClientSecret: clientSecret}, nil
}

func (s *orderService) CreateManual(ctx context.Context, cmd ManualOrderCommand) (Order, error) {
	if strings.TrimSpace(cmd.ClubID) == "" {
		return Order{}, fmt.Errorf("%w: club id is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.Customer.Name) == "" {
		return Order{}, fmt.Errorf("%w: customer name is required", ErrOrderInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return Order{}, fmt.Errorf("%w: at least one item is required", ErrOrderInvalidInput)
	}

	classification := cmd.Classification
	if classification == "" {
		classification = domain.ClassificationStandard
	}
	switch classification {
	case domain.ClassificationStandard, domain.ClassificationGift, domain.ClassificationIncident:
	default:
		return Order{}, fmt.Errorf("%w: unknown classification %q", ErrOrderInvalidInput, classification)
	}
	if classification == domain.ClassificationIncident {
		switch cmd.Responsibility {
		case domain.ResponsibilityInternal, domain.ResponsibilityClub, domain.ResponsibilitySupplier:
		default:
			return Order{}, fmt.Errorf("%w: incident classification requires a responsibility", ErrOrderInvalidInput)
		}
	}

	club, batch, err := s.resolveClubAndBatch(ctx, cmd.ClubID, classification == domain.ClassificationIncident)
	if err != nil {
		return Order{}, err
	}
	if cmd.Special {
		batch = domain.SpecialBatch()
	}

	items, err := s.buildItems(ctx, cmd.Items)
	if err != nil {
		return Order{}, err
	}

	payment := cmd.Payment
	orderType := domain.OrderTypeManual
	if cmd.Special {
		orderType = domain.OrderTypeSpecial
	}

	// Gift and incident classifications override the entered payment method
	// and force the per-item price/cost fields.
	switch classification {
	case domain.ClassificationGift:
		payment = domain.PaymentGift
		for i := range items {
			items[i].UnitPrice = 0
		}
	case domain.ClassificationIncident:
		payment = domain.PaymentIncident
		orderType = domain.OrderTypeReplacement
		for i := range items {
			if cmd.Responsibility != domain.ResponsibilityClub {
				items[i].UnitPrice = 0
			}
			if cmd.Responsibility == domain.ResponsibilitySupplier {
				items[i].UnitCost = 0
			}
		}
	default:
		if payment == "" {
			payment = domain.PaymentCash
		}
	}

	now := s.clock()
	order := domain.Order{
		ID:       orderIDPrefix + s.newID(),
		ClubID:   club.ID,
		ClubName: club.Name,
		Items:    items,
		Total:    itemsTotal(items),
		Payment:  payment,
		Status:   domain.StatusCollecting,
		Type:     orderType,
		Batch:    batch,
		Manual: &domain.ManualOrderDetails{
			Classification: classification,
			Responsibility: cmd.Responsibility,
		},
		Customer:       cmd.Customer,
		ManualSeasonID: strings.TrimSpace(cmd.ManualSeasonID),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		ClubID:        order.ClubID,
		CurrentStatus: string(order.Status),
		OccurredAt:    now,
		Metadata:      map[string]any{"classification": string(classification)},
	})
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, query OrderListQuery) (domain.CursorPage[Order], error) {
	page, err := s.orders.List(ctx, repositories.OrderListFilter{
		ClubID:      strings.TrimSpace(query.ClubID),
		Batch:       query.Batch,
		Statuses:    query.Statuses,
		Payment:     query.Payment,
		CreatedFrom: query.CreatedFrom,
		CreatedTo:   query.CreatedTo,
		Order:       query.Order,
		Pagination:  query.Pagination,
	})
	if err != nil {
		return domain.CursorPage[Order]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, cmd UpdateOrderCommand) (Order, error) {
	order, err := s.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}

	if cmd.Customer != nil {
		if strings.TrimSpace(cmd.Customer.Name) == "" {
			return Order{}, fmt.Errorf("%w: customer name is required", ErrOrderInvalidInput)
		}
		order.Customer = *cmd.Customer
	}
	if cmd.Items != nil {
		items, err := s.buildItems(ctx, cmd.Items)
		if err != nil {
			return Order{}, err
		}
		order.Items = items
		order.Total = itemsTotal(items)
		order.Subtotal = nil
	}
	if cmd.Payment != nil {
		order.Payment = *cmd.Payment
	}
	if cmd.Batch != nil {
		if err := cmd.Batch.Validate(); err != nil {
			return Order{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
		}
		order.Batch = *cmd.Batch
	}
	if cmd.ManualSeasonID != nil {
		order.ManualSeasonID = strings.TrimSpace(*cmd.ManualSeasonID)
	}
	order.UpdatedAt = s.clock()

	saved, err := s.orders.Save(ctx, order)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return saved, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID string) error {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, order.ID); err != nil {
		return s.mapRepositoryError(err)
	}
	s.publishEvent(ctx, OrderEvent{
		Type:       orderEventDeleted,
		OrderID:    order.ID,
		ClubID:     order.ClubID,
		OccurredAt: s.clock(),
	})
	return nil
}

// ConfirmCashReceipt moves a cash order out of pending validation once the
// club hands the money over, appending the notification log entry and
// enqueueing the invoice mail.
func (s *orderService) ConfirmCashReceipt(ctx context.Context, orderID string) (Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.Status != domain.StatusPendingValidation {
		return Order{}, fmt.Errorf("%w: order %s is %s", ErrOrderInvalidState, order.ID, order.Status)
	}

	now := s.clock()
	previous := order.Status
	order.Status = domain.StatusCollecting
	order.UpdatedAt = now
	// Only log the mail when there is an address to send the invoice to.
	if strings.TrimSpace(order.Customer.Email) != "" {
		order.Log = append(order.Log, domain.NotificationEntry{
			Date:       now,
			StatusFrom: previous,
			StatusTo:   order.Status,
			Method:     "email",
		})
	}

	saved, err := s.orders.Save(ctx, order)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if strings.TrimSpace(saved.Customer.Email) != "" {
		s.enqueueInvoice(ctx, saved)
	}
	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventStatusChanged,
		OrderID:        saved.ID,
		ClubID:         saved.ClubID,
		PreviousStatus: string(previous),
		CurrentStatus:  string(saved.Status),
		OccurredAt:     now,
	})
	return saved, nil
}

// ForgetCustomer blanks the order's PII while keeping financial figures intact.
func (s *orderService) ForgetCustomer(ctx context.Context, orderID string) (Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}

	order.Customer = domain.Customer{Name: forgottenPlaceholder}
	for i := range order.Items {
		order.Items[i].PlayerName = forgottenPlaceholder
		order.Items[i].ImageRef = ""
		for j := range order.Items[i].ExtraPlayers {
			order.Items[i].ExtraPlayers[j].Name = forgottenPlaceholder
			order.Items[i].ExtraPlayers[j].ImageRef = ""
		}
	}
	order.UpdatedAt = s.clock()

	saved, err := s.orders.Save(ctx, order)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return saved, nil
}

// resolveClubAndBatch loads the club and picks the batch new orders land in.
// The generic storefront goes to the INDIVIDUAL batch; replacements go to the
// club's active error batch.
func (s *orderService) resolveClubAndBatch(ctx context.Context, clubID string, replacement bool) (domain.Club, domain.BatchKey, error) {
	clubID = strings.TrimSpace(clubID)
	if clubID == "" || clubID == GenericClubID {
		return domain.Club{ID: GenericClubID, Name: "Tienda"}, domain.IndividualBatch(), nil
	}

	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Club{}, domain.BatchKey{}, fmt.Errorf("%w: club %q not found", ErrOrderInvalidInput, clubID)
		}
		return domain.Club{}, domain.BatchKey{}, s.mapRepositoryError(err)
	}

	if replacement {
		return club, domain.ErrorBatch(club.ActiveErrorBatch), nil
	}
	return club, domain.NumericBatch(club.ActiveGlobalBatch), nil
}

// effectiveModificationFee resolves the customisation surcharge from the saved
// financial config, falling back to the configured default.
func (s *orderService) effectiveModificationFee(ctx context.Context) int64 {
	if s.finConfig == nil {
		return s.modFee
	}
	cfg, err := s.finConfig.Get(ctx)
	if err != nil || cfg.ModificationFee <= 0 {
		return s.modFee
	}
	return cfg.ModificationFee
}

func (s *orderService) buildItems(ctx context.Context, lines []CheckoutItem) ([]domain.OrderItem, error) {
	modFee := s.effectiveModificationFee(ctx)
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line.ProductName) == "" {
			return nil, fmt.Errorf("%w: item product name is required", ErrOrderInvalidInput)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", ErrOrderInvalidInput)
		}
		if line.UnitPrice < 0 || line.UnitCost < 0 {
			return nil, fmt.Errorf("%w: item price and cost cannot be negative", ErrOrderInvalidInput)
		}
		unitPrice := line.UnitPrice
		if line.ModifiedFromDefault {
			unitPrice += modFee
		}
		items = append(items, domain.OrderItem{
			ID:                  itemIDPrefix + s.newID(),
			ProductRef:          line.ProductRef,
			ProductName:         line.ProductName,
			UnitPrice:           unitPrice,
			UnitCost:            line.UnitCost,
			Quantity:            line.Quantity,
			PlayerName:          line.PlayerName,
			PlayerNumber:        line.PlayerNumber,
			Size:                line.Size,
			Color:               line.Color,
			Category:            line.Category,
			ImageRef:            line.ImageRef,
			ExtraPlayers:        line.ExtraPlayers,
			ModifiedFromDefault: line.ModifiedFromDefault,
		})
	}
	return items, nil
}

func (s *orderService) enqueueInvoice(ctx context.Context, order domain.Order) {
	msg := s.mailBuilder.Invoice(order)
	if _, err := s.mail.Enqueue(ctx, msg); err != nil {
		s.logger(ctx, "order.invoice.enqueue.failed", map[string]any{
			"order": order.ID,
			"error": err.Error(),
		})
	}
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}
	return err
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if event.Metadata != nil {
		event.Metadata = maps.Clone(event.Metadata)
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

func itemsTotal(items []domain.OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}
