package services

import (
	"context"
	"time"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination        = domain.Pagination
	SortOrder         = domain.SortOrder
	Order             = domain.Order
	OrderItem         = domain.OrderItem
	OrderStatus       = domain.OrderStatus
	PaymentMethod     = domain.PaymentMethod
	BatchKey          = domain.BatchKey
	Club              = domain.Club
	Season            = domain.Season
	GiftCode          = domain.GiftCode
	Incident          = domain.Incident
	Customer          = domain.Customer
	FinancialConfig   = domain.FinancialConfig
	AccountingEntry   = domain.AccountingEntry
	BatchHistoryEntry = domain.BatchHistoryEntry
	MailMessage       = domain.MailMessage
	HealthReport      = domain.HealthReport
)

// OrderService owns the order lifecycle: checkout intake, manual back-office
// entry with gift/incident price forcing, cash receipt confirmation, edits,
// hard deletion, and the right-to-forget PII blanking.
type OrderService interface {
	CreateFromCheckout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error)
	CreateManual(ctx context.Context, cmd ManualOrderCommand) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, query OrderListQuery) (domain.CursorPage[Order], error)
	UpdateOrder(ctx context.Context, cmd UpdateOrderCommand) (Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
	ConfirmCashReceipt(ctx context.Context, orderID string) (Order, error)
	ForgetCustomer(ctx context.Context, orderID string) (Order, error)
}

// BatchService groups a club's orders into batches and drives batch-level
// lifecycle: the atomic status rewrite and the counter close/reopen operations.
type BatchService interface {
	Classify(orders []Order) []BatchGroup
	ListBatches(ctx context.Context, clubID string) ([]BatchGroup, error)
	SetBatchStatus(ctx context.Context, cmd SetBatchStatusCommand) ([]Order, error)
	CloseGlobalBatch(ctx context.Context, cmd CloseBatchCommand) (int, error)
	CloseErrorBatch(ctx context.Context, cmd CloseBatchCommand) (int, error)
	ReopenGlobalBatch(ctx context.Context, cmd ReopenBatchCommand) error
}

// AccountingService computes financial breakdowns and season reports, and owns
// the global fee configuration plus season windows.
type AccountingService interface {
	Reconcile(orders []Order, clubRates map[string]float64, cfg FinancialConfig) Reconciliation
	SeasonReport(ctx context.Context, query SeasonReportQuery) (SeasonReport, error)
	GetFinancialConfig(ctx context.Context) (FinancialConfig, error)
	SaveFinancialConfig(ctx context.Context, cfg FinancialConfig) (FinancialConfig, error)
	ListSeasons(ctx context.Context, includeHidden bool) ([]Season, error)
	SaveSeason(ctx context.Context, season Season) (Season, error)
}

// GiftCodeService validates discount codes, computes their monetary effect,
// and flips redemption state at checkout.
type GiftCodeService interface {
	Validate(ctx context.Context, cmd ValidateGiftCodeCommand) (GiftCodeResolution, error)
	Redeem(ctx context.Context, codeID string) error
	Create(ctx context.Context, cmd CreateGiftCodeCommand) (GiftCode, error)
	List(ctx context.Context) ([]GiftCode, error)
}

// IncidentService records per-item quality failures and creates the linked
// replacement orders that resolve them.
type IncidentService interface {
	AddIncident(ctx context.Context, cmd AddIncidentCommand) (Order, error)
	ResolveIncident(ctx context.Context, orderID, incidentID string) (Order, error)
	CreateReplacement(ctx context.Context, cmd CreateReplacementCommand) (Order, error)
	HasOpenIncident(order Order, itemID string) bool
}

// ClubService owns tenant lifecycle and the club self-service surface:
// bcrypt login with session issuance, accounting-log toggles, and the
// advertised next batch closure date.
type ClubService interface {
	Login(ctx context.Context, cmd ClubLoginCommand) (ClubLoginResult, error)
	GetClub(ctx context.Context, clubID string) (Club, error)
	ListClubs(ctx context.Context) ([]Club, error)
	CreateClub(ctx context.Context, cmd CreateClubCommand) (Club, error)
	UpdateClub(ctx context.Context, cmd UpdateClubCommand) (Club, error)
	SetAccountingFlag(ctx context.Context, cmd SetAccountingFlagCommand) (AccountingEntry, error)
	SetNextBatchDate(ctx context.Context, clubID string, date *time.Time) error
}

// SystemService surfaces dependency health for readiness probes.
type SystemService interface {
	Health(ctx context.Context) (HealthReport, error)
}
