package repositories

import (
	"context"
	"time"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Clubs() ClubRepository
	GiftCodes() GiftCodeRepository
	Seasons() SeasonRepository
	FinancialConfig() FinancialConfigRepository
	Mail() MailRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderListFilter narrows order listings. Zero values mean "no filter".
type OrderListFilter struct {
	ClubID      string
	Batch       *domain.BatchKey
	Statuses    []domain.OrderStatus
	Payment     domain.PaymentMethod
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Order       domain.SortOrder
	Pagination  domain.Pagination
}

// OrderRepository persists order documents.
//
// UpdateStatusForBatch rewrites the status of every order in one batch inside a
// single transaction; a failure on any member aborts the whole set.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Save(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	Delete(ctx context.Context, orderID string) error
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
	ListByBatch(ctx context.Context, clubID string, batch domain.BatchKey) ([]domain.Order, error)
	UpdateStatusForBatch(ctx context.Context, clubID string, batch domain.BatchKey, status domain.OrderStatus, entry domain.NotificationEntry) ([]domain.Order, error)
	ReplaceIncidents(ctx context.Context, orderID string, incidents []domain.Incident, updatedAt time.Time) error
}

// ClubRepository persists club tenants, their batch counters, and accounting state.
//
// CloseGlobalBatch and CloseErrorBatch are compare-and-set operations: the
// caller passes the counter value it read, the increment only applies when the
// stored value still matches, and a stale caller receives a conflict error.
type ClubRepository interface {
	Insert(ctx context.Context, club domain.Club) error
	Save(ctx context.Context, club domain.Club) (domain.Club, error)
	FindByID(ctx context.Context, clubID string) (domain.Club, error)
	FindByUsername(ctx context.Context, username string) (domain.Club, error)
	List(ctx context.Context) ([]domain.Club, error)
	CloseGlobalBatch(ctx context.Context, clubID string, expected int, entry domain.BatchHistoryEntry) (int, error)
	CloseErrorBatch(ctx context.Context, clubID string, expected int, entry domain.BatchHistoryEntry) (int, error)
	ReopenGlobalBatch(ctx context.Context, clubID string, target int, entry domain.BatchHistoryEntry) error
	SetAccountingEntry(ctx context.Context, clubID string, batch domain.BatchKey, entry domain.AccountingEntry) error
	AppendBatchHistory(ctx context.Context, clubID string, entry domain.BatchHistoryEntry) error
	SetNextBatchDate(ctx context.Context, clubID string, date *time.Time) error
}

// GiftCodeRepository persists discount codes and their redemption state.
//
// MarkRedeemed is transactional: a code that is already redeemed yields a
// conflict error so double spends surface to the caller.
type GiftCodeRepository interface {
	Insert(ctx context.Context, code domain.GiftCode) error
	FindByCode(ctx context.Context, code string) (domain.GiftCode, error)
	List(ctx context.Context) ([]domain.GiftCode, error)
	MarkRedeemed(ctx context.Context, codeID string, at time.Time) error
}

// SeasonRepository persists reporting season windows.
type SeasonRepository interface {
	Save(ctx context.Context, season domain.Season) (domain.Season, error)
	FindByID(ctx context.Context, seasonID string) (domain.Season, error)
	List(ctx context.Context) ([]domain.Season, error)
}

// FinancialConfigRepository stores the single global fee/commission document.
type FinancialConfigRepository interface {
	Get(ctx context.Context) (domain.FinancialConfig, error)
	Save(ctx context.Context, cfg domain.FinancialConfig) error
}

// MailRepository enqueues outbound mail documents picked up by the delivery worker.
type MailRepository interface {
	Enqueue(ctx context.Context, msg domain.MailMessage) (string, error)
}

// HealthRepository evaluates dependency probes for readiness checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.HealthReport, error)
}
