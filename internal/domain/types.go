package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// PaymentMethod enumerates how an order was (or will be) paid.
type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentCash     PaymentMethod = "cash"
	PaymentBizum    PaymentMethod = "bizum"
	PaymentTransfer PaymentMethod = "transfer"
	// PaymentGift marks zero-cost orders created from a gift classification.
	PaymentGift PaymentMethod = "gift"
	// PaymentIncident marks replacement/reprint orders; excluded from sales figures.
	PaymentIncident PaymentMethod = "incident"
)

// OrderType distinguishes how an order entered the system.
type OrderType string

const (
	// OrderTypeWeb is the default for storefront checkout orders.
	OrderTypeWeb OrderType = "web"
	// OrderTypeManual marks orders entered by an operator in the back office.
	OrderTypeManual OrderType = "manual"
	// OrderTypeSpecial marks out-of-band orders grouped under the SPECIAL batch.
	OrderTypeSpecial OrderType = "special"
	// OrderTypeReplacement marks reprints fabricated to resolve an incident.
	OrderTypeReplacement OrderType = "replacement"
)

// Classification tags manual orders as a normal sale, a gift, or an incident reprint.
type Classification string

const (
	ClassificationStandard Classification = "standard"
	ClassificationGift     Classification = "gift"
	ClassificationIncident Classification = "incident"
)

// Responsibility identifies the party bearing the cost of a failed item.
type Responsibility string

const (
	// ResponsibilityInternal means the business absorbs the reprint cost.
	ResponsibilityInternal Responsibility = "internal"
	// ResponsibilityClub means the club is billed the full item price.
	ResponsibilityClub Responsibility = "club"
	// ResponsibilitySupplier means manufacturer warranty absorbs the cost.
	ResponsibilitySupplier Responsibility = "supplier"
)

// ExtraPlayer holds the nested sub-record for multi-person products.
type ExtraPlayer struct {
	Name     string
	Number   string
	Size     string
	ImageRef string
}

// OrderItem is one customised line in an order. Monetary fields are euro cents.
type OrderItem struct {
	ID           string
	ProductRef   string
	ProductName  string
	UnitPrice    int64
	UnitCost     int64
	Quantity     int
	PlayerName   string
	PlayerNumber string
	Size         string
	Color        string
	Category     string
	ImageRef     string
	ExtraPlayers []ExtraPlayer
	// ModifiedFromDefault flags a customization toggled away from the product
	// default, which attracts the configured modification fee.
	ModifiedFromDefault bool
}

// Customer is the order-embedded contact snapshot.
type Customer struct {
	Name             string
	Email            string
	Phone            string
	MarketingConsent bool
	EmailUpdates     bool
}

// ManualOrderDetails is present on operator-entered orders only.
type ManualOrderDetails struct {
	Classification Classification
	Responsibility Responsibility
}

// IncidentDetails is present on replacement orders only.
type IncidentDetails struct {
	Reason         string
	Responsibility Responsibility
	// SourceOrderID and ResolvesIncidentID trace the replacement back to the
	// failed order and the incident record it resolves.
	SourceOrderID      string
	ResolvesIncidentID string
}

// Incident records a per-item quality failure attached to an order after placement.
type Incident struct {
	ID             string
	ItemID         string
	Reason         string
	Responsibility Responsibility
	Resolved       bool
	// LinkedReplacementOrderID points at the reprint order created for this
	// incident, when one exists.
	LinkedReplacementOrderID string
	ReportedAt               time.Time
}

// NotificationEntry is one element of an order's append-only notification log.
type NotificationEntry struct {
	Date       time.Time
	StatusFrom OrderStatus
	StatusTo   OrderStatus
	Method     string
}

// Order is the canonical order document.
type Order struct {
	ID        string
	ClubID    string
	ClubName  string
	Items     []OrderItem
	Total     int64
	Subtotal  *int64
	Payment   PaymentMethod
	Status    OrderStatus
	Type      OrderType
	Batch     BatchKey
	Manual    *ManualOrderDetails
	Replaced  *IncidentDetails
	Incidents []Incident
	Log       []NotificationEntry
	Customer  Customer
	// DiscountCode / DiscountCodeID record the gift code redeemed at checkout.
	DiscountCode   string
	DiscountCodeID string
	// ManualSeasonID overrides date-range season inference for reporting.
	ManualSeasonID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AccountingEntry tracks the manually-toggled settlement flags for one batch key.
type AccountingEntry struct {
	SupplierPaid       bool
	SupplierPaidDate   *time.Time
	ClubPaid           bool
	ClubPaidDate       *time.Time
	CommercialPaid     bool
	CommercialPaidDate *time.Time
	CashCollected      bool
	CashCollectedDate  *time.Time
}

// BatchHistoryEntry records a batch-level status change or closure for a club.
type BatchHistoryEntry struct {
	Batch  BatchKey
	Status OrderStatus
	Action string
	Date   time.Time
}

// Club is the tenant document. PassHash replaces the legacy plaintext credential.
type Club struct {
	ID       string
	Name     string
	Code     string
	Username string
	PassHash string
	Color    string
	LogoPath string
	// ActiveGlobalBatch is the numeric batch new standard orders land in.
	ActiveGlobalBatch int
	// ActiveErrorBatch numbers the ERR-<n> sequence independently.
	ActiveErrorBatch int
	// CommissionPct, when set, overrides the global club commission rate.
	CommissionPct      *float64
	CashPaymentEnabled bool
	Blocked            bool
	AccountingLog      map[string]AccountingEntry
	BatchHistory       []BatchHistoryEntry
	NextBatchDate      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FinancialConfig is the single global fee/commission document. Percentages are
// fractions (0.12 = 12%), fixed fees are euro cents.
type FinancialConfig struct {
	ClubCommissionPct       float64
	CommercialCommissionPct float64
	GatewayPercentFee       float64
	GatewayFixedFee         int64
	ModificationFee         int64
	UpdatedAt               time.Time
}

// DefaultClubCommissionPct backstops the commission fallback chain so the rate
// is always a defined number even before an operator saves a financial config.
const DefaultClubCommissionPct = 0.10

// ClubCommissionRate resolves the effective commission fraction for a club.
func ClubCommissionRate(club Club, cfg FinancialConfig) float64 {
	if club.CommissionPct != nil {
		return *club.CommissionPct
	}
	if cfg.ClubCommissionPct > 0 {
		return cfg.ClubCommissionPct
	}
	return DefaultClubCommissionPct
}

// GiftCodeType enumerates supported discount mechanics.
type GiftCodeType string

const (
	GiftCodePercent GiftCodeType = "percent"
	GiftCodeFixed   GiftCodeType = "fixed"
	GiftCodeProduct GiftCodeType = "product"
)

// GiftCodeStatus tracks redemption state.
type GiftCodeStatus string

const (
	GiftCodeActive   GiftCodeStatus = "active"
	GiftCodeRedeemed GiftCodeStatus = "redeemed"
)

// ScopeAll is the wildcard value for GiftCode.ApplyTo and GiftCode.AllowedClub.
const ScopeAll = "all"

// GiftCode is a redeemable discount token.
type GiftCode struct {
	ID    string
	Code  string
	Type  GiftCodeType
	Value int64
	// ApplyTo is "all" for cart-wide codes or a product id for scoped ones.
	ApplyTo string
	// AllowedClub is "all" or a club id restriction.
	AllowedClub string
	Status      GiftCodeStatus
	ProductID   string
	RedeemedAt  *time.Time
	CreatedAt   time.Time
}

// Season is a reporting time window.
type Season struct {
	ID             string
	Name           string
	StartDate      time.Time
	EndDate        time.Time
	HiddenForClubs bool
}

// Contains reports whether t falls inside the season window (inclusive).
func (s Season) Contains(t time.Time) bool {
	return !t.Before(s.StartDate) && !t.After(s.EndDate)
}

// MailMessage is the payload enqueued on the mail collection; an external
// worker performs the actual delivery.
type MailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// HealthCheck is the outcome of probing one dependency.
type HealthCheck struct {
	Status    string
	Detail    string
	Latency   time.Duration
	CheckedAt time.Time
}

// HealthReport aggregates dependency probes for the health endpoint.
type HealthReport struct {
	Status      string
	Checks      map[string]HealthCheck
	GeneratedAt time.Time
}
