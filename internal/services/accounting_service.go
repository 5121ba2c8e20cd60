package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/textutil"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

const (
	topProductsByQuantity = 10
	topProductsByProfit   = 20
	topProductsByIncident = 10
)

var (
	// ErrAccountingInvalidInput signals the caller provided invalid data.
	ErrAccountingInvalidInput = errors.New("accounting: invalid input")
	// ErrAccountingNotFound indicates a referenced season or config is missing.
	ErrAccountingNotFound = errors.New("accounting: not found")
)

// MonthBucket aggregates the non-incident orders of one calendar month.
type MonthBucket struct {
	Year       int
	Month      time.Month
	GrossSales int64
	OrderCount int
}

// PaymentBucket aggregates non-incident orders by payment method.
type PaymentBucket struct {
	Method     PaymentMethod
	GrossSales int64
	OrderCount int
}

// CategoryBucket aggregates item lines by normalised category.
type CategoryBucket struct {
	Category string
	Quantity int
	Revenue  int64
	Cost     int64
	Profit   int64
}

// ProductStats aggregates item lines by product name.
type ProductStats struct {
	Name     string
	Quantity int
	Revenue  int64
	Cost     int64
	Profit   int64
	// Margin is profit over revenue; zero when the product earned nothing.
	Margin float64
}

// ProductIncidentStats counts failed items per product.
type ProductIncidentStats struct {
	Name  string
	Count int
}

// IncidentCosts attributes reprint costs by responsible party. Supplier
// warranty absorbs its own cost so that bucket stays zero by definition.
type IncidentCosts struct {
	Internal int64
	Club     int64
	Supplier int64
}

// Reconciliation is the deterministic financial breakdown of one order set.
// All monetary figures are euro cents.
type Reconciliation struct {
	GrossSales           int64
	SupplierCost         int64
	GatewayFees          int64
	ClubCommission       int64
	CommercialCommission int64
	NetIncome            int64

	NonIncidentCount int
	IncidentCount    int
	AvgTicket        int64
	ErrorRate        float64

	IncidentCosts IncidentCosts

	ByMonth    []MonthBucket
	ByPayment  []PaymentBucket
	ByCategory []CategoryBucket
	Products   []ProductStats

	TopByQuantity  []ProductStats
	TopByProfit    []ProductStats
	TopByIncidents []ProductIncidentStats
}

// SeasonReportQuery selects the order set for a season report.
type SeasonReportQuery struct {
	SeasonID string
	// ClubID narrows the report to one club; empty covers all clubs.
	ClubID string
}

// SeasonReport wraps a reconciliation with its season window.
type SeasonReport struct {
	Season         Season
	Reconciliation Reconciliation
}

// AccountingServiceDeps bundles collaborators for the accounting service.
type AccountingServiceDeps struct {
	Orders          repositories.OrderRepository
	Clubs           repositories.ClubRepository
	Seasons         repositories.SeasonRepository
	FinancialConfig repositories.FinancialConfigRepository
	Clock           func() time.Time
	// DefaultConfig backstops reconciliation before an operator saves the
	// financial config document.
	DefaultConfig FinancialConfig
}

type accountingService struct {
	orders        repositories.OrderRepository
	clubs         repositories.ClubRepository
	seasons       repositories.SeasonRepository
	config        repositories.FinancialConfigRepository
	clock         func() time.Time
	defaultConfig FinancialConfig
}

// NewAccountingService wires dependencies into a concrete AccountingService.
func NewAccountingService(deps AccountingServiceDeps) (AccountingService, error) {
	if deps.Orders == nil {
		return nil, errors.New("accounting service: order repository is required")
	}
	if deps.Clubs == nil {
		return nil, errors.New("accounting service: club repository is required")
	}
	if deps.Seasons == nil {
		return nil, errors.New("accounting service: season repository is required")
	}
	if deps.FinancialConfig == nil {
		return nil, errors.New("accounting service: financial config repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &accountingService{
		orders:        deps.Orders,
		clubs:         deps.Clubs,
		seasons:       deps.Seasons,
		config:        deps.FinancialConfig,
		clock:         func() time.Time { return clock().UTC() },
		defaultConfig: deps.DefaultConfig,
	}, nil
}

// Reconcile computes the financial breakdown of an already-filtered order set.
// Pure: same input always yields the same output, and ties in the top-N
// rankings resolve to first-seen input order.
func (s *accountingService) Reconcile(orders []Order, clubRates map[string]float64, cfg FinancialConfig) Reconciliation {
	rec := Reconciliation{}

	monthIndex := map[string]int{}
	paymentIndex := map[PaymentMethod]int{}
	categoryIndex := map[string]int{}
	productIndex := map[string]int{}
	incidentIndex := map[string]int{}

	for _, order := range orders {
		if isIncidentOrder(order) {
			rec.IncidentCount++
			responsibility := incidentResponsibility(order)
			switch responsibility {
			case domain.ResponsibilityClub:
				rec.IncidentCosts.Club += order.Total
			case domain.ResponsibilitySupplier:
				// warranty, no cost borne
			default:
				rec.IncidentCosts.Internal += orderSupplierCost(order)
			}
			for _, item := range order.Items {
				name := item.ProductName
				pos, ok := incidentIndex[name]
				if !ok {
					pos = len(rec.TopByIncidents)
					incidentIndex[name] = pos
					rec.TopByIncidents = append(rec.TopByIncidents, ProductIncidentStats{Name: name})
				}
				rec.TopByIncidents[pos].Count += item.Quantity
			}
			continue
		}

		rec.NonIncidentCount++
		rec.GrossSales += order.Total

		supplierCost := orderSupplierCost(order)
		rec.SupplierCost += supplierCost

		var gatewayFee int64
		if order.Payment == domain.PaymentCard {
			gatewayFee = roundCents(float64(order.Total)*cfg.GatewayPercentFee) + cfg.GatewayFixedFee
		}
		rec.GatewayFees += gatewayFee

		rate, ok := clubRates[order.ClubID]
		if !ok {
			rate = domain.ClubCommissionRate(domain.Club{}, cfg)
		}
		clubCommission := roundCents(float64(order.Total) * rate)
		rec.ClubCommission += clubCommission

		commercialBase := order.Total - supplierCost - clubCommission - gatewayFee
		if commercialBase < 0 {
			commercialBase = 0
		}
		rec.CommercialCommission += roundCents(float64(commercialBase) * cfg.CommercialCommissionPct)

		// Month bucket.
		monthKey := order.CreatedAt.UTC().Format("2006-01")
		pos, ok := monthIndex[monthKey]
		if !ok {
			pos = len(rec.ByMonth)
			monthIndex[monthKey] = pos
			rec.ByMonth = append(rec.ByMonth, MonthBucket{
				Year:  order.CreatedAt.UTC().Year(),
				Month: order.CreatedAt.UTC().Month(),
			})
		}
		rec.ByMonth[pos].GrossSales += order.Total
		rec.ByMonth[pos].OrderCount++

		// Payment bucket.
		pos, ok = paymentIndex[order.Payment]
		if !ok {
			pos = len(rec.ByPayment)
			paymentIndex[order.Payment] = pos
			rec.ByPayment = append(rec.ByPayment, PaymentBucket{Method: order.Payment})
		}
		rec.ByPayment[pos].GrossSales += order.Total
		rec.ByPayment[pos].OrderCount++

		// Category and product buckets.
		for _, item := range order.Items {
			revenue := item.UnitPrice * int64(item.Quantity)
			cost := item.UnitCost * int64(item.Quantity)

			category := textutil.NormalizeCategory(item.Category)
			if category == "" {
				category = "otros"
			}
			pos, ok = categoryIndex[category]
			if !ok {
				pos = len(rec.ByCategory)
				categoryIndex[category] = pos
				rec.ByCategory = append(rec.ByCategory, CategoryBucket{Category: category})
			}
			rec.ByCategory[pos].Quantity += item.Quantity
			rec.ByCategory[pos].Revenue += revenue
			rec.ByCategory[pos].Cost += cost
			rec.ByCategory[pos].Profit += revenue - cost

			pos, ok = productIndex[item.ProductName]
			if !ok {
				pos = len(rec.Products)
				productIndex[item.ProductName] = pos
				rec.Products = append(rec.Products, ProductStats{Name: item.ProductName})
			}
			rec.Products[pos].Quantity += item.Quantity
			rec.Products[pos].Revenue += revenue
			rec.Products[pos].Cost += cost
			rec.Products[pos].Profit += revenue - cost
		}
	}

	for i := range rec.Products {
		if rec.Products[i].Revenue > 0 {
			rec.Products[i].Margin = float64(rec.Products[i].Profit) / float64(rec.Products[i].Revenue)
		}
	}

	rec.NetIncome = rec.GrossSales - rec.SupplierCost - rec.GatewayFees - rec.ClubCommission - rec.CommercialCommission
	if rec.NonIncidentCount > 0 {
		rec.AvgTicket = rec.GrossSales / int64(rec.NonIncidentCount)
	}
	if total := rec.NonIncidentCount + rec.IncidentCount; total > 0 {
		rec.ErrorRate = float64(rec.IncidentCount) / float64(total)
	}

	// Sort the month buckets chronologically; everything else keeps first-seen order.
	sort.SliceStable(rec.ByMonth, func(i, j int) bool {
		if rec.ByMonth[i].Year != rec.ByMonth[j].Year {
			return rec.ByMonth[i].Year < rec.ByMonth[j].Year
		}
		return rec.ByMonth[i].Month < rec.ByMonth[j].Month
	})

	rec.TopByQuantity = topProducts(rec.Products, topProductsByQuantity, func(a, b ProductStats) bool {
		return a.Quantity > b.Quantity
	})
	rec.TopByProfit = topProducts(rec.Products, topProductsByProfit, func(a, b ProductStats) bool {
		return a.Profit > b.Profit
	})
	sort.SliceStable(rec.TopByIncidents, func(i, j int) bool {
		return rec.TopByIncidents[i].Count > rec.TopByIncidents[j].Count
	})
	if len(rec.TopByIncidents) > topProductsByIncident {
		rec.TopByIncidents = rec.TopByIncidents[:topProductsByIncident]
	}

	return rec
}

// SeasonReport loads the season's orders and reconciles them. Orders carrying
// a manual season override join that season regardless of their timestamps.
func (s *accountingService) SeasonReport(ctx context.Context, query SeasonReportQuery) (SeasonReport, error) {
	seasonID := strings.TrimSpace(query.SeasonID)
	if seasonID == "" {
		return SeasonReport{}, fmt.Errorf("%w: season id is required", ErrAccountingInvalidInput)
	}

	season, err := s.seasons.FindByID(ctx, seasonID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return SeasonReport{}, fmt.Errorf("%w: season %q", ErrAccountingNotFound, seasonID)
		}
		return SeasonReport{}, err
	}

	cfg, err := s.effectiveConfig(ctx)
	if err != nil {
		return SeasonReport{}, err
	}

	clubs, err := s.clubs.List(ctx)
	if err != nil {
		return SeasonReport{}, err
	}
	rates := make(map[string]float64, len(clubs))
	for _, club := range clubs {
		rates[club.ID] = domain.ClubCommissionRate(club, cfg)
	}

	page, err := s.orders.List(ctx, repositories.OrderListFilter{
		ClubID: strings.TrimSpace(query.ClubID),
		Order:  domain.SortAsc,
	})
	if err != nil {
		return SeasonReport{}, err
	}

	var selected []Order
	for _, order := range page.Items {
		if override := strings.TrimSpace(order.ManualSeasonID); override != "" {
			if override == season.ID {
				selected = append(selected, order)
			}
			continue
		}
		if season.Contains(order.CreatedAt) {
			selected = append(selected, order)
		}
	}

	return SeasonReport{
		Season:         season,
		Reconciliation: s.Reconcile(selected, rates, cfg),
	}, nil
}

func (s *accountingService) GetFinancialConfig(ctx context.Context) (FinancialConfig, error) {
	return s.effectiveConfig(ctx)
}

func (s *accountingService) SaveFinancialConfig(ctx context.Context, cfg FinancialConfig) (FinancialConfig, error) {
	if cfg.ClubCommissionPct < 0 || cfg.ClubCommissionPct >= 1 {
		return FinancialConfig{}, fmt.Errorf("%w: club commission must be a fraction below 1", ErrAccountingInvalidInput)
	}
	if cfg.CommercialCommissionPct < 0 || cfg.CommercialCommissionPct >= 1 {
		return FinancialConfig{}, fmt.Errorf("%w: commercial commission must be a fraction below 1", ErrAccountingInvalidInput)
	}
	if cfg.GatewayPercentFee < 0 || cfg.GatewayFixedFee < 0 || cfg.ModificationFee < 0 {
		return FinancialConfig{}, fmt.Errorf("%w: fees cannot be negative", ErrAccountingInvalidInput)
	}

	cfg.UpdatedAt = s.clock()
	if err := s.config.Save(ctx, cfg); err != nil {
		return FinancialConfig{}, err
	}
	return cfg, nil
}

func (s *accountingService) ListSeasons(ctx context.Context, includeHidden bool) ([]Season, error) {
	seasons, err := s.seasons.List(ctx)
	if err != nil {
		return nil, err
	}
	if includeHidden {
		return seasons, nil
	}
	visible := seasons[:0]
	for _, season := range seasons {
		if !season.HiddenForClubs {
			visible = append(visible, season)
		}
	}
	return visible, nil
}

func (s *accountingService) SaveSeason(ctx context.Context, season Season) (Season, error) {
	if strings.TrimSpace(season.ID) == "" {
		return Season{}, fmt.Errorf("%w: season id is required", ErrAccountingInvalidInput)
	}
	if strings.TrimSpace(season.Name) == "" {
		return Season{}, fmt.Errorf("%w: season name is required", ErrAccountingInvalidInput)
	}
	if !season.EndDate.After(season.StartDate) {
		return Season{}, fmt.Errorf("%w: season end must follow its start", ErrAccountingInvalidInput)
	}
	return s.seasons.Save(ctx, season)
}

// effectiveConfig loads the stored fee document, falling back to the compiled
// defaults while no operator has saved one yet.
func (s *accountingService) effectiveConfig(ctx context.Context) (FinancialConfig, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return s.defaultConfig, nil
		}
		return FinancialConfig{}, err
	}
	return cfg, nil
}

func isIncidentOrder(order Order) bool {
	return order.Type == domain.OrderTypeReplacement ||
		order.Payment == domain.PaymentIncident ||
		order.Batch.Kind == domain.BatchError
}

func incidentResponsibility(order Order) domain.Responsibility {
	if order.Replaced != nil && order.Replaced.Responsibility != "" {
		return order.Replaced.Responsibility
	}
	if order.Manual != nil && order.Manual.Responsibility != "" {
		return order.Manual.Responsibility
	}
	return domain.ResponsibilityInternal
}

func orderSupplierCost(order Order) int64 {
	var cost int64
	for _, item := range order.Items {
		cost += item.UnitCost * int64(item.Quantity)
	}
	return cost
}

func topProducts(products []ProductStats, limit int, less func(a, b ProductStats) bool) []ProductStats {
	ranked := make([]ProductStats, len(products))
	copy(ranked, products)
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func roundCents(value float64) int64 {
	return int64(math.Round(value))
}
