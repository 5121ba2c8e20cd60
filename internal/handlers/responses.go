package handlers

import (
	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

type extraPlayerResponse struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Size   string `json:"size"`
}

type orderItemResponse struct {
	ID                  string                `json:"id"`
	ProductRef          string                `json:"productRef,omitempty"`
	ProductName         string                `json:"productName"`
	UnitPrice           int64                 `json:"unitPrice"`
	UnitCost            int64                 `json:"unitCost"`
	Quantity            int                   `json:"quantity"`
	PlayerName          string                `json:"playerName,omitempty"`
	PlayerNumber        string                `json:"playerNumber,omitempty"`
	Size                string                `json:"size,omitempty"`
	Color               string                `json:"color,omitempty"`
	Category            string                `json:"category,omitempty"`
	ImageRef            string                `json:"imageRef,omitempty"`
	ExtraPlayers        []extraPlayerResponse `json:"extraPlayers,omitempty"`
	ModifiedFromDefault bool                  `json:"modifiedFromDefault,omitempty"`
}

type customerResponse struct {
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	MarketingConsent bool   `json:"marketingConsent"`
	EmailUpdates     bool   `json:"emailUpdates"`
}

type incidentResponse struct {
	ID                       string `json:"id"`
	ItemID                   string `json:"itemId"`
	Reason                   string `json:"reason"`
	Responsibility           string `json:"responsibility"`
	Resolved                 bool   `json:"resolved"`
	LinkedReplacementOrderID string `json:"linkedReplacementOrderId,omitempty"`
	ReportedAt               string `json:"reportedAt"`
}

type notificationEntryResponse struct {
	Date       string `json:"date"`
	StatusFrom string `json:"statusFrom"`
	StatusTo   string `json:"statusTo"`
	Method     string `json:"method"`
}

type orderResponse struct {
	ID             string                      `json:"id"`
	ClubID         string                      `json:"clubId"`
	ClubName       string                      `json:"clubName,omitempty"`
	Items          []orderItemResponse         `json:"items"`
	Total          int64                       `json:"total"`
	Subtotal       *int64                      `json:"subtotal,omitempty"`
	Payment        string                      `json:"payment"`
	Status         string                      `json:"status"`
	VisibleStatus  string                      `json:"visibleStatus"`
	Type           string                      `json:"type"`
	Batch          string                      `json:"batch"`
	Incidents      []incidentResponse          `json:"incidents,omitempty"`
	Log            []notificationEntryResponse `json:"log,omitempty"`
	Customer       customerResponse            `json:"customer"`
	DiscountCode   string                      `json:"discountCode,omitempty"`
	ManualSeasonID string                      `json:"manualSeasonId,omitempty"`
	CreatedAt      string                      `json:"createdAt"`
	UpdatedAt      string                      `json:"updatedAt"`
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		extras := make([]extraPlayerResponse, 0, len(item.ExtraPlayers))
		for _, extra := range item.ExtraPlayers {
			extras = append(extras, extraPlayerResponse{Name: extra.Name, Number: extra.Number, Size: extra.Size})
		}
		if len(extras) == 0 {
			extras = nil
		}
		items = append(items, orderItemResponse{
			ID:                  item.ID,
			ProductRef:          item.ProductRef,
			ProductName:         item.ProductName,
			UnitPrice:           item.UnitPrice,
			UnitCost:            item.UnitCost,
			Quantity:            item.Quantity,
			PlayerName:          item.PlayerName,
			PlayerNumber:        item.PlayerNumber,
			Size:                item.Size,
			Color:               item.Color,
			Category:            item.Category,
			ImageRef:            item.ImageRef,
			ExtraPlayers:        extras,
			ModifiedFromDefault: item.ModifiedFromDefault,
		})
	}

	incidents := make([]incidentResponse, 0, len(order.Incidents))
	for _, inc := range order.Incidents {
		incidents = append(incidents, incidentResponse{
			ID:                       inc.ID,
			ItemID:                   inc.ItemID,
			Reason:                   inc.Reason,
			Responsibility:           string(inc.Responsibility),
			Resolved:                 inc.Resolved,
			LinkedReplacementOrderID: inc.LinkedReplacementOrderID,
			ReportedAt:               formatTime(inc.ReportedAt),
		})
	}
	if len(incidents) == 0 {
		incidents = nil
	}

	log := make([]notificationEntryResponse, 0, len(order.Log))
	for _, entry := range order.Log {
		log = append(log, notificationEntryResponse{
			Date:       formatTime(entry.Date),
			StatusFrom: string(entry.StatusFrom),
			StatusTo:   string(entry.StatusTo),
			Method:     entry.Method,
		})
	}
	if len(log) == 0 {
		log = nil
	}

	return orderResponse{
		ID:            order.ID,
		ClubID:        order.ClubID,
		ClubName:      order.ClubName,
		Items:         items,
		Total:         order.Total,
		Subtotal:      order.Subtotal,
		Payment:       string(order.Payment),
		Status:        string(order.Status),
		VisibleStatus: domain.VisibleStatus(order.Status),
		Type:          string(order.Type),
		Batch:         order.Batch.String(),
		Incidents:     incidents,
		Log:           log,
		Customer: customerResponse{
			Name:             order.Customer.Name,
			Email:            order.Customer.Email,
			Phone:            order.Customer.Phone,
			MarketingConsent: order.Customer.MarketingConsent,
			EmailUpdates:     order.Customer.EmailUpdates,
		},
		DiscountCode:   order.DiscountCode,
		ManualSeasonID: order.ManualSeasonID,
		CreatedAt:      formatTime(order.CreatedAt),
		UpdatedAt:      formatTime(order.UpdatedAt),
	}
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	return out
}

type batchGroupResponse struct {
	Batch          string          `json:"batch"`
	Orders         []orderResponse `json:"orders"`
	AggregateTotal int64           `json:"aggregateTotal"`
	ItemCount      int             `json:"itemCount"`
	Status         string          `json:"status"`
	VisibleStatus  string          `json:"visibleStatus"`
}

func toBatchGroupResponse(group services.BatchGroup) batchGroupResponse {
	return batchGroupResponse{
		Batch:          group.Key.String(),
		Orders:         toOrderResponses(group.Orders),
		AggregateTotal: group.AggregateTotal,
		ItemCount:      group.ItemCount,
		Status:         string(group.Status),
		VisibleStatus:  group.VisibleStatus,
	}
}

type accountingEntryResponse struct {
	SupplierPaid       bool   `json:"supplierPaid"`
	SupplierPaidDate   string `json:"supplierPaidDate,omitempty"`
	ClubPaid           bool   `json:"clubPaid"`
	ClubPaidDate       string `json:"clubPaidDate,omitempty"`
	CommercialPaid     bool   `json:"commercialPaid"`
	CommercialPaidDate string `json:"commercialPaidDate,omitempty"`
	CashCollected      bool   `json:"cashCollected"`
	CashCollectedDate  string `json:"cashCollectedDate,omitempty"`
}

func toAccountingEntryResponse(entry domain.AccountingEntry) accountingEntryResponse {
	return accountingEntryResponse{
		SupplierPaid:       entry.SupplierPaid,
		SupplierPaidDate:   formatTimePtr(entry.SupplierPaidDate),
		ClubPaid:           entry.ClubPaid,
		ClubPaidDate:       formatTimePtr(entry.ClubPaidDate),
		CommercialPaid:     entry.CommercialPaid,
		CommercialPaidDate: formatTimePtr(entry.CommercialPaidDate),
		CashCollected:      entry.CashCollected,
		CashCollectedDate:  formatTimePtr(entry.CashCollectedDate),
	}
}

type batchHistoryEntryResponse struct {
	Batch  string `json:"batch"`
	Status string `json:"status,omitempty"`
	Action string `json:"action"`
	Date   string `json:"date"`
}

type clubResponse struct {
	ID                 string                             `json:"id"`
	Name               string                             `json:"name"`
	Code               string                             `json:"code,omitempty"`
	Username           string                             `json:"username"`
	Color              string                             `json:"color,omitempty"`
	LogoPath           string                             `json:"logoPath,omitempty"`
	ActiveGlobalBatch  int                                `json:"activeGlobalBatch"`
	ActiveErrorBatch   int                                `json:"activeErrorBatch"`
	CommissionPct      *float64                           `json:"commissionPct,omitempty"`
	CashPaymentEnabled bool                               `json:"cashPaymentEnabled"`
	Blocked            bool                               `json:"blocked"`
	AccountingLog      map[string]accountingEntryResponse `json:"accountingLog,omitempty"`
	BatchHistory       []batchHistoryEntryResponse        `json:"batchHistory,omitempty"`
	NextBatchDate      string                             `json:"nextBatchDate,omitempty"`
	CreatedAt          string                             `json:"createdAt"`
	UpdatedAt          string                             `json:"updatedAt"`
}

func toClubResponse(club domain.Club) clubResponse {
	var accounting map[string]accountingEntryResponse
	if len(club.AccountingLog) > 0 {
		accounting = make(map[string]accountingEntryResponse, len(club.AccountingLog))
		for key, entry := range club.AccountingLog {
			accounting[key] = toAccountingEntryResponse(entry)
		}
	}

	var history []batchHistoryEntryResponse
	for _, entry := range club.BatchHistory {
		history = append(history, batchHistoryEntryResponse{
			Batch:  entry.Batch.String(),
			Status: string(entry.Status),
			Action: entry.Action,
			Date:   formatTime(entry.Date),
		})
	}

	return clubResponse{
		ID:                 club.ID,
		Name:               club.Name,
		Code:               club.Code,
		Username:           club.Username,
		Color:              club.Color,
		LogoPath:           club.LogoPath,
		ActiveGlobalBatch:  club.ActiveGlobalBatch,
		ActiveErrorBatch:   club.ActiveErrorBatch,
		CommissionPct:      club.CommissionPct,
		CashPaymentEnabled: club.CashPaymentEnabled,
		Blocked:            club.Blocked,
		AccountingLog:      accounting,
		BatchHistory:       history,
		NextBatchDate:      formatTimePtr(club.NextBatchDate),
		CreatedAt:          formatTime(club.CreatedAt),
		UpdatedAt:          formatTime(club.UpdatedAt),
	}
}

type giftCodeResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Type        string `json:"type"`
	Value       int64  `json:"value"`
	ApplyTo     string `json:"applyTo"`
	AllowedClub string `json:"allowedClub"`
	Status      string `json:"status"`
	ProductID   string `json:"productId,omitempty"`
	RedeemedAt  string `json:"redeemedAt,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

func toGiftCodeResponse(code domain.GiftCode) giftCodeResponse {
	return giftCodeResponse{
		ID:          code.ID,
		Code:        code.Code,
		Type:        string(code.Type),
		Value:       code.Value,
		ApplyTo:     code.ApplyTo,
		AllowedClub: code.AllowedClub,
		Status:      string(code.Status),
		ProductID:   code.ProductID,
		RedeemedAt:  formatTimePtr(code.RedeemedAt),
		CreatedAt:   formatTime(code.CreatedAt),
	}
}

type seasonResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	HiddenForClubs bool   `json:"hiddenForClubs"`
}

func toSeasonResponse(season domain.Season) seasonResponse {
	return seasonResponse{
		ID:             season.ID,
		Name:           season.Name,
		StartDate:      formatTime(season.StartDate),
		EndDate:        formatTime(season.EndDate),
		HiddenForClubs: season.HiddenForClubs,
	}
}

type monthBucketResponse struct {
	Year       int   `json:"year"`
	Month      int   `json:"month"`
	GrossSales int64 `json:"grossSales"`
	OrderCount int   `json:"orderCount"`
}

type paymentBucketResponse struct {
	Method     string `json:"method"`
	GrossSales int64  `json:"grossSales"`
	OrderCount int    `json:"orderCount"`
}

type categoryBucketResponse struct {
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
	Revenue  int64  `json:"revenue"`
	Cost     int64  `json:"cost"`
	Profit   int64  `json:"profit"`
}

type productStatsResponse struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  int64   `json:"revenue"`
	Cost     int64   `json:"cost"`
	Profit   int64   `json:"profit"`
	Margin   float64 `json:"margin"`
}

type productIncidentStatsResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type incidentCostsResponse struct {
	Internal int64 `json:"internal"`
	Club     int64 `json:"club"`
	Supplier int64 `json:"supplier"`
}

type reconciliationResponse struct {
	GrossSales           int64 `json:"grossSales"`
	SupplierCost         int64 `json:"supplierCost"`
	GatewayFees          int64 `json:"gatewayFees"`
	ClubCommission       int64 `json:"clubCommission"`
	CommercialCommission int64 `json:"commercialCommission"`
	NetIncome            int64 `json:"netIncome"`

	NonIncidentCount int     `json:"nonIncidentCount"`
	IncidentCount    int     `json:"incidentCount"`
	AvgTicket        int64   `json:"avgTicket"`
	ErrorRate        float64 `json:"errorRate"`

	IncidentCosts incidentCostsResponse `json:"incidentCosts"`

	ByMonth    []monthBucketResponse    `json:"byMonth"`
	ByPayment  []paymentBucketResponse  `json:"byPayment"`
	ByCategory []categoryBucketResponse `json:"byCategory"`
	Products   []productStatsResponse   `json:"products"`

	TopByQuantity  []productStatsResponse         `json:"topByQuantity"`
	TopByProfit    []productStatsResponse         `json:"topByProfit"`
	TopByIncidents []productIncidentStatsResponse `json:"topByIncidents"`
}

func toProductStatsResponses(stats []services.ProductStats) []productStatsResponse {
	out := make([]productStatsResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, productStatsResponse{
			Name:     s.Name,
			Quantity: s.Quantity,
			Revenue:  s.Revenue,
			Cost:     s.Cost,
			Profit:   s.Profit,
			Margin:   s.Margin,
		})
	}
	return out
}

func toReconciliationResponse(rec services.Reconciliation) reconciliationResponse {
	months := make([]monthBucketResponse, 0, len(rec.ByMonth))
	for _, b := range rec.ByMonth {
		months = append(months, monthBucketResponse{
			Year:       b.Year,
			Month:      int(b.Month),
			GrossSales: b.GrossSales,
			OrderCount: b.OrderCount,
		})
	}

	payments := make([]paymentBucketResponse, 0, len(rec.ByPayment))
	for _, b := range rec.ByPayment {
		payments = append(payments, paymentBucketResponse{
			Method:     string(b.Method),
			GrossSales: b.GrossSales,
			OrderCount: b.OrderCount,
		})
	}

	categories := make([]categoryBucketResponse, 0, len(rec.ByCategory))
	for _, b := range rec.ByCategory {
		categories = append(categories, categoryBucketResponse{
			Category: b.Category,
			Quantity: b.Quantity,
			Revenue:  b.Revenue,
			Cost:     b.Cost,
			Profit:   b.Profit,
		})
	}

	incidents := make([]productIncidentStatsResponse, 0, len(rec.TopByIncidents))
	for _, s := range rec.TopByIncidents {
		incidents = append(incidents, productIncidentStatsResponse{Name: s.Name, Count: s.Count})
	}

	return reconciliationResponse{
		GrossSales:           rec.GrossSales,
		SupplierCost:         rec.SupplierCost,
		GatewayFees:          rec.GatewayFees,
		ClubCommission:       rec.ClubCommission,
		CommercialCommission: rec.CommercialCommission,
		NetIncome:            rec.NetIncome,
		NonIncidentCount:     rec.NonIncidentCount,
		IncidentCount:        rec.IncidentCount,
		AvgTicket:            rec.AvgTicket,
		ErrorRate:            rec.ErrorRate,
		IncidentCosts: incidentCostsResponse{
			Internal: rec.IncidentCosts.Internal,
			Club:     rec.IncidentCosts.Club,
			Supplier: rec.IncidentCosts.Supplier,
		},
		ByMonth:        months,
		ByPayment:      payments,
		ByCategory:     categories,
		Products:       toProductStatsResponses(rec.Products),
		TopByQuantity:  toProductStatsResponses(rec.TopByQuantity),
		TopByProfit:    toProductStatsResponses(rec.TopByProfit),
		TopByIncidents: incidents,
	}
}

type financialConfigResponse struct {
	ClubCommissionPct       float64 `json:"clubCommissionPct"`
	CommercialCommissionPct float64 `json:"commercialCommissionPct"`
	GatewayPercentFee       float64 `json:"gatewayPercentFee"`
	GatewayFixedFee         int64   `json:"gatewayFixedFee"`
	ModificationFee         int64   `json:"modificationFee"`
	UpdatedAt               string  `json:"updatedAt,omitempty"`
}

func toFinancialConfigResponse(cfg domain.FinancialConfig) financialConfigResponse {
	return financialConfigResponse{
		ClubCommissionPct:       cfg.ClubCommissionPct,
		CommercialCommissionPct: cfg.CommercialCommissionPct,
		GatewayPercentFee:       cfg.GatewayPercentFee,
		GatewayFixedFee:         cfg.GatewayFixedFee,
		ModificationFee:         cfg.ModificationFee,
		UpdatedAt:               formatTime(cfg.UpdatedAt),
	}
}
