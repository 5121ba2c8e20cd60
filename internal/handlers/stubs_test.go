package handlers

import (
	"context"
	"errors"
	"time"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

var errStubNotImplemented = errors.New("not implemented")

type stubOrderService struct {
	createFromCheckoutFn func(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error)
	createManualFn       func(ctx context.Context, cmd services.ManualOrderCommand) (domain.Order, error)
	getOrderFn           func(ctx context.Context, orderID string) (domain.Order, error)
	listOrdersFn         func(ctx context.Context, query services.OrderListQuery) (domain.CursorPage[domain.Order], error)
	updateOrderFn        func(ctx context.Context, cmd services.UpdateOrderCommand) (domain.Order, error)
	deleteOrderFn        func(ctx context.Context, orderID string) error
	confirmCashFn        func(ctx context.Context, orderID string) (domain.Order, error)
	forgetCustomerFn     func(ctx context.Context, orderID string) (domain.Order, error)
}

func (s *stubOrderService) CreateFromCheckout(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
	if s.createFromCheckoutFn != nil {
		return s.createFromCheckoutFn(ctx, cmd)
	}
	return services.CheckoutResult{}, errStubNotImplemented
}

func (s *stubOrderService) CreateManual(ctx context.Context, cmd services.ManualOrderCommand) (domain.Order, error) {
	if s.createManualFn != nil {
		return s.createManualFn(ctx, cmd)
	}
	return domain.Order{}, errStubNotImplemented
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.getOrderFn != nil {
		return s.getOrderFn(ctx, orderID)
	}
	return domain.Order{}, errStubNotImplemented
}

func (s *stubOrderService) ListOrders(ctx context.Context, query services.OrderListQuery) (domain.CursorPage[domain.Order], error) {
	if s.listOrdersFn != nil {
		return s.listOrdersFn(ctx, query)
	}
	return domain.CursorPage[domain.Order]{}, nil
}

func (s *stubOrderService) UpdateOrder(ctx context.Context, cmd services.UpdateOrderCommand) (domain.Order, error) {
	if s.updateOrderFn != nil {
		return s.updateOrderFn(ctx, cmd)
	}
	return domain.Order{}, errStubNotImplemented
}

func (s *stubOrderService) DeleteOrder(ctx context.Context, orderID string) error {
	if s.deleteOrderFn != nil {
		return s.deleteOrderFn(ctx, orderID)
	}
	return nil
}

func (s *stubOrderService) ConfirmCashReceipt(ctx context.Context, orderID string) (domain.Order, error) {
	if s.confirmCashFn != nil {
		return s.confirmCashFn(ctx, orderID)
	}
	return domain.Order{}, errStubNotImplemented
}

func (s *stubOrderService) ForgetCustomer(ctx context.Context, orderID string) (domain.Order, error) {
	if s.forgetCustomerFn != nil {
		return s.forgetCustomerFn(ctx, orderID)
	}
	return domain.Order{}, errStubNotImplemented
}

type stubBatchService struct {
	classifyFn       func(orders []domain.Order) []services.BatchGroup
	listBatchesFn    func(ctx context.Context, clubID string) ([]services.BatchGroup, error)
	setBatchStatusFn func(ctx context.Context, cmd services.SetBatchStatusCommand) ([]domain.Order, error)
	closeGlobalFn    func(ctx context.Context, cmd services.CloseBatchCommand) (int, error)
	closeErrorFn     func(ctx context.Context, cmd services.CloseBatchCommand) (int, error)
	reopenFn         func(ctx context.Context, cmd services.ReopenBatchCommand) error
}

func (s *stubBatchService) Classify(orders []domain.Order) []services.BatchGroup {
	if s.classifyFn != nil {
		return s.classifyFn(orders)
	}
	return nil
}

func (s *stubBatchService) ListBatches(ctx context.Context, clubID string) ([]services.BatchGroup, error) {
	if s.listBatchesFn != nil {
		return s.listBatchesFn(ctx, clubID)
	}
	return nil, nil
}

func (s *stubBatchService) SetBatchStatus(ctx context.Context, cmd services.SetBatchStatusCommand) ([]domain.Order, error) {
	if s.setBatchStatusFn != nil {
		return s.setBatchStatusFn(ctx, cmd)
	}
	return nil, errStubNotImplemented
}

func (s *stubBatchService) CloseGlobalBatch(ctx context.Context, cmd services.CloseBatchCommand) (int, error) {
	if s.closeGlobalFn != nil {
		return s.closeGlobalFn(ctx, cmd)
	}
	return 0, errStubNotImplemented
}

func (s *stubBatchService) CloseErrorBatch(ctx context.Context, cmd services.CloseBatchCommand) (int, error) {
	if s.closeErrorFn != nil {
		return s.closeErrorFn(ctx, cmd)
	}
	return 0, errStubNotImplemented
}

func (s *stubBatchService) ReopenGlobalBatch(ctx context.Context, cmd services.ReopenBatchCommand) error {
	if s.reopenFn != nil {
		return s.reopenFn(ctx, cmd)
	}
	return errStubNotImplemented
}

type stubClubService struct {
	loginFn             func(ctx context.Context, cmd services.ClubLoginCommand) (services.ClubLoginResult, error)
	getClubFn           func(ctx context.Context, clubID string) (domain.Club, error)
	listClubsFn         func(ctx context.Context) ([]domain.Club, error)
	createClubFn        func(ctx context.Context, cmd services.CreateClubCommand) (domain.Club, error)
	updateClubFn        func(ctx context.Context, cmd services.UpdateClubCommand) (domain.Club, error)
	setAccountingFlagFn func(ctx context.Context, cmd services.SetAccountingFlagCommand) (domain.AccountingEntry, error)
	setNextBatchDateFn  func(ctx context.Context, clubID string, date *time.Time) error
}

func (s *stubClubService) Login(ctx context.Context, cmd services.ClubLoginCommand) (services.ClubLoginResult, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, cmd)
	}
	return services.ClubLoginResult{}, errStubNotImplemented
}

func (s *stubClubService) GetClub(ctx context.Context, clubID string) (domain.Club, error) {
	if s.getClubFn != nil {
		return s.getClubFn(ctx, clubID)
	}
	return domain.Club{}, services.ErrClubNotFound
}

func (s *stubClubService) ListClubs(ctx context.Context) ([]domain.Club, error) {
	if s.listClubsFn != nil {
		return s.listClubsFn(ctx)
	}
	return nil, nil
}

func (s *stubClubService) CreateClub(ctx context.Context, cmd services.CreateClubCommand) (domain.Club, error) {
	if s.createClubFn != nil {
		return s.createClubFn(ctx, cmd)
	}
	return domain.Club{}, errStubNotImplemented
}

func (s *stubClubService) UpdateClub(ctx context.Context, cmd services.UpdateClubCommand) (domain.Club, error) {
	if s.updateClubFn != nil {
		return s.updateClubFn(ctx, cmd)
	}
	return domain.Club{}, errStubNotImplemented
}

func (s *stubClubService) SetAccountingFlag(ctx context.Context, cmd services.SetAccountingFlagCommand) (domain.AccountingEntry, error) {
	if s.setAccountingFlagFn != nil {
		return s.setAccountingFlagFn(ctx, cmd)
	}
	return domain.AccountingEntry{}, errStubNotImplemented
}

func (s *stubClubService) SetNextBatchDate(ctx context.Context, clubID string, date *time.Time) error {
	if s.setNextBatchDateFn != nil {
		return s.setNextBatchDateFn(ctx, clubID, date)
	}
	return nil
}

type stubGiftCodeService struct {
	validateFn func(ctx context.Context, cmd services.ValidateGiftCodeCommand) (services.GiftCodeResolution, error)
	redeemFn   func(ctx context.Context, codeID string) error
	createFn   func(ctx context.Context, cmd services.CreateGiftCodeCommand) (domain.GiftCode, error)
	listFn     func(ctx context.Context) ([]domain.GiftCode, error)
}

func (s *stubGiftCodeService) Validate(ctx context.Context, cmd services.ValidateGiftCodeCommand) (services.GiftCodeResolution, error) {
	if s.validateFn != nil {
		return s.validateFn(ctx, cmd)
	}
	return services.GiftCodeResolution{}, errStubNotImplemented
}

func (s *stubGiftCodeService) Redeem(ctx context.Context, codeID string) error {
	if s.redeemFn != nil {
		return s.redeemFn(ctx, codeID)
	}
	return nil
}

func (s *stubGiftCodeService) Create(ctx context.Context, cmd services.CreateGiftCodeCommand) (domain.GiftCode, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return domain.GiftCode{}, errStubNotImplemented
}

func (s *stubGiftCodeService) List(ctx context.Context) ([]domain.GiftCode, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

type stubIncidentService struct {
	addIncidentFn       func(ctx context.Context, cmd services.AddIncidentCommand) (domain.Order, error)
	resolveIncidentFn   func(ctx context.Context, orderID, incidentID string) (domain.Order, error)
	createReplacementFn func(ctx context.Context, cmd services.CreateReplacementCommand) (domain.Order, error)
}

func (s *stubIncidentService) AddIncident(ctx context.Context, cmd services.AddIncidentCommand) (domain.Order, error) {
	if s.addIncidentFn != nil {
		return s.addIncidentFn(ctx, cmd)
	}
	return domain.Order{}, errStubNotImplemented
}

func (s *stubIncidentService) ResolveIncident(ctx context.Context, orderID, incidentID string) (domain.Order, error) {
	if s.resolveIncidentFn != nil {
		return s.resolveIncidentFn(ctx, orderID, incidentID)
	}
	return domain.Order{}, errStubNotImplemented
}

func (s *stubIncidentService) CreateReplacement(ctx context.Context, cmd services.CreateReplacementCommand) (domain.Order, error) {
	if s.createReplacementFn != nil {
		return s.createReplacementFn(ctx, cmd)
	}
	return domain.Order{}, errStubNotImplemented
}

func (s *stubIncidentService) HasOpenIncident(order domain.Order, itemID string) bool {
	return false
}

type stubAccountingService struct {
	reconcileFn       func(orders []domain.Order, clubRates map[string]float64, cfg domain.FinancialConfig) services.Reconciliation
	seasonReportFn    func(ctx context.Context, query services.SeasonReportQuery) (services.SeasonReport, error)
	getConfigFn       func(ctx context.Context) (domain.FinancialConfig, error)
	saveConfigFn      func(ctx context.Context, cfg domain.FinancialConfig) (domain.FinancialConfig, error)
	listSeasonsFn     func(ctx context.Context, includeHidden bool) ([]domain.Season, error)
	saveSeasonFn      func(ctx context.Context, season domain.Season) (domain.Season, error)
}

func (s *stubAccountingService) Reconcile(orders []domain.Order, clubRates map[string]float64, cfg domain.FinancialConfig) services.Reconciliation {
	if s.reconcileFn != nil {
		return s.reconcileFn(orders, clubRates, cfg)
	}
	return services.Reconciliation{}
}

func (s *stubAccountingService) SeasonReport(ctx context.Context, query services.SeasonReportQuery) (services.SeasonReport, error) {
	if s.seasonReportFn != nil {
		return s.seasonReportFn(ctx, query)
	}
	return services.SeasonReport{}, errStubNotImplemented
}

func (s *stubAccountingService) GetFinancialConfig(ctx context.Context) (domain.FinancialConfig, error) {
	if s.getConfigFn != nil {
		return s.getConfigFn(ctx)
	}
	return domain.FinancialConfig{}, nil
}

func (s *stubAccountingService) SaveFinancialConfig(ctx context.Context, cfg domain.FinancialConfig) (domain.FinancialConfig, error) {
	if s.saveConfigFn != nil {
		return s.saveConfigFn(ctx, cfg)
	}
	return domain.FinancialConfig{}, errStubNotImplemented
}

func (s *stubAccountingService) ListSeasons(ctx context.Context, includeHidden bool) ([]domain.Season, error) {
	if s.listSeasonsFn != nil {
		return s.listSeasonsFn(ctx, includeHidden)
	}
	return nil, nil
}

func (s *stubAccountingService) SaveSeason(ctx context.Context, season domain.Season) (domain.Season, error) {
	if s.saveSeasonFn != nil {
		return s.saveSeasonFn(ctx, season)
	}
	return domain.Season{}, errStubNotImplemented
}

type stubSystemService struct {
	report domain.HealthReport
	err    error
}

func (s *stubSystemService) Health(context.Context) (domain.HealthReport, error) {
	return s.report, s.err
}
