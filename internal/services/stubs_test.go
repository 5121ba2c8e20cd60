package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

// repoError is a minimal repositories.RepositoryError for stubbed failures.
type repoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repoError) Error() string       { return e.msg }
func (e *repoError) IsNotFound() bool    { return e.notFound }
func (e *repoError) IsConflict() bool    { return e.conflict }
func (e *repoError) IsUnavailable() bool { return e.unavailable }

func notFoundErr(msg string) error { return &repoError{msg: msg, notFound: true} }
func conflictErr(msg string) error { return &repoError{msg: msg, conflict: true} }

type stubOrderRepo struct {
	insertFn           func(context.Context, domain.Order) error
	saveFn             func(context.Context, domain.Order) (domain.Order, error)
	findFn             func(context.Context, string) (domain.Order, error)
	deleteFn           func(context.Context, string) error
	listFn             func(context.Context, repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
	listByBatchFn      func(context.Context, string, domain.BatchKey) ([]domain.Order, error)
	updateStatusFn     func(context.Context, string, domain.BatchKey, domain.OrderStatus, domain.NotificationEntry) ([]domain.Order, error)
	replaceIncidentsFn func(context.Context, string, []domain.Incident, time.Time) error
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	if s.saveFn != nil {
		return s.saveFn(ctx, order)
	}
	return order, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) Delete(ctx context.Context, orderID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, orderID)
	}
	return nil
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.Order]{}, nil
}

func (s *stubOrderRepo) ListByBatch(ctx context.Context, clubID string, batch domain.BatchKey) ([]domain.Order, error) {
	if s.listByBatchFn != nil {
		return s.listByBatchFn(ctx, clubID, batch)
	}
	return nil, nil
}

func (s *stubOrderRepo) UpdateStatusForBatch(ctx context.Context, clubID string, batch domain.BatchKey, status domain.OrderStatus, entry domain.NotificationEntry) ([]domain.Order, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, clubID, batch, status, entry)
	}
	return nil, nil
}

func (s *stubOrderRepo) ReplaceIncidents(ctx context.Context, orderID string, incidents []domain.Incident, updatedAt time.Time) error {
	if s.replaceIncidentsFn != nil {
		return s.replaceIncidentsFn(ctx, orderID, incidents, updatedAt)
	}
	return nil
}

type stubClubRepo struct {
	insertFn         func(context.Context, domain.Club) error
	saveFn           func(context.Context, domain.Club) (domain.Club, error)
	findFn           func(context.Context, string) (domain.Club, error)
	findByUsernameFn func(context.Context, string) (domain.Club, error)
	listFn           func(context.Context) ([]domain.Club, error)
	closeGlobalFn    func(context.Context, string, int, domain.BatchHistoryEntry) (int, error)
	closeErrorFn     func(context.Context, string, int, domain.BatchHistoryEntry) (int, error)
	reopenFn         func(context.Context, string, int, domain.BatchHistoryEntry) error
	setAccountingFn  func(context.Context, string, domain.BatchKey, domain.AccountingEntry) error
	appendHistoryFn  func(context.Context, string, domain.BatchHistoryEntry) error
	setNextDateFn    func(context.Context, string, *time.Time) error
}

func (s *stubClubRepo) Insert(ctx context.Context, club domain.Club) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, club)
	}
	return nil
}

func (s *stubClubRepo) Save(ctx context.Context, club domain.Club) (domain.Club, error) {
	if s.saveFn != nil {
		return s.saveFn(ctx, club)
	}
	return club, nil
}

func (s *stubClubRepo) FindByID(ctx context.Context, clubID string) (domain.Club, error) {
	if s.findFn != nil {
		return s.findFn(ctx, clubID)
	}
	return domain.Club{}, notFoundErr("club not found")
}

func (s *stubClubRepo) FindByUsername(ctx context.Context, username string) (domain.Club, error) {
	if s.findByUsernameFn != nil {
		return s.findByUsernameFn(ctx, username)
	}
	return domain.Club{}, notFoundErr("club not found")
}

func (s *stubClubRepo) List(ctx context.Context) ([]domain.Club, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubClubRepo) CloseGlobalBatch(ctx context.Context, clubID string, expected int, entry domain.BatchHistoryEntry) (int, error) {
	if s.closeGlobalFn != nil {
		return s.closeGlobalFn(ctx, clubID, expected, entry)
	}
	return expected + 1, nil
}

func (s *stubClubRepo) CloseErrorBatch(ctx context.Context, clubID string, expected int, entry domain.BatchHistoryEntry) (int, error) {
	if s.closeErrorFn != nil {
		return s.closeErrorFn(ctx, clubID, expected, entry)
	}
	return expected + 1, nil
}

func (s *stubClubRepo) ReopenGlobalBatch(ctx context.Context, clubID string, target int, entry domain.BatchHistoryEntry) error {
	if s.reopenFn != nil {
		return s.reopenFn(ctx, clubID, target, entry)
	}
	return nil
}

func (s *stubClubRepo) SetAccountingEntry(ctx context.Context, clubID string, batch domain.BatchKey, entry domain.AccountingEntry) error {
	if s.setAccountingFn != nil {
		return s.setAccountingFn(ctx, clubID, batch, entry)
	}
	return nil
}

func (s *stubClubRepo) AppendBatchHistory(ctx context.Context, clubID string, entry domain.BatchHistoryEntry) error {
	if s.appendHistoryFn != nil {
		return s.appendHistoryFn(ctx, clubID, entry)
	}
	return nil
}

func (s *stubClubRepo) SetNextBatchDate(ctx context.Context, clubID string, date *time.Time) error {
	if s.setNextDateFn != nil {
		return s.setNextDateFn(ctx, clubID, date)
	}
	return nil
}

type stubGiftCodeRepo struct {
	insertFn       func(context.Context, domain.GiftCode) error
	findByCodeFn   func(context.Context, string) (domain.GiftCode, error)
	listFn         func(context.Context) ([]domain.GiftCode, error)
	markRedeemedFn func(context.Context, string, time.Time) error
}

func (s *stubGiftCodeRepo) Insert(ctx context.Context, code domain.GiftCode) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, code)
	}
	return nil
}

func (s *stubGiftCodeRepo) FindByCode(ctx context.Context, code string) (domain.GiftCode, error) {
	if s.findByCodeFn != nil {
		return s.findByCodeFn(ctx, code)
	}
	return domain.GiftCode{}, notFoundErr("gift code not found")
}

func (s *stubGiftCodeRepo) List(ctx context.Context) ([]domain.GiftCode, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubGiftCodeRepo) MarkRedeemed(ctx context.Context, codeID string, at time.Time) error {
	if s.markRedeemedFn != nil {
		return s.markRedeemedFn(ctx, codeID, at)
	}
	return nil
}

type stubSeasonRepo struct {
	saveFn func(context.Context, domain.Season) (domain.Season, error)
	findFn func(context.Context, string) (domain.Season, error)
	listFn func(context.Context) ([]domain.Season, error)
}

func (s *stubSeasonRepo) Save(ctx context.Context, season domain.Season) (domain.Season, error) {
	if s.saveFn != nil {
		return s.saveFn(ctx, season)
	}
	return season, nil
}

func (s *stubSeasonRepo) FindByID(ctx context.Context, seasonID string) (domain.Season, error) {
	if s.findFn != nil {
		return s.findFn(ctx, seasonID)
	}
	return domain.Season{}, notFoundErr("season not found")
}

func (s *stubSeasonRepo) List(ctx context.Context) ([]domain.Season, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

type stubFinancialConfigRepo struct {
	getFn  func(context.Context) (domain.FinancialConfig, error)
	saveFn func(context.Context, domain.FinancialConfig) error
}

func (s *stubFinancialConfigRepo) Get(ctx context.Context) (domain.FinancialConfig, error) {
	if s.getFn != nil {
		return s.getFn(ctx)
	}
	return domain.FinancialConfig{}, notFoundErr("config not found")
}

func (s *stubFinancialConfigRepo) Save(ctx context.Context, cfg domain.FinancialConfig) error {
	if s.saveFn != nil {
		return s.saveFn(ctx, cfg)
	}
	return nil
}

type captureMailRepo struct {
	messages []domain.MailMessage
	err      error
}

func (c *captureMailRepo) Enqueue(_ context.Context, msg domain.MailMessage) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.messages = append(c.messages, msg)
	return "mail_1", nil
}

type captureOrderEvents struct {
	events []OrderEvent
}

func (c *captureOrderEvents) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	c.events = append(c.events, event)
	return nil
}

// sequenceIDs yields deterministic ids for tests.
func sequenceIDs(prefixless ...string) func() string {
	i := 0
	return func() string {
		if i < len(prefixless) {
			id := prefixless[i]
			i++
			return id
		}
		i++
		return "id-overflow"
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
