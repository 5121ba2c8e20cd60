package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	pfirestore "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/firestore"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

const clubCollection = "clubs"

type accountingEntryDocument struct {
	SupplierPaid       bool       `firestore:"supplierPaid"`
	SupplierPaidDate   *time.Time `firestore:"supplierPaidDate,omitempty"`
	ClubPaid           bool       `firestore:"clubPaid"`
	ClubPaidDate       *time.Time `firestore:"clubPaidDate,omitempty"`
	CommercialPaid     bool       `firestore:"commercialPaid"`
	CommercialPaidDate *time.Time `firestore:"commercialPaidDate,omitempty"`
	CashCollected      bool       `firestore:"cashCollected"`
	CashCollectedDate  *time.Time `firestore:"cashCollectedDate,omitempty"`
}

type batchHistoryEntryDocument struct {
	Batch  string    `firestore:"batch"`
	Status string    `firestore:"status,omitempty"`
	Action string    `firestore:"action"`
	Date   time.Time `firestore:"date"`
}

type clubDocument struct {
	Name               string                             `firestore:"name"`
	Code               string                             `firestore:"code"`
	Username           string                             `firestore:"username"`
	PassHash           string                             `firestore:"passHash"`
	Color              string                             `firestore:"color,omitempty"`
	LogoPath           string                             `firestore:"logoPath,omitempty"`
	ActiveGlobalBatch  int                                `firestore:"activeGlobalBatch"`
	ActiveErrorBatch   int                                `firestore:"activeErrorBatch"`
	CommissionPct      *float64                           `firestore:"commissionPct,omitempty"`
	CashPaymentEnabled bool                               `firestore:"cashPaymentEnabled"`
	Blocked            bool                               `firestore:"blocked"`
	AccountingLog      map[string]accountingEntryDocument `firestore:"accountingLog,omitempty"`
	BatchHistory       []batchHistoryEntryDocument        `firestore:"batchHistory,omitempty"`
	NextBatchDate      *time.Time                         `firestore:"nextBatchDate,omitempty"`
	CreatedAt          time.Time                          `firestore:"createdAt"`
	UpdatedAt          time.Time                          `firestore:"updatedAt"`
}

// ClubRepository implements repositories.ClubRepository backed by Firestore.
type ClubRepository struct {
	base     *pfirestore.BaseRepository[clubDocument]
	provider *pfirestore.Provider
}

var _ repositories.ClubRepository = (*ClubRepository)(nil)

// NewClubRepository constructs a Firestore-backed club repository.
func NewClubRepository(provider *pfirestore.Provider) (*ClubRepository, error) {
	if provider == nil {
		return nil, errors.New("club repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[clubDocument](provider, clubCollection, nil, nil)
	return &ClubRepository{base: base, provider: provider}, nil
}

// Insert creates the club document; an existing ID yields a conflict.
func (r *ClubRepository) Insert(ctx context.Context, club domain.Club) error {
	if r == nil || r.base == nil {
		return errors.New("club repository not initialised")
	}
	if strings.TrimSpace(club.ID) == "" {
		return errors.New("club repository: club id is required")
	}
	ref, err := r.base.DocumentRef(ctx, club.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, fromDomainClub(club)); err != nil {
		return pfirestore.WrapError("clubs.insert", err)
	}
	return nil
}

// Save upserts the club document.
func (r *ClubRepository) Save(ctx context.Context, club domain.Club) (domain.Club, error) {
	if r == nil || r.base == nil {
		return domain.Club{}, errors.New("club repository not initialised")
	}
	if strings.TrimSpace(club.ID) == "" {
		return domain.Club{}, errors.New("club repository: club id is required")
	}
	if _, err := r.base.Set(ctx, club.ID, fromDomainClub(club)); err != nil {
		return domain.Club{}, err
	}
	return club, nil
}

// FindByID loads one club.
func (r *ClubRepository) FindByID(ctx context.Context, clubID string) (domain.Club, error) {
	if r == nil || r.base == nil {
		return domain.Club{}, errors.New("club repository not initialised")
	}
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return domain.Club{}, errors.New("club repository: club id is required")
	}
	doc, err := r.base.Get(ctx, clubID)
	if err != nil {
		return domain.Club{}, err
	}
	return toDomainClub(doc.ID, doc.Data), nil
}

// FindByUsername locates the club holding the login username.
func (r *ClubRepository) FindByUsername(ctx context.Context, username string) (domain.Club, error) {
	if r == nil || r.base == nil {
		return domain.Club{}, errors.New("club repository not initialised")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Club{}, errors.New("club repository: username is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("username", "==", username).Limit(1)
	})
	if err != nil {
		return domain.Club{}, err
	}
	if len(docs) == 0 {
		return domain.Club{}, pfirestore.NewNotFoundError("clubs.findByUsername", fmt.Errorf("club with username %q not found", username))
	}
	return toDomainClub(docs[0].ID, docs[0].Data), nil
}

// List returns every club ordered by name.
func (r *ClubRepository) List(ctx context.Context) ([]domain.Club, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("club repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	clubs := make([]domain.Club, 0, len(docs))
	for _, doc := range docs {
		clubs = append(clubs, toDomainClub(doc.ID, doc.Data))
	}
	return clubs, nil
}

// CloseGlobalBatch increments the numeric batch counter when its stored value
// still equals expected. A stale expectation yields a conflict so exactly one
// concurrent closer wins.
func (r *ClubRepository) CloseGlobalBatch(ctx context.Context, clubID string, expected int, entry domain.BatchHistoryEntry) (int, error) {
	return r.advanceCounter(ctx, clubID, "activeGlobalBatch", expected, entry)
}

// CloseErrorBatch increments the ERR-<n> counter under the same compare-and-set rule.
func (r *ClubRepository) CloseErrorBatch(ctx context.Context, clubID string, expected int, entry domain.BatchHistoryEntry) (int, error) {
	return r.advanceCounter(ctx, clubID, "activeErrorBatch", expected, entry)
}

func (r *ClubRepository) advanceCounter(ctx context.Context, clubID, field string, expected int, entry domain.BatchHistoryEntry) (int, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return 0, errors.New("club repository not initialised")
	}
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return 0, errors.New("club repository: club id is required")
	}
	if expected < 1 {
		return 0, fmt.Errorf("club repository: counter expectation must be at least 1, got %d", expected)
	}

	op := "clubs.closeBatch"
	var next int
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, clubID)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc clubDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("clubs decode %s: %w", clubID, err)
		}

		current := doc.ActiveGlobalBatch
		if field == "activeErrorBatch" {
			current = doc.ActiveErrorBatch
		}
		if current == 0 {
			current = 1
		}
		if current != expected {
			return pfirestore.NewConflictError(op,
				fmt.Errorf("batch counter moved: expected %d, stored %d", expected, current))
		}

		next = current + 1
		return tx.Update(ref, []firestore.Update{
			{Path: field, Value: next},
			{Path: "batchHistory", Value: firestore.ArrayUnion(fromDomainBatchHistoryEntry(entry))},
			{Path: "updatedAt", Value: entry.Date.UTC()},
		})
	})
	if err != nil {
		return 0, pfirestore.WrapError(op, err)
	}
	return next, nil
}

// ReopenGlobalBatch rewinds the numeric counter to an earlier batch number.
func (r *ClubRepository) ReopenGlobalBatch(ctx context.Context, clubID string, target int, entry domain.BatchHistoryEntry) error {
	if r == nil || r.base == nil || r.provider == nil {
		return errors.New("club repository not initialised")
	}
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return errors.New("club repository: club id is required")
	}
	if target < 1 {
		return fmt.Errorf("club repository: batch number must be at least 1, got %d", target)
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, clubID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "activeGlobalBatch", Value: target},
			{Path: "batchHistory", Value: firestore.ArrayUnion(fromDomainBatchHistoryEntry(entry))},
			{Path: "updatedAt", Value: entry.Date.UTC()},
		})
	})
	if err != nil {
		return pfirestore.WrapError("clubs.reopenBatch", err)
	}
	return nil
}

// SetAccountingEntry stores the settlement flags for one batch key.
func (r *ClubRepository) SetAccountingEntry(ctx context.Context, clubID string, batch domain.BatchKey, entry domain.AccountingEntry) error {
	if r == nil || r.base == nil {
		return errors.New("club repository not initialised")
	}
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return errors.New("club repository: club id is required")
	}
	if err := batch.Validate(); err != nil {
		return fmt.Errorf("club repository: %w", err)
	}

	_, err := r.base.Update(ctx, clubID, []firestore.Update{
		{Path: "accountingLog." + batch.String(), Value: accountingEntryDocument(entry)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

// AppendBatchHistory adds one entry to the club's batch history log.
func (r *ClubRepository) AppendBatchHistory(ctx context.Context, clubID string, entry domain.BatchHistoryEntry) error {
	if r == nil || r.base == nil {
		return errors.New("club repository not initialised")
	}
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return errors.New("club repository: club id is required")
	}
	_, err := r.base.Update(ctx, clubID, []firestore.Update{
		{Path: "batchHistory", Value: firestore.ArrayUnion(fromDomainBatchHistoryEntry(entry))},
		{Path: "updatedAt", Value: entry.Date.UTC()},
	})
	return err
}

// SetNextBatchDate stores or clears the advertised next closure date.
func (r *ClubRepository) SetNextBatchDate(ctx context.Context, clubID string, date *time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("club repository not initialised")
	}
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return errors.New("club repository: club id is required")
	}

	var value any = firestore.Delete
	if date != nil {
		value = date.UTC()
	}
	_, err := r.base.Update(ctx, clubID, []firestore.Update{
		{Path: "nextBatchDate", Value: value},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

func fromDomainClub(club domain.Club) clubDocument {
	doc := clubDocument{
		Name:               club.Name,
		Code:               club.Code,
		Username:           club.Username,
		PassHash:           club.PassHash,
		Color:              club.Color,
		LogoPath:           club.LogoPath,
		ActiveGlobalBatch:  club.ActiveGlobalBatch,
		ActiveErrorBatch:   club.ActiveErrorBatch,
		CommissionPct:      club.CommissionPct,
		CashPaymentEnabled: club.CashPaymentEnabled,
		Blocked:            club.Blocked,
		NextBatchDate:      club.NextBatchDate,
		CreatedAt:          club.CreatedAt.UTC(),
		UpdatedAt:          club.UpdatedAt.UTC(),
	}
	if doc.ActiveGlobalBatch < 1 {
		doc.ActiveGlobalBatch = 1
	}
	if doc.ActiveErrorBatch < 1 {
		doc.ActiveErrorBatch = 1
	}
	if len(club.AccountingLog) > 0 {
		doc.AccountingLog = make(map[string]accountingEntryDocument, len(club.AccountingLog))
		for key, entry := range club.AccountingLog {
			doc.AccountingLog[key] = accountingEntryDocument(entry)
		}
	}
	for _, entry := range club.BatchHistory {
		doc.BatchHistory = append(doc.BatchHistory, fromDomainBatchHistoryEntry(entry))
	}
	return doc
}

func fromDomainBatchHistoryEntry(entry domain.BatchHistoryEntry) batchHistoryEntryDocument {
	return batchHistoryEntryDocument{
		Batch:  entry.Batch.String(),
		Status: string(entry.Status),
		Action: entry.Action,
		Date:   entry.Date,
	}
}

func toDomainClub(id string, doc clubDocument) domain.Club {
	club := domain.Club{
		ID:                 id,
		Name:               doc.Name,
		Code:               doc.Code,
		Username:           doc.Username,
		PassHash:           doc.PassHash,
		Color:              doc.Color,
		LogoPath:           doc.LogoPath,
		ActiveGlobalBatch:  doc.ActiveGlobalBatch,
		ActiveErrorBatch:   doc.ActiveErrorBatch,
		CommissionPct:      doc.CommissionPct,
		CashPaymentEnabled: doc.CashPaymentEnabled,
		Blocked:            doc.Blocked,
		NextBatchDate:      doc.NextBatchDate,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
	if club.ActiveGlobalBatch < 1 {
		club.ActiveGlobalBatch = 1
	}
	if club.ActiveErrorBatch < 1 {
		club.ActiveErrorBatch = 1
	}
	if len(doc.AccountingLog) > 0 {
		club.AccountingLog = make(map[string]domain.AccountingEntry, len(doc.AccountingLog))
		for key, entry := range doc.AccountingLog {
			club.AccountingLog[key] = domain.AccountingEntry(entry)
		}
	}
	for _, entry := range doc.BatchHistory {
		club.BatchHistory = append(club.BatchHistory, domain.BatchHistoryEntry{
			Batch:  domain.ParseBatchKey(entry.Batch),
			Status: domain.OrderStatus(entry.Status),
			Action: entry.Action,
			Date:   entry.Date,
		})
	}
	return club
}
