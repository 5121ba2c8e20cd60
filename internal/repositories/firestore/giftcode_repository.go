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

const giftCodeCollection = "giftCodes"

type giftCodeDocument struct {
	Code        string     `firestore:"code"`
	Type        string     `firestore:"type"`
	Value       int64      `firestore:"value"`
	ApplyTo     string     `firestore:"applyTo"`
	AllowedClub string     `firestore:"allowedClub"`
	Status      string     `firestore:"status"`
	ProductID   string     `firestore:"productId,omitempty"`
	RedeemedAt  *time.Time `firestore:"redeemedAt,omitempty"`
	CreatedAt   time.Time  `firestore:"createdAt"`
}

// GiftCodeRepository implements repositories.GiftCodeRepository backed by Firestore.
type GiftCodeRepository struct {
	base     *pfirestore.BaseRepository[giftCodeDocument]
	provider *pfirestore.Provider
}

var _ repositories.GiftCodeRepository = (*GiftCodeRepository)(nil)

// NewGiftCodeRepository constructs a Firestore-backed gift code repository.
func NewGiftCodeRepository(provider *pfirestore.Provider) (*GiftCodeRepository, error) {
	if provider == nil {
		return nil, errors.New("gift code repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[giftCodeDocument](provider, giftCodeCollection, nil, nil)
	return &GiftCodeRepository{base: base, provider: provider}, nil
}

// Insert creates the gift code document.
func (r *GiftCodeRepository) Insert(ctx context.Context, code domain.GiftCode) error {
	if r == nil || r.base == nil {
		return errors.New("gift code repository not initialised")
	}
	if strings.TrimSpace(code.ID) == "" {
		return errors.New("gift code repository: code id is required")
	}
	ref, err := r.base.DocumentRef(ctx, code.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, fromDomainGiftCode(code)); err != nil {
		return pfirestore.WrapError("giftCodes.insert", err)
	}
	return nil
}

// FindByCode locates a gift code by its canonical (upper-case) token.
func (r *GiftCodeRepository) FindByCode(ctx context.Context, code string) (domain.GiftCode, error) {
	if r == nil || r.base == nil {
		return domain.GiftCode{}, errors.New("gift code repository not initialised")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.GiftCode{}, errors.New("gift code repository: code is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("code", "==", code).Limit(1)
	})
	if err != nil {
		return domain.GiftCode{}, err
	}
	if len(docs) == 0 {
		return domain.GiftCode{}, pfirestore.NewNotFoundError("giftCodes.findByCode", fmt.Errorf("gift code %q not found", code))
	}
	return toDomainGiftCode(docs[0].ID, docs[0].Data), nil
}

// List returns every gift code, newest first.
func (r *GiftCodeRepository) List(ctx context.Context) ([]domain.GiftCode, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("gift code repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	codes := make([]domain.GiftCode, 0, len(docs))
	for _, doc := range docs {
		codes = append(codes, toDomainGiftCode(doc.ID, doc.Data))
	}
	return codes, nil
}

// MarkRedeemed flips an active code to redeemed. A code that is already spent
// yields a conflict so double redemptions surface to the caller.
func (r *GiftCodeRepository) MarkRedeemed(ctx context.Context, codeID string, at time.Time) error {
	if r == nil || r.base == nil || r.provider == nil {
		return errors.New("gift code repository not initialised")
	}
	codeID = strings.TrimSpace(codeID)
	if codeID == "" {
		return errors.New("gift code repository: code id is required")
	}

	const op = "giftCodes.markRedeemed"
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, codeID)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc giftCodeDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("giftCodes decode %s: %w", codeID, err)
		}
		if doc.Status == string(domain.GiftCodeRedeemed) {
			return pfirestore.NewConflictError(op, fmt.Errorf("gift code %s already redeemed", codeID))
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(domain.GiftCodeRedeemed)},
			{Path: "redeemedAt", Value: at.UTC()},
		})
	})
	if err != nil {
		return pfirestore.WrapError(op, err)
	}
	return nil
}

func fromDomainGiftCode(code domain.GiftCode) giftCodeDocument {
	return giftCodeDocument{
		Code:        strings.ToUpper(strings.TrimSpace(code.Code)),
		Type:        string(code.Type),
		Value:       code.Value,
		ApplyTo:     code.ApplyTo,
		AllowedClub: code.AllowedClub,
		Status:      string(code.Status),
		ProductID:   code.ProductID,
		RedeemedAt:  code.RedeemedAt,
		CreatedAt:   code.CreatedAt.UTC(),
	}
}

func toDomainGiftCode(id string, doc giftCodeDocument) domain.GiftCode {
	return domain.GiftCode{
		ID:          id,
		Code:        doc.Code,
		Type:        domain.GiftCodeType(doc.Type),
		Value:       doc.Value,
		ApplyTo:     doc.ApplyTo,
		AllowedClub: doc.AllowedClub,
		Status:      domain.GiftCodeStatus(doc.Status),
		ProductID:   doc.ProductID,
		RedeemedAt:  doc.RedeemedAt,
		CreatedAt:   doc.CreatedAt,
	}
}
