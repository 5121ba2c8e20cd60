package firestore

import (
	"context"
	"errors"
	"time"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	pfirestore "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/firestore"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

const (
	financialConfigCollection = "config"
	financialConfigDoc        = "financial"
)

type financialConfigDocument struct {
	ClubCommissionPct       float64   `firestore:"clubCommissionPct"`
	CommercialCommissionPct float64   `firestore:"commercialCommissionPct"`
	GatewayPercentFee       float64   `firestore:"gatewayPercentFee"`
	GatewayFixedFee         int64     `firestore:"gatewayFixedFee"`
	ModificationFee         int64     `firestore:"modificationFee"`
	UpdatedAt               time.Time `firestore:"updatedAt"`
}

// FinancialConfigRepository stores the single global fee document in Firestore.
type FinancialConfigRepository struct {
	base *pfirestore.BaseRepository[financialConfigDocument]
}

var _ repositories.FinancialConfigRepository = (*FinancialConfigRepository)(nil)

// NewFinancialConfigRepository constructs a Firestore-backed financial config repository.
func NewFinancialConfigRepository(provider *pfirestore.Provider) (*FinancialConfigRepository, error) {
	if provider == nil {
		return nil, errors.New("financial config repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[financialConfigDocument](provider, financialConfigCollection, nil, nil)
	return &FinancialConfigRepository{base: base}, nil
}

// Get loads the global fee document.
func (r *FinancialConfigRepository) Get(ctx context.Context) (domain.FinancialConfig, error) {
	if r == nil || r.base == nil {
		return domain.FinancialConfig{}, errors.New("financial config repository not initialised")
	}
	doc, err := r.base.Get(ctx, financialConfigDoc)
	if err != nil {
		return domain.FinancialConfig{}, err
	}
	return domain.FinancialConfig{
		ClubCommissionPct:       doc.Data.ClubCommissionPct,
		CommercialCommissionPct: doc.Data.CommercialCommissionPct,
		GatewayPercentFee:       doc.Data.GatewayPercentFee,
		GatewayFixedFee:         doc.Data.GatewayFixedFee,
		ModificationFee:         doc.Data.ModificationFee,
		UpdatedAt:               doc.Data.UpdatedAt,
	}, nil
}

// Save overwrites the global fee document.
func (r *FinancialConfigRepository) Save(ctx context.Context, cfg domain.FinancialConfig) error {
	if r == nil || r.base == nil {
		return errors.New("financial config repository not initialised")
	}
	doc := financialConfigDocument{
		ClubCommissionPct:       cfg.ClubCommissionPct,
		CommercialCommissionPct: cfg.CommercialCommissionPct,
		GatewayPercentFee:       cfg.GatewayPercentFee,
		GatewayFixedFee:         cfg.GatewayFixedFee,
		ModificationFee:         cfg.ModificationFee,
		UpdatedAt:               cfg.UpdatedAt.UTC(),
	}
	_, err := r.base.Set(ctx, financialConfigDoc, doc)
	return err
}
