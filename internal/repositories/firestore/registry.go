package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/firestore"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the accessor interface.
type Registry struct {
	provider        *pfirestore.Provider
	orders          *OrderRepository
	clubs           *ClubRepository
	giftCodes       *GiftCodeRepository
	seasons         *SeasonRepository
	financialConfig *FinancialConfigRepository
	mail            *MailRepository
	health          repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry wires every repository against the shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	clubs, err := NewClubRepository(provider)
	if err != nil {
		return nil, err
	}
	giftCodes, err := NewGiftCodeRepository(provider)
	if err != nil {
		return nil, err
	}
	seasons, err := NewSeasonRepository(provider)
	if err != nil {
		return nil, err
	}
	financialConfig, err := NewFinancialConfigRepository(provider)
	if err != nil {
		return nil, err
	}
	mail, err := NewMailRepository(provider)
	if err != nil {
		return nil, err
	}
	health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
		{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				_, err := provider.Client(ctx)
				return err
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:        provider,
		orders:          orders,
		clubs:           clubs,
		giftCodes:       giftCodes,
		seasons:         seasons,
		financialConfig: financialConfig,
		mail:            mail,
		health:          health,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// RunInTx executes fn directly. Multi-document invariants are covered by the
// dedicated transactional repository methods (batch-wide status rewrites and
// the counter compare-and-set), which carry their own Firestore transactions.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("registry: transaction function is required")
	}
	return fn(ctx)
}

func (r *Registry) Orders() repositories.OrderRepository           { return r.orders }
func (r *Registry) Clubs() repositories.ClubRepository             { return r.clubs }
func (r *Registry) GiftCodes() repositories.GiftCodeRepository     { return r.giftCodes }
func (r *Registry) Seasons() repositories.SeasonRepository         { return r.seasons }
func (r *Registry) FinancialConfig() repositories.FinancialConfigRepository {
	return r.financialConfig
}
func (r *Registry) Mail() repositories.MailRepository     { return r.mail }
func (r *Registry) Health() repositories.HealthRepository { return r.health }
