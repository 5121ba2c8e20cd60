package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	pfirestore "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/firestore"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

const seasonCollection = "seasons"

type seasonDocument struct {
	Name           string    `firestore:"name"`
	StartDate      time.Time `firestore:"startDate"`
	EndDate        time.Time `firestore:"endDate"`
	HiddenForClubs bool      `firestore:"hiddenForClubs"`
}

// SeasonRepository implements repositories.SeasonRepository backed by Firestore.
type SeasonRepository struct {
	base *pfirestore.BaseRepository[seasonDocument]
}

var _ repositories.SeasonRepository = (*SeasonRepository)(nil)

// NewSeasonRepository constructs a Firestore-backed season repository.
func NewSeasonRepository(provider *pfirestore.Provider) (*SeasonRepository, error) {
	if provider == nil {
		return nil, errors.New("season repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[seasonDocument](provider, seasonCollection, nil, nil)
	return &SeasonRepository{base: base}, nil
}

// Save upserts the season document.
func (r *SeasonRepository) Save(ctx context.Context, season domain.Season) (domain.Season, error) {
	if r == nil || r.base == nil {
		return domain.Season{}, errors.New("season repository not initialised")
	}
	if strings.TrimSpace(season.ID) == "" {
		return domain.Season{}, errors.New("season repository: season id is required")
	}
	doc := seasonDocument{
		Name:           season.Name,
		StartDate:      season.StartDate.UTC(),
		EndDate:        season.EndDate.UTC(),
		HiddenForClubs: season.HiddenForClubs,
	}
	if _, err := r.base.Set(ctx, season.ID, doc); err != nil {
		return domain.Season{}, err
	}
	return season, nil
}

// FindByID loads one season.
func (r *SeasonRepository) FindByID(ctx context.Context, seasonID string) (domain.Season, error) {
	if r == nil || r.base == nil {
		return domain.Season{}, errors.New("season repository not initialised")
	}
	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return domain.Season{}, errors.New("season repository: season id is required")
	}
	doc, err := r.base.Get(ctx, seasonID)
	if err != nil {
		return domain.Season{}, err
	}
	return toDomainSeason(doc.ID, doc.Data), nil
}

// List returns every season ordered by start date, newest window first.
func (r *SeasonRepository) List(ctx context.Context) ([]domain.Season, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("season repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("startDate", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	seasons := make([]domain.Season, 0, len(docs))
	for _, doc := range docs {
		seasons = append(seasons, toDomainSeason(doc.ID, doc.Data))
	}
	return seasons, nil
}

func toDomainSeason(id string, doc seasonDocument) domain.Season {
	return domain.Season{
		ID:             id,
		Name:           doc.Name,
		StartDate:      doc.StartDate,
		EndDate:        doc.EndDate,
		HiddenForClubs: doc.HiddenForClubs,
	}
}
