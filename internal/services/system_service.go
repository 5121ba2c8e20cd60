package services

import (
	"context"
	"errors"

	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

type systemService struct {
	health repositories.HealthRepository
}

// NewSystemService wires the health repository into a SystemService.
func NewSystemService(health repositories.HealthRepository) (SystemService, error) {
	if health == nil {
		return nil, errors.New("system service: health repository is required")
	}
	return &systemService{health: health}, nil
}

func (s *systemService) Health(ctx context.Context) (HealthReport, error) {
	return s.health.Collect(ctx)
}
