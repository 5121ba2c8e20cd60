package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/auth"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/config"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Orders     services.OrderService
	Batches    services.BatchService
	Accounting services.AccountingService
	GiftCodes  services.GiftCodeService
	Incidents  services.IncidentService
	Clubs      services.ClubService
	System     services.SystemService
}

// ContainerDeps carries the externally constructed collaborators the service
// layer needs beyond the repository registry. Payments and Events are optional
// so tests and offline tooling can run without Stripe or Pub/Sub.
type ContainerDeps struct {
	Payments services.PaymentProvider
	Events   services.OrderEventPublisher
	Sessions services.SessionIssuer
	Logger   *zap.Logger
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides the
// Firestore-backed registry, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, deps ContainerDeps) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(ctx, reg, cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, reg repositories.Registry, cfg config.Config, deps ContainerDeps) (Services, error) {
	var svc Services

	mailBuilder := services.NewMailBuilder()

	giftCodeSvc, err := services.NewGiftCodeService(services.GiftCodeServiceDeps{
		GiftCodes: reg.GiftCodes(),
		Clock:     time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build gift code service: %w", err)
	}
	svc.GiftCodes = giftCodeSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:          reg.Orders(),
		Clubs:           reg.Clubs(),
		Mail:            reg.Mail(),
		GiftCodes:       giftCodeSvc,
		Payments:        deps.Payments,
		MailBuilder:     mailBuilder,
		Clock:           time.Now,
		Events:          deps.Events,
		Logger:          serviceLogger(deps.Logger, "orders"),
		FinancialConfig: reg.FinancialConfig(),
		ModificationFee: cfg.Fees.ModificationFee,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	batchSvc, err := services.NewBatchService(services.BatchServiceDeps{
		Orders:      reg.Orders(),
		Clubs:       reg.Clubs(),
		Mail:        reg.Mail(),
		MailBuilder: mailBuilder,
		Clock:       time.Now,
		Events:      deps.Events,
		Logger:      serviceLogger(deps.Logger, "batches"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build batch service: %w", err)
	}
	svc.Batches = batchSvc

	accountingSvc, err := services.NewAccountingService(services.AccountingServiceDeps{
		Orders:          reg.Orders(),
		Clubs:           reg.Clubs(),
		Seasons:         reg.Seasons(),
		FinancialConfig: reg.FinancialConfig(),
		Clock:           time.Now,
		DefaultConfig: services.FinancialConfig{
			ClubCommissionPct:       cfg.Fees.ClubCommissionPct,
			CommercialCommissionPct: cfg.Fees.CommercialCommissionPct,
			GatewayPercentFee:       cfg.Fees.GatewayPercentFee,
			GatewayFixedFee:         cfg.Fees.GatewayFixedFee,
			ModificationFee:         cfg.Fees.ModificationFee,
		},
	})
	if err != nil {
		return Services{}, fmt.Errorf("build accounting service: %w", err)
	}
	svc.Accounting = accountingSvc

	incidentSvc, err := services.NewIncidentService(services.IncidentServiceDeps{
		Orders: reg.Orders(),
		Clubs:  reg.Clubs(),
		Clock:  time.Now,
		Events: deps.Events,
		Logger: serviceLogger(deps.Logger, "incidents"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build incident service: %w", err)
	}
	svc.Incidents = incidentSvc

	clubSvc, err := services.NewClubService(services.ClubServiceDeps{
		Clubs:         reg.Clubs(),
		Sessions:      deps.Sessions,
		Clock:         time.Now,
		HashPassword:  auth.HashPassword,
		CheckPassword: auth.CheckPassword,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build club service: %w", err)
	}
	svc.Clubs = clubSvc

	systemSvc, err := services.NewSystemService(reg.Health())
	if err != nil {
		return Services{}, fmt.Errorf("build system service: %w", err)
	}
	svc.System = systemSvc

	return svc, nil
}

// serviceLogger adapts a zap logger into the plain logging hook the service layer accepts.
func serviceLogger(logger *zap.Logger, name string) func(ctx context.Context, event string, fields map[string]any) {
	if logger == nil {
		return nil
	}
	named := logger.Named(name)
	return func(_ context.Context, event string, fields map[string]any) {
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		named.Debug(event, zapFields...)
	}
}
