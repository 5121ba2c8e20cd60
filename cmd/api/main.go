package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/di"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/handlers"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/payments"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/auth"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/config"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/events"
	pfirestore "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/firestore"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/idempotency"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/observability"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/secrets"
	platformstorage "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/storage"
	firestoreRepo "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories/firestore"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	fetcher, err := secrets.NewFetcher(ctx,
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithDefaultProject(os.Getenv("GOOGLE_CLOUD_PROJECT")),
	)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.ResolveSecret)),
	)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	var signedURLClient *platformstorage.Client
	if credFile := strings.TrimSpace(cfg.Firebase.CredentialsFile); credFile != "" {
		signer, err := platformstorage.NewServiceAccountSignerFromFile(credFile)
		if err != nil {
			logger.Fatal("failed to load storage signer key", zap.Error(err))
		}
		signedURLClient, err = platformstorage.NewClient(signer)
		if err != nil {
			logger.Fatal("failed to initialise signed url client", zap.Error(err))
		}
	} else {
		logger.Warn("no service account credentials configured; signed uploads disabled")
	}

	sessionManager, err := auth.NewClubSessionManager(cfg.ClubAuth.JWTSecret,
		auth.WithSessionTTL(cfg.ClubAuth.SessionTTL),
	)
	if err != nil {
		logger.Fatal("failed to initialise club session manager", zap.Error(err))
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier)

	var paymentProvider services.PaymentProvider
	if strings.TrimSpace(cfg.Stripe.APIKey) != "" {
		paymentsLogger := logger.Named("payments")
		stripeProvider, err := payments.NewStripeProvider(payments.StripeProviderConfig{
			APIKey: cfg.Stripe.APIKey,
			Logger: func(ctx context.Context, event string, fields map[string]any) {
				zFields := make([]zap.Field, 0, len(fields)+1)
				zFields = append(zFields, zap.String("event", event))
				for k, v := range fields {
					zFields = append(zFields, zap.Any(k, v))
				}
				paymentsLogger.Debug("stripe log", zFields...)
			},
		})
		if err != nil {
			logger.Fatal("failed to initialise stripe payment provider", zap.Error(err))
		}
		paymentProvider = stripeProvider
	} else {
		logger.Warn("stripe api key not configured; card checkout disabled")
	}

	var eventPublisher services.OrderEventPublisher
	var pubsubTopic *pubsub.Topic
	if cfg.Events.ProjectID != "" && cfg.Events.Topic != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		pubsubTopic = pubsubClient.Topic(cfg.Events.Topic)
		eventPublisher, err = events.NewPubSubOrderEventPublisher(pubsubTopic)
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
	} else {
		logger.Warn("pubsub topic not configured; order events disabled")
	}

	idempotencyStore := idempotency.NewFirestoreStore(firestoreClient)
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(logger.Named("idempotency")),
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	var cleanupTicker *time.Ticker
	if cfg.Idempotency.CleanupInterval > 0 {
		cleanupTicker = time.NewTicker(cfg.Idempotency.CleanupInterval)
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("idempotency")
			for {
				select {
				case <-cleanupTicker.C:
					runCtx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
					removed, err := idempotencyStore.CleanupExpired(runCtx, time.Now().UTC(), cfg.Idempotency.CleanupBatchSize)
					cancel()
					if err != nil {
						cleanupLogger.Error("idempotency cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("idempotency cleanup removed records", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	registry, err := firestoreRepo.NewRegistry(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise repository registry", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg, registry, di.ContainerDeps{
		Payments: paymentProvider,
		Events:   eventPublisher,
		Sessions: sessionManager,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to build service container", zap.Error(err))
	}
	svc := container.Services

	publicHandlers := handlers.NewPublicHandlers(svc.Orders, svc.GiftCodes, svc.Clubs)
	clubPortalHandlers := handlers.NewClubPortalHandlers(svc.Clubs, svc.Batches, svc.Accounting, auth.RequireClubSession(sessionManager))
	adminOrderHandlers := handlers.NewAdminOrderHandlers(svc.Orders, svc.Incidents)
	adminBatchHandlers := handlers.NewAdminBatchHandlers(svc.Batches, svc.Clubs, svc.Accounting)
	adminClubHandlers := handlers.NewAdminClubHandlers(svc.Clubs)
	adminAccountingHandlers := handlers.NewAdminAccountingHandlers(svc.Accounting)
	adminGiftCodeHandlers := handlers.NewAdminGiftCodeHandlers(svc.GiftCodes)
	uploadHandlers := handlers.NewUploadHandlers(signedURLClient, cfg.Storage.ImagesBucket, cfg.Storage.ExportsBucket, cfg.Storage.SignedURLTTL)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthSystemService(svc.System),
	)

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
		idempotencyMiddleware,
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPublicRoutes(func(r chi.Router) {
			publicHandlers.Routes(r)
			uploadHandlers.PublicRoutes(r)
		}),
		handlers.WithClubRoutes(clubPortalHandlers.Routes),
		handlers.WithAdminRoutes(func(r chi.Router) {
			adminOrderHandlers.Routes(r)
			adminBatchHandlers.Routes(r)
			adminClubHandlers.Routes(r)
			adminAccountingHandlers.Routes(r)
			adminGiftCodeHandlers.Routes(r)
			uploadHandlers.AdminRoutes(r)
		}),
		handlers.WithAdminMiddlewares(authenticator.RequireAdmin(auth.RoleAdmin, auth.RoleStaff)),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("fotoesport merch api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if cleanupTicker != nil {
		cleanupTicker.Stop()
	}
	cleanupCancel()
	cleanupWG.Wait()

	if pubsubTopic != nil {
		pubsubTopic.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firestore.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firebase.ProjectID)
}
