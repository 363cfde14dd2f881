package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/copperkettle/pennybot/app/eventbus"
	economyservice "github.com/copperkettle/pennybot/app/modules/economy/application"
	economyhandlers "github.com/copperkettle/pennybot/app/modules/economy/infrastructure/handlers"
	economydb "github.com/copperkettle/pennybot/app/modules/economy/infrastructure/repositories"
	economyrouter "github.com/copperkettle/pennybot/app/modules/economy/infrastructure/router"
	"github.com/copperkettle/pennybot/config"
	"github.com/copperkettle/pennybot/database"
	"github.com/copperkettle/pennybot/observability"
)

const economyStream = "economy"

// App wires the economy module: Firestore-backed record store, NATS event
// bus, command router, and the metrics endpoint.
type App struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Router *message.Router

	firestoreClient *firestore.Client
	bus             eventbus.EventBus
	metricsServer   *http.Server
}

// NewApp initializes the application from configuration.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	client, err := database.NewFirestoreClient(ctx, cfg.Firestore.ProjectID, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize firestore: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("initialize event bus: %w", err)
	}
	if err := bus.CreateStream(ctx, economyStream, "economy.>"); err != nil {
		client.Close()
		bus.Close()
		return nil, fmt.Errorf("provision stream: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewEconomyMetrics(registry)

	store := economydb.NewFirestoreStore(client, cfg.Firestore.Collection, economydb.DefaultSkeleton, logger)
	service := economyservice.NewEconomyService(
		store,
		bus,
		logger,
		metrics,
		rate.Limit(cfg.Throttle.CommandsPerSecond),
		cfg.Throttle.Burst,
	)
	handlers := economyhandlers.NewHandlers(service, bus, logger)

	router, err := economyrouter.NewRouter(logger, bus, handlers, registry)
	if err != nil {
		client.Close()
		bus.Close()
		return nil, fmt.Errorf("initialize router: %w", err)
	}

	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &App{
		Cfg:             cfg,
		Logger:          logger,
		Router:          router,
		firestoreClient: client,
		bus:             bus,
		metricsServer: &http.Server{
			Addr:    cfg.Observability.MetricsAddress,
			Handler: mux,
		},
	}, nil
}

// Run serves metrics and runs the command router until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	go func() {
		a.Logger.Info("metrics listening", slog.String("address", a.metricsServer.Addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	return a.Router.Run(ctx)
}

// Close shuts down the router, event bus, Firestore client and metrics
// server.
func (a *App) Close() {
	if err := a.Router.Close(); err != nil {
		a.Logger.Error("failed to close router", slog.Any("error", err))
	}
	if err := a.bus.Close(); err != nil {
		a.Logger.Error("failed to close event bus", slog.Any("error", err))
	}
	if err := a.firestoreClient.Close(); err != nil {
		a.Logger.Error("failed to close firestore client", slog.Any("error", err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("failed to shut down metrics server", slog.Any("error", err))
	}
}
