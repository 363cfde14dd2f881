package economyrouter

import (
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"

	economyevents "github.com/copperkettle/pennybot/app/modules/economy/events"
	economyhandlers "github.com/copperkettle/pennybot/app/modules/economy/infrastructure/handlers"
)

// NewRouter builds the economy module's watermill router: middleware,
// prometheus instrumentation, and one handler per command topic.
func NewRouter(
	logger *slog.Logger,
	subscriber message.Subscriber,
	handlers *economyhandlers.EconomyHandlers,
	registry *prometheus.Registry,
) (*message.Router, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          wmLogger,
		}.Middleware,
	)

	if registry != nil {
		builder := wmetrics.NewPrometheusMetricsBuilder(registry, "pennybot", "router")
		builder.AddPrometheusRouterMetrics(router)
	}

	for _, h := range []struct {
		name    string
		topic   string
		handler message.NoPublishHandlerFunc
	}{
		{"economy_award", economyevents.TopicAwardRequest, handlers.HandleAwardRequest},
		{"economy_penalty", economyevents.TopicPenaltyRequest, handlers.HandlePenaltyRequest},
		{"economy_deposit", economyevents.TopicDepositRequest, handlers.HandleDepositRequest},
		{"economy_withdraw", economyevents.TopicWithdrawRequest, handlers.HandleWithdrawRequest},
		{"economy_transfer", economyevents.TopicTransferRequest, handlers.HandleTransferRequest},
		{"economy_daily", economyevents.TopicDailyRequest, handlers.HandleDailyRequest},
	} {
		router.AddNoPublisherHandler(h.name, h.topic, subscriber, h.handler)
	}

	return router, nil
}
