package queue_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/internal/infra"
	"github.com/okwareddevnest/eventpass/internal/queue"
	"github.com/okwareddevnest/eventpass/internal/services"
)

var Module = fx.Provide(
	providePublisher, provideConsumer,
)

func providePublisher(cfg *infra.Config, logger *zap.Logger) (queue.Publisher, error) {
	return queue.NewAMQPPublisher(cfg.AmqpURL, logger)
}

func provideConsumer(cfg *infra.Config, reconciler services.ReconciliationServiceInterface, logger *zap.Logger) *queue.Consumer {
	return queue.NewConsumer(cfg.AmqpURL, reconciler, logger)
}
