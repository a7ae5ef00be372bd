package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/internal/services"
	"github.com/okwareddevnest/eventpass/pkg/monitoring"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

const (
	consumerPrefetch = 10
	jobTimeout       = 30 * time.Second
	maxReconnectWait = 30 * time.Second
)

// Consumer drains the reconcile queue and drives each job through the
// reconciliation service. It reconnects with backoff until its context is
// cancelled.
type Consumer struct {
	url        string
	reconciler services.ReconciliationServiceInterface
	logger     *zap.Logger
}

func NewConsumer(url string, reconciler services.ReconciliationServiceInterface, logger *zap.Logger) *Consumer {
	return &Consumer{url: url, reconciler: reconciler, logger: logger}
}

func (c *Consumer) Start(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Error("broker dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < maxReconnectWait {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(ctx, conn); err != nil {
			c.logger.Warn("consume loop ended, reconnecting", zap.Error(err))
		}
		_ = conn.Close()
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
		c.logger.Warn("set qos failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(ReconcileQueueName, true, false, false, false, nil); err != nil {
		return err
	}
	deliveries, err := ch.Consume(ReconcileQueueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var job ReconcileJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		c.logger.Error("malformed reconcile job dropped", zap.Error(err))
		monitoring.TrackReconcileJob("malformed")
		_ = d.Nack(false, false)
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	_, err := c.reconciler.Reconcile(jobCtx, job.OrderTrackingID,
		services.SourceIPN, job.NotificationType, job.Payload)
	if err == nil {
		monitoring.TrackReconcileJob("ok")
		_ = d.Ack(false)
		return
	}

	if errors.Is(err, utils.ErrIntentNotFound) {
		// Notification for a payment we never created. Nothing to retry.
		c.logger.Warn("reconcile job for unknown intent dropped",
			zap.String("order_tracking_id", job.OrderTrackingID))
		monitoring.TrackReconcileJob("unknown_intent")
		_ = d.Ack(false)
		return
	}

	if !d.Redelivered {
		monitoring.TrackReconcileJob("requeued")
		_ = d.Nack(false, true)
		return
	}

	// Second failure for the same delivery. Drop it with a loud log; the
	// callback path or a manual verify can still settle the payment later.
	c.logger.Error("reconcile job dead-lettered after retry",
		zap.String("order_tracking_id", job.OrderTrackingID),
		zap.String("merchant_reference", job.MerchantReference),
		zap.Error(err))
	monitoring.TrackReconcileJob("dead_letter")
	_ = d.Ack(false)
}
