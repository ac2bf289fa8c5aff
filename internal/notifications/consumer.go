package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/enums"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/money"
	"github.com/drivelane/appraisal-backend/pkg/outbox"
	"github.com/drivelane/appraisal-backend/pkg/outbox/idempotency"
	"github.com/drivelane/appraisal-backend/pkg/outbox/payloads"
	"github.com/drivelane/appraisal-backend/pkg/outbox/registry"
)

const evaluationNotificationConsumer = "evaluation-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type evaluationReader interface {
	Find(ctx context.Context, id uuid.UUID) (*models.Evaluation, error)
}

// Consumer watches evaluation lifecycle events and turns decisions and
// expirations into in-app notifications for the owning evaluator.
type Consumer struct {
	repo         repository
	evaluations  evaluationReader
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds an evaluation notification consumer.
func NewConsumer(repo repository, evaluations evaluationReader, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if evaluations == nil {
		return nil, fmt.Errorf("evaluations reader required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("evaluations subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		evaluations:  evaluations,
		subscription: subscription,
		idempotency:  manager,
		decoders:     newDecoderRegistry(),
		logg:         logg,
	}, nil
}

func newDecoderRegistry() *registry.DecoderRegistry {
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventEvaluationApproved, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.EvaluationApprovedEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	decoders.Register(enums.EventEvaluationRejected, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.EvaluationRejectedEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	decoders.Register(enums.EventEvaluationExpired, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.EvaluationExpiredEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	return decoders
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	switch eventType {
	case enums.EventEvaluationApproved, enums.EventEvaluationRejected, enums.EventEvaluationExpired:
	default:
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, evaluationNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		_ = c.idempotency.Delete(ctx, evaluationNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	if err := c.handleDecoded(ctx, decoded, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, evaluationNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handleDecoded(ctx context.Context, decoded interface{}, logCtx context.Context) error {
	switch payload := decoded.(type) {
	case *payloads.EvaluationApprovedEvent:
		return c.notifyApproved(ctx, payload, logCtx)
	case *payloads.EvaluationRejectedEvent:
		return c.notifyRejected(ctx, payload, logCtx)
	case *payloads.EvaluationExpiredEvent:
		return c.notifyExpired(ctx, payload, logCtx)
	default:
		c.logg.Info(logCtx, "payload type not handled")
		return nil
	}
}

func (c *Consumer) notifyApproved(ctx context.Context, payload *payloads.EvaluationApprovedEvent, logCtx context.Context) error {
	recipient, err := c.evaluatorFor(ctx, payload.EvaluationID)
	if err != nil {
		return err
	}
	notification := &models.Notification{
		RecipientID:  recipient,
		EvaluationID: payload.EvaluationID,
		Type:         enums.NotificationTypeDecision,
		Title:        "Evaluation approved",
		Message: fmt.Sprintf("Evaluation %s was approved at %s, valid until %s.",
			payload.EvaluationID, formatMoney(payload.ApprovedValue), payload.ValidUntil.Format("2006-01-02 15:04 MST")),
		Link: evaluationLink(payload.EvaluationID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "evaluator notified of approval")
	return nil
}

func (c *Consumer) notifyRejected(ctx context.Context, payload *payloads.EvaluationRejectedEvent, logCtx context.Context) error {
	recipient, err := c.evaluatorFor(ctx, payload.EvaluationID)
	if err != nil {
		return err
	}
	notification := &models.Notification{
		RecipientID:  recipient,
		EvaluationID: payload.EvaluationID,
		Type:         enums.NotificationTypeDecision,
		Title:        "Evaluation rejected",
		Message:      fmt.Sprintf("Evaluation %s was rejected. Reason: %s", payload.EvaluationID, payload.Reason),
		Link:         evaluationLink(payload.EvaluationID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "evaluator notified of rejection")
	return nil
}

func (c *Consumer) notifyExpired(ctx context.Context, payload *payloads.EvaluationExpiredEvent, logCtx context.Context) error {
	recipient, err := c.evaluatorFor(ctx, payload.EvaluationID)
	if err != nil {
		return err
	}
	notification := &models.Notification{
		RecipientID:  recipient,
		EvaluationID: payload.EvaluationID,
		Type:         enums.NotificationTypeExpiry,
		Title:        "Evaluation expired",
		Message:      fmt.Sprintf("Approved evaluation %s passed its validity window and is now expired.", payload.EvaluationID),
		Link:         evaluationLink(payload.EvaluationID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "evaluator notified of expiry")
	return nil
}

func (c *Consumer) evaluatorFor(ctx context.Context, evaluationID uuid.UUID) (uuid.UUID, error) {
	evaluation, err := c.evaluations.Find(ctx, evaluationID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load evaluation %s: %w", evaluationID, err)
	}
	if evaluation.EvaluatorID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("evaluation %s has no evaluator", evaluationID)
	}
	return evaluation.EvaluatorID, nil
}

func evaluationLink(evaluationID uuid.UUID) *string {
	link := fmt.Sprintf("/evaluations/%s", evaluationID)
	return &link
}

func formatMoney(value money.Value) string {
	return fmt.Sprintf("R$ %s", value.String())
}
