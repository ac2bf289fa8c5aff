package notifications

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/enums"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/money"
	"github.com/drivelane/appraisal-backend/pkg/outbox"
	"github.com/drivelane/appraisal-backend/pkg/outbox/idempotency"
	"github.com/drivelane/appraisal-backend/pkg/outbox/payloads"
)

type fakeEvaluationReader struct {
	evaluation *models.Evaluation
	err        error
}

func (f *fakeEvaluationReader) Find(ctx context.Context, id uuid.UUID) (*models.Evaluation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.evaluation, nil
}

type fakeIdempotencyStore struct {
	keys map[string]bool
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	if f.keys[key] {
		return "1", nil
	}
	return "", nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "appraisal:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func newTestConsumer(t *testing.T, repo *fakeRepository, reader *fakeEvaluationReader) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(&fakeIdempotencyStore{}, time.Hour)
	if err != nil {
		t.Fatalf("failed to build idempotency manager: %v", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "notifications-test",
		Output:      io.Discard,
	})
	return &Consumer{
		repo:        repo,
		evaluations: reader,
		idempotency: manager,
		decoders:    newDecoderRegistry(),
		logg:        logg,
	}
}

func envelopeMessage(t *testing.T, eventType enums.OutboxEventType, payload any) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         uuid.NewString(),
		Data:       raw,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func TestConsumerNotifiesEvaluatorOnApproval(t *testing.T) {
	evaluationID := uuid.New()
	evaluatorID := uuid.New()
	repo := &fakeRepository{}
	reader := &fakeEvaluationReader{evaluation: &models.Evaluation{ID: evaluationID, EvaluatorID: evaluatorID}}
	consumer := newTestConsumer(t, repo, reader)

	msg := envelopeMessage(t, enums.EventEvaluationApproved, payloads.EvaluationApprovedEvent{
		EvaluationID:  evaluationID,
		ApproverID:    uuid.New(),
		ApprovedValue: money.MustFromString("45000.00"),
		ApprovedAt:    time.Now(),
		ValidUntil:    time.Now().Add(72 * time.Hour),
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	created := repo.created[0]
	if created.RecipientID != evaluatorID {
		t.Fatalf("notification addressed to %s, want evaluator %s", created.RecipientID, evaluatorID)
	}
	if created.Type != enums.NotificationTypeDecision {
		t.Fatalf("unexpected notification type %s", created.Type)
	}
	if created.EvaluationID != evaluationID {
		t.Fatalf("unexpected evaluation id %s", created.EvaluationID)
	}
}

func TestConsumerSkipsUnrelatedEvents(t *testing.T) {
	repo := &fakeRepository{}
	consumer := newTestConsumer(t, repo, &fakeEvaluationReader{})

	msg := envelopeMessage(t, enums.EventEvaluationCreated, payloads.EvaluationCreatedEvent{
		EvaluationID: uuid.New(),
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for unrelated event, got %+v", result)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no notifications, got %d", len(repo.created))
	}
}

func TestConsumerAcksDuplicateEvents(t *testing.T) {
	evaluationID := uuid.New()
	repo := &fakeRepository{}
	reader := &fakeEvaluationReader{evaluation: &models.Evaluation{ID: evaluationID, EvaluatorID: uuid.New()}}
	consumer := newTestConsumer(t, repo, reader)

	msg := envelopeMessage(t, enums.EventEvaluationExpired, payloads.EvaluationExpiredEvent{
		EvaluationID: evaluationID,
		ValidUntil:   time.Now().Add(-time.Hour),
		ExpiredAt:    time.Now(),
	})

	first := consumer.process(context.Background(), msg)
	if !first.ack {
		t.Fatalf("expected first delivery acked, got %+v", first)
	}
	second := consumer.process(context.Background(), msg)
	if !second.ack {
		t.Fatalf("expected duplicate delivery acked, got %+v", second)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected a single notification, got %d", len(repo.created))
	}
}

func TestConsumerNacksWhenEvaluationLookupFails(t *testing.T) {
	repo := &fakeRepository{}
	reader := &fakeEvaluationReader{err: context.DeadlineExceeded}
	consumer := newTestConsumer(t, repo, reader)

	msg := envelopeMessage(t, enums.EventEvaluationRejected, payloads.EvaluationRejectedEvent{
		EvaluationID: uuid.New(),
		ApproverID:   uuid.New(),
		Reason:       "mileage inconsistent with records",
		RejectedAt:   time.Now(),
	})

	result := consumer.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("expected nack on lookup failure, got %+v", result)
	}

	// the idempotency mark is rolled back so a redelivery can succeed
	reader.err = nil
	reader.evaluation = &models.Evaluation{ID: uuid.New(), EvaluatorID: uuid.New()}
	retry := consumer.process(context.Background(), msg)
	if !retry.ack {
		t.Fatalf("expected redelivery to succeed, got %+v", retry)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected notification on retry, got %d", len(repo.created))
	}
}
