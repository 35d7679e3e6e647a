package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/lankapos/pos-backend/pkg/config"
	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	"github.com/lankapos/pos-backend/pkg/logger"
)

type stubRepo struct {
	events    []models.OutboxEvent
	fetchErr  error
	published []uuid.UUID
	failed    []uuid.UUID
}

func (s *stubRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if limit < len(s.events) {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func (s *stubRepo) MarkPublished(id uuid.UUID) error {
	s.published = append(s.published, id)
	return nil
}

func (s *stubRepo) MarkFailed(id uuid.UUID, err error) error {
	s.failed = append(s.failed, id)
	return nil
}

type stubPublisher struct {
	failFor map[uuid.UUID]error
	sent    []string
}

func (s *stubPublisher) Publish(_ context.Context, data []byte, attributes map[string]string) (string, error) {
	id := attributes["aggregate_id"]
	if s.failFor != nil {
		if aggID, err := uuid.Parse(id); err == nil {
			if pubErr, ok := s.failFor[aggID]; ok {
				return "", pubErr
			}
		}
	}
	s.sent = append(s.sent, id)
	return "msg-" + id, nil
}

func newTestService(t *testing.T, repo *stubRepo, pub *stubPublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func saleEvent(aggregateID uuid.UUID) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventSaleCompleted,
		AggregateType: enums.AggregateSale,
		AggregateID:   aggregateID,
		Payload:       json.RawMessage(`{"version":1}`),
	}
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	t.Parallel()

	first := saleEvent(uuid.New())
	second := saleEvent(uuid.New())
	repo := &stubRepo{events: []models.OutboxEvent{first, second}}
	pub := &stubPublisher{}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(pub.sent) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(pub.sent))
	}
	if len(repo.published) != 2 {
		t.Fatalf("expected 2 published marks, got %d", len(repo.published))
	}
	if repo.published[0] != first.ID || repo.published[1] != second.ID {
		t.Fatal("events marked published out of order")
	}
}

func TestProcessBatchMarksFailureAndContinues(t *testing.T) {
	t.Parallel()

	broken := saleEvent(uuid.New())
	healthy := saleEvent(uuid.New())
	repo := &stubRepo{events: []models.OutboxEvent{broken, healthy}}
	pub := &stubPublisher{failFor: map[uuid.UUID]error{broken.AggregateID: errors.New("topic unavailable")}}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != broken.ID {
		t.Fatalf("expected broken event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != healthy.ID {
		t.Fatalf("expected healthy event marked published, got %v", repo.published)
	}
}

func TestProcessBatchEmptyIsIdle(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubPublisher{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
}
