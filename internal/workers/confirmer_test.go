package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/storekit/storefront-api/internal/models"
	"github.com/storekit/storefront-api/internal/queue"
)

type fakeOrderRepo struct {
	orders      map[uuid.UUID]*models.Order
	getErr      error
	updateErr   error
	updateCalls int
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	order, ok := f.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	return order, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return false, f.updateErr
	}
	order, ok := f.orders[id]
	if !ok || order.OrderStatus != from {
		return false, nil
	}
	order.OrderStatus = to
	return true, nil
}

func TestProcessOrderCreatedJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	orderID := uuid.New()

	t.Run("confirms pending order", func(t *testing.T) {
		t.Parallel()

		repo := &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{
			orderID: {ID: orderID, UserID: userID, OrderStatus: models.OrderStatusPending},
		}}
		confirmer := NewOrderConfirmer(repo, nil)

		job := queue.NewOrderCreatedJob(orderID, userID)
		if err := confirmer.ProcessOrderCreatedJob(context.Background(), job); err != nil {
			t.Fatalf("ProcessOrderCreatedJob failed: %v", err)
		}
		if got := repo.orders[orderID].OrderStatus; got != models.OrderStatusConfirmed {
			t.Errorf("order status = %q, want %q", got, models.OrderStatusConfirmed)
		}
	})

	t.Run("skips order already past pending", func(t *testing.T) {
		t.Parallel()

		repo := &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{
			orderID: {ID: orderID, UserID: userID, OrderStatus: models.OrderStatusShipped},
		}}
		confirmer := NewOrderConfirmer(repo, nil)

		job := queue.NewOrderCreatedJob(orderID, userID)
		if err := confirmer.ProcessOrderCreatedJob(context.Background(), job); err != nil {
			t.Fatalf("ProcessOrderCreatedJob failed: %v", err)
		}
		if got := repo.orders[orderID].OrderStatus; got != models.OrderStatusShipped {
			t.Errorf("order status = %q, want %q unchanged", got, models.OrderStatusShipped)
		}
	})

	t.Run("rejects mismatched user", func(t *testing.T) {
		t.Parallel()

		repo := &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{
			orderID: {ID: orderID, UserID: uuid.New(), OrderStatus: models.OrderStatusPending},
		}}
		confirmer := NewOrderConfirmer(repo, nil)

		job := queue.NewOrderCreatedJob(orderID, userID)
		if err := confirmer.ProcessOrderCreatedJob(context.Background(), job); err == nil {
			t.Fatal("expected error for mismatched user")
		}
		if repo.updateCalls != 0 {
			t.Errorf("UpdateStatus called %d times, want 0", repo.updateCalls)
		}
	})

	t.Run("propagates load failure", func(t *testing.T) {
		t.Parallel()

		repo := &fakeOrderRepo{getErr: errors.New("connection reset")}
		confirmer := NewOrderConfirmer(repo, nil)

		job := queue.NewOrderCreatedJob(orderID, userID)
		if err := confirmer.ProcessOrderCreatedJob(context.Background(), job); err == nil {
			t.Fatal("expected error when order cannot be loaded")
		}
	})
}

type fakeMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (m *fakeMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *fakeMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *fakeMessage) GetJob() *queue.Job { return m.job }

type fakeJobQueue struct {
	enqueued   []*queue.Job
	enqueueErr error
}

func (q *fakeJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

func (q *fakeJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (q *fakeJobQueue) Close() error                          { return nil }
func (q *fakeJobQueue) HealthCheck(ctx context.Context) error { return nil }

// redeliver round-trips a re-published job through its wire encoding,
// the same way a fresh broker delivery would arrive.
func redeliver(t *testing.T, job *queue.Job) *queue.Job {
	t.Helper()
	body, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshaling job: %v", err)
	}
	var out queue.Job
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("unmarshaling job: %v", err)
	}
	return &out
}

func TestProcessJobRetryBudget(t *testing.T) {
	t.Parallel()

	t.Run("re-publishes failed job with bumped retry count", func(t *testing.T) {
		t.Parallel()

		repo := &fakeOrderRepo{getErr: errors.New("order vanished")}
		q := &fakeJobQueue{}
		confirmer := NewOrderConfirmer(repo, q)

		job := queue.NewOrderCreatedJob(uuid.New(), uuid.New())
		msg := &fakeMessage{job: job}
		if err := confirmer.ProcessJob(context.Background(), msg); err == nil {
			t.Fatal("expected error for failing job")
		}

		if !msg.acked {
			t.Error("original delivery was not acked")
		}
		if len(q.enqueued) != 1 {
			t.Fatalf("enqueued %d jobs, want 1", len(q.enqueued))
		}
		if got := q.enqueued[0].RetryCount; got != 1 {
			t.Errorf("re-published RetryCount = %d, want 1", got)
		}
		if q.enqueued[0].ID != job.ID {
			t.Errorf("re-published job ID = %s, want %s", q.enqueued[0].ID, job.ID)
		}
	})

	t.Run("exhausted budget lands in dead letter queue", func(t *testing.T) {
		t.Parallel()

		repo := &fakeOrderRepo{getErr: errors.New("order vanished")}
		q := &fakeJobQueue{}
		confirmer := NewOrderConfirmer(repo, q)

		job := queue.NewOrderCreatedJob(uuid.New(), uuid.New())
		for i := 0; i < job.MaxRetries; i++ {
			msg := &fakeMessage{job: job}
			if err := confirmer.ProcessJob(context.Background(), msg); err == nil {
				t.Fatalf("delivery %d: expected error", i+1)
			}
			if !msg.acked || msg.nacked {
				t.Fatalf("delivery %d: want ack and re-publish, got acked=%v nacked=%v", i+1, msg.acked, msg.nacked)
			}
			if len(q.enqueued) != i+1 {
				t.Fatalf("delivery %d: enqueued %d jobs, want %d", i+1, len(q.enqueued), i+1)
			}
			job = redeliver(t, q.enqueued[i])
		}

		final := &fakeMessage{job: job}
		if err := confirmer.ProcessJob(context.Background(), final); err == nil {
			t.Fatal("expected error on final delivery")
		}
		if final.acked {
			t.Error("final delivery was acked, want dead letter")
		}
		if !final.nacked || final.requeue {
			t.Errorf("final delivery nacked=%v requeue=%v, want nack without requeue", final.nacked, final.requeue)
		}
		if len(q.enqueued) != job.MaxRetries {
			t.Errorf("enqueued %d jobs after exhaustion, want %d", len(q.enqueued), job.MaxRetries)
		}
	})

	t.Run("dead letters when re-publish fails", func(t *testing.T) {
		t.Parallel()

		repo := &fakeOrderRepo{getErr: errors.New("order vanished")}
		q := &fakeJobQueue{enqueueErr: errors.New("broker gone")}
		confirmer := NewOrderConfirmer(repo, q)

		msg := &fakeMessage{job: queue.NewOrderCreatedJob(uuid.New(), uuid.New())}
		if err := confirmer.ProcessJob(context.Background(), msg); err == nil {
			t.Fatal("expected error when re-publish fails")
		}
		if msg.acked {
			t.Error("delivery was acked despite failed re-publish")
		}
		if !msg.nacked || msg.requeue {
			t.Errorf("nacked=%v requeue=%v, want nack without requeue", msg.nacked, msg.requeue)
		}
	})
}
