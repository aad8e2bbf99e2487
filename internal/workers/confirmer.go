package workers

import (
	"context"
	"fmt"
	"log"

	"github.com/storekit/storefront-api/internal/database"
	"github.com/storekit/storefront-api/internal/models"
	"github.com/storekit/storefront-api/internal/queue"
)

// OrderConfirmer processes order created events, moving fresh orders from
// pending to confirmed once their placement has been recorded.
type OrderConfirmer struct {
	orderRepo database.OrderRepositoryInterface
	jobQueue  queue.JobQueue
}

// NewOrderConfirmer creates a new order confirmer. The queue is used to
// re-publish failed jobs with their bumped retry count.
func NewOrderConfirmer(orderRepo database.OrderRepositoryInterface, jobQueue queue.JobQueue) *OrderConfirmer {
	return &OrderConfirmer{
		orderRepo: orderRepo,
		jobQueue:  jobQueue,
	}
}

// ProcessOrderCreatedJob confirms a newly placed order
func (c *OrderConfirmer) ProcessOrderCreatedJob(ctx context.Context, job *queue.Job) error {
	order, err := c.orderRepo.GetByID(ctx, job.OrderID)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}

	// Verify the order belongs to the user that placed it
	if order.UserID != job.UserID {
		return fmt.Errorf("order does not belong to user")
	}

	moved, err := c.orderRepo.UpdateStatus(ctx, job.OrderID, models.OrderStatusPending, models.OrderStatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to confirm order: %w", err)
	}
	if !moved {
		// Status already advanced past pending, nothing to do
		log.Printf("Order %s already past pending (status=%s), skipping", order.ID, order.OrderStatus)
		return nil
	}

	log.Printf("Confirmed order %s for user %s", order.ID, order.UserID)
	return nil
}

// ProcessJob processes a job based on its type
func (c *OrderConfirmer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch job.Type {
	case queue.JobTypeOrderCreated:
		if err := c.ProcessOrderCreatedJob(ctx, job); err != nil {
			return c.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError applies the retry policy for a failed job. A broker
// redelivery would carry the original body with its stale retry count,
// so retries are re-published as fresh messages instead: the bumped
// count survives the round trip and the budget actually runs out.
func (c *OrderConfirmer) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if job.CanRetry() && c.jobQueue != nil {
		retryJob := &queue.Job{
			ID:         job.ID,
			Type:       job.Type,
			OrderID:    job.OrderID,
			UserID:     job.UserID,
			Metadata:   job.Metadata,
			CreatedAt:  job.CreatedAt,
			RetryCount: job.RetryCount + 1,
			MaxRetries: job.MaxRetries,
		}

		if enqueueErr := c.jobQueue.Enqueue(ctx, retryJob); enqueueErr != nil {
			log.Printf("Failed to re-enqueue job %s: %v, sending to DLQ", job.ID, enqueueErr)
			if nackErr := msg.Nack(false); nackErr != nil {
				log.Printf("Failed to nack job to DLQ: %v", nackErr)
			}
			return fmt.Errorf("job failed, re-enqueue failed: %w", enqueueErr)
		}

		// Ack the original delivery; the retry travels as the fresh message
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job after re-enqueue: %v", ackErr)
		}

		log.Printf("Order job %s failed (attempt %d/%d): %v, re-enqueued for retry", job.ID, retryJob.RetryCount, job.MaxRetries, err)
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	// Retry budget exhausted, send to DLQ
	log.Printf("Order job %s failed after %d retries: %v, sending to DLQ", job.ID, job.RetryCount, err)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
