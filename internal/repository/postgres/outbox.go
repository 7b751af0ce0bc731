package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/internal/repository"
	"github.com/adsdental/clinic-api/pkg/apperror"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{BaseRepository: NewBaseRepository(db)}
}

// GetPendingEvents returns the oldest unprocessed events. Delivery is
// at-least-once: a second processor instance may pick up the same batch,
// and subscribers are expected to deduplicate on event ID.
func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, event_type, payload, status, error_message, retry_count, created_at, processed_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	var events []*model.OutboxEvent
	if err := r.db.SelectContext(ctx, &events, query, model.OutboxStatusPending, limit); err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to fetch pending outbox events: %w", err))
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE outbox_events
			SET status = $1,
			    error_message = $2,
			    retry_count = CASE WHEN $1 = 'FAILED' THEN retry_count + 1 ELSE retry_count END,
			    processed_at = CASE WHEN $1 = 'PROCESSED' THEN $3 ELSE processed_at END
			WHERE id = $4
		`
		res, err := tx.ExecContext(ctx, query, status, errMsg, time.Now(), id)
		if err != nil {
			return apperror.Storage(fmt.Errorf("failed to update outbox event: %w", err))
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return apperror.Storage(fmt.Errorf("failed to read outbox update result: %w", err))
		}
		if rows == 0 {
			return apperror.NotFound("outbox event")
		}
		return nil
	})
}
