package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/pos-stock-engine/internal/application/ports"
	"github.com/jhoicas/pos-stock-engine/internal/domain/entity"
)

var _ ports.EventPublisher = (*OutboxRepo)(nil)

// Estados de un mensaje del outbox.
const (
	OutboxStatusPending   = "pending"
	OutboxStatusPublished = "published"
	OutboxStatusFailed    = "failed"
)

// OutboxMaxRetries intentos fallidos tras los cuales el mensaje queda en failed.
const OutboxMaxRetries = 5

// OutboxRepo cola persistente de eventos (tabla stock_outbox). Publish la alimenta después
// del commit; ProcessBatch la consume desde el worker.
type OutboxRepo struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository construye el outbox sobre el pool.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepo {
	return &OutboxRepo{pool: pool}
}

// Publish inserta los eventos como pendientes en un solo batch.
func (r *OutboxRepo) Publish(ctx context.Context, events ...entity.StockEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(`
			INSERT INTO stock_outbox (id, event_type, aggregate_id, actor_id, payload, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, e.Type, e.AggregateID, optionalString(e.ActorID), []byte(e.Payload), OutboxStatusPending, e.OccurredAt,
		)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert outbox message: %w", err)
		}
	}
	return results.Close()
}

// ProcessBatch reclama hasta limit mensajes pendientes con FOR UPDATE SKIP LOCKED (varios
// workers no toman el mismo), los entrega a handle y marca cada uno como publicado o programa
// el reintento con espera lineal. Devuelve cuántos se publicaron.
func (r *OutboxRepo) ProcessBatch(ctx context.Context, limit int, handle func(ctx context.Context, e entity.StockEvent) error) (int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
		SELECT id, event_type, aggregate_id, COALESCE(actor_id, ''), payload, retry_count, created_at
		FROM stock_outbox
		WHERE status = $1
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED`,
		OutboxStatusPending, limit,
	)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox messages: %w", err)
	}
	type claimed struct {
		event   entity.StockEvent
		retries int
	}
	var messages []claimed
	for rows.Next() {
		var c claimed
		var payload []byte
		if err := rows.Scan(&c.event.ID, &c.event.Type, &c.event.AggregateID, &c.event.ActorID, &payload, &c.retries, &c.event.OccurredAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan outbox message: %w", err)
		}
		c.event.Payload = payload
		messages = append(messages, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate outbox messages: %w", err)
	}

	published := 0
	for _, m := range messages {
		if herr := handle(ctx, m.event); herr != nil {
			next := time.Now().Add(time.Duration(m.retries+1) * time.Minute)
			if _, err := tx.Exec(ctx, `
				UPDATE stock_outbox
				SET retry_count = retry_count + 1,
				    last_error = $1,
				    next_retry_at = $2,
				    status = CASE WHEN retry_count + 1 >= $3 THEN $4 ELSE status END
				WHERE id = $5`,
				herr.Error(), next, OutboxMaxRetries, OutboxStatusFailed, m.event.ID,
			); err != nil {
				return published, fmt.Errorf("update failed message: %w", err)
			}
			continue
		}
		if _, err := tx.Exec(ctx,
			`UPDATE stock_outbox SET status = $1, published_at = $2 WHERE id = $3`,
			OutboxStatusPublished, time.Now().UTC(), m.event.ID,
		); err != nil {
			return published, fmt.Errorf("mark published: %w", err)
		}
		published++
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit outbox tx: %w", err)
	}
	return published, nil
}
