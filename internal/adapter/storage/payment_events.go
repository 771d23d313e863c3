package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.PaymentEventsStorage = (*PaymentEventsRepository)(nil)

type PaymentEventsRepository struct {
	sqldb sqldb
}

func NewPaymentEventsRepository(sqldb sqldb) PaymentEventsRepository {
	return PaymentEventsRepository{sqldb}
}

// StoreEvents inserts the batch in one transaction. Events already stored
// are skipped, so redelivered batches are harmless.
func (r PaymentEventsRepository) StoreEvents(
	ctx context.Context, evs []domain.PaymentEvent,
) error {
	const op = "PaymentEventsRepository.StoreEvents"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO payment_events (
			event_id, intent_id, type, status, amount,
			currency, email, customer_name, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING;`

	var inserted int64
	err := inTx(ctx, r.sqldb, op, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare stmt: %w", err)
		}
		defer func() {
			if err := stmt.Close(); err != nil {
				log.Error("failed to close prepared stmt", "err", err)
			}
		}()

		for _, ev := range evs {
			res, err := stmt.ExecContext(ctx,
				ev.ID, ev.IntentID, ev.Type, string(ev.Status), ev.Amount,
				ev.Currency, ev.Email, ev.CustomerName, ev.OccurredAt,
			)
			if err != nil {
				return fmt.Errorf("failed to exec: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += n
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("payment events stored", "nEvents", len(evs), "nInserted", inserted)
	return nil
}
