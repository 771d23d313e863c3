package cart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const defaultSaveTimeout = 3 * time.Second

var _ Store = (*WriteThrough)(nil)

// WriteThrough saves the full cart snapshot after every state-changing
// call, before returning control to the caller.
//
// Save failures are logged and swallowed: durability is best effort.
type WriteThrough struct {
	next    Store
	storage port.CartStorage
	key     string
	timeout time.Duration
}

func NewWriteThrough(next Store, storage port.CartStorage, key string) *WriteThrough {
	return &WriteThrough{
		next:    next,
		storage: storage,
		key:     key,
		timeout: defaultSaveTimeout,
	}
}

func (w *WriteThrough) AddItem(productID string) error {
	if err := w.next.AddItem(productID); err != nil {
		return err
	}
	w.save()
	return nil
}

func (w *WriteThrough) IncreaseQuantity(productID string) error {
	if err := w.next.IncreaseQuantity(productID); err != nil {
		return err
	}
	w.save()
	return nil
}

func (w *WriteThrough) DecreaseQuantity(productID string) error {
	if err := w.next.DecreaseQuantity(productID); err != nil {
		return err
	}
	w.save()
	return nil
}

func (w *WriteThrough) RemoveItem(productID string) {
	w.next.RemoveItem(productID)
	w.save()
}

func (w *WriteThrough) Clear() {
	w.next.Clear()
	w.save()
}

func (w *WriteThrough) Lines() []domain.CartLine {
	return w.next.Lines()
}

func (w *WriteThrough) Totals() domain.Totals {
	return w.next.Totals()
}

func (w *WriteThrough) save() {
	const op = "WriteThrough.save"
	log := slog.With("op", op)

	if err := w.Save(); err != nil {
		log.Error("failed to persist cart", "key", w.key, "err", err)
	}
}

// Save writes the current snapshot and reports failures.
func (w *WriteThrough) Save() error {
	const op = "WriteThrough.Save"

	data, err := Encode(w.next.Lines())
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrCartPersistence, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.storage.Save(ctx, w.key, data); err != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrCartPersistence, err)
	}
	return nil
}
