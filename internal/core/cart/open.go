package cart

import (
	"context"
	"errors"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// DefaultKey is the storage key holding the cart snapshot.
const DefaultKey = "cart"

// Open rehydrates the cart from storage and returns it wrapped with
// write-through persistence and change notifications.
//
// Missing or unreadable data yields an empty cart.
func Open(
	ctx context.Context,
	lookup port.ProductLookup,
	storage port.CartStorage,
	key string,
) *Observable {
	lines := restore(ctx, storage, key)
	mem := NewMemory(lookup, lines)
	return NewObservable(NewWriteThrough(mem, storage, key))
}

func restore(ctx context.Context, storage port.CartStorage, key string) []domain.CartLine {
	const op = "cart.restore"
	log := slog.With("op", op, "key", key)

	data, err := storage.Load(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("no saved cart, starting empty")
			return nil
		}
		log.Warn("failed to read saved cart, starting empty",
			"err", errors.Join(domain.ErrCartPersistence, err))
		return nil
	}

	lines, err := Decode(data)
	if err != nil {
		log.Warn("saved cart is corrupt, starting empty",
			"err", errors.Join(domain.ErrCartPersistence, err))
		return nil
	}

	log.Info("cart restored", "nLines", len(lines))
	return lines
}
