package service

import (
	"context"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.PaymentEventsSaver = (*EventsService)(nil)

// EventsService persists the payment events read from the bus.
type EventsService struct {
	storage port.PaymentEventsStorage
}

func NewEventsService(storage port.PaymentEventsStorage) EventsService {
	return EventsService{storage}
}

func (s EventsService) SavePaymentEvents(ctx context.Context, evs []domain.PaymentEvent) error {
	const op = "EventsService.SavePaymentEvents"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(evs) == 0 {
		return nil
	}

	err := s.storage.StoreEvents(ctx, evs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
