package cart

import (
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
)

type EventKind string

const (
	EventAdded     EventKind = "added"
	EventIncreased EventKind = "increased"
	EventDecreased EventKind = "decreased"
	EventRemoved   EventKind = "removed"
	EventCleared   EventKind = "cleared"
)

// An Event is published after each cart mutation.
type Event struct {
	Kind      EventKind
	ProductID string
	Totals    domain.Totals
}

type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

var _ Store = (*Observable)(nil)

// Observable notifies subscribers after every successful mutation of the
// wrapped store. Failed mutations publish nothing.
type Observable struct {
	next Store

	mu     sync.Mutex
	subs   []subscription
	nextID int
}

func NewObservable(next Store) *Observable {
	return &Observable{next: next}
}

// Subscribe registers l and returns a function removing it.
//
// Listeners run synchronously in subscription order.
func (o *Observable) Subscribe(l Listener) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++
	o.subs = append(o.subs, subscription{id: id, fn: l})

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.subs = slices.DeleteFunc(o.subs, func(s subscription) bool {
			return s.id == id
		})
	}
}

func (o *Observable) AddItem(productID string) error {
	if err := o.next.AddItem(productID); err != nil {
		return err
	}
	o.publish(EventAdded, productID)
	return nil
}

func (o *Observable) IncreaseQuantity(productID string) error {
	if err := o.next.IncreaseQuantity(productID); err != nil {
		return err
	}
	o.publish(EventIncreased, productID)
	return nil
}

func (o *Observable) DecreaseQuantity(productID string) error {
	if err := o.next.DecreaseQuantity(productID); err != nil {
		return err
	}
	o.publish(EventDecreased, productID)
	return nil
}

func (o *Observable) RemoveItem(productID string) {
	o.next.RemoveItem(productID)
	o.publish(EventRemoved, productID)
}

func (o *Observable) Clear() {
	o.next.Clear()
	o.publish(EventCleared, "")
}

func (o *Observable) Lines() []domain.CartLine {
	return o.next.Lines()
}

func (o *Observable) Totals() domain.Totals {
	return o.next.Totals()
}

func (o *Observable) publish(kind EventKind, productID string) {
	o.mu.Lock()
	subs := slices.Clone(o.subs)
	o.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	e := Event{Kind: kind, ProductID: productID, Totals: o.next.Totals()}
	for _, s := range subs {
		s.fn(e)
	}
}
