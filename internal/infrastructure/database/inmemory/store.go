package inmemory

import (
	"context"
	"sync"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

// Store holds every aggregate in process memory. A unit of work holds the
// write lock for its whole duration and restores a snapshot when it fails;
// repositories used outside a unit of work lock per call.
type Store struct {
	mu   sync.RWMutex
	data *dataset
}

type dataset struct {
	variants map[string]entity.ProductVariant
	carts    map[string]*entity.Cart // keyed by user id
	orders   map[string]*entity.Order
	lines    map[string][]*entity.OrderLine // keyed by order id
	payments map[string]*entity.Payment
	events   []*entity.OutboxEvent
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{data: &dataset{
		variants: make(map[string]entity.ProductVariant),
		carts:    make(map[string]*entity.Cart),
		orders:   make(map[string]*entity.Order),
		lines:    make(map[string][]*entity.OrderLine),
		payments: make(map[string]*entity.Payment),
	}}
}

// Repositories returns repositories that lock per call.
func (s *Store) Repositories() repository.Repositories {
	return s.repos(false)
}

// Do runs fn while holding the store lock and rolls back on error.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, s.repos(true)); err != nil {
		s.data = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) repos(inTx bool) repository.Repositories {
	return repository.Repositories{
		Variants: &VariantRepository{store: s, inTx: inTx},
		Carts:    &CartRepository{store: s, inTx: inTx},
		Orders:   &OrderRepository{store: s, inTx: inTx},
		Payments: &PaymentRepository{store: s, inTx: inTx},
		Events:   &EventRepository{store: s, inTx: inTx},
	}
}

func (s *Store) read(inTx bool, fn func(d *dataset)) {
	if !inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn(s.data)
}

func (s *Store) write(inTx bool, fn func(d *dataset) error) error {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		variants: make(map[string]entity.ProductVariant, len(d.variants)),
		carts:    make(map[string]*entity.Cart, len(d.carts)),
		orders:   make(map[string]*entity.Order, len(d.orders)),
		lines:    make(map[string][]*entity.OrderLine, len(d.lines)),
		payments: make(map[string]*entity.Payment, len(d.payments)),
		events:   make([]*entity.OutboxEvent, 0, len(d.events)),
	}
	for k, v := range d.variants {
		c.variants[k] = v
	}
	for k, v := range d.carts {
		c.carts[k] = copyCart(v)
	}
	for k, v := range d.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range d.lines {
		c.lines[k] = copyLines(v)
	}
	for k, v := range d.payments {
		c.payments[k] = copyPayment(v)
	}
	for _, e := range d.events {
		c.events = append(c.events, copyEvent(e))
	}
	return c
}

func copyCart(c *entity.Cart) *entity.Cart {
	out := *c
	out.Items = make([]*entity.CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		item := *it
		out.Items = append(out.Items, &item)
	}
	return &out
}

func copyOrder(o *entity.Order) *entity.Order {
	out := *o
	out.Lines = nil
	return &out
}

func copyLines(lines []*entity.OrderLine) []*entity.OrderLine {
	out := make([]*entity.OrderLine, 0, len(lines))
	for _, l := range lines {
		line := *l
		out = append(out, &line)
	}
	return out
}

func copyPayment(p *entity.Payment) *entity.Payment {
	out := *p
	if p.PaymentMethod != nil {
		m := *p.PaymentMethod
		out.PaymentMethod = &m
	}
	if p.Metadata.Extra != nil {
		out.Metadata.Extra = make(map[string]string, len(p.Metadata.Extra))
		for k, v := range p.Metadata.Extra {
			out.Metadata.Extra[k] = v
		}
	}
	return &out
}

func copyEvent(e *entity.OutboxEvent) *entity.OutboxEvent {
	out := *e
	out.Payload = append([]byte(nil), e.Payload...)
	if e.SentAt != nil {
		t := *e.SentAt
		out.SentAt = &t
	}
	return &out
}
