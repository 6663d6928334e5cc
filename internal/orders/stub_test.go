package orders

import (
	"context"
	"errors"
	"sort"

	"github.com/angelmondragon/orderdesk/pkg/db/models"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/google/uuid"
)

// memoryRepo is an in-memory Repository that counts writes.
type memoryRepo struct {
	orders map[uuid.UUID]models.Order

	findErr  error
	writeErr error
	batchErr error
	casMiss  bool
	finds    int
	updates  int
	deletes  int
	batches  int
}

func newMemoryRepo(orders ...models.Order) *memoryRepo {
	repo := &memoryRepo{orders: make(map[uuid.UUID]models.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (m *memoryRepo) CreateBatch(ctx context.Context, orders []models.Order) error {
	m.batches++
	if m.batchErr != nil {
		return m.batchErr
	}
	for _, o := range orders {
		if _, exists := m.orders[o.ID]; exists {
			return errors.New("duplicate id")
		}
	}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return nil
}

func (m *memoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.finds++
	if m.findErr != nil {
		return nil, m.findErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &o, nil
}

func (m *memoryRepo) List(ctx context.Context) ([]models.Order, error) {
	out := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DeliveryAt.Equal(out[j].DeliveryAt) {
			return out[i].LineItemID.String() < out[j].LineItemID.String()
		}
		return out[i].DeliveryAt.Before(out[j].DeliveryAt)
	})
	return out, nil
}

func (m *memoryRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	all, _ := m.List(ctx)
	out := make([]models.Order, 0)
	for _, o := range all {
		if o.ClientID == clientID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memoryRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	m.updates++
	if m.writeErr != nil {
		return false, m.writeErr
	}
	o, ok := m.orders[id]
	if !ok || o.Status != from || m.casMiss {
		return false, nil
	}
	o.Status = to
	m.orders[id] = o
	return true, nil
}

func (m *memoryRepo) DeleteIfStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (bool, error) {
	m.deletes++
	if m.writeErr != nil {
		return false, m.writeErr
	}
	o, ok := m.orders[id]
	if !ok || o.Status != status || m.casMiss {
		return false, nil
	}
	delete(m.orders, id)
	return true, nil
}

func (m *memoryRepo) writes() int {
	return m.updates + m.deletes
}

type stubClients struct {
	clients map[uuid.UUID]models.Client
	err     error
}

func (s stubClients) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.clients[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
	}
	return &c, nil
}

type stubProducts struct {
	products map[uuid.UUID]models.Product
	calls    *int
}

func (s stubProducts) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.calls != nil {
		*s.calls++
	}
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}
