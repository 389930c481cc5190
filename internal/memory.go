package internal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ticketpay/entity"
	"ticketpay/services"
)

// MemoryDB keeps orders in process memory. It is used when MongoDB is
// disabled and as the store in tests.
type MemoryDB struct {
	mutex  sync.RWMutex
	orders map[string]*entity.PaymentOrder
	logs   []services.Data
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		orders: make(map[string]*entity.PaymentOrder),
	}
}

func (m *MemoryDB) WriteLogMessage(_ context.Context, data services.Data) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.logs = append(m.logs, data)
	return nil
}

func (m *MemoryDB) CreateOrder(_ context.Context, order *entity.PaymentOrder) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.orders[order.ReferenceId]; ok {
		return fmt.Errorf("order %s already exists", order.ReferenceId)
	}
	stored := *order
	m.orders[order.ReferenceId] = &stored
	return nil
}

func (m *MemoryDB) GetOrder(_ context.Context, referenceId string) (*entity.PaymentOrder, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	order, ok := m.orders[referenceId]
	if !ok {
		return nil, services.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MemoryDB) MarkPending(_ context.Context, referenceId string) error {
	return m.transition(referenceId, entity.StatusPending, nil)
}

func (m *MemoryDB) MarkPaid(_ context.Context, referenceId string, result *entity.PaymentResult) error {
	return m.transition(referenceId, entity.StatusPaid, result)
}

func (m *MemoryDB) MarkFailed(_ context.Context, referenceId string, result *entity.PaymentResult) error {
	return m.transition(referenceId, entity.StatusFailed, result)
}

func (m *MemoryDB) MarkExpired(_ context.Context, referenceId string, result *entity.PaymentResult) error {
	return m.transition(referenceId, entity.StatusExpired, result)
}

func (m *MemoryDB) GetExpiredOrders(_ context.Context, now time.Time, limit int) ([]*entity.PaymentOrder, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var expired []*entity.PaymentOrder
	for _, order := range m.orders {
		if order.Status == entity.StatusPending && now.After(order.ExpiresAt) {
			copied := *order
			expired = append(expired, &copied)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (m *MemoryDB) transition(referenceId string, to entity.OrderStatus, result *entity.PaymentResult) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	order, ok := m.orders[referenceId]
	if !ok {
		return services.ErrOrderNotFound
	}
	if !order.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s is %s", services.ErrOrderNotPending, referenceId, order.Status)
	}
	order.Apply(to, result)
	return nil
}
