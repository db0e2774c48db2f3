// README: Booking repository contract and the in-memory implementation.
package booking

import (
	"context"
	"sort"
	"sync"

	"travellite/internal/types"
)

var (
	ErrNotFound      = types.NotFound("booking not found")
	ErrConflict      = types.Conflict("booking state conflict")
	ErrDuplicateCode = types.Conflict("booking code already exists")
)

// Repository persists bookings. UpdateStatus returns false when the stored
// status or version no longer matches the update.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	GetByCode(ctx context.Context, code string) (*Booking, error)
	ListByCustomer(ctx context.Context, customerID types.ID) ([]*Booking, error)
	UpdateStatus(ctx context.Context, u StatusUpdate) (bool, error)
}

type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[types.ID]*Booking
	byCode map[string]types.ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[types.ID]*Booking),
		byCode: make(map[string]types.ID),
	}
}

var _ Repository = (*MemoryStore)(nil)

func (m *MemoryStore) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byCode[b.BookingCode]; ok {
		return ErrDuplicateCode
	}
	if _, ok := m.byID[b.ID]; ok {
		return ErrConflict
	}
	m.byID[b.ID] = b.clone()
	m.byCode[b.BookingCode] = b.ID
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.clone(), nil
}

func (m *MemoryStore) GetByCode(ctx context.Context, code string) (*Booking, error) {
	m.mu.RLock()
	id, ok := m.byCode[code]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *MemoryStore) ListByCustomer(_ context.Context, customerID types.ID) ([]*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Booking, 0)
	for _, b := range m.byID {
		if b.CustomerID == customerID {
			out = append(out, b.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, u StatusUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[u.BookingID]
	if !ok {
		return false, ErrNotFound
	}
	if b.Status != u.From || b.StatusVersion != u.Version {
		return false, nil
	}
	b.Status = u.To
	b.StatusVersion++
	b.TrackingHistory = append(b.TrackingHistory, u.Track)
	b.UpdatedAt = u.Track.Timestamp
	if u.Payment != nil {
		p := *u.Payment
		b.PaymentInfo = &p
	}
	if u.CancelReason != "" {
		b.CancelReason = u.CancelReason
	}
	return true, nil
}
