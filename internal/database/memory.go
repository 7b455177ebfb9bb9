package database

import (
	"context"
	"fmt"
	"guestlist/entity"
	"sort"
	"sync"
	"time"
)

// Memory keeps guests in process memory. It is used for local runs and tests;
// records are lost on restart.
type Memory struct {
	mu     sync.Mutex
	guests map[string]entity.Guest
}

func NewMemory() *Memory {
	return &Memory{guests: make(map[string]entity.Guest)}
}

func (m *Memory) CreateGuest(_ context.Context, guest *entity.Guest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.guests[guest.Id]; ok {
		return fmt.Errorf("duplicate guest id %s", guest.Id)
	}
	m.guests[guest.Id] = copyGuest(*guest)
	return nil
}

func (m *Memory) ListGuests(_ context.Context) ([]*entity.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	guests := make([]*entity.Guest, 0, len(m.guests))
	for _, g := range m.guests {
		c := copyGuest(g)
		guests = append(guests, &c)
	}
	sort.Slice(guests, func(i, j int) bool {
		return guests[i].CreatedAt.After(guests[j].CreatedAt)
	})
	return guests, nil
}

func (m *Memory) GetGuest(_ context.Context, id string) (*entity.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.guests[id]
	if !ok {
		return nil, nil
	}
	c := copyGuest(g)
	return &c, nil
}

func (m *Memory) SetGuestStatus(_ context.Context, id string, status entity.GuestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.guests[id]
	if !ok || g.Status != entity.StatusPending {
		return false, nil
	}
	g.Status = status
	m.guests[id] = g
	return true, nil
}

func (m *Memory) MarkGuestUsed(_ context.Context, id string, usedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.guests[id]
	if !ok || g.Status != entity.StatusApproved || g.IsUsed {
		return false, nil
	}
	g.IsUsed = true
	g.UsedAt = &usedAt
	m.guests[id] = g
	return true, nil
}

func (m *Memory) DeleteAllGuests(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.guests))
	m.guests = make(map[string]entity.Guest)
	return n, nil
}

func copyGuest(g entity.Guest) entity.Guest {
	if g.UsedAt != nil {
		t := *g.UsedAt
		g.UsedAt = &t
	}
	return g
}
