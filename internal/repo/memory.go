package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memUser struct {
	id    int
	email string
	hash  string
}

// Memory implements Repository and DesignRepository in process. It backs
// tests and runs without DATABASE_URL.
type Memory struct {
	mu      sync.RWMutex
	nextID  int
	users   map[string]memUser
	designs map[string]DesignRecord
}

func NewMemory() *Memory {
	return &Memory{
		users:   map[string]memUser{},
		designs: map[string]DesignRecord{},
	}
}

func (m *Memory) CreateUser(ctx context.Context, login, email, password string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[login]; ok {
		return 0, fmt.Errorf("user %s: %w", login, ErrExists)
	}
	m.nextID++
	m.users[login] = memUser{id: m.nextID, email: email, hash: password}
	return m.nextID, nil
}

func (m *Memory) GetBylogin(ctx context.Context, login string) (int, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[login]
	if !ok {
		return 0, "", fmt.Errorf("user %s: %w", login, ErrNotFound)
	}
	return u.id, u.hash, nil
}

func (m *Memory) SaveDesign(ctx context.Context, rec DesignRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.designs[rec.ID]; ok {
		return fmt.Errorf("design %s: %w", rec.ID, ErrExists)
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	m.designs[rec.ID] = rec
	return nil
}

func (m *Memory) GetDesign(ctx context.Context, userID int, id string) (DesignRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.designs[id]
	if !ok || rec.UserID != userID {
		return DesignRecord{}, fmt.Errorf("design %s: %w", id, ErrNotFound)
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	return rec, nil
}

func (m *Memory) ListDesigns(ctx context.Context, userID, limit int) ([]DesignRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	out := []DesignRecord{}
	for _, rec := range m.designs {
		if rec.UserID == userID {
			rec.Payload = nil
			out = append(out, rec)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) DeleteDesign(ctx context.Context, userID int, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.designs[id]
	if !ok || rec.UserID != userID {
		return fmt.Errorf("design %s: %w", id, ErrNotFound)
	}
	delete(m.designs, id)
	return nil
}
