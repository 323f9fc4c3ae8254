// Package dbtest provides an in-memory db.Store for tests.
package dbtest

import (
	"context"
	"sort"
	"sync"

	"github.com/Nixie-Tech-LLC/registrar/internal/db"
	"github.com/Nixie-Tech-LLC/registrar/internal/model"
)

// MemoryStore mirrors the users table, including the unique email constraint.
// Set the *Err fields to make the matching method fail.
type MemoryStore struct {
	mu     sync.Mutex
	users  []model.User
	nextID int

	CreateErr error
	LookupErr error
	ListErr   error
	PingErr   error

	// BeforeCreate runs inside CreateUser before the constraint check.
	BeforeCreate func(u model.User)

	Lookups int
	Creates int
}

var _ db.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (m *MemoryStore) CreateUser(_ context.Context, u model.User) (int, error) {
	if m.BeforeCreate != nil {
		m.BeforeCreate(u)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Creates++

	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return 0, db.ErrEmailTaken
		}
	}
	u.ID = m.nextID
	m.nextID++
	m.users = append(m.users, u)
	return u.ID, nil
}

// Seed inserts u directly, bypassing failure injection and hooks.
func (m *MemoryStore) Seed(u model.User) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextID
	m.nextID++
	m.users = append(m.users, u)
	return u.ID
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups++

	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	for _, u := range m.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]model.User, len(m.users))
	copy(out, m.users)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return m.PingErr
}

// Count returns how many stored users have the given email.
func (m *MemoryStore) Count(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.users {
		if u.Email == email {
			n++
		}
	}
	return n
}
