package account

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memRepo is an in-memory Repository used by tests and local tooling.
type memRepo struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]*Account
}

// NewInMemoryRepo creates an empty in-memory account repository.
func NewInMemoryRepo() Repository {
	return &memRepo{
		nextID:   1,
		accounts: make(map[int64]*Account),
	}
}

func cloneAccount(a *Account) *Account {
	cp := *a
	if a.Target != nil {
		t := *a.Target
		cp.Target = &t
	}
	return &cp
}

func (r *memRepo) FindByID(ctx context.Context, id int64) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAccount(a), nil
}

func (r *memRepo) FindByUsername(ctx context.Context, username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Username == username {
			return cloneAccount(a), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) List(ctx context.Context) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	accounts := make([]*Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		accounts = append(accounts, cloneAccount(a))
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (r *memRepo) Create(ctx context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Username == a.Username {
			return ErrDuplicateUsername
		}
	}
	a.ID = r.nextID
	r.nextID++
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (r *memRepo) Update(ctx context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.accounts[a.ID]
	if !ok {
		return ErrNotFound
	}
	for _, other := range r.accounts {
		if other.ID != a.ID && other.Username == a.Username {
			return ErrDuplicateUsername
		}
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now()
	r.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}
