package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	domainuser "rentora/internal/domain/user"
)

// UserRepository keeps accounts in process memory, keyed by ID with a
// secondary index on the normalized email.
type UserRepository struct {
	mu     sync.RWMutex
	users  map[domainuser.ID]domainuser.User
	emails map[string]domainuser.ID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:  map[domainuser.ID]domainuser.User{},
		emails: map[string]domainuser.ID{},
	}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(id)
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.emails[domainuser.NormalizeEmail(email)])
}

// lookup expects r.mu to be held.
func (r *UserRepository) lookup(id domainuser.ID) (*domainuser.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return &u, nil
}

// Save inserts or replaces the account. Changing the email moves the index
// entry; taking an email held by another account fails.
func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	if user == nil || strings.TrimSpace(string(user.ID)) == "" {
		return domainuser.ErrIDRequired
	}
	email := domainuser.NormalizeEmail(user.Email)
	if email == "" {
		return domainuser.ErrEmailRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if holder, taken := r.emails[email]; taken && holder != user.ID {
		return domainuser.ErrEmailAlreadyUsed
	}
	if prev, ok := r.users[user.ID]; ok {
		delete(r.emails, domainuser.NormalizeEmail(prev.Email))
	}
	r.users[user.ID] = *user
	r.emails[email] = user.ID
	return nil
}

// List returns every account, oldest registration first.
func (r *UserRepository) List(ctx context.Context) ([]*domainuser.User, error) {
	r.mu.RLock()
	out := make([]*domainuser.User, 0, len(r.users))
	for _, u := range r.users {
		u := u // per-iteration copy; go directive is below 1.22
		out = append(out, &u)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *domainuser.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *UserRepository) Delete(ctx context.Context, id domainuser.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domainuser.ErrNotFound
	}
	delete(r.emails, domainuser.NormalizeEmail(u.Email))
	delete(r.users, id)
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

var _ domainuser.Repository = (*UserRepository)(nil)
