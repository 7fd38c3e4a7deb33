package store

import (
	"context"
	"strings"
	"sync"

	"github.com/cellhub/admin/types"
)

// UserRepository holds member accounts and their password hashes.
type UserRepository struct {
	*Table[types.User]

	mu     sync.RWMutex
	hashes map[int]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		Table:  NewTable(func(u types.User) int { return u.ID }, func(u *types.User, id int) { u.ID = id }),
		hashes: map[int]string{},
	}
}

// Register adds an account. Emails are unique, compared without case.
func (r *UserRepository) Register(ctx context.Context, user types.User, passwordHash string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return types.User{}, ErrConflict
	}
	created, err := r.Create(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	r.hashes[created.ID] = passwordHash
	return created, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	email = strings.TrimSpace(email)
	found := r.Filter(ctx, func(u types.User) bool { return strings.EqualFold(u.Email, email) })
	if len(found) == 0 {
		return types.User{}, ErrNotFound
	}
	return found[0], nil
}

// PasswordHash returns the bcrypt hash of an account.
func (r *UserRepository) PasswordHash(_ context.Context, id int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hash, ok := r.hashes[id]
	if !ok {
		return "", ErrNotFound
	}
	return hash, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	if err := r.Table.Delete(ctx, id); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.hashes, id)
	r.mu.Unlock()
	return nil
}
