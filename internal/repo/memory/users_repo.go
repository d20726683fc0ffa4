package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/jobtracker/internal/domain/user"
)

type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	u.Email = user.NormalizeEmail(u.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(u.ID, u.Username, u.Email) {
		return user.User{}, user.ErrDuplicateIdentity
	}

	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	email = user.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrUserNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}

	return u, nil
}

func (r *UsersRepo) UpdateProfile(_ context.Context, id string, upd user.ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.ErrUserNotFound
	}

	if upd.Username != nil {
		u.Username = strings.TrimSpace(*upd.Username)
	}
	if upd.Email != nil {
		u.Email = user.NormalizeEmail(*upd.Email)
	}

	if r.taken(id, u.Username, u.Email) {
		return user.ErrDuplicateIdentity
	}

	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return nil
}

// taken reports whether another user already holds username or email. Callers hold mu.
func (r *UsersRepo) taken(selfID, username, email string) bool {
	for id, other := range r.items {
		if id == selfID {
			continue
		}
		if other.Username == username || other.Email == email {
			return true
		}
	}
	return false
}
