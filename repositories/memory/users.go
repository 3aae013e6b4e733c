package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[primitive.ObjectID]*models.User{}}
}

func (r *UserRepository) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range r.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Insert(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(user.Email, primitive.NilObjectID) {
		return models.ValidationError("User already exists")
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, models.NotFoundError("User not found")
	}
	c := *u
	return &c, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, models.NotFoundError("User not found")
}

func (r *UserRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *UserRepository) all() []models.User {
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out
}

func (r *UserRepository) List(_ context.Context, search string) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.User{}
	for _, u := range r.all() {
		if search == "" || containsFold([]string{u.Title, u.Name, u.Role, u.Email}, search) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *UserRepository) ListActiveRecent(_ context.Context, limit int64) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.User{}
	for _, u := range r.all() {
		if u.IsActive {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return newestFirst(a.ID, b.ID) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return models.NotFoundError("User not found")
	}
	if r.emailTaken(user.Email, user.ID) {
		return models.ValidationError("User already exists")
	}
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return models.NotFoundError("User not found")
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) Stats(_ context.Context) (models.UserStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := models.UserStats{TotalUsers: int64(len(r.users))}
	for _, u := range r.users {
		if u.IsActive {
			stats.ActiveUsers++
		}
		if u.IsAdmin {
			stats.AdminUsers++
		}
	}
	return stats, nil
}
