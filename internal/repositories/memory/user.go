package memory

import (
	"context"
	"sort"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct {
	s *Store
}

func NewUserRepository(s *Store) interfaces.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

// Upsert keeps created_at and registered devices of an existing profile.
func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
		user.Devices = existing.Devices
	}
	remember(ctx, r.s, r.s.users, user.ID, cloneUser)
	r.s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepository) AddDevice(ctx context.Context, userID string, device models.DeviceInfo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return interfaces.ErrNotFound
	}
	u = cloneUser(u)

	devices := u.Devices[:0]
	for _, d := range u.Devices {
		if d.Token != device.Token {
			devices = append(devices, d)
		}
	}
	u.Devices = append(devices, device)
	remember(ctx, r.s, r.s.users, userID, cloneUser)
	r.s.users[userID] = u
	return nil
}

func (r *userRepository) RemoveDevice(ctx context.Context, userID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return interfaces.ErrNotFound
	}
	u = cloneUser(u)

	devices := u.Devices[:0]
	for _, d := range u.Devices {
		if d.Token != token {
			devices = append(devices, d)
		}
	}
	u.Devices = devices
	remember(ctx, r.s, r.s.users, userID, cloneUser)
	r.s.users[userID] = u
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return interfaces.ErrNotFound
	}
	remember(ctx, r.s, r.s.users, id, cloneUser)
	delete(r.s.users, id)
	return nil
}

type carRepository struct {
	s *Store
}

func NewCarRepository(s *Store) interfaces.CarRepository {
	return &carRepository{s: s}
}

func (r *carRepository) Create(ctx context.Context, car *models.Car) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if car.ID.IsZero() {
		car.ID = primitive.NewObjectID()
	}
	remember(ctx, r.s, r.s.cars, car.ID, identity[models.Car])
	r.s.cars[car.ID] = *car
	return nil
}

func (r *carRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Car, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.cars[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &c, nil
}

func (r *carRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Car, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Car, 0)
	for _, c := range r.s.cars {
		if c.OwnerID == ownerID {
			cc := c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *carRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cars[id]; !ok {
		return interfaces.ErrNotFound
	}
	remember(ctx, r.s, r.s.cars, id, identity[models.Car])
	delete(r.s.cars, id)
	return nil
}

func (r *carRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, c := range r.s.cars {
		if c.OwnerID == ownerID {
			remember(ctx, r.s, r.s.cars, id, identity[models.Car])
			delete(r.s.cars, id)
			n++
		}
	}
	return n, nil
}
