package mongodb

import (
	"context"
	"fmt"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection(database.CollectionUsers),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Upsert writes the profile fields and leaves devices and created_at alone on
// existing documents.
func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	update := bson.M{
		"$set": bson.M{
			"email":        user.Email,
			"display_name": user.DisplayName,
			"university":   user.University,
			"phone":        user.Phone,
			"photo_url":    user.PhotoURL,
			"updated_at":   user.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": user.CreatedAt},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *userRepository) AddDevice(ctx context.Context, userID string, device models.DeviceInfo) error {
	if err := r.RemoveDevice(ctx, userID, device.Token); err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"devices": device}},
	)
	if err != nil {
		return fmt.Errorf("failed to add device: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *userRepository) RemoveDevice(ctx context.Context, userID, token string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"devices": bson.M{"token": token}}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove device: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

type carRepository struct {
	collection *mongo.Collection
}

func NewCarRepository(db *mongo.Database) interfaces.CarRepository {
	return &carRepository{
		collection: db.Collection(database.CollectionCars),
	}
}

func (r *carRepository) Create(ctx context.Context, car *models.Car) error {
	if car.ID.IsZero() {
		car.ID = primitive.NewObjectID()
	}
	if car.CreatedAt.IsZero() {
		car.CreatedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, car); err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}
	return nil
}

func (r *carRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Car, error) {
	var car models.Car
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&car); err != nil {
		return nil, notFound(err)
	}
	return &car, nil
}

func (r *carRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Car, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer cursor.Close(ctx)

	cars := make([]*models.Car, 0)
	if err := cursor.All(ctx, &cars); err != nil {
		return nil, fmt.Errorf("failed to decode cars: %w", err)
	}
	return cars, nil
}

func (r *carRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *carRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete cars: %w", err)
	}
	return result.DeletedCount, nil
}
