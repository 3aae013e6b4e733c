package repositories

import (
	"context"
	"fmt"

	"github.com/DinieMobo/TaskHero/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserRepository struct {
	users *mongo.Collection
}

var _ UserRepository = (*MongoUserRepository)(nil)

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{users: db.Collection(UsersCollection)}
}

func (r *MongoUserRepository) Insert(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return models.ValidationError("User already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, filter).Decode(&user)
	if isNoDocuments(err) {
		return nil, models.NotFoundError("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	return decodeAll[models.User](ctx, cursor)
}

func (r *MongoUserRepository) List(ctx context.Context, search string) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.users.Find(ctx, userSearchFilter(search), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	return decodeAll[models.User](ctx, cursor)
}

func (r *MongoUserRepository) ListActiveRecent(ctx context.Context, limit int64) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(limit)
	cursor, err := r.users.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	return decodeAll[models.User](ctx, cursor)
}

func (r *MongoUserRepository) Update(ctx context.Context, user *models.User) error {
	result, err := r.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if mongo.IsDuplicateKeyError(err) {
		return models.ValidationError("User already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.NotFoundError("User not found")
	}
	return nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return models.NotFoundError("User not found")
	}
	return nil
}

func (r *MongoUserRepository) Stats(ctx context.Context) (models.UserStats, error) {
	var stats models.UserStats
	var err error
	if stats.TotalUsers, err = r.users.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.ActiveUsers, err = r.users.CountDocuments(ctx, bson.M{"isActive": true}); err != nil {
		return stats, fmt.Errorf("failed to count active users: %w", err)
	}
	if stats.AdminUsers, err = r.users.CountDocuments(ctx, bson.M{"isAdmin": true}); err != nil {
		return stats, fmt.Errorf("failed to count admin users: %w", err)
	}
	return stats, nil
}
