package repositories

import (
	"context"
	"fmt"

	"github.com/SainiAdi-04/Task-Manager/models"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserRepository struct {
	store
	UserCollection *mongo.Collection
}

func NewUserRepository(db *mongo.Database, breaker *gobreaker.CircuitBreaker) *MongoUserRepository {
	return &MongoUserRepository{
		store:          store{breaker: breaker},
		UserCollection: db.Collection(UsersCollection),
	}
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.run(func() error {
		return r.UserCollection.FindOne(ctx, filter).Decode(&user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	users := []models.User{}
	err := r.run(func() error {
		cursor, err := r.UserCollection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
		if err != nil {
			return err
		}
		return cursor.All(ctx, &users)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, nil
}

func (r *MongoUserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoUserRepository) FindAll(ctx context.Context, role string) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	return r.find(ctx, filter)
}

func (r *MongoUserRepository) Insert(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	err := r.run(func() error {
		_, err := r.UserCollection.InsertOne(ctx, user)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Replace(ctx context.Context, user *models.User) error {
	var result *mongo.UpdateResult
	err := r.run(func() error {
		var err error
		result, err = r.UserCollection.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
