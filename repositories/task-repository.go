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

type MongoTaskRepository struct {
	store
	tasksCollection *mongo.Collection
}

func NewTaskRepository(db *mongo.Database, breaker *gobreaker.CircuitBreaker) *MongoTaskRepository {
	return &MongoTaskRepository{
		store:           store{breaker: breaker},
		tasksCollection: db.Collection(TasksCollection),
	}
}

func (r *MongoTaskRepository) Find(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task
	err := r.run(func() error {
		cursor, err := r.tasksCollection.Find(ctx, filter.toBSON())
		if err != nil {
			return err
		}
		return cursor.All(ctx, &tasks)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	for i := range tasks {
		tasks[i].Normalize()
	}
	return tasks, nil
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.run(func() error {
		return r.tasksCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	})
	if err != nil {
		return nil, err
	}
	task.Normalize()
	return &task, nil
}

func (r *MongoTaskRepository) Insert(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	err := r.run(func() error {
		_, err := r.tasksCollection.InsertOne(ctx, task)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Replace writes the whole document in one operation, so a status change and its
// checklist cascade land together.
func (r *MongoTaskRepository) Replace(ctx context.Context, task *models.Task) error {
	var result *mongo.UpdateResult
	err := r.run(func() error {
		var err error
		result, err = r.tasksCollection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTaskRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	var result *mongo.DeleteResult
	err := r.run(func() error {
		var err error
		result, err = r.tasksCollection.DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTaskRepository) Count(ctx context.Context, filter TaskFilter) (int64, error) {
	var count int64
	err := r.run(func() error {
		var err error
		count, err = r.tasksCollection.CountDocuments(ctx, filter.toBSON())
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

func (r *MongoTaskRepository) CountBy(ctx context.Context, filter TaskFilter, field GroupField) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter.toBSON()}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + string(field)},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	var rows []struct {
		Value string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	err := r.run(func() error {
		cursor, err := r.tasksCollection.Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		return cursor.All(ctx, &rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks by %s: %w", field, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Value] += row.Count
	}
	return counts, nil
}

func (r *MongoTaskRepository) Recent(ctx context.Context, filter TaskFilter, limit int64) ([]models.RecentTask, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.M{"title": 1, "status": 1, "priority": 1, "dueDate": 1, "createdAt": 1})

	recent := []models.RecentTask{}
	err := r.run(func() error {
		cursor, err := r.tasksCollection.Find(ctx, filter.toBSON(), opts)
		if err != nil {
			return err
		}
		return cursor.All(ctx, &recent)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve recent tasks: %w", err)
	}
	return recent, nil
}
