package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SainiAdi-04/Task-Manager/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// GroupField names a task field that can be grouped and counted.
type GroupField string

const (
	GroupByStatus   GroupField = "status"
	GroupByPriority GroupField = "priority"
)

// TaskFilter narrows task queries. Zero values mean "no constraint".
type TaskFilter struct {
	Status     models.TaskStatus
	AssignedTo primitive.ObjectID
	// OverdueAt selects unfinished tasks whose due date is before it. It takes
	// precedence over Status.
	OverdueAt time.Time
}

func (f TaskFilter) Matches(t *models.Task) bool {
	if !f.AssignedTo.IsZero() && !t.IsAssignee(f.AssignedTo) {
		return false
	}
	if !f.OverdueAt.IsZero() {
		return t.IsOverdue(f.OverdueAt)
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

func (f TaskFilter) toBSON() bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if !f.AssignedTo.IsZero() {
		filter["assignedTo"] = f.AssignedTo
	}
	if !f.OverdueAt.IsZero() {
		filter["status"] = bson.M{"$ne": models.StatusCompleted}
		filter["dueDate"] = bson.M{"$lt": f.OverdueAt}
	}
	return filter
}

type TaskRepository interface {
	Find(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Insert(ctx context.Context, task *models.Task) error
	Replace(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context, filter TaskFilter) (int64, error)
	// CountBy groups the filtered tasks by field and returns count per value.
	CountBy(ctx context.Context, filter TaskFilter, field GroupField) (map[string]int64, error)
	// Recent returns the newest tasks first, projected for dashboards.
	Recent(ctx context.Context, filter TaskFilter, limit int64) ([]models.RecentTask, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	// FindAll returns every user, or only those with role when it is non-empty.
	FindAll(ctx context.Context, role string) ([]models.User, error)
	Insert(ctx context.Context, user *models.User) error
	Replace(ctx context.Context, user *models.User) error
}
