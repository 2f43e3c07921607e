// Package testutil provides in-memory repositories and helpers for tests.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/SainiAdi-04/Task-Manager/events"
	"github.com/SainiAdi-04/Task-Manager/models"
	"github.com/SainiAdi-04/Task-Manager/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FakeTaskRepository is an in-memory repositories.TaskRepository.
type FakeTaskRepository struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	tasks map[primitive.ObjectID]models.Task

	// Err, when set, is returned by every call.
	Err error
}

func NewFakeTaskRepository() *FakeTaskRepository {
	return &FakeTaskRepository{tasks: make(map[primitive.ObjectID]models.Task)}
}

// Add stores task as-is, assigning an id if it has none.
func (f *FakeTaskRepository) Add(task models.Task) models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	task.Normalize()
	if _, ok := f.tasks[task.ID]; !ok {
		f.order = append(f.order, task.ID)
	}
	f.tasks[task.ID] = cloneTask(task)
	return task
}

// Get returns a copy of the stored task.
func (f *FakeTaskRepository) Get(id primitive.ObjectID) (models.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	task, ok := f.tasks[id]
	return cloneTask(task), ok
}

func (f *FakeTaskRepository) Find(ctx context.Context, filter repositories.TaskFilter) ([]models.Task, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var result []models.Task
	for _, id := range f.order {
		task := f.tasks[id]
		if filter.Matches(&task) {
			result = append(result, cloneTask(task))
		}
	}
	return result, nil
}

func (f *FakeTaskRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	task, ok := f.Get(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &task, nil
}

func (f *FakeTaskRepository) Insert(ctx context.Context, task *models.Task) error {
	if f.Err != nil {
		return f.Err
	}
	*task = f.Add(*task)
	return nil
}

func (f *FakeTaskRepository) Replace(ctx context.Context, task *models.Task) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[task.ID]; !ok {
		return repositories.ErrNotFound
	}
	f.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (f *FakeTaskRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.tasks, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *FakeTaskRepository) Count(ctx context.Context, filter repositories.TaskFilter) (int64, error) {
	tasks, err := f.Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(tasks)), nil
}

func (f *FakeTaskRepository) CountBy(ctx context.Context, filter repositories.TaskFilter, field repositories.GroupField) (map[string]int64, error) {
	tasks, err := f.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, task := range tasks {
		switch field {
		case repositories.GroupByStatus:
			counts[string(task.Status)]++
		case repositories.GroupByPriority:
			counts[string(task.Priority)]++
		}
	}
	return counts, nil
}

func (f *FakeTaskRepository) Recent(ctx context.Context, filter repositories.TaskFilter, limit int64) ([]models.RecentTask, error) {
	tasks, err := f.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	if int64(len(tasks)) > limit {
		tasks = tasks[:limit]
	}
	recent := make([]models.RecentTask, 0, len(tasks))
	for _, task := range tasks {
		recent = append(recent, models.RecentTask{
			ID:        task.ID,
			Title:     task.Title,
			Status:    task.Status,
			Priority:  task.Priority,
			DueDate:   task.DueDate,
			CreatedAt: task.CreatedAt,
		})
	}
	return recent, nil
}

func cloneTask(task models.Task) models.Task {
	clone := task
	clone.AssignedTo = append([]primitive.ObjectID(nil), task.AssignedTo...)
	clone.TodoChecklist = append([]models.TodoItem(nil), task.TodoChecklist...)
	clone.Attachments = append([]string(nil), task.Attachments...)
	if task.DueDate != nil {
		due := *task.DueDate
		clone.DueDate = &due
	}
	clone.Normalize()
	return clone
}

// FakeUserRepository is an in-memory repositories.UserRepository.
type FakeUserRepository struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	users map[primitive.ObjectID]models.User

	Err error
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{users: make(map[primitive.ObjectID]models.User)}
}

// Add stores user, assigning an id if it has none.
func (f *FakeUserRepository) Add(user models.User) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, ok := f.users[user.ID]; !ok {
		f.order = append(f.order, user.ID)
	}
	f.users[user.ID] = user
	return user
}

func (f *FakeUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &user, nil
}

func (f *FakeUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, id := range f.order {
		if user := f.users[id]; user.Email == email {
			return &user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *FakeUserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var result []models.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

func (f *FakeUserRepository) FindAll(ctx context.Context, role string) ([]models.User, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var result []models.User
	for _, id := range f.order {
		if user := f.users[id]; role == "" || user.Role == role {
			result = append(result, user)
		}
	}
	return result, nil
}

func (f *FakeUserRepository) Insert(ctx context.Context, user *models.User) error {
	if f.Err != nil {
		return f.Err
	}
	if existing, err := f.FindByEmail(ctx, user.Email); err == nil && existing.ID != user.ID {
		return repositories.ErrDuplicateKey
	}
	*user = f.Add(*user)
	return nil
}

func (f *FakeUserRepository) Replace(ctx context.Context, user *models.User) error {
	if f.Err != nil {
		return f.Err
	}
	if existing, err := f.FindByEmail(ctx, user.Email); err == nil && existing.ID != user.ID {
		return repositories.ErrDuplicateKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	f.users[user.ID] = *user
	return nil
}

// RecordingPublisher keeps every published event in order.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.TaskEvent
}

func (p *RecordingPublisher) Publish(ctx context.Context, event events.TaskEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *RecordingPublisher) Events() []events.TaskEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.TaskEvent(nil), p.events...)
}

// Names returns the event names in publish order.
func (p *RecordingPublisher) Names() []string {
	var names []string
	for _, ev := range p.Events() {
		names = append(names, ev.Event)
	}
	return names
}
