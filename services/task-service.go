package services

import (
	"context"
	"errors"
	"time"

	"github.com/SainiAdi-04/Task-Manager/events"
	"github.com/SainiAdi-04/Task-Manager/logging"
	"github.com/SainiAdi-04/Task-Manager/models"
	"github.com/SainiAdi-04/Task-Manager/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskService struct {
	tasks     repositories.TaskRepository
	users     repositories.UserRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewTaskService(tasks repositories.TaskRepository, users repositories.UserRepository, publisher events.Publisher) *TaskService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TaskService{
		tasks:     tasks,
		users:     users,
		publisher: publisher,
		now:       time.Now,
	}
}

type CreateTaskInput struct {
	Title         string
	Description   string
	Priority      models.TaskPriority
	DueDate       *time.Time
	AssignedTo    []primitive.ObjectID
	TodoChecklist []models.TodoItem
	Attachments   []string
}

// ListTasks returns the tasks visible to caller, optionally narrowed to one status,
// plus per-status counts over the caller's whole scope.
func (s *TaskService) ListTasks(ctx context.Context, caller *models.User, status string) (*models.TaskList, error) {
	if caller == nil {
		return nil, unauthorized("Not authorized")
	}
	scope := TaskScope(caller)

	filter := scope
	if status != "" {
		filter.Status = models.TaskStatus(status)
		if !filter.Status.Valid() {
			return nil, badRequest("invalid status filter: " + status)
		}
	}

	tasks, err := s.tasks.Find(ctx, filter)
	if err != nil {
		return nil, serverError(err)
	}

	populated, err := s.populate(ctx, tasks)
	if err != nil {
		return nil, err
	}

	items := make([]models.TaskListItem, 0, len(tasks))
	for i := range tasks {
		items = append(items, models.TaskListItem{
			PopulatedTask:      populated[i],
			CompletedTodoCount: tasks[i].CompletedTodoCount(),
		})
	}

	summary, err := s.statusSummary(ctx, scope)
	if err != nil {
		return nil, err
	}

	return &models.TaskList{Tasks: items, StatusSummary: summary}, nil
}

func (s *TaskService) statusSummary(ctx context.Context, scope repositories.TaskFilter) (models.StatusSummary, error) {
	var summary models.StatusSummary

	all, err := s.tasks.Count(ctx, scope)
	if err != nil {
		return summary, serverError(err)
	}
	summary.All = all

	counts := map[models.TaskStatus]*int64{
		models.StatusPending:    &summary.PendingTasks,
		models.StatusInProgress: &summary.InProgressTasks,
		models.StatusCompleted:  &summary.CompletedTasks,
	}
	for _, status := range models.TaskStatuses {
		filter := scope
		filter.Status = status
		n, err := s.tasks.Count(ctx, filter)
		if err != nil {
			return summary, serverError(err)
		}
		*counts[status] = n
	}
	return summary, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*models.PopulatedTask, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	populated, err := s.populate(ctx, []models.Task{*task})
	if err != nil {
		return nil, err
	}
	return &populated[0], nil
}

func (s *TaskService) CreateTask(ctx context.Context, caller *models.User, in CreateTaskInput) (*models.Task, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, badRequest("title is required")
	}
	if len(in.AssignedTo) == 0 {
		return nil, badRequest(assignedToMessage)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, badRequest("invalid priority: " + string(in.Priority))
	}

	now := s.now()
	task := &models.Task{
		ID:          primitive.NewObjectID(),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedBy:   caller.ID,
		AssignedTo:  in.AssignedTo,
		Attachments: in.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.ReplaceChecklist(in.TodoChecklist)
	task.Normalize()

	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, serverError(err)
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s with %d assignee(s)", task.ID.Hex(), caller.ID.Hex(), len(task.AssignedTo))
	s.publisher.Publish(ctx, events.NewTaskEvent(events.TaskCreated, task, caller, now))
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, caller *models.User, id string, patch models.TaskPatch) (*models.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Priority != nil && *patch.Priority != "" && !patch.Priority.Valid() {
		return nil, badRequest("invalid priority: " + string(*patch.Priority))
	}
	if patch.AssignedTo != nil && len(*patch.AssignedTo) == 0 {
		return nil, badRequest("assignedTo must contain at least one user")
	}

	patch.Apply(task)
	task.UpdatedAt = s.now()

	if err := s.save(ctx, task); err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated by %s", task.ID.Hex(), callerID(caller))
	s.publisher.Publish(ctx, events.NewTaskEvent(events.TaskUpdated, task, caller, task.UpdatedAt))
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, caller *models.User, id string) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	task, err := s.findTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Task not found")
		}
		return serverError(err)
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s", task.ID.Hex(), caller.ID.Hex())
	s.publisher.Publish(ctx, events.NewTaskEvent(events.TaskDeleted, task, caller, s.now()))
	return nil
}

// UpdateStatus sets a task's status. An empty status keeps the current one.
func (s *TaskService) UpdateStatus(ctx context.Context, caller *models.User, id string, status models.TaskStatus) (*models.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanUpdateProgress(caller, task); err != nil {
		logging.Logger.Warnf("Event ID: TASK_STATUS_FORBIDDEN, Description: User %s tried to change status of task %s", callerID(caller), task.ID.Hex())
		return nil, err
	}
	if status == "" {
		status = task.Status
	}
	if !status.Valid() {
		return nil, badRequest("invalid status: " + string(status))
	}

	task.SetStatus(status)
	task.UpdatedAt = s.now()

	if err := s.save(ctx, task); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewTaskEvent(events.TaskStatusChanged, task, caller, task.UpdatedAt))
	return task, nil
}

// UpdateChecklist replaces the checklist, re-derives progress and status, and
// returns the stored task with assignees populated.
func (s *TaskService) UpdateChecklist(ctx context.Context, caller *models.User, id string, items []models.TodoItem) (*models.PopulatedTask, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanUpdateProgress(caller, task); err != nil {
		logging.Logger.Warnf("Event ID: TASK_CHECKLIST_FORBIDDEN, Description: User %s tried to update checklist of task %s", callerID(caller), task.ID.Hex())
		return nil, err
	}

	task.ReplaceChecklist(items)
	task.UpdatedAt = s.now()

	if err := s.save(ctx, task); err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, events.NewTaskEvent(events.TaskChecklistUpdated, task, caller, task.UpdatedAt))

	return s.GetTask(ctx, task.ID.Hex())
}

func (s *TaskService) findTask(ctx context.Context, id string) (*models.Task, error) {
	oid, err := parseObjectID(id, "Task")
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("Task not found")
		}
		return nil, serverError(err)
	}
	return task, nil
}

func (s *TaskService) save(ctx context.Context, task *models.Task) error {
	if err := s.tasks.Replace(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Task not found")
		}
		return serverError(err)
	}
	return nil
}

// populate swaps assignee ids for user summaries. Ids without a matching user are
// dropped.
func (s *TaskService) populate(ctx context.Context, tasks []models.Task) ([]models.PopulatedTask, error) {
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, task := range tasks {
		for _, id := range task.AssignedTo {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, serverError(err)
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}

	populated := make([]models.PopulatedTask, 0, len(tasks))
	for _, task := range tasks {
		assignees := make([]models.UserSummary, 0, len(task.AssignedTo))
		for _, id := range task.AssignedTo {
			if summary, ok := byID[id]; ok {
				assignees = append(assignees, summary)
			}
		}
		populated = append(populated, models.PopulatedTask{Task: task, AssignedTo: assignees})
	}
	return populated, nil
}

func callerID(caller *models.User) string {
	if caller == nil {
		return "anonymous"
	}
	return caller.ID.Hex()
}
