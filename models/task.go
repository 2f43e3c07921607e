package models

import (
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// TaskStatuses is the fixed bucket order used by summaries and dashboards.
var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Key is the status with spaces removed, as used in chart payloads ("InProgress").
func (s TaskStatus) Key() string {
	return strings.Join(strings.Fields(string(s)), "")
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

func (p TaskPriority) Valid() bool {
	for _, known := range TaskPriorities {
		if p == known {
			return true
		}
	}
	return false
}

type TodoItem struct {
	Text      string `json:"text" bson:"text"`
	Completed bool   `json:"completed" bson:"completed"`
}

type Task struct {
	ID            primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Title         string               `json:"title" bson:"title"`
	Description   string               `json:"description" bson:"description"`
	Priority      TaskPriority         `json:"priority" bson:"priority"`
	Status        TaskStatus           `json:"status" bson:"status"`
	DueDate       *time.Time           `json:"dueDate" bson:"dueDate,omitempty"`
	CreatedBy     primitive.ObjectID   `json:"createdBy" bson:"createdBy"`
	AssignedTo    []primitive.ObjectID `json:"assignedTo" bson:"assignedTo"`
	TodoChecklist []TodoItem           `json:"todoChecklist" bson:"todoChecklist"`
	Progress      int                  `json:"progress" bson:"progress"`
	Attachments   []string             `json:"attachments" bson:"attachments"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// ChecklistProgress returns the rounded percentage of completed items, 0 for an empty list.
func ChecklistProgress(items []TodoItem) int {
	if len(items) == 0 {
		return 0
	}
	done := 0
	for _, item := range items {
		if item.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(items)) * 100))
}

// StatusForProgress maps a progress percentage onto its status bucket.
func StatusForProgress(progress int) TaskStatus {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}

func (t *Task) CompletedTodoCount() int {
	count := 0
	for _, item := range t.TodoChecklist {
		if item.Completed {
			count++
		}
	}
	return count
}

func (t *Task) IsAssignee(userID primitive.ObjectID) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// ReplaceChecklist swaps in a new checklist and re-derives progress and status from it.
func (t *Task) ReplaceChecklist(items []TodoItem) {
	if items == nil {
		items = []TodoItem{}
	}
	t.TodoChecklist = items
	t.Progress = ChecklistProgress(items)
	t.Status = StatusForProgress(t.Progress)
}

// SetStatus changes the status. Completing a task completes every checklist item
// and pins progress at 100; other transitions leave progress untouched.
func (t *Task) SetStatus(status TaskStatus) {
	t.Status = status
	if status != StatusCompleted {
		return
	}
	for i := range t.TodoChecklist {
		t.TodoChecklist[i].Completed = true
	}
	t.Progress = 100
}

func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusCompleted && t.DueDate != nil && t.DueDate.Before(now)
}

// Normalize replaces nil slices so documents and responses carry empty arrays.
func (t *Task) Normalize() {
	if t.AssignedTo == nil {
		t.AssignedTo = []primitive.ObjectID{}
	}
	if t.TodoChecklist == nil {
		t.TodoChecklist = []TodoItem{}
	}
	if t.Attachments == nil {
		t.Attachments = []string{}
	}
}

// TaskPatch carries the fields of a partial task update; nil means "not sent".
//
// Empty strings are treated like absent fields, so a title or description cannot be
// cleared through an update.
// TODO: decide whether an explicit "" should clear description; the web client never sends one today.
type TaskPatch struct {
	Title         *string
	Description   *string
	Priority      *TaskPriority
	DueDate       *time.Time
	AssignedTo    *[]primitive.ObjectID
	TodoChecklist *[]TodoItem
	Attachments   *[]string
}

func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil && *p.Title != "" {
		t.Title = *p.Title
	}
	if p.Description != nil && *p.Description != "" {
		t.Description = *p.Description
	}
	if p.Priority != nil && *p.Priority != "" {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.TodoChecklist != nil {
		t.TodoChecklist = *p.TodoChecklist
	}
	if p.Attachments != nil {
		t.Attachments = *p.Attachments
	}
	t.Normalize()
}

// PopulatedTask is a task whose assignee ids have been replaced by user summaries.
type PopulatedTask struct {
	Task
	AssignedTo []UserSummary `json:"assignedTo"`
}

type TaskListItem struct {
	PopulatedTask
	CompletedTodoCount int `json:"completedTodoCount"`
}

type StatusSummary struct {
	All             int64 `json:"all"`
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}

type TaskList struct {
	Tasks         []TaskListItem `json:"tasks"`
	StatusSummary StatusSummary  `json:"statusSummary"`
}
