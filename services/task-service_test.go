package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SainiAdi-04/Task-Manager/events"
	"github.com/SainiAdi-04/Task-Manager/models"
	"github.com/SainiAdi-04/Task-Manager/testutil"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type taskFixture struct {
	tasks     *testutil.FakeTaskRepository
	users     *testutil.FakeUserRepository
	publisher *testutil.RecordingPublisher
	svc       *TaskService
	admin     models.User
	alice     models.User
	bob       models.User
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	f := &taskFixture{
		tasks:     testutil.NewFakeTaskRepository(),
		users:     testutil.NewFakeUserRepository(),
		publisher: &testutil.RecordingPublisher{},
	}
	f.svc = NewTaskService(f.tasks, f.users, f.publisher)
	f.svc.now = func() time.Time { return fixedNow }

	f.admin = f.users.Add(models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin})
	f.alice = f.users.Add(models.User{Name: "Alice", Email: "alice@example.com", Role: models.RoleMember})
	f.bob = f.users.Add(models.User{Name: "Bob", Email: "bob@example.com", Role: models.RoleMember})
	return f
}

func (f *taskFixture) addTask(t *testing.T, title string, assignees ...primitive.ObjectID) models.Task {
	t.Helper()
	return f.tasks.Add(models.Task{
		Title:      title,
		Priority:   models.PriorityMedium,
		Status:     models.StatusPending,
		CreatedBy:  f.admin.ID,
		AssignedTo: assignees,
		CreatedAt:  fixedNow,
		UpdatedAt:  fixedNow,
	})
}

func wantKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func TestCreateTask(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	task, err := f.svc.CreateTask(ctx, &f.admin, CreateTaskInput{
		Title:      "Write report",
		AssignedTo: []primitive.ObjectID{f.alice.ID},
		TodoChecklist: []models.TodoItem{
			{Text: "outline", Completed: true},
			{Text: "draft"},
		},
	})
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("expected default priority Medium, got %q", task.Priority)
	}
	if task.Progress != 50 || task.Status != models.StatusInProgress {
		t.Errorf("expected 50%% In Progress, got %d%% %q", task.Progress, task.Status)
	}
	if task.CreatedBy != f.admin.ID {
		t.Errorf("createdBy not set to caller")
	}
	if _, ok := f.tasks.Get(task.ID); !ok {
		t.Error("task was not stored")
	}
	if names := f.publisher.Names(); len(names) != 1 || names[0] != events.TaskCreated {
		t.Errorf("unexpected events %v", names)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	assignees := []primitive.ObjectID{f.alice.ID}

	tests := []struct {
		name   string
		caller *models.User
		in     CreateTaskInput
		kind   ErrorKind
	}{
		{"member", &f.alice, CreateTaskInput{Title: "x", AssignedTo: assignees}, KindForbidden},
		{"no caller", nil, CreateTaskInput{Title: "x", AssignedTo: assignees}, KindUnauthorized},
		{"missing title", &f.admin, CreateTaskInput{AssignedTo: assignees}, KindBadRequest},
		{"no assignees", &f.admin, CreateTaskInput{Title: "x"}, KindBadRequest},
		{"bad priority", &f.admin, CreateTaskInput{Title: "x", AssignedTo: assignees, Priority: "Urgent"}, KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateTask(ctx, tt.caller, tt.in)
			wantKind(t, err, tt.kind)
		})
	}
	if len(f.publisher.Events()) != 0 {
		t.Error("rejected creates must not publish events")
	}
}

func TestParseAssignedToRejectsNonArray(t *testing.T) {
	for _, raw := range []string{`"abc"`, `{"id":"x"}`, `42`, ``, `[1,2]`} {
		_, err := ParseAssignedTo(json.RawMessage(raw))
		wantKind(t, err, KindBadRequest)
		if e := err.(*Error); raw != `` && e.Message != "assignedTo must be an array of user IDs" {
			t.Errorf("%s: unexpected message %q", raw, e.Message)
		}
	}

	ids, err := ParseAssignedTo(json.RawMessage(`["5f1d7f0e2f8fb814b56fa181"]`))
	if err != nil || len(ids) != 1 {
		t.Fatalf("valid array rejected: %v", err)
	}

	_, err = ParseAssignedTo(json.RawMessage(`["nope"]`))
	wantKind(t, err, KindBadRequest)
}

func TestParseDueDate(t *testing.T) {
	due, err := ParseDueDate("2025-07-01")
	if err != nil || !due.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v, %v", due, err)
	}
	if due, err := ParseDueDate(""); due != nil || err != nil {
		t.Errorf("empty dueDate should be nil, got %v, %v", due, err)
	}
	_, err = ParseDueDate("next week")
	wantKind(t, err, KindBadRequest)
}

func TestListTasksScopesMembers(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	f.addTask(t, "alice only", f.alice.ID)
	shared := f.addTask(t, "shared", f.alice.ID, f.bob.ID)
	f.addTask(t, "bob only", f.bob.ID)

	shared.SetStatus(models.StatusCompleted)
	f.tasks.Add(shared)

	list, err := f.svc.ListTasks(ctx, &f.alice, "")
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	if len(list.Tasks) != 2 {
		t.Fatalf("alice should see 2 tasks, got %d", len(list.Tasks))
	}
	want := models.StatusSummary{All: 2, PendingTasks: 1, InProgressTasks: 0, CompletedTasks: 1}
	if list.StatusSummary != want {
		t.Errorf("summary = %+v, want %+v", list.StatusSummary, want)
	}

	list, err = f.svc.ListTasks(ctx, &f.admin, string(models.StatusCompleted))
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	if len(list.Tasks) != 1 || list.Tasks[0].Title != "shared" {
		t.Fatalf("unexpected filtered list %+v", list.Tasks)
	}
	if list.StatusSummary.All != 3 {
		t.Errorf("summary must ignore the status filter, got all=%d", list.StatusSummary.All)
	}
	if got := list.Tasks[0].AssignedTo; len(got) != 2 || got[0].Name != "Alice" || got[1].Name != "Bob" {
		t.Errorf("assignees not populated in order: %+v", got)
	}

	_, err = f.svc.ListTasks(ctx, &f.admin, "Blocked")
	wantKind(t, err, KindBadRequest)
}

func TestGetTask(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	ghost := primitive.NewObjectID()
	task := f.addTask(t, "populate", f.alice.ID, ghost)

	got, err := f.svc.GetTask(ctx, task.ID.Hex())
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if len(got.AssignedTo) != 1 || got.AssignedTo[0].Email != "alice@example.com" {
		t.Errorf("unknown assignees should be dropped: %+v", got.AssignedTo)
	}

	_, err = f.svc.GetTask(ctx, primitive.NewObjectID().Hex())
	wantKind(t, err, KindNotFound)
	_, err = f.svc.GetTask(ctx, "not-an-id")
	wantKind(t, err, KindNotFound)
}

func TestUpdateTask(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "old title", f.alice.ID)

	title := "new title"
	empty := ""
	assignees := []primitive.ObjectID{f.bob.ID}
	updated, err := f.svc.UpdateTask(ctx, &f.admin, task.ID.Hex(), models.TaskPatch{
		Title:       &title,
		Description: &empty,
		AssignedTo:  &assignees,
	})
	if err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}
	if updated.Title != "new title" || !updated.IsAssignee(f.bob.ID) || updated.IsAssignee(f.alice.ID) {
		t.Errorf("patch not applied: %+v", updated)
	}

	none := []primitive.ObjectID{}
	_, err = f.svc.UpdateTask(ctx, &f.admin, task.ID.Hex(), models.TaskPatch{AssignedTo: &none})
	wantKind(t, err, KindBadRequest)

	stored, _ := f.tasks.Get(task.ID)
	if !stored.IsAssignee(f.bob.ID) {
		t.Error("rejected update must leave the task unchanged")
	}

	_, err = f.svc.UpdateTask(ctx, &f.admin, primitive.NewObjectID().Hex(), models.TaskPatch{Title: &title})
	wantKind(t, err, KindNotFound)
}

func TestDeleteTask(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "doomed", f.alice.ID)

	wantKind(t, f.svc.DeleteTask(ctx, &f.alice, task.ID.Hex()), KindForbidden)
	if err := f.svc.DeleteTask(ctx, &f.admin, task.ID.Hex()); err != nil {
		t.Fatalf("DeleteTask() error: %v", err)
	}
	if _, ok := f.tasks.Get(task.ID); ok {
		t.Error("task still stored after delete")
	}
	wantKind(t, f.svc.DeleteTask(ctx, &f.admin, task.ID.Hex()), KindNotFound)
}

func TestUpdateStatusCompletedCascades(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "cascade", f.alice.ID)
	task.ReplaceChecklist([]models.TodoItem{{Text: "a"}, {Text: "b", Completed: true}})
	f.tasks.Add(task)

	updated, err := f.svc.UpdateStatus(ctx, &f.alice, task.ID.Hex(), models.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if updated.Progress != 100 {
		t.Errorf("expected progress 100, got %d", updated.Progress)
	}
	for _, item := range updated.TodoChecklist {
		if !item.Completed {
			t.Errorf("item %q not completed", item.Text)
		}
	}
	if names := f.publisher.Names(); len(names) != 1 || names[0] != events.TaskStatusChanged {
		t.Errorf("unexpected events %v", names)
	}
}

func TestUpdateStatusPermissions(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "alice's", f.alice.ID)

	_, err := f.svc.UpdateStatus(ctx, &f.bob, task.ID.Hex(), models.StatusInProgress)
	wantKind(t, err, KindForbidden)

	stored, _ := f.tasks.Get(task.ID)
	if stored.Status != models.StatusPending {
		t.Errorf("forbidden update changed status to %q", stored.Status)
	}

	updated, err := f.svc.UpdateStatus(ctx, &f.admin, task.ID.Hex(), models.StatusInProgress)
	if err != nil {
		t.Fatalf("admin UpdateStatus() error: %v", err)
	}
	if updated.Status != models.StatusInProgress {
		t.Errorf("expected In Progress, got %q", updated.Status)
	}

	_, err = f.svc.UpdateStatus(ctx, &f.admin, task.ID.Hex(), "Done")
	wantKind(t, err, KindBadRequest)

	kept, err := f.svc.UpdateStatus(ctx, &f.alice, task.ID.Hex(), "")
	if err != nil || kept.Status != models.StatusInProgress {
		t.Errorf("empty status should keep current one, got %q, %v", kept.Status, err)
	}
}

func TestUpdateChecklist(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "checklist", f.alice.ID)

	tests := []struct {
		items    []models.TodoItem
		progress int
		status   models.TaskStatus
	}{
		{[]models.TodoItem{{Text: "a", Completed: true}, {Text: "b"}, {Text: "c", Completed: true}}, 67, models.StatusInProgress},
		{[]models.TodoItem{{Text: "a", Completed: true}, {Text: "b", Completed: true}}, 100, models.StatusCompleted},
		{[]models.TodoItem{}, 0, models.StatusPending},
		{[]models.TodoItem{{Text: "a"}, {Text: "b"}}, 0, models.StatusPending},
	}
	for _, tt := range tests {
		got, err := f.svc.UpdateChecklist(ctx, &f.alice, task.ID.Hex(), tt.items)
		if err != nil {
			t.Fatalf("UpdateChecklist() error: %v", err)
		}
		if got.Progress != tt.progress || got.Status != tt.status {
			t.Errorf("items %+v: got %d%% %q, want %d%% %q", tt.items, got.Progress, got.Status, tt.progress, tt.status)
		}
		if len(got.AssignedTo) != 1 || got.AssignedTo[0].Name != "Alice" {
			t.Errorf("response should carry populated assignees, got %+v", got.AssignedTo)
		}
	}

	_, err := f.svc.UpdateChecklist(ctx, &f.bob, task.ID.Hex(), nil)
	wantKind(t, err, KindForbidden)
}

func TestServerErrorsAreWrapped(t *testing.T) {
	f := newTaskFixture(t)
	f.tasks.Err = context.DeadlineExceeded

	_, err := f.svc.ListTasks(context.Background(), &f.admin, "")
	wantKind(t, err, KindServerError)
	if e := err.(*Error); e.Message != "Server error" || e.Err != context.DeadlineExceeded {
		t.Errorf("unexpected error %+v", e)
	}
}
