package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SainiAdi-04/Task-Manager/middleware"
	"github.com/SainiAdi-04/Task-Manager/models"
	"github.com/SainiAdi-04/Task-Manager/reports"
	"github.com/SainiAdi-04/Task-Manager/repositories"
	"github.com/SainiAdi-04/Task-Manager/services"
	"github.com/SainiAdi-04/Task-Manager/testutil"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type apiFixture struct {
	router    *mux.Router
	tasks     *testutil.FakeTaskRepository
	users     *testutil.FakeUserRepository
	publisher *testutil.RecordingPublisher
	auth      *services.AuthService
	uploadDir string

	adminToken  string
	memberToken string
	otherToken  string
	member      models.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		tasks:     testutil.NewFakeTaskRepository(),
		users:     testutil.NewFakeUserRepository(),
		publisher: &testutil.RecordingPublisher{},
		uploadDir: t.TempDir(),
	}

	jwtService := services.NewJWTService("test-secret", time.Hour)
	taskService := services.NewTaskService(f.tasks, f.users, f.publisher)
	userService := services.NewUserService(f.users, f.tasks)
	f.auth = services.NewAuthService(f.users, jwtService, "invite")

	f.router = NewRouter(Dependencies{
		Auth:          NewAuthHandler(f.auth),
		Tasks:         NewTaskHandler(taskService, services.NewDashboardService(f.tasks)),
		Users:         NewUserHandler(userService),
		Reports:       NewReportHandler(taskService, userService),
		Uploads:       NewUploadHandler(f.uploadDir),
		Authenticator: middleware.NewAuthenticator(jwtService, f.users),
		UploadDir:     f.uploadDir,
	})

	f.adminToken = f.register(t, "Admin", "admin@example.com", "invite")
	f.memberToken = f.register(t, "Member", "member@example.com", "")
	f.otherToken = f.register(t, "Other", "other@example.com", "")
	member, err := f.users.FindByEmail(context.Background(), "member@example.com")
	if err != nil {
		t.Fatalf("member not stored: %v", err)
	}
	f.member = *member
	return f
}

func (f *apiFixture) register(t *testing.T, name, email, invite string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "pw", "adminInviteToken": invite,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body)
	}
	var res services.AuthResult
	decode(t, rec, &res)
	return res.Token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"member@example.com","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"message":"Invalid email or password"}` {
		t.Errorf("body = %s", got)
	}

	rec = f.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"member@example.com","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("valid login status = %d", rec.Code)
	}
}

func TestProfileHidesPassword(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/auth/profile", f.memberToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("profile leaks password: %s", rec.Body)
	}

	rec = f.do(t, http.MethodGet, "/api/auth/profile", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous profile status = %d", rec.Code)
	}
}

func TestCreateTaskRejectsNonArrayAssignedTo(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/tasks", f.adminToken, `{"title":"x","assignedTo":"`+f.member.ID.Hex()+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["message"] != "assignedTo must be an array of user IDs" {
		t.Errorf("message = %q", body["message"])
	}
	if n, _ := f.tasks.Count(context.Background(), repositories.TaskFilter{}); n != 0 {
		t.Errorf("no task should be stored, found %d", n)
	}
}

func TestTaskLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/tasks", f.memberToken, `{"title":"x","assignedTo":[]}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member create status = %d, want 403", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/tasks", f.adminToken, map[string]interface{}{
		"title":      "Plan sprint",
		"priority":   "High",
		"dueDate":    "2030-01-15",
		"assignedTo": []string{f.member.ID.Hex()},
		"todoChecklist": []map[string]interface{}{
			{"text": "a", "completed": false},
			{"text": "b", "completed": false},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body %s", rec.Code, rec.Body)
	}
	var created struct {
		Message string      `json:"message"`
		Task    models.Task `json:"task"`
	}
	decode(t, rec, &created)
	id := created.Task.ID.Hex()

	rec = f.do(t, http.MethodPut, "/api/tasks/"+id+"/todo", f.otherToken, `{"todoChecklist":[]}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-assignee checklist status = %d, want 403", rec.Code)
	}

	rec = f.do(t, http.MethodPut, "/api/tasks/"+id+"/todo", f.memberToken,
		`{"todoChecklist":[{"text":"a","completed":true},{"text":"b","completed":false},{"text":"c","completed":true}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("checklist status = %d body %s", rec.Code, rec.Body)
	}
	var checklist struct {
		Task models.PopulatedTask `json:"task"`
	}
	decode(t, rec, &checklist)
	if checklist.Task.Progress != 67 || checklist.Task.Status != models.StatusInProgress {
		t.Errorf("got %d%% %q, want 67%% In Progress", checklist.Task.Progress, checklist.Task.Status)
	}
	if len(checklist.Task.AssignedTo) != 1 || checklist.Task.AssignedTo[0].Email != "member@example.com" {
		t.Errorf("assignees not populated: %+v", checklist.Task.AssignedTo)
	}

	rec = f.do(t, http.MethodPut, "/api/tasks/"+id+"/status", f.memberToken, `{"status":"Completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status update = %d body %s", rec.Code, rec.Body)
	}
	stored, _ := f.tasks.Get(created.Task.ID)
	if stored.Progress != 100 || stored.CompletedTodoCount() != 3 {
		t.Errorf("completion did not cascade: %+v", stored)
	}

	rec = f.do(t, http.MethodPut, "/api/tasks/"+id, f.memberToken, `{"assignedTo":{"bad":true}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("update with object assignedTo status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodPut, "/api/tasks/"+id, f.memberToken, `{"title":"Plan sprint 2","description":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body %s", rec.Code, rec.Body)
	}
	var updated struct {
		UpdatedTask models.Task `json:"updatedTask"`
	}
	decode(t, rec, &updated)
	if updated.UpdatedTask.Title != "Plan sprint 2" {
		t.Errorf("title = %q", updated.UpdatedTask.Title)
	}

	rec = f.do(t, http.MethodGet, "/api/tasks", f.memberToken, nil)
	var list models.TaskList
	decode(t, rec, &list)
	if list.StatusSummary.All != 1 || list.StatusSummary.CompletedTasks != 1 || list.Tasks[0].CompletedTodoCount != 3 {
		t.Errorf("unexpected list %+v", list)
	}

	rec = f.do(t, http.MethodDelete, "/api/tasks/"+id, f.memberToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member delete status = %d, want 403", rec.Code)
	}
	rec = f.do(t, http.MethodDelete, "/api/tasks/"+id, f.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("admin delete status = %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/api/tasks/"+id, f.adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}

	want := []string{"created", "checklist_updated", "status_changed", "updated", "deleted"}
	if got := f.publisher.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestDashboardRoutes(t *testing.T) {
	f := newAPIFixture(t)
	f.tasks.Add(models.Task{Title: "t", Status: models.StatusPending, Priority: models.PriorityLow, AssignedTo: []primitive.ObjectID{f.member.ID}})

	for _, path := range []string{"/api/tasks/dashboard-data", "/api/tasks/user-dashboard-data"} {
		rec := f.do(t, http.MethodGet, path, f.memberToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
		var dash models.Dashboard
		decode(t, rec, &dash)
		if dash.Statistics.TotalTasks != 1 || dash.Charts.TaskDistribution["InProgress"] != 0 || dash.Charts.TaskPriorityLevels["Low"] != 1 {
			t.Errorf("%s unexpected dashboard %+v", path, dash)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/tasks/user-dashboard-data", f.otherToken, nil)
	var dash models.Dashboard
	decode(t, rec, &dash)
	if dash.Statistics.TotalTasks != 0 {
		t.Errorf("other user should have no tasks, got %d", dash.Statistics.TotalTasks)
	}
}

func TestUserRoutes(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/users", f.memberToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member list status = %d, want 403", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/users", f.adminToken, nil)
	var members []models.UserWithTaskCounts
	decode(t, rec, &members)
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}

	rec = f.do(t, http.MethodGet, "/api/users/"+f.member.ID.Hex(), f.memberToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get user status = %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, "/api/users/bogus", f.memberToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get bogus user status = %d, want 404", rec.Code)
	}
}

func TestReportExport(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/reports/export/users", f.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != reports.ContentType {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="users_report.xlsx"` {
		t.Errorf("content disposition = %q", cd)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty workbook")
	}

	rec = f.do(t, http.MethodGet, "/api/reports/export/tasks", f.memberToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member export status = %d, want 403", rec.Code)
	}
}

func TestUploadImage(t *testing.T) {
	f := newAPIFixture(t)

	upload := func(contentType string, data []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="avatar.png"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart() error: %v", err)
		}
		part.Write(data)
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/upload-image", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("image/png", []byte("\x89PNG fake"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	var res map[string]string
	decode(t, rec, &res)
	prefix := "http://example.com/uploads/"
	if !strings.HasPrefix(res["imageUrl"], prefix) || !strings.HasSuffix(res["imageUrl"], "-avatar.png") {
		t.Fatalf("imageUrl = %q", res["imageUrl"])
	}
	name := strings.TrimPrefix(res["imageUrl"], prefix)
	if _, err := os.Stat(filepath.Join(f.uploadDir, name)); err != nil {
		t.Errorf("file not stored: %v", err)
	}

	served := httptest.NewRecorder()
	f.router.ServeHTTP(served, httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil))
	if served.Code != http.StatusOK || served.Body.String() != "\x89PNG fake" {
		t.Errorf("static serve status = %d", served.Code)
	}

	rec = upload("image/gif", []byte("GIF89a"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("gif upload status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/auth/upload-image", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body)
	}
}
