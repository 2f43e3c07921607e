package handlers

import (
	"net/http"

	"github.com/SainiAdi-04/Task-Manager/middleware"

	"github.com/gorilla/mux"
)

type Dependencies struct {
	Auth    *AuthHandler
	Tasks   *TaskHandler
	Users   *UserHandler
	Reports *ReportHandler
	Uploads *UploadHandler

	Authenticator *middleware.Authenticator
	UploadDir     string
}

// NewRouter wires every route under /api plus the static upload directory and the
// health probe.
func NewRouter(d Dependencies) *mux.Router {
	r := mux.NewRouter()

	protect := func(h http.HandlerFunc) http.Handler {
		return d.Authenticator.Protect(h)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return d.Authenticator.Protect(middleware.AdminsOnly(h))
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", d.Auth.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", d.Auth.Login).Methods(http.MethodPost)
	auth.Handle("/profile", protect(d.Auth.GetProfile)).Methods(http.MethodGet)
	auth.Handle("/profile", protect(d.Auth.UpdateProfile)).Methods(http.MethodPut)
	auth.HandleFunc("/upload-image", d.Uploads.UploadImage).Methods(http.MethodPost)

	// Fixed paths come before /{id} so they are not captured as ids.
	tasks := api.PathPrefix("/tasks").Subrouter()
	tasks.Handle("/dashboard-data", protect(d.Tasks.GetDashboardData)).Methods(http.MethodGet)
	tasks.Handle("/user-dashboard-data", protect(d.Tasks.GetUserDashboardData)).Methods(http.MethodGet)
	tasks.Handle("", protect(d.Tasks.GetTasks)).Methods(http.MethodGet)
	tasks.Handle("", adminOnly(d.Tasks.CreateTask)).Methods(http.MethodPost)
	tasks.Handle("/{id}", protect(d.Tasks.GetTaskByID)).Methods(http.MethodGet)
	tasks.Handle("/{id}", protect(d.Tasks.UpdateTask)).Methods(http.MethodPut)
	tasks.Handle("/{id}", adminOnly(d.Tasks.DeleteTask)).Methods(http.MethodDelete)
	tasks.Handle("/{id}/status", protect(d.Tasks.UpdateTaskStatus)).Methods(http.MethodPut)
	tasks.Handle("/{id}/todo", protect(d.Tasks.UpdateTaskChecklist)).Methods(http.MethodPut)

	users := api.PathPrefix("/users").Subrouter()
	users.Handle("", adminOnly(d.Users.GetUsers)).Methods(http.MethodGet)
	users.Handle("/{id}", protect(d.Users.GetUserByID)).Methods(http.MethodGet)

	reportRoutes := api.PathPrefix("/reports").Subrouter()
	reportRoutes.Handle("/export/tasks", adminOnly(d.Reports.ExportTasks)).Methods(http.MethodGet)
	reportRoutes.Handle("/export/users", adminOnly(d.Reports.ExportUsers)).Methods(http.MethodGet)

	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir))))

	return r
}
