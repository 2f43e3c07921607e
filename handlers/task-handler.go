package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/SainiAdi-04/Task-Manager/logging"
	"github.com/SainiAdi-04/Task-Manager/middleware"
	"github.com/SainiAdi-04/Task-Manager/models"
	"github.com/SainiAdi-04/Task-Manager/services"
	"github.com/SainiAdi-04/Task-Manager/utils"

	"github.com/gorilla/mux"
)

type TaskHandler struct {
	service    *services.TaskService
	dashboards *services.DashboardService
}

func NewTaskHandler(service *services.TaskService, dashboards *services.DashboardService) *TaskHandler {
	return &TaskHandler{service: service, dashboards: dashboards}
}

type createTaskRequest struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Priority      string            `json:"priority"`
	DueDate       string            `json:"dueDate"`
	AssignedTo    json.RawMessage   `json:"assignedTo"`
	TodoChecklist []models.TodoItem `json:"todoChecklist"`
	Attachments   []string          `json:"attachments"`
}

type updateTaskRequest struct {
	Title         *string            `json:"title"`
	Description   *string            `json:"description"`
	Priority      *string            `json:"priority"`
	DueDate       *string            `json:"dueDate"`
	AssignedTo    json.RawMessage    `json:"assignedTo"`
	TodoChecklist *[]models.TodoItem `json:"todoChecklist"`
	Attachments   *[]string          `json:"attachments"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateChecklistRequest struct {
	TodoChecklist []models.TodoItem `json:"todoChecklist"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logging.Logger.Warnf("Event ID: INVALID_REQUEST_BODY, Description: Failed to decode body for %s %s: %v", r.Method, r.URL.Path, err)
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	caller := middleware.UserFromContext(r.Context())
	list, err := h.service.ListTasks(r.Context(), caller, r.URL.Query().Get("status"))
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.GetTask(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	assignees, err := services.ParseAssignedTo(req.AssignedTo)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	dueDate, err := services.ParseDueDate(req.DueDate)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}

	task, err := h.service.CreateTask(r.Context(), middleware.UserFromContext(r.Context()), services.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      models.TaskPriority(req.Priority),
		DueDate:       dueDate,
		AssignedTo:    assignees,
		TodoChecklist: req.TodoChecklist,
		Attachments:   req.Attachments,
	})
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Task created successfully",
		"task":    task,
	})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := models.TaskPatch{
		Title:         req.Title,
		Description:   req.Description,
		TodoChecklist: req.TodoChecklist,
		Attachments:   req.Attachments,
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		patch.Priority = &priority
	}
	if req.DueDate != nil {
		dueDate, err := services.ParseDueDate(*req.DueDate)
		if err != nil {
			utils.RespondWithServiceError(w, err)
			return
		}
		patch.DueDate = dueDate
	}
	if !services.IsAbsent(req.AssignedTo) {
		assignees, err := services.ParseAssignedTo(req.AssignedTo)
		if err != nil {
			utils.RespondWithServiceError(w, err)
			return
		}
		patch.AssignedTo = &assignees
	}

	task, err := h.service.UpdateTask(r.Context(), middleware.UserFromContext(r.Context()), mux.Vars(r)["id"], patch)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Task updated successfully",
		"updatedTask": task,
	})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTask(r.Context(), middleware.UserFromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.MessageResponse{Message: "Task deleted successfully"})
}

func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := h.service.UpdateStatus(r.Context(), middleware.UserFromContext(r.Context()), mux.Vars(r)["id"], models.TaskStatus(req.Status))
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task status updated",
		"task":    task,
	})
}

func (h *TaskHandler) UpdateTaskChecklist(w http.ResponseWriter, r *http.Request) {
	var req updateChecklistRequest
	if !decodeBody(w, r, &req) {
		return
	}

	task, err := h.service.UpdateChecklist(r.Context(), middleware.UserFromContext(r.Context()), mux.Vars(r)["id"], req.TodoChecklist)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task checklist updated",
		"task":    task,
	})
}

func (h *TaskHandler) GetDashboardData(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboards.GlobalDashboard(r.Context())
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dashboard)
}

func (h *TaskHandler) GetUserDashboardData(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboards.UserDashboard(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dashboard)
}
