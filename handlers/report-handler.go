package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/SainiAdi-04/Task-Manager/logging"
	"github.com/SainiAdi-04/Task-Manager/middleware"
	"github.com/SainiAdi-04/Task-Manager/reports"
	"github.com/SainiAdi-04/Task-Manager/services"
	"github.com/SainiAdi-04/Task-Manager/utils"
)

type ReportHandler struct {
	tasks *services.TaskService
	users *services.UserService
}

func NewReportHandler(tasks *services.TaskService, users *services.UserService) *ReportHandler {
	return &ReportHandler{tasks: tasks, users: users}
}

func (h *ReportHandler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.tasks.ListTasks(r.Context(), middleware.UserFromContext(r.Context()), "")
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteTasks(&buf, list.Tasks); err != nil {
		logging.Logger.Errorf("Event ID: REPORT_TASKS_FAILED, Description: %v", err)
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.ErrorResponse{Message: "Error exporting tasks", Error: err.Error()})
		return
	}
	writeAttachment(w, reports.TasksFilename, &buf)
}

func (h *ReportHandler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteUsers(&buf, users); err != nil {
		logging.Logger.Errorf("Event ID: REPORT_USERS_FAILED, Description: %v", err)
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.ErrorResponse{Message: "Error exporting users", Error: err.Error()})
		return
	}
	writeAttachment(w, reports.UsersFilename, &buf)
}

func writeAttachment(w http.ResponseWriter, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", reports.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Logger.Warnf("Event ID: REPORT_WRITE_FAILED, Description: Failed to send %s: %v", filename, err)
	}
}
