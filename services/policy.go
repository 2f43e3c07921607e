package services

import (
	"github.com/SainiAdi-04/Task-Manager/models"
	"github.com/SainiAdi-04/Task-Manager/repositories"
)

// RequireAdmin allows only administrators.
func RequireAdmin(caller *models.User) error {
	if caller == nil {
		return unauthorized("Not authorized")
	}
	if !caller.IsAdmin() {
		return forbidden("Access denied, admins only")
	}
	return nil
}

// CanUpdateProgress allows admins and the task's assignees to change its status
// or checklist.
func CanUpdateProgress(caller *models.User, task *models.Task) error {
	if caller == nil {
		return unauthorized("Not authorized")
	}
	if caller.IsAdmin() || task.IsAssignee(caller.ID) {
		return nil
	}
	return forbidden("Not authorized to update this task")
}

// TaskScope is the slice of tasks caller may list: everything for admins, own
// assignments for members.
func TaskScope(caller *models.User) repositories.TaskFilter {
	if caller.IsAdmin() {
		return repositories.TaskFilter{}
	}
	return repositories.TaskFilter{AssignedTo: caller.ID}
}
