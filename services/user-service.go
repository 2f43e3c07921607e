package services

import (
	"context"
	"errors"

	"github.com/SainiAdi-04/Task-Manager/models"
	"github.com/SainiAdi-04/Task-Manager/repositories"
)

type UserService struct {
	users repositories.UserRepository
	tasks repositories.TaskRepository
}

func NewUserService(users repositories.UserRepository, tasks repositories.TaskRepository) *UserService {
	return &UserService{users: users, tasks: tasks}
}

// ListMembers returns every member annotated with their task counts per status.
func (s *UserService) ListMembers(ctx context.Context) ([]models.UserWithTaskCounts, error) {
	return s.withTaskCounts(ctx, models.RoleMember)
}

// ListAll is ListMembers without the role restriction; reports include admins.
func (s *UserService) ListAll(ctx context.Context) ([]models.UserWithTaskCounts, error) {
	return s.withTaskCounts(ctx, "")
}

func (s *UserService) withTaskCounts(ctx context.Context, role string) ([]models.UserWithTaskCounts, error) {
	users, err := s.users.FindAll(ctx, role)
	if err != nil {
		return nil, serverError(err)
	}

	result := make([]models.UserWithTaskCounts, 0, len(users))
	for _, user := range users {
		counts, err := s.tasks.CountBy(ctx, repositories.TaskFilter{AssignedTo: user.ID}, repositories.GroupByStatus)
		if err != nil {
			return nil, serverError(err)
		}
		result = append(result, models.UserWithTaskCounts{
			User:            user,
			PendingTasks:    counts[string(models.StatusPending)],
			InProgressTasks: counts[string(models.StatusInProgress)],
			CompletedTasks:  counts[string(models.StatusCompleted)],
		})
	}
	return result, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseObjectID(id, "User")
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("User not found")
		}
		return nil, serverError(err)
	}
	return user, nil
}
