package services

import (
	"context"
	"time"

	"github.com/SainiAdi-04/Task-Manager/models"
	"github.com/SainiAdi-04/Task-Manager/repositories"
)

const recentTaskLimit = 10

type DashboardService struct {
	tasks repositories.TaskRepository
	now   func() time.Time
}

func NewDashboardService(tasks repositories.TaskRepository) *DashboardService {
	return &DashboardService{tasks: tasks, now: time.Now}
}

// GlobalDashboard aggregates over every task.
func (s *DashboardService) GlobalDashboard(ctx context.Context) (*models.Dashboard, error) {
	return s.build(ctx, repositories.TaskFilter{})
}

// UserDashboard aggregates over the tasks assigned to caller.
func (s *DashboardService) UserDashboard(ctx context.Context, caller *models.User) (*models.Dashboard, error) {
	if caller == nil {
		return nil, unauthorized("Not authorized")
	}
	return s.build(ctx, repositories.TaskFilter{AssignedTo: caller.ID})
}

func (s *DashboardService) build(ctx context.Context, scope repositories.TaskFilter) (*models.Dashboard, error) {
	total, err := s.tasks.Count(ctx, scope)
	if err != nil {
		return nil, serverError(err)
	}

	overdueFilter := scope
	overdueFilter.OverdueAt = s.now()
	overdue, err := s.tasks.Count(ctx, overdueFilter)
	if err != nil {
		return nil, serverError(err)
	}

	byStatus, err := s.tasks.CountBy(ctx, scope, repositories.GroupByStatus)
	if err != nil {
		return nil, serverError(err)
	}
	byPriority, err := s.tasks.CountBy(ctx, scope, repositories.GroupByPriority)
	if err != nil {
		return nil, serverError(err)
	}

	distribution := make(map[string]int64, len(models.TaskStatuses)+1)
	for _, status := range models.TaskStatuses {
		distribution[status.Key()] = byStatus[string(status)]
	}
	distribution["All"] = total

	priorities := make(map[string]int64, len(models.TaskPriorities))
	for _, priority := range models.TaskPriorities {
		priorities[string(priority)] = byPriority[string(priority)]
	}

	recent, err := s.tasks.Recent(ctx, scope, recentTaskLimit)
	if err != nil {
		return nil, serverError(err)
	}
	if recent == nil {
		recent = []models.RecentTask{}
	}

	return &models.Dashboard{
		Statistics: models.DashboardStatistics{
			TotalTasks:     total,
			PendingTasks:   byStatus[string(models.StatusPending)],
			CompletedTasks: byStatus[string(models.StatusCompleted)],
			OverdueTasks:   overdue,
		},
		Charts: models.DashboardCharts{
			TaskDistribution:   distribution,
			TaskPriorityLevels: priorities,
		},
		RecentTasks: recent,
	}, nil
}
