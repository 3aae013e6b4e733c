package services

import (
	"context"
	"time"

	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/repositories"
	"golang.org/x/exp/slices"
)

const dashboardListSize = 10

// DashboardService builds the read-only dashboard projection.
type DashboardService struct {
	tasks repositories.TaskRepository
	users repositories.UserRepository
	now   func() time.Time
}

func NewDashboardService(tasks repositories.TaskRepository, users repositories.UserRepository) *DashboardService {
	return &DashboardService{tasks: tasks, users: users, now: time.Now}
}

// previousMonth returns [first of last month, first of this month).
func previousMonth(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return end.AddDate(0, -1, 0), end
}

func countByStage(tasks []models.Task) map[models.Stage]int {
	counts := make(map[models.Stage]int, len(models.Stages))
	for _, st := range models.Stages {
		counts[st] = 0
	}
	for _, t := range tasks {
		counts[t.Stage]++
	}
	return counts
}

func priorityChart(tasks []models.Task) []models.PriorityCount {
	counts := map[models.Priority]int{}
	for _, t := range tasks {
		counts[t.Priority]++
	}
	chart := make([]models.PriorityCount, 0, len(counts))
	for p, n := range counts {
		chart = append(chart, models.PriorityCount{Name: p, Total: n})
	}
	slices.SortFunc(chart, func(a, b models.PriorityCount) int {
		if d := a.Name.Rank() - b.Name.Rank(); d != 0 {
			return d
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return chart
}

// Compute summarizes the live tasks visible to p: every task for admins,
// only tasks whose team contains p otherwise.
func (s *DashboardService) Compute(ctx context.Context, p *models.Principal) (*models.DashboardSummary, error) {
	live := false
	filter := models.TaskFilter{Trashed: &live}
	if !p.IsAdmin {
		filter.Member = p.UserID
	}
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	start, end := previousMonth(s.now())
	var lastMonth []models.Task
	for _, t := range tasks {
		if !t.CreatedAt.Before(start) && t.CreatedAt.Before(end) {
			lastMonth = append(lastMonth, t)
		}
	}

	recent := tasks
	if len(recent) > dashboardListSize {
		recent = recent[:dashboardListSize]
	}
	last10, err := populateTeams(ctx, s.users, recent)
	if err != nil {
		return nil, err
	}

	summary := &models.DashboardSummary{
		TotalTasks:     len(tasks),
		LastMonthTotal: len(lastMonth),
		Last10Task:     last10,
		Tasks:          countByStage(tasks),
		LastMonthTasks: countByStage(lastMonth),
		GraphData:      priorityChart(tasks),
	}

	if p.IsAdmin {
		users, err := s.users.ListActiveRecent(ctx, dashboardListSize)
		if err != nil {
			return nil, err
		}
		summary.Users = make([]models.UserSummary, 0, len(users))
		for i := range users {
			u := users[i].Summary()
			created := users[i].CreatedAt
			u.CreatedAt = &created
			summary.Users = append(summary.Users, u)
		}
	}
	return summary, nil
}
