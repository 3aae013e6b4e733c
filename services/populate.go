package services

import (
	"context"

	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// populateTeams resolves the team of every task with one user lookup.
// Team order is kept; users that no longer exist are skipped.
func populateTeams(ctx context.Context, users repositories.UserRepository, tasks []models.Task) ([]models.TaskDetail, error) {
	var ids []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	for _, t := range tasks {
		for _, id := range t.Team {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	found, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(found))
	for i := range found {
		byID[found[i].ID] = found[i].Summary()
	}

	out := make([]models.TaskDetail, 0, len(tasks))
	for i := range tasks {
		team := make([]models.UserSummary, 0, len(tasks[i].Team))
		for _, id := range tasks[i].Team {
			if u, ok := byID[id]; ok {
				team = append(team, u)
			}
		}
		task := tasks[i]
		out = append(out, models.TaskDetail{Task: &task, Team: team})
	}
	return out, nil
}
