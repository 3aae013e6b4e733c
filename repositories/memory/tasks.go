package memory

import (
	"context"
	"sync"
	"time"

	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[primitive.ObjectID]*models.Task
}

var _ repositories.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: map[primitive.ObjectID]*models.Task{}}
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	c.Team = cloneIDs(t.Team)
	c.SubTasks = slices.Clone(t.SubTasks)
	c.Activities = slices.Clone(t.Activities)
	c.Assets = slices.Clone(t.Assets)
	c.Links = slices.Clone(t.Links)
	return &c
}

func (r *TaskRepository) Insert(_ context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *TaskRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, models.NotFoundError("Task not found")
	}
	return cloneTask(t), nil
}

func (r *TaskRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Task{}
	for _, id := range ids {
		if t, ok := r.tasks[id]; ok {
			out = append(out, *cloneTask(t))
		}
	}
	return out, nil
}

func matches(t *models.Task, f models.TaskFilter) bool {
	if f.Trashed != nil && t.IsTrashed != *f.Trashed {
		return false
	}
	if f.Stage != "" && t.Stage != f.Stage {
		return false
	}
	if !f.Member.IsZero() && !t.HasMember(f.Member) {
		return false
	}
	if f.Search != "" && !containsFold([]string{t.Title, string(t.Stage), string(t.Priority)}, f.Search) {
		return false
	}
	return true
}

func (r *TaskRepository) List(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Task{}
	for _, t := range r.tasks {
		if matches(t, filter) {
			out = append(out, *cloneTask(t))
		}
	}
	slices.SortFunc(out, func(a, b models.Task) int { return newestFirst(a.ID, b.ID) })
	return out, nil
}

func (r *TaskRepository) mutate(id primitive.ObjectID, fn func(t *models.Task) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return models.NotFoundError("Task not found")
	}
	return fn(t)
}

func (r *TaskRepository) Update(_ context.Context, id primitive.ObjectID, u models.TaskUpdate, now time.Time) error {
	return r.mutate(id, func(t *models.Task) error {
		t.Title = u.Title
		t.Date = u.Date
		t.Priority = u.Priority
		t.Assets = append([]string{}, u.Assets...)
		t.Stage = u.Stage
		t.Links = append([]string{}, u.Links...)
		t.Description = u.Description
		t.UpdatedAt = now
		return nil
	})
}

func (r *TaskRepository) SetStage(_ context.Context, id primitive.ObjectID, stage models.Stage, now time.Time) error {
	return r.mutate(id, func(t *models.Task) error {
		t.Stage = stage
		t.UpdatedAt = now
		return nil
	})
}

func (r *TaskRepository) SetTrashed(_ context.Context, id primitive.ObjectID, trashed bool) error {
	return r.mutate(id, func(t *models.Task) error {
		t.IsTrashed = trashed
		return nil
	})
}

func (r *TaskRepository) RestoreAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tasks {
		if t.IsTrashed {
			t.IsTrashed = false
			n++
		}
	}
	return n, nil
}

func (r *TaskRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; !ok || !t.IsTrashed {
		return models.NotFoundError("Task not found in trash")
	}
	delete(r.tasks, id)
	return nil
}

func (r *TaskRepository) DeleteTrashed(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tasks {
		if t.IsTrashed {
			delete(r.tasks, id)
			n++
		}
	}
	return n, nil
}

func (r *TaskRepository) PushSubTask(_ context.Context, id primitive.ObjectID, sub models.SubTask, now time.Time) error {
	return r.mutate(id, func(t *models.Task) error {
		t.SubTasks = append(t.SubTasks, sub)
		t.UpdatedAt = now
		return nil
	})
}

func (r *TaskRepository) SetSubTaskCompleted(_ context.Context, taskID, subTaskID primitive.ObjectID, completed bool, now time.Time) error {
	return r.mutate(taskID, func(t *models.Task) error {
		sub := t.SubTaskByID(subTaskID)
		if sub == nil {
			return models.NotFoundError("Task or subtask not found")
		}
		sub.IsCompleted = completed
		t.UpdatedAt = now
		return nil
	})
}

func (r *TaskRepository) PushActivity(_ context.Context, id primitive.ObjectID, activity models.Activity, now time.Time) error {
	return r.mutate(id, func(t *models.Task) error {
		t.Activities = append(t.Activities, activity)
		t.UpdatedAt = now
		return nil
	})
}
