package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Stage string

const (
	StageTodo       Stage = "todo"
	StageInProgress Stage = "in progress"
	StageCompleted  Stage = "completed"
)

// Stages lists every stage in board order.
var Stages = []Stage{StageTodo, StageInProgress, StageCompleted}

// ParseStage maps caller input onto a Stage. Case and surrounding spaces are
// ignored, anything outside the enum is rejected.
func ParseStage(s string) (Stage, error) {
	v := Stage(strings.ToLower(strings.TrimSpace(s)))
	for _, stage := range Stages {
		if v == stage {
			return stage, nil
		}
	}
	return "", ValidationError("Invalid stage %q, expected one of: todo, in progress, completed", s)
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority from most to least severe.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityNormal, PriorityLow}

func ParsePriority(s string) (Priority, error) {
	v := Priority(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range Priorities {
		if v == p {
			return p, nil
		}
	}
	return "", ValidationError("Invalid priority %q, expected one of: high, medium, normal, low", s)
}

// Rank orders priorities by severity, high first.
func (p Priority) Rank() int {
	for i, v := range Priorities {
		if v == p {
			return i
		}
	}
	return len(Priorities)
}

type SubTask struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Date        time.Time          `json:"date" bson:"date"`
	Tag         string             `json:"tag" bson:"tag"`
	IsCompleted bool               `json:"isCompleted" bson:"isCompleted"`
	CreatedBy   primitive.ObjectID `json:"createdBy" bson:"createdBy"`
}

// Activity is an append-only log entry of a task.
type Activity struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Type     ActivityType       `json:"type" bson:"type"`
	Activity string             `json:"activity" bson:"activity"`
	By       primitive.ObjectID `json:"by" bson:"by"`
	Date     time.Time          `json:"date" bson:"date"`
}

type Task struct {
	ID          primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Title       string               `json:"title" bson:"title"`
	Description string               `json:"description" bson:"description"`
	Stage       Stage                `json:"stage" bson:"stage"`
	Priority    Priority             `json:"priority" bson:"priority"`
	Date        time.Time            `json:"date" bson:"date"`
	Team        []primitive.ObjectID `json:"team" bson:"team"`
	SubTasks    []SubTask            `json:"subTasks" bson:"subTasks"`
	Activities  []Activity           `json:"activities" bson:"activities"`
	Assets      []string             `json:"assets" bson:"assets"`
	Links       []string             `json:"links" bson:"links"`
	IsTrashed   bool                 `json:"isTrashed" bson:"isTrashed"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// HasMember reports whether userID is on the task's team.
func (t *Task) HasMember(userID primitive.ObjectID) bool {
	for _, id := range t.Team {
		if id == userID {
			return true
		}
	}
	return false
}

// SubTaskByID returns the embedded subtask with the given id, or nil.
func (t *Task) SubTaskByID(id primitive.ObjectID) *SubTask {
	for i := range t.SubTasks {
		if t.SubTasks[i].ID == id {
			return &t.SubTasks[i]
		}
	}
	return nil
}

// TaskDetail is a task with its team resolved to user summaries.
type TaskDetail struct {
	*Task
	Team []UserSummary `json:"team"`
}

// TaskFilter selects tasks for listing. Zero values mean "any".
type TaskFilter struct {
	Trashed *bool
	Stage   Stage
	Search  string
	Member  primitive.ObjectID
}

// TaskUpdate carries the fields overwritten by a full task update.
type TaskUpdate struct {
	Title       string
	Date        time.Time
	Priority    Priority
	Assets      []string
	Stage       Stage
	Links       []string
	Description string
}

// TaskDeleteAction is the actionType of a delete-restore request.
type TaskDeleteAction string

const (
	ActionDelete     TaskDeleteAction = "delete"
	ActionDeleteAll  TaskDeleteAction = "deleteAll"
	ActionRestore    TaskDeleteAction = "restore"
	ActionRestoreAll TaskDeleteAction = "restoreAll"
)

// NeedsID reports whether the action targets a single task.
func (a TaskDeleteAction) NeedsID() bool {
	return a == ActionDelete || a == ActionRestore
}
