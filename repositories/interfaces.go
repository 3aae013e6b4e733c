package repositories

import (
	"context"
	"time"

	"github.com/DinieMobo/TaskHero/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskRepository persists tasks. Missing tasks are reported as
// models.NotFoundError.
type TaskRepository interface {
	Insert(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error)
	// List returns matching tasks newest first.
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, update models.TaskUpdate, now time.Time) error
	SetStage(ctx context.Context, id primitive.ObjectID, stage models.Stage, now time.Time) error
	SetTrashed(ctx context.Context, id primitive.ObjectID, trashed bool) error
	RestoreAll(ctx context.Context) (int64, error)
	// Delete removes a task only while it is in the trash.
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteTrashed(ctx context.Context) (int64, error)
	PushSubTask(ctx context.Context, id primitive.ObjectID, sub models.SubTask, now time.Time) error
	SetSubTaskCompleted(ctx context.Context, taskID, subTaskID primitive.ObjectID, completed bool, now time.Time) error
	PushActivity(ctx context.Context, id primitive.ObjectID, activity models.Activity, now time.Time) error
}

type NoticeRepository interface {
	Insert(ctx context.Context, notice *models.Notice) error
	// ListUnreadFor returns notices userID has not yet read, newest first.
	ListUnreadFor(ctx context.Context, userID primitive.ObjectID) ([]models.Notice, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID, now time.Time) (int64, error)
	// MarkRead reports whether the notice exists.
	MarkRead(ctx context.Context, noticeID, userID primitive.ObjectID, now time.Time) (bool, error)
}

type UserRepository interface {
	// Insert fails with a validation error when the email is taken.
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	List(ctx context.Context, search string) ([]models.User, error)
	ListActiveRecent(ctx context.Context, limit int64) ([]models.User, error)
	// Update replaces the stored user.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Stats(ctx context.Context) (models.UserStats, error)
}
