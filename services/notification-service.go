package services

import (
	"context"
	"time"

	"github.com/DinieMobo/TaskHero/logging"
	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NoticePublisher records one notice for a task event.
type NoticePublisher interface {
	Publish(ctx context.Context, taskID primitive.ObjectID, text string) (*models.Notice, error)
}

type NotificationService struct {
	notices repositories.NoticeRepository
	tasks   repositories.TaskRepository
	now     func() time.Time
}

var _ NoticePublisher = (*NotificationService)(nil)

func NewNotificationService(notices repositories.NoticeRepository, tasks repositories.TaskRepository) *NotificationService {
	return &NotificationService{notices: notices, tasks: tasks, now: time.Now}
}

func (s *NotificationService) Publish(ctx context.Context, taskID primitive.ObjectID, text string) (*models.Notice, error) {
	now := s.now()
	notice := &models.Notice{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Task:      taskID,
		IsRead:    []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.notices.Insert(ctx, notice); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: NOTICE_CREATED, Description: Notice %s created for task %s", notice.ID.Hex(), taskID.Hex())
	return notice, nil
}

// ListForUser returns the unread notices of tasks userID is on, newest
// first. Notices of deleted tasks are left out.
func (s *NotificationService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.NoticeView, error) {
	unread, err := s.notices.ListUnreadFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	var taskIDs []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	for _, n := range unread {
		if !n.Task.IsZero() && !seen[n.Task] {
			seen[n.Task] = true
			taskIDs = append(taskIDs, n.Task)
		}
	}
	tasks, err := s.tasks.FindByIDs(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	out := []models.NoticeView{}
	for _, n := range unread {
		task, ok := byID[n.Task]
		if !ok || !task.HasMember(userID) {
			continue
		}
		out = append(out, models.NoticeView{
			ID:        n.ID,
			Text:      n.Text,
			Task:      models.NoticeTask{ID: task.ID, Title: task.Title, Team: task.Team},
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}

// MarkRead adds userID to the read set of one notice or of every notice
// still unread for the user. Repeating a call changes nothing.
func (s *NotificationService) MarkRead(ctx context.Context, userID primitive.ObjectID, mode models.ReadMode, noticeID string) error {
	switch mode {
	case models.ReadAll:
		n, err := s.notices.MarkAllRead(ctx, userID, s.now())
		if err != nil {
			return err
		}
		logging.Logger.Infof("Event ID: NOTICES_READ, Description: %d notices marked read for user %s", n, userID.Hex())
		return nil
	case models.ReadOne:
		if noticeID == "" {
			return models.ValidationError("For 'one' type, id parameter is required")
		}
		id, err := primitive.ObjectIDFromHex(noticeID)
		if err != nil {
			return models.ValidationError("Invalid notification id")
		}
		found, err := s.notices.MarkRead(ctx, id, userID, s.now())
		if err != nil {
			return err
		}
		if !found {
			logging.Logger.Debugf("Event ID: NOTICE_READ_MISS, Description: Notice %s not found for user %s", noticeID, userID.Hex())
		}
		return nil
	default:
		return models.ValidationError("isReadType must be 'all' or 'one'")
	}
}
