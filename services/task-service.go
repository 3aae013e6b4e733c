package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/DinieMobo/TaskHero/logging"
	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/repositories"
	"github.com/DinieMobo/TaskHero/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	descriptionSnippetLen = 50
	summaryDateLayout     = "1/2/2006"
)

type CreateTaskInput struct {
	Title       string           `json:"title"`
	Stage       string           `json:"stage"`
	Priority    string           `json:"priority"`
	Date        models.InputDate `json:"date"`
	Description string           `json:"description"`
	Team        []string         `json:"team"`
	Assets      []string         `json:"assets"`
	Links       models.LinkList  `json:"links"`
}

type UpdateTaskInput struct {
	Title       string           `json:"title"`
	Date        models.InputDate `json:"date"`
	Priority    string           `json:"priority"`
	Stage       string           `json:"stage"`
	Assets      []string         `json:"assets"`
	Links       models.LinkList  `json:"links"`
	Description string           `json:"description"`
}

type SubTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
}

// TaskListQuery selects the board listing.
type TaskListQuery struct {
	Stage   string
	Trashed bool
	Search  string
}

type TaskService struct {
	tasks    repositories.TaskRepository
	users    repositories.UserRepository
	notices  NoticePublisher
	uploader utils.Uploader
	now      func() time.Time
}

func NewTaskService(
	tasks repositories.TaskRepository,
	users repositories.UserRepository,
	notices NoticePublisher,
	uploader utils.Uploader,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		users:    users,
		notices:  notices,
		uploader: uploader,
		now:      time.Now,
	}
}

func stageOrDefault(s string) (models.Stage, error) {
	if strings.TrimSpace(s) == "" {
		return models.StageTodo, nil
	}
	return models.ParseStage(s)
}

func priorityOrDefault(s string) (models.Priority, error) {
	if strings.TrimSpace(s) == "" {
		return models.PriorityNormal, nil
	}
	return models.ParsePriority(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// creationSummary is the activity and notice text of a new task.
func creationSummary(title string, priority models.Priority, date time.Time, description string, teamSize int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New task \"%s\" has been created.", title)
	fmt.Fprintf(&b, " This %s priority task is scheduled for %s.", priority, date.Format(summaryDateLayout))

	if description != "" {
		snippet := []rune(description)
		if len(snippet) > descriptionSnippetLen {
			b.WriteString(" Details: " + string(snippet[:descriptionSnippetLen]) + "...")
		} else {
			b.WriteString(" Details: " + description)
		}
	}

	if teamSize > 0 {
		members := "member"
		if teamSize > 1 {
			members = "members"
		}
		fmt.Fprintf(&b, " Assigned to %d team %s.", teamSize, members)
	}
	return b.String()
}

func duplicationSummary(title string, priority models.Priority, date time.Time) string {
	return fmt.Sprintf("Task \"%s\" has been duplicated. This %s priority task is scheduled for %s. Please review the duplicate and update as needed.",
		title, priority, date.Format(summaryDateLayout))
}

func (s *TaskService) newActivity(typ models.ActivityType, text string, by primitive.ObjectID) models.Activity {
	return models.Activity{
		ID:       primitive.NewObjectID(),
		Type:     typ,
		Activity: text,
		By:       by,
		Date:     s.now(),
	}
}

// Create stores a new task and publishes exactly one notice about it.
func (s *TaskService) Create(ctx context.Context, p *models.Principal, in CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.ValidationError("Title is required")
	}
	if in.Date.IsZero() {
		return nil, models.ValidationError("Date is required")
	}
	stage, err := stageOrDefault(in.Stage)
	if err != nil {
		return nil, err
	}
	priority, err := priorityOrDefault(in.Priority)
	if err != nil {
		return nil, err
	}
	team, err := ParseIDs(in.Team)
	if err != nil {
		return nil, err
	}

	text := creationSummary(title, priority, in.Date.Time, in.Description, len(in.Team))
	if len(team) == 0 {
		team = []primitive.ObjectID{p.UserID}
	}

	now := s.now()
	task := &models.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: in.Description,
		Stage:       stage,
		Priority:    priority,
		Date:        in.Date.Time,
		Team:        team,
		SubTasks:    []models.SubTask{},
		Activities:  []models.Activity{s.newActivity(models.ActivityAssigned, text, p.UserID)},
		Assets:      nonNil(in.Assets),
		Links:       nonNil(in.Links),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, err
	}
	if _, err := s.notices.Publish(ctx, task.ID, text); err != nil {
		return nil, fmt.Errorf("task %s created but notice failed: %w", task.ID.Hex(), err)
	}
	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s", task.ID.Hex(), p.UserID.Hex())
	return task, nil
}

// Duplicate copies a task under a new id with a fresh single-entry
// activity log. The source task is not touched.
func (s *TaskService) Duplicate(ctx context.Context, p *models.Principal, id primitive.ObjectID) (*models.Task, error) {
	src, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	text := duplicationSummary(src.Title, src.Priority, src.Date)
	now := s.now()
	dup := *src
	dup.ID = primitive.NewObjectID()
	dup.Title = "Duplicate - " + src.Title
	dup.Activities = []models.Activity{s.newActivity(models.ActivityAssigned, text, p.UserID)}
	dup.CreatedAt = now
	dup.UpdatedAt = now
	if err := s.tasks.Insert(ctx, &dup); err != nil {
		return nil, err
	}
	if _, err := s.notices.Publish(ctx, dup.ID, text); err != nil {
		return nil, fmt.Errorf("task %s duplicated but notice failed: %w", dup.ID.Hex(), err)
	}
	logging.Logger.Infof("Event ID: TASK_DUPLICATED, Description: Task %s duplicated as %s", src.ID.Hex(), dup.ID.Hex())
	return &dup, nil
}

func (s *TaskService) Update(ctx context.Context, id primitive.ObjectID, in UpdateTaskInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.ValidationError("Title is required")
	}
	if in.Date.IsZero() {
		return models.ValidationError("Date is required")
	}
	stage, err := models.ParseStage(in.Stage)
	if err != nil {
		return err
	}
	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return err
	}
	update := models.TaskUpdate{
		Title:       title,
		Date:        in.Date.Time,
		Priority:    priority,
		Assets:      nonNil(in.Assets),
		Stage:       stage,
		Links:       nonNil(in.Links),
		Description: in.Description,
	}
	if err := s.tasks.Update(ctx, id, update, s.now()); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated", id.Hex())
	return nil
}

func (s *TaskService) ChangeStage(ctx context.Context, id primitive.ObjectID, stage string) error {
	st, err := models.ParseStage(stage)
	if err != nil {
		return err
	}
	return s.tasks.SetStage(ctx, id, st, s.now())
}

// Trash soft-deletes a task. Trashing twice is allowed.
func (s *TaskService) Trash(ctx context.Context, id primitive.ObjectID) error {
	if err := s.tasks.SetTrashed(ctx, id, true); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: TASK_TRASHED, Description: Task %s moved to trash", id.Hex())
	return nil
}

// DeleteOrRestore applies a trash-bin action. delete and restore need id,
// the *All actions ignore it.
func (s *TaskService) DeleteOrRestore(ctx context.Context, action models.TaskDeleteAction, id string) error {
	var taskID primitive.ObjectID
	if action.NeedsID() {
		if id == "" {
			return models.ValidationError("Task id is required for %s", action)
		}
		parsed, err := ParseID(id, "Task")
		if err != nil {
			return err
		}
		taskID = parsed
	}

	switch action {
	case models.ActionDelete:
		if err := s.tasks.Delete(ctx, taskID); err != nil {
			return err
		}
	case models.ActionDeleteAll:
		n, err := s.tasks.DeleteTrashed(ctx)
		if err != nil {
			return err
		}
		logging.Logger.Infof("Event ID: TRASH_EMPTIED, Description: %d trashed tasks deleted", n)
	case models.ActionRestore:
		if err := s.tasks.SetTrashed(ctx, taskID, false); err != nil {
			return err
		}
	case models.ActionRestoreAll:
		n, err := s.tasks.RestoreAll(ctx)
		if err != nil {
			return err
		}
		logging.Logger.Infof("Event ID: TRASH_RESTORED, Description: %d trashed tasks restored", n)
	default:
		return models.ValidationError("Invalid actionType %q, expected one of: delete, deleteAll, restore, restoreAll", action)
	}
	return nil
}

func (s *TaskService) CreateSubTask(ctx context.Context, p *models.Principal, taskID primitive.ObjectID, in SubTaskInput) (*models.SubTask, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.ValidationError("Subtask title is required")
	}
	now := s.now()
	sub := models.SubTask{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: in.Description,
		Date:        now,
		Tag:         strings.TrimSpace(in.Tag),
		IsCompleted: false,
		CreatedBy:   p.UserID,
	}
	if err := s.tasks.PushSubTask(ctx, taskID, sub, now); err != nil {
		return nil, err
	}
	return &sub, nil
}

// SetSubTaskStatus sets the completion flag to the given value.
func (s *TaskService) SetSubTaskStatus(ctx context.Context, taskID, subTaskID primitive.ObjectID, completed bool) error {
	return s.tasks.SetSubTaskCompleted(ctx, taskID, subTaskID, completed, s.now())
}

func (s *TaskService) PostActivity(ctx context.Context, p *models.Principal, taskID primitive.ObjectID, typ, text string) (*models.Activity, error) {
	activityType, err := models.ParseActivityType(typ)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.ValidationError("Activity text is required")
	}
	activity := s.newActivity(activityType, text, p.UserID)
	if err := s.tasks.PushActivity(ctx, taskID, activity, s.now()); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (s *TaskService) List(ctx context.Context, q TaskListQuery) ([]models.Task, error) {
	filter := models.TaskFilter{Trashed: &q.Trashed, Search: strings.TrimSpace(q.Search)}
	if q.Stage != "" {
		stage, err := models.ParseStage(q.Stage)
		if err != nil {
			return nil, err
		}
		filter.Stage = stage
	}
	return s.tasks.List(ctx, filter)
}

func (s *TaskService) Get(ctx context.Context, id primitive.ObjectID) (*models.TaskDetail, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := populateTeams(ctx, s.users, []models.Task{*task})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// UploadAsset hands a file to the hosting provider and returns its URL.
// No task is read or written.
func (s *TaskService) UploadAsset(ctx context.Context, filename string, r io.Reader) (string, error) {
	if s.uploader == nil {
		return "", models.UpstreamError("File upload is not configured", nil)
	}
	url, err := s.uploader.Upload(ctx, filename, r)
	if err != nil {
		return "", err
	}
	logging.Logger.Infof("Event ID: ASSET_UPLOADED, Description: Uploaded %s", filename)
	return url, nil
}
