package services

import (
	"context"
	"testing"
	"time"

	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/repositories/memory"
	"github.com/DinieMobo/TaskHero/utils"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	store     *memory.Store
	tasks     *TaskService
	notices   *NotificationService
	dashboard *DashboardService
	users     *UserService
	mailer    *utils.DiscardSender
	clock     *clock
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	c := &clock{t: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}

	notices := NewNotificationService(store.Notices, store.Tasks)
	notices.now = c.Now
	tasks := NewTaskService(store.Tasks, store.Users, notices, nil)
	tasks.now = c.Now
	dashboard := NewDashboardService(store.Tasks, store.Users)
	dashboard.now = c.Now

	mailer := &utils.DiscardSender{}
	jwtSvc := NewJWTService("test-secret", time.Hour)
	jwtSvc.now = c.Now
	users := NewUserService(store.Users, store.Tasks, jwtSvc, mailer, UserServiceOptions{})
	users.now = c.Now

	return &fixture{
		store:     store,
		tasks:     tasks,
		notices:   notices,
		dashboard: dashboard,
		users:     users,
		mailer:    mailer,
		clock:     c,
	}
}

func (f *fixture) addUser(t *testing.T, name string, admin bool) *models.User {
	t.Helper()
	u := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     name + "@example.com",
		IsAdmin:   admin,
		IsActive:  true,
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, f.store.Users.Insert(context.Background(), u))
	return u
}

func principal(u *models.User) *models.Principal {
	return &models.Principal{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
}

func date(s string) models.InputDate {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return models.InputDate{Time: d}
}

func (f *fixture) createTask(t *testing.T, by *models.User, title string, team ...*models.User) *models.Task {
	t.Helper()
	ids := make([]string, 0, len(team))
	for _, u := range team {
		ids = append(ids, u.ID.Hex())
	}
	task, err := f.tasks.Create(context.Background(), principal(by), CreateTaskInput{
		Title:    title,
		Priority: "normal",
		Date:     date("2024-03-20"),
		Team:     ids,
	})
	require.NoError(t, err)
	return task
}
