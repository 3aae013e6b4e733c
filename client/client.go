// Package client is a typed Go client for the TaskHero API. It keeps the
// session cookie between calls and caches selected reads for a short time.
package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/services"
	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout    = 15 * time.Second
	markReadAttempts  = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("taskhero api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

type Client struct {
	http       *resty.Client
	cache      *responseCache
	retryDelay time.Duration
}

type Option func(*Client)

// WithRetryDelay sets the pause between mark-read attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithClock replaces the clock the cache expires entries against.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.cache.now = now }
}

func New(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")+"/api").
			SetCookieJar(jar).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json"),
		cache:      newResponseCache(time.Now),
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request sends one call. callback may add a body or query; out receives the
// decoded success body when non-nil.
func (c *Client) request(ctx context.Context, method, path string, callback func(req *resty.Request), out any) error {
	req := c.http.R().SetContext(ctx).SetError(&envelope{})
	if callback != nil {
		callback(req)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: resp.Status()}
		if e, ok := resp.Error().(*envelope); ok && e.Message != "" {
			apiErr.Message = e.Message
		}
		return apiErr
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	err := c.request(ctx, http.MethodPost, "/user/login", func(req *resty.Request) {
		req.SetBody(map[string]string{"email": email, "password": password})
	}, &out)
	if err != nil {
		return nil, err
	}
	c.cache.clear()
	return &out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	defer c.cache.clear()
	return c.request(ctx, http.MethodPost, "/user/logout", nil, nil)
}

func (c *Client) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.request(ctx, http.MethodPost, "/user/register", func(req *resty.Request) {
		req.SetBody(in)
	}, &out)
	if err != nil {
		return nil, err
	}
	c.cache.invalidate(keyTeam)
	return &out.User, nil
}

func (c *Client) Notifications(ctx context.Context) ([]models.NoticeView, error) {
	return cached(c.cache, keyNotifications, NotificationsTTL, func() ([]models.NoticeView, error) {
		var out []models.NoticeView
		if err := c.request(ctx, http.MethodGet, "/user/notifications", nil, &out); err != nil {
			return nil, err
		}
		if out == nil {
			out = []models.NoticeView{}
		}
		return out, nil
	})
}

// MarkNotificationsRead acknowledges notices and drops the cached list.
// Transport failures and 5xx answers are retried; 4xx answers are not.
func (c *Client) MarkNotificationsRead(ctx context.Context, mode models.ReadMode, id string) error {
	body := map[string]string{"isReadType": string(mode)}
	if id != "" {
		body["id"] = id
	}

	err := retry.Do(
		func() error {
			return c.request(ctx, http.MethodPut, "/user/read-noti", func(req *resty.Request) {
				req.SetBody(body)
			}, nil)
		},
		retry.Context(ctx),
		retry.Attempts(markReadAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var apiErr *APIError
			return !errors.As(err, &apiErr) || apiErr.Status >= http.StatusInternalServerError
		}),
	)
	if err != nil {
		return err
	}
	c.cache.invalidate(keyNotifications)
	return nil
}

func (c *Client) TeamList(ctx context.Context, search string) ([]models.UserSummary, error) {
	return cached(c.cache, keyTeam+search, TeamListTTL, func() ([]models.UserSummary, error) {
		var out []models.UserSummary
		err := c.request(ctx, http.MethodGet, "/user/team", func(req *resty.Request) {
			req.SetQueryParam("search", search)
		}, &out)
		return out, err
	})
}

func (c *Client) UserStats(ctx context.Context) (models.UserStats, error) {
	return cached(c.cache, keyStats, UserStatsTTL, func() (models.UserStats, error) {
		var out struct {
			Stats models.UserStats `json:"stats"`
		}
		err := c.request(ctx, http.MethodGet, "/user/stats", nil, &out)
		return out.Stats, err
	})
}

func (c *Client) Dashboard(ctx context.Context) (*models.DashboardSummary, error) {
	return cached(c.cache, keyDashboard, DashboardTTL, func() (*models.DashboardSummary, error) {
		var out models.DashboardSummary
		if err := c.request(ctx, http.MethodGet, "/task/dashboard", nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

type TaskQuery struct {
	Stage   string
	Trashed bool
	Search  string
}

func (q TaskQuery) values() url.Values {
	v := url.Values{}
	if q.Stage != "" {
		v.Set("stage", q.Stage)
	}
	if q.Trashed {
		v.Set("isTrashed", strconv.FormatBool(q.Trashed))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

func (c *Client) Tasks(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	params := q.values()
	return cached(c.cache, keyTasks+params.Encode(), TaskListTTL, func() ([]models.Task, error) {
		var out struct {
			Tasks []models.Task `json:"tasks"`
		}
		err := c.request(ctx, http.MethodGet, "/task", func(req *resty.Request) {
			req.SetQueryParamsFromValues(params)
		}, &out)
		return out.Tasks, err
	})
}

func (c *Client) Task(ctx context.Context, id string) (*models.TaskDetail, error) {
	var out struct {
		Task models.TaskDetail `json:"task"`
	}
	if err := c.request(ctx, http.MethodGet, "/task/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

func (c *Client) CreateTask(ctx context.Context, in services.CreateTaskInput) (*models.Task, error) {
	var out struct {
		Task models.Task `json:"task"`
	}
	err := c.request(ctx, http.MethodPost, "/task/create", func(req *resty.Request) {
		req.SetBody(in)
	}, &out)
	if err != nil {
		return nil, err
	}
	c.invalidateTasks()
	return &out.Task, nil
}

func (c *Client) ChangeStage(ctx context.Context, id, stage string) error {
	err := c.request(ctx, http.MethodPut, "/task/change-stage/"+url.PathEscape(id), func(req *resty.Request) {
		req.SetBody(map[string]string{"stage": stage})
	}, nil)
	if err != nil {
		return err
	}
	c.invalidateTasks()
	return nil
}

func (c *Client) DuplicateTask(ctx context.Context, id string) (*models.Task, error) {
	var out struct {
		Task models.Task `json:"task"`
	}
	if err := c.request(ctx, http.MethodPost, "/task/duplicate/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	c.invalidateTasks()
	return &out.Task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, in services.UpdateTaskInput) error {
	err := c.request(ctx, http.MethodPut, "/task/update/"+url.PathEscape(id), func(req *resty.Request) {
		req.SetBody(in)
	}, nil)
	if err != nil {
		return err
	}
	c.invalidateTasks()
	return nil
}

func (c *Client) CreateSubTask(ctx context.Context, taskID string, in services.SubTaskInput) (*models.SubTask, error) {
	var out struct {
		SubTask models.SubTask `json:"subTask"`
	}
	err := c.request(ctx, http.MethodPut, "/task/create-subtask/"+url.PathEscape(taskID), func(req *resty.Request) {
		req.SetBody(in)
	}, &out)
	if err != nil {
		return nil, err
	}
	c.invalidateTasks()
	return &out.SubTask, nil
}

// SetSubTaskStatus sets, rather than toggles, a subtask's completion.
func (c *Client) SetSubTaskStatus(ctx context.Context, taskID, subTaskID string, completed bool) error {
	path := "/task/change-status/" + url.PathEscape(taskID) + "/" + url.PathEscape(subTaskID)
	err := c.request(ctx, http.MethodPut, path, func(req *resty.Request) {
		req.SetBody(map[string]bool{"status": completed})
	}, nil)
	if err != nil {
		return err
	}
	c.invalidateTasks()
	return nil
}

func (c *Client) PostActivity(ctx context.Context, taskID string, typ models.ActivityType, text string) (*models.Activity, error) {
	var out struct {
		Activity models.Activity `json:"activity"`
	}
	err := c.request(ctx, http.MethodPost, "/task/activity/"+url.PathEscape(taskID), func(req *resty.Request) {
		req.SetBody(map[string]string{"type": string(typ), "activity": text})
	}, &out)
	if err != nil {
		return nil, err
	}
	c.invalidateTasks()
	return &out.Activity, nil
}

func (c *Client) TrashTask(ctx context.Context, id string) error {
	if err := c.request(ctx, http.MethodPut, "/task/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.invalidateTasks()
	return nil
}

// DeleteRestore runs a trash-bin action. id is ignored by the *All actions.
func (c *Client) DeleteRestore(ctx context.Context, action models.TaskDeleteAction, id string) error {
	path := "/task/delete-restore"
	if id != "" {
		path += "/" + url.PathEscape(id)
	}
	err := c.request(ctx, http.MethodDelete, path, func(req *resty.Request) {
		req.SetQueryParam("actionType", string(action))
	}, nil)
	if err != nil {
		return err
	}
	c.invalidateTasks()
	return nil
}

// invalidateTasks drops cached task lists and the notices the mutation may
// have produced.
func (c *Client) invalidateTasks() {
	c.cache.invalidate(keyTasks)
	c.cache.invalidate(keyNotifications)
}

// PercentChange is the month-over-month change shown on dashboard cards,
// rounded half up. With no baseline it is 100 for any growth and 0 otherwise.
func PercentChange(current, last int) int {
	if last > 0 {
		return int(math.Floor(float64(current-last)/float64(last)*100 + 0.5))
	}
	if current > 0 {
		return 100
	}
	return 0
}
