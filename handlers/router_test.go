package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DinieMobo/TaskHero/middleware"
	"github.com/DinieMobo/TaskHero/repositories/memory"
	"github.com/DinieMobo/TaskHero/services"
	"github.com/DinieMobo/TaskHero/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct{ got []byte }

func (f *fakeUploader) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.got = data
	return "https://files.example/" + filename, nil
}

type testAPI struct {
	t        *testing.T
	handler  http.Handler
	store    *memory.Store
	users    *services.UserService
	mailer   *utils.DiscardSender
	uploader *fakeUploader
}

func newTestAPI(t *testing.T, limiter *middleware.RateLimiter) *testAPI {
	t.Helper()
	store := memory.NewStore()
	mailer := &utils.DiscardSender{}
	uploader := &fakeUploader{}

	notices := services.NewNotificationService(store.Notices, store.Tasks)
	users := services.NewUserService(store.Users, store.Tasks, services.NewJWTService("router-secret", time.Hour), mailer, services.UserServiceOptions{})
	handler := NewRouter(RouterDeps{
		Tasks:         services.NewTaskService(store.Tasks, store.Users, notices, uploader),
		Dashboard:     services.NewDashboardService(store.Tasks, store.Users),
		Notifications: notices,
		Users:         users,
		AuthLimiter:   limiter,
		CORSOrigins:   []string{"http://localhost:3000"},
	})
	return &testAPI{t: t, handler: handler, store: store, users: users, mailer: mailer, uploader: uploader}
}

func (a *testAPI) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) doJSON(method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := a.do(req, token)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (a *testAPI) doList(path, token string) []map[string]any {
	a.t.Helper()
	rec := a.do(httptest.NewRequest(http.MethodGet, path, nil), token)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var out []map[string]any
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AuthCookie {
			return c
		}
	}
	return nil
}

// register signs a user up and logs them in, returning their id and token.
// Admins are created through the service since public sign-up never grants
// the flag.
func (a *testAPI) register(name string, admin bool) (string, string) {
	a.t.Helper()
	var id string
	if admin {
		user, err := a.users.Register(context.Background(), services.RegisterInput{
			Name:     name,
			Email:    name + "@example.com",
			Password: "s3cret-pass",
			IsAdmin:  true,
			Title:    "Manager",
			Role:     "Admin",
		})
		require.NoError(a.t, err)
		id = user.ID.Hex()
	} else {
		rec, body := a.doJSON(http.MethodPost, "/api/user/register", map[string]any{
			"name":     name,
			"email":    name + "@example.com",
			"password": "s3cret-pass",
			"title":    "Engineer",
			"role":     "Developer",
		}, "")
		require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
		id = body["user"].(map[string]any)["_id"].(string)
	}

	rec, body := a.doJSON(http.MethodPost, "/api/user/login", map[string]any{
		"email":    name + "@example.com",
		"password": "s3cret-pass",
	}, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return id, body["token"].(string)
}

func (a *testAPI) createTask(token, title string, team ...string) string {
	a.t.Helper()
	rec, body := a.doJSON(http.MethodPost, "/api/task/create", map[string]any{
		"title":    title,
		"date":     "2024-03-20",
		"priority": "high",
		"stage":    "todo",
		"team":     team,
	}, token)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(a.t, "Task created successfully.", body["message"])
	return body["task"].(map[string]any)["_id"].(string)
}

func TestRegisterAndLoginCookies(t *testing.T) {
	api := newTestAPI(t, nil)

	api.register("boss", true)

	rec, body := api.doJSON(http.MethodPost, "/api/user/register", map[string]any{
		"name": "dev", "email": "dev@example.com", "password": "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["status"])
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Nil(t, sessionCookie(rec))

	rec, body = api.doJSON(http.MethodPost, "/api/user/register", map[string]any{
		"name": "dup", "email": "Boss@Example.com", "password": "s3cret-pass",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email address already exists", body["message"])

	rec, body = api.doJSON(http.MethodPost, "/api/user/login", map[string]any{
		"email": "dev@example.com", "password": "wrong-pass",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password.", body["message"])

	rec, body = api.doJSON(http.MethodPost, "/api/user/login", map[string]any{
		"email": "dev@example.com", "password": "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, body["token"], cookie.Value)

	rec, _ = api.doJSON(http.MethodPost, "/api/user/logout", nil, cookie.Value)
	assert.Equal(t, http.StatusOK, rec.Code)
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestSelfRegistrationCannotGrantAdmin(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, body := api.doJSON(http.MethodPost, "/api/user/register", map[string]any{
		"name": "mallory", "email": "mallory@example.com", "password": "s3cret-pass", "isAdmin": true,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, sessionCookie(rec))
	assert.Equal(t, false, body["user"].(map[string]any)["isAdmin"])

	rec, body = api.doJSON(http.MethodPost, "/api/user/login", map[string]any{
		"email": "mallory@example.com", "password": "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := body["token"].(string)

	rec, body = api.doJSON(http.MethodGet, "/api/user/stats", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized as admin. Try login as admin.", body["message"])
}

func TestAdminCanRegisterAdmins(t *testing.T) {
	api := newTestAPI(t, nil)
	_, adminToken := api.register("boss", true)

	rec, body := api.doJSON(http.MethodPost, "/api/user/admin/register", map[string]any{
		"name": "deputy", "email": "deputy@example.com", "password": "s3cret-pass", "isAdmin": true,
	}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, sessionCookie(rec))
	assert.Equal(t, true, body["user"].(map[string]any)["isAdmin"])

	rec, _ = api.doJSON(http.MethodPost, "/api/user/login", map[string]any{
		"email": "deputy@example.com", "password": "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = api.doJSON(http.MethodGet, "/api/user/stats", nil, sessionCookie(rec).Value)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["stats"].(map[string]any)["adminUsers"])
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, body := api.doJSON(http.MethodGet, "/api/task", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["status"])

	rec, _ = api.doJSON(http.MethodGet, "/api/task", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, devToken := api.register("dev", false)
	rec, body = api.doJSON(http.MethodGet, "/api/user/stats", nil, devToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized as admin. Try login as admin.", body["message"])

	_, adminToken := api.register("boss", true)
	rec, body = api.doJSON(http.MethodGet, "/api/user/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["totalUsers"])
	assert.Equal(t, float64(1), stats["adminUsers"])
}

func TestBearerHeaderIsAccepted(t *testing.T) {
	api := newTestAPI(t, nil)
	_, token := api.register("dev", false)

	req := httptest.NewRequest(http.MethodGet, "/api/user/team", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := api.do(req, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t, nil)
	devID, devToken := api.register("dev", false)
	_, adminToken := api.register("boss", true)

	taskID := api.createTask(adminToken, "Ship release", devID)

	rec, body := api.doJSON(http.MethodGet, "/api/task/"+taskID, nil, devToken)
	require.Equal(t, http.StatusOK, rec.Code)
	task := body["task"].(map[string]any)
	team := task["team"].([]any)
	require.Len(t, team, 1)
	assert.Equal(t, "dev", team[0].(map[string]any)["name"])

	rec, body = api.doJSON(http.MethodPut, "/api/task/change-stage/"+taskID, map[string]any{"stage": "in progress"}, devToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Task stage updated successfully", body["message"])

	rec, body = api.doJSON(http.MethodPut, "/api/task/change-stage/"+taskID, map[string]any{"stage": "done"}, devToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["status"])

	rec, body = api.doJSON(http.MethodPost, "/api/task/duplicate/"+taskID, nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task duplicated successfully.", body["message"])

	rec, body = api.doJSON(http.MethodGet, "/api/task?stage=in+progress", nil, devToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["tasks"], 2)
	_, body = api.doJSON(http.MethodGet, "/api/task?stage=todo", nil, devToken)
	assert.Len(t, body["tasks"], 0)

	rec, body = api.doJSON(http.MethodPut, "/api/task/"+taskID, nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task trashed successfully.", body["message"])

	_, body = api.doJSON(http.MethodGet, "/api/task?isTrashed=true", nil, adminToken)
	assert.Len(t, body["tasks"], 1)
	_, body = api.doJSON(http.MethodGet, "/api/task", nil, adminToken)
	assert.Len(t, body["tasks"], 1)

	rec, body = api.doJSON(http.MethodDelete, "/api/task/delete-restore/"+taskID+"?actionType=restore", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Operation performed successfully.", body["message"])
	_, body = api.doJSON(http.MethodGet, "/api/task?isTrashed=true", nil, adminToken)
	assert.Len(t, body["tasks"], 0)

	rec, _ = api.doJSON(http.MethodDelete, "/api/task/delete-restore?actionType=purge", nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.doJSON(http.MethodPut, "/api/task/"+taskID, nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.doJSON(http.MethodDelete, "/api/task/delete-restore?actionType=deleteAll", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = api.doJSON(http.MethodGet, "/api/task/"+taskID, nil, adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["status"])
}

func TestMalformedTaskIDIsNotFound(t *testing.T) {
	api := newTestAPI(t, nil)
	_, token := api.register("dev", false)

	rec, body := api.doJSON(http.MethodGet, "/api/task/not-an-id", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", body["message"])

	rec, _ = api.doJSON(http.MethodGet, "/api/nothing-here", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubTasksAndActivityOverHTTP(t *testing.T) {
	api := newTestAPI(t, nil)
	devID, token := api.register("dev", false)
	taskID := api.createTask(token, "Write docs", devID)

	rec, body := api.doJSON(http.MethodPut, "/api/task/create-subtask/"+taskID, map[string]any{
		"title": "Outline", "tag": "docs",
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	subID := body["subTask"].(map[string]any)["_id"].(string)

	rec, body = api.doJSON(http.MethodPut, "/api/task/change-status/"+taskID+"/"+subID, map[string]any{"status": true}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Subtask marked as completed", body["message"])

	rec, body = api.doJSON(http.MethodPost, "/api/task/activity/"+taskID, map[string]any{
		"type": "commented", "activity": "Looks good",
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Activity posted successfully.", body["message"])

	_, body = api.doJSON(http.MethodGet, "/api/task/"+taskID, nil, token)
	task := body["task"].(map[string]any)
	assert.Equal(t, true, task["subTasks"].([]any)[0].(map[string]any)["isCompleted"])
	assert.NotEmpty(t, task["activities"])
}

func TestNotificationsOverHTTP(t *testing.T) {
	api := newTestAPI(t, nil)
	devID, devToken := api.register("dev", false)
	_, adminToken := api.register("boss", true)
	api.createTask(adminToken, "First", devID)
	api.createTask(adminToken, "Second", devID)

	notices := api.doList("/api/user/notifications", devToken)
	require.Len(t, notices, 2)
	assert.Empty(t, api.doList("/api/user/notifications", adminToken))

	rec, body := api.doJSON(http.MethodPut, "/api/user/read-noti", map[string]any{"isReadType": "one"}, devToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "For 'one' type, id parameter is required", body["message"])

	rec, body = api.doJSON(http.MethodPut, "/api/user/read-noti", map[string]any{"isReadType": "some"}, devToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "isReadType must be 'all' or 'one'", body["message"])

	first := notices[0]["_id"].(string)
	rec, _ = api.doJSON(http.MethodPut, "/api/user/read-noti", map[string]any{"isReadType": "one", "id": first}, devToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, api.doList("/api/user/notifications", devToken), 1)

	rec, body = api.doJSON(http.MethodPost, "/api/user/read-noti?isReadType=all", nil, devToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Notification(s) marked as read", body["message"])
	assert.Empty(t, api.doList("/api/user/notifications", devToken))
}

func TestDashboardOverHTTP(t *testing.T) {
	api := newTestAPI(t, nil)
	devID, devToken := api.register("dev", false)
	_, adminToken := api.register("boss", true)
	api.createTask(adminToken, "Mine", devID)
	api.createTask(adminToken, "Not mine")

	rec, body := api.doJSON(http.MethodGet, "/api/task/dashboard", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["totalTasks"])
	assert.Len(t, body["users"], 2)
	assert.Equal(t, float64(2), body["tasks"].(map[string]any)["todo"])

	_, body = api.doJSON(http.MethodGet, "/api/task/dashboard", nil, devToken)
	assert.Equal(t, float64(1), body["totalTasks"])
	assert.Nil(t, body["users"])
	assert.Len(t, body["last10Task"], 1)
}

func TestUserAdminRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	devID, devToken := api.register("dev", false)
	_, adminToken := api.register("boss", true)

	rec, body := api.doJSON(http.MethodPut, "/api/user/"+devID, map[string]any{"isActive": false}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User account has been disabled", body["message"])

	rec, body = api.doJSON(http.MethodGet, "/api/user/team", nil, devToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User account has been deactivated, contact the administrator", body["message"])

	team := api.doList("/api/user/team?search=dev@", adminToken)
	require.Len(t, team, 1)
	assert.Equal(t, false, team[0]["isActive"])

	rec, body = api.doJSON(http.MethodPut, "/api/user/profile", map[string]any{"_id": devID, "title": "Lead"}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lead", body["user"].(map[string]any)["title"])

	status := api.doList("/api/user/get-status", adminToken)
	assert.Len(t, status, 2)

	rec, _ = api.doJSON(http.MethodDelete, "/api/user/"+devID, nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, api.doList("/api/user/team", adminToken), 1)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	api := newTestAPI(t, nil)
	api.register("dev", false)

	rec, body := api.doJSON(http.MethodPost, "/api/user/forgot-password", map[string]any{"email": "dev@example.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "OTP sent to your email address", body["message"])
	require.Len(t, api.mailer.Sent(), 1)

	user, err := api.store.Users.FindByEmail(context.Background(), "dev@example.com")
	require.NoError(t, err)

	rec, body = api.doJSON(http.MethodPost, "/api/user/verify-otp", map[string]any{
		"email": "dev@example.com", "otp": user.ResetPasswordOTP,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := body["token"].(string)

	rec, _ = api.doJSON(http.MethodPost, "/api/user/reset-password", map[string]any{
		"email": "dev@example.com", "token": token, "password": "brand-new-pass",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.doJSON(http.MethodPost, "/api/user/login", map[string]any{
		"email": "dev@example.com", "password": "brand-new-pass",
	}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadAsset(t *testing.T) {
	api := newTestAPI(t, nil)
	_, token := api.register("dev", false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "diagram.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/task/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := api.do(req, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "https://files.example/diagram.png")
	assert.Equal(t, []byte("png-bytes"), api.uploader.got)

	rec, _ = api.doJSON(http.MethodPost, "/api/task/upload", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	api := newTestAPI(t, middleware.NewRateLimiter(0.001, 1))

	creds := map[string]any{"email": "ghost@example.com", "password": "whatever"}
	rec, _ := api.doJSON(http.MethodPost, "/api/user/login", creds, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, body := api.doJSON(http.MethodPost, "/api/user/login", creds, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests, please try again later.", body["message"])
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)
	rec, body := api.doJSON(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["status"])
}
