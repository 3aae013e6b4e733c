package handlers

import (
	"context"
	"net/http"

	"github.com/DinieMobo/TaskHero/middleware"
	"github.com/DinieMobo/TaskHero/services"
	"github.com/DinieMobo/TaskHero/utils"
	"github.com/gorilla/mux"
)

// RouterDeps holds everything NewRouter wires into routes.
type RouterDeps struct {
	Tasks         *services.TaskService
	Dashboard     *services.DashboardService
	Notifications *services.NotificationService
	Users         *services.UserService

	// AuthLimiter throttles the public auth routes. Nil disables it.
	AuthLimiter  *middleware.RateLimiter
	CORSOrigins  []string
	SecureCookie bool

	// Health reports store reachability for /health. Nil always reports ok.
	Health func(ctx context.Context) error
}

func NewRouter(deps RouterDeps) http.Handler {
	taskHandler := NewTaskHandler(deps.Tasks, deps.Dashboard)
	userHandler := NewUserHandler(deps.Users, deps.SecureCookie)
	noticeHandler := NewNotificationHandler(deps.Notifications)

	requireAuth := middleware.RequireAuth(deps.Users)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireAdmin(h))
	}
	public := func(h http.HandlerFunc) http.Handler {
		if deps.AuthLimiter == nil {
			return h
		}
		return deps.AuthLimiter.Middleware(h)
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteMessage(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(req.Context()); err != nil {
				utils.WriteMessage(w, http.StatusServiceUnavailable, "Database unavailable")
				return
			}
		}
		utils.WriteOK(w, utils.Envelope{"message": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Users. Literal paths come before /user/{id}.
	api.Handle("/user/login", public(userHandler.Login)).Methods(http.MethodPost)
	api.HandleFunc("/user/logout", userHandler.Logout).Methods(http.MethodPost)
	api.Handle("/user/register", public(userHandler.Register)).Methods(http.MethodPost)
	api.Handle("/user/admin/register", admin(userHandler.AdminRegister)).Methods(http.MethodPost)
	api.Handle("/user/forgot-password", public(userHandler.ForgotPassword)).Methods(http.MethodPost)
	api.Handle("/user/verify-otp", public(userHandler.VerifyOTP)).Methods(http.MethodPost)
	api.Handle("/user/reset-password", public(userHandler.ResetPassword)).Methods(http.MethodPost)
	api.Handle("/user/profile", protected(userHandler.UpdateProfile)).Methods(http.MethodPut)
	api.Handle("/user/change-password", protected(userHandler.ChangePassword)).Methods(http.MethodPut)
	api.Handle("/user/team", protected(userHandler.TeamList)).Methods(http.MethodGet)
	api.Handle("/user/notifications", protected(noticeHandler.GetNotifications)).Methods(http.MethodGet)
	api.Handle("/user/get-status", protected(userHandler.TaskStatus)).Methods(http.MethodGet)
	api.Handle("/user/read-noti", protected(noticeHandler.MarkRead)).Methods(http.MethodPut, http.MethodPost)
	api.Handle("/user/stats", admin(userHandler.Stats)).Methods(http.MethodGet)
	api.Handle("/user/{id}", admin(userHandler.ActivateUser)).Methods(http.MethodPut)
	api.Handle("/user/{id}", admin(userHandler.DeleteUser)).Methods(http.MethodDelete)

	// Tasks. Literal paths come before /task/{id}.
	api.Handle("/task/create", protected(taskHandler.CreateTask)).Methods(http.MethodPost)
	api.Handle("/task/duplicate/{id}", protected(taskHandler.DuplicateTask)).Methods(http.MethodPost)
	api.Handle("/task/activity/{id}", protected(taskHandler.PostActivity)).Methods(http.MethodPost)
	api.Handle("/task/upload", protected(taskHandler.UploadAsset)).Methods(http.MethodPost)
	api.Handle("/task/dashboard", protected(taskHandler.Dashboard)).Methods(http.MethodGet)
	api.Handle("/task", protected(taskHandler.GetTasks)).Methods(http.MethodGet)
	api.Handle("/task/create-subtask/{id}", protected(taskHandler.CreateSubTask)).Methods(http.MethodPut)
	api.Handle("/task/change-status/{taskId}/{subTaskId}", protected(taskHandler.ChangeSubTaskStatus)).Methods(http.MethodPut)
	api.Handle("/task/update/{id}", protected(taskHandler.UpdateTask)).Methods(http.MethodPut)
	api.Handle("/task/change-stage/{id}", protected(taskHandler.ChangeStage)).Methods(http.MethodPut)
	api.Handle("/task/delete-restore", protected(taskHandler.DeleteRestoreTask)).Methods(http.MethodDelete)
	api.Handle("/task/delete-restore/{id}", protected(taskHandler.DeleteRestoreTask)).Methods(http.MethodDelete)
	api.Handle("/task/{id}", protected(taskHandler.GetTask)).Methods(http.MethodGet)
	api.Handle("/task/{id}", protected(taskHandler.TrashTask)).Methods(http.MethodPut)

	return middleware.CORS(deps.CORSOrigins)(middleware.RequestLogger(r))
}
