package handlers

import (
	"net/http"
	"strconv"

	"github.com/DinieMobo/TaskHero/middleware"
	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/services"
	"github.com/DinieMobo/TaskHero/utils"
	"github.com/gorilla/mux"
)

const maxUploadBytes = 10 << 20

type TaskHandler struct {
	service   *services.TaskService
	dashboard *services.DashboardService
}

func NewTaskHandler(service *services.TaskService, dashboard *services.DashboardService) *TaskHandler {
	return &TaskHandler{service: service, dashboard: dashboard}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in services.CreateTaskInput
	if err := decodeBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	task, err := h.service.Create(r.Context(), middleware.PrincipalFromContext(r.Context()), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"task": task, "message": "Task created successfully."})
}

func (h *TaskHandler) DuplicateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Task")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	task, err := h.service.Duplicate(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"task": task, "message": "Task duplicated successfully."})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Task")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var in services.UpdateTaskInput
	if err := decodeBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.service.Update(r.Context(), id, in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"message": "Task updated successfully."})
}

func (h *TaskHandler) ChangeStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Task")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var body struct {
		Stage string `json:"stage"`
	}
	if err := decodeBody(r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.service.ChangeStage(r.Context(), id, body.Stage); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"message": "Task stage updated successfully"})
}

func (h *TaskHandler) TrashTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Task")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.service.Trash(r.Context(), id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"message": "Task trashed successfully."})
}

// DeleteRestoreTask serves both /delete-restore and /delete-restore/{id};
// the action comes from the actionType query parameter.
func (h *TaskHandler) DeleteRestoreTask(w http.ResponseWriter, r *http.Request) {
	action := models.TaskDeleteAction(r.URL.Query().Get("actionType"))
	if err := h.service.DeleteOrRestore(r.Context(), action, mux.Vars(r)["id"]); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"message": "Operation performed successfully."})
}

func (h *TaskHandler) CreateSubTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Task")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var in services.SubTaskInput
	if err := decodeBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	sub, err := h.service.CreateSubTask(r.Context(), middleware.PrincipalFromContext(r.Context()), id, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"subTask": sub, "message": "Subtask created successfully"})
}

func (h *TaskHandler) ChangeSubTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "taskId", "Task")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	subID, err := pathID(r, "subTaskId", "Subtask")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var body struct {
		Status bool `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.service.SetSubTaskStatus(r.Context(), taskID, subID, body.Status); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	state := "in progress"
	if body.Status {
		state = "completed"
	}
	utils.WriteOK(w, utils.Envelope{"message": "Subtask marked as " + state})
}

func (h *TaskHandler) PostActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Task")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var body struct {
		Type     string `json:"type"`
		Activity string `json:"activity"`
	}
	if err := decodeBody(r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	act, err := h.service.PostActivity(r.Context(), middleware.PrincipalFromContext(r.Context()), id, body.Type, body.Activity)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"activity": act, "message": "Activity posted successfully."})
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := services.TaskListQuery{Stage: q.Get("stage"), Search: q.Get("search")}
	if raw := q.Get("isTrashed"); raw != "" {
		trashed, err := strconv.ParseBool(raw)
		if err != nil {
			utils.WriteError(w, r, models.ValidationError("isTrashed must be true or false"))
			return
		}
		query.Trashed = trashed
	}

	tasks, err := h.service.List(r.Context(), query)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"tasks": tasks})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Task")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"task": task})
}

func (h *TaskHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.Compute(r.Context(), middleware.PrincipalFromContext(r.Context()))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{
		"totalTasks":     summary.TotalTasks,
		"lastMonthTotal": summary.LastMonthTotal,
		"last10Task":     summary.Last10Task,
		"users":          summary.Users,
		"tasks":          summary.Tasks,
		"lastMonthTasks": summary.LastMonthTasks,
		"graphData":      summary.GraphData,
		"message":        "Successfully.",
	})
}

// UploadAsset forwards a multipart "file" field to the file host.
func (h *TaskHandler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, r, models.ValidationError("A file is required"))
		return
	}
	defer file.Close()

	url, err := h.service.UploadAsset(r.Context(), header.Filename, file)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"url": url})
}
