package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/sun1tar/tasktracker/shared/middleware"

	"github.com/sun1tar/tasktracker/services/tasks/internal/models"
	"github.com/sun1tar/tasktracker/services/tasks/internal/service"
)

const (
	msgTaskNotFound    = "Task not found"
	msgInvalidPeriod   = "Invalid period. Use 'day', 'week', or 'month'."
	msgInvalidPriority = "Invalid priority. Use 1 (high), 2 (medium), or 3 (low)."
	msgInternal        = "internal server error"
	msgDeleted         = "Task deleted successfully"
	msgBodyTooLarge    = "Request body too large"
)

type TaskHandler struct {
	taskService *service.TaskService
	validate    *validator.Validate
	logger      *logrus.Logger
}

func NewTaskHandler(ts *service.TaskService, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: ts,
		validate:    newValidator(),
		logger:      logger,
	}
}

// RegisterRoutes регистрирует все маршруты задач и /health.
// Литеральные пути (/tasks/overdue, /tasks/filter) приоритетнее /tasks/{id}.
func (h *TaskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /tasks", h.ListTasks)
	mux.HandleFunc("GET /tasks/overdue", h.ListOverdue)
	mux.HandleFunc("GET /tasks/filter", h.FilterByPeriod)
	mux.HandleFunc("GET /tasks/category/{category}", h.ListByCategory)
	mux.HandleFunc("GET /tasks/priority/{priority}", h.ListByPriority)
	mux.HandleFunc("GET /tasks/{id}", h.GetTask)
	mux.HandleFunc("POST /tasks", h.CreateTask)
	mux.HandleFunc("PUT /tasks/{id}", h.UpdateTask)
	mux.HandleFunc("DELETE /tasks/{id}", h.DeleteTask)
	mux.HandleFunc("GET /health", h.Health)
}

func (h *TaskHandler) entry(r *http.Request, handler string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"component":  "http_handler",
		"handler":    handler,
		"request_id": middleware.GetRequestID(r.Context()),
	})
}

type taskResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsComplete  bool    `json:"is_complete"`
	DueDate     *string `json:"due_date"`
	Priority    int     `json:"priority"`
	Category    *string `json:"category"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toTaskResponse(t *models.Task) taskResponse {
	resp := taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsComplete:  t.IsComplete,
		Priority:    int(t.Priority),
		Category:    t.Category,
	}
	if t.DueDate != nil {
		due := models.FormatDueDate(*t.DueDate)
		resp.DueDate = &due
	}
	return resp
}

func toTaskResponses(tasks []*models.Task) []taskResponse {
	result := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = toTaskResponse(t)
	}
	return result
}

// ListTasks обрабатывает GET /tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.List(r.Context())
	h.writeList(w, h.entry(r, "ListTasks"), tasks, err)
}

// ListOverdue обрабатывает GET /tasks/overdue
func (h *TaskHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListOverdue(r.Context())
	h.writeList(w, h.entry(r, "ListOverdue"), tasks, err)
}

// FilterByPeriod обрабатывает GET /tasks/filter?period=day|week|month
func (h *TaskHandler) FilterByPeriod(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "FilterByPeriod")
	period := r.URL.Query().Get("period")

	tasks, err := h.taskService.ListByPeriod(r.Context(), period)
	if errors.Is(err, service.ErrInvalidPeriod) {
		logEntry.WithField("period", period).Warn("invalid period")
		writeError(w, http.StatusBadRequest, msgInvalidPeriod)
		return
	}
	h.writeList(w, logEntry, tasks, err)
}

// ListByCategory обрабатывает GET /tasks/category/{category}
func (h *TaskHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListByCategory(r.Context(), r.PathValue("category"))
	h.writeList(w, h.entry(r, "ListByCategory"), tasks, err)
}

// ListByPriority обрабатывает GET /tasks/priority/{priority}
func (h *TaskHandler) ListByPriority(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "ListByPriority")

	priority, err := models.ParsePriority(r.PathValue("priority"))
	if err != nil {
		logEntry.WithError(err).Warn("invalid priority")
		writeError(w, http.StatusBadRequest, msgInvalidPriority)
		return
	}

	tasks, err := h.taskService.ListByPriority(r.Context(), priority)
	h.writeList(w, logEntry, tasks, err)
}

// GetTask обрабатывает GET /tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "GetTask")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetByID(r.Context(), id)
	if errors.Is(err, service.ErrTaskNotFound) {
		logEntry.WithField("task_id", id).Warn("task not found")
		writeError(w, http.StatusNotFound, msgTaskNotFound)
		return
	}
	if err != nil {
		logEntry.WithError(err).Error("failed to get task")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	logEntry.WithField("task_id", id).Debug("task retrieved")
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// CreateTask обрабатывает POST /tasks.
// due_date хранится с точностью до микросекунд, более мелкая часть отбрасывается.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "CreateTask")

	var req createTaskRequest
	if !h.decodeAndValidate(w, r, logEntry, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		logEntry.WithError(err).Warn("invalid due_date")
		writeValidationError(w, []string{err.Error()})
		return
	}

	task, err := h.taskService.Create(r.Context(), in)
	if errors.Is(err, service.ErrInvalidTask) {
		logEntry.WithError(err).Warn("invalid task")
		writeValidationError(w, []string{err.Error()})
		return
	}
	if err != nil {
		logEntry.WithError(err).Error("failed to create task")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	logEntry.WithField("task_id", task.ID).Info("task created successfully")
	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

// UpdateTask обрабатывает PUT /tasks/{id}: полная замена всех полей
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "UpdateTask")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if !h.decodeAndValidate(w, r, logEntry, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		logEntry.WithError(err).Warn("invalid due_date")
		writeValidationError(w, []string{err.Error()})
		return
	}

	task, err := h.taskService.Update(r.Context(), id, in)
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		logEntry.WithField("task_id", id).Warn("task not found for update")
		writeError(w, http.StatusNotFound, msgTaskNotFound)
		return
	case errors.Is(err, service.ErrInvalidTask):
		logEntry.WithError(err).Warn("invalid task")
		writeValidationError(w, []string{err.Error()})
		return
	case err != nil:
		logEntry.WithError(err).Error("failed to update task")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	logEntry.WithField("task_id", id).Info("task updated successfully")
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// DeleteTask обрабатывает DELETE /tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "DeleteTask")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := h.taskService.Delete(r.Context(), id)
	if errors.Is(err, service.ErrTaskNotFound) {
		logEntry.WithField("task_id", id).Warn("task not found for deletion")
		writeError(w, http.StatusNotFound, msgTaskNotFound)
		return
	}
	if err != nil {
		logEntry.WithError(err).Error("failed to delete task")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	logEntry.WithField("task_id", id).Info("task deleted successfully")
	writeJSON(w, http.StatusOK, messageResponse{Message: msgDeleted})
}

// Health обрабатывает GET /health
func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.Ping(r.Context()); err != nil {
		h.entry(r, "Health").WithError(err).Error("store is unavailable")
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *TaskHandler) writeList(w http.ResponseWriter, logEntry *logrus.Entry, tasks []*models.Task, err error) {
	if err != nil {
		logEntry.WithError(err).Error("failed to list tasks")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	logEntry.WithField("count", len(tasks)).Debug("tasks listed")
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

// parseID читает {id} из пути; нечисловой id - ошибка валидации (422)
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeValidationError(w, []string{"id: must be an integer"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeValidationError(w http.ResponseWriter, details []string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Details: details})
}
