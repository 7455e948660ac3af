package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/sun1tar/tasktracker/services/tasks/internal/models"
	"github.com/sun1tar/tasktracker/services/tasks/internal/service"
)

const maxBodyBytes = 1 << 20

// createTaskRequest: обязателен только title; priority по умолчанию 2
type createTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	IsComplete  bool    `json:"is_complete"`
	DueDate     *string `json:"due_date"`
	Priority    *int    `json:"priority" validate:"omitnil,oneof=1 2 3"`
	Category    *string `json:"category"`
}

// updateTaskRequest - полная замена. due_date и category допускают null,
// отсутствие ключа очищает поле.
type updateTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description" validate:"required"`
	IsComplete  *bool   `json:"is_complete" validate:"required"`
	DueDate     *string `json:"due_date"`
	Priority    *int    `json:"priority" validate:"required,oneof=1 2 3"`
	Category    *string `json:"category"`
}

func (req createTaskRequest) toInput() (service.TaskInput, error) {
	due, err := parseOptionalDueDate(req.DueDate)
	if err != nil {
		return service.TaskInput{}, err
	}
	priority := models.DefaultPriority
	if req.Priority != nil {
		priority = models.Priority(*req.Priority)
	}
	return service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		IsComplete:  req.IsComplete,
		DueDate:     due,
		Priority:    priority,
		Category:    req.Category,
	}, nil
}

func (req updateTaskRequest) toInput() (service.TaskInput, error) {
	due, err := parseOptionalDueDate(req.DueDate)
	if err != nil {
		return service.TaskInput{}, err
	}
	return service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		IsComplete:  *req.IsComplete,
		DueDate:     due,
		Priority:    models.Priority(*req.Priority),
		Category:    req.Category,
	}, nil
}

func parseOptionalDueDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := models.ParseDueDate(*s)
	if err != nil {
		return nil, fmt.Errorf("due_date: %w", err)
	}
	return &t, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate разбирает JSON и проверяет теги validate.
// При ошибке сам пишет 422 (413 для слишком большого тела) и возвращает false.
func (h *TaskHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, logEntry *logrus.Entry, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logEntry.WithField("limit", tooLarge.Limit).Warn("request body too large")
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return false
		}
		logEntry.WithError(err).Warn("invalid request body")
		writeValidationError(w, []string{decodeErrorDetail(err)})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			logEntry.WithError(err).Error("validator failed")
			writeError(w, http.StatusInternalServerError, msgInternal)
			return false
		}
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldErrorDetail(fe))
		}
		logEntry.WithField("details", details).Warn("validation failed")
		writeValidationError(w, details)
		return false
	}
	return true
}

func decodeErrorDetail(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s: must be %s", typeErr.Field, typeErr.Type.String())
	}
	return "body: invalid JSON"
}

func fieldErrorDetail(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + ": field required"
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed on %s", fe.Field(), fe.Tag())
	}
}
