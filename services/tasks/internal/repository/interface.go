package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sun1tar/tasktracker/services/tasks/internal/models"
)

// ErrNotFound возвращается, когда задачи с таким id нет
var ErrNotFound = errors.New("task not found")

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context) ([]*models.Task, error)
	// ListOverdue - due_date < now и задача не выполнена
	ListOverdue(ctx context.Context, now time.Time) ([]*models.Task, error)
	// ListDueBetween - from <= due_date <= to
	ListDueBetween(ctx context.Context, from, to time.Time) ([]*models.Task, error)
	ListByCategory(ctx context.Context, category string) ([]*models.Task, error)
	ListByPriority(ctx context.Context, priority models.Priority) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}

// PoolConfig - настройки общего пула соединений
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
}
