package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sun1tar/tasktracker/services/tasks/internal/models"
)

// GormTaskRepository хранит задачи в SQLite через gorm
type GormTaskRepository struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// NewSQLiteTaskRepository открывает файл SQLite и выполняет AutoMigrate.
// SQLite не поддерживает параллельную запись, поэтому пул из одного соединения.
func NewSQLiteTaskRepository(dsn string, log *logrus.Logger) (*GormTaskRepository, error) {
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	dbLogger := logger.Discard
	if log != nil {
		dbLogger = logger.New(log, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		})
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Task{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return &GormTaskRepository{db: db, sqlDB: sqlDB}, nil
}

// ensureDirForSQLite создаёт каталог для файла БД
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

func (r *GormTaskRepository) DB() *sql.DB {
	return r.sqlDB
}

func (r *GormTaskRepository) Close() error {
	return r.sqlDB.Close()
}

func (r *GormTaskRepository) Ping(ctx context.Context) error {
	return r.sqlDB.PingContext(ctx)
}

func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	row := *task
	row.DueDate = utcPtr(task.DueDate)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	task.ID = row.ID
	return nil
}

func (r *GormTaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) List(ctx context.Context) ([]*models.Task, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *GormTaskRepository) ListOverdue(ctx context.Context, now time.Time) ([]*models.Task, error) {
	return r.find(r.db.WithContext(ctx).
		Where("due_date < ? AND is_complete = ?", now.UTC(), false))
}

func (r *GormTaskRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*models.Task, error) {
	return r.find(r.db.WithContext(ctx).
		Where("due_date >= ? AND due_date <= ?", from.UTC(), to.UTC()))
}

func (r *GormTaskRepository) ListByCategory(ctx context.Context, category string) ([]*models.Task, error) {
	return r.find(r.db.WithContext(ctx).Where("category = ?", category))
}

func (r *GormTaskRepository) ListByPriority(ctx context.Context, priority models.Priority) ([]*models.Task, error) {
	return r.find(r.db.WithContext(ctx).Where("priority = ?", int(priority)))
}

// Update перезаписывает все поля, включая нулевые. Save здесь не подходит:
// для отсутствующего id он вставит новую строку.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]any{
			"title":       task.Title,
			"description": task.Description,
			"is_complete": task.IsComplete,
			"due_date":    utcPtr(task.DueDate),
			"priority":    int(task.Priority),
			"category":    task.Category,
		})
	if result.Error != nil {
		return fmt.Errorf("update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormTaskRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormTaskRepository) find(q *gorm.DB) ([]*models.Task, error) {
	tasks := []*models.Task{}
	if err := q.Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
