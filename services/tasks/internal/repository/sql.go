package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sun1tar/tasktracker/services/tasks/internal/models"
)

const taskColumns = `id, title, description, is_complete, due_date, priority, category`

// dialect описывает отличия postgres и mysql
type dialect struct {
	name string
	// schema выполняется при старте, каждая строка - отдельный запрос
	schema []string
	// numbered - плейсхолдеры вида $1, $2 вместо ?
	numbered bool
	// returning - id новой строки берётся через RETURNING, а не LastInsertId
	returning bool
}

// SQLTaskRepository работает поверх database/sql.
// *sql.DB - общий пул, каждый запрос берёт соединение и возвращает его сам.
type SQLTaskRepository struct {
	db      *sql.DB
	dialect dialect
}

func newSQLTaskRepository(ctx context.Context, db *sql.DB, d dialect, pool PoolConfig) (*SQLTaskRepository, error) {
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", d.name, err)
	}

	r := &SQLTaskRepository{db: db, dialect: d}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLTaskRepository) migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DB отдаёт пул, например для сбора метрик
func (r *SQLTaskRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLTaskRepository) Close() error {
	return r.db.Close()
}

func (r *SQLTaskRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// bind переписывает ? в $n для postgres
func (r *SQLTaskRepository) bind(query string) string {
	if !r.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *SQLTaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `INSERT INTO tasks (title, description, is_complete, due_date, priority, category)
              VALUES (?, ?, ?, ?, ?, ?)`
	args := []any{task.Title, nullString(task.Description), task.IsComplete,
		nullTime(task.DueDate), int(task.Priority), nullString(task.Category)}

	if r.dialect.returning {
		return r.db.QueryRowContext(ctx, r.bind(query+` RETURNING id`), args...).Scan(&task.ID)
	}

	result, err := r.db.ExecContext(ctx, r.bind(query), args...)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	task.ID = id
	return nil
}

func (r *SQLTaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	task, err := scanTask(r.db.QueryRowContext(ctx, r.bind(query), id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *SQLTaskRepository) List(ctx context.Context) ([]*models.Task, error) {
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
}

func (r *SQLTaskRepository) ListOverdue(ctx context.Context, now time.Time) ([]*models.Task, error) {
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks
        WHERE due_date < ? AND is_complete = ? ORDER BY id`, now.UTC(), false)
}

func (r *SQLTaskRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*models.Task, error) {
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks
        WHERE due_date >= ? AND due_date <= ? ORDER BY id`, from.UTC(), to.UTC())
}

func (r *SQLTaskRepository) ListByCategory(ctx context.Context, category string) ([]*models.Task, error) {
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE category = ? ORDER BY id`, category)
}

func (r *SQLTaskRepository) ListByPriority(ctx context.Context, priority models.Priority) ([]*models.Task, error) {
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE priority = ? ORDER BY id`, int(priority))
}

func (r *SQLTaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks SET title = ?, description = ?, is_complete = ?, due_date = ?, priority = ?, category = ?
              WHERE id = ?`
	result, err := r.db.ExecContext(ctx, r.bind(query),
		task.Title, nullString(task.Description), task.IsComplete,
		nullTime(task.DueDate), int(task.Priority), nullString(task.Category), task.ID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *SQLTaskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.bind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *SQLTaskRepository) query(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, r.bind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		task        models.Task
		description sql.NullString
		category    sql.NullString
		dueDate     sql.NullTime
		priority    int
	)
	if err := row.Scan(&task.ID, &task.Title, &description, &task.IsComplete,
		&dueDate, &priority, &category); err != nil {
		return nil, err
	}
	if description.Valid {
		task.Description = &description.String
	}
	if category.Valid {
		task.Category = &category.String
	}
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	task.Priority = models.Priority(priority)
	return &task, nil
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
