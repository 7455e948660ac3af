package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sun1tar/tasktracker/services/tasks/internal/models"
)

func newMockRepo(t *testing.T, d dialect) (*SQLTaskRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	for range d.schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	repo, err := newSQLTaskRepository(context.Background(), db, d, PoolConfig{MaxOpenConns: 4, MaxIdleConns: 2})
	if err != nil {
		t.Fatalf("newSQLTaskRepository: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return repo, mock
}

func TestBind(t *testing.T) {
	pg := &SQLTaskRepository{dialect: postgresDialect}
	my := &SQLTaskRepository{dialect: mysqlDialect}

	q := `SELECT 1 FROM tasks WHERE a = ? AND b <= ?`
	if got := pg.bind(q); got != `SELECT 1 FROM tasks WHERE a = $1 AND b <= $2` {
		t.Fatalf("postgres bind: %q", got)
	}
	if got := my.bind(q); got != q {
		t.Fatalf("mysql bind must be identity: %q", got)
	}
}

func TestSQLRepository_PostgresCreateUsesReturning(t *testing.T) {
	repo, mock := newMockRepo(t, postgresDialect)

	due := time.Date(2024, 1, 1, 5, 0, 0, 0, time.FixedZone("plus5", 5*3600))
	mock.ExpectQuery(regexp.QuoteMeta(`VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`)).
		WithArgs("A", nil, false, due.UTC(), 2, "work").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	category := "work"
	task := &models.Task{Title: "A", DueDate: &due, Priority: models.PriorityMedium, Category: &category}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID != 7 {
		t.Fatalf("expected id 7, got %d", task.ID)
	}
}

func TestSQLRepository_MySQLCreateUsesLastInsertID(t *testing.T) {
	repo, mock := newMockRepo(t, mysqlDialect)

	mock.ExpectExec(regexp.QuoteMeta(`VALUES (?, ?, ?, ?, ?, ?)`)).
		WithArgs("B", "desc", true, nil, 1, nil).
		WillReturnResult(sqlmock.NewResult(11, 1))

	description := "desc"
	task := &models.Task{Title: "B", Description: &description, IsComplete: true, Priority: models.PriorityHigh}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID != 11 {
		t.Fatalf("expected id 11, got %d", task.ID)
	}
}

func TestSQLRepository_GetByIDScansNullableColumns(t *testing.T) {
	repo, mock := newMockRepo(t, postgresDialect)
	due := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "title", "description", "is_complete", "due_date", "priority", "category"}).
		AddRow(int64(3), "T", nil, false, due, int64(3), "x")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1`)).WithArgs(int64(3)).WillReturnRows(rows)

	task, err := repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if task.ID != 3 || task.Description != nil || task.Category == nil || *task.Category != "x" ||
		task.Priority != models.PriorityLow || task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestSQLRepository_GetByIDMissing(t *testing.T) {
	repo, mock := newMockRepo(t, postgresDialect)
	mock.ExpectQuery(`FROM tasks WHERE id`).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByID(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLRepository_UpdateAndDeleteMissing(t *testing.T) {
	repo, mock := newMockRepo(t, postgresDialect)

	mock.ExpectExec(`UPDATE tasks SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = $1`)).WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Update(context.Background(), &models.Task{ID: 9, Title: "x", Priority: 2}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestSQLRepository_ListOverdueArgs(t *testing.T) {
	repo, mock := newMockRepo(t, postgresDialect)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("minus3", -3*3600))

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE due_date < $1 AND is_complete = $2`)).
		WithArgs(now.UTC(), false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "is_complete", "due_date", "priority", "category"}))

	tasks, err := repo.ListOverdue(context.Background(), now)
	if err != nil {
		t.Fatalf("ListOverdue: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestMySQLSchema_CaseSensitiveCategoryAndLongTitle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS tasks.*title +TEXT NOT NULL.*` +
		`category +VARCHAR\(255\) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NULL.*` +
		`INDEX idx_tasks_title \(title\(255\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := newSQLTaskRepository(context.Background(), db, mysqlDialect, PoolConfig{}); err != nil {
		t.Fatalf("newSQLTaskRepository: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLConfigForcesOptions(t *testing.T) {
	cfg, err := mysqlConfig("user:pass@tcp(db:3306)/todo")
	if err != nil {
		t.Fatalf("mysqlConfig: %v", err)
	}
	if !cfg.ParseTime || cfg.Loc != time.UTC || !cfg.ClientFoundRows {
		t.Fatalf("options not forced: %+v", cfg)
	}
	if cfg.DBName != "todo" || cfg.Addr != "db:3306" {
		t.Fatalf("dsn parsed incorrectly: %+v", cfg)
	}
	if _, err := mysqlConfig("::::"); err == nil {
		t.Fatalf("expected parse error")
	}
}
