package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

var postgresDialect = dialect{
	name:      "postgres",
	numbered:  true,
	returning: true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            id          BIGSERIAL PRIMARY KEY,
            title       TEXT NOT NULL,
            description TEXT,
            is_complete BOOLEAN NOT NULL DEFAULT FALSE,
            due_date    TIMESTAMPTZ,
            priority    INTEGER NOT NULL DEFAULT 2 CHECK (priority IN (1, 2, 3)),
            category    TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_title ON tasks (title)`,
	},
}

// NewPostgresTaskRepository открывает пул postgres и создаёт таблицу, если её нет.
// dsn может быть как URL, так и строкой key=value.
func NewPostgresTaskRepository(ctx context.Context, dsn string, pool PoolConfig) (*SQLTaskRepository, error) {
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newSQLTaskRepository(ctx, sql.OpenDB(connector), postgresDialect, pool)
}
