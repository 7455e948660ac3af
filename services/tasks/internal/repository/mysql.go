package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// category сравнивается побайтно (utf8mb4_bin), как в postgres и sqlite:
// серверная collation по умолчанию не различает регистр.
var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            id          BIGINT PRIMARY KEY AUTO_INCREMENT,
            title       TEXT NOT NULL,
            description TEXT NULL,
            is_complete BOOLEAN NOT NULL DEFAULT FALSE,
            due_date    DATETIME(6) NULL,
            priority    TINYINT NOT NULL DEFAULT 2,
            category    VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NULL,
            INDEX idx_tasks_title (title(255))
        )`,
	},
}

// mysqlConfig разбирает DSN и включает то, без чего репозиторий работает неверно:
// parseTime и loc=UTC для DATETIME, clientFoundRows чтобы UPDATE без изменений
// не считался отсутствием строки.
func mysqlConfig(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg, nil
}

// NewMySQLTaskRepository открывает пул mysql и создаёт таблицу, если её нет
func NewMySQLTaskRepository(ctx context.Context, dsn string, pool PoolConfig) (*SQLTaskRepository, error) {
	cfg, err := mysqlConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mysql dsn: %w", err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newSQLTaskRepository(ctx, sql.OpenDB(connector), mysqlDialect, pool)
}
