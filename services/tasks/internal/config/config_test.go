package config

import (
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.Driver != DriverPostgres || cfg.DB.URL != DefaultDatabaseURL {
		t.Fatalf("unexpected db config: %+v", cfg.DB)
	}
	if cfg.TasksPort != "8000" {
		t.Fatalf("expected default port 8000, got %q", cfg.TasksPort)
	}
	if cfg.Reminder.Interval != 0 || cfg.Reminder.Lead != time.Hour {
		t.Fatalf("unexpected reminder config: %+v", cfg.Reminder)
	}
	if cfg.Reminder.TelegramEnabled() {
		t.Fatalf("telegram must be disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(envMap(map[string]string{
		"DB_DRIVER":         "sqlite3",
		"DATABASE_URL":      "file::memory:",
		"TASKS_PORT":        "9090",
		"DB_MAX_OPEN_CONNS": "3",
		"REMINDER_INTERVAL": "5m",
		"REMINDER_LEAD":     "30m",
		"TELEGRAM_TOKEN":    "tok",
		"TELEGRAM_CHAT_ID":  "42",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.Driver != DriverSQLite || cfg.DB.URL != "file::memory:" || cfg.DB.MaxOpenConns != 3 {
		t.Fatalf("unexpected db config: %+v", cfg.DB)
	}
	if cfg.Reminder.Interval != 5*time.Minute || cfg.Reminder.Lead != 30*time.Minute {
		t.Fatalf("unexpected reminder config: %+v", cfg.Reminder)
	}
	if !cfg.Reminder.TelegramEnabled() {
		t.Fatalf("telegram must be enabled")
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":   {"DB_DRIVER": "oracle"},
		"conns":    {"DB_MAX_OPEN_CONNS": "many"},
		"interval": {"REMINDER_INTERVAL": "soon"},
		"chat":     {"TELEGRAM_CHAT_ID": "abc"},
		"lead":     {"REMINDER_INTERVAL": "1m", "REMINDER_LEAD": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := load(envMap(env)); err == nil {
				t.Fatalf("expected error for %v", env)
			}
		})
	}
}
