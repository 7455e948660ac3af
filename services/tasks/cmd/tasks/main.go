package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/sun1tar/tasktracker/services/tasks/internal/config"
	handlers "github.com/sun1tar/tasktracker/services/tasks/internal/http"
	customMiddleware "github.com/sun1tar/tasktracker/services/tasks/internal/middleware"
	"github.com/sun1tar/tasktracker/services/tasks/internal/notify"
	"github.com/sun1tar/tasktracker/services/tasks/internal/repository"
	"github.com/sun1tar/tasktracker/services/tasks/internal/service"
	"github.com/sun1tar/tasktracker/shared/logger"
	"github.com/sun1tar/tasktracker/shared/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("tasks", "").WithError(err).Fatal("failed to load config")
	}
	logrusLogger := logger.Init("tasks", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, sqlDB, err := openRepository(ctx, cfg.DB, logrusLogger)
	if err != nil {
		logrusLogger.WithError(err).WithField("driver", cfg.DB.Driver).Fatal("failed to connect to database")
	}
	defer repo.Close()

	if err := customMiddleware.RegisterDBStats(prometheus.DefaultRegisterer, sqlDB, cfg.DB.Driver); err != nil {
		logrusLogger.WithError(err).Warn("failed to register db metrics")
	}

	taskService := service.NewTaskService(repo)
	taskHandler := handlers.NewTaskHandler(taskService, logrusLogger)

	if cfg.Reminder.Interval > 0 {
		reminders := service.NewReminderService(repo, newNotifier(cfg.Reminder, logrusLogger), cfg.Reminder.Lead, logrusLogger)
		if err := reminders.Start(cfg.Reminder.Interval); err != nil {
			logrusLogger.WithError(err).Fatal("failed to start reminders")
		}
		defer reminders.Stop()
		logrusLogger.WithFields(logrus.Fields{
			"interval": cfg.Reminder.Interval.String(),
			"lead":     cfg.Reminder.Lead.String(),
		}).Info("reminders enabled")
	}

	mux := http.NewServeMux()
	taskHandler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", customMiddleware.MetricsHandler())

	// Порядок важен: request-id должен быть в контексте до логирования
	var handler http.Handler = mux
	handler = customMiddleware.SecurityHeadersMiddleware(handler)
	handler = customMiddleware.MetricsMiddleware(handler)
	handler = middleware.LoggingMiddleware(logrusLogger, handler)
	handler = middleware.RequestIDMiddleware(handler)

	srv := &http.Server{
		Addr:    ":" + cfg.TasksPort,
		Handler: handler,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logrusLogger.Info("shutting down tasks service...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrusLogger.WithError(err).Error("graceful shutdown failed")
		}
	}()

	logrusLogger.WithFields(logrus.Fields{
		"port":   cfg.TasksPort,
		"driver": cfg.DB.Driver,
	}).Info("tasks service starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrusLogger.WithError(err).Fatal("server failed")
	}
	<-shutdownDone
	logrusLogger.Info("tasks service stopped")
}

// openRepository открывает хранилище по DB_DRIVER и возвращает его пул для метрик
func openRepository(ctx context.Context, db config.DatabaseConfig, log *logrus.Logger) (repository.TaskRepository, *sql.DB, error) {
	pool := repository.PoolConfig{MaxOpenConns: db.MaxOpenConns, MaxIdleConns: db.MaxIdleConns}
	switch db.Driver {
	case config.DriverPostgres:
		r, err := repository.NewPostgresTaskRepository(ctx, db.URL, pool)
		if err != nil {
			return nil, nil, err
		}
		return r, r.DB(), nil
	case config.DriverMySQL:
		r, err := repository.NewMySQLTaskRepository(ctx, db.URL, pool)
		if err != nil {
			return nil, nil, err
		}
		return r, r.DB(), nil
	case config.DriverSQLite:
		r, err := repository.NewSQLiteTaskRepository(db.URL, log)
		if err != nil {
			return nil, nil, err
		}
		return r, r.DB(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", db.Driver)
	}
}

// newNotifier выбирает Telegram, если он настроен, иначе пишет напоминания в лог
func newNotifier(cfg config.ReminderConfig, log *logrus.Logger) notify.Notifier {
	if !cfg.TelegramEnabled() {
		return notify.LogNotifier{Logger: log}
	}
	tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.WithError(err).Warn("telegram is unavailable, reminders go to the log")
		return notify.LogNotifier{Logger: log}
	}
	return tg
}
