// Package repotest содержит in-memory реализацию TaskRepository для тестов.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sun1tar/tasktracker/services/tasks/internal/models"
	"github.com/sun1tar/tasktracker/services/tasks/internal/repository"
)

type Memory struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]models.Task

	// Err, если задан, возвращается из каждого метода
	Err error
}

func NewMemory() *Memory {
	return &Memory{tasks: make(map[int64]models.Task)}
}

var _ repository.TaskRepository = (*Memory)(nil)

// Put кладёт задачу как есть, без нормализации. Нужен для подготовки данных.
func (m *Memory) Put(task models.Task) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if task.ID == 0 {
		m.nextID++
		task.ID = m.nextID
	} else if task.ID > m.nextID {
		m.nextID = task.ID
	}
	m.tasks[task.ID] = task
	return task.ID
}

// Raw возвращает задачу в том виде, в каком она хранится
func (m *Memory) Raw(id int64) (models.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return t, ok
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *Memory) Create(_ context.Context, task *models.Task) error {
	if m.Err != nil {
		return m.Err
	}
	task.ID = m.Put(clone(*task))
	return nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (*models.Task, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := clone(t)
	return &c, nil
}

func (m *Memory) List(_ context.Context) ([]*models.Task, error) {
	return m.filter(func(models.Task) bool { return true })
}

func (m *Memory) ListOverdue(_ context.Context, now time.Time) ([]*models.Task, error) {
	return m.filter(func(t models.Task) bool { return t.IsOverdue(now) })
}

func (m *Memory) ListDueBetween(_ context.Context, from, to time.Time) ([]*models.Task, error) {
	return m.filter(func(t models.Task) bool {
		return t.DueDate != nil && !t.DueDate.Before(from) && !t.DueDate.After(to)
	})
}

func (m *Memory) ListByCategory(_ context.Context, category string) ([]*models.Task, error) {
	return m.filter(func(t models.Task) bool { return t.Category != nil && *t.Category == category })
}

func (m *Memory) ListByPriority(_ context.Context, priority models.Priority) ([]*models.Task, error) {
	return m.filter(func(t models.Task) bool { return t.Priority == priority })
}

func (m *Memory) Update(_ context.Context, task *models.Task) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return repository.ErrNotFound
	}
	m.tasks[task.ID] = clone(*task)
	return nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *Memory) Ping(context.Context) error { return m.Err }

func (m *Memory) Close() error { return nil }

func (m *Memory) filter(keep func(models.Task) bool) ([]*models.Task, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Task{}
	for _, t := range m.tasks {
		if keep(t) {
			c := clone(t)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func clone(t models.Task) models.Task {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	if t.Category != nil {
		c := *t.Category
		t.Category = &c
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}
