package models

import "time"

// Task - единственная хранимая сущность
type Task struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string     `json:"title" gorm:"not null;index"`
	Description *string    `json:"description"`
	IsComplete  bool       `json:"is_complete" gorm:"not null;default:false"`
	DueDate     *time.Time `json:"due_date"`
	Priority    Priority   `json:"priority" gorm:"not null;default:2"`
	Category    *string    `json:"category"`
}

// NormalizeDueDate приводит due_date задачи к UTC, если он задан
func (t *Task) NormalizeDueDate() {
	if t.DueDate == nil {
		return
	}
	utc := NormalizeDueDate(*t.DueDate)
	t.DueDate = &utc
}

// IsOverdue - срок прошёл, а задача не выполнена
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.IsComplete && t.DueDate != nil && t.DueDate.Before(now)
}
