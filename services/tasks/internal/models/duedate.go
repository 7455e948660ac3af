package models

import (
	"fmt"
	"strings"
	"time"
)

// DueDateLayout - формат вывода: всегда с числовым смещением (+00:00), без "Z"
const DueDateLayout = "2006-01-02T15:04:05.999999-07:00"

// offsetLayouts - ISO 8601 смещения, которых нет в RFC 3339: без двоеточия и только часы
var offsetLayouts = []string{
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05-07",
	"2006-01-02 15:04:05-07",
}

// naiveLayouts - форматы без зоны. time.Parse возвращает для них UTC,
// то есть время на часах сохраняется, а не пересчитывается.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueDate разбирает дату со смещением (RFC 3339, +hhmm, +hh) или без него.
// Дата без зоны трактуется как UTC.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due_date %q", s)
}

// NormalizeDueDate переводит момент в UTC с точностью до микросекунд,
// как его хранят все поддерживаемые БД.
func NormalizeDueDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// FormatDueDate выводит дату в UTC с явным смещением
func FormatDueDate(t time.Time) string {
	return t.UTC().Format(DueDateLayout)
}
