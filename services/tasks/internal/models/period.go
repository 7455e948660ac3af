package models

import (
	"fmt"
	"time"
)

// Period - относительное окно от текущего момента вперёд
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

func (p Period) Length() time.Duration {
	switch p {
	case PeriodDay:
		return 24 * time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// Window возвращает замкнутый интервал [now, now+Length].
// Окно всегда начинается с текущего момента, а не с начала дня.
func (p Period) Window(now time.Time) (from, to time.Time) {
	return now, now.Add(p.Length())
}
