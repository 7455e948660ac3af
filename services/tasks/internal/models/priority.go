package models

import (
	"fmt"
	"strconv"
)

type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// DefaultPriority присваивается задаче, если приоритет не передан
const DefaultPriority = PriorityMedium

func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "priority(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParsePriority разбирает приоритет из пути запроса
func ParsePriority(s string) (Priority, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("priority %q is not an integer", s)
	}
	p := Priority(n)
	if !p.Valid() {
		return 0, fmt.Errorf("priority %d out of range", n)
	}
	return p, nil
}
