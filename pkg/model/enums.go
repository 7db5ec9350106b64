package model

import (
	"fmt"
	"strings"
)

// Priority is the task priority. The wire values are not contiguous.
type Priority int

const (
	PriorityNone   Priority = 0
	PriorityLow    Priority = 1
	PriorityMedium Priority = 3
	PriorityHigh   Priority = 5
)

var priorityNames = map[string]Priority{
	"none":   PriorityNone,
	"low":    PriorityLow,
	"medium": PriorityMedium,
	"high":   PriorityHigh,
}

// ParsePriority maps "none", "low", "medium" and "high" to a Priority.
func ParsePriority(s string) (Priority, error) {
	p, ok := priorityNames[strings.ToLower(s)]
	if !ok {
		return PriorityNone, fmt.Errorf("invalid priority: %s (must be 'none', 'low', 'medium', or 'high')", s)
	}
	return p, nil
}

// Valid reports whether p is one of the four wire values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	for name, v := range priorityNames {
		if v == p {
			return name
		}
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// TaskStatus is the completion state of a task.
type TaskStatus int

const (
	TaskOpen      TaskStatus = 0
	TaskCompleted TaskStatus = 2
)

// ProjectKind distinguishes task lists from note lists.
type ProjectKind string

const (
	ProjectKindTask ProjectKind = "TASK"
	ProjectKindNote ProjectKind = "NOTE"
)

// Valid reports whether k is TASK or NOTE.
func (k ProjectKind) Valid() bool {
	return k == ProjectKindTask || k == ProjectKindNote
}

// TagSort is the ordering applied to tasks shown under a tag.
type TagSort string

const (
	TagSortProject  TagSort = "project"
	TagSortDueDate  TagSort = "dueDate"
	TagSortTitle    TagSort = "title"
	TagSortPriority TagSort = "priority"
)

var tagSorts = []TagSort{TagSortProject, TagSortDueDate, TagSortTitle, TagSortPriority}

// TagSortFromIndex maps the numeric sort option 0..3 to a TagSort.
func TagSortFromIndex(i int) (TagSort, error) {
	if i < 0 || i >= len(tagSorts) {
		return "", fmt.Errorf("invalid sort index %d (must be 0-3)", i)
	}
	return tagSorts[i], nil
}

// Valid reports whether s is one of the four sort types.
func (s TagSort) Valid() bool {
	for _, v := range tagSorts {
		if v == s {
			return true
		}
	}
	return false
}

// HabitType tells whether a habit is a yes/no check or a measured amount.
type HabitType string

const (
	HabitBoolean HabitType = "Boolean"
	HabitReal    HabitType = "Real"
)

// HabitStatus is the archival state of a habit.
type HabitStatus int

const (
	HabitActive   HabitStatus = 0
	HabitArchived HabitStatus = 1
)

// Check-in status values.
const (
	CheckinUnfinished = 0
	CheckinCompleted  = 2
)
