package model

import (
	"slices"
	"time"
)

// Task is a single to-do item. Tags reference tags by lowercase name.
type Task struct {
	ID        string     `json:"id,omitempty"`
	ProjectID string     `json:"projectId,omitempty"`
	ParentID  string     `json:"parentId"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Priority  Priority   `json:"priority"`
	Status    TaskStatus `json:"status"`
	Tags      []string   `json:"tags"`
	StartDate *WireTime  `json:"startDate,omitempty"`
	DueDate   *WireTime  `json:"dueDate,omitempty"`
	IsAllDay  bool       `json:"isAllDay"`
	TimeZone  string     `json:"timeZone,omitempty"`
	Progress  int        `json:"progress"`
	SortOrder int64      `json:"sortOrder,omitempty"`
	Etag      string     `json:"etag,omitempty"`
	Extra     Extra      `json:"-"`
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	var a alias
	extra, err := decodeWithExtra(data, &a)
	if err != nil {
		return err
	}
	*t = Task(a)
	t.Extra = extra
	return nil
}

// MarshalJSON always sends tags, parentId and progress so that a full-record
// update can clear them. A nil tag list goes out as [].
func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return encodeWithExtra(alias(t), t.Extra)
}

func (t Task) EntityID() string   { return t.ID }
func (t Task) EntityEtag() string { return t.Etag }

// Clone returns a copy that shares no slices or maps with t.
func (t Task) Clone() Task {
	out := t
	out.Tags = slices.Clone(t.Tags)
	out.Extra = t.Extra.clone()
	if t.StartDate != nil {
		sd := *t.StartDate
		out.StartDate = &sd
	}
	if t.DueDate != nil {
		dd := *t.DueDate
		out.DueDate = &dd
	}
	return out
}

// Start returns the start date, or the zero time when unset.
func (t Task) Start() time.Time {
	if t.StartDate == nil {
		return time.Time{}
	}
	return t.StartDate.Time
}

// Due returns the due date, or the zero time when unset.
func (t Task) Due() time.Time {
	if t.DueDate == nil {
		return time.Time{}
	}
	return t.DueDate.Time
}

// HasTag reports whether the task carries the tag name.
func (t Task) HasTag(name string) bool {
	return slices.Contains(t.Tags, name)
}

// Completed reports whether the task is marked done.
func (t Task) Completed() bool {
	return t.Status == TaskCompleted
}
