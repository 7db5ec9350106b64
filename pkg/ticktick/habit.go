package ticktick

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/harrisonrobin/ticktask/pkg/colors"
	"github.com/harrisonrobin/ticktask/pkg/model"
	"github.com/harrisonrobin/ticktask/pkg/timeutil"
)

// Defaults for a blank daily yes/no habit.
const (
	DefaultHabitColor      = "#97E38B"
	DefaultHabitIcon       = "habit_daily_check_in"
	DefaultHabitRepeatRule = "RRULE:FREQ=WEEKLY;BYDAY=SU,MO,TU,WE,TH,FR,SA"
	DefaultHabitUnit       = "Count"
)

// HabitService manages habits and their daily check-ins. These endpoints
// authenticate with the OAuth token.
type HabitService struct {
	c *Client
}

// HabitSpec describes a habit to create. Zero fields take the defaults
// above; a zero Goal means 1 and a zero TargetStart means today.
type HabitSpec struct {
	Name          string          `validate:"required"`
	Color         string          `validate:"ttcolor"`
	IconRes       string
	Goal          float64         `validate:"gte=0"`
	Step          float64         `validate:"gte=0"`
	Unit          string
	Type          model.HabitType `validate:"omitempty,oneof=Boolean Real"`
	RepeatRule    string
	Encouragement string
	Reminders     []string
	TargetDays    int `validate:"gte=0"`
	TargetStart   time.Time
	SectionID     string
	RecordEnable  bool
}

type habitBatch struct {
	Add    []any `json:"add"`
	Update []any `json:"update"`
	Delete []any `json:"delete"`
}

// today is the current time in the account zone.
func (c *Client) today() time.Time {
	now := c.now()
	if loc, err := timeutil.LoadZone(c.timeZone); err == nil {
		return now.In(loc)
	}
	return now
}

// Create creates a habit and returns it as stored.
func (s *HabitService) Create(ctx context.Context, spec HabitSpec) (model.Habit, error) {
	if err := s.c.ready(); err != nil {
		return model.Habit{}, err
	}
	if err := checkSpec(spec); err != nil {
		return model.Habit{}, err
	}

	id, err := newObjectID()
	if err != nil {
		return model.Habit{}, err
	}
	now := s.c.today()
	h := model.Habit{
		ID:            id,
		Name:          spec.Name,
		Color:         orDefault(spec.Color, DefaultHabitColor),
		IconRes:       orDefault(spec.IconRes, DefaultHabitIcon),
		Goal:          spec.Goal,
		Step:          spec.Step,
		Unit:          orDefault(spec.Unit, DefaultHabitUnit),
		Type:          spec.Type,
		RepeatRule:    orDefault(spec.RepeatRule, DefaultHabitRepeatRule),
		Status:        model.HabitActive,
		Encouragement: spec.Encouragement,
		TargetDays:    spec.TargetDays,
		Reminders:     spec.Reminders,
		ExDates:       []string{},
		RecordEnable:  spec.RecordEnable,
		SectionID:     spec.SectionID,
		CreatedTime:   model.NewWireTime(now),
		ModifiedTime:  model.NewWireTime(now),
	}
	if h.Color == colors.RandomKeyword {
		h.Color = colors.Random()
	}
	if h.Goal == 0 {
		h.Goal = 1
	}
	if h.Type == "" {
		h.Type = model.HabitBoolean
	}
	if h.Reminders == nil {
		h.Reminders = []string{}
	}
	start := spec.TargetStart
	if start.IsZero() {
		start = now
	}
	h.TargetStartDate = timeutil.Stamp(start)

	resp, err := s.post(ctx, habitBatch{Add: []any{h}, Update: []any{}, Delete: []any{}})
	if err != nil {
		return model.Habit{}, err
	}
	if stored, err := s.Get(ctx, id); err == nil {
		return stored, nil
	}
	h.Etag, _ = resp.Etag(id)
	return h, nil
}

// Delete removes a habit.
func (s *HabitService) Delete(ctx context.Context, id string) error {
	if err := s.c.ready(); err != nil {
		return err
	}
	_, err := s.post(ctx, habitBatch{Add: []any{}, Update: []any{}, Delete: []any{id}})
	return err
}

// Archive archives a habit at the given time (today when zero), or restores
// it when archive is false.
func (s *HabitService) Archive(ctx context.Context, id string, archive bool, at time.Time) (model.Habit, error) {
	if err := s.c.ready(); err != nil {
		return model.Habit{}, err
	}
	h, err := s.Get(ctx, id)
	if err != nil {
		return model.Habit{}, err
	}
	now := s.c.today()
	if at.IsZero() {
		at = now
	}
	h.ModifiedTime = model.NewWireTime(now)
	if archive {
		h.Status = model.HabitArchived
		h.ArchivedTime = model.NewWireTime(at)
	} else {
		h.Status = model.HabitActive
		h.ArchivedTime = nil
	}
	if _, err := s.post(ctx, habitBatch{Add: []any{}, Update: []any{h}, Delete: []any{}}); err != nil {
		return model.Habit{}, err
	}
	return s.Get(ctx, id)
}

// List returns every habit of the account.
func (s *HabitService) List(ctx context.Context) ([]model.Habit, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	var habits []model.Habit
	if err := s.c.send(ctx, call{method: http.MethodGet, path: "habits", bearer: true}, &habits); err != nil {
		return nil, fmt.Errorf("habits: %w", err)
	}
	return habits, nil
}

// Get returns the habit with id.
func (s *HabitService) Get(ctx context.Context, id string) (model.Habit, error) {
	habits, err := s.List(ctx)
	if err != nil {
		return model.Habit{}, err
	}
	for _, h := range habits {
		if h.ID == id {
			return h, nil
		}
	}
	return model.Habit{}, missing("habit", id)
}

// Sections returns the habit sections.
func (s *HabitService) Sections(ctx context.Context) ([]model.HabitSection, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	var sections []model.HabitSection
	if err := s.c.send(ctx, call{method: http.MethodGet, path: "habitSections", bearer: true}, &sections); err != nil {
		return nil, fmt.Errorf("habitSections: %w", err)
	}
	return sections, nil
}

// Checkins returns the check-ins of a habit recorded after the given day.
func (s *HabitService) Checkins(ctx context.Context, habitID string, after time.Time) ([]model.HabitCheckin, error) {
	if err := s.c.ready(); err != nil {
		return nil, err
	}
	body := struct {
		HabitIDs   []string `json:"habitIds"`
		AfterStamp int      `json:"afterStamp"`
	}{[]string{habitID}, timeutil.Stamp(after)}

	var resp struct {
		Checkins map[string][]model.HabitCheckin `json:"checkins"`
	}
	err := s.c.send(ctx, call{method: http.MethodPost, path: "habitCheckins/query", body: body, bearer: true}, &resp)
	if err != nil {
		return nil, fmt.Errorf("habitCheckins/query: %w", err)
	}
	return resp.Checkins[habitID], nil
}

// SetCheckin records value for the habit on the day of date (today when
// zero). A day has at most one check-in; an existing one is updated.
func (s *HabitService) SetCheckin(ctx context.Context, habitID string, value float64, date time.Time) (model.HabitCheckin, error) {
	if err := s.c.ready(); err != nil {
		return model.HabitCheckin{}, err
	}
	h, err := s.Get(ctx, habitID)
	if err != nil {
		return model.HabitCheckin{}, err
	}
	if date.IsZero() {
		date = s.c.today()
	}
	stamp := timeutil.Stamp(date)

	existing, err := s.Checkins(ctx, habitID, date.AddDate(0, 0, -1))
	if err != nil {
		return model.HabitCheckin{}, err
	}

	now := model.NewWireTime(s.c.now())
	status := model.CheckinUnfinished
	if value >= h.Goal {
		status = model.CheckinCompleted
	}

	req := habitBatch{Add: []any{}, Update: []any{}, Delete: []any{}}
	var checkin model.HabitCheckin
	found := false
	for _, ci := range existing {
		if ci.CheckinStamp == stamp {
			checkin, found = ci, true
			break
		}
	}
	if found {
		checkin.Value = value
		checkin.Goal = h.Goal
		checkin.Status = status
		checkin.OpTime = now
		req.Update = append(req.Update, checkin)
	} else {
		id, err := checkinID(habitID)
		if err != nil {
			return model.HabitCheckin{}, err
		}
		checkin = model.HabitCheckin{
			ID:           id,
			HabitID:      habitID,
			CheckinStamp: stamp,
			CheckinTime:  now,
			OpTime:       now,
			Value:        value,
			Goal:         h.Goal,
			Status:       status,
		}
		req.Add = append(req.Add, checkin)
	}

	if err := s.c.send(ctx, call{method: http.MethodPost, path: "habitCheckins/batch", body: req, bearer: true}, nil); err != nil {
		return model.HabitCheckin{}, fmt.Errorf("habitCheckins/batch: %w", err)
	}
	return checkin, nil
}

// checkinID is the first five characters of the habit id followed by 19
// random hex digits.
func checkinID(habitID string) (string, error) {
	suffix, err := randomHex(10)
	if err != nil {
		return "", err
	}
	prefix := habitID
	if len(prefix) > 5 {
		prefix = prefix[:5]
	}
	return prefix + suffix[:19], nil
}

func (s *HabitService) post(ctx context.Context, req habitBatch) (*BatchResponse, error) {
	var resp BatchResponse
	if err := s.c.send(ctx, call{method: http.MethodPost, path: "habits/batch", body: req, bearer: true}, &resp); err != nil {
		return nil, fmt.Errorf("habits/batch: %w", err)
	}
	s.c.logBatchErrors("habits/batch", &resp)
	return &resp, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
