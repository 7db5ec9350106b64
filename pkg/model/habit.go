package model

// Habit is a recurring practice tracked through daily check-ins.
type Habit struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Color           string      `json:"color"`
	IconRes         string      `json:"iconRes"`
	Goal            float64     `json:"goal"`
	Step            float64     `json:"step"`
	Unit            string      `json:"unit"`
	Type            HabitType   `json:"type"`
	RepeatRule      string      `json:"repeatRule"`
	Status          HabitStatus `json:"status"`
	Encouragement   string      `json:"encouragement"`
	TargetDays      int         `json:"targetDays"`
	TargetStartDate int         `json:"targetStartDate,omitempty"`
	Reminders       []string    `json:"reminders"`
	ExDates         []string    `json:"exDates"`
	RecordEnable    bool        `json:"recordEnable"`
	SectionID       string      `json:"sectionId,omitempty"`
	SortOrder       int64       `json:"sortOrder"`
	CreatedTime     *WireTime   `json:"createdTime,omitempty"`
	ModifiedTime    *WireTime   `json:"modifiedTime,omitempty"`
	ArchivedTime    *WireTime   `json:"archivedTime,omitempty"`
	TotalCheckIns   int         `json:"totalCheckIns,omitempty"`
	Etag            string      `json:"etag,omitempty"`
	Extra           Extra       `json:"-"`
}

func (h *Habit) UnmarshalJSON(data []byte) error {
	type alias Habit
	var a alias
	extra, err := decodeWithExtra(data, &a)
	if err != nil {
		return err
	}
	*h = Habit(a)
	h.Extra = extra
	return nil
}

func (h Habit) MarshalJSON() ([]byte, error) {
	type alias Habit
	return encodeWithExtra(alias(h), h.Extra)
}

func (h Habit) EntityID() string   { return h.ID }
func (h Habit) EntityEtag() string { return h.Etag }

// HabitCheckin records progress on one calendar day. CheckinStamp is yyyymmdd.
type HabitCheckin struct {
	ID           string    `json:"id"`
	HabitID      string    `json:"habitId"`
	CheckinStamp int       `json:"checkinStamp"`
	CheckinTime  *WireTime `json:"checkinTime,omitempty"`
	OpTime       *WireTime `json:"opTime,omitempty"`
	Value        float64   `json:"value"`
	Goal         float64   `json:"goal"`
	Status       int       `json:"status"`
	Extra        Extra     `json:"-"`
}

func (c *HabitCheckin) UnmarshalJSON(data []byte) error {
	type alias HabitCheckin
	var a alias
	extra, err := decodeWithExtra(data, &a)
	if err != nil {
		return err
	}
	*c = HabitCheckin(a)
	c.Extra = extra
	return nil
}

func (c HabitCheckin) MarshalJSON() ([]byte, error) {
	type alias HabitCheckin
	return encodeWithExtra(alias(c), c.Extra)
}

// HabitSection groups habits by time of day.
type HabitSection struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int64  `json:"sortOrder"`
	Etag      string `json:"etag,omitempty"`
}
