package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/ticktask/pkg/timeutil"
)

// WireTime is a timestamp in the service's date syntax. The service emits
// milliseconds ("2019-11-13T03:00:00.000+0000"); requests omit them.
type WireTime struct {
	time.Time
}

var wireLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
}

// NewWireTime wraps t.
func NewWireTime(t time.Time) *WireTime {
	return &WireTime{Time: t}
}

// ParseWireTime parses any of the layouts the service is known to emit.
func ParseWireTime(s string) (WireTime, error) {
	for _, layout := range wireLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return WireTime{Time: t.UTC()}, nil
		}
	}
	return WireTime{}, fmt.Errorf("failed to parse wire time %q", s)
}

// Wire formats the time in UTC as the service expects it.
func (wt WireTime) Wire() string {
	return wt.Time.UTC().Format(timeutil.WireLayout)
}

// UnmarshalJSON implements the json.Unmarshaler interface for WireTime.
func (wt *WireTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		wt.Time = time.Time{}
		return nil
	}
	parsed, err := ParseWireTime(s)
	if err != nil {
		return err
	}
	*wt = parsed
	return nil
}

// MarshalJSON implements the json.Marshaler interface for WireTime.
func (wt WireTime) MarshalJSON() ([]byte, error) {
	if wt.Time.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + wt.Wire() + `"`), nil
}
