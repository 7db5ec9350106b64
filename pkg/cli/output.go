package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// render writes v as indented JSON or as YAML. YAML goes through the JSON
// form so that keys keep their wire names.
func render(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	switch format {
	case "", "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid output format %q (must be 'json' or 'yaml')", format)
	}
}

var whenLayouts = []string{
	time.DateOnly,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.DateTime,
	"2006-01-02T15:04:05",
}

// parseWhen reads a wall clock date or date-time. The result carries no zone
// of its own; the client interprets it in the task or account zone. An empty
// string is the zero time.
func parseWhen(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or YYYY-MM-DD HH:MM)", s)
}
