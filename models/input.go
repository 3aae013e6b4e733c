package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// LinkList accepts either a JSON array of URLs or one comma-separated string,
// which is what the board's task form submits.
type LinkList []string

func (l *LinkList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var raw []string
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.Split(s, ",")
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make([]string, 0, len(raw))
	for _, link := range raw {
		if link = strings.TrimSpace(link); link != "" {
			out = append(out, link)
		}
	}
	*l = out
	return nil
}

// InputDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
type InputDate struct {
	time.Time
}

var inputDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

func (d *InputDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ValidationError("Invalid date")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return ValidationError("Invalid date %q", s)
}

func (d InputDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(time.RFC3339))
}
