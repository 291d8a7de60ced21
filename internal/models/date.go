package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-day form accepted for stay dates.
const DateLayout = "2006-01-02"

// Date is a stay date bound from a request body. It accepts a plain
// calendar day ("2025-06-01") or a full RFC3339 timestamp.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// ParseDate reads a calendar day as UTC midnight, falling back to RFC3339.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(DateLayout, raw, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC3339", raw)
	}
	return t, nil
}
