package deadline

import (
	"fmt"
	"strings"
	"time"
)

// InputLayout is the datetime-local form accepted on input.
const InputLayout = "2006-01-02T15:04"

var localLayouts = []string{
	InputLayout,
	"2006-01-02 15:04",
}

// Parse reads a deadline typed by a user. Empty input means no deadline.
// Local forms are interpreted in loc; a bare date means the end of that day.
func Parse(input string, loc *time.Location) (*time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return &t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return &t, nil
		}
	}
	if d, err := time.ParseInLocation("2006-01-02", input, loc); err == nil {
		t := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, loc)
		return &t, nil
	}
	return nil, fmt.Errorf("unrecognised deadline %q, use %s or RFC3339", input, InputLayout)
}

// Format renders a deadline in the input layout, or "" when unset.
func Format(deadline *time.Time, loc *time.Location) string {
	if deadline == nil {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return deadline.In(loc).Format(InputLayout)
}
