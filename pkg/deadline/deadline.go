// Package deadline derives remaining-time labels and urgency levels from task
// deadlines. Results depend on the wall clock and must be recomputed on every
// read; nothing here is cached.
package deadline

import (
	"fmt"
	"math"
	"time"
)

// Urgency is an ordinal classification of deadline proximity.
type Urgency int

const (
	UrgencyNone Urgency = iota
	UrgencyLow
	UrgencyMedium
	UrgencyHigh
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	case UrgencyCritical:
		return "critical"
	default:
		return "none"
	}
}

// MarshalText renders the urgency by name in JSON and YAML output.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

const (
	LabelOverdue  = "overdue"
	LabelDueToday = "due today"
	LabelOneDay   = "1 day remaining"
)

// Classification is the presentation fact derived from a deadline.
type Classification struct {
	Label   string  `json:"label" yaml:"label"`
	Urgency Urgency `json:"urgency" yaml:"urgency"`
	// Days is the number of calendar days left; negative once overdue.
	Days int `json:"days" yaml:"days"`
}

// Classify maps a deadline to its label and urgency relative to now.
//
// Day counts use calendar dates in now's location, so a deadline at 09:00
// tomorrow is "1 day remaining" whether it is 08:00 or 23:00 today. A deadline
// that has already passed is overdue even when it falls on today's date.
func Classify(deadline *time.Time, now time.Time) Classification {
	if deadline == nil {
		return Classification{Urgency: UrgencyNone}
	}

	days := CalendarDays(now, *deadline)
	if deadline.Before(now) {
		if days > 0 {
			days = 0
		}
		return Classification{Label: LabelOverdue, Urgency: UrgencyCritical, Days: days}
	}

	switch {
	case days <= 0:
		return Classification{Label: LabelDueToday, Urgency: UrgencyHigh, Days: 0}
	case days == 1:
		return Classification{Label: LabelOneDay, Urgency: UrgencyMedium, Days: 1}
	default:
		return Classification{Label: fmt.Sprintf("%d days remaining", days), Urgency: UrgencyLow, Days: days}
	}
}

// CalendarDays returns the number of date boundaries between from and to,
// evaluated in from's location.
func CalendarDays(from, to time.Time) int {
	loc := from.Location()
	to = to.In(loc)
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)
	// Rounding absorbs 23h/25h days around DST changes.
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// Clock returns the current time.
type Clock func() time.Time

// Classifier binds Classify to a clock so callers re-evaluate on every read.
type Classifier struct {
	now Clock
}

// NewClassifier returns a classifier using clock, or time.Now when nil.
func NewClassifier(clock Clock) *Classifier {
	if clock == nil {
		clock = time.Now
	}
	return &Classifier{now: clock}
}

// Classify evaluates the deadline against the current clock reading.
func (c *Classifier) Classify(deadline *time.Time) Classification {
	return Classify(deadline, c.now())
}

// Now exposes the classifier's clock.
func (c *Classifier) Now() time.Time {
	return c.now()
}
