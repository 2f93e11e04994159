package task

import (
	"math"

	"github.com/fastygo/taskflow/domain"
)

// Stats are derived from the list on demand and never stored.
type Stats struct {
	Total          int `json:"total" yaml:"total"`
	Completed      int `json:"completed" yaml:"completed"`
	Remaining      int `json:"remaining" yaml:"remaining"`
	CompletionRate int `json:"completion_rate" yaml:"completion_rate"`
}

// ComputeStats counts tasks and the rounded completion percentage.
func ComputeStats(tasks []domain.Task) Stats {
	s := Stats{Total: len(tasks)}
	for i := range tasks {
		if tasks[i].Completed {
			s.Completed++
		}
	}
	s.Remaining = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(100 * float64(s.Completed) / float64(s.Total)))
	}
	return s
}
