package domain

import (
	"sort"
	"strings"
	"time"
)

// Task represents a user-owned to-do item.
type Task struct {
	ID        string     `json:"id" yaml:"id"`
	UserID    string     `json:"user_id" yaml:"user_id"`
	Title     string     `json:"title" yaml:"title"`
	Completed bool       `json:"completed" yaml:"completed"`
	Deadline  *time.Time `json:"deadline" yaml:"deadline"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Completed
}

// TaskPatch carries the user-editable fields of an update. Nil fields are
// left untouched; ClearDeadline removes an existing deadline.
type TaskPatch struct {
	Title         *string
	Deadline      *time.Time
	ClearDeadline bool
	Completed     *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Deadline == nil && !p.ClearDeadline && p.Completed == nil
}

// Validate normalizes the title in place when present.
func (p *TaskPatch) Validate() error {
	if p.Title == nil {
		return nil
	}
	title, err := NormalizeTitle(*p.Title)
	if err != nil {
		return err
	}
	p.Title = &title
	return nil
}

// NormalizeTitle trims surrounding whitespace and rejects empty titles.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

// SortByCreatedDesc orders tasks newest first, keeping the relative order of
// equal timestamps.
func SortByCreatedDesc(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}
