package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/deadline"
	"github.com/fastygo/taskflow/usecase/task"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// Printer renders command results as a text table, JSON or YAML.
type Printer struct {
	w      io.Writer
	format string
	loc    *time.Location
}

func NewPrinter(w io.Writer, format string, loc *time.Location) (*Printer, error) {
	switch format {
	case "", formatText:
		format = formatText
	case formatJSON, formatYAML:
	default:
		return nil, fmt.Errorf("unsupported output format %q (text, json, yaml)", format)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Printer{w: w, format: format, loc: loc}, nil
}

// Structured reports whether output is machine readable.
func (p *Printer) Structured() bool {
	return p.format != formatText
}

func (p *Printer) encode(v interface{}) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
}

// Message prints a confirmation line in text mode only.
func (p *Printer) Message(format string, args ...interface{}) {
	if p.Structured() {
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Tasks(views []task.View) error {
	if p.Structured() {
		if views == nil {
			views = []task.View{}
		}
		return p.encode(views)
	}
	if len(views) == 0 {
		fmt.Fprintln(p.w, "No tasks yet.")
		return nil
	}
	fmt.Fprintf(p.w, "  %-8s  %-4s  %-32s  %-16s  %s\n", "ID", "DONE", "TITLE", "DUE", "REMAINING")
	for _, v := range views {
		p.row(v)
	}
	return nil
}

func (p *Printer) Task(v task.View) error {
	if p.Structured() {
		return p.encode(v)
	}
	p.row(v)
	return nil
}

func (p *Printer) row(v task.View) {
	done := "[ ]"
	if v.Completed {
		done = "[x]"
	}
	remaining := v.Remaining.Label
	if v.Completed {
		remaining = ""
	} else if v.Remaining.Urgency >= deadline.UrgencyHigh {
		remaining = strings.ToUpper(remaining)
	}
	fmt.Fprintf(p.w, "  %-8s  %-4s  %-32s  %-16s  %s\n",
		shortID(v.ID),
		done,
		truncate(v.Title, 32),
		deadline.Format(v.Deadline, p.loc),
		remaining)
}

func (p *Printer) Stats(s task.Stats) error {
	if p.Structured() {
		return p.encode(s)
	}
	fmt.Fprintf(p.w, "Total:      %d\n", s.Total)
	fmt.Fprintf(p.w, "Completed:  %d\n", s.Completed)
	fmt.Fprintf(p.w, "Remaining:  %d\n", s.Remaining)
	fmt.Fprintf(p.w, "Progress:   %d%%\n", s.CompletionRate)
	return nil
}

type userView struct {
	ID          string `json:"id" yaml:"id"`
	Email       string `json:"email" yaml:"email"`
	FullName    string `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	DisplayName string `json:"display_name" yaml:"display_name"`
}

func (p *Printer) User(u *domain.User) error {
	view := userView{ID: u.ID, Email: u.Email, FullName: u.FullName, DisplayName: u.DisplayName()}
	if p.Structured() {
		return p.encode(view)
	}
	fmt.Fprintf(p.w, "Signed in as %s <%s>\n", view.DisplayName, view.Email)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
