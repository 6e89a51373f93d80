// Package task holds the task record and the per-user task collection.
package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harlequingg/taskplanner/internal/validator"
)

// DateLayout is the format of Task.Deadline.
const DateLayout = "2006-01-02"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities for sorting. Unknown values rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryStudy    Category = "study"
)

type Comment struct {
	Text string `json:"text"`
	Date string `json:"date"`
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Deadline    string    `json:"deadline"`
	Category    Category  `json:"category"`
	IsUrgent    bool      `json:"is_urgent"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	Comments    []Comment `json:"comments"`
}

// UnmarshalJSON tolerates a comments field that is missing or not a list of
// comments; such a task decodes with no comments.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var aux struct {
		plain
		Comments json.RawMessage `json:"comments"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Task(aux.plain)
	t.Comments = []Comment{}
	if len(aux.Comments) > 0 {
		var comments []Comment
		if err := json.Unmarshal(aux.Comments, &comments); err == nil && comments != nil {
			t.Comments = comments
		}
	}
	return nil
}

// DeadlineTime parses Deadline. ok is false when the deadline is unset or
// unparseable.
func (t Task) DeadlineTime() (time.Time, bool) {
	if t.Deadline == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DateLayout, t.Deadline, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func (t Task) clone() Task {
	c := t
	c.Comments = append([]Comment{}, t.Comments...)
	return c
}

// Fields are the caller-supplied parts of a new task.
type Fields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Deadline    string   `json:"deadline"`
	Category    Category `json:"category"`
	IsUrgent    bool     `json:"is_urgent"`
}

// Normalize trims text fields and fills in the defaults of the add form
// (high priority, work category).
func (f Fields) Normalize() Fields {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Deadline = strings.TrimSpace(f.Deadline)
	f.Priority = Priority(strings.ToLower(strings.TrimSpace(string(f.Priority))))
	f.Category = Category(strings.ToLower(strings.TrimSpace(string(f.Category))))
	if f.Priority == "" {
		f.Priority = PriorityHigh
	}
	if f.Category == "" {
		f.Category = CategoryWork
	}
	return f
}

func (f Fields) Validate() error {
	v := validator.New()
	v.Check(f.Title != "", "title", "must be provided")
	v.Check(len(f.Title) <= 500, "title", "must be atmost 500 characters")
	v.Check(validator.PermittedValue(f.Priority, PriorityHigh, PriorityMedium, PriorityLow), "priority", "must be one of high, medium, low")
	v.Check(validator.PermittedValue(f.Category, CategoryWork, CategoryPersonal, CategoryStudy), "category", "must be one of work, personal, study")
	if f.Deadline != "" {
		_, err := time.Parse(DateLayout, f.Deadline)
		v.Check(err == nil, "deadline", "must be a date in YYYY-MM-DD format")
	}
	return v.ToError()
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
)

var ErrUnknownFilter = errors.New("unknown filter")

// ParseFilter accepts all, completed or pending; the empty string means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterCompleted, FilterPending:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFilter, s)
	}
}

func (f Filter) match(t Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	default:
		return true
	}
}
