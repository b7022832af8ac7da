package models

import (
	"fmt"
	"time"
)

// Priority represents how urgent a todo is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank returns the sort rank of a priority. Unknown or missing values
// rank as medium so malformed records sort with the bulk of the list.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// Category groups todos for display
type Category string

const (
	CategoryGeneral  Category = "general"
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryShopping Category = "shopping"
	CategoryHealth   Category = "health"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{CategoryGeneral, CategoryWork, CategoryPersonal, CategoryShopping, CategoryHealth}
}

const dateLayout = "2006-01-02"

// Date is a calendar date at day granularity, serialized as YYYY-MM-DD.
// Due dates carry no time component.
type Date struct {
	time.Time
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD" or an empty/null value.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date literal %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Todo represents a task owned by a single user
type Todo struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority,omitempty"`
	Category    Category  `json:"category,omitempty"`
	DueDate     *Date     `json:"dueDate,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdminTodo is a todo with its owner attached, as returned by the
// global admin listing
type AdminTodo struct {
	Todo
	OwnerID       int    `json:"owner_id"`
	OwnerUsername string `json:"owner_username"`
	OwnerEmail    string `json:"owner_email"`
}

// TodoCreate is the payload for creating a todo. Priority, category and
// due date are set here and have no edit path afterwards.
type TodoCreate struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Completed   bool     `json:"completed"`
	Priority    Priority `json:"priority,omitempty"`
	Category    Category `json:"category,omitempty"`
	DueDate     *Date    `json:"dueDate,omitempty"`
}

// TodoUpdate is the payload for updating a todo. The API expects the
// full record resent: title and description always accompany the
// completed flag, even when only the flag changed.
type TodoUpdate struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
}
