// Package views derives presentation-ready data from raw fetched
// entities plus UI state. Everything here is a pure function over its
// inputs; nothing touches the network and no derived value is cached.
package views

import (
	"sort"
	"strings"
	"time"

	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

// Status filters todos by completion state
type Status string

const (
	StatusAll       Status = "all"
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
)

// SortKey selects the ordering of the visible list
type SortKey string

const (
	SortCreated  SortKey = "created"
	SortPriority SortKey = "priority"
	SortDueDate  SortKey = "dueDate"
)

// FilterState is the per-session UI state applied to the todo list. It
// is never persisted.
type FilterState struct {
	SearchTerm string
	Status     Status
	Sort       SortKey
}

// Stats are the aggregate counts shown in the overview sidebar. They
// are always computed from the unfiltered todo set.
type Stats struct {
	Total        int
	Completed    int
	Pending      int
	HighPriority int
	Overdue      int
}

// Visible returns the filtered, ordered list for display. The input
// slice is left untouched; ties keep their original relative order so
// the list is reproducible across re-renders.
func Visible(todos []models.Todo, state FilterState) []models.Todo {
	visible := make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		if matchesSearch(t, state.SearchTerm) && matchesStatus(t, state.Status) {
			visible = append(visible, t)
		}
	}

	switch state.Sort {
	case SortPriority:
		sort.SliceStable(visible, func(i, j int) bool {
			return visible[i].Priority.Rank() > visible[j].Priority.Rank()
		})
	case SortDueDate:
		sort.SliceStable(visible, func(i, j int) bool {
			a, b := visible[i].DueDate, visible[j].DueDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(b.Time)
			}
		})
	default: // SortCreated: newest first
		sort.SliceStable(visible, func(i, j int) bool {
			return createdKey(visible[i]).After(createdKey(visible[j]))
		})
	}

	return visible
}

// matchesSearch is a case-insensitive substring match against title or
// description. An empty term matches everything; a missing description
// never matches.
func matchesSearch(t models.Todo, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(t.Title), term) {
		return true
	}
	return t.Description != "" && strings.Contains(strings.ToLower(t.Description), term)
}

func matchesStatus(t models.Todo, status Status) bool {
	switch status {
	case StatusCompleted:
		return t.Completed
	case StatusPending:
		return !t.Completed
	default:
		return true
	}
}

// createdKey is the creation-sort key. Records missing a timestamp fall
// back to their ID interpreted as milliseconds since the epoch, which
// places them after every dated item and orders them by ID among
// themselves.
func createdKey(t models.Todo) time.Time {
	if !t.CreatedAt.IsZero() {
		return t.CreatedAt
	}
	return time.UnixMilli(int64(t.ID))
}

// Compute derives the aggregate statistics from the full todo set. A
// todo is overdue when its due date is strictly before today's calendar
// date and it is not completed; a due date equal to today is not
// overdue.
func Compute(todos []models.Todo, now time.Time) Stats {
	today := models.DateOf(now)
	stats := Stats{Total: len(todos)}
	for _, t := range todos {
		if t.Completed {
			stats.Completed++
			continue
		}
		stats.Pending++
		if t.Priority == models.PriorityHigh {
			stats.HighPriority++
		}
		if t.DueDate != nil && t.DueDate.Before(today.Time) {
			stats.Overdue++
		}
	}
	return stats
}

// CountByCategory returns how many todos fall in each category, for the
// category sidebar.
func CountByCategory(todos []models.Todo) map[models.Category]int {
	counts := make(map[models.Category]int, len(models.Categories()))
	for _, t := range todos {
		counts[t.Category]++
	}
	return counts
}
