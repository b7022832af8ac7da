// Package todos owns the personal todo list: the raw set fetched from
// the API, mutated only through the operations defined here. Display
// derivation lives in the views package.
package todos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskmaster-app/taskmaster-go/internal/api"
	"github.com/taskmaster-app/taskmaster-go/internal/models"
	"github.com/taskmaster-app/taskmaster-go/internal/validation"
	"github.com/taskmaster-app/taskmaster-go/internal/views"
)

// ErrNotFound is returned when an operation names a todo that is not in
// the list.
var ErrNotFound = errors.New("todo not found")

// List holds the user's todos. No other component mutates the backing
// slice; consumers get copies.
type List struct {
	mu     sync.Mutex
	client *api.Client
	log    *zap.Logger
	items  []models.Todo
}

// NewList creates an empty todo list backed by client.
func NewList(client *api.Client, log *zap.Logger) *List {
	return &List{client: client, log: log}
}

// Load fetches the full todo set, replacing the current list.
func (l *List) Load(ctx context.Context) error {
	items, err := l.client.ListTodos(ctx)
	if err != nil {
		return fmt.Errorf("failed to load todos: %w", err)
	}

	l.mu.Lock()
	l.items = items
	l.mu.Unlock()

	l.log.Debug("todos_loaded", zap.Int("count", len(items)))
	return nil
}

// Items returns a copy of the unfiltered todo set.
func (l *List) Items() []models.Todo {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Todo, len(l.items))
	copy(out, l.items)
	return out
}

// Visible returns the filtered, sorted list for the given UI state.
func (l *List) Visible(state views.FilterState) []models.Todo {
	return views.Visible(l.Items(), state)
}

// Stats returns the aggregate counts over the unfiltered set.
func (l *List) Stats(now time.Time) views.Stats {
	return views.Compute(l.Items(), now)
}

// Create validates the form locally, then creates the todo and prepends
// it to the list. Validation failures never reach the network.
func (l *List) Create(ctx context.Context, form validation.TodoForm) (*models.Todo, error) {
	form.Title = validation.SanitizeText(form.Title)
	form.Description = validation.SanitizeText(form.Description)
	if err := validation.CheckTodo(form); err != nil {
		return nil, err
	}

	req := models.TodoCreate{
		Title:       form.Title,
		Description: form.Description,
		Priority:    models.Priority(form.Priority),
		Category:    models.Category(form.Category),
	}
	if form.DueDate != "" {
		due, err := models.ParseDate(form.DueDate)
		if err != nil {
			return nil, err
		}
		req.DueDate = &due
	}

	created, err := l.client.CreateTodo(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	l.mu.Lock()
	l.items = append([]models.Todo{*created}, l.items...)
	l.mu.Unlock()

	return created, nil
}

// Toggle flips the completed flag of a todo. The API takes a
// full-record update, so title and description are resent unchanged.
func (l *List) Toggle(ctx context.Context, id int) (*models.Todo, error) {
	l.mu.Lock()
	current, ok := l.find(id)
	l.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	return l.Update(ctx, id, models.TodoUpdate{
		Title:       current.Title,
		Description: current.Description,
		Completed:   !current.Completed,
	})
}

// Update replaces title, description and completed on a todo and swaps
// the server's record into the list.
func (l *List) Update(ctx context.Context, id int, req models.TodoUpdate) (*models.Todo, error) {
	updated, err := l.client.UpdateTodo(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	l.mu.Lock()
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i] = *updated
			break
		}
	}
	l.mu.Unlock()

	return updated, nil
}

// Delete removes a todo from the server and the list.
func (l *List) Delete(ctx context.Context, id int) error {
	if err := l.client.DeleteTodo(ctx, id); err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	l.mu.Lock()
	for i := range l.items {
		if l.items[i].ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			break
		}
	}
	l.mu.Unlock()

	return nil
}

// find must be called with the lock held.
func (l *List) find(id int) (models.Todo, bool) {
	for _, t := range l.items {
		if t.ID == id {
			return t, true
		}
	}
	return models.Todo{}, false
}
