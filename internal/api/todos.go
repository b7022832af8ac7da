package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

// ListTodos fetches all todos owned by the current user.
func (c *Client) ListTodos(ctx context.Context) ([]models.Todo, error) {
	var out []models.Todo
	if err := c.do(ctx, http.MethodGet, "/todos/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTodo fetches a single todo by ID.
func (c *Client) GetTodo(ctx context.Context, id int) (*models.Todo, error) {
	var out models.Todo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/todos/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTodo creates a todo.
func (c *Client) CreateTodo(ctx context.Context, req models.TodoCreate) (*models.Todo, error) {
	var out models.Todo
	if err := c.do(ctx, http.MethodPost, "/todos/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTodo replaces title, description and completed on a todo. The
// full record is resent even for a bare completed toggle.
func (c *Client) UpdateTodo(ctx context.Context, id int, req models.TodoUpdate) (*models.Todo, error) {
	var out models.Todo
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/todos/%d", id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTodo deletes a todo owned by the current user.
func (c *Client) DeleteTodo(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/todos/%d", id), nil, nil, nil)
}
