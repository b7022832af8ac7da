package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

// AdminTodoFilter selects a window of the global todo listing. Nil
// pointer fields are omitted from the query.
type AdminTodoFilter struct {
	UserID    *int
	Completed *bool
	Limit     int
	Offset    int
}

func (f AdminTodoFilter) query() url.Values {
	q := url.Values{}
	if f.UserID != nil {
		q.Set("user_id", strconv.Itoa(*f.UserID))
	}
	if f.Completed != nil {
		q.Set("completed", strconv.FormatBool(*f.Completed))
	}
	q.Set("limit", strconv.Itoa(f.Limit))
	q.Set("offset", strconv.Itoa(f.Offset))
	return q
}

// DashboardStats fetches the aggregate counts for the admin overview.
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var out models.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/admin/dashboard/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers fetches the plain user listing.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUsersDetailed fetches the user listing annotated with todo
// statistics.
func (c *Client) ListUsersDetailed(ctx context.Context) ([]models.UserWithStats, error) {
	var out []models.UserWithStats
	if err := c.do(ctx, http.MethodGet, "/admin/users/detailed", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUserTodos fetches the todos owned by a given user.
func (c *Client) ListUserTodos(ctx context.Context, userID int) ([]models.Todo, error) {
	var out []models.Todo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/admin/users/%d/todos", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PromoteUser grants admin to a user and returns the updated record.
func (c *Client) PromoteUser(ctx context.Context, userID int) (*models.User, error) {
	return c.userAction(ctx, userID, "promote")
}

// DemoteUser revokes admin from a user and returns the updated record.
func (c *Client) DemoteUser(ctx context.Context, userID int) (*models.User, error) {
	return c.userAction(ctx, userID, "demote")
}

// ActivateUser activates a user account and returns the updated record.
func (c *Client) ActivateUser(ctx context.Context, userID int) (*models.User, error) {
	return c.userAction(ctx, userID, "activate")
}

// DeactivateUser deactivates a user account and returns the updated record.
func (c *Client) DeactivateUser(ctx context.Context, userID int) (*models.User, error) {
	return c.userAction(ctx, userID, "deactivate")
}

func (c *Client) userAction(ctx context.Context, userID int, action string) (*models.User, error) {
	var out models.User
	path := fmt.Sprintf("/admin/users/%d/%s", userID, action)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser deletes a user; the server cascades the delete to their
// todos.
func (c *Client) DeleteUser(ctx context.Context, userID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/users/%d", userID), nil, nil, nil)
}

// ListAllTodos fetches one window of the paginated global todo listing.
func (c *Client) ListAllTodos(ctx context.Context, filter AdminTodoFilter) (*models.AdminTodoPage, error) {
	var out models.AdminTodoPage
	if err := c.do(ctx, http.MethodGet, "/admin/todos", filter.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAnyTodo deletes any user's todo.
func (c *Client) DeleteAnyTodo(ctx context.Context, todoID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/todos/%d", todoID), nil, nil, nil)
}
