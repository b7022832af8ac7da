// Package admin holds the derived views behind the admin console: the
// user directory with per-row actions and the paginated global todo
// browser. Every view is authorization-gated before any network call.
package admin

import (
	"context"
	"errors"

	"github.com/taskmaster-app/taskmaster-go/internal/api"
	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

var (
	// ErrAccessDenied is returned before any fetch when the acting user
	// is not an admin.
	ErrAccessDenied = errors.New("access denied: admin privileges required")

	// ErrActionPending is returned when a second action is attempted on
	// a row whose previous action has not resolved. It is rejected
	// locally; no network call is issued.
	ErrActionPending = errors.New("another action is already pending for this entry")
)

// Identity exposes the acting user. The session store implements it.
type Identity interface {
	CurrentUser() *models.User
}

func requireAdmin(identity Identity) error {
	user := identity.CurrentUser()
	if user == nil || !user.IsAdmin {
		return ErrAccessDenied
	}
	return nil
}

// Overview fetches the aggregate dashboard counts.
type Overview struct {
	client   *api.Client
	identity Identity
}

// NewOverview creates the dashboard overview view.
func NewOverview(client *api.Client, identity Identity) *Overview {
	return &Overview{client: client, identity: identity}
}

// Stats fetches the admin dashboard counts.
func (o *Overview) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if err := requireAdmin(o.identity); err != nil {
		return nil, err
	}
	return o.client.DashboardStats(ctx)
}
