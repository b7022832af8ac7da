package admin

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/taskmaster-app/taskmaster-go/internal/api"
	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

// Action is a row-scoped mutating operation on a user
type Action string

const (
	ActionPromote    Action = "promote"
	ActionDemote     Action = "demote"
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
	ActionDelete     Action = "delete"
)

// UserDirectory is the admin view over all users, each row annotated
// with todo statistics. Mutating actions are tracked per row: one
// in-flight action per user, with the row's fields merged in place on
// success and left untouched on failure. Actions on different rows run
// independently.
type UserDirectory struct {
	mu       sync.Mutex
	client   *api.Client
	identity Identity
	log      *zap.Logger

	users   []models.UserWithStats
	pending map[int]Action

	selectedID    int
	selectedTodos []models.Todo
}

// NewUserDirectory creates an empty user directory.
func NewUserDirectory(client *api.Client, identity Identity, log *zap.Logger) *UserDirectory {
	return &UserDirectory{
		client:   client,
		identity: identity,
		log:      log,
		pending:  make(map[int]Action),
	}
}

// Load fetches the detailed user listing, replacing the current rows.
func (d *UserDirectory) Load(ctx context.Context) error {
	if err := requireAdmin(d.identity); err != nil {
		return err
	}

	users, err := d.client.ListUsersDetailed(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	d.mu.Lock()
	d.users = users
	d.mu.Unlock()

	d.log.Debug("admin_users_loaded", zap.Int("count", len(users)))
	return nil
}

// Users returns a copy of the current rows.
func (d *UserDirectory) Users() []models.UserWithStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.UserWithStats, len(d.users))
	copy(out, d.users)
	return out
}

// Pending reports the in-flight action for a row, if any.
func (d *UserDirectory) Pending(userID int) (Action, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	action, ok := d.pending[userID]
	return action, ok
}

// Select marks a user as selected and fetches their todos for the
// detail panel.
func (d *UserDirectory) Select(ctx context.Context, userID int) ([]models.Todo, error) {
	if err := requireAdmin(d.identity); err != nil {
		return nil, err
	}

	todos, err := d.client.ListUserTodos(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load todos for user %d: %w", userID, err)
	}

	d.mu.Lock()
	d.selectedID = userID
	d.selectedTodos = todos
	d.mu.Unlock()

	return todos, nil
}

// Selected returns the selected user's row and todos, or nil when no
// selection is active.
func (d *UserDirectory) Selected() (*models.UserWithStats, []models.Todo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selectedID == 0 {
		return nil, nil
	}
	for i := range d.users {
		if d.users[i].ID == d.selectedID {
			row := d.users[i]
			todos := make([]models.Todo, len(d.selectedTodos))
			copy(todos, d.selectedTodos)
			return &row, todos
		}
	}
	return nil, nil
}

// Do runs a row-scoped action on a user. A second action on the same
// row while one is pending is rejected with ErrActionPending before any
// network call; the listing and other rows are never disturbed.
func (d *UserDirectory) Do(ctx context.Context, userID int, action Action) error {
	if err := requireAdmin(d.identity); err != nil {
		return err
	}
	if err := d.beginAction(userID, action); err != nil {
		return err
	}
	defer d.endAction(userID)

	if action == ActionDelete {
		return d.deleteUser(ctx, userID)
	}

	var updated *models.User
	var err error
	switch action {
	case ActionPromote:
		updated, err = d.client.PromoteUser(ctx, userID)
	case ActionDemote:
		updated, err = d.client.DemoteUser(ctx, userID)
	case ActionActivate:
		updated, err = d.client.ActivateUser(ctx, userID)
	case ActionDeactivate:
		updated, err = d.client.DeactivateUser(ctx, userID)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		d.log.Warn("admin_user_action_failed",
			zap.Int("user_id", userID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to %s user %d: %w", action, userID, err)
	}

	// Merge only the affected row's user fields in place; the stats
	// columns and every other row keep their current values.
	d.mu.Lock()
	for i := range d.users {
		if d.users[i].ID == userID {
			d.users[i].User = *updated
			break
		}
	}
	d.mu.Unlock()

	return nil
}

// deleteUser removes the user (the server cascades to their todos),
// drops the row, and clears the detail panel if it showed them.
func (d *UserDirectory) deleteUser(ctx context.Context, userID int) error {
	if err := d.client.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}

	d.mu.Lock()
	for i := range d.users {
		if d.users[i].ID == userID {
			d.users = append(d.users[:i], d.users[i+1:]...)
			break
		}
	}
	if d.selectedID == userID {
		d.selectedID = 0
		d.selectedTodos = nil
	}
	d.mu.Unlock()

	d.log.Debug("admin_user_deleted", zap.Int("user_id", userID))
	return nil
}

func (d *UserDirectory) beginAction(userID int, action Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.pending[userID]; busy {
		return ErrActionPending
	}
	d.pending[userID] = action
	return nil
}

func (d *UserDirectory) endAction(userID int) {
	d.mu.Lock()
	delete(d.pending, userID)
	d.mu.Unlock()
}
