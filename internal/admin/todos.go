package admin

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/taskmaster-app/taskmaster-go/internal/api"
	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

// DefaultPageSize is the global todo listing page size.
const DefaultPageSize = 50

// TodoBrowser is the admin view over every user's todos, fetched one
// server page at a time. The window grows by appending pages; changing
// any filter other than pagination resets the window to offset zero.
type TodoBrowser struct {
	mu       sync.Mutex
	client   *api.Client
	identity Identity
	log      *zap.Logger

	filter  api.AdminTodoFilter
	window  []models.AdminTodo
	total   int
	pending map[int]bool
}

// NewTodoBrowser creates a browser with the default page size and no
// filters.
func NewTodoBrowser(client *api.Client, identity Identity, log *zap.Logger) *TodoBrowser {
	return &TodoBrowser{
		client:   client,
		identity: identity,
		log:      log,
		filter:   api.AdminTodoFilter{Limit: DefaultPageSize},
		pending:  make(map[int]bool),
	}
}

// Load fetches the first page for the current filters, replacing the
// window.
func (b *TodoBrowser) Load(ctx context.Context) error {
	if err := requireAdmin(b.identity); err != nil {
		return err
	}

	b.mu.Lock()
	b.filter.Offset = 0
	filter := b.filter
	b.mu.Unlock()

	page, err := b.client.ListAllTodos(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to load todos: %w", err)
	}

	b.mu.Lock()
	b.window = page.Todos
	b.total = page.Total
	b.mu.Unlock()

	b.log.Debug("admin_todos_loaded",
		zap.Int("window", len(page.Todos)),
		zap.Int("total", page.Total),
	)
	return nil
}

// SetFilter applies a new user/completed filter. Any filter change
// resets the offset to zero and replaces the window.
func (b *TodoBrowser) SetFilter(ctx context.Context, userID *int, completed *bool) error {
	b.mu.Lock()
	b.filter.UserID = userID
	b.filter.Completed = completed
	b.mu.Unlock()
	return b.Load(ctx)
}

// SetLimit changes the page size, which also resets the window.
func (b *TodoBrowser) SetLimit(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	b.mu.Lock()
	b.filter.Limit = limit
	b.mu.Unlock()
	return b.Load(ctx)
}

// LoadMore advances the offset by one page size and appends the results
// to the window, never replacing what is already displayed. When the
// window already covers the total it is a no-op.
func (b *TodoBrowser) LoadMore(ctx context.Context) error {
	if err := requireAdmin(b.identity); err != nil {
		return err
	}

	b.mu.Lock()
	if len(b.window) >= b.total {
		b.mu.Unlock()
		return nil
	}
	b.filter.Offset += b.filter.Limit
	filter := b.filter
	b.mu.Unlock()

	page, err := b.client.ListAllTodos(ctx, filter)
	if err != nil {
		// roll the offset back so a retry re-requests the same page
		b.mu.Lock()
		b.filter.Offset -= b.filter.Limit
		b.mu.Unlock()
		return fmt.Errorf("failed to load more todos: %w", err)
	}

	b.mu.Lock()
	b.window = append(b.window, page.Todos...)
	b.total = page.Total
	b.mu.Unlock()

	return nil
}

// Delete removes a todo from the server, drops it from the in-memory
// window and decrements the known total without a refetch. One delete
// per todo may be in flight at a time.
func (b *TodoBrowser) Delete(ctx context.Context, todoID int) error {
	if err := requireAdmin(b.identity); err != nil {
		return err
	}

	b.mu.Lock()
	if b.pending[todoID] {
		b.mu.Unlock()
		return ErrActionPending
	}
	b.pending[todoID] = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, todoID)
		b.mu.Unlock()
	}()

	if err := b.client.DeleteAnyTodo(ctx, todoID); err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", todoID, err)
	}

	b.mu.Lock()
	for i := range b.window {
		if b.window[i].ID == todoID {
			b.window = append(b.window[:i], b.window[i+1:]...)
			b.total--
			break
		}
	}
	b.mu.Unlock()

	return nil
}

// Window returns a copy of the currently displayed todos.
func (b *TodoBrowser) Window() []models.AdminTodo {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.AdminTodo, len(b.window))
	copy(out, b.window)
	return out
}

// Total returns the server-reported total matching the current filters.
func (b *TodoBrowser) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}
