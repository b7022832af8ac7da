package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/taskmaster-app/taskmaster-go/internal/apitest"
	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

// seedTodos seeds n todos for ownerID, alternating completed.
func seedTodos(server *apitest.Server, ownerID, n int) {
	for i := 0; i < n; i++ {
		server.AddTodo(ownerID, models.Todo{
			Title:     fmt.Sprintf("task %03d", i),
			Completed: i%2 == 0,
		})
	}
}

func TestBrowserRequiresAdmin(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, _ := newAdminClient(t, server)

	browser := NewTodoBrowser(client, staticIdentity{}, zap.NewNop())
	if err := browser.Load(context.Background()); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Load = %v, want ErrAccessDenied", err)
	}
	if err := browser.Delete(context.Background(), 1); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Delete = %v, want ErrAccessDenied", err)
	}
	if got := server.Requests(http.MethodGet, "/admin/todos"); got != 0 {
		t.Errorf("denied browser issued %d requests, want 0", got)
	}
}

func TestBrowserPaging(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)
	bob := server.AddUser("bob", "bob@example.com", "hunter2x", false, true)
	seedTodos(server, bob.ID, 120)

	browser := NewTodoBrowser(client, identity, zap.NewNop())
	if err := browser.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(browser.Window()); got != DefaultPageSize {
		t.Fatalf("first page = %d todos, want %d", got, DefaultPageSize)
	}
	if browser.Total() != 120 {
		t.Fatalf("total = %d, want 120", browser.Total())
	}

	// Each LoadMore appends the next page without disturbing the window.
	if err := browser.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if got := len(browser.Window()); got != 100 {
		t.Fatalf("after LoadMore = %d todos, want 100", got)
	}
	if err := browser.LoadMore(context.Background()); err != nil {
		t.Fatalf("second LoadMore: %v", err)
	}

	window := browser.Window()
	if len(window) != 120 {
		t.Fatalf("full window = %d todos, want 120", len(window))
	}
	seen := make(map[int]bool, len(window))
	for _, todo := range window {
		if seen[todo.ID] {
			t.Errorf("todo %d appears twice in the window", todo.ID)
		}
		seen[todo.ID] = true
	}

	// Fully loaded: further LoadMore calls never hit the network.
	before := server.Requests(http.MethodGet, "/admin/todos")
	if err := browser.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore past the end: %v", err)
	}
	if after := server.Requests(http.MethodGet, "/admin/todos"); after != before {
		t.Errorf("exhausted LoadMore still fetched (%d -> %d requests)", before, after)
	}
}

func TestBrowserFilterChangeResetsWindow(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)
	bob := server.AddUser("bob", "bob@example.com", "hunter2x", false, true)
	carol := server.AddUser("carol", "carol@example.com", "hunter2x", false, true)
	seedTodos(server, bob.ID, 80)
	seedTodos(server, carol.ID, 10)

	browser := NewTodoBrowser(client, identity, zap.NewNop())
	if err := browser.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := browser.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if got := len(browser.Window()); got != 90 {
		t.Fatalf("window = %d, want 90", got)
	}

	// Changing the filter starts over from the first page.
	if err := browser.SetFilter(context.Background(), &carol.ID, nil); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	window := browser.Window()
	if len(window) != 10 {
		t.Fatalf("filtered window = %d, want 10", len(window))
	}
	for _, todo := range window {
		if todo.OwnerID != carol.ID {
			t.Errorf("filtered window contains todo %d owned by %d", todo.ID, todo.OwnerID)
		}
	}
	if browser.Total() != 10 {
		t.Errorf("filtered total = %d, want 10", browser.Total())
	}

	// And so does shrinking the page size.
	if err := browser.SetLimit(context.Background(), 5); err != nil {
		t.Fatalf("SetLimit: %v", err)
	}
	if got := len(browser.Window()); got != 5 {
		t.Errorf("window after SetLimit = %d, want 5", got)
	}
}

func TestBrowserCompletedFilter(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)
	bob := server.AddUser("bob", "bob@example.com", "hunter2x", false, true)
	seedTodos(server, bob.ID, 10) // 5 completed, 5 pending

	browser := NewTodoBrowser(client, identity, zap.NewNop())
	completed := true
	if err := browser.SetFilter(context.Background(), nil, &completed); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}

	window := browser.Window()
	if len(window) != 5 || browser.Total() != 5 {
		t.Fatalf("completed filter: window=%d total=%d, want 5/5", len(window), browser.Total())
	}
	for _, todo := range window {
		if !todo.Completed {
			t.Errorf("completed filter returned pending todo %d", todo.ID)
		}
	}
}

func TestBrowserDeleteIsLocal(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)
	bob := server.AddUser("bob", "bob@example.com", "hunter2x", false, true)
	seedTodos(server, bob.ID, 60)

	browser := NewTodoBrowser(client, identity, zap.NewNop())
	if err := browser.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	victim := browser.Window()[3].ID
	fetches := server.Requests(http.MethodGet, "/admin/todos")

	if err := browser.Delete(context.Background(), victim); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// The window and total are adjusted in memory, not refetched.
	if got := server.Requests(http.MethodGet, "/admin/todos"); got != fetches {
		t.Errorf("delete triggered a refetch (%d -> %d requests)", fetches, got)
	}
	if got := len(browser.Window()); got != DefaultPageSize-1 {
		t.Errorf("window = %d, want %d", got, DefaultPageSize-1)
	}
	if browser.Total() != 59 {
		t.Errorf("total = %d, want 59", browser.Total())
	}
	for _, todo := range browser.Window() {
		if todo.ID == victim {
			t.Errorf("deleted todo %d still in the window", victim)
		}
	}
}

func TestBrowserDeleteFailureKeepsState(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)
	bob := server.AddUser("bob", "bob@example.com", "hunter2x", false, true)
	seedTodos(server, bob.ID, 3)

	browser := NewTodoBrowser(client, identity, zap.NewNop())
	if err := browser.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := browser.Delete(context.Background(), 999); err == nil {
		t.Fatal("deleting a missing todo succeeded")
	}
	if got := len(browser.Window()); got != 3 {
		t.Errorf("window = %d after failed delete, want 3", got)
	}
	if browser.Total() != 3 {
		t.Errorf("total = %d after failed delete, want 3", browser.Total())
	}
}
