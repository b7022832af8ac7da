package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/taskmaster-app/taskmaster-go/internal/api"
	"github.com/taskmaster-app/taskmaster-go/internal/apitest"
	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

type staticToken string

func (t staticToken) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: string(t), TokenType: "Bearer"}, nil
}

// staticIdentity is a fixed acting user.
type staticIdentity struct {
	user *models.User
}

func (i staticIdentity) CurrentUser() *models.User {
	if i.user == nil {
		return nil
	}
	u := *i.user
	return &u
}

// newAdminClient seeds an admin account and returns a client
// authenticated as them plus the matching identity.
func newAdminClient(t *testing.T, server *apitest.Server) (*api.Client, Identity) {
	t.Helper()
	admin := server.AddUser("root", "root@example.com", "hunter2x", true, true)

	client, err := api.NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.SetTokenSource(staticToken(server.TokenFor(admin.Username)))
	return client, staticIdentity{user: &admin}
}

func TestDirectoryRequiresAdmin(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, _ := newAdminClient(t, server)

	regular := models.User{ID: 99, Username: "nobody", IsActive: true}
	tests := []struct {
		name     string
		identity Identity
	}{
		{"regular user", staticIdentity{user: &regular}},
		{"logged out", staticIdentity{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directory := NewUserDirectory(client, tt.identity, zap.NewNop())
			if err := directory.Load(context.Background()); !errors.Is(err, ErrAccessDenied) {
				t.Errorf("Load = %v, want ErrAccessDenied", err)
			}
			if err := directory.Do(context.Background(), 1, ActionPromote); !errors.Is(err, ErrAccessDenied) {
				t.Errorf("Do = %v, want ErrAccessDenied", err)
			}
			if _, err := directory.Select(context.Background(), 1); !errors.Is(err, ErrAccessDenied) {
				t.Errorf("Select = %v, want ErrAccessDenied", err)
			}
		})
	}

	// Denials are local: nothing may have reached the server.
	if got := server.Requests(http.MethodGet, "/admin/users/detailed"); got != 0 {
		t.Errorf("denied Load issued %d requests, want 0", got)
	}
}

func TestDirectoryLoadComputesRows(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)

	bob := server.AddUser("bob", "bob@example.com", "hunter2x", false, true)
	server.AddTodo(bob.ID, models.Todo{Title: "done", Completed: true})
	server.AddTodo(bob.ID, models.Todo{Title: "pending"})

	directory := NewUserDirectory(client, identity, zap.NewNop())
	if err := directory.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	users := directory.Users()
	if len(users) != 2 {
		t.Fatalf("got %d rows, want 2", len(users))
	}
	var row *models.UserWithStats
	for i := range users {
		if users[i].ID == bob.ID {
			row = &users[i]
		}
	}
	if row == nil {
		t.Fatal("bob missing from listing")
	}
	if row.TodoCount != 2 || row.CompletedCount != 1 || row.PendingCount != 1 {
		t.Errorf("stats = %+v, want 2 todos, 1 completed, 1 pending", row)
	}
	if row.CompletionRate != 50 {
		t.Errorf("completion rate = %d, want 50", row.CompletionRate)
	}
}

func TestDoMergesRowAndPreservesStats(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)

	bob := server.AddUser("bob", "bob@example.com", "hunter2x", false, true)
	server.AddTodo(bob.ID, models.Todo{Title: "a", Completed: true})
	server.AddTodo(bob.ID, models.Todo{Title: "b"})

	directory := NewUserDirectory(client, identity, zap.NewNop())
	if err := directory.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := directory.Do(context.Background(), bob.ID, ActionPromote); err != nil {
		t.Fatalf("Do(promote): %v", err)
	}

	for _, row := range directory.Users() {
		if row.ID != bob.ID {
			continue
		}
		if !row.IsAdmin {
			t.Error("promote did not update the row")
		}
		// The action response carries no stats; the row keeps its
		// existing counters rather than zeroing them.
		if row.TodoCount != 2 || row.CompletedCount != 1 {
			t.Errorf("stats lost on merge: %+v", row)
		}
	}

	if _, busy := directory.Pending(bob.ID); busy {
		t.Error("action still pending after completion")
	}
}

func TestDoFailureLeavesRowsUntouched(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)
	server.AddUser("bob", "bob@example.com", "hunter2x", false, true)

	directory := NewUserDirectory(client, identity, zap.NewNop())
	if err := directory.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := directory.Users()

	if err := directory.Do(context.Background(), 404, ActionDeactivate); err == nil {
		t.Fatal("action on a missing user succeeded")
	}

	after := directory.Users()
	if len(after) != len(before) {
		t.Fatalf("row count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("row %d changed after a failed action", i)
		}
	}
}

func TestDoRejectsSecondActionOnSameRow(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)
	bob := server.AddUser("bob", "bob@example.com", "hunter2x", false, true)

	directory := NewUserDirectory(client, identity, zap.NewNop())
	if err := directory.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Hold the first promote in flight on the server side.
	entered := make(chan struct{})
	release := make(chan struct{})
	server.Before = func(r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/promote") {
			close(entered)
			<-release
		}
	}

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- directory.Do(context.Background(), bob.ID, ActionPromote)
	}()
	<-entered

	// A second action on the same row is rejected locally while the
	// first is unresolved.
	if err := directory.Do(context.Background(), bob.ID, ActionDeactivate); !errors.Is(err, ErrActionPending) {
		t.Errorf("second Do = %v, want ErrActionPending", err)
	}
	if action, busy := directory.Pending(bob.ID); !busy || action != ActionPromote {
		t.Errorf("Pending = %q/%t, want promote in flight", action, busy)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first Do: %v", err)
	}

	if got := server.Requests(http.MethodPost, fmt.Sprintf("/admin/users/%d/promote", bob.ID)); got != 1 {
		t.Errorf("promote hit the server %d times, want 1", got)
	}
	if got := server.Requests(http.MethodPost, fmt.Sprintf("/admin/users/%d/deactivate", bob.ID)); got != 0 {
		t.Errorf("rejected action still hit the server %d times", got)
	}

	// The row is free again once the first action resolves.
	if err := directory.Do(context.Background(), bob.ID, ActionDemote); err != nil {
		t.Errorf("action after completion: %v", err)
	}
}

func TestDeleteUserDropsRowAndSelection(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)

	bob := server.AddUser("bob", "bob@example.com", "hunter2x", false, true)
	server.AddTodo(bob.ID, models.Todo{Title: "orphaned on delete"})

	directory := NewUserDirectory(client, identity, zap.NewNop())
	if err := directory.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := directory.Select(context.Background(), bob.ID); err != nil {
		t.Fatalf("Select: %v", err)
	}

	if err := directory.Do(context.Background(), bob.ID, ActionDelete); err != nil {
		t.Fatalf("Do(delete): %v", err)
	}

	for _, row := range directory.Users() {
		if row.ID == bob.ID {
			t.Error("deleted user still listed")
		}
	}
	if row, todos := directory.Selected(); row != nil || todos != nil {
		t.Errorf("selection survived deleting the selected user: %+v", row)
	}
}

func TestSelectionSurvivesDeletingOtherUser(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)

	bob := server.AddUser("bob", "bob@example.com", "hunter2x", false, true)
	carol := server.AddUser("carol", "carol@example.com", "hunter2x", false, true)
	server.AddTodo(bob.ID, models.Todo{Title: "bobs task"})

	directory := NewUserDirectory(client, identity, zap.NewNop())
	if err := directory.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := directory.Select(context.Background(), bob.ID); err != nil {
		t.Fatalf("Select: %v", err)
	}

	if err := directory.Do(context.Background(), carol.ID, ActionDelete); err != nil {
		t.Fatalf("Do(delete): %v", err)
	}

	row, todos := directory.Selected()
	if row == nil || row.ID != bob.ID {
		t.Fatalf("selection lost: %+v", row)
	}
	if len(todos) != 1 || todos[0].Title != "bobs task" {
		t.Errorf("selected todos = %+v", todos)
	}
}

func TestOverviewStats(t *testing.T) {
	t.Parallel()

	server := apitest.New()
	t.Cleanup(server.Close)
	client, identity := newAdminClient(t, server)

	bob := server.AddUser("bob", "bob@example.com", "hunter2x", false, false)
	server.AddTodo(bob.ID, models.Todo{Title: "a", Completed: true})
	server.AddTodo(bob.ID, models.Todo{Title: "b"})

	overview := NewOverview(client, identity)
	stats, err := overview.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	want := models.DashboardStats{
		TotalUsers: 2, ActiveUsers: 1, AdminUsers: 1,
		TotalTodos: 2, CompletedTodos: 1, PendingTodos: 1,
	}
	if *stats != want {
		t.Errorf("Stats = %+v, want %+v", *stats, want)
	}

	denied := NewOverview(client, staticIdentity{})
	if _, err := denied.Stats(context.Background()); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Stats while logged out = %v, want ErrAccessDenied", err)
	}
}
