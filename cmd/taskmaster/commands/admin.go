package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taskmaster-app/taskmaster-go/internal/admin"
)

// NewAdminCmd creates the admin command group
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer users and todos (admin only)",
	}

	cmd.AddCommand(newAdminStatsCmd())
	cmd.AddCommand(newAdminUsersCmd())
	for _, action := range []admin.Action{
		admin.ActionPromote, admin.ActionDemote,
		admin.ActionActivate, admin.ActionDeactivate,
	} {
		cmd.AddCommand(newAdminUserActionCmd(action))
	}
	cmd.AddCommand(newAdminDeleteUserCmd())
	cmd.AddCommand(newAdminTodosCmd())
	cmd.AddCommand(newAdminRmTodoCmd())
	return cmd
}

func newAdminStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate dashboard counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			overview := admin.NewOverview(app.Client, app.Session)
			stats, err := overview.Stats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Users:  %d total, %d active, %d admins\n",
				stats.TotalUsers, stats.ActiveUsers, stats.AdminUsers)
			fmt.Printf("Todos:  %d total, %d completed, %d pending\n",
				stats.TotalTodos, stats.CompletedTodos, stats.PendingTodos)
			return nil
		},
	}
}

func newAdminUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all users with todo statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			directory := admin.NewUserDirectory(app.Client, app.Session, app.Log)
			if err := directory.Load(cmd.Context()); err != nil {
				return err
			}

			users := directory.Users()
			if len(users) == 0 {
				fmt.Println("No users")
				return nil
			}
			fmt.Printf("%4s  %-20s  %-30s  %-6s  %-8s  %5s  %5s  %5s\n",
				"ID", "USERNAME", "EMAIL", "ADMIN", "ACTIVE", "TODOS", "DONE", "RATE")
			for _, u := range users {
				fmt.Printf("%4d  %-20s  %-30s  %-6t  %-8t  %5d  %5d  %4d%%\n",
					u.ID, u.Username, u.Email, u.IsAdmin, u.IsActive,
					u.TodoCount, u.CompletedCount, u.CompletionRate)
			}
			return nil
		},
	}
}

func newAdminUserActionCmd(action admin.Action) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <user-id>", action),
		Short: fmt.Sprintf("%s a user", action),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid user ID %q", args[0])
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			directory := admin.NewUserDirectory(app.Client, app.Session, app.Log)
			if err := directory.Load(cmd.Context()); err != nil {
				return err
			}
			if err := directory.Do(cmd.Context(), id, action); err != nil {
				return err
			}

			fmt.Printf("User %d: %s done\n", id, action)
			return nil
		},
	}
}

func newAdminDeleteUserCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-user <user-id>",
		Short: "Delete a user and all their todos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid user ID %q", args[0])
			}
			if !yes {
				return fmt.Errorf("deleting a user removes all their todos; re-run with --yes to confirm")
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			directory := admin.NewUserDirectory(app.Client, app.Session, app.Log)
			if err := directory.Load(cmd.Context()); err != nil {
				return err
			}
			if err := directory.Do(cmd.Context(), id, admin.ActionDelete); err != nil {
				return err
			}

			fmt.Printf("Deleted user %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func newAdminTodosCmd() *cobra.Command {
	var userID int
	var completed string
	var limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "todos",
		Short: "List todos across all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			browser := admin.NewTodoBrowser(app.Client, app.Session, app.Log)
			if limit > 0 {
				if err := browser.SetLimit(cmd.Context(), limit); err != nil {
					return err
				}
			}

			var userFilter *int
			if cmd.Flags().Changed("user") {
				userFilter = &userID
			}
			var completedFilter *bool
			if completed != "" {
				v, err := strconv.ParseBool(completed)
				if err != nil {
					return fmt.Errorf("invalid --completed value %q", completed)
				}
				completedFilter = &v
			}
			if err := browser.SetFilter(cmd.Context(), userFilter, completedFilter); err != nil {
				return err
			}

			if all {
				for len(browser.Window()) < browser.Total() {
					if err := browser.LoadMore(cmd.Context()); err != nil {
						return err
					}
				}
			}

			window := browser.Window()
			for _, t := range window {
				mark := " "
				if t.Completed {
					mark = "x"
				}
				fmt.Printf("[%s] %4d  %-30s  owner=%s\n", mark, t.ID, t.Title, t.OwnerUsername)
			}
			fmt.Printf("\nShowing %d of %d todos\n", len(window), browser.Total())
			return nil
		},
	}

	cmd.Flags().IntVar(&userID, "user", 0, "Filter by owner user ID")
	cmd.Flags().StringVar(&completed, "completed", "", "Filter by completion: true or false")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	cmd.Flags().BoolVar(&all, "all", false, "Keep loading pages until the full listing is shown")
	return cmd
}

func newAdminRmTodoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-todo <todo-id>",
		Short: "Delete any user's todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid todo ID %q", args[0])
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			browser := admin.NewTodoBrowser(app.Client, app.Session, app.Log)
			if err := browser.Load(cmd.Context()); err != nil {
				return err
			}
			if err := browser.Delete(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Printf("Deleted todo %d\n", id)
			return nil
		},
	}
}
