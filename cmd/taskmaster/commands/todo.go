package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster-app/taskmaster-go/internal/models"
	"github.com/taskmaster-app/taskmaster-go/internal/todos"
	"github.com/taskmaster-app/taskmaster-go/internal/validation"
	"github.com/taskmaster-app/taskmaster-go/internal/views"
)

// NewTodoCmd creates the todo command group
func NewTodoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage your todos",
	}

	cmd.AddCommand(newTodoListCmd())
	cmd.AddCommand(newTodoAddCmd())
	cmd.AddCommand(newTodoDoneCmd())
	cmd.AddCommand(newTodoRmCmd())
	return cmd
}

// loadList builds the todo list store for a logged-in user and loads it.
func loadList(app *App, cmd *cobra.Command) (*todos.List, error) {
	if err := app.requireLogin(); err != nil {
		return nil, err
	}
	list := todos.NewList(app.Client, app.Log)
	if err := list.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return list, nil
}

func newTodoListCmd() *cobra.Command {
	var search, status, sortKey string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			list, err := loadList(app, cmd)
			if err != nil {
				return err
			}

			state := views.FilterState{
				SearchTerm: search,
				Status:     views.Status(status),
				Sort:       views.SortKey(sortKey),
			}
			visible := list.Visible(state)
			stats := list.Stats(time.Now())

			if len(visible) == 0 {
				fmt.Println("No tasks found")
			}
			for _, t := range visible {
				printTodo(t)
			}

			fmt.Printf("\n%d of %d tasks shown\n", len(visible), stats.Total)
			fmt.Printf("Completed: %d  Pending: %d  High priority: %d  Overdue: %d\n",
				stats.Completed, stats.Pending, stats.HighPriority, stats.Overdue)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by text in title or description")
	cmd.Flags().StringVar(&status, "status", "all", "Filter by status: all, completed, pending")
	cmd.Flags().StringVar(&sortKey, "sort", "created", "Sort by: created, priority, dueDate")
	return cmd
}

func newTodoAddCmd() *cobra.Command {
	var form validation.TodoForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a todo",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.requireLogin(); err != nil {
				return err
			}

			list := todos.NewList(app.Client, app.Log)
			created, err := list.Create(cmd.Context(), form)
			if err != nil {
				return err
			}

			fmt.Printf("Created task %d: %s\n", created.ID, created.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&form.Description, "description", "", "Task description")
	cmd.Flags().StringVar(&form.Priority, "priority", string(models.PriorityMedium), "Priority: low, medium, high")
	cmd.Flags().StringVar(&form.Category, "category", string(models.CategoryGeneral), "Category: general, work, personal, shopping, health")
	cmd.Flags().StringVar(&form.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTodoDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo's completed state",
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

			list, err := loadList(app, cmd)
			if err != nil {
				return err
			}

			updated, err := list.Toggle(cmd.Context(), id)
			if err != nil {
				return err
			}

			state := "pending"
			if updated.Completed {
				state = "completed"
			}
			fmt.Printf("Task %d is now %s\n", updated.ID, state)
			return nil
		},
	}
}

func newTodoRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a todo",
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

			if err := app.requireLogin(); err != nil {
				return err
			}

			list := todos.NewList(app.Client, app.Log)
			if err := list.Delete(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Printf("Deleted task %d\n", id)
			return nil
		},
	}
}

func printTodo(t models.Todo) {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	fmt.Printf("[%s] %4d  %s", mark, t.ID, t.Title)
	if t.Priority != "" {
		fmt.Printf("  (%s)", t.Priority)
	}
	if t.DueDate != nil {
		fmt.Printf("  due %s", t.DueDate)
	}
	fmt.Println()
	if t.Description != "" {
		fmt.Printf("         %s\n", t.Description)
	}
}
