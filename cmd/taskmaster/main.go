package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster-app/taskmaster-go/cmd/taskmaster/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "taskmaster",
		Short: "TaskMaster command-line client",
		Long:  "Command-line client for the TaskMaster task-management API",
	}

	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewVerifyEmailCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewTodoCmd())
	rootCmd.AddCommand(commands.NewAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
