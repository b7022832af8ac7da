package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmaster-app/taskmaster-go/internal/validation"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in to TaskMaster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			if password == "" {
				password, err = promptPassword("Password: ")
				if err != nil {
					return err
				}
			}

			result := app.Session.Login(cmd.Context(), args[0], password)
			if !result.OK {
				return fmt.Errorf("%s", result.Message)
			}

			user := app.Session.CurrentUser()
			fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a TaskMaster account",
		Long:  "Create a TaskMaster account. The account must be verified by email before logging in.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword("Confirm password: ")
			if err != nil {
				return err
			}

			result := app.Session.Register(cmd.Context(), validation.RegistrationForm{
				Username:        username,
				Email:           email,
				Password:        password,
				ConfirmPassword: confirm,
			})
			if !result.OK {
				return fmt.Errorf("%s", result.Message)
			}

			fmt.Println(result.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// NewVerifyEmailCmd creates the verify-email command
func NewVerifyEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Verify an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			result := app.Session.VerifyEmail(cmd.Context(), args[0])
			if !result.OK {
				return fmt.Errorf("%s", result.Message)
			}

			fmt.Println(result.Message)
			return nil
		},
	}
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			app.Session.Logout()
			fmt.Println("Logged out")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.requireLogin(); err != nil {
				return err
			}

			user := app.Session.CurrentUser()
			fmt.Printf("Username: %s\n", user.Username)
			fmt.Printf("Email:    %s\n", user.Email)
			fmt.Printf("Admin:    %t\n", user.IsAdmin)
			fmt.Printf("Active:   %t\n", user.IsActive)
			if exp, ok := app.Session.TokenExpiry(); ok {
				fmt.Printf("Session expires: %s\n", exp.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
