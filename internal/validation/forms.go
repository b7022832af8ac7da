package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegistrationForm carries the raw registration fields for pre-submit
// validation. A form that fails here never reaches the network.
type RegistrationForm struct {
	Username        string `validate:"required,min=3,max=50"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required"`
}

// TodoForm carries the raw todo-creation fields for pre-submit
// validation. DueDate is the empty string or YYYY-MM-DD.
type TodoForm struct {
	Title       string `validate:"required,min=3,max=100"`
	Description string `validate:"max=250"`
	Priority    string `validate:"omitempty,priority"`
	Category    string `validate:"omitempty,category"`
	DueDate     string `validate:"omitempty,datetime=2006-01-02"`
}

// CheckRegistration validates a registration form and returns a
// user-facing error for the first problem found.
func CheckRegistration(form RegistrationForm) error {
	if form.Password != form.ConfirmPassword {
		return errors.New("Passwords do not match")
	}
	if err := Validate.Struct(form); err != nil {
		return registrationMessage(err)
	}
	return nil
}

// CheckTodo validates a todo form and returns a user-facing error for
// the first problem found.
func CheckTodo(form TodoForm) error {
	if strings.TrimSpace(form.Title) == "" {
		return errors.New("Title is required")
	}
	if err := Validate.Struct(form); err != nil {
		return todoMessage(err)
	}
	return nil
}

func registrationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.New("Registration form is invalid")
	}

	fe := verrs[0]
	switch fe.Field() {
	case "Username":
		if fe.Tag() == "required" {
			return errors.New("Username is required")
		}
		return errors.New("Username must be between 3 and 50 characters")
	case "Email":
		if fe.Tag() == "required" {
			return errors.New("Email is required")
		}
		return errors.New("Please enter a valid email address")
	case "Password":
		if fe.Tag() == "required" {
			return errors.New("Password is required")
		}
		return errors.New("Password must be at least 6 characters long")
	case "ConfirmPassword":
		return errors.New("Please confirm your password")
	}
	return errors.New("Registration form is invalid")
}

func todoMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.New("Task form is invalid")
	}

	fe := verrs[0]
	switch fe.Field() {
	case "Title":
		return errors.New("Title must be between 3 and 100 characters")
	case "Description":
		return errors.New("Description must be at most 250 characters")
	case "Priority":
		return errors.New("Priority must be low, medium or high")
	case "Category":
		return errors.New("Category must be general, work, personal, shopping or health")
	case "DueDate":
		return errors.New("Due date must be in YYYY-MM-DD format")
	}
	return errors.New("Task form is invalid")
}
