package models

import (
	"math"
	"time"
)

// User represents a TaskMaster account as returned by the API
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserWithStats is a user record annotated with todo completion statistics,
// as returned by the detailed admin listing
type UserWithStats struct {
	User
	TodoCount      int `json:"todo_count"`
	CompletedCount int `json:"completed_count"`
	PendingCount   int `json:"pending_count"`
	CompletionRate int `json:"completion_rate"`
}

// ComputeCompletionRate returns the completion percentage in [0,100].
// A user with no todos has a rate of 0, never a division by zero.
func ComputeCompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
