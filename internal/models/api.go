package models

// TokenResponse is returned by the token endpoint after a successful
// credential exchange
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest is the payload for creating an account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MessageResponse is a generic server acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// DashboardStats holds the aggregate counts shown on the admin overview
type DashboardStats struct {
	TotalUsers     int `json:"total_users"`
	ActiveUsers    int `json:"active_users"`
	AdminUsers     int `json:"admin_users"`
	TotalTodos     int `json:"total_todos"`
	CompletedTodos int `json:"completed_todos"`
	PendingTodos   int `json:"pending_todos"`
}

// AdminTodoPage is one window of the paginated global todo listing
type AdminTodoPage struct {
	Todos []AdminTodo `json:"todos"`
	Total int         `json:"total"`
}
