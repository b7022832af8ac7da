// Package apitest runs an in-process TaskMaster API for tests: the same
// endpoints, status codes and {"detail": ...} error bodies the real
// backend produces, backed by in-memory maps.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

// Server is a fake TaskMaster API. All exported methods are safe for
// concurrent use.
type Server struct {
	*httptest.Server

	// Before, when set, runs before every request is handled. Tests use
	// it to hold requests in flight.
	Before func(r *http.Request)

	mu           sync.Mutex
	secret       []byte
	nextUserID   int
	nextTodoID   int
	users        map[int]*models.User
	passwords    map[string]string
	todos        map[int]*models.AdminTodo
	tokens       map[string]string // bearer token -> username
	verifyTokens map[string]int    // email verification token -> user ID
	requests     map[string]int    // "METHOD /path" -> count
}

// New starts a fake API server. Callers must Close it.
func New() *Server {
	s := &Server{
		secret:       []byte("apitest-signing-secret"),
		nextUserID:   1,
		nextTodoID:   1,
		users:        make(map[int]*models.User),
		passwords:    make(map[string]string),
		todos:        make(map[int]*models.AdminTodo),
		tokens:       make(map[string]string),
		verifyTokens: make(map[string]int),
		requests:     make(map[string]int),
	}

	r := mux.NewRouter()
	r.Use(s.counting)

	r.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/auth/token", s.handleToken).Methods("POST")
	r.HandleFunc("/auth/verify-email", s.handleVerifyEmail).Methods("GET")
	r.HandleFunc("/auth/me", s.authed(s.handleMe)).Methods("GET")

	r.HandleFunc("/todos/", s.authed(s.handleListTodos)).Methods("GET")
	r.HandleFunc("/todos/", s.authed(s.handleCreateTodo)).Methods("POST")
	r.HandleFunc("/todos/{id:[0-9]+}", s.authed(s.handleGetTodo)).Methods("GET")
	r.HandleFunc("/todos/{id:[0-9]+}", s.authed(s.handleUpdateTodo)).Methods("PUT")
	r.HandleFunc("/todos/{id:[0-9]+}", s.authed(s.handleDeleteTodo)).Methods("DELETE")

	r.HandleFunc("/admin/dashboard/stats", s.admin(s.handleDashboardStats)).Methods("GET")
	r.HandleFunc("/admin/users", s.admin(s.handleListUsers)).Methods("GET")
	r.HandleFunc("/admin/users/detailed", s.admin(s.handleListUsersDetailed)).Methods("GET")
	r.HandleFunc("/admin/users/{id:[0-9]+}/todos", s.admin(s.handleUserTodos)).Methods("GET")
	r.HandleFunc("/admin/users/{id:[0-9]+}/{action:promote|demote|activate|deactivate}", s.admin(s.handleUserAction)).Methods("POST")
	r.HandleFunc("/admin/users/{id:[0-9]+}", s.admin(s.handleDeleteUser)).Methods("DELETE")
	r.HandleFunc("/admin/todos", s.admin(s.handleListAllTodos)).Methods("GET")
	r.HandleFunc("/admin/todos/{id:[0-9]+}", s.admin(s.handleDeleteAnyTodo)).Methods("DELETE")

	s.Server = httptest.NewServer(r)
	return s
}

// AddUser seeds a user and returns the record.
func (s *Server) AddUser(username, email, password string, isAdmin, isActive bool) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &models.User{
		ID:        s.nextUserID,
		Username:  username,
		Email:     email,
		IsAdmin:   isAdmin,
		IsActive:  isActive,
		CreatedAt: time.Now().UTC(),
	}
	s.nextUserID++
	s.users[user.ID] = user
	s.passwords[username] = password
	return *user
}

// AddTodo seeds a todo for ownerID and returns the record with owner
// fields attached. A zero CreatedAt is filled with the current time.
func (s *Server) AddTodo(ownerID int, todo models.Todo) models.AdminTodo {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := s.users[ownerID]
	todo.ID = s.nextTodoID
	s.nextTodoID++
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now().UTC()
	}
	record := &models.AdminTodo{
		Todo:          todo,
		OwnerID:       ownerID,
		OwnerUsername: owner.Username,
		OwnerEmail:    owner.Email,
	}
	s.todos[todo.ID] = record
	return *record
}

// TokenFor mints a signed bearer token for username, as the token
// endpoint would.
func (s *Server) TokenFor(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mintToken(username)
}

// RevokeAll invalidates every issued token. Subsequent authenticated
// requests come back 401.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// VerificationTokenFor seeds an email verification token for a user.
func (s *Server) VerificationTokenFor(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := fmt.Sprintf("verify-%d-%d", userID, len(s.verifyTokens))
	s.verifyTokens[token] = userID
	return token
}

// Requests returns how many times an endpoint was hit.
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

// mintToken must be called with the lock held.
func (s *Server) mintToken(username string) string {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(username).
		IssuedAt(now).
		Expiration(now.Add(time.Hour)).
		Build()
	if err != nil {
		panic(fmt.Sprintf("apitest: failed to build token: %v", err))
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		panic(fmt.Sprintf("apitest: failed to sign token: %v", err))
	}
	s.tokens[string(signed)] = username
	return string(signed)
}

func (s *Server) counting(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		if s.Before != nil {
			s.Before(r)
		}
		next.ServeHTTP(w, r)
	})
}

// authed wraps a handler with bearer-token authentication.
func (s *Server) authed(next func(w http.ResponseWriter, r *http.Request, user *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.authenticate(r)
		if user == nil {
			writeErr(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, user)
	}
}

// admin additionally requires the admin flag.
func (s *Server) admin(next func(w http.ResponseWriter, r *http.Request, user *models.User)) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, user *models.User) {
		if !user.IsAdmin {
			writeErr(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authenticate(r *http.Request) *models.User {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil
	}
	if _, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, s.secret), jwt.WithValidate(true)); err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.tokens[raw]
	if !ok {
		return nil
	}
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied
		}
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == req.Username || u.Email == req.Email {
			writeErr(w, http.StatusBadRequest, "Username or email already registered")
			return
		}
	}
	user := &models.User{
		ID:        s.nextUserID,
		Username:  req.Username,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	s.nextUserID++
	s.users[user.ID] = user
	s.passwords[req.Username] = req.Password

	writeJSON(w, http.StatusOK, models.MessageResponse{
		Message: "Registration successful. Please check your email to verify your account.",
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.passwords[username]
	if !ok || stored != password {
		writeErr(w, http.StatusUnauthorized, "Incorrect credentials")
		return
	}
	for _, u := range s.users {
		if u.Username == username && !u.IsActive {
			writeErr(w, http.StatusForbidden, "Email not verified")
			return
		}
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: s.mintToken(username),
		TokenType:   "bearer",
	})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.verifyTokens[token]
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}
	delete(s.verifyTokens, token)
	if user, ok := s.users[userID]; ok {
		user.IsActive = true
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Email verified successfully"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user *models.User) {
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Todo{}
	for _, t := range s.sortedTodos() {
		if t.OwnerID == user.ID {
			out = append(out, t.Todo)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req models.TodoCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record := &models.AdminTodo{
		Todo: models.Todo{
			ID:          s.nextTodoID,
			Title:       req.Title,
			Description: req.Description,
			Completed:   req.Completed,
			Priority:    req.Priority,
			Category:    req.Category,
			DueDate:     req.DueDate,
			CreatedAt:   time.Now().UTC(),
		},
		OwnerID:       user.ID,
		OwnerUsername: user.Username,
		OwnerEmail:    user.Email,
	}
	s.nextTodoID++
	s.todos[record.ID] = record
	writeJSON(w, http.StatusOK, record.Todo)
}

func (s *Server) handleGetTodo(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.ownedTodo(w, r, user)
	if record == nil {
		return
	}
	writeJSON(w, http.StatusOK, record.Todo)
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req models.TodoUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.ownedTodo(w, r, user)
	if record == nil {
		return
	}
	record.Title = req.Title
	record.Description = req.Description
	record.Completed = req.Completed
	writeJSON(w, http.StatusOK, record.Todo)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.ownedTodo(w, r, user)
	if record == nil {
		return
	}
	delete(s.todos, record.ID)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Todo deleted"})
}

// ownedTodo must be called with the lock held. It writes the error
// response itself when the todo is missing or owned by someone else.
func (s *Server) ownedTodo(w http.ResponseWriter, r *http.Request, user *models.User) *models.AdminTodo {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	record, ok := s.todos[id]
	if !ok || record.OwnerID != user.ID {
		writeErr(w, http.StatusNotFound, "Todo not found")
		return nil
	}
	return record
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request, _ *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := models.DashboardStats{TotalUsers: len(s.users), TotalTodos: len(s.todos)}
	for _, u := range s.users {
		if u.IsActive {
			stats.ActiveUsers++
		}
		if u.IsAdmin {
			stats.AdminUsers++
		}
	}
	for _, t := range s.todos {
		if t.Completed {
			stats.CompletedTodos++
		} else {
			stats.PendingTodos++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.sortedUsers() {
		out = append(out, *u)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListUsersDetailed(w http.ResponseWriter, r *http.Request, _ *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.UserWithStats{}
	for _, u := range s.sortedUsers() {
		row := models.UserWithStats{User: *u}
		for _, t := range s.todos {
			if t.OwnerID != u.ID {
				continue
			}
			row.TodoCount++
			if t.Completed {
				row.CompletedCount++
			} else {
				row.PendingCount++
			}
		}
		row.CompletionRate = models.ComputeCompletionRate(row.CompletedCount, row.TodoCount)
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUserTodos(w http.ResponseWriter, r *http.Request, _ *models.User) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		writeErr(w, http.StatusNotFound, "User not found")
		return
	}
	out := []models.Todo{}
	for _, t := range s.sortedTodos() {
		if t.OwnerID == id {
			out = append(out, t.Todo)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUserAction(w http.ResponseWriter, r *http.Request, _ *models.User) {
	vars := mux.Vars(r)
	id, _ := strconv.Atoi(vars["id"])

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "User not found")
		return
	}
	switch vars["action"] {
	case "promote":
		user.IsAdmin = true
	case "demote":
		user.IsAdmin = false
	case "activate":
		user.IsActive = true
	case "deactivate":
		user.IsActive = false
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, _ *models.User) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.users, id)
	delete(s.passwords, user.Username)
	for todoID, t := range s.todos {
		if t.OwnerID == id {
			delete(s.todos, todoID)
		}
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "User deleted"})
}

func (s *Server) handleListAllTodos(w http.ResponseWriter, r *http.Request, _ *models.User) {
	query := r.URL.Query()
	limit := 50
	offset := 0
	if v := query.Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	if v := query.Get("offset"); v != "" {
		offset, _ = strconv.Atoi(v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	matching := []models.AdminTodo{}
	for _, t := range s.sortedTodos() {
		if v := query.Get("user_id"); v != "" {
			id, _ := strconv.Atoi(v)
			if t.OwnerID != id {
				continue
			}
		}
		if v := query.Get("completed"); v != "" {
			completed, _ := strconv.ParseBool(v)
			if t.Completed != completed {
				continue
			}
		}
		matching = append(matching, *t)
	}

	page := models.AdminTodoPage{Total: len(matching), Todos: []models.AdminTodo{}}
	if offset < len(matching) {
		end := offset + limit
		if end > len(matching) {
			end = len(matching)
		}
		page.Todos = matching[offset:end]
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleDeleteAnyTodo(w http.ResponseWriter, r *http.Request, _ *models.User) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[id]; !ok {
		writeErr(w, http.StatusNotFound, "Todo not found")
		return
	}
	delete(s.todos, id)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Todo deleted"})
}

// sortedUsers must be called with the lock held.
func (s *Server) sortedUsers() []*models.User {
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// sortedTodos must be called with the lock held.
func (s *Server) sortedTodos() []*models.AdminTodo {
	out := make([]*models.AdminTodo, 0, len(s.todos))
	for _, t := range s.todos {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
