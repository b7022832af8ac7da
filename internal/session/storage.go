package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

// Storage is the durable backend for the session. It holds exactly two
// logical keys, token and user, which are always written and cleared
// together.
type Storage interface {
	Read() (token string, user *models.User, err error)
	Write(token string, user *models.User) error
	Clear() error
}

// FileStorage persists the session as a single JSON document on disk,
// surviving client restarts the way browser local storage survives
// page reloads.
type FileStorage struct {
	path string
}

// NewFileStorage creates a file-backed session storage at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

type sessionFile struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Read loads the persisted session. A missing file is not an error; it
// reads as an empty session.
func (s *FileStorage) Read() (string, *models.User, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return "", nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return sf.Token, sf.User, nil
}

// Write persists token and user together. The file is written via a
// temp file and rename so a crash never leaves a half-written session,
// with owner-only permissions since it holds a credential.
func (s *FileStorage) Write(token string, user *models.User) error {
	data, err := json.MarshalIndent(sessionFile{Token: token, User: user}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set session file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Clear removes both keys by deleting the file. Clearing an already
// empty storage succeeds.
func (s *FileStorage) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
