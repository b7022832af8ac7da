package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/taskmaster-app/taskmaster-go/internal/models"
)

func TestFileStorageRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "session.json")
	storage := NewFileStorage(path)

	// Missing file reads as an empty session.
	token, user, err := storage.Read()
	if err != nil {
		t.Fatalf("Read of missing file: %v", err)
	}
	if token != "" || user != nil {
		t.Errorf("missing file read as token=%q user=%+v", token, user)
	}

	want := models.User{ID: 7, Username: "alice", Email: "alice@example.com", IsActive: true}
	if err := storage.Write("tok-123", &want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	token, user, err = storage.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if token != "tok-123" {
		t.Errorf("token = %q", token)
	}
	if user == nil || *user != want {
		t.Errorf("user = %+v, want %+v", user, want)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("session file mode = %o, want 600", perm)
		}
	}
}

func TestFileStorageClear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	storage := NewFileStorage(path)

	// Clearing an empty storage succeeds.
	if err := storage.Clear(); err != nil {
		t.Fatalf("Clear of missing file: %v", err)
	}

	if err := storage.Write("tok", &models.User{ID: 1, Username: "a"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := storage.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := storage.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}

	token, user, err := storage.Read()
	if err != nil {
		t.Fatalf("Read after Clear: %v", err)
	}
	if token != "" || user != nil {
		t.Error("session survived Clear")
	}
}

func TestFileStorageRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, _, err := NewFileStorage(path).Read(); err == nil {
		t.Error("corrupt session file read without error")
	}
}
