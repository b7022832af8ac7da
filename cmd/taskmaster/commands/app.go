package commands

import (
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/taskmaster-app/taskmaster-go/internal/api"
	"github.com/taskmaster-app/taskmaster-go/internal/config"
	"github.com/taskmaster-app/taskmaster-go/internal/logger"
	"github.com/taskmaster-app/taskmaster-go/internal/session"
)

// App wires the client stack for a single command invocation: config,
// logger, API client and session store, with the persisted session
// restored.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Client  *api.Client
	Session *session.Store
}

func newApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var log *zap.Logger
	if cfg.JSONLogs {
		log, err = logger.NewJSON(cfg.Debug)
	} else {
		log, err = logger.New(cfg.Debug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := api.NewClient(cfg.APIBaseURL,
		api.WithLogger(log),
		api.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	storage := session.NewFileStorage(cfg.SessionPath())
	store := session.NewStore(client, storage, log)
	store.Restore()

	return &App{
		Config:  cfg,
		Log:     log,
		Client:  client,
		Session: store,
	}, nil
}

func (a *App) close() {
	_ = logger.Sync(a.Log)
}

// requireLogin fails fast when no session is active.
func (a *App) requireLogin() error {
	if !a.Session.Authenticated() {
		return fmt.Errorf("not logged in; run 'taskmaster login' first")
	}
	return nil
}

// promptPassword reads a password without echo when stdin is a
// terminal, falling back to a plain line read otherwise.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(data), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return line, nil
}
