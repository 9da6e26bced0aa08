package backend

import (
	"context"
	"fmt"

	"moneygr/internal/core"
	"moneygr/internal/inout/memory"
	"moneygr/internal/inout/remote"
	"moneygr/internal/log"
	"moneygr/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLite(ctx, config)
	case RemoteBackend:
		return f.createRemote(config)
	case MemoryBackend:
		return f.createMemory(config), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLite(ctx context.Context, config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}
	if config.DefaultUser != "" {
		if err := repo.EnsureMember(ctx, core.Member{ID: config.DefaultUser}); err != nil {
			repo.Close()
			return nil, err
		}
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &Result{Store: repo, Ping: repo.Ping, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createRemote(config Config) (*Result, error) {
	client, err := remote.New(config.InoutURI, config.InoutTimeout)
	if err != nil {
		return nil, fmt.Errorf("initialize remote client: %w", err)
	}

	f.logger.Info("Initialized remote backend", "inout_uri", config.InoutURI, "timeout", config.InoutTimeout)
	return &Result{
		Store: client,
		Ping: func(ctx context.Context) error {
			_, err := client.IncomeCategories(ctx)
			return err
		},
		Cleanup: noCleanup,
	}, nil
}

func (f *DefaultFactory) createMemory(config Config) *Result {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	store := memory.NewFromFiles(dataDir)
	if config.DefaultUser != "" {
		store.AddMember(core.Member{ID: config.DefaultUser, Name: config.DefaultUser})
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &Result{
		Store:   store,
		Ping:    func(context.Context) error { return nil },
		Cleanup: noCleanup,
	}
}

func noCleanup() error { return nil }
