package backend

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/source/google"
	"fintrack/internal/source/memory"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend opens the configured store and, when configured, the AMQP
// publisher. A broker that cannot be reached only disables publishing.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachPublisher(res, config.AMQP)
	return res, nil
}

func (f *DefaultFactory) attachPublisher(res *Result, cfg amqp.Config) {
	if cfg.URL == "" {
		f.logger.Info("AMQP not configured, change notifications disabled")
		return
	}
	client, err := amqp.NewClient(cfg)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		return
	}
	f.logger.Info("Initialized AMQP client", "exchange", cfg.Exchange, "queue", cfg.ChangesQueue)
	res.Publisher = client
	res.addCleanup(client.Close)
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	res := &Result{Store: repo}
	res.addCleanup(repo.Close)
	return res, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*Result, error) {
	client, err := google.New(ctx, config.Sheets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	interval := config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	manager := cache.NewManager()
	manager.Register(client)
	manager.StartCleanup(interval)

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.Sheets.SheetName)
	res := &Result{Store: client, ReadOnly: true}
	res.addCleanup(func() error {
		manager.Stop()
		return nil
	})
	return res, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*Result, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	seedUser := config.SeedUserID
	if seedUser == 0 {
		seedUser = 1
	}

	store, err := memory.NewFromDir(ctx, dataDir, seedUser)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory backend seed: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &Result{Store: store}, nil
}
