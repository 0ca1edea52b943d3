package store

import (
	"fmt"
	"log/slog"

	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/types"
)

// TaskStore is the interface for all task-list backends.
type TaskStore interface {
	// Pending returns the tasks not yet in a terminal state, in list
	// order.
	Pending() ([]types.Task, error)

	// Mark sets the status of the task at the given row and persists
	// it immediately.
	Mark(row int, status types.TaskStatus) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}

// Open builds the configured task-store backend.
func Open(cfg config.StoreConfig, taskFile string, logger *slog.Logger) (TaskStore, error) {
	switch cfg.Type {
	case "", "file":
		return NewFileStore(taskFile, logger)
	case "mongodb":
		return NewMongoStore(cfg.MongoURI, cfg.Database, cfg.Collection, logger)
	default:
		return nil, fmt.Errorf("unknown task store type %q", cfg.Type)
	}
}
