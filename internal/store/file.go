package store

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/scribeflow/scribeflow/internal/types"
)

// headerWords are first-cell values that mark row zero as a header
// instead of a task.
var headerWords = map[string]bool{
	"标题":    true,
	"title": true,
}

// FileStore keeps the task list in a two-column CSV file: title and
// status. A header row is preserved but never treated as a task. Every
// Mark rewrites the whole file; task lists are small and a full rewrite
// survives crashes better than in-place edits.
type FileStore struct {
	path   string
	header []string
	tasks  []types.Task
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStore loads the task list from path.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		logger: logger.With("component", "file_store"),
	}
	if err := s.load(); err != nil {
		return nil, &types.StoreError{Backend: "file", Err: err}
	}
	s.logger.Info("task list loaded", "path", path, "tasks", len(s.tasks))
	return s, nil
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("opening task list: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("parsing task list: %w", err)
	}

	for i, record := range records {
		if len(record) == 0 {
			continue
		}
		first := strings.ToLower(strings.TrimSpace(record[0]))
		if i == 0 && headerWords[first] {
			s.header = record
			continue
		}
		title := strings.TrimSpace(record[0])
		if title == "" {
			continue
		}
		status := types.StatusPending
		if len(record) > 1 {
			status = types.TaskStatus(strings.TrimSpace(record[1]))
		}
		s.tasks = append(s.tasks, types.Task{
			Row:    len(s.tasks),
			Title:  title,
			Status: status,
		})
	}
	return nil
}

func (s *FileStore) Pending() ([]types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []types.Task
	for _, t := range s.tasks {
		if !t.Terminal() {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

func (s *FileStore) Mark(row int, status types.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row < 0 || row >= len(s.tasks) {
		return &types.StoreError{Backend: "file", Err: fmt.Errorf("row %d out of range", row)}
	}
	s.tasks[row].Status = status
	if err := s.flush(); err != nil {
		return &types.StoreError{Backend: "file", Err: err}
	}
	s.logger.Debug("task marked", "row", row, "status", string(status))
	return nil
}

// flush rewrites the list through a temp file and rename.
func (s *FileStore) flush() error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp task list: %w", err)
	}

	writer := csv.NewWriter(f)
	if s.header != nil {
		if err := writer.Write(s.header); err != nil {
			f.Close()
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for _, t := range s.tasks {
		if err := writer.Write([]string{t.Title, string(t.Status)}); err != nil {
			f.Close()
			return fmt.Errorf("writing task row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing task list: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp task list: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing task list: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
