package store

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scribeflow/scribeflow/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeTaskFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileStorePendingSkipsTerminal(t *testing.T) {
	path := writeTaskFile(t, "第一个标题,文章已创作\n第二个标题,\n第三个标题,创作失败\n第四个标题\n")

	s, err := NewFileStore(path, testLogger)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	pending, err := s.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending tasks, got %d", len(pending))
	}
	if pending[0].Title != "第二个标题" || pending[1].Title != "第四个标题" {
		t.Errorf("wrong pending tasks: %+v", pending)
	}
}

func TestFileStoreHeaderTolerant(t *testing.T) {
	path := writeTaskFile(t, "标题,状态\n真正的任务,\n")

	s, err := NewFileStore(path, testLogger)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	pending, _ := s.Pending()
	if len(pending) != 1 || pending[0].Title != "真正的任务" {
		t.Fatalf("header row treated as task: %+v", pending)
	}

	// A Mark must keep the header in place.
	if err := s.Mark(0, types.StatusCompleted); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "标题,状态") {
		t.Errorf("header lost on rewrite: %q", string(data))
	}
}

func TestFileStoreMarkPersists(t *testing.T) {
	path := writeTaskFile(t, "任务一,\n任务二,\n")

	s, err := NewFileStore(path, testLogger)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Mark(0, types.StatusCompleted); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	// Reopen and confirm the status survived.
	s2, err := NewFileStore(path, testLogger)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	pending, _ := s2.Pending()
	if len(pending) != 1 || pending[0].Title != "任务二" {
		t.Errorf("mark did not persist: %+v", pending)
	}
}

func TestFileStoreMarkOutOfRange(t *testing.T) {
	path := writeTaskFile(t, "任务一,\n")
	s, err := NewFileStore(path, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Mark(5, types.StatusCompleted); err == nil {
		t.Error("expected error for out-of-range row")
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "absent.csv"), testLogger)
	if err == nil {
		t.Fatal("expected error for missing task list")
	}
	var storeErr *types.StoreError
	if !errors.As(err, &storeErr) {
		t.Errorf("expected StoreError, got %T", err)
	}
}
