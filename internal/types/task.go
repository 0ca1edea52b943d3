package types

// TaskStatus is the terminal state recorded for a task row.
type TaskStatus string

// Status sentinels written back to the task list. The completed sentinel
// matches what the spreadsheet readers downstream expect, so it must not
// be localized or reworded.
const (
	StatusPending   TaskStatus = ""
	StatusCompleted TaskStatus = "文章已创作"
	StatusFailed    TaskStatus = "创作失败"
)

// Task is one row of the task list. Identity is the row position.
type Task struct {
	Row    int
	Title  string
	Status TaskStatus
}

// Terminal reports whether the task has already reached a final state
// and must not be re-processed.
func (t Task) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}
