package models

// Task is a to-do item. ID is assigned by the storage on creation.
type Task struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Status is the value of the list "status" query parameter.
type Status string

const (
	StatusAll          Status = "all"
	StatusCompleted    Status = "completed"
	StatusNotCompleted Status = "not_completed"
)

// ParseStatus matches the exact status names; anything else means all tasks.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusCompleted, StatusNotCompleted:
		return Status(s)
	default:
		return StatusAll
	}
}

// TaskFilter narrows a task listing. A nil Completed matches every task.
type TaskFilter struct {
	Completed *bool
}

// Filter converts the status into a storage filter.
func (s Status) Filter() TaskFilter {
	var completed *bool
	switch s {
	case StatusCompleted:
		val := true
		completed = &val
	case StatusNotCompleted:
		val := false
		completed = &val
	}
	return TaskFilter{Completed: completed}
}

// Matches reports whether the task passes the filter.
func (f TaskFilter) Matches(t Task) bool {
	return f.Completed == nil || *f.Completed == t.Completed
}
