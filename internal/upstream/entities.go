// Package upstream is the client for the surrounding planning system's HTTP
// API. It owns the raw entity shapes and the per-week fetch pass; it knows
// nothing about buckets or display concerns.
package upstream

// Task is a work item as the planning API returns it. Date fields are
// YYYY-MM-DD strings (occasionally full timestamps); empty means unset.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Status      string   `json:"status"`
	CompletedAt string   `json:"completedAt"`
	StartDate   string   `json:"startDate"`
	DueDate     string   `json:"dueDate"`
	PlannedFor  string   `json:"plannedFor"`
	CreatedAt   string   `json:"createdAt"`
	Phase       string   `json:"phase"`
	ProjectID   string   `json:"projectId"`
	Assignees   []string `json:"assignees"`
	IsBlocked   bool     `json:"isBlocked"`
	IsOneHour   bool     `json:"isOneHour"`
	IsPersonal  bool     `json:"isPersonal"`
	IsResult    bool     `json:"isResult"`
	TaskType    string   `json:"taskType"`
}

// Task statuses that exclude a task from every bucket.
const (
	StatusDone      = "done"
	StatusCancelled = "cancelled"
)

// Closed reports whether the task is finished or abandoned, by explicit
// status or completion timestamp.
func (t Task) Closed() bool {
	return t.Status == StatusDone || t.Status == StatusCancelled || t.CompletedAt != ""
}

// Meeting is a (possibly recurring) meeting entity. StartsAt is a wall
// clock HH:MM string; recurrence fields are used per RecurrenceType.
type Meeting struct {
	ID                    string `json:"id"`
	Title                 string `json:"title"`
	Platform              string `json:"platform"`
	StartsAt              string `json:"startsAt"`
	RecurrenceType        string `json:"recurrenceType"`
	RecurrenceDaysOfWeek  []int  `json:"recurrenceDaysOfWeek"`
	RecurrenceDaysOfMonth []int  `json:"recurrenceDaysOfMonth"`
	RecurrenceMonth       int    `json:"recurrenceMonth"`
	RecurrenceDay         int    `json:"recurrenceDay"`
	CreatedBy             string `json:"createdBy"`
	CreatedAt             string `json:"createdAt"`
}

// Project groups priority tasks. Kind is the explicit categorical flag;
// "extended" projects are additionally projected forward to their due date.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

const ProjectKindExtended = "extended"

// LeaveEntry is one approved leave interval. AllUsers marks an
// organization-wide event rather than a personal one.
type LeaveEntry struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	AllUsers  bool   `json:"allUsers"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	FullDay   bool   `json:"fullDay"`
	From      string `json:"from"`
	To        string `json:"to"`
	Note      string `json:"note"`
}

// User is one roster row; only active users count toward leave coverage.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// CommonEntry is a free-form dashboard entry: a category tag plus a
// description that may embed legacy structured fields (see internal/notes).
type CommonEntry struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy"`
	Date        string `json:"date"`
}
