package gorm

import "time"

// Database records. Schema is managed by the migrations under db/migrations;
// these structs only map columns.

type runRecord struct {
	ID         string `gorm:"primaryKey"`
	StackPath  string
	StartedAt  time.Time
	FinishedAt *time.Time
	Outcome    string
	Error      string
}

func (runRecord) TableName() string {
	return "runs"
}

type serviceStateRecord struct {
	RunID     string `gorm:"primaryKey"`
	Service   string `gorm:"primaryKey"`
	Status    string
	PID       int `gorm:"column:pid"`
	ExitCode  *int
	Error     string
	UpdatedAt time.Time
}

func (serviceStateRecord) TableName() string {
	return "service_states"
}

type probeAttemptRecord struct {
	ID        int64 `gorm:"primaryKey"`
	RunID     string
	Service   string
	Attempt   int
	Success   bool
	Error     string
	ElapsedMs int64
	At        time.Time
}

func (probeAttemptRecord) TableName() string {
	return "probe_attempts"
}

type eventRecord struct {
	ID       int64 `gorm:"primaryKey"`
	RunID    string
	Service  string
	Kind     string
	Severity string
	Message  string
	At       time.Time
}

func (eventRecord) TableName() string {
	return "events"
}
