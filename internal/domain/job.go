package domain

// JobState represents the lifecycle state of an asynchronous server job.
type JobState string

// Job lifecycle states.
const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// IsTerminal reports whether polling stops at this state.
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobStatus is the client view of a long-running server job.
type JobStatus struct {
	JobID           string
	Status          JobState
	ProgressPercent float64
	ProcessedCount  int
	HiddenCount     int
	ErrorMessage    string
}

// JobOutcome is the terminal result of polling a job.
type JobOutcome string

// Job outcomes.
const (
	OutcomeCompleted JobOutcome = "completed"
	OutcomeFailed    JobOutcome = "failed"
	OutcomeTimedOut  JobOutcome = "timed_out"
	OutcomeCanceled  JobOutcome = "canceled"
)

// JobResult summarises a finished poll loop.
type JobResult struct {
	JobID    string
	Outcome  JobOutcome
	Attempts int
	Last     JobStatus
}
