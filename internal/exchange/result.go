package exchange

import "time"

// Status is the terminal state of a run
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// JobState is the state of one manifest entry's import
type JobState int

const (
	JobRequesting JobState = iota
	JobPolling
	JobSucceeded
	JobFailed
	JobCancelled
)

func (s JobState) String() string {
	switch s {
	case JobRequesting:
		return "requesting"
	case JobPolling:
		return "polling"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	case JobCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCancelled
}

// JobRecord is what remains of an import job once it reached a terminal state
type JobRecord struct {
	Filename string
	State    JobState
	Polls    int // number of "progress" replies before the terminal one
}

// Result is the tagged outcome of a run
type Result struct {
	RunID      string
	Mode       Mode
	Status     Status
	Err        error // *Error when Status is StatusFailed
	Manifest   []string
	Jobs       []JobRecord
	ChunkLimit int64
	BytesSent  int64
	Checksum   string
	Started    time.Time
	Finished   time.Time
}

// Success reports whether every manifest entry was imported
func (r Result) Success() bool {
	return r.Status == StatusSucceeded
}

// Kind returns the failure classification, if the run failed
func (r Result) Kind() (Kind, bool) {
	if r.Status != StatusFailed {
		return 0, false
	}
	return KindOf(r.Err)
}

// Imported lists the files that reached JobSucceeded
func (r Result) Imported() []string {
	var names []string
	for _, j := range r.Jobs {
		if j.State == JobSucceeded {
			names = append(names, j.Filename)
		}
	}
	return names
}

// Duration is the wall time of the run
func (r Result) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
