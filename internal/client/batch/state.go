package batch

import (
	"github.com/dmitrijs2005/gophstore/internal/client/uploader"
)

// State is the lifecycle position of one upload attempt.
type State int

const (
	StatePending State = iota
	StateAuthorizing
	StateUploading
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAuthorizing:
		return "authorizing"
	case StateUploading:
		return "uploading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further automatic transition follows.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// AttemptState is a copy of one attempt's state. Progress is meaningful
// while uploading; URL once succeeded; Err once failed.
type AttemptState struct {
	Index    int
	FileName string
	State    State
	Progress int
	URL      string
	Err      *uploader.Error
	Tries    int
	// Removed is set on the last event of an index dropped by RemoveAsset.
	Removed bool
}

// Status is the aggregate verdict over every attempt.
type Status int

const (
	StatusEmpty Status = iota
	StatusPending
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is what Run reports once every launched attempt is terminal.
type Outcome struct {
	Status Status
	// URLs holds every succeeded index, also when the batch failed.
	URLs     map[int]string
	Failures []*uploader.Error
}

// Succeeded reports whether every attempt in the batch succeeded.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}

// aggregate folds attempt states into a verdict. A failure wins over
// anything still in flight.
func aggregate(states []AttemptState) Status {
	if len(states) == 0 {
		return StatusEmpty
	}
	var pending, running, succeeded int
	for _, s := range states {
		switch s.State {
		case StateFailed:
			return StatusFailed
		case StateSucceeded:
			succeeded++
		case StatePending:
			pending++
		default:
			running++
		}
	}
	switch {
	case succeeded == len(states):
		return StatusSucceeded
	case running > 0:
		return StatusRunning
	default:
		return StatusPending
	}
}
