package history

import "time"

// Kind identifies which endpoint served a request.
type Kind string

const (
	KindSearch   Kind = "search"
	KindIdentify Kind = "identify"
)

// Status is the outcome of a request.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Entry is a single recorded search or identification.
type Entry struct {
	ID             string        `json:"id"`
	Timestamp      time.Time     `json:"timestamp"`
	Kind           Kind          `json:"kind"`
	Query          string        `json:"query,omitempty"`
	PredictedClass string        `json:"predicted_class,omitempty"`
	Probability    *float64      `json:"probability,omitempty"`
	DatabaseCount  int           `json:"database_count"`
	WebCount       int           `json:"web_count"`
	Status         Status        `json:"status"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
}
