package fetch

import "time"

// EventKind names a request lifecycle stage.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCached    EventKind = "cached"
	EventSucceeded EventKind = "succeeded"
	EventFailed    EventKind = "failed"
)

// Event reports one lifecycle stage of a Fetch.
type Event struct {
	Kind     EventKind
	Query    Query
	Status   int
	Duration time.Duration
	Err      error
	Time     time.Time
}
