package events

import "time"

// FormattedEvent holds a display-ready activity line with metadata.
type FormattedEvent struct {
	Kind      string    `json:"kind"` // started, cached, succeeded, failed
	ChatID    string    `json:"chatId"`
	FromDate  string    `json:"fromDate"`
	Formatted string    `json:"formatted"` // display-ready string
	Timestamp time.Time `json:"timestamp"`
	Success   *bool     `json:"success"` // nil while a request is in progress
}
