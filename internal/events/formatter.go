// Package events formats and buffers fetch activity for the dashboard's
// activity log.
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nixlim/chat-top/internal/fetch"
)

// FormatFetchEvent converts a fetcher lifecycle event into a display line:
//   - started:   "[chat] 2024-03-07 requesting"
//   - cached:    "[chat] 2024-03-07 served from cache"
//   - succeeded: "[chat] 2024-03-07 ok 200 (0.3s)"
//   - failed:    "[chat] 2024-03-07 failed 502 (0.1s): reason"
func FormatFetchEvent(e fetch.Event) FormattedEvent {
	fe := FormattedEvent{
		Kind:      string(e.Kind),
		ChatID:    e.Query.ChatID,
		FromDate:  e.Query.FromDate,
		Timestamp: e.Time,
	}
	if fe.Timestamp.IsZero() {
		fe.Timestamp = time.Now()
	}

	prefix := fmt.Sprintf("[%s] %s", shortID(e.Query.ChatID), e.Query.FromDate)

	switch e.Kind {
	case fetch.EventStarted:
		fe.Formatted = prefix + " requesting"
	case fetch.EventCached:
		fe.Formatted = prefix + " served from cache"
		fe.Success = boolPtr(true)
	case fetch.EventSucceeded:
		fe.Formatted = fmt.Sprintf("%s ok %d (%s)", prefix, e.Status, FormatDuration(e.Duration))
		fe.Success = boolPtr(true)
	case fetch.EventFailed:
		fe.Formatted = formatFailure(prefix, e)
		fe.Success = boolPtr(false)
	default:
		fe.Formatted = fmt.Sprintf("%s %s", prefix, e.Kind)
	}

	return fe
}

func formatFailure(prefix string, e fetch.Event) string {
	reason := "error"
	switch {
	case errors.Is(e.Err, fetch.ErrStatus):
		reason = "bad status"
	case errors.Is(e.Err, fetch.ErrMalformedBody):
		reason = "malformed body"
	case errors.Is(e.Err, fetch.ErrTransport):
		reason = "unreachable"
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s failed %d (%s): %s", prefix, e.Status, FormatDuration(e.Duration), reason)
	}
	return fmt.Sprintf("%s failed (%s): %s", prefix, FormatDuration(e.Duration), reason)
}

// FormatDuration renders d in seconds with one decimal, e.g. "1.2s".
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// shortID truncates long chat identifiers to 12 runes for display.
func shortID(id string) string {
	r := []rune(id)
	if len(r) <= 12 {
		return id
	}
	return string(r[:12])
}

func boolPtr(b bool) *bool {
	return &b
}
