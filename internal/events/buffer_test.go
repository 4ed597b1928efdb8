package events

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func makeEvent(chatID, kind, formatted string) FormattedEvent {
	return FormattedEvent{
		ChatID:    chatID,
		Kind:      kind,
		Formatted: formatted,
		Timestamp: time.Now(),
	}
}

func TestEventBuffer_Eviction(t *testing.T) {
	buf := NewRingBuffer(3)

	// Fill the buffer.
	buf.Add(makeEvent("738792308", "succeeded", "event-1"))
	buf.Add(makeEvent("738792308", "succeeded", "event-2"))
	buf.Add(makeEvent("738792308", "succeeded", "event-3"))

	if buf.Len() != 3 {
		t.Fatalf("expected len=3, got %d", buf.Len())
	}

	// Add one more; oldest (event-1) should be evicted.
	buf.Add(makeEvent("738792308", "succeeded", "event-4"))

	if buf.Len() != 3 {
		t.Fatalf("expected len=3 after eviction, got %d", buf.Len())
	}

	all := buf.ListAll()
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}

	// Verify chronological order: event-2, event-3, event-4.
	expectedOrder := []string{"event-2", "event-3", "event-4"}
	for i, expected := range expectedOrder {
		if all[i].Formatted != expected {
			t.Errorf("position %d: expected %q, got %q", i, expected, all[i].Formatted)
		}
	}

	// Add two more; event-2 and event-3 should be evicted.
	buf.Add(makeEvent("738792308", "succeeded", "event-5"))
	buf.Add(makeEvent("738792308", "succeeded", "event-6"))

	all = buf.ListAll()
	expectedOrder = []string{"event-4", "event-5", "event-6"}
	for i, expected := range expectedOrder {
		if all[i].Formatted != expected {
			t.Errorf("position %d: expected %q, got %q", i, expected, all[i].Formatted)
		}
	}
}

func TestEventBuffer_CapacityOne(t *testing.T) {
	buf := NewRingBuffer(1)

	buf.Add(makeEvent("738792308", "succeeded", "first"))
	if buf.Len() != 1 {
		t.Fatalf("expected len=1, got %d", buf.Len())
	}

	all := buf.ListAll()
	if all[0].Formatted != "first" {
		t.Errorf("expected 'first', got %q", all[0].Formatted)
	}

	// Adding another evicts the first.
	buf.Add(makeEvent("738792308", "succeeded", "second"))
	if buf.Len() != 1 {
		t.Fatalf("expected len=1, got %d", buf.Len())
	}

	all = buf.ListAll()
	if all[0].Formatted != "second" {
		t.Errorf("expected 'second', got %q", all[0].Formatted)
	}
}

func TestEventBuffer_Empty(t *testing.T) {
	buf := NewRingBuffer(10)

	all := buf.ListAll()
	if all != nil {
		t.Errorf("expected nil for empty buffer, got %v", all)
	}
	if buf.Len() != 0 {
		t.Errorf("expected len=0, got %d", buf.Len())
	}
}

func TestEventBuffer_ListByChat(t *testing.T) {
	buf := NewRingBuffer(10)

	buf.Add(makeEvent("738792308", "succeeded", "s1-event-1"))
	buf.Add(makeEvent("42", "succeeded", "s2-event-1"))
	buf.Add(makeEvent("738792308", "failed", "s1-event-2"))
	buf.Add(makeEvent("7001", "started", "s3-event-1"))
	buf.Add(makeEvent("42", "succeeded", "s2-event-2"))

	s1Events := buf.ListByChat("738792308")
	if len(s1Events) != 2 {
		t.Fatalf("expected 2 events for 738792308, got %d", len(s1Events))
	}
	if s1Events[0].Formatted != "s1-event-1" {
		t.Errorf("expected 's1-event-1', got %q", s1Events[0].Formatted)
	}
	if s1Events[1].Formatted != "s1-event-2" {
		t.Errorf("expected 's1-event-2', got %q", s1Events[1].Formatted)
	}

	s2Events := buf.ListByChat("42")
	if len(s2Events) != 2 {
		t.Fatalf("expected 2 events for 42, got %d", len(s2Events))
	}

	// Unknown chat.
	s4Events := buf.ListByChat("9")
	if len(s4Events) != 0 {
		t.Errorf("expected 0 events for 9, got %d", len(s4Events))
	}
}

func TestEventBuffer_ListByKind(t *testing.T) {
	buf := NewRingBuffer(10)

	buf.Add(makeEvent("738792308", "succeeded", "req-1"))
	buf.Add(makeEvent("738792308", "failed", "err-1"))
	buf.Add(makeEvent("42", "succeeded", "req-2"))
	buf.Add(makeEvent("42", "started", "prompt-1"))

	requests := buf.ListByKind("succeeded")
	if len(requests) != 2 {
		t.Fatalf("expected 2 succeeded events, got %d", len(requests))
	}

	failures := buf.ListByKind("failed")
	if len(failures) != 1 {
		t.Fatalf("expected 1 failed event, got %d", len(failures))
	}

	hits := buf.ListByKind("cached")
	if len(hits) != 0 {
		t.Errorf("expected 0 cached events, got %d", len(hits))
	}
}

func TestEventBuffer_PartialFill(t *testing.T) {
	buf := NewRingBuffer(5)

	buf.Add(makeEvent("738792308", "succeeded", "event-1"))
	buf.Add(makeEvent("738792308", "succeeded", "event-2"))

	if buf.Len() != 2 {
		t.Errorf("expected len=2, got %d", buf.Len())
	}
	if buf.Cap() != 5 {
		t.Errorf("expected cap=5, got %d", buf.Cap())
	}

	all := buf.ListAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}
	if all[0].Formatted != "event-1" || all[1].Formatted != "event-2" {
		t.Error("events not in expected order")
	}
}

func TestEventBuffer_WrapAround(t *testing.T) {
	buf := NewRingBuffer(3)

	// Fill and wrap around multiple times.
	for i := 0; i < 10; i++ {
		buf.Add(makeEvent("738792308", "succeeded", fmt.Sprintf("event-%d", i)))
	}

	all := buf.ListAll()
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}

	// Should contain events 7, 8, 9.
	for i, expected := range []string{"event-7", "event-8", "event-9"} {
		if all[i].Formatted != expected {
			t.Errorf("position %d: expected %q, got %q", i, expected, all[i].Formatted)
		}
	}
}

func TestEventBuffer_ConcurrentAccess(t *testing.T) {
	buf := NewRingBuffer(100)
	var wg sync.WaitGroup

	// Concurrent writers.
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			buf.Add(makeEvent(
				fmt.Sprintf("s%d", n%5),
				"succeeded",
				fmt.Sprintf("event-%d", n),
			))
		}(i)
	}

	// Concurrent readers.
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf.ListAll()
			buf.ListByChat("s0")
			buf.ListByKind("succeeded")
			buf.Len()
		}()
	}

	wg.Wait()

	if buf.Len() != 50 {
		t.Errorf("expected len=50, got %d", buf.Len())
	}
}

func TestEventBuffer_LargeEviction(t *testing.T) {
	buf := NewRingBuffer(1000)

	// Add 1001 events; first should be evicted.
	for i := 0; i < 1001; i++ {
		buf.Add(makeEvent("738792308", "succeeded", fmt.Sprintf("event-%d", i)))
	}

	if buf.Len() != 1000 {
		t.Fatalf("expected len=1000, got %d", buf.Len())
	}

	all := buf.ListAll()
	// First event should be event-1 (event-0 was evicted).
	if all[0].Formatted != "event-1" {
		t.Errorf("expected first event to be 'event-1', got %q", all[0].Formatted)
	}
	// Last event should be event-1000.
	if all[999].Formatted != "event-1000" {
		t.Errorf("expected last event to be 'event-1000', got %q", all[999].Formatted)
	}
}

func TestEventBuffer_ZeroCapacity(t *testing.T) {
	// Zero capacity should be clamped to 1.
	buf := NewRingBuffer(0)
	if buf.Cap() != 1 {
		t.Errorf("expected cap=1 for zero capacity input, got %d", buf.Cap())
	}

	buf.Add(makeEvent("738792308", "succeeded", "test"))
	if buf.Len() != 1 {
		t.Errorf("expected len=1, got %d", buf.Len())
	}
}

func TestEventBuffer_Latest(t *testing.T) {
	buf := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		buf.Add(makeEvent("738792308", "succeeded", fmt.Sprintf("event-%d", i)))
	}

	latest := buf.Latest(2)
	if len(latest) != 2 {
		t.Fatalf("expected 2 events, got %d", len(latest))
	}
	if latest[0].Formatted != "event-4" || latest[1].Formatted != "event-3" {
		t.Errorf("expected newest first, got %q, %q", latest[0].Formatted, latest[1].Formatted)
	}

	if got := buf.Latest(10); len(got) != 3 {
		t.Errorf("Latest beyond len: expected 3, got %d", len(got))
	}
	if got := NewRingBuffer(2).Latest(5); len(got) != 0 {
		t.Errorf("empty buffer: expected 0, got %d", len(got))
	}
}
