package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

type fakeSink struct {
	mu       sync.Mutex
	payloads [][]byte
	fail     bool
}

func (f *fakeSink) Append(_ context.Context, payloads [][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("sink down")
	}
	f.payloads = append(f.payloads, payloads...)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func TestEmitterFlushDeliversEvents(t *testing.T) {
	sink := &fakeSink{}
	emitter := NewEmitter(sink)

	emitter.Emit(Event{Type: "impression", UserID: "u1", SessionID: "s1", ItemID: "item-1"})
	emitter.Emit(Event{Type: "click", UserID: "u1", SessionID: "s1", ItemID: "item-2", Position: 4})

	if err := emitter.Flush(context.Background()); err != nil {
		t.Fatalf("Expected flush to succeed, got error: %v", err)
	}

	if sink.count() != 2 {
		t.Fatalf("Expected 2 delivered events, got %d", sink.count())
	}

	var event Event
	if err := json.Unmarshal(sink.payloads[0], &event); err != nil {
		t.Fatalf("Expected valid JSON payload, got error: %v", err)
	}
	if event.Type != "impression" || event.ItemID != "item-1" {
		t.Errorf("Expected first event (impression, item-1), got (%s, %s)", event.Type, event.ItemID)
	}
	if event.At.IsZero() {
		t.Error("Expected emit to stamp the event time")
	}
}

func TestEmitterNeverBlocksWhenFull(t *testing.T) {
	emitter := NewEmitter(&fakeSink{})

	// No worker running: the channel fills, then emits must drop.
	for i := 0; i < defaultBufferSize+50; i++ {
		emitter.Emit(Event{Type: "impression", UserID: "u1", SessionID: "s1"})
	}

	_, dropped, buffered := emitter.Stats()
	if dropped != 50 {
		t.Errorf("Expected 50 dropped events, got %d", dropped)
	}
	if buffered != defaultBufferSize {
		t.Errorf("Expected %d buffered events, got %d", defaultBufferSize, buffered)
	}
}

func TestEmitterRetriesFailedFlush(t *testing.T) {
	sink := &fakeSink{fail: true}
	emitter := NewEmitter(sink)

	emitter.Emit(Event{Type: "click", UserID: "u1", SessionID: "s1"})

	if err := emitter.Flush(context.Background()); err == nil {
		t.Fatal("Expected flush to report the sink failure")
	}

	sink.mu.Lock()
	sink.fail = false
	sink.mu.Unlock()

	if err := emitter.Flush(context.Background()); err != nil {
		t.Fatalf("Expected retry flush to succeed, got error: %v", err)
	}
	if sink.count() != 1 {
		t.Errorf("Expected the failed batch to be redelivered, got %d events", sink.count())
	}
}

func TestEmitterFlushEmptyIsNoop(t *testing.T) {
	sink := &fakeSink{fail: true}
	emitter := NewEmitter(sink)

	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("Expected empty flush to skip the sink, got error: %v", err)
	}
}

func TestEmitterCountsFlushed(t *testing.T) {
	sink := &fakeSink{}
	emitter := NewEmitter(sink)

	for i := 0; i < 5; i++ {
		emitter.Emit(Event{Type: "impression", UserID: "u1", SessionID: "s1"})
	}
	if err := emitter.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	flushed, dropped, buffered := emitter.Stats()
	if flushed != 5 || dropped != 0 || buffered != 0 {
		t.Errorf("Expected (5, 0, 0), got (%d, %d, %d)", flushed, dropped, buffered)
	}
}
