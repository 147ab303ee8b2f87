package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

const (
	defaultBufferSize = 1024
	flushBatchSize    = 100
)

// Event is one client interaction record. Emission is fire-and-forget:
// the request path never waits on analytics.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	ItemID    string    `json:"itemId,omitempty"`
	Position  int       `json:"position,omitempty"`
	At        time.Time `json:"at"`
}

// Sink receives serialized event batches.
type Sink interface {
	Append(ctx context.Context, payloads [][]byte) error
}

// Emitter buffers events behind a channel and flushes them to the sink
// in batches. Emit never blocks: when the buffer is full the event is
// dropped and counted.
type Emitter struct {
	sink   Sink
	events chan Event

	mu  sync.Mutex
	buf []Event

	dropped atomic.Int64
	flushed atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEmitter(sink Sink) *Emitter {
	ctx, cancel := context.WithCancel(context.Background())
	return &Emitter{
		sink:   sink,
		events: make(chan Event, defaultBufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (e *Emitter) Start() {
	e.wg.Add(1)
	go e.worker()
}

// Stop drains what it can and shuts the worker down.
func (e *Emitter) Stop() {
	e.cancel()
	e.wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Flush(flushCtx); err != nil {
		slog.Warn("Final event flush failed", "error", err)
	}
}

// Emit queues an event without blocking. Events emitted while the
// buffer is full are dropped.
func (e *Emitter) Emit(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	select {
	case e.events <- event:
	default:
		e.dropped.Add(1)
	}
}

// Flush writes everything currently buffered to the sink. Called on a
// schedule and at shutdown; the worker also flushes when a batch fills.
func (e *Emitter) Flush(ctx context.Context) error {
	e.drain()

	e.mu.Lock()
	if len(e.buf) == 0 {
		e.mu.Unlock()
		return nil
	}
	batch := e.buf
	e.buf = nil
	e.mu.Unlock()

	payloads := make([][]byte, 0, len(batch))
	for _, event := range batch {
		payload, err := json.Marshal(event)
		if err != nil {
			slog.Warn("Failed to serialize event", "type", event.Type, "error", err)
			continue
		}
		payloads = append(payloads, payload)
	}

	if err := e.sink.Append(ctx, payloads); err != nil {
		// Requeue so the next flush retries the batch.
		e.mu.Lock()
		e.buf = append(batch, e.buf...)
		e.mu.Unlock()
		return err
	}

	e.flushed.Add(int64(len(payloads)))
	return nil
}

// Stats returns flushed, dropped, and currently buffered counts.
func (e *Emitter) Stats() (flushed, dropped int64, buffered int) {
	e.mu.Lock()
	buffered = len(e.buf) + len(e.events)
	e.mu.Unlock()
	return e.flushed.Load(), e.dropped.Load(), buffered
}

func (e *Emitter) worker() {
	defer e.wg.Done()

	for {
		select {
		case event := <-e.events:
			e.mu.Lock()
			e.buf = append(e.buf, event)
			full := len(e.buf) >= flushBatchSize
			e.mu.Unlock()

			if full {
				if err := e.Flush(e.ctx); err != nil {
					slog.Warn("Event flush failed", "error", err)
				}
			}

		case <-e.ctx.Done():
			return
		}
	}
}

// drain moves everything pending on the channel into the buffer.
func (e *Emitter) drain() {
	for {
		select {
		case event := <-e.events:
			e.mu.Lock()
			e.buf = append(e.buf, event)
			e.mu.Unlock()
		default:
			return
		}
	}
}
