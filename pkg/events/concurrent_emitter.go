package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nmxmxh/referral-leaderboard/pkg/logger"
)

var (
	// ErrQueueFull is returned when the delivery queue cannot take another event.
	ErrQueueFull = errors.New("event queue full")
	// ErrEmitterClosed is returned for events emitted after Close.
	ErrEmitterClosed = errors.New("event emitter closed")
)

type queuedEvent struct {
	ctx      context.Context
	envelope *EventEnvelope
}

// ConcurrentEventEmitter hands envelopes to a pool of workers that deliver
// them through next, so callers never wait on the broker. Delivery failures
// are logged, not returned.
type ConcurrentEventEmitter struct {
	next    EventEmitter
	timeout time.Duration
	log     *zap.Logger

	queue    chan queuedEvent
	shutdown chan struct{}
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewConcurrentEventEmitter starts workers goroutines draining a queue of queueSize.
func NewConcurrentEventEmitter(next EventEmitter, workers, queueSize int, timeout time.Duration, log *zap.Logger) *ConcurrentEventEmitter {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	e := &ConcurrentEventEmitter{
		next:     next,
		timeout:  timeout,
		log:      logger.Module(log, "event_emitter"),
		queue:    make(chan queuedEvent, queueSize),
		shutdown: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

// EmitEventEnvelope enqueues envelope and returns its id without waiting for delivery.
func (e *ConcurrentEventEmitter) EmitEventEnvelope(ctx context.Context, envelope *EventEnvelope) (string, error) {
	if err := envelope.Validate(); err != nil {
		return "", err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return "", ErrEmitterClosed
	}
	select {
	case e.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), envelope: envelope}:
		return envelope.ID, nil
	default:
		e.log.Warn("EventEmitter queue full, dropping event", zap.String("event_type", envelope.Type), zap.String("event_id", envelope.ID))
		return "", ErrQueueFull
	}
}

func (e *ConcurrentEventEmitter) worker() {
	defer e.wg.Done()
	for {
		select {
		case ev := <-e.queue:
			e.deliver(ev)
		case <-e.shutdown:
			for {
				select {
				case ev := <-e.queue:
					e.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (e *ConcurrentEventEmitter) deliver(ev queuedEvent) {
	ctx, cancel := context.WithTimeout(ev.ctx, e.timeout)
	defer cancel()
	if _, err := e.next.EmitEventEnvelope(ctx, ev.envelope); err != nil {
		e.log.Warn("Failed to deliver event",
			zap.String("event_type", ev.envelope.Type),
			zap.String("event_id", ev.envelope.ID),
			zap.Error(err))
	}
}

// Close stops accepting events, delivers what is queued and waits for the workers.
func (e *ConcurrentEventEmitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.shutdown)
	e.mu.Unlock()
	e.wg.Wait()
}
