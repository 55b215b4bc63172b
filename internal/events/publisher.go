package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher fans events out to in-process subscribers through a bounded
// buffer. Publish never blocks; events are dropped with a warning when
// the buffer is full.
type Publisher struct {
	log    *zap.Logger
	buffer chan Event

	mu          sync.RWMutex
	subscribers []func(Event)

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewPublisher(log *zap.Logger, bufferSize int) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Publisher{
		log:    log.Named("events"),
		buffer: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a consumer. Consumers run on the dispatch
// goroutine and should return quickly.
func (p *Publisher) Subscribe(fn func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// Publish enqueues an event without blocking the caller.
func (p *Publisher) Publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	select {
	case p.buffer <- event:
	default:
		p.log.Warn("event buffer full, dropping event",
			zap.String("kind", string(event.Kind)),
			zap.String("user_id", event.UserID.String()),
		)
	}
}

// Start launches the dispatch loop.
func (p *Publisher) Start() {
	p.wg.Add(1)
	go p.dispatch()
}

// Stop drains remaining events and waits for the dispatch loop to exit.
// Safe to call more than once.
func (p *Publisher) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.done) })

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) dispatch() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.buffer:
			p.deliver(event)
		case <-p.done:
			// Drain whatever is already buffered, then exit.
			for {
				select {
				case event := <-p.buffer:
					p.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) deliver(event Event) {
	p.mu.RLock()
	subscribers := p.subscribers
	p.mu.RUnlock()

	for _, fn := range subscribers {
		fn(event)
	}

	p.log.Debug("event delivered",
		zap.String("id", event.ID),
		zap.String("kind", string(event.Kind)),
	)
}
