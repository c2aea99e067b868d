package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Observer reacts to an event. Errors are logged, never returned to the
// poster.
type Observer func(ctx context.Context, e Event) error

// Bus delivers events to observers on a fixed pool of workers, so slow
// observers never hold up the request that posted the event. A bus that was
// not started delivers synchronously.
type Bus struct {
	logger *zap.Logger
	count  int

	mu        sync.RWMutex
	observers map[Kind][]Observer
	started   bool
	stopped   bool

	queue   chan Event
	posting sync.WaitGroup
	wg      sync.WaitGroup
}

func NewBus(logger *zap.Logger, workers, buffer int) *Bus {
	return &Bus{
		logger:    logger,
		count:     workers,
		observers: make(map[Kind][]Observer),
		queue:     make(chan Event, buffer),
	}
}

func (b *Bus) Subscribe(kind Kind, o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers[kind] = append(b.observers[kind], o)
}

// SubscribeAll registers o for every task event kind.
func (b *Bus) SubscribeAll(o Observer) {
	for _, k := range []Kind{TaskCreated, TaskEdited, TaskCompleted, TaskDeleted} {
		b.Subscribe(k, o)
	}
}

func (b *Bus) HasObservers(kind Kind) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers[kind]) > 0
}

// Post queues e for delivery. It waits for queue space until ctx is done and
// drops the event after Stop.
func (b *Bus) Post(ctx context.Context, e Event) {
	b.mu.RLock()
	observers := b.observers[e.Kind]
	started, stopped := b.started, b.stopped
	if started && !stopped && len(observers) > 0 {
		b.posting.Add(1)
		defer b.posting.Done()
	}
	b.mu.RUnlock()

	switch {
	case len(observers) == 0:
		return
	case stopped:
		b.logger.Warn("event dropped, bus stopped", zap.String("kind", string(e.Kind)), zap.Int64("task_id", e.Task.ID))
		return
	case !started:
		b.deliver(ctx, e, observers)
		return
	}

	select {
	case b.queue <- e:
	case <-ctx.Done():
		b.logger.Warn("event dropped", zap.String("kind", string(e.Kind)), zap.Error(ctx.Err()))
	}
}

func (b *Bus) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.count <= 0 {
		return
	}
	b.started = true

	b.logger.Info("Starting event workers", zap.Int("workers", b.count))
	for i := 0; i < b.count; i++ {
		b.wg.Add(1)
		go b.worker(ctx, i)
	}
}

// Stop delivers what is already queued, then waits for the workers to exit.
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	started := b.started
	b.mu.Unlock()

	if !started {
		return
	}
	b.logger.Info("Stopping event workers...")
	b.posting.Wait()
	close(b.queue)
	b.wg.Wait()
	b.logger.Info("Event workers stopped")
}

func (b *Bus) worker(ctx context.Context, id int) {
	defer b.wg.Done()

	for e := range b.queue {
		b.mu.RLock()
		observers := b.observers[e.Kind]
		b.mu.RUnlock()

		b.deliver(ctx, e, observers)
	}
	b.logger.Debug("event worker exited", zap.Int("worker", id))
}

func (b *Bus) deliver(ctx context.Context, e Event, observers []Observer) {
	for _, o := range observers {
		if err := b.call(ctx, o, e); err != nil {
			b.logger.Error("observer failed",
				zap.String("kind", string(e.Kind)),
				zap.Int64("task_id", e.Task.ID),
				zap.Error(err),
			)
		}
	}
}

func (b *Bus) call(ctx context.Context, o Observer, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return o(ctx, e)
}

// LogObserver writes every event to logger.
func LogObserver(logger *zap.Logger) Observer {
	return func(ctx context.Context, e Event) error {
		logger.Info("task event",
			zap.String("kind", string(e.Kind)),
			zap.String("property", string(e.Property)),
			zap.Int64("task_id", e.Task.ID),
			zap.Int64("list_id", e.Task.ListID),
		)
		return nil
	}
}
