package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-api/internal/api/metrics"
	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

var _ ports.EventRecorder = (*Dispatcher)(nil)

// Dispatcher routes lifecycle events to a fixed set of workers sharded by
// customer ID, so events for one customer are handled in order.
type Dispatcher struct {
	workers []chan domain.CustomerEvent
	service ports.EventService
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.EventService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.CustomerEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.CustomerEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Events are processed with ctx.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Record hands an event to the worker responsible for its customer. It never
// blocks: when that worker's buffer is full, or after Close, the event is
// dropped and counted.
func (d *Dispatcher) Record(event domain.CustomerEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(event, "closed")
		return
	}

	idx := d.shardIndex(event.CustomerID)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(event, "queue_full")
	}
}

// Close stops accepting events and waits for the workers to drain what is
// already queued.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// shardIndex maps a customer ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(customerID int64) int {
	n := int64(len(d.workers))
	return int(((customerID % n) + n) % n)
}

func (d *Dispatcher) drop(event domain.CustomerEvent, reason string) {
	metrics.EventsErrorsTotal.WithLabelValues(reason).Inc()
	d.log.Warn().
		Int64("customer_id", event.CustomerID).
		Str("type", string(event.Type)).
		Str("reason", reason).
		Msg("customer event dropped")
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.CustomerEvent) {
	defer d.wg.Done()
	workerID := strconv.Itoa(id)

	for event := range ch {
		metrics.EventsQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))

		start := time.Now()
		err := d.service.Process(ctx, event)

		result := "ok"
		if err != nil {
			result = "error"
			metrics.EventsErrorsTotal.WithLabelValues("process").Inc()
			d.log.Error().Err(err).
				Int64("customer_id", event.CustomerID).
				Str("type", string(event.Type)).
				Int("worker_id", id).
				Msg("event processing failed")
		} else {
			metrics.EventsProcessedTotal.WithLabelValues(string(event.Type)).Inc()
		}
		metrics.EventProcessingDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}
}
