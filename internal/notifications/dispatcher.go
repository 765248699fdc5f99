package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-router/pkg/logger"
	"github.com/angelmondragon/fulfillment-router/pkg/metrics"
)

const defaultDeliverTimeout = 5 * time.Second

// Dispatcher emits events without blocking the caller. Delivery runs on its
// own goroutine with a context detached from the request and a bounded
// timeout. Failures are logged and counted, never returned.
type Dispatcher struct {
	sink    Sink
	logg    *logger.Logger
	metrics *metrics.RoutingMetrics
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewDispatcher builds a dispatcher. A nil sink makes Emit a no-op.
func NewDispatcher(sink Sink, logg *logger.Logger, m *metrics.RoutingMetrics, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDeliverTimeout
	}
	return &Dispatcher{
		sink:    sink,
		logg:    logg,
		metrics: m,
		timeout: timeout,
		now:     time.Now,
	}
}

// Emit schedules delivery of event.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.sink == nil {
		return
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = d.now().UTC()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		err := d.sink.Deliver(deliverCtx, event)
		d.metrics.IncNotification(string(event.Type), err == nil)
		if err != nil && d.logg != nil {
			logCtx := d.logg.WithFields(deliverCtx, map[string]any{
				"event_type": event.Type,
				"order_id":   event.OrderID.String(),
			})
			d.logg.Error(logCtx, "notification delivery failed", err)
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
