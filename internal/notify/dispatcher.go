package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLimit   = 8
	DefaultTimeout = 30 * time.Second
)

// Dispatcher sends batches of messages in the background. Every message of a
// batch is attempted; failures are logged and counted, never reported back.
type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	limit   int
	timeout time.Duration
	total   *prometheus.CounterVec

	wg sync.WaitGroup
}

// NewDispatcher registers the notifications_total counter on reg when reg is non-nil.
func NewDispatcher(sender Sender, logger *slog.Logger, reg prometheus.Registerer) *Dispatcher {
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notification send attempts",
		},
		[]string{"kind", "result"},
	)
	if reg != nil {
		reg.MustRegister(total)
	}

	return &Dispatcher{
		sender:  sender,
		logger:  logger,
		limit:   DefaultLimit,
		timeout: DefaultTimeout,
		total:   total,
	}
}

// Dispatch enqueues msgs and returns immediately.
func (d *Dispatcher) Dispatch(msgs ...EmailMessage) {
	if len(msgs) == 0 {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.send(msgs)
	}()
}

func (d *Dispatcher) send(msgs []EmailMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(d.limit)

	for _, msg := range msgs {
		msg := msg
		g.Go(func() error {
			if err := d.sender.Send(ctx, msg); err != nil {
				d.logger.Error("Error sending notification",
					slog.String("kind", string(msg.Kind)),
					slog.String("to", msg.To),
					slog.String("error", err.Error()),
				)
				d.total.WithLabelValues(string(msg.Kind), "error").Inc()
				return err
			}

			d.total.WithLabelValues(string(msg.Kind), "ok").Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		d.logger.Warn("Notification batch finished with failures", slog.Int("size", len(msgs)))
	}
}

// Wait blocks until every dispatched batch has been attempted.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
