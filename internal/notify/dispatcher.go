package notify

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Skotchmaster/desi_occasions/internal/metrics"
	"github.com/Skotchmaster/desi_occasions/internal/models"
	"github.com/Skotchmaster/desi_occasions/internal/whatsapp"
)

var (
	ErrQueueFull   = errors.New("notification queue full")
	ErrStopped     = errors.New("notification dispatcher stopped")
	ErrNoRecipient = errors.New("no recipient number")
)

// Job is one message to one number.
type Job struct {
	OrderID *uuid.UUID
	Kind    string
	To      string
	Body    string
}

type FailureLog interface {
	RecordFailure(ctx context.Context, f *models.NotificationFailure) error
}

type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Dispatcher delivers notifications off the request path. Enqueueing never
// blocks; anything that cannot be delivered ends up in the failure log.
type Dispatcher struct {
	sender   whatsapp.Sender
	failures FailureLog
	metrics  *metrics.Metrics
	log      *zap.Logger
	tracer   trace.Tracer

	queue   chan Job
	workers int
	timeout time.Duration

	mu        sync.RWMutex
	closed    bool
	started   bool
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewDispatcher(sender whatsapp.Sender, failures FailureLog, m *metrics.Metrics, log *zap.Logger, opt Options) *Dispatcher {
	if opt.Workers <= 0 {
		opt.Workers = 4
	}
	if opt.QueueSize <= 0 {
		opt.QueueSize = 256
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		sender:   sender,
		failures: failures,
		metrics:  m,
		log:      log.With(zap.String("component", "notify")),
		tracer:   otel.Tracer("desi_occasions/notify"),
		queue:    make(chan Job, opt.QueueSize),
		workers:  opt.Workers,
		timeout:  opt.Timeout,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, job Job) {
	if job.To == "" {
		d.fail(ctx, job, ErrNoRecipient)
		return
	}

	if err := d.enqueue(job); err != nil {
		d.fail(ctx, job, err)
		return
	}
	d.metrics.QueueDepth(len(d.queue))
	d.log.Debug("notification_enqueued", zap.String("kind", job.Kind))
}

func (d *Dispatcher) enqueue(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrStopped
	}
	select {
	case d.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. Sends run on a context detached from ctx's
// cancellation so queued messages still go out while the server drains.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		base := context.WithoutCancel(ctx)
		d.mu.Lock()
		d.started = true
		d.mu.Unlock()

		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.worker(base)
		}
		d.log.Info("notify_dispatcher_started", zap.Int("workers", d.workers), zap.Int("queue_size", cap(d.queue)))
	})
}

// Stop closes the queue and waits for the workers until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	var err error
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		started := d.started
		d.mu.Unlock()

		if !started {
			for job := range d.queue {
				d.fail(ctx, job, ErrStopped)
			}
			return
		}

		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			d.log.Info("notify_dispatcher_stopped")
		case <-ctx.Done():
			err = ctx.Err()
			d.log.Warn("notify_dispatcher_stop_timeout", zap.Int("pending", len(d.queue)))
		}
	})
	return err
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for job := range d.queue {
		d.metrics.QueueDepth(len(d.queue))
		d.deliver(ctx, job)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification_panic", zap.Any("panic", r), zap.String("stack", string(debug.Stack())))
			d.fail(ctx, job, errors.New("panic during send"))
		}
	}()

	attrs := []attribute.KeyValue{attribute.String("notify.kind", job.Kind)}
	if job.OrderID != nil {
		attrs = append(attrs, attribute.String("order.id", job.OrderID.String()))
	}
	ctx, span := d.tracer.Start(ctx, "notify.send", trace.WithAttributes(attrs...))
	defer span.End()

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if _, err := d.sender.Send(sendCtx, job.To, job.Body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		d.fail(ctx, job, err)
		return
	}
	d.metrics.Notification(job.Kind, "sent")
	d.log.Info("notification_sent", zap.String("kind", job.Kind), orderField(job))
}

func (d *Dispatcher) fail(ctx context.Context, job Job, cause error) {
	d.metrics.Notification(job.Kind, "failed")
	d.log.Warn("notification_failed", zap.String("kind", job.Kind), orderField(job), zap.Error(cause))

	if d.failures == nil {
		return
	}
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := d.failures.RecordFailure(recCtx, &models.NotificationFailure{
		OrderID: job.OrderID,
		Kind:    job.Kind,
		ToE164:  job.To,
		Body:    job.Body,
		Error:   cause.Error(),
	})
	if err != nil {
		d.log.Error("notification_failure_log_error", zap.String("kind", job.Kind), zap.Error(err))
	}
}

func orderField(job Job) zap.Field {
	if job.OrderID == nil {
		return zap.Skip()
	}
	return zap.String("order_id", job.OrderID.String())
}
