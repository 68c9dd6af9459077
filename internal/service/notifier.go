package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/consult-booking-api/internal/models"
	"github.com/noah-isme/consult-booking-api/pkg/jobs"
)

// Notifier receives booking lifecycle events after a successful commit.
// The booking itself has already committed when Notify runs: failures are
// logged and never surface to the caller.
type Notifier interface {
	Notify(ctx context.Context, event models.BookingEvent) error
}

// QueueNotifier dispatches booking events through the background job
// queue so the booking write path never waits on delivery.
type QueueNotifier struct {
	queue   *jobs.Queue
	logger  *zap.Logger
	metrics *MetricsService
}

// NotificationSink is the downstream delivery mechanism (email, push,
// webhook fan-out). It lives outside this core.
type NotificationSink interface {
	Deliver(ctx context.Context, event models.BookingEvent) error
}

// NewQueueNotifier builds the notifier and its worker queue.
func NewQueueNotifier(sink NotificationSink, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &QueueNotifier{logger: logger, metrics: metrics}
	n.queue = jobs.NewQueue("booking-notifications", func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(models.BookingEvent)
		if !ok {
			logger.Error("notification job carried unexpected payload", zap.String("job_id", job.ID))
			return nil
		}
		err := sink.Deliver(ctx, event)
		if n.metrics != nil {
			n.metrics.RecordNotification(string(event.Type), err == nil)
		}
		return err
	}, cfg)
	return n
}

// Start launches the queue workers.
func (n *QueueNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the queue workers.
func (n *QueueNotifier) Stop() {
	n.queue.Stop()
}

// Notify enqueues the event. Enqueue failures are logged and swallowed so
// a committed booking is never reported as failed.
func (n *QueueNotifier) Notify(ctx context.Context, event models.BookingEvent) error {
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	err := n.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    string(event.Type),
		Payload: event,
	})
	if err != nil {
		n.logger.Warn("failed to enqueue booking notification",
			zap.String("event", string(event.Type)),
			zap.String("booking_id", event.Booking.ID),
			zap.Error(err))
	}
	return nil
}

// LogSink is the default NotificationSink: it records the event in the
// service log. Real delivery integrations replace it in wiring.
type LogSink struct {
	Logger *zap.Logger
}

// Deliver writes the event to the log.
func (s *LogSink) Deliver(_ context.Context, event models.BookingEvent) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("booking event",
		zap.String("event", string(event.Type)),
		zap.String("booking_id", event.Booking.ID),
		zap.String("consultant_id", event.Booking.ConsultantID),
		zap.String("student_id", event.Booking.StudentID),
		zap.Time("scheduled_start", event.Booking.ScheduledStart))
	return nil
}
