package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"bilancio/internal/core"
)

// NotificationPublisher delivers a batch of due-payment notifications.
type NotificationPublisher interface {
	PublishNotifications(ctx context.Context, ref core.Date, notifications []core.Notification) error
}

// NotificationWorkerConfig holds configuration for the notification worker
type NotificationWorkerConfig struct {
	// Interval is how often notifications are recomputed (default: 1h)
	Interval time.Duration

	// Notifier controls the due window and message formatting
	Notifier NotifierOptions
}

func DefaultNotificationWorkerConfig() NotificationWorkerConfig {
	return NotificationWorkerConfig{
		Interval: time.Hour,
		Notifier: NotifierOptions{WindowDays: DefaultWindowDays},
	}
}

// NotificationWorker periodically recomputes due-payment notifications from
// the store and hands them to a publisher. A batch identical to the previous
// one is not published again.
type NotificationWorker struct {
	dashboard *DashboardService
	publisher NotificationPublisher
	config    NotificationWorkerConfig
	now       func() time.Time

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	lastSent string
}

func NewNotificationWorker(records RecordReader, publisher NotificationPublisher, config NotificationWorkerConfig) *NotificationWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultNotificationWorkerConfig().Interval
	}
	return &NotificationWorker{
		dashboard: NewDashboardService(records, config.Notifier),
		publisher: publisher,
		config:    config,
		now:       time.Now,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("notification worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Notification worker started",
		"interval", w.config.Interval,
		"window_days", w.dashboard.notifier.WindowDays)
	return nil
}

// Stop signals the loop to exit and waits for it, or for ctx to expire.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		slog.InfoContext(ctx, "Notification worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Notification worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

func (w *NotificationWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *NotificationWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Check immediately on startup
	w.RunOnce(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce recomputes notifications for today and publishes them when they
// differ from the last published batch. It returns the computed batch.
func (w *NotificationWorker) RunOnce(ctx context.Context) []core.Notification {
	ref := core.DateOf(w.now().UTC())
	notifications := w.dashboard.Notifications(ref)
	if len(notifications) == 0 {
		return nil
	}

	key := batchKey(ref, notifications)
	w.mu.Lock()
	unchanged := key == w.lastSent
	w.mu.Unlock()
	if unchanged {
		slog.DebugContext(ctx, "Notifications unchanged, skipping publish", "count", len(notifications))
		return notifications
	}

	if w.publisher == nil {
		slog.WarnContext(ctx, "No notification publisher configured", "count", len(notifications))
		return notifications
	}
	if err := w.publisher.PublishNotifications(ctx, ref, notifications); err != nil {
		slog.ErrorContext(ctx, "Failed to publish notifications",
			"count", len(notifications),
			"error", err)
		return notifications
	}

	w.mu.Lock()
	w.lastSent = key
	w.mu.Unlock()

	slog.InfoContext(ctx, "Notifications published",
		"date", ref.String(),
		"count", len(notifications))
	return notifications
}

func batchKey(ref core.Date, ns []core.Notification) string {
	var b strings.Builder
	b.WriteString(ref.String())
	for _, n := range ns {
		fmt.Fprintf(&b, "|%s:%d", n.PaymentID, n.DaysUntilDue)
	}
	return b.String()
}
