package session

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/daniacca/doughsim/internal/dough"
)

// Notifier is the interface that all notification channels must implement
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the type of notifier (e.g., "webhook", "websocket")
	Type() string

	// Notify delivers one event. The context bounds the delivery.
	Notify(ctx context.Context, event Event) error

	// Close releases any resources held by the notifier
	Close() error
}

type subscription struct {
	notifier Notifier
	// types is nil when the notifier wants every event.
	types map[EventType]struct{}
}

func (s subscription) wants(t EventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[t]
	return ok
}

type notificationJob struct {
	Event       Event
	NotifierIDs []string
}

// NotificationManager routes session events to registered notifiers through
// a bounded queue drained by a single worker.
type NotificationManager struct {
	mu        sync.RWMutex
	notifiers map[string]subscription
	jobs      chan notificationJob
	closed    bool
	wg        sync.WaitGroup
	logger    dough.Logger
}

const (
	queueSize      = 1024
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	deliverTimeout = 30 * time.Second
)

// NewNotificationManager creates a new notification manager and starts its worker.
func NewNotificationManager(logger dough.Logger) *NotificationManager {
	if logger == nil {
		logger = dough.NewNoOpLogger()
	}
	mgr := &NotificationManager{
		notifiers: make(map[string]subscription),
		jobs:      make(chan notificationJob, queueSize),
		logger:    logger,
	}
	mgr.startWorkers(1)
	return mgr
}

// RegisterNotifier subscribes a notifier to the given event types, or to
// every type when none are given.
func (nm *NotificationManager) RegisterNotifier(notifier Notifier, types ...EventType) error {
	if notifier == nil {
		return fmt.Errorf("notifier cannot be nil")
	}

	id := notifier.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	sub := subscription{notifier: notifier}
	if len(types) > 0 {
		sub.types = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()

	if nm.closed {
		return fmt.Errorf("notification manager is closed")
	}
	if _, exists := nm.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}

	nm.notifiers[id] = sub
	return nil
}

// UnregisterNotifier closes and removes a notifier.
func (nm *NotificationManager) UnregisterNotifier(id string) error {
	nm.mu.Lock()
	sub, exists := nm.notifiers[id]
	delete(nm.notifiers, id)
	nm.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}

	if err := sub.notifier.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}
	return nil
}

// GetNotifier retrieves a notifier by ID
func (nm *NotificationManager) GetNotifier(id string) (Notifier, bool) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	sub, exists := nm.notifiers[id]
	return sub.notifier, exists
}

// ListNotifiers returns the sorted IDs of all registered notifiers
func (nm *NotificationManager) ListNotifiers() []string {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	ids := make([]string, 0, len(nm.notifiers))
	for id := range nm.notifiers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Subscribers returns the IDs of notifiers that want events of type t.
func (nm *NotificationManager) Subscribers(t EventType) []string {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	var ids []string
	for id, sub := range nm.notifiers {
		if sub.wants(t) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// HasSubscribers reports whether any notifier wants events of type t.
func (nm *NotificationManager) HasSubscribers(t EventType) bool {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	for _, sub := range nm.notifiers {
		if sub.wants(t) {
			return true
		}
	}
	return false
}

// Enqueue hands an event to the worker. It never blocks: when the queue is
// full the event is dropped.
func (nm *NotificationManager) Enqueue(event Event) {
	ids := nm.Subscribers(event.Type)
	if len(ids) == 0 {
		return
	}

	nm.mu.RLock()
	defer nm.mu.RUnlock()
	if nm.closed {
		return
	}

	select {
	case nm.jobs <- notificationJob{Event: event, NotifierIDs: ids}:
	default:
		nm.logger.Warnf("notification queue full, dropping event: type=%s session=%s", event.Type, event.SessionID)
	}
}

func (nm *NotificationManager) startWorkers(n int) {
	for i := 0; i < n; i++ {
		nm.wg.Add(1)
		go nm.worker()
	}
}

func (nm *NotificationManager) worker() {
	defer nm.wg.Done()
	for job := range nm.jobs {
		nm.dispatchJob(job)
	}
}

func (nm *NotificationManager) dispatchJob(job notificationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	for _, id := range job.NotifierIDs {
		nm.notifyWithRetry(ctx, id, job.Event)
	}
}

// notifyWithRetry retries a failed delivery with exponential backoff.
func (nm *NotificationManager) notifyWithRetry(ctx context.Context, notifierID string, event Event) {
	notifier, ok := nm.GetNotifier(notifierID)
	if !ok {
		// Unregistered while the job was queued.
		return
	}

	backoff := initialBackoff
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := notifier.Notify(ctx, event)
		if err == nil {
			return
		}

		nm.logger.Warnf("notification failed: notifier=%s attempt=%d error=%v", notifierID, attempt+1, err)

		if attempt == maxRetries {
			nm.logger.Errorf("notification failed after %d attempts: notifier=%s", maxRetries+1, notifierID)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Notify delivers an event synchronously to its subscribers, without retries.
func (nm *NotificationManager) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, id := range nm.Subscribers(event.Type) {
		notifier, ok := nm.GetNotifier(id)
		if !ok {
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("notifier %s failed: %w", id, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %v", errs)
	}
	return nil
}

// Close drains the queue, stops the worker and closes every notifier.
func (nm *NotificationManager) Close() error {
	nm.mu.Lock()
	if nm.closed {
		nm.mu.Unlock()
		return nil
	}
	nm.closed = true
	close(nm.jobs)
	nm.mu.Unlock()

	nm.wg.Wait()

	nm.mu.Lock()
	var errs []error
	for id, sub := range nm.notifiers {
		if err := sub.notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	nm.notifiers = make(map[string]subscription)
	nm.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("errors closing notifiers: %v", errs)
	}
	return nil
}
