package service

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/queue"
)

// maxToasts caps the toast center; the oldest toast is dropped first.
const maxToasts = 20

// Notifier is the toast center. Its own toasts are stored as they are
// raised and then published on the queue so other subscribers see the same
// stream; toasts published by other producers are stored on delivery.
type Notifier struct {
	Queue queue.Queue

	mu     sync.Mutex
	toasts []model.Toast
	// own holds ids published by this notifier and not yet delivered back.
	own map[string]struct{}
	now func() time.Time
}

// NewNotifier subscribes the toast center to q.
func NewNotifier(q queue.Queue) (*Notifier, error) {
	n := &Notifier{Queue: q, own: make(map[string]struct{}), now: time.Now}
	if err := q.Subscribe(queue.TopicToasts, n.receive); err != nil {
		return nil, err
	}
	return n, nil
}

// Toast shows message for the default duration.
func (n *Notifier) Toast(level model.ToastLevel, message string) {
	n.ToastFor(level, message, model.DefaultToastDuration)
}

// ToastFor shows message for d.
func (n *Notifier) ToastFor(level model.ToastLevel, message string, d time.Duration) {
	t := model.Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: n.now(),
		Duration:  d,
	}
	n.mu.Lock()
	n.own[t.ID] = struct{}{}
	n.mu.Unlock()
	n.store(t)

	if err := n.Queue.Publish(queue.TopicToasts, t); err != nil {
		n.mu.Lock()
		delete(n.own, t.ID)
		n.mu.Unlock()
		logging.WithComponent("notifier").Debug("toast not published", "error", err)
	}
}

func (n *Notifier) receive(payload any) error {
	t, ok := payload.(model.Toast)
	if !ok {
		logging.WithComponent("notifier").Warn("⚠️ invalid payload type, expected Toast")
		return nil
	}
	n.mu.Lock()
	_, mine := n.own[t.ID]
	delete(n.own, t.ID)
	n.mu.Unlock()
	if !mine {
		n.store(t)
	}
	return nil
}

func (n *Notifier) store(t model.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	// Keep creation order even when deliveries arrive out of order.
	i := len(n.toasts)
	for i > 0 && n.toasts[i-1].CreatedAt.After(t.CreatedAt) {
		i--
	}
	n.toasts = slices.Insert(n.toasts, i, t)
	if len(n.toasts) > maxToasts {
		n.toasts = n.toasts[len(n.toasts)-maxToasts:]
	}
}

// Active returns the toasts that have not expired, oldest first, and forgets
// the expired ones.
func (n *Notifier) Active() []model.Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	kept := n.toasts[:0]
	for _, t := range n.toasts {
		if !t.Expired(now) {
			kept = append(kept, t)
		}
	}
	n.toasts = kept
	return append([]model.Toast(nil), kept...)
}

// Dismiss removes the toast with id.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, t := range n.toasts {
		if t.ID == id {
			n.toasts = append(n.toasts[:i], n.toasts[i+1:]...)
			return true
		}
	}
	return false
}
