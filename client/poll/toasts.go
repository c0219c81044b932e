package poll

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/notification"
)

const (
	// MaxVisibleToasts bounds the concurrent toast list; pushing beyond it
	// evicts the oldest shown entry immediately.
	MaxVisibleToasts = 3
	// DisplayDuration is how long a toast stays shown before auto-dismissal.
	DisplayDuration = 6 * time.Second
	// RemoveDelay keeps a dismissed toast around for its exit animation.
	RemoveDelay = 300 * time.Millisecond
)

type ToastState int

const (
	ToastShown ToastState = iota
	ToastDismissed
	ToastRemoved
)

// Toast is one transient alert, distinct from the persistent notification
// record it represents.
type Toast struct {
	ID           string // UI instance key; a notification reappears as a new toast
	Notification notification.Notification
	ShownAt      time.Time
	DismissedAt  time.Time
	State        ToastState
}

// ToastList is the bounded, ordered list of visible alerts.
type ToastList struct {
	mu     sync.Mutex
	toasts []*Toast
	nowFn  func() time.Time
}

func NewToastList() *ToastList {
	return &ToastList{nowFn: time.Now}
}

// Push enqueues a toast for display. When MaxVisibleToasts are already shown,
// the oldest shown entry is dismissed and detached before the new one enters.
func (tl *ToastList) Push(n notification.Notification) *Toast {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	now := tl.nowFn()
	tl.advance(now)

	if shown := tl.shown(); len(shown) >= MaxVisibleToasts {
		oldest := shown[0]
		oldest.State = ToastRemoved // evicted immediately, no exit animation
	}

	t := &Toast{
		ID:           uuid.New().String(),
		Notification: n,
		ShownAt:      now,
		State:        ToastShown,
	}
	tl.toasts = append(tl.toasts, t)
	return t
}

// Dismiss closes a toast explicitly (user close button).
func (tl *ToastList) Dismiss(id string) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	for _, t := range tl.toasts {
		if t.ID == id && t.State == ToastShown {
			t.State = ToastDismissed
			t.DismissedAt = tl.nowFn()
			return
		}
	}
}

// Advance applies time-based transitions: auto-dismiss after DisplayDuration,
// removal after RemoveDelay, and drops removed entries.
func (tl *ToastList) Advance() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.advance(tl.nowFn())
}

func (tl *ToastList) advance(now time.Time) {
	kept := tl.toasts[:0]
	for _, t := range tl.toasts {
		if t.State == ToastShown && now.Sub(t.ShownAt) >= DisplayDuration {
			t.State = ToastDismissed
			t.DismissedAt = t.ShownAt.Add(DisplayDuration)
		}
		if t.State == ToastDismissed && now.Sub(t.DismissedAt) >= RemoveDelay {
			t.State = ToastRemoved
		}
		if t.State != ToastRemoved {
			kept = append(kept, t)
		}
	}
	tl.toasts = kept
}

// Visible returns the currently shown toasts, oldest first.
func (tl *ToastList) Visible() []Toast {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	visible := make([]Toast, 0, len(tl.toasts))
	for _, t := range tl.shown() {
		visible = append(visible, *t)
	}
	return visible
}

func (tl *ToastList) shown() []*Toast {
	shown := make([]*Toast, 0, len(tl.toasts))
	for _, t := range tl.toasts {
		if t.State == ToastShown {
			shown = append(shown, t)
		}
	}
	return shown
}
