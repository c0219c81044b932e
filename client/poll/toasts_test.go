package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/notification"
)

func notif(id int, title string) notification.Notification {
	return notification.Notification{ID: id, Title: title, Kind: notification.KindGeneral}
}

func TestToastList_Push_capsVisible(t *testing.T) {
	tl := NewToastList()

	t1 := tl.Push(notif(1, "one"))
	tl.Push(notif(2, "two"))
	tl.Push(notif(3, "three"))
	require.Len(t, tl.Visible(), MaxVisibleToasts)

	// a fourth toast evicts the oldest immediately
	tl.Push(notif(4, "four"))
	visible := tl.Visible()
	require.Len(t, visible, MaxVisibleToasts)
	assert.Equal(t, "two", visible[0].Notification.Title)
	assert.Equal(t, "four", visible[2].Notification.Title)
	assert.Equal(t, ToastRemoved, t1.State)
}

func TestToastList_Dismiss(t *testing.T) {
	tl := NewToastList()

	t1 := tl.Push(notif(1, "one"))
	tl.Push(notif(2, "two"))

	tl.Dismiss(t1.ID)
	visible := tl.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "two", visible[0].Notification.Title)
	assert.Equal(t, ToastDismissed, t1.State)
	assert.False(t, t1.DismissedAt.IsZero())

	// dismissing twice is a no-op
	dismissedAt := t1.DismissedAt
	tl.Dismiss(t1.ID)
	assert.Equal(t, dismissedAt, t1.DismissedAt)
}

func TestToastList_Advance_lifecycle(t *testing.T) {
	now := time.Now()
	tl := NewToastList()
	tl.nowFn = func() time.Time { return now }

	t1 := tl.Push(notif(1, "one"))
	require.Len(t, tl.Visible(), 1)

	// still shown just before the display duration elapses
	now = now.Add(DisplayDuration - time.Millisecond)
	tl.Advance()
	assert.Len(t, tl.Visible(), 1)

	// auto-dismissed at the display duration, kept around for the exit delay
	now = now.Add(time.Millisecond)
	tl.Advance()
	assert.Empty(t, tl.Visible())
	assert.Equal(t, ToastDismissed, t1.State)

	// fully removed after the exit delay
	now = now.Add(RemoveDelay)
	tl.Advance()
	assert.Equal(t, ToastRemoved, t1.State)
}

func TestToastList_newToastPerNotification(t *testing.T) {
	tl := NewToastList()

	// the same notification re-enqueued yields a fresh toast instance
	t1 := tl.Push(notif(1, "one"))
	tl.Dismiss(t1.ID)
	t2 := tl.Push(notif(1, "one"))

	assert.NotEqual(t, t1.ID, t2.ID)
	require.Len(t, tl.Visible(), 1)
}
