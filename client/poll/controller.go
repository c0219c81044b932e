package poll

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/trezcool/darasa/client/kvstore"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/user"
)

const (
	watermarkKeyPrefix = "notifications:last_seen:"
	bannerKeyPrefix    = "banner:shown:"
	degradedBannerKey  = "degraded-mode"
)

type (
	Options struct {
		Fetcher  Fetcher
		Store    kvstore.Store // durable; holds the watermark across restarts
		Session  kvstore.Store // session-lifetime; holds one-time banner flags
		Viewer   user.User
		Interval time.Duration
		Logger   core.Logger
	}

	// Controller maintains a near-real-time view of one user's notifications
	// without a persistent connection: a fixed-cadence poll, a monotonic
	// watermark deciding which records become toasts, and an unread badge.
	//
	// Polls are read-only and the watermark only moves forward, so overlapping
	// or out-of-order ticks are safe.
	Controller struct {
		fetcher   Fetcher
		store     kvstore.Store
		session   kvstore.Store
		viewer    user.User
		interval  time.Duration
		logger    core.Logger
		toasts    *ToastList
		watermark int
		unread    int
	}
)

func NewController(opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	c := &Controller{
		fetcher:  opts.Fetcher,
		store:    opts.Store,
		session:  opts.Session,
		viewer:   opts.Viewer,
		interval: opts.Interval,
		logger:   opts.Logger,
		toasts:   NewToastList(),
	}
	c.watermark = c.loadWatermark()
	return c
}

// Run polls until ctx is done. Each tick is independent; failures retry at
// the same cadence.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick performs one poll: fetch the latest notification and unread count,
// surface the notification as a toast when it is newer than the watermark,
// and refresh the badge. Fetch failures are logged and swallowed; at most one
// degraded-mode alert is surfaced per session.
func (c *Controller) Tick(ctx context.Context) {
	c.toasts.Advance()

	res, err := c.fetcher.Latest(ctx)
	if err != nil {
		c.logger.Error(fmt.Sprintf("polling notifications: %v", err), err)
		if c.ShowBannerOnce(degradedBannerKey) {
			c.toasts.Push(notification.Notification{
				Title:    "Connection trouble",
				Message:  "Live updates are delayed; retrying in the background.",
				Kind:     notification.KindGeneral,
				Priority: notification.PriorityLow,
			})
		}
		return
	}
	if !res.Success {
		return
	}

	// badge updates on every successful tick, watermark change or not
	c.unread = res.UnreadCount

	if res.HasNotification && res.Notification.ID > c.watermark {
		c.setWatermark(res.Notification.ID)
		c.toasts.Push(res.Notification)
	}
}

func (c *Controller) Toasts() *ToastList { return c.toasts }

// Unread returns the last fetched unread badge count.
func (c *Controller) Unread() int { return c.unread }

// Watermark returns the highest notification id already surfaced as a toast.
func (c *Controller) Watermark() int { return c.watermark }

// ShowBannerOnce reports whether the banner keyed by `key` should be shown,
// flipping its session flag so subsequent calls within the session decline.
func (c *Controller) ShowBannerOnce(key string) bool {
	k := bannerKeyPrefix + key
	if _, shown, err := c.session.Get(k); err != nil || shown {
		return false
	}
	if err := c.session.Set(k, "1"); err != nil {
		c.logger.Error(fmt.Sprintf("flagging banner %q: %v", key, err), err)
	}
	return true
}

// ClickThrough resolves the navigation target for a notification and, for
// unread ones, marks it read as a fire-and-forget side effect: navigation
// never waits on (or fails with) the mark-read call.
func (c *Controller) ClickThrough(ctx context.Context, n notification.Notification) string {
	if !n.IsRead {
		go func() {
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.fetcher.MarkRead(rctx, n.ID); err != nil {
				c.logger.Error(fmt.Sprintf("marking notification %d read: %v", n.ID, err), err)
			}
		}()
	}
	return n.Kind.RouteFor(c.viewer, n.RelatedKind).URL(n.RelatedID)
}

// MarkAllRead clears the badge optimistically and tells the server.
func (c *Controller) MarkAllRead(ctx context.Context) error {
	if err := c.fetcher.MarkAllRead(ctx); err != nil {
		return err
	}
	c.unread = 0
	return nil
}

// the watermark is scoped per role so portals sharing a machine do not
// swallow each other's alerts
func (c *Controller) watermarkKey() string {
	switch {
	case c.viewer.IsAdmin():
		return watermarkKeyPrefix + "admin"
	case c.viewer.IsTeacher():
		return watermarkKeyPrefix + "teacher"
	default:
		return watermarkKeyPrefix + "student"
	}
}

func (c *Controller) loadWatermark() int {
	v, found, err := c.store.Get(c.watermarkKey())
	if err != nil {
		c.logger.Error(fmt.Sprintf("loading watermark: %v", err), err)
		return 0
	}
	if !found {
		return 0
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return id
}

func (c *Controller) setWatermark(id int) {
	if id <= c.watermark {
		return
	}
	c.watermark = id
	if err := c.store.Set(c.watermarkKey(), strconv.Itoa(id)); err != nil {
		c.logger.Error(fmt.Sprintf("persisting watermark: %v", err), err)
	}
}
