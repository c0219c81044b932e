package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

// Window is one deadline-reminder configuration entry: fire when an
// assignment's due date sits inside [now+Offset-Band, now+Offset+Band].
// The band converts a point-in-time threshold into an interval wide enough
// to be caught by a batch running more often than the band width.
type Window struct {
	Label    string // dedup key part, eg. "3 days"
	Offset   time.Duration
	Band     time.Duration
	Priority Priority
}

const day = 24 * time.Hour

// DefaultWindows: 7d/3d/1d with a ±0.1-day band, 2h with a ±30-minute band.
var DefaultWindows = []Window{
	{Label: "7 days", Offset: 7 * day, Band: day / 10, Priority: PriorityLow},
	{Label: "3 days", Offset: 3 * day, Band: day / 10, Priority: PriorityMedium},
	{Label: "1 day", Offset: day, Band: day / 10, Priority: PriorityHigh},
	{Label: "2 hours", Offset: 2 * time.Hour, Band: 30 * time.Minute, Priority: PriorityHigh},
}

// Scheduler is the periodic deadline-reminder batch. Each Run is idempotent:
// a reminder keyed on (user, assignment, window label) fires at most once per
// look-back period. Meant to be invoked on a fixed cadence much shorter than
// the window bands (external cron, or the admin CLI).
type Scheduler struct {
	svc      *Service
	repo     Repository
	asgRepo  assignment.Repository
	usrRepo  user.Repository
	windows  []Window
	lookBack time.Duration
	logger   core.Logger
	nowFn    func() time.Time
}

func NewScheduler(
	svc *Service,
	repo Repository,
	asgRepo assignment.Repository,
	usrRepo user.Repository,
	logger core.Logger,
	conf *core.Config,
) *Scheduler {
	lookBack := 24 * time.Hour
	if conf != nil && conf.Notification.ReminderLookBack > 0 {
		lookBack = conf.Notification.ReminderLookBack
	}
	return &Scheduler{
		svc:      svc,
		repo:     repo,
		asgRepo:  asgRepo,
		usrRepo:  usrRepo,
		windows:  DefaultWindows,
		lookBack: lookBack,
		logger:   logger,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one reminder batch. A failure on one assignment or window is
// logged and the batch continues; only a failure to acquire the run lock or
// to release it aborts early. Overlapping runs are serialized: the second
// run is a no-op.
func (s *Scheduler) Run(ctx context.Context) error {
	release, acquired, err := s.repo.AcquireReminderRunLock(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		s.logger.Info("reminder batch already running; skipping")
		return nil
	}
	defer release()

	now := s.nowFn()
	for _, w := range s.windows {
		active := true
		assignments, err := s.asgRepo.FilterAssignments(ctx, assignment.QueryFilter{
			IsActive: &active,
			DueFrom:  now.Add(w.Offset - w.Band),
			DueTo:    now.Add(w.Offset + w.Band),
		})
		if err != nil {
			s.logger.Error(fmt.Sprintf("reminder window %q: filtering assignments: %v", w.Label, err), err)
			continue
		}
		for _, a := range assignments {
			if err := s.remind(ctx, a, w, now); err != nil {
				s.logger.Error(fmt.Sprintf("reminder window %q: assignment %d: %v", w.Label, a.ID, err), err)
			}
		}
	}
	return nil
}

// remind fans a window's reminder out to the assignment's pending students:
// active students of the course who have not submitted yet.
func (s *Scheduler) remind(ctx context.Context, a assignment.Assignment, w Window, now time.Time) error {
	active := true
	students, err := s.usrRepo.FilterUsers(ctx, user.QueryFilter{
		Roles:    user.StudentRoles,
		Course:   a.Course,
		IsActive: &active,
	})
	if err != nil {
		return err
	}

	submitterIDs, err := s.asgRepo.QuerySubmitterIDs(ctx, a.ID)
	if err != nil {
		return err
	}
	submitted := make(map[int]bool, len(submitterIDs))
	for _, id := range submitterIDs {
		submitted[id] = true
	}

	since := now.Add(-s.lookBack)
	for _, student := range students {
		if submitted[student.ID] {
			continue
		}
		exists, err := s.repo.ReminderExists(ctx, student.ID, a.ID, w.Label, since)
		if err != nil {
			s.logger.Error(fmt.Sprintf("checking reminder for user %d: %v", student.ID, err), err)
			continue
		}
		if exists { // already reminded for this window within the look-back
			continue
		}
		if _, err = s.svc.Create(ctx, NewNotification{
			UserID:      student.ID,
			Title:       "Deadline Reminder",
			Message:     fmt.Sprintf("Assignment %q is due in %s.", a.Title, w.Label),
			Kind:        KindDeadline,
			RelatedID:   null.IntFrom(a.ID),
			RelatedKind: "assignment",
			WindowLabel: w.Label,
			Priority:    w.Priority,
		}); err != nil {
			s.logger.Error(fmt.Sprintf("creating reminder for user %d: %v", student.ID, err), err)
		}
	}
	return nil
}
