package notification

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Priority drives display emphasis and the email mirror for urgent alerts.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Notification is one alert owned by exactly one recipient; fan-out creates
// one row per recipient.
type Notification struct {
	ID          int       `json:"id" db:"id"`
	UserID      int       `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Message     string    `json:"message" db:"message"`
	Kind        Kind      `json:"type" db:"kind"`
	RelatedID   null.Int  `json:"related_id" db:"related_id"`
	RelatedKind string    `json:"related_type" db:"related_kind"`
	WindowLabel string    `json:"-" db:"window_label"` // reminder dedup key part; empty for non-reminders
	Priority    Priority  `json:"priority" db:"priority"`
	IsRead      bool      `json:"is_read" db:"is_read"`
	ReadAt      null.Time `json:"read_at" db:"read_at"`       // set iff IsRead
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
}

func (n Notification) Icon() string { return n.Kind.Icon() }

// NewNotification contains information needed to create a Notification.
// Exactly one recipient; audience resolution happens upstream.
type NewNotification struct {
	UserID      int      `json:"user_id" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Message     string   `json:"message" validate:"required"`
	Kind        Kind     `json:"type" validate:"required,notifkind"`
	RelatedID   null.Int `json:"related_id"`
	RelatedKind string   `json:"related_type"`
	WindowLabel string   `json:"-"`
	Priority    Priority `json:"priority" validate:"omitempty,notifpriority"`
}

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	if nn.Priority == "" {
		nn.Priority = PriorityMedium
	}
	return validate.Struct(nn)
}

// Stats are the per-user dashboard counters.
type Stats struct {
	Total              int `json:"total_notifications" db:"total"`
	Unread             int `json:"unread_count" db:"unread"`
	PendingAssignments int `json:"assignments_pending" db:"unread_assignments"`
	GradesToday        int `json:"grades_today" db:"grades_today"`
}

type QueryFilter struct {
	Limit      int  `query:"limit"`
	UnreadOnly bool `query:"unread"`
}

// custom validation tags & texts
var (
	kindTag      = "notifkind"
	kindText     = "invalid notification type"
	priorityTag  = "notifpriority"
	priorityText = "invalid priority"
)

// InitValidators registers the notification package's custom validators on `validate`.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(kindTag, func(fl validator.FieldLevel) bool {
		return Kind(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, kindTag, kindText)

	_ = validate.RegisterValidation(priorityTag, func(fl validator.FieldLevel) bool {
		return Priority(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, priorityTag, priorityText)
}
