package notification

import (
	"fmt"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/user"
)

// Kind discriminates notifications. Each kind carries its display icon and
// per-portal click-through routes as data so the API, the badge counters and
// the clients all share one source of truth.
type Kind string

const (
	KindAssignment Kind = "assignment"
	KindGrade      Kind = "grade"
	KindDeadline   Kind = "deadline"
	KindSubmission Kind = "submission"
	KindGeneral    Kind = "general"
)

// RelatedKindRegistration marks general notifications raised by pending
// registrations; it overrides routing towards the approvals view.
const RelatedKindRegistration = "registration"

// Route is a client view target. Pattern may contain one %d placeholder for
// the notification's related entity id.
type Route struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

func (r Route) URL(relatedID null.Int) string {
	if r.Pattern == "" {
		return ""
	}
	if !strings.Contains(r.Pattern, "%d") {
		return r.Pattern
	}
	if relatedID.Valid {
		return fmt.Sprintf(r.Pattern, relatedID.Int)
	}
	// no entity to point at; fall back to the dashboard
	return RouteDashboard.Pattern
}

// Known routes, per portal.
var (
	RouteDashboard        = Route{Name: "dashboard", Pattern: "/dashboard"}
	RouteAssignmentDetail = Route{Name: "assignment-detail", Pattern: "/assignments/%d"}
	RouteAssignmentEdit   = Route{Name: "assignment-edit", Pattern: "/assignments/%d/edit"}
	RouteAssignmentList   = Route{Name: "assignment-list", Pattern: "/assignments"}
	RouteSubmissionDetail = Route{Name: "submission-detail", Pattern: "/submissions/%d"}
	RouteGrades           = Route{Name: "grades", Pattern: "/grades"}
	RouteApprovals        = Route{Name: "approvals", Pattern: "/approvals"}
)

type kindInfo struct {
	icon         string
	studentRoute Route
	teacherRoute Route
	adminRoute   Route
}

var kinds = map[Kind]kindInfo{
	KindAssignment: {
		icon:         "book",
		studentRoute: RouteAssignmentDetail,
		teacherRoute: RouteAssignmentEdit,
		adminRoute:   RouteAssignmentList,
	},
	KindDeadline: {
		icon:         "clock",
		studentRoute: RouteAssignmentDetail,
		teacherRoute: RouteAssignmentEdit,
		adminRoute:   RouteAssignmentList,
	},
	KindGrade: {
		icon:         "star",
		studentRoute: RouteGrades,
		teacherRoute: RouteSubmissionDetail,
		adminRoute:   RouteDashboard,
	},
	KindSubmission: {
		icon:         "inbox",
		studentRoute: RouteAssignmentDetail,
		teacherRoute: RouteSubmissionDetail,
		adminRoute:   RouteDashboard,
	},
	KindGeneral: {
		icon:         "bell",
		studentRoute: RouteDashboard,
		teacherRoute: RouteDashboard,
		adminRoute:   RouteDashboard,
	},
}

var AllKinds = []Kind{KindAssignment, KindGrade, KindDeadline, KindSubmission, KindGeneral}

func (k Kind) IsValid() bool {
	_, ok := kinds[k]
	return ok
}

func (k Kind) Icon() string {
	return kinds[k].icon
}

// RouteFor resolves the click-through target for a viewer. Registration-related
// notifications send admins and teachers to the approvals view regardless of kind.
func (k Kind) RouteFor(viewer user.User, relatedKind string) Route {
	if relatedKind == RelatedKindRegistration && (viewer.IsAdmin() || viewer.IsTeacher()) {
		return RouteApprovals
	}
	info, ok := kinds[k]
	if !ok {
		return RouteDashboard
	}
	switch {
	case viewer.IsAdmin():
		return info.adminRoute
	case viewer.IsTeacher():
		return info.teacherRoute
	default:
		return info.studentRoute
	}
}
