package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/user"
)

type assignmentApi struct {
	svc      *assignment.Service
	usrSvc   *user.Service
	notifier *notification.Notifier
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := assignmentApi{
		svc:      deps.AssignmentSvc,
		usrSvc:   deps.UserSvc,
		notifier: deps.Notifier,
		validate: deps.Validate,
	}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create, teacherMiddleware())
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, teacherMiddleware())
	ag.DELETE("/:id", api.destroy, teacherMiddleware())
	ag.POST("/:id/submissions", api.submit)

	sg := g.Group("/submissions", jwt)
	sg.GET("/:id", api.retrieveSubmission)
	sg.POST("/:id/grade", api.grade, teacherMiddleware())
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rctx := ctx.Request().Context()
	a, err := api.svc.Create(rctx, ctxUsr.ID, ctxUsr.Course, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	api.notifier.AssignmentCreated(rctx, a)

	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	filter := new(assignment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []assignment.Assignment{})
	}
	filter.Clean()

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	// students only ever see their own course's assignments
	if ctxUsr.IsStudent() && !ctxUsr.IsTeacher() && !ctxUsr.IsAdmin() {
		filter.Course = ctxUsr.Course
	}

	assignments, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if a.TeacherID != ctxUsr.ID && !ctxUsr.IsAdmin() {
		return errHttpForbidden
	}

	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(api.validate, a); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	a, err = api.svc.Update(rctx, a.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	api.notifier.AssignmentUpdated(rctx, a)

	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if a.TeacherID != ctxUsr.ID && !ctxUsr.IsAdmin() {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), a.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsStudent() || ctxUsr.Course != a.Course {
		return errHttpForbidden
	}

	var data assignment.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	s, err := api.svc.Submit(rctx, a.ID, ctxUsr.ID, data)
	if err != nil {
		if errors.Cause(err) == assignment.ErrSubmissionExists {
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "submitting work")
	}
	api.notifier.SubmissionReceived(rctx, a, s, ctxUsr)

	return ctx.JSON(http.StatusCreated, s)
}

func (api *assignmentApi) retrieveSubmission(ctx echo.Context) error {
	s, err := api.getSubmission(ctx)
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if s.StudentID != ctxUsr.ID && !ctxUsr.IsTeacher() && !ctxUsr.IsAdmin() {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	s, err := api.getSubmission(ctx)
	if err != nil {
		return err
	}

	var data assignment.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	a, err := api.svc.GetByID(rctx, s.AssignmentID)
	if err != nil {
		return errors.Wrap(err, "finding submission's assignment")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if a.TeacherID != ctxUsr.ID && !ctxUsr.IsAdmin() {
		return errHttpForbidden
	}

	s, err = api.svc.Grade(rctx, s.ID, data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	api.notifier.GradePosted(rctx, a, s)

	return ctx.JSON(http.StatusOK, s)
}

func (api *assignmentApi) getAssignment(ctx echo.Context) (assignment.Assignment, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return assignment.Assignment{}, errHttpNotFound
	}
	a, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return assignment.Assignment{}, errHttpNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment by ID")
	}
	return a, nil
}

func (api *assignmentApi) getSubmission(ctx echo.Context) (assignment.Submission, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return assignment.Submission{}, errHttpNotFound
	}
	s, err := api.svc.GetSubmission(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == assignment.ErrSubmissionNotFound {
			return assignment.Submission{}, errHttpNotFound
		}
		return assignment.Submission{}, errors.Wrap(err, "finding submission by ID")
	}
	return s, nil
}
