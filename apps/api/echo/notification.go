package echoapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notification"
)

const (
	actionMarkAsRead  = "mark_as_read"
	actionMarkAllRead = "mark_all_read"
)

type notificationApi struct {
	svc      *notification.Service
	logger   core.Logger
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := notificationApi{
		svc:      deps.NotifSvc,
		logger:   deps.Logger,
		validate: deps.Validate,
	}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.GET("/latest", api.latest)
	ng.GET("/stats", api.stats)
	ng.POST("/actions", api.action)
}

// Handlers

// latest backs the clients' poll loop. Storage errors degrade to
// `{"success": false}` with a 200 so pollers keep their cadence instead of
// tripping error handling; the failure is still logged server-side.
func (api *notificationApi) latest(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()

	n, found, err := api.svc.Latest(rctx, claims.UserID())
	if err != nil {
		api.logger.Error(fmt.Sprintf("fetching latest notification: %v", err), err)
		return ctx.JSON(http.StatusOK, LatestResponse{Success: false})
	}
	unread, err := api.svc.UnreadCount(rctx, claims.UserID())
	if err != nil {
		api.logger.Error(fmt.Sprintf("counting unread notifications: %v", err), err)
		return ctx.JSON(http.StatusOK, LatestResponse{Success: false})
	}

	res := LatestResponse{
		Success:         true,
		HasNotification: found,
		UnreadCount:     unread,
	}
	if found {
		res.Notification = &n
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *notificationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	filter := new(notification.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []notification.Notification{})
	}

	notifs, err := api.svc.ListForUser(ctx.Request().Context(), claims.UserID(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) stats(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	stats, err := api.svc.Stats(ctx.Request().Context(), claims.UserID())
	if err != nil {
		return errors.Wrap(err, "querying notification stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// action applies a state change to the caller's notifications. The id is
// validated before any storage round-trip.
func (api *notificationApi) action(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data ActionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	rctx := ctx.Request().Context()

	switch data.Action {
	case actionMarkAsRead:
		id, err := strconv.Atoi(data.ID)
		if err != nil || id <= 0 {
			return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "a valid notification id is required"})
		}
		if err := api.svc.MarkRead(rctx, id, claims.UserID()); err != nil {
			if errors.Cause(err) == notification.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "marking notification as read")
		}
	case actionMarkAllRead:
		if err := api.svc.MarkAllRead(rctx, claims.UserID()); err != nil {
			return errors.Wrap(err, "marking all notifications as read")
		}
	}

	return ctx.JSON(http.StatusOK, ActionResponse{Success: true, Action: data.Action, ID: data.ID})
}

type (
	LatestResponse struct {
		Success         bool                       `json:"success"`
		HasNotification bool                       `json:"has_notification"`
		Notification    *notification.Notification `json:"notification,omitempty"`
		UnreadCount     int                        `json:"unread_count"`
	}

	ActionRequest struct {
		Action string `json:"action" validate:"required,oneof=mark_as_read mark_all_read"`
		ID     string `json:"id" validate:"required_if=Action mark_as_read"`
	}

	// ActionResponse echoes the applied action for client-side correlation.
	ActionResponse struct {
		Success bool   `json:"success"`
		Action  string `json:"action"`
		ID      string `json:"id,omitempty"`
	}
)

func (ar *ActionRequest) Validate(validate *validator.Validate) error {
	ar.Action = core.CleanString(ar.Action, true /* lower */)
	return validate.Struct(ar)
}
