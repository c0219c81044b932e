package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/user"
)

type registrationApi struct {
	svc      *user.Service
	notifier *notification.Notifier
	validate *validator.Validate
}

func registerRegistrationAPI(g *echo.Group, deps ServerDeps) {
	api := registrationApi{
		svc:      deps.UserSvc,
		notifier: deps.Notifier,
		validate: deps.Validate,
	}

	// un-authed; accounts start deactivated until an admin approves them
	g.POST("/registrations", api.create)
}

func (api *registrationApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	data.Roles = nil // self-registration cannot pick roles
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	usr, err := api.svc.Register(rctx, data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	api.notifier.RegistrationSubmitted(rctx, usr)

	return ctx.JSON(http.StatusCreated, usr)
}
