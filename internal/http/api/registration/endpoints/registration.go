package endpoints

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/registrar/internal/flash"
	"github.com/Nixie-Tech-LLC/registrar/internal/http/api"
	"github.com/Nixie-Tech-LLC/registrar/internal/http/api/registration/packets"
	"github.com/Nixie-Tech-LLC/registrar/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/registrar/internal/model"
	"github.com/Nixie-Tech-LLC/registrar/internal/registration"
	"github.com/Nixie-Tech-LLC/registrar/internal/web"
)

// Registrar is the part of registration.Service the pages need.
type Registrar interface {
	Register(ctx context.Context, f registration.Form) (registration.Outcome, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	Probe(ctx context.Context) error
}

// RegistrationModule mounts the public registration pages.
func RegistrationModule(svc Registrar, flashes flash.Store) api.Module {
	ctl := newRegistrationController(svc, flashes)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/", ctl.showForm)
		c.GET("/register", ctl.redirectToForm)
		c.POST("/register", ctl.register)
		c.GET("/success", ctl.showSuccess)
		c.GET("/users", ctl.listUsers)
		c.GET("/test-db", ctl.testDB)
		c.GET("/healthz", ctl.healthz)
	})
}

type RegistrationController struct {
	svc     Registrar
	flashes flash.Store
}

func newRegistrationController(svc Registrar, flashes flash.Store) *RegistrationController {
	return &RegistrationController{svc: svc, flashes: flashes}
}

const formPage = "/"

// GET /
func (r *RegistrationController) showForm(ctx *gin.Context) (api.Response, *api.APIError) {
	msgs, err := r.flashes.Pop(ctx.Request.Context(), middleware.SessionID(ctx))
	if err != nil {
		// render without flashes
		log.Error().Err(err).Msg("failed to pop flash messages")
	}
	return api.Page{View: web.ViewRegister, Data: gin.H{"Flashes": msgs}}, nil
}

// GET /register
func (r *RegistrationController) redirectToForm(ctx *gin.Context) (api.Response, *api.APIError) {
	return api.Redirect{Location: formPage}, nil
}

// POST /register
func (r *RegistrationController) register(ctx *gin.Context) (api.Response, *api.APIError) {
	var request packets.RegisterRequest
	if err := ctx.ShouldBindWith(&request, binding.Form); err != nil {
		log.Warn().Err(err).Msg("could not bind registration form")
		return r.backToForm(ctx, registration.MsgFieldsRequired), nil
	}

	outcome, err := r.svc.Register(ctx.Request.Context(), registration.Form{
		Birthday:        request.Birthday,
		FirstName:       request.FirstName,
		LastName:        request.LastName,
		Email:           request.Email,
		Password:        request.Password,
		ConfirmPassword: request.ConfirmPassword,
	})
	if err != nil {
		var verr *registration.ValidationError
		var perr *registration.PersistenceError
		switch {
		case errors.As(err, &verr):
			return r.backToForm(ctx, verr.Message), nil
		case errors.As(err, &perr):
			return r.backToForm(ctx, perr.Message), nil
		default:
			log.Error().Err(err).Msg("unexpected registration error")
			return r.backToForm(ctx, registration.MsgDatabaseError), nil
		}
	}

	return api.Redirect{Status: http.StatusSeeOther, Location: outcome.RedirectTo}, nil
}

func (r *RegistrationController) backToForm(ctx *gin.Context, message string) api.Response {
	msg := flash.Message{Category: flash.CategoryError, Text: message}
	if err := r.flashes.Push(ctx.Request.Context(), middleware.SessionID(ctx), msg); err != nil {
		log.Error().Err(err).Msg("failed to push flash message")
	}
	return api.Redirect{Status: http.StatusSeeOther, Location: formPage}
}

// GET /success
func (r *RegistrationController) showSuccess(ctx *gin.Context) (api.Response, *api.APIError) {
	return api.Page{View: web.ViewSuccess}, nil
}

// GET /users
func (r *RegistrationController) listUsers(ctx *gin.Context) (api.Response, *api.APIError) {
	users, err := r.svc.ListUsers(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: registration.MsgDatabaseError}
	}
	return api.Page{View: web.ViewUsers, Data: gin.H{"Users": packets.NewUserRows(users)}}, nil
}

// GET /test-db
func (r *RegistrationController) testDB(ctx *gin.Context) (api.Response, *api.APIError) {
	if err := r.svc.Probe(ctx.Request.Context()); err != nil {
		log.Error().Err(err).Msg("database probe failed")
		return api.Text{Status: http.StatusInternalServerError, Body: "Database connection failed: " + err.Error()}, nil
	}
	return api.Text{Body: "Database connection successful"}, nil
}

// GET /healthz
func (r *RegistrationController) healthz(ctx *gin.Context) (api.Response, *api.APIError) {
	return api.Text{Body: "ok"}, nil
}
