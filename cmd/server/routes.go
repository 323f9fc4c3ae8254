package main

import (
	"html/template"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/registrar/internal/config"
	"github.com/Nixie-Tech-LLC/registrar/internal/flash"
	"github.com/Nixie-Tech-LLC/registrar/internal/http/api"
	regapi "github.com/Nixie-Tech-LLC/registrar/internal/http/api/registration/endpoints"
	"github.com/Nixie-Tech-LLC/registrar/internal/http/middleware"
)

// NewRouter builds the engine with every application route.
func NewRouter(cfg *config.Config, svc regapi.Registrar, flashes flash.Store, tmpl *template.Template) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.SetHTMLTemplate(tmpl)

	// CORS only when cross-origin callers are configured
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSAllowedOrigins,
			AllowMethods: []string{
				"GET",
				"POST",
				"OPTIONS",
				"HEAD",
			},
			AllowHeaders: []string{
				"Origin",
				"Content-Type",
				"Accept",
			},
			AllowCredentials: true,
		}))
	}

	api.MountGroup(r, api.GroupConfig{
		Middleware: []gin.HandlerFunc{
			middleware.Session(cfg.SessionSecret, cfg.IsProduction()),
		},
	},
		regapi.RegistrationModule(svc, flashes),
	)

	return r
}
