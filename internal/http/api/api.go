package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code    int
	Message string
}

// Response is what a page handler hands back to be written.
type Response interface {
	Write(ctx *gin.Context)
}

// Page renders a named template with the given data.
type Page struct {
	Status int
	View   string
	Data   gin.H
}

func (p Page) Write(ctx *gin.Context) {
	status := p.Status
	if status == 0 {
		status = http.StatusOK
	}
	ctx.HTML(status, p.View, p.Data)
}

// Redirect sends the client to Location. Status defaults to 302.
type Redirect struct {
	Status   int
	Location string
}

func (r Redirect) Write(ctx *gin.Context) {
	status := r.Status
	if status == 0 {
		status = http.StatusFound
	}
	ctx.Redirect(status, r.Location)
}

// Text writes a plain text body.
type Text struct {
	Status int
	Body   string
}

func (t Text) Write(ctx *gin.Context) {
	status := t.Status
	if status == 0 {
		status = http.StatusOK
	}
	ctx.String(status, t.Body)
}

type HandlerFunc func(ctx *gin.Context) (Response, *APIError)

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.String(apiErr.Code, apiErr.Message)
			return
		}
		result.Write(ctx)
	}
}
