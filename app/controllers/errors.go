package controllers

import (
	"errors"
	"net/http"

	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/ctx"
	"github.com/rainbowartistery/atelier/pkg/logger"
)

// respondError maps a service error onto the JSON envelope. notFound is
// the message used for services.ErrNotFound.
func respondError(c *ctx.Context, err error, notFound string) {
	var verr *services.ValidationError
	var cerr *services.CollaboratorError

	switch {
	case errors.As(err, &verr):
		c.ValidationError(verr.Fields)
	case errors.Is(err, services.ErrDuplicateSlug):
		c.Fail(http.StatusBadRequest, "Slug already exists", map[string]string{
			"slug": "This slug is already used by another product.",
		})
	case errors.Is(err, services.ErrNotFound):
		c.NotFound(notFound)
	case errors.Is(err, services.ErrUnauthorized):
		c.Unauthorized()
	case errors.Is(err, auth.ErrInvalidToken):
		c.Unauthorized("This sign-in link is invalid or has expired.")
	case errors.As(err, &cerr):
		logger.WithCtx(c.Context()).Error("collaborator failed", "op", cerr.Op, "timeout", cerr.Timeout(), "error", cerr.Err)
		if cerr.Timeout() {
			c.Error(http.StatusGatewayTimeout, "Upstream service timed out, please retry")
			return
		}
		c.Error(http.StatusBadGateway, "Upstream service failed, please retry")
	default:
		logger.WithCtx(c.Context()).Error("request failed", "method", c.R.Method, "path", c.R.URL.Path, "error", err)
		c.Error(http.StatusInternalServerError, "Something went wrong")
	}
}
