package controllers

import (
	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/ctx"
	"github.com/rainbowartistery/atelier/pkg/logger"
	"github.com/rainbowartistery/atelier/pkg/middleware"
)

// AuthController runs magic-link sign-in and the admin cookie session.
type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

type magicLinkBody struct {
	Email       string `json:"email"`
	CallbackURL string `json:"callbackUrl"`
}

// RequestLink handles POST /auth/magic-link. The answer is the same whether
// or not the email belongs to an admin.
func (ac *AuthController) RequestLink(c *ctx.Context) {
	var body magicLinkBody
	if !c.BindJSON(&body) {
		return
	}
	if err := ac.service.RequestMagicLink(c.Context(), body.Email, body.CallbackURL); err != nil {
		respondError(c, err, "")
		return
	}
	c.Accepted("If that address belongs to an admin, a sign-in link is on its way.")
}

// Verify handles GET /auth/verify?token=. On success the session cookie is
// rotated and carries the admin email.
func (ac *AuthController) Verify(c *ctx.Context) {
	identity, err := ac.service.VerifyMagicLink(c.Context(), c.Query("token"))
	if err != nil {
		respondError(c, err, "")
		return
	}

	sess := c.Session()
	if err := sess.Regenerate(); err != nil {
		respondError(c, err, "")
		return
	}
	sess.Set(middleware.SessionEmailKey, identity.Email)
	if err := sess.Save(c.Context(), c.W); err != nil {
		respondError(c, err, "")
		return
	}
	c.Success(map[string]any{"session": identity})
}

// Session handles GET /auth/session.
func (ac *AuthController) Session(c *ctx.Context) {
	identity, ok := auth.SessionFromCtx(c.Context())
	if !ok {
		c.Unauthorized()
		return
	}
	c.Success(map[string]any{"session": identity})
}

// Logout handles POST /auth/logout.
func (ac *AuthController) Logout(c *ctx.Context) {
	if err := c.Session().Destroy(c.Context(), c.W); err != nil {
		logger.WithCtx(c.Context()).Warn("auth: destroy session", "error", err)
	}
	c.Message("Signed out")
}
