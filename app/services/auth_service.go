package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/app/repositories"
	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/logger"
	"github.com/rainbowartistery/atelier/pkg/mail"
	"github.com/rainbowartistery/atelier/pkg/metrics"
	"github.com/rainbowartistery/atelier/pkg/validate"
)

// MagicLinkTTL is how long a mailed sign-in link stays valid.
const MagicLinkTTL = 24 * time.Hour

// AuthOptions configures AuthService.
type AuthOptions struct {
	// Allowlist holds emails that may sign in without an AdminUser row.
	Allowlist []string
	// BaseURL is the public API origin; links point at BaseURL+"/auth/verify"
	// unless the caller supplies an allowed callback.
	BaseURL string
	// CallbackOrigins lists extra origins a callback URL may use.
	CallbackOrigins []string
	Timeout         time.Duration
}

// AuthService runs the magic-link sign-in flow.
type AuthService struct {
	admins *repositories.AdminRepository
	signer *auth.Signer
	mailer mail.Mailer
	opts   AuthOptions
	now    func() time.Time
}

func NewAuthService(admins *repositories.AdminRepository, signer *auth.Signer, mailer mail.Mailer, opts AuthOptions) *AuthService {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	allow := make([]string, 0, len(opts.Allowlist))
	for _, e := range opts.Allowlist {
		allow = append(allow, auth.NormalizeEmail(e))
	}
	opts.Allowlist = allow
	return &AuthService{admins: admins, signer: signer, mailer: mailer, opts: opts, now: time.Now}
}

type magicLinkRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// RequestMagicLink mails a one-time sign-in link when email belongs to an
// admin. Unknown addresses are accepted without sending anything.
func (s *AuthService) RequestMagicLink(ctx context.Context, email, callbackURL string) error {
	email = auth.NormalizeEmail(email)
	if errs := validate.Struct(magicLinkRequest{Email: email}); validate.HasErrors(errs) {
		return &ValidationError{Fields: errs}
	}

	log := logger.WithCtx(ctx)

	allowed, err := s.isAdmin(ctx, email)
	if err != nil {
		return err
	}
	if !allowed {
		log.Info("auth: magic link requested for unknown email")
		return nil
	}

	link, err := s.signer.Issue(email)
	if err != nil {
		return err
	}
	hash, err := auth.HashNonce(link.Nonce)
	if err != nil {
		return fmt.Errorf("auth: hash nonce: %w", err)
	}
	err = s.admins.CreateToken(ctx, &models.VerificationToken{
		Email:     email,
		TokenHash: hash,
		ExpiresAt: link.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("auth: store token: %w", err)
	}

	if n, err := s.admins.PurgeExpiredTokens(ctx, s.now()); err != nil {
		log.Warn("auth: purge expired tokens", "error", err)
	} else if n > 0 {
		log.Debug("auth: purged expired tokens", "count", n)
	}

	body, err := mail.Render(magicLinkMail, map[string]any{
		"URL":       s.verifyURL(callbackURL, link.Token),
		"ExpiresAt": link.ExpiresAt.UTC().Format("2 Jan 2006 15:04 MST"),
	})
	if err != nil {
		return err
	}

	mctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if err := s.mailer.Send(mctx, mail.Message{
		To:      []string{email},
		Subject: "Your Rainbow Artistery sign-in link",
		HTML:    body,
	}); err != nil {
		metrics.RecordMail("magic_link", "error")
		log.Error("auth: send magic link", "error", err)
		return &CollaboratorError{Op: "mail: magic link", Err: err}
	}
	metrics.RecordMail("magic_link", "sent")
	log.Info("auth: magic link sent", "email", email)
	return nil
}

// VerifyMagicLink checks token against its stored nonce hash, consumes it
// and returns the signed-in identity. Every failure is auth.ErrInvalidToken.
func (s *AuthService) VerifyMagicLink(ctx context.Context, token string) (*auth.Session, error) {
	claims, err := s.signer.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	email := auth.NormalizeEmail(claims.Email)

	live, err := s.admins.LiveTokens(ctx, email, s.now())
	if err != nil {
		return nil, err
	}

	var match *models.VerificationToken
	for i := range live {
		if auth.CheckNonce(live[i].TokenHash, claims.Nonce) {
			match = &live[i]
			break
		}
	}
	if match == nil {
		return nil, auth.ErrInvalidToken
	}

	consumed, err := s.admins.ConsumeToken(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, auth.ErrInvalidToken
	}

	if _, err := s.admins.Upsert(ctx, email, nil); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("auth: admin signed in", "email", email)
	return &auth.Session{Email: email}, nil
}

func (s *AuthService) isAdmin(ctx context.Context, email string) (bool, error) {
	for _, e := range s.opts.Allowlist {
		if e == email {
			return true, nil
		}
	}
	_, err := s.admins.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("auth: admin lookup: %w", err)
	}
}

// verifyURL appends token to callback when callback shares an origin with
// BaseURL or CallbackOrigins, and to BaseURL+"/auth/verify" otherwise.
func (s *AuthService) verifyURL(callback, token string) string {
	base := strings.TrimRight(s.opts.BaseURL, "/") + "/auth/verify"
	target, err := url.Parse(base)
	if cb, cbErr := url.Parse(strings.TrimSpace(callback)); callback != "" && cbErr == nil && s.trustedOrigin(cb) {
		target, err = cb, nil
	}
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := target.Query()
	q.Set("token", token)
	target.RawQuery = q.Encode()
	return target.String()
}

func (s *AuthService) trustedOrigin(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	origin := u.Scheme + "://" + u.Host
	if b, err := url.Parse(s.opts.BaseURL); err == nil && origin == b.Scheme+"://"+b.Host {
		return true
	}
	for _, o := range s.opts.CallbackOrigins {
		if strings.TrimRight(o, "/") == origin {
			return true
		}
	}
	return false
}
