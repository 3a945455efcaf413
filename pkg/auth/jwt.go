package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken covers malformed, expired and wrongly signed magic links.
var ErrInvalidToken = errors.New("auth: invalid or expired sign-in link")

// MagicLinkClaims is the payload of a sign-in link. Nonce is the one-time
// secret whose bcrypt hash is stored server side.
type MagicLinkClaims struct {
	Email string `json:"email"`
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// Signer issues and verifies magic-link tokens with HS256.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// MagicLink is what a caller needs to store and send.
type MagicLink struct {
	Token     string
	Nonce     string
	ExpiresAt time.Time
}

func (s *Signer) Issue(email string) (MagicLink, error) {
	nonce, err := randomHex(24)
	if err != nil {
		return MagicLink{}, fmt.Errorf("auth: nonce: %w", err)
	}
	now := s.now()
	exp := now.Add(s.ttl)

	claims := MagicLinkClaims{
		Email: NormalizeEmail(email),
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   NormalizeEmail(email),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return MagicLink{}, fmt.Errorf("auth: sign: %w", err)
	}
	return MagicLink{Token: token, Nonce: nonce, ExpiresAt: exp}, nil
}

func (s *Signer) Parse(token string) (*MagicLinkClaims, error) {
	claims := &MagicLinkClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.Email == "" || claims.Nonce == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashNonce returns the bcrypt hash stored for a magic-link nonce.
func HashNonce(nonce string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(nonce), bcrypt.DefaultCost)
	return string(b), err
}

func CheckNonce(hash, nonce string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(nonce)) == nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
