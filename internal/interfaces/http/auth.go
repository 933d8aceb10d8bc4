package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pausewise/pausewise/internal/config"
	"github.com/pausewise/pausewise/internal/domain"
)

var (
	// ErrMissingCredentials is returned when a request carries no usable identity
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidToken is returned for tokens that fail signature or claim checks
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the authenticated identity a request acts as. The tier is
// parsed fail-closed: anything unrecognized degrades to the free tier.
type Principal struct {
	UserID string
	Tier   domain.Tier
}

// Authenticator resolves request credentials to a Principal. Production
// requests carry an HMAC-signed bearer token; in dev mode plain headers
// are accepted so local clients can skip token minting.
type Authenticator struct {
	secret  []byte
	devMode bool
}

// NewAuthenticator builds an authenticator from the auth config
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		secret:  []byte(cfg.Secret),
		devMode: cfg.DevMode,
	}
}

// Authenticate extracts and verifies the caller's identity
func (a *Authenticator) Authenticate(r *http.Request) (Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if a.devMode {
			return a.fromDevHeaders(r)
		}
		return Principal{}, ErrMissingCredentials
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return Principal{}, fmt.Errorf("%w: authorization header is not a bearer token", ErrInvalidToken)
	}
	return a.fromToken(token)
}

// fromDevHeaders trusts X-User-ID and X-User-Tier. Dev mode only.
func (a *Authenticator) fromDevHeaders(r *http.Request) (Principal, error) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		return Principal{}, ErrMissingCredentials
	}
	return Principal{
		UserID: userID,
		Tier:   domain.ParseTier(r.Header.Get("X-User-Tier")),
	}, nil
}

func (a *Authenticator) fromToken(raw string) (Principal, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return Principal{}, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	tier, _ := claims["tier"].(string)
	return Principal{
		UserID: subject,
		Tier:   domain.ParseTier(tier),
	}, nil
}
