// Package devserver is an in-memory passkey server implementing the
// sign-initiate/sign-verify protocol plus a registration surface for
// provisioning credentials. It backs local development and the integration
// tests; it is not a production credential store.
package devserver

import (
	"context"
	"crypto/rand"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const sessionCookieName = "passkey_session"

// Config carries the relying-party identity and the session-token secret.
// A missing secret is replaced with a random one, which invalidates sessions
// across restarts; fine for a dev server.
type Config struct {
	RPID      string
	Origin    string
	JWTSecret []byte
}

// Server wires the echo instance, routes and the in-memory store.
type Server struct {
	Echo   *echo.Echo
	store  *credentialStore
	secret []byte
	rpID   string
	origin string
}

// New builds a ready-to-start server.
func New(cfg Config) *Server {
	secret := cfg.JWTSecret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic(err)
		}
	}

	s := &Server{
		Echo:   echo.New(),
		store:  newCredentialStore(),
		secret: secret,
		rpID:   cfg.RPID,
		origin: cfg.Origin,
	}

	s.Echo.HideBanner = true
	s.Echo.Use(middleware.Recover())
	s.attachRoutes()

	return s
}

func (s *Server) attachRoutes() {
	s.Echo.POST("/sign-initiate", s.postSignInitiateHandler())
	s.Echo.POST("/sign-verify", s.postSignVerifyHandler())
	s.Echo.POST("/register-initiate", s.postRegisterInitiateHandler())
	s.Echo.POST("/register-verify", s.postRegisterVerifyHandler())
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	log.Info().Str("addr", addr).Str("rp_id", s.rpID).Msg("starting dev passkey server")
	return s.Echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

// ensureSession resolves the session id from the request cookie, minting a
// fresh JWT-backed session when the cookie is absent or invalid.
func (s *Server) ensureSession(c echo.Context) string {
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		if sid, err := s.parseSessionToken(cookie.Value); err == nil {
			return sid
		}
	}

	sid := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"iat": time.Now().Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign session token")
		return sid
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return sid
}

func (s *Server) parseSessionToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to parse session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}

	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("missing sid claim")
	}

	return sid, nil
}
