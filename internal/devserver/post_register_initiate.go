package devserver

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func (s *Server) postRegisterInitiateHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var body RegisterInitiatePayload
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		sid := s.ensureSession(c)

		challengeBytes := make([]byte, 32)
		if _, err := rand.Read(challengeBytes); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate challenge")
		}

		challenge := base64.RawURLEncoding.EncodeToString(challengeBytes)
		s.store.setRegisterChallenge(sid, challenge)

		log.Debug().
			Str("session", sid).
			Str("name", swag.StringValue(body.Name)).
			Msg("register-initiate")

		return c.JSON(http.StatusOK, RegisterInitiateResponse{Challenge: swag.String(challenge)})
	}
}
