package devserver

import (
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-openapi/swag"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/hjornigur/passkey-signer/internal/webauthn"
)

func (s *Server) postSignInitiateHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var body SignInitiatePayload
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		data := strings.TrimPrefix(swag.StringValue(body.Data), "0x")
		dataBytes, err := hex.DecodeString(data)
		if err != nil || len(dataBytes) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "data must be a non-empty hex string")
		}

		sid := s.ensureSession(c)

		// The challenge is the data itself, base64url per WebAuthn convention,
		// so the signed assertion binds to exactly the submitted hash.
		challenge := base64.RawURLEncoding.EncodeToString(dataBytes)
		s.store.setSignChallenge(sid, challenge, data)

		allowCredentials := make([]protocol.CredentialDescriptor, 0)
		for _, cred := range s.store.credentials(sid) {
			allowCredentials = append(allowCredentials, protocol.CredentialDescriptor{
				Type:         protocol.PublicKeyCredentialType,
				CredentialID: cred.ID,
			})
		}

		log.Debug().
			Str("session", sid).
			Str("challenge", challenge).
			Int("allow_credentials", len(allowCredentials)).
			Msg("sign-initiate")

		return c.JSON(http.StatusOK, webauthn.ChallengePayload{
			Challenge:        challenge,
			AllowCredentials: allowCredentials,
		})
	}
}
