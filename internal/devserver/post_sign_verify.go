package devserver

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func (s *Server) postSignVerifyHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var body SignVerifyPayload
		if err := c.Bind(&body); err != nil || body.Cred == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		sid := s.ensureSession(c)

		challenge, _, ok := s.store.takeSignChallenge(sid)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "no pending sign challenge for session")
		}

		cred := body.Cred

		credentialID, err := base64.RawURLEncoding.DecodeString(cred.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid credential id")
		}

		clientDataJSON, err := base64.RawURLEncoding.DecodeString(cred.Response.ClientDataJSON)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid client data")
		}
		authData, err := base64.RawURLEncoding.DecodeString(cred.Response.AuthenticatorData)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid authenticator data")
		}
		signature, err := base64.RawURLEncoding.DecodeString(cred.Response.Signature)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid signature encoding")
		}

		var clientData protocol.CollectedClientData
		if err := json.Unmarshal(clientDataJSON, &clientData); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed client data JSON")
		}
		if clientData.Type != protocol.AssertCeremony || clientData.Challenge != challenge {
			log.Debug().
				Str("type", string(clientData.Type)).
				Str("challenge", clientData.Challenge).
				Msg("client data mismatch")
			return c.JSON(http.StatusOK, SignVerifyResponse{Success: false})
		}

		stored, found := s.store.findCredential(sid, credentialID)
		if !found {
			return c.JSON(http.StatusOK, SignVerifyResponse{Success: false})
		}

		if err := verifyAssertionSignature(stored.PublicKey, signature, authData, clientDataJSON); err != nil {
			log.Debug().Err(err).Str("session", sid).Msg("assertion verification failed")
			return c.JSON(http.StatusOK, SignVerifyResponse{Success: false})
		}

		log.Debug().Str("session", sid).Msg("sign-verify successful")

		// Confirmed values go back in standard base64; that is the wire
		// contract the signer decodes with.
		return c.JSON(http.StatusOK, SignVerifyResponse{
			Success:           true,
			AuthenticatorData: base64.StdEncoding.EncodeToString(authData),
			Signature:         base64.StdEncoding.EncodeToString(signature),
		})
	}
}
