package devserver

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type attestationObject struct {
	RawAuthData []byte                 `cbor:"authData"`
	Format      string                 `cbor:"fmt"`
	AttStmt     map[string]interface{} `cbor:"attStmt"`
}

func (s *Server) postRegisterVerifyHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var body RegisterVerifyPayload
		if err := c.Bind(&body); err != nil || body.Cred == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		sid := s.ensureSession(c)

		challenge, ok := s.store.takeRegisterChallenge(sid)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "no pending registration challenge for session")
		}

		clientDataJSON, err := base64.RawURLEncoding.DecodeString(body.Cred.Response.ClientDataJSON)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid client data")
		}

		var clientData protocol.CollectedClientData
		if err := json.Unmarshal(clientDataJSON, &clientData); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed client data JSON")
		}
		if clientData.Type != protocol.CreateCeremony || clientData.Challenge != challenge {
			return c.JSON(http.StatusOK, RegisterVerifyResponse{Success: false})
		}

		attObjBytes, err := base64.RawURLEncoding.DecodeString(body.Cred.Response.AttestationObject)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid attestation object encoding")
		}

		var attObj attestationObject
		if err := cbor.Unmarshal(attObjBytes, &attObj); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed attestation object")
		}

		var authData protocol.AuthenticatorData
		if err := authData.Unmarshal(attObj.RawAuthData); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed authenticator data")
		}
		if len(authData.AttData.CredentialID) == 0 || len(authData.AttData.CredentialPublicKey) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "missing attested credential data")
		}

		// Decode the COSE key up front so a broken key never gets stored.
		pubKey, err := webauthncose.ParsePublicKey(authData.AttData.CredentialPublicKey)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported credential public key")
		}
		ec2Key, ok := pubKey.(webauthncose.EC2PublicKeyData)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "credential key is not an EC2 key")
		}

		s.store.addCredential(sid, &storedCredential{
			ID:        authData.AttData.CredentialID,
			PublicKey: authData.AttData.CredentialPublicKey,
		})

		log.Info().
			Str("session", sid).
			Str("credential_id", body.Cred.ID).
			Msg("credential registered")

		return c.JSON(http.StatusOK, RegisterVerifyResponse{
			Success:      true,
			CredentialID: body.Cred.ID,
			PubX:         hex.EncodeToString(ec2Key.XCoord),
			PubY:         hex.EncodeToString(ec2Key.YCoord),
		})
	}
}
