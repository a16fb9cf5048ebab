package webauthn

import (
	"context"
	"encoding/hex"
	"math/big"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Registrar is implemented by authenticators that can mint a new credential.
// The platform authenticator exposes this during registration ceremonies only.
type Registrar interface {
	Attest(challenge, rpID, origin string) (map[string]interface{}, error)
}

type registerInitiatePayload struct {
	Name string `json:"name"`
}

type registerInitiateResponse struct {
	Challenge string `json:"challenge"`
}

type registerVerifyPayload struct {
	Cred map[string]interface{} `json:"cred"`
}

type registerVerifyResponse struct {
	Success bool   `json:"success"`
	PubX    string `json:"pubX"`
	PubY    string `json:"pubY"`
}

// Register provisions a new credential with the passkey server and returns
// the credential's public point. Callers holding an existing credential skip
// this and supply the point directly.
func (c *Client) Register(ctx context.Context, registrar Registrar, name, rpID, origin string) (x, y *big.Int, err error) {
	var initResp registerInitiateResponse
	if err := c.post(ctx, "/register-initiate", registerInitiatePayload{Name: name}, &initResp); err != nil {
		return nil, nil, errors.Wrap(err, "register-initiate failed")
	}

	cred, err := registrar.Attest(initResp.Challenge, rpID, origin)
	if err != nil {
		return nil, nil, errors.Wrap(err, "attestation failed")
	}

	var verifyResp registerVerifyResponse
	if err := c.post(ctx, "/register-verify", registerVerifyPayload{Cred: cred}, &verifyResp); err != nil {
		return nil, nil, errors.Wrap(err, "register-verify failed")
	}
	if !verifyResp.Success {
		return nil, nil, errors.New("server rejected registration")
	}

	xBytes, err := hex.DecodeString(verifyResp.PubX)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid pubX")
	}
	yBytes, err := hex.DecodeString(verifyResp.PubY)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid pubY")
	}

	log.Debug().Str("name", name).Msg("credential registered")

	return new(big.Int).SetBytes(xBytes), new(big.Int).SetBytes(yBytes), nil
}
