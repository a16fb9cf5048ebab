package devserver

import (
	"crypto/sha256"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/pkg/errors"
)

// verifyAssertionSignature checks a passkey assertion against the stored COSE
// public key. The signed message is authData || sha256(clientDataJSON); the
// authenticator must report both user presence and user verification, since
// signing requires userVerification.
func verifyAssertionSignature(coseKey, signature, authData, clientDataJSON []byte) error {
	pubKey, err := webauthncose.ParsePublicKey(coseKey)
	if err != nil {
		return errors.Wrap(err, "failed to parse stored public key")
	}

	var authenticatorData protocol.AuthenticatorData
	if err := authenticatorData.Unmarshal(authData); err != nil {
		return errors.Wrap(err, "failed to parse authenticator data")
	}
	if !authenticatorData.Flags.UserPresent() {
		return errors.New("user not present")
	}
	if !authenticatorData.Flags.UserVerified() {
		return errors.New("user not verified")
	}

	clientDataHash := sha256.Sum256(clientDataJSON)
	signedData := append(authData, clientDataHash[:]...)

	valid, err := webauthncose.VerifySignature(pubKey, signedData, signature)
	if err != nil {
		return errors.Wrap(err, "error verifying signature")
	}
	if !valid {
		return errors.New("invalid signature")
	}

	return nil
}
