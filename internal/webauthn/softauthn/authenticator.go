// Package softauthn is a software stand-in for a platform authenticator. It
// holds a P-256 credential key in memory and answers assertion requests the
// way TouchID/FaceID would, minus the user interaction. Intended for the dev
// server, the CLI and tests; production callers plug in a real authenticator
// bridge instead.
package softauthn

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/pkg/errors"

	"github.com/hjornigur/passkey-signer/internal/webauthn"
)

const (
	flagUserPresent  = byte(0x01)
	flagUserVerified = byte(0x04)
	flagAttestedData = byte(0x40)
)

// Authenticator implements webauthn.Authenticator with an in-memory ECDSA
// P-256 key. The signature counter increments per assertion.
type Authenticator struct {
	mu           sync.Mutex
	key          *ecdsa.PrivateKey
	credentialID []byte
	counter      uint32
}

// New generates a fresh credential key with a random credential ID.
func New() (*Authenticator, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate credential key")
	}

	credentialID := make([]byte, 16)
	if _, err := rand.Read(credentialID); err != nil {
		return nil, errors.Wrap(err, "failed to generate credential id")
	}

	return &Authenticator{key: key, credentialID: credentialID}, nil
}

// FromKeyHex reconstructs the authenticator from a hex-encoded private scalar.
// The credential ID is derived from the scalar so the pair is deterministic.
func FromKeyHex(privateKeyHex string) (*Authenticator, error) {
	privBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key hex")
	}

	key := new(ecdsa.PrivateKey)
	key.PublicKey.Curve = elliptic.P256()
	key.D = new(big.Int).SetBytes(privBytes)
	key.PublicKey.X, key.PublicKey.Y = key.PublicKey.Curve.ScalarBaseMult(privBytes)

	credIDHash := sha256.Sum256(privBytes)

	return &Authenticator{key: key, credentialID: credIDHash[:16]}, nil
}

// PublicKey returns the credential's curve point.
func (a *Authenticator) PublicKey() (x, y *big.Int) {
	return a.key.PublicKey.X, a.key.PublicKey.Y
}

// CredentialID returns the base64url credential ID.
func (a *Authenticator) CredentialID() string {
	return base64.RawURLEncoding.EncodeToString(a.credentialID)
}

// PrivateKeyHex exports the private scalar for later FromKeyHex reuse.
func (a *Authenticator) PrivateKeyHex() string {
	return hex.EncodeToString(a.key.D.Bytes())
}

// Get answers an assertion request. When the server pins allowCredentials,
// the request fails unless this credential is listed.
func (a *Authenticator) Get(ctx context.Context, opts webauthn.AssertionOptions) (*webauthn.Assertion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(opts.AllowCredentials) > 0 && !a.isAllowed(opts.AllowCredentials) {
		return nil, errors.New("credential not in allowCredentials")
	}

	clientDataJSON, err := json.Marshal(protocol.CollectedClientData{
		Type:      protocol.AssertCeremony,
		Challenge: opts.Challenge,
		Origin:    opts.Origin,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal client data")
	}

	a.mu.Lock()
	a.counter++
	counter := a.counter
	a.mu.Unlock()

	flags := flagUserPresent
	if opts.UserVerification == protocol.VerificationRequired {
		flags |= flagUserVerified
	}
	authData := a.authenticatorData(opts.RPID, flags, counter, nil)

	clientDataHash := sha256.Sum256(clientDataJSON)
	signedData := append(authData, clientDataHash[:]...)
	digest := sha256.Sum256(signedData)

	signature, err := ecdsa.SignASN1(rand.Reader, a.key, digest[:])
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign assertion")
	}

	return &webauthn.Assertion{
		ID:    a.CredentialID(),
		RawID: a.CredentialID(),
		Type:  "public-key",
		Response: webauthn.AssertionResponse{
			ClientDataJSON:    base64.RawURLEncoding.EncodeToString(clientDataJSON),
			AuthenticatorData: base64.RawURLEncoding.EncodeToString(authData),
			Signature:         base64.RawURLEncoding.EncodeToString(signature),
		},
	}, nil
}

// Attest builds a webauthn.create response for provisioning a new credential
// with the dev server. Attestation format is "none".
func (a *Authenticator) Attest(challenge, rpID, origin string) (map[string]interface{}, error) {
	clientDataJSON, err := json.Marshal(protocol.CollectedClientData{
		Type:      protocol.CreateCeremony,
		Challenge: challenge,
		Origin:    origin,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal client data")
	}

	coseKey, err := a.coseKeyCBOR()
	if err != nil {
		return nil, err
	}

	attested := make([]byte, 0, 16+2+len(a.credentialID)+len(coseKey))
	attested = append(attested, make([]byte, 16)...) // zero AAGUID
	attested = append(attested, byte(len(a.credentialID)>>8), byte(len(a.credentialID)&0xff))
	attested = append(attested, a.credentialID...)
	attested = append(attested, coseKey...)

	authData := a.authenticatorData(rpID, flagUserPresent|flagUserVerified|flagAttestedData, 0, attested)

	attestationObject, err := cbor.Marshal(map[string]interface{}{
		"authData": authData,
		"fmt":      "none",
		"attStmt":  map[string]interface{}{},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal attestation object")
	}

	return map[string]interface{}{
		"id":    a.CredentialID(),
		"rawId": a.CredentialID(),
		"type":  "public-key",
		"response": map[string]interface{}{
			"clientDataJSON":    base64.RawURLEncoding.EncodeToString(clientDataJSON),
			"attestationObject": base64.RawURLEncoding.EncodeToString(attestationObject),
		},
	}, nil
}

// COSEKey returns the CBOR-encoded COSE_Key for the credential, as it would
// appear in attested credential data.
func (a *Authenticator) COSEKey() ([]byte, error) {
	return a.coseKeyCBOR()
}

func (a *Authenticator) coseKeyCBOR() ([]byte, error) {
	pubKey := elliptic.Marshal(elliptic.P256(), a.key.PublicKey.X, a.key.PublicKey.Y)

	// COSE_Key for ES256: kty EC2, alg ES256, crv P-256.
	coseKey, err := cbor.Marshal(map[int]interface{}{
		1:  2,
		3:  -7,
		-1: 1,
		-2: pubKey[1:33],
		-3: pubKey[33:65],
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal COSE key")
	}

	return coseKey, nil
}

func (a *Authenticator) authenticatorData(rpID string, flags byte, counter uint32, attested []byte) []byte {
	rpIDHash := sha256.Sum256([]byte(rpID))

	authData := make([]byte, 0, 37+len(attested))
	authData = append(authData, rpIDHash[:]...)
	authData = append(authData, flags)
	authData = binary.BigEndian.AppendUint32(authData, counter)
	authData = append(authData, attested...)

	return authData
}

func (a *Authenticator) isAllowed(allowed []protocol.CredentialDescriptor) bool {
	for _, desc := range allowed {
		if string(desc.CredentialID) == string(a.credentialID) {
			return true
		}
	}
	return false
}
