package signer

import (
	"encoding/base64"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"

	"github.com/hjornigur/passkey-signer/internal/chain"
	"github.com/hjornigur/passkey-signer/internal/webauthn"
)

var (
	abiBytes   = mustABIType("bytes")
	abiString  = mustABIType("string")
	abiUint256 = mustABIType("uint256")
	abiBool    = mustABIType("bool")

	// Field order is part of the wire contract with the deployed verifier and
	// must never change independently of it.
	encodedSignatureArgs = abi.Arguments{
		{Name: "authenticatorData", Type: abiBytes},
		{Name: "clientDataJSON", Type: abiString},
		{Name: "challengeLocation", Type: abiUint256},
		{Name: "responseTypeLocation", Type: abiUint256},
		{Name: "r", Type: abiUint256},
		{Name: "s", Type: abiUint256},
		{Name: "usePrecompiled", Type: abiBool},
	}

	signerDataArgs = abi.Arguments{
		{Name: "pubKeyX", Type: abiUint256},
		{Name: "pubKeyY", Type: abiUint256},
	}
)

func mustABIType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// BuildEncodedSignature assembles the ABI-encoded tuple the verifier contract
// consumes. It is pure with respect to its inputs: identical assertion,
// verification result and chain id always produce byte-identical output.
func BuildEncodedSignature(assertion *webauthn.Assertion, verification *webauthn.VerificationResult, caps *chain.Capabilities, chainID uint64) ([]byte, error) {
	authenticatorData, err := decodeBase64(verification.AuthenticatorData)
	if err != nil {
		return nil, errors.Wrap(err, "invalid authenticator data")
	}

	clientDataJSON, err := decodeBase64(assertion.Response.ClientDataJSON)
	if err != nil {
		return nil, errors.Wrap(err, "invalid client data")
	}

	locations, err := LocateFields(string(clientDataJSON))
	if err != nil {
		return nil, err
	}

	sigBytes, err := decodeBase64(verification.Signature)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedSignature, err.Error())
	}
	sig, err := ParseSignatureBytes(sigBytes)
	if err != nil {
		return nil, err
	}

	return encodedSignatureArgs.Pack(
		authenticatorData,
		string(clientDataJSON),
		new(big.Int).SetUint64(locations.Challenge),
		new(big.Int).SetUint64(locations.ResponseType),
		sig.R,
		sig.S,
		caps.SupportsP256Precompile(chainID),
	)
}

// decodeBase64 accepts the encodings seen in the wild: std (server responses)
// and url-safe (WebAuthn JSON fields), padded or not.
func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	for _, enc := range encodings {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.Errorf("not a base64 value: %q", s)
}
