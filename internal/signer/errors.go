package signer

import "github.com/pkg/errors"

var (
	// ErrMalformedSignature means the assertion signature could not be decoded
	// into two curve-order-sized components.
	ErrMalformedSignature = errors.New("malformed signature")

	// ErrFieldNotFound means the client data JSON lacks the challenge or type
	// marker. The authenticator response is non-conforming and the signing
	// operation must abort.
	ErrFieldNotFound = errors.New("client data field not found")

	// ErrUnsupportedMessageFormat means the message is neither a string nor a
	// byte-like value.
	ErrUnsupportedMessageFormat = errors.New("unsupported message format")

	// ErrInvalidTypedData means the EIP-712 payload failed local validation.
	// It is raised before any network call so a doomed request never consumes
	// a user-verification prompt.
	ErrInvalidTypedData = errors.New("invalid typed data")

	// ErrPublicKeyUnavailable means no credential public key was provisioned.
	ErrPublicKeyUnavailable = errors.New("public key unavailable")

	// ErrTransactionSigningUnsupported is returned unconditionally from
	// SignTransaction. A smart-account signer authorizes via message and
	// typed-data signatures only.
	ErrTransactionSigningUnsupported = errors.New("transaction signing is not supported by a passkey signer")
)
