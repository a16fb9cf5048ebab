package webauthn

import "github.com/go-webauthn/webauthn/protocol"

// ChallengePayload is the sign-initiate response from the passkey server: an
// opaque challenge plus the credential descriptors the authenticator may use.
// It lives for a single signing request and is never persisted.
type ChallengePayload struct {
	Challenge        string                          `json:"challenge"`
	AllowCredentials []protocol.CredentialDescriptor `json:"allowCredentials"`
}

// AssertionResponse carries the authenticator outputs for one assertion.
// All fields are base64url encoded per the WebAuthn JSON conventions.
type AssertionResponse struct {
	ClientDataJSON    string `json:"clientDataJSON"`
	AuthenticatorData string `json:"authenticatorData"`
	Signature         string `json:"signature"`
	UserHandle        string `json:"userHandle,omitempty"`
}

// Assertion mirrors the PublicKeyCredential JSON shape a browser would hand
// back from navigator.credentials.get. It exists only within one signing
// operation.
type Assertion struct {
	ID       string            `json:"id"`
	RawID    string            `json:"rawId"`
	Type     string            `json:"type"`
	Response AssertionResponse `json:"response"`
}

// VerificationResult is the sign-verify response. AuthenticatorData and
// Signature are the server-confirmed values the encoded signature is built
// from, not the raw assertion fields.
type VerificationResult struct {
	Success           bool   `json:"success"`
	AuthenticatorData string `json:"authenticatorData"`
	Signature         string `json:"signature"`
}
