package devserver

import (
	"github.com/hjornigur/passkey-signer/internal/webauthn"
)

// SignInitiatePayload is the sign-initiate request body. Data is the hex form
// of the message or hash being signed, without a 0x prefix.
type SignInitiatePayload struct {
	Data *string `json:"data"`
}

// SignVerifyPayload is the sign-verify request body.
type SignVerifyPayload struct {
	Cred *webauthn.Assertion `json:"cred"`
}

// SignVerifyResponse answers sign-verify. AuthenticatorData and Signature are
// standard base64, matching the remote passkey service contract.
type SignVerifyResponse struct {
	Success           bool   `json:"success"`
	AuthenticatorData string `json:"authenticatorData,omitempty"`
	Signature         string `json:"signature,omitempty"`
}

// RegisterInitiatePayload is the register-initiate request body.
type RegisterInitiatePayload struct {
	Name *string `json:"name"`
}

// RegisterInitiateResponse carries the registration challenge.
type RegisterInitiateResponse struct {
	Challenge *string `json:"challenge"`
}

// AttestationResponse is the inner response of a webauthn.create credential.
type AttestationResponse struct {
	ClientDataJSON    string `json:"clientDataJSON"`
	AttestationObject string `json:"attestationObject"`
}

// AttestationCred is the browser credential shape for registration.
type AttestationCred struct {
	ID       string              `json:"id"`
	RawID    string              `json:"rawId"`
	Type     string              `json:"type"`
	Response AttestationResponse `json:"response"`
}

// RegisterVerifyPayload is the register-verify request body.
type RegisterVerifyPayload struct {
	Cred *AttestationCred `json:"cred"`
}

// RegisterVerifyResponse reports the provisioned credential's public point,
// hex encoded, for the signer to hold as (pubX, pubY).
type RegisterVerifyResponse struct {
	Success      bool   `json:"success"`
	CredentialID string `json:"credentialId,omitempty"`
	PubX         string `json:"pubX,omitempty"`
	PubY         string `json:"pubY,omitempty"`
}
