package webauthn

import (
	"context"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/pkg/errors"
)

// AssertionOptions are handed to the platform authenticator. UserVerification
// is always required for signing.
type AssertionOptions struct {
	Challenge        string
	AllowCredentials []protocol.CredentialDescriptor
	UserVerification protocol.UserVerificationRequirement
	RPID             string
	Origin           string
}

// Authenticator produces signed assertions for server-issued challenges.
// Implementations block until the user completes device verification or the
// context is cancelled.
type Authenticator interface {
	Get(ctx context.Context, opts AssertionOptions) (*Assertion, error)
}

// RequestAssertion invokes the authenticator for a server challenge with user
// verification required. Cancellation and authenticator refusal both surface
// as ErrAssertionAborted; the attempt is never retried here.
func RequestAssertion(ctx context.Context, authn Authenticator, payload *ChallengePayload, rpID, origin string) (*Assertion, error) {
	if payload == nil {
		return nil, errors.Wrap(ErrAssertionAborted, "missing challenge payload")
	}

	assertion, err := authn.Get(ctx, AssertionOptions{
		Challenge:        payload.Challenge,
		AllowCredentials: payload.AllowCredentials,
		UserVerification: protocol.VerificationRequired,
		RPID:             rpID,
		Origin:           origin,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(ErrAssertionAborted, ctxErr.Error())
		}
		return nil, errors.Wrap(ErrAssertionAborted, err.Error())
	}

	return assertion, nil
}
