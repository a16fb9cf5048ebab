package signer_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjornigur/passkey-signer/internal/signer"
)

func valueAt(s string, offset uint64) string {
	rest := s[offset:]
	end := strings.IndexByte(rest, '"')
	return rest[:end]
}

func TestLocateFieldsRoundTrip(t *testing.T) {
	clientDataJSON := `{"type":"webauthn.get","challenge":"SGVsbG8","origin":"http://localhost:8080"}`

	locations, err := signer.LocateFields(clientDataJSON)
	require.NoError(t, err)

	assert.Equal(t, "webauthn.get", valueAt(clientDataJSON, locations.ResponseType))
	assert.Equal(t, "SGVsbG8", valueAt(clientDataJSON, locations.Challenge))
}

func TestLocateFieldsOrderIndependent(t *testing.T) {
	// Some authenticators emit challenge before type.
	clientDataJSON := `{"challenge":"abc123","origin":"https://example.com","type":"webauthn.get"}`

	locations, err := signer.LocateFields(clientDataJSON)
	require.NoError(t, err)

	assert.Equal(t, "abc123", valueAt(clientDataJSON, locations.Challenge))
	assert.Equal(t, "webauthn.get", valueAt(clientDataJSON, locations.ResponseType))
}

func TestLocateFieldsMissingChallenge(t *testing.T) {
	_, err := signer.LocateFields(`{"type":"webauthn.get","origin":"https://example.com"}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, signer.ErrFieldNotFound))
}

func TestLocateFieldsMissingType(t *testing.T) {
	_, err := signer.LocateFields(`{"challenge":"abc","origin":"https://example.com"}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, signer.ErrFieldNotFound))
}

func TestLocateFieldsEmpty(t *testing.T) {
	_, err := signer.LocateFields("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, signer.ErrFieldNotFound))
}
