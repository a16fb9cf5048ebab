package signer_test

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjornigur/passkey-signer/internal/chain"
	"github.com/hjornigur/passkey-signer/internal/signer"
	"github.com/hjornigur/passkey-signer/internal/webauthn"
	"github.com/hjornigur/passkey-signer/internal/webauthn/softauthn"
)

// mockPasskeyServer implements the sign protocol with canned verify answers
// and call counters for sequencing assertions.
type mockPasskeyServer struct {
	ts            *httptest.Server
	initiateCalls int
	verifyCalls   int
	verifyBody    string
}

func newMockPasskeyServer(t *testing.T, verifyBody string) *mockPasskeyServer {
	t.Helper()

	m := &mockPasskeyServer{verifyBody: verifyBody}

	mux := http.NewServeMux()
	mux.HandleFunc("/sign-initiate", func(w http.ResponseWriter, r *http.Request) {
		m.initiateCalls++

		var body struct {
			Data string `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		dataBytes, err := hex.DecodeString(body.Data)
		require.NoError(t, err)

		resp := webauthn.ChallengePayload{
			Challenge: base64.RawURLEncoding.EncodeToString(dataBytes),
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	mux.HandleFunc("/sign-verify", func(w http.ResponseWriter, _ *http.Request) {
		m.verifyCalls++
		_, _ = w.Write([]byte(m.verifyBody))
	})

	m.ts = httptest.NewServer(mux)
	t.Cleanup(m.ts.Close)

	return m
}

func mockVerifyBody(t *testing.T, r, s *big.Int) string {
	t.Helper()

	authData := make([]byte, 37)
	authData[32] = 0x05

	sigRaw := make([]byte, 64)
	r.FillBytes(sigRaw[:32])
	s.FillBytes(sigRaw[32:])

	body, err := json.Marshal(map[string]interface{}{
		"success":           true,
		"authenticatorData": base64.StdEncoding.EncodeToString(authData),
		"signature":         base64.StdEncoding.EncodeToString(sigRaw),
	})
	require.NoError(t, err)

	return string(body)
}

func newTestSigner(t *testing.T, serverURL string, chainID uint64) *signer.ModularSigner {
	t.Helper()

	authn, err := softauthn.New()
	require.NoError(t, err)
	x, y := authn.PublicKey()

	s, err := signer.New(signer.Config{
		ServerURL:     serverURL,
		ChainID:       chainID,
		Verifier:      common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
		PublicKey:     &signer.PublicKey{X: x, Y: y},
		Authenticator: authn,
		RPID:          "localhost",
		Origin:        "http://localhost:8080",
	})
	require.NoError(t, err)

	return s
}

func encodedSignatureTuple(t *testing.T) abi.Arguments {
	t.Helper()

	newType := func(s string) abi.Type {
		typ, err := abi.NewType(s, "", nil)
		require.NoError(t, err)
		return typ
	}

	uint256 := newType("uint256")
	return abi.Arguments{
		{Type: newType("bytes")},
		{Type: newType("string")},
		{Type: uint256},
		{Type: uint256},
		{Type: uint256},
		{Type: uint256},
		{Type: newType("bool")},
	}
}

func TestSignMessageEndToEnd(t *testing.T) {
	r := big.NewInt(0x1111)
	s := big.NewInt(0x2222)
	mock := newMockPasskeyServer(t, mockVerifyBody(t, r, s))

	sig := newTestSigner(t, mock.ts.URL, 999999)

	encoded, err := sig.SignMessage(context.Background(), "0x48656c6c6f")
	require.NoError(t, err)

	assert.Equal(t, 1, mock.initiateCalls)
	assert.Equal(t, 1, mock.verifyCalls)

	values, err := encodedSignatureTuple(t).Unpack(encoded)
	require.NoError(t, err)
	require.Len(t, values, 7)

	// clientDataJSON carries the challenge the server derived from the data:
	// base64url("Hello").
	assert.Contains(t, values[1].(string), `"challenge":"SGVsbG8"`)
	assert.Zero(t, values[4].(*big.Int).Cmp(r))
	assert.Zero(t, values[5].(*big.Int).Cmp(s))
	assert.False(t, values[6].(bool))
}

func TestSignMessagePlainText(t *testing.T) {
	mock := newMockPasskeyServer(t, mockVerifyBody(t, big.NewInt(1), big.NewInt(2)))
	sig := newTestSigner(t, mock.ts.URL, 1)

	// Non-hex strings are hex-encoded before submission.
	_, err := sig.SignMessage(context.Background(), "hello world!")
	require.NoError(t, err)
	assert.Equal(t, 1, mock.initiateCalls)
}

func TestSignMessageBytes(t *testing.T) {
	mock := newMockPasskeyServer(t, mockVerifyBody(t, big.NewInt(1), big.NewInt(2)))
	sig := newTestSigner(t, mock.ts.URL, 1)

	_, err := sig.SignMessage(context.Background(), []byte{0x48, 0x65})
	require.NoError(t, err)
}

func TestSignMessageUnsupportedFormat(t *testing.T) {
	mock := newMockPasskeyServer(t, mockVerifyBody(t, big.NewInt(1), big.NewInt(2)))
	sig := newTestSigner(t, mock.ts.URL, 1)

	_, err := sig.SignMessage(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, signer.ErrUnsupportedMessageFormat))
	assert.Zero(t, mock.initiateCalls)
}

func TestSignMessageServerRejection(t *testing.T) {
	mock := newMockPasskeyServer(t, `{"success":false}`)
	sig := newTestSigner(t, mock.ts.URL, 1)

	_, err := sig.SignMessage(context.Background(), "0x48656c6c6f")
	require.Error(t, err)
	assert.True(t, errors.Is(err, webauthn.ErrServerSignatureRejected))
	assert.Equal(t, 1, mock.verifyCalls)
}

type failingAuthenticator struct{}

func (failingAuthenticator) Get(context.Context, webauthn.AssertionOptions) (*webauthn.Assertion, error) {
	return nil, errors.New("user dismissed the prompt")
}

func TestSignMessageAssertionAborted(t *testing.T) {
	mock := newMockPasskeyServer(t, mockVerifyBody(t, big.NewInt(1), big.NewInt(2)))

	sig, err := signer.New(signer.Config{
		ServerURL:     mock.ts.URL,
		ChainID:       1,
		Authenticator: failingAuthenticator{},
	})
	require.NoError(t, err)

	_, err = sig.SignMessage(context.Background(), "0xaabb")
	require.Error(t, err)
	assert.True(t, errors.Is(err, webauthn.ErrAssertionAborted))

	// The pipeline stops before server verification.
	assert.Equal(t, 1, mock.initiateCalls)
	assert.Zero(t, mock.verifyCalls)
}

func validTypedData() apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"Person": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "wallet", Type: "address"},
			},
		},
		PrimaryType: "Person",
		Domain: apitypes.TypedDataDomain{
			Name:    "Passkey Test",
			Version: "1",
			ChainId: math.NewHexOrDecimal256(1),
		},
		Message: apitypes.TypedDataMessage{
			"name":   "Bob",
			"wallet": "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		},
	}
}

func TestSignTypedData(t *testing.T) {
	mock := newMockPasskeyServer(t, mockVerifyBody(t, big.NewInt(3), big.NewInt(4)))
	sig := newTestSigner(t, mock.ts.URL, 1)

	encoded, err := sig.SignTypedData(context.Background(), validTypedData())
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
	assert.Equal(t, 1, mock.initiateCalls)
	assert.Equal(t, 1, mock.verifyCalls)
}

func TestSignTypedDataInvalidBeforeNetwork(t *testing.T) {
	mock := newMockPasskeyServer(t, mockVerifyBody(t, big.NewInt(3), big.NewInt(4)))
	sig := newTestSigner(t, mock.ts.URL, 1)

	tests := []struct {
		name   string
		mutate func(*apitypes.TypedData)
	}{
		{"missing domain chainId", func(d *apitypes.TypedData) { d.Domain.ChainId = nil }},
		{"empty primary type", func(d *apitypes.TypedData) { d.PrimaryType = "" }},
		{"undefined primary type", func(d *apitypes.TypedData) { d.PrimaryType = "Ghost" }},
		{"no types", func(d *apitypes.TypedData) { d.Types = nil }},
		{"no message", func(d *apitypes.TypedData) { d.Message = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validTypedData()
			tt.mutate(&data)

			_, err := sig.SignTypedData(context.Background(), data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, signer.ErrInvalidTypedData))
		})
	}

	// Local validation must reject all of them before any network call.
	assert.Zero(t, mock.initiateCalls)
	assert.Zero(t, mock.verifyCalls)
}

func TestSignTransactionUnsupported(t *testing.T) {
	mock := newMockPasskeyServer(t, mockVerifyBody(t, big.NewInt(1), big.NewInt(2)))
	sig := newTestSigner(t, mock.ts.URL, 1)

	_, err := sig.SignTransaction(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, signer.ErrTransactionSigningUnsupported))
	assert.Zero(t, mock.initiateCalls)
}

func TestSignerData(t *testing.T) {
	mock := newMockPasskeyServer(t, mockVerifyBody(t, big.NewInt(1), big.NewInt(2)))
	sig := newTestSigner(t, mock.ts.URL, 1)

	data, err := sig.SignerData()
	require.NoError(t, err)
	assert.Len(t, data, 64)
}

func TestSignerDataWithoutKey(t *testing.T) {
	authn, err := softauthn.New()
	require.NoError(t, err)

	sig, err := signer.New(signer.Config{
		ServerURL:     "http://localhost:0",
		ChainID:       1,
		Authenticator: authn,
	})
	require.NoError(t, err)

	_, err = sig.SignerData()
	require.Error(t, err)
	assert.True(t, errors.Is(err, signer.ErrPublicKeyUnavailable))
}

func TestDummySignatureMatchesRealPrecompileFlag(t *testing.T) {
	for _, chainID := range []uint64{chain.ChainPolygon, 999999} {
		mock := newMockPasskeyServer(t, mockVerifyBody(t, big.NewInt(1), big.NewInt(2)))
		sig := newTestSigner(t, mock.ts.URL, chainID)

		dummy, err := sig.DummySignature()
		require.NoError(t, err)

		real, err := sig.SignMessage(context.Background(), "0x48656c6c6f")
		require.NoError(t, err)

		tuple := encodedSignatureTuple(t)

		dummyValues, err := tuple.Unpack(dummy)
		require.NoError(t, err)
		realValues, err := tuple.Unpack(real)
		require.NoError(t, err)

		assert.Equal(t, realValues[6].(bool), dummyValues[6].(bool), "chain %d", chainID)
	}
}

func TestDummySignatureStructure(t *testing.T) {
	mock := newMockPasskeyServer(t, mockVerifyBody(t, big.NewInt(1), big.NewInt(2)))
	sig := newTestSigner(t, mock.ts.URL, 999999)

	dummy, err := sig.DummySignature()
	require.NoError(t, err)

	values, err := encodedSignatureTuple(t).Unpack(dummy)
	require.NoError(t, err)

	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	assert.Zero(t, values[2].(*big.Int).Cmp(maxUint256))
	assert.Zero(t, values[3].(*big.Int).Cmp(maxUint256))
	assert.Zero(t, values[4].(*big.Int).Cmp(maxUint256))
	assert.Zero(t, values[5].(*big.Int).Cmp(maxUint256))
	assert.False(t, values[6].(bool))

	// Dummies never consult the server.
	assert.Zero(t, mock.initiateCalls)
}

func TestAddressLifecycle(t *testing.T) {
	mock := newMockPasskeyServer(t, mockVerifyBody(t, big.NewInt(1), big.NewInt(2)))
	sig := newTestSigner(t, mock.ts.URL, 1)

	// Counterfactual until deployment assigns the address.
	assert.Nil(t, sig.Address())

	addr := common.HexToAddress("0x000000000000000000000000000000000000bEEF")
	sig.SetAddress(addr)

	require.NotNil(t, sig.Address())
	assert.Equal(t, addr, *sig.Address())
}
