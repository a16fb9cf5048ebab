// Package signer builds the ABI-encoded passkey signatures an on-chain
// verifier contract checks against a stored P-256 public key.
package signer

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/hjornigur/passkey-signer/internal/chain"
	"github.com/hjornigur/passkey-signer/internal/webauthn"
)

// PublicKey is the credential's P-256 point, immutable once provisioned.
type PublicKey struct {
	X *big.Int
	Y *big.Int
}

// SigningIdentity is the capability object a smart account plugs in. It never
// signs raw transactions; authorization happens via message and typed-data
// signatures the verifier contract can check.
type SigningIdentity interface {
	SignMessage(ctx context.Context, message interface{}) ([]byte, error)
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)
	SignTransaction(ctx context.Context, tx interface{}) ([]byte, error)
	SignerData() ([]byte, error)
	DummySignature() ([]byte, error)
	VerifierAddress() common.Address
}

// Config carries everything a ModularSigner needs. Client may be left nil to
// have one built from ServerURL.
type Config struct {
	ServerURL     string
	ChainID       uint64
	Verifier      common.Address
	PublicKey     *PublicKey
	Authenticator webauthn.Authenticator
	RPID          string
	Origin        string
	Capabilities  *chain.Capabilities
	Client        *webauthn.Client
}

// ModularSigner drives the passkey signing pipeline: server challenge,
// authenticator assertion, server verification, signature encoding. The only
// state it holds is the immutable public key and static configuration, so
// concurrent signing requests are independent; serializing them is the
// caller's concern since the authenticator is single-flight at device level.
type ModularSigner struct {
	publicKey     *PublicKey
	verifier      common.Address
	account       *common.Address // nil until the deployment pipeline assigns it
	chainID       uint64
	client        *webauthn.Client
	authenticator webauthn.Authenticator
	caps          *chain.Capabilities
	rpID          string
	origin        string
}

var _ SigningIdentity = (*ModularSigner)(nil)

// New creates a ModularSigner from the config.
func New(cfg Config) (*ModularSigner, error) {
	if cfg.Authenticator == nil {
		return nil, errors.New("authenticator is required")
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = webauthn.NewClient(cfg.ServerURL)
		if err != nil {
			return nil, err
		}
	}

	caps := cfg.Capabilities
	if caps == nil {
		caps = chain.NewCapabilities()
	}

	return &ModularSigner{
		publicKey:     cfg.PublicKey,
		verifier:      cfg.Verifier,
		chainID:       cfg.ChainID,
		client:        client,
		authenticator: cfg.Authenticator,
		caps:          caps,
		rpID:          cfg.RPID,
		origin:        cfg.Origin,
	}, nil
}

// SignMessage signs a message hash (or arbitrary message) through the passkey
// pipeline and returns the ABI-encoded signature tuple.
func (s *ModularSigner) SignMessage(ctx context.Context, message interface{}) ([]byte, error) {
	data, err := normalizeMessage(message)
	if err != nil {
		return nil, err
	}
	return s.sign(ctx, data)
}

// SignTransaction always fails: a smart-account signer never signs raw
// transactions.
func (s *ModularSigner) SignTransaction(_ context.Context, _ interface{}) ([]byte, error) {
	return nil, ErrTransactionSigningUnsupported
}

// SignerData returns the ABI-encoded (pubX, pubY) tuple the verifier contract
// stores at enable time.
func (s *ModularSigner) SignerData() ([]byte, error) {
	if s.publicKey == nil || s.publicKey.X == nil || s.publicKey.Y == nil {
		return nil, ErrPublicKeyUnavailable
	}
	return signerDataArgs.Pack(s.publicKey.X, s.publicKey.Y)
}

// VerifierAddress returns the verifier contract the encoded signatures target.
func (s *ModularSigner) VerifierAddress() common.Address {
	return s.verifier
}

// Address returns the deployed account address, or nil while the account is
// still counterfactual.
func (s *ModularSigner) Address() *common.Address {
	return s.account
}

// SetAddress records the address the deployment pipeline assigned.
func (s *ModularSigner) SetAddress(addr common.Address) {
	s.account = &addr
}

// ChainID returns the chain the signer encodes signatures for.
func (s *ModularSigner) ChainID() uint64 {
	return s.chainID
}

// sign runs the three suspension points strictly in order: the challenge must
// exist before the assertion, the assertion before server verification.
func (s *ModularSigner) sign(ctx context.Context, data string) ([]byte, error) {
	log.Debug().Str("data", data).Msg("initiating passkey signature")

	payload, err := s.client.Initiate(ctx, data)
	if err != nil {
		return nil, err
	}

	assertion, err := webauthn.RequestAssertion(ctx, s.authenticator, payload, s.rpID, s.origin)
	if err != nil {
		return nil, err
	}

	verification, err := s.client.Verify(ctx, assertion)
	if err != nil {
		return nil, err
	}

	encoded, err := BuildEncodedSignature(assertion, verification, s.caps, s.chainID)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("bytes", len(encoded)).
		Bool("use_precompiled", s.caps.SupportsP256Precompile(s.chainID)).
		Msg("encoded passkey signature")

	return encoded, nil
}

// normalizeMessage reduces the message to the hex string (no 0x prefix) the
// passkey server expects. Strings already in hex pass through; anything else
// byte-like is hex-encoded.
func normalizeMessage(message interface{}) (string, error) {
	switch m := message.(type) {
	case string:
		trimmed := strings.TrimPrefix(m, "0x")
		if isHex(trimmed) {
			return trimmed, nil
		}
		return hex.EncodeToString([]byte(m)), nil
	case []byte:
		return hex.EncodeToString(m), nil
	case hexutil.Bytes:
		return hex.EncodeToString(m), nil
	case common.Hash:
		return hex.EncodeToString(m[:]), nil
	case *common.Hash:
		if m == nil {
			return "", errors.Wrap(ErrUnsupportedMessageFormat, "nil hash")
		}
		return hex.EncodeToString(m[:]), nil
	default:
		return "", errors.Wrapf(ErrUnsupportedMessageFormat, "%T", message)
	}
}

func isHex(s string) bool {
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
