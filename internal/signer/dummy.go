package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// Placeholder fields sized like a real platform-authenticator response so
	// gas estimates against the dummy match the eventual signature. The
	// authenticator data is a standard 37-byte rpIdHash|flags|counter blob.
	dummyAuthenticatorData = hexutil.MustDecode("0x49960de5880e8c687434170f6476605b8fe4aeb9a28632c7995cf3ba831d97630500000000")
	dummyClientDataJSON    = `{"type":"webauthn.get","challenge":"9999999999999999999999999999999999999999999","origin":"https://example.com"}`

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// DummySignature returns a structurally valid but cryptographically
// meaningless encoded signature. Locations and (r, s) are max-uint256
// placeholders; usePrecompiled comes from the real capability table so cost
// estimation and real signing agree on the verification path.
func (s *ModularSigner) DummySignature() ([]byte, error) {
	return encodedSignatureArgs.Pack(
		dummyAuthenticatorData,
		dummyClientDataJSON,
		new(big.Int).Set(maxUint256),
		new(big.Int).Set(maxUint256),
		new(big.Int).Set(maxUint256),
		new(big.Int).Set(maxUint256),
		s.caps.SupportsP256Precompile(s.chainID),
	)
}
