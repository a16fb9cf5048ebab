package signer

import (
	"crypto/elliptic"
	"encoding/asn1"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

var (
	p256Order     = elliptic.P256().Params().N
	p256HalfOrder = new(big.Int).Rsh(elliptic.P256().Params().N, 1)
)

// NormalizedSignature is the canonical (r, s) pair over secp256r1. Both
// components satisfy 0 < v < curve order and s is in the low form.
type NormalizedSignature struct {
	R *big.Int
	S *big.Int
}

type derSignature struct {
	R *big.Int
	S *big.Int
}

// ParseSignature decodes a hex-encoded assertion signature, with or without a
// 0x prefix, into its canonical components.
func ParseSignature(sigHex string) (*NormalizedSignature, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(ErrMalformedSignature, err.Error())
	}
	return ParseSignatureBytes(raw)
}

// ParseSignatureBytes extracts (r, s) from a raw r||s pair or an ASN.1 DER
// sequence, the two encodings authenticators and passkey servers emit.
//
// S is always coerced to the low form: the secp256r1 precompile path rejects
// high-s signatures outright, and the verifier contract applies the same
// malleability check on the fallback path, so the low form is the only one
// that verifies on either route.
func ParseSignatureBytes(raw []byte) (*NormalizedSignature, error) {
	r, s, err := decodeComponents(raw)
	if err != nil {
		return nil, err
	}

	if r.Sign() <= 0 || r.Cmp(p256Order) >= 0 {
		return nil, errors.Wrap(ErrMalformedSignature, "r out of range")
	}
	if s.Sign() <= 0 || s.Cmp(p256Order) >= 0 {
		return nil, errors.Wrap(ErrMalformedSignature, "s out of range")
	}

	if s.Cmp(p256HalfOrder) > 0 {
		s = new(big.Int).Sub(p256Order, s)
	}

	return &NormalizedSignature{R: r, S: s}, nil
}

func decodeComponents(raw []byte) (*big.Int, *big.Int, error) {
	// DER: 0x30 <len> 0x02 <rlen> <r> 0x02 <slen> <s>
	if len(raw) > 0 && raw[0] == 0x30 {
		var sig derSignature
		rest, err := asn1.Unmarshal(raw, &sig)
		if err != nil || len(rest) != 0 {
			return nil, nil, errors.Wrap(ErrMalformedSignature, "invalid DER sequence")
		}
		return sig.R, sig.S, nil
	}

	// Raw form: two fixed-width big-endian components.
	if len(raw) != 64 {
		return nil, nil, errors.Wrapf(ErrMalformedSignature, "expected 64 bytes, got %d", len(raw))
	}

	return new(big.Int).SetBytes(raw[:32]), new(big.Int).SetBytes(raw[32:]), nil
}
