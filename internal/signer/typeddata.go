package signer

import (
	"context"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

// SignTypedData validates and hashes the EIP-712 payload locally, then signs
// the resulting hash through the same pipeline as SignMessage. Validation
// runs before any network call so malformed data never consumes a
// user-verification prompt.
func (s *ModularSigner) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	hash, err := hashTypedData(data)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidTypedData, err.Error())
	}
	return s.sign(ctx, hex.EncodeToString(hash))
}

func hashTypedData(data apitypes.TypedData) ([]byte, error) {
	if err := validateTypedData(data); err != nil {
		return nil, err
	}

	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, err
	}

	return hash, nil
}

// validateTypedData checks the structural requirements TypedDataAndHash
// reports poorly on, so the caller gets a usable reason.
func validateTypedData(data apitypes.TypedData) error {
	if len(data.Types) == 0 {
		return errors.New("types are empty")
	}
	if data.PrimaryType == "" {
		return errors.New("primary type is empty")
	}
	if _, ok := data.Types[data.PrimaryType]; !ok {
		return errors.Errorf("primary type %q is not defined in types", data.PrimaryType)
	}
	if _, ok := data.Types["EIP712Domain"]; !ok {
		return errors.New("EIP712Domain type is missing")
	}
	if data.Message == nil {
		return errors.New("message is empty")
	}
	return nil
}
