package signer

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	challengeMarker    = `"challenge":"`
	responseTypeMarker = `"type":"`
)

// FieldLocations are byte offsets into the UTF-8 client data JSON at which
// the challenge and type values begin, just past the opening quote.
type FieldLocations struct {
	Challenge    uint64
	ResponseType uint64
}

// LocateFields finds the field offsets by literal substring search. The
// verifier contract validates the JSON with the same substring model instead
// of parsing it, so the offsets must come from the raw text, not a parser.
func LocateFields(clientDataJSON string) (*FieldLocations, error) {
	challengeIdx := strings.Index(clientDataJSON, challengeMarker)
	if challengeIdx < 0 {
		return nil, errors.Wrap(ErrFieldNotFound, "challenge")
	}

	typeIdx := strings.Index(clientDataJSON, responseTypeMarker)
	if typeIdx < 0 {
		return nil, errors.Wrap(ErrFieldNotFound, "type")
	}

	return &FieldLocations{
		Challenge:    uint64(challengeIdx + len(challengeMarker)),
		ResponseType: uint64(typeIdx + len(responseTypeMarker)),
	}, nil
}
