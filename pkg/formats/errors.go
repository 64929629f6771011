package formats

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Ni-zav/formula/pkg/binreader"
)

// Error kinds shared by all parsers. Specific errors wrap one of these so
// callers can match either level with errors.Is.
var (
	ErrMalformedInput    = errors.New("malformed input")
	ErrMissingChunk      = errors.New("missing required chunk")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyResult       = errors.New("mesh has no vertices")

	// ErrOutOfBounds is returned when a binary read runs past the end of the input.
	ErrOutOfBounds = binreader.ErrOutOfBounds
)

// Specific parser errors.
var (
	ErrMalformedNumber     = fmt.Errorf("%w: malformed number", ErrMalformedInput)
	ErrInvalidReference    = fmt.Errorf("%w: invalid index reference", ErrMalformedInput)
	ErrInvalidJSON         = fmt.Errorf("%w: invalid glTF JSON", ErrMalformedInput)
	ErrMissingJSONChunk    = fmt.Errorf("%w: no JSON chunk in GLB", ErrMissingChunk)
	ErrInvalidRoot         = fmt.Errorf("%w: no COLLADA root element", ErrMissingChunk)
	ErrUnknownPropertyType = fmt.Errorf("%w: unknown FBX property type", ErrUnsupportedFormat)
	ErrExternalBuffer      = errors.New("glTF buffer references an external file")
)

// parseCoord parses a finite floating-point coordinate. NaN and infinities
// are rejected since they cannot be normalized or serialized.
func parseCoord(tok string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, tok)
	}
	return v, nil
}

// checkFinite reports the first non-finite value decoded from a binary source.
func checkFinite(vals []float64) error {
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value %v at %d", ErrMalformedNumber, v, i)
		}
	}
	return nil
}
