// Package identifier implements the bijection between a party's small
// integer index and its ciphersuite-scalar Identifier, grounded on the
// IdentifierWrapper type in the frost-blueprint Rust source this core was
// distilled from: little-endian serialize the scalar, take the low two
// bytes, and offset by one so wire index 0 maps to the non-zero scalar 1.
package identifier

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
)

// ErrInvalidPartyIndex is returned whenever an index or identifier falls
// outside the bijection's domain.
var ErrInvalidPartyIndex = errors.New("invalid party index")

// ToIdentifier maps wire index i (valid range [0, n)) to its ciphersuite
// Identifier, scalar(i+1).
func ToIdentifier(suite ciphersuite.Suite, i uint16) (ciphersuite.Scalar, error) {
	if i == 65535 {
		return nil, errors.Wrapf(ErrInvalidPartyIndex, "index %d overflows identifier offset", i)
	}
	id, err := suite.ScalarFromUint16(i + 1)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPartyIndex, err.Error())
	}
	return id, nil
}

// ToIndex recovers the wire index from a ciphersuite Identifier by
// reading the low two bytes of its scalar value and subtracting one.
// Ed25519 encodes scalars little-endian and secp256k1 big-endian; an
// identifier never exceeds 65535, so when the first two bytes of the
// encoding are zero the value is read from its last two bytes instead.
func ToIndex(id ciphersuite.Scalar) (uint16, error) {
	b := id.Bytes()
	if len(b) < 2 {
		return 0, errors.Wrap(ErrInvalidPartyIndex, "scalar encoding too short")
	}
	raw := binary.LittleEndian.Uint16(b[:2])
	if raw == 0 {
		raw = binary.BigEndian.Uint16(b[len(b)-2:])
	}
	if raw == 0 {
		return 0, errors.Wrap(ErrInvalidPartyIndex, "identifier scalar decodes to zero")
	}
	return raw - 1, nil
}

// Validate round-trips i through ToIdentifier/ToIndex and fails if the
// composition is not the identity, catching scalar overflow for indices
// that cannot be represented in the ciphersuite's low two identifier
// bytes.
func Validate(suite ciphersuite.Suite, i uint16) error {
	id, err := ToIdentifier(suite, i)
	if err != nil {
		return err
	}
	got, err := ToIndex(id)
	if err != nil {
		return err
	}
	if got != i {
		return errors.Wrapf(ErrInvalidPartyIndex, "round-trip mismatch: %d != %d", got, i)
	}
	return nil
}
