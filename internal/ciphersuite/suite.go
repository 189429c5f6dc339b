// Package ciphersuite fixes the small, closed set of elliptic-curve
// groups, scalar fields and hash functions the FROST core can run over.
//
// A Suite erases the concrete curve behind the few operations the DKG
// and signing engines actually need, the way drand's common/key package
// carries a *crypto.Scheme capability bundle instead of templating every
// caller over the curve type.
package ciphersuite

import (
	"io"

	"github.com/pkg/errors"
)

// Scalar is an element of a ciphersuite's scalar field.
type Scalar interface {
	Bytes() []byte
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Mul(Scalar) Scalar
	Invert() Scalar
	IsZero() bool
	Equal(Scalar) bool
}

// Point is an element of a ciphersuite's elliptic-curve group.
type Point interface {
	Bytes() []byte
	Add(Point) Point
	ScalarMult(Scalar) Point
	Equal(Point) bool
}

// Suite bundles the group, field and hash operations a ciphersuite needs
// to participate in FROST DKG and signing. Implementations are stateless
// and safe for concurrent use.
type Suite interface {
	// ID is the ciphersuite's wire identifier, e.g. "FROST-ED25519-SHA512-v1".
	ID() string

	ScalarFromUint16(i uint16) (Scalar, error)
	ScalarFromBytes(b []byte) (Scalar, error)
	RandomScalar(rand io.Reader) (Scalar, error)

	PointFromBytes(b []byte) (Point, error)
	BasePoint() Point
	Identity() Point

	// HashToScalar derives a scalar deterministically from domain-separated
	// inputs. Used for binding factors and Schnorr challenges.
	HashToScalar(domain string, inputs ...[]byte) Scalar

	// Hash is the ciphersuite-native message digest (SHA-512 for Ed25519,
	// SHA-256 for secp256k1).
	Hash(msg []byte) []byte
}

// ErrUnknownCiphersuite is what the *UnknownCiphersuiteError that Lookup
// returns for any ID outside the closed registry unwraps to.
var ErrUnknownCiphersuite = errors.New("unknown ciphersuite")

// UnknownCiphersuiteError names the offending ciphersuite ID.
type UnknownCiphersuiteError struct {
	ID string
}

func (e *UnknownCiphersuiteError) Error() string {
	return "unknown ciphersuite: " + e.ID
}

func (e *UnknownCiphersuiteError) Unwrap() error { return ErrUnknownCiphersuite }

var registry = map[string]Suite{}

func register(s Suite) {
	registry[s.ID()] = s
}

// Lookup resolves a ciphersuite ID to its Suite, the sole dynamic-dispatch
// point between the Job Surface and the generically-written DKG/Signing
// engines.
func Lookup(id string) (Suite, error) {
	s, ok := registry[id]
	if !ok {
		return nil, &UnknownCiphersuiteError{ID: id}
	}
	return s, nil
}

// IDs lists every registered ciphersuite, in registration order.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for _, id := range []string{Ed25519ID, Secp256k1ID} {
		if _, ok := registry[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
