package frost

import (
	"encoding/hex"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
)

// IDKey is the stable map key for a ciphersuite.Scalar identifier, used
// throughout this package and by dkgengine/signengine wherever frost_core
// keys a BTreeMap by Identifier<C> (Go has no comparable interface-value
// map key safe across ciphersuites, so we key by encoding instead).
func IDKey(id ciphersuite.Scalar) string {
	return hex.EncodeToString(id.Bytes())
}

func idKey(id ciphersuite.Scalar) string { return IDKey(id) }

// hexDecode reverses IDKey. Map keys in this package are always produced
// by IDKey, so callers that fail to decode one have a corrupted map, not
// a malformed wire message.
func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// sortedKeys returns a package's identifier keys in ascending
// lexicographic order of their encoding, matching frost_core's BTreeMap
// iteration order — load-bearing for Lagrange coefficient computation
// and for any value derived by iterating a commitment/share map, since
// every honest party must iterate in the same order to agree on
// binding factors.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// polynomial is a secret sharing polynomial over a ciphersuite's scalar
// field, grounded on frost_core's SecretShare generation inside
// dkg::part1 (Shamir polynomial with Feldman VSS commitments to each
// coefficient).
type polynomial struct {
	suite        ciphersuite.Suite
	coefficients []ciphersuite.Scalar // coefficients[0] is the secret
}

// generatePolynomial samples a degree t-1 polynomial whose constant term
// is secret (or fresh random, if secret is nil).
func generatePolynomial(suite ciphersuite.Suite, rng io.Reader, t uint16, secret ciphersuite.Scalar) (*polynomial, error) {
	coeffs := make([]ciphersuite.Scalar, t)
	if secret != nil {
		coeffs[0] = secret
	} else {
		s, err := suite.RandomScalar(rng)
		if err != nil {
			return nil, errors.Wrap(err, "frost: sampling polynomial constant term")
		}
		coeffs[0] = s
	}
	for i := 1; i < int(t); i++ {
		c, err := suite.RandomScalar(rng)
		if err != nil {
			return nil, errors.Wrap(err, "frost: sampling polynomial coefficient")
		}
		coeffs[i] = c
	}
	return &polynomial{suite: suite, coefficients: coeffs}, nil
}

// evaluate computes the polynomial's value at x via Horner's method.
func (p *polynomial) evaluate(x ciphersuite.Scalar) ciphersuite.Scalar {
	acc := p.coefficients[len(p.coefficients)-1]
	for i := len(p.coefficients) - 2; i >= 0; i-- {
		acc = acc.Mul(x).Add(p.coefficients[i])
	}
	return acc
}

// commitments returns the Feldman VSS commitment to each coefficient,
// g^{coefficients[i]}, in ascending coefficient order (constant term
// first), matching Round1Package.Commitment's layout.
func (p *polynomial) commitments() []ciphersuite.Point {
	base := p.suite.BasePoint()
	out := make([]ciphersuite.Point, len(p.coefficients))
	for i, c := range p.coefficients {
		out[i] = base.ScalarMult(c)
	}
	return out
}

// verifyShare checks that a received share f_sender(recipient) matches
// the sender's published Feldman commitment, by evaluating the
// commitment polynomial at the recipient's identifier in the exponent:
// sum(commitment[j] * recipient^j) must equal g^share.
func verifyShare(suite ciphersuite.Suite, commitment []ciphersuite.Point, recipient ciphersuite.Scalar, share ciphersuite.Scalar) bool {
	expected := evaluateCommitment(suite, commitment, recipient)
	actual := suite.BasePoint().ScalarMult(share)
	return expected.Equal(actual)
}

// evaluateCommitment evaluates a Feldman commitment vector at x in the
// exponent, via Horner's method over points.
func evaluateCommitment(suite ciphersuite.Suite, commitment []ciphersuite.Point, x ciphersuite.Scalar) ciphersuite.Point {
	acc := commitment[len(commitment)-1]
	for i := len(commitment) - 2; i >= 0; i-- {
		acc = acc.ScalarMult(x).Add(commitment[i])
	}
	return acc
}

// lagrangeCoefficient computes the Lagrange coefficient for identifier id
// within the set of identifiers present in all, evaluated at x = 0 (the
// constant term), the standard Shamir secret reconstruction weight. Sign
// applies it to the signer's own signing share and VerifySignatureShare
// to the sender's verifying share; Part3 and Aggregate do not use it.
func lagrangeCoefficient(suite ciphersuite.Suite, id ciphersuite.Scalar, all []ciphersuite.Scalar) (ciphersuite.Scalar, error) {
	num, err := suite.ScalarFromUint16(1)
	if err != nil {
		return nil, err
	}
	den, err := suite.ScalarFromUint16(1)
	if err != nil {
		return nil, err
	}
	for _, other := range all {
		if other.Equal(id) {
			continue
		}
		num = num.Mul(other)
		den = den.Mul(other.Sub(id))
	}
	if den.IsZero() {
		return nil, errors.New("frost: duplicate identifier in lagrange coefficient set")
	}
	return num.Mul(den.Invert()), nil
}
