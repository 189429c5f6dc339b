package frost

import (
	"io"

	"github.com/pkg/errors"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
)

const (
	bindingFactorDomain = "frost-signing-binding-factor-v1"
	challengeDomain     = "frost-signing-challenge-v1"
)

// SigningNonces are the two secret per-run scalars Commit produces and
// Sign consumes; they must never be reused across runs and never leave
// the node, grounded on original_source's rounds::sign.rs commit/sign
// split (frost_core's commit/sign pair).
type SigningNonces struct {
	hiding  ciphersuite.Scalar
	binding ciphersuite.Scalar
}

// Commit samples this party's round-1 nonce pair and the commitments
// derived from them, grounded on original_source's `commit(signing_share,
// rng)` call inside rounds/sign.rs step 1.
func Commit(suite ciphersuite.Suite, rng io.Reader) (*SigningNonces, SigningCommitments, error) {
	hiding, err := suite.RandomScalar(rng)
	if err != nil {
		return nil, SigningCommitments{}, errors.Wrap(err, "frost: commit sampling hiding nonce")
	}
	binding, err := suite.RandomScalar(rng)
	if err != nil {
		return nil, SigningCommitments{}, errors.Wrap(err, "frost: commit sampling binding nonce")
	}
	nonces := &SigningNonces{hiding: hiding, binding: binding}
	commitments := SigningCommitments{
		Hiding:  suite.BasePoint().ScalarMult(hiding),
		Binding: suite.BasePoint().ScalarMult(binding),
	}
	return nonces, commitments, nil
}

// bindingFactor derives participant id's binding-factor scalar rho_i from
// the full commitment set and message, domain-separated per identifier so
// that every honest signer computes the same value for the same id.
func bindingFactor(suite ciphersuite.Suite, id string, pkg *SigningPackage) ciphersuite.Scalar {
	inputs := [][]byte{[]byte(id), pkg.Message}
	for _, key := range sortedKeys(pkg.Commitments) {
		c := pkg.Commitments[key]
		inputs = append(inputs, []byte(key), c.Hiding.Bytes(), c.Binding.Bytes())
	}
	return suite.HashToScalar(bindingFactorDomain, inputs...)
}

// groupCommitment computes R = sum_i (hiding_i + rho_i * binding_i) over
// every signer in the package, the aggregate nonce commitment that binds
// the Schnorr challenge.
func groupCommitment(suite ciphersuite.Suite, pkg *SigningPackage) ciphersuite.Point {
	acc := suite.Identity()
	for _, key := range sortedKeys(pkg.Commitments) {
		c := pkg.Commitments[key]
		rho := bindingFactor(suite, key, pkg)
		acc = acc.Add(c.Hiding).Add(c.Binding.ScalarMult(rho))
	}
	return acc
}

// challenge computes the Schnorr challenge scalar c = H(R || Y || msg),
// binding the group commitment, verifying key, and message together.
func challenge(suite ciphersuite.Suite, groupComm ciphersuite.Point, verifyingKey ciphersuite.Point, msg []byte) ciphersuite.Scalar {
	return suite.HashToScalar(challengeDomain, groupComm.Bytes(), verifyingKey.Bytes(), msg)
}

// identifiers decodes every key of a commitments map back into scalars,
// the signer-identifier set used for Lagrange coefficients.
func identifiers(suite ciphersuite.Suite, keys []string) ([]ciphersuite.Scalar, error) {
	out := make([]ciphersuite.Scalar, 0, len(keys))
	for _, k := range keys {
		b, err := hexDecode(k)
		if err != nil {
			return nil, errors.Wrap(err, "frost: decoding identifier")
		}
		id, err := suite.ScalarFromBytes(b)
		if err != nil {
			return nil, errors.Wrap(err, "frost: decoding identifier scalar")
		}
		out = append(out, id)
	}
	return out, nil
}

// Sign produces this party's signature share, grounded on
// original_source's `sign(signing_package, nonces, key_pkg)` call inside
// rounds/sign.rs step 2.
func Sign(suite ciphersuite.Suite, pkg *SigningPackage, nonces *SigningNonces, keyPkg *KeyPackage) (SignatureShare, error) {
	selfKey := idKey(keyPkg.Identifier)
	if _, ok := pkg.Commitments[selfKey]; !ok {
		return SignatureShare{}, errors.New("frost: signing package missing own commitments")
	}

	all, err := identifiers(suite, sortedKeys(pkg.Commitments))
	if err != nil {
		return SignatureShare{}, err
	}
	lambda, err := lagrangeCoefficient(suite, keyPkg.Identifier, all)
	if err != nil {
		return SignatureShare{}, errors.Wrap(err, "frost: sign computing lagrange coefficient")
	}

	rho := bindingFactor(suite, selfKey, pkg)
	groupComm := groupCommitment(suite, pkg)
	c := challenge(suite, groupComm, keyPkg.VerifyingKey, pkg.Message)

	z := nonces.hiding.Add(rho.Mul(nonces.binding)).Add(lambda.Mul(keyPkg.SigningShare).Mul(c))
	return SignatureShare{Value: z}, nil
}

// VerifySignatureShare checks a single party's signature share against
// its published verifying share, grounded on original_source's
// `verify_signature_share` call inside rounds/sign.rs step 4.
func VerifySignatureShare(suite ciphersuite.Suite, from ciphersuite.Scalar, verifyingShare ciphersuite.Point, share SignatureShare, pkg *SigningPackage, verifyingKey ciphersuite.Point) (bool, error) {
	key := idKey(from)
	commitments, ok := pkg.Commitments[key]
	if !ok {
		return false, errors.New("frost: verify missing commitments for sender")
	}

	all, err := identifiers(suite, sortedKeys(pkg.Commitments))
	if err != nil {
		return false, err
	}
	lambda, err := lagrangeCoefficient(suite, from, all)
	if err != nil {
		return false, errors.Wrap(err, "frost: verify computing lagrange coefficient")
	}

	rho := bindingFactor(suite, key, pkg)
	groupComm := groupCommitment(suite, pkg)
	c := challenge(suite, groupComm, verifyingKey, pkg.Message)

	lhs := suite.BasePoint().ScalarMult(share.Value)
	rhs := commitments.Hiding.Add(commitments.Binding.ScalarMult(rho)).Add(verifyingShare.ScalarMult(lambda.Mul(c)))
	return lhs.Equal(rhs), nil
}

// Aggregate combines verified signature shares into the final Schnorr
// signature, grounded on original_source's `aggregate(signing_package,
// all_shares, pub_key_pkg)` call inside rounds/sign.rs step 5. Callers
// must have already verified every share; Aggregate does not re-verify,
// so pubKeyPkg is accepted only to keep this signature matching the
// named operation's shape and is not otherwise consulted here.
func Aggregate(suite ciphersuite.Suite, pkg *SigningPackage, shares map[string]SignatureShare, pubKeyPkg *PublicKeyPackage) (Signature, error) {
	groupComm := groupCommitment(suite, pkg)
	z, err := suite.ScalarFromUint16(0)
	if err != nil {
		return Signature{}, err
	}
	for _, key := range sortedKeys(shares) {
		z = z.Add(shares[key].Value)
	}
	return Signature{R: groupComm, Z: z}, nil
}

// Verify checks a Schnorr signature against a verifying key and message,
// the property used by the test suite's "signature verifies" invariant
// (spec.md §8). g^z == R + Y^c.
func Verify(suite ciphersuite.Suite, verifyingKey ciphersuite.Point, msg []byte, sig Signature) bool {
	c := challenge(suite, sig.R, verifyingKey, msg)
	lhs := suite.BasePoint().ScalarMult(sig.Z)
	rhs := sig.R.Add(verifyingKey.ScalarMult(c))
	return lhs.Equal(rhs)
}
