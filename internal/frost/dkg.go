package frost

import (
	"io"

	"github.com/pkg/errors"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
)

const dkgProofOfKnowledgeDomain = "frost-dkg-proof-of-knowledge-v1"

// DKGRound1Secret is the private state part1 produces and part2 consumes:
// the party's own secret polynomial. It never leaves the node.
type DKGRound1Secret struct {
	suite      ciphersuite.Suite
	identifier ciphersuite.Scalar
	poly       *polynomial
	minSigners uint16
	maxSigners uint16
}

// DKGRound2Secret is the private state part2 produces and part3 consumes.
type DKGRound2Secret struct {
	suite      ciphersuite.Suite
	identifier ciphersuite.Scalar
	poly       *polynomial
	minSigners uint16
}

// Part1 samples this party's secret sharing polynomial, commits to it
// with Feldman VSS, and proves knowledge of its constant term, grounded
// on original_source's dkg::part1 call inside rounds/keygen.rs.
func Part1(suite ciphersuite.Suite, rng io.Reader, identifier ciphersuite.Scalar, maxSigners, minSigners uint16) (*DKGRound1Secret, Round1Package, error) {
	if minSigners < 1 || minSigners > maxSigners {
		return nil, Round1Package{}, ErrInvalidProtocolParameters
	}

	poly, err := generatePolynomial(suite, rng, minSigners, nil)
	if err != nil {
		return nil, Round1Package{}, errors.Wrap(err, "frost: part1 generating polynomial")
	}

	commitment := poly.commitments()

	k, err := suite.RandomScalar(rng)
	if err != nil {
		return nil, Round1Package{}, errors.Wrap(err, "frost: part1 sampling proof nonce")
	}
	r := suite.BasePoint().ScalarMult(k)
	c := suite.HashToScalar(dkgProofOfKnowledgeDomain, identifier.Bytes(), commitment[0].Bytes(), r.Bytes())
	z := k.Add(poly.coefficients[0].Mul(c))

	secret := &DKGRound1Secret{
		suite:      suite,
		identifier: identifier,
		poly:       poly,
		minSigners: minSigners,
		maxSigners: maxSigners,
	}
	pkg := Round1Package{Commitment: commitment, ProofR: r, ProofZ: z}
	return secret, pkg, nil
}

// verifyProofOfKnowledge checks a Round1Package's proof of possession of
// the secret behind its constant-term commitment.
func verifyProofOfKnowledge(suite ciphersuite.Suite, sender ciphersuite.Scalar, pkg Round1Package) bool {
	a0 := pkg.Commitment[0]
	c := suite.HashToScalar(dkgProofOfKnowledgeDomain, sender.Bytes(), a0.Bytes(), pkg.ProofR.Bytes())
	lhs := suite.BasePoint().ScalarMult(pkg.ProofZ)
	rhs := pkg.ProofR.Add(a0.ScalarMult(c))
	return lhs.Equal(rhs)
}

// Part2 verifies every peer's proof of possession and produces this
// party's per-recipient shares, grounded on original_source's
// dkg::part2 call. round1Packages must be keyed by sender identifier and
// must NOT include this party's own package.
func Part2(secret *DKGRound1Secret, round1Packages map[string]Round1Package) (*DKGRound2Secret, map[string]Round2Package, error) {
	for key, pkg := range round1Packages {
		senderID, err := secret.suite.ScalarFromBytes(mustHexDecode(key))
		if err != nil {
			return nil, nil, errors.Wrap(err, "frost: part2 decoding sender identifier")
		}
		if !verifyProofOfKnowledge(secret.suite, senderID, pkg) {
			return nil, nil, &InvalidProofOfKnowledgeError{Sender: key}
		}
	}

	out := make(map[string]Round2Package, len(round1Packages))
	for key := range round1Packages {
		recipientID, err := secret.suite.ScalarFromBytes(mustHexDecode(key))
		if err != nil {
			return nil, nil, errors.Wrap(err, "frost: part2 decoding recipient identifier")
		}
		out[key] = Round2Package{Value: secret.poly.evaluate(recipientID)}
	}

	next := &DKGRound2Secret{
		suite:      secret.suite,
		identifier: secret.identifier,
		poly:       secret.poly,
		minSigners: secret.minSigners,
	}
	return next, out, nil
}

// Part3 verifies every received share against its sender's Feldman
// commitment, combines them into this party's signing share, and derives
// the joint public key package, grounded on original_source's
// dkg::part3 call. round1Packages must include every party's package
// (including this party's own); round2Packages must be keyed by sender
// identifier and must NOT include this party's own contribution.
func Part3(secret *DKGRound2Secret, round1Packages map[string]Round1Package, round2Packages map[string]Round2Package) (*KeyPackage, *PublicKeyPackage, error) {
	selfKey := idKey(secret.identifier)

	signingShare := secret.poly.evaluate(secret.identifier)
	for key, r2 := range round2Packages {
		r1, ok := round1Packages[key]
		if !ok {
			return nil, nil, ErrMissingPackage
		}
		if !verifyShare(secret.suite, r1.Commitment, secret.identifier, r2.Value) {
			return nil, nil, &InvalidShareError{Sender: key}
		}
		signingShare = signingShare.Add(r2.Value)
	}

	verifyingKey := secret.suite.Identity()
	verifyingShares := make(map[string]ciphersuite.Point, len(round1Packages))
	for key, r1 := range round1Packages {
		verifyingKey = verifyingKey.Add(r1.Commitment[0])

		id, err := secret.suite.ScalarFromBytes(mustHexDecode(key))
		if err != nil {
			return nil, nil, errors.Wrap(err, "frost: part3 decoding identifier")
		}
		share := secret.suite.Identity()
		for _, other := range round1Packages {
			share = share.Add(evaluateCommitment(secret.suite, other.Commitment, id))
		}
		verifyingShares[key] = share
	}

	keyPkg := &KeyPackage{
		Identifier:     secret.identifier,
		SigningShare:   signingShare,
		VerifyingShare: verifyingShares[selfKey],
		VerifyingKey:   verifyingKey,
		MinSigners:     secret.minSigners,
	}
	pubPkg := &PublicKeyPackage{VerifyingShares: verifyingShares, VerifyingKey: verifyingKey}
	return keyPkg, pubPkg, nil
}

func mustHexDecode(s string) []byte {
	b, err := hexDecode(s)
	if err != nil {
		panic(err)
	}
	return b
}
