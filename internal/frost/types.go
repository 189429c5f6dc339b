// Package frost implements the ciphersuite-generic FROST distributed key
// generation and threshold signing algorithms, grounded directly on
// original_source's rounds/keygen.rs and rounds/sign.rs (themselves thin
// wrappers over the frost_core crate), realized here over the interface-
// erased ciphersuite.Suite instead of a generic curve parameter.
package frost

import "github.com/tangle-network/frost-blueprint/internal/ciphersuite"

// Round1Package is broadcast in DKG round 1: a Feldman VSS commitment to
// the party's secret polynomial plus a Schnorr proof of knowledge of its
// constant term (proof of possession).
type Round1Package struct {
	Commitment []ciphersuite.Point // coefficient commitments, degree t-1
	ProofR     ciphersuite.Point   // Schnorr proof-of-possession commitment
	ProofZ     ciphersuite.Scalar  // Schnorr proof-of-possession response
}

// Round2Package is sent P2P in DKG round 2: the sender's secret share of
// its polynomial evaluated at the recipient's identifier.
type Round2Package struct {
	Value ciphersuite.Scalar
}

// KeyPackage is a single party's durable output of a successful DKG run.
type KeyPackage struct {
	Identifier     ciphersuite.Scalar
	SigningShare   ciphersuite.Scalar
	VerifyingShare ciphersuite.Point
	VerifyingKey   ciphersuite.Point
	MinSigners     uint16
}

// PublicKeyPackage is the distributable, identical-across-parties output
// of a successful DKG run.
type PublicKeyPackage struct {
	VerifyingShares map[string]ciphersuite.Point // keyed by identifier.Bytes() hex
	VerifyingKey    ciphersuite.Point
}

// SigningCommitments is a single party's round-1 nonce commitment pair
// for one signing run, binding a hiding and a binding nonce.
type SigningCommitments struct {
	Hiding  ciphersuite.Point
	Binding ciphersuite.Point
}

// SignatureShare is a single party's round-2 partial signature.
type SignatureShare struct {
	Value ciphersuite.Scalar
}

// Signature is the final aggregated Schnorr signature.
type Signature struct {
	R ciphersuite.Point
	Z ciphersuite.Scalar
}

// SigningPackage bundles what every signer needs to produce and verify
// signature shares in a single run.
type SigningPackage struct {
	Commitments map[string]SigningCommitments // keyed by identifier.Bytes() hex
	Message     []byte
}
