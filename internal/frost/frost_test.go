package frost_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
	"github.com/tangle-network/frost-blueprint/internal/frost"
	"github.com/tangle-network/frost-blueprint/internal/identifier"
)

func runDKG(t *testing.T, suiteID string, n, tt uint16) (map[uint16]*frost.KeyPackage, *frost.PublicKeyPackage) {
	t.Helper()
	suite, err := ciphersuite.Lookup(suiteID)
	require.NoError(t, err)

	ids := make(map[uint16]ciphersuite.Scalar, n)
	for i := uint16(0); i < n; i++ {
		id, err := identifier.ToIdentifier(suite, i)
		require.NoError(t, err)
		ids[i] = id
	}

	round1Secrets := make(map[uint16]*frost.DKGRound1Secret, n)
	round1Packages := make(map[uint16]frost.Round1Package, n)
	for i := uint16(0); i < n; i++ {
		secret, pkg, err := frost.Part1(suite, rand.Reader, ids[i], n, tt)
		require.NoError(t, err)
		round1Secrets[i] = secret
		round1Packages[i] = pkg
	}

	allRound1ByKey := make(map[uint16]map[string]frost.Round1Package, n)
	for i := uint16(0); i < n; i++ {
		m := make(map[string]frost.Round1Package, n)
		for j := uint16(0); j < n; j++ {
			m[frost.IDKey(ids[j])] = round1Packages[j]
		}
		allRound1ByKey[i] = m
	}

	round2Secrets := make(map[uint16]*frost.DKGRound2Secret, n)
	round2Outgoing := make(map[uint16]map[string]frost.Round2Package, n)
	for i := uint16(0); i < n; i++ {
		peers := make(map[string]frost.Round1Package, n-1)
		for j := uint16(0); j < n; j++ {
			if j == i {
				continue
			}
			peers[frost.IDKey(ids[j])] = round1Packages[j]
		}
		secret2, outgoing, err := frost.Part2(round1Secrets[i], peers)
		require.NoError(t, err)
		round2Secrets[i] = secret2
		round2Outgoing[i] = outgoing
	}

	keyPackages := make(map[uint16]*frost.KeyPackage, n)
	var pubKeyPkg *frost.PublicKeyPackage
	for i := uint16(0); i < n; i++ {
		received := make(map[string]frost.Round2Package, n-1)
		for j := uint16(0); j < n; j++ {
			if j == i {
				continue
			}
			received[frost.IDKey(ids[j])] = round2Outgoing[j][frost.IDKey(ids[i])]
		}
		keyPkg, pkPkg, err := frost.Part3(round2Secrets[i], allRound1ByKey[i], received)
		require.NoError(t, err)
		keyPackages[i] = keyPkg
		pubKeyPkg = pkPkg
	}

	for i := uint16(1); i < n; i++ {
		require.True(t, keyPackages[0].VerifyingKey.Equal(keyPackages[i].VerifyingKey))
	}
	return keyPackages, pubKeyPkg
}

func runSigning(t *testing.T, suiteID string, signers []uint16, keyPackages map[uint16]*frost.KeyPackage, pubKeyPkg *frost.PublicKeyPackage, msg []byte) frost.Signature {
	t.Helper()
	suite, err := ciphersuite.Lookup(suiteID)
	require.NoError(t, err)

	nonces := make(map[uint16]*frost.SigningNonces, len(signers))
	commitments := make(map[string]frost.SigningCommitments, len(signers))
	for _, i := range signers {
		n, c, err := frost.Commit(suite, rand.Reader)
		require.NoError(t, err)
		nonces[i] = n
		commitments[frost.IDKey(keyPackages[i].Identifier)] = c
	}

	pkg := &frost.SigningPackage{Commitments: commitments, Message: msg}

	shares := make(map[string]frost.SignatureShare, len(signers))
	for _, i := range signers {
		share, err := frost.Sign(suite, pkg, nonces[i], keyPackages[i])
		require.NoError(t, err)
		shares[frost.IDKey(keyPackages[i].Identifier)] = share
	}

	for _, i := range signers {
		key := frost.IDKey(keyPackages[i].Identifier)
		ok, err := frost.VerifySignatureShare(suite, keyPackages[i].Identifier, pubKeyPkg.VerifyingShares[key], shares[key], pkg, pubKeyPkg.VerifyingKey)
		require.NoError(t, err)
		require.True(t, ok)
	}

	sig, err := frost.Aggregate(suite, pkg, shares, pubKeyPkg)
	require.NoError(t, err)
	return sig
}

func TestDKGAndSigningEd25519(t *testing.T) {
	keyPackages, pubKeyPkg := runDKG(t, ciphersuite.Ed25519ID, 3, 2)
	sig := runSigning(t, ciphersuite.Ed25519ID, []uint16{0, 1}, keyPackages, pubKeyPkg, []byte("Hello, FROST!"))

	suite, err := ciphersuite.Lookup(ciphersuite.Ed25519ID)
	require.NoError(t, err)
	require.True(t, frost.Verify(suite, pubKeyPkg.VerifyingKey, []byte("Hello, FROST!"), sig))
}

func TestDKGAndSigningSecp256k1(t *testing.T) {
	keyPackages, pubKeyPkg := runDKG(t, ciphersuite.Secp256k1ID, 5, 3)
	sig := runSigning(t, ciphersuite.Secp256k1ID, []uint16{0, 2, 4}, keyPackages, pubKeyPkg, make([]byte, 32))

	suite, err := ciphersuite.Lookup(ciphersuite.Secp256k1ID)
	require.NoError(t, err)
	require.True(t, frost.Verify(suite, pubKeyPkg.VerifyingKey, make([]byte, 32), sig))
}

func TestInvalidProtocolParametersRejected(t *testing.T) {
	suite, err := ciphersuite.Lookup(ciphersuite.Ed25519ID)
	require.NoError(t, err)
	id, err := identifier.ToIdentifier(suite, 0)
	require.NoError(t, err)

	_, _, err = frost.Part1(suite, rand.Reader, id, 3, 0)
	require.ErrorIs(t, err, frost.ErrInvalidProtocolParameters)

	_, _, err = frost.Part1(suite, rand.Reader, id, 3, 4)
	require.ErrorIs(t, err, frost.ErrInvalidProtocolParameters)
}

func TestCorruptedShareIsBlamed(t *testing.T) {
	keyPackages, pubKeyPkg := runDKG(t, ciphersuite.Ed25519ID, 3, 2)
	suite, err := ciphersuite.Lookup(ciphersuite.Ed25519ID)
	require.NoError(t, err)

	signers := []uint16{0, 1}
	nonces := make(map[uint16]*frost.SigningNonces, len(signers))
	commitments := make(map[string]frost.SigningCommitments, len(signers))
	for _, i := range signers {
		n, c, err := frost.Commit(suite, rand.Reader)
		require.NoError(t, err)
		nonces[i] = n
		commitments[frost.IDKey(keyPackages[i].Identifier)] = c
	}
	pkg := &frost.SigningPackage{Commitments: commitments, Message: []byte("msg")}

	key0 := frost.IDKey(keyPackages[0].Identifier)
	share0, err := frost.Sign(suite, pkg, nonces[0], keyPackages[0])
	require.NoError(t, err)

	bogus, err := suite.RandomScalar(rand.Reader)
	require.NoError(t, err)
	share0.Value = bogus

	ok, err := frost.VerifySignatureShare(suite, keyPackages[0].Identifier, pubKeyPkg.VerifyingShares[key0], share0, pkg, pubKeyPkg.VerifyingKey)
	require.NoError(t, err)
	require.False(t, ok)
}
