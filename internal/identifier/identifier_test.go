package identifier_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
	"github.com/tangle-network/frost-blueprint/internal/identifier"
)

func suites(t *testing.T) []ciphersuite.Suite {
	t.Helper()
	var out []ciphersuite.Suite
	for _, id := range ciphersuite.IDs() {
		s, err := ciphersuite.Lookup(id)
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	for _, suite := range suites(t) {
		suite := suite
		t.Run(suite.ID(), func(t *testing.T) {
			for i := uint16(0); i < 32; i++ {
				require.NoError(t, identifier.Validate(suite, i))
			}
		})
	}
}

func TestIndexZeroMapsToNonZeroScalar(t *testing.T) {
	for _, suite := range suites(t) {
		id, err := identifier.ToIdentifier(suite, 0)
		require.NoError(t, err)
		require.False(t, id.IsZero(), "identifier for index 0 must be non-zero")
	}
}

func TestToIndexRejectsZeroScalar(t *testing.T) {
	for _, suite := range suites(t) {
		zero, err := suite.ScalarFromUint16(0)
		require.NoError(t, err)
		_, err = identifier.ToIndex(zero)
		require.ErrorIs(t, err, identifier.ErrInvalidPartyIndex)
	}
}
