package signengine_test

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
	"github.com/tangle-network/frost-blueprint/internal/delivery"
	"github.com/tangle-network/frost-blueprint/internal/frost"
	"github.com/tangle-network/frost-blueprint/internal/identifier"
	"github.com/tangle-network/frost-blueprint/internal/signengine"
)

// memTransport is an in-memory, single-process delivery.Transport shared by
// every party in a test network: a mailbox per recipient, fed by a single
// SendMessage call per broadcast (fanned out here rather than by the
// adapter, since a real network would do the fan-out at the transport
// layer, not the engine layer).
type memTransport struct {
	self    uint16
	mailbox chan delivery.Envelope
	net     *testNetwork
}

type testNetwork struct {
	mu      sync.Mutex
	mailbox map[uint16]chan delivery.Envelope
}

func newTestNetwork(n uint16) *testNetwork {
	tn := &testNetwork{mailbox: make(map[uint16]chan delivery.Envelope, n)}
	for i := uint16(0); i < n; i++ {
		tn.mailbox[i] = make(chan delivery.Envelope, 64)
	}
	return tn
}

func (tn *testNetwork) transportFor(self uint16) *memTransport {
	return &memTransport{self: self, mailbox: tn.mailbox[self], net: tn}
}

func (m *memTransport) SendMessage(ctx context.Context, env delivery.Envelope) error {
	m.net.mu.Lock()
	defer m.net.mu.Unlock()
	if env.Recipient.All {
		for idx, box := range m.net.mailbox {
			if idx == m.self {
				continue
			}
			box <- env
		}
		return nil
	}
	m.net.mailbox[env.Recipient.To] <- env
	return nil
}

func (m *memTransport) NextMessage(ctx context.Context) (delivery.Envelope, error) {
	select {
	case <-ctx.Done():
		return delivery.Envelope{}, ctx.Err()
	case env := <-m.mailbox:
		return env, nil
	}
}

func TestSigningEngineProducesVerifiableSignature(t *testing.T) {
	suite, err := ciphersuite.Lookup(ciphersuite.Ed25519ID)
	require.NoError(t, err)

	const n, tt = uint16(3), uint16(2)
	keyPackages, pubKeyPkg := runFrostDKG(t, suite, n, tt)

	signerSet := []uint16{0, 1}
	msg := []byte("sign this message")

	net := newTestNetwork(uint16(len(signerSet)))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	sigs := make([]*frost.Signature, len(signerSet))
	errs := make([]error, len(signerSet))
	for pos, global := range signerSet {
		pos, global := pos, global
		wg.Add(1)
		go func() {
			defer wg.Done()
			adapter := delivery.New(global, net.transportFor(uint16(pos)))
			sig, err := signengine.Run(ctx, suite, rand.Reader, keyPackages[global], pubKeyPkg, signerSet, msg, adapter, nil)
			sigs[pos] = sig
			errs[pos] = err
		}()
	}
	wg.Wait()

	for i := range signerSet {
		require.NoError(t, errs[i])
		require.NotNil(t, sigs[i])
	}
	require.True(t, frost.Verify(suite, pubKeyPkg.VerifyingKey, msg, *sigs[0]))
	require.Equal(t, sigs[0].Z.Bytes(), sigs[1].Z.Bytes())
}

func TestSigningEngineRejectsUndersizedSignerSet(t *testing.T) {
	suite, err := ciphersuite.Lookup(ciphersuite.Ed25519ID)
	require.NoError(t, err)

	keyPackages, pubKeyPkg := runFrostDKG(t, suite, 3, 2)
	net := newTestNetwork(1)
	adapter := delivery.New(0, net.transportFor(0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = signengine.Run(ctx, suite, rand.Reader, keyPackages[0], pubKeyPkg, []uint16{0}, []byte("m"), adapter, nil)
	require.ErrorIs(t, err, signengine.ErrInvalidProtocolParameters)
}

func TestSigningEngineRejectsSelfNotInSignerSet(t *testing.T) {
	suite, err := ciphersuite.Lookup(ciphersuite.Ed25519ID)
	require.NoError(t, err)

	keyPackages, pubKeyPkg := runFrostDKG(t, suite, 3, 2)
	net := newTestNetwork(2)
	adapter := delivery.New(0, net.transportFor(0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = signengine.Run(ctx, suite, rand.Reader, keyPackages[0], pubKeyPkg, []uint16{1, 2}, []byte("m"), adapter, nil)
	require.ErrorIs(t, err, signengine.ErrSelfNotInSignerSet)
}

// runFrostDKG is a thin local simulation of the three-round DKG, kept
// separate from the internal/frost package's own test helpers so this
// package's tests don't depend on frost_test's unexported helpers.
func runFrostDKG(t *testing.T, suite ciphersuite.Suite, n, tt uint16) (map[uint16]*frost.KeyPackage, *frost.PublicKeyPackage) {
	t.Helper()

	ids := make(map[uint16]ciphersuite.Scalar, n)
	for i := uint16(0); i < n; i++ {
		id, err := identifier.ToIdentifier(suite, i)
		require.NoError(t, err)
		ids[i] = id
	}

	secrets1 := make(map[uint16]*frost.DKGRound1Secret, n)
	pkgs1 := make(map[uint16]frost.Round1Package, n)
	for i := uint16(0); i < n; i++ {
		secret, pkg, err := frost.Part1(suite, rand.Reader, ids[i], n, tt)
		require.NoError(t, err)
		secrets1[i] = secret
		pkgs1[i] = pkg
	}

	allRound1 := make(map[string]frost.Round1Package, n)
	for i := uint16(0); i < n; i++ {
		allRound1[frost.IDKey(ids[i])] = pkgs1[i]
	}

	secrets2 := make(map[uint16]*frost.DKGRound2Secret, n)
	outgoing2 := make(map[uint16]map[string]frost.Round2Package, n)
	for i := uint16(0); i < n; i++ {
		peers := make(map[string]frost.Round1Package, n-1)
		for j := uint16(0); j < n; j++ {
			if j != i {
				peers[frost.IDKey(ids[j])] = pkgs1[j]
			}
		}
		secret2, outgoing, err := frost.Part2(secrets1[i], peers)
		require.NoError(t, err)
		secrets2[i] = secret2
		outgoing2[i] = outgoing
	}

	keyPackages := make(map[uint16]*frost.KeyPackage, n)
	var pubKeyPkg *frost.PublicKeyPackage
	for i := uint16(0); i < n; i++ {
		received := make(map[string]frost.Round2Package, n-1)
		for j := uint16(0); j < n; j++ {
			if j != i {
				received[frost.IDKey(ids[j])] = outgoing2[j][frost.IDKey(ids[i])]
			}
		}
		keyPkg, pkPkg, err := frost.Part3(secrets2[i], allRound1, received)
		require.NoError(t, err)
		keyPackages[i] = keyPkg
		pubKeyPkg = pkPkg
	}
	return keyPackages, pubKeyPkg
}
