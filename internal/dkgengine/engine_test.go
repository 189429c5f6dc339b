package dkgengine_test

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
	"github.com/tangle-network/frost-blueprint/internal/delivery"
	"github.com/tangle-network/frost-blueprint/internal/dkgengine"
	"github.com/tangle-network/frost-blueprint/internal/frosttest"
	"github.com/tangle-network/frost-blueprint/internal/router"
)

func TestDKGEngineProducesConsistentKeyPackages(t *testing.T) {
	suite, err := ciphersuite.Lookup(ciphersuite.Ed25519ID)
	require.NoError(t, err)

	const n, tt = uint16(3), uint16(2)
	net := frosttest.NewNetwork(n)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	verifyingKeys := make([][]byte, n)
	errs := make([]error, n)
	for i := uint16(0); i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			adapter := delivery.New(i, net.TransportFor(i))
			rtr := router.New(i, n)
			_, pubKeyPkg, err := dkgengine.Run(ctx, suite, rand.Reader, tt, n, i, adapter, rtr, nil)
			errs[i] = err
			if err == nil {
				verifyingKeys[i] = pubKeyPkg.VerifyingKey.Bytes()
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	for i := 1; i < int(n); i++ {
		require.Equal(t, verifyingKeys[0], verifyingKeys[i])
	}
}

// duplicatingTransport resends every outbound message a second time,
// simulating a retransmitting or malicious peer.
type duplicatingTransport struct {
	delivery.Transport
}

func (d *duplicatingTransport) SendMessage(ctx context.Context, env delivery.Envelope) error {
	if err := d.Transport.SendMessage(ctx, env); err != nil {
		return err
	}
	return d.Transport.SendMessage(ctx, env)
}

// TestDKGEngineSurfacesRouteErrorOnDuplicateMessage drives a genuine
// duplicate delivery through the wired pump goroutine (not just the
// Router in isolation), confirming Run actually observes a
// *router.RouteError instead of a generic EOF when a peer retransmits.
func TestDKGEngineSurfacesRouteErrorOnDuplicateMessage(t *testing.T) {
	suite, err := ciphersuite.Lookup(ciphersuite.Ed25519ID)
	require.NoError(t, err)

	const n, tt = uint16(3), uint16(2)
	net := frosttest.NewNetwork(n)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	transports := make([]delivery.Transport, n)
	for i := uint16(0); i < n; i++ {
		transports[i] = net.TransportFor(i)
	}
	// Party 1 retransmits everything it sends, so every other party's
	// router sees a duplicate sender for round 1.
	transports[1] = &duplicatingTransport{Transport: transports[1]}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := uint16(0); i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			adapter := delivery.New(i, transports[i])
			rtr := router.New(i, n)
			_, _, err := dkgengine.Run(ctx, suite, rand.Reader, tt, n, i, adapter, rtr, nil)
			errs[i] = err
		}()
	}
	wg.Wait()

	re, ok := router.AsRouteError(errs[0])
	require.True(t, ok, "expected party 0 to see a *router.RouteError, got %v", errs[0])
	require.Equal(t, "duplicate message from sender", re.Reason)
	require.Equal(t, uint16(1), re.Sender)

	re, ok = router.AsRouteError(errs[2])
	require.True(t, ok, "expected party 2 to see a *router.RouteError, got %v", errs[2])
	require.Equal(t, uint16(1), re.Sender)
}
