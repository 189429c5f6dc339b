package router_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tangle-network/frost-blueprint/internal/router"
)

func TestBroadcastRoundCollectsAllSenders(t *testing.T) {
	r := router.New(0, 3)
	h := r.Register(router.Broadcast)

	require.NoError(t, r.Deliver(h, 1, false, "from-1"))
	require.NoError(t, r.Deliver(h, 2, false, "from-2"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := r.Complete(ctx, h)
	require.NoError(t, err)
	require.Equal(t, map[uint16]any{1: "from-1", 2: "from-2"}, out)
}

func TestMessagesBufferBeforeCompleteIsCalled(t *testing.T) {
	// Deliver for round 2 entirely before anyone ever waits on it; this
	// must not be lost by the time Complete is finally called.
	r := router.New(0, 3)
	h1 := r.Register(router.Broadcast)
	h2 := r.Register(router.Broadcast)

	require.NoError(t, r.Deliver(h2, 1, false, "r2-from-1"))
	require.NoError(t, r.Deliver(h2, 2, false, "r2-from-2"))
	require.NoError(t, r.Deliver(h1, 1, false, "r1-from-1"))
	require.NoError(t, r.Deliver(h1, 2, false, "r1-from-2"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out1, err := r.Complete(ctx, h1)
	require.NoError(t, err)
	require.Equal(t, map[uint16]any{1: "r1-from-1", 2: "r1-from-2"}, out1)

	out2, err := r.Complete(ctx, h2)
	require.NoError(t, err)
	require.Equal(t, map[uint16]any{1: "r2-from-1", 2: "r2-from-2"}, out2)
}

func TestP2PShapeMismatchIsRouteError(t *testing.T) {
	r := router.New(0, 2)
	h := r.Register(router.P2P)

	err := r.Deliver(h, 1, false, "broadcast-shaped")
	require.Error(t, err)
	re, ok := router.AsRouteError(err)
	require.True(t, ok)
	require.Equal(t, uint16(1), re.Sender)
}

func TestDuplicateSenderIsRouteError(t *testing.T) {
	r := router.New(0, 2)
	h := r.Register(router.Broadcast)

	require.NoError(t, r.Deliver(h, 1, false, "first"))
	err := r.Deliver(h, 1, false, "second")
	require.Error(t, err)
	re, ok := router.AsRouteError(err)
	require.True(t, ok)
	require.Equal(t, "duplicate message from sender", re.Reason)
}

func TestCloseWithEOFUnblocksComplete(t *testing.T) {
	r := router.New(0, 2)
	h := r.Register(router.Broadcast)

	done := make(chan error, 1)
	go func() {
		_, err := r.Complete(context.Background(), h)
		done <- err
	}()

	// Give Complete a chance to start waiting before closing.
	time.Sleep(10 * time.Millisecond)
	r.CloseWithEOF()

	select {
	case err := <-done:
		require.ErrorIs(t, err, router.ErrReceiveEOF)
	case <-time.After(time.Second):
		t.Fatal("Complete did not unblock on EOF")
	}
}

func TestCloseWithErrorSurfacesRouteErrorToComplete(t *testing.T) {
	r := router.New(0, 3)
	h := r.Register(router.Broadcast)

	done := make(chan error, 1)
	go func() {
		_, err := r.Complete(context.Background(), h)
		done <- err
	}()

	// A pump goroutine would observe this from Deliver on a duplicate
	// sender or a shape mismatch and hand it back via CloseWithError
	// instead of downgrading it to a generic EOF.
	time.Sleep(10 * time.Millisecond)
	routeErr := &router.RouteError{Round: int(h), Sender: 1, Reason: "duplicate message from sender"}
	r.CloseWithError(routeErr)

	select {
	case err := <-done:
		re, ok := router.AsRouteError(err)
		require.True(t, ok)
		require.Equal(t, uint16(1), re.Sender)
	case <-time.After(time.Second):
		t.Fatal("Complete did not unblock on CloseWithError")
	}
}

func TestCompleteRespectsContextCancellation(t *testing.T) {
	r := router.New(0, 2)
	h := r.Register(router.Broadcast)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Complete(ctx, h)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDeliverAfterCloseFails(t *testing.T) {
	r := router.New(0, 2)
	h := r.Register(router.Broadcast)
	r.CloseWithEOF()

	err := r.Deliver(h, 1, false, "too-late")
	require.Error(t, err)
}
