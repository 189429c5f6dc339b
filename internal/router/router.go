// Package router implements the per-round inbox that demultiplexes
// inbound protocol messages, enforces broadcast-vs-P2P expectations, and
// completes rounds, grounded on drand's internal/dkg/broadcast.go and
// internal/dkg/network.go gossip-classification machinery, generalized
// from drand's gossip-specific shapes to the generic Broadcast/P2P round
// shapes spec.md §4.D describes.
package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// Kind classifies what a round expects from each non-self sender.
type Kind int

const (
	// Broadcast rounds expect exactly one message from every non-self
	// party, all addressed to everyone.
	Broadcast Kind = iota
	// P2P rounds expect exactly one message from every non-self party,
	// addressed specifically to this router's own party.
	P2P
)

// ErrReceiveEOF signals the inbound stream ended before a round
// completed, spec.md §4.D's ReceiveMessageEof.
var ErrReceiveEOF = errors.New("router: receive stream ended")

// RouteError wraps a malicious or malformed inbound message: a typing/
// shape failure or a duplicate sender for a round, spec.md §4.D's
// RouteReceivedError. It is always treated as protocol-malicious, never
// panicked on.
type RouteError struct {
	Round  int
	Sender uint16
	Reason string
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("router: round %d: sender %d: %s", e.Round, e.Sender, e.Reason)
}

// Message is one classified inbound item delivered to a round's inbox.
type Message struct {
	Sender  uint16
	Payload any
}

// RoundHandle identifies a round registered with a Router. The caller
// (an engine's pump goroutine, which has already decoded the wire message
// into its round-specific Go type) picks the handle a message belongs to; the
// router itself never guesses a round from message shape alone, since two
// rounds of the same Kind are otherwise indistinguishable.
type RoundHandle int

type roundState struct {
	kind     Kind
	need     int
	expected map[uint16]struct{}
	inbox    chan Message
	received map[uint16]struct{}
	done     bool
}

// Router holds, per registered round, an inbox sized to the expected
// message count and a classification rule. Complete suspends the caller
// until the round's inbox fills, the stream ends, or a message fails
// validation.
type Router struct {
	mu       sync.Mutex
	self     uint16
	n        uint16
	rounds   []*roundState
	closed   bool
	closeErr error
}

// New creates a Router for a party with wire index self among n
// participants.
func New(self, n uint16) *Router {
	return &Router{self: self, n: n}
}

// Register adds a new round to the router and returns the handle callers
// must pass to Deliver and Complete for that round's messages.
func (r *Router) Register(kind Kind) RoundHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	expected := make(map[uint16]struct{}, r.n-1)
	for i := uint16(0); i < r.n; i++ {
		if i != r.self {
			expected[i] = struct{}{}
		}
	}
	rs := &roundState{
		kind:     kind,
		need:     len(expected),
		expected: expected,
		inbox:    make(chan Message, len(expected)),
		received: make(map[uint16]struct{}, len(expected)),
	}
	r.rounds = append(r.rounds, rs)
	return RoundHandle(len(r.rounds) - 1)
}

// Deliver classifies and routes one inbound message already known to
// belong to round h. isP2P reports whether the message's recipient field
// named this party specifically (present) or was absent (broadcast); a
// mismatch against the round's registered Kind is a typing/shape failure.
// A message from a sender already received for h is a duplicate. Both
// fail as a *RouteError rather than a panic, matching spec.md §9's
// redesign flag. Deliver never blocks: it pushes into the round's
// buffered inbox and returns immediately, so messages for a round nobody
// is waiting on yet simply accumulate until Complete is called.
func (r *Router) Deliver(h RoundHandle, sender uint16, isP2P bool, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("router: closed")
	}
	if int(h) < 0 || int(h) >= len(r.rounds) {
		return errors.Errorf("router: unknown round handle %d", h)
	}
	rs := r.rounds[h]

	wantP2P := rs.kind == P2P
	if wantP2P != isP2P {
		return &RouteError{Round: int(h), Sender: sender, Reason: "message shape does not match round kind"}
	}
	if _, outstanding := rs.expected[sender]; !outstanding {
		return &RouteError{Round: int(h), Sender: sender, Reason: "duplicate message from sender"}
	}

	delete(rs.expected, sender)
	rs.received[sender] = struct{}{}
	rs.inbox <- Message{Sender: sender, Payload: payload}
	return nil
}

// CloseWithEOF marks the inbound stream as ended; any round still
// waiting on Complete will observe ErrReceiveEOF.
func (r *Router) CloseWithEOF() {
	r.CloseWithError(ErrReceiveEOF)
}

// CloseWithError marks the inbound stream as ended because of err; any
// round still waiting on Complete observes err instead of the generic
// ErrReceiveEOF. This is how a pump goroutine surfaces a *RouteError
// produced by Deliver (a duplicate sender or a shape mismatch) to the
// engine blocked in Complete, rather than have it silently downgrade to
// a transport EOF. Idempotent: only the first call's err is kept.
func (r *Router) CloseWithError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.closeErr = err
	for _, rs := range r.rounds {
		if !rs.done {
			close(rs.inbox)
		}
	}
}

// Complete suspends the caller until round h has received exactly one
// message from every non-self party, the stream ends, or the context is
// cancelled. It is a single suspension point; it never polls. Messages
// delivered to h before Complete was ever called are already sitting in
// the buffered inbox and are drained immediately.
func (r *Router) Complete(ctx context.Context, h RoundHandle) (map[uint16]any, error) {
	r.mu.Lock()
	if int(h) < 0 || int(h) >= len(r.rounds) {
		r.mu.Unlock()
		return nil, errors.Errorf("router: unknown round handle %d", h)
	}
	rs := r.rounds[h]
	need := rs.need
	r.mu.Unlock()

	out := make(map[uint16]any, need)
	for i := 0; i < need; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok := <-rs.inbox:
			if !ok {
				r.mu.Lock()
				closeErr := r.closeErr
				r.mu.Unlock()
				if closeErr == nil {
					closeErr = ErrReceiveEOF
				}
				return nil, closeErr
			}
			out[msg.Sender] = msg.Payload
		}
	}

	r.mu.Lock()
	rs.done = true
	r.mu.Unlock()
	return out, nil
}

// AsRouteError reports whether err is a RouteError, spec.md's
// "treated as protocol-malicious" classification.
func AsRouteError(err error) (*RouteError, bool) {
	var re *RouteError
	ok := errors.As(err, &re)
	return re, ok
}

var _ error = (*RouteError)(nil)
