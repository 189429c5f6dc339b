// Package frosttest provides reusable in-memory test doubles for the
// external collaborators named in spec.md §6 (Transport, OperatorRegistry),
// factored out of the ad hoc doubles first written against the round
// engines directly, so job- and engine-level tests share one
// implementation instead of redefining mailbox plumbing per package.
package frosttest

import (
	"context"
	"sync"

	"github.com/tangle-network/frost-blueprint/internal/delivery"
)

// Network is an in-memory, single-process fan-out transport shared by
// every party in a test: one mailbox per party, a broadcast send copies
// the envelope into every mailbox but the sender's own, grounded on the
// same pattern signengine's engine_test.go used ad hoc for its
// memTransport/testNetwork pair.
type Network struct {
	mu      sync.Mutex
	mailbox map[uint16]chan delivery.Envelope
}

// NewNetwork allocates a shared network with n party mailboxes.
func NewNetwork(n uint16) *Network {
	net := &Network{mailbox: make(map[uint16]chan delivery.Envelope, n)}
	for i := uint16(0); i < n; i++ {
		net.mailbox[i] = make(chan delivery.Envelope, 256)
	}
	return net
}

// TransportFor returns the Transport view of the network for party self.
func (net *Network) TransportFor(self uint16) delivery.Transport {
	return &partyTransport{self: self, mailbox: net.mailbox[self], net: net}
}

type partyTransport struct {
	self    uint16
	mailbox chan delivery.Envelope
	net     *Network
}

func (p *partyTransport) SendMessage(ctx context.Context, env delivery.Envelope) error {
	p.net.mu.Lock()
	defer p.net.mu.Unlock()
	if env.Recipient.All {
		for idx, box := range p.net.mailbox {
			if idx == p.self {
				continue
			}
			box <- env
		}
		return nil
	}
	p.net.mailbox[env.Recipient.To] <- env
	return nil
}

func (p *partyTransport) NextMessage(ctx context.Context) (delivery.Envelope, error) {
	select {
	case <-ctx.Done():
		return delivery.Envelope{}, ctx.Err()
	case env := <-p.mailbox:
		return env, nil
	}
}
