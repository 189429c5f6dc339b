// Package delivery bridges the external Transport collaborator to the
// Incoming/Outgoing message streams the round engines consume, grounded
// on original_source's rounds::delivery::NetworkDeliveryWrapper (a
// poll-based Stream/Sink pair wrapping an injected Network) and on
// drand's internal/dkg/network.go fan-out-send pattern. Go's channel-free
// pull/push style replaces the Rust Stream/Sink traits: Next blocks for
// one inbound message, Send/Flush queue then drain outbound ones FIFO.
package delivery

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// MessageType classifies a delivered message the way the wire envelope's
// optional recipient field does: present means P2P, absent means
// Broadcast.
type MessageType int

const (
	Broadcast MessageType = iota
	P2P
)

// Destination names who an outbound message goes to. The zero value
// addresses party 0 alone; use AllParties for a broadcast.
type Destination struct {
	All bool
	To  uint16
}

// AllParties addresses every other party, spec.md's MessageDestination::AllParties.
func AllParties() Destination { return Destination{All: true} }

// OneParty addresses a single party by wire index, spec.md's
// MessageDestination::OneParty(i).
func OneParty(i uint16) Destination { return Destination{To: i} }

// Envelope is the wire-level protocol message, spec.md §6's Transport
// payload: a sender/recipient pair plus an opaque ciphersuite-encoded
// payload. The same shape serves both directions. On the inbound path
// the transport hands Recipient through as the sender set it: Next reads
// Recipient.All to tell a broadcast from a P2P message.
type Envelope struct {
	Sender    uint16
	Recipient Destination
	Payload   []byte
}

// Transport is the external collaborator seam named in spec.md §6: the
// libp2p-backed network, out of scope for this repository. NextMessage
// blocks until a message arrives and returns io.EOF (wrapped) at stream
// end, spec.md §4.D's ReceiveMessageEof.
type Transport interface {
	SendMessage(ctx context.Context, env Envelope) error
	NextMessage(ctx context.Context) (Envelope, error)
}

// Incoming is one message handed to a round engine, already carrying the
// monotonic local message id spec.md §6 requires and the Broadcast/P2P
// discriminant the Round Router classifies on.
type Incoming struct {
	ID      uint64
	Sender  uint16
	Type    MessageType
	Payload []byte
}

// Outgoing is one message queued for send, addressed by Destination.
type Outgoing struct {
	Recipient Destination
	Payload   []byte
}

// Adapter wraps a Transport with monotonic message IDs on the inbound
// side and a FIFO outbound queue, grounded on original_source's
// NetworkWrapper (outgoing_queue VecDeque drained on poll_flush) and its
// NextMessageId(AtomicU64) counter.
type Adapter struct {
	self      uint16
	transport Transport
	nextID    atomic.Uint64

	mu    sync.Mutex
	queue []Outgoing
}

// New wraps transport for a party with wire index self.
func New(self uint16, transport Transport) *Adapter {
	return &Adapter{self: self, transport: transport}
}

// Next blocks for the next inbound message and tags it with a fresh
// monotonic ID and its Broadcast/P2P discriminant. It returns whatever
// error the underlying Transport returns, unwrapped, so callers can test
// for io.EOF with errors.Is.
func (a *Adapter) Next(ctx context.Context) (Incoming, error) {
	env, err := a.transport.NextMessage(ctx)
	if err != nil {
		return Incoming{}, err
	}
	typ := Broadcast
	if !env.Recipient.All {
		typ = P2P
	}
	return Incoming{
		ID:      a.nextID.Add(1) - 1,
		Sender:  env.Sender,
		Type:    typ,
		Payload: env.Payload,
	}, nil
}

// Queue enqueues an outbound message without sending it, mirroring the
// Rust Sink's start_send; call Flush to actually drain it.
func (a *Adapter) Queue(out Outgoing) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queue = append(a.queue, out)
}

// Flush drains every queued outbound message through the Transport in
// FIFO order, stopping at the first error, matching the Rust Sink's
// poll_flush contract ("dequeue all messages and send them one by one").
func (a *Adapter) Flush(ctx context.Context) error {
	a.mu.Lock()
	pending := a.queue
	a.queue = nil
	a.mu.Unlock()

	for _, out := range pending {
		env := Envelope{Sender: a.self, Recipient: out.Recipient, Payload: out.Payload}
		if err := a.transport.SendMessage(ctx, env); err != nil {
			return errors.Wrap(err, "delivery: send")
		}
	}
	return nil
}

// Send queues and immediately flushes a single outbound message, the
// common case for round engines that send one message per round.
func (a *Adapter) Send(ctx context.Context, out Outgoing) error {
	a.Queue(out)
	return a.Flush(ctx)
}
