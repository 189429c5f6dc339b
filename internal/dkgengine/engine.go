// Package dkgengine runs the three-round FROST distributed key generation
// protocol over a Router and Delivery Adapter, grounded directly on
// original_source's rounds/keygen.rs `run` function — the closest 1:1
// grounding in the whole corpus, down to its round registration order,
// tracer call sequence, and error taxonomy.
package dkgengine

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"

	"github.com/pkg/errors"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
	"github.com/tangle-network/frost-blueprint/internal/delivery"
	"github.com/tangle-network/frost-blueprint/internal/frost"
	"github.com/tangle-network/frost-blueprint/internal/identifier"
	"github.com/tangle-network/frost-blueprint/internal/router"
	"github.com/tangle-network/frost-blueprint/internal/tracer"
)

// State names a point in the DKG state machine, spec.md §4.F's
// Init→R1Send→R1Collect→R2Send→R2Collect→Offline→Done|Aborted sequence.
type State int

const (
	Init State = iota
	R1Send
	R1Collect
	R2Send
	R2Collect
	Offline
	Done
	Aborted
)

// ErrInvalidProtocolParameters mirrors original_source's
// Bug::InvalidProtocolParameters: 1 <= t <= n violated.
var ErrInvalidProtocolParameters = frost.ErrInvalidProtocolParameters

// wireRound1 and wireRound2 are the Go realization of original_source's
// `enum Msg<C> { Round1(Round1Package<C>), Round2(Round2Package<C>) }`:
// byte-encoded scalars/points, gob-framed, with no further structure the
// wire format needs to expose.
type wireRound1 struct {
	Commitment [][]byte
	ProofR     []byte
	ProofZ     []byte
}

type wireRound2 struct {
	Value []byte
}

func encodeRound1(pkg frost.Round1Package) ([]byte, error) {
	commitment := make([][]byte, len(pkg.Commitment))
	for i, c := range pkg.Commitment {
		commitment[i] = c.Bytes()
	}
	var buf bytes.Buffer
	w := wireRound1{Commitment: commitment, ProofR: pkg.ProofR.Bytes(), ProofZ: pkg.ProofZ.Bytes()}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, errors.Wrap(err, "dkgengine: encoding round1 package")
	}
	return buf.Bytes(), nil
}

func decodeRound1(suite ciphersuite.Suite, raw []byte) (frost.Round1Package, error) {
	var w wireRound1
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&w); err != nil {
		return frost.Round1Package{}, errors.Wrap(err, "dkgengine: decoding round1 package")
	}
	commitment := make([]ciphersuite.Point, len(w.Commitment))
	for i, b := range w.Commitment {
		p, err := suite.PointFromBytes(b)
		if err != nil {
			return frost.Round1Package{}, errors.Wrap(err, "dkgengine: decoding commitment point")
		}
		commitment[i] = p
	}
	r, err := suite.PointFromBytes(w.ProofR)
	if err != nil {
		return frost.Round1Package{}, errors.Wrap(err, "dkgengine: decoding proof R")
	}
	z, err := suite.ScalarFromBytes(w.ProofZ)
	if err != nil {
		return frost.Round1Package{}, errors.Wrap(err, "dkgengine: decoding proof z")
	}
	return frost.Round1Package{Commitment: commitment, ProofR: r, ProofZ: z}, nil
}

func encodeRound2(pkg frost.Round2Package) ([]byte, error) {
	var buf bytes.Buffer
	w := wireRound2{Value: pkg.Value.Bytes()}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, errors.Wrap(err, "dkgengine: encoding round2 package")
	}
	return buf.Bytes(), nil
}

func decodeRound2(suite ciphersuite.Suite, raw []byte) (frost.Round2Package, error) {
	var w wireRound2
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&w); err != nil {
		return frost.Round2Package{}, errors.Wrap(err, "dkgengine: decoding round2 package")
	}
	v, err := suite.ScalarFromBytes(w.Value)
	if err != nil {
		return frost.Round2Package{}, errors.Wrap(err, "dkgengine: decoding round2 value")
	}
	return frost.Round2Package{Value: v}, nil
}

// Run drives a full DKG to completion for party i among n, with threshold
// t, grounded on original_source's rounds::keygen::run. rng supplies
// randomness for polynomial generation and proofs of possession; the
// adapter and router must be freshly constructed for this run and not
// reused.
func Run(ctx context.Context, suite ciphersuite.Suite, rng io.Reader, t, n, i uint16, adapter *delivery.Adapter, rtr *router.Router, tr tracer.Tracer) (*frost.KeyPackage, *frost.PublicKeyPackage, error) {
	tr = tracer.OrNop(tr)
	tr.ProtocolBegins()

	if t < 1 || t > n {
		return nil, nil, ErrInvalidProtocolParameters
	}
	self, err := identifier.ToIdentifier(suite, i)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dkgengine: resolving own identifier")
	}

	round1Handle := rtr.Register(router.Broadcast)
	round2Handle := rtr.Register(router.P2P)

	go pumpInbox(ctx, adapter, rtr, suite, round1Handle, round2Handle)

	tr.RoundBegins()
	tr.Stage("generate own secret package")
	secret1, pkg1, err := frost.Part1(suite, rng, self, n, t)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dkgengine: part1")
	}

	tr.SendMsg()
	wire1, err := encodeRound1(pkg1)
	if err != nil {
		return nil, nil, err
	}
	if err := adapter.Send(ctx, delivery.Outgoing{Recipient: delivery.AllParties(), Payload: wire1}); err != nil {
		return nil, nil, errors.Wrap(err, "dkgengine: sending round1 package")
	}
	tr.MsgSent()

	tr.ReceiveMsgs()
	raw1, err := rtr.Complete(ctx, round1Handle)
	if err != nil {
		return nil, nil, classifyReceiveError(err)
	}
	tr.MsgsReceived()

	round1Packages := map[string]frost.Round1Package{frost.IDKey(self): pkg1}
	for senderIdx, payload := range raw1 {
		senderID, err := identifier.ToIdentifier(suite, senderIdx)
		if err != nil {
			return nil, nil, errors.Wrap(err, "dkgengine: resolving sender identifier")
		}
		round1Packages[frost.IDKey(senderID)] = payload.(frost.Round1Package)
	}

	tr.RoundBegins()
	tr.Stage("generate round2 packages")
	peersOnly := make(map[string]frost.Round1Package, n-1)
	for k, v := range round1Packages {
		if k != frost.IDKey(self) {
			peersOnly[k] = v
		}
	}
	secret2, outgoing2, err := frost.Part2(secret1, peersOnly)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dkgengine: part2")
	}

	for recipientIdx := uint16(0); recipientIdx < n; recipientIdx++ {
		if recipientIdx == i {
			continue
		}
		recipientID, err := identifier.ToIdentifier(suite, recipientIdx)
		if err != nil {
			return nil, nil, errors.Wrap(err, "dkgengine: resolving recipient identifier")
		}
		pkg2, ok := outgoing2[frost.IDKey(recipientID)]
		if !ok {
			return nil, nil, errors.New("dkgengine: missing outgoing round2 package for recipient")
		}
		tr.SendMsg()
		wire2, err := encodeRound2(pkg2)
		if err != nil {
			return nil, nil, err
		}
		if err := adapter.Send(ctx, delivery.Outgoing{Recipient: delivery.OneParty(recipientIdx), Payload: wire2}); err != nil {
			return nil, nil, errors.Wrap(err, "dkgengine: sending round2 package")
		}
		tr.MsgSent()
	}

	tr.ReceiveMsgs()
	raw2, err := rtr.Complete(ctx, round2Handle)
	if err != nil {
		return nil, nil, classifyReceiveError(err)
	}
	tr.MsgsReceived()

	round2Packages := make(map[string]frost.Round2Package, n-1)
	for senderIdx, payload := range raw2 {
		senderID, err := identifier.ToIdentifier(suite, senderIdx)
		if err != nil {
			return nil, nil, errors.Wrap(err, "dkgengine: resolving sender identifier")
		}
		round2Packages[frost.IDKey(senderID)] = payload.(frost.Round2Package)
	}

	tr.NamedRoundBegins("part3 (offline)")
	tr.Stage("generate key package")
	keyPkg, pubKeyPkg, err := frost.Part3(secret2, round1Packages, round2Packages)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dkgengine: part3")
	}

	tr.ProtocolEnds()
	return keyPkg, pubKeyPkg, nil
}

// classifyReceiveError maps a router failure to the I/O-vs-malicious
// taxonomy spec.md §7 requires: EOF and context cancellation are
// transport errors, a *router.RouteError is malicious-party input.
func classifyReceiveError(err error) error {
	if re, ok := router.AsRouteError(err); ok {
		return errors.Wrap(re, "dkgengine: malicious round message")
	}
	return errors.Wrap(err, "dkgengine: receiving round messages")
}

// pumpInbox drains the delivery adapter's inbound stream and routes each
// message to whichever round it belongs to. Round 1 is broadcast, round 2
// is P2P, so the envelope's own Broadcast/P2P discriminant (set by the
// transport, independent of payload content) is enough to pick the round;
// decoding failure is hostile-payload treatment per spec.md §4.E and is
// surfaced by ending the pump, causing the stalled round to observe EOF
// rather than silently dropping the message. The loop exits when Next
// returns any error (EOF or context cancellation), closing the router so
// any pending Complete call unblocks. A *router.RouteError from Deliver
// (duplicate sender, or message shape not matching the round's kind) is
// carried into that close so Complete returns the RouteError itself
// rather than downgrading it to a generic EOF, per spec.md §4.D's
// RouteReceivedError requirement.
func pumpInbox(ctx context.Context, adapter *delivery.Adapter, rtr *router.Router, suite ciphersuite.Suite, round1Handle, round2Handle router.RoundHandle) {
	closeErr := error(router.ErrReceiveEOF)
	defer func() { rtr.CloseWithError(closeErr) }()
	for {
		in, err := adapter.Next(ctx)
		if err != nil {
			return
		}
		if in.Type == delivery.Broadcast {
			msg, err := decodeRound1(suite, in.Payload)
			if err != nil {
				return
			}
			if dErr := rtr.Deliver(round1Handle, in.Sender, false, msg); dErr != nil {
				closeErr = dErr
				return
			}
			continue
		}
		msg, err := decodeRound2(suite, in.Payload)
		if err != nil {
			return
		}
		if dErr := rtr.Deliver(round2Handle, in.Sender, true, msg); dErr != nil {
			closeErr = dErr
			return
		}
	}
}
