// Package signengine runs the two-round FROST threshold signing protocol
// over a Router and Delivery Adapter, grounded directly on
// original_source's rounds/sign.rs `run` function. Unlike the DKG engine
// it addresses parties by their position within the signer subset, not
// their global party index — original_source's own `me.position_in(signer_set)`
// step, carried here as an explicit local/global index translation at
// the pump boundary.
package signengine

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
	"github.com/tangle-network/frost-blueprint/internal/delivery"
	"github.com/tangle-network/frost-blueprint/internal/frost"
	"github.com/tangle-network/frost-blueprint/internal/identifier"
	"github.com/tangle-network/frost-blueprint/internal/router"
	"github.com/tangle-network/frost-blueprint/internal/tracer"
)

// State names a point in the signing state machine, spec.md §4.G's
// Init→R1Send→R1Collect→R2Send→R2Collect→Verify→Done|Aborted sequence.
type State int

const (
	Init State = iota
	R1Send
	R1Collect
	R2Send
	R2Collect
	Verify
	Done
	Aborted
)

// ErrInvalidProtocolParameters mirrors original_source's
// Bug::InvalidProtocolParameters: len(signerSet) < t.
var ErrInvalidProtocolParameters = frost.ErrInvalidProtocolParameters

// ErrSelfNotInSignerSet mirrors original_source's Bug::InvalidPartyIndex
// raised when key_pkg's own identifier isn't present in signer_set. The
// Job Surface is expected to have already filtered this case out as
// SelfNotInSigners before ever calling Run; this is a defensive check.
var ErrSelfNotInSignerSet = errors.New("signengine: self not present in signer set")

// InvalidSignatureShareError carries the global party indices whose
// signature shares failed verification, spec.md §4.G step 4's
// SigningAborted::InvalidSignatureShare{blames}.
type InvalidSignatureShareError struct {
	Blames []uint16
}

func (e *InvalidSignatureShareError) Error() string {
	return errors.Errorf("signengine: invalid signature shares from %v", e.Blames).Error()
}

type wireCommitments struct {
	Hiding  []byte
	Binding []byte
}

type wireShare struct {
	Value []byte
}

func encodeCommitments(c frost.SigningCommitments) ([]byte, error) {
	var buf bytes.Buffer
	w := wireCommitments{Hiding: c.Hiding.Bytes(), Binding: c.Binding.Bytes()}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, errors.Wrap(err, "signengine: encoding commitments")
	}
	return buf.Bytes(), nil
}

func decodeCommitments(suite ciphersuite.Suite, raw []byte) (frost.SigningCommitments, error) {
	var w wireCommitments
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&w); err != nil {
		return frost.SigningCommitments{}, errors.Wrap(err, "signengine: decoding commitments")
	}
	hiding, err := suite.PointFromBytes(w.Hiding)
	if err != nil {
		return frost.SigningCommitments{}, errors.Wrap(err, "signengine: decoding hiding commitment")
	}
	binding, err := suite.PointFromBytes(w.Binding)
	if err != nil {
		return frost.SigningCommitments{}, errors.Wrap(err, "signengine: decoding binding commitment")
	}
	return frost.SigningCommitments{Hiding: hiding, Binding: binding}, nil
}

func encodeShare(s frost.SignatureShare) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wireShare{Value: s.Value.Bytes()}); err != nil {
		return nil, errors.Wrap(err, "signengine: encoding signature share")
	}
	return buf.Bytes(), nil
}

func decodeShare(suite ciphersuite.Suite, raw []byte) (frost.SignatureShare, error) {
	var w wireShare
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&w); err != nil {
		return frost.SignatureShare{}, errors.Wrap(err, "signengine: decoding signature share")
	}
	v, err := suite.ScalarFromBytes(w.Value)
	if err != nil {
		return frost.SignatureShare{}, errors.Wrap(err, "signengine: decoding signature share value")
	}
	return frost.SignatureShare{Value: v}, nil
}

// Run drives a full signing round to completion. signerSet lists the
// participating parties' GLOBAL wire indices in the deterministic order
// chosen by the Job Surface; keyPkg.Identifier must correspond to one of
// them. The delivery adapter carries global indices; the router operates
// on subset-local indices (position within signerSet), translated at the
// pump boundary, matching original_source's own "index within
// signer_set" addressing.
func Run(ctx context.Context, suite ciphersuite.Suite, rng io.Reader, keyPkg *frost.KeyPackage, pubKeyPkg *frost.PublicKeyPackage, signerSet []uint16, msg []byte, adapter *delivery.Adapter, tr tracer.Tracer) (*frost.Signature, error) {
	tr = tracer.OrNop(tr)
	tr.ProtocolBegins()

	t := keyPkg.MinSigners
	n := uint16(len(signerSet))
	if n < t {
		return nil, ErrInvalidProtocolParameters
	}

	selfGlobal, err := identifier.ToIndex(keyPkg.Identifier)
	if err != nil {
		return nil, errors.Wrap(err, "signengine: resolving own index")
	}
	localOf := make(map[uint16]uint16, n) // global -> local
	var self uint16
	found := false
	for local, global := range signerSet {
		localOf[global] = uint16(local)
		if global == selfGlobal {
			self = uint16(local)
			found = true
		}
	}
	if !found {
		return nil, ErrSelfNotInSignerSet
	}

	rtr := router.New(self, n)
	round1Handle := rtr.Register(router.Broadcast)
	round2Handle := rtr.Register(router.Broadcast)

	go pumpInbox(ctx, adapter, rtr, suite, localOf, round1Handle, round2Handle)

	tr.RoundBegins()
	tr.Stage("create signing commitments")
	nonces, commitments, err := frost.Commit(suite, rng)
	if err != nil {
		return nil, errors.Wrap(err, "signengine: commit")
	}

	tr.SendMsg()
	wire1, err := encodeCommitments(commitments)
	if err != nil {
		return nil, err
	}
	if err := adapter.Send(ctx, delivery.Outgoing{Recipient: delivery.AllParties(), Payload: wire1}); err != nil {
		return nil, errors.Wrap(err, "signengine: sending round1 commitments")
	}
	tr.MsgSent()

	tr.ReceiveMsgs()
	raw1, err := rtr.Complete(ctx, round1Handle)
	if err != nil {
		return nil, classifyReceiveError(err)
	}
	tr.MsgsReceived()

	allCommitments := map[string]frost.SigningCommitments{frost.IDKey(keyPkg.Identifier): commitments}
	for localSender, payload := range raw1 {
		global := signerSet[localSender]
		id, err := identifier.ToIdentifier(suite, global)
		if err != nil {
			return nil, errors.Wrap(err, "signengine: resolving sender identifier")
		}
		allCommitments[frost.IDKey(id)] = payload.(frost.SigningCommitments)
	}

	tr.RoundBegins()
	tr.Stage("create signature share")
	signingPkg := &frost.SigningPackage{Commitments: allCommitments, Message: msg}
	share, err := frost.Sign(suite, signingPkg, nonces, keyPkg)
	if err != nil {
		return nil, errors.Wrap(err, "signengine: sign")
	}

	tr.SendMsg()
	wire2, err := encodeShare(share)
	if err != nil {
		return nil, err
	}
	if err := adapter.Send(ctx, delivery.Outgoing{Recipient: delivery.AllParties(), Payload: wire2}); err != nil {
		return nil, errors.Wrap(err, "signengine: sending round2 share")
	}
	tr.MsgSent()

	tr.ReceiveMsgs()
	raw2, err := rtr.Complete(ctx, round2Handle)
	if err != nil {
		return nil, classifyReceiveError(err)
	}
	tr.MsgsReceived()

	allShares := map[string]frost.SignatureShare{frost.IDKey(keyPkg.Identifier): share}
	senderOf := map[string]uint16{frost.IDKey(keyPkg.Identifier): selfGlobal}
	for localSender, payload := range raw2 {
		global := signerSet[localSender]
		id, err := identifier.ToIdentifier(suite, global)
		if err != nil {
			return nil, errors.Wrap(err, "signengine: resolving sender identifier")
		}
		allShares[frost.IDKey(id)] = payload.(frost.SignatureShare)
		senderOf[frost.IDKey(id)] = global
	}

	tr.Stage("verify signature shares")
	var blames []uint16
	var verifyErrs *multierror.Error
	for key, s := range allShares {
		id, err := identifier.ToIdentifier(suite, senderOf[key])
		if err != nil {
			return nil, errors.Wrap(err, "signengine: resolving verifying-share identifier")
		}
		verifyingShare, ok := pubKeyPkg.VerifyingShares[key]
		if !ok {
			blames = append(blames, senderOf[key])
			verifyErrs = multierror.Append(verifyErrs, errors.Errorf("signengine: no verifying share for %d", senderOf[key]))
			continue
		}
		ok2, err := frost.VerifySignatureShare(suite, id, verifyingShare, s, signingPkg, pubKeyPkg.VerifyingKey)
		if err != nil {
			blames = append(blames, senderOf[key])
			verifyErrs = multierror.Append(verifyErrs, err)
			continue
		}
		if !ok2 {
			blames = append(blames, senderOf[key])
			verifyErrs = multierror.Append(verifyErrs, errors.Errorf("signengine: invalid signature share from %d", senderOf[key]))
		}
	}
	if len(blames) > 0 {
		return nil, errors.Wrap(&InvalidSignatureShareError{Blames: blames}, verifyErrs.Error())
	}

	tr.Stage("aggregate")
	sig, err := frost.Aggregate(suite, signingPkg, allShares, pubKeyPkg)
	if err != nil {
		return nil, errors.Wrap(err, "signengine: aggregate")
	}

	tr.ProtocolEnds()
	return &sig, nil
}

func classifyReceiveError(err error) error {
	if re, ok := router.AsRouteError(err); ok {
		return errors.Wrap(re, "signengine: malicious round message")
	}
	return errors.Wrap(err, "signengine: receiving round messages")
}

// pumpInbox drains the delivery adapter's inbound stream, translates each
// message's global sender index to its subset-local position, and routes
// it to whichever round it belongs to. Both signing rounds are broadcast;
// a P2P-shaped message or one from outside the signer set is hostile
// input and ends the pump, matching dkgengine's pump contract. A
// *router.RouteError from Deliver (duplicate sender, or shape mismatch)
// is carried into the router's close so Complete returns the
// RouteError itself instead of downgrading it to a generic EOF, per
// spec.md §4.D's RouteReceivedError requirement.
func pumpInbox(ctx context.Context, adapter *delivery.Adapter, rtr *router.Router, suite ciphersuite.Suite, localOf map[uint16]uint16, round1Handle, round2Handle router.RoundHandle) {
	closeErr := error(router.ErrReceiveEOF)
	defer func() { rtr.CloseWithError(closeErr) }()

	sentRound1 := make(map[uint16]bool, len(localOf))
	for {
		in, err := adapter.Next(ctx)
		if err != nil {
			return
		}
		local, ok := localOf[in.Sender]
		if !ok {
			return
		}
		if in.Type != delivery.Broadcast {
			return
		}

		if !sentRound1[local] {
			msg, err := decodeCommitments(suite, in.Payload)
			if err != nil {
				return
			}
			if dErr := rtr.Deliver(round1Handle, local, false, msg); dErr != nil {
				closeErr = dErr
				return
			}
			sentRound1[local] = true
			continue
		}

		msg, err := decodeShare(suite, in.Payload)
		if err != nil {
			return
		}
		if dErr := rtr.Deliver(round2Handle, local, false, msg); dErr != nil {
			closeErr = dErr
			return
		}
	}
}
