package job

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
	"github.com/tangle-network/frost-blueprint/internal/delivery"
	"github.com/tangle-network/frost-blueprint/internal/dkgengine"
	"github.com/tangle-network/frost-blueprint/internal/metrics"
	"github.com/tangle-network/frost-blueprint/internal/router"
	"github.com/tangle-network/frost-blueprint/internal/signengine"
	"github.com/tangle-network/frost-blueprint/internal/store"
	"github.com/tangle-network/frost-blueprint/internal/tracer"
	"github.com/tangle-network/frost-blueprint/internal/xlog"
)

// Node owns every collaborator the Job Surface needs: durable storage,
// the operator registry, the shared transport (multiplexed per run), and
// this node's own identity within the registry, grounded on
// original_source's top-level src/keygen.rs / src/sign.rs job functions
// adapted to a plain method pair on a struct instead of a macro-generated
// job entrypoint.
type Node struct {
	Store         store.Store
	Registry      OperatorRegistry
	SelfAccountID string
	Logger        xlog.Logger
	Metrics       *metrics.Metrics

	mux *StreamMux
}

// NewNode wires a Node from its collaborators. transport is the shared,
// raw network collaborator; it is wrapped once in a StreamMux so
// concurrent Keygen/Sign calls never observe each other's messages.
func NewNode(st store.Store, registry OperatorRegistry, transport Transport, selfAccountID string, logger xlog.Logger, m *metrics.Metrics) *Node {
	if logger == nil {
		logger = xlog.Nop
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Node{
		Store:         st,
		Registry:      registry,
		SelfAccountID: selfAccountID,
		Logger:        logger,
		Metrics:       m,
		mux:           NewStreamMux(transport),
	}
}

// Keygen runs a full DKG among the currently registered operators and
// persists the resulting key material, returning the new verifying key's
// bytes, spec.md §4.H's keygen(ciphersuite_id, threshold) -> bytes(verifying_key).
func (n *Node) Keygen(ctx context.Context, ciphersuiteID string, threshold uint16) ([]byte, error) {
	suite, err := ciphersuite.Lookup(ciphersuiteID)
	if err != nil {
		return nil, errors.Wrap(ErrUnknownCiphersuite, err.Error())
	}

	operators, err := n.Registry.Operators(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	self, found := indexOf(operators, n.SelfAccountID)
	if !found {
		return nil, ErrSelfNotInOperators
	}
	nParties := uint16(len(operators))

	callID, err := newCallID()
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	streamKey := StreamKey("keygen", callID)
	transport := n.mux.Open(ctx, streamKey)
	defer n.mux.Close(streamKey)

	adapter := delivery.New(self, transport)
	rtr := router.New(self, nParties)
	pt := tracer.NewPerfTracer()

	start := time.Now()
	n.Metrics.RunsTotal.WithLabelValues("keygen", ciphersuiteID).Inc()
	keyPkg, pubKeyPkg, err := dkgengine.Run(ctx, suite, rand.Reader, threshold, nParties, self, adapter, rtr, pt)
	outcome := "ok"
	if err != nil {
		outcome = "aborted"
	}
	n.Metrics.RunDuration.WithLabelValues("keygen", ciphersuiteID, outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		n.Metrics.AbortsTotal.WithLabelValues("keygen", classifyAbort(err)).Inc()
		n.Logger.Errorw("keygen aborted", "ciphersuite", ciphersuiteID, "err", err)
		return nil, errors.Wrap(ErrProtocol, err.Error())
	}
	n.Logger.Infow("keygen complete", "ciphersuite", ciphersuiteID, "report", pt.Report())

	verifyingKeyBytes := pubKeyPkg.VerifyingKey.Bytes()
	entry, err := encodeEntry(ciphersuiteID, keyPkg, pubKeyPkg)
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	key := hex.EncodeToString(verifyingKeyBytes)
	if err := n.Store.Set(ctx, key, entry); err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}

	return verifyingKeyBytes, nil
}

// Sign runs a full signing round for an existing key, returning the
// aggregated signature's bytes, spec.md §4.H's sign(verifying_key_bytes,
// message_bytes) -> bytes(signature). If the deterministic signer
// selection does not include this node, it returns ErrSelfNotInSigners
// after reading the stored entry but without any transport activity and
// without writing to the store, spec.md §4.H/§8's recoverable
// "not-participating" outcome.
func (n *Node) Sign(ctx context.Context, verifyingKeyBytes, msg []byte) ([]byte, error) {
	key := hex.EncodeToString(verifyingKeyBytes)
	raw, err := n.Store.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	if raw == nil {
		return nil, ErrKeyNotFound
	}

	var ciphersuiteID string
	if id, ok := peekCiphersuiteID(raw); ok {
		ciphersuiteID = id
	} else {
		return nil, errors.Wrap(ErrIO, "job: malformed keygen entry")
	}
	suite, err := ciphersuite.Lookup(ciphersuiteID)
	if err != nil {
		return nil, errors.Wrap(ErrUnknownCiphersuite, err.Error())
	}
	keyPkg, pubKeyPkg, err := decodeEntry(suite, raw)
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}

	operators, err := n.Registry.Operators(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	selfGlobal, found := indexOf(operators, n.SelfAccountID)
	if !found {
		return nil, ErrSelfNotInOperators
	}

	signerSet, err := SelectSigners(verifyingKeyBytes, len(operators), int(keyPkg.MinSigners))
	if err != nil {
		return nil, errors.Wrap(ErrProtocol, err.Error())
	}
	if !contains(signerSet, selfGlobal) {
		return nil, ErrSelfNotInSigners
	}

	callID, err := newCallID()
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	streamKey := StreamKey("signing", callID)
	transport := n.mux.Open(ctx, streamKey)
	defer n.mux.Close(streamKey)

	adapter := delivery.New(selfGlobal, transport)
	pt := tracer.NewPerfTracer()

	start := time.Now()
	n.Metrics.RunsTotal.WithLabelValues("signing", ciphersuiteID).Inc()
	sig, err := signengine.Run(ctx, suite, rand.Reader, keyPkg, pubKeyPkg, signerSet, msg, adapter, pt)
	outcome := "ok"
	if err != nil {
		outcome = "aborted"
	}
	n.Metrics.RunDuration.WithLabelValues("signing", ciphersuiteID, outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		n.Metrics.AbortsTotal.WithLabelValues("signing", classifyAbort(err)).Inc()
		if ise, ok := asInvalidSignatureShareError(err); ok {
			for _, p := range ise.Blames {
				n.Metrics.BlamedPartyIDs.WithLabelValues(itoa(p)).Inc()
			}
		}
		n.Logger.Errorw("signing aborted", "ciphersuite", ciphersuiteID, "err", err)
		return nil, errors.Wrap(ErrProtocol, err.Error())
	}
	n.Logger.Infow("signing complete", "ciphersuite", ciphersuiteID, "report", pt.Report())

	return append(sig.R.Bytes(), sig.Z.Bytes()...), nil
}

func indexOf(operators []Operator, accountID string) (uint16, bool) {
	for i, op := range operators {
		if op.AccountID == accountID {
			return uint16(i), true
		}
	}
	return 0, false
}

func contains(set []uint16, v uint16) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func newCallID() ([16]byte, error) {
	var out [16]byte
	id, err := uuid.NewRandom()
	if err != nil {
		return out, errors.Wrap(err, "job: generating call id")
	}
	copy(out[:], id[:])
	return out, nil
}

func classifyAbort(err error) string {
	if _, ok := asInvalidSignatureShareError(err); ok {
		return "malicious"
	}
	if _, ok := router.AsRouteError(err); ok {
		return "malicious"
	}
	return "protocol"
}

func asInvalidSignatureShareError(err error) (*signengine.InvalidSignatureShareError, bool) {
	var ise *signengine.InvalidSignatureShareError
	ok := errors.As(err, &ise)
	return ise, ok
}

func itoa(v uint16) string {
	return strconv.Itoa(int(v))
}

// peekCiphersuiteID extracts just the "ciphersuite" field without fully
// decoding the ciphersuite-specific hex payload, so Sign can look up the
// right Suite before attempting to decode scalars/points.
func peekCiphersuiteID(raw []byte) (string, bool) {
	var shallow struct {
		Ciphersuite string `json:"ciphersuite"`
	}
	if err := json.Unmarshal(raw, &shallow); err != nil {
		return "", false
	}
	return shallow.Ciphersuite, shallow.Ciphersuite != ""
}
