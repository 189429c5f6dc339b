package frost

import "github.com/pkg/errors"

// ErrInvalidProtocolParameters is returned when t/n fail 1 <= t <= n,
// spec.md §4.F's Bug::InvalidProtocolParameters.
var ErrInvalidProtocolParameters = errors.New("frost: invalid protocol parameters")

// ErrInvalidProofOfKnowledge is returned by Part2 when a received
// Round1Package's proof of possession fails to verify.
var ErrInvalidProofOfKnowledge = errors.New("frost: invalid proof of knowledge")

// ErrInvalidShare is returned by Part3 when a received Round2Package's
// value doesn't match the sender's published Feldman commitment.
var ErrInvalidShare = errors.New("frost: invalid share")

// ErrMissingPackage is returned when a round's collected packages don't
// cover every expected identifier.
var ErrMissingPackage = errors.New("frost: missing package for identifier")

// InvalidProofOfKnowledgeError names the offending sender identifier.
type InvalidProofOfKnowledgeError struct {
	Sender string
}

func (e *InvalidProofOfKnowledgeError) Error() string {
	return "frost: invalid proof of knowledge from " + e.Sender
}

func (e *InvalidProofOfKnowledgeError) Unwrap() error { return ErrInvalidProofOfKnowledge }

// InvalidShareError names the offending sender identifier.
type InvalidShareError struct {
	Sender string
}

func (e *InvalidShareError) Error() string {
	return "frost: invalid share from " + e.Sender
}

func (e *InvalidShareError) Unwrap() error { return ErrInvalidShare }
