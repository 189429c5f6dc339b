package job

import "github.com/pkg/errors"

// Error codes surfaced from the Job Surface, spec.md §6's closed set:
// UnknownCiphersuite, SelfNotInOperators, SelfNotInSigners, KeyNotFound,
// Protocol, Io.
var (
	ErrUnknownCiphersuite = errors.New("job: unknown ciphersuite")
	ErrSelfNotInOperators = errors.New("job: self account id not present in operator registry")
	ErrSelfNotInSigners   = errors.New("job: self not selected in the deterministic signer subset")
	ErrKeyNotFound        = errors.New("job: no keygen entry for the given verifying key")
	ErrProtocol           = errors.New("job: protocol engine aborted")
	ErrIO                 = errors.New("job: transport or storage I/O failure")
)
