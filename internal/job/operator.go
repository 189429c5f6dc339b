// Package job implements the Job Surface: the two public entry points
// (Keygen, Sign) that resolve operators, dispatch the appropriate
// protocol engine, and persist or look up key material, grounded on
// original_source's src/keygen.rs and src/sign.rs top-level job
// functions.
package job

import (
	"context"

	"github.com/tangle-network/frost-blueprint/internal/delivery"
)

// Operator is one entry in the external operator registry: an account
// identity and its long-term ECDSA public key, spec.md §6's
// "operator_account_id → ecdsa_public_key" map entry.
type Operator struct {
	AccountID string
	PublicKey []byte
}

// OperatorRegistry enumerates the known operator set in canonical
// (account id) order, spec.md §6's consumed external collaborator.
// Party indices and the deterministic signer-subset seed are both
// derived from this ordering, so every honest node must observe the
// same order for a given run.
type OperatorRegistry interface {
	Operators(ctx context.Context) ([]Operator, error)
}

// Transport is the authenticated point-to-point-plus-broadcast
// collaborator spec.md §6 describes. It is the same shape as
// delivery.Transport; Job Surface code imports this alias so callers
// implementing the external collaborator don't need to import the
// delivery package directly.
type Transport = delivery.Transport
