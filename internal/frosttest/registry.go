package frosttest

import (
	"context"

	"github.com/tangle-network/frost-blueprint/internal/job"
)

// StaticRegistry is a fixed-membership OperatorRegistry, standing in for
// the on-chain operator set a real deployment would read, spec.md §6's
// OperatorRegistry collaborator.
type StaticRegistry struct {
	Ops []job.Operator
}

// NewStaticRegistry builds a registry over accountIDs in canonical order.
func NewStaticRegistry(accountIDs ...string) *StaticRegistry {
	ops := make([]job.Operator, len(accountIDs))
	for i, id := range accountIDs {
		ops[i] = job.Operator{AccountID: id}
	}
	return &StaticRegistry{Ops: ops}
}

func (r *StaticRegistry) Operators(ctx context.Context) ([]job.Operator, error) {
	out := make([]job.Operator, len(r.Ops))
	copy(out, r.Ops)
	return out, nil
}
