// Package update builds attribute-level update plans from sparse change
// sets.
//
// Each builder enumerates its entity's mutable fields explicitly; anything
// else in the change set — identity fields, physical keys, typos — is
// silently dropped, mirroring callers that pass whole objects back. A plan
// that is empty after dropping is a no-op the repositories short-circuit on
// without a store round-trip. Every non-empty plan bumps updatedAt.
package update

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Plan is the computed set of attribute mutations for one item.
type Plan struct {
	Set    map[string]types.AttributeValue
	Remove []string
}

// IsNoOp reports whether the plan carries no mutations.
func (p Plan) IsNoOp() bool {
	return len(p.Set) == 0 && len(p.Remove) == 0
}

type builder struct {
	plan Plan
	err  error
}

func newBuilder() *builder {
	return &builder{plan: Plan{Set: map[string]types.AttributeValue{}}}
}

// set marshals value and stages an attribute overwrite.
func (b *builder) set(attr string, value any) {
	if b.err != nil {
		return
	}
	av, err := attributevalue.Marshal(value)
	if err != nil {
		b.err = fmt.Errorf("update: marshal %s: %w", attr, err)
		return
	}
	b.plan.Set[attr] = av
}

// remove stages attribute removals. Removal, not nulling: a nulled index key
// would still be indexed.
func (b *builder) remove(attrs ...string) {
	if b.err != nil {
		return
	}
	b.plan.Remove = append(b.plan.Remove, attrs...)
}

// clearable stages a set, or a removal when value is nil.
func (b *builder) clearable(attr string, value any) {
	if value == nil {
		b.remove(attr)
		return
	}
	b.set(attr, value)
}

// finish returns the plan, stamping updatedAt unless it is a no-op.
func (b *builder) finish() (Plan, error) {
	if b.err != nil {
		return Plan{}, b.err
	}
	if b.plan.IsNoOp() {
		return Plan{}, nil
	}
	b.set(attrUpdatedAt, time.Now().UTC())
	if b.err != nil {
		return Plan{}, b.err
	}
	return b.plan, nil
}

const attrUpdatedAt = "updatedAt"
