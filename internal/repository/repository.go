// Package repository exposes the per-entity CRUD surface over the shared
// single-table store.
//
// All operations are independent single-item calls; there is no client-side
// locking and no multi-item transaction. Update paths fetch the current item
// first (the conversation sort key embeds non-identifier data, so the exact
// key must be discovered), which means a delete racing an update surfaces as
// store.ErrNotFound — callers must treat that as expected, not as an
// invariant violation. Deleting a conversation does not cascade to its
// messages or tickets; that cleanup is the caller's responsibility.
package repository

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"deskchat/internal/domain"
	"deskchat/internal/store"
)

// typeFilter restricts a query to one entity family. The discriminator is
// redundant with the key scheme but kept as a filter because several entity
// families share a partition prefix.
func typeFilter(t domain.EntityType) store.Filter {
	return store.Filter{
		Attr:  domain.AttrType,
		Value: &types.AttributeValueMemberS{Value: string(t)},
	}
}

func eqS(attr, value string) store.Filter {
	return store.Filter{Attr: attr, Value: &types.AttributeValueMemberS{Value: value}}
}

func eqBool(attr string, value bool) store.Filter {
	return store.Filter{Attr: attr, Value: &types.AttributeValueMemberBOOL{Value: value}}
}
