// Package store provides the key-value store driver behind the entity
// repositories: a capability interface, its DynamoDB implementation, and an
// in-memory implementation for tests and local development.
//
// Every operation is a single-item call with no client-side locking; writes
// to one item are linearized by the store, writes to different items are
// unordered relative to each other. Unavailability errors propagate wrapped,
// never masked as empty results.
package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Shared table attribute names for the primary key and the share index.
const (
	AttrPK     = "pk"
	AttrSK     = "sk"
	AttrGSI1PK = "gsi1pk"
	AttrGSI1SK = "gsi1sk"
)

// Item is a raw table item.
type Item map[string]types.AttributeValue

// Filter is an attribute-equality condition applied store-side to query and
// scan results. Multiple filters are ANDed.
type Filter struct {
	Attr  string
	Value types.AttributeValue
}

// PrefixQuery selects the items of one partition whose sort key carries a
// prefix.
type PrefixQuery struct {
	PartitionKey  string
	SortKeyPrefix string
	Filters       []Filter

	// Descending reverses the sort-key order (newest first for time-ordered
	// sort keys).
	Descending bool

	// Limit caps the number of returned items; 0 means no cap.
	Limit int32
}

// Mutation is the attribute change set of a single-item update: Set
// overwrites attributes, Remove deletes them.
type Mutation struct {
	Set    map[string]types.AttributeValue
	Remove []string
}

// Driver is the capability interface the repositories consume.
type Driver interface {
	// PutIfAbsent writes item only if its primary key is vacant, returning
	// ErrAlreadyExists otherwise.
	PutIfAbsent(ctx context.Context, item Item) error

	// Put writes item unconditionally.
	Put(ctx context.Context, item Item) error

	// Get returns the item at the exact primary key, or ErrNotFound.
	Get(ctx context.Context, pk, sk string) (Item, error)

	// QueryPrefix returns the items matching q in sort-key order.
	QueryPrefix(ctx context.Context, q PrefixQuery) ([]Item, error)

	// QueryIndex returns the items under one share-index partition key.
	QueryIndex(ctx context.Context, indexPK string) ([]Item, error)

	// Update applies m to the item at the exact primary key and returns the
	// post-update item, or ErrNotFound if no item exists there.
	Update(ctx context.Context, pk, sk string, m Mutation) (Item, error)

	// Delete removes the item at the exact primary key. Deleting a vacant
	// key is not an error.
	Delete(ctx context.Context, pk, sk string) error

	// CountPrefix returns the number of items matching the prefix and
	// filters without fetching them.
	CountPrefix(ctx context.Context, pk, skPrefix string, filters []Filter) (int, error)

	// Scan returns every item matching filters across all partitions. Cost
	// is O(table size); call sites must treat it as a last resort.
	Scan(ctx context.Context, filters []Filter) ([]Item, error)
}
