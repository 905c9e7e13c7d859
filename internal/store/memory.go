package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Memory implements Driver over an in-process map. It backs repository tests
// and local development; the write counter lets tests assert that no-op
// updates never reach the store.
type Memory struct {
	mu     sync.Mutex
	items  map[string]Item
	writes int
}

// NewMemory creates an empty in-memory driver.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]Item)}
}

// Writes reports how many mutating calls (puts, updates, deletes) the driver
// has received.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func memKey(pk, sk string) string { return pk + "\x00" + sk }

func itemKey(item Item) (string, string) {
	pk, _ := stringAttr(item, AttrPK)
	sk, _ := stringAttr(item, AttrSK)
	return pk, sk
}

// PutIfAbsent writes item only if its primary key is vacant.
func (m *Memory) PutIfAbsent(_ context.Context, item Item) error {
	pk, sk := itemKey(item)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if _, ok := m.items[memKey(pk, sk)]; ok {
		return ErrAlreadyExists
	}
	m.items[memKey(pk, sk)] = copyItem(item)
	return nil
}

// Put writes item unconditionally.
func (m *Memory) Put(_ context.Context, item Item) error {
	pk, sk := itemKey(item)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.items[memKey(pk, sk)] = copyItem(item)
	return nil
}

// Get fetches the item at the exact primary key.
func (m *Memory) Get(_ context.Context, pk, sk string) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[memKey(pk, sk)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyItem(item), nil
}

// QueryPrefix returns matching items in sort-key order.
func (m *Memory) QueryPrefix(_ context.Context, q PrefixQuery) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Item
	for _, item := range m.items {
		pk, sk := itemKey(item)
		if pk != q.PartitionKey || !strings.HasPrefix(sk, q.SortKeyPrefix) {
			continue
		}
		if !matchesFilters(item, q.Filters) {
			continue
		}
		matched = append(matched, copyItem(item))
	}

	sort.Slice(matched, func(i, j int) bool {
		_, si := itemKey(matched[i])
		_, sj := itemKey(matched[j])
		if q.Descending {
			return si > sj
		}
		return si < sj
	})

	if q.Limit > 0 && int(q.Limit) < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// QueryIndex returns the items whose gsi1pk equals indexPK.
func (m *Memory) QueryIndex(_ context.Context, indexPK string) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Item
	for _, item := range m.items {
		if v, ok := stringAttr(item, AttrGSI1PK); ok && v == indexPK {
			matched = append(matched, copyItem(item))
		}
	}
	return matched, nil
}

// Update applies mut to the item at the exact primary key.
func (m *Memory) Update(_ context.Context, pk, sk string, mut Mutation) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++

	item, ok := m.items[memKey(pk, sk)]
	if !ok {
		return nil, ErrNotFound
	}
	updated := copyItem(item)
	for attr, v := range mut.Set {
		updated[attr] = v
	}
	for _, attr := range mut.Remove {
		delete(updated, attr)
	}
	m.items[memKey(pk, sk)] = updated
	return copyItem(updated), nil
}

// Delete removes the item at the exact primary key. Idempotent.
func (m *Memory) Delete(_ context.Context, pk, sk string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	delete(m.items, memKey(pk, sk))
	return nil
}

// CountPrefix counts matching items.
func (m *Memory) CountPrefix(ctx context.Context, pk, skPrefix string, filters []Filter) (int, error) {
	items, err := m.QueryPrefix(ctx, PrefixQuery{PartitionKey: pk, SortKeyPrefix: skPrefix, Filters: filters})
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Scan returns every item matching filters.
func (m *Memory) Scan(_ context.Context, filters []Filter) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Item
	for _, item := range m.items {
		if matchesFilters(item, filters) {
			matched = append(matched, copyItem(item))
		}
	}
	return matched, nil
}

func matchesFilters(item Item, filters []Filter) bool {
	for _, f := range filters {
		if !attrEqual(item[f.Attr], f.Value) {
			return false
		}
	}
	return true
}

// attrEqual compares the attribute value kinds the filters use.
func attrEqual(a, b types.AttributeValue) bool {
	if a == nil || b == nil {
		return false
	}
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	default:
		return false
	}
}

func stringAttr(item Item, attr string) (string, bool) {
	v, ok := item[attr].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return v.Value, true
}

func copyItem(item Item) Item {
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
