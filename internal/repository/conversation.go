package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"

	"deskchat/internal/domain"
	"deskchat/internal/keys"
	"deskchat/internal/store"
	"deskchat/internal/update"
)

// ConversationRepository manages conversations under their owner's
// partition.
type ConversationRepository struct {
	driver store.Driver
}

// NewConversationRepository creates a ConversationRepository.
func NewConversationRepository(driver store.Driver) (*ConversationRepository, error) {
	if driver == nil {
		return nil, errors.New("repository: driver must not be nil")
	}
	return &ConversationRepository{driver: driver}, nil
}

// ListConversationsOptions narrows List results.
type ListConversationsOptions struct {
	// Archived filters on the archived flag when non-nil.
	Archived *bool
}

// Create writes a new conversation.
func (r *ConversationRepository) Create(ctx context.Context, in domain.NewConversationInput) (domain.Conversation, error) {
	conv, err := domain.NewConversation(in)
	if err != nil {
		return domain.Conversation{}, err
	}
	item, err := attributevalue.MarshalMap(conv)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: CreateConversation: marshal: %w", err)
	}
	if err := r.driver.Put(ctx, item); err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: CreateConversation: %w", err)
	}
	return conv, nil
}

// GetByID fetches a conversation scoped to its owner. The sort key embeds
// the creation time rather than the id, so this is a prefix query with an
// id filter, not a point lookup. A conversation owned by another user is
// store.ErrNotFound.
func (r *ConversationRepository) GetByID(ctx context.Context, conversationID, userID string) (domain.Conversation, error) {
	pk, err := keys.UserPK(userID)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: GetConversation: %w", err)
	}
	items, err := r.driver.QueryPrefix(ctx, store.PrefixQuery{
		PartitionKey:  pk,
		SortKeyPrefix: keys.ConversationSKPrefix(),
		Filters: []store.Filter{
			typeFilter(domain.TypeConversation),
			eqS("id", conversationID),
		},
	})
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: GetConversation: %w", err)
	}
	if len(items) == 0 {
		return domain.Conversation{}, fmt.Errorf("repository: GetConversation: %w", store.ErrNotFound)
	}
	return decodeConversation(items[0], "GetConversation")
}

// GetByShareID resolves a share token through the secondary index, a point
// lookup that needs no owner id.
func (r *ConversationRepository) GetByShareID(ctx context.Context, shareID string) (domain.Conversation, error) {
	indexPK, err := keys.ShareIndexPK(shareID)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: GetConversationByShareID: %w", err)
	}
	items, err := r.driver.QueryIndex(ctx, indexPK)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: GetConversationByShareID: %w", err)
	}
	if len(items) == 0 {
		return domain.Conversation{}, fmt.Errorf("repository: GetConversationByShareID: %w", store.ErrNotFound)
	}
	return decodeConversation(items[0], "GetConversationByShareID")
}

// List returns a user's conversations newest-first.
func (r *ConversationRepository) List(ctx context.Context, userID string, opts ListConversationsOptions) ([]domain.Conversation, error) {
	pk, err := keys.UserPK(userID)
	if err != nil {
		return nil, fmt.Errorf("repository: ListConversations: %w", err)
	}
	filters := []store.Filter{typeFilter(domain.TypeConversation)}
	if opts.Archived != nil {
		filters = append(filters, eqBool("archived", *opts.Archived))
	}
	items, err := r.driver.QueryPrefix(ctx, store.PrefixQuery{
		PartitionKey:  pk,
		SortKeyPrefix: keys.ConversationSKPrefix(),
		Filters:       filters,
		Descending:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListConversations: %w", err)
	}
	convs := make([]domain.Conversation, 0, len(items))
	for _, item := range items {
		conv, err := decodeConversation(item, "ListConversations")
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

// Count returns the number of conversations a user owns.
func (r *ConversationRepository) Count(ctx context.Context, userID string) (int, error) {
	pk, err := keys.UserPK(userID)
	if err != nil {
		return 0, fmt.Errorf("repository: CountConversations: %w", err)
	}
	count, err := r.driver.CountPrefix(ctx, pk, keys.ConversationSKPrefix(),
		[]store.Filter{typeFilter(domain.TypeConversation)})
	if err != nil {
		return 0, fmt.Errorf("repository: CountConversations: %w", err)
	}
	return count, nil
}

// Update applies a sparse change set and returns the post-update record. A
// change set with no mutable fields left after dropping immutables is
// returned unchanged without a store write.
func (r *ConversationRepository) Update(ctx context.Context, conversationID, userID string, changes map[string]any) (domain.Conversation, error) {
	current, err := r.GetByID(ctx, conversationID, userID)
	if err != nil {
		return domain.Conversation{}, err
	}
	plan, err := update.Conversation(changes)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: UpdateConversation: %w", err)
	}
	if plan.IsNoOp() {
		return current, nil
	}
	item, err := r.driver.Update(ctx, current.PK, current.SK, store.Mutation{Set: plan.Set, Remove: plan.Remove})
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: UpdateConversation: %w", err)
	}
	return decodeConversation(item, "UpdateConversation")
}

// Share mints a share token for the conversation, writing the token and
// both index keys in one mutation. An already-shared conversation gets a
// fresh token; the old one stops resolving.
func (r *ConversationRepository) Share(ctx context.Context, conversationID, userID string) (domain.Conversation, error) {
	return r.Update(ctx, conversationID, userID, map[string]any{"shareId": uuid.NewString()})
}

// Unshare clears the share token and removes both index keys in the same
// mutation. The token is never again resolvable.
func (r *ConversationRepository) Unshare(ctx context.Context, conversationID, userID string) (domain.Conversation, error) {
	return r.Update(ctx, conversationID, userID, map[string]any{"shareId": nil})
}

// Delete removes the conversation item only. Messages and tickets under
// CONV#<id> are left in place; cascading cleanup is the caller's
// responsibility.
func (r *ConversationRepository) Delete(ctx context.Context, conversationID, userID string) error {
	current, err := r.GetByID(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if err := r.driver.Delete(ctx, current.PK, current.SK); err != nil {
		return fmt.Errorf("repository: DeleteConversation: %w", err)
	}
	return nil
}

func decodeConversation(item store.Item, op string) (domain.Conversation, error) {
	var conv domain.Conversation
	if err := attributevalue.UnmarshalMap(item, &conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: %s: unmarshal: %w", op, err)
	}
	return conv, nil
}
