package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"deskchat/internal/domain"
	"deskchat/internal/keys"
	"deskchat/internal/store"
)

// MessageRepository manages the append-only messages of a conversation.
type MessageRepository struct {
	driver store.Driver
}

// NewMessageRepository creates a MessageRepository.
func NewMessageRepository(driver store.Driver) (*MessageRepository, error) {
	if driver == nil {
		return nil, errors.New("repository: driver must not be nil")
	}
	return &MessageRepository{driver: driver}, nil
}

// Create writes a new message.
func (r *MessageRepository) Create(ctx context.Context, in domain.NewMessageInput) (domain.Message, error) {
	msg, err := domain.NewMessage(in)
	if err != nil {
		return domain.Message{}, err
	}
	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("repository: CreateMessage: marshal: %w", err)
	}
	if err := r.driver.Put(ctx, item); err != nil {
		return domain.Message{}, fmt.Errorf("repository: CreateMessage: %w", err)
	}
	return msg, nil
}

// Get fetches a message by id within its conversation. The sort key embeds
// the creation time, so this is a prefix query with an id filter.
func (r *MessageRepository) Get(ctx context.Context, messageID, conversationID string) (domain.Message, error) {
	pk, err := keys.ConversationPK(conversationID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("repository: GetMessage: %w", err)
	}
	items, err := r.driver.QueryPrefix(ctx, store.PrefixQuery{
		PartitionKey:  pk,
		SortKeyPrefix: keys.MessageSKPrefix(),
		Filters: []store.Filter{
			typeFilter(domain.TypeMessage),
			eqS("id", messageID),
		},
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("repository: GetMessage: %w", err)
	}
	if len(items) == 0 {
		return domain.Message{}, fmt.Errorf("repository: GetMessage: %w", store.ErrNotFound)
	}
	return decodeMessage(items[0], "GetMessage")
}

// List returns a conversation's messages oldest-first, the reading order.
// Conversations list newest-first; messages deliberately do not.
func (r *MessageRepository) List(ctx context.Context, conversationID string) ([]domain.Message, error) {
	pk, err := keys.ConversationPK(conversationID)
	if err != nil {
		return nil, fmt.Errorf("repository: ListMessages: %w", err)
	}
	items, err := r.driver.QueryPrefix(ctx, store.PrefixQuery{
		PartitionKey:  pk,
		SortKeyPrefix: keys.MessageSKPrefix(),
		Filters:       []store.Filter{typeFilter(domain.TypeMessage)},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListMessages: %w", err)
	}
	msgs := make([]domain.Message, 0, len(items))
	for _, item := range items {
		msg, err := decodeMessage(item, "ListMessages")
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// GetLast returns the newest message via a reverse, limit-1 key read — not
// by listing everything and taking the tail.
func (r *MessageRepository) GetLast(ctx context.Context, conversationID string) (domain.Message, error) {
	pk, err := keys.ConversationPK(conversationID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("repository: GetLastMessage: %w", err)
	}
	items, err := r.driver.QueryPrefix(ctx, store.PrefixQuery{
		PartitionKey:  pk,
		SortKeyPrefix: keys.MessageSKPrefix(),
		Descending:    true,
		Limit:         1,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("repository: GetLastMessage: %w", err)
	}
	if len(items) == 0 {
		return domain.Message{}, fmt.Errorf("repository: GetLastMessage: %w", store.ErrNotFound)
	}
	return decodeMessage(items[0], "GetLastMessage")
}

// Count returns the number of messages in a conversation without fetching
// them.
func (r *MessageRepository) Count(ctx context.Context, conversationID string) (int, error) {
	pk, err := keys.ConversationPK(conversationID)
	if err != nil {
		return 0, fmt.Errorf("repository: CountMessages: %w", err)
	}
	count, err := r.driver.CountPrefix(ctx, pk, keys.MessageSKPrefix(),
		[]store.Filter{typeFilter(domain.TypeMessage)})
	if err != nil {
		return 0, fmt.Errorf("repository: CountMessages: %w", err)
	}
	return count, nil
}

// Delete removes a message. The exact sort key must be discovered first, so
// deleting an absent message returns store.ErrNotFound.
func (r *MessageRepository) Delete(ctx context.Context, messageID, conversationID string) error {
	current, err := r.Get(ctx, messageID, conversationID)
	if err != nil {
		return err
	}
	if err := r.driver.Delete(ctx, current.PK, current.SK); err != nil {
		return fmt.Errorf("repository: DeleteMessage: %w", err)
	}
	return nil
}

func decodeMessage(item store.Item, op string) (domain.Message, error) {
	var msg domain.Message
	if err := attributevalue.UnmarshalMap(item, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("repository: %s: unmarshal: %w", op, err)
	}
	return msg, nil
}
