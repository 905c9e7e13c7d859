package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"deskchat/internal/keys"
)

// Conversation lives at (USER#<userId>, CONV#<millis>#<id>). The sort key
// embeds the creation time, not the id, so listing a user's conversations is
// a pure key-order read while lookup by id needs a prefix query with an id
// filter.
//
// GSI1PK/GSI1SK exist if and only if the conversation is shared. Clearing
// the share token must remove both attributes, never null them, or stale
// index entries remain queryable.
type Conversation struct {
	PK        string     `dynamodbav:"pk"`
	SK        string     `dynamodbav:"sk"`
	Type      EntityType `dynamodbav:"type"`
	ID        string     `dynamodbav:"id"`
	UserID    string     `dynamodbav:"userId"`
	Title     string     `dynamodbav:"title"`
	Model     string     `dynamodbav:"model,omitempty"`
	Archived  bool       `dynamodbav:"archived"`
	ShareID   string     `dynamodbav:"shareId,omitempty"`
	GSI1PK    string     `dynamodbav:"gsi1pk,omitempty"`
	GSI1SK    string     `dynamodbav:"gsi1sk,omitempty"`
	CreatedAt time.Time  `dynamodbav:"createdAt"`
	UpdatedAt time.Time  `dynamodbav:"updatedAt"`
}

// Shared reports whether the conversation currently has a share token.
func (c Conversation) Shared() bool { return c.ShareID != "" }

// NewConversationInput carries the caller-supplied fields for a new
// conversation.
type NewConversationInput struct {
	UserID string
	Title  string
	Model  string
}

// NewConversation builds a fully-populated conversation record, unshared and
// unarchived. No store access.
func NewConversation(in NewConversationInput) (Conversation, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Conversation{}, required("userId")
	}
	if strings.TrimSpace(in.Title) == "" {
		return Conversation{}, required("title")
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	pk, err := keys.UserPK(in.UserID)
	if err != nil {
		return Conversation{}, err
	}
	sk, err := keys.ConversationSK(now, id)
	if err != nil {
		return Conversation{}, err
	}

	return Conversation{
		PK:        pk,
		SK:        sk,
		Type:      TypeConversation,
		ID:        id,
		UserID:    in.UserID,
		Title:     in.Title,
		Model:     in.Model,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
