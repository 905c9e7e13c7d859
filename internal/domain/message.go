package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"deskchat/internal/keys"
)

// Message roles. The layer stores whatever role it is given; these constants
// cover the usual participants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message lives at (CONV#<conversationId>, MSG#<millis>#<id>), chronological
// by construction.
type Message struct {
	PK             string     `dynamodbav:"pk"`
	SK             string     `dynamodbav:"sk"`
	Type           EntityType `dynamodbav:"type"`
	ID             string     `dynamodbav:"id"`
	ConversationID string     `dynamodbav:"conversationId"`
	Role           string     `dynamodbav:"role"`
	Content        string     `dynamodbav:"content"`
	TokenCount     int        `dynamodbav:"tokenCount,omitempty"`
	CreatedAt      time.Time  `dynamodbav:"createdAt"`
	UpdatedAt      time.Time  `dynamodbav:"updatedAt"`
}

// NewMessageInput carries the caller-supplied fields for a new message.
type NewMessageInput struct {
	ConversationID string
	Role           string
	Content        string
	TokenCount     int
}

// NewMessage builds a fully-populated message record. No store access.
func NewMessage(in NewMessageInput) (Message, error) {
	if strings.TrimSpace(in.ConversationID) == "" {
		return Message{}, required("conversationId")
	}
	if strings.TrimSpace(in.Role) == "" {
		return Message{}, required("role")
	}
	if in.Content == "" {
		return Message{}, required("content")
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	pk, err := keys.ConversationPK(in.ConversationID)
	if err != nil {
		return Message{}, err
	}
	sk, err := keys.MessageSK(now, id)
	if err != nil {
		return Message{}, err
	}

	return Message{
		PK:             pk,
		SK:             sk,
		Type:           TypeMessage,
		ID:             id,
		ConversationID: in.ConversationID,
		Role:           in.Role,
		Content:        in.Content,
		TokenCount:     in.TokenCount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
