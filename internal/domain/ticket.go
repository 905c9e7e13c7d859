package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"deskchat/internal/keys"
)

// Ticket statuses. This layer accepts any value and leaves transition
// legality to the caller.
const (
	TicketStatusPending    = "pending"
	TicketStatusInProgress = "in_progress"
	TicketStatusDone       = "done"
	TicketStatusCancelled  = "cancelled"
)

// Ticket priorities.
const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
)

// Ticket lives at (CONV#<conversationId>, TICKET#<id>). MessageID optionally
// links the message that spawned it.
type Ticket struct {
	PK             string     `dynamodbav:"pk"`
	SK             string     `dynamodbav:"sk"`
	Type           EntityType `dynamodbav:"type"`
	ID             string     `dynamodbav:"id"`
	ConversationID string     `dynamodbav:"conversationId"`
	Title          string     `dynamodbav:"title"`
	Description    string     `dynamodbav:"description,omitempty"`
	Status         string     `dynamodbav:"status"`
	Priority       string     `dynamodbav:"priority"`
	MessageID      string     `dynamodbav:"messageId,omitempty"`
	CreatedAt      time.Time  `dynamodbav:"createdAt"`
	UpdatedAt      time.Time  `dynamodbav:"updatedAt"`
}

// NewTicketInput carries the caller-supplied fields for a new ticket.
type NewTicketInput struct {
	ConversationID string
	Title          string
	Description    string
	Priority       string
	MessageID      string
}

// NewTicket builds a fully-populated ticket record with status pending and,
// unless overridden, medium priority. No store access.
func NewTicket(in NewTicketInput) (Ticket, error) {
	if strings.TrimSpace(in.ConversationID) == "" {
		return Ticket{}, required("conversationId")
	}
	if strings.TrimSpace(in.Title) == "" {
		return Ticket{}, required("title")
	}

	priority := in.Priority
	if priority == "" {
		priority = TicketPriorityMedium
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	pk, err := keys.ConversationPK(in.ConversationID)
	if err != nil {
		return Ticket{}, err
	}
	sk, err := keys.TicketSK(id)
	if err != nil {
		return Ticket{}, err
	}

	return Ticket{
		PK:             pk,
		SK:             sk,
		Type:           TypeTicket,
		ID:             id,
		ConversationID: in.ConversationID,
		Title:          in.Title,
		Description:    in.Description,
		Status:         TicketStatusPending,
		Priority:       priority,
		MessageID:      in.MessageID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
