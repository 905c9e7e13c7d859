package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"deskchat/internal/domain"
	"deskchat/internal/keys"
	"deskchat/internal/store"
	"deskchat/internal/update"
)

// TicketRepository manages the tickets spawned from a conversation.
type TicketRepository struct {
	driver store.Driver
}

// NewTicketRepository creates a TicketRepository.
func NewTicketRepository(driver store.Driver) (*TicketRepository, error) {
	if driver == nil {
		return nil, errors.New("repository: driver must not be nil")
	}
	return &TicketRepository{driver: driver}, nil
}

// Create writes a new ticket with the default pending status.
func (r *TicketRepository) Create(ctx context.Context, in domain.NewTicketInput) (domain.Ticket, error) {
	ticket, err := domain.NewTicket(in)
	if err != nil {
		return domain.Ticket{}, err
	}
	item, err := attributevalue.MarshalMap(ticket)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("repository: CreateTicket: marshal: %w", err)
	}
	if err := r.driver.Put(ctx, item); err != nil {
		return domain.Ticket{}, fmt.Errorf("repository: CreateTicket: %w", err)
	}
	return ticket, nil
}

// Get fetches a ticket by exact primary key. Unlike conversations and
// messages, the ticket sort key carries the id, so this is a point lookup.
func (r *TicketRepository) Get(ctx context.Context, ticketID, conversationID string) (domain.Ticket, error) {
	pk, sk, err := ticketKey(ticketID, conversationID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("repository: GetTicket: %w", err)
	}
	item, err := r.driver.Get(ctx, pk, sk)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("repository: GetTicket: %w", err)
	}
	return decodeTicket(item, "GetTicket")
}

// List returns a conversation's tickets in sort-key order.
func (r *TicketRepository) List(ctx context.Context, conversationID string) ([]domain.Ticket, error) {
	pk, err := keys.ConversationPK(conversationID)
	if err != nil {
		return nil, fmt.Errorf("repository: ListTickets: %w", err)
	}
	items, err := r.driver.QueryPrefix(ctx, store.PrefixQuery{
		PartitionKey:  pk,
		SortKeyPrefix: keys.TicketSKPrefix(),
		Filters:       []store.Filter{typeFilter(domain.TypeTicket)},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListTickets: %w", err)
	}
	tickets := make([]domain.Ticket, 0, len(items))
	for _, item := range items {
		ticket, err := decodeTicket(item, "ListTickets")
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// GetByStatus returns every ticket in the given status, across all
// conversations. This is the layer's only cross-partition query and scans
// the whole table; a production deployment needs a dedicated status index
// instead. Kept as-is, not silently fixed.
func (r *TicketRepository) GetByStatus(ctx context.Context, status string) ([]domain.Ticket, error) {
	items, err := r.driver.Scan(ctx, []store.Filter{
		typeFilter(domain.TypeTicket),
		eqS("status", status),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: GetTicketsByStatus: %w", err)
	}
	tickets := make([]domain.Ticket, 0, len(items))
	for _, item := range items {
		ticket, err := decodeTicket(item, "GetTicketsByStatus")
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// Update applies a sparse change set and returns the post-update record.
// Status values are written as given; transition legality stays with the
// caller.
func (r *TicketRepository) Update(ctx context.Context, ticketID, conversationID string, changes map[string]any) (domain.Ticket, error) {
	current, err := r.Get(ctx, ticketID, conversationID)
	if err != nil {
		return domain.Ticket{}, err
	}
	plan, err := update.Ticket(changes)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("repository: UpdateTicket: %w", err)
	}
	if plan.IsNoOp() {
		return current, nil
	}
	item, err := r.driver.Update(ctx, current.PK, current.SK, store.Mutation{Set: plan.Set, Remove: plan.Remove})
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("repository: UpdateTicket: %w", err)
	}
	return decodeTicket(item, "UpdateTicket")
}

// Delete removes a ticket. Deleting an absent ticket is not an error.
func (r *TicketRepository) Delete(ctx context.Context, ticketID, conversationID string) error {
	pk, sk, err := ticketKey(ticketID, conversationID)
	if err != nil {
		return fmt.Errorf("repository: DeleteTicket: %w", err)
	}
	if err := r.driver.Delete(ctx, pk, sk); err != nil {
		return fmt.Errorf("repository: DeleteTicket: %w", err)
	}
	return nil
}

func ticketKey(ticketID, conversationID string) (string, string, error) {
	pk, err := keys.ConversationPK(conversationID)
	if err != nil {
		return "", "", err
	}
	sk, err := keys.TicketSK(ticketID)
	if err != nil {
		return "", "", err
	}
	return pk, sk, nil
}

func decodeTicket(item store.Item, op string) (domain.Ticket, error) {
	var ticket domain.Ticket
	if err := attributevalue.UnmarshalMap(item, &ticket); err != nil {
		return domain.Ticket{}, fmt.Errorf("repository: %s: unmarshal: %w", op, err)
	}
	return ticket, nil
}
