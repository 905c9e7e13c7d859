// Package keys composes the physical DynamoDB keys for every entity family.
//
// All entities share one table keyed by (pk, sk) plus one GSI keyed by
// (gsi1pk, gsi1sk). The composers here are pure string formatting; the only
// failure mode is an empty identifier.
package keys

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	userPKPrefix = "USER#"
	convPKPrefix = "CONV#"

	profileSK  = "PROFILE"
	settingsSK = "SETTINGS"

	providerSKPrefix = "PROVIDER#"
	convSKPrefix     = "CONV#"
	msgSKPrefix      = "MSG#"
	ticketSKPrefix   = "TICKET#"

	shareIndexPrefix = "SHARE#"
	shareIndexSK     = "SHARE"
)

// ErrEmptyID is returned when a key composer receives a blank identifier.
var ErrEmptyID = errors.New("keys: empty identifier")

// UserPK returns the partition key holding a user's profile, settings,
// provider configs, and conversations.
func UserPK(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrEmptyID
	}
	return userPKPrefix + userID, nil
}

// ConversationPK returns the partition key holding a conversation's messages
// and tickets.
func ConversationPK(conversationID string) (string, error) {
	if strings.TrimSpace(conversationID) == "" {
		return "", ErrEmptyID
	}
	return convPKPrefix + conversationID, nil
}

// ProfileSK returns the sort key of the user profile item.
func ProfileSK() string { return profileSK }

// SettingsSK returns the sort key of the user settings item.
func SettingsSK() string { return settingsSK }

// ProviderSK returns the sort key of a provider config item.
func ProviderSK(provider string) (string, error) {
	if strings.TrimSpace(provider) == "" {
		return "", ErrEmptyID
	}
	return providerSKPrefix + provider, nil
}

// ConversationSK returns the sort key of a conversation item. The creation
// time comes first so a prefix query over a user's conversations reads in
// chronological key order.
func ConversationSK(createdAt time.Time, conversationID string) (string, error) {
	if strings.TrimSpace(conversationID) == "" {
		return "", ErrEmptyID
	}
	return fmt.Sprintf("%s%s#%s", convSKPrefix, sortableMillis(createdAt), conversationID), nil
}

// MessageSK returns the sort key of a message item, chronological by
// construction.
func MessageSK(createdAt time.Time, messageID string) (string, error) {
	if strings.TrimSpace(messageID) == "" {
		return "", ErrEmptyID
	}
	return fmt.Sprintf("%s%s#%s", msgSKPrefix, sortableMillis(createdAt), messageID), nil
}

// TicketSK returns the sort key of a ticket item.
func TicketSK(ticketID string) (string, error) {
	if strings.TrimSpace(ticketID) == "" {
		return "", ErrEmptyID
	}
	return ticketSKPrefix + ticketID, nil
}

// ShareIndexPK returns the GSI partition key for a shared conversation.
func ShareIndexPK(shareID string) (string, error) {
	if strings.TrimSpace(shareID) == "" {
		return "", ErrEmptyID
	}
	return shareIndexPrefix + shareID, nil
}

// ShareIndexSK returns the fixed GSI sort key. Share tokens are unique, so
// each index partition holds exactly one item.
func ShareIndexSK() string { return shareIndexSK }

// ConversationSKPrefix returns the sort-key prefix selecting all
// conversations in a user partition.
func ConversationSKPrefix() string { return convSKPrefix }

// MessageSKPrefix returns the sort-key prefix selecting all messages in a
// conversation partition.
func MessageSKPrefix() string { return msgSKPrefix }

// TicketSKPrefix returns the sort-key prefix selecting all tickets in a
// conversation partition.
func TicketSKPrefix() string { return ticketSKPrefix }

// ProviderSKPrefix returns the sort-key prefix selecting all provider
// configs in a user partition.
func ProviderSKPrefix() string { return providerSKPrefix }

// sortableMillis renders t as zero-padded unix milliseconds. RFC3339Nano is
// not usable here: it trims trailing zeros, which breaks lexicographic
// ordering. 13 digits covers dates until the year 2286.
func sortableMillis(t time.Time) string {
	return fmt.Sprintf("%013d", t.UnixMilli())
}
