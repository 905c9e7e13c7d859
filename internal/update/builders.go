package update

import (
	"fmt"

	"deskchat/internal/keys"
)

// Field names accepted by the builders. These match the item attribute
// names, so callers can feed decoded request bodies straight through.
const (
	fieldEmail       = "email"
	fieldUsername    = "username"
	fieldDisplayName = "displayName"

	fieldTheme         = "theme"
	fieldLanguage      = "language"
	fieldNotifications = "notificationsEnabled"

	fieldTitle    = "title"
	fieldModel    = "model"
	fieldArchived = "archived"
	fieldShareID  = "shareId"

	fieldDescription = "description"
	fieldStatus      = "status"
	fieldPriority    = "priority"
	fieldMessageID   = "messageId"

	fieldAPIKeyRef = "apiKeyRef"
	fieldBaseURL   = "baseUrl"
	fieldIsActive  = "isActive"

	attrGSI1PK = "gsi1pk"
	attrGSI1SK = "gsi1sk"
)

// User builds the update plan for a user profile.
func User(changes map[string]any) (Plan, error) {
	b := newBuilder()
	for field, value := range changes {
		switch field {
		case fieldEmail:
			b.set(fieldEmail, value)
		case fieldUsername:
			b.set(fieldUsername, value)
		case fieldDisplayName:
			b.clearable(fieldDisplayName, value)
		}
	}
	return b.finish()
}

// UserSettings builds the update plan for a user's settings item.
func UserSettings(changes map[string]any) (Plan, error) {
	b := newBuilder()
	for field, value := range changes {
		switch field {
		case fieldTheme:
			b.set(fieldTheme, value)
		case fieldLanguage:
			b.set(fieldLanguage, value)
		case fieldNotifications:
			b.set(fieldNotifications, value)
		}
	}
	return b.finish()
}

// Conversation builds the update plan for a conversation.
//
// The share token drives the secondary index: setting it writes the token
// and both index keys in one mutation, clearing it removes all three. The
// index attributes are never left half-populated.
func Conversation(changes map[string]any) (Plan, error) {
	b := newBuilder()
	for field, value := range changes {
		switch field {
		case fieldTitle:
			b.set(fieldTitle, value)
		case fieldModel:
			b.clearable(fieldModel, value)
		case fieldArchived:
			b.set(fieldArchived, value)
		case fieldShareID:
			if value == nil {
				b.remove(fieldShareID, attrGSI1PK, attrGSI1SK)
				continue
			}
			shareID, ok := value.(string)
			if !ok || shareID == "" {
				return Plan{}, fmt.Errorf("update: shareId must be a non-empty string or nil")
			}
			indexPK, err := keys.ShareIndexPK(shareID)
			if err != nil {
				return Plan{}, err
			}
			b.set(fieldShareID, shareID)
			b.set(attrGSI1PK, indexPK)
			b.set(attrGSI1SK, keys.ShareIndexSK())
		}
	}
	return b.finish()
}

// Ticket builds the update plan for a ticket. Status values are stored as
// given; transition legality is the caller's concern.
func Ticket(changes map[string]any) (Plan, error) {
	b := newBuilder()
	for field, value := range changes {
		switch field {
		case fieldTitle:
			b.set(fieldTitle, value)
		case fieldDescription:
			b.clearable(fieldDescription, value)
		case fieldStatus:
			b.set(fieldStatus, value)
		case fieldPriority:
			b.set(fieldPriority, value)
		case fieldMessageID:
			b.clearable(fieldMessageID, value)
		}
	}
	return b.finish()
}

// ProviderConfig builds the update plan for a provider config.
func ProviderConfig(changes map[string]any) (Plan, error) {
	b := newBuilder()
	for field, value := range changes {
		switch field {
		case fieldAPIKeyRef:
			b.clearable(fieldAPIKeyRef, value)
		case fieldModel:
			b.clearable(fieldModel, value)
		case fieldBaseURL:
			b.clearable(fieldBaseURL, value)
		case fieldIsActive:
			b.set(fieldIsActive, value)
		}
	}
	return b.finish()
}
