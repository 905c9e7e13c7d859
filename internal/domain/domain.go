// Package domain defines the entity records stored in the shared table and
// the factories that construct them.
//
// Every item carries an explicit type discriminator because several entity
// families share a partition prefix and must be told apart after a prefix
// query. Identity fields (id, owner id, type, createdAt, physical keys) are
// immutable after creation.
package domain

// EntityType discriminates item families within the shared table.
type EntityType string

const (
	TypeUser           EntityType = "user"
	TypeUserSettings   EntityType = "user_settings"
	TypeProviderConfig EntityType = "provider_config"
	TypeConversation   EntityType = "conversation"
	TypeMessage        EntityType = "message"
	TypeTicket         EntityType = "ticket"
)

// AttrType is the item attribute holding the EntityType discriminator.
const AttrType = "type"
