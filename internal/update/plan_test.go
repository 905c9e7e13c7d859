package update

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

func stringValue(t *testing.T, plan Plan, attr string) string {
	t.Helper()
	v, ok := plan.Set[attr].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %q missing or not a string", attr)
	return v.Value
}

func TestUser_SetsFieldsAndBumpsUpdatedAt(t *testing.T) {
	plan, err := User(map[string]any{"email": "b@x.com", "displayName": "Bob"})
	require.NoError(t, err)
	require.False(t, plan.IsNoOp())

	require.Equal(t, "b@x.com", stringValue(t, plan, "email"))
	require.Equal(t, "Bob", stringValue(t, plan, "displayName"))
	require.Contains(t, plan.Set, "updatedAt")
	require.Empty(t, plan.Remove)
}

func TestUser_ImmutableFieldsDroppedSilently(t *testing.T) {
	plan, err := User(map[string]any{
		"id":        "other",
		"pk":        "USER#other",
		"sk":        "PROFILE",
		"type":      "ticket",
		"createdAt": "2020-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.True(t, plan.IsNoOp())
}

func TestUser_EmptyChanges(t *testing.T) {
	plan, err := User(map[string]any{})
	require.NoError(t, err)
	require.True(t, plan.IsNoOp())
	require.NotContains(t, plan.Set, "updatedAt")
}

func TestUser_ClearDisplayName(t *testing.T) {
	plan, err := User(map[string]any{"displayName": nil})
	require.NoError(t, err)
	require.Contains(t, plan.Remove, "displayName")
	require.Contains(t, plan.Set, "updatedAt")
}

func TestConversation_ShareSetsBothIndexKeys(t *testing.T) {
	plan, err := Conversation(map[string]any{"shareId": "tok"})
	require.NoError(t, err)

	require.Equal(t, "tok", stringValue(t, plan, "shareId"))
	require.Equal(t, "SHARE#tok", stringValue(t, plan, "gsi1pk"))
	require.Equal(t, "SHARE", stringValue(t, plan, "gsi1sk"))
	require.Contains(t, plan.Set, "updatedAt")
}

func TestConversation_UnshareRemovesBothIndexKeys(t *testing.T) {
	plan, err := Conversation(map[string]any{"shareId": nil})
	require.NoError(t, err)

	require.Contains(t, plan.Remove, "shareId")
	require.Contains(t, plan.Remove, "gsi1pk")
	require.Contains(t, plan.Remove, "gsi1sk")
	require.NotContains(t, plan.Set, "gsi1pk")
	require.Contains(t, plan.Set, "updatedAt")
}

func TestConversation_ShareRejectsNonString(t *testing.T) {
	_, err := Conversation(map[string]any{"shareId": 42})
	require.Error(t, err)

	_, err = Conversation(map[string]any{"shareId": ""})
	require.Error(t, err)
}

func TestConversation_ArchivedAndTitle(t *testing.T) {
	plan, err := Conversation(map[string]any{"title": "Renamed", "archived": true})
	require.NoError(t, err)

	require.Equal(t, "Renamed", stringValue(t, plan, "title"))
	v, ok := plan.Set["archived"].(*types.AttributeValueMemberBOOL)
	require.True(t, ok)
	require.True(t, v.Value)
}

func TestTicket_StatusAcceptedUnvalidated(t *testing.T) {
	plan, err := Ticket(map[string]any{"status": "done"})
	require.NoError(t, err)
	require.Equal(t, "done", stringValue(t, plan, "status"))
}

func TestTicket_ClearableFields(t *testing.T) {
	plan, err := Ticket(map[string]any{"description": nil, "messageId": nil})
	require.NoError(t, err)
	require.Contains(t, plan.Remove, "description")
	require.Contains(t, plan.Remove, "messageId")
}

func TestTicket_ImmutableConversationIDDropped(t *testing.T) {
	plan, err := Ticket(map[string]any{"conversationId": "c2", "id": "t2"})
	require.NoError(t, err)
	require.True(t, plan.IsNoOp())
}

func TestUserSettings_Fields(t *testing.T) {
	plan, err := UserSettings(map[string]any{"theme": "light", "notificationsEnabled": false})
	require.NoError(t, err)

	require.Equal(t, "light", stringValue(t, plan, "theme"))
	v, ok := plan.Set["notificationsEnabled"].(*types.AttributeValueMemberBOOL)
	require.True(t, ok)
	require.False(t, v.Value)
}

func TestProviderConfig_Fields(t *testing.T) {
	plan, err := ProviderConfig(map[string]any{"isActive": false, "model": nil})
	require.NoError(t, err)

	require.Contains(t, plan.Remove, "model")
	v, ok := plan.Set["isActive"].(*types.AttributeValueMemberBOOL)
	require.True(t, ok)
	require.False(t, v.Value)
}
