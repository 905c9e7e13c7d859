package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"deskchat/internal/domain"
	"deskchat/internal/store"
)

func newConvRepo(t *testing.T) (*ConversationRepository, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	repo, err := NewConversationRepository(mem)
	require.NoError(t, err)
	return repo, mem
}

func createConv(t *testing.T, repo *ConversationRepository, userID, title string) domain.Conversation {
	t.Helper()
	conv, err := repo.Create(context.Background(), domain.NewConversationInput{UserID: userID, Title: title})
	require.NoError(t, err)
	// Distinct creation timestamps keep sort keys strictly ordered.
	time.Sleep(2 * time.Millisecond)
	return conv
}

func TestConversationGetByID_OwnershipScoped(t *testing.T) {
	repo, _ := newConvRepo(t)
	ctx := context.Background()

	conv := createConv(t, repo, "u1", "Demo")

	got, err := repo.GetByID(ctx, conv.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, "Demo", got.Title)
	require.Equal(t, conv, got)

	_, err = repo.GetByID(ctx, conv.ID, "otherUser")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConversationList_NewestFirst(t *testing.T) {
	repo, _ := newConvRepo(t)
	ctx := context.Background()

	c1 := createConv(t, repo, "u1", "first")
	c2 := createConv(t, repo, "u1", "second")
	c3 := createConv(t, repo, "u1", "third")
	createConv(t, repo, "u2", "someone else's")

	convs, err := repo.List(ctx, "u1", ListConversationsOptions{})
	require.NoError(t, err)
	require.Len(t, convs, 3)
	require.Equal(t, c3.ID, convs[0].ID)
	require.Equal(t, c2.ID, convs[1].ID)
	require.Equal(t, c1.ID, convs[2].ID)
}

func TestConversationList_ArchivedFilter(t *testing.T) {
	repo, _ := newConvRepo(t)
	ctx := context.Background()

	createConv(t, repo, "u1", "active")
	archived := createConv(t, repo, "u1", "old")
	_, err := repo.Update(ctx, archived.ID, "u1", map[string]any{"archived": true})
	require.NoError(t, err)

	yes, no := true, false

	got, err := repo.List(ctx, "u1", ListConversationsOptions{Archived: &yes})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, archived.ID, got[0].ID)

	got, err = repo.List(ctx, "u1", ListConversationsOptions{Archived: &no})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "active", got[0].Title)
}

func TestConversationShareRoundTrip(t *testing.T) {
	repo, _ := newConvRepo(t)
	ctx := context.Background()

	conv := createConv(t, repo, "u1", "Demo")

	shared, err := repo.Share(ctx, conv.ID, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, shared.ShareID)
	require.True(t, shared.Shared())
	require.Equal(t, "SHARE#"+shared.ShareID, shared.GSI1PK)
	require.Equal(t, "SHARE", shared.GSI1SK)

	got, err := repo.GetByShareID(ctx, shared.ShareID)
	require.NoError(t, err)
	require.Equal(t, conv.ID, got.ID)
	require.Equal(t, "Demo", got.Title)
}

func TestConversationUnshare_TokenNeverResolvesAgain(t *testing.T) {
	repo, _ := newConvRepo(t)
	ctx := context.Background()

	conv := createConv(t, repo, "u1", "Demo")

	shared, err := repo.Share(ctx, conv.ID, "u1")
	require.NoError(t, err)
	oldToken := shared.ShareID

	unshared, err := repo.Unshare(ctx, conv.ID, "u1")
	require.NoError(t, err)
	require.Empty(t, unshared.ShareID)
	require.Empty(t, unshared.GSI1PK)
	require.Empty(t, unshared.GSI1SK)

	_, err = repo.GetByShareID(ctx, oldToken)
	require.ErrorIs(t, err, store.ErrNotFound)

	// A fresh share mints a new token; the old one stays dead.
	reshared, err := repo.Share(ctx, conv.ID, "u1")
	require.NoError(t, err)
	require.NotEqual(t, oldToken, reshared.ShareID)

	_, err = repo.GetByShareID(ctx, oldToken)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConversationUpdate_Title(t *testing.T) {
	repo, _ := newConvRepo(t)
	ctx := context.Background()

	conv := createConv(t, repo, "u1", "Demo")

	updated, err := repo.Update(ctx, conv.ID, "u1", map[string]any{"title": "Renamed"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.Equal(t, conv.ID, updated.ID)
	require.Equal(t, conv.SK, updated.SK)
	require.Equal(t, conv.CreatedAt, updated.CreatedAt)
	require.True(t, updated.UpdatedAt.After(conv.UpdatedAt))
}

func TestConversationUpdate_EmptyChangesNoWrite(t *testing.T) {
	repo, mem := newConvRepo(t)
	ctx := context.Background()

	conv := createConv(t, repo, "u1", "Demo")

	writes := mem.Writes()
	got, err := repo.Update(ctx, conv.ID, "u1", map[string]any{})
	require.NoError(t, err)
	require.Equal(t, conv, got)
	require.Equal(t, writes, mem.Writes())
}

func TestConversationUpdate_ImmutableOnlyNoWrite(t *testing.T) {
	repo, mem := newConvRepo(t)
	ctx := context.Background()

	conv := createConv(t, repo, "u1", "Demo")

	writes := mem.Writes()
	got, err := repo.Update(ctx, conv.ID, "u1", map[string]any{
		"id":     "other",
		"userId": "u2",
		"pk":     "USER#u2",
	})
	require.NoError(t, err)
	require.Equal(t, conv, got)
	require.Equal(t, writes, mem.Writes())
}

func TestConversationDelete_SecondReturnsNotFound(t *testing.T) {
	repo, _ := newConvRepo(t)
	ctx := context.Background()

	conv := createConv(t, repo, "u1", "Demo")

	require.NoError(t, repo.Delete(ctx, conv.ID, "u1"))
	err := repo.Delete(ctx, conv.ID, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConversationCount(t *testing.T) {
	repo, _ := newConvRepo(t)
	ctx := context.Background()

	createConv(t, repo, "u1", "one")
	createConv(t, repo, "u1", "two")
	createConv(t, repo, "u2", "other")

	count, err := repo.Count(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
