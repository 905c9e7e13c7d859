// Command deskchat-smoke runs an end-to-end pass over the data layer against
// a live table, DynamoDB Local by default. It is a development tool, not part
// of the library surface.
package main

import (
	"context"
	"log/slog"
	"os"

	"deskchat/internal/domain"
	"deskchat/internal/keys"
	"deskchat/internal/repository"
	"deskchat/internal/store"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg := store.Config{
		TableName: envDefault("DESKCHAT_TABLE", "deskchat_data"),
		IndexName: envDefault("DESKCHAT_INDEX", "gsi1"),
		Region:    os.Getenv("AWS_REGION"),
		Endpoint:  envDefault("DESKCHAT_ENDPOINT", "http://localhost:8000"),
	}

	// ---- Clients ----
	client, err := store.NewClient(ctx, cfg)
	if err != nil {
		slog.Error("failed to create DynamoDB client", "err", err)
		os.Exit(1)
	}
	driver, err := store.NewDynamo(client, cfg)
	if err != nil {
		slog.Error("failed to create store driver", "err", err)
		os.Exit(1)
	}

	if err := run(ctx, driver); err != nil {
		slog.Error("smoke run failed", "err", err)
		os.Exit(1)
	}
	slog.Info("smoke run passed", "table", cfg.TableName, "endpoint", cfg.Endpoint)
}

func run(ctx context.Context, driver store.Driver) error {
	users, err := repository.NewUserRepository(driver)
	if err != nil {
		return err
	}
	convs, err := repository.NewConversationRepository(driver)
	if err != nil {
		return err
	}
	msgs, err := repository.NewMessageRepository(driver)
	if err != nil {
		return err
	}
	tickets, err := repository.NewTicketRepository(driver)
	if err != nil {
		return err
	}
	providers, err := repository.NewProviderConfigRepository(driver)
	if err != nil {
		return err
	}

	user, err := users.Create(ctx, domain.NewUserInput{
		Email:    "smoke@example.com",
		Username: "smoke",
	})
	if err != nil {
		return err
	}
	slog.Info("created user", "id", user.ID)

	if _, err := users.PutSettings(ctx, user.ID); err != nil {
		return err
	}

	conv, err := convs.Create(ctx, domain.NewConversationInput{
		UserID: user.ID,
		Title:  "Smoke conversation",
	})
	if err != nil {
		return err
	}
	if _, err := msgs.Create(ctx, domain.NewMessageInput{
		ConversationID: conv.ID,
		Role:           domain.RoleUser,
		Content:        "ping",
	}); err != nil {
		return err
	}
	if _, err := msgs.Create(ctx, domain.NewMessageInput{
		ConversationID: conv.ID,
		Role:           domain.RoleAssistant,
		Content:        "pong",
	}); err != nil {
		return err
	}
	last, err := msgs.GetLast(ctx, conv.ID)
	if err != nil {
		return err
	}
	slog.Info("last message", "role", last.Role, "content", last.Content)

	shared, err := convs.Share(ctx, conv.ID, user.ID)
	if err != nil {
		return err
	}
	if _, err := convs.GetByShareID(ctx, shared.ShareID); err != nil {
		return err
	}
	if _, err := convs.Unshare(ctx, conv.ID, user.ID); err != nil {
		return err
	}

	ticket, err := tickets.Create(ctx, domain.NewTicketInput{
		ConversationID: conv.ID,
		Title:          "Smoke ticket",
	})
	if err != nil {
		return err
	}
	if _, err := tickets.Update(ctx, ticket.ID, conv.ID, map[string]any{
		"status": domain.TicketStatusDone,
	}); err != nil {
		return err
	}

	if _, err := providers.Create(ctx, domain.NewProviderConfigInput{
		UserID:   user.ID,
		Provider: "openai",
	}); err != nil {
		return err
	}
	active, err := providers.ListActive(ctx, user.ID)
	if err != nil {
		return err
	}
	slog.Info("active provider configs", "count", len(active))

	// ---- Cleanup ----
	if err := providers.Delete(ctx, user.ID, "openai"); err != nil {
		return err
	}
	if err := tickets.Delete(ctx, ticket.ID, conv.ID); err != nil {
		return err
	}
	all, err := msgs.List(ctx, conv.ID)
	if err != nil {
		return err
	}
	for _, msg := range all {
		if err := msgs.Delete(ctx, msg.ID, conv.ID); err != nil {
			return err
		}
	}
	if err := convs.Delete(ctx, conv.ID, user.ID); err != nil {
		return err
	}
	if err := users.Delete(ctx, user.ID); err != nil {
		return err
	}
	// Profile deletion does not cascade to the settings item.
	userPK, err := keys.UserPK(user.ID)
	if err != nil {
		return err
	}
	return driver.Delete(ctx, userPK, keys.SettingsSK())
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
