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

// ProviderConfigRepository manages per-user LLM provider configurations,
// point keyed by (user, provider).
type ProviderConfigRepository struct {
	driver store.Driver
}

// NewProviderConfigRepository creates a ProviderConfigRepository.
func NewProviderConfigRepository(driver store.Driver) (*ProviderConfigRepository, error) {
	if driver == nil {
		return nil, errors.New("repository: driver must not be nil")
	}
	return &ProviderConfigRepository{driver: driver}, nil
}

// Create writes a provider config. The key is derived from (user, provider),
// so creating the same pair again replaces the record.
func (r *ProviderConfigRepository) Create(ctx context.Context, in domain.NewProviderConfigInput) (domain.ProviderConfig, error) {
	cfg, err := domain.NewProviderConfig(in)
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	item, err := attributevalue.MarshalMap(cfg)
	if err != nil {
		return domain.ProviderConfig{}, fmt.Errorf("repository: CreateProviderConfig: marshal: %w", err)
	}
	if err := r.driver.Put(ctx, item); err != nil {
		return domain.ProviderConfig{}, fmt.Errorf("repository: CreateProviderConfig: %w", err)
	}
	return cfg, nil
}

// Get fetches the config for one (user, provider) pair by exact primary key.
func (r *ProviderConfigRepository) Get(ctx context.Context, userID, provider string) (domain.ProviderConfig, error) {
	pk, sk, err := providerKey(userID, provider)
	if err != nil {
		return domain.ProviderConfig{}, fmt.Errorf("repository: GetProviderConfig: %w", err)
	}
	item, err := r.driver.Get(ctx, pk, sk)
	if err != nil {
		return domain.ProviderConfig{}, fmt.Errorf("repository: GetProviderConfig: %w", err)
	}
	return decodeProviderConfig(item, "GetProviderConfig")
}

// List returns all of a user's provider configs.
func (r *ProviderConfigRepository) List(ctx context.Context, userID string) ([]domain.ProviderConfig, error) {
	pk, err := keys.UserPK(userID)
	if err != nil {
		return nil, fmt.Errorf("repository: ListProviderConfigs: %w", err)
	}
	items, err := r.driver.QueryPrefix(ctx, store.PrefixQuery{
		PartitionKey:  pk,
		SortKeyPrefix: keys.ProviderSKPrefix(),
		Filters:       []store.Filter{typeFilter(domain.TypeProviderConfig)},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListProviderConfigs: %w", err)
	}
	cfgs := make([]domain.ProviderConfig, 0, len(items))
	for _, item := range items {
		cfg, err := decodeProviderConfig(item, "ListProviderConfigs")
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

// ListActive returns the user's active configs. The flag is filtered here
// rather than store-side, trading a small over-fetch for simplicity.
func (r *ProviderConfigRepository) ListActive(ctx context.Context, userID string) ([]domain.ProviderConfig, error) {
	cfgs, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := cfgs[:0]
	for _, cfg := range cfgs {
		if cfg.IsActive {
			active = append(active, cfg)
		}
	}
	return active, nil
}

// Update applies a sparse change set and returns the post-update record.
func (r *ProviderConfigRepository) Update(ctx context.Context, userID, provider string, changes map[string]any) (domain.ProviderConfig, error) {
	current, err := r.Get(ctx, userID, provider)
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	plan, err := update.ProviderConfig(changes)
	if err != nil {
		return domain.ProviderConfig{}, fmt.Errorf("repository: UpdateProviderConfig: %w", err)
	}
	if plan.IsNoOp() {
		return current, nil
	}
	item, err := r.driver.Update(ctx, current.PK, current.SK, store.Mutation{Set: plan.Set, Remove: plan.Remove})
	if err != nil {
		return domain.ProviderConfig{}, fmt.Errorf("repository: UpdateProviderConfig: %w", err)
	}
	return decodeProviderConfig(item, "UpdateProviderConfig")
}

// Delete removes a provider config. Deleting an absent config is not an
// error.
func (r *ProviderConfigRepository) Delete(ctx context.Context, userID, provider string) error {
	pk, sk, err := providerKey(userID, provider)
	if err != nil {
		return fmt.Errorf("repository: DeleteProviderConfig: %w", err)
	}
	if err := r.driver.Delete(ctx, pk, sk); err != nil {
		return fmt.Errorf("repository: DeleteProviderConfig: %w", err)
	}
	return nil
}

func providerKey(userID, provider string) (string, string, error) {
	pk, err := keys.UserPK(userID)
	if err != nil {
		return "", "", err
	}
	sk, err := keys.ProviderSK(provider)
	if err != nil {
		return "", "", err
	}
	return pk, sk, nil
}

func decodeProviderConfig(item store.Item, op string) (domain.ProviderConfig, error) {
	var cfg domain.ProviderConfig
	if err := attributevalue.UnmarshalMap(item, &cfg); err != nil {
		return domain.ProviderConfig{}, fmt.Errorf("repository: %s: unmarshal: %w", op, err)
	}
	return cfg, nil
}
