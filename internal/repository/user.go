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

// UserRepository manages user profiles and their singleton settings item.
type UserRepository struct {
	driver store.Driver
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(driver store.Driver) (*UserRepository, error) {
	if driver == nil {
		return nil, errors.New("repository: driver must not be nil")
	}
	return &UserRepository{driver: driver}, nil
}

// Create writes a new user with a conditional put. store.ErrAlreadyExists
// means the partition already holds a profile; this is the only duplicate
// protection at this layer — email and username uniqueness is the caller's
// responsibility, since neither is key-derived.
func (r *UserRepository) Create(ctx context.Context, in domain.NewUserInput) (domain.User, error) {
	user, err := domain.NewUser(in)
	if err != nil {
		return domain.User{}, err
	}
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("repository: CreateUser: marshal: %w", err)
	}
	if err := r.driver.PutIfAbsent(ctx, item); err != nil {
		return domain.User{}, fmt.Errorf("repository: CreateUser: %w", err)
	}
	return user, nil
}

// Get fetches a user profile by id.
func (r *UserRepository) Get(ctx context.Context, userID string) (domain.User, error) {
	pk, err := keys.UserPK(userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("repository: GetUser: %w", err)
	}
	item, err := r.driver.Get(ctx, pk, keys.ProfileSK())
	if err != nil {
		return domain.User{}, fmt.Errorf("repository: GetUser: %w", err)
	}
	return decodeUser(item, "GetUser")
}

// GetByEmail finds a user by email with a full table scan. O(table size);
// acceptable only at small scale and a known candidate for a dedicated
// index.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	items, err := r.driver.Scan(ctx, []store.Filter{
		typeFilter(domain.TypeUser),
		eqS("email", email),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("repository: GetUserByEmail: %w", err)
	}
	if len(items) == 0 {
		return domain.User{}, fmt.Errorf("repository: GetUserByEmail: %w", store.ErrNotFound)
	}
	return decodeUser(items[0], "GetUserByEmail")
}

// Update applies a sparse change set to a user profile and returns the
// post-update record. Immutable fields in changes are dropped; a change set
// with nothing left is returned unchanged without a store write.
func (r *UserRepository) Update(ctx context.Context, userID string, changes map[string]any) (domain.User, error) {
	current, err := r.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	plan, err := update.User(changes)
	if err != nil {
		return domain.User{}, fmt.Errorf("repository: UpdateUser: %w", err)
	}
	if plan.IsNoOp() {
		return current, nil
	}
	item, err := r.driver.Update(ctx, current.PK, current.SK, store.Mutation{Set: plan.Set, Remove: plan.Remove})
	if err != nil {
		return domain.User{}, fmt.Errorf("repository: UpdateUser: %w", err)
	}
	return decodeUser(item, "UpdateUser")
}

// Delete removes a user profile. Deleting an absent user is not an error.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	pk, err := keys.UserPK(userID)
	if err != nil {
		return fmt.Errorf("repository: DeleteUser: %w", err)
	}
	if err := r.driver.Delete(ctx, pk, keys.ProfileSK()); err != nil {
		return fmt.Errorf("repository: DeleteUser: %w", err)
	}
	return nil
}

// GetSettings fetches the user's settings item.
func (r *UserRepository) GetSettings(ctx context.Context, userID string) (domain.UserSettings, error) {
	pk, err := keys.UserPK(userID)
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("repository: GetSettings: %w", err)
	}
	item, err := r.driver.Get(ctx, pk, keys.SettingsSK())
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("repository: GetSettings: %w", err)
	}
	return decodeSettings(item, "GetSettings")
}

// PutSettings writes the default settings item for a user. Settings are 1:1
// with the user, so this is an upsert by design.
func (r *UserRepository) PutSettings(ctx context.Context, userID string) (domain.UserSettings, error) {
	settings, err := domain.NewUserSettings(userID)
	if err != nil {
		return domain.UserSettings{}, err
	}
	item, err := attributevalue.MarshalMap(settings)
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("repository: PutSettings: marshal: %w", err)
	}
	if err := r.driver.Put(ctx, item); err != nil {
		return domain.UserSettings{}, fmt.Errorf("repository: PutSettings: %w", err)
	}
	return settings, nil
}

// UpdateSettings applies a sparse change set to the settings item.
func (r *UserRepository) UpdateSettings(ctx context.Context, userID string, changes map[string]any) (domain.UserSettings, error) {
	current, err := r.GetSettings(ctx, userID)
	if err != nil {
		return domain.UserSettings{}, err
	}
	plan, err := update.UserSettings(changes)
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("repository: UpdateSettings: %w", err)
	}
	if plan.IsNoOp() {
		return current, nil
	}
	item, err := r.driver.Update(ctx, current.PK, current.SK, store.Mutation{Set: plan.Set, Remove: plan.Remove})
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("repository: UpdateSettings: %w", err)
	}
	return decodeSettings(item, "UpdateSettings")
}

func decodeUser(item store.Item, op string) (domain.User, error) {
	var user domain.User
	if err := attributevalue.UnmarshalMap(item, &user); err != nil {
		return domain.User{}, fmt.Errorf("repository: %s: unmarshal: %w", op, err)
	}
	return user, nil
}

func decodeSettings(item store.Item, op string) (domain.UserSettings, error) {
	var settings domain.UserSettings
	if err := attributevalue.UnmarshalMap(item, &settings); err != nil {
		return domain.UserSettings{}, fmt.Errorf("repository: %s: unmarshal: %w", op, err)
	}
	return settings, nil
}
