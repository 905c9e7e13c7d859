package domain

import (
	"strings"
	"time"

	"deskchat/internal/keys"
)

// ProviderConfig lives at (USER#<userId>, PROVIDER#<provider>), one item per
// (user, provider) pair. APIKeyRef names a secret held elsewhere; the raw
// key is never stored here.
type ProviderConfig struct {
	PK        string     `dynamodbav:"pk"`
	SK        string     `dynamodbav:"sk"`
	Type      EntityType `dynamodbav:"type"`
	UserID    string     `dynamodbav:"userId"`
	Provider  string     `dynamodbav:"provider"`
	APIKeyRef string     `dynamodbav:"apiKeyRef,omitempty"`
	Model     string     `dynamodbav:"model,omitempty"`
	BaseURL   string     `dynamodbav:"baseUrl,omitempty"`
	IsActive  bool       `dynamodbav:"isActive"`
	CreatedAt time.Time  `dynamodbav:"createdAt"`
	UpdatedAt time.Time  `dynamodbav:"updatedAt"`
}

// NewProviderConfigInput carries the caller-supplied fields for a new
// provider config.
type NewProviderConfigInput struct {
	UserID    string
	Provider  string
	APIKeyRef string
	Model     string
	BaseURL   string
}

// NewProviderConfig builds a fully-populated provider config record, active
// by default. No store access.
func NewProviderConfig(in NewProviderConfigInput) (ProviderConfig, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return ProviderConfig{}, required("userId")
	}
	if strings.TrimSpace(in.Provider) == "" {
		return ProviderConfig{}, required("provider")
	}

	now := time.Now().UTC()

	pk, err := keys.UserPK(in.UserID)
	if err != nil {
		return ProviderConfig{}, err
	}
	sk, err := keys.ProviderSK(in.Provider)
	if err != nil {
		return ProviderConfig{}, err
	}

	return ProviderConfig{
		PK:        pk,
		SK:        sk,
		Type:      TypeProviderConfig,
		UserID:    in.UserID,
		Provider:  in.Provider,
		APIKeyRef: in.APIKeyRef,
		Model:     in.Model,
		BaseURL:   in.BaseURL,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
