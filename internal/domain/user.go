package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"deskchat/internal/keys"
)

// User is the profile item at (USER#<id>, PROFILE). Email and username
// uniqueness is an application-level concern; the table only prevents two
// profiles under the same generated id.
type User struct {
	PK          string     `dynamodbav:"pk"`
	SK          string     `dynamodbav:"sk"`
	Type        EntityType `dynamodbav:"type"`
	ID          string     `dynamodbav:"id"`
	Email       string     `dynamodbav:"email"`
	Username    string     `dynamodbav:"username"`
	DisplayName string     `dynamodbav:"displayName,omitempty"`
	CreatedAt   time.Time  `dynamodbav:"createdAt"`
	UpdatedAt   time.Time  `dynamodbav:"updatedAt"`
}

// NewUserInput carries the caller-supplied fields for a new user.
type NewUserInput struct {
	Email       string
	Username    string
	DisplayName string
}

// NewUser builds a fully-populated user record. No store access.
func NewUser(in NewUserInput) (User, error) {
	if strings.TrimSpace(in.Email) == "" {
		return User{}, required("email")
	}
	if strings.TrimSpace(in.Username) == "" {
		return User{}, required("username")
	}

	id := uuid.NewString()
	pk, err := keys.UserPK(id)
	if err != nil {
		return User{}, err
	}
	now := time.Now().UTC()

	return User{
		PK:          pk,
		SK:          keys.ProfileSK(),
		Type:        TypeUser,
		ID:          id,
		Email:       in.Email,
		Username:    in.Username,
		DisplayName: in.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UserSettings is the singleton settings item at (USER#<id>, SETTINGS).
type UserSettings struct {
	PK                   string     `dynamodbav:"pk"`
	SK                   string     `dynamodbav:"sk"`
	Type                 EntityType `dynamodbav:"type"`
	UserID               string     `dynamodbav:"userId"`
	Theme                string     `dynamodbav:"theme"`
	Language             string     `dynamodbav:"language"`
	NotificationsEnabled bool       `dynamodbav:"notificationsEnabled"`
	CreatedAt            time.Time  `dynamodbav:"createdAt"`
	UpdatedAt            time.Time  `dynamodbav:"updatedAt"`
}

// Settings defaults.
const (
	DefaultTheme    = "dark"
	DefaultLanguage = "en"
)

// NewUserSettings builds the default settings record for a user.
func NewUserSettings(userID string) (UserSettings, error) {
	pk, err := keys.UserPK(userID)
	if err != nil {
		return UserSettings{}, required("userId")
	}
	now := time.Now().UTC()

	return UserSettings{
		PK:                   pk,
		SK:                   keys.SettingsSK(),
		Type:                 TypeUserSettings,
		UserID:               userID,
		Theme:                DefaultTheme,
		Language:             DefaultLanguage,
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}
