package models

import "time"

// RoleName identifies one of the three permission tiers.
type RoleName string

const (
	RoleUser  RoleName = "user"
	RoleAdmin RoleName = "admin"
	RoleOwner RoleName = "owner"
)

// User represents a registered Telegram account. Identity is the Telegram
// user id attached to every update; there are no passwords or sessions.
type User struct {
	// UserID is the internal unique identifier of the user.
	// It is not exposed via JSON and is used only at the persistence layer.
	UserID int64 `json:"-"`

	// TgID is the Telegram user id. Unique per account.
	TgID int64 `json:"tg_id"`

	// ChatID is the private chat with the user, used for menu pushes and
	// reminder delivery.
	ChatID int64 `json:"chat_id"`

	// Username is the Telegram username at registration time.
	// It is non-sensitive and may be shown in replies.
	Username string `json:"username"`

	// Role is the user's permission tier.
	Role RoleName `json:"role"`

	// Settings holds per-user preferences (preferred cloud types,
	// save-space mode). Stored as a JSON column.
	Settings UserSettings `json:"settings"`

	// CreatedAt is the timestamp when the account was registered.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp of the last account mutation.
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}

// AtLeast reports whether the user's role grants the permissions of want.
func (u User) AtLeast(want RoleName) bool {
	return roleRank(u.Role) >= roleRank(want)
}

func roleRank(r RoleName) int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}
