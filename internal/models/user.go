package models

import "time"

type UserStatus string

const (
	UserStatusPending     UserStatus = "PENDING"
	UserStatusActive      UserStatus = "ACTIVE"
	UserStatusSuspended   UserStatus = "SUSPENDED"
	UserStatusDeactivated UserStatus = "DEACTIVATED"
)

// User is owned by the identity service; this core only reads it for status
// and ownership checks.
type User struct {
	ID                    int64        `json:"id" db:"id"`
	Username              string       `json:"username" db:"username"`
	FirstName             string       `json:"first_name" db:"first_name"`
	LastName              string       `json:"last_name" db:"last_name"`
	Status                UserStatus   `json:"status" db:"status"`
	AccountLevel          AccountLevel `json:"account_level" db:"account_level"`
	HasClaimedWelcomeGift bool         `json:"has_claimed_welcome_gift" db:"has_claimed_welcome_gift"`
	CreatedAt             time.Time    `json:"created_at" db:"created_at"`
}

// FullName joins the first and last name, skipping the separator when the
// last name is empty.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
