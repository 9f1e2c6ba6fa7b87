package domain

import "time"

// Token is an account activation code mailed to a newly registered user.
type Token struct {
	ID          int32      `json:"id" db:"id"`
	Token       string     `json:"token" db:"token"`
	UserID      int32      `json:"user_id" db:"user_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	ValidatedAt *time.Time `json:"validated_at,omitempty" db:"validated_at"`
}

func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
