package domain

import (
	"strings"
	"time"
)

type User struct {
	ID            int32      `json:"id" db:"id"`
	FirstName     string     `json:"first_name" db:"first_name"`
	LastName      string     `json:"last_name" db:"last_name"`
	Email         string     `json:"email" db:"email"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Enabled       bool       `json:"enabled" db:"enabled"`
	AccountLocked bool       `json:"account_locked" db:"account_locked"`
	CreatedOn     time.Time  `json:"created_on" db:"created_on"`
	UpdatedOn     time.Time  `json:"updated_on" db:"updated_on"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
