package models

import "time"

// User is an identity record. Created on signup and immutable afterwards
// except for IsActive. HashedPassword is an opaque bcrypt digest; the
// plaintext is never stored.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}
