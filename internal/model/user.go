// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// WHY PasswordHash json:"-"?
// The `json:"-"` tag tells encoding/json to NEVER serialize this field.
// Password hashes must not leak into API responses, even by accident.
// The hash itself is a bcrypt string (salt and cost embedded).
//
// Avatar holds a relative media path (e.g. "user_images/abc.png"), empty if
// the user has not uploaded one. Handlers turn it into a full /media/ URL.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`    // unique
	Username     string    `json:"username"   db:"username"` // unique, ^[\w.@+-]+$
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name"  db:"last_name"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	Avatar       string    `json:"avatar"     db:"avatar"`
	IsAdmin      bool      `json:"-"          db:"is_admin"`
	CreatedAt    time.Time `json:"-"          db:"created_at"`
	UpdatedAt    time.Time `json:"-"          db:"updated_at"`
}

// FullName returns "First Last" for display (shopping list header).
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserProfile is the read representation of a user, computed relative to the
// requesting identity: IsSubscribed is true iff the current user follows this
// one, and always false for anonymous callers.
//
// WRITE SHAPE vs READ SHAPE:
// Registration accepts a different shape (with a password, without
// is_subscribed). Keeping the two as distinct types means neither can
// accidentally grow fields belonging to the other.
type UserProfile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
	Avatar       string `json:"avatar"`
}

// AuthorProfile is UserProfile enriched with the author's recipes, used as
// the response of subscribe and the subscriptions listing. Recipes may be
// truncated by a caller-supplied recipes_limit; RecipesCount is always the
// total, not the truncated length.
type AuthorProfile struct {
	UserProfile
	Recipes      []RecipeSummary `json:"recipes"`
	RecipesCount int             `json:"recipes_count"`
}
