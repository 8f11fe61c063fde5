package domain

import "time"

// Account is the public profile projected from the auth service's identity
// records. Credentials never live here.
type Account struct {
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	AboutMe   string     `json:"about_me"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
