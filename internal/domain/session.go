package domain

import "time"

// Session is the server-side record of an authenticated interaction. The
// identifier is an opaque random token; the CSRF token is generated once at
// creation and never rotated for the session's lifetime. Whether the session
// cookie carries the Secure attribute is derived from the serving host at
// set-cookie time and is deliberately not part of this record.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CSRFToken string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the read-only view of an account supplied by the user-management
// collaborator. Password hashing and storage live outside this core.
type User struct {
	Username     string `json:"username"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
}
