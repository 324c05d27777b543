package domain

import "time"

// UserAccount is the persisted account row used by the bundled gorm user
// directory. Deployments that plug in an external directory never touch it.
type UserAccount struct {
	ID           uint   `gorm:"primarykey"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:32;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View projects the row into the read-only shape the authorization layer
// consumes. Unknown role strings fall back to the least-privileged role.
func (a *UserAccount) View() *User {
	role, _ := ParseRole(a.Role)
	return &User{
		Username:     a.Username,
		Role:         role,
		PasswordHash: a.PasswordHash,
	}
}
