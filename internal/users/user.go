package users

import (
	"time"

	"inventory-backend/internal/permission"
)

// User is the authenticated principal. Permissions is the complete
// per-field grant set owned by this user; for admins it is carried
// but never consulted.
type User struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Role        permission.Role `json:"role"`
	Permissions permission.Set  `json:"permissions"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == permission.RoleAdmin
}
