package users

import "time"

// User represents an admin console account. Accounts are soft deleted and
// never hard deleted while referenced.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Nickname    string    `json:"nickname"`
	Password    string    `json:"-"`
	LastLoginAt int64     `json:"last_login_at"`
	LastLoginIP string    `json:"last_login_ip"`
	IsActive    bool      `json:"is_active"`
	IsDeleted   bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
