package roles

import "time"

// Role groups permission strings under a name. CreatorID scopes mutation
// rights for non-superuser actors.
type Role struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatorID int64     `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Detail is a role with its permission grants attached.
type Detail struct {
	Role
	Permissions []string `json:"permissions"`
}
