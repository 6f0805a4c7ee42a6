package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username         string    `gorm:"size:150;uniqueIndex;uniqueIndex:idx_users_username_email;not null" json:"username"`
	Email            string    `gorm:"size:254;uniqueIndex;uniqueIndex:idx_users_username_email;not null" json:"email"`
	Role             Role      `gorm:"size:50;default:'user';not null" json:"role"`
	ConfirmationCode *string   `gorm:"column:confirmation_code_hash;size:255" json:"-"` // bcrypt hash, never serialized
	Bio              string    `gorm:"type:text" json:"bio"`
	FirstName        string    `gorm:"size:150" json:"first_name"`
	LastName         string    `gorm:"size:150" json:"last_name"`
	IsSuperuser      bool      `gorm:"default:false;not null" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	return
}

func (User) TableName() string {
	return "users"
}
