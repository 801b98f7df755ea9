package domain

import (
	"context"
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleStaff     = "staff"
	RoleSuperuser = "superuser"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string    `gorm:"size:255;not null;default:''" json:"name"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"isActive"`
	IsStaff      bool      `gorm:"not null;default:false" json:"isStaff"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"isSuperuser"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// Role is the coarse role carried in access tokens.
func (u *User) Role() string {
	switch {
	case u.IsSuperuser:
		return RoleSuperuser
	case u.IsStaff:
		return RoleStaff
	default:
		return RoleUser
	}
}

// NewUser is the input of user creation.
type NewUser struct {
	Email    string
	Password string
	Name     string
}

// UserPatch carries the profile fields a user may change on themselves.
type UserPatch struct {
	Name     *string
	Password *string
}

// NormalizeEmail lowercases the domain part of an address and keeps the
// local part verbatim.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
}
