package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
)

// User is the marketplace account record. PasswordHash is an Argon2id
// string and is never serialized.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string         `gorm:"column:username;not null;uniqueIndex"`
	Email        string         `gorm:"column:email;not null"`
	PasswordHash string         `gorm:"column:password_hash;not null;default:''" json:"-"`
	Phone        string         `gorm:"column:phone;not null;default:''"`
	Location     string         `gorm:"column:location;not null;default:''"`
	UserType     enums.UserType `gorm:"column:user_type;type:text;not null;default:'customer'"`
	IsStaff      bool           `gorm:"column:is_staff;not null;default:false"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
