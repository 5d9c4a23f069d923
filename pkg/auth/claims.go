package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Email    string
	UserType enums.UserType
	IsStaff  bool
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Email    string         `json:"email"`
	UserType enums.UserType `json:"user_type"`
	IsStaff  bool           `json:"is_staff,omitempty"`
	jwt.RegisteredClaims
}
