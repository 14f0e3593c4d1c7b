package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an admin.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" form:"password" validate:"required"`
}

// CreateAdminRequest bootstraps the first administrator.
type CreateAdminRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" form:"email" validate:"required,max=120"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
	Role     string `json:"role" form:"role" validate:"max=20"`
}

// AdminInfo describes the authenticated admin in responses.
type AdminInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Session is an issued admin session token.
type Session struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Admin     AdminInfo `json:"admin"`
}

// SessionClaims is the JWT payload stored in the session cookie.
type SessionClaims struct {
	AdminID  int64  `json:"admin_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
