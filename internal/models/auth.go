package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the caller roles recognised by the API surface.
// Authorization decisions (who may act on whose booking) live outside
// this service; roles are only attached to the request context.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleConsultant UserRole = "CONSULTANT"
	RoleStudent    UserRole = "STUDENT"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
