package entity

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	jwt.RegisteredClaims

	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Roles    Roles     `json:"roles"`
	TokenID  string    `json:"token_id"`
}

// ActionClaims back the time-limited links sent by email (account activation, password reset).
type ActionClaims struct {
	jwt.RegisteredClaims

	UserID  uuid.UUID `json:"userId"`
	Purpose string    `json:"purpose"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message  string `json:"message"`
	Roles    Roles  `json:"roles"`
	Username string `json:"username"`
}

// Session is the pair of tokens handed out as cookies.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         User
}

type MeResponse struct {
	Roles    Roles  `json:"roles"`
	Username string `json:"username"`
}

type ProfileResponse struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Position  *string `json:"position"`
	Roles     Roles   `json:"roles"`
}
