package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the access-token payload accepted on write requests.
// Role distinguishes logged-in editors from anonymous readers.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserID is the editor identity recorded on edit metadata, taken from the
// subject claim.
func (c *AccessClaims) UserID() string {
	return c.Subject
}
