package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      string
	Username    string
	Permissions []enums.Permission
	JTI         string
}

// AccessTokenClaims represents the typed JWT presented by operators.
type AccessTokenClaims struct {
	UserID      string             `json:"user_id"`
	Username    string             `json:"username,omitempty"`
	Permissions []enums.Permission `json:"permissions"`
	jwt.RegisteredClaims
}
