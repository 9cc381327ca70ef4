package auth

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Staff roles. Rooms on the real-time channel are named after them.
const (
	RoleWaiter  = "waiter"
	RoleKitchen = "kitchen"
	RoleManager = "manager"
)

// ErrInvalidToken covers bad signatures, malformed tokens and expiry.
// The protocol only distinguishes "missing" from "invalid".
var ErrInvalidToken = errors.New("invalid token")

// Identity is what an authenticated token resolves to. It is attached to
// REST requests and real-time connections alike.
type Identity struct {
	UserID uint   `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Claims is the JWT payload issued by the login service and verified here.
type Claims struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// GenerateToken signs a token for the given identity. Used by the login
// collaborator and by tests.
func GenerateToken(secret string, id Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: id.UserID,
		Name:   id.Name,
		Role:   id.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(ttl).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies signature and expiry and returns the identity bound
// to the token.
func ParseToken(secret, tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: claims.UserID, Name: claims.Name, Role: claims.Role}, nil
}
