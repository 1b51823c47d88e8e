package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin marks admin session tokens.
const RoleAdmin = "admin"

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the verified payload of a session token.
type Claims struct {
	UserID uuid.UUID
	Role   string
}

// TokenManager issues and verifies signed JWTs for user and admin
// sessions.
type TokenManager struct {
	secret   []byte
	userTTL  time.Duration
	adminTTL time.Duration
}

// NewTokenManager creates a manager with the provided secret and
// per-audience lifetimes.
func NewTokenManager(secret string, userTTL, adminTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		userTTL:  userTTL,
		adminTTL: adminTTL,
	}
}

// GenerateUser issues a signed JWT for the provided user ID.
func (t *TokenManager) GenerateUser(userID uuid.UUID) (string, error) {
	return t.generate(jwt.MapClaims{
		"sub": userID.String(),
	}, t.userTTL)
}

// GenerateAdmin issues a signed admin session JWT.
func (t *TokenManager) GenerateAdmin(username string) (string, error) {
	return t.generate(jwt.MapClaims{
		"sub":  username,
		"role": RoleAdmin,
	}, t.adminTTL)
}

func (t *TokenManager) generate(claims jwt.MapClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims["iat"] = now.Unix()
	claims["nbf"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token string.
func (t *TokenManager) Verify(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	if role, _ := mapClaims["role"].(string); role != "" {
		claims.Role = role
	}

	sub, _ := mapClaims["sub"].(string)
	if claims.Role != RoleAdmin {
		id, err := uuid.Parse(sub)
		if err != nil {
			return Claims{}, ErrInvalidToken
		}
		claims.UserID = id
	}

	return claims, nil
}
