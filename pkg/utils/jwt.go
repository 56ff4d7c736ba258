package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "icu-bed-allocation"

// tokenConfig holds the signing material, set once at startup.
var tokenConfig struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// InitJWT wires the token secrets and lifetimes from configuration.
// Must be called before any token is issued or validated.
func InitJWT(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) {
	tokenConfig.accessSecret = []byte(accessSecret)
	tokenConfig.refreshSecret = []byte(refreshSecret)
	tokenConfig.accessExpiry = accessExpiry
	tokenConfig.refreshExpiry = refreshExpiry
}

// StaffClaims are the access token claims for a staff account. The
// username rides in the subject so audit rows can be correlated with
// tokens without a database lookup.
type StaffClaims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAccessToken issues a short-lived signed access token for the
// given staff account.
func GenerateAccessToken(userID uint, username, role string) (string, error) {
	now := time.Now()
	claims := StaffClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenConfig.accessExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(tokenConfig.accessSecret)
}

// ValidateAccessToken parses and verifies an access token, returning
// its claims.
func ValidateAccessToken(tokenString string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return tokenConfig.accessSecret, nil
		},
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*StaffClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GenerateRefreshToken returns a random opaque refresh token. Only its
// hash is ever persisted.
func GenerateRefreshToken() (string, error) {
	return uuid.New().String(), nil
}

// HashRefreshToken derives the storage key for a refresh token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GetRefreshTokenExpiry returns the configured refresh token lifetime.
func GetRefreshTokenExpiry() time.Duration {
	return tokenConfig.refreshExpiry
}
