package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken means no JWT is stored; it is terminal until the user logs in.
	ErrNoToken = errors.New("no token found")
	// ErrTokenExpired means the stored JWT is past its exp claim.
	ErrTokenExpired = errors.New("token expired")
)

// NoTokenMessage is the text shown wherever a view cannot load for lack of a token.
const NoTokenMessage = "No token found"

// Claims represents the JWT claims structure issued by the backend
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Expired reports whether the token has an exp claim before now.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}

// HasRole checks if the user has any of the required roles
func (c *Claims) HasRole(requiredRoles ...string) bool {
	for _, required := range requiredRoles {
		for _, userRole := range c.Roles {
			if userRole == required {
				return true
			}
		}
	}
	return false
}

// validateTokenFormat performs basic token format validation
func validateTokenFormat(tokenString string) error {
	if len(tokenString) == 0 {
		return errors.New("token cannot be empty")
	}
	if len(tokenString) > 8192 { // 8KB limit
		return errors.New("token size exceeds maximum allowed")
	}
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return errors.New("invalid JWT token format")
	}
	return nil
}

// DecodeToken reads the claims of tokenString without verifying its
// signature. The backend verifies every call; the console only needs
// roles and expiry for gating.
func DecodeToken(tokenString string) (*Claims, error) {
	if err := validateTokenFormat(tokenString); err != nil {
		return nil, err
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// JWTManager signs development tokens for running the console against a
// local backend.
type JWTManager struct {
	secret string
	issuer string
	expiry time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret, issuer string, expiry time.Duration) *JWTManager {
	return &JWTManager{
		secret: secret,
		issuer: issuer,
		expiry: expiry,
	}
}

// ValidateConfig checks the signing parameters.
func (j *JWTManager) ValidateConfig() error {
	if len(j.secret) < 16 {
		return errors.New("JWT secret must be at least 16 characters")
	}
	if j.issuer == "" {
		return errors.New("JWT issuer must not be empty")
	}
	if j.expiry <= 0 {
		return errors.New("JWT expiry must be positive")
	}
	return nil
}

// GenerateToken creates a new signed JWT token
func (j *JWTManager) GenerateToken(subject, name, email string, roles []string) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if len(roles) == 0 {
		return "", errors.New("at least one role is required")
	}
	now := time.Now()
	claims := &Claims{
		Name:  name,
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secret))
}
