package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Shreya9code/ewastetrack/internal/model"
)

// Claims identifies the caller of a request. For donors, vendors and
// companies AccountID is the external account ID issued by the identity
// provider; for staff it is the username.
type Claims struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// IsStaff reports whether the token belongs to a staff account.
func (c *Claims) IsStaff() bool {
	return c.Role == model.RoleAdmin
}

// TokenExpiry is the default token lifetime.
const TokenExpiry = 7 * 24 * time.Hour

// Issuer is stamped into every token this service signs.
const Issuer = "ewastetrack"

// GenerateToken signs a token for the given account and role, valid for ttl
// (TokenExpiry when ttl is zero).
func GenerateToken(secret, accountID, role string, ttl time.Duration) (string, error) {
	if accountID == "" {
		return "", errors.New("account id required")
	}
	if role != model.RoleAdmin && !model.IsPartyRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	if ttl <= 0 {
		ttl = TokenExpiry
	}

	jti, err := generateJTI()
	if err != nil {
		return "", fmt.Errorf("generating JTI: %w", err)
	}

	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    Issuer,
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a token, returning the claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.AccountID == "" {
		return nil, errors.New("token has no account id")
	}

	return claims, nil
}

// generateJTI creates a random token ID.
func generateJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
