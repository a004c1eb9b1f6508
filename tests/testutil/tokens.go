package testutil

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TestJWTSecret is long enough for HS256 verification.
	TestJWTSecret   = "test-secret-that-is-at-least-32-bytes-long"
	TestJWTIssuer   = "solartech-api"
	TestJWTAudience = "solartech-mobile"
)

// TokenClaims mirrors the claims the API issues at login.
type TokenClaims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	Role      string `json:"role"`
	CompanyID *uint  `json:"companyId"`
}

// MintToken signs a session credential for the given identity with the test secret.
func MintToken(t *testing.T, userID uint, username, role string, companyID *uint, ttl time.Duration) string {
	t.Helper()
	return MintTokenWithSecret(t, TestJWTSecret, userID, username, role, companyID, ttl)
}

// MintTokenWithSecret signs a credential with an arbitrary secret, e.g. to forge a bad signature.
func MintTokenWithSecret(t *testing.T, secret string, userID uint, username, role string, companyID *uint, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    TestJWTIssuer,
			Audience:  jwt.ClaimStrings{TestJWTAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username:  username,
		Role:      role,
		CompanyID: companyID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return token
}
