package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gbd-solar/solartech-api/models"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of an issued session credential.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	Role      string `json:"role"`
	CompanyID *uint  `json:"companyId"`
}

// TokenIssuer signs HS256 session credentials.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

var tokenIssuerInstance *TokenIssuer

// NewTokenIssuer creates an issuer for the given secret and claims.
func NewTokenIssuer(secret, issuer, audience string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetTokenIssuer returns the process-wide issuer
func GetTokenIssuer() *TokenIssuer {
	return tokenIssuerInstance
}

// SetTokenIssuer sets the process-wide issuer
func SetTokenIssuer(issuer *TokenIssuer) {
	tokenIssuerInstance = issuer
}

// Issue signs a credential embedding the user's id, username, role and company.
func (t *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username:  user.Username,
		Role:      user.Role.String(),
		CompanyID: user.CompanyID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
