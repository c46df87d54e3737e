// internal/pkg/jwt/generator.go
package jwt

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

const refreshTTL = 30 * 24 * time.Hour

// Token is a signed token plus the identifiers needed to track its session.
type Token struct {
	Value     string
	JTI       string
	ExpiresAt time.Time
}

type Generator struct {
	priv     *rsa.PrivateKey
	issuer   string
	audience string
	kid      string // key id for rotation
	TTL      time.Duration
}

func NewGenerator(priv *rsa.PrivateKey, issuer, audience, kid string, ttl time.Duration) *Generator {
	return &Generator{
		priv:     priv,
		issuer:   issuer,
		audience: audience,
		kid:      kid,
		TTL:      ttl,
	}
}

func (g *Generator) generate(userID int64, role, purpose string, ttl time.Duration) (*Token, error) {
	if g.priv == nil {
		return nil, fmt.Errorf("jwt generator has nil private key")
	}

	now := time.Now()
	jti := ulid.Make().String()
	exp := now.Add(ttl)

	claims := &Claims{
		UserID:  userID,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			Audience:  []string{g.audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if g.kid != "" {
		tok.Header["kid"] = g.kid
	}

	signed, err := tok.SignedString(g.priv)
	if err != nil {
		return nil, err
	}
	return &Token{Value: signed, JTI: jti, ExpiresAt: exp}, nil
}

// GenerateAccessToken issues a token accepted by the auth middleware.
func (g *Generator) GenerateAccessToken(userID int64, role string) (*Token, error) {
	return g.generate(userID, role, PurposeAccess, g.TTL)
}

// GenerateRefreshToken issues a long-lived token that can only be exchanged
// for a new access token.
func (g *Generator) GenerateRefreshToken(userID int64) (*Token, error) {
	return g.generate(userID, "", PurposeRefresh, refreshTTL)
}
