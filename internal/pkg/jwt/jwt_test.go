package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	m, err := NewManager(priv, &priv.PublicKey, Config{Issuer: "insurance", Audience: "backoffice", TTL: time.Hour, KID: "k1"})
	require.NoError(t, err)
	return m
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	_, err = NewManager(priv, &other.PublicKey, Config{TTL: time.Hour})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")

	_, err = NewManager(priv, &priv.PublicKey, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")

	_, err = NewManager(priv, &priv.PublicKey, Config{TTL: refreshTTL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shorter than the refresh ttl")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)

	tok, err := m.Generator.GenerateAccessToken(42, "agent")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.JTI)

	claims, err := m.Verifier.VerifyAccessToken(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "agent", claims.Role)
	assert.Equal(t, tok.JTI, claims.ID)
	assert.False(t, claims.IsAdmin())
}

func TestRefreshTokenIsNotAccessToken(t *testing.T) {
	m := newTestManager(t)

	tok, err := m.Generator.GenerateRefreshToken(7)
	require.NoError(t, err)

	_, err = m.Verifier.VerifyAccessToken(tok.Value)
	assert.Error(t, err)

	claims, err := m.Verifier.VerifyRefreshToken(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
}

func TestVerifyRejectsForeignIssuer(t *testing.T) {
	m := newTestManager(t)
	other := NewVerifier(m.Verifier.pub, "someone-else", "backoffice")

	tok, err := m.Generator.GenerateAccessToken(1, "admin")
	require.NoError(t, err)

	_, err = other.Verify(tok.Value)
	assert.ErrorContains(t, err, "invalid issuer")
}

func TestParseKeys(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pkcs8, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	parsed, err := ParseRSAPrivateKey(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(priv))

	pkix, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pub, err := ParseRSAPublicKey(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pkix}))
	require.NoError(t, err)
	assert.True(t, pub.Equal(&priv.PublicKey))

	_, err = ParseRSAPrivateKey([]byte("not a key"))
	assert.Error(t, err)
}
