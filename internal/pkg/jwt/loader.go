// internal/pkg/jwt/loader.go
package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"
)

// Config locates the signing key pair and sets the access token claims.
type Config struct {
	PrivPath string
	PubPath  string
	Issuer   string
	Audience string
	TTL      time.Duration
	KID      string
}

// Manager pairs the token generator with the verifier of its own tokens.
type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

// LoadAndBuild reads both PEM files and builds the manager.
func LoadAndBuild(cfg Config) (*Manager, error) {
	priv, err := LoadRSAPrivateKeyFromPEM(cfg.PrivPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key from %s: %w", cfg.PrivPath, err)
	}
	pub, err := LoadRSAPublicKeyFromPEM(cfg.PubPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key from %s: %w", cfg.PubPath, err)
	}
	return NewManager(priv, pub, cfg)
}

// NewManager rejects mismatched keys and an access TTL outside (0, refreshTTL).
func NewManager(priv *rsa.PrivateKey, pub *rsa.PublicKey, cfg Config) (*Manager, error) {
	var errs []error
	if cfg.TTL <= 0 {
		errs = append(errs, fmt.Errorf("access token ttl must be positive, got %s", cfg.TTL))
	}
	if cfg.TTL >= refreshTTL {
		errs = append(errs, fmt.Errorf("access token ttl %s must be shorter than the refresh ttl %s", cfg.TTL, refreshTTL))
	}
	if !priv.PublicKey.Equal(pub) {
		errs = append(errs, errors.New("public key does not match the private key"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid jwt config: %w", err)
	}

	return &Manager{
		Generator: NewGenerator(priv, cfg.Issuer, cfg.Audience, cfg.KID, cfg.TTL),
		Verifier:  NewVerifier(pub, cfg.Issuer, cfg.Audience),
	}, nil
}
