package services

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/desertthunder/songmatch/internal/shared"
)

// Apple rejects developer tokens valid for longer than six months.
const maxDeveloperTokenTTL = 180 * 24 * time.Hour

// TokenProvider supplies the bearer token for Apple Music requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a pre-signed developer token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", fmt.Errorf("%w: empty apple music token", shared.ErrMissingCredentials)
	}
	return string(t), nil
}

// DeveloperTokenSigner signs ES256 developer tokens from a MusicKit private key
// and reuses each token until shortly before it expires.
type DeveloperTokenSigner struct {
	teamID string
	keyID  string
	key    *ecdsa.PrivateKey
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	cached  string
	expires time.Time
}

// NewDeveloperTokenSigner parses a PEM encoded (.p8) key.
func NewDeveloperTokenSigner(teamID, keyID string, keyPEM []byte, ttl time.Duration) (*DeveloperTokenSigner, error) {
	if teamID == "" || keyID == "" {
		return nil, fmt.Errorf("%w: apple music team_id and key_id are required", shared.ErrMissingCredentials)
	}

	key, err := parseECKey(keyPEM)
	if err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if ttl > maxDeveloperTokenTTL {
		ttl = maxDeveloperTokenTTL
	}

	return &DeveloperTokenSigner{teamID: teamID, keyID: keyID, key: key, ttl: ttl, now: time.Now}, nil
}

// LoadDeveloperTokenSigner reads the private key named in cfg.
func LoadDeveloperTokenSigner(cfg shared.AppleMusicConfig) (*DeveloperTokenSigner, error) {
	data, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading apple music private key: %v", shared.ErrInvalidCredentials, err)
	}
	return NewDeveloperTokenSigner(cfg.TeamID, cfg.KeyID, data, cfg.TokenTTL)
}

func parseECKey(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: private key is not PEM encoded", shared.ErrInvalidCredentials)
	}

	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		key, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: private key is %T, want ECDSA", shared.ErrInvalidCredentials, parsed)
		}
		return key, nil
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing private key: %v", shared.ErrInvalidCredentials, err)
	}
	return key, nil
}

// Token returns a cached token, signing a new one within a minute of expiry.
func (s *DeveloperTokenSigner) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" && s.now().Add(time.Minute).Before(s.expires) {
		return s.cached, nil
	}

	token, expires, err := s.Sign()
	if err != nil {
		return "", err
	}
	s.cached, s.expires = token, expires
	return token, nil
}

// Sign creates a new token regardless of the cache.
func (s *DeveloperTokenSigner) Sign() (string, time.Time, error) {
	opts := (&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", s.keyID)
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: s.key}, opts)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", shared.ErrSigningFailed, err)
	}

	issued := s.now()
	expires := issued.Add(s.ttl)
	claims := jwt.Claims{
		Issuer:   s.teamID,
		IssuedAt: jwt.NewNumericDate(issued),
		Expiry:   jwt.NewNumericDate(expires),
	}

	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", shared.ErrSigningFailed, err)
	}
	return token, expires, nil
}

// NewAppleTokenProvider picks a static token when configured, otherwise a signer.
func NewAppleTokenProvider(cfg shared.AppleMusicConfig) (TokenProvider, error) {
	if cfg.Token != "" {
		return StaticToken(cfg.Token), nil
	}
	if cfg.TeamID == "" && cfg.KeyID == "" && cfg.PrivateKeyPath == "" {
		return nil, fmt.Errorf("%w: set credentials.apple_music.token or team_id/key_id/private_key_path", shared.ErrMissingCredentials)
	}
	return LoadDeveloperTokenSigner(cfg)
}
