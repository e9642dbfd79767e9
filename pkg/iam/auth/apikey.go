package auth

import (
	"context"
	"strings"

	"github.com/Abraxas-365/chatstream/pkg/kernel"
	"golang.org/x/crypto/bcrypt"
)

// APIKey is a stored service credential. The raw key is never persisted,
// only its bcrypt hash.
type APIKey struct {
	ID      string
	UserID  kernel.UserID
	Name    string
	Prefix  string
	KeyHash string
	Scopes  []string
	Revoked bool
}

// KeyStore looks up stored API keys
type KeyStore interface {
	// FindByPrefix returns the active keys whose public prefix matches.
	FindByPrefix(ctx context.Context, prefix string) ([]APIKey, error)
}

const keyPrefixLen = 8

// APIKeyService validates raw API keys against stored hashes
type APIKeyService struct {
	store KeyStore
}

// NewAPIKeyService creates the service
func NewAPIKeyService(store KeyStore) *APIKeyService {
	return &APIKeyService{store: store}
}

// Validate checks a raw key and returns the auth context it grants
func (s *APIKeyService) Validate(ctx context.Context, rawKey string) (*kernel.AuthContext, error) {
	rawKey = strings.TrimSpace(rawKey)
	if len(rawKey) < keyPrefixLen {
		return nil, errorRegistry.New(ErrInvalidAPIKey)
	}

	candidates, err := s.store.FindByPrefix(ctx, rawKey[:keyPrefixLen])
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrInvalidAPIKey, err)
	}

	for _, key := range candidates {
		if key.Revoked {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)) == nil {
			return &kernel.AuthContext{
				UserID:   key.UserID,
				Name:     key.Name,
				Scopes:   key.Scopes,
				IsAPIKey: true,
			}, nil
		}
	}
	return nil, errorRegistry.New(ErrInvalidAPIKey)
}

// HashKey hashes a raw key for storage
func HashKey(rawKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
