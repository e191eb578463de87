package settings

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"confreg/pkg/platform/sentinel"
	"golang.org/x/crypto/scrypt"
)

// Service reads and writes settings, sealing secret values with AES-GCM
// before they reach the store. The encryption key derives from the app
// secret via scrypt so a database dump alone cannot expose gateway keys.
type Service struct {
	store Store
	// env returns the environment fallback for a key, or "".
	env func(key string) string
	key []byte
}

// NewService derives the encryption key and wraps the store. envFallback maps
// well-known setting keys to their environment defaults; nil disables
// fallbacks.
func NewService(store Store, appSecret string, envFallback func(key string) string) (*Service, error) {
	if appSecret == "" {
		return nil, errors.New("app secret is required for settings encryption")
	}
	key, err := scrypt.Key([]byte(appSecret), []byte("confreg-settings"), 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("derive settings key: %w", err)
	}
	if envFallback == nil {
		envFallback = func(string) string { return "" }
	}
	return &Service{store: store, env: envFallback, key: key}, nil
}

// Get resolves a setting value: persisted override first, environment
// fallback second. Encrypted values are unsealed before return.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	setting, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.env(key), nil
		}
		return "", err
	}
	if setting.Encrypted && setting.Value != "" {
		plain, err := s.decrypt(setting.Value)
		if err != nil {
			return "", fmt.Errorf("decrypt setting %q: %w", key, err)
		}
		return plain, nil
	}
	if setting.Value == "" {
		return s.env(key), nil
	}
	return setting.Value, nil
}

// Set persists a setting, encrypting the value when requested.
func (s *Service) Set(ctx context.Context, key, value, description string, encrypted bool) error {
	stored := value
	if encrypted {
		sealed, err := s.encrypt(value)
		if err != nil {
			return fmt.Errorf("encrypt setting %q: %w", key, err)
		}
		stored = sealed
	}
	now := time.Now()
	return s.store.Set(ctx, &Setting{
		ID:          uuid.New(),
		Key:         key,
		Value:       stored,
		Description: description,
		Encrypted:   encrypted,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// List returns all settings with encrypted values redacted.
func (s *Service) List(ctx context.Context) ([]*Setting, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, setting := range all {
		if setting.Encrypted {
			setting.Value = "***"
		}
	}
	return all, nil
}

// PaystackSecretKey resolves the gateway secret: persisted (encrypted)
// override first, environment default second.
func (s *Service) PaystackSecretKey(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyPaystackSecretKey)
}

// PaystackSplitCode resolves the revenue-sharing split code, if configured.
func (s *Service) PaystackSplitCode(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyPaystackSplitCode)
}

// SetPaystackKeys rotates the gateway credentials without a redeploy. The
// secret key is always stored encrypted.
func (s *Service) SetPaystackKeys(ctx context.Context, publicKey, secretKey, splitCode string) error {
	if publicKey != "" {
		if err := s.Set(ctx, KeyPaystackPublicKey, publicKey, "Paystack public key", false); err != nil {
			return err
		}
	}
	if secretKey != "" {
		if err := s.Set(ctx, KeyPaystackSecretKey, secretKey, "Paystack secret key", true); err != nil {
			return err
		}
	}
	if splitCode != "" {
		if err := s.Set(ctx, KeyPaystackSplitCode, splitCode, "Paystack split code for revenue sharing", false); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

func (s *Service) decrypt(stored string) (string, error) {
	nonceHex, sealedHex, ok := strings.Cut(stored, ":")
	if !ok {
		return "", errors.New("malformed ciphertext")
	}
	nonce, err := hex.DecodeString(nonceHex)
	if err != nil {
		return "", err
	}
	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
