// Package securestore persists the session credentials on the device.
//
// Values go to the encrypted secret store when one is available and to the
// plain settings table otherwise. Reads never fail: an absent key or an
// unreadable store both read as "no value".
package securestore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strconv"

	"github.com/medigate/medigate-cli/internal/errors"
	"github.com/medigate/medigate-cli/internal/models"
	"go.uber.org/zap"
)

// Keys
const (
	KeyAuthToken        = "auth_token"
	KeyRefreshToken     = "refresh_token"
	KeyUserData         = "user_data"
	KeyBiometricEnabled = "biometric_enabled"
)

// Mode names the backend that is in use.
type Mode string

const (
	ModeEncrypted Mode = "encrypted"
	ModeFallback  Mode = "fallback"
)

// Backend is the subset of *store.Store the credential store needs.
type Backend interface {
	Encrypted() bool
	SetSecret(key string, value []byte) error
	GetSecret(key string) ([]byte, error)
	DeleteSecret(key string) error
	SetSetting(ctx context.Context, key, value string) error
	GetSetting(ctx context.Context, key string) (string, error)
	DeleteSetting(ctx context.Context, key string) error
}

// Store is the credential store
type Store struct {
	backend Backend
	logger  *zap.Logger
}

func New(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger}
}

// Mode reports which backend holds the credentials.
func (s *Store) Mode() Mode {
	if s.backend != nil && s.backend.Encrypted() {
		return ModeEncrypted
	}
	return ModeFallback
}

// Save writes value under key. It returns ErrStorageUnavailable when the
// write did not happen.
func (s *Store) Save(ctx context.Context, key, value string) error {
	if s.backend == nil {
		return errors.ErrStorageUnavailable
	}

	var err error
	if s.backend.Encrypted() {
		err = s.backend.SetSecret(key, []byte(value))
	} else {
		err = s.backend.SetSetting(ctx, key, value)
	}
	if err != nil {
		s.logger.Error("Failed to save credential", zap.String("key", key), zap.Error(err))
		return errors.ErrStorageUnavailable.WithCause(err)
	}
	return nil
}

// Load returns the value under key, or ("", false) when it is absent or the
// store cannot be read.
func (s *Store) Load(ctx context.Context, key string) (string, bool) {
	if s.backend == nil {
		return "", false
	}

	var (
		val string
		err error
	)
	if s.backend.Encrypted() {
		var b []byte
		b, err = s.backend.GetSecret(key)
		val = string(b)
	} else {
		val, err = s.backend.GetSetting(ctx, key)
	}

	if err != nil {
		if !stderrors.Is(err, errors.ErrNotFound) {
			s.logger.Warn("Failed to load credential", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

// Remove deletes key. A missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if s.backend == nil {
		return errors.ErrStorageUnavailable
	}

	var err error
	if s.backend.Encrypted() {
		err = s.backend.DeleteSecret(key)
	} else {
		err = s.backend.DeleteSetting(ctx, key)
	}
	if err != nil && !stderrors.Is(err, errors.ErrNotFound) {
		return errors.ErrStorageUnavailable.WithCause(err)
	}
	return nil
}

// ClearSession removes the token, refresh token and cached user. Each key
// is removed independently and failures are only logged.
func (s *Store) ClearSession(ctx context.Context) {
	for _, key := range []string{KeyAuthToken, KeyRefreshToken, KeyUserData} {
		if err := s.Remove(ctx, key); err != nil {
			s.logger.Warn("Failed to clear credential", zap.String("key", key), zap.Error(err))
		}
	}
}

// IsAuthenticated reports whether a non-empty token is stored.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	token, ok := s.Load(ctx, KeyAuthToken)
	return ok && token != ""
}

func (s *Store) SaveAuthToken(ctx context.Context, token string) error {
	return s.Save(ctx, KeyAuthToken, token)
}

func (s *Store) AuthToken(ctx context.Context) (string, bool) {
	return s.Load(ctx, KeyAuthToken)
}

func (s *Store) SaveRefreshToken(ctx context.Context, token string) error {
	return s.Save(ctx, KeyRefreshToken, token)
}

func (s *Store) RefreshToken(ctx context.Context) (string, bool) {
	return s.Load(ctx, KeyRefreshToken)
}

// SaveUser caches a JSON snapshot of the signed-in user.
func (s *Store) SaveUser(ctx context.Context, u models.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.Save(ctx, KeyUserData, string(b))
}

// CachedUser returns the cached snapshot, or nil when absent or corrupt.
func (s *Store) CachedUser(ctx context.Context) *models.User {
	raw, ok := s.Load(ctx, KeyUserData)
	if !ok || raw == "" {
		return nil
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.logger.Warn("Cached user is corrupt", zap.Error(errors.ErrStorageCorrupted.WithCause(err)))
		return nil
	}
	return &u
}

func (s *Store) SetBiometric(ctx context.Context, enabled bool) error {
	return s.Save(ctx, KeyBiometricEnabled, strconv.FormatBool(enabled))
}

func (s *Store) BiometricEnabled(ctx context.Context) bool {
	raw, ok := s.Load(ctx, KeyBiometricEnabled)
	if !ok {
		return false
	}
	enabled, _ := strconv.ParseBool(raw)
	return enabled
}
