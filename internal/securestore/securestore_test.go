package securestore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/medigate/medigate-cli/internal/errors"
	"github.com/medigate/medigate-cli/internal/models"
	"github.com/medigate/medigate-cli/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStore(t *testing.T, encrypted bool) *store.Store {
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")}), &gorm.Config{})
	require.NoError(t, err)

	var st *store.Store
	if encrypted {
		kv, kvErr := store.OpenEncrypted(filepath.Join(t.TempDir(), "secure"), []byte("0123456789abcdef"))
		require.NoError(t, kvErr)
		st, err = store.NewWithDB(db, kv, nil)
	} else {
		st, err = store.NewWithDB(db, nil, nil)
	}
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// brokenBackend fails every operation
type brokenBackend struct{ encrypted bool }

func (b brokenBackend) Encrypted() bool                  { return b.encrypted }
func (brokenBackend) SetSecret(string, []byte) error     { return fmt.Errorf("keychain locked") }
func (brokenBackend) GetSecret(string) ([]byte, error)   { return nil, fmt.Errorf("keychain locked") }
func (brokenBackend) DeleteSecret(string) error          { return fmt.Errorf("keychain locked") }
func (brokenBackend) SetSetting(context.Context, string, string) error {
	return fmt.Errorf("disk full")
}
func (brokenBackend) GetSetting(context.Context, string) (string, error) {
	return "", fmt.Errorf("disk full")
}
func (brokenBackend) DeleteSetting(context.Context, string) error { return fmt.Errorf("disk full") }

func TestStore_RoundTrip(t *testing.T) {
	for _, encrypted := range []bool{true, false} {
		t.Run(fmt.Sprintf("encrypted=%v", encrypted), func(t *testing.T) {
			ss := New(setupStore(t, encrypted), nil)
			ctx := context.Background()

			if encrypted {
				assert.Equal(t, ModeEncrypted, ss.Mode())
			} else {
				assert.Equal(t, ModeFallback, ss.Mode())
			}

			_, ok := ss.Load(ctx, KeyAuthToken)
			assert.False(t, ok)
			assert.False(t, ss.IsAuthenticated(ctx))

			require.NoError(t, ss.SaveAuthToken(ctx, "tok_123"))
			token, ok := ss.AuthToken(ctx)
			assert.True(t, ok)
			assert.Equal(t, "tok_123", token)
			assert.True(t, ss.IsAuthenticated(ctx))

			require.NoError(t, ss.Remove(ctx, KeyAuthToken))
			require.NoError(t, ss.Remove(ctx, KeyAuthToken))
			assert.False(t, ss.IsAuthenticated(ctx))
		})
	}
}

func TestStore_EmptyTokenIsNotAuthenticated(t *testing.T) {
	ss := New(setupStore(t, false), nil)
	ctx := context.Background()

	require.NoError(t, ss.SaveAuthToken(ctx, ""))
	assert.False(t, ss.IsAuthenticated(ctx))
}

func TestStore_ClearSession(t *testing.T) {
	ss := New(setupStore(t, true), nil)
	ctx := context.Background()

	require.NoError(t, ss.SaveAuthToken(ctx, "tok"))
	require.NoError(t, ss.SaveRefreshToken(ctx, "refresh"))
	require.NoError(t, ss.SaveUser(ctx, models.User{ID: 1, FullName: "Demo User"}))
	require.NoError(t, ss.SetBiometric(ctx, true))

	ss.ClearSession(ctx)

	_, ok := ss.AuthToken(ctx)
	assert.False(t, ok)
	_, ok = ss.RefreshToken(ctx)
	assert.False(t, ok)
	assert.Nil(t, ss.CachedUser(ctx))
	assert.True(t, ss.BiometricEnabled(ctx), "biometric preference survives logout")
}

func TestStore_CachedUser(t *testing.T) {
	ss := New(setupStore(t, false), nil)
	ctx := context.Background()

	require.NoError(t, ss.SaveUser(ctx, models.User{ID: 3, Email: "demo@example.com"}))
	u := ss.CachedUser(ctx)
	require.NotNil(t, u)
	assert.Equal(t, 3, u.ID)

	require.NoError(t, ss.Save(ctx, KeyUserData, "{not json"))
	assert.Nil(t, ss.CachedUser(ctx))
}

func TestStore_BrokenBackend(t *testing.T) {
	for _, encrypted := range []bool{true, false} {
		t.Run(fmt.Sprintf("encrypted=%v", encrypted), func(t *testing.T) {
			ss := New(brokenBackend{encrypted: encrypted}, nil)
			ctx := context.Background()

			err := ss.SaveAuthToken(ctx, "tok")
			assert.ErrorIs(t, err, errors.ErrStorageUnavailable)

			_, ok := ss.AuthToken(ctx)
			assert.False(t, ok)
			assert.False(t, ss.IsAuthenticated(ctx))
			assert.False(t, ss.BiometricEnabled(ctx))

			assert.ErrorIs(t, ss.Remove(ctx, KeyAuthToken), errors.ErrStorageUnavailable)
			assert.NotPanics(t, func() { ss.ClearSession(ctx) })
		})
	}
}

func TestStore_NilBackend(t *testing.T) {
	ss := New(nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, ss.Save(ctx, KeyAuthToken, "x"), errors.ErrStorageUnavailable)
	_, ok := ss.Load(ctx, KeyAuthToken)
	assert.False(t, ok)
	assert.Equal(t, ModeFallback, ss.Mode())
}
