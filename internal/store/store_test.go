package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/medigate/medigate-cli/internal/config"
	"github.com/medigate/medigate-cli/internal/errors"
	"github.com/medigate/medigate-cli/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")}), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func setupTestStore(t *testing.T, encrypted bool) *Store {
	db := setupTestDB(t)

	var st *Store
	var err error
	if encrypted {
		kv, kvErr := OpenEncrypted(filepath.Join(t.TempDir(), "secure"), testKey)
		require.NoError(t, kvErr)
		st, err = NewWithDB(db, kv, nil)
	} else {
		st, err = NewWithDB(db, nil, nil)
	}
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStore_Settings(t *testing.T) {
	st := setupTestStore(t, false)
	ctx := context.Background()

	_, err := st.GetSetting(ctx, "auth_token")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, st.SetSetting(ctx, "auth_token", "abc"))
	require.NoError(t, st.SetSetting(ctx, "auth_token", "def"))

	val, err := st.GetSetting(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "def", val)

	require.NoError(t, st.DeleteSetting(ctx, "auth_token"))
	require.NoError(t, st.DeleteSetting(ctx, "auth_token"))
	_, err = st.GetSetting(ctx, "auth_token")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestStore_SecretsRequireEncryption(t *testing.T) {
	st := setupTestStore(t, false)
	assert.False(t, st.Encrypted())

	err := st.SetSecret("auth_token", []byte("abc"))
	assert.ErrorIs(t, err, errors.ErrStorageUnavailable)
	_, err = st.GetSecret("auth_token")
	assert.ErrorIs(t, err, errors.ErrStorageUnavailable)
}

func TestStore_Secrets(t *testing.T) {
	st := setupTestStore(t, true)
	assert.True(t, st.Encrypted())

	_, err := st.GetSecret("auth_token")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, st.SetSecret("auth_token", []byte("abc")))
	val, err := st.GetSecret("auth_token")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), val)

	require.NoError(t, st.DeleteSecret("auth_token"))
	require.NoError(t, st.DeleteSecret("auth_token"))
	_, err = st.GetSecret("auth_token")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestOpenEncrypted_WrongKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "secure")
	kv, err := OpenEncrypted(dir, testKey)
	require.NoError(t, err)
	require.NoError(t, kv.Close())

	_, err = OpenEncrypted(dir, []byte("fedcba9876543210fedcba9876543210"))
	assert.Error(t, err)
}

func TestNew_FromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{
		DataDir:       dir,
		SQLitePath:    filepath.Join(dir, "medigate.db"),
		BadgerPath:    filepath.Join(dir, "secure"),
		EncryptionKey: "000102030405060708090a0b0c0d0e0f",
	}}

	st, err := New(cfg, nil)
	require.NoError(t, err)
	defer st.Close()

	assert.True(t, st.Encrypted())
	require.NoError(t, st.SetSecret("k", []byte("v")))
	require.NoError(t, st.SetSetting(context.Background(), "k", "v"))
}

func newSubmission(id string, at time.Time) models.FeedbackSubmission {
	return models.FeedbackSubmission{
		ID:          id,
		Category:    models.FeedbackBug,
		Subject:     "Crash",
		Description: "Crashes on start",
		Rating:      2,
		DeviceInfo:  models.DeviceInfo{Platform: "linux", Version: "1.0.0", Model: "amd64"},
		Timestamp:   at.UTC().Format(time.RFC3339Nano),
		Status:      models.FeedbackPending,
	}
}

func TestStore_FeedbackCRUD(t *testing.T) {
	st := setupTestStore(t, false)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.CreateFeedback(ctx, FeedbackFromSubmission(newSubmission("fb_1", base))))
	require.NoError(t, st.CreateFeedback(ctx, FeedbackFromSubmission(newSubmission("fb_2", base.Add(time.Hour)))))

	list, err := st.ListFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "fb_2", list[0].ID, "newest first")

	rec, err := st.GetFeedback(ctx, "fb_1")
	require.NoError(t, err)
	sub := rec.Submission()
	assert.Equal(t, models.FeedbackBug, sub.Category)
	assert.Equal(t, "linux", sub.DeviceInfo.Platform)

	_, err = st.GetFeedback(ctx, "fb_missing")
	assert.ErrorIs(t, err, errors.ErrFeedbackNotFound)

	require.NoError(t, st.DeleteFeedback(ctx, "fb_1"))
	assert.ErrorIs(t, st.DeleteFeedback(ctx, "fb_1"), errors.ErrFeedbackNotFound)

	require.NoError(t, st.ClearFeedback(ctx))
	list, err = st.ListFeedback(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_FeedbackSyncState(t *testing.T) {
	st := setupTestStore(t, false)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.CreateFeedback(ctx, FeedbackFromSubmission(newSubmission("fb_a", base))))
	require.NoError(t, st.CreateFeedback(ctx, FeedbackFromSubmission(newSubmission("fb_b", base.Add(time.Minute)))))

	require.NoError(t, st.RecordFeedbackSyncFailure(ctx, "fb_a", assert.AnError))
	require.NoError(t, st.MarkFeedbackSynced(ctx, "fb_b", base.Add(time.Hour)))

	pending, err := st.ListPendingFeedback(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "fb_a", pending[0].ID)
	assert.Equal(t, 1, pending[0].SyncAttempts)
	assert.Equal(t, assert.AnError.Error(), pending[0].LastError)

	count, err := st.CountPendingFeedback(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	synced, err := st.GetFeedback(ctx, "fb_b")
	require.NoError(t, err)
	assert.Equal(t, string(models.FeedbackSynced), synced.Status)
	assert.NotNil(t, synced.SyncedAt)
}
