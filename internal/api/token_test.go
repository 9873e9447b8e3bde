package api

import (
	"testing"
	"time"

	"github.com/medigate/medigate-cli/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyToken(t *testing.T) {
	secret := []byte("s3cret")
	now := time.Now().Truncate(time.Second)
	u := models.User{ID: 12, Email: "jane@example.com"}

	token, err := IssueToken(secret, u, time.Hour, now)
	require.NoError(t, err)

	claims, err := VerifyToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "12", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)

	exp, ok := TokenExpiry(token)
	require.True(t, ok)
	assert.True(t, exp.Equal(now.Add(time.Hour)))
}

func TestVerifyToken_Rejects(t *testing.T) {
	u := models.User{ID: 1}

	token, err := IssueToken([]byte("one"), u, time.Hour, time.Now())
	require.NoError(t, err)
	_, err = VerifyToken([]byte("two"), token)
	assert.Error(t, err, "wrong secret")

	expired, err := IssueToken([]byte("one"), u, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = VerifyToken([]byte("one"), expired)
	assert.Error(t, err, "expired")

	_, err = VerifyToken([]byte("one"), "opaque-token")
	assert.Error(t, err)
}

func TestTokenExpiry_OpaqueToken(t *testing.T) {
	_, ok := TokenExpiry("tok_abc")
	assert.False(t, ok)
}

func TestEndpoints(t *testing.T) {
	all := Endpoints()
	assert.Len(t, all, 25)
	assert.Equal(t, UserLogin, all[0])
	assert.Equal(t, FeedbackList, all[len(all)-1])

	for _, e := range all {
		assert.True(t, e.Valid())
		assert.NotEqual(t, "UNKNOWN", e.String())
		assert.NotEmpty(t, e.Path())
	}

	assert.Equal(t, "/api/medications/:id/taken", MedicationMarkTaken.Path())
	assert.Equal(t, AppointmentByID.Path(), AppointmentDelete.Path())
	assert.NotEqual(t, AppointmentByID, AppointmentDelete)

	assert.False(t, Endpoint(0).Valid())
	assert.Equal(t, "UNKNOWN", Endpoint(0).String())
}
