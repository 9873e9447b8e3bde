package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/medigate/medigate-cli/internal/metrics"
	"github.com/medigate/medigate-cli/internal/models"
	"github.com/medigate/medigate-cli/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu       sync.Mutex
	received []models.FeedbackSubmission
	status   int
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.URL.Path != "/api/feedback" || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if c.status != 0 && c.status != http.StatusOK {
		w.WriteHeader(c.status)
		return
	}
	var sub models.FeedbackSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	c.received = append(c.received, sub)
	w.WriteHeader(http.StatusOK)
}

func (c *collector) setStatus(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = code
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func validInput() models.FeedbackInput {
	return models.FeedbackInput{
		Category:    models.FeedbackBug,
		Subject:     "App freezes",
		Description: "The medication list hangs when scrolling.",
		Rating:      2,
	}
}

func TestFeedback_SubmitOfflinePersistsLocally(t *testing.T) {
	st := setupTestStore(t)
	m := metrics.New()
	// nothing listens on this port
	svc := NewFeedbackService(st, m, Options{Now: clock, CollectorURL: "http://127.0.0.1:1", CollectorTimeout: time.Second}, nil)
	ctx := context.Background()

	res := svc.Submit(ctx, validInput())
	require.True(t, res.OK(), res.Error)
	assert.True(t, strings.HasPrefix(res.Data.ID, "fb_"))
	assert.Equal(t, "Thank you for your feedback!", res.Message)

	svc.Wait()

	got := svc.ByID(ctx, res.Data.ID)
	require.True(t, got.OK(), got.Error)
	assert.Equal(t, models.FeedbackPending, got.Data.Status)
	assert.Equal(t, "App freezes", got.Data.Subject)
	assert.NotEmpty(t, got.Data.DeviceInfo.Platform)

	rec, err := st.GetFeedback(ctx, res.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.SyncAttempts)
	assert.NotEmpty(t, rec.LastError)

	expected := `
# HELP medigate_feedback_pending Feedback submissions not yet delivered to the collector.
# TYPE medigate_feedback_pending gauge
medigate_feedback_pending 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "medigate_feedback_pending"))
}

func TestFeedback_SubmitWithoutCollector(t *testing.T) {
	svc := NewFeedbackService(setupTestStore(t), nil, Options{Now: clock}, nil)
	ctx := context.Background()

	res := svc.Submit(ctx, validInput())
	require.True(t, res.OK())

	synced, err := svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, synced)

	history := svc.History(ctx)
	require.Len(t, history.Data, 1)
	assert.Equal(t, models.FeedbackPending, history.Data[0].Status)
}

func TestFeedback_SubmitSyncsInBackground(t *testing.T) {
	c := &collector{}
	srv := httptest.NewServer(c)
	defer srv.Close()

	st := setupTestStore(t)
	svc := NewFeedbackService(st, nil, Options{Now: clock, CollectorURL: srv.URL}, nil)
	ctx := context.Background()

	res := svc.Submit(ctx, validInput())
	require.True(t, res.OK())
	svc.Wait()

	require.Equal(t, 1, c.count())
	assert.Equal(t, res.Data.ID, c.received[0].ID)

	got := svc.ByID(ctx, res.Data.ID)
	require.True(t, got.OK())
	assert.Equal(t, models.FeedbackSynced, got.Data.Status)
}

func TestFeedback_SyncPendingRetries(t *testing.T) {
	c := &collector{status: http.StatusServiceUnavailable}
	srv := httptest.NewServer(c)
	defer srv.Close()

	st := setupTestStore(t)
	svc := NewFeedbackService(st, nil, Options{Now: clock, CollectorURL: srv.URL}, nil)
	ctx := context.Background()

	first := svc.Submit(ctx, validInput())
	second := svc.Submit(ctx, models.FeedbackInput{Category: models.FeedbackFeature, Subject: "Dark mode", Description: "Please."})
	require.True(t, first.OK())
	require.True(t, second.OK())
	svc.Wait()
	assert.Zero(t, c.count())

	c.setStatus(http.StatusOK)
	synced, err := svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Equal(t, 2, c.count())

	pending, err := st.CountPendingFeedback(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	again, err := svc.SyncPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestFeedback_Validation(t *testing.T) {
	svc := NewFeedbackService(setupTestStore(t), nil, Options{Now: clock}, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input models.FeedbackInput
	}{
		{"empty subject", models.FeedbackInput{Category: models.FeedbackBug, Description: "d"}},
		{"blank description", models.FeedbackInput{Category: models.FeedbackBug, Subject: "s", Description: "   "}},
		{"unknown category", models.FeedbackInput{Category: "praise", Subject: "s", Description: "d"}},
		{"rating out of range", models.FeedbackInput{Category: models.FeedbackOther, Subject: "s", Description: "d", Rating: 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Submit(ctx, tt.input)
			assert.False(t, res.OK())
			assert.Contains(t, res.Error, "FEEDBACK_001")
		})
	}

	assert.Empty(t, svc.History(ctx).Data)
}

func TestFeedback_HistoryDeleteClear(t *testing.T) {
	now := fixedNow
	svc := NewFeedbackService(setupTestStore(t), nil, Options{Now: func() time.Time { return now }}, nil)
	ctx := context.Background()

	older := svc.Submit(ctx, validInput())
	now = now.Add(time.Minute)
	newer := svc.Submit(ctx, validInput())

	history := svc.History(ctx)
	require.Len(t, history.Data, 2)
	assert.Equal(t, newer.Data.ID, history.Data[0].ID)
	assert.Equal(t, older.Data.ID, history.Data[1].ID)

	assert.True(t, svc.Delete(ctx, older.Data.ID).OK())
	assert.True(t, svc.Delete(ctx, "fb_missing").OK())
	assert.Equal(t, "Feedback not found", svc.ByID(ctx, older.Data.ID).Error)

	cleared := svc.ClearAll(ctx)
	assert.True(t, cleared.OK())
	assert.Equal(t, "All feedback cleared", cleared.Message)
	assert.Empty(t, svc.History(ctx).Data)
}

func TestFeedback_NoStore(t *testing.T) {
	var st *store.Store
	svc := NewFeedbackService(st, nil, Options{}, nil)

	res := svc.Submit(context.Background(), validInput())
	assert.False(t, res.OK())
	assert.Contains(t, res.Error, "STORAGE_001")

	_, err := svc.SyncPending(context.Background())
	assert.Error(t, err)
}
