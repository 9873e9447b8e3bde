package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/errors"
	"github.com/medigate/medigate-cli/internal/metrics"
	"github.com/medigate/medigate-cli/internal/models"
	"github.com/medigate/medigate-cli/internal/store"
	"go.uber.org/zap"
)

const (
	feedbackThanks        = "Thank you for your feedback!"
	defaultCollectorLimit = 100
	defaultSyncTimeout    = 15 * time.Second
)

// FeedbackStore is the local persistence FeedbackService writes through.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, rec *store.FeedbackRecord) error
	ListFeedback(ctx context.Context) ([]store.FeedbackRecord, error)
	GetFeedback(ctx context.Context, id string) (*store.FeedbackRecord, error)
	DeleteFeedback(ctx context.Context, id string) error
	ClearFeedback(ctx context.Context) error
	ListPendingFeedback(ctx context.Context, limit int) ([]store.FeedbackRecord, error)
	CountPendingFeedback(ctx context.Context) (int64, error)
	MarkFeedbackSynced(ctx context.Context, id string, at time.Time) error
	RecordFeedbackSyncFailure(ctx context.Context, id string, cause error) error
}

// FeedbackService stores submissions locally and pushes them to the
// collector in the background. A submission counts as sent once it is on
// disk; collector errors are logged and retried by SyncPending.
type FeedbackService struct {
	store     FeedbackStore
	collector *resty.Client
	metrics   *metrics.Metrics
	now       func() time.Time
	timeout   time.Duration
	logger    *zap.Logger

	wg sync.WaitGroup
}

func NewFeedbackService(st FeedbackStore, m *metrics.Metrics, opts Options, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CollectorTimeout <= 0 {
		opts.CollectorTimeout = defaultSyncTimeout
	}
	if s, ok := st.(*store.Store); ok && s == nil {
		st = nil
	}

	s := &FeedbackService{
		store:   st,
		metrics: m,
		now:     opts.Now,
		timeout: opts.CollectorTimeout,
		logger:  logger,
	}
	if url := strings.TrimRight(opts.CollectorURL, "/"); url != "" {
		s.collector = resty.New().
			SetBaseURL(url).
			SetTimeout(opts.CollectorTimeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json")
	}
	return s
}

func deviceInfo() models.DeviceInfo {
	return models.DeviceInfo{
		Platform: runtime.GOOS,
		Version:  runtime.Version(),
		Model:    runtime.GOARCH,
	}
}

// Submit validates and persists in, then starts a background upload.
func (s *FeedbackService) Submit(ctx context.Context, in models.FeedbackInput) api.Result[models.FeedbackReceipt] {
	if err := in.Validate(); err != nil {
		return api.Fail[models.FeedbackReceipt](errors.ErrInvalidFeedback.WithCause(err).Error())
	}
	if s.store == nil {
		return api.Fail[models.FeedbackReceipt](errors.ErrStorageUnavailable.Error())
	}

	sub := models.FeedbackSubmission{
		ID:          "fb_" + uuid.NewString(),
		Category:    in.Category,
		Subject:     strings.TrimSpace(in.Subject),
		Description: strings.TrimSpace(in.Description),
		Rating:      in.Rating,
		Email:       in.Email,
		DeviceInfo:  deviceInfo(),
		Timestamp:   s.now().UTC().Format(time.RFC3339Nano),
		Status:      models.FeedbackPending,
	}

	rec := store.FeedbackFromSubmission(sub)
	if err := s.store.CreateFeedback(ctx, rec); err != nil {
		s.logger.Error("Failed to save feedback", zap.String("id", sub.ID), zap.Error(err))
		return api.Fail[models.FeedbackReceipt](errors.ErrStorageUnavailable.WithCause(err).Error())
	}
	s.logger.Info("Feedback saved", zap.String("id", sub.ID), zap.String("category", string(sub.Category)))
	s.refreshPending(ctx)

	if s.collector == nil {
		s.logger.Debug("Feedback collector not configured, keeping submission local")
	} else {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			syncCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			if s.sync(syncCtx, sub) {
				s.refreshPending(syncCtx)
			}
		}()
	}

	res := api.Ok(models.FeedbackReceipt{ID: sub.ID})
	res.Message = feedbackThanks
	return res
}

// Wait blocks until background uploads started by Submit have finished.
func (s *FeedbackService) Wait() {
	s.wg.Wait()
}

// sync uploads one submission and records the outcome. It reports whether
// the collector accepted it.
func (s *FeedbackService) sync(ctx context.Context, sub models.FeedbackSubmission) bool {
	err := s.push(ctx, sub)
	if err != nil {
		s.logger.Warn("Feedback sync failed, kept locally", zap.String("id", sub.ID), zap.Error(err))
		if recErr := s.store.RecordFeedbackSyncFailure(ctx, sub.ID, err); recErr != nil {
			s.logger.Warn("Failed to record feedback sync failure", zap.String("id", sub.ID), zap.Error(recErr))
		}
		return false
	}

	if err := s.store.MarkFeedbackSynced(ctx, sub.ID, s.now().UTC()); err != nil {
		s.logger.Warn("Failed to mark feedback synced", zap.String("id", sub.ID), zap.Error(err))
	}
	s.metrics.RecordFeedbackSynced(1)
	s.logger.Info("Feedback synced", zap.String("id", sub.ID))
	return true
}

func (s *FeedbackService) push(ctx context.Context, sub models.FeedbackSubmission) error {
	sub.Status = models.FeedbackSynced
	resp, err := s.collector.R().
		SetContext(ctx).
		SetBody(sub).
		Post("/api/feedback")
	if err != nil {
		return fmt.Errorf("failed to reach feedback collector: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("feedback collector returned %s", resp.Status())
	}
	return nil
}

// SyncPending retries every unsynced submission, oldest first, and returns
// how many were accepted.
func (s *FeedbackService) SyncPending(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, errors.ErrStorageUnavailable
	}
	if s.collector == nil {
		return 0, nil
	}

	pending, err := s.store.ListPendingFeedback(ctx, defaultCollectorLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending feedback: %w", err)
	}

	synced := 0
	for _, rec := range pending {
		if ctx.Err() != nil {
			break
		}
		if s.sync(ctx, rec.Submission()) {
			synced++
		}
	}
	s.refreshPending(ctx)

	if synced > 0 || len(pending) > 0 {
		s.logger.Info("Feedback resync finished",
			zap.Int("pending", len(pending)),
			zap.Int("synced", synced),
		)
	}
	return synced, ctx.Err()
}

func (s *FeedbackService) refreshPending(ctx context.Context) {
	n, err := s.store.CountPendingFeedback(ctx)
	if err != nil {
		return
	}
	s.metrics.SetFeedbackPending(int(n))
}

// History lists local submissions, newest first.
func (s *FeedbackService) History(ctx context.Context) api.Result[[]models.FeedbackSubmission] {
	if s.store == nil {
		return api.Fail[[]models.FeedbackSubmission](errors.ErrStorageUnavailable.Error())
	}
	recs, err := s.store.ListFeedback(ctx)
	if err != nil {
		return api.Fail[[]models.FeedbackSubmission](err.Error())
	}
	out := make([]models.FeedbackSubmission, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Submission())
	}
	return api.Ok(out)
}

func (s *FeedbackService) ByID(ctx context.Context, id string) api.Result[models.FeedbackSubmission] {
	if s.store == nil {
		return api.Fail[models.FeedbackSubmission](errors.ErrStorageUnavailable.Error())
	}
	rec, err := s.store.GetFeedback(ctx, id)
	if stderrors.Is(err, errors.ErrFeedbackNotFound) {
		return api.Fail[models.FeedbackSubmission]("Feedback not found")
	}
	if err != nil {
		return api.Fail[models.FeedbackSubmission](err.Error())
	}
	return api.Ok(rec.Submission())
}

// Delete removes one submission. Deleting an unknown id succeeds.
func (s *FeedbackService) Delete(ctx context.Context, id string) api.Result[struct{}] {
	if s.store == nil {
		return api.Fail[struct{}](errors.ErrStorageUnavailable.Error())
	}
	if err := s.store.DeleteFeedback(ctx, id); err != nil && !stderrors.Is(err, errors.ErrFeedbackNotFound) {
		return api.Fail[struct{}](err.Error())
	}
	s.refreshPending(ctx)
	res := api.Ok(struct{}{})
	res.Message = "Feedback deleted successfully"
	return res
}

func (s *FeedbackService) ClearAll(ctx context.Context) api.Result[struct{}] {
	if s.store == nil {
		return api.Fail[struct{}](errors.ErrStorageUnavailable.Error())
	}
	if err := s.store.ClearFeedback(ctx); err != nil {
		return api.Fail[struct{}](err.Error())
	}
	s.metrics.SetFeedbackPending(0)
	res := api.Ok(struct{}{})
	res.Message = "All feedback cleared"
	return res
}
