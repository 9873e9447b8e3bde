package services

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/models"
)

// DefaultRecentLimit is used by Recent when the caller passes no limit.
const DefaultRecentLimit = 5

type HealthRecordService struct {
	client *api.Client
}

func NewHealthRecordService(client *api.Client) *HealthRecordService {
	return &HealthRecordService{client: client}
}

func (s *HealthRecordService) All(ctx context.Context) api.Result[[]models.HealthRecord] {
	return api.Get[[]models.HealthRecord](ctx, s.client, api.HealthRecords, nil)
}

func (s *HealthRecordService) ByID(ctx context.Context, id int) api.Result[models.HealthRecord] {
	return api.Get[models.HealthRecord](ctx, s.client, api.HealthRecordByID, api.ID(id))
}

func (s *HealthRecordService) ByCategory(ctx context.Context, category string) api.Result[[]models.HealthRecord] {
	return filter(s.All(ctx), func(r models.HealthRecord) bool { return strings.EqualFold(string(r.Category), category) })
}

func (s *HealthRecordService) ByType(ctx context.Context, recordType string) api.Result[[]models.HealthRecord] {
	return filter(s.All(ctx), func(r models.HealthRecord) bool { return containsFold(r.Type, recordType) })
}

// Recent returns up to limit records, newest first. Records with an
// unparseable date sort last.
func (s *HealthRecordService) Recent(ctx context.Context, limit int) api.Result[[]models.HealthRecord] {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return api.Map(s.All(ctx), func(records []models.HealthRecord) []models.HealthRecord {
		sorted := slices.Clone(records)
		slices.SortStableFunc(sorted, func(a, b models.HealthRecord) int {
			return recordTime(b).Compare(recordTime(a))
		})
		if len(sorted) > limit {
			sorted = sorted[:limit]
		}
		return sorted
	})
}

func recordTime(r models.HealthRecord) time.Time {
	t, err := models.ParseDate(r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}
