package services

import (
	"context"
	"time"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/models"
)

type MedicationService struct {
	client *api.Client
	now    func() time.Time
}

func NewMedicationService(client *api.Client, now func() time.Time) *MedicationService {
	if now == nil {
		now = time.Now
	}
	return &MedicationService{client: client, now: now}
}

func (s *MedicationService) All(ctx context.Context) api.Result[[]models.Medication] {
	return api.Get[[]models.Medication](ctx, s.client, api.Medications, nil)
}

func (s *MedicationService) ByID(ctx context.Context, id int) api.Result[models.Medication] {
	return api.Get[models.Medication](ctx, s.client, api.MedicationByID, api.ID(id))
}

// MarkAsTaken logs a dose. The returned medication is the server's view;
// callers must not append to the intake log themselves.
func (s *MedicationService) MarkAsTaken(ctx context.Context, id int, date, at string) api.Result[models.Medication] {
	return api.Post[models.Medication](ctx, s.client, api.MedicationMarkTaken, models.MarkTakenRequest{Date: date, Time: at}, api.ID(id))
}

func (s *MedicationService) Active(ctx context.Context) api.Result[[]models.Medication] {
	now := s.now()
	return filter(s.All(ctx), func(m models.Medication) bool { return m.ActiveOn(now) })
}

func (s *MedicationService) NeedingRefill(ctx context.Context) api.Result[[]models.Medication] {
	return filter(s.All(ctx), func(m models.Medication) bool { return !m.Available })
}
