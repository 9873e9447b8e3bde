package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/models"
)

type AppointmentService struct {
	client *api.Client
	now    func() time.Time
}

func NewAppointmentService(client *api.Client, now func() time.Time) *AppointmentService {
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{client: client, now: now}
}

func (s *AppointmentService) All(ctx context.Context) api.Result[[]models.Appointment] {
	return api.Get[[]models.Appointment](ctx, s.client, api.Appointments, nil)
}

func (s *AppointmentService) ByID(ctx context.Context, id int) api.Result[models.Appointment] {
	return api.Get[models.Appointment](ctx, s.client, api.AppointmentByID, api.ID(id))
}

func (s *AppointmentService) Create(ctx context.Context, req models.CreateAppointmentRequest) api.Result[models.Appointment] {
	return api.Post[models.Appointment](ctx, s.client, api.AppointmentCreate, req, nil)
}

// Update sends only the changed fields; the server returns the full appointment.
func (s *AppointmentService) Update(ctx context.Context, id int, patch models.AppointmentPatch) api.Result[models.Appointment] {
	return api.Put[models.Appointment](ctx, s.client, api.AppointmentUpdate, patch, api.ID(id))
}

func (s *AppointmentService) Delete(ctx context.Context, id int) api.Result[json.RawMessage] {
	return api.Delete[json.RawMessage](ctx, s.client, api.AppointmentDelete, api.ID(id))
}

// Upcoming returns appointments dated today or later that are not completed.
func (s *AppointmentService) Upcoming(ctx context.Context) api.Result[[]models.Appointment] {
	now := s.now()
	return filter(s.All(ctx), func(a models.Appointment) bool { return a.IsUpcoming(now) })
}

// Past is the complement of Upcoming.
func (s *AppointmentService) Past(ctx context.Context) api.Result[[]models.Appointment] {
	now := s.now()
	return filter(s.All(ctx), func(a models.Appointment) bool { return !a.IsUpcoming(now) })
}
