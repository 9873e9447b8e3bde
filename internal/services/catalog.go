package services

import (
	"context"
	"strings"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/models"
)

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

type DoctorService struct {
	client *api.Client
}

func NewDoctorService(client *api.Client) *DoctorService {
	return &DoctorService{client: client}
}

func (s *DoctorService) All(ctx context.Context) api.Result[[]models.Doctor] {
	return api.Get[[]models.Doctor](ctx, s.client, api.Doctors, nil)
}

func (s *DoctorService) ByID(ctx context.Context, id int) api.Result[models.Doctor] {
	return api.Get[models.Doctor](ctx, s.client, api.DoctorByID, api.ID(id))
}

// SearchBySpecialty matches a case-insensitive substring of the specialty.
func (s *DoctorService) SearchBySpecialty(ctx context.Context, specialty string) api.Result[[]models.Doctor] {
	return filter(s.All(ctx), func(d models.Doctor) bool { return containsFold(d.Specialty, specialty) })
}

func (s *DoctorService) SearchByName(ctx context.Context, name string) api.Result[[]models.Doctor] {
	return filter(s.All(ctx), func(d models.Doctor) bool { return containsFold(d.Name, name) })
}

type PharmacyService struct {
	client *api.Client
}

func NewPharmacyService(client *api.Client) *PharmacyService {
	return &PharmacyService{client: client}
}

func (s *PharmacyService) All(ctx context.Context) api.Result[[]models.Pharmacy] {
	return api.Get[[]models.Pharmacy](ctx, s.client, api.Pharmacies, nil)
}

func (s *PharmacyService) ByID(ctx context.Context, id int) api.Result[models.Pharmacy] {
	return api.Get[models.Pharmacy](ctx, s.client, api.PharmacyByID, api.ID(id))
}

func (s *PharmacyService) Open(ctx context.Context) api.Result[[]models.Pharmacy] {
	return filter(s.All(ctx), func(p models.Pharmacy) bool { return p.Open })
}

func (s *PharmacyService) SearchByName(ctx context.Context, name string) api.Result[[]models.Pharmacy] {
	return filter(s.All(ctx), func(p models.Pharmacy) bool { return containsFold(p.Name, name) })
}

type EmergencyService struct {
	client *api.Client
}

func NewEmergencyService(client *api.Client) *EmergencyService {
	return &EmergencyService{client: client}
}

func (s *EmergencyService) All(ctx context.Context) api.Result[[]models.EmergencyContact] {
	return api.Get[[]models.EmergencyContact](ctx, s.client, api.EmergencyContacts, nil)
}

// ByType matches the contact type exactly, ignoring case.
func (s *EmergencyService) ByType(ctx context.Context, contactType string) api.Result[[]models.EmergencyContact] {
	return filter(s.All(ctx), func(c models.EmergencyContact) bool { return strings.EqualFold(c.Type, contactType) })
}
