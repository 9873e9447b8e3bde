// Package services holds the per-entity façades over the API client. All
// of them are stateless except FeedbackService, which persists submissions
// locally before syncing them to the collector.
package services

import (
	"time"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/store"
	"go.uber.org/zap"
)

// Options configures the service set
type Options struct {
	// Now is the clock used by date-derived queries.
	Now func() time.Time
	// CollectorURL is the feedback collector; empty keeps feedback local.
	CollectorURL     string
	CollectorTimeout time.Duration
}

// Services bundles one instance of every domain service around a shared client.
type Services struct {
	User          *UserService
	Doctors       *DoctorService
	Appointments  *AppointmentService
	Medications   *MedicationService
	Records       *HealthRecordService
	Notifications *NotificationService
	Pharmacies    *PharmacyService
	Emergency     *EmergencyService
	Feedback      *FeedbackService
}

func New(client *api.Client, st *store.Store, opts Options, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Services{
		User:          NewUserService(client, logger),
		Doctors:       NewDoctorService(client),
		Appointments:  NewAppointmentService(client, opts.Now),
		Medications:   NewMedicationService(client, opts.Now),
		Records:       NewHealthRecordService(client),
		Notifications: NewNotificationService(client),
		Pharmacies:    NewPharmacyService(client),
		Emergency:     NewEmergencyService(client),
		Feedback:      NewFeedbackService(st, client.Metrics(), opts, logger),
	}
}

// filter narrows a successful list result; failures pass through unchanged.
func filter[T any](r api.Result[[]T], keep func(T) bool) api.Result[[]T] {
	return api.Map(r, func(items []T) []T {
		out := make([]T, 0, len(items))
		for _, item := range items {
			if keep(item) {
				out = append(out, item)
			}
		}
		return out
	})
}
