package fixtures

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/medigate/medigate-cli/internal/models"
)

// Dataset is a mutable, concurrency-safe copy of Data. Local mode applies
// mutations here so repeated reads observe them, the way a server would.
type Dataset struct {
	mu   sync.RWMutex
	data *Data
}

// NewDataset wraps a copy of d.
func NewDataset(d *Data) *Dataset {
	if d == nil {
		d = Fallback()
	}
	return &Dataset{data: d.Clone()}
}

// Replace swaps the whole dataset, e.g. after the fixture file changed.
func (s *Dataset) Replace(d *Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = d.Clone()
}

// Snapshot returns a deep copy of the current data.
func (s *Dataset) Snapshot() *Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

func (s *Dataset) User() models.User {
	return s.Snapshot().User
}

func (s *Dataset) Doctor(id int) (models.Doctor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.data.Doctors, func(d models.Doctor) bool { return d.ID == id })
	if i < 0 {
		return models.Doctor{}, false
	}
	return s.data.Doctors[i], true
}

func (s *Dataset) Appointment(id int) (models.Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.data.Appointments, func(a models.Appointment) bool { return a.ID == id })
	if i < 0 {
		return models.Appointment{}, false
	}
	return s.data.Appointments[i], true
}

func (s *Dataset) Medication(id int) (models.Medication, bool) {
	snap := s.Snapshot()
	i := slices.IndexFunc(snap.Medications, func(m models.Medication) bool { return m.ID == id })
	if i < 0 {
		return models.Medication{}, false
	}
	return snap.Medications[i], true
}

func (s *Dataset) HealthRecord(id int) (models.HealthRecord, bool) {
	snap := s.Snapshot()
	i := slices.IndexFunc(snap.HealthRecords, func(r models.HealthRecord) bool { return r.ID == id })
	if i < 0 {
		return models.HealthRecord{}, false
	}
	return snap.HealthRecords[i], true
}

func (s *Dataset) Pharmacy(id int) (models.Pharmacy, bool) {
	snap := s.Snapshot()
	i := slices.IndexFunc(snap.Pharmacies, func(p models.Pharmacy) bool { return p.ID == id })
	if i < 0 {
		return models.Pharmacy{}, false
	}
	return snap.Pharmacies[i], true
}

// Authenticate reports whether the credentials belong to the dataset user.
// Local mode accepts any password for the demo account and any non-empty
// credentials otherwise.
func (s *Dataset) Authenticate(email, password string) (models.User, bool) {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.User{}, false
	}
	return s.User(), true
}

// Register replaces the dataset user with a new profile.
func (s *Dataset) Register(req models.RegisterRequest) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{
		ID:          s.data.User.ID + 1,
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Address:     req.Address,
		Preferences: s.data.User.Preferences,
	}
	s.data.User = u
	return u
}

// UpdateUser merges patch into the user and returns the result.
func (s *Dataset) UpdateUser(patch models.UserPatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := applyPatch(s.data.User, patch)
	if err != nil {
		return models.User{}, err
	}
	u.ID = s.data.User.ID
	s.data.User = u
	return u, nil
}

// CreateAppointment books a new appointment with the next free id.
func (s *Dataset) CreateAppointment(req models.CreateAppointmentRequest) models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := 1
	for _, a := range s.data.Appointments {
		if a.ID >= next {
			next = a.ID + 1
		}
	}
	appt := models.Appointment{
		ID:       next,
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Time:     req.Time,
		Status:   models.StatusScheduled,
		Type:     req.Type,
		Reason:   req.Reason,
	}
	if i := slices.IndexFunc(s.data.Doctors, func(d models.Doctor) bool { return d.ID == req.DoctorID }); i >= 0 {
		appt.DoctorName = s.data.Doctors[i].Name
		appt.Specialty = s.data.Doctors[i].Specialty
	}
	s.data.Appointments = append(s.data.Appointments, appt)
	return appt
}

func (s *Dataset) UpdateAppointment(id int, patch models.AppointmentPatch) (models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.data.Appointments, func(a models.Appointment) bool { return a.ID == id })
	if i < 0 {
		return models.Appointment{}, fmt.Errorf("appointment %d not found", id)
	}
	a, err := applyPatch(s.data.Appointments[i], patch)
	if err != nil {
		return models.Appointment{}, err
	}
	a.ID = id
	s.data.Appointments[i] = a
	return a, nil
}

func (s *Dataset) DeleteAppointment(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.data.Appointments)
	s.data.Appointments = slices.DeleteFunc(s.data.Appointments, func(a models.Appointment) bool { return a.ID == id })
	return len(s.data.Appointments) != before
}

// MarkTaken logs a dose. Logging the same (date, time) twice is a no-op.
func (s *Dataset) MarkTaken(id int, date, at string) (models.Medication, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.data.Medications, func(m models.Medication) bool { return m.ID == id })
	if i < 0 {
		return models.Medication{}, false
	}
	updated := s.data.Medications[i].WithTaken(date, at)
	s.data.Medications[i] = updated
	return updated, true
}

func (s *Dataset) MarkNotificationRead(id int) (models.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.data.Notifications, func(n models.Notification) bool { return n.ID == id })
	if i < 0 {
		return models.Notification{}, false
	}
	s.data.Notifications[i].Read = true
	return s.data.Notifications[i], true
}

// MarkAllNotificationsRead returns how many notifications changed state.
func (s *Dataset) MarkAllNotificationsRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for i := range s.data.Notifications {
		if !s.data.Notifications[i].Read {
			s.data.Notifications[i].Read = true
			changed++
		}
	}
	return changed
}

// applyPatch overlays the wire-named fields of patch onto v.
func applyPatch[T any](v T, patch map[string]any) (T, error) {
	var zero T
	b, err := json.Marshal(v)
	if err != nil {
		return zero, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return zero, err
	}
	for k, val := range patch {
		fields[k] = val
	}
	b, err = json.Marshal(fields)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, fmt.Errorf("invalid patch: %w", err)
	}
	return out, nil
}
