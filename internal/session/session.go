// Package session keeps what the signed-in user currently sees. It is the
// only component a UI talks to; collections change only through its methods
// and only after the backend has confirmed a mutation.
package session

import (
	"context"
	"slices"
	"sync"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/errors"
	"github.com/medigate/medigate-cli/internal/metrics"
	"github.com/medigate/medigate-cli/internal/models"
	"github.com/medigate/medigate-cli/internal/services"
	"go.uber.org/zap"
)

// Snapshot is a deep copy of the session state. It shares no slices or maps
// with the aggregator, so it can be read or modified without holding any lock.
type Snapshot struct {
	User              *models.User
	Doctors           []models.Doctor
	Appointments      []models.Appointment
	Medications       []models.Medication
	HealthRecords     []models.HealthRecord
	Notifications     []models.Notification
	Pharmacies        []models.Pharmacy
	EmergencyContacts []models.EmergencyContact
	IsAuthenticated   bool
	IsLoading         bool
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.User != nil {
		u := s.User.Clone()
		out.User = &u
	}
	out.Doctors = cloneEach(s.Doctors, models.Doctor.Clone)
	out.Appointments = slices.Clone(s.Appointments)
	out.Medications = cloneEach(s.Medications, models.Medication.Clone)
	out.HealthRecords = cloneEach(s.HealthRecords, models.HealthRecord.Clone)
	out.Notifications = slices.Clone(s.Notifications)
	out.Pharmacies = cloneEach(s.Pharmacies, models.Pharmacy.Clone)
	out.EmergencyContacts = slices.Clone(s.EmergencyContacts)
	return out
}

func cloneEach[T any](items []T, clone func(T) T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = clone(it)
	}
	return out
}

func emptySnapshot() Snapshot {
	return Snapshot{
		Doctors:           []models.Doctor{},
		Appointments:      []models.Appointment{},
		Medications:       []models.Medication{},
		HealthRecords:     []models.HealthRecord{},
		Notifications:     []models.Notification{},
		Pharmacies:        []models.Pharmacy{},
		EmergencyContacts: []models.EmergencyContact{},
	}
}

// Aggregator owns the session state. Concurrent mutations of the same
// entity resolve as last response wins.
type Aggregator struct {
	svc     *services.Services
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu    sync.RWMutex
	state Snapshot
	// gen changes whenever a session starts or ends; reloads started under
	// an older generation are discarded.
	gen uint64

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

func New(svc *services.Services, m *metrics.Metrics, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Aggregator{
		svc:     svc,
		metrics: m,
		logger:  logger,
		state:   emptySnapshot(),
		subs:    make(map[int]func(Snapshot)),
	}
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.clone()
}

func (a *Aggregator) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.IsAuthenticated
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func removes the subscription.
func (a *Aggregator) Subscribe(fn func(Snapshot)) func() {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	return func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		delete(a.subs, id)
	}
}

func (a *Aggregator) notify() {
	snap := a.Snapshot()
	a.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// update applies fn under the write lock and notifies subscribers.
func (a *Aggregator) update(fn func(*Snapshot)) {
	a.mu.Lock()
	fn(&a.state)
	a.mu.Unlock()
	a.notify()
}

// updateIn applies fn only while the session of generation gen is still
// signed in. It reports whether fn ran.
func (a *Aggregator) updateIn(gen uint64, fn func(*Snapshot)) bool {
	a.mu.Lock()
	if a.gen != gen || !a.state.IsAuthenticated {
		a.mu.Unlock()
		return false
	}
	fn(&a.state)
	a.mu.Unlock()
	a.notify()
	return true
}

func (a *Aggregator) generation() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.gen
}

func (a *Aggregator) setLoading(loading bool) {
	a.update(func(s *Snapshot) { s.IsLoading = loading })
}

// Login signs in and reloads every collection. A failed reload of one
// collection does not undo the login.
func (a *Aggregator) Login(ctx context.Context, email, password string) error {
	a.setLoading(true)
	defer a.setLoading(false)

	res := a.svc.User.Login(ctx, email, password)
	if !res.OK() {
		a.logger.Info("Login rejected", zap.String("email", email), zap.String("error", res.Error))
		return res.Err()
	}

	user := res.Data.User
	if user == nil {
		current := a.svc.User.GetUser(ctx)
		if !current.OK() {
			a.logger.Warn("Login succeeded but user profile is unavailable", zap.String("error", current.Error))
			return current.Err()
		}
		user = &current.Data
	}

	a.signIn(*user)
	a.Refresh(ctx)
	return nil
}

// Register creates an account and signs in with it.
func (a *Aggregator) Register(ctx context.Context, req models.RegisterRequest) error {
	a.setLoading(true)
	defer a.setLoading(false)

	res := a.svc.User.Register(ctx, req)
	if !res.OK() {
		return res.Err()
	}
	if res.Data.User == nil {
		return errors.ErrInvalidResponse.WithMessage("registration returned no user")
	}
	a.signIn(*res.Data.User)
	a.Refresh(ctx)
	return nil
}

// Restore silently resumes a session the backend still recognizes. It
// reports whether a session was restored.
func (a *Aggregator) Restore(ctx context.Context) bool {
	a.setLoading(true)
	defer a.setLoading(false)

	res := a.svc.User.GetUser(ctx)
	if !res.OK() {
		a.logger.Debug("No session to restore", zap.String("error", res.Error))
		return false
	}
	a.signIn(res.Data)
	a.Refresh(ctx)
	return true
}

func (a *Aggregator) signIn(u models.User) {
	a.mu.Lock()
	a.gen++
	a.state.User = &u
	a.state.IsAuthenticated = true
	a.mu.Unlock()
	a.notify()
	a.logger.Info("Session started", zap.Int("user_id", u.ID))
}

// Logout ends the session. Local state is reset whether or not the backend
// acknowledged the logout; the backend's answer is returned for display.
func (a *Aggregator) Logout(ctx context.Context) error {
	res := a.svc.User.Logout(ctx)

	a.mu.Lock()
	a.gen++
	a.state = emptySnapshot()
	a.mu.Unlock()
	a.notify()
	a.logger.Info("Session ended", zap.Bool("remote_ack", res.OK()))
	return res.Err()
}

// Refresh reloads all seven collections concurrently and returns once every
// fetch has settled. A failed fetch keeps that collection's previous value.
// Results that arrive after the session ended or changed are dropped.
func (a *Aggregator) Refresh(ctx context.Context) {
	gen := a.generation()
	loaders := []func(context.Context, uint64){
		loader(a, "doctors", a.svc.Doctors.All, func(s *Snapshot, v []models.Doctor) { s.Doctors = v }),
		loader(a, "appointments", a.svc.Appointments.All, func(s *Snapshot, v []models.Appointment) { s.Appointments = v }),
		loader(a, "medications", a.svc.Medications.All, func(s *Snapshot, v []models.Medication) { s.Medications = v }),
		loader(a, "health_records", a.svc.Records.All, func(s *Snapshot, v []models.HealthRecord) { s.HealthRecords = v }),
		loader(a, "notifications", a.svc.Notifications.All, func(s *Snapshot, v []models.Notification) { s.Notifications = v }),
		loader(a, "pharmacies", a.svc.Pharmacies.All, func(s *Snapshot, v []models.Pharmacy) { s.Pharmacies = v }),
		loader(a, "emergency_contacts", a.svc.Emergency.All, func(s *Snapshot, v []models.EmergencyContact) { s.EmergencyContacts = v }),
	}

	var wg sync.WaitGroup
	for _, load := range loaders {
		load := load
		wg.Add(1)
		go func() {
			defer wg.Done()
			load(ctx, gen)
		}()
	}
	wg.Wait()
}

func loader[T any](a *Aggregator, name string, fetch func(context.Context) api.Result[[]T], assign func(*Snapshot, []T)) func(context.Context, uint64) {
	return func(ctx context.Context, gen uint64) {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("Collection load panicked", zap.String("collection", name), zap.Any("panic", r))
				a.metrics.RecordCollectionLoad(name, false)
			}
		}()

		res := fetch(ctx)
		a.metrics.RecordCollectionLoad(name, res.OK())
		if !res.OK() {
			a.logger.Warn("Failed to load collection", zap.String("collection", name), zap.String("error", res.Error))
			return
		}
		items := res.Data
		if items == nil {
			items = []T{}
		}
		if !a.updateIn(gen, func(s *Snapshot) { assign(s, items) }) {
			a.logger.Debug("Dropped collection load for an ended session", zap.String("collection", name))
		}
	}
}

// GetDoctorByID looks the doctor up in the loaded collection only.
func (a *Aggregator) GetDoctorByID(id int) (models.Doctor, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i := slices.IndexFunc(a.state.Doctors, func(d models.Doctor) bool { return d.ID == id })
	if i < 0 {
		return models.Doctor{}, false
	}
	return a.state.Doctors[i], true
}

func (a *Aggregator) UpdateUser(ctx context.Context, patch models.UserPatch) error {
	if !a.IsAuthenticated() {
		return errors.ErrUnauthorized
	}
	a.setLoading(true)
	defer a.setLoading(false)

	res := a.svc.User.UpdateUser(ctx, patch)
	if !res.OK() {
		a.logger.Warn("Failed to update user", zap.String("error", res.Error))
		return res.Err()
	}
	if !res.HasData() {
		a.logger.Debug("User update confirmed without a body; keeping local profile")
		return nil
	}
	u := res.Data
	a.update(func(s *Snapshot) { s.User = &u })
	return nil
}

// replaceByID swaps the element with the same id for v. Nothing changes
// when no element matches.
func replaceByID[T any](items []T, v T, id func(T) int) []T {
	i := slices.IndexFunc(items, func(it T) bool { return id(it) == id(v) })
	if i < 0 {
		return items
	}
	out := slices.Clone(items)
	out[i] = v
	return out
}

func notificationID(n models.Notification) int { return n.ID }
func medicationID(m models.Medication) int     { return m.ID }
func appointmentID(a models.Appointment) int   { return a.ID }

func (a *Aggregator) MarkNotificationAsRead(ctx context.Context, id int) error {
	res := a.svc.Notifications.MarkAsRead(ctx, id)
	if !res.OK() {
		a.logger.Warn("Failed to mark notification read", zap.Int("id", id), zap.String("error", res.Error))
		return res.Err()
	}
	if !res.HasData() {
		a.logger.Debug("Notification update confirmed without a body", zap.Int("id", id))
		return nil
	}
	n := res.Data
	n.ID = id
	a.update(func(s *Snapshot) { s.Notifications = replaceByID(s.Notifications, n, notificationID) })
	return nil
}

// MarkAllNotificationsAsRead asks the backend to clear every notification and
// then reloads the collection to pick up the confirmed state.
func (a *Aggregator) MarkAllNotificationsAsRead(ctx context.Context) error {
	gen := a.generation()
	res := a.svc.Notifications.MarkAllAsRead(ctx)
	if !res.OK() {
		a.logger.Warn("Failed to mark all notifications read", zap.String("error", res.Error))
		return res.Err()
	}
	loader(a, "notifications", a.svc.Notifications.All, func(s *Snapshot, v []models.Notification) { s.Notifications = v })(ctx, gen)
	return nil
}

// MarkMedicationAsTaken stores the medication exactly as the backend returns it.
func (a *Aggregator) MarkMedicationAsTaken(ctx context.Context, id int, date, at string) error {
	res := a.svc.Medications.MarkAsTaken(ctx, id, date, at)
	if !res.OK() {
		a.logger.Warn("Failed to mark medication taken", zap.Int("id", id), zap.String("error", res.Error))
		return res.Err()
	}
	if !res.HasData() {
		a.logger.Debug("Medication update confirmed without a body", zap.Int("id", id))
		return nil
	}
	m := res.Data
	m.ID = id
	a.update(func(s *Snapshot) { s.Medications = replaceByID(s.Medications, m, medicationID) })
	return nil
}

func (a *Aggregator) AddAppointment(ctx context.Context, req models.CreateAppointmentRequest) (models.Appointment, error) {
	a.setLoading(true)
	defer a.setLoading(false)

	res := a.svc.Appointments.Create(ctx, req)
	if !res.OK() {
		a.logger.Warn("Failed to add appointment", zap.String("error", res.Error))
		return models.Appointment{}, res.Err()
	}
	if !res.HasData() {
		a.logger.Warn("Backend created an appointment but returned none")
		return models.Appointment{}, errors.ErrInvalidResponse.WithMessage("backend returned no appointment")
	}
	appt := res.Data
	a.update(func(s *Snapshot) {
		s.Appointments = append(slices.Clone(s.Appointments), appt)
	})
	return appt, nil
}

func (a *Aggregator) UpdateAppointment(ctx context.Context, id int, patch models.AppointmentPatch) error {
	a.setLoading(true)
	defer a.setLoading(false)

	res := a.svc.Appointments.Update(ctx, id, patch)
	if !res.OK() {
		a.logger.Warn("Failed to update appointment", zap.Int("id", id), zap.String("error", res.Error))
		return res.Err()
	}
	if !res.HasData() {
		a.logger.Debug("Appointment update confirmed without a body", zap.Int("id", id))
		return nil
	}
	appt := res.Data
	appt.ID = id
	a.update(func(s *Snapshot) { s.Appointments = replaceByID(s.Appointments, appt, appointmentID) })
	return nil
}

func (a *Aggregator) CancelAppointment(ctx context.Context, id int) error {
	return a.UpdateAppointment(ctx, id, models.AppointmentPatch{"status": string(models.StatusCancelled)})
}

func (a *Aggregator) DeleteAppointment(ctx context.Context, id int) error {
	res := a.svc.Appointments.Delete(ctx, id)
	if !res.OK() {
		a.logger.Warn("Failed to delete appointment", zap.Int("id", id), zap.String("error", res.Error))
		return res.Err()
	}
	a.update(func(s *Snapshot) {
		s.Appointments = slices.DeleteFunc(slices.Clone(s.Appointments), func(ap models.Appointment) bool { return ap.ID == id })
	})
	return nil
}
