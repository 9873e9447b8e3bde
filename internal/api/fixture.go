package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medigate/medigate-cli/internal/fixtures"
	"github.com/medigate/medigate-cli/internal/models"
	"go.uber.org/zap"
)

const fixtureTokenTTL = 24 * time.Hour

// FixtureOptions configures the local backend
type FixtureOptions struct {
	// Latency is the simulated round-trip delay; zero disables it.
	Latency time.Duration
	// Secret signs the tokens handed out by login and register.
	Secret []byte
	Now    func() time.Time
}

type fixtureHandler func(ctx context.Context, req Request) Result[json.RawMessage]

// FixtureBackend answers requests from an in-process dataset. Mutating
// endpoints change the dataset so later reads observe them.
type FixtureBackend struct {
	data     *fixtures.Dataset
	opts     FixtureOptions
	handlers map[Endpoint]fixtureHandler
	logger   *zap.Logger
}

func NewFixtureBackend(ds *fixtures.Dataset, opts FixtureOptions, logger *zap.Logger) *FixtureBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ds == nil {
		if data, err := fixtures.Bundled(); err == nil {
			ds = fixtures.NewDataset(data)
		} else {
			logger.Warn("Bundled fixtures unreadable, serving empty dataset", zap.Error(err))
			ds = fixtures.NewDataset(fixtures.Fallback())
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("medigate-local")
	}

	b := &FixtureBackend{data: ds, opts: opts, logger: logger}
	b.handlers = map[Endpoint]fixtureHandler{
		UserLogin:    b.login,
		UserRegister: b.register,
		User:         b.user,
		UserUpdate:   b.updateUser,

		Doctors:    b.list(func(d *fixtures.Data) any { return d.Doctors }),
		DoctorByID: byID("Doctor", ds.Doctor),

		Appointments:      b.list(func(d *fixtures.Data) any { return d.Appointments }),
		AppointmentByID:   byID("Appointment", ds.Appointment),
		AppointmentCreate: b.createAppointment,
		AppointmentUpdate: b.updateAppointment,
		AppointmentDelete: b.deleteAppointment,

		Medications:         b.list(func(d *fixtures.Data) any { return d.Medications }),
		MedicationByID:      byID("Medication", ds.Medication),
		MedicationMarkTaken: b.markTaken,

		HealthRecords:    b.list(func(d *fixtures.Data) any { return d.HealthRecords }),
		HealthRecordByID: byID("Health record", ds.HealthRecord),

		Notifications:           b.list(func(d *fixtures.Data) any { return d.Notifications }),
		NotificationMarkRead:    b.markRead,
		NotificationMarkAllRead: b.markAllRead,

		Pharmacies:   b.list(func(d *fixtures.Data) any { return d.Pharmacies }),
		PharmacyByID: byID("Pharmacy", ds.Pharmacy),

		EmergencyContacts: b.list(func(d *fixtures.Data) any { return d.EmergencyContacts }),

		FeedbackSubmit: b.submitFeedback,
		FeedbackList:   func(context.Context, Request) Result[json.RawMessage] { return respond([]any{}) },
	}
	return b
}

func (b *FixtureBackend) Mode() string {
	return "local"
}

// Dataset exposes the data the backend serves.
func (b *FixtureBackend) Dataset() *fixtures.Dataset {
	return b.data
}

// VerifyToken checks a token handed out by this backend's login.
func (b *FixtureBackend) VerifyToken(token string) (*TokenClaims, error) {
	return VerifyToken(b.opts.Secret, token)
}

// Handles reports whether e has a dedicated handler; others echo the body.
func (b *FixtureBackend) Handles(e Endpoint) bool {
	_, ok := b.handlers[e]
	return ok
}

func (b *FixtureBackend) Do(ctx context.Context, req Request) Result[json.RawMessage] {
	if b.opts.Latency > 0 {
		t := time.NewTimer(b.opts.Latency)
		select {
		case <-ctx.Done():
			t.Stop()
			return Fail[json.RawMessage]("Network error: " + ctx.Err().Error())
		case <-t.C:
		}
	}

	h, ok := b.handlers[req.Endpoint]
	if !ok {
		return respond(req.Body)
	}
	return h(ctx, req)
}

func respond(v any) Result[json.RawMessage] {
	b, err := json.Marshal(v)
	if err != nil {
		return Fail[json.RawMessage](fmt.Sprintf("Local data error: %v", err))
	}
	return Ok(json.RawMessage(b))
}

// bind decodes a request body of any shape into T.
func bind[T any](body any) (T, error) {
	var out T
	if body == nil {
		return out, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}

func paramID(req Request) (int, error) {
	id, err := strconv.Atoi(req.Params["id"])
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", req.Params["id"])
	}
	return id, nil
}

func (b *FixtureBackend) list(pick func(*fixtures.Data) any) fixtureHandler {
	return func(context.Context, Request) Result[json.RawMessage] {
		return respond(pick(b.data.Snapshot()))
	}
}

func byID[T any](kind string, lookup func(int) (T, bool)) fixtureHandler {
	return func(_ context.Context, req Request) Result[json.RawMessage] {
		id, err := paramID(req)
		if err != nil {
			return Fail[json.RawMessage](err.Error())
		}
		v, ok := lookup(id)
		if !ok {
			return Fail[json.RawMessage](fmt.Sprintf("%s not found", kind))
		}
		return respond(v)
	}
}

func (b *FixtureBackend) issue(u models.User) (string, error) {
	return IssueToken(b.opts.Secret, u, fixtureTokenTTL, b.opts.Now())
}

func (b *FixtureBackend) login(_ context.Context, req Request) Result[json.RawMessage] {
	creds, err := bind[models.LoginRequest](req.Body)
	if err != nil {
		return Fail[json.RawMessage]("Invalid credentials")
	}
	u, ok := b.data.Authenticate(creds.Email, creds.Password)
	if !ok {
		return Fail[json.RawMessage]("Invalid credentials")
	}
	token, err := b.issue(u)
	if err != nil {
		return Fail[json.RawMessage](err.Error())
	}
	return respond(models.LoginResponse{Success: true, Token: token, User: &u})
}

func (b *FixtureBackend) register(_ context.Context, req Request) Result[json.RawMessage] {
	in, err := bind[models.RegisterRequest](req.Body)
	if err != nil || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return Fail[json.RawMessage]("Email and password are required")
	}
	u := b.data.Register(in)
	token, err := b.issue(u)
	if err != nil {
		return Fail[json.RawMessage](err.Error())
	}
	return respond(models.LoginResponse{Success: true, Token: token, User: &u})
}

func (b *FixtureBackend) user(context.Context, Request) Result[json.RawMessage] {
	return respond(b.data.User())
}

func (b *FixtureBackend) updateUser(_ context.Context, req Request) Result[json.RawMessage] {
	in, err := bind[models.UpdateUserRequest](req.Body)
	if err != nil {
		return Fail[json.RawMessage](err.Error())
	}
	u, err := b.data.UpdateUser(in.Updates)
	if err != nil {
		return Fail[json.RawMessage](err.Error())
	}
	return respond(u)
}

func (b *FixtureBackend) createAppointment(_ context.Context, req Request) Result[json.RawMessage] {
	in, err := bind[models.CreateAppointmentRequest](req.Body)
	if err != nil {
		return Fail[json.RawMessage](err.Error())
	}
	if in.DoctorID == 0 || in.Date == "" {
		return Fail[json.RawMessage]("doctorId and date are required")
	}
	return respond(b.data.CreateAppointment(in))
}

func (b *FixtureBackend) updateAppointment(_ context.Context, req Request) Result[json.RawMessage] {
	id, err := paramID(req)
	if err != nil {
		return Fail[json.RawMessage](err.Error())
	}
	patch, err := bind[models.AppointmentPatch](req.Body)
	if err != nil {
		return Fail[json.RawMessage](err.Error())
	}
	a, err := b.data.UpdateAppointment(id, patch)
	if err != nil {
		return Fail[json.RawMessage](err.Error())
	}
	return respond(a)
}

func (b *FixtureBackend) deleteAppointment(_ context.Context, req Request) Result[json.RawMessage] {
	id, err := paramID(req)
	if err != nil {
		return Fail[json.RawMessage](err.Error())
	}
	if !b.data.DeleteAppointment(id) {
		return Fail[json.RawMessage]("Appointment not found")
	}
	return Ok[json.RawMessage](nil)
}

func (b *FixtureBackend) markTaken(_ context.Context, req Request) Result[json.RawMessage] {
	id, err := paramID(req)
	if err != nil {
		return Fail[json.RawMessage](err.Error())
	}
	in, err := bind[models.MarkTakenRequest](req.Body)
	if err != nil || in.Date == "" || in.Time == "" {
		return Fail[json.RawMessage]("date and time are required")
	}
	med, ok := b.data.MarkTaken(id, in.Date, in.Time)
	if !ok {
		return Fail[json.RawMessage]("Medication not found")
	}
	return respond(med)
}

func (b *FixtureBackend) markRead(_ context.Context, req Request) Result[json.RawMessage] {
	id, err := paramID(req)
	if err != nil {
		return Fail[json.RawMessage](err.Error())
	}
	n, ok := b.data.MarkNotificationRead(id)
	if !ok {
		return Fail[json.RawMessage]("Notification not found")
	}
	return respond(n)
}

func (b *FixtureBackend) markAllRead(context.Context, Request) Result[json.RawMessage] {
	return respond(map[string]int{"updated": b.data.MarkAllNotificationsRead()})
}

func (b *FixtureBackend) submitFeedback(_ context.Context, req Request) Result[json.RawMessage] {
	b.logger.Info("Feedback submitted (local mode)", zap.Any("feedback", req.Body))
	return respond(models.FeedbackReceipt{
		ID:      "local_feedback_" + uuid.NewString(),
		Message: "Feedback submitted successfully (local mode)",
	})
}
