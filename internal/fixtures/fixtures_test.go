package fixtures

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/medigate/medigate-cli/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundled(t *testing.T) {
	data, err := Bundled()
	require.NoError(t, err)

	assert.Equal(t, "demo@example.com", data.User.Email)
	assert.Equal(t, "Demo User", data.User.FullName)
	assert.NotEmpty(t, data.Doctors)
	assert.NotEmpty(t, data.Appointments)
	assert.NotEmpty(t, data.Notifications)
	assert.Len(t, data.EmergencyContacts, 5)

	require.NotEmpty(t, data.HealthRecords)
	lab, ok := data.HealthRecords[0].Payload.(*models.LabPayload)
	require.True(t, ok)
	assert.Equal(t, "13.8 g/dL", lab.Results["hemoglobin"])

	var lisinopril models.Medication
	for _, m := range data.Medications {
		if m.Name == "Lisinopril" {
			lisinopril = m
		}
	}
	assert.Nil(t, lisinopril.EndDate)
	assert.True(t, lisinopril.HasTaken("2025-03-01", "08:00"))
}

func TestParse_MissingSectionsAreEmpty(t *testing.T) {
	data, err := Parse([]byte("user:\n  id: 9\n  fullName: Solo\n"))
	require.NoError(t, err)

	assert.Equal(t, 9, data.User.ID)
	assert.NotNil(t, data.Doctors)
	assert.Empty(t, data.Doctors)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("user: [unclosed"))
	assert.Error(t, err)
}

func TestDataset_MarkTakenIsIdempotent(t *testing.T) {
	data, err := Bundled()
	require.NoError(t, err)
	ds := NewDataset(data)

	_, ok := ds.MarkTaken(1, "2025-03-02", "08:00")
	require.True(t, ok)
	med, ok := ds.MarkTaken(1, "2025-03-02", "08:00")
	require.True(t, ok)

	assert.Equal(t, []string{"08:00"}, med.Taken["2025-03-02"])

	_, ok = ds.MarkTaken(999, "2025-03-02", "08:00")
	assert.False(t, ok)
}

func TestDataset_AppointmentLifecycle(t *testing.T) {
	data, err := Bundled()
	require.NoError(t, err)
	ds := NewDataset(data)
	before := len(ds.Snapshot().Appointments)

	appt := ds.CreateAppointment(models.CreateAppointmentRequest{
		DoctorID: 2, Date: "2031-06-01", Time: "09:00 AM", Type: "In-person", Reason: "Follow-up",
	})
	assert.Greater(t, appt.ID, 0)
	assert.Equal(t, "Dr. Michael Chen", appt.DoctorName)
	assert.Equal(t, models.StatusScheduled, appt.Status)

	updated, err := ds.UpdateAppointment(appt.ID, models.AppointmentPatch{"status": "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Equal(t, "Follow-up", updated.Reason)

	_, err = ds.UpdateAppointment(4242, models.AppointmentPatch{"status": "cancelled"})
	assert.Error(t, err)

	assert.True(t, ds.DeleteAppointment(appt.ID))
	assert.False(t, ds.DeleteAppointment(appt.ID))
	assert.Len(t, ds.Snapshot().Appointments, before)
}

func TestDataset_Notifications(t *testing.T) {
	data, err := Bundled()
	require.NoError(t, err)
	ds := NewDataset(data)

	n, ok := ds.MarkNotificationRead(1)
	require.True(t, ok)
	assert.True(t, n.Read)

	_, ok = ds.MarkNotificationRead(404)
	assert.False(t, ok)

	assert.Equal(t, 1, ds.MarkAllNotificationsRead())
	assert.Equal(t, 0, ds.MarkAllNotificationsRead())
}

func TestDataset_UpdateUserKeepsID(t *testing.T) {
	ds := NewDataset(Fallback())

	u, err := ds.UpdateUser(models.UserPatch{"id": 77, "phone": "555-0000"})
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
	assert.Equal(t, "555-0000", u.Phone)
	assert.Equal(t, "Demo User", ds.User().FullName)
}

func TestDataset_SnapshotIsIsolated(t *testing.T) {
	data, err := Bundled()
	require.NoError(t, err)
	ds := NewDataset(data)

	snap := ds.Snapshot()
	snap.Doctors[0].Name = "changed"

	d, ok := ds.Doctor(snap.Doctors[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, "changed", d.Name)
}

func TestDataset_Authenticate(t *testing.T) {
	ds := NewDataset(Fallback())

	_, ok := ds.Authenticate("", "secret")
	assert.False(t, ok)
	_, ok = ds.Authenticate("demo@example.com", "")
	assert.False(t, ok)
	u, ok := ds.Authenticate("demo@example.com", "secret")
	assert.True(t, ok)
	assert.Equal(t, "Demo User", u.FullName)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user:\n  fullName: Before\n"), 0600))

	initial, err := LoadFile(path)
	require.NoError(t, err)
	ds := NewDataset(initial)

	w := NewWatcher(path, ds, nil)
	var mu sync.Mutex
	reloads := 0
	w.onReload = func() {
		mu.Lock()
		reloads++
		mu.Unlock()
	}
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	assert.Error(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("user:\n  fullName: After\n"), 0600))

	assert.Eventually(t, func() bool {
		return ds.User().FullName == "After"
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Positive(t, reloads)
	mu.Unlock()
}

func TestWatcher_KeepsDataOnBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user: [broken"), 0600))

	ds := NewDataset(Fallback())
	w := NewWatcher(path, ds, nil)
	w.reload()

	assert.Equal(t, "Demo User", ds.User().FullName)
}
