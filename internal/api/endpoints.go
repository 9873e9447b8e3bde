package api

// Endpoint identifies a backend operation. Several endpoints may share a
// path template but they are distinct operations.
type Endpoint int

const (
	UserLogin Endpoint = iota + 1
	UserLogout
	UserRegister
	User
	UserUpdate

	Doctors
	DoctorByID

	Appointments
	AppointmentByID
	AppointmentCreate
	AppointmentUpdate
	AppointmentDelete

	Medications
	MedicationByID
	MedicationMarkTaken

	HealthRecords
	HealthRecordByID

	Notifications
	NotificationMarkRead
	NotificationMarkAllRead

	Pharmacies
	PharmacyByID

	EmergencyContacts

	FeedbackSubmit
	FeedbackList
)

type endpointInfo struct {
	name string
	path string
}

var endpointTable = map[Endpoint]endpointInfo{
	UserLogin:    {"USER_LOGIN", "/api/auth/login"},
	UserLogout:   {"USER_LOGOUT", "/api/auth/logout"},
	UserRegister: {"USER_REGISTER", "/api/auth/register"},
	User:         {"USER", "/api/auth/user"},
	UserUpdate:   {"USER_UPDATE", "/api/auth/user/update"},

	Doctors:    {"DOCTORS", "/api/doctors"},
	DoctorByID: {"DOCTOR_BY_ID", "/api/doctors/:id"},

	Appointments:      {"APPOINTMENTS", "/api/appointments"},
	AppointmentByID:   {"APPOINTMENT_BY_ID", "/api/appointments/:id"},
	AppointmentCreate: {"APPOINTMENT_CREATE", "/api/appointments/create"},
	AppointmentUpdate: {"APPOINTMENT_UPDATE", "/api/appointments/:id"},
	AppointmentDelete: {"APPOINTMENT_DELETE", "/api/appointments/:id"},

	Medications:         {"MEDICATIONS", "/api/medications"},
	MedicationByID:      {"MEDICATION_BY_ID", "/api/medications/:id"},
	MedicationMarkTaken: {"MEDICATION_MARK_TAKEN", "/api/medications/:id/taken"},

	HealthRecords:    {"HEALTH_RECORDS", "/api/health-records"},
	HealthRecordByID: {"HEALTH_RECORD_BY_ID", "/api/health-records/:id"},

	Notifications:           {"NOTIFICATIONS", "/api/notifications"},
	NotificationMarkRead:    {"NOTIFICATION_MARK_READ", "/api/notifications/:id/read"},
	NotificationMarkAllRead: {"NOTIFICATION_MARK_ALL_READ", "/api/notifications/read-all"},

	Pharmacies:   {"PHARMACIES", "/api/pharmacies"},
	PharmacyByID: {"PHARMACY_BY_ID", "/api/pharmacies/:id"},

	EmergencyContacts: {"EMERGENCY_CONTACTS", "/api/emergency-contacts"},

	FeedbackSubmit: {"FEEDBACK_SUBMIT", "/api/feedback/submit"},
	FeedbackList:   {"FEEDBACK_LIST", "/api/feedback"},
}

// Path returns the path template, e.g. "/api/doctors/:id".
func (e Endpoint) Path() string {
	return endpointTable[e].path
}

func (e Endpoint) String() string {
	if info, ok := endpointTable[e]; ok {
		return info.name
	}
	return "UNKNOWN"
}

// Valid reports whether e is a registered endpoint.
func (e Endpoint) Valid() bool {
	_, ok := endpointTable[e]
	return ok
}

// Endpoints lists every registered endpoint in declaration order.
func Endpoints() []Endpoint {
	out := make([]Endpoint, 0, len(endpointTable))
	for e := UserLogin; e <= FeedbackList; e++ {
		out = append(out, e)
	}
	return out
}
