package models

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by both login and register
type LoginResponse struct {
	Success      bool   `json:"success"`
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         *User  `json:"user,omitempty"`
	Message      string `json:"message,omitempty"`
}

// RegisterRequest carries credentials plus the initial profile
type RegisterRequest struct {
	LoginRequest
	FullName    string `json:"fullName"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Address     string `json:"address,omitempty"`
}

// UserPatch holds only the profile fields being changed, keyed by wire name.
type UserPatch map[string]any

type UpdateUserRequest struct {
	Updates UserPatch `json:"updates"`
}

type CreateAppointmentRequest struct {
	DoctorID int    `json:"doctorId"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Type     string `json:"type"`
	Reason   string `json:"reason"`
}

// AppointmentPatch holds only the appointment fields being changed, keyed by wire name.
type AppointmentPatch map[string]any

type MarkTakenRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}
