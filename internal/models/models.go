// Package models defines the entities exchanged with the medigate backend.
package models

import (
	"slices"
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates ("2025-03-14").
const DateLayout = "2006-01-02"

// User represents the signed-in patient
type User struct {
	ID               int                  `json:"id"`
	FullName         string               `json:"fullName"`
	Email            string               `json:"email"`
	Phone            string               `json:"phone"`
	DateOfBirth      string               `json:"dateOfBirth"`
	Gender           string               `json:"gender"`
	Address          string               `json:"address"`
	Avatar           string               `json:"avatar"`
	MemberSince      string               `json:"memberSince"`
	EmergencyContact EmergencyContactInfo `json:"emergencyContact"`
	MedicalInfo      MedicalInfo          `json:"medicalInfo"`
	Preferences      Preferences          `json:"preferences"`
}

// EmergencyContactInfo is the user's personal emergency contact
type EmergencyContactInfo struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type MedicalInfo struct {
	BloodType         string   `json:"bloodType"`
	Height            string   `json:"height"`
	Weight            string   `json:"weight"`
	Allergies         []string `json:"allergies"`
	ChronicConditions []string `json:"chronicConditions"`
	InsuranceProvider string   `json:"insuranceProvider"`
	InsuranceID       string   `json:"insuranceId"`
}

type Preferences struct {
	PushNotifications  bool   `json:"pushNotifications"`
	EmailNotifications bool   `json:"emailNotifications"`
	SMSNotifications   bool   `json:"smsNotifications"`
	DarkMode           bool   `json:"darkMode"`
	BiometricAuth      bool   `json:"biometricAuth"`
	Language           string `json:"language"`
}

// Doctor is a read-only catalog entry
type Doctor struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Specialty       string   `json:"specialty"`
	Phone           string   `json:"phone"`
	Email           string   `json:"email"`
	Avatar          string   `json:"avatar"`
	LastSeen        string   `json:"lastSeen"`
	Verified        bool     `json:"verified"`
	Rating          float64  `json:"rating"`
	Reviews         int      `json:"reviews"`
	Experience      string   `json:"experience"`
	About           string   `json:"about"`
	Education       []string `json:"education"`
	Languages       []string `json:"languages"`
	Availability    string   `json:"availability"`
	ConsultationFee float64  `json:"consultationFee"`
}

// SpeaksLanguage reports whether lang is among the doctor's languages, ignoring case.
func (d Doctor) SpeaksLanguage(lang string) bool {
	return slices.ContainsFunc(d.Languages, func(l string) bool {
		return strings.EqualFold(l, lang)
	})
}

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment references a Doctor by id; it does not own it
type Appointment struct {
	ID         int               `json:"id"`
	DoctorID   int               `json:"doctorId"`
	DoctorName string            `json:"doctorName"`
	Specialty  string            `json:"specialty"`
	Date       string            `json:"date"`
	Time       string            `json:"time"`
	Status     AppointmentStatus `json:"status"`
	Type       string            `json:"type"`
	Reason     string            `json:"reason"`
	Location   string            `json:"location,omitempty"`
	Notes      string            `json:"notes,omitempty"`
}

// IsUpcoming reports whether the appointment falls on today or later and is
// not completed. Dates that cannot be parsed count as past.
func (a Appointment) IsUpcoming(now time.Time) bool {
	if a.Status == StatusCompleted {
		return false
	}
	day, err := ParseDate(a.Date)
	if err != nil {
		return false
	}
	y, m, d := now.In(day.Location()).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	return !day.Before(today)
}

// Medication is a prescribed medication with its intake log
type Medication struct {
	ID           int                 `json:"id"`
	Name         string              `json:"name"`
	Dosage       string              `json:"dosage"`
	Frequency    string              `json:"frequency"`
	Times        []string            `json:"times"`
	StartDate    string              `json:"startDate"`
	EndDate      *string             `json:"endDate"`
	PrescribedBy string              `json:"prescribedBy"`
	Instructions string              `json:"instructions"`
	Refills      int                 `json:"refills"`
	Color        string              `json:"color"`
	Available    bool                `json:"available"`
	Taken        map[string][]string `json:"taken"`
}

// HasTaken reports whether the dose at (date, time) is already logged.
func (m Medication) HasTaken(date, at string) bool {
	return slices.Contains(m.Taken[date], at)
}

// WithTaken returns a copy of m with (date, time) logged. A pair already
// present is not appended twice.
func (m Medication) WithTaken(date, at string) Medication {
	out := m
	out.Taken = make(map[string][]string, len(m.Taken)+1)
	for d, times := range m.Taken {
		out.Taken[d] = slices.Clone(times)
	}
	if !slices.Contains(out.Taken[date], at) {
		out.Taken[date] = append(out.Taken[date], at)
	}
	return out
}

// ActiveOn reports whether the course has not ended before now.
func (m Medication) ActiveOn(now time.Time) bool {
	if m.EndDate == nil || *m.EndDate == "" {
		return true
	}
	end, err := ParseDate(*m.EndDate)
	if err != nil {
		return true
	}
	// the end date is inclusive
	return now.Before(end.AddDate(0, 0, 1))
}

type Notification struct {
	ID         int    `json:"id"`
	Type       string `json:"type"`
	Icon       string `json:"icon"`
	IconBg     string `json:"iconBg"`
	IconColor  string `json:"iconColor"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Time       string `json:"time"`
	Timestamp  string `json:"timestamp"`
	Read       bool   `json:"read"`
	Actionable bool   `json:"actionable"`
	Action     string `json:"action,omitempty"`
}

type Pharmacy struct {
	ID       int               `json:"id"`
	Name     string            `json:"name"`
	Distance string            `json:"distance"`
	Rating   float64           `json:"rating"`
	Reviews  int               `json:"reviews"`
	Open     bool              `json:"open"`
	Address  string            `json:"address"`
	Phone    string            `json:"phone"`
	Hours    map[string]string `json:"hours"`
	Services []string          `json:"services"`
}

// Emergency contact categories
const (
	ContactEmergencyServices = "Emergency Services"
	ContactPrimaryCare       = "Primary Care"
	ContactSpecialist        = "Specialist"
	ContactFamily            = "Family"
	ContactHospital          = "Hospital"
)

type EmergencyContact struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
}

// ParseDate accepts a bare date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
