// Package fixtures holds the bundled demo dataset used in local mode.
package fixtures

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/medigate/medigate-cli/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/fixture.yaml
var bundled []byte

// Data is the full set of entities a signed-in user can see.
type Data struct {
	User              models.User               `json:"user"`
	Doctors           []models.Doctor           `json:"doctors"`
	Appointments      []models.Appointment      `json:"appointments"`
	Medications       []models.Medication       `json:"medications"`
	HealthRecords     []models.HealthRecord     `json:"healthRecords"`
	Notifications     []models.Notification     `json:"notifications"`
	Pharmacies        []models.Pharmacy         `json:"pharmacies"`
	EmergencyContacts []models.EmergencyContact `json:"emergencyContacts"`
}

// Fallback is served when no dataset can be read at all.
func Fallback() *Data {
	return &Data{
		User:              models.User{ID: 1, FullName: "Demo User", Email: "demo@example.com"},
		Doctors:           []models.Doctor{},
		Appointments:      []models.Appointment{},
		Medications:       []models.Medication{},
		HealthRecords:     []models.HealthRecord{},
		Notifications:     []models.Notification{},
		Pharmacies:        []models.Pharmacy{},
		EmergencyContacts: []models.EmergencyContact{},
	}
}

// Bundled returns a fresh copy of the embedded dataset.
func Bundled() (*Data, error) {
	return Parse(bundled)
}

// LoadFile reads a dataset from a YAML (or JSON) file on disk.
func LoadFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document into Data. The document goes through JSON so
// the models' wire tags and custom decoders (health record payloads) apply.
func Parse(raw []byte) (*Data, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse fixture yaml: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert fixture: %w", err)
	}

	data := Fallback()
	if err := json.Unmarshal(b, data); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return data, nil
}

// Clone deep-copies d through its wire form.
func (d *Data) Clone() *Data {
	b, err := json.Marshal(d)
	if err != nil {
		return Fallback()
	}
	out := Fallback()
	if err := json.Unmarshal(b, out); err != nil {
		return Fallback()
	}
	return out
}
