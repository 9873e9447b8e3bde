package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RecordCategory selects the payload variant of a HealthRecord
type RecordCategory string

const (
	CategoryLab          RecordCategory = "lab"
	CategoryImaging      RecordCategory = "imaging"
	CategoryPrescription RecordCategory = "prescription"
	CategoryVitals       RecordCategory = "vitals"
	CategoryVisit        RecordCategory = "visit"
)

// RecordPayload is the category-specific clinical content of a record.
// Implementations: *LabPayload, *ImagingPayload, *PrescriptionPayload,
// *VitalsPayload, *VisitPayload, *GenericPayload.
type RecordPayload interface {
	Category() RecordCategory
}

type LabPayload struct {
	Description string            `json:"description,omitempty"`
	Results     map[string]string `json:"results,omitempty"`
}

func (*LabPayload) Category() RecordCategory { return CategoryLab }

type ImagingPayload struct {
	Description string `json:"description,omitempty"`
	Findings    string `json:"findings,omitempty"`
}

func (*ImagingPayload) Category() RecordCategory { return CategoryImaging }

type PrescriptionPayload struct {
	Medication   string `json:"medication,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

func (*PrescriptionPayload) Category() RecordCategory { return CategoryPrescription }

type VitalsPayload struct {
	Vitals map[string]string `json:"vitals,omitempty"`
}

func (*VitalsPayload) Category() RecordCategory { return CategoryVitals }

type VisitPayload struct {
	Description string `json:"description,omitempty"`
	Findings    string `json:"findings,omitempty"`
}

func (*VisitPayload) Category() RecordCategory { return CategoryVisit }

// GenericPayload keeps the raw fields of a category this client does not know.
type GenericPayload struct {
	Name RecordCategory
	Raw  map[string]json.RawMessage
}

func (g *GenericPayload) Category() RecordCategory { return g.Name }

// HealthRecord is a clinical document. The wire format is flat; the payload
// fields are selected by Category on decode.
type HealthRecord struct {
	ID       int            `json:"id"`
	Title    string         `json:"title"`
	Date     string         `json:"date"`
	Type     string         `json:"type"`
	Category RecordCategory `json:"category"`
	Icon     string         `json:"icon"`
	Doctor   string         `json:"doctor"`
	Status   string         `json:"status,omitempty"`
	Payload  RecordPayload  `json:"-"`
}

// recordHeader mirrors HealthRecord without its methods so encoding does not recurse.
type recordHeader struct {
	ID       int            `json:"id"`
	Title    string         `json:"title"`
	Date     string         `json:"date"`
	Type     string         `json:"type"`
	Category RecordCategory `json:"category"`
	Icon     string         `json:"icon"`
	Doctor   string         `json:"doctor"`
	Status   string         `json:"status,omitempty"`
}

var headerFields = map[string]bool{
	"id": true, "title": true, "date": true, "type": true,
	"category": true, "icon": true, "doctor": true, "status": true,
}

func (r *HealthRecord) UnmarshalJSON(data []byte) error {
	var h recordHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}
	*r = HealthRecord{
		ID: h.ID, Title: h.Title, Date: h.Date, Type: h.Type,
		Category: h.Category, Icon: h.Icon, Doctor: h.Doctor, Status: h.Status,
	}

	cat := RecordCategory(strings.ToLower(string(h.Category)))
	var payload RecordPayload
	switch cat {
	case CategoryLab:
		payload = &LabPayload{}
	case CategoryImaging:
		payload = &ImagingPayload{}
	case CategoryPrescription:
		payload = &PrescriptionPayload{}
	case CategoryVitals:
		payload = &VitalsPayload{}
	case CategoryVisit:
		payload = &VisitPayload{}
	default:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		for k := range fields {
			if headerFields[k] {
				delete(fields, k)
			}
		}
		r.Payload = &GenericPayload{Name: h.Category, Raw: fields}
		return nil
	}

	if err := decodeLoose(data, payload); err != nil {
		return fmt.Errorf("decode %s record %d: %w", cat, h.ID, err)
	}
	r.Payload = payload
	return nil
}

func (r HealthRecord) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	switch p := r.Payload.(type) {
	case nil:
	case *GenericPayload:
		for k, v := range p.Raw {
			out[k] = v
		}
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, err
		}
	}

	b, err := json.Marshal(recordHeader{
		ID: r.ID, Title: r.Title, Date: r.Date, Type: r.Type,
		Category: r.Category, Icon: r.Icon, Doctor: r.Doctor, Status: r.Status,
	})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// When parses the record date; unparseable dates sort as the zero time.
func (r HealthRecord) When() time.Time {
	t, err := ParseDate(r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// decodeLoose decodes payload fields, rendering non-string scalar values
// (e.g. numeric lab results) as strings.
func decodeLoose(data []byte, payload RecordPayload) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, key := range []string{"results", "vitals"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var loose map[string]any
		if err := json.Unmarshal(raw, &loose); err != nil {
			delete(fields, key)
			continue
		}
		flat := make(map[string]string, len(loose))
		for k, v := range loose {
			if s, ok := v.(string); ok {
				flat[k] = s
			} else {
				flat[k] = fmt.Sprint(v)
			}
		}
		b, _ := json.Marshal(flat)
		fields[key] = b
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, payload)
}
