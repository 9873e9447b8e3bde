package models

import (
	"encoding/json"
	"maps"
	"slices"
)

// Clone returns a copy of u that shares no slices with it.
func (u User) Clone() User {
	out := u
	out.MedicalInfo.Allergies = slices.Clone(u.MedicalInfo.Allergies)
	out.MedicalInfo.ChronicConditions = slices.Clone(u.MedicalInfo.ChronicConditions)
	return out
}

func (d Doctor) Clone() Doctor {
	out := d
	out.Education = slices.Clone(d.Education)
	out.Languages = slices.Clone(d.Languages)
	return out
}

// Clone returns a copy of m with its own dose times, end date and intake log.
func (m Medication) Clone() Medication {
	out := m
	out.Times = slices.Clone(m.Times)
	if m.EndDate != nil {
		end := *m.EndDate
		out.EndDate = &end
	}
	if m.Taken != nil {
		out.Taken = make(map[string][]string, len(m.Taken))
		for d, times := range m.Taken {
			out.Taken[d] = slices.Clone(times)
		}
	}
	return out
}

func (p Pharmacy) Clone() Pharmacy {
	out := p
	out.Hours = maps.Clone(p.Hours)
	out.Services = slices.Clone(p.Services)
	return out
}

// Clone returns a copy of r whose payload is a separate value.
func (r HealthRecord) Clone() HealthRecord {
	out := r
	switch p := r.Payload.(type) {
	case *LabPayload:
		c := *p
		c.Results = maps.Clone(p.Results)
		out.Payload = &c
	case *ImagingPayload:
		c := *p
		out.Payload = &c
	case *PrescriptionPayload:
		c := *p
		out.Payload = &c
	case *VitalsPayload:
		c := *p
		c.Vitals = maps.Clone(p.Vitals)
		out.Payload = &c
	case *VisitPayload:
		c := *p
		out.Payload = &c
	case *GenericPayload:
		c := *p
		c.Raw = make(map[string]json.RawMessage, len(p.Raw))
		for k, v := range p.Raw {
			c.Raw[k] = slices.Clone(v)
		}
		out.Payload = &c
	}
	return out
}
