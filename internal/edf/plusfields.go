package edf

import (
	"strings"
	"time"
)

// Unknown is the EDF+ sentinel for a subfield whose value is not known.
const Unknown = "X"

// PatientID is the EDF+ "local patient identification" field: code, sex,
// birthdate (dd-MMM-yyyy) and name, space separated, with underscores
// standing in for spaces inside a subfield.
type PatientID struct {
	Code      string
	Sex       string
	Birthdate string
	Name      string
	Extra     []string
}

// ParsePatientID splits the raw patient field into EDF+ subfields. Missing
// trailing subfields come back as the unknown sentinel, so plain-EDF
// patient strings degrade gracefully.
func ParsePatientID(raw string) PatientID {
	parts := strings.Fields(raw)
	p := PatientID{Code: Unknown, Sex: Unknown, Birthdate: Unknown, Name: Unknown}
	if len(parts) > 0 {
		p.Code = parts[0]
	}
	if len(parts) > 1 {
		p.Sex = parts[1]
	}
	if len(parts) > 2 {
		p.Birthdate = parts[2]
	}
	if len(parts) > 3 {
		p.Name = parts[3]
	}
	if len(parts) > 4 {
		p.Extra = parts[4:]
	}
	return p
}

// Encode joins the subfields back into field form.
func (p PatientID) Encode() string {
	parts := []string{orUnknown(p.Code), orUnknown(p.Sex), orUnknown(p.Birthdate), orUnknown(p.Name)}
	parts = append(parts, p.Extra...)
	return strings.Join(parts, " ")
}

// RecordingID is the EDF+ "local recording identification" field:
// "Startdate dd-MMM-yyyy admincode technician equipment".
type RecordingID struct {
	StartDate  string
	AdminCode  string
	Technician string
	Equipment  string
	Extra      []string
	// Plus is false when the field does not follow the EDF+ convention;
	// the raw text is then carried in Extra untouched.
	Plus bool
}

// ParseRecordingID splits the raw recording field into EDF+ subfields.
func ParseRecordingID(raw string) RecordingID {
	parts := strings.Fields(raw)
	if len(parts) == 0 || parts[0] != "Startdate" {
		return RecordingID{Extra: parts}
	}
	r := RecordingID{StartDate: Unknown, AdminCode: Unknown, Technician: Unknown, Equipment: Unknown, Plus: true}
	if len(parts) > 1 {
		r.StartDate = parts[1]
	}
	if len(parts) > 2 {
		r.AdminCode = parts[2]
	}
	if len(parts) > 3 {
		r.Technician = parts[3]
	}
	if len(parts) > 4 {
		r.Equipment = parts[4]
	}
	if len(parts) > 5 {
		r.Extra = parts[5:]
	}
	return r
}

// Encode joins the subfields back into field form.
func (r RecordingID) Encode() string {
	if !r.Plus {
		return strings.Join(r.Extra, " ")
	}
	parts := []string{"Startdate", orUnknown(r.StartDate), orUnknown(r.AdminCode), orUnknown(r.Technician), orUnknown(r.Equipment)}
	parts = append(parts, r.Extra...)
	return strings.Join(parts, " ")
}

// PlusDate renders a date in the EDF+ dd-MMM-yyyy subfield form.
func PlusDate(t time.Time) string {
	return strings.ToUpper(t.Format("02-Jan-2006"))
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
