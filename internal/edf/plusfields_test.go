package edf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePatientID(t *testing.T) {
	p := ParsePatientID("MRN0042 M 02-AUG-1951 Smith_John_Paul extra")
	assert.Equal(t, "MRN0042", p.Code)
	assert.Equal(t, "M", p.Sex)
	assert.Equal(t, "02-AUG-1951", p.Birthdate)
	assert.Equal(t, "Smith_John_Paul", p.Name)
	assert.Equal(t, []string{"extra"}, p.Extra)
	assert.Equal(t, "MRN0042 M 02-AUG-1951 Smith_John_Paul extra", p.Encode())
}

func TestParsePatientIDShort(t *testing.T) {
	p := ParsePatientID("Smith")
	assert.Equal(t, "Smith", p.Code)
	assert.Equal(t, Unknown, p.Sex)
	assert.Equal(t, "Smith X X X", p.Encode())
}

func TestParseRecordingID(t *testing.T) {
	r := ParseRecordingID("Startdate 01-MAR-2023 EMU-7 Tech_Jones NK-1200")
	assert.True(t, r.Plus)
	assert.Equal(t, "01-MAR-2023", r.StartDate)
	assert.Equal(t, "EMU-7", r.AdminCode)
	assert.Equal(t, "Tech_Jones", r.Technician)
	assert.Equal(t, "NK-1200", r.Equipment)
	assert.Equal(t, "Startdate 01-MAR-2023 EMU-7 Tech_Jones NK-1200", r.Encode())
}

func TestParseRecordingIDNonPlus(t *testing.T) {
	r := ParseRecordingID("routine EEG follow-up")
	assert.False(t, r.Plus)
	assert.Equal(t, "routine EEG follow-up", r.Encode())
}

func TestPlusDate(t *testing.T) {
	assert.Equal(t, "01-JAN-1985", PlusDate(time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC)))
}
