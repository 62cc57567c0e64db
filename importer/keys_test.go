package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKey_AbsentAndEmptyValueCollapse(t *testing.T) {
	start := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC)

	withEmpty := &Record{Type: "sleep", StartDate: start, EndDate: end, Value: ""}
	// An absent value attribute builds as the zero string, identical to
	// present-but-empty.
	absent := &Record{Type: "sleep", StartDate: start, EndDate: end}

	assert.Equal(t, keyForRecord(withEmpty), keyForRecord(absent))

	withValue := &Record{Type: "sleep", StartDate: start, EndDate: end, Value: "HKCategoryValueSleepAnalysisAsleep"}
	assert.NotEqual(t, keyForRecord(withEmpty), keyForRecord(withValue))
}

func TestRecordKey_EqualInstantsAcrossOffsets(t *testing.T) {
	utc, err := parseExportTime("2024-01-01 09:00:00 +0000")
	require.NoError(t, err)
	cet, err := parseExportTime("2024-01-01 10:00:00 +0100")
	require.NoError(t, err)

	a := &Record{Type: "hr", StartDate: utc, EndDate: utc, Value: "60"}
	b := &Record{Type: "hr", StartDate: cet, EndDate: cet, Value: "60"}
	assert.Equal(t, keyForRecord(a), keyForRecord(b), "same instant must yield the same key regardless of exported offset")
}

func TestKeys_DistinguishIdentityFields(t *testing.T) {
	start := time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	w1 := &Workout{ActivityType: "running", StartDate: start, EndDate: end}
	w2 := &Workout{ActivityType: "walking", StartDate: start, EndDate: end}
	assert.NotEqual(t, keyForWorkout(w1), keyForWorkout(w2))

	c1 := &Correlation{Type: "bp", StartDate: start, EndDate: end}
	c2 := &Correlation{Type: "bp", StartDate: start, EndDate: end.Add(time.Second)}
	assert.NotEqual(t, keyForCorrelation(c1), keyForCorrelation(c2))

	assert.Equal(t,
		keyForActivitySummary(&ActivitySummary{DateComponents: "2024-01-05"}),
		keyForActivitySummary(&ActivitySummary{DateComponents: "2024-01-05", SessionID: "other"}),
		"non-identity fields must not affect the key")

	assert.NotEqual(t,
		keyForClinicalRecord(&ClinicalRecord{Identifier: "obs-1"}),
		keyForClinicalRecord(&ClinicalRecord{Identifier: "obs-2"}))

	issued := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	assert.NotEqual(t,
		keyForVisionPrescription(&VisionPrescription{Type: "glasses", DateIssued: issued}),
		keyForVisionPrescription(&VisionPrescription{Type: "contacts", DateIssued: issued}))
}
