package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupIndex_RecordCanonicalID(t *testing.T) {
	d := newDedupIndex()
	k := RecordKey{Type: "hr", Start: 100, End: 100, Value: "60"}

	id, inserted := d.testAndInsertRecord(k, "row-a")
	assert.True(t, inserted)
	assert.Equal(t, "row-a", id)

	// A duplicate keeps the first row ID, the candidate's is discarded.
	id, inserted = d.testAndInsertRecord(k, "row-b")
	assert.False(t, inserted)
	assert.Equal(t, "row-a", id)

	other := k
	other.Value = "61"
	id, inserted = d.testAndInsertRecord(other, "row-c")
	assert.True(t, inserted)
	assert.Equal(t, "row-c", id)
}

func TestDedupIndex_SetsAreIndependent(t *testing.T) {
	d := newDedupIndex()

	assert.True(t, d.testAndInsertCorrelation(CorrelationKey{Type: "bp", Start: 1, End: 2}))
	assert.False(t, d.testAndInsertCorrelation(CorrelationKey{Type: "bp", Start: 1, End: 2}))

	// Same timestamps in a different set must not collide.
	assert.True(t, d.testAndInsertWorkout(WorkoutKey{ActivityType: "bp", Start: 1, End: 2}))
	assert.True(t, d.testAndInsertAudiogram(AudiogramKey{Type: "bp", Start: 1, End: 2}))

	assert.True(t, d.testAndInsertActivitySummary(ActivitySummaryKey{DateComponents: "2024-01-05"}))
	assert.False(t, d.testAndInsertActivitySummary(ActivitySummaryKey{DateComponents: "2024-01-05"}))

	assert.True(t, d.testAndInsertClinicalRecord(ClinicalRecordKey{Identifier: "obs-1"}))
	assert.False(t, d.testAndInsertClinicalRecord(ClinicalRecordKey{Identifier: "obs-1"}))

	assert.True(t, d.testAndInsertVisionPrescription(VisionPrescriptionKey{Type: "glasses", Issued: 9}))
	assert.False(t, d.testAndInsertVisionPrescription(VisionPrescriptionKey{Type: "glasses", Issued: 9}))
}

func TestDedupIndex_KeysNeverEvicted(t *testing.T) {
	d := newDedupIndex()
	k := WorkoutKey{ActivityType: "running", Start: 10, End: 20}

	assert.True(t, d.testAndInsertWorkout(k))
	for i := 0; i < 5; i++ {
		assert.False(t, d.testAndInsertWorkout(k))
	}
}
