package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_OutcomeAccounting(t *testing.T) {
	s := newStats()

	s.addInserted(KindRecord)
	s.addInserted(KindRecord)
	s.addDuplicate(KindRecord)
	s.addError(KindRecord)
	s.addInserted(KindWorkout)

	rec := s.Kind(KindRecord)
	assert.Equal(t, KindCounts{Inserted: 2, Duplicate: 1, Errors: 1}, rec)
	assert.Equal(t, KindCounts{Inserted: 1}, s.Kind(KindWorkout))
	assert.Equal(t, KindCounts{}, s.Kind(KindAudiogram))

	assert.Equal(t, 3, s.TotalInserted())
	assert.Equal(t, 1, s.TotalDuplicates())
}

func TestStats_KindReturnsCopy(t *testing.T) {
	s := newStats()
	s.addInserted(KindCorrelation)

	c := s.Kind(KindCorrelation)
	c.Inserted = 99
	assert.Equal(t, 1, s.Kind(KindCorrelation).Inserted)
}

func TestStats_SkippedTags(t *testing.T) {
	s := newStats()
	s.addSkipped("Vitamins")
	s.addSkipped("Vitamins")
	s.addSkipped("FancyNewSection")

	assert.Equal(t, 3, s.SkippedElements)
	assert.Equal(t, map[string]int{"Vitamins": 2, "FancyNewSection": 1}, s.SkippedTags())

	tags := s.SkippedTags()
	tags["Vitamins"] = 0
	assert.Equal(t, 2, s.SkippedTags()["Vitamins"])
}

func TestStats_String(t *testing.T) {
	s := newStats()
	s.addInserted(KindRecord)
	s.addDuplicate(KindWorkout)
	s.addSkipped("Vitamins")
	s.BulkInserts = 2

	out := s.String()
	assert.Contains(t, out, "record: inserted=1 duplicate=0 errors=0")
	assert.Contains(t, out, "workout: inserted=0 duplicate=1 errors=0")
	assert.NotContains(t, out, "audiogram")
	assert.Contains(t, out, "bulk_inserts=2 skipped_elements=1 (Vitamins)")
}
