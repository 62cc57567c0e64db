package importer

import (
	"fmt"
	"sort"
	"strings"
)

type EntityKind string

const (
	KindRecord             EntityKind = "record"
	KindCorrelation        EntityKind = "correlation"
	KindWorkout            EntityKind = "workout"
	KindActivitySummary    EntityKind = "activity_summary"
	KindClinicalRecord     EntityKind = "clinical_record"
	KindAudiogram          EntityKind = "audiogram"
	KindVisionPrescription EntityKind = "vision_prescription"
)

// allKinds fixes the reporting order.
var allKinds = []EntityKind{
	KindRecord,
	KindCorrelation,
	KindWorkout,
	KindActivitySummary,
	KindClinicalRecord,
	KindAudiogram,
	KindVisionPrescription,
}

type KindCounts struct {
	Inserted  int
	Duplicate int
	Errors    int
}

// Stats accumulates per-kind outcome counters. Exactly one of
// inserted/duplicate/error is counted per entity that reaches a terminal
// state, so Inserted+Duplicate+Errors equals the number of entities of that
// kind encountered in the stream.
type Stats struct {
	kinds           map[EntityKind]*KindCounts
	BulkInserts     int
	SkippedElements int
	// PeakPending is the largest number of rows held across all pending
	// batches at any point of the run, a direct measure of the memory bound.
	PeakPending int
	skippedTags map[string]int
}

func newStats() *Stats {
	return &Stats{
		kinds:       make(map[EntityKind]*KindCounts),
		skippedTags: make(map[string]int),
	}
}

func (s *Stats) counts(kind EntityKind) *KindCounts {
	c, ok := s.kinds[kind]
	if !ok {
		c = &KindCounts{}
		s.kinds[kind] = c
	}
	return c
}

func (s *Stats) addInserted(kind EntityKind)  { s.counts(kind).Inserted++ }
func (s *Stats) addDuplicate(kind EntityKind) { s.counts(kind).Duplicate++ }
func (s *Stats) addError(kind EntityKind)     { s.counts(kind).Errors++ }

func (s *Stats) addSkipped(tag string) {
	s.SkippedElements++
	s.skippedTags[tag]++
}

// Kind returns a copy of the counters for one entity kind.
func (s *Stats) Kind(kind EntityKind) KindCounts {
	if c, ok := s.kinds[kind]; ok {
		return *c
	}
	return KindCounts{}
}

// TotalInserted sums inserted counts across all kinds.
func (s *Stats) TotalInserted() int {
	n := 0
	for _, c := range s.kinds {
		n += c.Inserted
	}
	return n
}

// TotalDuplicates sums duplicate counts across all kinds.
func (s *Stats) TotalDuplicates() int {
	n := 0
	for _, c := range s.kinds {
		n += c.Duplicate
	}
	return n
}

// SkippedTags returns the unhandled element names seen, with counts.
func (s *Stats) SkippedTags() map[string]int {
	out := make(map[string]int, len(s.skippedTags))
	for k, v := range s.skippedTags {
		out[k] = v
	}
	return out
}

func (s *Stats) String() string {
	var b strings.Builder
	for _, kind := range allKinds {
		c := s.Kind(kind)
		if c == (KindCounts{}) {
			continue
		}
		fmt.Fprintf(&b, "%s: inserted=%d duplicate=%d errors=%d\n", kind, c.Inserted, c.Duplicate, c.Errors)
	}
	fmt.Fprintf(&b, "bulk_inserts=%d skipped_elements=%d", s.BulkInserts, s.SkippedElements)
	if len(s.skippedTags) > 0 {
		tags := make([]string, 0, len(s.skippedTags))
		for t := range s.skippedTags {
			tags = append(tags, t)
		}
		sort.Strings(tags)
		fmt.Fprintf(&b, " (%s)", strings.Join(tags, ", "))
	}
	return b.String()
}
