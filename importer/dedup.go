package importer

// dedupIndex holds one key set per entity type, seeded from storage before
// the stream starts. Membership tests and inserts are a single call so the
// pipeline never performs a separate check-then-add. Keys are never evicted
// for the lifetime of a run; a later occurrence of the same entity in the
// same file must still be caught.
//
// The record set maps key -> row UUID instead of a bare set: correlations
// need the canonical row ID of an already-seen record to emit join rows.
type dedupIndex struct {
	records       map[RecordKey]string
	correlations  map[CorrelationKey]struct{}
	workouts      map[WorkoutKey]struct{}
	summaries     map[ActivitySummaryKey]struct{}
	clinical      map[ClinicalRecordKey]struct{}
	audiograms    map[AudiogramKey]struct{}
	prescriptions map[VisionPrescriptionKey]struct{}
}

func newDedupIndex() *dedupIndex {
	return &dedupIndex{
		records:       make(map[RecordKey]string),
		correlations:  make(map[CorrelationKey]struct{}),
		workouts:      make(map[WorkoutKey]struct{}),
		summaries:     make(map[ActivitySummaryKey]struct{}),
		clinical:      make(map[ClinicalRecordKey]struct{}),
		audiograms:    make(map[AudiogramKey]struct{}),
		prescriptions: make(map[VisionPrescriptionKey]struct{}),
	}
}

// testAndInsertRecord returns the canonical row ID for the key and whether
// the key was newly inserted. For a duplicate, the returned ID is the one
// already in the index, never the candidate's.
func (d *dedupIndex) testAndInsertRecord(k RecordKey, id string) (string, bool) {
	if existing, ok := d.records[k]; ok {
		return existing, false
	}
	d.records[k] = id
	return id, true
}

func (d *dedupIndex) testAndInsertCorrelation(k CorrelationKey) bool {
	if _, ok := d.correlations[k]; ok {
		return false
	}
	d.correlations[k] = struct{}{}
	return true
}

func (d *dedupIndex) testAndInsertWorkout(k WorkoutKey) bool {
	if _, ok := d.workouts[k]; ok {
		return false
	}
	d.workouts[k] = struct{}{}
	return true
}

func (d *dedupIndex) testAndInsertActivitySummary(k ActivitySummaryKey) bool {
	if _, ok := d.summaries[k]; ok {
		return false
	}
	d.summaries[k] = struct{}{}
	return true
}

func (d *dedupIndex) testAndInsertClinicalRecord(k ClinicalRecordKey) bool {
	if _, ok := d.clinical[k]; ok {
		return false
	}
	d.clinical[k] = struct{}{}
	return true
}

func (d *dedupIndex) testAndInsertAudiogram(k AudiogramKey) bool {
	if _, ok := d.audiograms[k]; ok {
		return false
	}
	d.audiograms[k] = struct{}{}
	return true
}

func (d *dedupIndex) testAndInsertVisionPrescription(k VisionPrescriptionKey) bool {
	if _, ok := d.prescriptions[k]; ok {
		return false
	}
	d.prescriptions[k] = struct{}{}
	return true
}
