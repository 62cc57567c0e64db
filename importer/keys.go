package importer

// Identity keys are fixed, comparable tuples so they can serve as map keys.
// Timestamps are reduced to Unix seconds: the export format carries seconds
// precision, and it keeps key equality independent of time.Location.

type RecordKey struct {
	Type  string
	Start int64
	End   int64
	// Value of the record, with an absent attribute normalized to "". A
	// record exported without a value and one exported with value="" are
	// the same measurement as far as identity is concerned.
	Value string
}

type CorrelationKey struct {
	Type  string
	Start int64
	End   int64
}

type WorkoutKey struct {
	ActivityType string
	Start        int64
	End          int64
}

type ActivitySummaryKey struct {
	DateComponents string
}

type ClinicalRecordKey struct {
	Identifier string
}

type AudiogramKey struct {
	Type  string
	Start int64
	End   int64
}

type VisionPrescriptionKey struct {
	Type   string
	Issued int64
}

func keyForRecord(r *Record) RecordKey {
	return RecordKey{Type: r.Type, Start: r.StartDate.Unix(), End: r.EndDate.Unix(), Value: r.Value}
}

func keyForCorrelation(c *Correlation) CorrelationKey {
	return CorrelationKey{Type: c.Type, Start: c.StartDate.Unix(), End: c.EndDate.Unix()}
}

func keyForWorkout(w *Workout) WorkoutKey {
	return WorkoutKey{ActivityType: w.ActivityType, Start: w.StartDate.Unix(), End: w.EndDate.Unix()}
}

func keyForActivitySummary(s *ActivitySummary) ActivitySummaryKey {
	return ActivitySummaryKey{DateComponents: s.DateComponents}
}

func keyForClinicalRecord(c *ClinicalRecord) ClinicalRecordKey {
	return ClinicalRecordKey{Identifier: c.Identifier}
}

func keyForAudiogram(a *Audiogram) AudiogramKey {
	return AudiogramKey{Type: a.Type, Start: a.StartDate.Unix(), End: a.EndDate.Unix()}
}

func keyForVisionPrescription(p *VisionPrescription) VisionPrescriptionKey {
	return VisionPrescriptionKey{Type: p.Type, Issued: p.DateIssued.Unix()}
}
