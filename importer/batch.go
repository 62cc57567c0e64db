package importer

// batchSet holds the per-type pending lists of newly-identified rows. Each
// list is flushed through the store as one bulk insert when it reaches
// batchSize; FlushAll drains every list in a stable order and commits, which
// is the durability boundary. Child rows ride in their parent's transaction
// and are only ever appended when the parent was new.
type batchSet struct {
	store     *Store
	stats     *Stats
	batchSize int

	records            []*Record
	correlations       []*Correlation
	correlationRecords []*CorrelationRecord
	workouts           []*Workout
	workoutEvents      []*WorkoutEvent
	workoutStatistics  []*WorkoutStatistics
	workoutRoutes      []*WorkoutRoute
	summaries          []*ActivitySummary
	clinical           []*ClinicalRecord
	audiograms         []*Audiogram
	sensitivityPoints  []*SensitivityPoint
	prescriptions      []*VisionPrescription
	eyePrescriptions   []*EyePrescription
	attachments        []*VisionAttachment
	metadata           []*MetadataEntry
	hrvLists           []*HeartRateVariabilityList
	bpmSamples         []*InstantaneousBeatsPerMinute
}

func newBatchSet(store *Store, stats *Stats, batchSize int) *batchSet {
	return &batchSet{store: store, stats: stats, batchSize: batchSize}
}

// flushList bulk-inserts one pending list and releases it.
func flushList[T any](b *batchSet, list *[]*T) error {
	if len(*list) == 0 {
		return nil
	}
	if _, err := b.store.BulkInsert(*list); err != nil {
		return err
	}
	b.stats.BulkInserts++
	*list = nil
	return nil
}

func flushIfFull[T any](b *batchSet, list *[]*T) error {
	if len(*list) < b.batchSize {
		return nil
	}
	return flushList(b, list)
}

func (b *batchSet) addRecord(r *Record) error {
	b.records = append(b.records, r)
	return flushIfFull(b, &b.records)
}

func (b *batchSet) addCorrelation(c *Correlation) error {
	b.correlations = append(b.correlations, c)
	return flushIfFull(b, &b.correlations)
}

func (b *batchSet) addCorrelationRecord(cr *CorrelationRecord) error {
	b.correlationRecords = append(b.correlationRecords, cr)
	return flushIfFull(b, &b.correlationRecords)
}

func (b *batchSet) addWorkout(w *Workout) error {
	b.workouts = append(b.workouts, w)
	return flushIfFull(b, &b.workouts)
}

func (b *batchSet) addWorkoutEvent(e *WorkoutEvent) error {
	b.workoutEvents = append(b.workoutEvents, e)
	return flushIfFull(b, &b.workoutEvents)
}

func (b *batchSet) addWorkoutStatistics(st *WorkoutStatistics) error {
	b.workoutStatistics = append(b.workoutStatistics, st)
	return flushIfFull(b, &b.workoutStatistics)
}

func (b *batchSet) addWorkoutRoute(r *WorkoutRoute) error {
	b.workoutRoutes = append(b.workoutRoutes, r)
	return flushIfFull(b, &b.workoutRoutes)
}

func (b *batchSet) addActivitySummary(s *ActivitySummary) error {
	b.summaries = append(b.summaries, s)
	return flushIfFull(b, &b.summaries)
}

func (b *batchSet) addClinicalRecord(c *ClinicalRecord) error {
	b.clinical = append(b.clinical, c)
	return flushIfFull(b, &b.clinical)
}

func (b *batchSet) addAudiogram(a *Audiogram) error {
	b.audiograms = append(b.audiograms, a)
	return flushIfFull(b, &b.audiograms)
}

func (b *batchSet) addSensitivityPoint(p *SensitivityPoint) error {
	b.sensitivityPoints = append(b.sensitivityPoints, p)
	return flushIfFull(b, &b.sensitivityPoints)
}

func (b *batchSet) addVisionPrescription(p *VisionPrescription) error {
	b.prescriptions = append(b.prescriptions, p)
	return flushIfFull(b, &b.prescriptions)
}

func (b *batchSet) addEyePrescription(p *EyePrescription) error {
	b.eyePrescriptions = append(b.eyePrescriptions, p)
	return flushIfFull(b, &b.eyePrescriptions)
}

func (b *batchSet) addVisionAttachment(a *VisionAttachment) error {
	b.attachments = append(b.attachments, a)
	return flushIfFull(b, &b.attachments)
}

func (b *batchSet) addMetadataEntry(m *MetadataEntry) error {
	b.metadata = append(b.metadata, m)
	return flushIfFull(b, &b.metadata)
}

func (b *batchSet) addHRVList(l *HeartRateVariabilityList) error {
	b.hrvLists = append(b.hrvLists, l)
	return flushIfFull(b, &b.hrvLists)
}

func (b *batchSet) addBPMSample(s *InstantaneousBeatsPerMinute) error {
	b.bpmSamples = append(b.bpmSamples, s)
	return flushIfFull(b, &b.bpmSamples)
}

// pending reports how many rows sit in memory across every list. Used for
// instrumentation; the pipeline's memory bound is a small multiple of
// batchSize because every list is capped by flushIfFull.
func (b *batchSet) pending() int {
	return len(b.records) + len(b.correlations) + len(b.correlationRecords) +
		len(b.workouts) + len(b.workoutEvents) + len(b.workoutStatistics) +
		len(b.workoutRoutes) + len(b.summaries) + len(b.clinical) +
		len(b.audiograms) + len(b.sensitivityPoints) + len(b.prescriptions) +
		len(b.eyePrescriptions) + len(b.attachments) + len(b.metadata) +
		len(b.hrvLists) + len(b.bpmSamples)
}

// FlushAll drains every non-empty list in a stable order and commits the
// transaction. Called at the commit-frequency boundary and once at EOF.
func (b *batchSet) FlushAll() error {
	steps := []func() error{
		func() error { return flushList(b, &b.records) },
		func() error { return flushList(b, &b.correlations) },
		func() error { return flushList(b, &b.correlationRecords) },
		func() error { return flushList(b, &b.workouts) },
		func() error { return flushList(b, &b.workoutEvents) },
		func() error { return flushList(b, &b.workoutStatistics) },
		func() error { return flushList(b, &b.workoutRoutes) },
		func() error { return flushList(b, &b.summaries) },
		func() error { return flushList(b, &b.clinical) },
		func() error { return flushList(b, &b.audiograms) },
		func() error { return flushList(b, &b.sensitivityPoints) },
		func() error { return flushList(b, &b.prescriptions) },
		func() error { return flushList(b, &b.eyePrescriptions) },
		func() error { return flushList(b, &b.attachments) },
		func() error { return flushList(b, &b.metadata) },
		func() error { return flushList(b, &b.hrvLists) },
		func() error { return flushList(b, &b.bpmSamples) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return b.store.Commit()
}
