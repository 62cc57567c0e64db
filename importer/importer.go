package importer

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultBatchSize   = 10000
	DefaultCommitEvery = 50000

	// maxLoggedParseErrors caps per-entity coercion failures in the normal
	// log; every failure past the cap is still counted and visible with
	// -debug.
	maxLoggedParseErrors = 10
)

type Config struct {
	// DBPath is the archive database. One cumulative file; re-importing the
	// same export against it inserts nothing new.
	DBPath string
	// BatchSize caps each per-type pending list before it is bulk-inserted.
	BatchSize int
	// CommitEvery is the number of emitted entities between transaction
	// commits. Larger values amortize commit cost, smaller values bound the
	// work lost on a failed run.
	CommitEvery int
	Debug       bool
}

type Importer struct {
	cfg   Config
	store *Store
}

func NewImporter(cfg Config) (*Importer, error) {
	if strings.TrimSpace(cfg.DBPath) == "" {
		return nil, fmt.Errorf("DBPath is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.CommitEvery <= 0 {
		cfg.CommitEvery = DefaultCommitEvery
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &Importer{cfg: cfg, store: NewStore(db)}, nil
}

func (im *Importer) debugf(format string, args ...any) {
	if im == nil || !im.cfg.Debug {
		return
	}
	log.Printf(format, args...)
}

func (im *Importer) Close() error {
	if im == nil || im.store == nil {
		return nil
	}
	err := im.store.Close()
	im.store = nil
	return err
}

// open container builder state. The export schema nests at most one of each
// container at a time, so plain fields stand in for a stack.

type openRecord struct {
	rec      *Record
	failed   bool
	metadata []*MetadataEntry
	hrv      *HeartRateVariabilityList
	bpm      []*InstantaneousBeatsPerMinute
}

type openCorrelation struct {
	corr     *Correlation
	failed   bool
	metadata []*MetadataEntry
	joins    []*CorrelationRecord
}

type openWorkout struct {
	workout    *Workout
	failed     bool
	metadata   []*MetadataEntry
	events     []*WorkoutEvent
	statistics []*WorkoutStatistics
	routes     []*WorkoutRoute
}

type openAudiogram struct {
	audiogram *Audiogram
	failed    bool
	points    []*SensitivityPoint
}

type openPrescription struct {
	prescription *VisionPrescription
	failed       bool
	eyes         []*EyePrescription
	attachments  []*VisionAttachment
}

// run is the pipeline context for one file: decoder state, dedup index,
// pending batches and stats, built at start and torn down by the final
// flush. No state outlives ImportFile.
type run struct {
	im      *Importer
	sess    *ImportSession
	dedup   *dedupIndex
	batches *batchSet
	stats   *Stats

	sinceCommit  int
	loggedErrors int

	rec   *openRecord
	corr  *openCorrelation
	work  *openWorkout
	aud   *openAudiogram
	pres  *openPrescription
	route *WorkoutRoute
}

// ImportFile streams one export file into the archive. The returned Stats
// are valid even when err is non-nil; on a fatal error everything up to the
// last commit stays persisted.
func (im *Importer) ImportFile(path string) (*Stats, error) {
	stats := newStats()

	f, err := os.Open(path)
	if err != nil {
		return stats, err
	}
	defer f.Close()

	dec := xml.NewDecoder(bufio.NewReaderSize(f, 1<<20))

	root, err := findRootElement(dec)
	if err != nil {
		return stats, fmt.Errorf("read root element: %w", err)
	}
	if root.Name.Local != "HealthData" {
		return stats, fmt.Errorf("unexpected root element %q, want HealthData", root.Name.Local)
	}

	sess, err := im.store.EnsureSession(attrsOf(root)["locale"])
	if err != nil {
		return stats, fmt.Errorf("ensure session: %w", err)
	}

	dedup, err := im.seedDedupIndex(sess.ID)
	if err != nil {
		return stats, fmt.Errorf("preload identity keys: %w", err)
	}
	im.debugf("seeded dedup index: records=%d correlations=%d workouts=%d",
		len(dedup.records), len(dedup.correlations), len(dedup.workouts))

	r := &run{
		im:      im,
		sess:    sess,
		dedup:   dedup,
		batches: newBatchSet(im.store, stats, im.cfg.BatchSize),
		stats:   stats,
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed XML is fatal. Committed batches remain valid.
			return stats, fmt.Errorf("parse %s: %w", path, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := r.handleStart(dec, t); err != nil {
				return stats, err
			}
		case xml.EndElement:
			if err := r.handleEnd(t); err != nil {
				return stats, err
			}
		}
	}

	if err := r.batches.FlushAll(); err != nil {
		return stats, fmt.Errorf("final flush: %w", err)
	}
	im.debugf("import done: %s", stats)
	return stats, nil
}

func (im *Importer) seedDedupIndex(sessionID string) (*dedupIndex, error) {
	d := newDedupIndex()
	var err error
	if d.records, err = im.store.PreloadRecordKeys(sessionID); err != nil {
		return nil, err
	}
	if d.correlations, err = im.store.PreloadCorrelationKeys(sessionID); err != nil {
		return nil, err
	}
	if d.workouts, err = im.store.PreloadWorkoutKeys(sessionID); err != nil {
		return nil, err
	}
	if d.summaries, err = im.store.PreloadActivitySummaryKeys(sessionID); err != nil {
		return nil, err
	}
	if d.clinical, err = im.store.PreloadClinicalRecordKeys(sessionID); err != nil {
		return nil, err
	}
	if d.audiograms, err = im.store.PreloadAudiogramKeys(sessionID); err != nil {
		return nil, err
	}
	if d.prescriptions, err = im.store.PreloadVisionPrescriptionKeys(sessionID); err != nil {
		return nil, err
	}
	return d, nil
}

// findRootElement skips prolog tokens (declaration, doctype, whitespace) up
// to the document's first element.
func findRootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

// logErrorf reports a per-entity coercion failure. The first few go to the
// normal log so a bad export is noticed without -debug; the rest stay behind
// the debug gate.
func (r *run) logErrorf(format string, args ...any) {
	if r.loggedErrors < maxLoggedParseErrors {
		log.Printf(format, args...)
	} else {
		r.im.debugf(format, args...)
	}
	r.loggedErrors++
}

func (r *run) handleStart(dec *xml.Decoder, se xml.StartElement) error {
	a := attrsOf(se)
	switch se.Name.Local {
	case "ExportDate":
		if v := a["value"]; v != "" {
			t, err := parseExportTime(v)
			if err != nil {
				r.im.debugf("unparsable export date %q: %v", v, err)
				return nil
			}
			r.sess.ExportDate = &t
			return r.im.store.SaveSession(r.sess)
		}

	case "Me":
		r.sess.DateOfBirth = a["HKCharacteristicTypeIdentifierDateOfBirth"]
		r.sess.BiologicalSex = a["HKCharacteristicTypeIdentifierBiologicalSex"]
		r.sess.BloodType = a["HKCharacteristicTypeIdentifierBloodType"]
		r.sess.FitzpatrickSkinType = a["HKCharacteristicTypeIdentifierFitzpatrickSkinType"]
		r.sess.CardioFitnessMedicationsUse = a["HKCharacteristicTypeIdentifierCardioFitnessMedicationsUse"]
		return r.im.store.SaveSession(r.sess)

	case "Record":
		rec, err := buildRecord(a, r.sess.ID)
		r.rec = &openRecord{rec: rec, failed: err != nil}
		if err != nil {
			r.logErrorf("record: %v", err)
		}

	case "Correlation":
		corr, err := buildCorrelation(a, r.sess.ID)
		r.corr = &openCorrelation{corr: corr, failed: err != nil}
		if err != nil {
			r.logErrorf("correlation: %v", err)
		}

	case "Workout":
		w, err := buildWorkout(a, r.sess.ID)
		r.work = &openWorkout{workout: w, failed: err != nil}
		if err != nil {
			r.logErrorf("workout: %v", err)
		}

	case "Audiogram":
		aud, err := buildAudiogram(a, r.sess.ID)
		r.aud = &openAudiogram{audiogram: aud, failed: err != nil}
		if err != nil {
			r.logErrorf("audiogram: %v", err)
		}

	case "VisionPrescription":
		p, err := buildVisionPrescription(a, r.sess.ID)
		r.pres = &openPrescription{prescription: p, failed: err != nil}
		if err != nil {
			r.logErrorf("vision prescription: %v", err)
		}

	case "ActivitySummary":
		s, err := buildActivitySummary(a, r.sess.ID)
		if err != nil {
			r.logErrorf("activity summary: %v", err)
			r.stats.addError(KindActivitySummary)
			return r.afterEntity()
		}
		return r.emitActivitySummary(s)

	case "ClinicalRecord":
		c, err := buildClinicalRecord(a, r.sess.ID)
		if err != nil {
			r.logErrorf("clinical record: %v", err)
			r.stats.addError(KindClinicalRecord)
			return r.afterEntity()
		}
		return r.emitClinicalRecord(c)

	case "MetadataEntry":
		r.attachMetadata(a)

	case "HeartRateVariabilityMetadataList":
		if r.rec != nil && !r.rec.failed {
			r.rec.hrv = &HeartRateVariabilityList{ID: uuid.NewString(), RecordID: r.rec.rec.ID}
		}

	case "InstantaneousBeatsPerMinute":
		if r.rec == nil || r.rec.hrv == nil || r.rec.failed {
			return nil
		}
		s, err := buildBPMSample(a, r.rec.hrv.ID)
		if err != nil {
			r.logErrorf("bpm sample: %v", err)
			r.rec.failed = true
			return nil
		}
		r.rec.bpm = append(r.rec.bpm, s)

	case "WorkoutEvent":
		if r.work == nil || r.work.failed {
			return nil
		}
		e, err := buildWorkoutEvent(a, r.work.workout.ID)
		if err != nil {
			r.logErrorf("workout event: %v", err)
			r.work.failed = true
			return nil
		}
		r.work.events = append(r.work.events, e)

	case "WorkoutStatistics":
		if r.work == nil || r.work.failed {
			return nil
		}
		st, err := buildWorkoutStatistics(a, r.work.workout.ID)
		if err != nil {
			r.logErrorf("workout statistics: %v", err)
			r.work.failed = true
			return nil
		}
		r.work.statistics = append(r.work.statistics, st)

	case "WorkoutRoute":
		if r.work == nil || r.work.failed {
			return nil
		}
		route, err := buildWorkoutRoute(a, r.work.workout.ID)
		if err != nil {
			r.logErrorf("workout route: %v", err)
			r.work.failed = true
			return nil
		}
		r.work.routes = append(r.work.routes, route)
		r.route = route

	case "FileReference":
		if r.route != nil && r.route.FilePath == "" {
			r.route.FilePath = a["path"]
		}

	case "SensitivityPoint":
		if r.aud == nil || r.aud.failed {
			return nil
		}
		p, err := buildSensitivityPoint(a, r.aud.audiogram.ID)
		if err != nil {
			r.logErrorf("sensitivity point: %v", err)
			r.aud.failed = true
			return nil
		}
		r.aud.points = append(r.aud.points, p)

	case "Prescription":
		if r.pres == nil || r.pres.failed {
			return nil
		}
		eye, err := buildEyePrescription(a, r.pres.prescription.ID)
		if err != nil {
			r.logErrorf("eye prescription: %v", err)
			r.pres.failed = true
			return nil
		}
		r.pres.eyes = append(r.pres.eyes, eye)

	case "Attachment":
		if r.pres == nil || r.pres.failed {
			return nil
		}
		r.pres.attachments = append(r.pres.attachments, buildVisionAttachment(a, r.pres.prescription.ID))

	default:
		// Unknown element: count it and drop its whole subtree so nested
		// tags cannot masquerade as known entities.
		r.stats.addSkipped(se.Name.Local)
		return dec.Skip()
	}
	return nil
}

// attachMetadata appends a metadata entry to the innermost open container.
func (r *run) attachMetadata(a attrMap) {
	switch {
	case r.route != nil:
		// Route metadata rows hang off the route, not the workout.
		m := buildMetadataEntry(a, "workout_route", r.route.ID)
		r.work.metadata = append(r.work.metadata, m)
	case r.rec != nil && !r.rec.failed:
		r.rec.metadata = append(r.rec.metadata, buildMetadataEntry(a, "record", r.rec.rec.ID))
	case r.corr != nil && !r.corr.failed:
		r.corr.metadata = append(r.corr.metadata, buildMetadataEntry(a, "correlation", r.corr.corr.ID))
	case r.work != nil && !r.work.failed:
		r.work.metadata = append(r.work.metadata, buildMetadataEntry(a, "workout", r.work.workout.ID))
	default:
		r.stats.addSkipped("MetadataEntry")
	}
}

func (r *run) handleEnd(ee xml.EndElement) error {
	switch ee.Name.Local {
	case "Record":
		if r.rec == nil {
			return nil
		}
		err := r.emitRecord()
		r.rec = nil
		return err
	case "Correlation":
		if r.corr == nil {
			return nil
		}
		err := r.emitCorrelation()
		r.corr = nil
		return err
	case "Workout":
		if r.work == nil {
			return nil
		}
		err := r.emitWorkout()
		r.work = nil
		r.route = nil
		return err
	case "WorkoutRoute":
		r.route = nil
	case "Audiogram":
		if r.aud == nil {
			return nil
		}
		err := r.emitAudiogram()
		r.aud = nil
		return err
	case "VisionPrescription":
		if r.pres == nil {
			return nil
		}
		err := r.emitVisionPrescription()
		r.pres = nil
		return err
	}
	return nil
}

// emitRecord classifies a completed record. Records nested in a correlation
// take the same path as top-level ones; the correlation additionally gets a
// join row pointing at the canonical record, whether or not this occurrence
// was the one inserted.
func (r *run) emitRecord() error {
	o := r.rec
	if o.failed {
		r.stats.addError(KindRecord)
		return r.afterEntity()
	}
	canonicalID, isNew := r.dedup.testAndInsertRecord(keyForRecord(o.rec), o.rec.ID)
	if r.corr != nil && !r.corr.failed {
		r.corr.joins = append(r.corr.joins, &CorrelationRecord{
			ID:            uuid.NewString(),
			CorrelationID: r.corr.corr.ID,
			RecordID:      canonicalID,
		})
	}
	if !isNew {
		r.stats.addDuplicate(KindRecord)
		return r.afterEntity()
	}
	if err := r.batches.addRecord(o.rec); err != nil {
		return err
	}
	for _, m := range o.metadata {
		if err := r.batches.addMetadataEntry(m); err != nil {
			return err
		}
	}
	if o.hrv != nil {
		if err := r.batches.addHRVList(o.hrv); err != nil {
			return err
		}
		for _, s := range o.bpm {
			if err := r.batches.addBPMSample(s); err != nil {
				return err
			}
		}
	}
	r.stats.addInserted(KindRecord)
	return r.afterEntity()
}

func (r *run) emitCorrelation() error {
	o := r.corr
	if o.failed {
		r.stats.addError(KindCorrelation)
		return r.afterEntity()
	}
	if !r.dedup.testAndInsertCorrelation(keyForCorrelation(o.corr)) {
		// Join rows from a prior occurrence already exist; drop these.
		r.stats.addDuplicate(KindCorrelation)
		return r.afterEntity()
	}
	if err := r.batches.addCorrelation(o.corr); err != nil {
		return err
	}
	for _, m := range o.metadata {
		if err := r.batches.addMetadataEntry(m); err != nil {
			return err
		}
	}
	for _, j := range o.joins {
		if err := r.batches.addCorrelationRecord(j); err != nil {
			return err
		}
	}
	r.stats.addInserted(KindCorrelation)
	return r.afterEntity()
}

func (r *run) emitWorkout() error {
	o := r.work
	if o.failed {
		r.stats.addError(KindWorkout)
		return r.afterEntity()
	}
	if !r.dedup.testAndInsertWorkout(keyForWorkout(o.workout)) {
		r.stats.addDuplicate(KindWorkout)
		return r.afterEntity()
	}
	if err := r.batches.addWorkout(o.workout); err != nil {
		return err
	}
	for _, e := range o.events {
		if err := r.batches.addWorkoutEvent(e); err != nil {
			return err
		}
	}
	for _, st := range o.statistics {
		if err := r.batches.addWorkoutStatistics(st); err != nil {
			return err
		}
	}
	for _, route := range o.routes {
		if err := r.batches.addWorkoutRoute(route); err != nil {
			return err
		}
	}
	for _, m := range o.metadata {
		if err := r.batches.addMetadataEntry(m); err != nil {
			return err
		}
	}
	r.stats.addInserted(KindWorkout)
	return r.afterEntity()
}

func (r *run) emitAudiogram() error {
	o := r.aud
	if o.failed {
		r.stats.addError(KindAudiogram)
		return r.afterEntity()
	}
	if !r.dedup.testAndInsertAudiogram(keyForAudiogram(o.audiogram)) {
		r.stats.addDuplicate(KindAudiogram)
		return r.afterEntity()
	}
	if err := r.batches.addAudiogram(o.audiogram); err != nil {
		return err
	}
	for _, p := range o.points {
		if err := r.batches.addSensitivityPoint(p); err != nil {
			return err
		}
	}
	r.stats.addInserted(KindAudiogram)
	return r.afterEntity()
}

func (r *run) emitVisionPrescription() error {
	o := r.pres
	if o.failed {
		r.stats.addError(KindVisionPrescription)
		return r.afterEntity()
	}
	if !r.dedup.testAndInsertVisionPrescription(keyForVisionPrescription(o.prescription)) {
		r.stats.addDuplicate(KindVisionPrescription)
		return r.afterEntity()
	}
	if err := r.batches.addVisionPrescription(o.prescription); err != nil {
		return err
	}
	for _, eye := range o.eyes {
		if err := r.batches.addEyePrescription(eye); err != nil {
			return err
		}
	}
	for _, att := range o.attachments {
		if err := r.batches.addVisionAttachment(att); err != nil {
			return err
		}
	}
	r.stats.addInserted(KindVisionPrescription)
	return r.afterEntity()
}

func (r *run) emitActivitySummary(s *ActivitySummary) error {
	if !r.dedup.testAndInsertActivitySummary(keyForActivitySummary(s)) {
		r.stats.addDuplicate(KindActivitySummary)
		return r.afterEntity()
	}
	if err := r.batches.addActivitySummary(s); err != nil {
		return err
	}
	r.stats.addInserted(KindActivitySummary)
	return r.afterEntity()
}

func (r *run) emitClinicalRecord(c *ClinicalRecord) error {
	if !r.dedup.testAndInsertClinicalRecord(keyForClinicalRecord(c)) {
		r.stats.addDuplicate(KindClinicalRecord)
		return r.afterEntity()
	}
	if err := r.batches.addClinicalRecord(c); err != nil {
		return err
	}
	r.stats.addInserted(KindClinicalRecord)
	return r.afterEntity()
}

// afterEntity runs once per entity reaching a terminal state. It maintains
// the peak-pending gauge and triggers the commit-frequency full flush.
func (r *run) afterEntity() error {
	if p := r.batches.pending(); p > r.stats.PeakPending {
		r.stats.PeakPending = p
	}
	r.sinceCommit++
	if r.sinceCommit < r.im.cfg.CommitEvery {
		return nil
	}
	if err := r.batches.FlushAll(); err != nil {
		return fmt.Errorf("flush at commit boundary: %w", err)
	}
	r.im.debugf("committed: %s", r.stats)
	r.sinceCommit = 0
	return nil
}
