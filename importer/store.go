package importer

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var allModels = []any{
	&ImportSession{},
	&Record{},
	&Correlation{},
	&CorrelationRecord{},
	&Workout{},
	&WorkoutEvent{},
	&WorkoutStatistics{},
	&WorkoutRoute{},
	&ActivitySummary{},
	&ClinicalRecord{},
	&Audiogram{},
	&SensitivityPoint{},
	&VisionPrescription{},
	&EyePrescription{},
	&VisionAttachment{},
	&MetadataEntry{},
	&HeartRateVariabilityList{},
	&InstantaneousBeatsPerMinute{},
}

func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	// Tuning for a large single-writer bulk load.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenQueryDB opens an existing archive for querying without mutating schema.
func OpenQueryDB(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// Store is the storage gateway the pipeline flushes through. It owns the
// transaction boundary: bulk inserts accumulate in one open transaction and
// become durable only on Commit. Single-writer; no internal locking.
type Store struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn() *gorm.DB {
	if s.tx == nil {
		s.tx = s.db.Begin()
	}
	return s.tx
}

// BulkInsert writes one slice of rows inside the current transaction,
// split into multi-row statements small enough to stay under SQLite's
// bind-variable limit. It performs no per-row uniqueness checks; the
// caller's duplicate index guarantees the rows are new.
func (s *Store) BulkInsert(rows any) (int64, error) {
	res := s.conn().CreateInBatches(rows, 500)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Commit makes all bulk inserts since the previous commit durable. The next
// insert opens a fresh transaction.
func (s *Store) Commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit().Error
	s.tx = nil
	return err
}

// Close rolls back any uncommitted work. After a clean run there is nothing
// to roll back; after an abort the last successful commit is the recovery
// point.
func (s *Store) Close() error {
	if s.tx != nil {
		err := s.tx.Rollback().Error
		s.tx = nil
		if err != nil {
			return err
		}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnsureSession returns the archive's import session, creating it on first
// use. All runs against the same database share the one session row.
func (s *Store) EnsureSession(locale string) (*ImportSession, error) {
	var sess ImportSession
	err := s.db.First(&sess).Error
	if err == nil {
		return &sess, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	sess = ImportSession{
		ID:        uuid.NewString(),
		Locale:    locale,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

// SaveSession persists updates to the session row (export date, Me fields)
// outside the bulk transaction.
func (s *Store) SaveSession(sess *ImportSession) error {
	return s.db.Save(sess).Error
}

// PreloadRecordKeys returns the identity keys of every persisted record for
// the session, mapped to the row IDs correlations may need to link against.
func (s *Store) PreloadRecordKeys(sessionID string) (map[RecordKey]string, error) {
	var rows []Record
	err := s.db.Select("id", "type", "start_date", "end_date", "value").
		Where("session_id = ?", sessionID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	keys := make(map[RecordKey]string, len(rows))
	for i := range rows {
		keys[keyForRecord(&rows[i])] = rows[i].ID
	}
	return keys, nil
}

func (s *Store) PreloadCorrelationKeys(sessionID string) (map[CorrelationKey]struct{}, error) {
	var rows []Correlation
	err := s.db.Select("type", "start_date", "end_date").
		Where("session_id = ?", sessionID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	keys := make(map[CorrelationKey]struct{}, len(rows))
	for i := range rows {
		keys[keyForCorrelation(&rows[i])] = struct{}{}
	}
	return keys, nil
}

func (s *Store) PreloadWorkoutKeys(sessionID string) (map[WorkoutKey]struct{}, error) {
	var rows []Workout
	err := s.db.Select("activity_type", "start_date", "end_date").
		Where("session_id = ?", sessionID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	keys := make(map[WorkoutKey]struct{}, len(rows))
	for i := range rows {
		keys[keyForWorkout(&rows[i])] = struct{}{}
	}
	return keys, nil
}

func (s *Store) PreloadActivitySummaryKeys(sessionID string) (map[ActivitySummaryKey]struct{}, error) {
	var rows []ActivitySummary
	err := s.db.Select("date_components").
		Where("session_id = ?", sessionID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	keys := make(map[ActivitySummaryKey]struct{}, len(rows))
	for i := range rows {
		keys[keyForActivitySummary(&rows[i])] = struct{}{}
	}
	return keys, nil
}

func (s *Store) PreloadClinicalRecordKeys(sessionID string) (map[ClinicalRecordKey]struct{}, error) {
	var rows []ClinicalRecord
	err := s.db.Select("identifier").
		Where("session_id = ?", sessionID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	keys := make(map[ClinicalRecordKey]struct{}, len(rows))
	for i := range rows {
		keys[keyForClinicalRecord(&rows[i])] = struct{}{}
	}
	return keys, nil
}

func (s *Store) PreloadAudiogramKeys(sessionID string) (map[AudiogramKey]struct{}, error) {
	var rows []Audiogram
	err := s.db.Select("type", "start_date", "end_date").
		Where("session_id = ?", sessionID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	keys := make(map[AudiogramKey]struct{}, len(rows))
	for i := range rows {
		keys[keyForAudiogram(&rows[i])] = struct{}{}
	}
	return keys, nil
}

func (s *Store) PreloadVisionPrescriptionKeys(sessionID string) (map[VisionPrescriptionKey]struct{}, error) {
	var rows []VisionPrescription
	err := s.db.Select("type", "date_issued").
		Where("session_id = ?", sessionID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	keys := make(map[VisionPrescriptionKey]struct{}, len(rows))
	for i := range rows {
		keys[keyForVisionPrescription(&rows[i])] = struct{}{}
	}
	return keys, nil
}
