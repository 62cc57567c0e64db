package importer

import "time"

// ImportSession is the root row every imported entity hangs off. One archive
// database holds exactly one session; re-running an import against the same
// database reuses it, which is what scopes duplicate detection across runs.
type ImportSession struct {
	ID                          string `gorm:"primaryKey;size:36"`
	Locale                      string `gorm:"size:32"`
	ExportDate                  *time.Time
	DateOfBirth                 string `gorm:"size:64"`
	BiologicalSex               string `gorm:"size:64"`
	BloodType                   string `gorm:"size:64"`
	FitzpatrickSkinType         string `gorm:"size:64"`
	CardioFitnessMedicationsUse string `gorm:"size:64"`
	CreatedAt                   time.Time
}

func (ImportSession) TableName() string { return "import_sessions" }

type Record struct {
	ID            string `gorm:"primaryKey;size:36"`
	Type          string `gorm:"index:idx_record_identity,priority:1;size:128"`
	SourceName    string `gorm:"size:256"`
	SourceVersion string `gorm:"size:64"`
	Device        string `gorm:"type:text"`
	Unit          string `gorm:"size:64"`
	// Value is stored as exported; an absent attribute is persisted as the
	// empty string so the identity index never has to reason about NULLs.
	Value        string `gorm:"index:idx_record_identity,priority:4;type:text"`
	CreationDate *time.Time
	StartDate    time.Time `gorm:"index:idx_record_identity,priority:2"`
	EndDate      time.Time `gorm:"index:idx_record_identity,priority:3"`
	SessionID    string    `gorm:"index:idx_record_identity,priority:5;size:36"`
}

type Correlation struct {
	ID            string `gorm:"primaryKey;size:36"`
	Type          string `gorm:"index:idx_correlation_identity,priority:1;size:128"`
	SourceName    string `gorm:"size:256"`
	SourceVersion string `gorm:"size:64"`
	Device        string `gorm:"type:text"`
	CreationDate  *time.Time
	StartDate     time.Time `gorm:"index:idx_correlation_identity,priority:2"`
	EndDate       time.Time `gorm:"index:idx_correlation_identity,priority:3"`
	SessionID     string    `gorm:"index:idx_correlation_identity,priority:4;size:36"`
}

// CorrelationRecord links a correlation to the records it wraps. The records
// themselves live in the record table (the export also lists them as
// standalone elements), so the join row is the only parent/child artifact.
type CorrelationRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	CorrelationID string `gorm:"index:idx_correlation_record,priority:1;size:36"`
	RecordID      string `gorm:"index:idx_correlation_record,priority:2;size:36"`
}

type Workout struct {
	ID                    string `gorm:"primaryKey;size:36"`
	ActivityType          string `gorm:"index:idx_workout_identity,priority:1;size:128"`
	Duration              *float64
	DurationUnit          string `gorm:"size:32"`
	TotalDistance         *float64
	TotalDistanceUnit     string `gorm:"size:32"`
	TotalEnergyBurned     *float64
	TotalEnergyBurnedUnit string `gorm:"size:32"`
	SourceName            string `gorm:"size:256"`
	SourceVersion         string `gorm:"size:64"`
	Device                string `gorm:"type:text"`
	CreationDate          *time.Time
	StartDate             time.Time `gorm:"index:idx_workout_identity,priority:2"`
	EndDate               time.Time `gorm:"index:idx_workout_identity,priority:3"`
	SessionID             string    `gorm:"index:idx_workout_identity,priority:4;size:36"`
}

type WorkoutEvent struct {
	ID           string `gorm:"primaryKey;size:36"`
	WorkoutID    string `gorm:"index;size:36"`
	Type         string `gorm:"size:128"`
	Date         time.Time
	Duration     *float64
	DurationUnit string `gorm:"size:32"`
}

type WorkoutStatistics struct {
	ID        string `gorm:"primaryKey;size:36"`
	WorkoutID string `gorm:"index;size:36"`
	Type      string `gorm:"size:128"`
	StartDate time.Time
	EndDate   time.Time
	Average   *float64
	Minimum   *float64
	Maximum   *float64
	Sum       *float64
	Unit      string `gorm:"size:32"`
}

func (WorkoutStatistics) TableName() string { return "workout_statistics" }

type WorkoutRoute struct {
	ID            string `gorm:"primaryKey;size:36"`
	WorkoutID     string `gorm:"index;size:36"`
	SourceName    string `gorm:"size:256"`
	SourceVersion string `gorm:"size:64"`
	Device        string `gorm:"type:text"`
	CreationDate  *time.Time
	StartDate     time.Time
	EndDate       time.Time
	FilePath      string `gorm:"size:512"`
}

type ActivitySummary struct {
	ID                     string `gorm:"primaryKey;size:36"`
	DateComponents         string `gorm:"index:idx_activity_summary_identity,priority:1;size:32"`
	ActiveEnergyBurned     *float64
	ActiveEnergyBurnedGoal *float64
	ActiveEnergyBurnedUnit string `gorm:"size:32"`
	AppleMoveTime          *float64
	AppleMoveTimeGoal      *float64
	AppleExerciseTime      *float64
	AppleExerciseTimeGoal  *float64
	AppleStandHours        *int
	AppleStandHoursGoal    *int
	SessionID              string `gorm:"index:idx_activity_summary_identity,priority:2;size:36"`
}

func (ActivitySummary) TableName() string { return "activity_summaries" }

type ClinicalRecord struct {
	ID               string `gorm:"primaryKey;size:36"`
	Type             string `gorm:"size:128"`
	Identifier       string `gorm:"index:idx_clinical_identity,priority:1;size:256"`
	SourceName       string `gorm:"size:256"`
	SourceURL        string `gorm:"size:512"`
	FHIRVersion      string `gorm:"size:32"`
	ReceivedDate     time.Time
	ResourceFilePath string `gorm:"size:512"`
	SessionID        string `gorm:"index:idx_clinical_identity,priority:2;size:36"`
}

type Audiogram struct {
	ID            string `gorm:"primaryKey;size:36"`
	Type          string `gorm:"index:idx_audiogram_identity,priority:1;size:128"`
	SourceName    string `gorm:"size:256"`
	SourceVersion string `gorm:"size:64"`
	Device        string `gorm:"type:text"`
	CreationDate  *time.Time
	StartDate     time.Time `gorm:"index:idx_audiogram_identity,priority:2"`
	EndDate       time.Time `gorm:"index:idx_audiogram_identity,priority:3"`
	SessionID     string    `gorm:"index:idx_audiogram_identity,priority:4;size:36"`
}

type SensitivityPoint struct {
	ID                              string `gorm:"primaryKey;size:36"`
	AudiogramID                     string `gorm:"index;size:36"`
	FrequencyValue                  float64
	FrequencyUnit                   string `gorm:"size:32"`
	LeftEarValue                    *float64
	LeftEarUnit                     string `gorm:"size:32"`
	LeftEarMasked                   *bool
	LeftEarClampingRangeLowerBound  *float64
	LeftEarClampingRangeUpperBound  *float64
	RightEarValue                   *float64
	RightEarUnit                    string `gorm:"size:32"`
	RightEarMasked                  *bool
	RightEarClampingRangeLowerBound *float64
	RightEarClampingRangeUpperBound *float64
}

type VisionPrescription struct {
	ID             string    `gorm:"primaryKey;size:36"`
	Type           string    `gorm:"index:idx_prescription_identity,priority:1;size:128"`
	DateIssued     time.Time `gorm:"index:idx_prescription_identity,priority:2"`
	ExpirationDate *time.Time
	Brand          string `gorm:"size:128"`
	SessionID      string `gorm:"index:idx_prescription_identity,priority:3;size:36"`
}

type EyeSide string

const (
	EyeLeft  EyeSide = "left"
	EyeRight EyeSide = "right"
)

type EyePrescription struct {
	ID                   string  `gorm:"primaryKey;size:36"`
	VisionPrescriptionID string  `gorm:"index;size:36"`
	EyeSide              EyeSide `gorm:"size:8"`
	Sphere               *float64
	SphereUnit           string `gorm:"size:32"`
	Cylinder             *float64
	CylinderUnit         string `gorm:"size:32"`
	Axis                 *float64
	AxisUnit             string `gorm:"size:32"`
	Add                  *float64
	AddUnit              string `gorm:"size:32"`
	Vertex               *float64
	VertexUnit           string `gorm:"size:32"`
	PrismAmount          *float64
	PrismAmountUnit      string `gorm:"size:32"`
	PrismAngle           *float64
	PrismAngleUnit       string `gorm:"size:32"`
	FarPD                *float64
	FarPDUnit            string `gorm:"size:32"`
	NearPD               *float64
	NearPDUnit           string `gorm:"size:32"`
	BaseCurve            *float64
	BaseCurveUnit        string `gorm:"size:32"`
	Diameter             *float64
	DiameterUnit         string `gorm:"size:32"`
}

type VisionAttachment struct {
	ID                   string `gorm:"primaryKey;size:36"`
	VisionPrescriptionID string `gorm:"index;size:36"`
	Identifier           string `gorm:"size:256"`
}

// MetadataEntry belongs to whichever container element it appeared under.
type MetadataEntry struct {
	ID         string `gorm:"primaryKey;size:36"`
	ParentType string `gorm:"index:idx_metadata_parent,priority:1;size:32"`
	ParentID   string `gorm:"index:idx_metadata_parent,priority:2;size:36"`
	Key        string `gorm:"size:256"`
	Value      string `gorm:"type:text"`
}

func (MetadataEntry) TableName() string { return "metadata_entries" }

type HeartRateVariabilityList struct {
	ID       string `gorm:"primaryKey;size:36"`
	RecordID string `gorm:"index;size:36"`
}

func (HeartRateVariabilityList) TableName() string { return "hrv_lists" }

type InstantaneousBeatsPerMinute struct {
	ID        string `gorm:"primaryKey;size:36"`
	HRVListID string `gorm:"index;size:36"`
	BPM       int
	Time      time.Time
}

func (InstantaneousBeatsPerMinute) TableName() string { return "instantaneous_bpm" }
