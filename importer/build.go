package importer

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// timeLayout is the export's fixed offset-aware format,
// e.g. "2023-12-31 23:59:59 +0000". All stored timestamps are UTC.
const timeLayout = "2006-01-02 15:04:05 -0700"

type attrMap map[string]string

func attrsOf(se xml.StartElement) attrMap {
	m := make(attrMap, len(se.Attr))
	for _, a := range se.Attr {
		m[a.Name.Local] = a.Value
	}
	return m
}

func parseExportTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func reqTime(a attrMap, name string) (time.Time, error) {
	s, ok := a[name]
	if !ok || s == "" {
		return time.Time{}, fmt.Errorf("missing attribute %q", name)
	}
	t, err := parseExportTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("attribute %q: %w", name, err)
	}
	return t, nil
}

func optTime(a attrMap, name string) (*time.Time, error) {
	s, ok := a[name]
	if !ok || s == "" {
		return nil, nil
	}
	t, err := parseExportTime(s)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", name, err)
	}
	return &t, nil
}

func reqFloat(a attrMap, name string) (float64, error) {
	s, ok := a[name]
	if !ok || s == "" {
		return 0, fmt.Errorf("missing attribute %q", name)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %q: %w", name, err)
	}
	return f, nil
}

func optFloat(a attrMap, name string) (*float64, error) {
	s, ok := a[name]
	if !ok || s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", name, err)
	}
	return &f, nil
}

func optInt(a attrMap, name string) (*int, error) {
	s, ok := a[name]
	if !ok || s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", name, err)
	}
	return &n, nil
}

func reqInt(a attrMap, name string) (int, error) {
	s, ok := a[name]
	if !ok || s == "" {
		return 0, fmt.Errorf("missing attribute %q", name)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("attribute %q: %w", name, err)
	}
	return n, nil
}

func optBool(a attrMap, name string) *bool {
	s, ok := a[name]
	if !ok || s == "" {
		return nil
	}
	v := s == "true"
	return &v
}

func buildRecord(a attrMap, sessionID string) (*Record, error) {
	start, err := reqTime(a, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := reqTime(a, "endDate")
	if err != nil {
		return nil, err
	}
	created, err := optTime(a, "creationDate")
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:            uuid.NewString(),
		Type:          a["type"],
		SourceName:    a["sourceName"],
		SourceVersion: a["sourceVersion"],
		Device:        a["device"],
		Unit:          a["unit"],
		Value:         a["value"],
		CreationDate:  created,
		StartDate:     start,
		EndDate:       end,
		SessionID:     sessionID,
	}, nil
}

func buildCorrelation(a attrMap, sessionID string) (*Correlation, error) {
	start, err := reqTime(a, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := reqTime(a, "endDate")
	if err != nil {
		return nil, err
	}
	created, err := optTime(a, "creationDate")
	if err != nil {
		return nil, err
	}
	return &Correlation{
		ID:            uuid.NewString(),
		Type:          a["type"],
		SourceName:    a["sourceName"],
		SourceVersion: a["sourceVersion"],
		Device:        a["device"],
		CreationDate:  created,
		StartDate:     start,
		EndDate:       end,
		SessionID:     sessionID,
	}, nil
}

func buildWorkout(a attrMap, sessionID string) (*Workout, error) {
	start, err := reqTime(a, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := reqTime(a, "endDate")
	if err != nil {
		return nil, err
	}
	created, err := optTime(a, "creationDate")
	if err != nil {
		return nil, err
	}
	duration, err := optFloat(a, "duration")
	if err != nil {
		return nil, err
	}
	distance, err := optFloat(a, "totalDistance")
	if err != nil {
		return nil, err
	}
	energy, err := optFloat(a, "totalEnergyBurned")
	if err != nil {
		return nil, err
	}
	return &Workout{
		ID:                    uuid.NewString(),
		ActivityType:          a["workoutActivityType"],
		Duration:              duration,
		DurationUnit:          a["durationUnit"],
		TotalDistance:         distance,
		TotalDistanceUnit:     a["totalDistanceUnit"],
		TotalEnergyBurned:     energy,
		TotalEnergyBurnedUnit: a["totalEnergyBurnedUnit"],
		SourceName:            a["sourceName"],
		SourceVersion:         a["sourceVersion"],
		Device:                a["device"],
		CreationDate:          created,
		StartDate:             start,
		EndDate:               end,
		SessionID:             sessionID,
	}, nil
}

func buildWorkoutEvent(a attrMap, workoutID string) (*WorkoutEvent, error) {
	date, err := reqTime(a, "date")
	if err != nil {
		return nil, err
	}
	duration, err := optFloat(a, "duration")
	if err != nil {
		return nil, err
	}
	return &WorkoutEvent{
		ID:           uuid.NewString(),
		WorkoutID:    workoutID,
		Type:         a["type"],
		Date:         date,
		Duration:     duration,
		DurationUnit: a["durationUnit"],
	}, nil
}

func buildWorkoutStatistics(a attrMap, workoutID string) (*WorkoutStatistics, error) {
	start, err := reqTime(a, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := reqTime(a, "endDate")
	if err != nil {
		return nil, err
	}
	avg, err := optFloat(a, "average")
	if err != nil {
		return nil, err
	}
	min, err := optFloat(a, "minimum")
	if err != nil {
		return nil, err
	}
	max, err := optFloat(a, "maximum")
	if err != nil {
		return nil, err
	}
	sum, err := optFloat(a, "sum")
	if err != nil {
		return nil, err
	}
	return &WorkoutStatistics{
		ID:        uuid.NewString(),
		WorkoutID: workoutID,
		Type:      a["type"],
		StartDate: start,
		EndDate:   end,
		Average:   avg,
		Minimum:   min,
		Maximum:   max,
		Sum:       sum,
		Unit:      a["unit"],
	}, nil
}

func buildWorkoutRoute(a attrMap, workoutID string) (*WorkoutRoute, error) {
	start, err := reqTime(a, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := reqTime(a, "endDate")
	if err != nil {
		return nil, err
	}
	created, err := optTime(a, "creationDate")
	if err != nil {
		return nil, err
	}
	return &WorkoutRoute{
		ID:            uuid.NewString(),
		WorkoutID:     workoutID,
		SourceName:    a["sourceName"],
		SourceVersion: a["sourceVersion"],
		Device:        a["device"],
		CreationDate:  created,
		StartDate:     start,
		EndDate:       end,
		FilePath:      a["filePath"],
	}, nil
}

func buildActivitySummary(a attrMap, sessionID string) (*ActivitySummary, error) {
	energy, err := optFloat(a, "activeEnergyBurned")
	if err != nil {
		return nil, err
	}
	energyGoal, err := optFloat(a, "activeEnergyBurnedGoal")
	if err != nil {
		return nil, err
	}
	moveTime, err := optFloat(a, "appleMoveTime")
	if err != nil {
		return nil, err
	}
	moveTimeGoal, err := optFloat(a, "appleMoveTimeGoal")
	if err != nil {
		return nil, err
	}
	exercise, err := optFloat(a, "appleExerciseTime")
	if err != nil {
		return nil, err
	}
	exerciseGoal, err := optFloat(a, "appleExerciseTimeGoal")
	if err != nil {
		return nil, err
	}
	standHours, err := optInt(a, "appleStandHours")
	if err != nil {
		return nil, err
	}
	standHoursGoal, err := optInt(a, "appleStandHoursGoal")
	if err != nil {
		return nil, err
	}
	return &ActivitySummary{
		ID:                     uuid.NewString(),
		DateComponents:         a["dateComponents"],
		ActiveEnergyBurned:     energy,
		ActiveEnergyBurnedGoal: energyGoal,
		ActiveEnergyBurnedUnit: a["activeEnergyBurnedUnit"],
		AppleMoveTime:          moveTime,
		AppleMoveTimeGoal:      moveTimeGoal,
		AppleExerciseTime:      exercise,
		AppleExerciseTimeGoal:  exerciseGoal,
		AppleStandHours:        standHours,
		AppleStandHoursGoal:    standHoursGoal,
		SessionID:              sessionID,
	}, nil
}

func buildClinicalRecord(a attrMap, sessionID string) (*ClinicalRecord, error) {
	received, err := reqTime(a, "receivedDate")
	if err != nil {
		return nil, err
	}
	return &ClinicalRecord{
		ID:               uuid.NewString(),
		Type:             a["type"],
		Identifier:       a["identifier"],
		SourceName:       a["sourceName"],
		SourceURL:        a["sourceURL"],
		FHIRVersion:      a["fhirVersion"],
		ReceivedDate:     received,
		ResourceFilePath: a["resourceFilePath"],
		SessionID:        sessionID,
	}, nil
}

func buildAudiogram(a attrMap, sessionID string) (*Audiogram, error) {
	start, err := reqTime(a, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := reqTime(a, "endDate")
	if err != nil {
		return nil, err
	}
	created, err := optTime(a, "creationDate")
	if err != nil {
		return nil, err
	}
	return &Audiogram{
		ID:            uuid.NewString(),
		Type:          a["type"],
		SourceName:    a["sourceName"],
		SourceVersion: a["sourceVersion"],
		Device:        a["device"],
		CreationDate:  created,
		StartDate:     start,
		EndDate:       end,
		SessionID:     sessionID,
	}, nil
}

func buildSensitivityPoint(a attrMap, audiogramID string) (*SensitivityPoint, error) {
	freq, err := reqFloat(a, "frequencyValue")
	if err != nil {
		return nil, err
	}
	leftValue, err := optFloat(a, "leftEarValue")
	if err != nil {
		return nil, err
	}
	leftLower, err := optFloat(a, "leftEarClampingRangeLowerBound")
	if err != nil {
		return nil, err
	}
	leftUpper, err := optFloat(a, "leftEarClampingRangeUpperBound")
	if err != nil {
		return nil, err
	}
	rightValue, err := optFloat(a, "rightEarValue")
	if err != nil {
		return nil, err
	}
	rightLower, err := optFloat(a, "rightEarClampingRangeLowerBound")
	if err != nil {
		return nil, err
	}
	rightUpper, err := optFloat(a, "rightEarClampingRangeUpperBound")
	if err != nil {
		return nil, err
	}
	return &SensitivityPoint{
		ID:                              uuid.NewString(),
		AudiogramID:                     audiogramID,
		FrequencyValue:                  freq,
		FrequencyUnit:                   a["frequencyUnit"],
		LeftEarValue:                    leftValue,
		LeftEarUnit:                     a["leftEarUnit"],
		LeftEarMasked:                   optBool(a, "leftEarMasked"),
		LeftEarClampingRangeLowerBound:  leftLower,
		LeftEarClampingRangeUpperBound:  leftUpper,
		RightEarValue:                   rightValue,
		RightEarUnit:                    a["rightEarUnit"],
		RightEarMasked:                  optBool(a, "rightEarMasked"),
		RightEarClampingRangeLowerBound: rightLower,
		RightEarClampingRangeUpperBound: rightUpper,
	}, nil
}

func buildVisionPrescription(a attrMap, sessionID string) (*VisionPrescription, error) {
	issued, err := reqTime(a, "dateIssued")
	if err != nil {
		return nil, err
	}
	expiration, err := optTime(a, "expirationDate")
	if err != nil {
		return nil, err
	}
	return &VisionPrescription{
		ID:             uuid.NewString(),
		Type:           a["type"],
		DateIssued:     issued,
		ExpirationDate: expiration,
		Brand:          a["brand"],
		SessionID:      sessionID,
	}, nil
}

func buildEyePrescription(a attrMap, prescriptionID string) (*EyePrescription, error) {
	side := EyeRight
	if a["eye"] == "left" {
		side = EyeLeft
	}
	p := &EyePrescription{
		ID:                   uuid.NewString(),
		VisionPrescriptionID: prescriptionID,
		EyeSide:              side,
		SphereUnit:           a["sphereUnit"],
		CylinderUnit:         a["cylinderUnit"],
		AxisUnit:             a["axisUnit"],
		AddUnit:              a["addUnit"],
		VertexUnit:           a["vertexUnit"],
		PrismAmountUnit:      a["prismAmountUnit"],
		PrismAngleUnit:       a["prismAngleUnit"],
		FarPDUnit:            a["farPDUnit"],
		NearPDUnit:           a["nearPDUnit"],
		BaseCurveUnit:        a["baseCurveUnit"],
		DiameterUnit:         a["diameterUnit"],
	}
	fields := []struct {
		attr string
		dst  **float64
	}{
		{"sphere", &p.Sphere},
		{"cylinder", &p.Cylinder},
		{"axis", &p.Axis},
		{"add", &p.Add},
		{"vertex", &p.Vertex},
		{"prismAmount", &p.PrismAmount},
		{"prismAngle", &p.PrismAngle},
		{"farPD", &p.FarPD},
		{"nearPD", &p.NearPD},
		{"baseCurve", &p.BaseCurve},
		{"diameter", &p.Diameter},
	}
	for _, f := range fields {
		v, err := optFloat(a, f.attr)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return p, nil
}

func buildVisionAttachment(a attrMap, prescriptionID string) *VisionAttachment {
	return &VisionAttachment{
		ID:                   uuid.NewString(),
		VisionPrescriptionID: prescriptionID,
		Identifier:           a["identifier"],
	}
}

func buildMetadataEntry(a attrMap, parentType, parentID string) *MetadataEntry {
	return &MetadataEntry{
		ID:         uuid.NewString(),
		ParentType: parentType,
		ParentID:   parentID,
		Key:        a["key"],
		Value:      a["value"],
	}
}

func buildBPMSample(a attrMap, listID string) (*InstantaneousBeatsPerMinute, error) {
	bpm, err := reqInt(a, "bpm")
	if err != nil {
		return nil, err
	}
	at, err := reqTime(a, "time")
	if err != nil {
		return nil, err
	}
	return &InstantaneousBeatsPerMinute{
		ID:        uuid.NewString(),
		HRVListID: listID,
		BPM:       bpm,
		Time:      at,
	}, nil
}
