// Package ingest normalizes raw persisted snapshots into the canonical typed
// model. Legacy snapshots carry duck-typed field aliases (startDate vs
// start_date vs orderDate, vaccine vs vaccine_type, residentId vs mrn
// references); alias resolution happens here, once, at the boundary so the
// metrics and migration engines only ever see one name per attribute.
package ingest

import (
	"time"

	"github.com/carewatch/stewardship/pkg/logger"
	"github.com/carewatch/stewardship/pkg/types"
)

// Normalizer converts raw snapshot documents into typed snapshots.
type Normalizer struct {
	logger *logger.Logger
}

// NewNormalizer creates a new snapshot normalizer
func NewNormalizer(log *logger.Logger) *Normalizer {
	return &Normalizer{logger: log}
}

// NormalizeSnapshot resolves field aliases in a raw snapshot document into
// the canonical typed model. Records with unparseable optional fields are
// carried with zero values rather than dropped; only a nil document is an
// error.
func (n *Normalizer) NormalizeSnapshot(raw map[string]interface{}) (*types.Snapshot, error) {
	if raw == nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "raw snapshot is nil", nil)
	}

	snap := types.NewSnapshot()
	snap.Meta = normalizeMeta(firstMap(raw, "meta", "migration"))

	for mrn, entry := range firstMapOfMaps(raw, "residentsByMrn", "residents_by_mrn", "residents") {
		r := normalizeResident(entry)
		if r.MRN == "" {
			r.MRN = mrn
		}
		snap.ResidentsByMRN[r.MRN] = r
		if r.ResidentID != "" {
			snap.ResidentsByID[r.ResidentID] = r
		}
	}
	for _, entry := range firstMapOfMaps(raw, "residentsById", "residents_by_id") {
		r := normalizeResident(entry)
		if r.ResidentID == "" {
			continue
		}
		snap.ResidentsByID[r.ResidentID] = r
		if r.MRN != "" {
			if _, seen := snap.ResidentsByMRN[r.MRN]; !seen {
				snap.ResidentsByMRN[r.MRN] = r
			}
		}
	}

	for _, entry := range firstSliceOfMaps(raw, "antibioticCourses", "antibiotic_courses", "abtRecords", "abt_records") {
		snap.AntibioticCourses = append(snap.AntibioticCourses, normalizeCourse(entry))
	}
	for _, entry := range firstSliceOfMaps(raw, "ipCases", "ip_cases", "infectionCases") {
		snap.IPCases = append(snap.IPCases, normalizeIPCase(entry))
	}
	for _, entry := range firstSliceOfMaps(raw, "vaccinations", "immunizations") {
		snap.Vaccinations = append(snap.Vaccinations, normalizeVaccination(entry))
	}
	for _, entry := range firstSliceOfMaps(raw, "outbreaks") {
		snap.Outbreaks = append(snap.Outbreaks, normalizeOutbreak(entry))
	}
	for _, entry := range firstSliceOfMaps(raw, "censusSnapshots", "census_snapshots", "census") {
		snap.CensusSnapshots = append(snap.CensusSnapshots, &types.CensusSnapshot{
			Date:        firstString(entry, "date", "censusDate", "census_date"),
			CensusCount: firstInt(entry, "censusCount", "census_count", "count"),
		})
	}
	for _, entry := range firstSliceOfMaps(raw, "workflowMetrics", "workflow_metrics") {
		snap.WorkflowMetrics = append(snap.WorkflowMetrics, normalizeWorkflowMetric(entry))
	}

	if n.logger != nil {
		n.logger.WithFields(map[string]interface{}{
			"residents": len(snap.ResidentsByMRN),
			"courses":   len(snap.AntibioticCourses),
			"ip_cases":  len(snap.IPCases),
		}).Debug("Snapshot normalized")
	}
	return snap, nil
}

func normalizeMeta(raw map[string]interface{}) types.SnapshotMeta {
	if raw == nil {
		return types.SnapshotMeta{}
	}
	return types.SnapshotMeta{
		SchemaVersion:      firstInt(raw, "schemaVersion", "schema_version", "version"),
		ResidentIDMigrated: firstBool(raw, "residentIdMigrated", "resident_id_migrated"),
	}
}

func normalizeResident(raw map[string]interface{}) *types.Resident {
	return &types.Resident{
		ResidentID:     firstString(raw, "residentId", "resident_id"),
		MRN:            firstString(raw, "mrn", "medicalRecordNumber"),
		Name:           firstString(raw, "name", "fullName", "full_name"),
		DOB:            firstString(raw, "dob", "dateOfBirth", "date_of_birth"),
		Unit:           firstString(raw, "unit", "wing"),
		Room:           firstString(raw, "room", "roomNumber", "room_number"),
		ActiveOnCensus: firstBool(raw, "activeOnCensus", "active_on_census", "active"),
		AdmittedAt:     firstString(raw, "admittedAt", "admitted_at", "admissionDate"),
	}
}

func normalizeCourse(raw map[string]interface{}) *types.AntibioticCourse {
	return &types.AntibioticCourse{
		ID:         firstString(raw, "id"),
		ResidentID: firstString(raw, "residentId", "resident_id"),
		MRN:        firstString(raw, "mrn"),
		Medication: firstString(raw, "medication", "drug", "antibiotic"),
		Indication: firstString(raw, "indication", "reason"),
		StartDate:  firstString(raw, "startDate", "start_date", "orderDate", "order_date"),
		EndDate:    firstString(raw, "endDate", "end_date", "stopDate", "plannedStopDate"),
		Status:     types.CourseStatus(firstString(raw, "status")),
	}
}

func normalizeIPCase(raw map[string]interface{}) *types.IPCase {
	return &types.IPCase{
		ID:             firstString(raw, "id"),
		ResidentID:     firstString(raw, "residentId", "resident_id"),
		MRN:            firstString(raw, "mrn"),
		Protocol:       firstString(raw, "protocol", "precautionType", "precaution_type"),
		InfectionType:  firstString(raw, "infectionType", "infection_type", "organismType"),
		Organism:       firstString(raw, "organism"),
		Unit:           firstString(raw, "unit", "wing"),
		OnsetDate:      firstString(raw, "onsetDate", "onset_date"),
		ResolutionDate: firstString(raw, "resolutionDate", "resolution_date", "resolvedDate"),
		Status:         types.IPCaseStatus(firstString(raw, "status")),
	}
}

func normalizeVaccination(raw map[string]interface{}) *types.VaccinationRecord {
	return &types.VaccinationRecord{
		ID:         firstString(raw, "id"),
		ResidentID: firstString(raw, "residentId", "resident_id"),
		MRN:        firstString(raw, "mrn"),
		Vaccine:    firstString(raw, "vaccine", "vaccine_type", "vaccineType"),
		GivenDate:  firstString(raw, "givenDate", "given_date", "date", "administeredDate"),
		Declined:   firstBool(raw, "declined"),
	}
}

func normalizeOutbreak(raw map[string]interface{}) *types.Outbreak {
	o := &types.Outbreak{
		ID:        firstString(raw, "id"),
		Type:      firstString(raw, "type", "outbreakType", "outbreak_type"),
		Status:    types.OutbreakStatus(firstString(raw, "status")),
		StartDate: firstString(raw, "startDate", "start_date"),
		CaseCount: firstInt(raw, "caseCount", "case_count"),
	}
	if ts, ok := firstTime(raw, "resolvedAt", "resolved_at"); ok {
		o.ResolvedAt = &ts
	}
	for _, v := range firstSlice(raw, "affectedUnits", "affected_units", "units") {
		if s, ok := v.(string); ok && s != "" {
			o.AffectedUnits = append(o.AffectedUnits, s)
		}
	}
	return o
}

func normalizeWorkflowMetric(raw map[string]interface{}) *types.WorkflowMetric {
	m := &types.WorkflowMetric{
		CaseID:   firstString(raw, "caseId", "case_id"),
		CaseType: firstString(raw, "caseType", "case_type"),
		Event:    types.WorkflowEvent(firstString(raw, "event", "action")),
		Clicks:   firstInt(raw, "clicks", "clickCount", "click_count"),
	}
	if ts, ok := firstTime(raw, "timestamp", "ts", "recordedAt"); ok {
		m.Timestamp = ts
	}
	return m
}

// firstString returns the first alias key present with a non-empty string
// value.
func firstString(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstInt accepts both JSON numbers (float64) and native ints.
func firstInt(raw map[string]interface{}, keys ...string) int {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case int64:
			return int(v)
		}
	}
	return 0
}

func firstBool(raw map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		if b, ok := raw[k].(bool); ok {
			return b
		}
	}
	return false
}

// firstTime parses RFC3339 timestamps and bare calendar dates.
func firstTime(raw map[string]interface{}, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		s, ok := raw[k].(string)
		if !ok || s == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts, true
		}
		if ts, err := time.Parse("2006-01-02", s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func firstMap(raw map[string]interface{}, keys ...string) map[string]interface{} {
	for _, k := range keys {
		if m, ok := raw[k].(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}

func firstSlice(raw map[string]interface{}, keys ...string) []interface{} {
	for _, k := range keys {
		if s, ok := raw[k].([]interface{}); ok {
			return s
		}
	}
	return nil
}

func firstSliceOfMaps(raw map[string]interface{}, keys ...string) []map[string]interface{} {
	var out []map[string]interface{}
	for _, v := range firstSlice(raw, keys...) {
		if m, ok := v.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func firstMapOfMaps(raw map[string]interface{}, keys ...string) map[string]map[string]interface{} {
	src := firstMap(raw, keys...)
	if src == nil {
		return nil
	}
	out := make(map[string]map[string]interface{}, len(src))
	for k, v := range src {
		if m, ok := v.(map[string]interface{}); ok {
			out[k] = m
		}
	}
	return out
}
