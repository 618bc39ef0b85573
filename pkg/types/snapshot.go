package types

import "time"

// CurrentSchemaVersion is the schema version a fully migrated snapshot
// carries. The workflow-metrics store was introduced at version 3.
const (
	CurrentSchemaVersion         = 3
	WorkflowMetricsSchemaVersion = 3
)

// SnapshotMeta carries schema bookkeeping for a persisted database snapshot.
type SnapshotMeta struct {
	SchemaVersion      int  `json:"schema_version"`
	ResidentIDMigrated bool `json:"resident_id_migrated"`
}

// Snapshot is the full persisted database snapshot for one facility, as
// loaded by the persistence collaborator. The core mutates and derives from
// snapshots but never performs I/O on them; callers own load/save. Another
// client may save between our load and save, so nothing here assumes
// exclusive ownership.
type Snapshot struct {
	ResidentsByMRN    map[string]*Resident `json:"residents_by_mrn"`
	ResidentsByID     map[string]*Resident `json:"residents_by_id"`
	AntibioticCourses []*AntibioticCourse  `json:"antibiotic_courses"`
	IPCases           []*IPCase            `json:"ip_cases"`
	Vaccinations      []*VaccinationRecord `json:"vaccinations"`
	Outbreaks         []*Outbreak          `json:"outbreaks"`
	CensusSnapshots   []*CensusSnapshot    `json:"census_snapshots"`
	WorkflowMetrics   []*WorkflowMetric    `json:"workflow_metrics"`
	AuditLog          []*AuditEntry        `json:"audit_log"`
	Meta              SnapshotMeta         `json:"meta"`
}

// NewSnapshot returns an empty snapshot at the current schema version.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		ResidentsByMRN:  make(map[string]*Resident),
		ResidentsByID:   make(map[string]*Resident),
		WorkflowMetrics: []*WorkflowMetric{},
		Meta:            SnapshotMeta{SchemaVersion: CurrentSchemaVersion},
	}
}

// AuditEntry is one append-only audit log record. Merges that rewrite
// records must preserve the existing log and only append.
type AuditEntry struct {
	ID        string                 `json:"id"`
	Actor     string                 `json:"actor"`
	Action    string                 `json:"action"`
	Resource  string                 `json:"resource"`
	Timestamp time.Time              `json:"timestamp"`
	Success   bool                   `json:"success"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// WorkflowEvent names a UI workflow event captured for process-efficiency
// statistics.
type WorkflowEvent string

const (
	WorkflowEventOpen   WorkflowEvent = "open"
	WorkflowEventSelect WorkflowEvent = "select"
	WorkflowEventSave   WorkflowEvent = "save"
)

// WorkflowMetric is an audit-adjacent UI event record used to derive
// process-efficiency statistics. The store is capped at a retention count;
// oldest entries are evicted first.
type WorkflowMetric struct {
	CaseID    string        `json:"case_id"`
	CaseType  string        `json:"case_type"`
	Event     WorkflowEvent `json:"event"`
	Clicks    int           `json:"clicks,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
