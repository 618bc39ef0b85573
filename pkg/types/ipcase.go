package types

// IPCaseStatus represents the lifecycle status of an infection-prevention case.
type IPCaseStatus string

const (
	IPCaseStatusActive     IPCaseStatus = "active"
	IPCaseStatusResolved   IPCaseStatus = "resolved"
	IPCaseStatusDischarged IPCaseStatus = "discharged"
)

// IPCase represents an infection-prevention case (precaution/isolation
// tracking) for a resident. ResolutionDate is set only when the case
// transitions to Resolved or Discharged and must not precede OnsetDate.
type IPCase struct {
	ID             string       `json:"id" db:"id"`
	ResidentID     string       `json:"resident_id" db:"resident_id"`
	MRN            string       `json:"mrn" db:"mrn"`
	Protocol       string       `json:"protocol" db:"protocol"` // precaution type
	InfectionType  string       `json:"infection_type" db:"infection_type"`
	Organism       string       `json:"organism,omitempty" db:"organism"`
	Unit           string       `json:"unit" db:"unit"`
	OnsetDate      string       `json:"onset_date" db:"onset_date"`                     // ISO calendar date
	ResolutionDate string       `json:"resolution_date,omitempty" db:"resolution_date"` // empty = unresolved
	Status         IPCaseStatus `json:"status" db:"status"`
}
