package types

import "time"

// OutbreakStatus represents the lifecycle status of an outbreak.
type OutbreakStatus string

const (
	OutbreakStatusWatch    OutbreakStatus = "watch"
	OutbreakStatusActive   OutbreakStatus = "active"
	OutbreakStatusResolved OutbreakStatus = "resolved"
)

// Valid reports whether the status is a known lifecycle state.
func (s OutbreakStatus) Valid() bool {
	switch s {
	case OutbreakStatusWatch, OutbreakStatusActive, OutbreakStatusResolved:
		return true
	}
	return false
}

// Outbreak aggregates one or more IP cases under a single investigation.
// Transitions move forward through watch -> active -> resolved; resolved
// is terminal and ResolvedAt is stamped on that transition only.
type Outbreak struct {
	ID            string              `json:"id" db:"id"`
	Type          string              `json:"type" db:"type"`
	Status        OutbreakStatus      `json:"status" db:"status"`
	StartDate     string              `json:"start_date" db:"start_date"`
	ResolvedAt    *time.Time          `json:"resolved_at,omitempty" db:"resolved_at"`
	AffectedUnits []string            `json:"affected_units" db:"affected_units"`
	CaseCount     int                 `json:"case_count" db:"case_count"`
	History       []OutbreakTransition `json:"history,omitempty"`
}

// OutbreakTransition is one timestamped entry in an outbreak's audit history.
type OutbreakTransition struct {
	From      OutbreakStatus `json:"from"`
	To        OutbreakStatus `json:"to"`
	Timestamp time.Time      `json:"timestamp"`
}
