package types

import "time"

// Resident represents a facility resident on the census backbone.
// ResidentID is the canonical identifier and is immutable once assigned;
// MRN is a legacy, possibly-reused secondary lookup key.
type Resident struct {
	ResidentID     string    `json:"resident_id" db:"resident_id"`
	MRN            string    `json:"mrn" db:"mrn"`
	Name           string    `json:"name" db:"name"`
	DOB            string    `json:"dob" db:"dob"` // ISO calendar date
	Unit           string    `json:"unit" db:"unit"`
	Room           string    `json:"room" db:"room"`
	ActiveOnCensus bool      `json:"active_on_census" db:"active_on_census"`
	AdmittedAt     string    `json:"admitted_at,omitempty" db:"admitted_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// CensusSnapshot is the midnight census count for a single calendar day.
// Snapshots are never mutated after creation; they exist only as inputs
// to resident-days calculations.
type CensusSnapshot struct {
	Date        string `json:"date" db:"date"` // ISO calendar date
	CensusCount int    `json:"census_count" db:"census_count"`
}
