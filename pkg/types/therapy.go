package types

// CourseStatus represents the lifecycle status of an antibiotic course.
type CourseStatus string

const (
	CourseStatusActive       CourseStatus = "active"
	CourseStatusCompleted    CourseStatus = "completed"
	CourseStatusDiscontinued CourseStatus = "discontinued"
)

// Terminal reports whether the status marks a course as ended.
func (s CourseStatus) Terminal() bool {
	return s == CourseStatusCompleted || s == CourseStatusDiscontinued
}

// AntibioticCourse represents one antibiotic therapy (ABT) course for a
// resident. EndDate is empty for an open-ended course; days-of-therapy is
// only defined relative to a bounding date range, which caps open-ended
// courses at the range end. Courses are historical records and are never
// deleted.
type AntibioticCourse struct {
	ID         string       `json:"id" db:"id"`
	ResidentID string       `json:"resident_id" db:"resident_id"`
	MRN        string       `json:"mrn" db:"mrn"` // retained for legacy lookup
	Medication string       `json:"medication" db:"medication"`
	Indication string       `json:"indication,omitempty" db:"indication"`
	StartDate  string       `json:"start_date" db:"start_date"`         // ISO calendar date
	EndDate    string       `json:"end_date,omitempty" db:"end_date"`   // empty = open-ended
	Status     CourseStatus `json:"status" db:"status"`
}

// Ended reports whether the course has ended, either by terminal status or
// by a recorded end date.
func (c *AntibioticCourse) Ended() bool {
	return c.Status.Terminal() || c.EndDate != ""
}

// VaccinationRecord tracks a single vaccination event for a resident.
type VaccinationRecord struct {
	ID         string `json:"id" db:"id"`
	ResidentID string `json:"resident_id" db:"resident_id"`
	MRN        string `json:"mrn" db:"mrn"`
	Vaccine    string `json:"vaccine" db:"vaccine"`
	GivenDate  string `json:"given_date" db:"given_date"`
	Declined   bool   `json:"declined,omitempty" db:"declined"`
}
