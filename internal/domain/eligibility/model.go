package eligibility

import "time"

// CheckStatus is the coverage determination for a single eligibility check.
type CheckStatus string

const (
	StatusActive   CheckStatus = "Active"
	StatusInactive CheckStatus = "Inactive"
	StatusUnknown  CheckStatus = "Unknown"
)

// Patient maps to the patients table. A patient row is created on the first
// eligibility check for its id and updated (last write wins) on every
// subsequent check. Rows are never deleted.
type Patient struct {
	PatientID   string    `db:"patient_id" json:"patientId"`
	PatientName string    `db:"patient_name" json:"patientName"`
	DateOfBirth string    `db:"date_of_birth" json:"dateOfBirth"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Coverage holds the benefit figures for an Active determination. All five
// fields are always populated together.
type Coverage struct {
	Deductible     float64 `json:"deductible"`
	DeductibleMet  float64 `json:"deductibleMet"`
	Copay          float64 `json:"copay"`
	OutOfPocketMax float64 `json:"outOfPocketMax"`
	OutOfPocketMet float64 `json:"outOfPocketMet"`
}

// EligibilityCheck maps to the eligibility_checks table. Rows are append-only
// and immutable once written; Coverage is non-nil iff Status is Active, and
// ErrorMessage is non-nil only when Status is Unknown.
type EligibilityCheck struct {
	ID               int64       `db:"id" json:"id"`
	EligibilityID    string      `db:"eligibility_id" json:"eligibilityId"`
	PatientID        string      `db:"patient_id" json:"patientId"`
	MemberNumber     string      `db:"member_number" json:"memberNumber"`
	InsuranceCompany string      `db:"insurance_company" json:"insuranceCompany"`
	ServiceDate      string      `db:"service_date" json:"serviceDate"`
	CheckDateTime    time.Time   `db:"check_datetime" json:"checkDateTime"`
	Status           CheckStatus `db:"status" json:"status"`
	Coverage         *Coverage   `json:"coverage"`
	Messages         []string    `db:"messages" json:"messages"`
	ErrorMessage     *string     `db:"error_message" json:"errorMessage"`
}

// CheckRequest is the inbound verification payload. Date fields are opaque
// date-like strings; only presence is validated.
type CheckRequest struct {
	PatientID        string `json:"patientId"`
	PatientName      string `json:"patientName"`
	DateOfBirth      string `json:"dateOfBirth"`
	MemberNumber     string `json:"memberNumber"`
	InsuranceCompany string `json:"insuranceCompany"`
	ServiceDate      string `json:"serviceDate"`
}

// Outcome is the oracle's coverage determination for one request.
// Coverage is non-nil iff Status is Active.
type Outcome struct {
	EligibilityID    string      `json:"eligibilityId"`
	PatientID        string      `json:"patientId"`
	CheckDateTime    time.Time   `json:"checkDateTime"`
	InsuranceCompany string      `json:"insuranceCompany"`
	MemberNumber     string      `json:"memberNumber"`
	Status           CheckStatus `json:"status"`
	Coverage         *Coverage   `json:"coverage"`
	Messages         []string    `json:"messages"`
}
