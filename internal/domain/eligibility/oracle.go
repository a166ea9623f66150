package eligibility

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Oracle is the deterministic rules engine that stands in for a live
// insurance-network query. Determine performs no I/O; the clock and id
// generator are injectable so tests can pin them.
type Oracle struct {
	now   func() time.Time
	newID func() string
}

func NewOracle() *Oracle {
	return &Oracle{
		now:   time.Now,
		newID: func() string { return "ELG-" + uuid.NewString() },
	}
}

var (
	fullCoverage = Coverage{
		Deductible:     1500.00,
		DeductibleMet:  300.00,
		Copay:          25.00,
		OutOfPocketMax: 5000.00,
		OutOfPocketMet: 450.00,
	}
	limitedCoverage = Coverage{
		Deductible:     3000.00,
		DeductibleMet:  0.00,
		Copay:          50.00,
		OutOfPocketMax: 8000.00,
		OutOfPocketMet: 0.00,
	}
	limitedMessages = []string{
		"High deductible plan",
		"Specialist visits require prior authorization",
	}
	inactiveMessages = []string{
		"Policy is inactive",
		"Please contact insurance company",
	}
)

// Determine evaluates a verification request against the synthetic coverage
// rules. The decision is keyed on the final character of the member number:
// '0'..'6' yields full coverage, '7'..'8' a limited high-deductible plan, and
// anything else an inactive policy. A member number containing "ERROR"
// simulates an unavailable upstream and fails with ErrServiceUnavailable,
// distinguishable from a validation failure.
func (o *Oracle) Determine(req CheckRequest) (*Outcome, error) {
	var missing []string
	if req.PatientID == "" {
		missing = append(missing, "patientId")
	}
	if req.MemberNumber == "" {
		missing = append(missing, "memberNumber")
	}
	if req.InsuranceCompany == "" {
		missing = append(missing, "insuranceCompany")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	if req.MemberNumber == "ERROR999" || strings.Contains(req.MemberNumber, "ERROR") {
		return nil, ErrServiceUnavailable
	}

	out := &Outcome{
		EligibilityID:    o.newID(),
		PatientID:        req.PatientID,
		CheckDateTime:    o.now().UTC(),
		InsuranceCompany: req.InsuranceCompany,
		MemberNumber:     req.MemberNumber,
		Messages:         []string{},
	}

	switch last := req.MemberNumber[len(req.MemberNumber)-1]; {
	case last >= '0' && last <= '6':
		out.Status = StatusActive
		cov := fullCoverage
		out.Coverage = &cov
	case last == '7' || last == '8':
		out.Status = StatusActive
		cov := limitedCoverage
		out.Coverage = &cov
		out.Messages = append(out.Messages, limitedMessages...)
	default:
		out.Status = StatusInactive
		out.Messages = append(out.Messages, inactiveMessages...)
	}

	return out, nil
}
