package eligibility

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultHistoryLimit is the number of records returned by a history read
// when the caller does not supply a usable limit.
const DefaultHistoryLimit = 10

// Service orchestrates the verification pipeline (validate, upsert patient,
// invoke oracle, persist check) and the history read path. All state lives in
// the RecordStore; the service itself holds no mutable state.
type Service struct {
	store  RecordStore
	oracle *Oracle
	logger zerolog.Logger
}

func NewService(store RecordStore, oracle *Oracle, logger zerolog.Logger) *Service {
	return &Service{store: store, oracle: oracle, logger: logger}
}

// CheckResult is the success-path result of a verification: the oracle's
// determination plus the row id it was stored under.
type CheckResult struct {
	Outcome  *Outcome
	StoredID int64
}

// History joins a patient with its eligibility checks, most recent first.
type History struct {
	Patient *Patient
	Records []*EligibilityCheck
}

// Check runs one eligibility verification. Validation failures short-circuit
// before any persistence. The patient upsert happens before the oracle call
// so a patient row exists even when the oracle fails. Oracle failures and
// failed success-path inserts are recorded as synthetic Unknown checks on a
// best-effort basis; the original error still reaches the caller.
func (s *Service) Check(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.store.UpsertPatient(ctx, &Patient{
		PatientID:   req.PatientID,
		PatientName: req.PatientName,
		DateOfBirth: req.DateOfBirth,
	}); err != nil {
		return nil, &StoreError{Op: "upsert patient", Err: err}
	}

	outcome, err := s.oracle.Determine(req)
	if err != nil {
		s.recordFailure(ctx, req, err)
		return nil, err
	}

	stored, err := s.store.InsertCheck(ctx, checkFromOutcome(outcome, req))
	if err != nil {
		storeErr := &StoreError{Op: "store eligibility check", Err: err}
		s.recordFailure(ctx, req, storeErr)
		return nil, storeErr
	}

	return &CheckResult{Outcome: outcome, StoredID: stored.ID}, nil
}

// GetHistory returns a patient's checks ordered by check time descending,
// capped at limit (DefaultHistoryLimit when limit is not positive). Fails
// with ErrPatientNotFound for an unknown patient.
func (s *Service) GetHistory(ctx context.Context, patientID string, limit int) (*History, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	patient, err := s.store.GetPatient(ctx, patientID)
	if err != nil {
		if err == ErrPatientNotFound {
			return nil, err
		}
		return nil, &StoreError{Op: "get patient", Err: err}
	}

	records, err := s.store.ListChecks(ctx, patientID, limit)
	if err != nil {
		return nil, &StoreError{Op: "list eligibility checks", Err: err}
	}
	for _, rec := range records {
		if rec.Status != StatusActive {
			rec.Coverage = nil
		}
		if rec.Messages == nil {
			rec.Messages = []string{}
		}
	}

	return &History{Patient: patient, Records: records}, nil
}

// GetLatest returns the most recent check for a patient, or ErrCheckNotFound
// when the patient exists but has none.
func (s *Service) GetLatest(ctx context.Context, patientID string) (*EligibilityCheck, error) {
	if _, err := s.store.GetPatient(ctx, patientID); err != nil {
		if err == ErrPatientNotFound {
			return nil, err
		}
		return nil, &StoreError{Op: "get patient", Err: err}
	}
	rec, err := s.store.LatestCheck(ctx, patientID)
	if err != nil {
		if err == ErrCheckNotFound {
			return nil, err
		}
		return nil, &StoreError{Op: "get latest eligibility check", Err: err}
	}
	if rec.Status != StatusActive {
		rec.Coverage = nil
	}
	return rec, nil
}

func validateRequest(req CheckRequest) error {
	var missing []string
	if req.PatientID == "" {
		missing = append(missing, "patientId")
	}
	if req.PatientName == "" {
		missing = append(missing, "patientName")
	}
	if req.DateOfBirth == "" {
		missing = append(missing, "dateOfBirth")
	}
	if req.MemberNumber == "" {
		missing = append(missing, "memberNumber")
	}
	if req.InsuranceCompany == "" {
		missing = append(missing, "insuranceCompany")
	}
	if req.ServiceDate == "" {
		missing = append(missing, "serviceDate")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func checkFromOutcome(out *Outcome, req CheckRequest) *EligibilityCheck {
	return &EligibilityCheck{
		EligibilityID:    out.EligibilityID,
		PatientID:        out.PatientID,
		MemberNumber:     req.MemberNumber,
		InsuranceCompany: req.InsuranceCompany,
		ServiceDate:      req.ServiceDate,
		CheckDateTime:    out.CheckDateTime,
		Status:           out.Status,
		Coverage:         out.Coverage,
		Messages:         out.Messages,
	}
}

// recordFailure persists a synthetic Unknown check for a failed verification.
// The "ERR-" id scheme keeps failure rows distinguishable from oracle-issued
// "ELG-" ids in history. The write is best-effort: its own failure is logged
// and swallowed so the original error is not masked.
func (s *Service) recordFailure(ctx context.Context, req CheckRequest, cause error) {
	msg := cause.Error()
	chk := &EligibilityCheck{
		EligibilityID:    "ERR-" + uuid.NewString(),
		PatientID:        req.PatientID,
		MemberNumber:     req.MemberNumber,
		InsuranceCompany: req.InsuranceCompany,
		ServiceDate:      req.ServiceDate,
		CheckDateTime:    time.Now().UTC(),
		Status:           StatusUnknown,
		Messages:         []string{},
		ErrorMessage:     &msg,
	}
	if _, err := s.store.InsertCheck(ctx, chk); err != nil {
		s.logger.Error().Err(err).
			Str("patient_id", req.PatientID).
			Str("eligibility_id", chk.EligibilityID).
			Msg("failed to store eligibility failure record")
	}
}
