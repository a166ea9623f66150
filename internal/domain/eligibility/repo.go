package eligibility

import "context"

// RecordStore is the durable persistence collaborator for patients and their
// eligibility checks. Check inserts are append-only; the patient upsert must
// be atomic in the store (no read-then-write), resolving concurrent writes
// for the same patient id last-write-wins.
type RecordStore interface {
	UpsertPatient(ctx context.Context, p *Patient) (*Patient, error)
	GetPatient(ctx context.Context, patientID string) (*Patient, error)
	InsertCheck(ctx context.Context, chk *EligibilityCheck) (*EligibilityCheck, error)
	ListChecks(ctx context.Context, patientID string, limit int) ([]*EligibilityCheck, error)
	LatestCheck(ctx context.Context, patientID string) (*EligibilityCheck, error)
}
