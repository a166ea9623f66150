package eligibility

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type recordStorePG struct{ pool *pgxpool.Pool }

func NewRecordStorePG(pool *pgxpool.Pool) RecordStore {
	return &recordStorePG{pool: pool}
}

const patientCols = `patient_id, patient_name, date_of_birth, created_at, updated_at`

const checkCols = `id, eligibility_id, patient_id, member_number, insurance_company,
	service_date, check_datetime, status, deductible, deductible_met,
	copay, out_of_pocket_max, out_of_pocket_met, messages, error_message`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.PatientID, &p.PatientName, &p.DateOfBirth, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func scanCheck(row pgx.Row) (*EligibilityCheck, error) {
	var (
		c      EligibilityCheck
		status string
		ded    *float64
		dedMet *float64
		copay  *float64
		oopMax *float64
		oopMet *float64
	)
	err := row.Scan(&c.ID, &c.EligibilityID, &c.PatientID, &c.MemberNumber, &c.InsuranceCompany,
		&c.ServiceDate, &c.CheckDateTime, &status, &ded, &dedMet,
		&copay, &oopMax, &oopMet, &c.Messages, &c.ErrorMessage)
	if err != nil {
		return nil, err
	}
	c.Status = CheckStatus(status)
	// Coverage is reconstructed only for Active rows, per the entity invariant.
	if c.Status == StatusActive && ded != nil {
		c.Coverage = &Coverage{
			Deductible:     *ded,
			DeductibleMet:  *dedMet,
			Copay:          *copay,
			OutOfPocketMax: *oopMax,
			OutOfPocketMet: *oopMet,
		}
	}
	if c.Messages == nil {
		c.Messages = []string{}
	}
	return &c, nil
}

// UpsertPatient relies on the store's native atomic upsert so that concurrent
// writes for the same patient id resolve last-write-wins without a
// read-modify-write race.
func (r *recordStorePG) UpsertPatient(ctx context.Context, p *Patient) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `
		INSERT INTO patients (patient_id, patient_name, date_of_birth)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id) DO UPDATE SET
			patient_name = EXCLUDED.patient_name,
			date_of_birth = EXCLUDED.date_of_birth,
			updated_at = NOW()
		RETURNING `+patientCols,
		p.PatientID, p.PatientName, p.DateOfBirth))
}

func (r *recordStorePG) GetPatient(ctx context.Context, patientID string) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE patient_id = $1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *recordStorePG) InsertCheck(ctx context.Context, chk *EligibilityCheck) (*EligibilityCheck, error) {
	var ded, dedMet, copay, oopMax, oopMet *float64
	if chk.Coverage != nil {
		ded = &chk.Coverage.Deductible
		dedMet = &chk.Coverage.DeductibleMet
		copay = &chk.Coverage.Copay
		oopMax = &chk.Coverage.OutOfPocketMax
		oopMet = &chk.Coverage.OutOfPocketMet
	}
	messages := chk.Messages
	if messages == nil {
		messages = []string{}
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO eligibility_checks (
			eligibility_id, patient_id, member_number, insurance_company,
			service_date, check_datetime, status, deductible, deductible_met,
			copay, out_of_pocket_max, out_of_pocket_met, messages, error_message
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id`,
		chk.EligibilityID, chk.PatientID, chk.MemberNumber, chk.InsuranceCompany,
		chk.ServiceDate, chk.CheckDateTime, string(chk.Status), ded, dedMet,
		copay, oopMax, oopMet, messages, chk.ErrorMessage).Scan(&chk.ID)
	if err != nil {
		return nil, err
	}
	return chk, nil
}

func (r *recordStorePG) ListChecks(ctx context.Context, patientID string, limit int) ([]*EligibilityCheck, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+checkCols+` FROM eligibility_checks
		WHERE patient_id = $1
		ORDER BY check_datetime DESC
		LIMIT $2`,
		patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*EligibilityCheck
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *recordStorePG) LatestCheck(ctx context.Context, patientID string) (*EligibilityCheck, error) {
	c, err := scanCheck(r.pool.QueryRow(ctx, `
		SELECT `+checkCols+` FROM eligibility_checks
		WHERE patient_id = $1
		ORDER BY check_datetime DESC
		LIMIT 1`,
		patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCheckNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
