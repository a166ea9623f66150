package integration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/everify/everify/internal/domain/eligibility"
)

func newService() *eligibility.Service {
	store := eligibility.NewRecordStorePG(globalDB.Pool)
	return eligibility.NewService(store, eligibility.NewOracle(), zerolog.Nop())
}

func checkRequest(memberNumber string) eligibility.CheckRequest {
	return eligibility.CheckRequest{
		PatientID:        "PAT-INT-001",
		PatientName:      "Jane Doe",
		DateOfBirth:      "1985-03-15",
		MemberNumber:     memberNumber,
		InsuranceCompany: "Blue Shield",
		ServiceDate:      "2025-06-01",
	}
}

func TestEligibilityPipeline(t *testing.T) {
	ctx := context.Background()
	truncateTables(t, ctx)
	svc := newService()

	t.Run("ActiveCheck", func(t *testing.T) {
		result, err := svc.Check(ctx, checkRequest("INS123456"))
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if result.StoredID == 0 {
			t.Error("expected a row id from the store")
		}
		if result.Outcome.Status != eligibility.StatusActive {
			t.Errorf("expected Active, got %s", result.Outcome.Status)
		}
		if result.Outcome.Coverage == nil || result.Outcome.Coverage.Deductible != 1500.00 {
			t.Errorf("expected full coverage, got %+v", result.Outcome.Coverage)
		}
	})

	t.Run("HistoryRoundTrip", func(t *testing.T) {
		hist, err := svc.GetHistory(ctx, "PAT-INT-001", 10)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if hist.Patient.PatientName != "Jane Doe" {
			t.Errorf("expected patient row, got %+v", hist.Patient)
		}
		if len(hist.Records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(hist.Records))
		}
		rec := hist.Records[0]
		if !strings.HasPrefix(rec.EligibilityID, "ELG-") {
			t.Errorf("expected ELG- id, got %s", rec.EligibilityID)
		}
		if rec.Coverage == nil {
			t.Error("expected coverage to round-trip through the store")
		}
		if rec.Messages == nil {
			t.Error("messages must scan as an empty slice, not nil")
		}
	})

	t.Run("FailureRecorded", func(t *testing.T) {
		_, err := svc.Check(ctx, checkRequest("ERROR999"))
		if !errors.Is(err, eligibility.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}

		hist, err := svc.GetHistory(ctx, "PAT-INT-001", 10)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(hist.Records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(hist.Records))
		}
		// Newest first: the failure record leads.
		rec := hist.Records[0]
		if rec.Status != eligibility.StatusUnknown {
			t.Errorf("expected Unknown record first, got %s", rec.Status)
		}
		if rec.ErrorMessage == nil {
			t.Error("expected error message on failure record")
		}
		if !strings.HasPrefix(rec.EligibilityID, "ERR-") {
			t.Errorf("expected ERR- id, got %s", rec.EligibilityID)
		}
	})

	t.Run("UpsertRefreshesDemographics", func(t *testing.T) {
		req := checkRequest("INS1234567")
		req.PatientName = "Jane A. Doe"
		if _, err := svc.Check(ctx, req); err != nil {
			t.Fatalf("check: %v", err)
		}

		hist, err := svc.GetHistory(ctx, "PAT-INT-001", 10)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if hist.Patient.PatientName != "Jane A. Doe" {
			t.Errorf("expected refreshed name, got %s", hist.Patient.PatientName)
		}
	})

	t.Run("Latest", func(t *testing.T) {
		rec, err := svc.GetLatest(ctx, "PAT-INT-001")
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		// The limited-coverage check from the previous subtest is newest.
		if rec.Status != eligibility.StatusActive {
			t.Errorf("expected Active, got %s", rec.Status)
		}
		if rec.Coverage == nil || rec.Coverage.Deductible != 3000.00 {
			t.Errorf("expected limited coverage, got %+v", rec.Coverage)
		}
	})

	t.Run("UnknownPatient", func(t *testing.T) {
		_, err := svc.GetHistory(ctx, "GHOST", 10)
		if !errors.Is(err, eligibility.ErrPatientNotFound) {
			t.Fatalf("expected ErrPatientNotFound, got %v", err)
		}
	})
}

func TestEligibilityHistoryLimit(t *testing.T) {
	ctx := context.Background()
	truncateTables(t, ctx)
	svc := newService()

	members := []string{"INS000001", "INS000002", "INS000003", "INS000004"}
	for _, m := range members {
		if _, err := svc.Check(ctx, checkRequest(m)); err != nil {
			t.Fatalf("check %s: %v", m, err)
		}
	}

	hist, err := svc.GetHistory(ctx, "PAT-INT-001", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist.Records) != 2 {
		t.Errorf("expected 2 records with limit 2, got %d", len(hist.Records))
	}
	if !hist.Records[0].CheckDateTime.After(hist.Records[1].CheckDateTime) &&
		!hist.Records[0].CheckDateTime.Equal(hist.Records[1].CheckDateTime) {
		t.Error("records must be ordered newest first")
	}
}
