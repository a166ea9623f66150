package eligibility

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/everify/everify/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/eligibility/check", h.Check)
	e.GET("/eligibility/history/:patientId", h.GetHistory)
	e.GET("/eligibility/latest/:patientId", h.GetLatest)
}

type checkSuccessResponse struct {
	Success  bool     `json:"success"`
	Data     *Outcome `json:"data"`
	Stored   bool     `json:"stored"`
	StoredID int64    `json:"storedId"`
}

type checkFailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type validationFailureResponse struct {
	Error    string   `json:"error"`
	Required []string `json:"required"`
}

type patientSummary struct {
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	DateOfBirth string `json:"dateOfBirth"`
}

type historyRecord struct {
	EligibilityID    string      `json:"eligibilityId"`
	CheckDateTime    string      `json:"checkDateTime"`
	Status           CheckStatus `json:"status"`
	InsuranceCompany string      `json:"insuranceCompany"`
	MemberNumber     string      `json:"memberNumber"`
	ServiceDate      string      `json:"serviceDate"`
	Coverage         *Coverage   `json:"coverage"`
	Messages         []string    `json:"messages"`
	ErrorMessage     *string     `json:"errorMessage"`
}

type historyResponse struct {
	Success      bool            `json:"success"`
	Patient      patientSummary  `json:"patient"`
	History      []historyRecord `json:"history"`
	TotalRecords int             `json:"totalRecords"`
}

type patientNotFoundResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	PatientID string `json:"patientId"`
}

func (h *Handler) Check(c echo.Context) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, checkFailureResponse{
			Success: false,
			Error:   "Eligibility check failed",
			Message: "invalid request body",
		})
	}

	result, err := h.svc.Check(c.Request().Context(), req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, validationFailureResponse{
				Error:    "Missing required fields",
				Required: verr.Missing,
			})
		}
		return c.JSON(http.StatusInternalServerError, checkFailureResponse{
			Success: false,
			Error:   "Eligibility check failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, checkSuccessResponse{
		Success:  true,
		Data:     result.Outcome,
		Stored:   true,
		StoredID: result.StoredID,
	})
}

func (h *Handler) GetHistory(c echo.Context) error {
	patientID := c.Param("patientId")
	limit := pagination.FromContext(c).Limit

	hist, err := h.svc.GetHistory(c.Request().Context(), patientID, limit)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return c.JSON(http.StatusNotFound, patientNotFoundResponse{
				Success:   false,
				Error:     "Patient not found",
				PatientID: patientID,
			})
		}
		return c.JSON(http.StatusInternalServerError, checkFailureResponse{
			Success: false,
			Error:   "Failed to fetch eligibility history",
			Message: err.Error(),
		})
	}

	records := make([]historyRecord, len(hist.Records))
	for i, rec := range hist.Records {
		records[i] = historyRecord{
			EligibilityID:    rec.EligibilityID,
			CheckDateTime:    rec.CheckDateTime.Format("2006-01-02T15:04:05Z07:00"),
			Status:           rec.Status,
			InsuranceCompany: rec.InsuranceCompany,
			MemberNumber:     rec.MemberNumber,
			ServiceDate:      rec.ServiceDate,
			Coverage:         rec.Coverage,
			Messages:         rec.Messages,
			ErrorMessage:     rec.ErrorMessage,
		}
	}

	return c.JSON(http.StatusOK, historyResponse{
		Success: true,
		Patient: patientSummary{
			PatientID:   hist.Patient.PatientID,
			PatientName: hist.Patient.PatientName,
			DateOfBirth: hist.Patient.DateOfBirth,
		},
		History:      records,
		TotalRecords: len(records),
	})
}

func (h *Handler) GetLatest(c echo.Context) error {
	patientID := c.Param("patientId")

	rec, err := h.svc.GetLatest(c.Request().Context(), patientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return c.JSON(http.StatusNotFound, patientNotFoundResponse{
				Success:   false,
				Error:     "Patient not found",
				PatientID: patientID,
			})
		}
		if errors.Is(err, ErrCheckNotFound) {
			return c.JSON(http.StatusNotFound, patientNotFoundResponse{
				Success:   false,
				Error:     "No eligibility checks found",
				PatientID: patientID,
			})
		}
		return c.JSON(http.StatusInternalServerError, checkFailureResponse{
			Success: false,
			Error:   "Failed to fetch latest eligibility check",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"record":  rec,
	})
}
