package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/attendance-summary/internal/domain/report"
	"github.com/cmlabs-hris/attendance-summary/internal/handler/http/response"
)

// MaxPayloadBytes caps the body of a summary request.
const MaxPayloadBytes = 10 << 20

type ReportHandler interface {
	// Summary of a caller-supplied payload
	BuildAttendanceSummary(w http.ResponseWriter, r *http.Request)

	// Summary of stored attendance
	GetAttendanceSummary(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// BuildAttendanceSummary handles POST /reports/attendance-summary
func (h *reportHandlerImpl) BuildAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.RequestTooLarge(w, "request body too large")
			return
		}
		response.BadRequest(w, "invalid request body", nil)
		return
	}

	payload, err := report.DecodePayload(body)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, h.reportService.BuildSummary(payload))
}

// GetAttendanceSummary handles GET /reports/attendance-summary
func (h *reportHandlerImpl) GetAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	req := report.AttendanceSummaryRequest{
		StartDate: strings.TrimSpace(query.Get("start_date")),
		EndDate:   strings.TrimSpace(query.Get("end_date")),
	}
	if employeeID := strings.TrimSpace(query.Get("employee_id")); employeeID != "" {
		req.EmployeeID = &employeeID
	}

	result, err := h.reportService.GenerateAttendanceSummary(ctx, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
