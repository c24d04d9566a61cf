package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-summary/internal/domain/report"
	"github.com/cmlabs-hris/attendance-summary/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
)

type ReportServiceImpl struct {
	reportRepo report.ReportRepository
}

func NewReportService(reportRepo report.ReportRepository) report.ReportService {
	return &ReportServiceImpl{
		reportRepo: reportRepo,
	}
}

// getCompanyIDFromContext extracts company_id from JWT claims
func (s *ReportServiceImpl) getCompanyIDFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", user.ErrCompanyIDRequired, err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", user.ErrCompanyIDRequired
	}

	return companyID, nil
}

// BuildSummary summarizes a caller-supplied payload
func (s *ReportServiceImpl) BuildSummary(payload report.Payload) report.SummaryResult {
	return BuildSummary(payload)
}

// GenerateAttendanceSummary summarizes stored attendance of the caller's company
func (s *ReportServiceImpl) GenerateAttendanceSummary(ctx context.Context, req report.AttendanceSummaryRequest) (report.SummaryResult, error) {
	// Validate request
	if err := req.Validate(); err != nil {
		return report.SummaryResult{}, err
	}

	// Get company ID from context
	companyID, err := s.getCompanyIDFromContext(ctx)
	if err != nil {
		return report.SummaryResult{}, err
	}

	return s.GenerateCompanyAttendanceSummary(ctx, companyID, req)
}

// GenerateCompanyAttendanceSummary summarizes stored attendance of companyID
func (s *ReportServiceImpl) GenerateCompanyAttendanceSummary(ctx context.Context, companyID string, req report.AttendanceSummaryRequest) (report.SummaryResult, error) {
	if err := req.Validate(); err != nil {
		return report.SummaryResult{}, err
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return report.SummaryResult{}, err
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return report.SummaryResult{}, err
	}

	payload, err := s.reportRepo.GetAttendanceSummarySnapshot(ctx, companyID, report.SummaryFilter{
		StartDate:  startDate,
		EndDate:    endDate,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		return report.SummaryResult{}, fmt.Errorf("%w: failed to get attendance data: %w", report.ErrReportGenerationFailed, err)
	}

	result := BuildSummary(payload)
	slog.DebugContext(ctx, "Attendance summary generated",
		"company_id", companyID,
		"start_date", req.StartDate,
		"end_date", req.EndDate,
		"row_count", result.RowCount,
		"anomaly_count", len(result.Anomalies),
	)

	return result, nil
}
