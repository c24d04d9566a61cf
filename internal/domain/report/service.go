package report

import "context"

// ReportService defines the interface for report generation
type ReportService interface {
	// Summarize a caller-supplied payload
	BuildSummary(payload Payload) SummaryResult

	// Summarize stored attendance of the company in the request context
	GenerateAttendanceSummary(ctx context.Context, req AttendanceSummaryRequest) (SummaryResult, error)

	// Summarize stored attendance of an explicit company
	GenerateCompanyAttendanceSummary(ctx context.Context, companyID string, req AttendanceSummaryRequest) (SummaryResult, error)
}
