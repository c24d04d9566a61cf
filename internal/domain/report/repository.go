package report

import "context"

// ReportRepository defines the interface for report data access
type ReportRepository interface {
	// Rows and totals of one company's attendance, read consistently
	GetAttendanceSummarySnapshot(ctx context.Context, companyID string, filter SummaryFilter) (Payload, error)

	// Companies that have at least one active employee
	ListActiveCompanyIDs(ctx context.Context) ([]string, error)
}
