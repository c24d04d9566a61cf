package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-summary/internal/domain/report"
	"github.com/cmlabs-hris/attendance-summary/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type reportRepositoryImpl struct {
	db *database.DB
}

func NewReportRepository(db *database.DB) report.ReportRepository {
	return &reportRepositoryImpl{db: db}
}

// GetAttendanceSummarySnapshot reads the rows and the totals of a company's
// attendance inside one transaction so both describe the same data.
func (r *reportRepositoryImpl) GetAttendanceSummarySnapshot(ctx context.Context, companyID string, filter report.SummaryFilter) (report.Payload, error) {
	var payload report.Payload

	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		txCtx := context.WithValue(ctx, "tx", tx)

		rows, err := r.getSummaryRows(txCtx, companyID, filter)
		if err != nil {
			return err
		}

		totals, err := r.getSummaryTotals(txCtx, companyID, filter)
		if err != nil {
			return err
		}

		payload = report.Payload{Rows: rows, Totals: totals}
		return nil
	})
	if err != nil {
		return report.Payload{}, err
	}

	return payload, nil
}

func (r *reportRepositoryImpl) getSummaryRows(ctx context.Context, companyID string, filter report.SummaryFilter) ([]report.AttendanceRow, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COALESCE(NULLIF(e.employee_code, ''), e.full_name) AS username,
			to_char(a.date, 'YYYY-MM-DD') AS date,
			a.work_hours_in_minutes
		FROM attendances a
		JOIN employees e ON a.employee_id = e.id
		WHERE a.company_id = $1
			AND a.date >= $2 AND a.date <= $3
			AND ($4::uuid IS NULL OR a.employee_id = $4::uuid)
			AND e.deleted_at IS NULL
		ORDER BY a.date ASC, username ASC
	`

	rows, err := q.Query(ctx, query, companyID, filter.StartDate, filter.EndDate, filter.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance rows: %w", err)
	}
	defer rows.Close()

	result := []report.AttendanceRow{}
	for rows.Next() {
		var (
			username    *string
			date        string
			workMinutes *int
		)
		if err := rows.Scan(&username, &date, &workMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}

		result = append(result, toAttendanceRow(username, date, workMinutes))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance rows: %w", err)
	}

	return result, nil
}

// toAttendanceRow converts worked minutes to hours. A NULL minutes value
// leaves the row without hours, so it is never flagged.
func toAttendanceRow(username *string, date string, workMinutes *int) report.AttendanceRow {
	row := report.AttendanceRow{Username: username, Date: &date}
	if workMinutes != nil {
		hours := float64(*workMinutes) / 60.0
		row.Hours = &hours
	}
	return row
}

func (r *reportRepositoryImpl) getSummaryTotals(ctx context.Context, companyID string, filter report.SummaryFilter) (report.Totals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COALESCE(SUM(a.work_hours_in_minutes), 0) / 60.0 AS total_hours,
			COUNT(*) AS total_records,
			COUNT(DISTINCT a.employee_id) AS total_users
		FROM attendances a
		JOIN employees e ON a.employee_id = e.id
		WHERE a.company_id = $1
			AND a.date >= $2 AND a.date <= $3
			AND ($4::uuid IS NULL OR a.employee_id = $4::uuid)
			AND e.deleted_at IS NULL
	`

	var (
		hours   float64
		records int
		users   int
	)
	err := q.QueryRow(ctx, query, companyID, filter.StartDate, filter.EndDate, filter.EmployeeID).Scan(&hours, &records, &users)
	if err != nil {
		return report.Totals{}, fmt.Errorf("failed to query attendance totals: %w", err)
	}

	return report.Totals{Hours: &hours, Records: &records, Users: &users}, nil
}

// ListActiveCompanyIDs returns companies with at least one active employee
func (r *reportRepositoryImpl) ListActiveCompanyIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT e.company_id
		FROM employees e
		WHERE e.deleted_at IS NULL
			AND e.employment_status = 'active'
		ORDER BY e.company_id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active companies: %w", err)
	}
	defer rows.Close()

	var companyIDs []string
	for rows.Next() {
		var companyID string
		if err := rows.Scan(&companyID); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		companyIDs = append(companyIDs, companyID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active companies: %w", err)
	}

	return companyIDs, nil
}
