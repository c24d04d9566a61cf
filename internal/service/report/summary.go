package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-summary/internal/domain/report"
)

const (
	unknownUsername = "unknown"
	noAnomalyClause = " No high-hour anomalies detected."
)

// BuildSummary turns a payload into the summary sentence, the list of
// high-hour rows and the effective record count. It does not modify the
// payload and always returns the same result for the same input.
func BuildSummary(payload report.Payload) report.SummaryResult {
	totalHours := 0.0
	if payload.Totals.Hours != nil {
		totalHours = *payload.Totals.Hours
	}

	recordCount := len(payload.Rows)
	if payload.Totals.Records != nil {
		recordCount = *payload.Totals.Records
	}

	var userCount int
	if payload.Totals.Users != nil {
		userCount = *payload.Totals.Users
	} else {
		userCount = countDistinctUsers(payload.Rows)
	}

	anomalies := detectAnomalies(payload.Rows)

	averageHours := 0.0
	if recordCount != 0 {
		averageHours = round2(totalHours / float64(recordCount))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb,
		"Processed %d attendance records for %d user(s). Total hours: %.2f. Average hours per record: %.2f.",
		recordCount, userCount, totalHours, averageHours,
	)
	if len(anomalies) > 0 {
		fmt.Fprintf(&sb, " Found %d potential anomaly entries with 12+ hours.", len(anomalies))
	} else {
		sb.WriteString(noAnomalyClause)
	}

	return report.SummaryResult{
		Summary:   sb.String(),
		Anomalies: anomalies,
		RowCount:  recordCount,
	}
}

func countDistinctUsers(rows []report.AttendanceRow) int {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if !row.CountsAsUser() {
			continue
		}
		seen[*row.Username] = struct{}{}
	}
	return len(seen)
}

// detectAnomalies keeps input order. Rows without numeric hours are skipped.
func detectAnomalies(rows []report.AttendanceRow) []report.Anomaly {
	anomalies := []report.Anomaly{}
	for _, row := range rows {
		if row.Hours == nil || *row.Hours < report.AnomalyHourThreshold {
			continue
		}

		anomaly := report.Anomaly{
			Username: unknownUsername,
			Hours:    round2(*row.Hours),
		}
		if row.Username != nil {
			anomaly.Username = *row.Username
		}
		if row.Date != nil {
			anomaly.Date = *row.Date
		}
		anomalies = append(anomalies, anomaly)
	}
	return anomalies
}

// round2 rounds to the two-decimal value closest to the exact binary
// value, the same rule %.2f uses.
func round2(v float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
