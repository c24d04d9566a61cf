package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-summary/internal/domain/report"
	"github.com/google/uuid"
)

// SummaryJobs logs a daily attendance digest for every active company
type SummaryJobs struct {
	reportRepo    report.ReportRepository
	reportService report.ReportService
	logger        *slog.Logger
	now           func() time.Time

	// last day a digest was produced, so hourly ticks run it once per day
	lastDigestDay string
}

func NewSummaryJobs(reportRepo report.ReportRepository, reportService report.ReportService, logger *slog.Logger) *SummaryJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryJobs{
		reportRepo:    reportRepo,
		reportService: reportService,
		logger:        logger,
		now:           time.Now,
	}
}

func (j *SummaryJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("daily_attendance_anomaly_digest", interval, j.DailyAnomalyDigest)
}

// DailyAnomalyDigest summarizes yesterday's attendance for each active
// company. It runs at most once per calendar day.
func (j *SummaryJobs) DailyAnomalyDigest(ctx context.Context) error {
	today := j.now().UTC()
	day := today.AddDate(0, 0, -1).Format("2006-01-02")
	if j.lastDigestDay == day {
		return nil
	}

	runID := uuid.NewString()
	logger := j.logger.With("run_id", runID, "day", day)
	logger.Info("Cron: Starting attendance anomaly digest")

	companyIDs, err := j.reportRepo.ListActiveCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active companies: %w", err)
	}

	req := report.AttendanceSummaryRequest{StartDate: day, EndDate: day}

	var errs []error
	flagged := 0
	for _, companyID := range companyIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := j.reportService.GenerateCompanyAttendanceSummary(ctx, companyID, req)
		if err != nil {
			logger.Error("Cron: Failed to summarize company attendance", "company_id", companyID, "error", err)
			errs = append(errs, fmt.Errorf("company %s: %w", companyID, err))
			continue
		}

		if len(result.Anomalies) > 0 {
			flagged++
			logger.Warn("Cron: High-hour attendance detected",
				"company_id", companyID,
				"summary", result.Summary,
				"anomaly_count", len(result.Anomalies),
			)
		} else {
			logger.Info("Cron: Attendance digest",
				"company_id", companyID,
				"summary", result.Summary,
			)
		}
	}

	logger.Info("Cron: Finished attendance anomaly digest",
		"company_count", len(companyIDs),
		"flagged_companies", flagged,
		"failed_companies", len(errs),
	)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	j.lastDigestDay = day
	return nil
}
