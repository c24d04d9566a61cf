package report

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-summary/internal/pkg/validator"
	"github.com/google/uuid"
)

// AnomalyHourThreshold is the number of hours at or above which a single
// attendance record is flagged for review.
const AnomalyHourThreshold = 12.0

// MaxSummaryRangeDays bounds the date range of a stored-attendance summary,
// counting both the start and the end day.
const MaxSummaryRangeDays = 366

// ========================================
// SUMMARY PAYLOAD
// ========================================

// Payload is the input of the summary builder: attendance rows plus
// optional caller-supplied totals.
type Payload struct {
	Rows   []AttendanceRow `json:"rows"`
	Totals Totals          `json:"totals"`
}

// AttendanceRow is one attendance record. Nil fields were absent.
type AttendanceRow struct {
	Username *string  `json:"username,omitempty"`
	Date     *string  `json:"date,omitempty"`
	Hours    *float64 `json:"hours,omitempty"`

	// username was a zero number or false before being rendered as text
	falsyUsername bool
}

// CountsAsUser reports whether the row names a user for distinct-user
// counting. Empty text, zero and false do not.
func (r AttendanceRow) CountsAsUser() bool {
	return r.Username != nil && *r.Username != "" && !r.falsyUsername
}

// Totals overrides the aggregates derived from rows. Nil fields fall back
// to derived values.
type Totals struct {
	Hours   *float64 `json:"hours,omitempty"`
	Records *int     `json:"records,omitempty"`
	Users   *int     `json:"users,omitempty"`
}

// DefaultPayload is what a blank input stream stands for.
func DefaultPayload() Payload {
	hours := 0.0
	records, users := 0, 0
	return Payload{
		Rows: []AttendanceRow{},
		Totals: Totals{
			Hours:   &hours,
			Records: &records,
			Users:   &users,
		},
	}
}

// ========================================
// SUMMARY RESULT
// ========================================

type SummaryResult struct {
	Summary   string    `json:"summary"`
	Anomalies []Anomaly `json:"anomalies"`
	RowCount  int       `json:"rowCount"`
}

type Anomaly struct {
	Username string  `json:"username"`
	Date     string  `json:"date"`
	Hours    float64 `json:"hours"`
}

// ========================================
// STORED ATTENDANCE SUMMARY
// ========================================

type AttendanceSummaryRequest struct {
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	EmployeeID *string `json:"employee_id,omitempty"`
}

func (r *AttendanceSummaryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.StartDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date is required",
		})
	}

	if validator.IsEmpty(r.EndDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date is required",
		})
	}

	if r.StartDate != "" && r.EndDate != "" {
		startDate, startOK := validator.IsValidDate(r.StartDate)
		if !startOK {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}

		endDate, endOK := validator.IsValidDate(r.EndDate)
		if !endOK {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}

		if startOK && endOK {
			if startDate.After(endDate) {
				errs = append(errs, validator.ValidationError{
					Field:   "end_date",
					Message: "end_date must be after start_date",
				})
			} else if endDate.Sub(startDate) > (MaxSummaryRangeDays-1)*24*time.Hour {
				errs = append(errs, validator.ValidationError{
					Field:   "end_date",
					Message: fmt.Sprintf("date range must not exceed %d days", MaxSummaryRangeDays),
				})
			}
		}
	}

	if r.EmployeeID != nil {
		if _, err := uuid.Parse(*r.EmployeeID); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "employee_id",
				Message: "employee_id must be a valid UUID",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SummaryFilter is the repository-level form of AttendanceSummaryRequest.
type SummaryFilter struct {
	StartDate  time.Time
	EndDate    time.Time
	EmployeeID *string
}
