package report

import "errors"

var (
	ErrMalformedPayload       = errors.New("malformed summary payload")
	ErrTypeCoercion           = errors.New("cannot coerce field")
	ErrReportGenerationFailed = errors.New("failed to generate report")
)
