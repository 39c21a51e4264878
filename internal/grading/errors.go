package grading

import "errors"

// Rejections the caller can act on. Handlers map these to HTTP statuses,
// anything unlisted is reported as an opaque internal error.
var (
	ErrHomeworkNotFound    = errors.New("homework not found or not accessible")
	ErrNotOpen             = errors.New("homework is not open for submission")
	ErrDuplicateSubmission = errors.New("homework already submitted")
	ErrNoFiles             = errors.New("at least one file is required")
	ErrTooManyFiles        = errors.New("too many files")
	ErrFileTooLong         = errors.New("file exceeds line limit")
	ErrTotalLinesExceeded  = errors.New("total lines exceed homework limit")

	ErrSubmissionNotFound = errors.New("submission not found")
	ErrGradeNotFound      = errors.New("grade record not found")
	ErrNotOwner           = errors.New("no access to this submission")
	ErrInvalidScore       = errors.New("scores must be between 0 and 100")

	ErrInvalidPeriod = errors.New("period must be one of: day, week, month, all")
)
