package grading

import (
	"fmt"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

// Limits are the intake bounds, injected from config so tests can run
// with alternates.
type Limits struct {
	MaxFilesPerHomework int `toml:"max_files_per_homework"`
	MaxLinesPerFile     int `toml:"max_lines_per_file"`
}

// Gate decides whether a submission may enter the pipeline. All checks
// run on already-loaded state: no side effects, first failure wins.
type Gate struct {
	limits Limits
}

func NewGate(limits Limits) *Gate {
	return &Gate{limits: limits}
}

// Check validates a submission attempt in order: homework visibility,
// submission window, duplicate, file count, per-file length, total length.
func (g *Gate) Check(hw *models.Homework, student *models.User, existing *models.Submission, files []models.FileInput, now int64) error {
	if hw == nil || student == nil {
		return ErrHomeworkNotFound
	}
	if student.GroupID == nil || *student.GroupID != hw.GroupID {
		return ErrHomeworkNotFound
	}

	if !hw.IsOpen(now) {
		return ErrNotOpen
	}

	if existing != nil {
		return ErrDuplicateSubmission
	}

	if len(files) == 0 {
		return ErrNoFiles
	}
	if len(files) > g.limits.MaxFilesPerHomework {
		return fmt.Errorf("%w: got %d, maximum is %d", ErrTooManyFiles, len(files), g.limits.MaxFilesPerHomework)
	}

	total := 0
	for _, f := range files {
		lines := models.CountLines(f.Content)
		if lines > g.limits.MaxLinesPerFile {
			return fmt.Errorf("%w: %s has %d lines, maximum is %d", ErrFileTooLong, f.FileName, lines, g.limits.MaxLinesPerFile)
		}
		total += lines
	}
	if total > hw.LineLimit {
		return fmt.Errorf("%w: total lines (%d) exceed limit (%d)", ErrTotalLinesExceeded, total, hw.LineLimit)
	}

	return nil
}
