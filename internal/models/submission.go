package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Submission is created exactly once per (homework, student) pair.
// ai_grade keeps the oracle's original total; final_grade is what the
// student sees and only grade overrides may change it.
type Submission struct {
	ID          int64  `db:"id" json:"id"`
	HomeworkID  int64  `db:"homework_id" json:"homework_id"`
	StudentID   int64  `db:"student_id" json:"student_id"`
	SubmittedAt int64  `db:"submitted_at" json:"submitted_at"`
	AIGrade     int    `db:"ai_grade" json:"ai_grade"`
	FinalGrade  int    `db:"final_grade" json:"final_grade"`
	AIFeedback  string `db:"ai_feedback" json:"ai_feedback"`
}

type SubmissionFile struct {
	ID           int64  `db:"id" json:"id"`
	SubmissionID int64  `db:"submission_id" json:"submission_id"`
	FileName     string `db:"file_name" json:"file_name"`
	Content      string `db:"content" json:"content"`
	LineCount    int    `db:"line_count" json:"line_count"`
}

// FileInput is a plain-text source file as submitted by a student.
type FileInput struct {
	FileName string `json:"file_name" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

type SubmissionRequest struct {
	Files []FileInput `json:"files" validate:"required,dive"`
}

func (r *SubmissionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// CountLines counts newline-delimited lines the same way the grader and
// the stored line_count do: a trailing newline yields one extra line.
func CountLines(content string) int {
	return len(strings.Split(content, "\n"))
}
