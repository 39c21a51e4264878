package models

import (
	"github.com/go-playground/validator/v10"
)

// Homework is maintained by the directory CRUD layer; this service only
// reads it. Timestamps are unix seconds, UTC.
type Homework struct {
	ID            int64  `db:"id" json:"id"`
	Title         string `db:"title" json:"title" validate:"required"`
	Description   string `db:"description" json:"description"`
	Points        int    `db:"points" json:"points" validate:"gt=0"`
	StartDate     int64  `db:"start_date" json:"start_date"`
	Deadline      int64  `db:"deadline" json:"deadline"`
	LineLimit     int    `db:"line_limit" json:"line_limit"`
	FileExtension string `db:"file_extension" json:"file_extension"`
	GradingPrompt string `db:"grading_prompt" json:"grading_prompt"`
	TeacherID     int64  `db:"teacher_id" json:"teacher_id"`
	GroupID       int64  `db:"group_id" json:"group_id"`
	CreatedAt     int64  `db:"created_at" json:"created_at"`
}

func (h *Homework) Validate() error {
	validate := validator.New()
	return validate.Struct(h)
}

// IsOpen reports whether now falls inside [start_date, deadline).
func (h *Homework) IsOpen(now int64) bool {
	return now >= h.StartDate && now < h.Deadline
}
