package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn, migrationsDir string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
		},
	}}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

// CreateSubmission writes the submission, its files and its grade in one
// transaction. A unique violation on (homework_id, student_id) maps to
// store.ErrDuplicate so racing submits fail cleanly.
func (s *PostgresStore) CreateSubmission(sub *models.Submission, files []models.SubmissionFile, grade *models.Grade) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin submission tx: %w", err)
	}

	err = tx.QueryRowx(`
		INSERT INTO submissions (homework_id, student_id, submitted_at, ai_grade, final_grade, ai_feedback)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, sub.HomeworkID, sub.StudentID, sub.SubmittedAt, sub.AIGrade, sub.FinalGrade, sub.AIFeedback).Scan(&sub.ID)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}

	for i := range files {
		files[i].SubmissionID = sub.ID
		err = tx.QueryRowx(`
			INSERT INTO submission_files (submission_id, file_name, content, line_count)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, files[i].SubmissionID, files[i].FileName, files[i].Content, files[i].LineCount).Scan(&files[i].ID)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create submission file %s: %w", files[i].FileName, err)
		}
	}

	grade.SubmissionID = sub.ID
	err = tx.QueryRowx(`
		INSERT INTO grades (
			submission_id,
			ai_task_completeness, ai_code_quality, ai_correctness, ai_total,
			final_task_completeness, final_code_quality, final_correctness, teacher_total,
			ai_feedback, task_completeness_feedback, code_quality_feedback, correctness_feedback,
			modified_by_teacher
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`,
		grade.SubmissionID,
		grade.AITaskCompleteness, grade.AICodeQuality, grade.AICorrectness, grade.AITotal,
		grade.FinalTaskCompleteness, grade.FinalCodeQuality, grade.FinalCorrectness, grade.TeacherTotal,
		grade.AIFeedback, grade.TaskCompletenessFeedback, grade.CodeQualityFeedback, grade.CorrectnessFeedback,
		grade.ModifiedByTeacher,
	).Scan(&grade.ID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create grade: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit submission: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
