// internal/store/sqlite/store.go
package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(dsn, migrationsDir string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
	}}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

// translateToSQLite converts Postgres SQL to SQLite dialect
func translateToSQLite(sql string) string {
	replacements := []struct{ from, to string }{
		{"BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{"SERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{"BIGINT", "INTEGER"},
		{"TRUE", "1"},
		{"FALSE", "0"},
		{"now()", "CURRENT_TIMESTAMP"},
	}
	result := sql
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.from, r.to)
	}
	return result
}

// CreateSubmission mirrors the Postgres implementation but relies on
// LastInsertId, which lib/pq does not support.
func (s *SQLiteStore) CreateSubmission(sub *models.Submission, files []models.SubmissionFile, grade *models.Grade) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin submission tx: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO submissions (homework_id, student_id, submitted_at, ai_grade, final_grade, ai_feedback)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sub.HomeworkID, sub.StudentID, sub.SubmittedAt, sub.AIGrade, sub.FinalGrade, sub.AIFeedback)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	sub.ID, err = res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get submission id: %w", err)
	}

	for i := range files {
		files[i].SubmissionID = sub.ID
		res, err := tx.Exec(`
			INSERT INTO submission_files (submission_id, file_name, content, line_count)
			VALUES (?, ?, ?, ?)
		`, files[i].SubmissionID, files[i].FileName, files[i].Content, files[i].LineCount)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create submission file %s: %w", files[i].FileName, err)
		}
		files[i].ID, err = res.LastInsertId()
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to get submission file id: %w", err)
		}
	}

	grade.SubmissionID = sub.ID
	res, err = tx.Exec(`
		INSERT INTO grades (
			submission_id,
			ai_task_completeness, ai_code_quality, ai_correctness, ai_total,
			final_task_completeness, final_code_quality, final_correctness, teacher_total,
			ai_feedback, task_completeness_feedback, code_quality_feedback, correctness_feedback,
			modified_by_teacher
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		grade.SubmissionID,
		grade.AITaskCompleteness, grade.AICodeQuality, grade.AICorrectness, grade.AITotal,
		grade.FinalTaskCompleteness, grade.FinalCodeQuality, grade.FinalCorrectness, grade.TeacherTotal,
		grade.AIFeedback, grade.TaskCompletenessFeedback, grade.CodeQualityFeedback, grade.CorrectnessFeedback,
		grade.ModifiedByTeacher,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create grade: %w", err)
	}
	grade.ID, err = res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get grade id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit submission: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
