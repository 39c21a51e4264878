package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

type Store interface {
	Close() error
	ApplyMigrations(dir string) error

	GetUser(id int64) (*models.User, error)
	GetHomework(id int64) (*models.Homework, error)
	ListTeacherHomework(teacherID int64) ([]models.Homework, error)
	ListOpenHomework(groupID, now int64) ([]models.Homework, error)

	GetSubmissionForStudent(homeworkID, studentID int64) (*models.Submission, error)
	CreateSubmission(sub *models.Submission, files []models.SubmissionFile, grade *models.Grade) error
	GetSubmission(id int64) (*models.Submission, error)
	ListStudentSubmissions(studentID int64, limit int) ([]models.Submission, error)
	ListSubmissionFiles(submissionID int64) ([]models.SubmissionFile, error)

	GetGradeBySubmission(submissionID int64) (*models.Grade, error)
	ApplyGradeOverride(grade *models.Grade, sub *models.Submission) error

	FetchLeaderboard(groupID, since int64) ([]models.LeaderboardRow, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) GetUser(id int64) (*models.User, error) {
	var user models.User
	query := s.Converter(`
		SELECT id, fullname, username, role, group_id
		FROM users
		WHERE id = ?
	`)

	err := s.DB.Get(&user, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *BaseStore) GetHomework(id int64) (*models.Homework, error) {
	var hw models.Homework
	query := s.Converter(`
		SELECT id, title, description, points, start_date, deadline,
			line_limit, file_extension, grading_prompt,
			teacher_id, group_id, created_at
		FROM homework
		WHERE id = ?
	`)

	err := s.DB.Get(&hw, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get homework: %w", err)
	}
	return &hw, nil
}

func (s *BaseStore) ListTeacherHomework(teacherID int64) ([]models.Homework, error) {
	var hws []models.Homework
	query := s.Converter(`
		SELECT id, title, description, points, start_date, deadline,
			line_limit, file_extension, grading_prompt,
			teacher_id, group_id, created_at
		FROM homework
		WHERE teacher_id = ?
		ORDER BY deadline, id
	`)

	err := s.DB.Select(&hws, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teacher homework: %w", err)
	}
	return hws, nil
}

func (s *BaseStore) ListOpenHomework(groupID, now int64) ([]models.Homework, error) {
	var hws []models.Homework
	query := s.Converter(`
		SELECT id, title, description, points, start_date, deadline,
			line_limit, file_extension, grading_prompt,
			teacher_id, group_id, created_at
		FROM homework
		WHERE group_id = ?
		AND start_date <= ?
		AND deadline > ?
		ORDER BY deadline, id
	`)

	err := s.DB.Select(&hws, query, groupID, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list open homework: %w", err)
	}
	return hws, nil
}

func (s *BaseStore) GetSubmissionForStudent(homeworkID, studentID int64) (*models.Submission, error) {
	var sub models.Submission
	query := s.Converter(`
		SELECT id, homework_id, student_id, submitted_at, ai_grade, final_grade, ai_feedback
		FROM submissions
		WHERE homework_id = ?
		AND student_id = ?
	`)

	err := s.DB.Get(&sub, query, homeworkID, studentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission for student: %w", err)
	}
	return &sub, nil
}

func (s *BaseStore) GetSubmission(id int64) (*models.Submission, error) {
	var sub models.Submission
	query := s.Converter(`
		SELECT id, homework_id, student_id, submitted_at, ai_grade, final_grade, ai_feedback
		FROM submissions
		WHERE id = ?
	`)

	err := s.DB.Get(&sub, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

func (s *BaseStore) ListStudentSubmissions(studentID int64, limit int) ([]models.Submission, error) {
	var subs []models.Submission
	query := s.Converter(`
		SELECT id, homework_id, student_id, submitted_at, ai_grade, final_grade, ai_feedback
		FROM submissions
		WHERE student_id = ?
		ORDER BY submitted_at DESC
		LIMIT ?
	`)

	err := s.DB.Select(&subs, query, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list student submissions: %w", err)
	}
	return subs, nil
}

func (s *BaseStore) ListSubmissionFiles(submissionID int64) ([]models.SubmissionFile, error) {
	var files []models.SubmissionFile
	query := s.Converter(`
		SELECT id, submission_id, file_name, content, line_count
		FROM submission_files
		WHERE submission_id = ?
		ORDER BY id
	`)

	err := s.DB.Select(&files, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submission files: %w", err)
	}
	return files, nil
}

func (s *BaseStore) GetGradeBySubmission(submissionID int64) (*models.Grade, error) {
	var grade models.Grade
	query := s.Converter(`
		SELECT id, submission_id,
			ai_task_completeness, ai_code_quality, ai_correctness, ai_total,
			final_task_completeness, final_code_quality, final_correctness, teacher_total,
			ai_feedback, task_completeness_feedback, code_quality_feedback, correctness_feedback,
			modified_by_teacher
		FROM grades
		WHERE submission_id = ?
	`)

	err := s.DB.Get(&grade, query, submissionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grade: %w", err)
	}
	return &grade, nil
}

// ApplyGradeOverride persists a teacher override: the grade's final scores
// and the submission's final_grade commit together or not at all.
// Last write wins, there is no version check.
func (s *BaseStore) ApplyGradeOverride(grade *models.Grade, sub *models.Submission) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin override tx: %w", err)
	}

	if _, err := tx.NamedExec(`
		UPDATE grades SET
			final_task_completeness = :final_task_completeness,
			final_code_quality = :final_code_quality,
			final_correctness = :final_correctness,
			teacher_total = :teacher_total,
			modified_by_teacher = :modified_by_teacher
		WHERE id = :id
	`, grade); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update grade: %w", err)
	}

	if _, err := tx.NamedExec(`
		UPDATE submissions SET final_grade = :final_grade WHERE id = :id
	`, sub); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update submission final grade: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit override: %w", err)
	}
	return nil
}

// FetchLeaderboard aggregates per-student totals over a group. since is a
// unix lower bound on submitted_at; pass 0 or less for all time. Students
// without a qualifying submission do not appear. Ties break on student id.
func (s *BaseStore) FetchLeaderboard(groupID, since int64) ([]models.LeaderboardRow, error) {
	query := s.Converter(`
		SELECT
			u.id AS student_id,
			u.fullname AS student_name,
			SUM(sub.final_grade) AS total_points,
			COUNT(sub.id) AS submission_count
		FROM submissions sub
		JOIN users u ON u.id = sub.student_id
		WHERE u.group_id = ?
		AND (? <= 0 OR sub.submitted_at >= ?)
		GROUP BY u.id, u.fullname
		ORDER BY total_points DESC, u.id ASC
	`)

	var rows []models.LeaderboardRow
	err := s.DB.Select(&rows, query, groupID, since, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}
