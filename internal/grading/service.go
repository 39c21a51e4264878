package grading

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/metrics"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

// Service runs the submission pipeline (gate -> oracle -> store), applies
// teacher grade overrides and serves the leaderboard projection.
type Service struct {
	store  store.Store
	oracle Oracle
	gate   *Gate
	now    func() time.Time
}

func NewService(st store.Store, oracle Oracle, limits Limits) *Service {
	return &Service{
		store:  st,
		oracle: oracle,
		gate:   NewGate(limits),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Submit takes a student's files through validation, grading and the
// atomic write. The oracle call happens with no transaction open, so a
// hung oracle cannot hold a database connection.
func (s *Service) Submit(ctx context.Context, homeworkID, studentID int64, files []models.FileInput) (*models.Submission, error) {
	hw, err := s.store.GetHomework(homeworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load homework: %w", err)
	}
	student, err := s.store.GetUser(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	existing, err := s.store.GetSubmissionForStudent(homeworkID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check prior submission: %w", err)
	}

	now := s.now().Unix()
	if err := s.gate.Check(hw, student, existing, files, now); err != nil {
		return nil, err
	}

	subFiles := make([]models.SubmissionFile, 0, len(files))
	for _, f := range files {
		subFiles = append(subFiles, models.SubmissionFile{
			FileName:  f.FileName,
			Content:   f.Content,
			LineCount: models.CountLines(f.Content),
		})
	}

	payload := s.oracle.Grade(ctx, hw, subFiles)

	sub := &models.Submission{
		HomeworkID:  homeworkID,
		StudentID:   studentID,
		SubmittedAt: now,
		AIGrade:     payload.Total,
		FinalGrade:  payload.Total,
		AIFeedback:  payload.OverallFeedback,
	}
	grade := &models.Grade{
		AITaskCompleteness:       payload.TaskCompleteness,
		AICodeQuality:            payload.CodeQuality,
		AICorrectness:            payload.Correctness,
		AITotal:                  payload.Total,
		FinalTaskCompleteness:    payload.TaskCompleteness,
		FinalCodeQuality:         payload.CodeQuality,
		FinalCorrectness:         payload.Correctness,
		AIFeedback:               payload.OverallFeedback,
		TaskCompletenessFeedback: payload.TaskCompletenessFeedback,
		CodeQualityFeedback:      payload.CodeQualityFeedback,
		CorrectnessFeedback:      payload.CorrectnessFeedback,
	}

	if err := s.store.CreateSubmission(sub, subFiles, grade); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// lost the race against a concurrent submit for the same pair
			return nil, ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("failed to persist submission: %w", err)
	}

	metrics.SubmissionsTotal.WithLabelValues(
		strconv.FormatInt(hw.GroupID, 10),
		strconv.FormatInt(hw.ID, 10),
	).Inc()
	logger.Info.Printf("Submission %d created for homework %d, student %d, ai_total=%d",
		sub.ID, homeworkID, studentID, payload.Total)

	return sub, nil
}

// OverrideGrade applies a teacher's partial correction to the final
// sub-scores, recomputes the teacher total and propagates it to the
// submission. Supplying no fields is a no-op, not an error.
func (s *Service) OverrideGrade(submissionID, teacherID int64, patch models.GradeOverride) (*models.Grade, error) {
	sub, err := s.store.GetSubmission(submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}

	hw, err := s.store.GetHomework(sub.HomeworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load homework: %w", err)
	}
	if hw == nil {
		return nil, ErrSubmissionNotFound
	}
	if hw.TeacherID != teacherID {
		return nil, ErrNotOwner
	}

	grade, err := s.store.GetGradeBySubmission(submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grade: %w", err)
	}
	if grade == nil {
		return nil, ErrGradeNotFound
	}

	for _, v := range []*int{patch.FinalTaskCompleteness, patch.FinalCodeQuality, patch.FinalCorrectness} {
		if v != nil && (*v < 0 || *v > 100) {
			return nil, ErrInvalidScore
		}
	}

	if patch.Empty() {
		return grade, nil
	}

	if patch.FinalTaskCompleteness != nil {
		grade.FinalTaskCompleteness = *patch.FinalTaskCompleteness
	}
	if patch.FinalCodeQuality != nil {
		grade.FinalCodeQuality = *patch.FinalCodeQuality
	}
	if patch.FinalCorrectness != nil {
		grade.FinalCorrectness = *patch.FinalCorrectness
	}

	teacherTotal := (grade.FinalTaskCompleteness + grade.FinalCodeQuality + grade.FinalCorrectness) / 3
	modified := s.now().Unix()
	grade.TeacherTotal = &teacherTotal
	grade.ModifiedByTeacher = &modified
	sub.FinalGrade = teacherTotal

	if err := s.store.ApplyGradeOverride(grade, sub); err != nil {
		return nil, fmt.Errorf("failed to persist override: %w", err)
	}

	metrics.GradeOverridesTotal.Inc()
	logger.Info.Printf("Grade override on submission %d by teacher %d, teacher_total=%d",
		submissionID, teacherID, teacherTotal)

	return grade, nil
}

// Leaderboard ranks a group's students by summed final grades over the
// given period.
func (s *Service) Leaderboard(groupID int64, period string) ([]models.LeaderboardRow, error) {
	since, err := s.periodBound(period)
	if err != nil {
		return nil, err
	}
	return s.store.FetchLeaderboard(groupID, since)
}

// periodBound converts a leaderboard period into a unix lower bound on
// submitted_at; zero means no bound. Weeks start on Monday, all
// boundaries are UTC.
func (s *Service) periodBound(period string) (int64, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case "all":
		return 0, nil
	case "day":
		return midnight.Unix(), nil
	case "week":
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -daysSinceMonday).Unix(), nil
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Unix(), nil
	default:
		return 0, ErrInvalidPeriod
	}
}

// OpenHomeworkForStudent lists homework currently inside its submission
// window for the student's group.
func (s *Service) OpenHomeworkForStudent(studentID int64) ([]models.Homework, error) {
	student, err := s.store.GetUser(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil || student.GroupID == nil {
		return []models.Homework{}, nil
	}
	return s.store.ListOpenHomework(*student.GroupID, s.now().Unix())
}

func (s *Service) TeacherHomework(teacherID int64) ([]models.Homework, error) {
	return s.store.ListTeacherHomework(teacherID)
}

func (s *Service) StudentSubmissions(studentID int64, limit int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListStudentSubmissions(studentID, limit)
}

// GradeForSubmission returns the detailed grade, visible to the student
// who owns the submission, the teacher who owns the homework, and admins.
func (s *Service) GradeForSubmission(submissionID int64, requester *models.User) (*models.Grade, error) {
	sub, err := s.store.GetSubmission(submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}

	switch requester.Role {
	case models.RoleStudent:
		if sub.StudentID != requester.ID {
			return nil, ErrNotOwner
		}
	case models.RoleTeacher:
		hw, err := s.store.GetHomework(sub.HomeworkID)
		if err != nil {
			return nil, fmt.Errorf("failed to load homework: %w", err)
		}
		if hw == nil || hw.TeacherID != requester.ID {
			return nil, ErrNotOwner
		}
	}

	grade, err := s.store.GetGradeBySubmission(submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grade: %w", err)
	}
	if grade == nil {
		return nil, ErrGradeNotFound
	}
	return grade, nil
}
