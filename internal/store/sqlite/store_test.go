package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", "../../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedFixtures(t *testing.T, s *SQLiteStore) {
	t.Helper()
	mustExec := func(query string, args ...interface{}) {
		_, err := s.DB.Exec(query, args...)
		require.NoError(t, err)
	}

	mustExec(`INSERT INTO groups (id, name, teacher_id) VALUES (7, 'IT-101', 5)`)
	mustExec(`INSERT INTO users (id, fullname, username, role, group_id) VALUES
		(5, 'Teresa Teacher', 'teresa', 'teacher', NULL),
		(1, 'Alice A', 'alice', 'student', 7),
		(2, 'Bob B', 'bob', 'student', 7),
		(3, 'Carol C', 'carol', 'student', 8)`)
	mustExec(`INSERT INTO homework
		(id, title, description, points, start_date, deadline, line_limit,
		 file_extension, grading_prompt, teacher_id, group_id)
		VALUES
		(1, 'FizzBuzz', 'Print fizz and buzz', 10, 1000, 9000, 300, '.py', 'check loops', 5, 7),
		(2, 'Sorting', 'Sort a list', 20, 1000, 9000, 600, '.py', 'check sorting', 5, 7)`)
}

func submissionFixture(homeworkID, studentID, submittedAt int64, total int) (*models.Submission, []models.SubmissionFile, *models.Grade) {
	sub := &models.Submission{
		HomeworkID:  homeworkID,
		StudentID:   studentID,
		SubmittedAt: submittedAt,
		AIGrade:     total,
		FinalGrade:  total,
		AIFeedback:  "looks fine",
	}
	files := []models.SubmissionFile{
		{FileName: "main.py", Content: "print('fizz')\n", LineCount: 2},
		{FileName: "util.py", Content: "def f(): pass", LineCount: 1},
	}
	grade := &models.Grade{
		AITaskCompleteness:       total,
		AICodeQuality:            total,
		AICorrectness:            total,
		AITotal:                  total,
		FinalTaskCompleteness:    total,
		FinalCodeQuality:         total,
		FinalCorrectness:         total,
		AIFeedback:               "looks fine",
		TaskCompletenessFeedback: "a",
		CodeQualityFeedback:      "b",
		CorrectnessFeedback:      "c",
	}
	return sub, files, grade
}

func TestCreateSubmission(t *testing.T) {
	s := newTestStore(t)
	seedFixtures(t, s)

	sub, files, grade := submissionFixture(1, 1, 2000, 80)
	require.NoError(t, s.CreateSubmission(sub, files, grade))

	assert.NotZero(t, sub.ID)
	assert.Equal(t, sub.ID, grade.SubmissionID)

	got, err := s.GetSubmissionForStudent(1, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sub.ID, got.ID)
	assert.Equal(t, 80, got.AIGrade)
	assert.Equal(t, 80, got.FinalGrade)
	assert.Equal(t, "looks fine", got.AIFeedback)

	gotFiles, err := s.ListSubmissionFiles(sub.ID)
	require.NoError(t, err)
	require.Len(t, gotFiles, 2)
	assert.Equal(t, "main.py", gotFiles[0].FileName)
	assert.Equal(t, 2, gotFiles[0].LineCount)

	gotGrade, err := s.GetGradeBySubmission(sub.ID)
	require.NoError(t, err)
	require.NotNil(t, gotGrade)
	assert.Equal(t, 80, gotGrade.AITotal)
	assert.Nil(t, gotGrade.TeacherTotal)
	assert.Nil(t, gotGrade.ModifiedByTeacher)
}

func TestCreateSubmission_Duplicate(t *testing.T) {
	s := newTestStore(t)
	seedFixtures(t, s)

	sub, files, grade := submissionFixture(1, 1, 2000, 80)
	require.NoError(t, s.CreateSubmission(sub, files, grade))

	again, files2, grade2 := submissionFixture(1, 1, 2100, 90)
	err := s.CreateSubmission(again, files2, grade2)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	// the same student may still submit other homework
	other, files3, grade3 := submissionFixture(2, 1, 2200, 60)
	assert.NoError(t, s.CreateSubmission(other, files3, grade3))
}

func TestGetMissingRowsReturnNil(t *testing.T) {
	s := newTestStore(t)
	seedFixtures(t, s)

	sub, err := s.GetSubmission(404)
	require.NoError(t, err)
	assert.Nil(t, sub)

	grade, err := s.GetGradeBySubmission(404)
	require.NoError(t, err)
	assert.Nil(t, grade)

	user, err := s.GetUser(404)
	require.NoError(t, err)
	assert.Nil(t, user)

	hw, err := s.GetHomework(404)
	require.NoError(t, err)
	assert.Nil(t, hw)
}

func TestApplyGradeOverride(t *testing.T) {
	s := newTestStore(t)
	seedFixtures(t, s)

	sub, files, grade := submissionFixture(1, 1, 2000, 80)
	require.NoError(t, s.CreateSubmission(sub, files, grade))

	grade.FinalCodeQuality = 100
	teacherTotal := 86
	modified := int64(3000)
	grade.TeacherTotal = &teacherTotal
	grade.ModifiedByTeacher = &modified
	sub.FinalGrade = teacherTotal

	require.NoError(t, s.ApplyGradeOverride(grade, sub))

	gotGrade, err := s.GetGradeBySubmission(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, gotGrade.FinalCodeQuality)
	require.NotNil(t, gotGrade.TeacherTotal)
	assert.Equal(t, 86, *gotGrade.TeacherTotal)
	require.NotNil(t, gotGrade.ModifiedByTeacher)
	assert.Equal(t, int64(3000), *gotGrade.ModifiedByTeacher)
	// AI columns stay frozen
	assert.Equal(t, 80, gotGrade.AICodeQuality)
	assert.Equal(t, 80, gotGrade.AITotal)

	gotSub, err := s.GetSubmission(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 86, gotSub.FinalGrade)
	assert.Equal(t, 80, gotSub.AIGrade)
}

func TestFetchLeaderboard(t *testing.T) {
	s := newTestStore(t)
	seedFixtures(t, s)

	// Alice: 80 + 90, Bob: 70
	for _, fix := range []struct {
		hw, student, at int64
		total           int
	}{
		{1, 1, 2000, 80},
		{2, 1, 5000, 90},
		{1, 2, 2500, 70},
	} {
		sub, files, grade := submissionFixture(fix.hw, fix.student, fix.at, fix.total)
		require.NoError(t, s.CreateSubmission(sub, files, grade))
	}

	rows, err := s.FetchLeaderboard(7, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, int64(1), rows[0].StudentID)
	assert.Equal(t, "Alice A", rows[0].StudentName)
	assert.Equal(t, 170, rows[0].TotalPoints)
	assert.Equal(t, 2, rows[0].SubmissionCount)

	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, int64(2), rows[1].StudentID)
	assert.Equal(t, 70, rows[1].TotalPoints)
	assert.Equal(t, 1, rows[1].SubmissionCount)
}

func TestFetchLeaderboard_SinceBound(t *testing.T) {
	s := newTestStore(t)
	seedFixtures(t, s)

	for _, fix := range []struct {
		hw, student, at int64
		total           int
	}{
		{1, 1, 2000, 80},
		{2, 1, 5000, 90},
		{1, 2, 2500, 70},
	} {
		sub, files, grade := submissionFixture(fix.hw, fix.student, fix.at, fix.total)
		require.NoError(t, s.CreateSubmission(sub, files, grade))
	}

	// only Alice's second submission falls inside the window
	rows, err := s.FetchLeaderboard(7, 3000)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].StudentID)
	assert.Equal(t, 90, rows[0].TotalPoints)
	assert.Equal(t, 1, rows[0].SubmissionCount)

	// nothing qualifies
	rows, err = s.FetchLeaderboard(7, 9999)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchLeaderboard_TieBreaksOnStudentID(t *testing.T) {
	s := newTestStore(t)
	seedFixtures(t, s)

	for _, fix := range []struct {
		hw, student int64
		total       int
	}{
		{1, 2, 80},
		{1, 1, 80},
	} {
		sub, files, grade := submissionFixture(fix.hw, fix.student, 2000, fix.total)
		require.NoError(t, s.CreateSubmission(sub, files, grade))
	}

	rows, err := s.FetchLeaderboard(7, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].StudentID)
	assert.Equal(t, int64(2), rows[1].StudentID)
}

func TestFetchLeaderboard_IgnoresOtherGroups(t *testing.T) {
	s := newTestStore(t)
	seedFixtures(t, s)

	sub, files, grade := submissionFixture(1, 3, 2000, 99)
	require.NoError(t, s.CreateSubmission(sub, files, grade))

	rows, err := s.FetchLeaderboard(7, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListOpenHomework(t *testing.T) {
	s := newTestStore(t)
	seedFixtures(t, s)

	hws, err := s.ListOpenHomework(7, 1500)
	require.NoError(t, err)
	assert.Len(t, hws, 2)

	// deadline boundary excludes
	hws, err = s.ListOpenHomework(7, 9000)
	require.NoError(t, err)
	assert.Empty(t, hws)

	// start boundary includes
	hws, err = s.ListOpenHomework(7, 1000)
	require.NoError(t, err)
	assert.Len(t, hws, 2)

	hws, err = s.ListOpenHomework(7, 999)
	require.NoError(t, err)
	assert.Empty(t, hws)
}

func TestListStudentSubmissions(t *testing.T) {
	s := newTestStore(t)
	seedFixtures(t, s)

	for _, fix := range []struct {
		hw, at int64
	}{
		{1, 2000},
		{2, 5000},
	} {
		sub, files, grade := submissionFixture(fix.hw, 1, fix.at, 80)
		require.NoError(t, s.CreateSubmission(sub, files, grade))
	}

	subs, err := s.ListStudentSubmissions(1, 20)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	// newest first
	assert.Equal(t, int64(5000), subs[0].SubmittedAt)

	subs, err = s.ListStudentSubmissions(1, 1)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(5000), subs[0].SubmittedAt)
}
