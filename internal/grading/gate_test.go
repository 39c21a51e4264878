package grading

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

func TestGate_Check(t *testing.T) {
	now := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC).Unix()
	groupID := int64(7)

	hw := &models.Homework{
		ID:        1,
		Title:     "FizzBuzz",
		Points:    10,
		StartDate: now - 24*3600,
		Deadline:  now + 24*3600,
		LineLimit: 300,
		GroupID:   groupID,
	}
	student := &models.User{ID: 42, Role: models.RoleStudent, GroupID: &groupID}

	oneFile := []models.FileInput{
		{FileName: "main.py", Content: "print('hi')\n"},
	}

	manyLines := strings.Repeat("x\n", 501)

	otherGroup := int64(8)

	testCases := []struct {
		name     string
		hw       *models.Homework
		student  *models.User
		existing *models.Submission
		files    []models.FileInput
		now      int64
		wantErr  error
	}{
		{
			name:    "valid submission",
			hw:      hw,
			student: student,
			files:   oneFile,
			now:     now,
			wantErr: nil,
		},
		{
			name:    "homework does not exist",
			hw:      nil,
			student: student,
			files:   oneFile,
			now:     now,
			wantErr: ErrHomeworkNotFound,
		},
		{
			name:    "student from another group",
			hw:      hw,
			student: &models.User{ID: 43, Role: models.RoleStudent, GroupID: &otherGroup},
			files:   oneFile,
			now:     now,
			wantErr: ErrHomeworkNotFound,
		},
		{
			name:    "student without a group",
			hw:      hw,
			student: &models.User{ID: 44, Role: models.RoleStudent},
			files:   oneFile,
			now:     now,
			wantErr: ErrHomeworkNotFound,
		},
		{
			name:    "before start date",
			hw:      hw,
			student: student,
			files:   oneFile,
			now:     hw.StartDate - 1,
			wantErr: ErrNotOpen,
		},
		{
			name:    "at start date is open",
			hw:      hw,
			student: student,
			files:   oneFile,
			now:     hw.StartDate,
			wantErr: nil,
		},
		{
			name:    "exactly at deadline is closed",
			hw:      hw,
			student: student,
			files:   oneFile,
			now:     hw.Deadline,
			wantErr: ErrNotOpen,
		},
		{
			name:     "duplicate submission",
			hw:       hw,
			student:  student,
			existing: &models.Submission{ID: 99},
			files:    oneFile,
			now:      now,
			wantErr:  ErrDuplicateSubmission,
		},
		{
			name:    "no files",
			hw:      hw,
			student: student,
			files:   []models.FileInput{},
			now:     now,
			wantErr: ErrNoFiles,
		},
		{
			name:    "too many files",
			hw:      hw,
			student: student,
			files: []models.FileInput{
				{FileName: "a.py", Content: "a"},
				{FileName: "b.py", Content: "b"},
				{FileName: "c.py", Content: "c"},
				{FileName: "d.py", Content: "d"},
				{FileName: "e.py", Content: "e"},
				{FileName: "f.py", Content: "f"},
			},
			now:     now,
			wantErr: ErrTooManyFiles,
		},
		{
			name:    "single file too long",
			hw:      hw,
			student: student,
			files: []models.FileInput{
				{FileName: "big.py", Content: manyLines},
			},
			now:     now,
			wantErr: ErrFileTooLong,
		},
		{
			name:    "total lines over homework limit",
			hw:      hw,
			student: student,
			files: []models.FileInput{
				{FileName: "a.py", Content: strings.Repeat("x\n", 200)},
				{FileName: "b.py", Content: strings.Repeat("x\n", 200)},
			},
			now:     now,
			wantErr: ErrTotalLinesExceeded,
		},
	}

	gate := NewGate(Limits{MaxFilesPerHomework: 5, MaxLinesPerFile: 500})

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := gate.Check(tc.hw, tc.student, tc.existing, tc.files, tc.now)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tc.wantErr), "got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestGate_CheckOrder(t *testing.T) {
	// a closed homework with a duplicate on file must report the window
	// first: checks short-circuit in order
	groupID := int64(7)
	hw := &models.Homework{StartDate: 100, Deadline: 200, LineLimit: 300, GroupID: groupID}
	student := &models.User{ID: 1, GroupID: &groupID}

	gate := NewGate(Limits{MaxFilesPerHomework: 5, MaxLinesPerFile: 500})
	err := gate.Check(hw, student, &models.Submission{ID: 5}, nil, 500)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 1, models.CountLines("no newline"))
	assert.Equal(t, 2, models.CountLines("one\ntwo"))
	assert.Equal(t, 2, models.CountLines("trailing\n"))
	assert.Equal(t, 1, models.CountLines(""))
}
