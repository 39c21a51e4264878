package models

// Grade is one-to-one with Submission. The ai_* columns keep the oracle's
// original assessment and are never touched again; the final_* columns
// start equal to them and may be corrected by the owning teacher.
// modified_by_teacher (unix seconds) is set iff an override has happened.
type Grade struct {
	ID           int64 `db:"id" json:"id"`
	SubmissionID int64 `db:"submission_id" json:"submission_id"`

	AITaskCompleteness int `db:"ai_task_completeness" json:"ai_task_completeness"`
	AICodeQuality      int `db:"ai_code_quality" json:"ai_code_quality"`
	AICorrectness      int `db:"ai_correctness" json:"ai_correctness"`
	AITotal            int `db:"ai_total" json:"ai_total"`

	FinalTaskCompleteness int  `db:"final_task_completeness" json:"final_task_completeness"`
	FinalCodeQuality      int  `db:"final_code_quality" json:"final_code_quality"`
	FinalCorrectness      int  `db:"final_correctness" json:"final_correctness"`
	TeacherTotal          *int `db:"teacher_total" json:"teacher_total,omitempty"`

	AIFeedback               string `db:"ai_feedback" json:"ai_feedback"`
	TaskCompletenessFeedback string `db:"task_completeness_feedback" json:"task_completeness_feedback"`
	CodeQualityFeedback      string `db:"code_quality_feedback" json:"code_quality_feedback"`
	CorrectnessFeedback      string `db:"correctness_feedback" json:"correctness_feedback"`

	ModifiedByTeacher *int64 `db:"modified_by_teacher" json:"modified_by_teacher,omitempty"`
}

// GradeOverride is a partial update: only non-nil fields are applied,
// absent and null are treated alike (exclude-unset semantics).
type GradeOverride struct {
	FinalTaskCompleteness *int `json:"final_task_completeness,omitempty"`
	FinalCodeQuality      *int `json:"final_code_quality,omitempty"`
	FinalCorrectness      *int `json:"final_correctness,omitempty"`
}

// Empty reports whether the override carries no fields at all.
func (o GradeOverride) Empty() bool {
	return o.FinalTaskCompleteness == nil && o.FinalCodeQuality == nil && o.FinalCorrectness == nil
}

type LeaderboardRow struct {
	Rank            int    `db:"-" json:"rank"`
	StudentID       int64  `db:"student_id" json:"student_id"`
	StudentName     string `db:"student_name" json:"student_name"`
	TotalPoints     int    `db:"total_points" json:"total_points"`
	SubmissionCount int    `db:"submission_count" json:"submission_count"`
}
