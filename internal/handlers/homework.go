package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

// HandleHomeworkList lists homework for the caller: teachers see what
// they authored, students see what is currently open for their group.
func (h *SubmissionHandler) HandleHomeworkList(w http.ResponseWriter, r *http.Request) {
	principal, err := h.service.Auth.Authenticate(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var hws []models.Homework
	switch principal.Role {
	case models.RoleTeacher:
		hws, err = h.service.Pipeline.TeacherHomework(principal.UserID)
	case models.RoleStudent:
		hws, err = h.service.Pipeline.OpenHomeworkForStudent(principal.UserID)
	default:
		http.Error(w, "Homework listing is for teachers and students", http.StatusForbidden)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"homework": hws,
	})
}

// HandleLeaderboard returns ranked totals for a group over a period.
// Students may only look at their own group.
func (h *SubmissionHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	principal, err := h.service.Auth.Authenticate(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	groupID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid group id", http.StatusBadRequest)
		return
	}

	if principal.Role == models.RoleStudent {
		if principal.GroupID == nil || *principal.GroupID != groupID {
			http.Error(w, "No access to this group", http.StatusForbidden)
			return
		}
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "all"
	}

	rows, err := h.service.Pipeline.Leaderboard(groupID, period)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": rows,
		"period":      period,
	})
}

// HandleConstants exposes the enumerated limits clients build forms from.
func (h *SubmissionHandler) HandleConstants(w http.ResponseWriter, r *http.Request) {
	limits := h.service.Config.Limits

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"line_limit_options":     limits.LineLimitOptions,
		"file_extension_options": limits.FileExtensionOptions,
		"max_files_per_homework": limits.MaxFilesPerHomework,
		"max_lines_per_file":     limits.MaxLinesPerFile,
		"grading_rubrics":        []string{"task_completeness", "code_quality", "correctness"},
	})
}
