package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/app"
	"github.com/shrimpsizemoose/kardemumma/internal/grading"
	"github.com/shrimpsizemoose/kardemumma/internal/metrics"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

type SubmissionHandler struct {
	service *app.Service
}

func NewSubmissionHandler(service *app.Service) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
	}
}

// writeError maps pipeline rejections onto HTTP statuses. Anything not in
// the taxonomy is an internal error and stays opaque to the caller.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, grading.ErrHomeworkNotFound),
		errors.Is(err, grading.ErrSubmissionNotFound),
		errors.Is(err, grading.ErrGradeNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, grading.ErrNotOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, grading.ErrNotOpen),
		errors.Is(err, grading.ErrDuplicateSubmission),
		errors.Is(err, grading.ErrNoFiles),
		errors.Is(err, grading.ErrTooManyFiles),
		errors.Is(err, grading.ErrFileTooLong),
		errors.Is(err, grading.ErrTotalLinesExceeded),
		errors.Is(err, grading.ErrInvalidScore),
		errors.Is(err, grading.ErrInvalidPeriod):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Error.Printf("Internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debug.Printf("Error encoding response: %v", err)
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HandleSubmit runs the intake pipeline for a student submission.
func (h *SubmissionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "201"
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(
			"/api/v1/homework/submit",
			r.Method,
			status,
		).Observe(time.Since(start).Seconds())
	}()

	principal, err := h.service.Auth.Authenticate(r)
	if err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		status = "401"
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if principal.Role != models.RoleStudent {
		status = "403"
		http.Error(w, "Only students can submit homework", http.StatusForbidden)
		return
	}

	homeworkID, ok := pathID(r, "id")
	if !ok {
		status = "400"
		http.Error(w, "Invalid homework id", http.StatusBadRequest)
		return
	}

	var req models.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "400"
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		status = "400"
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := h.service.Pipeline.Submit(r.Context(), homeworkID, principal.UserID, req.Files)
	if err != nil {
		status = "400"
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"submission": sub,
	})
}

// HandleGradeOverride applies a teacher's partial score correction.
func (h *SubmissionHandler) HandleGradeOverride(w http.ResponseWriter, r *http.Request) {
	principal, err := h.service.Auth.Authenticate(r)
	if err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if principal.Role != models.RoleTeacher {
		http.Error(w, "Only teachers can override grades", http.StatusForbidden)
		return
	}

	submissionID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid submission id", http.StatusBadRequest)
		return
	}

	var patch models.GradeOverride
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	grade, err := h.service.Pipeline.OverrideGrade(submissionID, principal.UserID, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"grade": grade,
	})
}

// HandleGradeDetail returns the full grade record for a submission.
func (h *SubmissionHandler) HandleGradeDetail(w http.ResponseWriter, r *http.Request) {
	principal, err := h.service.Auth.Authenticate(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	submissionID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid submission id", http.StatusBadRequest)
		return
	}

	grade, err := h.service.Pipeline.GradeForSubmission(submissionID, principal.AsUser())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"grade": grade,
	})
}

// HandleSubmissionList returns the student's own submissions, newest first.
func (h *SubmissionHandler) HandleSubmissionList(w http.ResponseWriter, r *http.Request) {
	principal, err := h.service.Auth.Authenticate(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if principal.Role != models.RoleStudent {
		http.Error(w, "Only students can list their submissions", http.StatusForbidden)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	subs, err := h.service.Pipeline.StudentSubmissions(principal.UserID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": subs,
	})
}
