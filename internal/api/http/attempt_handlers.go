package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/virtlab-edu/virtlab/internal/attempt"
	"github.com/virtlab-edu/virtlab/internal/identity"
)

func StartAttemptHandler(engine *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := identity.FromContext(r.Context())
		quizID := chi.URLParam(r, "quizID")
		res, err := engine.Start(r.Context(), viewer, quizID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func SubmitAttemptHandler(engine *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := identity.FromContext(r.Context())
		quizID := chi.URLParam(r, "quizID")
		attemptID := chi.URLParam(r, "attemptID")

		var req struct {
			Answers        json.RawMessage `json:"answers"`
			ElapsedSeconds int             `json:"elapsed_seconds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, "bad json", http.StatusBadRequest)
			return
		}
		answers, err := decodeAnswers(req.Answers)
		if err != nil {
			writeError(w, err)
			return
		}
		res, err := engine.Submit(r.Context(), viewer.UserID, quizID, attemptID, answers, req.ElapsedSeconds)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// decodeAnswers rejects structurally malformed payloads (non-array,
// non-integer entries) with ErrInvalidAnswerShape. Null entries mean
// "unanswered"; wrong length is deliberately tolerated and scored.
func decodeAnswers(raw json.RawMessage) ([]int, error) {
	if len(raw) == 0 {
		// Absent array: scored as all-unanswered.
		return nil, nil
	}
	var entries []*int
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, attempt.ErrInvalidAnswerShape
	}
	out := make([]int, len(entries))
	for i, e := range entries {
		if e == nil {
			out[i] = attempt.Unanswered
			continue
		}
		out[i] = *e
	}
	return out, nil
}

// AbandonAttemptHandler exposes the externally-driven in_progress ->
// abandoned transition (timeout collaborator, or a teacher closing stale
// attempts at their own quiz).
func AbandonAttemptHandler(engine *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := identity.FromContext(r.Context())
		quizID := chi.URLParam(r, "quizID")
		attemptID := chi.URLParam(r, "attemptID")

		studentID := viewer.UserID
		if viewer.Role != identity.RoleStudent {
			// Teachers/admins abandon on behalf of the owning student.
			a, err := engine.Get(r.Context(), viewer, attemptID)
			if err != nil {
				writeError(w, err)
				return
			}
			studentID = a.StudentID
		}
		if err := engine.Abandon(r.Context(), studentID, quizID, attemptID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": string(attempt.StatusAbandoned)})
	}
}

func GetAttemptHandler(engine *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := identity.FromContext(r.Context())
		attemptID := chi.URLParam(r, "attemptID")
		a, err := engine.Get(r.Context(), viewer, attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func ListAttemptsHandler(engine *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := identity.FromContext(r.Context())
		opts := attempt.ListOpts{
			QuizID:    r.URL.Query().Get("quiz_id"),
			StudentID: r.URL.Query().Get("student_id"),
			Status:    attempt.Status(r.URL.Query().Get("status")),
			Limit:     parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:    parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		list, err := engine.List(r.Context(), viewer, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		if list == nil {
			list = []attempt.Attempt{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
