package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/virtlab-edu/virtlab/internal/content"
	"github.com/virtlab-edu/virtlab/internal/enrollment"
	"github.com/virtlab-edu/virtlab/internal/identity"
	"github.com/virtlab-edu/virtlab/internal/stats"
	"github.com/virtlab-edu/virtlab/internal/visibility"
)

// QuizStatsHandler serves the derived quiz metrics to anyone who can view
// the quiz itself.
func QuizStatsHandler(svc *stats.Service, catalog content.Store, resolver *visibility.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := identity.FromContext(r.Context())
		quizID := chi.URLParam(r, "quizID")
		it, err := catalog.GetItem(r.Context(), quizID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !resolver.CanView(r.Context(), viewer, it) {
			writeError(w, content.ErrNotVisible)
			return
		}
		view, err := svc.QuizStats(r.Context(), quizID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// ClassStatsHandler: admins see any class, a teacher their own class, a
// student the class they belong to.
func ClassStatsHandler(svc *stats.Service, dir enrollment.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := identity.FromContext(r.Context())
		classID := chi.URLParam(r, "classID")

		cls, err := dir.GetClass(r.Context(), classID)
		if err != nil {
			writeError(w, content.ErrNotVisible)
			return
		}
		switch viewer.Role {
		case identity.RoleAdmin:
		case identity.RoleTeacher:
			if cls.TeacherID != viewer.UserID {
				writeError(w, content.ErrNotVisible)
				return
			}
		case identity.RoleStudent:
			u, err := dir.GetUser(r.Context(), viewer.UserID)
			if err != nil || u.ClassID != classID {
				writeError(w, content.ErrNotVisible)
				return
			}
		default:
			writeError(w, content.ErrNotVisible)
			return
		}

		view, err := svc.ClassStats(r.Context(), classID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
