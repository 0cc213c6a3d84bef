package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/virtlab-edu/virtlab/internal/content"
	"github.com/virtlab-edu/virtlab/internal/identity"
	"github.com/virtlab-edu/virtlab/internal/visibility"
)

func CreateContentHandler(catalog content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := identity.FromContext(r.Context())
		var it content.Item
		if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
			httpError(w, "bad json", http.StatusBadRequest)
			return
		}
		it.ID = uuid.NewString()
		it.CreatorID = viewer.UserID
		it.Status = content.StatusDraft // created draft, activated explicitly
		if it.Kind == "" {
			it.Kind = content.KindQuiz
		}
		if err := it.Validate(); err != nil {
			httpError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := catalog.PutItem(r.Context(), it); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, it)
	}
}

// TransitionContentHandler moves an item along draft -> active -> archived.
// Teachers may only transition their own items.
func TransitionContentHandler(catalog content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := identity.FromContext(r.Context())
		id := chi.URLParam(r, "contentID")
		var req struct {
			Status content.Status `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, "bad json", http.StatusBadRequest)
			return
		}
		it, err := catalog.GetItem(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if viewer.Role != identity.RoleAdmin && it.CreatorID != viewer.UserID {
			writeError(w, content.ErrNotVisible)
			return
		}
		updated, err := catalog.SetStatus(r.Context(), id, req.Status)
		if err != nil {
			httpError(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func GetContentHandler(catalog content.Store, resolver *visibility.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := identity.FromContext(r.Context())
		id := chi.URLParam(r, "contentID")
		it, err := catalog.GetItem(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if !resolver.CanView(r.Context(), viewer, it) {
			// Existing-but-forbidden is indistinguishable from absent.
			writeError(w, content.ErrNotVisible)
			return
		}
		if viewer.Role == identity.RoleStudent {
			writeJSON(w, http.StatusOK, it.StudentView())
			return
		}
		writeJSON(w, http.StatusOK, it)
	}
}

func ListContentHandler(catalog content.Store, resolver *visibility.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := identity.FromContext(r.Context())
		opts := content.ListOpts{
			Kind:   content.Kind(r.URL.Query().Get("kind")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		items, err := catalog.ListItems(r.Context(), content.ListOpts{Kind: opts.Kind})
		if err != nil {
			writeError(w, err)
			return
		}
		visible := resolver.ListVisible(r.Context(), viewer, items)
		if opts.Offset > 0 {
			if opts.Offset >= len(visible) {
				visible = nil
			} else {
				visible = visible[opts.Offset:]
			}
		}
		if opts.Limit > 0 && opts.Limit < len(visible) {
			visible = visible[:opts.Limit]
		}
		if viewer.Role == identity.RoleStudent {
			for i := range visible {
				visible[i] = visible[i].StudentView()
			}
		}
		writeJSON(w, http.StatusOK, visible)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
