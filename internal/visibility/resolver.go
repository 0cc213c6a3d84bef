// Package visibility decides which catalog items a viewer may see.
//
// Precedence, in order: admins see everything; teachers see exactly their
// own items in any status; students see only active items, and of those,
// explicitly-assigned items first (an assignment list that excludes the
// student hides the item even from their own class), then class-wide items
// owned by the teacher of the student's class.
package visibility

import (
	"context"
	"errors"

	"github.com/virtlab-edu/virtlab/internal/content"
	"github.com/virtlab-edu/virtlab/internal/enrollment"
	"github.com/virtlab-edu/virtlab/internal/identity"
)

type Resolver struct {
	dir enrollment.Directory
}

func NewResolver(dir enrollment.Directory) *Resolver {
	return &Resolver{dir: dir}
}

// CanView is a pure query: no side effects, and a broken enrollment chain
// (no class, no teacher, missing user) means "not visible", not an error.
func (r *Resolver) CanView(ctx context.Context, viewer identity.Identity, it content.Item) bool {
	switch viewer.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleTeacher:
		return it.CreatorID == viewer.UserID
	case identity.RoleStudent:
		return r.studentCanView(ctx, viewer.UserID, it)
	}
	return false
}

func (r *Resolver) studentCanView(ctx context.Context, studentID string, it content.Item) bool {
	if it.Status != content.StatusActive {
		return false
	}
	if len(it.AssignedTo) > 0 {
		// Explicit targeting narrows, never widens: a list that excludes
		// the student hides the item regardless of who created it.
		return it.AssignedToContains(studentID)
	}
	teacherID, err := enrollment.EffectiveTeacher(ctx, r.dir, studentID)
	if err != nil {
		if errors.Is(err, enrollment.ErrNoClassAssigned) ||
			errors.Is(err, enrollment.ErrNoTeacherAssigned) ||
			errors.Is(err, enrollment.ErrUserNotFound) ||
			errors.Is(err, enrollment.ErrClassNotFound) {
			return false
		}
		// Transient directory failure: fail closed.
		return false
	}
	return it.CreatorID == teacherID
}

// ListVisible filters a catalog snapshot down to what the viewer may see.
// The effective teacher is resolved once per call, not per item.
func (r *Resolver) ListVisible(ctx context.Context, viewer identity.Identity, items []content.Item) []content.Item {
	out := make([]content.Item, 0, len(items))
	switch viewer.Role {
	case identity.RoleAdmin:
		return append(out, items...)
	case identity.RoleTeacher:
		for _, it := range items {
			if it.CreatorID == viewer.UserID {
				out = append(out, it)
			}
		}
		return out
	case identity.RoleStudent:
		teacherID, err := enrollment.EffectiveTeacher(ctx, r.dir, viewer.UserID)
		if err != nil {
			teacherID = "" // fallback path yields nothing
		}
		for _, it := range items {
			if it.Status != content.StatusActive {
				continue
			}
			if len(it.AssignedTo) > 0 {
				if it.AssignedToContains(viewer.UserID) {
					out = append(out, it)
				}
				continue
			}
			if teacherID != "" && it.CreatorID == teacherID {
				out = append(out, it)
			}
		}
		return out
	}
	return out
}
