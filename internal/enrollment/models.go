package enrollment

import "github.com/virtlab-edu/virtlab/internal/identity"

// User is the directory's read view of an account. ClassID is set for
// students only and empty when the student has not been placed in a class.
type User struct {
	ID      string        `json:"id"`
	Role    identity.Role `json:"role"`
	ClassID string        `json:"class_id,omitempty"`
	Active  bool          `json:"active"`
}

// ClassGroup has at most one owning teacher at any time. TeacherID is
// empty while the class is being provisioned.
type ClassGroup struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TeacherID string `json:"teacher_id,omitempty"`
}
