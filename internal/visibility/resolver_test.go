package visibility_test

import (
	"context"
	"testing"

	"github.com/virtlab-edu/virtlab/internal/content"
	"github.com/virtlab-edu/virtlab/internal/enrollment"
	"github.com/virtlab-edu/virtlab/internal/identity"
	"github.com/virtlab-edu/virtlab/internal/visibility"
)

func newDirectory() *enrollment.MemoryDirectory {
	dir := enrollment.NewInMemoryDirectory()
	dir.PutUser(enrollment.User{ID: "s1", Role: identity.RoleStudent, ClassID: "c7", Active: true})
	dir.PutUser(enrollment.User{ID: "s2", Role: identity.RoleStudent, ClassID: "c7", Active: true})
	dir.PutUser(enrollment.User{ID: "s-noclass", Role: identity.RoleStudent, Active: true})
	dir.PutUser(enrollment.User{ID: "s-orphan", Role: identity.RoleStudent, ClassID: "c9", Active: true})
	dir.PutClass(enrollment.ClassGroup{ID: "c7", Name: "7A", TeacherID: "t42"})
	dir.PutClass(enrollment.ClassGroup{ID: "c9", Name: "9B"}) // no teacher yet
	return dir
}

func item(creator string, status content.Status, assigned ...string) content.Item {
	return content.Item{
		ID:         "q1",
		Kind:       content.KindQuiz,
		Title:      "Optics lab",
		CreatorID:  creator,
		Status:     status,
		AssignedTo: assigned,
	}
}

func TestCanView(t *testing.T) {
	r := visibility.NewResolver(newDirectory())
	ctx := context.Background()

	student := identity.Identity{UserID: "s1", Role: identity.RoleStudent}
	teacher := identity.Identity{UserID: "t42", Role: identity.RoleTeacher}
	admin := identity.Identity{UserID: "a1", Role: identity.RoleAdmin}

	tests := []struct {
		name   string
		viewer identity.Identity
		item   content.Item
		want   bool
	}{
		{"admin sees drafts", admin, item("t42", content.StatusDraft), true},
		{"admin sees archived foreign content", admin, item("t99", content.StatusArchived), true},

		{"teacher sees own draft", teacher, item("t42", content.StatusDraft), true},
		{"teacher sees own archived", teacher, item("t42", content.StatusArchived), true},
		{"teacher never sees foreign content", teacher, item("t99", content.StatusActive), false},

		{"student sees class teacher's active item", student, item("t42", content.StatusActive), true},
		{"student blocked by draft status", student, item("t42", content.StatusDraft), false},
		{"student blocked by archived status", student, item("t42", content.StatusArchived), false},
		{"student sees explicit assignment from any creator", student, item("t99", content.StatusActive, "s1"), true},
		{"assignment list excluding student hides even class content", student, item("t42", content.StatusActive, "s2"), false},
		{"student cannot see foreign teacher's class-wide item", student, item("t99", content.StatusActive), false},

		{"student without class sees nothing class-wide", identity.Identity{UserID: "s-noclass", Role: identity.RoleStudent}, item("t42", content.StatusActive), false},
		{"student in teacherless class sees nothing class-wide", identity.Identity{UserID: "s-orphan", Role: identity.RoleStudent}, item("t42", content.StatusActive), false},
		{"student without class still sees explicit assignment", identity.Identity{UserID: "s-noclass", Role: identity.RoleStudent}, item("t42", content.StatusActive, "s-noclass"), true},
		{"unknown student sees nothing", identity.Identity{UserID: "ghost", Role: identity.RoleStudent}, item("t42", content.StatusActive), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.CanView(ctx, tt.viewer, tt.item); got != tt.want {
				t.Fatalf("CanView = %v, want %v", got, tt.want)
			}
		})
	}
}

// The status gate holds for every student-visible item, including
// explicitly assigned ones.
func TestCanViewImpliesActive(t *testing.T) {
	r := visibility.NewResolver(newDirectory())
	ctx := context.Background()
	student := identity.Identity{UserID: "s1", Role: identity.RoleStudent}

	for _, status := range []content.Status{content.StatusDraft, content.StatusArchived} {
		if r.CanView(ctx, student, item("t42", status, "s1")) {
			t.Fatalf("status %s visible to student via assignment", status)
		}
		if r.CanView(ctx, student, item("t42", status)) {
			t.Fatalf("status %s visible to student via class fallback", status)
		}
	}
}

func TestListVisible(t *testing.T) {
	r := visibility.NewResolver(newDirectory())
	ctx := context.Background()

	items := []content.Item{
		{ID: "a", Kind: content.KindQuiz, CreatorID: "t42", Status: content.StatusActive},
		{ID: "b", Kind: content.KindQuiz, CreatorID: "t42", Status: content.StatusDraft},
		{ID: "c", Kind: content.KindResource, CreatorID: "t99", Status: content.StatusActive},
		{ID: "d", Kind: content.KindQuiz, CreatorID: "t99", Status: content.StatusActive, AssignedTo: []string{"s1"}},
		{ID: "e", Kind: content.KindQuiz, CreatorID: "t42", Status: content.StatusActive, AssignedTo: []string{"s2"}},
	}

	got := r.ListVisible(ctx, identity.Identity{UserID: "s1", Role: identity.RoleStudent}, items)
	want := map[string]bool{"a": true, "d": true}
	if len(got) != len(want) {
		t.Fatalf("student sees %d items, want %d", len(got), len(want))
	}
	for _, it := range got {
		if !want[it.ID] {
			t.Fatalf("student unexpectedly sees %q", it.ID)
		}
	}

	got = r.ListVisible(ctx, identity.Identity{UserID: "t42", Role: identity.RoleTeacher}, items)
	if len(got) != 3 { // a, b, e
		t.Fatalf("teacher sees %d items, want 3", len(got))
	}

	got = r.ListVisible(ctx, identity.Identity{UserID: "a1", Role: identity.RoleAdmin}, items)
	if len(got) != len(items) {
		t.Fatalf("admin sees %d items, want %d", len(got), len(items))
	}
}
