package enrollment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/virtlab-edu/virtlab/internal/enrollment"
	"github.com/virtlab-edu/virtlab/internal/identity"
)

func TestEffectiveTeacher(t *testing.T) {
	dir := enrollment.NewInMemoryDirectory()
	dir.PutUser(enrollment.User{ID: "s1", Role: identity.RoleStudent, ClassID: "c7", Active: true})
	dir.PutUser(enrollment.User{ID: "s2", Role: identity.RoleStudent, Active: true})
	dir.PutUser(enrollment.User{ID: "s3", Role: identity.RoleStudent, ClassID: "c9", Active: true})
	dir.PutClass(enrollment.ClassGroup{ID: "c7", Name: "7A", TeacherID: "t42"})
	dir.PutClass(enrollment.ClassGroup{ID: "c9", Name: "9B"})
	ctx := context.Background()

	got, err := enrollment.EffectiveTeacher(ctx, dir, "s1")
	if err != nil || got != "t42" {
		t.Fatalf("EffectiveTeacher = (%q, %v), want (t42, nil)", got, err)
	}

	if _, err := enrollment.EffectiveTeacher(ctx, dir, "s2"); !errors.Is(err, enrollment.ErrNoClassAssigned) {
		t.Fatalf("no class: err = %v, want ErrNoClassAssigned", err)
	}
	if _, err := enrollment.EffectiveTeacher(ctx, dir, "s3"); !errors.Is(err, enrollment.ErrNoTeacherAssigned) {
		t.Fatalf("no teacher: err = %v, want ErrNoTeacherAssigned", err)
	}
	if _, err := enrollment.EffectiveTeacher(ctx, dir, "ghost"); !errors.Is(err, enrollment.ErrUserNotFound) {
		t.Fatalf("unknown user: err = %v, want ErrUserNotFound", err)
	}
}
