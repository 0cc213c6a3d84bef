package enrollment

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrClassNotFound = errors.New("class not found")

	// ErrNoClassAssigned / ErrNoTeacherAssigned break the student->class->teacher
	// chain. Visibility treats both as "nothing visible", never a caller error.
	ErrNoClassAssigned   = errors.New("student has no class assigned")
	ErrNoTeacherAssigned = errors.New("class has no teacher assigned")
)

// Directory is the read-only enrollment lookup. Eventually-consistent reads
// are acceptable: a brief staleness window after class reassignment is fine.
type Directory interface {
	GetUser(ctx context.Context, userID string) (User, error)
	GetClass(ctx context.Context, classID string) (ClassGroup, error)
}

// EffectiveTeacher resolves the teacher bound to a student's class, the
// fallback owner for class-wide content visibility.
func EffectiveTeacher(ctx context.Context, dir Directory, studentID string) (string, error) {
	u, err := dir.GetUser(ctx, studentID)
	if err != nil {
		return "", err
	}
	if u.ClassID == "" {
		return "", ErrNoClassAssigned
	}
	c, err := dir.GetClass(ctx, u.ClassID)
	if err != nil {
		return "", err
	}
	if c.TeacherID == "" {
		return "", ErrNoTeacherAssigned
	}
	return c.TeacherID, nil
}
