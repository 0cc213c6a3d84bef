package enrollment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/virtlab-edu/virtlab/internal/db"
	"github.com/virtlab-edu/virtlab/internal/identity"
)

type SQLDirectory struct {
	db *sql.DB
}

func NewSQLDirectory(dbh *sql.DB) *SQLDirectory { return &SQLDirectory{db: dbh} }

func (d *SQLDirectory) GetUser(ctx context.Context, userID string) (User, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, role, COALESCE(class_id,''), active FROM users WHERE id=$1`, userID)
	var u User
	var role string
	if err := row.Scan(&u.ID, &role, &u.ClassID, &u.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, db.Classify(err)
	}
	u.Role = identity.Role(role)
	return u, nil
}

func (d *SQLDirectory) GetClass(ctx context.Context, classID string) (ClassGroup, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(teacher_id,'') FROM class_groups WHERE id=$1`, classID)
	var c ClassGroup
	if err := row.Scan(&c.ID, &c.Name, &c.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ClassGroup{}, ErrClassNotFound
		}
		return ClassGroup{}, db.Classify(err)
	}
	return c, nil
}
