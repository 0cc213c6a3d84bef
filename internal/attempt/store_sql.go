package attempt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/virtlab-edu/virtlab/internal/db"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dbh *sql.DB) *SQLStore { return &SQLStore{db: dbh} }

func (s *SQLStore) Create(ctx context.Context, a Attempt) error {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	bj, err := json.Marshal(orEmptyBool(a.Breakdown))
	if err != nil {
		return err
	}
	// The UNIQUE (quiz_id, student_id, attempt_number) constraint is the
	// storage-level backstop for attempt-number monotonicity.
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,quiz_id,student_id,attempt_number,status,answers_json,breakdown_json,score,passed,elapsed_sec,started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.QuizID, a.StudentID, a.AttemptNumber, string(a.Status),
		string(aj), string(bj), a.Score, a.Passed, a.ElapsedSec, a.StartedAt)
	return db.Classify(err)
}

func (s *SQLStore) Get(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,student_id,attempt_number,status,
		answers_json,breakdown_json,score,passed,elapsed_sec,started_at,COALESCE(completed_at,0)
		FROM attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

func (s *SQLStore) GetInProgress(ctx context.Context, quizID, studentID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,student_id,attempt_number,status,
		answers_json,breakdown_json,score,passed,elapsed_sec,started_at,COALESCE(completed_at,0)
		FROM attempts WHERE quiz_id=$1 AND student_id=$2 AND status='in_progress'`, quizID, studentID)
	return scanAttempt(row)
}

func (s *SQLStore) CountForStudent(ctx context.Context, quizID, studentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts WHERE quiz_id=$1 AND student_id=$2`,
		quizID, studentID).Scan(&n)
	return n, db.Classify(err)
}

func (s *SQLStore) HasCompleted(ctx context.Context, quizID, studentID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts WHERE quiz_id=$1 AND student_id=$2 AND status='completed'`,
		quizID, studentID).Scan(&n)
	return n > 0, db.Classify(err)
}

func (s *SQLStore) Finalize(ctx context.Context, a Attempt) error {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	bj, err := json.Marshal(orEmptyBool(a.Breakdown))
	if err != nil {
		return err
	}
	// Guarding on status='in_progress' makes the transition a single atomic
	// read-modify-write: a second Finalize sees zero rows affected.
	res, err := s.db.ExecContext(ctx, `UPDATE attempts
		SET status=$1, answers_json=$2, breakdown_json=$3, score=$4, passed=$5, elapsed_sec=$6, completed_at=$7
		WHERE id=$8 AND status='in_progress'`,
		string(a.Status), string(aj), string(bj), a.Score, a.Passed, a.ElapsedSec, a.CompletedAt, a.ID)
	if err != nil {
		return db.Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return db.Classify(err)
	}
	if n == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

func (s *SQLStore) CountByStatus(ctx context.Context, quizID string) (Counts, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM attempts WHERE quiz_id=$1 GROUP BY status`, quizID)
	if err != nil {
		return Counts{}, db.Classify(err)
	}
	defer rows.Close()

	var c Counts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Counts{}, db.Classify(err)
		}
		switch Status(status) {
		case StatusInProgress:
			c.InProgress = n
		case StatusCompleted:
			c.Completed = n
		case StatusAbandoned:
			c.Abandoned = n
		}
	}
	return c, db.Classify(rows.Err())
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Attempt, error) {
	q := `SELECT id,quiz_id,student_id,attempt_number,status,answers_json,breakdown_json,
		score,passed,elapsed_sec,started_at,COALESCE(completed_at,0) FROM attempts WHERE 1=1`
	args := []interface{}{}
	n := 0
	add := func(clause string, v interface{}) {
		n++
		q += clause + placeholder(n)
		args = append(args, v)
	}
	if opts.QuizID != "" {
		add(` AND quiz_id=`, opts.QuizID)
	}
	if opts.StudentID != "" {
		add(` AND student_id=`, opts.StudentID)
	}
	if opts.Status != "" {
		add(` AND status=`, string(opts.Status))
	}
	q += ` ORDER BY started_at DESC`
	if opts.Limit > 0 {
		add(` LIMIT `, opts.Limit)
	}
	if opts.Offset > 0 {
		add(` OFFSET `, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, db.Classify(rows.Err())
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var status, aj, bj string
	err := row.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.AttemptNumber, &status,
		&aj, &bj, &a.Score, &a.Passed, &a.ElapsedSec, &a.StartedAt, &a.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, db.Classify(err)
	}
	a.Status = Status(status)
	if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil {
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(bj), &a.Breakdown); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func orEmptyBool(b []bool) []bool {
	if b == nil {
		return []bool{}
	}
	return b
}
