package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/virtlab-edu/virtlab/internal/db"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dbh *sql.DB) *SQLStore { return &SQLStore{db: dbh} }

func (s *SQLStore) PutItem(ctx context.Context, it Item) error {
	aj, err := json.Marshal(orEmpty(it.AssignedTo))
	if err != nil {
		return err
	}
	qj, err := json.Marshal(orEmptyQ(it.Questions))
	if err != nil {
		return err
	}
	created := it.CreatedAt
	if created == 0 {
		created = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO content_items
		(id,kind,title,creator_id,status,assigned_json,questions_json,time_limit_sec,passing_score,max_attempts,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, assigned_json=EXCLUDED.assigned_json,
		  questions_json=EXCLUDED.questions_json, time_limit_sec=EXCLUDED.time_limit_sec,
		  passing_score=EXCLUDED.passing_score, max_attempts=EXCLUDED.max_attempts`,
		it.ID, string(it.Kind), it.Title, it.CreatorID, string(it.Status),
		string(aj), string(qj), it.TimeLimitSec, it.PassingScorePercent, it.MaxAttempts, created)
	return db.Classify(err)
}

func (s *SQLStore) GetItem(ctx context.Context, id string) (Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,kind,title,creator_id,status,assigned_json,questions_json,
		time_limit_sec,passing_score,max_attempts,created_at FROM content_items WHERE id=$1`, id)
	return scanItem(row)
}

func (s *SQLStore) SetStatus(ctx context.Context, id string, to Status) (Item, error) {
	it, err := s.GetItem(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if !ValidTransition(it.Status, to) {
		return Item{}, errors.New("invalid status transition")
	}
	_, err = s.db.ExecContext(ctx, `UPDATE content_items SET status=$1 WHERE id=$2`, string(to), id)
	if err != nil {
		return Item{}, db.Classify(err)
	}
	it.Status = to
	return it, nil
}

func (s *SQLStore) ListItems(ctx context.Context, opts ListOpts) ([]Item, error) {
	q := `SELECT id,kind,title,creator_id,status,assigned_json,questions_json,
		time_limit_sec,passing_score,max_attempts,created_at FROM content_items WHERE 1=1`
	args := []interface{}{}
	n := 0
	add := func(clause string, v interface{}) {
		n++
		q += clause + placeholder(n)
		args = append(args, v)
	}
	if opts.Kind != "" {
		add(` AND kind=`, string(opts.Kind))
	}
	if opts.Status != "" {
		add(` AND status=`, string(opts.Status))
	}
	q += ` ORDER BY created_at DESC`
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

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, db.Classify(rows.Err())
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (Item, error) {
	var it Item
	var kind, status, aj, qj string
	var created sql.NullInt64
	err := row.Scan(&it.ID, &kind, &it.Title, &it.CreatorID, &status, &aj, &qj,
		&it.TimeLimitSec, &it.PassingScorePercent, &it.MaxAttempts, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, db.Classify(err)
	}
	it.Kind = Kind(kind)
	it.Status = Status(status)
	it.CreatedAt = created.Int64
	if err := json.Unmarshal([]byte(aj), &it.AssignedTo); err != nil {
		return Item{}, err
	}
	if err := json.Unmarshal([]byte(qj), &it.Questions); err != nil {
		return Item{}, err
	}
	return it, nil
}

func placeholder(n int) string {
	// $n works for both pgx and modernc sqlite.
	return "$" + strconv.Itoa(n)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyQ(q []Question) []Question {
	if q == nil {
		return []Question{}
	}
	return q
}
