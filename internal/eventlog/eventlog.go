// Package eventlog appends an audit trail of attempt and content
// transitions. Dashboards and external sync read it; nothing in the core
// replays it.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/virtlab-edu/virtlab/internal/db"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

type Repo struct{ db *sql.DB }

func NewRepo(dbh *sql.DB) *Repo { return &Repo{db: dbh} }

// Append stores one event; data is marshaled to JSON. Key is the natural
// key of the subject (attempt id, content id).
func (r *Repo) Append(ctx context.Context, typ, key string, data interface{}) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return db.Classify(err)
}
