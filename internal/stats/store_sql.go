package stats

import (
	"context"
	"database/sql"
	"errors"

	"github.com/virtlab-edu/virtlab/internal/db"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dbh *sql.DB) *SQLStore { return &SQLStore{db: dbh} }

func (s *SQLStore) GetQuiz(ctx context.Context, quizID string) (QuizStats, error) {
	row := s.db.QueryRowContext(ctx, `SELECT quiz_id,total_attempts,completed_attempts,
		passed_attempts,average_score,students_attempted FROM quiz_stats WHERE quiz_id=$1`, quizID)
	var st QuizStats
	err := row.Scan(&st.QuizID, &st.TotalAttempts, &st.CompletedAttempts,
		&st.PassedAttempts, &st.AverageScore, &st.StudentsAttempted)
	if errors.Is(err, sql.ErrNoRows) {
		return QuizStats{QuizID: quizID}, nil
	}
	return st, db.Classify(err)
}

func (s *SQLStore) PutQuiz(ctx context.Context, st QuizStats) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO quiz_stats
		(quiz_id,total_attempts,completed_attempts,passed_attempts,average_score,students_attempted)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (quiz_id) DO UPDATE SET total_attempts=EXCLUDED.total_attempts,
		  completed_attempts=EXCLUDED.completed_attempts, passed_attempts=EXCLUDED.passed_attempts,
		  average_score=EXCLUDED.average_score, students_attempted=EXCLUDED.students_attempted`,
		st.QuizID, st.TotalAttempts, st.CompletedAttempts, st.PassedAttempts,
		st.AverageScore, st.StudentsAttempted)
	return db.Classify(err)
}

func (s *SQLStore) GetClass(ctx context.Context, classID string) (ClassStats, error) {
	row := s.db.QueryRowContext(ctx, `SELECT class_id,total_attempts,completed_attempts,
		passed_attempts,average_score FROM class_stats WHERE class_id=$1`, classID)
	var st ClassStats
	err := row.Scan(&st.ClassID, &st.TotalAttempts, &st.CompletedAttempts,
		&st.PassedAttempts, &st.AverageScore)
	if errors.Is(err, sql.ErrNoRows) {
		return ClassStats{ClassID: classID}, nil
	}
	return st, db.Classify(err)
}

func (s *SQLStore) PutClass(ctx context.Context, st ClassStats) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO class_stats
		(class_id,total_attempts,completed_attempts,passed_attempts,average_score)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (class_id) DO UPDATE SET total_attempts=EXCLUDED.total_attempts,
		  completed_attempts=EXCLUDED.completed_attempts, passed_attempts=EXCLUDED.passed_attempts,
		  average_score=EXCLUDED.average_score`,
		st.ClassID, st.TotalAttempts, st.CompletedAttempts, st.PassedAttempts, st.AverageScore)
	return db.Classify(err)
}
