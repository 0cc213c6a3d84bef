package attempt

import "errors"

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Unanswered is the answer value for a question the student left blank.
const Unanswered = -1

var (
	// ErrAttemptLimitExceeded: prior attempts of any status already reach
	// the quiz's max_attempts.
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	// ErrAttemptNotFound covers missing, foreign, wrong-quiz and
	// already-terminal attempts alike; callers must not learn which.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrInvalidAnswerShape: the answers payload is structurally malformed.
	// Wrong length is NOT this error; it is tolerated and scored.
	ErrInvalidAnswerShape = errors.New("invalid answer shape")
)

// Attempt is one student's pass at a quiz. attempt_number is 1-based and
// gap-free per (quiz, student); at most one in_progress row exists per pair.
type Attempt struct {
	ID            string `json:"id"`
	QuizID        string `json:"quiz_id"`
	StudentID     string `json:"student_id"`
	AttemptNumber int    `json:"attempt_number"`
	Status        Status `json:"status"`
	Answers       []int  `json:"answers"`             // aligned to question order; Unanswered for blanks
	Breakdown     []bool `json:"breakdown,omitempty"` // per-question correctness, set on completion
	Score         int    `json:"score"`               // 0-100
	Passed        bool   `json:"passed"`
	ElapsedSec    int    `json:"elapsed_sec"`
	StartedAt     int64  `json:"started_at"`
	CompletedAt   int64  `json:"completed_at,omitempty"`
}

func (a Attempt) Terminal() bool {
	return a.Status == StatusCompleted || a.Status == StatusAbandoned
}
