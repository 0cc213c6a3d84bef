package attempt

import "context"

type ListOpts struct {
	QuizID    string
	StudentID string
	Status    Status
	Limit     int
	Offset    int
}

// Counts groups a quiz's attempts by status; the completion-rate
// denominator is recomputed from these at query time, never cached.
type Counts struct {
	InProgress int
	Completed  int
	Abandoned  int
}

func (c Counts) Total() int { return c.InProgress + c.Completed + c.Abandoned }

// Store persists attempts. The engine serializes writers per
// (quiz, student) above this interface; implementations only need per-call
// atomicity (a Create or Finalize either fully lands or not at all).
type Store interface {
	Create(ctx context.Context, a Attempt) error
	Get(ctx context.Context, id string) (Attempt, error)
	// GetInProgress returns the open attempt for the pair, or ErrAttemptNotFound.
	GetInProgress(ctx context.Context, quizID, studentID string) (Attempt, error)
	// CountForStudent counts attempts of every status for the pair.
	CountForStudent(ctx context.Context, quizID, studentID string) (int, error)
	// HasCompleted reports whether the student has completed this quiz before.
	HasCompleted(ctx context.Context, quizID, studentID string) (bool, error)
	// Finalize transitions in_progress -> completed|abandoned in one
	// read-modify-write. Returns ErrAttemptNotFound if the row is not
	// in_progress anymore.
	Finalize(ctx context.Context, a Attempt) error
	CountByStatus(ctx context.Context, quizID string) (Counts, error)
	List(ctx context.Context, opts ListOpts) ([]Attempt, error)
}
