package stats

import "context"

// Store persists aggregate rows. Reads of absent rows return zero-valued
// stats, not an error: an unattempted quiz has real, all-zero aggregates.
// The Aggregator serializes get/put per aggregate key above this interface.
type Store interface {
	GetQuiz(ctx context.Context, quizID string) (QuizStats, error)
	PutQuiz(ctx context.Context, s QuizStats) error
	GetClass(ctx context.Context, classID string) (ClassStats, error)
	PutClass(ctx context.Context, s ClassStats) error
}
