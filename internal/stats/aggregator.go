// Package stats maintains running quiz and class aggregates. Averages are
// updated online from the previous value and the new sample; the hot path
// never rescans completed attempts.
package stats

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/virtlab-edu/virtlab/internal/attempt"
)

// Aggregator implements attempt.StatsSink. Updates for one quiz (or one
// class) are serialized by a keyed mutex so concurrent completions on the
// same aggregate cannot lose the increment-then-average step; different
// aggregates do not contend.
type Aggregator struct {
	store Store
	log   zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAggregator(store Store, log zerolog.Logger) *Aggregator {
	return &Aggregator{store: store, log: log, locks: map[string]*sync.Mutex{}}
}

func (g *Aggregator) keyLock(key string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.locks[key]
	if !ok {
		m = &sync.Mutex{}
		g.locks[key] = m
	}
	return m
}

// OnAttemptCompleted folds one completed attempt into the quiz aggregate
// and, when the completion belongs to a class (quiz owned by the class's
// teacher), into the class aggregate. The two updates use distinct keys.
func (g *Aggregator) OnAttemptCompleted(ctx context.Context, c attempt.Completion) error {
	if err := g.quizCompleted(ctx, c); err != nil {
		return err
	}
	if c.ClassID == "" {
		return nil
	}
	return g.classCompleted(ctx, c)
}

func (g *Aggregator) quizCompleted(ctx context.Context, c attempt.Completion) error {
	l := g.keyLock("quiz|" + c.QuizID)
	l.Lock()
	defer l.Unlock()

	s, err := g.store.GetQuiz(ctx, c.QuizID)
	if err != nil {
		return err
	}
	s.QuizID = c.QuizID
	s.TotalAttempts++
	s.CompletedAttempts++
	if c.Passed {
		s.PassedAttempts++
	}
	if c.FirstForStudent {
		s.StudentsAttempted++
	}
	// Online mean: increment the count first, then pull the average toward
	// the new sample by 1/n.
	s.AverageScore += (float64(c.Score) - s.AverageScore) / float64(s.CompletedAttempts)
	return g.store.PutQuiz(ctx, s)
}

func (g *Aggregator) classCompleted(ctx context.Context, c attempt.Completion) error {
	l := g.keyLock("class|" + c.ClassID)
	l.Lock()
	defer l.Unlock()

	s, err := g.store.GetClass(ctx, c.ClassID)
	if err != nil {
		return err
	}
	s.ClassID = c.ClassID
	s.TotalAttempts++
	s.CompletedAttempts++
	if c.Passed {
		s.PassedAttempts++
	}
	s.AverageScore += (float64(c.Score) - s.AverageScore) / float64(s.CompletedAttempts)
	return g.store.PutClass(ctx, s)
}

// OnAttemptAbandoned bumps attempt counts only; abandoned attempts never
// move score-based metrics.
func (g *Aggregator) OnAttemptAbandoned(ctx context.Context, quizID, classID string) error {
	l := g.keyLock("quiz|" + quizID)
	l.Lock()
	s, err := g.store.GetQuiz(ctx, quizID)
	if err == nil {
		s.QuizID = quizID
		s.TotalAttempts++
		err = g.store.PutQuiz(ctx, s)
	}
	l.Unlock()
	if err != nil {
		return err
	}

	if classID == "" {
		return nil
	}
	cl := g.keyLock("class|" + classID)
	cl.Lock()
	defer cl.Unlock()
	cs, err := g.store.GetClass(ctx, classID)
	if err != nil {
		return err
	}
	cs.ClassID = classID
	cs.TotalAttempts++
	return g.store.PutClass(ctx, cs)
}
