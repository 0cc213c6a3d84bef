package stats

import (
	"context"

	"github.com/virtlab-edu/virtlab/internal/attempt"
	"github.com/virtlab-edu/virtlab/internal/content"
	"github.com/virtlab-edu/virtlab/internal/enrollment"
)

// Service is the read side: it joins the stored aggregates with live
// attempt counts to produce the completion rate. Dashboards consume these
// views and never touch the aggregates directly.
type Service struct {
	store    Store
	attempts attempt.Store
	catalog  content.Store
	dir      enrollment.Directory
}

func NewService(store Store, attempts attempt.Store, catalog content.Store, dir enrollment.Directory) *Service {
	return &Service{store: store, attempts: attempts, catalog: catalog, dir: dir}
}

func (s *Service) QuizStats(ctx context.Context, quizID string) (QuizStatsView, error) {
	agg, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizStatsView{}, err
	}
	agg.QuizID = quizID
	counts, err := s.attempts.CountByStatus(ctx, quizID)
	if err != nil {
		return QuizStatsView{}, err
	}
	return QuizStatsView{QuizStats: agg, CompletionRate: rate(counts)}, nil
}

// ClassStats sums live attempt counts over every quiz owned by the class's
// teacher; the denominator includes in-progress attempts on purpose.
func (s *Service) ClassStats(ctx context.Context, classID string) (ClassStatsView, error) {
	agg, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return ClassStatsView{}, err
	}
	agg.ClassID = classID

	cls, err := s.dir.GetClass(ctx, classID)
	if err != nil {
		return ClassStatsView{}, err
	}
	if cls.TeacherID == "" {
		return ClassStatsView{ClassStats: agg}, nil
	}

	quizzes, err := s.catalog.ListItems(ctx, content.ListOpts{Kind: content.KindQuiz})
	if err != nil {
		return ClassStatsView{}, err
	}
	var total attempt.Counts
	for _, q := range quizzes {
		if q.CreatorID != cls.TeacherID {
			continue
		}
		c, err := s.attempts.CountByStatus(ctx, q.ID)
		if err != nil {
			return ClassStatsView{}, err
		}
		total.InProgress += c.InProgress
		total.Completed += c.Completed
		total.Abandoned += c.Abandoned
	}
	return ClassStatsView{ClassStats: agg, CompletionRate: rate(total)}, nil
}

func rate(c attempt.Counts) float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.Completed) / float64(c.Total())
}
