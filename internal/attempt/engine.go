package attempt

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/virtlab-edu/virtlab/internal/content"
	"github.com/virtlab-edu/virtlab/internal/enrollment"
	"github.com/virtlab-edu/virtlab/internal/identity"
	"github.com/virtlab-edu/virtlab/internal/visibility"
)

// Completion is what the statistics aggregator needs from a finished attempt.
// ClassID is set only when the quiz's creator is the teacher of the
// student's class; empty means no class aggregate is touched.
type Completion struct {
	QuizID          string
	ClassID         string
	StudentID       string
	Score           int
	Passed          bool
	FirstForStudent bool
}

// StatsSink receives attempt completions. Implementations must serialize
// per aggregate key internally; the engine holds no lock while calling.
type StatsSink interface {
	OnAttemptCompleted(ctx context.Context, c Completion) error
	OnAttemptAbandoned(ctx context.Context, quizID, classID string) error
}

// EventRecorder appends audit events; nil disables recording.
type EventRecorder interface {
	Append(ctx context.Context, typ, key string, data interface{}) error
}

type StartResult struct {
	AttemptID     string                    `json:"attempt_id"`
	AttemptNumber int                       `json:"attempt_number"`
	TimeLimitSec  int                       `json:"time_limit_sec"`
	Questions     []content.StudentQuestion `json:"questions"`
}

type SubmitResult struct {
	Score          int  `json:"score"`
	CorrectCount   int  `json:"correct_count"`
	TotalQuestions int  `json:"total_questions"`
	Passed         bool `json:"passed"`
	ElapsedSeconds int  `json:"elapsed_seconds"`
}

// Engine owns the attempt state machine: NONE -> in_progress ->
// {completed, abandoned}. All mutations for one (student, quiz) pair run
// under a single keyed lock, so the count-then-create sequence in Start and
// the read-modify-write in Submit cannot race with themselves.
type Engine struct {
	store    Store
	catalog  content.Store
	resolver *visibility.Resolver
	dir      enrollment.Directory
	stats    StatsSink
	events   EventRecorder
	log      zerolog.Logger

	perPair *keyLock
	now     func() time.Time
}

func NewEngine(store Store, catalog content.Store, resolver *visibility.Resolver, dir enrollment.Directory, stats StatsSink, events EventRecorder, log zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		catalog:  catalog,
		resolver: resolver,
		dir:      dir,
		stats:    stats,
		events:   events,
		log:      log,
		perPair:  newKeyLock(),
		now:      time.Now,
	}
}

func pairKey(quizID, studentID string) string { return quizID + "|" + studentID }

// Start opens (or resumes) an attempt for the viewer. Returning an
// already-open attempt is the only idempotency in the engine; everything
// else fails loudly.
func (e *Engine) Start(ctx context.Context, viewer identity.Identity, quizID string) (StartResult, error) {
	quiz, err := e.loadStartableQuiz(ctx, viewer, quizID)
	if err != nil {
		return StartResult{}, err
	}

	studentID := viewer.UserID
	key := pairKey(quizID, studentID)
	e.perPair.Lock(key)
	defer e.perPair.Unlock(key)

	// Idempotent restart: one in_progress attempt exists per pair at most,
	// and resuming it must win over the limit check at the boundary.
	if open, err := e.store.GetInProgress(ctx, quizID, studentID); err == nil {
		return StartResult{
			AttemptID:     open.ID,
			AttemptNumber: open.AttemptNumber,
			TimeLimitSec:  quiz.TimeLimitSec,
			Questions:     quiz.StudentQuestions(),
		}, nil
	} else if !errors.Is(err, ErrAttemptNotFound) {
		return StartResult{}, err
	}

	prior, err := e.store.CountForStudent(ctx, quizID, studentID)
	if err != nil {
		return StartResult{}, err
	}
	if prior >= quiz.MaxAttempts {
		return StartResult{}, ErrAttemptLimitExceeded
	}

	answers := make([]int, len(quiz.Questions))
	for i := range answers {
		answers[i] = Unanswered
	}
	a := Attempt{
		ID:            uuid.NewString(),
		QuizID:        quizID,
		StudentID:     studentID,
		AttemptNumber: prior + 1,
		Status:        StatusInProgress,
		Answers:       answers,
		StartedAt:     e.now().Unix(),
	}
	if err := e.store.Create(ctx, a); err != nil {
		return StartResult{}, err
	}
	e.record(ctx, "attempt.started", a.ID, a)
	return StartResult{
		AttemptID:     a.ID,
		AttemptNumber: a.AttemptNumber,
		TimeLimitSec:  quiz.TimeLimitSec,
		Questions:     quiz.StudentQuestions(),
	}, nil
}

// Submit scores and closes an in-progress attempt. A wrong-length answers
// slice is tolerated: missing entries score as unanswered, extras are
// ignored. Structural validation (non-array bodies) happens in the HTTP
// layer before this is called.
func (e *Engine) Submit(ctx context.Context, studentID, quizID, attemptID string, answers []int, elapsedSec int) (SubmitResult, error) {
	key := pairKey(quizID, studentID)
	e.perPair.Lock(key)
	defer e.perPair.Unlock(key)

	a, err := e.store.Get(ctx, attemptID)
	if err != nil {
		return SubmitResult{}, err
	}
	// One error for "not yours", "wrong quiz" and "already finished":
	// callers must not learn which.
	if a.StudentID != studentID || a.QuizID != quizID || a.Status != StatusInProgress {
		return SubmitResult{}, ErrAttemptNotFound
	}

	quiz, err := e.catalog.GetItem(ctx, quizID)
	if err != nil {
		return SubmitResult{}, err
	}

	correct, breakdown := scoreAnswers(quiz.Questions, answers)
	score := roundPercent(correct, len(quiz.Questions))
	passed := score >= quiz.PassingScorePercent

	first, err := e.store.HasCompleted(ctx, quizID, studentID)
	if err != nil {
		return SubmitResult{}, err
	}

	a.Status = StatusCompleted
	a.Answers = normalizeAnswers(answers, len(quiz.Questions))
	a.Breakdown = breakdown
	a.Score = score
	a.Passed = passed
	a.ElapsedSec = elapsedSec
	a.CompletedAt = e.now().Unix()
	if err := e.store.Finalize(ctx, a); err != nil {
		return SubmitResult{}, err
	}

	c := Completion{
		QuizID:          quizID,
		ClassID:         e.classForCompletion(ctx, studentID, quiz.CreatorID),
		StudentID:       studentID,
		Score:           score,
		Passed:          passed,
		FirstForStudent: !first,
	}
	if err := e.stats.OnAttemptCompleted(ctx, c); err != nil {
		e.log.Error().Err(err).Str("quiz_id", quizID).Msg("stats update failed")
	}
	e.record(ctx, "attempt.completed", a.ID, a)

	return SubmitResult{
		Score:          score,
		CorrectCount:   correct,
		TotalQuestions: len(quiz.Questions),
		Passed:         passed,
		ElapsedSeconds: elapsedSec,
	}, nil
}

// Abandon closes an attempt without scoring. The transition is driven
// externally (a timeout collaborator, a teacher); the engine only exposes it.
func (e *Engine) Abandon(ctx context.Context, studentID, quizID, attemptID string) error {
	key := pairKey(quizID, studentID)
	e.perPair.Lock(key)
	defer e.perPair.Unlock(key)

	a, err := e.store.Get(ctx, attemptID)
	if err != nil {
		return err
	}
	if a.StudentID != studentID || a.QuizID != quizID || a.Status != StatusInProgress {
		return ErrAttemptNotFound
	}

	a.Status = StatusAbandoned
	a.CompletedAt = e.now().Unix()
	if err := e.store.Finalize(ctx, a); err != nil {
		return err
	}

	quiz, qerr := e.catalog.GetItem(ctx, quizID)
	classID := ""
	if qerr == nil {
		classID = e.classForCompletion(ctx, studentID, quiz.CreatorID)
	}
	if err := e.stats.OnAttemptAbandoned(ctx, quizID, classID); err != nil {
		e.log.Error().Err(err).Str("quiz_id", quizID).Msg("stats update failed")
	}
	e.record(ctx, "attempt.abandoned", a.ID, a)
	return nil
}

// Get returns an attempt if the caller may see it: students their own,
// teachers attempts at their own quizzes, admins all.
func (e *Engine) Get(ctx context.Context, viewer identity.Identity, attemptID string) (Attempt, error) {
	a, err := e.store.Get(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	switch viewer.Role {
	case identity.RoleAdmin:
		return a, nil
	case identity.RoleStudent:
		if a.StudentID == viewer.UserID {
			return a, nil
		}
	case identity.RoleTeacher:
		quiz, qerr := e.catalog.GetItem(ctx, a.QuizID)
		if qerr == nil && quiz.CreatorID == viewer.UserID {
			return a, nil
		}
	}
	return Attempt{}, ErrAttemptNotFound
}

// List applies the same ownership scoping as Get, then delegates.
func (e *Engine) List(ctx context.Context, viewer identity.Identity, opts ListOpts) ([]Attempt, error) {
	switch viewer.Role {
	case identity.RoleStudent:
		opts.StudentID = viewer.UserID
	case identity.RoleTeacher:
		if opts.QuizID == "" {
			return nil, content.ErrNotVisible
		}
		quiz, err := e.catalog.GetItem(ctx, opts.QuizID)
		if err != nil || quiz.CreatorID != viewer.UserID {
			return nil, content.ErrNotVisible
		}
	}
	return e.store.List(ctx, opts)
}

func (e *Engine) loadStartableQuiz(ctx context.Context, viewer identity.Identity, quizID string) (content.Item, error) {
	quiz, err := e.catalog.GetItem(ctx, quizID)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return content.Item{}, content.ErrNotVisible
		}
		return content.Item{}, err
	}
	if !quiz.IsQuiz() {
		return content.Item{}, content.ErrNotVisible
	}
	if !e.resolver.CanView(ctx, viewer, quiz) {
		// Status gate and access checks collapse into one answer for
		// students so inactive content cannot be probed.
		return content.Item{}, content.ErrNotVisible
	}
	if quiz.Status != content.StatusActive {
		// Only teachers/admins can reach this: CanView already rejects
		// non-active items for students.
		return content.Item{}, content.ErrContentNotActive
	}
	return quiz, nil
}

// classForCompletion returns the student's class only when the quiz creator
// is that class's teacher; class aggregates track a teacher's own content.
func (e *Engine) classForCompletion(ctx context.Context, studentID, creatorID string) string {
	u, err := e.dir.GetUser(ctx, studentID)
	if err != nil || u.ClassID == "" {
		return ""
	}
	c, err := e.dir.GetClass(ctx, u.ClassID)
	if err != nil || c.TeacherID != creatorID {
		return ""
	}
	return c.ID
}

func (e *Engine) record(ctx context.Context, typ, key string, data interface{}) {
	if e.events == nil {
		return
	}
	if err := e.events.Append(ctx, typ, key, data); err != nil {
		e.log.Warn().Err(err).Str("type", typ).Msg("event append failed")
	}
}

func scoreAnswers(questions []content.Question, answers []int) (correct int, breakdown []bool) {
	breakdown = make([]bool, len(questions))
	for i, q := range questions {
		if i >= len(answers) {
			continue // missing entries score as unanswered
		}
		if answers[i] == q.CorrectOption {
			breakdown[i] = true
			correct++
		}
	}
	return correct, breakdown
}

// roundPercent computes round-half-up(100*correct/total) in integers.
func roundPercent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// normalizeAnswers pads or trims to the question count so the stored row is
// always aligned to question order.
func normalizeAnswers(answers []int, total int) []int {
	out := make([]int, total)
	for i := range out {
		if i < len(answers) {
			out[i] = answers[i]
		} else {
			out[i] = Unanswered
		}
	}
	return out
}
