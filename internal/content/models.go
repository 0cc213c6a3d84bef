package content

import "errors"

type Kind string

const (
	KindQuiz     Kind = "quiz"
	KindResource Kind = "resource"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

var (
	// ErrNotVisible doubles as "not found" toward students so forbidden
	// items cannot be enumerated.
	ErrNotVisible = errors.New("content not visible")
	// ErrContentNotActive is surfaced to teachers/admins only; students
	// always get ErrNotVisible instead.
	ErrContentNotActive = errors.New("content not active")

	ErrNotFound = errors.New("content not found")
)

type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`        // at least 2
	CorrectOption int      `json:"correct_option"` // index into Options
}

// Item is a quiz or resource. AssignedTo empty means "not individually
// targeted": visibility falls back to the creator's class. A non-empty set
// narrows visibility to exactly its members, never widens it.
type Item struct {
	ID        string   `json:"id"`
	Kind      Kind     `json:"kind"`
	Title     string   `json:"title"`
	CreatorID string   `json:"creator_id"`
	Status    Status   `json:"status"`
	AssignedTo []string `json:"assigned_to,omitempty"`
	CreatedAt int64    `json:"created_at,omitempty"`

	// Quiz-only fields; zero for resources.
	Questions           []Question `json:"questions,omitempty"`
	TimeLimitSec        int        `json:"time_limit_sec,omitempty"`
	PassingScorePercent int        `json:"passing_score_percent,omitempty"`
	MaxAttempts         int        `json:"max_attempts,omitempty"`
}

func (it Item) IsQuiz() bool { return it.Kind == KindQuiz }

// AssignedToContains reports explicit targeting of a student.
func (it Item) AssignedToContains(studentID string) bool {
	for _, id := range it.AssignedTo {
		if id == studentID {
			return true
		}
	}
	return false
}

// StudentQuestion is the answer-key-free view served to students.
type StudentQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// StudentView strips answer keys (and targeting) from an item.
func (it Item) StudentView() Item {
	out := it
	out.AssignedTo = nil
	out.Questions = nil
	return out
}

// StudentQuestions returns the questions without correct indices.
func (it Item) StudentQuestions() []StudentQuestion {
	qs := make([]StudentQuestion, len(it.Questions))
	for i, q := range it.Questions {
		qs[i] = StudentQuestion{Text: q.Text, Options: q.Options}
	}
	return qs
}

// ValidTransition enforces draft -> active -> archived.
func ValidTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusActive
	case StatusActive:
		return to == StatusArchived
	}
	return false
}

// Validate checks structural invariants on create.
func (it Item) Validate() error {
	if it.Title == "" {
		return errors.New("title required")
	}
	switch it.Kind {
	case KindResource:
		return nil
	case KindQuiz:
	default:
		return errors.New("unknown content kind")
	}
	if len(it.Questions) == 0 {
		return errors.New("quiz needs at least one question")
	}
	for _, q := range it.Questions {
		if len(q.Options) < 2 {
			return errors.New("question needs at least two options")
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return errors.New("correct option out of range")
		}
	}
	if it.PassingScorePercent < 0 || it.PassingScorePercent > 100 {
		return errors.New("passing score must be 0-100")
	}
	if it.MaxAttempts < 1 {
		return errors.New("max attempts must be >= 1")
	}
	return nil
}
