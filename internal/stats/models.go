package stats

// QuizStats holds the incrementally-maintained aggregates for one quiz.
// TotalAttempts counts completed and abandoned attempts; AverageScore runs
// over completed attempts only.
type QuizStats struct {
	QuizID            string  `json:"quiz_id"`
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	PassedAttempts    int     `json:"passed_attempts"`
	AverageScore      float64 `json:"average_score"`
	StudentsAttempted int     `json:"students_attempted"`
}

// ClassStats mirrors QuizStats per class, fed by completions of quizzes
// owned by the class's teacher.
type ClassStats struct {
	ClassID           string  `json:"class_id"`
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	PassedAttempts    int     `json:"passed_attempts"`
	AverageScore      float64 `json:"average_score"`
}

// QuizStatsView adds the query-time completion rate. The denominator counts
// in-progress attempts too, which change independently of completions, so
// the rate is recomputed on read rather than cached.
type QuizStatsView struct {
	QuizStats
	CompletionRate float64 `json:"completion_rate"`
}

type ClassStatsView struct {
	ClassStats
	CompletionRate float64 `json:"completion_rate"`
}
