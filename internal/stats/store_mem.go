package stats

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	quizzes map[string]QuizStats
	classes map[string]ClassStats
}

func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes: map[string]QuizStats{},
		classes: map[string]ClassStats{},
	}
}

func (m *memoryStore) GetQuiz(_ context.Context, quizID string) (QuizStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.quizzes[quizID]
	if !ok {
		return QuizStats{QuizID: quizID}, nil
	}
	return s, nil
}

func (m *memoryStore) PutQuiz(_ context.Context, s QuizStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[s.QuizID] = s
	return nil
}

func (m *memoryStore) GetClass(_ context.Context, classID string) (ClassStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.classes[classID]
	if !ok {
		return ClassStats{ClassID: classID}, nil
	}
	return s, nil
}

func (m *memoryStore) PutClass(_ context.Context, s ClassStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[s.ClassID] = s
	return nil
}
