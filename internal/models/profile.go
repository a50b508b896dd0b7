package models

import (
	"slices"
	"sync"
)

// OutcomeCorrect is the only outcome that marks a topic as completed
const OutcomeCorrect = "correct"

// Profile is a learner's record of completed and struggling topics.
// Both lists are insertion-ordered sets and are safe for concurrent use.
type Profile struct {
	UserID string

	mu               sync.RWMutex
	completedQuizzes []string
	strugglingTopics []string
}

// NewProfile returns an empty profile for userID
func NewProfile(userID string) *Profile {
	return &Profile{
		UserID:           userID,
		completedQuizzes: []string{},
		strugglingTopics: []string{},
	}
}

// Record files topic under completed when outcome is "correct", otherwise under struggling.
// It reports whether the topic was newly added.
func (p *Profile) Record(topic, outcome string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	target := &p.strugglingTopics
	if outcome == OutcomeCorrect {
		target = &p.completedQuizzes
	}
	if slices.Contains(*target, topic) {
		return false
	}
	*target = append(*target, topic)
	return true
}

// Snapshot copies the current lists
func (p *Profile) Snapshot() ProfileSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ProfileSnapshot{
		CompletedQuizzes: slices.Clone(p.completedQuizzes),
		StrugglingTopics: slices.Clone(p.strugglingTopics),
	}
}

// ProfileSnapshot is the immutable, serialisable view of a profile
type ProfileSnapshot struct {
	CompletedQuizzes []string `json:"completed_quizzes"`
	StrugglingTopics []string `json:"struggling_topics"`
}

// EmptyProfileSnapshot is what callers see when a profile cannot be read
func EmptyProfileSnapshot() ProfileSnapshot {
	return ProfileSnapshot{CompletedQuizzes: []string{}, StrugglingTopics: []string{}}
}

// HasCompleted reports whether topic is in the completed list
func (s ProfileSnapshot) HasCompleted(topic string) bool {
	return slices.Contains(s.CompletedQuizzes, topic)
}
