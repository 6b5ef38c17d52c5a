package app

import (
	"fmt"
	"sync"

	"smartquiz/internal/domain"
)

// Session is the ephemeral per-user record of an in-progress quiz attempt.
// Every read-modify-write step goes through a method holding the session's
// own lock, so events for one user never interleave mid-mutation; the store
// level lock only covers map bookkeeping.
type Session struct {
	chatID int64

	mu             sync.Mutex
	subjectID      int64
	sections       map[string][]int64
	currentSection string
	questionIndex  int
	correct        int
	wrong          int
	active         bool
}

func NewSession(chatID int64) *Session {
	return &Session{chatID: chatID, sections: make(map[string][]int64)}
}

func (s *Session) ChatID() int64 { return s.chatID }

// Active reports whether a section run is in progress.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetSubject stores the chosen subject and its partitioned sections. Allowed
// only before a section run starts.
func (s *Session) SetSubject(subjectID int64, sections map[string][]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return domain.ErrSessionActive
	}
	s.subjectID = subjectID
	s.sections = sections
	return nil
}

// Labels returns the session's section labels in presentation order.
func (s *Session) Labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SectionLabels(s.sections)
}

// Begin activates a section run at question 0 with zeroed counters. It
// refuses a second activation (duplicate callback delivery) and unknown
// labels, both without touching existing state.
func (s *Session) Begin(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return domain.ErrSessionActive
	}
	if _, ok := s.sections[label]; !ok {
		return domain.ErrSectionNotFound
	}
	s.currentSection = label
	s.questionIndex = 0
	s.correct = 0
	s.wrong = 0
	s.active = true
	return nil
}

// CurrentQuestion returns the id to dispatch next and its 0-based index.
// While the session is active the index is always in range; finalization
// happens inside ApplyAnswer before the out-of-range index becomes visible.
func (s *Session) CurrentQuestion() (int64, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0, 0, domain.ErrSessionNotFound
	}
	ids := s.sections[s.currentSection]
	return ids[s.questionIndex], s.questionIndex, nil
}

// ApplyAnswer scores one answer and advances the index. When the section is
// exhausted the session deactivates in the same step and done is true; the
// returned summary is a consistent snapshot either way.
func (s *Session) ApplyAnswer(correct bool) (bool, Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false, Summary{}, domain.ErrSessionNotFound
	}
	if correct {
		s.correct++
	} else {
		s.wrong++
	}
	s.questionIndex++
	if s.questionIndex >= len(s.sections[s.currentSection]) {
		s.active = false
		return true, s.summaryLocked(), nil
	}
	return false, s.summaryLocked(), nil
}

// Finish deactivates the session early and returns the counters so far.
func (s *Session) Finish() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	return s.summaryLocked()
}

func (s *Session) summaryLocked() Summary {
	return Summary{
		SubjectID: s.subjectID,
		Section:   s.currentSection,
		Correct:   s.correct,
		Wrong:     s.wrong,
	}
}

// Summary is a consistent snapshot of a session's counters.
type Summary struct {
	SubjectID int64
	Section   string
	Correct   int
	Wrong     int
}

func (sum Summary) Total() int { return sum.Correct + sum.Wrong }

// Percentage formats the correct share as e.g. "66.7%", or "0.0%" for an
// empty run.
func (sum Summary) Percentage() string {
	total := sum.Total()
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(sum.Correct)/float64(total)*100)
}
