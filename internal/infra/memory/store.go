package memory

import (
	"context"
	"sort"
	"sync"

	"smartquiz/internal/domain"
)

// Store is a map-backed implementation of every persistence interface the
// service needs (ingest store, question/subject sources, user and stats
// stores). It backs tests and lets the bot run without Postgres.
type Store struct {
	mu            sync.RWMutex
	nextID        int64
	subjects      map[int64]domain.Subject
	subjectByName map[string]int64
	users         map[int64]domain.User // keyed by chat id
	subscriptions map[int64]map[int64]struct{}
	questions     map[int64]domain.Question
	questionIDs   map[int64][]int64 // subject id → ordered question ids
	stats         []domain.StatsRecord
}

func NewStore() *Store {
	return &Store{
		subjects:      make(map[int64]domain.Subject),
		subjectByName: make(map[string]int64),
		users:         make(map[int64]domain.User),
		subscriptions: make(map[int64]map[int64]struct{}),
		questions:     make(map[int64]domain.Question),
		questionIDs:   make(map[int64][]int64),
	}
}

func (s *Store) nextIDLocked() int64 {
	s.nextID++
	return s.nextID
}

// EnsureSubject reuses an existing subject by name or creates it, and links
// the uploader either way.
func (s *Store) EnsureSubject(_ context.Context, name, description string, chatID int64, userName string) (domain.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.subjectByName[name]
	if !ok {
		id = s.nextIDLocked()
		s.subjects[id] = domain.Subject{ID: id, Name: name, Description: description, OwnerChatID: chatID}
		s.subjectByName[name] = id
	}
	s.ensureSubscriptionLocked(chatID, userName, id)
	return s.subjects[id], nil
}

func (s *Store) ensureSubscriptionLocked(chatID int64, userName string, subjectID int64) {
	if _, ok := s.users[chatID]; !ok {
		s.users[chatID] = domain.User{ID: s.nextIDLocked(), ChatID: chatID, UserName: userName}
	}
	subs, ok := s.subscriptions[chatID]
	if !ok {
		subs = make(map[int64]struct{})
		s.subscriptions[chatID] = subs
	}
	subs[subjectID] = struct{}{}
}

func (s *Store) EnsureSubscription(_ context.Context, chatID int64, userName string, subjectID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureSubscriptionLocked(chatID, userName, subjectID)
	return nil
}

// InsertQuestion stores the question and its options in the given order.
func (s *Store) InsertQuestion(_ context.Context, q domain.Question) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q.ID = s.nextIDLocked()
	opts := make([]domain.Option, len(q.Options))
	for i, opt := range q.Options {
		opt.ID = s.nextIDLocked()
		opts[i] = opt
	}
	q.Options = opts
	s.questions[q.ID] = q
	s.questionIDs[q.SubjectID] = append(s.questionIDs[q.SubjectID], q.ID)
	return q.ID, nil
}

func (s *Store) Question(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *Store) QuestionIDsBySubject(_ context.Context, subjectID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.questionIDs[subjectID]
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}

func (s *Store) Subject(_ context.Context, id int64) (domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subjects[id]
	if !ok {
		return domain.Subject{}, domain.ErrSubjectNotFound
	}
	return subject, nil
}

// SubjectsByChat lists the subjects the chat is subscribed to, in stable id
// order.
func (s *Store) SubjectsByChat(_ context.Context, chatID int64) ([]domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := s.subscriptions[chatID]
	out := make([]domain.Subject, 0, len(subs))
	for id := range subs {
		out = append(out, s.subjects[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) InsertStats(_ context.Context, rec domain.StatsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextIDLocked()
	s.stats = append(s.stats, rec)
	return nil
}

func (s *Store) StatsByUser(_ context.Context, userID int64) ([]domain.StatsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.StatsRecord
	for _, rec := range s.stats {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}
