package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"smartquiz/internal/domain"
)

const (
	defaultSectionSize = 50
	// maxOptionRunes caps option text in polls; the transport rejects longer
	// entries.
	maxOptionRunes = 100

	subjectCallbackPrefix = "subject_"
	shareCallbackPrefix   = "share_subject_"
	sectionCallbackPrefix = "section_"
)

// SessionStore is the concurrent user→session mapping. Per-user mutation
// atomicity lives on the Session itself; the store only inserts, looks up and
// removes.
type SessionStore interface {
	Get(chatID int64) (*Session, bool)
	Put(chatID int64, s *Session)
	Delete(chatID int64) (*Session, bool)
}

// QuestionSource resolves questions and subject pools, usually through a
// cache in front of the storage layer.
type QuestionSource interface {
	Question(ctx context.Context, id int64) (domain.Question, error)
	QuestionIDsBySubject(ctx context.Context, subjectID int64) ([]int64, error)
}

// SubjectSource resolves subjects and a user's subject list.
type SubjectSource interface {
	Subject(ctx context.Context, id int64) (domain.Subject, error)
	SubjectsByChat(ctx context.Context, chatID int64) ([]domain.Subject, error)
}

// UserStore adds users and their subject memberships idempotently.
type UserStore interface {
	EnsureSubscription(ctx context.Context, chatID int64, userName string, subjectID int64) error
}

// StatsStore persists and lists finalized session results.
type StatsStore interface {
	InsertStats(ctx context.Context, rec domain.StatsRecord) error
	StatsByUser(ctx context.Context, userID int64) ([]domain.StatsRecord, error)
}

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Sessions    SessionStore
	Questions   QuestionSource
	Subjects    SubjectSource
	Users       UserStore
	Stats       StatsStore
	Feed        *ResultsFeed
	SectionSize int
	BotName     string
}

// Engine is the per-user quiz state machine. It consumes chat events, keeps
// all mutable state in the session store, and emits transport-neutral
// payloads. Guard violations (duplicate start, stale section, unknown
// subject) come back as user-visible messages and never corrupt state.
type Engine struct {
	sessions    SessionStore
	questions   QuestionSource
	subjects    SubjectSource
	users       UserStore
	stats       StatsStore
	feed        *ResultsFeed
	sectionSize int
	botName     string
	now         func() time.Time
}

func NewEngine(cfg EngineConfig) *Engine {
	size := cfg.SectionSize
	if size <= 0 {
		size = defaultSectionSize
	}
	return &Engine{
		sessions:    cfg.Sessions,
		questions:   cfg.Questions,
		subjects:    cfg.Subjects,
		users:       cfg.Users,
		stats:       cfg.Stats,
		feed:        cfg.Feed,
		sectionSize: size,
		botName:     cfg.BotName,
		now:         time.Now,
	}
}

// StartQuiz opens a fresh session and presents the user's subjects. A second
// start while a run is active is refused without touching the existing
// session.
func (e *Engine) StartQuiz(ctx context.Context, chatID int64) ([]domain.Outbound, error) {
	if s, ok := e.sessions.Get(chatID); ok && s.Active() {
		return reply(chatID, "❌ You are already in a quiz! Finish it or use /stop first."), nil
	}
	e.sessions.Put(chatID, NewSession(chatID))
	return e.showSubjects(ctx, chatID)
}

func (e *Engine) showSubjects(ctx context.Context, chatID int64) ([]domain.Outbound, error) {
	subjects, err := e.subjects.SubjectsByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list subjects for chat %d: %w", chatID, err)
	}
	if len(subjects) == 0 {
		return reply(chatID, "📚 You have no quiz subjects yet! Use /create to upload a .docx with questions."), nil
	}

	buttons := make([][]domain.Button, 0, len(subjects))
	for _, subject := range subjects {
		buttons = append(buttons, []domain.Button{
			{Label: subject.Name, Data: subjectCallbackPrefix + strconv.FormatInt(subject.ID, 10)},
			{Label: "📤 Share", Data: shareCallbackPrefix + strconv.FormatInt(subject.ID, 10)},
		})
	}
	return []domain.Outbound{domain.InlineKeyboard{
		ChatID:  chatID,
		Text:    "📚 Choose a subject:",
		Buttons: buttons,
	}}, nil
}

// HandleCallback dispatches inline keyboard presses. Everything is refused
// while a section run is active so duplicate or stale callbacks cannot
// disturb it.
func (e *Engine) HandleCallback(ctx context.Context, chatID int64, data string) ([]domain.Outbound, error) {
	if s, ok := e.sessions.Get(chatID); ok && s.Active() {
		return reply(chatID, "❌ You are already in a quiz! Finish it or use /stop first."), nil
	}

	switch {
	case strings.HasPrefix(data, shareCallbackPrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, shareCallbackPrefix), 10, 64)
		if err != nil {
			return reply(chatID, "❌ Broken share button."), nil
		}
		return e.ShareSubject(ctx, chatID, id)
	case strings.HasPrefix(data, subjectCallbackPrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, subjectCallbackPrefix), 10, 64)
		if err != nil {
			return reply(chatID, "❌ Broken subject button."), nil
		}
		return e.ChooseSubject(ctx, chatID, id)
	case strings.HasPrefix(data, sectionCallbackPrefix):
		return e.ChooseSection(ctx, chatID, strings.TrimPrefix(data, sectionCallbackPrefix))
	}
	return reply(chatID, "❌ Unknown action."), nil
}

// ChooseSubject partitions the subject's pool into sections and presents the
// labels. An empty subject is reported without changing the session, so the
// user can pick another one.
func (e *Engine) ChooseSubject(ctx context.Context, chatID, subjectID int64) ([]domain.Outbound, error) {
	s, ok := e.sessions.Get(chatID)
	if !ok {
		return reply(chatID, "❌ No quiz in progress. Send /quiz to start."), nil
	}

	ids, err := e.questions.QuestionIDsBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load question ids for subject %d: %w", subjectID, err)
	}
	if len(ids) == 0 {
		return reply(chatID, "❌ This subject has no questions!"), nil
	}

	if err := s.SetSubject(subjectID, PartitionSections(ids, e.sectionSize)); err != nil {
		return reply(chatID, "❌ You are already in a quiz! Finish it or use /stop first."), nil
	}

	buttons := make([][]domain.Button, 0)
	for _, label := range s.Labels() {
		buttons = append(buttons, []domain.Button{{Label: label, Data: sectionCallbackPrefix + label}})
	}
	return []domain.Outbound{domain.InlineKeyboard{
		ChatID:  chatID,
		Text:    "📚 Choose a section:",
		Buttons: buttons,
	}}, nil
}

// ChooseSection activates a section run and emits its first question.
func (e *Engine) ChooseSection(ctx context.Context, chatID int64, label string) ([]domain.Outbound, error) {
	s, ok := e.sessions.Get(chatID)
	if !ok {
		return reply(chatID, "❌ No quiz in progress. Send /quiz to start."), nil
	}
	if err := s.Begin(label); err != nil {
		if errors.Is(err, domain.ErrSessionActive) {
			return reply(chatID, "❌ You are already in a quiz! Finish it or use /stop first."), nil
		}
		return reply(chatID, "❌ No such section!"), nil
	}
	return e.questionPoll(ctx, s)
}

// questionPoll builds the quiz poll for the session's current question.
func (e *Engine) questionPoll(ctx context.Context, s *Session) ([]domain.Outbound, error) {
	qid, idx, err := s.CurrentQuestion()
	if err != nil {
		return nil, err
	}
	q, err := e.questions.Question(ctx, qid)
	if err != nil {
		return nil, fmt.Errorf("load question %d: %w", qid, err)
	}

	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		options[i] = truncateOption(opt.Text)
	}
	return []domain.Outbound{domain.QuestionPoll{
		ChatID:       s.ChatID(),
		Question:     fmt.Sprintf("%d. %s", idx+1, q.Text),
		Options:      options,
		CorrectIndex: correctOptionIndex(q),
	}}, nil
}

// RecordAnswer scores a poll answer, then either emits the next question or
// finalizes the run when the section is exhausted.
func (e *Engine) RecordAnswer(ctx context.Context, userID int64, selected int) ([]domain.Outbound, error) {
	s, ok := e.sessions.Get(userID)
	if !ok || !s.Active() {
		return reply(userID, "❌ No active quiz! Use /quiz to start one."), nil
	}

	qid, _, err := s.CurrentQuestion()
	if err != nil {
		return reply(userID, "❌ No active quiz! Use /quiz to start one."), nil
	}
	q, err := e.questions.Question(ctx, qid)
	if err != nil {
		return nil, fmt.Errorf("load question %d: %w", qid, err)
	}

	done, sum, err := s.ApplyAnswer(selected == correctOptionIndex(q))
	if err != nil {
		return reply(userID, "❌ No active quiz! Use /quiz to start one."), nil
	}
	if !done {
		return e.questionPoll(ctx, s)
	}
	return e.finalize(ctx, userID, sum), nil
}

// Stop finalizes the current run early with the counters so far.
func (e *Engine) Stop(ctx context.Context, chatID int64) ([]domain.Outbound, error) {
	s, ok := e.sessions.Get(chatID)
	if !ok || !s.Active() {
		return reply(chatID, "❌ No active quiz right now! Use /quiz to start one."), nil
	}
	return e.finalize(ctx, chatID, s.Finish()), nil
}

// finalize persists the stats snapshot, publishes it to the results feed and
// removes the session. A storage failure is logged but never blocks cleanup.
func (e *Engine) finalize(ctx context.Context, chatID int64, sum Summary) []domain.Outbound {
	subjectName := ""
	if subject, err := e.subjects.Subject(ctx, sum.SubjectID); err == nil {
		subjectName = subject.Name
	} else {
		log.Printf("resolve subject %d for stats: %v", sum.SubjectID, err)
	}

	rec := domain.StatsRecord{
		UserID:      chatID,
		SubjectID:   sum.SubjectID,
		SubjectName: subjectName,
		Section:     sum.Section,
		Total:       int64(sum.Total()),
		Correct:     int64(sum.Correct),
		Wrong:       int64(sum.Wrong),
		Percentage:  sum.Percentage(),
		CreatedAt:   e.now(),
	}
	if err := e.stats.InsertStats(ctx, rec); err != nil {
		log.Printf("save stats for chat %d: %v", chatID, err)
	}
	if e.feed != nil {
		e.feed.Publish(rec)
	}
	e.sessions.Delete(chatID)

	return []domain.Outbound{domain.Message{
		ChatID:      chatID,
		Text:        FormatSessionStats(sum),
		ReplyButton: "/quiz",
	}}
}

// Exit drops any session for the user unconditionally.
func (e *Engine) Exit(chatID int64) []domain.Outbound {
	s, ok := e.sessions.Delete(chatID)
	if ok && s.Active() {
		return reply(chatID, "👋 Quiz stopped. Use /quiz to start again.")
	}
	return reply(chatID, "👋 You left the bot. Send /start to come back.")
}

// ShareSubject composes a deep link inviting others into a subject.
func (e *Engine) ShareSubject(ctx context.Context, chatID, subjectID int64) ([]domain.Outbound, error) {
	subject, err := e.subjects.Subject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, domain.ErrSubjectNotFound) {
			return reply(chatID, "❌ Subject not found."), nil
		}
		return nil, fmt.Errorf("load subject %d: %w", subjectID, err)
	}
	link := fmt.Sprintf("https://t.me/%s?start=%s%d", e.botName, subjectCallbackPrefix, subjectID)
	return reply(chatID, fmt.Sprintf(
		"📢 Invite your friends to a %s quiz!\nSend them this link:\n%s\n\nThey can try the test too!",
		subject.Name, link)), nil
}

// ShareBot composes a plain bot invite link.
func (e *Engine) ShareBot(chatID int64) []domain.Outbound {
	link := fmt.Sprintf("https://t.me/%s?start=%d", e.botName, chatID)
	return reply(chatID, fmt.Sprintf(
		"📢 Invite your friends to the quiz!\nSend them this link:\n%s\n\nThey can try your tests too!", link))
}

// HandleInvite bootstraps a deep-link recipient: idempotent membership in the
// shared subject, a fresh session, and the subject's section list.
func (e *Engine) HandleInvite(ctx context.Context, chatID int64, param, userName string) ([]domain.Outbound, error) {
	if !strings.HasPrefix(param, subjectCallbackPrefix) {
		return reply(chatID, "❌ Invalid invite link!"), nil
	}
	subjectID, err := strconv.ParseInt(strings.TrimPrefix(param, subjectCallbackPrefix), 10, 64)
	if err != nil {
		return reply(chatID, "❌ Invalid invite link!"), nil
	}

	subject, err := e.subjects.Subject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, domain.ErrSubjectNotFound) {
			return reply(chatID, "❌ Invalid invite link!"), nil
		}
		return nil, fmt.Errorf("load subject %d: %w", subjectID, err)
	}
	if err := e.users.EnsureSubscription(ctx, chatID, userName, subjectID); err != nil {
		return nil, fmt.Errorf("subscribe chat %d to subject %d: %w", chatID, subjectID, err)
	}

	e.sessions.Put(chatID, NewSession(chatID))
	out := reply(chatID, fmt.Sprintf("👋 Welcome to the %s quiz!", subject.Name))
	more, err := e.ChooseSubject(ctx, chatID, subjectID)
	if err != nil {
		return nil, err
	}
	return append(out, more...), nil
}

// RecentResults reports the user's latest persisted results.
func (e *Engine) RecentResults(ctx context.Context, chatID int64, limit int) ([]domain.Outbound, error) {
	records, err := e.stats.StatsByUser(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load stats for chat %d: %w", chatID, err)
	}
	return reply(chatID, FormatResults(records, limit)), nil
}

// FormatHelp is the /start onboarding message describing the upload format.
func (e *Engine) FormatHelp(chatID int64) []domain.Outbound {
	return reply(chatID, "📚 Welcome to the quiz bot!\n\n"+
		"🤖 Upload a Word (.docx) file and the bot turns it into a quiz, one question at a time.\n\n"+
		"📌 A question is a line like:\n"+
		"  1. The smallest bird in the world?\n\n"+
		"✅ Options follow on their own lines; prefix the single correct one with #:\n"+
		"  #Hummingbird\n  Crow\n  Sparrow\n  Eagle\n\n"+
		"📥 Send /create, upload your .docx, and the bot builds the test.\n"+
		"▶️ Send /quiz to play, /result to see your scores.")
}

func correctOptionIndex(q domain.Question) int {
	for i, opt := range q.Options {
		if opt.Correct {
			return i
		}
	}
	return -1
}

func truncateOption(text string) string {
	runes := []rune(text)
	if len(runes) <= maxOptionRunes {
		return text
	}
	return string(runes[:maxOptionRunes-3]) + "..."
}

func reply(chatID int64, text string) []domain.Outbound {
	return []domain.Outbound{domain.Message{ChatID: chatID, Text: text}}
}
