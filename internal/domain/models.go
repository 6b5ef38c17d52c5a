package domain

import "time"

// Subject is a named collection of questions a user can quiz on or invite
// others into. Created lazily the first time an upload names it.
type Subject struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerChatID int64  `json:"ownerChatId"`
}

// User is a chat identity plus its subject subscriptions.
type User struct {
	ID       int64  `json:"id"`
	ChatID   int64  `json:"chatId"`
	UserName string `json:"userName"`
}

// Option is a possible answer. Exactly one option per question carries the
// correct flag; the flag travels with the option when the order is shuffled.
type Option struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is an MCQ question owned by one subject. Options holds the display
// order, fixed once at persist time.
type Question struct {
	ID        int64    `json:"id"`
	SubjectID int64    `json:"subjectId"`
	Text      string   `json:"text"`
	Options   []Option `json:"options"`
}

// OptionDraft is a parsed option before persistence.
type OptionDraft struct {
	Text    string
	Correct bool
}

// QuestionDraft is a parsed question before persistence.
type QuestionDraft struct {
	Text    string
	Options []OptionDraft
}

// ParseResult carries parsed drafts together with the non-fatal warnings
// collected along the way. Both can be non-empty at once: the valid subset is
// persisted and the warnings are surfaced to the uploader.
type ParseResult struct {
	Questions []QuestionDraft
	Warnings  []string
}

// StatsRecord is the immutable projection of one completed quiz session.
type StatsRecord struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	SubjectID   int64     `json:"subjectId"`
	SubjectName string    `json:"subjectName"`
	Section     string    `json:"section"`
	Total       int64     `json:"total"`
	Correct     int64     `json:"correct"`
	Wrong       int64     `json:"wrong"`
	Percentage  string    `json:"percentage"`
	CreatedAt   time.Time `json:"createdAt"`
}
