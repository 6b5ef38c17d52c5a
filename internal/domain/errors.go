package domain

import (
	"errors"
	"strings"
)

var (
	// ErrSessionNotFound is returned when a user acts without an open session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionActive is returned when a user tries to start or re-enter a
	// quiz while one is already running.
	ErrSessionActive = errors.New("quiz session already active")
	// ErrSubjectNotFound indicates the subject could not be loaded.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrNoQuestions indicates a subject has no questions to quiz on.
	ErrNoQuestions = errors.New("subject has no questions")
	// ErrSectionNotFound indicates a section label is not part of the session.
	ErrSectionNotFound = errors.New("section not found")
	// ErrQuestionNotFound indicates a question id could not be resolved.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrUserNotFound indicates the chat identity is unknown.
	ErrUserNotFound = errors.New("user not found")
)

// InvalidFormatError rejects a whole upload. Reasons enumerate the expected
// format, the offending filename and a remediation hint, and are surfaced
// verbatim to the uploader.
type InvalidFormatError struct {
	Reasons []string
}

func (e *InvalidFormatError) Error() string {
	return "invalid document format: " + strings.Join(e.Reasons, "; ")
}

// IsInvalidFormat reports whether err is a fatal upload rejection.
func IsInvalidFormat(err error) bool {
	var ife *InvalidFormatError
	return errors.As(err, &ife)
}
