package domain

// Outbound is a transport-neutral chat payload produced by the quiz engine.
// The telegram transport renders these into concrete API calls; tests assert
// on them directly.
type Outbound interface {
	outbound()
}

// Message is a plain text reply, optionally with a one-button reply keyboard.
type Message struct {
	ChatID      int64
	Text        string
	ReplyButton string
}

// QuestionPoll is a single-correct-answer quiz poll.
type QuestionPoll struct {
	ChatID       int64
	Question     string
	Options      []string
	CorrectIndex int
}

// Button is one inline keyboard button.
type Button struct {
	Label string
	Data  string
}

// InlineKeyboard is a message with rows of callback buttons.
type InlineKeyboard struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
}

func (Message) outbound()        {}
func (QuestionPoll) outbound()   {}
func (InlineKeyboard) outbound() {}
