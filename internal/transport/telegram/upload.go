package telegram

import "sync"

type conversationStep int

const (
	stepIdle conversationStep = iota
	stepAwaitingDocument
	stepAwaitingSubject
	stepAwaitingResultCount
)

type pendingUpload struct {
	step     conversationStep
	filename string
	blob     []byte
}

// conversationTracker holds the per-chat state of multi-step commands: the
// /create upload flow (document, then subject name) and the /result count
// prompt.
type conversationTracker struct {
	mu      sync.Mutex
	pending map[int64]*pendingUpload
}

func newConversationTracker() *conversationTracker {
	return &conversationTracker{pending: make(map[int64]*pendingUpload)}
}

func (t *conversationTracker) beginUpload(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[chatID] = &pendingUpload{step: stepAwaitingDocument}
}

func (t *conversationTracker) awaitResultCount(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[chatID] = &pendingUpload{step: stepAwaitingResultCount}
}

func (t *conversationTracker) step(chatID int64) conversationStep {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.pending[chatID]; ok {
		return p.step
	}
	return stepIdle
}

// attachDocument stores the downloaded file and advances to the subject-name
// prompt. It reports false when no upload was started for the chat.
func (t *conversationTracker) attachDocument(chatID int64, filename string, blob []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[chatID]
	if !ok || p.step != stepAwaitingDocument {
		return false
	}
	p.filename = filename
	p.blob = blob
	p.step = stepAwaitingSubject
	return true
}

// takeDocument pops the stored file once the subject name arrives.
func (t *conversationTracker) takeDocument(chatID int64) (string, []byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[chatID]
	if !ok || p.step != stepAwaitingSubject {
		return "", nil, false
	}
	delete(t.pending, chatID)
	return p.filename, p.blob, true
}

func (t *conversationTracker) clear(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, chatID)
}
