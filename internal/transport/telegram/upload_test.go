package telegram

import "testing"

func TestConversationUploadFlow(t *testing.T) {
	tr := newConversationTracker()
	const chat = int64(1)

	if tr.step(chat) != stepIdle {
		t.Fatal("fresh chat should be idle")
	}
	if tr.attachDocument(chat, "a.docx", []byte("x")) {
		t.Fatal("attach without /create should be refused")
	}

	tr.beginUpload(chat)
	if tr.step(chat) != stepAwaitingDocument {
		t.Fatal("beginUpload should await a document")
	}
	if _, _, ok := tr.takeDocument(chat); ok {
		t.Fatal("takeDocument before the file arrives should miss")
	}

	if !tr.attachDocument(chat, "a.docx", []byte("blob")) {
		t.Fatal("attach after /create should succeed")
	}
	if tr.step(chat) != stepAwaitingSubject {
		t.Fatal("attached document should await the subject name")
	}

	name, blob, ok := tr.takeDocument(chat)
	if !ok || name != "a.docx" || string(blob) != "blob" {
		t.Fatalf("takeDocument = (%q, %q, %v)", name, blob, ok)
	}
	if tr.step(chat) != stepIdle {
		t.Fatal("takeDocument should end the conversation")
	}
}

func TestConversationClear(t *testing.T) {
	tr := newConversationTracker()
	tr.beginUpload(2)
	tr.awaitResultCount(3)

	tr.clear(2)
	if tr.step(2) != stepIdle {
		t.Fatal("clear should reset the chat")
	}
	if tr.step(3) != stepAwaitingResultCount {
		t.Fatal("clear must not touch other chats")
	}
}
