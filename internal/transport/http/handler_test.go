package http

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"smartquiz/internal/app"
	"smartquiz/internal/domain"
	"smartquiz/internal/infra/memory"
	"smartquiz/internal/ingest"
)

func buildDocx(t *testing.T, lines []string) []byte {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, line := range lines {
		body.WriteString("<w:p><w:r><w:t>")
		xmlEscape(&body, line)
		body.WriteString("</w:t></w:r></w:p>")
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	w.Write([]byte(body.String()))
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func xmlEscape(b *strings.Builder, s string) {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	b.WriteString(r.Replace(s))
}

func newTestServer(t *testing.T) (*httptest.Server, *app.ResultsFeed, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	feed := app.NewResultsFeed()
	svc := ingest.NewService(store, ingest.NewParser(4))

	mux := http.NewServeMux()
	NewHandler(svc, feed).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, feed, store
}

func multipartUpload(t *testing.T, url, filename string, blob []byte, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(blob)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	resp, err := http.Post(url+"/v1/quiz/upload-document", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post upload: %v", err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	server, _, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}

func TestUploadDocument(t *testing.T) {
	server, _, store := newTestServer(t)
	blob := buildDocx(t, []string{
		"1. What is the capital of France?",
		"#Paris", "London", "Berlin", "Rome",
		"2. Broken question?",
		"#only", "two",
	})

	resp := multipartUpload(t, server.URL, "geo.docx", blob, map[string]string{
		"subject":  "Geography",
		"subDesc":  "capitals",
		"chatId":   "42",
		"userName": "alice",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.BatchID == "" || out.Subject != "Geography" || out.Created != 1 {
		t.Fatalf("unexpected response %+v", out)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "Broken question?") {
		t.Fatalf("expected the skipped-question warning, got %v", out.Warnings)
	}

	subjects, _ := store.SubjectsByChat(context.Background(), 42)
	if len(subjects) != 1 {
		t.Fatalf("expected the uploader subscribed, got %v", subjects)
	}
}

func TestUploadRejectsBadFormat(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp := multipartUpload(t, server.URL, "notes.txt", []byte("plain text"), map[string]string{
		"subject": "X",
		"chatId":  "1",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad upload status = %d, want 400", resp.StatusCode)
	}
	var out errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(out.Message, "invalid document format") {
		t.Fatalf("error message = %q", out.Message)
	}
}

func TestUploadRequiresPost(t *testing.T) {
	server, _, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/v1/quiz/upload-document")
	if err != nil {
		t.Fatalf("get upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestResultsFeedWebsocket(t *testing.T) {
	server, feed, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/results"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	// let the subscriber register before publishing
	time.Sleep(50 * time.Millisecond)
	feed.Publish(domain.StatsRecord{SubjectName: "Geography", Section: "Section 1", Correct: 2, Wrong: 1, Total: 3, Percentage: "66.7%"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event resultEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read ws event: %v", err)
	}
	if event.Type != "result" || event.Payload.SubjectName != "Geography" || event.Payload.Percentage != "66.7%" {
		t.Fatalf("unexpected event %+v", event)
	}
}
