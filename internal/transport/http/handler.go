package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"smartquiz/internal/app"
	"smartquiz/internal/domain"
	"smartquiz/internal/ingest"
)

const maxUploadBytes = 20 << 20

// Handler exposes the HTTP surface: health, document upload and the live
// results websocket feed.
type Handler struct {
	ingest   *ingest.Service
	feed     *app.ResultsFeed
	upgrader websocket.Upgrader
}

func NewHandler(ingestSvc *ingest.Service, feed *app.ResultsFeed) *Handler {
	return &Handler{
		ingest: ingestSvc,
		feed:   feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/v1/quiz/upload-document", h.handleUpload)
	mux.HandleFunc("/ws/results", h.handleResultsFeed)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

type uploadResponse struct {
	BatchID  string   `json:"batchId"`
	Subject  string   `json:"subject"`
	Created  int      `json:"created"`
	Warnings []string `json:"warnings,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// handleUpload accepts a multipart .docx upload and runs the ingestion
// pipeline. Format problems come back as 400 with the reason list.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "missing file field"})
		return
	}
	defer file.Close()

	blob, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "unreadable file"})
		return
	}

	subject := r.FormValue("subject")
	if subject == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "missing subject field"})
		return
	}
	var chatID int64
	if _, err := fmt.Sscanf(r.FormValue("chatId"), "%d", &chatID); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid chatId field"})
		return
	}

	report, err := h.ingest.ProcessUpload(r.Context(), header.Filename, blob,
		subject, r.FormValue("subDesc"), chatID, r.FormValue("userName"))
	if err != nil {
		if domain.IsInvalidFormat(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
			return
		}
		log.Printf("upload %s failed: %v", report.BatchID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "upload failed"})
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		BatchID:  report.BatchID,
		Subject:  report.Subject.Name,
		Created:  report.Created,
		Warnings: report.Warnings,
	})
}

type resultEvent struct {
	Type    string             `json:"type"`
	Payload domain.StatsRecord `json:"payload"`
}

// handleResultsFeed streams finalized quiz results to websocket subscribers.
func (h *Handler) handleResultsFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	records, cancel := h.feed.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return
			}
			if err := conn.WriteJSON(resultEvent{Type: "result", Payload: rec}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
