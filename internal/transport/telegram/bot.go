package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smartquiz/internal/app"
	"smartquiz/internal/domain"
	"smartquiz/internal/ingest"
)

const updateTimeoutSeconds = 30

// NewAPI authorizes against the Bot API. The engine needs the resolved bot
// username for share links, so this runs before the engine is built.
func NewAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	api.Debug = debug
	log.Printf("authorized on account %s", api.Self.UserName)
	return api, nil
}

// Bot runs the long-poll update loop and translates Telegram updates into
// engine and ingest calls.
type Bot struct {
	api           *tgbotapi.BotAPI
	engine        *app.Engine
	ingest        *ingest.Service
	conversations *conversationTracker
	client        *http.Client
}

func NewBot(api *tgbotapi.BotAPI, engine *app.Engine, ingestSvc *ingest.Service) *Bot {
	return &Bot{
		api:           api,
		engine:        engine,
		ingest:        ingestSvc,
		conversations: newConversationTracker(),
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

// Run consumes updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.PollAnswer != nil:
		b.handlePollAnswer(ctx, update.PollAnswer)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handlePollAnswer(ctx context.Context, answer *tgbotapi.PollAnswer) {
	selected := -1
	if len(answer.OptionIDs) > 0 {
		selected = answer.OptionIDs[0]
	}
	out, err := b.engine.RecordAnswer(ctx, answer.User.ID, selected)
	if err != nil {
		log.Printf("record answer for user %d: %v", answer.User.ID, err)
		return
	}
	b.send(out)
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		log.Printf("answer callback: %v", err)
	}
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	out, err := b.engine.HandleCallback(ctx, chatID, callback.Data)
	if err != nil {
		log.Printf("handle callback %q for chat %d: %v", callback.Data, chatID, err)
		b.sendText(chatID, "❌ Something went wrong, try again.")
		return
	}
	b.send(out)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userName := ""
	if msg.From != nil {
		userName = msg.From.UserName
	}

	if msg.Document != nil {
		b.handleDocument(chatID, msg.Document)
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, chatID, userName)
		return
	}
	b.handleText(ctx, chatID, userName, msg.Text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, chatID int64, userName string) {
	// Commands cancel any half-finished /create or /result conversation.
	b.conversations.clear(chatID)

	var (
		out []domain.Outbound
		err error
	)
	switch msg.Command() {
	case "start":
		if param := strings.TrimSpace(msg.CommandArguments()); param != "" {
			out, err = b.engine.HandleInvite(ctx, chatID, param, userName)
		} else {
			out = b.engine.FormatHelp(chatID)
		}
	case "quiz":
		out, err = b.engine.StartQuiz(ctx, chatID)
	case "create":
		b.conversations.beginUpload(chatID)
		b.sendText(chatID, "📥 Send me a .docx file with your questions.")
		return
	case "stop":
		out, err = b.engine.Stop(ctx, chatID)
	case "exit":
		out = b.engine.Exit(chatID)
	case "share":
		out = b.engine.ShareBot(chatID)
	case "result":
		b.conversations.awaitResultCount(chatID)
		b.sendText(chatID, "🧮 How many recent results should I show?")
		return
	default:
		b.sendText(chatID, "❌ Unknown command. Send /start for help.")
		return
	}
	if err != nil {
		log.Printf("handle /%s for chat %d: %v", msg.Command(), chatID, err)
		b.sendText(chatID, "❌ Something went wrong, try again.")
		return
	}
	b.send(out)
}

// handleText resolves the pending step of a multi-step conversation; text
// outside a conversation gets the help pointer.
func (b *Bot) handleText(ctx context.Context, chatID int64, userName, text string) {
	text = strings.TrimSpace(text)
	switch b.conversations.step(chatID) {
	case stepAwaitingSubject:
		if text == "" {
			b.sendText(chatID, "✏️ Send me a name for the subject.")
			return
		}
		filename, blob, ok := b.conversations.takeDocument(chatID)
		if !ok {
			b.sendText(chatID, "📥 Send /create to start an upload.")
			return
		}
		b.processUpload(ctx, chatID, userName, filename, blob, text)
	case stepAwaitingResultCount:
		limit, err := strconv.Atoi(text)
		if err != nil || limit <= 0 {
			b.sendText(chatID, "🧮 Send a positive number, e.g. 5.")
			return
		}
		b.conversations.clear(chatID)
		out, err := b.engine.RecentResults(ctx, chatID, limit)
		if err != nil {
			log.Printf("load results for chat %d: %v", chatID, err)
			b.sendText(chatID, "❌ Something went wrong, try again.")
			return
		}
		b.send(out)
	case stepAwaitingDocument:
		b.sendText(chatID, "📥 I need a .docx file, not text.")
	default:
		b.sendText(chatID, "🤖 Send /start for help or /quiz to play.")
	}
}

func (b *Bot) handleDocument(chatID int64, doc *tgbotapi.Document) {
	if b.conversations.step(chatID) != stepAwaitingDocument {
		b.sendText(chatID, "📥 Send /create first, then upload the file.")
		return
	}
	blob, err := b.downloadDocument(doc.FileID)
	if err != nil {
		log.Printf("download document %s: %v", doc.FileID, err)
		b.sendText(chatID, "❌ Could not download the file, try again.")
		return
	}
	if !b.conversations.attachDocument(chatID, doc.FileName, blob) {
		b.sendText(chatID, "📥 Send /create to start an upload.")
		return
	}
	b.sendText(chatID, "✏️ Got it! Now send me a name for the subject.")
}

func (b *Bot) processUpload(ctx context.Context, chatID int64, userName, filename string, blob []byte, subjectName string) {
	report, err := b.ingest.ProcessUpload(ctx, filename, blob, subjectName, "", chatID, userName)
	if err != nil {
		if domain.IsInvalidFormat(err) {
			b.sendText(chatID, "❌ "+err.Error())
			return
		}
		log.Printf("process upload for chat %d: %v", chatID, err)
		b.sendText(chatID, "❌ Could not process the file, try again.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Subject %q is ready: %d questions saved.", report.Subject.Name, report.Created)
	if len(report.Warnings) > 0 {
		fmt.Fprintf(&sb, "\n\n⚠️ %d lines were skipped:", len(report.Warnings))
		for _, w := range report.Warnings {
			sb.WriteString("\n• ")
			sb.WriteString(w)
		}
	}
	sb.WriteString("\n\n▶️ Send /quiz to play.")
	b.sendText(chatID, sb.String())
}

func (b *Bot) downloadDocument(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	resp, err := b.client.Get(file.Link(b.api.Token))
	if err != nil {
		return nil, fmt.Errorf("fetch file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch file: status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}
