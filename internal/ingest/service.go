package ingest

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/google/uuid"

	"smartquiz/internal/domain"
)

// Store persists parsed questions and bootstraps the owning subject and
// uploader. EnsureSubject is idempotent: an existing subject with the same
// name is reused and the uploader's membership added if missing.
// InsertQuestion must attach the question and all of its options atomically.
type Store interface {
	EnsureSubject(ctx context.Context, name, description string, chatID int64, userName string) (domain.Subject, error)
	InsertQuestion(ctx context.Context, q domain.Question) (int64, error)
}

// Extractor yields the text paragraphs of a document container.
type Extractor func(blob []byte) ([]string, error)

// Report summarizes one processed upload.
type Report struct {
	BatchID  string
	Subject  domain.Subject
	Created  int
	Warnings []string
}

// Service runs the document ingestion pipeline: format validation, paragraph
// extraction, heuristic parsing, subject/user bootstrap and persistence with
// option order shuffled once at save time.
type Service struct {
	store   Store
	parser  *Parser
	extract Extractor
}

func NewService(store Store, parser *Parser) *Service {
	return &Service{store: store, parser: parser, extract: ExtractParagraphs}
}

// NewServiceWithExtractor swaps the container decoder, for tests and for
// transports that deliver pre-extracted paragraphs.
func NewServiceWithExtractor(store Store, parser *Parser, extract Extractor) *Service {
	return &Service{store: store, parser: parser, extract: extract}
}

// ProcessUpload ingests one uploaded document into the named subject. Fatal
// format problems reject the whole upload; per-question problems come back as
// warnings while the valid subset is persisted.
func (s *Service) ProcessUpload(ctx context.Context, filename string, blob []byte, subjectName, subjectDesc string, chatID int64, userName string) (Report, error) {
	report := Report{BatchID: uuid.NewString()}

	if err := ValidateUpload(filename, blob); err != nil {
		return report, err
	}

	lines, err := s.extract(blob)
	if err != nil {
		return report, err
	}

	result, err := s.parser.Parse(lines)
	if err != nil {
		return report, err
	}
	report.Warnings = result.Warnings

	subject, err := s.store.EnsureSubject(ctx, subjectName, subjectDesc, chatID, userName)
	if err != nil {
		return report, fmt.Errorf("ensure subject %q: %w", subjectName, err)
	}
	report.Subject = subject

	for _, draft := range result.Questions {
		q := domain.Question{
			SubjectID: subject.ID,
			Text:      draft.Text,
			Options:   shuffledOptions(draft.Options),
		}
		if _, err := s.store.InsertQuestion(ctx, q); err != nil {
			return report, fmt.Errorf("save question %q: %w", draft.Text, err)
		}
		report.Created++
	}

	log.Printf("ingest %s: subject %q, %d questions saved, %d warnings",
		report.BatchID, subject.Name, report.Created, len(report.Warnings))
	return report, nil
}

// shuffledOptions fixes the display order with a uniform permutation. The
// correct flag travels with its option, so shuffling never changes which
// answer scores.
func shuffledOptions(drafts []domain.OptionDraft) []domain.Option {
	opts := make([]domain.Option, len(drafts))
	for i, d := range drafts {
		opts[i] = domain.Option{Text: d.Text, Correct: d.Correct}
	}
	rand.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
	return opts
}
