package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"smartquiz/internal/domain"
)

const (
	docExtension = ".docx"
	// prescanWindow is how many leading lines are checked for at least one
	// question start before the main pass runs.
	prescanWindow = 5
	// defaultArity is the expected number of options per question.
	defaultArity = 4
)

// zipMagic is the 4-byte signature of the .docx (ZIP) container.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

var ordinalPrefix = regexp.MustCompile(`^\d+[.)]\s*`)

// ValidateUpload checks the declared filename and the leading bytes of the
// blob against the expected container format. It fails fast with an
// InvalidFormatError whose reasons are shown to the uploader verbatim.
func ValidateUpload(filename string, blob []byte) error {
	var reasons []string
	if !strings.EqualFold(filepath.Ext(filename), docExtension) {
		reasons = append(reasons, fmt.Sprintf("expected a %s document, got %q", docExtension, filename))
	}
	if len(blob) < len(zipMagic) || !bytes.Equal(blob[:len(zipMagic)], zipMagic) {
		reasons = append(reasons, fmt.Sprintf("file %q does not start with the %s container signature", filename, docExtension))
	}
	if len(reasons) > 0 {
		reasons = append(reasons, "re-export the questions as a Word (.docx) file and upload it again")
		return &domain.InvalidFormatError{Reasons: reasons}
	}
	return nil
}

// Parser turns trimmed document lines into question drafts under the
// heuristic line classification rules.
type Parser struct {
	arity int
}

// NewParser returns a parser that accepts questions with exactly arity
// options; non-positive arity falls back to the default of 4.
func NewParser(arity int) *Parser {
	if arity <= 0 {
		arity = defaultArity
	}
	return &Parser{arity: arity}
}

// Arity returns the expected option count per question.
func (p *Parser) Arity() int { return p.arity }

// Parse consumes document lines in order and produces question drafts plus
// non-fatal warnings. A file whose first lines contain no question start at
// all is rejected outright; a question with the wrong number of options, or
// without exactly one correct option, is skipped with a warning while the
// rest of the file is still used.
func (p *Parser) Parse(lines []string) (domain.ParseResult, error) {
	var res domain.ParseResult

	if !p.looksLikeQuizDocument(lines) {
		return res, &domain.InvalidFormatError{Reasons: []string{
			fmt.Sprintf("no question line found in the first %d paragraphs", prescanWindow),
			"questions must end with ?/:/!/... or start with a number or " + questionMarker,
			"see /start for the expected document format",
		}}
	}

	var current *domain.QuestionDraft
	closeCurrent := func() {
		if current == nil {
			return
		}
		switch correct := countCorrect(current.Options); {
		case len(current.Options) != p.arity:
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"question %q has %d options, expected %d; skipped",
				current.Text, len(current.Options), p.arity))
		case correct != 1:
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"question %q has %d options marked correct with %s, expected exactly 1; skipped",
				current.Text, correct, correctMarker))
		default:
			res.Questions = append(res.Questions, *current)
		}
		current = nil
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if IsQuestionStart(line) {
			closeCurrent()
			current = &domain.QuestionDraft{Text: stripQuestionPrefix(line)}
			continue
		}

		if current == nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("option %q appears before any question", line))
			continue
		}

		opt := domain.OptionDraft{Text: line}
		if strings.HasPrefix(line, correctMarker) {
			opt.Text = strings.TrimSpace(strings.TrimPrefix(line, correctMarker))
			opt.Correct = true
		}
		current.Options = append(current.Options, opt)
	}
	closeCurrent()

	return res, nil
}

func (p *Parser) looksLikeQuizDocument(lines []string) bool {
	window := prescanWindow
	if len(lines) < window {
		window = len(lines)
	}
	for _, line := range lines[:window] {
		if IsQuestionStart(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

func countCorrect(opts []domain.OptionDraft) int {
	n := 0
	for _, opt := range opts {
		if opt.Correct {
			n++
		}
	}
	return n
}

// stripQuestionPrefix removes the reserved marker or a manual ordinal like
// "12." from the start of a question line.
func stripQuestionPrefix(line string) string {
	s := strings.TrimSpace(strings.TrimPrefix(line, questionMarker))
	s = ordinalPrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
