package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"smartquiz/internal/domain"
)

const documentEntry = "word/document.xml"

// ExtractParagraphs opens a .docx container and returns the text of its
// paragraphs as trimmed, non-empty lines. Container-level failures are fatal
// format errors; the caller has already checked the magic bytes, so anything
// failing here is a corrupt or mislabeled file.
func ExtractParagraphs(blob []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, &domain.InvalidFormatError{Reasons: []string{
			"the container cannot be opened: " + err.Error(),
			"re-save the document as .docx and upload it again",
		}}
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == documentEntry {
			entry = f
			break
		}
	}
	if entry == nil {
		return nil, &domain.InvalidFormatError{Reasons: []string{
			"the container has no " + documentEntry + " entry",
			"only Word (.docx) documents are supported",
		}}
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", documentEntry, err)
	}
	defer rc.Close()

	return readParagraphs(rc)
}

// readParagraphs walks the WordprocessingML stream, concatenating the <w:t>
// runs of each <w:p> paragraph.
func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		lines  []string
		para   strings.Builder
		inPara bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", documentEntry, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				para.Reset()
			case "t":
				if !inPara {
					continue
				}
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return nil, fmt.Errorf("decode text run: %w", err)
				}
				para.WriteString(text)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inPara {
				if line := strings.TrimSpace(para.String()); line != "" {
					lines = append(lines, line)
				}
				inPara = false
			}
		}
	}
	return lines, nil
}
