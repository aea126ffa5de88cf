// Package extract pulls plain text out of source documents. PDF is the
// primary format; TXT and DOCX are supported for convenience.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
)

// ErrNoText is returned when a document parses but yields no extractable
// text. Ingestion treats this as a failure rather than storing nothing.
var ErrNoText = errors.New("document contains no extractable text")

// Text extracts the full plain text of the document at path, dispatching
// on file extension.
func Text(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return pdfText(path)
	case ".docx":
		return docxText(path)
	case ".txt":
		return txtText(path)
	default:
		return "", fmt.Errorf("unsupported file format: %s", ext)
	}
}

// pdfText concatenates the plain text of every page, separated by blank
// lines. Pages that fail to decode are skipped with a warning so one bad
// page does not sink an otherwise readable document.
func pdfText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", fmt.Errorf("failed to read PDF %s: %w", path, err)
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Str("file", path).Msg("skipping unreadable page")
			continue
		}
		if content != "" {
			text.WriteString(content)
			text.WriteString("\n\n")
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		return "", ErrNoText
	}
	return text.String(), nil
}

func docxText(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX %s: %w", path, err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	if strings.TrimSpace(content) == "" {
		return "", ErrNoText
	}
	return content, nil
}

func txtText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", ErrNoText
	}
	return string(data), nil
}
