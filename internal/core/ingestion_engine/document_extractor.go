package ingestion_engine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"code.sajari.com/docconv"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/treeline-ai/ragsync/internal/core"
	"github.com/treeline-ai/ragsync/internal/models"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor extracts page-level text from PDF files. pdfcpu validates
// the file and reports the page count; docconv (pdftotext underneath) yields
// the text with form feeds between pages.
type DocconvExtractor struct{}

func NewDocconvExtractor() *DocconvExtractor {
	return &DocconvExtractor{}
}

func (e *DocconvExtractor) ExtractPages(ctx context.Context, path string) ([]models.PageText, error) {
	totalPages, err := pdfapi.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf %q: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	res, err := docconv.Convert(f, "application/pdf", false)
	if err != nil {
		return nil, fmt.Errorf("extract text from %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return splitPages(res.Body, totalPages), nil
}

// splitPages cuts the converter output at form feeds, one per page boundary.
// Blank pages keep their position in the numbering but produce no item.
func splitPages(body string, totalPages int) []models.PageText {
	pages := strings.Split(body, "\f")
	out := make([]models.PageText, 0, len(pages))
	for i, text := range pages {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, models.PageText{
			Text:       text,
			PageNumber: i + 1,
			TotalPages: totalPages,
		})
	}
	return out
}
