package ingestion

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UnsupportedFileError indicates an upload with a content type the
// pipeline cannot extract text from.
type UnsupportedFileError struct {
	ContentType string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported file type %q: upload plain text or HTML", e.ContentType)
}

// ExtractText converts an uploaded file body into raw problem text based
// on its content type. Plain text passes through; HTML exports are
// reduced to their visible text, one block element per line.
func ExtractText(contentType string, body []byte) (string, error) {
	switch {
	case contentType == "" || strings.HasPrefix(contentType, "text/plain"):
		return string(body), nil
	case strings.HasPrefix(contentType, "text/html"):
		return extractHTML(body)
	default:
		return "", &UnsupportedFileError{ContentType: contentType}
	}
}

// extractHTML pulls the visible text out of an HTML document. Lists and
// table rows become individual lines so the line parser sees one problem
// per line.
func extractHTML(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	var lines []string
	blocks := doc.Find("li, tr, p, h1, h2, h3, h4")
	if blocks.Length() > 0 {
		blocks.Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(blockText(sel))
			if text != "" {
				lines = append(lines, text)
			}
		})
		return strings.Join(lines, "\n"), nil
	}

	// No block structure; fall back to the document's full text.
	return strings.TrimSpace(doc.Find("body").Text()), nil
}

// blockText renders one block element as a single line. Table cells are
// joined with " - " so a row reads like a delimited problem line.
func blockText(sel *goquery.Selection) string {
	cells := sel.ChildrenFiltered("td, th")
	if cells.Length() == 0 {
		return sel.Text()
	}

	var parts []string
	cells.Each(func(_ int, cell *goquery.Selection) {
		if text := strings.TrimSpace(cell.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " - ")
}
