package extraction

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contactEmailPattern is the single canonical pattern for contact emails.
var contactEmailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// ExtractContactEmail returns the first email address in text, or "".
// It may match an address that is not meant as a contact.
func ExtractContactEmail(text string) string {
	return contactEmailPattern.FindString(text)
}

// blockElements end a line when rendered to text.
const blockElements = "p, div, li, br, h1, h2, h3, h4, h5, h6, tr, section, article, ul, ol"

// HTMLToText renders a description fragment to plain text, one block per
// line, with scripts and styles removed and whitespace collapsed.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, button, svg").Remove()

	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	// mailto links often hide the address behind a label
	doc.Find("a[href^='mailto:']").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if addr != "" && !strings.Contains(s.Text(), addr) {
			s.AppendHtml(" &lt;" + addr + "&gt;")
		}
	})

	return cleanWhitespace(doc.Find("body").Text()), nil
}

// cleanWhitespace collapses runs of spaces and drops blank lines.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
