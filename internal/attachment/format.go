package attachment

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	summaryMaxChars    = 200
	charsPerPage       = 3000
	summaryUnavailable = "No content available for summary"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// Result is the outcome of extracting one attachment.
type Result struct {
	Label     string
	Text      string
	Pages     int
	WordCount int
	Summary   string
}

func newResult(kind Kind, raw string) Result {
	text := strings.TrimSpace(raw)
	res := Result{
		Label:     kind.Label(),
		Text:      text,
		WordCount: len(strings.Fields(text)),
		Summary:   summarize(text),
	}
	if kind == KindPDF {
		res.Pages = estimatePages(text)
	}
	if res.Text == "" {
		res.Text = kind.emptyPlaceholder()
	}
	return res
}

// Format renders the block stored as the attachment's extracted text.
func (r Result) Format(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[File: %s]\n", name)
	fmt.Fprintf(&b, "Type: %s\n", r.Label)
	if r.Pages > 0 {
		fmt.Fprintf(&b, "Pages: %d\n", r.Pages)
	}
	if r.WordCount > 0 {
		fmt.Fprintf(&b, "Word Count: %d\n", r.WordCount)
	}
	if r.Summary != "" {
		fmt.Fprintf(&b, "\nSummary: %s\n", r.Summary)
	}
	b.WriteString("\nContent:\n")
	b.WriteString(r.Text)
	return b.String()
}

// summarize returns the first two sentences, or the leading characters when
// the text has two sentences or fewer.
func summarize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return summaryUnavailable
	}
	pieces := sentenceBoundary.Split(text, -1)
	sentences := make([]string, 0, 3)
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			sentences = append(sentences, p)
		}
	}
	if len(sentences) <= 2 {
		return truncateRunes(text, summaryMaxChars)
	}
	return strings.Join(sentences[:2], ". ") + "."
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func estimatePages(text string) int {
	pages := (len(text) + charsPerPage - 1) / charsPerPage
	if pages < 1 {
		return 1
	}
	return pages
}

// InlineError is the text stored in place of an attachment that failed extraction.
func InlineError(name string, err error) string {
	return fmt.Sprintf("[Error processing file %s: %v]", name, err)
}
