package attachment

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	readability "github.com/go-shiori/go-readability"
	pdf "github.com/ledongthuc/pdf"
)

// Kind is the extractor family selected for a MIME type.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindWord Kind = "word"
	KindHTML Kind = "html"
	KindText Kind = "text"
)

// Label is the human readable type written into the formatted block.
func (k Kind) Label() string {
	switch k {
	case KindPDF:
		return "PDF"
	case KindWord:
		return "Word Document"
	case KindHTML:
		return "HTML Document"
	default:
		return "Text File"
	}
}

func (k Kind) emptyPlaceholder() string {
	switch k {
	case KindPDF:
		return "[No text content found in PDF - document may be image-based or encrypted]"
	case KindWord:
		return "[No text content found in Word document]"
	default:
		return "[No text content found in file]"
	}
}

// Classify maps a declared MIME type to an extractor family by substring,
// checked in a fixed order.
func Classify(mime string) (Kind, error) {
	m := strings.ToLower(strings.TrimSpace(mime))
	switch {
	case strings.Contains(m, "pdf"):
		return KindPDF, nil
	case strings.Contains(m, "word"), strings.Contains(m, "document"), strings.Contains(m, "officedocument"):
		return KindWord, nil
	case strings.Contains(m, "html"):
		return KindHTML, nil
	case strings.Contains(m, "text"), strings.Contains(m, "plain"):
		return KindText, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAttachmentType, m)
	}
}

type extractFunc func(name string, data []byte) (string, error)

func defaultExtractors() map[Kind]extractFunc {
	return map[Kind]extractFunc{
		KindPDF:  extractPDF,
		KindWord: extractWord,
		KindHTML: extractHTML,
		KindText: extractText,
	}
}

func extractPDF(_ string, data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return collapseWhitespace(string(b)), nil
}

// extractWord reads the <w:t> runs of word/document.xml, one line per paragraph.
func extractWord(_ string, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("word archive: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("word archive has no word/document.xml")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var out, para strings.Builder
	inRun := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "r":
				inRun = true
			case "t":
				var v string
				if err := dec.DecodeElement(&v, &se); err == nil {
					para.WriteString(v)
				}
			case "tab":
				// w:tab outside a run is a tab-stop definition in w:tabs.
				if inRun {
					para.WriteString("\t")
				}
			case "br":
				para.WriteString("\n")
			}
		case xml.EndElement:
			if se.Name.Local == "r" {
				inRun = false
			}
			if se.Name.Local == "p" {
				out.WriteString(strings.TrimRight(para.String(), " \t"))
				out.WriteString("\n")
				para.Reset()
			}
		}
	}
	out.WriteString(para.String())
	return strings.TrimSpace(out.String()), nil
}

// extractHTML keeps the readable article of the page as markdown, falling
// back to converting the whole page.
func extractHTML(name string, data []byte) (string, error) {
	page := &url.URL{Scheme: "file", Path: "/" + name}
	if article, err := readability.FromReader(bytes.NewReader(data), page); err == nil && strings.TrimSpace(article.Content) != "" {
		if md, err := htmltomarkdown.ConvertString(article.Content); err == nil && strings.TrimSpace(md) != "" {
			return strings.TrimSpace(md), nil
		}
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text, nil
		}
	}
	md, err := htmltomarkdown.ConvertString(string(data))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func extractText(_ string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}
	return string(data), nil
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
