// Package ingest turns caller input (plain text, HTML pages or articles, in
// UTF-8 or the GB encodings) into the normalised text the classifier reads.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Format selects how input is interpreted.
type Format string

const (
	FormatAuto    Format = ""
	FormatText    Format = "text"
	FormatHTML    Format = "html"
	FormatArticle Format = "article"
)

// DefaultMaxBytes caps how much input Read consumes.
const DefaultMaxBytes = 10 << 20

var ErrUnknownEncoding = errors.New("ingest: unknown encoding")

// Options configure Read. The zero value sniffs the format and decodes
// UTF-8, falling back to GB18030 for invalid UTF-8.
type Options struct {
	Format   Format
	Encoding string
	// URL resolves relative links for article extraction.
	URL      string
	MaxBytes int64
}

// Document is ingested input.
type Document struct {
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
	Format Format `json:"format"`
}

// Read decodes and extracts text from r.
func Read(r io.Reader, opts Options) (Document, error) {
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	raw, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return Document{}, fmt.Errorf("read input: %w", err)
	}
	text, err := Decode(raw, opts.Encoding)
	if err != nil {
		return Document{}, err
	}

	format := opts.Format
	if format == FormatAuto {
		format = Sniff(text)
	}
	switch format {
	case FormatText:
		return Document{Text: Normalize(text), Format: FormatText}, nil
	case FormatHTML:
		return FromHTML(text)
	case FormatArticle:
		return FromArticle(text, opts.URL)
	}
	return Document{}, fmt.Errorf("ingest: unknown format %q", format)
}

// Decode converts raw bytes in the named encoding to UTF-8. An empty name
// keeps valid UTF-8 and decodes anything else as GB18030.
func Decode(raw []byte, name string) (string, error) {
	var enc encoding.Encoding
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "":
		if utf8.Valid(raw) {
			return string(raw), nil
		}
		enc = simplifiedchinese.GB18030
	case "utf-8", "utf8":
		return string(bytes.ToValidUTF8(raw, []byte("�"))), nil
	case "gbk", "cp936":
		enc = simplifiedchinese.GBK
	case "gb18030":
		enc = simplifiedchinese.GB18030
	case "hz-gb-2312", "hz-gb2312":
		enc = simplifiedchinese.HZGB2312
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}

// Sniff guesses whether text is HTML.
func Sniff(text string) Format {
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") ||
		(strings.HasPrefix(head, "<") && strings.Contains(head, "</")) {
		return FormatHTML
	}
	return FormatText
}

// blockSelector lists the elements whose text becomes one line each.
const blockSelector = "h1,h2,h3,h4,h5,h6,p,li,blockquote,pre,td,th,figcaption"

// FromHTML extracts the visible text of an HTML page, one line per block
// element. Scripts, styles and navigation are dropped.
func FromHTML(html string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script,style,noscript,template,nav,footer,header nav").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	var lines []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are visited on their own.
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		if line := collapse(s.Text()); line != "" {
			lines = append(lines, line)
		}
	})
	if len(lines) == 0 {
		lines = append(lines, collapse(doc.Find("body").Text()))
	}
	return Document{
		Title:  collapse(title),
		Text:   Normalize(strings.Join(lines, "\n")),
		Format: FormatHTML,
	}, nil
}

// FromArticle runs readability over html to keep only the main article,
// then extracts its text. Pages readability cannot handle fall back to
// FromHTML.
func FromArticle(html, rawURL string) (Document, error) {
	if rawURL == "" {
		rawURL = "http://localhost/"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Document{}, fmt.Errorf("parse url: %w", err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), u)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		doc, ferr := FromHTML(html)
		doc.Format = FormatArticle
		return doc, ferr
	}

	doc, err := FromHTML(article.Content)
	if err != nil {
		return Document{}, err
	}
	if t := collapse(article.Title); t != "" {
		doc.Title = t
	}
	doc.Format = FormatArticle
	return doc, nil
}

// Normalize trims every line, collapses runs of spaces and drops blank
// lines.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = collapse(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
