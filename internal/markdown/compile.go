// Package markdown compiles markdown documents into render-ready HTML
// with frontmatter metadata and a table of contents.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// TOCEntry is one heading in the table of contents.
type TOCEntry struct {
	Title string `json:"title"`
	ID    string `json:"id"`
	Depth int    `json:"depth"`
}

// Compiled is the result of compiling one document.
type Compiled struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	HTML        string         `json:"html"`
	TOC         []TOCEntry     `json:"toc,omitempty"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// parserInstance is initialized once and reused. The parser configuration
// never changes and the goldmark Markdown is safe to share; parsing
// creates per-call state via Parse(reader).
var (
	parserInstance goldmark.Markdown
	parserOnce     sync.Once
)

func getParser() goldmark.Markdown {
	parserOnce.Do(func() {
		parserInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
			),
		)
	})
	return parserInstance
}

var frontmatterPattern = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---\r?\n`)

// SplitFrontmatter separates a leading YAML frontmatter block from the
// document body. Documents without frontmatter return a nil map.
func SplitFrontmatter(source string) (map[string]any, string, error) {
	m := frontmatterPattern.FindStringSubmatch(source)
	if m == nil {
		return nil, source, nil
	}

	var data map[string]any
	if err := yaml.Unmarshal([]byte(m[1]), &data); err != nil {
		return nil, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	return data, source[len(m[0]):], nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9 -]`)

// HeadingID derives a URL-safe anchor from a heading title.
func HeadingID(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

// Compile parses frontmatter, renders the body to HTML, and collects the
// table of contents from the heading structure.
func Compile(path, source string) (*Compiled, error) {
	fm, body, err := SplitFrontmatter(source)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}

	md := getParser()
	src := []byte(body)
	doc := md.Parser().Parse(text.NewReader(src))

	var toc []TOCEntry
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			title := headingText(h, src)
			toc = append(toc, TOCEntry{
				Title: title,
				ID:    HeadingID(title),
				Depth: h.Level,
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}

	out := &Compiled{
		HTML:        buf.String(),
		TOC:         toc,
		Frontmatter: fm,
	}
	if v, ok := fm["title"].(string); ok {
		out.Title = v
	}
	if v, ok := fm["description"].(string); ok {
		out.Description = v
	}
	return out, nil
}

func headingText(h *ast.Heading, src []byte) string {
	var sb strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		collectText(c, src, &sb)
	}
	return sb.String()
}

func collectText(n ast.Node, src []byte, sb *strings.Builder) {
	if t, ok := n.(*ast.Text); ok {
		sb.Write(t.Segment.Value(src))
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		collectText(c, src, sb)
	}
}
