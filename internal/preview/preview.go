// Package preview renders bounded HTML previews of text files: Markdown through
// Goldmark, everything else through Chroma syntax highlighting.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/CageChen/fsclass/internal/classify"
	"github.com/CageChen/fsclass/internal/fs"
)

// DefaultMaxBytes bounds how much of a file is previewed.
const DefaultMaxBytes = 256 << 10

const style = "monokai"

var (
	// ErrNotText is returned for files whose category is not TEXT.
	ErrNotText = errors.New("not a text file")
	// ErrIsDirectory is returned when asked to preview a directory.
	ErrIsDirectory = errors.New("is a directory")
)

// Format names how a preview was rendered.
type Format string

// Preview formats.
const (
	FormatMarkdown Format = "markdown"
	FormatCode     Format = "code"
)

// TOCItem represents a table of contents entry
type TOCItem struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Result is a rendered preview.
type Result struct {
	Path      string    `json:"path"`
	Format    Format    `json:"format"`
	Language  string    `json:"language,omitempty"`
	Title     string    `json:"title,omitempty"`
	HTML      string    `json:"html"`
	TOC       []TOCItem `json:"toc,omitempty"`
	Truncated bool      `json:"truncated"`
}

// Renderer previews files from one FileSystem.
type Renderer struct {
	fsys     fs.FileSystem
	resolver *classify.Resolver
	maxBytes int64
	md       goldmark.Markdown
}

// NewRenderer creates a Renderer. maxBytes <= 0 selects DefaultMaxBytes.
func NewRenderer(fsys fs.FileSystem, resolver *classify.Resolver, maxBytes int64) *Renderer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)
	return &Renderer{fsys: fsys, resolver: resolver, maxBytes: maxBytes, md: md}
}

// Render previews the file at p.
func (r *Renderer) Render(p string) (*Result, error) {
	info, err := r.fsys.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir {
		return nil, ErrIsDirectory
	}
	if c := r.resolver.Category(p); c != classify.Text {
		return nil, fmt.Errorf("%w: category %s", ErrNotText, c)
	}

	src, truncated, err := r.readHead(p)
	if err != nil {
		return nil, err
	}

	name := path.Base(strings.ReplaceAll(p, "\\", "/"))
	var res *Result
	if isMarkdown(name) {
		res, err = r.renderMarkdown(src)
	} else {
		res, err = renderCode(name, src)
	}
	if err != nil {
		return nil, err
	}
	res.Path = p
	res.Truncated = truncated
	return res, nil
}

func (r *Renderer) readHead(p string) ([]byte, bool, error) {
	f, err := r.fsys.Open(p)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	src, err := io.ReadAll(io.LimitReader(f, r.maxBytes+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(src)) > r.maxBytes {
		return src[:r.maxBytes], true, nil
	}
	return src, false, nil
}

func isMarkdown(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".md" || ext == ".markdown"
}

// renderMarkdown parses once and reuses the AST for both HTML and the TOC.
func (r *Renderer) renderMarkdown(src []byte) (*Result, error) {
	doc := r.md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, err
	}

	toc := headings(doc, src)
	res := &Result{Format: FormatMarkdown, Language: "Markdown", HTML: buf.String(), TOC: toc}
	if len(toc) > 0 {
		res.Title = toc[0].Title
	}
	return res, nil
}

func headings(doc ast.Node, src []byte) []TOCItem {
	var toc []TOCItem
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		heading, ok := n.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		item := TOCItem{Level: heading.Level, Title: plainText(heading, src)}
		if id, ok := heading.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				item.Anchor = string(b)
			}
		}
		toc = append(toc, item)
		return ast.WalkSkipChildren, nil
	})
	return toc
}

// plainText concatenates the text segments below n, including those nested in emphasis or links.
func plainText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func renderCode(name string, src []byte) (*Result, error) {
	lexer := lexers.Match(name)
	language := ""
	if lexer == nil {
		lexer = lexers.Fallback
	} else {
		language = lexer.Config().Name
	}

	it, err := chroma.Coalesce(lexer).Tokenise(nil, string(src))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.Format(&buf, styles.Get(style), it); err != nil {
		return nil, err
	}
	return &Result{Format: FormatCode, Language: language, HTML: buf.String()}, nil
}

// DetectLanguage returns the name of the Chroma lexer matching a file name, or "".
func DetectLanguage(name string) string {
	if lexer := lexers.Match(name); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
