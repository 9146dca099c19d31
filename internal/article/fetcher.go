package article

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrEmpty is returned when a source holds no readable text
var ErrEmpty = errors.New("article has no readable text")

// maxBodySize caps how much of a remote page is read
const maxBodySize = 8 << 20

// Article is the readable content of one source
type Article struct {
	Source string
	Title  string
	Text   string // paragraphs separated by blank lines
}

// Fetcher loads articles from URLs, local files or stdin
type Fetcher struct {
	client    *http.Client
	stdin     io.Reader
	userAgent string
}

// NewFetcher creates a fetcher with a default HTTP client
func NewFetcher() *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		stdin:     os.Stdin,
		userAgent: "readaloud/1.0",
	}
}

// SetHTTPClient replaces the client used for URLs
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.client = client
}

// SetStdin replaces the reader used for the "-" source
func (f *Fetcher) SetStdin(r io.Reader) {
	f.stdin = r
}

// Fetch loads source. "-" reads stdin, http(s) URLs are downloaded, and
// anything else is treated as a local file path.
func (f *Fetcher) Fetch(ctx context.Context, source string) (*Article, error) {
	var (
		art *Article
		err error
	)

	switch {
	case source == "-":
		art, err = f.fetchReader(f.stdin, false)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		art, err = f.fetchURL(ctx, source)
	default:
		art, err = f.fetchFile(source)
	}
	if err != nil {
		return nil, err
	}

	art.Source = source
	if strings.TrimSpace(art.Text) == "" {
		return nil, fmt.Errorf("%s: %w", source, ErrEmpty)
	}
	return art, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) (*Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html, text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch article: HTTP %d", resp.StatusCode)
	}

	isHTML := !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain")
	return f.fetchReader(io.LimitReader(resp.Body, maxBodySize), isHTML)
}

func (f *Fetcher) fetchFile(path string) (*Article, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open article: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(path))
	return f.fetchReader(file, ext == ".html" || ext == ".htm")
}

func (f *Fetcher) fetchReader(r io.Reader, isHTML bool) (*Article, error) {
	if isHTML {
		return ExtractHTML(r)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read article: %w", err)
	}
	return &Article{Text: string(data)}, nil
}

// blockAtoms are the elements whose text becomes a paragraph
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Li: true,
	atom.Blockquote: true, atom.Pre: true,
}

// skipAtoms are never read aloud
var skipAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Nav: true,
	atom.Header: true, atom.Footer: true, atom.Aside: true, atom.Form: true,
	atom.Template: true, atom.Svg: true,
}

// ExtractHTML returns the title and paragraph text of an HTML document
func ExtractHTML(r io.Reader) (*Article, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	art := &Article{}
	var paragraphs []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case skipAtoms[n.DataAtom]:
				return
			case n.DataAtom == atom.Title:
				if art.Title == "" {
					art.Title = collapse(textOf(n))
				}
				return
			case blockAtoms[n.DataAtom] && !hasBlockChild(n):
				if text := collapse(textOf(n)); text != "" {
					paragraphs = append(paragraphs, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	art.Text = strings.Join(paragraphs, "\n\n")
	return art, nil
}

// hasBlockChild reports whether a nested element would be its own
// paragraph, like a <p> inside a <blockquote>
func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (blockAtoms[c.DataAtom] || hasBlockChild(c)) {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && skipAtoms[n.DataAtom]:
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
