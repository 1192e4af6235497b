package documentloaders

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sevigo/docchain/schema"
)

// Web fetches an HTML page and keeps the visible text of the selected
// elements, one line per text run.
type Web struct {
	url    string
	opts   options
	logger *slog.Logger
}

var _ Loader = (*Web)(nil)

func NewWeb(url string, opts ...Option) *Web {
	o := applyOptions(opts...)
	return &Web{
		url:    url,
		opts:   o,
		logger: o.logger.With("component", "web_loader"),
	}
}

func (l *Web) Load(ctx context.Context) ([]schema.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", l.url, err)
	}
	if l.opts.userAgent != "" {
		req.Header.Set("User-Agent", l.opts.userAgent)
	}

	resp, err := l.opts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", l.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", l.url, resp.Status)
	}

	title, content, err := extractHTML(resp.Body, l.opts.selector)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", l.url, err)
	}

	l.logger.DebugContext(ctx, "Page loaded", "url", l.url, "title", title, "length", len(content))
	return []schema.Document{schema.NewDocument(content, map[string]any{
		"source":       l.url,
		"title":        title,
		"content_type": resp.Header.Get("Content-Type"),
	})}, nil
}

// HTML reads a local HTML file and extracts its visible text the same way
// Web does.
type HTML struct {
	path   string
	opts   options
	logger *slog.Logger
}

var _ Loader = (*HTML)(nil)

func NewHTML(path string, opts ...Option) *HTML {
	o := applyOptions(opts...)
	return &HTML{
		path:   path,
		opts:   o,
		logger: o.logger.With("component", "html_loader"),
	}
}

func (l *HTML) Load(ctx context.Context) ([]schema.Document, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", l.path, err)
	}
	defer f.Close()

	title, content, err := extractHTML(f, l.opts.selector)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", l.path, err)
	}

	l.logger.DebugContext(ctx, "HTML file loaded", "path", l.path, "title", title, "length", len(content))
	return []schema.Document{schema.NewDocument(content, map[string]any{
		"source": l.path,
		"title":  title,
	})}, nil
}

// extractHTML returns the page title and the visible text of the elements
// matching selector. Script, style and template contents are dropped.
func extractHTML(r io.Reader, selector string) (title, content string, err error) {
	page, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(page.Find("title").First().Text())
	page.Find("script, style, noscript, template").Remove()

	var lines []string
	page.Find(selector).Each(func(_ int, s *goquery.Selection) {
		lines = collectText(s, lines)
	})
	return title, strings.Join(lines, "\n"), nil
}

// collectText appends one whitespace-normalized line per non-blank text node
// below s.
func collectText(s *goquery.Selection, lines []string) []string {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			if line := strings.Join(strings.Fields(c.Text()), " "); line != "" {
				lines = append(lines, line)
			}
			return
		}
		lines = collectText(c, lines)
	})
	return lines
}
