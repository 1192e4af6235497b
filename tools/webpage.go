package tools

import (
	"context"
	"strings"

	"github.com/sevigo/docchain/documentloaders"
)

const DefaultMaxPageChars = 4000

// WebPage fetches a URL with the web loader and returns its text, cut to
// MaxChars code points.
type WebPage struct {
	MaxChars int
	Options  []documentloaders.Option
}

var _ Tool = WebPage{}

func (WebPage) Name() string { return "web_page" }

func (WebPage) Description() string {
	return "Fetches a web page and returns its text. Input is an absolute http or https URL."
}

func (t WebPage) Call(ctx context.Context, input string) (string, error) {
	url := strings.TrimSpace(input)
	if url == "" {
		return "", ErrEmptyInput
	}

	docs, err := documentloaders.NewWeb(url, t.Options...).Load(ctx)
	if err != nil {
		return "", err
	}

	limit := t.MaxChars
	if limit <= 0 {
		limit = DefaultMaxPageChars
	}
	text := []rune(docs[0].PageContent)
	if len(text) > limit {
		return string(text[:limit]) + "...", nil
	}
	return string(text), nil
}
