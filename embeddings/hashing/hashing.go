// Package hashing provides an offline embedder based on feature hashing.
// Texts sharing words land close together, which is enough for local
// retrieval demos and deterministic tests; it carries no semantics.
package hashing

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/sevigo/docchain/embeddings"
)

const DefaultDimension = 256

var ErrInvalidDimension = errors.New("hashing: dimension must be positive")

type Embedder struct {
	dimension int
}

var _ embeddings.Embedder = (*Embedder)(nil)

func New(dimension int) (*Embedder, error) {
	if dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	return &Embedder{dimension: dimension}, nil
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *Embedder) GetDimension(context.Context) (int, error) {
	return e.dimension, nil
}

func (e *Embedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, token := range Tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		idx := int(sum % uint64(e.dimension))
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// Tokenize case-folds text and splits it into runs of letters and digits.
func Tokenize(text string) []string {
	folded := cases.Fold().String(text)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
