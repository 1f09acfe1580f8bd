package ondevice

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"unicode"
)

// BuiltinPrefix selects the in-process feature hashing model, e.g. "hash-384".
const BuiltinPrefix = "hash-"

const bigramWeight = 0.5

// HashLoader loads the feature hashing model. It needs no files and always loads.
type HashLoader struct{}

// Load implements Loader.
func (HashLoader) Load(_ context.Context, model string) (Pipeline, error) {
	dim, err := parseHashDim(model)
	if err != nil {
		return nil, err
	}
	return &hashPipeline{dim: dim}, nil
}

func parseHashDim(model string) (int, error) {
	raw, ok := strings.CutPrefix(model, BuiltinPrefix)
	if !ok {
		return 0, fmt.Errorf("model %q is not a builtin model", model)
	}
	dim, err := strconv.Atoi(raw)
	if err != nil || dim < 8 || dim > 4096 {
		return 0, fmt.Errorf("model %q: dimension must be between 8 and 4096", model)
	}
	return dim, nil
}

// hashPipeline hashes unigrams and bigrams into signed buckets, one row per token.
type hashPipeline struct {
	dim int
}

func (p *hashPipeline) Run(ctx context.Context, text string) (Tensor, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Tensor{}, fmt.Errorf("no tokens in input")
	}

	data := make([]float32, len(tokens)*p.dim)
	for i, tok := range tokens {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return Tensor{}, fmt.Errorf("hash pipeline: %w", err)
			}
		}
		row := data[i*p.dim : (i+1)*p.dim]
		p.add(row, tok, 1)
		if i > 0 {
			p.add(row, tokens[i-1]+" "+tok, bigramWeight)
		}
	}
	return Tensor{Data: data, Shape: []int{len(tokens), p.dim}}, nil
}

func (p *hashPipeline) add(row []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(p.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	row[bucket] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
