// Package features creates the auxiliary ("etc") per-token features of the tagger model input.
//
// Each feature Extractor is registered under a name, and the tagger configuration lists (see
// config.Config.EtcFeatures) which extractors are concatenated, in order, to build the features of
// each token.
//
// Padded positions of the model input have all-zero features, and the model derives the sentence
// length from the non-zero rows. So at least one extractor of a chain should always return a
// non-zero value for real tokens: "shape" does.
package features

import (
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gomlx/go-etagger/vocab"
	"github.com/pkg/errors"
)

// Token holds the fields of one token line: "<word> <pos> <chunk> <tag>".
type Token struct {
	Word, POS, Chunk, Tag string
}

// Extractor of a fixed number of features from a token.
type Extractor interface {
	// Name the extractor is registered with.
	Name() string

	// Dim returns the number of features written by Extract.
	// It may depend on the vocabulary, for one-hot encodings.
	Dim(v *vocab.Vocab) int

	// Extract writes exactly Dim(v) features of the token to out.
	Extract(tok Token, v *vocab.Vocab, out []float32)
}

var (
	muRegistry sync.RWMutex
	registry   = make(map[string]Extractor)
)

// Register the extractor under the given name. Registering an existing name replaces it.
func Register(name string, extractor Extractor) {
	muRegistry.Lock()
	defer muRegistry.Unlock()
	registry[name] = extractor
}

// Get returns the extractor registered under name.
func Get(name string) (Extractor, error) {
	muRegistry.RLock()
	defer muRegistry.RUnlock()
	extractor, found := registry[name]
	if !found {
		return nil, errors.Errorf("unknown etc feature %q, registered features are %q", name, namesLocked())
	}
	return extractor, nil
}

// Names of the registered extractors, sorted.
func Names() []string {
	muRegistry.RLock()
	defer muRegistry.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Chain concatenates the features of a list of extractors.
type Chain struct {
	extractors []Extractor
	dims       []int
	dim        int
}

// NewChain resolves the named extractors, whose dimensions are fixed for the given vocabulary.
func NewChain(names []string, v *vocab.Vocab) (*Chain, error) {
	if len(names) == 0 {
		return nil, errors.New("at least one etc feature is required")
	}
	c := &Chain{}
	for _, name := range names {
		extractor, err := Get(name)
		if err != nil {
			return nil, err
		}
		dim := extractor.Dim(v)
		if dim <= 0 {
			return nil, errors.Errorf("etc feature %q has dimension %d for the given vocabulary", name, dim)
		}
		c.extractors = append(c.extractors, extractor)
		c.dims = append(c.dims, dim)
		c.dim += dim
	}
	return c, nil
}

// Dim is the sum of the dimensions of the extractors.
func (c *Chain) Dim() int { return c.dim }

// String lists the extractors and their dimensions.
func (c *Chain) String() string {
	parts := make([]string, len(c.extractors))
	for ii, extractor := range c.extractors {
		parts[ii] = extractor.Name() + "[" + strconv.Itoa(c.dims[ii]) + "]"
	}
	return strings.Join(parts, "+")
}

// Extract writes the Chain.Dim features of the token to out, which must have exactly that length.
func (c *Chain) Extract(tok Token, v *vocab.Vocab, out []float32) {
	offset := 0
	for ii, extractor := range c.extractors {
		extractor.Extract(tok, v, out[offset:offset+c.dims[ii]])
		offset += c.dims[ii]
	}
}
