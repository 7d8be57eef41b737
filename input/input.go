// Package input encodes one sentence into the input tensors of the tagger model.
//
// A sentence is given as a "bucket": the ordered list of its token lines, each with 4 whitespace
// separated fields "<word> <pos> <chunk> <tag>" (CoNLL style). For a bucket of length L, with
// the configured word length W and etc dimension E, the Input holds 4 float32 tensors:
//
//   - WordIDs, shaped [1, L]: the word id of each token.
//   - WordChrIDs, shaped [1, L, W]: the ids of the first W characters of each word, padded with the
//     pad character id.
//   - PosIDs, shaped [1, L]: the part-of-speech id of each token.
//   - Etcs, shaped [1, L, E]: the auxiliary features of each token (see package features).
//
// All ids are stored as float32, since that's the uniform dtype the model inputs are fed with.
// They are exact up to vocab.MaxID, which the vocabulary enforces.
package input

import (
	"strings"

	"github.com/gomlx/go-etagger/config"
	"github.com/gomlx/go-etagger/features"
	"github.com/gomlx/go-etagger/vocab"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// NumFields is the number of fields of every token line.
const NumFields = 4

var (
	// ErrInvalidTokenFormat is returned (wrapped) when a token line doesn't have exactly NumFields fields.
	ErrInvalidTokenFormat = errors.New("input tokens must be size 4")

	// ErrEmptyBucket is returned when encoding a bucket with no token lines:
	// the model inputs can't have a zero length sentence axis.
	ErrEmptyBucket = errors.New("bucket has no token lines")
)

// Input holds the model input tensors for one sentence. It owns the tensors, which are
// allocated together by Encoder.Encode and freed together by Input.Finalize.
type Input struct {
	// Length of the sentence, L.
	Length int

	// Tokens parsed from the bucket lines, in order.
	Tokens []features.Token

	WordIDs, WordChrIDs, PosIDs, Etcs *tensors.Tensor
}

// Tensors returns the 4 tensors in the order the model takes them:
// word ids, character ids, pos ids and etc features.
func (in *Input) Tensors() []*tensors.Tensor {
	return []*tensors.Tensor{in.WordIDs, in.WordChrIDs, in.PosIDs, in.Etcs}
}

// Finalize immediately frees the 4 tensors. The Input can't be used afterwards.
// It's safe to call it more than once.
func (in *Input) Finalize() {
	for _, t := range []**tensors.Tensor{&in.WordIDs, &in.WordChrIDs, &in.PosIDs, &in.Etcs} {
		if *t != nil {
			(*t).FinalizeAll()
			*t = nil
		}
	}
}

// Encoder converts buckets to Input, for a fixed Config and Vocab.
// It is read-only once created, and can be used concurrently.
type Encoder struct {
	wordLength, etcDim, classSize int
	lowercase                     bool
	vocab                         *vocab.Vocab
	etcs                          *features.Chain
}

// NewEncoder validates the config against the vocabulary and returns an Encoder.
//
// It returns an error if the dimension of the configured etc features doesn't match the config EtcDim,
// or if the tag vocabulary doesn't fit the config ClassSize.
func NewEncoder(cfg *config.Config, v *vocab.Vocab) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	classSize, err := cfg.NumClasses(v.Size(vocab.Tags))
	if err != nil {
		return nil, err
	}
	chain, err := features.NewChain(cfg.EtcFeatures, v)
	if err != nil {
		return nil, errors.WithMessagef(err, "creating etc features")
	}
	if chain.Dim() != cfg.GetEtcDim() {
		return nil, errors.Errorf("etc features %s have dimension %d, but config \"etc_dim\" is %d",
			chain, chain.Dim(), cfg.GetEtcDim())
	}
	return &Encoder{
		wordLength: cfg.GetWordLength(),
		etcDim:     cfg.GetEtcDim(),
		classSize:  classSize,
		lowercase:  cfg.Lowercase,
		vocab:      v,
		etcs:       chain,
	}, nil
}

// WordLength returns W, the number of character ids per token.
func (e *Encoder) WordLength() int { return e.wordLength }

// EtcDim returns E, the number of etc features per token.
func (e *Encoder) EtcDim() int { return e.etcDim }

// ClassSize returns the number of output classes of the model.
func (e *Encoder) ClassSize() int { return e.classSize }

// wordID returns the word id, falling back to the lower-cased word if the config enables it.
func (e *Encoder) wordID(word string) int {
	if e.lowercase {
		if _, found := e.vocab.WordID(word); !found {
			if id, found := e.vocab.WordID(strings.ToLower(word)); found {
				return id
			}
		}
	}
	return e.vocab.GetWid(word)
}

// Encode is a shortcut to NewEncoder followed by Encoder.Encode.
func Encode(cfg *config.Config, v *vocab.Vocab, bucket []string) (*Input, error) {
	e, err := NewEncoder(cfg, v)
	if err != nil {
		return nil, err
	}
	return e.Encode(bucket)
}

// ParseBucket splits the bucket lines into tokens.
//
// It fails with ErrInvalidTokenFormat (use errors.Is) if any line doesn't have exactly NumFields fields,
// or with ErrEmptyBucket if there are no lines.
func (e *Encoder) ParseBucket(bucket []string) ([]features.Token, error) {
	if len(bucket) == 0 {
		return nil, ErrEmptyBucket
	}
	tokens := make([]features.Token, len(bucket))
	for ii, line := range bucket {
		fields := e.vocab.Split(line)
		if len(fields) != NumFields {
			return nil, errors.Wrapf(ErrInvalidTokenFormat, "line #%d %q has %d fields", ii, line, len(fields))
		}
		tokens[ii] = features.Token{Word: fields[0], POS: fields[1], Chunk: fields[2], Tag: fields[3]}
	}
	return tokens, nil
}

// newTensor allocates a zero initialized float32 tensor.
var newTensor = func(dimensions ...int) *tensors.Tensor {
	return tensors.FromShape(shapes.Make(dtypes.Float32, dimensions...))
}

// Encode the bucket of token lines of one sentence into a new Input.
//
// All lines are validated before any tensor is allocated: on error no Input is returned and
// nothing needs to be freed. The caller owns the returned Input, and should call Input.Finalize
// when done with it.
func (e *Encoder) Encode(bucket []string) (*Input, error) {
	tokens, err := e.ParseBucket(bucket)
	if err != nil {
		return nil, err
	}
	length := len(tokens)
	in := &Input{
		Length:     length,
		Tokens:     tokens,
		WordIDs:    newTensor(1, length),
		WordChrIDs: newTensor(1, length, e.wordLength),
		PosIDs:     newTensor(1, length),
		Etcs:       newTensor(1, length, e.etcDim),
	}

	tensors.MutableFlatData(in.WordIDs, func(flat []float32) {
		for ii, tok := range tokens {
			flat[ii] = float32(e.wordID(tok.Word))
		}
	})
	tensors.MutableFlatData(in.WordChrIDs, func(flat []float32) {
		for ii, tok := range tokens {
			e.encodeChars(tok.Word, flat[ii*e.wordLength:(ii+1)*e.wordLength])
		}
	})
	tensors.MutableFlatData(in.PosIDs, func(flat []float32) {
		for ii, tok := range tokens {
			flat[ii] = float32(e.vocab.PosID(tok.POS))
		}
	})
	tensors.MutableFlatData(in.Etcs, func(flat []float32) {
		for ii, tok := range tokens {
			e.etcs.Extract(tok, e.vocab, flat[ii*e.etcDim:(ii+1)*e.etcDim])
		}
	})
	return in, nil
}

// encodeChars writes the character ids of the word in out: truncated to len(out) characters,
// and padded with the pad character id.
func (e *Encoder) encodeChars(word string, out []float32) {
	pos := 0
	for _, r := range word {
		if pos == len(out) {
			return
		}
		out[pos] = float32(e.vocab.CharID(r))
		pos++
	}
	padID := float32(e.vocab.PadCharID())
	for ; pos < len(out); pos++ {
		out[pos] = padID
	}
}
