package features

import (
	"unicode"

	"github.com/gomlx/go-etagger/vocab"
)

// Word shapes encoded by the "shape" extractor, in this order.
const (
	ShapeAllUpper = iota
	ShapeInitialUpper
	ShapeAllLower
	ShapeMixedCase
	ShapeNoLetters
	ShapesCount
)

func init() {
	Register("shape", shapeExtractor{})
	Register("digit", digitExtractor{})
	Register("pos", oneHotExtractor{name: "pos", kind: vocab.POS})
	Register("chunk", oneHotExtractor{name: "chunk", kind: vocab.Chunks})
}

// WordShape classifies the casing of the word's letters.
func WordShape(word string) int {
	var letters, upper int
	firstLetterUpper := false
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		if letters == 0 {
			firstLetterUpper = unicode.IsUpper(r)
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	switch {
	case letters == 0:
		return ShapeNoLetters
	case upper == letters:
		return ShapeAllUpper
	case upper == 0:
		return ShapeAllLower
	case firstLetterUpper && upper == 1:
		return ShapeInitialUpper
	}
	return ShapeMixedCase
}

// shapeExtractor is a one-hot encoding of WordShape.
type shapeExtractor struct{}

func (shapeExtractor) Name() string { return "shape" }
func (shapeExtractor) Dim(_ *vocab.Vocab) int { return ShapesCount }

func (shapeExtractor) Extract(tok Token, _ *vocab.Vocab, out []float32) {
	clear(out)
	out[WordShape(tok.Word)] = 1
}

// digitExtractor is 1 if the word has any decimal digit.
type digitExtractor struct{}

func (digitExtractor) Name() string { return "digit" }
func (digitExtractor) Dim(_ *vocab.Vocab) int { return 1 }

func (digitExtractor) Extract(tok Token, _ *vocab.Vocab, out []float32) {
	out[0] = 0
	for _, r := range tok.Word {
		if unicode.IsDigit(r) {
			out[0] = 1
			return
		}
	}
}

// oneHotExtractor encodes the id of the pos or chunk tag.
type oneHotExtractor struct {
	name string
	kind vocab.Kind
}

func (e oneHotExtractor) Name() string { return e.name }
func (e oneHotExtractor) Dim(v *vocab.Vocab) int { return v.Size(e.kind) }

func (e oneHotExtractor) Extract(tok Token, v *vocab.Vocab, out []float32) {
	clear(out)
	var id int
	if e.kind == vocab.POS {
		id = v.PosID(tok.POS)
	} else {
		id = v.ChunkID(tok.Chunk)
	}
	if id < len(out) {
		out[id] = 1
	}
}
