// Package vocab maps the strings of a token line (words, characters, part-of-speech tags,
// chunk tags and output tags) to the dense integer ids used by the tagger model.
//
// A Vocab is loaded once (see Load or Parse) and is read-only afterwards, so it can be shared
// by any number of goroutines encoding sentences concurrently.
//
// The vocabulary file has one entry per line, with 3 whitespace separated fields:
//
//	<kind> <key> <id>
//
// Where kind is one of "wrd", "chr", "pos", "chk" or "tag". Empty lines and lines starting with "#"
// are ignored. Example:
//
//	# words
//	wrd <pad> 0
//	wrd <unk> 1
//	wrd the 2
//	chr a 2
//	pos NN 2
//	chk B-NP 2
//	tag O 0
//	tag B-PER 1
package vocab

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Kind of vocabulary.
type Kind int

const (
	Words Kind = iota
	Chars
	POS
	Chunks
	Tags
	KindsCount
)

var kindNames = [KindsCount]string{"wrd", "chr", "pos", "chk", "tag"}

// String implements fmt.Stringer, and returns the name used in the vocabulary file.
func (k Kind) String() string {
	if k < 0 || k >= KindsCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// KindFromString returns the Kind for the name used in the vocabulary file.
func KindFromString(name string) (Kind, error) {
	for k, kindName := range kindNames {
		if kindName == name {
			return Kind(k), nil
		}
	}
	return 0, errors.Errorf("unknown vocabulary kind %q, valid values are %q", name, kindNames)
}

// HasSpecialTokens returns whether the kind reserves ids for padding and unknown entries.
// Only Tags, whose ids are the model's class indices, don't.
func (k Kind) HasSpecialTokens() bool { return k != Tags }

// SpecialToken is an enum of the special entries of the vocabularies.
type SpecialToken int

const (
	TokPad SpecialToken = iota
	TokUnknown
	TokSpecialTokensCount
)

// Keys used in the vocabulary file to override the default ids of the special tokens.
const (
	PadKey     = "<pad>"
	UnknownKey = "<unk>"
)

// Default ids of the special tokens, if the vocabulary file doesn't define them.
const (
	DefaultPadID     = 0
	DefaultUnknownID = 1
)

// String implements fmt.Stringer.
func (t SpecialToken) String() string {
	switch t {
	case TokPad:
		return "pad"
	case TokUnknown:
		return "unknown"
	}
	return fmt.Sprintf("SpecialToken(%d)", int(t))
}

// MaxID is the largest id accepted: model inputs hold ids as float32, which represents integers
// exactly only up to 2^24.
const MaxID = 1 << 24

// table is the vocabulary of one Kind.
type table struct {
	ids   map[string]int
	names map[int]string
	maxID int
}

func newTable() *table {
	return &table{ids: make(map[string]int), names: make(map[int]string), maxID: -1}
}

// Vocab holds the vocabularies of all kinds. Create it with New, Load or Parse.
type Vocab struct {
	tables [KindsCount]*table

	// Lowercase enables the fallback to the lower-cased word in GetWid.
	Lowercase bool
}

// New creates an empty Vocab, where every lookup returns the unknown id.
// Entries can be added with Vocab.Add, before the Vocab is shared.
func New() *Vocab {
	v := &Vocab{}
	for k := range v.tables {
		v.tables[k] = newTable()
	}
	return v
}

// WithLowercase sets Vocab.Lowercase and returns the Vocab, for chaining after New, Load or Parse.
func (v *Vocab) WithLowercase(lowercase bool) *Vocab {
	v.Lowercase = lowercase
	return v
}

// Add an entry to the vocabulary of the given kind.
//
// It returns an error if the key is already present, if the id is negative or if the id is already
// taken by another key. Character keys must be exactly one rune, except for the special keys.
func (v *Vocab) Add(kind Kind, key string, id int) error {
	if kind < 0 || kind >= KindsCount {
		return errors.Errorf("invalid vocabulary kind %d", kind)
	}
	if key == "" {
		return errors.Errorf("empty key for vocabulary %s", kind)
	}
	if id < 0 {
		return errors.Errorf("negative id %d for %q in vocabulary %s", id, key, kind)
	}
	if id > MaxID {
		return errors.Errorf("id %d for %q in vocabulary %s is larger than the maximum %d", id, key, kind, MaxID)
	}
	if kind == Chars && key != PadKey && key != UnknownKey && utf8.RuneCountInString(key) != 1 {
		return errors.Errorf("character vocabulary key %q must be a single character", key)
	}
	tab := v.tables[kind]
	if prevID, found := tab.ids[key]; found {
		return errors.Errorf("duplicate key %q in vocabulary %s (ids %d and %d)", key, kind, prevID, id)
	}
	if prevKey, found := tab.names[id]; found {
		return errors.Errorf("id %d used by both %q and %q in vocabulary %s", id, prevKey, key, kind)
	}
	tab.ids[key] = id
	tab.names[id] = key
	tab.maxID = max(tab.maxID, id)
	return nil
}

// Len returns the number of entries in the vocabulary of the given kind.
func (v *Vocab) Len(kind Kind) int {
	return len(v.tables[kind].ids)
}

// Size returns the number of ids of the vocabulary of the given kind, that is the largest id + 1.
// For kinds with special tokens it includes their default ids, even if not listed.
//
// It's the dimension used for one-hot encodings and embedding tables.
func (v *Vocab) Size(kind Kind) int {
	size := v.tables[kind].maxID + 1
	if kind.HasSpecialTokens() {
		size = max(size, DefaultPadID+1, DefaultUnknownID+1)
	}
	return size
}

// SpecialTokenID returns the id of the special token for the given kind of vocabulary.
func (v *Vocab) SpecialTokenID(kind Kind, token SpecialToken) (int, error) {
	if !kind.HasSpecialTokens() {
		return 0, errors.Errorf("vocabulary %s has no special tokens", kind)
	}
	switch token {
	case TokPad:
		return v.padID(kind), nil
	case TokUnknown:
		return v.unknownID(kind), nil
	}
	return 0, errors.Errorf("unknown special token: %s (%d)", token, token)
}

func (v *Vocab) padID(kind Kind) int {
	if id, found := v.tables[kind].ids[PadKey]; found {
		return id
	}
	return DefaultPadID
}

func (v *Vocab) unknownID(kind Kind) int {
	if id, found := v.tables[kind].ids[UnknownKey]; found {
		return id
	}
	return DefaultUnknownID
}

// lookup returns the id of key, or the unknown id.
func (v *Vocab) lookup(kind Kind, key string) int {
	if id, found := v.tables[kind].ids[key]; found {
		return id
	}
	return v.unknownID(kind)
}

// Split a token line into its whitespace separated fields.
func (v *Vocab) Split(line string) []string {
	return strings.Fields(line)
}

// WordID returns the id of the word, and whether it was found. There is no fallback.
func (v *Vocab) WordID(word string) (int, bool) {
	id, found := v.tables[Words].ids[word]
	return id, found
}

// GetWid returns the id of the word.
//
// If the word is not found and Vocab.Lowercase is set, the lower-cased word is tried.
// Out-of-vocabulary words get the unknown word id.
func (v *Vocab) GetWid(word string) int {
	tab := v.tables[Words]
	if id, found := tab.ids[word]; found {
		return id
	}
	if v.Lowercase {
		if id, found := tab.ids[strings.ToLower(word)]; found {
			return id
		}
	}
	return v.unknownID(Words)
}

// CharID returns the id of the character, or the unknown character id.
func (v *Vocab) CharID(r rune) int {
	return v.lookup(Chars, string(r))
}

// PadCharID returns the id used to fill the character slots past the end of a word.
func (v *Vocab) PadCharID() int {
	return v.padID(Chars)
}

// PosID returns the id of the part-of-speech tag, or the unknown pos id.
func (v *Vocab) PosID(pos string) int {
	return v.lookup(POS, pos)
}

// ChunkID returns the id of the chunk tag, or the unknown chunk id.
func (v *Vocab) ChunkID(chunk string) int {
	return v.lookup(Chunks, chunk)
}

// TagID returns the class index of the output tag, and whether it was found.
func (v *Vocab) TagID(tag string) (int, bool) {
	id, found := v.tables[Tags].ids[tag]
	return id, found
}

// TagName returns the output tag for the given class index.
func (v *Vocab) TagName(id int) (string, error) {
	name, found := v.tables[Tags].names[id]
	if !found {
		return "", errors.Errorf("class id %d not in tag vocabulary (%d tags)", id, v.Len(Tags))
	}
	return name, nil
}
