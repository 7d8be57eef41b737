// Package config holds the dimensions of the tagger model inputs.
//
// They are read from the tagger's "config.json" file, and must match the shapes the model was
// trained with.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

const (
	// DefaultWordLength is the number of character slots per token, if not configured.
	DefaultWordLength = 15

	// DefaultEtcDim is the dimension of the auxiliary features, if not configured.
	// It matches the dimension of the default "shape" feature.
	DefaultEtcDim = 5
)

// DefaultEtcFeatures used if "etc_features" is not given.
var DefaultEtcFeatures = []string{"shape"}

// Config struct to hold the tagger's config.json contents.
//
// The extra field ConfigFile holds the path to the file the config was read from, if any.
type Config struct {
	ConfigFile string `json:"-"`

	// WordLength is the number of character ids per token: longer words are truncated, shorter ones padded.
	WordLength int `json:"word_length"`

	// EtcDim is the dimension of the auxiliary features of each token.
	// It must match the sum of the dimensions of EtcFeatures.
	EtcDim int `json:"etc_dim"`

	// EtcFeatures lists the names of the feature extractors (see package features) concatenated,
	// in order, to build the auxiliary features.
	EtcFeatures []string `json:"etc_features"`

	// ClassSize is the number of output tags. If 0, the number of tags in the vocabulary is used.
	// See Config.NumClasses.
	ClassSize int `json:"class_size"`

	// Lowercase enables the fallback to the lower-cased word, for words not found in the vocabulary.
	Lowercase bool `json:"lowercase"`
}

// Default returns a Config with the default values.
func Default() *Config {
	return &Config{
		WordLength:  DefaultWordLength,
		EtcDim:      DefaultEtcDim,
		EtcFeatures: append([]string(nil), DefaultEtcFeatures...),
	}
}

// GetWordLength returns the number of character slots per token.
func (c *Config) GetWordLength() int { return c.WordLength }

// GetEtcDim returns the dimension of the auxiliary features.
func (c *Config) GetEtcDim() int { return c.EtcDim }

// NumClasses returns the number of output classes, given the size of the tag vocabulary
// (see vocab.Vocab.Size): ClassSize if set, tagsSize otherwise.
//
// It fails if the tag vocabulary uses class ids beyond ClassSize.
func (c *Config) NumClasses(tagsSize int) (int, error) {
	if c.ClassSize == 0 {
		return tagsSize, nil
	}
	if tagsSize > c.ClassSize {
		return 0, errors.Errorf("tag vocabulary has %d classes, more than config \"class_size\" %d", tagsSize, c.ClassSize)
	}
	return c.ClassSize, nil
}

// Validate returns an error if the config can't be used to build model inputs.
func (c *Config) Validate() error {
	if c.WordLength <= 0 {
		return errors.Errorf("config \"word_length\" must be > 0, got %d", c.WordLength)
	}
	if c.EtcDim <= 0 {
		return errors.Errorf("config \"etc_dim\" must be > 0, got %d", c.EtcDim)
	}
	if c.ClassSize < 0 {
		return errors.Errorf("config \"class_size\" must be >= 0, got %d", c.ClassSize)
	}
	if len(c.EtcFeatures) == 0 {
		return errors.New("config \"etc_features\" can't be empty")
	}
	seen := make(map[string]bool, len(c.EtcFeatures))
	for _, name := range c.EtcFeatures {
		if name == "" {
			return errors.New("config \"etc_features\" has an empty feature name")
		}
		if seen[name] {
			return errors.Errorf("config \"etc_features\" lists %q more than once", name)
		}
		seen[name] = true
	}
	return nil
}

// ParseConfigFile parses the given file (holding a config.json file) into a Config structure.
func ParseConfigFile(filePath string) (*Config, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %q", filePath)
	}
	config, err := ParseConfigContent(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "read from file %q", filePath)
	}
	config.ConfigFile = filePath
	return config, nil
}

// ParseConfigContent parses the given json content (of a config.json file) into a Config structure.
// Fields missing in the json content take their Default values.
func ParseConfigContent(jsonContent []byte) (*Config, error) {
	config := Default()
	err := json.Unmarshal(jsonContent, config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config json content")
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
