// Package etagger only holds the version of the set of tools to prepare inputs for an etagger
// sequence-tagging model (word, character, part-of-speech and auxiliary features) using GoMLX tensors.
//
// The main sub-packages:
//
//   - config: dimensions of the model inputs, read from the tagger's "config.json".
//   - vocab: word, character, part-of-speech, chunk and tag vocabularies.
//   - features: extractors of the auxiliary ("etc") per-token features.
//   - input: encodes one sentence (a bucket of token lines) into the model input tensors.
//   - bucket: reads CoNLL-like streams into buckets.
//   - output: maps predicted class ids back to tag names.
//   - hub: downloads the tagger resources from HuggingFace Hub.
package etagger

// Version of the library.
// Manually kept in sync with project releases.
var Version = "v0.0.0-dev"
