// etagger-encode reads sentences in CoNLL format (one "word pos chunk tag" token per line, sentences
// separated by blank lines) and encodes each one into the input tensors of the etagger model.
//
// The config.json and vocab.txt files are either given locally, or downloaded from a HuggingFace
// repository.
//
// Usage:
//
//	go run ./cmd/etagger-encode --config=config.json --vocab=vocab.txt < test.txt
//	go run ./cmd/etagger-encode --repo=<owner>/<tagger> --input=test.txt --save=/tmp/inputs
package main

import (
	"flag"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomlx/go-etagger/bucket"
	"github.com/gomlx/go-etagger/config"
	"github.com/gomlx/go-etagger/hub"
	"github.com/gomlx/go-etagger/input"
	"github.com/gomlx/go-etagger/internal/files"
	"github.com/gomlx/go-etagger/vocab"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagRepo   = flag.String("repo", "", "HuggingFace repository with the tagger's config.json and vocab.txt. Set HF_TOKEN if authentication is needed.")
	flagConfig = flag.String("config", "", "Path to the tagger's config.json, if not using --repo.")
	flagVocab  = flag.String("vocab", "", "Path to the tagger's vocab.txt, if not using --repo.")
	flagInput  = flag.String("input", "-", "File with the sentences to encode, \"-\" for stdin.")
	flagSave   = flag.String("save", "", "If set, directory where to save the input tensors of each sentence.")
)

// inputNames of the tensors saved, in the order of input.Input.Tensors.
var inputNames = []string{"word_ids", "wordchr_ids", "pos_ids", "etcs"}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	configPath, vocabPath := resourcePaths()
	cfg := must.M1(config.ParseConfigFile(configPath))
	voc := must.M1(vocab.Load(vocabPath))
	encoder := must.M1(input.NewEncoder(cfg, voc))
	klog.V(1).Infof("encoder: word_length=%d, etc_dim=%d, features=%q, classes=%d",
		encoder.WordLength(), encoder.EtcDim(), cfg.EtcFeatures, encoder.ClassSize())

	var saveDir string
	if *flagSave != "" {
		saveDir = must.M1(files.Resolve(*flagSave))
		must.M(os.MkdirAll(saveDir, 0755))
	}

	var buckets iter.Seq2[[]string, error]
	if *flagInput == "-" {
		buckets = bucket.Read(os.Stdin)
	} else {
		buckets = bucket.ReadFile(must.M1(files.Resolve(*flagInput)))
	}

	var count, invalid int
	for lines, err := range buckets {
		if err != nil {
			klog.Exitf("Failed reading sentences: %+v", err)
		}
		count++
		in, err := encoder.Encode(lines)
		if err != nil {
			// A malformed sentence doesn't stop the others from being encoded.
			klog.Errorf("Sentence #%d: %v", count, err)
			invalid++
			continue
		}
		printSummary(os.Stdout, count, in)
		if saveDir != "" {
			saveInput(saveDir, count, in)
		}
		in.Finalize()
	}
	klog.V(1).Infof("encoded %d sentences, %d invalid", count-invalid, invalid)
	if invalid > 0 {
		os.Exit(1)
	}
}

// resourcePaths returns the paths to config.json and vocab.txt, downloading them if --repo is set.
func resourcePaths() (configPath, vocabPath string) {
	if *flagRepo != "" {
		repo := hub.New(*flagRepo).WithAuth(os.Getenv("HF_TOKEN")).WithProgressBar(true)
		paths := must.M1(repo.DownloadFiles(hub.ConfigFile, hub.VocabFile))
		return paths[0], paths[1]
	}
	if *flagConfig == "" || *flagVocab == "" {
		klog.Exitf("Either --repo or both --config and --vocab must be given.")
	}
	return must.M1(files.Resolve(*flagConfig)), must.M1(files.Resolve(*flagVocab))
}

// printSummary of the encoded sentence: its length, words and word ids.
func printSummary(w io.Writer, sentenceNum int, in *input.Input) {
	words := make([]string, in.Length)
	for ii, tok := range in.Tokens {
		words[ii] = tok.Word
	}
	wordIDs := tensors.CopyFlatData[float32](in.WordIDs)
	ids := make([]string, len(wordIDs))
	for ii, id := range wordIDs {
		ids[ii] = fmt.Sprintf("%d", int(id))
	}
	_, _ = fmt.Fprintf(w, "#%d L=%d\t%s\t[%s]\n", sentenceNum, in.Length,
		strings.Join(words, " "), strings.Join(ids, " "))
}

// saveInput writes the input tensors of the sentence in saveDir, one file per tensor.
func saveInput(saveDir string, sentenceNum int, in *input.Input) {
	for ii, t := range in.Tensors() {
		filePath := filepath.Join(saveDir, fmt.Sprintf("%06d-%s.bin", sentenceNum, inputNames[ii]))
		must.M(t.Save(filePath))
	}
}
