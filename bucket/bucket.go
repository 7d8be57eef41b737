// Package bucket reads CoNLL-like token streams into buckets: the ordered token lines of one sentence.
//
// Sentences are separated by one or more blank lines. Document separators (lines starting with
// "-DOCSTART-", as in the CoNLL 2003 datasets) are skipped.
package bucket

import (
	"bufio"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DocStart is the prefix of document separator lines, which are not part of any sentence.
const DocStart = "-DOCSTART-"

// MaxLineSize is the largest token line accepted by Read.
var MaxLineSize = 1024 * 1024

// Read iterates over the buckets in r.
//
// Lines are trimmed of surrounding white spaces (including "\r"), but not otherwise validated:
// that's done when encoding them. A read error is yielded once, and ends the iteration.
//
// The yielded slices are owned by the caller.
func Read(r io.Reader) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
		var (
			bucket  []string
			lineNum int
			count   int
		)
		for scanner.Scan() {
			lineNum++
			line := strings.TrimSpace(scanner.Text())
			if strings.HasPrefix(line, DocStart) {
				continue
			}
			if line != "" {
				bucket = append(bucket, line)
				continue
			}
			if len(bucket) == 0 {
				continue
			}
			count++
			if !yield(bucket, nil) {
				return
			}
			bucket = nil
		}
		if err := scanner.Err(); err != nil {
			yield(nil, errors.Wrapf(err, "failed reading buckets after line %d", lineNum))
			return
		}
		if len(bucket) > 0 {
			count++
			if !yield(bucket, nil) {
				return
			}
		}
		klog.V(2).Infof("read %d buckets from %d lines", count, lineNum)
	}
}

// ReadFile iterates over the buckets of the file.
// The file is opened when the iteration starts, and closed when it finishes.
func ReadFile(filePath string) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		f, err := os.Open(filePath)
		if err != nil {
			yield(nil, errors.Wrapf(err, "failed to open %q", filePath))
			return
		}
		defer func() { _ = f.Close() }()
		for bucket, err := range Read(f) {
			if err != nil {
				err = errors.WithMessagef(err, "reading %q", filePath)
			}
			if !yield(bucket, err) {
				return
			}
		}
	}
}
