package vocab

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Load reads the vocabulary file (see package documentation for the format).
func Load(filePath string) (*Vocab, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open vocabulary file %q", filePath)
	}
	defer func() { _ = f.Close() }()
	v, err := Parse(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "read from file %q", filePath)
	}
	return v, nil
}

// Parse reads the vocabulary entries from r (see package documentation for the format).
func Parse(r io.Reader) (*Vocab, error) {
	v := New()
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, errors.Errorf("vocabulary line %d: expected 3 fields (kind, key, id), got %d in %q",
				lineNum, len(fields), line)
		}
		kind, err := KindFromString(fields[0])
		if err != nil {
			return nil, errors.WithMessagef(err, "vocabulary line %d", lineNum)
		}
		id, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, errors.Wrapf(err, "vocabulary line %d: invalid id %q", lineNum, fields[2])
		}
		if err = v.Add(kind, fields[1], id); err != nil {
			return nil, errors.WithMessagef(err, "vocabulary line %d", lineNum)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read vocabulary")
	}
	return v, nil
}
