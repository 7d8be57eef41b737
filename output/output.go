// Package output maps the tagger model predictions back to tag names.
package output

import (
	"github.com/gomlx/go-etagger/config"
	"github.com/gomlx/go-etagger/vocab"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Decoder maps class ids predicted by the model to tag names, for a fixed Config and Vocab.
type Decoder struct {
	vocab     *vocab.Vocab
	classSize int
}

// NewDecoder returns a Decoder accepting class ids in [0, cfg.NumClasses).
// It fails if the tag vocabulary doesn't fit the config.
func NewDecoder(cfg *config.Config, v *vocab.Vocab) (*Decoder, error) {
	classSize, err := cfg.NumClasses(v.Size(vocab.Tags))
	if err != nil {
		return nil, err
	}
	return &Decoder{vocab: v, classSize: classSize}, nil
}

// ClassSize returns the number of output classes accepted.
func (d *Decoder) ClassSize() int { return d.classSize }

func (d *Decoder) tag(id int) (string, error) {
	if id < 0 || id >= d.classSize {
		return "", errors.Errorf("class id %d out of range, class size is %d", id, d.classSize)
	}
	return d.vocab.TagName(id)
}

// Decode appends the predicted tag name to each token line of the bucket, separated by a space:
// "<word> <pos> <chunk> <tag> <predicted>".
//
// predictions holds one class id per token line. It returns an error if the lengths don't match,
// or if a class id is out of range or not in the tag vocabulary.
func (d *Decoder) Decode(bucket []string, predictions []int) ([]string, error) {
	if len(bucket) != len(predictions) {
		return nil, errors.Errorf("bucket has %d token lines, but got %d predictions", len(bucket), len(predictions))
	}
	lines := make([]string, len(bucket))
	for ii, line := range bucket {
		tag, err := d.tag(predictions[ii])
		if err != nil {
			return nil, errors.WithMessagef(err, "token line #%d %q", ii, line)
		}
		lines[ii] = line + " " + tag
	}
	return lines, nil
}

// Tags returns the tag names for the class ids.
func (d *Decoder) Tags(predictions []int) ([]string, error) {
	tags := make([]string, len(predictions))
	for ii, id := range predictions {
		tag, err := d.tag(id)
		if err != nil {
			return nil, errors.WithMessagef(err, "prediction #%d", ii)
		}
		tags[ii] = tag
	}
	return tags, nil
}

// Decode is a shortcut to Decoder.Decode, with the class size taken from the tag vocabulary.
func Decode(bucket []string, predictions []int, v *vocab.Vocab) ([]string, error) {
	return vocabDecoder(v).Decode(bucket, predictions)
}

// Tags is a shortcut to Decoder.Tags, with the class size taken from the tag vocabulary.
func Tags(predictions []int, v *vocab.Vocab) ([]string, error) {
	return vocabDecoder(v).Tags(predictions)
}

func vocabDecoder(v *vocab.Vocab) *Decoder {
	return &Decoder{vocab: v, classSize: v.Size(vocab.Tags)}
}

// PredictionsFromTensor reads the class ids from a tensor shaped [1, L] or [L], as output by the
// model's arg-max over the logits. Supported dtypes are Int32, Int64 and Float32.
func PredictionsFromTensor(t *tensors.Tensor) ([]int, error) {
	shape := t.Shape()
	switch {
	case shape.Rank() == 1:
	case shape.Rank() == 2 && shape.Dimensions[0] == 1:
	default:
		return nil, errors.Errorf("predictions must be shaped [1, L] or [L], got %s", shape)
	}
	var predictions []int
	switch shape.DType {
	case dtypes.Int32:
		predictions = toInts(tensors.CopyFlatData[int32](t))
	case dtypes.Int64:
		predictions = toInts(tensors.CopyFlatData[int64](t))
	case dtypes.Float32:
		flat := tensors.CopyFlatData[float32](t)
		predictions = make([]int, len(flat))
		for ii, value := range flat {
			if value != float32(int(value)) || value < 0 {
				return nil, errors.Errorf("prediction #%d is not a class id: %g", ii, value)
			}
			predictions[ii] = int(value)
		}
	default:
		return nil, errors.Errorf("predictions dtype %s not supported, use Int32, Int64 or Float32", shape.DType)
	}
	return predictions, nil
}

func toInts[T int32 | int64](flat []T) []int {
	ints := make([]int, len(flat))
	for ii, value := range flat {
		ints[ii] = int(value)
	}
	return ints
}
