package output

import (
	"testing"

	"github.com/gomlx/go-etagger/config"
	"github.com/gomlx/go-etagger/vocab"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTagVocab(t *testing.T) *vocab.Vocab {
	v := vocab.New()
	for ii, tag := range []string{"O", "B-PER", "I-PER", "B-LOC"} {
		require.NoError(t, v.Add(vocab.Tags, tag, ii))
	}
	return v
}

func TestDecode(t *testing.T) {
	v := newTagVocab(t)
	lines, err := Decode([]string{"Peter NNP B-NP B-PER", "lives VBZ B-VP O"}, []int{1, 0}, v)
	require.NoError(t, err)
	assert.Equal(t, []string{"Peter NNP B-NP B-PER B-PER", "lives VBZ B-VP O O"}, lines)

	_, err = Decode([]string{"Peter NNP B-NP B-PER"}, []int{1, 0}, v)
	assert.Error(t, err)
	_, err = Decode([]string{"Peter NNP B-NP B-PER"}, []int{7}, v)
	assert.Error(t, err)
}

func TestDecoderClassSize(t *testing.T) {
	v := newTagVocab(t)
	cfg := config.Default()
	d, err := NewDecoder(cfg, v)
	require.NoError(t, err)
	assert.Equal(t, 4, d.ClassSize())

	// Class size smaller than the tag vocabulary.
	cfg.ClassSize = 3
	_, err = NewDecoder(cfg, v)
	assert.Error(t, err)

	// Class ids beyond the class size are rejected, even if the tag is known.
	cfg.ClassSize = 6
	d, err = NewDecoder(cfg, v)
	require.NoError(t, err)
	tags, err := d.Tags([]int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"B-LOC", "B-PER"}, tags)
	_, err = d.Tags([]int{6})
	assert.ErrorContains(t, err, "out of range")
	// Within the class size, but without a tag name.
	_, err = d.Decode([]string{"Peter NNP B-NP B-PER"}, []int{5})
	assert.Error(t, err)
}

func TestTags(t *testing.T) {
	v := newTagVocab(t)
	tags, err := Tags([]int{3, 0, 2}, v)
	require.NoError(t, err)
	assert.Equal(t, []string{"B-LOC", "O", "I-PER"}, tags)
	_, err = Tags([]int{-1}, v)
	assert.Error(t, err)
}

func TestPredictionsFromTensor(t *testing.T) {
	predictions, err := PredictionsFromTensor(tensors.FromValue([][]int32{{1, 0, 3}}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 3}, predictions)

	predictions, err = PredictionsFromTensor(tensors.FromValue([]int64{2, 2}))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, predictions)

	predictions, err = PredictionsFromTensor(tensors.FromValue([][]float32{{3, 1}}))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, predictions)

	_, err = PredictionsFromTensor(tensors.FromValue([][]float32{{0.5}}))
	assert.Error(t, err)
	_, err = PredictionsFromTensor(tensors.FromValue([][]int32{{1}, {2}}))
	assert.Error(t, err, "batch of 2 not supported")
	_, err = PredictionsFromTensor(tensors.FromValue([]float64{1}))
	assert.Error(t, err)
}
