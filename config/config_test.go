package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigContent(t *testing.T) {
	config, err := ParseConfigContent([]byte(`{"word_length": 20, "etc_dim": 6, "etc_features": ["shape", "digit"], "lowercase": true}`))
	require.NoError(t, err)
	assert.Equal(t, 20, config.GetWordLength())
	assert.Equal(t, 6, config.GetEtcDim())
	assert.Equal(t, []string{"shape", "digit"}, config.EtcFeatures)
	assert.True(t, config.Lowercase)
	assert.Equal(t, 0, config.ClassSize)
}

func TestParseConfigContentDefaults(t *testing.T) {
	config, err := ParseConfigContent([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultWordLength, config.WordLength)
	assert.Equal(t, DefaultEtcDim, config.EtcDim)
	assert.Equal(t, DefaultEtcFeatures, config.EtcFeatures)

	// Changing the returned features must not change the package defaults.
	config.EtcFeatures[0] = "pos"
	assert.Equal(t, "shape", DefaultEtcFeatures[0])
}

func TestNumClasses(t *testing.T) {
	config := Default()
	n, err := config.NumClasses(9)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	config.ClassSize = 12
	n, err = config.NumClasses(9)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	config.ClassSize = 5
	_, err = config.NumClasses(9)
	assert.Error(t, err)
}

func TestParseConfigContentErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"invalid json", `{"word_length": `},
		{"zero word length", `{"word_length": 0}`},
		{"negative etc dim", `{"etc_dim": -1}`},
		{"negative class size", `{"class_size": -3}`},
		{"no features", `{"etc_features": []}`},
		{"empty feature", `{"etc_features": [""]}`},
		{"duplicate feature", `{"etc_features": ["shape", "shape"]}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfigContent([]byte(tc.content))
			assert.Error(t, err)
		})
	}
}

func TestParseConfigFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(filePath, []byte(`{"word_length": 10, "etc_dim": 5}`), 0644))
	config, err := ParseConfigFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, filePath, config.ConfigFile)
	assert.Equal(t, 10, config.WordLength)

	_, err = ParseConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
