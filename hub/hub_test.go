package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRepoID     = "etagger/conll2003"
	testCommitHash = "0123456789abcdef"
)

var testRepoFiles = map[string]string{
	ConfigFile:       `{"word_length": 15, "etc_dim": 5}`,
	VocabFile:        "wrd dog 42\n",
	"model/graph.pb": "graph",
}

// newTestServer serves the repository info and files, and counts the file requests.
func newTestServer(t *testing.T, fileRequests *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/models/"+testRepoID+"/revision/main" {
			info := RepoInfo{ID: testRepoID, CommitHash: testCommitHash}
			for name := range testRepoFiles {
				info.Siblings = append(info.Siblings, &FileInfo{Name: name})
			}
			assert.NoError(t, json.NewEncoder(w).Encode(info))
			return
		}
		prefix := "/" + testRepoID + "/resolve/" + testCommitHash + "/"
		if content, found := testRepoFiles[strings.TrimPrefix(r.URL.Path, prefix)]; found && strings.HasPrefix(r.URL.Path, prefix) {
			fileRequests.Add(1)
			_, _ = w.Write([]byte(content))
			return
		}
		http.NotFound(w, r)
	}))
}

func newTestRepo(t *testing.T, server *httptest.Server) *Repo {
	return New(testRepoID).WithEndpoint(server.URL + "/").WithCacheDir(t.TempDir())
}

func TestDownloadFiles(t *testing.T) {
	var fileRequests atomic.Int32
	server := newTestServer(t, &fileRequests)
	defer server.Close()
	repo := newTestRepo(t, server)

	paths, err := repo.DownloadFiles(ConfigFile, VocabFile, "model/graph.pb")
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for ii, name := range []string{ConfigFile, VocabFile, "model/graph.pb"} {
		assert.Contains(t, paths[ii], testCommitHash)
		content, err := os.ReadFile(paths[ii])
		require.NoError(t, err)
		assert.Equal(t, testRepoFiles[name], string(content))
		assert.NoFileExists(t, paths[ii]+".lock")
		assert.NoFileExists(t, paths[ii]+".downloading")
	}
	assert.Equal(t, int32(3), fileRequests.Load())

	// Second time it's served from the cache.
	vocabPath, err := repo.DownloadFile(VocabFile)
	require.NoError(t, err)
	assert.Equal(t, paths[1], vocabPath)
	assert.Equal(t, int32(3), fileRequests.Load())

	_, err = repo.DownloadFile("missing.txt")
	assert.Error(t, err)
	_, err = repo.DownloadFile("..")
	assert.Error(t, err)
}

func TestRepoInfo(t *testing.T) {
	var fileRequests atomic.Int32
	server := newTestServer(t, &fileRequests)
	defer server.Close()
	repo := newTestRepo(t, server)

	assert.True(t, repo.HasFile(VocabFile))
	assert.False(t, repo.HasFile("tokenizer.json"))
	require.NotNil(t, repo.Info())
	assert.Equal(t, testCommitHash, repo.Info().CommitHash)

	var names []string
	for name, err := range repo.IterFileNames() {
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Len(t, names, len(testRepoFiles))

	url, err := repo.FileURL(VocabFile)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/"+testRepoID+"/resolve/"+testCommitHash+"/"+VocabFile, url)
	assert.Equal(t, testRepoID, repo.String())
}

func TestRepoInfoNotFound(t *testing.T) {
	var fileRequests atomic.Int32
	server := newTestServer(t, &fileRequests)
	defer server.Close()
	repo := New("unknown/repo").WithEndpoint(server.URL).WithCacheDir(t.TempDir())
	assert.Error(t, repo.DownloadInfo(false))
	assert.False(t, repo.HasFile(VocabFile))
	_, err := repo.DownloadFile(VocabFile)
	assert.Error(t, err)
}

func TestFlatFolderName(t *testing.T) {
	repo := New("etagger/conll2003")
	assert.Equal(t, "models--etagger--conll2003", repo.flatFolderName())
	assert.Equal(t, "datasets--etagger--conll2003", repo.WithType(RepoTypeDataset).flatFolderName())
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	assert.Equal(t, "/tmp/cache/huggingface/hub", DefaultCacheDir())
	assert.NotEmpty(t, SessionId)
	assert.Contains(t, DefaultHttpUserAgent(), SessionId)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	regularFile := filepath.Join(dir, "vocab.txt")
	require.NoError(t, os.WriteFile(regularFile, []byte("wrd dog 42\n"), 0644))

	exists, err := fileExists(regularFile)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = fileExists(filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.False(t, exists)

	// A path "under" a regular file can't be stat'ed: it's an error, not a missing file.
	_, err = fileExists(filepath.Join(regularFile, "config.json"))
	assert.Error(t, err)
}

func TestDownloadFilesStatError(t *testing.T) {
	var fileRequests atomic.Int32
	server := newTestServer(t, &fileRequests)
	defer server.Close()

	// Cache directory is a regular file, so nothing can be stored in it.
	cacheFile := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.WriteFile(cacheFile, nil, 0644))
	repo := New(testRepoID).WithEndpoint(server.URL).WithCacheDir(cacheFile)
	require.NotPanics(t, func() {
		_, err := repo.DownloadFiles(VocabFile)
		assert.Error(t, err)
	})
	assert.Equal(t, int32(0), fileRequests.Load())
}
