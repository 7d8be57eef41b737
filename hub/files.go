package hub

import (
	"context"
	"iter"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// IterFileNames iterate over the file names stored in the repo.
// It doesn't trigger the downloading of the repo, only of the repo info.
func (r *Repo) IterFileNames() iter.Seq2[string, error] {
	// Download info and files.
	err := r.DownloadInfo(false)
	if err != nil {
		// Error downloading: yield error only.
		return func(yield func(string, error) bool) {
			yield("", err)
		}
	}
	return func(yield func(string, error) bool) {
		for _, si := range r.info.Siblings {
			fileName := si.Name
			if path.IsAbs(fileName) || strings.Contains(fileName, "..") {
				yield("", errors.Errorf("repository %q contains illegal file name %q -- it cannot be an absolute path, nor contain \"..\"",
					r.ID, fileName))
				return
			}
			if !yield(fileName, nil) {
				return
			}
		}
	}
}

// HasFile returns whether the repository lists the given file.
// It returns false if the repository info can't be downloaded.
func (r *Repo) HasFile(fileName string) bool {
	for name, err := range r.IterFileNames() {
		if err != nil {
			return false
		}
		if name == fileName {
			return true
		}
	}
	return false
}

// cleanRelativeFilePath returns a relative path, with the OS separator, that can't escape
// the directory it is joined to.
func cleanRelativeFilePath(fileName string) string {
	cleaned := strings.TrimPrefix(path.Clean("/"+fileName), "/")
	if cleaned == "" {
		cleaned = "."
	}
	return filepath.FromSlash(cleaned)
}

// DownloadFiles downloads the repository files, and return the path to the downloaded files in the cache structure.
// Files already in the cache are not downloaded again. Files are downloaded in parallel, within the limits of the
// download manager.
//
// The returned downloadPaths can be read, but shouldn't be modified, since there may be other programs using the same
// files.
func (r *Repo) DownloadFiles(fileNames ...string) (downloadedPaths []string, err error) {
	if len(fileNames) == 0 {
		return
	}
	snapshotsDir, err := r.repoSnapshotsDir()
	if err != nil {
		return nil, err
	}

	downloadedPaths = make([]string, len(fileNames))
	urls := make([]string, len(fileNames))
	for ii, fileName := range fileNames {
		relativePath := cleanRelativeFilePath(fileName)
		if relativePath == "." {
			return nil, errors.Errorf("invalid file name %q to download from %q", fileName, r.ID)
		}
		downloadedPaths[ii] = filepath.Join(snapshotsDir, relativePath)
		urls[ii], err = r.FileURL(filepath.ToSlash(relativePath))
		if err != nil {
			return nil, err
		}
	}

	errs := make([]error, len(fileNames))
	var wg sync.WaitGroup
	for ii, fileName := range fileNames {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[ii] = r.lockedDownload(context.Background(), urls[ii], downloadedPaths[ii], false, fileName)
		}()
	}
	wg.Wait()
	for ii, err := range errs {
		if err != nil {
			return nil, errors.WithMessagef(err, "while downloading %q from %q", fileNames[ii], r.ID)
		}
	}
	return downloadedPaths, nil
}

// DownloadFile is a shortcut to DownloadFiles with only one file.
func (r *Repo) DownloadFile(fileName string) (downloadedPath string, err error) {
	res, err := r.DownloadFiles(fileName)
	if err != nil {
		return "", err
	}
	return res[0], nil
}
