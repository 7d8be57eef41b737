package hub

import (
	"context"
	"math/rand"
	"os"
	"path"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gomlx/ml/data/downloader"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// Generic download utilities.

// getDownloadManager returns current downloader.Manager, or creates a new one for this Repo.
func (r *Repo) getDownloadManager() *downloader.Manager {
	r.muDownload.Lock()
	defer r.muDownload.Unlock()
	if r.downloadManager == nil {
		r.downloadManager = downloader.New().MaxParallel(r.MaxParallelDownload).WithAuthToken(r.authToken)
	}
	return r.downloadManager
}

// progressCallback returns the callback reporting the download of the given file: a progress bar,
// if enabled, and a log line (verbosity 1) when done.
func (r *Repo) progressCallback(label string) downloader.ProgressCallback {
	var bar *progressbar.ProgressBar
	return func(downloadedBytes, totalBytes int64, finished bool, err error) {
		if r.useProgressBar && label != "" {
			if bar == nil {
				total := totalBytes
				if total <= 0 {
					total = -1 // Unknown size: spinner.
				}
				bar = progressbar.DefaultBytes(total, label)
			}
			_ = bar.Set64(downloadedBytes)
			if finished {
				_ = bar.Finish()
			}
		}
		if finished && err == nil && label != "" {
			klog.V(1).Infof("downloaded %q from %q: %s", label, r.ID, humanize.Bytes(uint64(downloadedBytes)))
		}
	}
}

// lockedDownload url to the given filePath.
//
// If filePath exits and forceDownload is false, it is assumed to already have been correctly downloaded, and it will return immediately.
//
// It downloads the file to filePath+".downloading" and then atomically move it to filePath.
//
// It uses a temporary filePath+".lock" to coordinate multiple processes/programs trying to download the same file at the same time.
//
// If label is not empty, the download progress is reported under that name.
func (r *Repo) lockedDownload(ctx context.Context, url, filePath string, forceDownload bool, label string) error {
	exists, err := fileExists(filePath)
	if err != nil {
		return err
	}
	if exists {
		if !forceDownload {
			return nil
		}
		if err = os.Remove(filePath); err != nil {
			return errors.Wrapf(err, "failed to remove %q while force-downloading %q", filePath, url)
		}
	}

	// Checks whether context has already been cancelled, and exit immediately.
	if err := ctx.Err(); err != nil {
		return err
	}

	// Create directory for file.
	if err := os.MkdirAll(path.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for file %q", filePath)
	}

	// Lock file to avoid parallel downloads.
	lockPath := filePath + ".lock"
	var mainErr error
	errLock := execOnFileLock(ctx, lockPath, func() {
		exists, err := fileExists(filePath)
		if err != nil || exists {
			// Either some concurrent other process (or goroutine) already downloaded the file, or it can't be checked.
			mainErr = err
			return
		}

		tmpPath := filePath + ".downloading"
		mainErr = r.getDownloadManager().Download(ctx, url, tmpPath, r.progressCallback(label))
		if mainErr != nil {
			if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
				klog.Warningf("Failed removing temporary file %q: %v", tmpPath, err)
			}
			mainErr = errors.WithMessagef(mainErr, "while downloading %q to %q", url, tmpPath)
			return
		}

		// Download succeeded, move to our target location.
		if err := os.Rename(tmpPath, filePath); err != nil {
			mainErr = errors.Wrapf(err, "failed to move downloaded file %q to %q", tmpPath, filePath)
			return
		}

		// File already exists, so we no longer need the lock file.
		if err := os.Remove(lockPath); err != nil {
			klog.Warningf("Error removing lock file %q: %+v", lockPath, err)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to download %q", lockPath, url)
	}
	return nil
}

// execOnFileLock opens the lockPath file (or creates if it doesn't yet exist), locks it, and executes the function.
// If the lockPath is already locked, it polls with a 1 to 2 seconds period (randomly), until it acquires the lock,
// or the context is cancelled.
//
// The lockPath is not removed. It's safe to remove it from the given fn, if one knows that no new calls to
// execOnFileLock with the same lockPath is going to be made.
func execOnFileLock(ctx context.Context, lockPath string, fn func()) (err error) {
	var f *os.File
	f, err = os.OpenFile(lockPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, DefaultFileCreationPerm)
	if err != nil {
		err = errors.Wrapf(err, "while locking %q", lockPath)
		return
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			klog.Warningf("Failed to close lock file %q: %v", lockPath, closeErr)
		}
	}()

	// Acquire lock or return an error if context is canceled.
	for {
		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			err = errors.Wrapf(err, "while locking %q", lockPath)
			return err
		}

		// Wait from 1 to 2 seconds.
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "while waiting for lock %q", lockPath)
		case <-time.After(time.Millisecond * time.Duration(1000+rand.Intn(1000))):
		}
	}

	// Setup clean up in a deferred function, so it happens even if `fn()` panics.
	defer func() {
		unlockErr := syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		if unlockErr != nil && err == nil {
			err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
		}
	}()

	// We got the lock, run the function.
	fn()
	return
}
