/*
Package remote fetches the data of non-resident font faces.

A catalog may reference faces whose bytes live on a remote server. Fetching
is organized around a download queue: enqueueing is a cheap, idempotent,
fire-and-forget operation, and all enqueued downloads run concurrently in the
background. Waiting for the queue to drain is a separate, cancellable step,
so callers can enqueue requests for many faces first and then block once.
Cancelling a wait does not retract downloads already in flight; they may
still complete and populate the font cache for later calls.

Downloaded fonts are cached in the user's cache directory and are not fetched
again once present.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/npillmayer/fontcatalog/core"
	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontcatalog.remote'
func tracer() tracing.Trace {
	return tracing.Select("fontcatalog.remote")
}

// IO decouples the queue from host I/O, primarily for testing.
// A nil IO given to NewQueue selects the OS-backed implementation.
type IO interface {
	HTTPGet(url string) (*http.Response, error)
	UserCacheDir() (string, error)
	Stat(path string) (os.FileInfo, error)
	MkdirAll(path string, perm fs.FileMode) error
	Create(path string) (io.WriteCloser, error)
	ReadFile(path string) ([]byte, error)
}

type systemIO struct{}

func (systemIO) HTTPGet(url string) (*http.Response, error) { return http.Get(url) }
func (systemIO) UserCacheDir() (string, error)              { return os.UserCacheDir() }
func (systemIO) Stat(path string) (os.FileInfo, error)      { return os.Stat(path) }
func (systemIO) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}
func (systemIO) Create(path string) (io.WriteCloser, error) { return os.Create(path) }
func (systemIO) ReadFile(path string) ([]byte, error)       { return os.ReadFile(path) }

// Queue is a download queue for remote font data. Create queues with
// NewQueue; a Queue is safe for concurrent use.
type Queue struct {
	io   IO
	conf schuko.Configuration

	mu        sync.Mutex
	downloads map[string]*download // keyed by URL
}

type download struct {
	name string
	url  string
	done chan struct{}
	path string // cache location, set on success
	err  error
}

// NewQueue creates a download queue. hostio may be nil to use OS-backed I/O.
func NewQueue(conf schuko.Configuration, hostio IO) *Queue {
	if hostio == nil {
		hostio = systemIO{}
	}
	return &Queue{
		io:        hostio,
		conf:      conf,
		downloads: make(map[string]*download),
	}
}

// Enqueue requests the font at url to be downloaded in the background, to be
// cached under the given file name. Enqueueing the same URL twice, or a URL
// whose font is already cached, is a no-op; Enqueue never blocks on network
// traffic.
func (q *Queue) Enqueue(name, url string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.downloads[url]; ok {
		return
	}
	d := &download{name: name, url: url, done: make(chan struct{})}
	q.downloads[url] = d
	tracer().Debugf("enqueueing download of %q from %s", name, url)
	go q.run(d)
}

func (q *Queue) run(d *download) {
	defer close(d.done)
	dir, err := q.cacheFontDirPath(cacheSubfolder(d.name))
	if err != nil {
		d.err = core.WrapError(err, core.EINTERNAL, "no cache directory for remote fonts")
		return
	}
	path := filepath.Join(dir, d.name)
	if _, err := q.io.Stat(path); err == nil {
		tracer().Infof("font already cached: %s", path)
		d.path = path
		return
	}
	tracer().Infof("downloading font %q from %s", d.name, d.url)
	if err := q.downloadCachedFile(path, d.url); err != nil {
		tracer().Errorf("download of %s failed: %v", d.url, err)
		d.err = core.WrapError(err, core.ECONNECTION, "could not download font %q", d.name)
		return
	}
	d.path = path
}

// Wait blocks until every download enqueued so far has finished, or until ctx
// is cancelled or reaches its deadline, whichever comes first. Only the
// context error is reported; failures of individual downloads surface later,
// when the face data is read.
func (q *Queue) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	pending := make([]*download, 0, len(q.downloads))
	for _, d := range q.downloads {
		pending = append(pending, d)
	}
	q.mu.Unlock()
	for _, d := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.done:
		}
	}
	return nil
}

// Fetch downloads one font and returns its bytes, blocking until the data is
// available or ctx is done. Fetching an already cached font returns at once.
func (q *Queue) Fetch(ctx context.Context, name, url string) ([]byte, error) {
	q.Enqueue(name, url)
	q.mu.Lock()
	d := q.downloads[url]
	q.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
	}
	if d.err != nil {
		return nil, d.err
	}
	return q.io.ReadFile(d.path)
}

// Data returns the cached bytes for a previously fetched font, without
// waiting. It fails with code core.EMISSING if the data is not local yet.
func (q *Queue) Data(name, url string) ([]byte, error) {
	if path, ok := q.cached(name, url); ok {
		return q.io.ReadFile(path)
	}
	return nil, core.Error(core.EMISSING, "font data for %q has not been fetched", name)
}

// IsLocal reports whether the data for the given font is resident, either
// from a finished download or from an earlier run's cache.
func (q *Queue) IsLocal(name, url string) bool {
	_, ok := q.cached(name, url)
	return ok
}

func (q *Queue) cached(name, url string) (string, bool) {
	q.mu.Lock()
	d := q.downloads[url]
	q.mu.Unlock()
	if d != nil {
		select {
		case <-d.done:
			if d.err == nil {
				return d.path, true
			}
			return "", false
		default:
			return "", false // still in flight
		}
	}
	dir, err := q.cacheFontDirPath(cacheSubfolder(name))
	if err != nil {
		return "", false
	}
	path := filepath.Join(dir, name)
	if _, err := q.io.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// --- Cache directory and download ------------------------------------------

func cacheSubfolder(name string) string {
	if name == "" {
		return "_"
	}
	return strings.ToUpper(name[:1])
}

// cacheFontDirPath checks and possibly creates a folder in the user's font
// cache directory.
//
// First choice: directory path taken from configuration-key "fonts-cache-dir"
// plus subfolder.
//
// Second choice: the base cache directory taken from `os.UserCacheDir()`,
// plus an application specific key, taken as "app-key" from the
// configuration, plus "fonts" and the subfolder.
//
// Non-existing sub-folders will be created as necessary (permissions 750).
func (q *Queue) cacheFontDirPath(subfolder string) (cacheDir string, err error) {
	if cacheDir = q.conf.GetString("fonts-cache-dir"); cacheDir != "" {
		cacheDir = filepath.Join(cacheDir, subfolder)
	} else {
		appkey := q.conf.GetString("app-key")
		if appkey == "" {
			return "", errors.New("application key is not set")
		}
		if cacheDir, err = q.io.UserCacheDir(); err != nil {
			return "", err
		}
		cacheDir = filepath.Join(cacheDir, appkey, "fonts", subfolder)
	}
	if _, err = q.io.Stat(cacheDir); err != nil {
		err = q.io.MkdirAll(cacheDir, 0750)
	}
	return
}

// downloadCachedFile downloads a URL to a local file, usually located in the
// user's cache directory.
func (q *Queue) downloadCachedFile(filepath string, url string) error {
	resp, err := q.io.HTTPGet(url)
	if err != nil {
		return err
	}
	if resp == nil {
		return errors.New("download request returned nil response")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download request failed: %s", resp.Status)
	}
	out, err := q.io.Create(filepath)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, resp.Body)
	return err
}
