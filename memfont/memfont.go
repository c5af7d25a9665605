/*
Package memfont registers in-memory font buffers as pseudo-files.

The text engine addresses font data through file-like identifiers. For fonts
that only exist as byte buffers (application resources, document-embedded
fonts) a loader hands the engine a pseudo-file view of each registered buffer:
the Loader type implements io/fs.FS over its registrations.

Registering a loader is a shared, global act relative to the catalogs built
through it: the registration must stay alive as long as any such catalog is
queried, and it must be torn down exactly once afterwards. The loader keeps a
reference count for this; catalogs acquire a reference when finalized and
release it when discarded. Release failures are logged, never propagated.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package memfont

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/npillmayer/fontcatalog"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontcatalog.memfont'
func tracer() tracing.Trace {
	return tracing.Select("fontcatalog.memfont")
}

// ErrDuplicateIdentifier is returned when a pseudo-file identifier is
// registered twice with the same loader.
var ErrDuplicateIdentifier = errors.New("pseudo-file identifier already registered")

// ErrLoaderReleased is returned for operations on a loader whose registration
// has been torn down.
var ErrLoaderReleased = errors.New("font file loader has been released")

// Loader is an in-memory pseudo-file system for font buffers. The zero value
// is not usable; create loaders with NewLoader.
//
// A Loader is safe for concurrent use. Registered entries keep a reference to
// the buffer's owner, pinning the owner for the registration's lifetime.
type Loader struct {
	mu       sync.Mutex
	refs     int
	seq      int
	released bool
	entries  map[string]fontcatalog.FontBuffer
}

// NewLoader creates a loader and registers it with the engine. The caller
// holds the initial reference; see Release.
func NewLoader() *Loader {
	tracer().Debugf("registering in-memory font file loader")
	return &Loader{
		refs:    1,
		entries: make(map[string]fontcatalog.FontBuffer),
	}
}

// NewIdentifier hands out a fresh pseudo-file identifier, unique for this
// loader. All clients registering buffers with a shared loader should take
// their identifiers from here.
func (l *Loader) NewIdentifier() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	return fmt.Sprintf("%04d.font", l.seq)
}

// Register adds a font buffer under a pseudo-file identifier. The buffer's
// bytes are borrowed, not copied; its owner is pinned until the loader is
// fully released. Empty buffers and duplicate identifiers are rejected.
func (l *Loader) Register(id string, buf fontcatalog.FontBuffer) error {
	if buf.IsVoid() {
		return errors.New("cannot register empty font buffer")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return ErrLoaderReleased
	}
	if _, ok := l.entries[id]; ok {
		return ErrDuplicateIdentifier
	}
	owner := "<unowned>"
	if buf.Owner != nil {
		owner = buf.Owner.Tag()
	}
	tracer().Debugf("loader registers %d font bytes of %s as %q", len(buf.Data), owner, id)
	l.entries[id] = buf
	return nil
}

// Acquire takes an additional reference on the loader's registration.
// Catalogs call this when finalized, so that releasing the caller's reference
// cannot invalidate pseudo-files a live catalog still reads from.
func (l *Loader) Acquire() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		tracer().Errorf("acquire on a released font file loader")
		return
	}
	l.refs++
}

// Release drops one reference on the loader's registration. When the last
// reference is gone the registration is torn down and the loader stops
// serving pseudo-files. Surplus releases are logged and otherwise ignored,
// as Release runs on cleanup paths that must not fail.
func (l *Loader) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		tracer().Errorf("release on an already released font file loader")
		return
	}
	l.refs--
	if l.refs > 0 {
		return
	}
	tracer().Debugf("unregistering in-memory font file loader (%d entries)", len(l.entries))
	l.released = true
	l.entries = nil
}

// --- fs.FS -----------------------------------------------------------------

// Open returns a read-only pseudo-file for a registered identifier.
// Open is part of interface io/fs.FS.
func (l *Loader) Open(name string) (fs.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrLoaderReleased}
	}
	buf, ok := l.entries[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &memFile{name: name, r: bytes.NewReader(buf.Data)}, nil
}

var _ fs.FS = &Loader{}

type memFile struct {
	name string
	r    *bytes.Reader
}

func (f *memFile) Stat() (fs.FileInfo, error) {
	return memFileInfo{name: f.name, size: f.r.Size()}, nil
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.r == nil {
		return 0, io.EOF
	}
	return f.r.Read(p)
}

func (f *memFile) Close() error {
	f.r = nil
	return nil
}

type memFileInfo struct {
	name string
	size int64
}

func (fi memFileInfo) Name() string       { return fi.name }
func (fi memFileInfo) Size() int64        { return fi.size }
func (fi memFileInfo) Mode() fs.FileMode  { return 0444 }
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return false }
func (fi memFileInfo) Sys() interface{}   { return nil }
