/*
Package catalog assembles immutable catalogs of font faces.

A catalog is built once from heterogeneous sources (in-memory font buffers
and references to remote fonts) and is read-only afterwards. Builders expand
every added buffer into its logical faces (collection members, named
instances of variable fonts) by way of the text engine, and register buffer
bytes as pseudo-files with an in-memory font loader (package memfont).

Face identity and order are fixed at finalization. Concurrent read-only
queries of a finalized catalog are safe.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package catalog

import (
	"context"
	"io/fs"
	"strings"

	"github.com/derekparker/trie"
	"github.com/npillmayer/fontcatalog"
	"github.com/npillmayer/fontcatalog/core"
	"github.com/npillmayer/fontcatalog/engine"
	"github.com/npillmayer/fontcatalog/memfont"
	"github.com/npillmayer/fontcatalog/remote"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontcatalog.catalog'
func tracer() tracing.Trace {
	return tracing.Select("fontcatalog.catalog")
}

// Catalog is a finalized, immutable, ordered collection of font faces.
// Catalogs are created by a Builder; the zero value is empty but valid.
type Catalog struct {
	loader *memfont.Loader
	queue  *remote.Queue
	faces  []*Face
	names  *trie.Trie
}

// Count returns the number of faces in the catalog. Zero is valid and means
// there is nothing to report on.
func (c *Catalog) Count() int {
	return len(c.faces)
}

// Face returns the face at the given index, or nil if index is out of range.
func (c *Catalog) Face(index int) *Face {
	if index < 0 || index >= len(c.faces) {
		return nil
	}
	return c.faces[index]
}

// SuggestNames returns the full names of catalog faces starting with prefix
// (case-insensitive).
func (c *Catalog) SuggestNames(prefix string) []string {
	if c.names == nil {
		return nil
	}
	var suggestions []string
	for _, key := range c.names.PrefixSearch(strings.ToLower(prefix)) {
		if node, ok := c.names.Find(key); ok {
			if display, ok := node.Meta().(string); ok {
				suggestions = append(suggestions, display)
			}
		}
	}
	return suggestions
}

// WaitForData blocks until the data of all faces whose fetch has been
// enqueued is resident, or until ctx is cancelled or times out.
func (c *Catalog) WaitForData(ctx context.Context) error {
	if c.queue == nil {
		return ctx.Err()
	}
	return c.queue.Wait(ctx)
}

// Discard releases the catalog's reference on the in-memory font loader.
// The catalog must not be queried afterwards. Discarding more than once is
// logged and otherwise ignored.
func (c *Catalog) Discard() {
	if c.loader != nil {
		c.loader.Release()
		c.loader = nil
	}
}

// --- Faces -----------------------------------------------------------------

// Face is a lightweight reference to one font face of a catalog. Resolving a
// face to its data-derived properties is a separate, potentially blocking
// step (see Resolve); all other methods answer from catalog metadata.
type Face struct {
	cat   *Catalog
	index int
	names map[fontcatalog.PropertyKind]fontcatalog.LocalizedStrings

	// exactly one of the two sources is set:
	fileID    string // pseudo-file of the buffer holding this face, plus
	faceIndex int    // the face's flat index within that buffer
	remoteRef *remoteRef
}

type remoteRef struct {
	name string // cache file name
	url  string
}

// Index returns the position of the face within its catalog.
func (f *Face) Index() int {
	return f.index
}

// Locality reports whether the face's data is resident. Faces from in-memory
// buffers are local by construction; remote faces become local once their
// download has completed.
func (f *Face) Locality() fontcatalog.Locality {
	if f.remoteRef == nil {
		return fontcatalog.LocalityLocal
	}
	if f.cat.queue != nil && f.cat.queue.IsLocal(f.remoteRef.name, f.remoteRef.url) {
		return fontcatalog.LocalityLocal
	}
	return fontcatalog.LocalityRemote
}

// Properties returns the localized catalog metadata for one property kind.
// The returned map must not be modified.
func (f *Face) Properties(kind fontcatalog.PropertyKind) fontcatalog.LocalizedStrings {
	return f.names[kind]
}

// Property returns the metadata value of a property kind for a preferred
// locale, falling back per fontcatalog.LocalizedStrings.Best.
func (f *Face) Property(kind fontcatalog.PropertyKind, preferredLocale string) string {
	return f.names[kind].Best(preferredLocale)
}

// EnqueueFetch requests the face's data to be made resident, without
// blocking. For local faces, and for faces whose fetch is already underway,
// this is a no-op.
func (f *Face) EnqueueFetch() {
	if f.remoteRef == nil || f.cat.queue == nil {
		return
	}
	f.cat.queue.Enqueue(f.remoteRef.name, f.remoteRef.url)
}

// ResolvedFace holds properties read directly from a face's font data. They
// may differ from catalog metadata, which can stem from external sources.
type ResolvedFace struct {
	FullName   string
	XHeight    int // in font design units
	UnitsPerEm int
}

// Resolve materializes the face from its font data. For remote faces this
// may fetch the data first, blocking until it is resident or ctx is done.
func (f *Face) Resolve(ctx context.Context) (ResolvedFace, error) {
	data, err := f.data(ctx)
	if err != nil {
		return ResolvedFace{}, err
	}
	faces, err := engine.ParseFaces(data)
	if err != nil {
		return ResolvedFace{}, err
	}
	inx := f.faceIndex
	if inx >= len(faces) {
		return ResolvedFace{}, core.Error(core.EINTERNAL,
			"face %d expected at position %d of its buffer, buffer has %d", f.index, inx, len(faces))
	}
	info := faces[inx]
	return ResolvedFace{
		FullName:   info.FullName,
		XHeight:    info.XHeight,
		UnitsPerEm: info.UnitsPerEm,
	}, nil
}

func (f *Face) data(ctx context.Context) ([]byte, error) {
	if f.remoteRef != nil {
		data, err := f.cat.queue.Data(f.remoteRef.name, f.remoteRef.url)
		if err == nil {
			return data, nil
		}
		tracer().Debugf("face %d not resident, fetching synchronously", f.index)
		return f.cat.queue.Fetch(ctx, f.remoteRef.name, f.remoteRef.url)
	}
	data, err := fs.ReadFile(f.cat.loader, f.fileID)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING,
			"pseudo-file %q for face %d cannot be read", f.fileID, f.index)
	}
	return data, nil
}
