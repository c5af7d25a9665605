package catalog

import (
	"errors"
	"strings"

	"github.com/derekparker/trie"
	"github.com/npillmayer/fontcatalog"
	"github.com/npillmayer/fontcatalog/capability"
	"github.com/npillmayer/fontcatalog/core"
	"github.com/npillmayer/fontcatalog/engine"
	"github.com/npillmayer/fontcatalog/memfont"
	"github.com/npillmayer/fontcatalog/remote"
	"github.com/npillmayer/schuko"
)

// ErrAlreadyFinalized is returned for mutating calls on a builder whose
// catalog has been finalized.
var ErrAlreadyFinalized = errors.New("catalog builder is already finalized")

// Builder collects font sources and produces an immutable Catalog.
// Builders are for single-threaded use; the catalogs they produce are not.
type Builder struct {
	conf      schuko.Configuration
	loader    *memfont.Loader
	queue     *remote.Queue
	faces     []*Face
	finalized bool
}

// NewBuilder creates a catalog builder on top of an in-memory font loader.
//
// Building custom catalogs needs the engine's advanced capability; on
// engines without it NewBuilder fails with error code core.EUNAVAILABLE
// (callers should check capability.Advanced() beforehand). hostio may be nil
// to fetch remote faces with OS-backed I/O.
func NewBuilder(conf schuko.Configuration, loader *memfont.Loader, hostio remote.IO) (*Builder, error) {
	if err := capability.Check(conf); err != nil {
		return nil, err
	}
	if !capability.Advanced() {
		return nil, core.Error(core.EUNAVAILABLE,
			"this engine does not support building custom font catalogs")
	}
	if loader == nil {
		return nil, core.Error(core.EINVALID, "catalog builder needs a font file loader")
	}
	return &Builder{
		conf:   conf,
		loader: loader,
		queue:  remote.NewQueue(conf, hostio),
	}, nil
}

// AddBuffer registers a font buffer and adds all faces discoverable in it to
// the pending catalog: member fonts of collections and named instances of
// variable fonts expand automatically.
//
// Buffers that are not recognizable font data, including packed formats like
// WOFF2 which callers must decompress first, are rejected with error code
// core.EUNSUPPORTED. A failure to register the buffer as a pseudo-file
// carries code core.EINVALID. After Finalize, AddBuffer fails with
// ErrAlreadyFinalized and leaves the finalized catalog untouched.
func (b *Builder) AddBuffer(buf fontcatalog.FontBuffer) error {
	if b.finalized {
		return core.WrapError(ErrAlreadyFinalized, core.EINVALID, "catalog cannot grow any more")
	}
	if buf.IsVoid() {
		return core.Error(core.EINVALID, "refusing to add empty font buffer")
	}
	infos, err := engine.ParseFaces(buf.Data)
	if err != nil {
		return err
	}
	// identifiers come from the loader, so builders sharing it cannot collide
	id := b.loader.NewIdentifier()
	if err := b.loader.Register(id, buf); err != nil {
		return core.WrapError(err, core.EINVALID, "buffer registration with font loader failed")
	}
	for _, info := range infos {
		face := &Face{
			index:     len(b.faces),
			fileID:    id,
			faceIndex: info.Index,
			names: map[fontcatalog.PropertyKind]fontcatalog.LocalizedStrings{
				fontcatalog.PropertyFullName:       localized(info.FullName),
				fontcatalog.PropertyFamilyName:     localized(info.Family),
				fontcatalog.PropertyPostscriptName: localized(info.PostscriptName),
			},
		}
		b.faces = append(b.faces, face)
	}
	tracer().Infof("added buffer %q with %d face(s)", id, len(infos))
	return nil
}

// localized wraps a name read from font data. The engine reads informational
// strings with Anglo-centric preference, so they are filed under the default
// locale.
func localized(value string) fontcatalog.LocalizedStrings {
	if value == "" {
		return fontcatalog.LocalizedStrings{}
	}
	return fontcatalog.LocalizedStrings{fontcatalog.DefaultLocale: value}
}

// RemoteFaceInfo describes a font face whose data lives on a remote server.
// Catalog metadata for such faces comes from the caller, not from font data,
// and may carry any number of localized variants.
type RemoteFaceInfo struct {
	FullNames fontcatalog.LocalizedStrings
	Families  fontcatalog.LocalizedStrings
	Name      string // file name for the local font cache, e.g. "Antic-regular.ttf"
	URL       string
}

// AddRemoteFace adds a reference to a remote font to the pending catalog.
// No data is fetched; the face starts out with remote locality.
func (b *Builder) AddRemoteFace(info RemoteFaceInfo) error {
	if b.finalized {
		return core.WrapError(ErrAlreadyFinalized, core.EINVALID, "catalog cannot grow any more")
	}
	if info.URL == "" || info.Name == "" {
		return core.Error(core.EINVALID, "remote face needs both a URL and a cache name")
	}
	face := &Face{
		index:     len(b.faces),
		remoteRef: &remoteRef{name: info.Name, url: info.URL},
		names: map[fontcatalog.PropertyKind]fontcatalog.LocalizedStrings{
			fontcatalog.PropertyFullName:       info.FullNames,
			fontcatalog.PropertyFamilyName:     info.Families,
			fontcatalog.PropertyPostscriptName: {},
		},
	}
	b.faces = append(b.faces, face)
	tracer().Infof("added remote face %q", info.Name)
	return nil
}

// Finalize produces the immutable catalog from all sources added so far and
// seals the builder. The catalog takes a reference on the font loader;
// callers discard the catalog to release it.
func (b *Builder) Finalize() (*Catalog, error) {
	if b.finalized {
		return nil, core.WrapError(ErrAlreadyFinalized, core.EINVALID,
			"builder can finalize only one catalog")
	}
	b.finalized = true
	b.loader.Acquire()
	cat := &Catalog{
		loader: b.loader,
		queue:  b.queue,
		faces:  make([]*Face, len(b.faces)),
		names:  trie.New(),
	}
	copy(cat.faces, b.faces)
	for _, face := range cat.faces {
		face.cat = cat
		if full := face.Property(fontcatalog.PropertyFullName, fontcatalog.DefaultLocale); full != "" {
			cat.names.Add(strings.ToLower(full), full)
		}
	}
	tracer().Infof("finalized catalog with %d face(s)", cat.Count())
	return cat, nil
}
