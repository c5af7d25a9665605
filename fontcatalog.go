/*
Package fontcatalog builds custom catalogs of fonts from in-memory data and
reports on their faces.

Font data enters a catalog as byte buffers. A buffer may stem from any source:
a font packaged with the application binary, a font embedded in a document, a
file read from the system's font folders. The catalog never copies font bytes,
it only borrows them. Each buffer therefore carries a reference to an owner
object which guarantees the bytes to stay valid for as long as the catalog may
read them.

A catalog is built once, with a Builder, and is immutable afterwards.
Catalogs may contain faces whose data is not resident yet ("remote" faces).
Reporting on such faces requires fetching their data first, which is done with
bounded, cancellable waiting (see package report).

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontcatalog

import (
	"sort"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"
)

// tracer writes to trace with key 'fontcatalog'
func tracer() tracing.Trace {
	return tracing.Select("fontcatalog")
}

// Owner is an object holding the memory of one or more font buffers.
// Owners must keep the buffer bytes valid and unchanged for at least as long
// as a catalog entry references them. Catalogs store a (strong) reference to
// the owner of every buffer added, thus in Go an owner will not be collected
// before the catalog is.
type Owner interface {
	Tag() string // short identifier of the owning object, used for tracing
}

// FontBuffer is an immutable span of font bytes together with the object
// owning the bytes. The data is expected to be raw OpenType font data, either
// a single font or a font collection. Packed formats (WOFF, WOFF2) have to be
// decompressed by the caller before handing the buffer to a catalog builder.
type FontBuffer struct {
	Data  []byte
	Owner Owner
}

// IsVoid returns true for a buffer without data.
func (b FontBuffer) IsVoid() bool {
	return len(b.Data) == 0
}

// --- Locality --------------------------------------------------------------

// Locality describes whether the data of a font face is resident in memory
// or local cache, or still has to be fetched from a remote source.
type Locality int

const (
	LocalityLocal  Locality = iota // face data is resident
	LocalityRemote                 // face data must be fetched before use
)

func (l Locality) String() string {
	if l == LocalityLocal {
		return "local"
	}
	return "remote"
}

// --- Face properties -------------------------------------------------------

// PropertyKind selects an informational string property of a font face.
type PropertyKind int

const (
	PropertyFullName       PropertyKind = iota // e.g. "Go Bold"
	PropertyFamilyName                         // e.g. "Go"
	PropertyPostscriptName                     // e.g. "GoBold"
)

func (p PropertyKind) String() string {
	switch p {
	case PropertyFullName:
		return "full-name"
	case PropertyFamilyName:
		return "family-name"
	case PropertyPostscriptName:
		return "postscript-name"
	}
	return "unknown-property"
}

// DefaultLocale is the fallback locale for localized face properties.
const DefaultLocale = "en-US"

// LocalizedStrings holds the localized variants of one informational string
// property of a face, keyed by BCP-47 locale tag.
type LocalizedStrings map[string]string

// Best returns the property value for a preferred locale. If the preferred
// locale is absent, the variant for DefaultLocale is returned, and failing
// that, the variant for the lexicographically first locale present. Best
// returns "" for empty property maps only.
func (ls LocalizedStrings) Best(preferred string) string {
	if len(ls) == 0 {
		return ""
	}
	locales := make([]string, 0, len(ls))
	for loc := range ls {
		locales = append(locales, loc)
	}
	sort.Strings(locales) // deterministic matcher input
	tags := make([]language.Tag, len(locales))
	for i, loc := range locales {
		tags[i] = language.Make(loc)
	}
	m := language.NewMatcher(tags)
	if _, index, conf := m.Match(language.Make(preferred)); conf > language.No {
		return ls[locales[index]]
	}
	if v, ok := ls[DefaultLocale]; ok {
		return v
	}
	return ls[locales[0]]
}
