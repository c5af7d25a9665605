/*
Package engine wraps the platform text machinery used by font catalogs.

The engine knows how to discover font faces in a raw byte buffer: it expands
OpenType collections into their member fonts and variable fonts into their
named instances, and it reads informational strings and metrics from face
data. Catalog building and reporting (packages catalog and report) go through
this facade exclusively, they never touch font binaries themselves.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package engine

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/npillmayer/fontcatalog/core"
	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/tracing"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// tracer writes to trace with key 'fontcatalog.engine'
func tracer() tracing.Trace {
	return tracing.Select("fontcatalog.engine")
}

// ErrNotImplemented signals that the advanced catalog-building machinery is
// absent from the engine. Callers negotiating capabilities treat this as a
// normal "unavailable" outcome, not as a failure (see package capability).
var ErrNotImplemented = errors.New("engine does not implement advanced catalog building")

// ErrUnsupportedFormat signals a buffer the engine cannot use as font data,
// either because it is not font data at all or because it is packed
// (WOFF/WOFF2) and has to be decompressed first.
var ErrUnsupportedFormat = errors.New("buffer is not usable font data")

// AcquireAdvanced probes the engine for the advanced catalog-building
// machinery (in-memory font registration and remote font fetching).
//
// Engines without the machinery respond with ErrNotImplemented. Setting the
// configuration key "engine.force-basic" simulates such an engine, mirroring
// platform installations that pre-date the advanced interfaces.
func AcquireAdvanced(conf schuko.Configuration) error {
	if conf != nil && conf.GetString("engine.force-basic") != "" {
		tracer().Infof("engine restricted to basic feature level by configuration")
		return ErrNotImplemented
	}
	return nil
}

// --- Face discovery --------------------------------------------------------

// FaceInfo describes one logical font face discovered in a byte buffer.
// A buffer may expand into multiple faces: member fonts of a collection and
// named instances of variable fonts each count as a face of their own.
type FaceInfo struct {
	Index          int    // flat index of this face within its buffer
	Member         int    // member font within a collection, 0 for single fonts
	Instance       int    // 1-based named-instance ordinal, 0 for static faces
	FullName       string // e.g. "Go Bold", read from the font's name table
	Family         string // e.g. "Go"
	PostscriptName string // e.g. "GoBold"
	UnitsPerEm     int
	XHeight        int // in font design units
	Collection     bool // true if the buffer holds more than one member font
}

// font container tags
const (
	tagTTCF = 0x74746366 // 'ttcf', OpenType collection
	tagWOFF = 0x774f4646 // 'wOFF', packed web font
	tagWOF2 = 0x774f4632 // 'wOF2', packed web font
)

// ParseFaces discovers all logical faces in a buffer of raw font data.
//
// Buffers in a packed format (WOFF, WOFF2) are rejected with an error of code
// core.EUNSUPPORTED: callers must decompress such data before registering it
// with a catalog. Buffers the engine cannot parse at all are rejected with
// the same code.
func ParseFaces(data []byte) ([]FaceInfo, error) {
	if len(data) < 4 {
		return nil, core.WrapError(ErrUnsupportedFormat, core.EUNSUPPORTED,
			"buffer too short to hold font data")
	}
	switch binary.BigEndian.Uint32(data) {
	case tagWOFF, tagWOF2:
		return nil, core.WrapError(ErrUnsupportedFormat, core.EUNSUPPORTED,
			"packed font data (WOFF/WOFF2) must be decompressed before use")
	}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, core.WrapError(fmt.Errorf("%w: %v", ErrUnsupportedFormat, err),
			core.EUNSUPPORTED, "buffer is not recognizable font data")
	}
	offsets, err := memberOffsets(data, coll.NumFonts())
	if err != nil {
		return nil, core.WrapError(err, core.EUNSUPPORTED, "font collection header is inconsistent")
	}
	isCollection := coll.NumFonts() > 1
	var faces []FaceInfo
	var buf sfnt.Buffer
	for member := 0; member < coll.NumFonts(); member++ {
		f, err := coll.Font(member)
		if err != nil {
			return nil, core.WrapError(err, core.EUNSUPPORTED,
				"member %d of font collection cannot be parsed", member)
		}
		info := readFaceInfo(f, &buf)
		info.Member = member
		info.Collection = isCollection
		instances := scanNamedInstances(data, offsets[member])
		if len(instances) == 0 {
			info.Index = len(faces)
			faces = append(faces, info)
			continue
		}
		tracer().Debugf("member %d is a variable font with %d named instances", member, len(instances))
		for k, inst := range instances {
			instInfo := info
			instInfo.Index = len(faces)
			instInfo.Instance = k + 1
			if name := nameByID(f, &buf, inst.subfamilyNameID); name != "" {
				instInfo.FullName = instInfo.Family + " " + name
			} else {
				instInfo.FullName = fmt.Sprintf("%s Instance %d", instInfo.Family, k+1)
			}
			if psname := nameByID(f, &buf, inst.postscriptNameID); psname != "" {
				instInfo.PostscriptName = psname
			}
			faces = append(faces, instInfo)
		}
	}
	return faces, nil
}

func readFaceInfo(f *sfnt.Font, buf *sfnt.Buffer) FaceInfo {
	info := FaceInfo{}
	info.FullName, _ = f.Name(buf, sfnt.NameIDFull)
	info.Family, _ = f.Name(buf, sfnt.NameIDFamily)
	info.PostscriptName, _ = f.Name(buf, sfnt.NameIDPostScript)
	upem := int(f.UnitsPerEm())
	info.UnitsPerEm = upem
	// Asking for metrics at ppem = units-per-em makes the returned fixed-point
	// values numerically equal to font design units.
	metrics, err := f.Metrics(buf, fixed.I(upem), xfont.HintingNone)
	if err != nil {
		tracer().Errorf("cannot read face metrics: %v", err)
		return info
	}
	info.XHeight = metrics.XHeight.Round()
	if info.XHeight < 0 { // some fonts encode heights with inverted sign
		info.XHeight = -info.XHeight
	}
	return info
}

func nameByID(f *sfnt.Font, buf *sfnt.Buffer, nameID uint16) string {
	if nameID == 0 {
		return ""
	}
	name, err := f.Name(buf, sfnt.NameID(nameID))
	if err != nil {
		return ""
	}
	return name
}
