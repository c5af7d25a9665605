package engine

import (
	"encoding/binary"

	"github.com/npillmayer/fontcatalog/core"
)

// Reading segments of a font's binary table structure. The engine library
// underneath does not surface raw tables, so the few structures needed here
// (collection header, table directory, 'fvar' header) are read directly.
// Offsets and field layout follow the OpenType specification version 1.8.4,
// https://docs.microsoft.com/en-us/typography/opentype/spec/.

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler.
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler.
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

// memberOffsets returns the byte offset of each member font's table directory
// within data. For a single font that is just offset 0; for a collection the
// offsets come from the 'ttcf' header.
func memberOffsets(data []byte, numFonts int) ([]uint32, error) {
	if len(data) < 12 || binary.BigEndian.Uint32(data) != tagTTCF {
		return []uint32{0}, nil
	}
	declared := int(u32(data[8:12]))
	if declared != numFonts || len(data) < 12+4*numFonts {
		return nil, core.Error(core.EINVALID, "collection header declares %d fonts, engine found %d",
			declared, numFonts)
	}
	offsets := make([]uint32, numFonts)
	for i := 0; i < numFonts; i++ {
		offsets[i] = u32(data[12+4*i:])
	}
	return offsets, nil
}

type namedInstance struct {
	subfamilyNameID  uint16
	postscriptNameID uint16
}

// scanNamedInstances walks the table directory of the member font starting at
// dirOffset and collects the named instances of its 'fvar' table, if any.
// Fonts without an 'fvar' table, i.e. all non-variable fonts, yield nil.
// Malformed directories also yield nil: face discovery has already validated
// the font, so inconsistencies here only cost us instance expansion.
func scanNamedInstances(data []byte, dirOffset uint32) []namedInstance {
	const recordSize = 16
	dir := int(dirOffset)
	if len(data) < dir+12 {
		return nil
	}
	numTables := int(u16(data[dir+4:]))
	if len(data) < dir+12+recordSize*numTables {
		return nil
	}
	var fvarOff, fvarLen uint32
	for i := 0; i < numTables; i++ {
		rec := data[dir+12+recordSize*i:]
		if string(rec[0:4]) == "fvar" {
			fvarOff, fvarLen = u32(rec[8:12]), u32(rec[12:16])
			break
		}
	}
	if fvarOff == 0 || fvarLen < 16 || uint32(len(data)) < fvarOff+fvarLen {
		return nil
	}
	fvar := data[fvarOff : fvarOff+fvarLen]
	axesArrayOffset := int(u16(fvar[4:]))
	axisCount := int(u16(fvar[8:]))
	axisSize := int(u16(fvar[10:]))
	instanceCount := int(u16(fvar[12:]))
	instanceSize := int(u16(fvar[14:]))
	if instanceCount == 0 || instanceSize < 4+4*axisCount {
		return nil
	}
	instances := make([]namedInstance, 0, instanceCount)
	pos := axesArrayOffset + axisCount*axisSize
	for i := 0; i < instanceCount; i++ {
		if pos+instanceSize > len(fvar) {
			return nil
		}
		inst := namedInstance{subfamilyNameID: u16(fvar[pos:])}
		if instanceSize >= 4+4*axisCount+2 { // instance record carries a PS name ID
			inst.postscriptNameID = u16(fvar[pos+4+4*axisCount:])
		}
		instances = append(instances, inst)
		pos += instanceSize
	}
	return instances
}

// --- Collection assembly ---------------------------------------------------

// BuildCollection assembles single-font buffers into an OpenType collection
// ('ttcf') buffer. Table data is copied and table-record offsets are shifted
// to their new positions; tables are not shared between member fonts.
//
// This is a developer utility, mainly useful for producing multi-face test
// data; production collections are better built with a font editor.
func BuildCollection(fonts ...[]byte) ([]byte, error) {
	if len(fonts) == 0 {
		return nil, core.Error(core.EINVALID, "collection needs at least one font")
	}
	const recordSize = 16
	header := 12 + 4*len(fonts)
	size := header
	offsets := make([]uint32, len(fonts))
	for i, f := range fonts {
		size = (size + 3) &^ 3 // member directories start on 4-byte boundaries
		offsets[i] = uint32(size)
		size += len(f)
	}
	out := make([]byte, size)
	binary.BigEndian.PutUint32(out[0:], tagTTCF)
	binary.BigEndian.PutUint32(out[4:], 0x00010000)
	binary.BigEndian.PutUint32(out[8:], uint32(len(fonts)))
	for i := range fonts {
		binary.BigEndian.PutUint32(out[12+4*i:], offsets[i])
	}
	for i, f := range fonts {
		if len(f) < 12 {
			return nil, core.Error(core.EINVALID, "font %d too short for a table directory", i)
		}
		numTables := int(u16(f[4:6]))
		if len(f) < 12+recordSize*numTables {
			return nil, core.Error(core.EINVALID, "font %d has a truncated table directory", i)
		}
		delta := offsets[i]
		copy(out[delta:], f)
		for t := 0; t < numTables; t++ {
			recOff := int(delta) + 12 + recordSize*t
			old := u32(out[recOff+8 : recOff+12])
			binary.BigEndian.PutUint32(out[recOff+8:], old+delta)
		}
	}
	return out, nil
}
