package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/npillmayer/fontcatalog/core"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

func TestParseSingleFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.engine")
	defer teardown()
	//
	faces, err := ParseFaces(goregular.TTF)
	if err != nil {
		t.Fatalf("cannot parse Go Regular: %v", err)
	}
	if len(faces) != 1 {
		t.Fatalf("expected 1 face in Go Regular, got %d", len(faces))
	}
	face := faces[0]
	t.Logf("face = %+v", face)
	if face.Family != "Go" {
		t.Errorf("expected family 'Go', got %q", face.Family)
	}
	if face.FullName == "" || face.PostscriptName == "" {
		t.Errorf("expected non-empty name strings, got %q / %q", face.FullName, face.PostscriptName)
	}
	if face.Collection || face.Member != 0 || face.Instance != 0 {
		t.Errorf("expected a plain static single font, got %+v", face)
	}
	if face.UnitsPerEm <= 0 || face.XHeight <= 0 || face.XHeight >= face.UnitsPerEm {
		t.Errorf("implausible metrics: x-height %d at %d units/em", face.XHeight, face.UnitsPerEm)
	}
}

func TestParseCollection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.engine")
	defer teardown()
	//
	coll, err := BuildCollection(goregular.TTF, gobold.TTF)
	if err != nil {
		t.Fatalf("cannot assemble test collection: %v", err)
	}
	faces, err := ParseFaces(coll)
	if err != nil {
		t.Fatalf("cannot parse collection: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("expected 2 faces in collection, got %d", len(faces))
	}
	for i, face := range faces {
		if !face.Collection {
			t.Errorf("face %d not flagged as collection member", i)
		}
		if face.Member != i || face.Index != i {
			t.Errorf("face %d has member %d, index %d", i, face.Member, face.Index)
		}
	}
	if faces[0].FullName == faces[1].FullName {
		t.Errorf("members should keep distinct names, both are %q", faces[0].FullName)
	}
}

func TestRejectPackedFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.engine")
	defer teardown()
	//
	woff := append([]byte("wOFF"), goregular.TTF[:64]...)
	_, err := ParseFaces(woff)
	if core.Code(err) != core.EUNSUPPORTED {
		t.Errorf("expected EUNSUPPORTED for WOFF data, got %v", err)
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected error to wrap ErrUnsupportedFormat, got %v", err)
	}
	if _, err := ParseFaces([]byte("this is not font data")); core.Code(err) != core.EUNSUPPORTED {
		t.Errorf("expected EUNSUPPORTED for garbage, got %v", err)
	}
	if _, err := ParseFaces(nil); core.Code(err) != core.EUNSUPPORTED {
		t.Errorf("expected EUNSUPPORTED for empty buffer, got %v", err)
	}
}

// TestScanNamedInstances feeds the 'fvar' scanner a hand-built table
// directory: one variable font with one axis and two named instances.
func TestScanNamedInstances(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.engine")
	defer teardown()
	//
	fvar := make([]byte, 52)
	binary.BigEndian.PutUint16(fvar[4:], 16) // axes array offset
	binary.BigEndian.PutUint16(fvar[8:], 1)  // axis count
	binary.BigEndian.PutUint16(fvar[10:], 20)
	binary.BigEndian.PutUint16(fvar[12:], 2) // instance count
	binary.BigEndian.PutUint16(fvar[14:], 8) // instance size, without PS name ID
	binary.BigEndian.PutUint16(fvar[36:], 257)
	binary.BigEndian.PutUint16(fvar[44:], 258)
	data := make([]byte, 28+len(fvar))
	binary.BigEndian.PutUint32(data[0:], 0x00010000)
	binary.BigEndian.PutUint16(data[4:], 1) // one table record
	copy(data[12:16], "fvar")
	binary.BigEndian.PutUint32(data[20:], 28)
	binary.BigEndian.PutUint32(data[24:], uint32(len(fvar)))
	copy(data[28:], fvar)
	//
	instances := scanNamedInstances(data, 0)
	if len(instances) != 2 {
		t.Fatalf("expected 2 named instances, got %d", len(instances))
	}
	if instances[0].subfamilyNameID != 257 || instances[1].subfamilyNameID != 258 {
		t.Errorf("expected subfamily name IDs 257/258, got %d/%d",
			instances[0].subfamilyNameID, instances[1].subfamilyNameID)
	}
	if instances[0].postscriptNameID != 0 {
		t.Errorf("instance record without PS name ID should yield 0, got %d",
			instances[0].postscriptNameID)
	}
}

// insertTable grows a font's table directory by one entry, keeping the
// directory sorted by tag and shifting the existing table data accordingly.
func insertTable(font []byte, tag string, table []byte) []byte {
	const recordSize = 16
	n := int(binary.BigEndian.Uint16(font[4:6]))
	rec := make([]byte, recordSize)
	copy(rec, tag)
	binary.BigEndian.PutUint32(rec[8:], uint32(len(font)+recordSize))
	binary.BigEndian.PutUint32(rec[12:], uint32(len(table)))
	out := make([]byte, 0, len(font)+recordSize+len(table))
	out = append(out, font[:12]...)
	binary.BigEndian.PutUint16(out[4:6], uint16(n+1))
	inserted := false
	for i := 0; i < n; i++ {
		r := make([]byte, recordSize)
		copy(r, font[12+recordSize*i:])
		if !inserted && bytes.Compare(rec[:4], r[:4]) < 0 {
			out = append(out, rec...)
			inserted = true
		}
		off := binary.BigEndian.Uint32(r[8:12])
		binary.BigEndian.PutUint32(r[8:], off+recordSize)
		out = append(out, r...)
	}
	if !inserted {
		out = append(out, rec...)
	}
	out = append(out, font[12+recordSize*n:]...)
	return append(out, table...)
}

// TestParseNamedInstances grafts an 'fvar' table with one axis and two named
// instances onto a static font and checks that ParseFaces expands the buffer
// into one face per instance, with instance names resolved from the font's
// name table.
func TestParseNamedInstances(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.engine")
	defer teardown()
	//
	base, err := ParseFaces(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	fvar := make([]byte, 56)
	binary.BigEndian.PutUint32(fvar[0:], 0x00010000)
	binary.BigEndian.PutUint16(fvar[4:], 16)   // axes array offset
	binary.BigEndian.PutUint16(fvar[8:], 1)    // axis count
	binary.BigEndian.PutUint16(fvar[10:], 20)  // axis size
	binary.BigEndian.PutUint16(fvar[12:], 2)   // instance count
	binary.BigEndian.PutUint16(fvar[14:], 10)  // instance size, with PS name ID
	binary.BigEndian.PutUint16(fvar[36:], 2)   // instance 1 subfamily: name ID 2, "Regular"
	binary.BigEndian.PutUint16(fvar[44:], 1)   // instance 1 PS name: name ID 1, "Go"
	binary.BigEndian.PutUint16(fvar[46:], 300) // instance 2 subfamily: no such name ID
	//
	faces, err := ParseFaces(insertTable(goregular.TTF, "fvar", fvar))
	if err != nil {
		t.Fatalf("cannot parse variable font: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("expected 2 named-instance faces, got %d", len(faces))
	}
	for i, face := range faces {
		t.Logf("face %d = %+v", i, face)
		if face.Instance != i+1 || face.Index != i || face.Member != 0 {
			t.Errorf("face %d has instance %d, index %d", i, face.Instance, face.Index)
		}
	}
	if faces[0].FullName != "Go Regular" {
		t.Errorf("expected instance name 'Go Regular', got %q", faces[0].FullName)
	}
	if faces[0].PostscriptName != "Go" {
		t.Errorf("expected instance PS name override 'Go', got %q", faces[0].PostscriptName)
	}
	if faces[1].FullName != "Go Instance 2" {
		t.Errorf("expected fallback name 'Go Instance 2', got %q", faces[1].FullName)
	}
	if faces[1].PostscriptName != base[0].PostscriptName {
		t.Errorf("instance without PS name ID should keep the font's PS name, got %q",
			faces[1].PostscriptName)
	}
}

func TestScanNamedInstancesOnStaticFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.engine")
	defer teardown()
	//
	if instances := scanNamedInstances(goregular.TTF, 0); instances != nil {
		t.Errorf("static font should have no named instances, got %d", len(instances))
	}
}
