package memfont

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/npillmayer/fontcatalog"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

type owner string

func (o owner) Tag() string { return string(o) }

func buffer(content string) fontcatalog.FontBuffer {
	return fontcatalog.FontBuffer{Data: []byte(content), Owner: owner("test")}
}

func TestRegisterAndOpen(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.memfont")
	defer teardown()
	//
	loader := NewLoader()
	defer loader.Release()
	if err := loader.Register("0001.font", buffer("pseudo font bytes")); err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	data, err := fs.ReadFile(loader, "0001.font")
	if err != nil {
		t.Fatalf("cannot read pseudo-file: %v", err)
	}
	if string(data) != "pseudo font bytes" {
		t.Errorf("pseudo-file returned different bytes: %q", data)
	}
}

func TestRegisterRejections(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.memfont")
	defer teardown()
	//
	loader := NewLoader()
	defer loader.Release()
	if err := loader.Register("empty.font", fontcatalog.FontBuffer{}); err == nil {
		t.Errorf("expected registration of empty buffer to fail")
	}
	if err := loader.Register("0001.font", buffer("a")); err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	if err := loader.Register("0001.font", buffer("b")); !errors.Is(err, ErrDuplicateIdentifier) {
		t.Errorf("expected ErrDuplicateIdentifier, got %v", err)
	}
}

func TestOpenUnknownIdentifier(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.memfont")
	defer teardown()
	//
	loader := NewLoader()
	defer loader.Release()
	_, err := loader.Open("no-such.font")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestNewIdentifier(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.memfont")
	defer teardown()
	//
	loader := NewLoader()
	defer loader.Release()
	a, b := loader.NewIdentifier(), loader.NewIdentifier()
	if a == b {
		t.Fatalf("loader handed out the identifier %q twice", a)
	}
	if err := loader.Register(a, buffer("x")); err != nil {
		t.Errorf("registration under fresh identifier failed: %v", err)
	}
	if err := loader.Register(b, buffer("y")); err != nil {
		t.Errorf("registration under fresh identifier failed: %v", err)
	}
}

func TestReferenceCounting(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.memfont")
	defer teardown()
	//
	loader := NewLoader()
	if err := loader.Register("0001.font", buffer("x")); err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	loader.Acquire() // a second holder, e.g. a finalized catalog
	loader.Release() // first holder gone, registration must survive
	if _, err := fs.ReadFile(loader, "0001.font"); err != nil {
		t.Errorf("pseudo-file gone while a reference is still held: %v", err)
	}
	loader.Release() // last holder gone
	if _, err := loader.Open("0001.font"); !errors.Is(err, ErrLoaderReleased) {
		t.Errorf("expected ErrLoaderReleased after final release, got %v", err)
	}
	if err := loader.Register("0002.font", buffer("y")); !errors.Is(err, ErrLoaderReleased) {
		t.Errorf("expected ErrLoaderReleased for late registration, got %v", err)
	}
	loader.Release() // surplus release must be ignored, not panic
}
