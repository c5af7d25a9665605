/*
Package sysfont locates fonts installed on the host system.

Installed fonts are found by scanning the platform's usual font directories.
Style and weight are guessed from file names, which is crude but works for
the vast majority of installed fonts; authoritative values would have to be
read from the font data itself.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package sysfont

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/fontcatalog"
	"github.com/npillmayer/fontcatalog/core"
	"github.com/npillmayer/schuko/tracing"
	xfont "golang.org/x/image/font"
)

// tracer writes to trace with key 'fontcatalog.sysfont'
func tracer() tracing.Trace {
	return tracing.Select("fontcatalog.sysfont")
}

// FontFile is the owner of buffers read from installed font files.
type FontFile struct {
	Path string
}

// Tag is part of interface fontcatalog.Owner.
func (f *FontFile) Tag() string {
	return "system:" + filepath.Base(f.Path)
}

// Locate finds an installed font by name and reads its data into a buffer
// owned by the font's file. Fails with code core.EMISSING if no installed
// font matches.
func Locate(name string) (fontcatalog.FontBuffer, error) {
	fpath, err := findfont.Find(name)
	if err != nil || fpath == "" {
		return fontcatalog.FontBuffer{}, core.WrapError(err, core.EMISSING,
			"no installed font matches %q", name)
	}
	tracer().Debugf("%s is a system font: %s", name, fpath)
	return Load(fpath)
}

// Load reads an installed font file into a buffer owned by the file.
func Load(fpath string) (fontcatalog.FontBuffer, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return fontcatalog.FontBuffer{}, core.WrapError(err, core.EMISSING,
			"installed font file %q cannot be read", fpath)
	}
	return fontcatalog.FontBuffer{Data: data, Owner: &FontFile{Path: fpath}}, nil
}

// List returns the paths of installed fonts whose file name contains pattern
// and matches the given style and weight.
func List(pattern string, style xfont.Style, weight xfont.Weight) []string {
	var paths []string
	for _, fpath := range findfont.List() {
		if Matches(fpath, pattern, style, weight) {
			paths = append(paths, fpath)
		}
	}
	return paths
}

// GuessStyleAndWeight trys to guess a font's style and weight from the
// font's file name.
func GuessStyleAndWeight(fontfilename string) (xfont.Style, xfont.Weight) {
	fontfilename = path.Base(fontfilename)
	ext := path.Ext(fontfilename)
	fontfilename = strings.ToLower(fontfilename[:len(fontfilename)-len(ext)])
	s := strings.Split(fontfilename, "-")
	if len(s) > 1 {
		switch s[len(s)-1] {
		case "light", "xlight":
			return xfont.StyleNormal, xfont.WeightLight
		case "normal", "medium", "regular", "r":
			return xfont.StyleNormal, xfont.WeightNormal
		case "bold", "b":
			return xfont.StyleNormal, xfont.WeightBold
		case "xbold", "black":
			return xfont.StyleNormal, xfont.WeightExtraBold
		}
	}
	style, weight := xfont.StyleNormal, xfont.WeightNormal
	if strings.Contains(fontfilename, "italic") {
		style = xfont.StyleItalic
	}
	if strings.Contains(fontfilename, "light") {
		weight = xfont.WeightLight
	}
	if strings.Contains(fontfilename, "bold") {
		weight = xfont.WeightBold
	}
	return style, weight
}

// Matches returns true if a font's filename contains pattern and indicators
// for a given style and weight.
func Matches(fontfilename, pattern string, style xfont.Style, weight xfont.Weight) bool {
	basename := path.Base(fontfilename)
	basename = basename[:len(basename)-len(path.Ext(basename))]
	basename = strings.ToLower(basename)
	if !strings.Contains(basename, strings.ToLower(pattern)) {
		return false
	}
	s, w := GuessStyleAndWeight(basename)
	return s == style && w == weight
}
