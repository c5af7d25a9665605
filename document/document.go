/*
Package document simulates a document carrying embedded font data.

Real-world documents (HTML mails, EPUB chapters, archived pages) embed the
fonts they are styled with. This package parses such a document, an HTML
page whose stylesheet declares @font-face rules with base64 data-URLs, and
surfaces the embedded fonts as font buffers ready to be added to a catalog,
with the document object acting as the buffers' owner. The document's body
text is kept as a cord.

A built-in sample document is provided for the demonstration scenarios; in a
real application the document would be read from a stream.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package document

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/npillmayer/cords"
	"github.com/npillmayer/fontcatalog"
	"github.com/npillmayer/fontcatalog/core"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/uax/grapheme"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/net/html"
)

// tracer writes to trace with key 'fontcatalog.document'
func tracer() tracing.Trace {
	return tracing.Select("fontcatalog.document")
}

// Document is a parsed document with embedded font data. Documents own the
// byte buffers of their embedded fonts: buffers returned from Fonts stay
// valid as long as the document lives.
type Document struct {
	text     cords.Cord
	fonts    []fontcatalog.FontBuffer
	families []string
}

var styleSelector = cascadia.MustCompile("style")

// dataURLPattern matches base64 data-URLs inside @font-face src declarations.
var dataURLPattern = regexp.MustCompile(
	`url\(\s*["']?data:(?:font/[-\w]+|application/[-\w]+);base64,([A-Za-z0-9+/=]+)["']?\s*\)`)

// Parse reads an HTML document and extracts its text and embedded fonts.
// Fonts are taken from @font-face rules in the document's style elements;
// only fonts embedded as base64 data-URLs are considered.
func Parse(input string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "document is not parsable HTML")
	}
	d := &Document{}
	for _, style := range styleSelector.MatchAll(root) {
		if err := d.readFontFaces(textContent(style)); err != nil {
			return nil, err
		}
	}
	b := cords.NewBuilder()
	collectText(root, b)
	d.text = b.Cord()
	tracer().Infof("document has %d embedded font(s), families %v", len(d.fonts), d.families)
	return d, nil
}

func (d *Document) readFontFaces(stylesheet string) error {
	sheet, err := parser.Parse(stylesheet)
	if err != nil {
		return core.WrapError(err, core.EINVALID, "document stylesheet is not parsable CSS")
	}
	for _, rule := range sheet.Rules {
		if rule.Kind != css.AtRule || rule.Name != "@font-face" {
			continue
		}
		var family string
		var data []byte
		for _, decl := range rule.Declarations {
			switch decl.Property {
			case "font-family":
				family = strings.Trim(decl.Value, `"' `)
			case "src":
				m := dataURLPattern.FindStringSubmatch(decl.Value)
				if m == nil {
					tracer().Infof("@font-face src is not an embedded font, skipping")
					continue
				}
				var err error
				if data, err = base64.StdEncoding.DecodeString(m[1]); err != nil {
					return core.WrapError(err, core.EINVALID,
						"embedded font data of family %q is corrupt", family)
				}
			}
		}
		if len(data) == 0 {
			continue
		}
		d.fonts = append(d.fonts, fontcatalog.FontBuffer{Data: data, Owner: d})
		d.families = append(d.families, family)
	}
	return nil
}

// Tag is part of interface fontcatalog.Owner.
func (d *Document) Tag() string {
	return "document"
}

// Fonts returns the document's embedded fonts as buffers owned by the
// document, in stylesheet order.
func (d *Document) Fonts() []fontcatalog.FontBuffer {
	return d.fonts
}

// Families returns the font-family names declared for the embedded fonts.
func (d *Document) Families() []string {
	return d.families
}

// Text returns the document's body text as a cord.
func (d *Document) Text() cords.Cord {
	return d.text
}

// PlainText flattens the document text into a string.
func (d *Document) PlainText() string {
	if d.text.IsVoid() {
		return ""
	}
	var sb strings.Builder
	d.text.EachLeaf(func(l cords.Leaf, pos uint64) error {
		sb.WriteString(l.String())
		return nil
	})
	return sb.String()
}

var graphemeSetup sync.Once

// GraphemeCount returns the number of grapheme clusters in the document
// text, i.e. its length as perceived by readers.
func (d *Document) GraphemeCount() int {
	graphemeSetup.Do(grapheme.SetupGraphemeClasses)
	gstr := grapheme.StringFromString(d.PlainText())
	return gstr.Len()
}

// --- Text extraction -------------------------------------------------------

// textContent concatenates the text nodes directly below an element node.
func textContent(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func collectText(n *html.Node, b *cords.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "head", "style", "script":
			return
		}
	}
	if n.Type == html.TextNode {
		if content := strings.TrimSpace(n.Data); content != "" {
			b.Append(&leaf{content: content + " "})
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// leaf is the cord leaf type for document text fragments.
type leaf struct {
	content string
}

// Weight of a leaf is its string length in bytes.
func (l leaf) Weight() uint64 {
	return uint64(len(l.content))
}

func (l leaf) String() string {
	return l.content
}

// Split splits a leaf at position i, resulting in 2 new leafs.
func (l leaf) Split(i uint64) (cords.Leaf, cords.Leaf) {
	return &leaf{content: l.content[:i]}, &leaf{content: l.content[i:]}
}

// Substring returns a string segment of the leaf's text fragment.
func (l leaf) Substring(i, j uint64) []byte {
	return []byte(l.content)[i:j]
}

var _ cords.Leaf = leaf{}

// --- Built-in sample document ----------------------------------------------

// Simulated returns the built-in sample document: a short HTML page with two
// fonts embedded in its stylesheet. It stands in for a document read from a
// stream in a real application.
func Simulated() (*Document, error) {
	return Parse(simulatedHTML())
}

func simulatedHTML() string {
	return fmt.Sprintf(sampleTemplate,
		base64.StdEncoding.EncodeToString(goitalic.TTF),
		base64.StdEncoding.EncodeToString(gosmallcaps.TTF))
}

const sampleTemplate = `<!DOCTYPE html>
<html>
<head>
<title>A letter to typesetters</title>
<style>
@font-face {
  font-family: "Go Italic";
  src: url("data:font/ttf;base64,%s");
}
@font-face {
  font-family: "Go Smallcaps";
  src: url("data:font/ttf;base64,%s");
}
p.greeting { font-family: "Go Smallcaps"; }
em { font-family: "Go Italic"; }
</style>
</head>
<body>
<p class="greeting">Dear reader,</p>
<p>the fonts used by this document travel <em>within</em> the document
itself, so it will render the same wherever it is opened.</p>
<p>Yours, the typesetter.</p>
</body>
</html>
`
