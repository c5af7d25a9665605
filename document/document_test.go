package document

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/npillmayer/fontcatalog/catalog"
	"github.com/npillmayer/fontcatalog/core"
	"github.com/npillmayer/fontcatalog/engine"
	"github.com/npillmayer/fontcatalog/memfont"
	"github.com/npillmayer/fontcatalog/report"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goitalic"
)

func TestSimulatedDocument(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.document")
	defer teardown()
	//
	doc, err := Simulated()
	if err != nil {
		t.Fatalf("cannot build sample document: %v", err)
	}
	fonts := doc.Fonts()
	if len(fonts) != 2 {
		t.Fatalf("expected 2 embedded fonts, got %d", len(fonts))
	}
	if len(fonts[0].Data) != len(goitalic.TTF) {
		t.Errorf("first embedded font does not round-trip through the data-URL")
	}
	for i, buf := range fonts {
		if buf.Owner != doc {
			t.Errorf("font %d is not owned by the document", i)
		}
		if _, err := engine.ParseFaces(buf.Data); err != nil {
			t.Errorf("embedded font %d is not parsable: %v", i, err)
		}
	}
	families := doc.Families()
	t.Logf("families = %v", families)
	if len(families) != 2 || families[0] != "Go Italic" || families[1] != "Go Smallcaps" {
		t.Errorf("expected families [Go Italic, Go Smallcaps], got %v", families)
	}
}

func TestDocumentText(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.document")
	defer teardown()
	//
	doc, err := Simulated()
	if err != nil {
		t.Fatalf("cannot build sample document: %v", err)
	}
	text := doc.PlainText()
	if !strings.Contains(text, "Dear reader,") {
		t.Errorf("document text lost its greeting: %q", text)
	}
	if strings.Contains(text, "@font-face") || strings.Contains(text, "typesetters") {
		t.Errorf("style or head content leaked into document text")
	}
	if n := doc.GraphemeCount(); n == 0 || n > len(text) {
		t.Errorf("implausible grapheme count %d for %d bytes of text", n, len(text))
	}
	if doc.Text().IsVoid() {
		t.Errorf("document text cord should not be void")
	}
}

func TestParseWithoutFonts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.document")
	defer teardown()
	//
	doc, err := Parse("<html><body><p>plain and font-less</p></body></html>")
	if err != nil {
		t.Fatalf("cannot parse minimal document: %v", err)
	}
	if len(doc.Fonts()) != 0 {
		t.Errorf("expected no embedded fonts, got %d", len(doc.Fonts()))
	}
	if !strings.Contains(doc.PlainText(), "plain and font-less") {
		t.Errorf("text extraction failed: %q", doc.PlainText())
	}
}

// TestDocumentFontsBuildCatalog walks the whole in-memory path: document
// fonts into a catalog, catalog into a detailed report.
func TestDocumentFontsBuildCatalog(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.document")
	defer teardown()
	//
	doc, err := Simulated()
	require.NoError(t, err)
	loader := memfont.NewLoader()
	defer loader.Release()
	builder, err := catalog.NewBuilder(testconfig.Conf{"fonts-cache-dir": t.TempDir()}, loader, nil)
	require.NoError(t, err)
	for _, buf := range doc.Fonts() {
		require.NoError(t, builder.AddBuffer(buf))
	}
	cat, err := builder.Finalize()
	require.NoError(t, err)
	defer cat.Discard()
	if cat.Count() != 2 {
		t.Fatalf("expected 2 faces from the document's fonts, got %d", cat.Count())
	}
	lines, status := report.DetailedReport(context.Background(), cat, 0)
	if status != report.StatusOK {
		t.Fatalf("expected StatusOK, got %s", status)
	}
	pattern := regexp.MustCompile(`^.+: x-height = \d+$`)
	if len(lines) != 2 {
		t.Fatalf("expected 2 report lines, got %d", len(lines))
	}
	for _, line := range lines {
		t.Logf("| %s", line)
		if !pattern.MatchString(line) {
			t.Errorf("malformed report line: %q", line)
		}
	}
}

func TestParseCorruptFontData(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.document")
	defer teardown()
	//
	input := `<html><head><style>
	@font-face { font-family: "Broken"; src: url("data:font/ttf;base64,abc"); }
	</style></head><body>x</body></html>`
	_, err := Parse(input)
	if core.Code(err) != core.EINVALID {
		t.Errorf("expected EINVALID for corrupt base64 data, got %v", err)
	}
}
