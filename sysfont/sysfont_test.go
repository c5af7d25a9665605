package sysfont

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	xfont "golang.org/x/image/font"
)

type sw struct {
	s xfont.Style
	w xfont.Weight
}

func TestGuessStyleAndWeight(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.sysfont")
	defer teardown()
	//
	for k, v := range map[string]sw{
		"fonts/Clarendon-bold.ttf":               {xfont.StyleNormal, xfont.WeightBold},
		"Microsoft/Gill Sans MT Bold Italic.ttf": {xfont.StyleItalic, xfont.WeightBold},
		"Cambria Math.ttf":                       {xfont.StyleNormal, xfont.WeightNormal},
	} {
		style, weight := GuessStyleAndWeight(k)
		t.Logf("style = %d, weight = %d", style, weight)
		if style != v.s || weight != v.w {
			t.Errorf("expected different style or weight for %s", k)
		}
	}
}

func TestMatches(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.sysfont")
	defer teardown()
	//
	if !Matches("fonts/Clarendon-bold.ttf",
		"clarendon", xfont.StyleNormal, xfont.WeightBold) {
		t.Errorf("expected match for Clarendon, haven't")
	}
	if Matches("fonts/Clarendon-bold.ttf",
		"helvetica", xfont.StyleNormal, xfont.WeightBold) {
		t.Errorf("unexpected match for foreign pattern")
	}
	if Matches("fonts/Clarendon-bold.ttf",
		"clarendon", xfont.StyleItalic, xfont.WeightBold) {
		t.Errorf("unexpected match for wrong style")
	}
}
