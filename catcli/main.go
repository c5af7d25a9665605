package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/npillmayer/fontcatalog"
	"github.com/npillmayer/fontcatalog/capability"
	"github.com/npillmayer/fontcatalog/catalog"
	"github.com/npillmayer/fontcatalog/core"
	"github.com/npillmayer/fontcatalog/document"
	"github.com/npillmayer/fontcatalog/memfont"
	"github.com/npillmayer/fontcatalog/report"
	"github.com/npillmayer/fontcatalog/resources"
	"github.com/npillmayer/fontcatalog/sysfont"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
	xfont "golang.org/x/image/font"
)

// tracer traces with key 'fontcatalog'
func tracer() tracing.Trace {
	return tracing.Select("fontcatalog")
}

func main() {
	initDisplay()

	// command line flags
	scenario := flag.String("scenario", "memory", "Font sources [memory|system|remote]")
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	locale := flag.String("locale", fontcatalog.DefaultLocale, "Preferred locale for font names")
	timeout := flag.Duration("timeout", report.DefaultTimeout, "Deadline for fetching remote fonts")
	interactive := flag.Bool("i", false, "Prompt for font name prefixes after the report")
	basic := flag.Bool("basic-engine", false, "Simulate an engine without custom-catalog support")
	flag.Parse()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":           "go",
		"trace.fontcatalog":         *tlevel,
		"trace.fontcatalog.engine":  *tlevel,
		"trace.fontcatalog.catalog": *tlevel,
		"trace.fontcatalog.remote":  *tlevel,
		"trace.fontcatalog.report":  *tlevel,
		"app-key":                   "fontcatalog",
	}
	if *basic {
		conf["engine.force-basic"] = "yes"
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	pterm.Info.Println("Welcome to the font catalog CLI")
	if err := capability.Check(conf); err != nil {
		pterm.Error.Println(core.UserMessage(err))
		os.Exit(2)
	}
	if !capability.Advanced() {
		pterm.Error.Println("this engine cannot build custom font catalogs; nothing to do")
		os.Exit(3)
	}

	loader := memfont.NewLoader()
	defer loader.Release()
	builder, err := catalog.NewBuilder(conf, loader, nil)
	if err != nil {
		fail(err)
	}
	if err := addScenarioSources(builder, *scenario); err != nil {
		fail(err)
	}
	cat, err := builder.Finalize()
	if err != nil {
		fail(err)
	}
	defer cat.Discard()

	printReport(cat, *locale, *timeout)
	if *interactive {
		suggestREPL(cat)
	}
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func fail(err error) {
	tracer().Errorf(err.Error())
	core.UserError(err)
	os.Exit(4)
}

// addScenarioSources fills the catalog builder from one of three kinds of
// font sources: fonts held in memory (binary resources plus the fonts of a
// simulated document), fonts installed on the host system, or references to
// fonts on a remote server.
func addScenarioSources(builder *catalog.Builder, scenario string) error {
	switch scenario {
	case "memory":
		for _, buf := range resources.Binary().Fonts() {
			if err := builder.AddBuffer(buf); err != nil {
				return err
			}
		}
		doc, err := document.Simulated()
		if err != nil {
			return err
		}
		pterm.Printfln("document text has %d characters", doc.GraphemeCount())
		for _, buf := range doc.Fonts() {
			if err := builder.AddBuffer(buf); err != nil {
				return err
			}
		}
	case "system":
		paths := sysfont.List("go", xfont.StyleNormal, xfont.WeightNormal)
		if len(paths) == 0 {
			// host-dependent; fall back to something most hosts have
			paths = sysfont.List("dejavusans", xfont.StyleNormal, xfont.WeightNormal)
		}
		if len(paths) == 0 {
			return core.Error(core.EMISSING, "no matching fonts installed on this system")
		}
		for _, path := range paths {
			buf, err := sysfont.Load(path)
			if err != nil {
				return err
			}
			if err := builder.AddBuffer(buf); err != nil {
				return err
			}
		}
	case "remote":
		for _, buf := range resources.Binary().Fonts() {
			if err := builder.AddBuffer(buf); err != nil {
				return err
			}
		}
		err := builder.AddRemoteFace(catalog.RemoteFaceInfo{
			FullNames: fontcatalog.LocalizedStrings{fontcatalog.DefaultLocale: "Antic Regular"},
			Families:  fontcatalog.LocalizedStrings{fontcatalog.DefaultLocale: "Antic"},
			Name:      "Antic-Regular.ttf",
			URL:       "https://raw.githubusercontent.com/google/fonts/main/ofl/antic/Antic-Regular.ttf",
		})
		if err != nil {
			return err
		}
	default:
		flag.Usage()
		return core.Error(core.EINVALID, "unknown scenario %q", scenario)
	}
	return nil
}

func printReport(cat *catalog.Catalog, locale string, timeout time.Duration) {
	pterm.Printfln("catalog holds %d font face(s)", report.Count(cat))
	for _, name := range report.CheapNames(cat, fontcatalog.PropertyFullName, locale) {
		pterm.Printfln("  %s", name)
	}
	if report.HasRemoteFaces(cat) {
		pterm.Info.Println("some fonts are remote; the detailed report may take a moment")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	lines, status := report.DetailedReport(ctx, cat, timeout)
	if status != report.StatusOK {
		pterm.Error.Printfln("detailed report aborted: %s", status)
		return
	}
	for _, line := range lines {
		pterm.Printfln("  %s", line)
	}
}

// suggestREPL prompts for font name prefixes and answers with the catalog's
// matching full names.
func suggestREPL(cat *catalog.Catalog) {
	repl, err := readline.New("font name prefix > ")
	if err != nil {
		tracer().Errorf(err.Error())
		return
	}
	pterm.Info.Println("Quit with <ctrl>D")
	for {
		line, err := repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		suggestions := cat.SuggestNames(line)
		if len(suggestions) == 0 {
			pterm.Printfln("no font names start with %q", line)
			continue
		}
		for _, name := range suggestions {
			pterm.Printfln("  %s", name)
		}
	}
	pterm.Info.Println("Good bye!")
}
