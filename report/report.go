/*
Package report produces human-readable reports about font catalogs.

Two classes of queries are distinguished: cheap ones, answered from catalog
metadata without ever touching font bytes (Count, CheapNames,
HasRemoteFaces), and data-derived ones, which materialize faces from their
font data (DetailedReport). The latter may have to fetch remote font data
and therefore supports bounded, cancellable waiting. A detailed report that
was aborted comes back empty, with a Status distinguishing the abort reason
from a genuinely empty catalog.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/npillmayer/fontcatalog"
	"github.com/npillmayer/fontcatalog/catalog"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontcatalog.report'
func tracer() tracing.Trace {
	return tracing.Select("fontcatalog.report")
}

// DefaultTimeout bounds the wait for remote font data in DetailedReport.
const DefaultTimeout = 15 * time.Second

// Status tells how a detailed report ended.
type Status int

const (
	StatusOK        Status = iota
	StatusCancelled        // the caller's context was cancelled
	StatusTimedOut         // the fetch deadline passed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCancelled:
		return "cancelled"
	case StatusTimedOut:
		return "timed out"
	}
	return "unknown"
}

// Count returns the number of faces in the catalog.
func Count(cat *catalog.Catalog) int {
	return cat.Count()
}

// CheapNames returns the de-duplicated values of an informational string
// property across all faces of the catalog, preferring preferredLocale and
// falling back per-face to the default locale. It is answered entirely from
// catalog metadata; no face data is read. Order follows the catalog's face
// enumeration order, stable for a given catalog but not sorted.
func CheapNames(cat *catalog.Catalog, kind fontcatalog.PropertyKind, preferredLocale string) []string {
	set := linkedhashset.New()
	for i := 0; i < cat.Count(); i++ {
		if value := cat.Face(i).Property(kind, preferredLocale); value != "" {
			set.Add(value)
		}
	}
	names := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		names = append(names, v.(string))
	}
	return names
}

// HasRemoteFaces reports whether at least one face's data is not resident.
// Catalogs built purely from in-memory buffers never have remote faces.
func HasRemoteFaces(cat *catalog.Catalog) bool {
	for i := 0; i < cat.Count(); i++ {
		if cat.Face(i).Locality() != fontcatalog.LocalityLocal {
			return true
		}
	}
	return false
}

// DetailedReport reports, for every face in face-index order, the face's
// canonical full name together with its x-height, read directly from the
// font's own data. Lines are formatted as
//
//	<full name>: x-height = <value>
//
// with "Font <index>" standing in for faces whose full name cannot be
// obtained. Faces whose data cannot be resolved at all, e.g. because their
// download failed, yield no line; the failure is traced.
//
// Fetch requests for all faces are enqueued before any face is resolved, so
// the engine can download multiple remote faces concurrently. The wait for
// remote data honors both ctx and timeout (DefaultTimeout if zero);
// whichever triggers first aborts the report, which then comes back as an
// empty slice with StatusCancelled or StatusTimedOut. In-flight downloads
// are not retracted on abort and may still fill the font cache.
func DetailedReport(ctx context.Context, cat *catalog.Catalog, timeout time.Duration) ([]string, Status) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for i := 0; i < cat.Count(); i++ {
		cat.Face(i).EnqueueFetch()
	}
	if err := cat.WaitForData(ctx); err != nil {
		tracer().Infof("wait for font data aborted: %v", err)
		return nil, abortStatus(err)
	}
	lines := make([]string, 0, cat.Count())
	for i := 0; i < cat.Count(); i++ {
		face := cat.Face(i)
		resolved, err := face.Resolve(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, abortStatus(ctx.Err())
			}
			// e.g. a failed download; no metrics to report for this face
			tracer().Errorf("face %d cannot be resolved, skipping: %v", i, err)
			continue
		}
		name := resolved.FullName
		if name == "" {
			name = fmt.Sprintf("Font %d", i)
		}
		lines = append(lines, fmt.Sprintf("%s: x-height = %d", name, resolved.XHeight))
	}
	return lines, StatusOK
}

func abortStatus(err error) Status {
	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimedOut
	}
	return StatusCancelled
}
