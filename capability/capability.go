/*
Package capability negotiates optional text-engine features.

Platform text engines are versioned; the advanced catalog-building machinery
(in-memory font registration, remote font fetching) may be absent on older
installations. The negotiation has two outcomes and is performed at most once
per process: Unchecked → Checked{Available | Unavailable}. An engine that
answers the probe with "not implemented" is a normal Unavailable result; any
other probe failure is treated as fatal initialization trouble.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package capability

import (
	"errors"
	"sync"

	"github.com/npillmayer/fontcatalog/core"
	"github.com/npillmayer/fontcatalog/engine"
	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontcatalog.engine'
func tracer() tracing.Trace {
	return tracing.Select("fontcatalog.engine")
}

// ErrInitialization signals that probing the engine failed for a reason other
// than the feature being unimplemented. This is not a recoverable condition.
var ErrInitialization = errors.New("text engine initialization failed")

var negotiateOnce sync.Once

// outcome of the negotiation; guarded by mu, as Advanced may be called
// concurrently with a first-time Check
var mu sync.Mutex
var advancedAvailable bool
var negotiationErr error

// Check performs the capability negotiation with the text engine, once per
// process; subsequent calls return the cached outcome. An unavailable
// capability is not an error: Check returns nil and Advanced() will answer
// false. A hard probe failure is returned as an error wrapping
// ErrInitialization, with error code core.EINTERNAL.
func Check(conf schuko.Configuration) error {
	negotiateOnce.Do(func() {
		available, err := negotiate(conf, engine.AcquireAdvanced)
		mu.Lock()
		advancedAvailable, negotiationErr = available, err
		mu.Unlock()
	})
	mu.Lock()
	defer mu.Unlock()
	return negotiationErr
}

// Advanced reports whether the advanced catalog-building capability is
// present. It answers false until Check has negotiated with the engine.
func Advanced() bool {
	mu.Lock()
	defer mu.Unlock()
	return advancedAvailable
}

// negotiate runs one acquisition attempt and classifies the outcome.
func negotiate(conf schuko.Configuration, acquire func(schuko.Configuration) error) (bool, error) {
	err := acquire(conf)
	switch {
	case err == nil:
		tracer().Infof("advanced catalog building is available")
		return true, nil
	case errors.Is(err, engine.ErrNotImplemented):
		tracer().Infof("advanced catalog building is unavailable on this engine")
		return false, nil
	}
	tracer().Errorf("engine capability probe failed: %v", err)
	return false, core.WrapError(
		errors.Join(ErrInitialization, err), core.EINTERNAL,
		"probing the text engine for catalog-building support failed")
}
