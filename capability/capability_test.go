package capability

import (
	"errors"
	"sync"
	"testing"

	"github.com/npillmayer/fontcatalog/core"
	"github.com/npillmayer/fontcatalog/engine"
	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// The negotiation outcome is cached process-wide, so the classification logic
// is tested through negotiate directly.

func TestNegotiateAvailable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.engine")
	defer teardown()
	//
	available, err := negotiate(testconfig.Conf{}, engine.AcquireAdvanced)
	if err != nil {
		t.Fatalf("negotiation failed: %v", err)
	}
	if !available {
		t.Errorf("expected advanced capability on an unrestricted engine")
	}
}

func TestNegotiateUnavailable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.engine")
	defer teardown()
	//
	conf := testconfig.Conf{"engine.force-basic": "yes"}
	available, err := negotiate(conf, engine.AcquireAdvanced)
	if err != nil {
		t.Fatalf("an unimplemented capability is not an error, got %v", err)
	}
	if available {
		t.Errorf("expected capability to be unavailable on a basic engine")
	}
}

// TestConcurrentCheck races first-time negotiation against capability
// queries; meaningful under the race detector.
func TestConcurrentCheck(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.engine")
	defer teardown()
	//
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := Check(testconfig.Conf{}); err != nil {
				t.Errorf("negotiation failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			Advanced()
		}()
	}
	wg.Wait()
	if !Advanced() {
		t.Errorf("expected advanced capability after negotiation on an unrestricted engine")
	}
}

func TestNegotiateHardFailure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontcatalog.engine")
	defer teardown()
	//
	boom := errors.New("engine exploded")
	available, err := negotiate(testconfig.Conf{}, func(schuko.Configuration) error {
		return boom
	})
	if available {
		t.Errorf("a failed probe must not report the capability as available")
	}
	if !errors.Is(err, ErrInitialization) {
		t.Errorf("expected error to wrap ErrInitialization, got %v", err)
	}
	if core.Code(err) != core.EINTERNAL {
		t.Errorf("expected error code EINTERNAL, got %d", core.Code(err))
	}
}
