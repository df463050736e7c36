// Package testing drives the fixture app deterministically for tests and
// scenario scripts.
//
// # Quick Start
//
// Create a tester, find elements, and simulate gestures:
//
//	func TestConfirmation(t *testing.T) {
//	    tester := fixturetest.NewTesterWithT(t)
//
//	    tester.Tap(fixturetest.ByIdentifier("ACCEPT_OR_REJECT_ALERT"))
//	    tester.Pump()
//
//	    if got := tester.App().Alert().Text(); got != "Confirmation\nDo you accept?" {
//	        t.Errorf("unexpected alert %q", got)
//	    }
//	}
//
// # Time
//
// The tester runs the app on a [FakeClock]. Long presses and double taps
// only see time that the test advances explicitly:
//
//	tester.LongPress(fixturetest.ByLabel("LONG_TAP_ALERT"), time.Second)
//
// # Snapshot Testing
//
// Capture and compare the accessibility tree:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/home.snapshot.json")
//
// Set FIXTURE_UPDATE_SNAPSHOTS=1 to rewrite golden files.
package testing
