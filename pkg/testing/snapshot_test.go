package testing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-drift/e2e/pkg/app"
	"github.com/go-drift/e2e/pkg/orientation"
)

func TestCaptureSnapshot(t *testing.T) {
	tester := NewTesterWithT(t)

	snap := tester.CaptureSnapshot()
	if snap.Route != app.RouteHome {
		t.Errorf("expected home route, got %q", snap.Route)
	}
	if snap.Tree == nil || snap.Tree.Type != "Application" {
		t.Fatal("expected an Application root")
	}
	if snap.Alert != "" {
		t.Errorf("expected no alert, got %q", snap.Alert)
	}
	if snap.Orientation != "portrait" || snap.Keyboard {
		t.Errorf("expected portrait without keyboard, got %q keyboard=%v", snap.Orientation, snap.Keyboard)
	}

	tester.Tap(ByLabel(app.IDInputField))
	if !tester.CaptureSnapshot().Keyboard {
		t.Error("expected the keyboard in the snapshot after focusing the field")
	}

	tester.Tap(ByIdentifier(app.IDAcceptOrRejectAlert))
	if got := tester.CaptureSnapshot().Alert; got != "Confirmation\nDo you accept?" {
		t.Errorf("expected the alert text in the snapshot, got %q", got)
	}
}

func TestSnapshot_Diff_Equal(t *testing.T) {
	tester := NewTesterWithT(t)

	a := tester.CaptureSnapshot()
	b := tester.CaptureSnapshot()

	if diff := a.Diff(b); diff != "" {
		t.Errorf("expected no diff for identical snapshots, got:\n%s", diff)
	}
}

func TestSnapshot_Diff_Different(t *testing.T) {
	tester := NewTesterWithT(t)

	a := tester.CaptureSnapshot()
	tester.App().SetOrientation(orientation.LandscapeLeft)
	tester.Pump()
	b := tester.CaptureSnapshot()

	diff := a.Diff(b)
	for _, want := range []string{
		"--- want\n+++ got\n",
		`-  "orientation": "portrait",`,
		`+  "orientation": "landscapeLeft",`,
	} {
		if !strings.Contains(diff, want) {
			t.Errorf("diff missing %q:\n%s", want, diff)
		}
	}
}

func TestSnapshot_UpdateAndMatch(t *testing.T) {
	tester := NewTesterWithT(t)
	snap := tester.CaptureSnapshot()

	dir := t.TempDir()
	path := filepath.Join(dir, "testdata", "home.snapshot.json")

	if err := snap.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("snapshot file should exist after UpdateFile")
	}

	snap.MatchesFile(t, path)
}

func TestSnapshot_MatchesFile_MissingFile(t *testing.T) {
	t.Setenv(updateSnapshotsEnv, "")
	tester := NewTesterWithT(t)
	snap := tester.CaptureSnapshot()

	failed := false
	sub := &fatalRecorder{name: t.Name(), onFatal: func() { failed = true }}
	snap.MatchesFile(sub, "/nonexistent/path/snap.json")

	if !failed {
		t.Error("expected MatchesFile to fail for missing file")
	}
}

func TestSnapshot_MatchesFile_Mismatch(t *testing.T) {
	t.Setenv(updateSnapshotsEnv, "")
	tester := NewTesterWithT(t)

	first := tester.CaptureSnapshot()
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := first.UpdateFile(path); err != nil {
		t.Fatal(err)
	}

	tester.Tap(ByText(app.LinkListView))
	second := tester.CaptureSnapshot()

	errored := false
	sub := &errorRecorder{name: t.Name(), onError: func() { errored = true }}
	second.MatchesFile(sub, path)

	if !errored {
		t.Error("expected MatchesFile to report error for mismatch")
	}
}

func TestSnapshot_UpdateMode(t *testing.T) {
	tester := NewTesterWithT(t)
	snap := tester.CaptureSnapshot()

	path := filepath.Join(t.TempDir(), "update.snapshot.json")

	t.Setenv(updateSnapshotsEnv, "1")
	snap.MatchesFile(t, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("snapshot file should be created in update mode")
	}
}

// fatalRecorder intercepts Fatalf calls for testing MatchesFile failures.
type fatalRecorder struct {
	name    string
	onFatal func()
}

func (r *fatalRecorder) Fatalf(format string, args ...any) { r.onFatal() }
func (r *fatalRecorder) Errorf(format string, args ...any) {}
func (r *fatalRecorder) Helper()                           {}
func (r *fatalRecorder) Name() string                      { return r.name }

// errorRecorder intercepts Errorf calls for testing MatchesFile mismatches.
type errorRecorder struct {
	name    string
	onError func()
}

func (r *errorRecorder) Fatalf(format string, args ...any) {}
func (r *errorRecorder) Errorf(format string, args ...any) { r.onError() }
func (r *errorRecorder) Helper()                           {}
func (r *errorRecorder) Name() string                      { return r.name }
