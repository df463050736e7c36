package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/go-drift/e2e/pkg/semantics"
)

// updateSnapshotsEnv rewrites golden files instead of comparing when set to 1.
const updateSnapshotsEnv = "FIXTURE_UPDATE_SNAPSHOTS"

// TestingT is the part of *testing.T that MatchesFile reports through.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot is what an automation client could observe of the app at one
// moment: the screen, the device state and the page source.
type Snapshot struct {
	Route       string                `json:"route"`
	Orientation string                `json:"orientation"`
	Alert       string                `json:"alert,omitempty"`
	Keyboard    bool                  `json:"keyboard,omitempty"`
	Tree        *semantics.SourceNode `json:"tree"`
}

// CaptureSnapshot records the current app state.
func (t *Tester) CaptureSnapshot() *Snapshot {
	snap := &Snapshot{
		Route:       t.app.Route(),
		Orientation: t.app.Orientation().Current().String(),
		Keyboard:    t.app.Keyboard().Visible(),
		Tree:        t.Tree().JSONSource(),
	}
	if a := t.app.Alert(); a != nil {
		snap.Alert = a.Text()
	}
	return snap
}

// MatchesFile compares s with the golden file at path and fails t with a
// unified diff on mismatch. With FIXTURE_UPDATE_SNAPSHOTS=1 the file is
// rewritten instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(updateSnapshotsEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("update snapshot %s: %v", path, err)
		}
		return
	}

	golden, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		t.Fatalf("no snapshot at %s; record it with %s=1 go test -run '^%s$'", path, updateSnapshotsEnv, t.Name())
		return
	case err != nil:
		t.Fatalf("read snapshot %s: %v", path, err)
		return
	}
	var want Snapshot
	if err := json.Unmarshal(golden, &want); err != nil {
		t.Fatalf("snapshot %s is not valid JSON: %v", path, err)
		return
	}

	if diff := want.Diff(s); diff != "" {
		t.Errorf("snapshot %s does not match:\n%s\nre-record with %s=1 go test -run '^%s$'", path, diff, updateSnapshotsEnv, t.Name())
	}
}

// UpdateFile writes s to path, creating parent directories.
func (s *Snapshot) UpdateFile(path string) error {
	data, err := s.encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a unified diff from s to other, or "" when they encode the
// same.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, errA := s.encode()
	b, errB := other.encode()
	if errA != nil || errB != nil {
		return fmt.Sprintf("cannot encode snapshots: %v, %v", errA, errB)
	}
	if bytes.Equal(a, b) {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

func (s *Snapshot) encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
