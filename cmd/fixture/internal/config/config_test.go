package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/e2e/pkg/app"
	"github.com/go-drift/e2e/pkg/automation"
	fixerrors "github.com/go-drift/e2e/pkg/errors"
	"github.com/go-drift/e2e/pkg/orientation"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestResolve_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Resolve(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, automation.DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, "Fixture", cfg.App.Name)
	assert.Equal(t, app.DefaultBundleID, cfg.App.ID)
	assert.Equal(t, app.DefaultWindowSize.Width, cfg.App.Width)
	assert.Equal(t, app.DefaultWindowSize.Height, cfg.App.Height)
	assert.Equal(t, app.DefaultScale, cfg.App.Scale)
	assert.Equal(t, orientation.Portrait, cfg.Orientation)
	assert.Equal(t, logrus.InfoLevel, cfg.Level)
	assert.Empty(t, cfg.File)
	assert.Empty(t, cfg.ModulePath)
}

func TestResolve_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module github.com/Acme/drag-demo\n\ngo 1.24\n")
	writeFile(t, dir, FileName, `
server:
  addr: ":9100"
app:
  name: Demo
  scale: 3
  orientation: landscape
log:
  level: debug
`)
	t.Setenv("FIXTURE_APP_NAME", "FromEnv")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("addr", "", "")
	require.NoError(t, flags.Parse([]string{"--addr", "127.0.0.1:8200"}))

	cfg, err := Resolve(dir, flags)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8200", cfg.Server.Addr, "flags win over the file")
	assert.Equal(t, "FromEnv", cfg.App.Name, "env wins over the file")
	assert.Equal(t, 3.0, cfg.App.Scale)
	assert.Equal(t, orientation.LandscapeLeft, cfg.Orientation)
	assert.Equal(t, logrus.DebugLevel, cfg.Level)
	assert.Equal(t, "github.com/Acme/drag-demo", cfg.ModulePath)
	assert.Equal(t, "com.github.acme.dragdemo", cfg.App.ID)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.File)
}

func TestResolve_UnchangedFlagKeepsFileValue(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "server:\n  addr: \":9300\"\n")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("addr", "", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Resolve(dir, flags)
	require.NoError(t, err)
	assert.Equal(t, ":9300", cfg.Server.Addr)
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad orientation", "app:\n  orientation: sideways\n", "app.orientation"},
		{"bad scale", "app:\n  scale: 0\n", "app.scale"},
		{"bad size", "app:\n  width: -1\n", "app.width"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"bad id", "app:\n  id: nodots\n", "app.id"},
		{"digit segment", "app:\n  id: com.1acme.app\n", "app.id"},
		{"malformed yaml", "app: [\n", "failed to read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, FileName, tt.yaml)
			_, err := Resolve(dir, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			var fe *fixerrors.FixtureError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, fixerrors.KindConfig, fe.Kind)
			assert.Equal(t, "config.Resolve", fe.Op)
		})
	}
}

func TestResolve_ExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, dir, "custom.yaml", "app:\n  id: org.example.custom\n")
	t.Setenv("FIXTURE_CONFIG", path)

	cfg, err := Resolve(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, "org.example.custom", cfg.App.ID)
	assert.Equal(t, path, cfg.File)

	t.Setenv("FIXTURE_CONFIG", filepath.Join(dir, "missing.yaml"))
	_, err = Resolve(dir, nil)
	assert.Error(t, err, "a named config file must exist")
}

func TestDefaultAppID(t *testing.T) {
	tests := []struct {
		module, name, want string
	}{
		{"", "Fixture", app.DefaultBundleID},
		{"github.com/go-drift/e2e", "Fixture", "com.github.godrift.e2e"},
		{"example.com/shop/v2", "Shop", "com.example.shop"},
		{"localmod", "My App", "com.example.myapp"},
		{"github.com/acme/2048", "x", "com.github.acme.a2048"},
	}
	for _, tt := range tests {
		got := defaultAppID(tt.module, tt.name)
		assert.Equal(t, tt.want, got, "module %q", tt.module)
		assert.NoError(t, validateAppID(got))
	}
}

func TestWriteAndReload(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Resolve(dir, nil)
	require.NoError(t, err)

	cfg.App.Name = "Written"
	cfg.Server.Addr = ":9999"
	path, err := Write(dir, cfg.Config, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	_, err = Write(dir, cfg.Config, false)
	assert.Error(t, err, "existing files are kept")

	again, err := Resolve(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "Written", again.App.Name)
	assert.Equal(t, ":9999", again.Server.Addr)
}

func TestServerOptions(t *testing.T) {
	cfg, err := Resolve(t.TempDir(), nil)
	require.NoError(t, err)

	log := cfg.Logger()
	opts := cfg.ServerOptions(log)
	assert.Same(t, log, opts.Logger)
	assert.Equal(t, cfg.Server.Addr, opts.Addr)
	assert.Equal(t, cfg.App.ID, opts.App.BundleID)
	assert.Equal(t, cfg.App.Width, opts.App.WindowSize.Width)
	assert.Equal(t, automation.DefaultDevice.Model, opts.Device.Model)
}
