// Package config resolves fixture settings from fixture.yaml, FIXTURE_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/e2e/pkg/app"
	"github.com/go-drift/e2e/pkg/automation"
	fixerrors "github.com/go-drift/e2e/pkg/errors"
	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/orientation"
)

// FileName is the optional per-project configuration file.
const FileName = "fixture.yaml"

// EnvPrefix prefixes environment overrides, e.g. FIXTURE_SERVER_ADDR.
const EnvPrefix = "FIXTURE"

// Config mirrors the layout of fixture.yaml.
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	App    AppConfig    `mapstructure:"app" yaml:"app"`
	Device DeviceConfig `mapstructure:"device" yaml:"device"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// ServerConfig contains automation server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig contains application metadata and window metrics.
type AppConfig struct {
	Name        string  `mapstructure:"name" yaml:"name,omitempty"`
	ID          string  `mapstructure:"id" yaml:"id,omitempty"`
	Width       float64 `mapstructure:"width" yaml:"width"`
	Height      float64 `mapstructure:"height" yaml:"height"`
	Scale       float64 `mapstructure:"scale" yaml:"scale"`
	Orientation string  `mapstructure:"orientation" yaml:"orientation"`
}

// DeviceConfig is what the server reports about the simulated device.
type DeviceConfig struct {
	Name      string `mapstructure:"name" yaml:"name"`
	Model     string `mapstructure:"model" yaml:"model"`
	OSVersion string `mapstructure:"os_version" yaml:"os_version"`
	Locale    string `mapstructure:"locale" yaml:"locale"`
	TimeZone  string `mapstructure:"time_zone" yaml:"time_zone"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Config
	// Root is the directory configuration was resolved from.
	Root string
	// ModulePath is the go.mod module path, empty outside a module.
	ModulePath string
	// File is the configuration file that was read, if any.
	File string
	// Orientation is App.Orientation parsed.
	Orientation orientation.Orientation
	// Level is Log.Level parsed.
	Level logrus.Level
}

// flagKeys maps command-line flags to configuration keys. Commands define
// whichever of these they support.
var flagKeys = map[string]string{
	"addr":        "server.addr",
	"bundle-id":   "app.id",
	"name":        "app.name",
	"scale":       "app.scale",
	"orientation": "app.orientation",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", automation.DefaultAddr)
	v.SetDefault("app.name", "Fixture")
	v.SetDefault("app.id", "")
	v.SetDefault("app.width", app.DefaultWindowSize.Width)
	v.SetDefault("app.height", app.DefaultWindowSize.Height)
	v.SetDefault("app.scale", app.DefaultScale)
	v.SetDefault("app.orientation", "PORTRAIT")
	v.SetDefault("device.name", automation.DefaultDevice.Name)
	v.SetDefault("device.model", automation.DefaultDevice.Model)
	v.SetDefault("device.os_version", automation.DefaultDevice.OSVersion)
	v.SetDefault("device.locale", automation.DefaultDevice.Locale)
	v.SetDefault("device.time_zone", automation.DefaultDevice.TimeZone)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Resolve reads fixture.yaml from dir (or the file named by FIXTURE_CONFIG),
// applies environment and flag overrides and fills in defaults. flags may
// be nil. Failures are *errors.FixtureError values of kind KindConfig.
func Resolve(dir string, flags *pflag.FlagSet) (*Resolved, error) {
	r, err := resolve(dir, flags)
	if err != nil {
		return nil, &fixerrors.FixtureError{
			Op:        "config.Resolve",
			Kind:      fixerrors.KindConfig,
			Err:       err,
			Timestamp: time.Now(),
		}
	}
	return r, nil
}

func resolve(dir string, flags *pflag.FlagSet) (*Resolved, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind --%s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg.App.Name = strings.TrimSpace(cfg.App.Name)
	cfg.App.ID = strings.TrimSpace(cfg.App.ID)
	if cfg.App.ID == "" {
		cfg.App.ID = defaultAppID(modulePath, cfg.App.Name)
	}
	if err := validateAppID(cfg.App.ID); err != nil {
		return nil, err
	}

	o, ok := orientation.Parse(cfg.App.Orientation)
	if !ok || o == orientation.Unknown {
		return nil, fmt.Errorf("app.orientation: unknown orientation %q", cfg.App.Orientation)
	}
	if cfg.App.Width <= 0 || cfg.App.Height <= 0 {
		return nil, fmt.Errorf("app.width and app.height must be positive (got %gx%g)", cfg.App.Width, cfg.App.Height)
	}
	if cfg.App.Scale <= 0 {
		return nil, fmt.Errorf("app.scale must be positive (got %g)", cfg.App.Scale)
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("log.format must be text or json (got %q)", cfg.Log.Format)
	}

	return &Resolved{
		Config:      cfg,
		Root:        dir,
		ModulePath:  modulePath,
		File:        v.ConfigFileUsed(),
		Orientation: o,
		Level:       level,
	}, nil
}

// FindProjectRoot walks up from the current directory to the nearest
// directory holding fixture.yaml or go.mod. Outside any project it returns
// the current directory.
func FindProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := wd; ; {
		for _, marker := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd, nil
		}
		dir = parent
	}
}

// Logger builds a logrus logger at the configured level and format.
func (r *Resolved) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(r.Level)
	if r.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// AppOptions returns the app settings. Clock and Dispatcher are left for
// the host to fill in.
func (r *Resolved) AppOptions() app.Options {
	return app.Options{
		WindowSize:  geometry.Size{Width: r.App.Width, Height: r.App.Height},
		Scale:       r.App.Scale,
		Orientation: r.Orientation,
		BundleID:    r.App.ID,
		Name:        r.App.Name,
	}
}

// ServerOptions returns automation server options for this configuration.
func (r *Resolved) ServerOptions(log *logrus.Logger) automation.Options {
	return automation.Options{
		Addr:   r.Server.Addr,
		Logger: log,
		App:    r.AppOptions(),
		Device: automation.DeviceInfo{
			Name:      r.Device.Name,
			Model:     r.Device.Model,
			OSVersion: r.Device.OSVersion,
			Locale:    r.Device.Locale,
			TimeZone:  r.Device.TimeZone,
		},
	}
}

// Marshal renders the configuration as fixture.yaml content.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Write saves c to dir/fixture.yaml. It refuses to overwrite an existing
// file unless force is set.
func Write(dir string, c Config, force bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists", path)
		}
	}
	data, err := c.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", FileName, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return path, nil
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

// defaultAppID derives a reverse-DNS bundle id from the module path, e.g.
// github.com/acme/shop -> com.github.acme.shop.
func defaultAppID(modulePath, appName string) string {
	if modulePath == "" {
		return app.DefaultBundleID
	}
	if base, _, ok := module.SplitPathVersion(modulePath); ok {
		modulePath = base
	}
	parts := strings.Split(modulePath, "/")
	if len(parts) < 2 || !strings.Contains(parts[0], ".") {
		return fmt.Sprintf("com.example.%s", sanitizeSegment(appName, false))
	}

	host := strings.Split(parts[0], ".")
	for i, j := 0, len(host)-1; i < j; i, j = i+1, j-1 {
		host[i], host[j] = host[j], host[i]
	}
	segments := host
	for _, p := range parts[1:] {
		if p != "" {
			segments = append(segments, p)
		}
	}
	for i, segment := range segments {
		segments[i] = sanitizeSegment(segment, false)
	}
	return strings.Join(segments, ".")
}

func sanitizeSegment(segment string, allowLeadingDigit bool) string {
	var out []rune
	for _, r := range strings.TrimSpace(segment) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		}
	}
	if len(out) == 0 {
		out = []rune("app")
	}
	if !allowLeadingDigit && out[0] >= '0' && out[0] <= '9' {
		out = append([]rune{'a'}, out...)
	}
	return string(out)
}

func validateAppID(appID string) error {
	if !strings.Contains(appID, ".") {
		return fmt.Errorf("app.id must contain at least one '.' (got %q)", appID)
	}
	for _, segment := range strings.Split(appID, ".") {
		if segment == "" {
			return fmt.Errorf("app.id contains an empty segment (%q)", appID)
		}
		if segment[0] >= '0' && segment[0] <= '9' {
			return fmt.Errorf("app.id segments cannot start with a digit (%q)", appID)
		}
		for _, r := range segment {
			if !(r == '_' || r == '-' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return fmt.Errorf("app.id contains invalid character %q in %q", r, appID)
			}
		}
	}
	return nil
}
