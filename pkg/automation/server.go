// Package automation serves the fixture over a WebDriverAgent-compatible
// HTTP API, so WDA clients can drive it like an app on a device.
//
// All application state lives on a single platform.Loop. HTTP handlers run on
// the server's goroutines and hand every read or mutation to the loop with
// Loop.Call. Gestures that span time (holds, drags, double taps) are sequences
// of such calls separated by sleeps, so long-press timers and pointer events
// interleave on the loop exactly as they would on a device.
package automation

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-drift/e2e/pkg/app"
	"github.com/go-drift/e2e/pkg/gestures"
	"github.com/go-drift/e2e/pkg/platform"
)

// DefaultAddr is the WebDriverAgent port.
const DefaultAddr = ":8100"

// DeviceInfo describes the simulated device.
type DeviceInfo struct {
	Name         string
	Model        string
	OSVersion    string
	SDKVersion   string
	Locale       string
	TimeZone     string
	UUID         string
	IP           string
	BatteryLevel float64
}

// DefaultDevice is used for fields left empty in Options.Device.
var DefaultDevice = DeviceInfo{
	Name:         "Drift Fixture",
	Model:        "iPad",
	OSVersion:    "17.4",
	SDKVersion:   "17.4",
	Locale:       "en_US",
	TimeZone:     "UTC",
	UUID:         "3F2504E0-4F89-41D3-9A0C-0305E82C3301",
	IP:           "127.0.0.1",
	BatteryLevel: 1,
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string
	// Logger defaults to the logrus standard logger.
	Logger *logrus.Logger
	// App configures the hosted app. Clock, Dispatcher and Logger are
	// filled in by the server.
	App app.Options
	// Clock drives gesture timers. Defaults to a SystemClock on the loop.
	Clock gestures.Clock
	// Sleep waits between the steps of a gesture. Defaults to a
	// context-aware time.Sleep. Tests replace it to advance a fake clock.
	Sleep func(ctx context.Context, d time.Duration) error
	// Device overrides the reported device information.
	Device DeviceInfo
}

// Server hosts one app and one automation session at a time.
type Server struct {
	opts    Options
	log     *logrus.Entry
	loop    *platform.Loop
	app     *app.App
	mux     *http.ServeMux
	started time.Time

	// Owned by the loop.
	elements   *elementRegistry
	settings   map[string]any
	locked     bool
	resume     bool
	pasteboard []byte

	pointers atomic.Int64

	sessionMu sync.RWMutex
	session   string

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a server and launches its app. The loop does not run until
// Run is called, or until the caller runs Loop() itself.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	opts.Device = mergeDevice(opts.Device)

	loop := platform.NewLoop()
	if opts.Clock == nil {
		opts.Clock = platform.NewSystemClock(loop)
	}
	opts.App.Clock = opts.Clock
	opts.App.Dispatcher = loop
	if opts.App.Logger == nil {
		opts.App.Logger = opts.Logger
	}

	s := &Server{
		opts:     opts,
		log:      opts.Logger.WithField("component", "automation"),
		loop:     loop,
		app:      app.New(opts.App),
		mux:      http.NewServeMux(),
		started:  time.Now(),
		elements: newElementRegistry(),
		settings: defaultSettings(),
	}
	s.routes()
	return s
}

// Loop returns the UI loop the server marshals work onto.
func (s *Server) Loop() *platform.Loop { return s.loop }

// Handler returns the HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Listen binds the configured address and serves in the background. It
// returns the bound port, which is useful when the address asks for an
// ephemeral one. Calling Listen on a running server returns its port.
func (s *Server) Listen() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.listener.Addr().(*net.TCPAddr).Port, nil
	}

	// Bind first to fail fast on port conflicts.
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return 0, fmt.Errorf("automation server listen: %w", err)
	}
	server := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.mu.Lock()
			s.server = nil
			s.listener = nil
			s.mu.Unlock()
			s.log.WithError(err).Error("automation server stopped")
		}
	}()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Run serves HTTP and runs the UI loop until ctx is cancelled, then shuts the
// server down and disposes the app.
func (s *Server) Run(ctx context.Context) error {
	port, err := s.Listen()
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"port": port, "bundle": s.app.BundleID()}).Info("automation server listening")

	err = s.loop.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if serr := s.Shutdown(shutdownCtx); serr != nil {
		s.log.WithError(serr).Warn("automation server shutdown")
	}
	s.loop.Close()
	s.app.Dispose()
	if err == context.Canceled {
		return nil
	}
	return err
}

// ui runs fn on the loop and waits for it.
func (s *Server) ui(ctx context.Context, fn func() error) error {
	return s.loop.Call(ctx, fn)
}

// sleep waits d between gesture steps.
func (s *Server) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return s.opts.Sleep(ctx, d)
}

func (s *Server) currentSession() string {
	s.sessionMu.RLock()
	defer s.sessionMu.RUnlock()
	return s.session
}

func (s *Server) setSession(id string) {
	s.sessionMu.Lock()
	s.session = id
	s.sessionMu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func mergeDevice(d DeviceInfo) DeviceInfo {
	def := DefaultDevice
	pick := func(v *string, fallback string) {
		if *v == "" {
			*v = fallback
		}
	}
	pick(&d.Name, def.Name)
	pick(&d.Model, def.Model)
	pick(&d.OSVersion, def.OSVersion)
	pick(&d.SDKVersion, def.SDKVersion)
	pick(&d.Locale, def.Locale)
	pick(&d.TimeZone, def.TimeZone)
	pick(&d.UUID, def.UUID)
	pick(&d.IP, def.IP)
	if d.BatteryLevel <= 0 {
		d.BatteryLevel = def.BatteryLevel
	}
	return d
}
