package automation

import (
	"encoding/base64"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/go-drift/e2e/pkg/app"
	"github.com/go-drift/e2e/pkg/orientation"
	"github.com/go-drift/e2e/pkg/rendering"
)

// SpringboardBundleID is reported as the active app while the fixture is in
// the background.
const SpringboardBundleID = "com.apple.springboard"

// runnerBundleID is the bundle the status endpoint reports as its build.
const runnerBundleID = "com.facebook.WebDriverAgentRunner"

func defaultSettings() map[string]any {
	return map[string]any{
		"mjpegFixOrientation":          false,
		"boundElementsByIndex":         false,
		"mjpegServerFramerate":         10,
		"screenshotOrientation":        "auto",
		"reduceMotion":                 false,
		"elementResponseAttributes":    "type,label",
		"screenshotQuality":            3,
		"mjpegScalingFactor":           100,
		"keyboardPrediction":           0,
		"defaultActiveApplication":     "auto",
		"mjpegServerScreenshotQuality": 25,
		"defaultAlertAction":           "",
		"keyboardAutocorrection":       0,
		"useFirstMatch":                false,
		"shouldUseCompactResponses":    true,
		"customSnapshotTimeout":        15,
		"dismissAlertButtonSelector":   "",
		"activeAppDetectionPoint":      "64.00,64.00",
		"snapshotMaxDepth":             50,
		"waitForIdleTimeout":           10,
		"includeNonModalElements":      false,
		"acceptAlertButtonSelector":    "",
		"animationCoolOffTimeout":      2,
	}
}

func (s *Server) status(r *request) (any, error) {
	d := s.opts.Device
	return map[string]any{
		"ready":   true,
		"state":   "success",
		"message": "WebDriverAgent is ready to accept commands",
		"device":  strings.ToLower(d.Model),
		"os": map[string]any{
			"name":                "iOS",
			"version":             d.OSVersion,
			"sdkVersion":          d.SDKVersion,
			"testmanagerdVersion": 28,
		},
		"ios": map[string]any{"ip": d.IP},
		"build": map[string]any{
			"time":                    s.started.UTC().Format("Jan 02 2006 15:04:05"),
			"productBundleIdentifier": runnerBundleID,
		},
		"sessionId": s.currentSession(),
	}, nil
}

func (s *Server) health(r *request) (any, error) {
	return "I-AM-ALIVE", nil
}

func (s *Server) healthcheck(r *request) (any, error) {
	return nil, nil
}

// capabilities reads the requested bundle id from either the legacy
// desiredCapabilities or the W3C capabilities.alwaysMatch object.
func capabilities(body map[string]any) map[string]any {
	if caps, ok := body["desiredCapabilities"].(map[string]any); ok {
		return caps
	}
	if w3c, ok := body["capabilities"].(map[string]any); ok {
		if always, ok := w3c["alwaysMatch"].(map[string]any); ok {
			return always
		}
	}
	return map[string]any{}
}

func (s *Server) createSession(r *request) (any, error) {
	caps := capabilities(r.body)
	bundleID, _ := caps["bundleId"].(string)
	id := strings.ToUpper(uuid.NewString())

	err := s.ui(r.Context(), func() error {
		if bundleID != "" {
			if bundleID != s.app.BundleID() {
				return ErrSessionNotCreated.with("application %q is not installed", bundleID)
			}
			// A session with a bundle id always starts from a fresh launch.
			s.app.Terminate()
			s.app.Launch()
		}
		s.elements = newElementRegistry()
		s.settings = defaultSettings()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.setSession(id)
	s.log.WithField("session", id).Info("session created")
	return s.sessionInfo(id), nil
}

func (s *Server) getSession(r *request) (any, error) {
	return s.sessionInfo(s.currentSession()), nil
}

func (s *Server) deleteSession(r *request) (any, error) {
	id := s.currentSession()
	s.setSession("")
	s.log.WithField("session", id).Info("session deleted")
	return nil, nil
}

func (s *Server) sessionInfo(id string) map[string]any {
	return map[string]any{
		"sessionId": id,
		"capabilities": map[string]any{
			"device":             strings.ToLower(s.opts.Device.Model),
			"browserName":        s.app.Name(),
			"sdkVersion":         s.opts.Device.SDKVersion,
			"CFBundleIdentifier": s.app.BundleID(),
		},
	}
}

func (s *Server) getSettings(r *request) (any, error) {
	var out map[string]any
	err := s.ui(r.Context(), func() error {
		out = maps.Clone(s.settings)
		return nil
	})
	return out, err
}

func (s *Server) updateSettings(r *request) (any, error) {
	update, ok := r.body["settings"].(map[string]any)
	if !ok {
		return nil, ErrInvalidArgument.with("'settings' must be an object")
	}
	var out map[string]any
	err := s.ui(r.Context(), func() error {
		maps.Copy(s.settings, update)
		out = maps.Clone(s.settings)
		return nil
	})
	return out, err
}

func (s *Server) source(r *request) (any, error) {
	format := r.URL.Query().Get("format")
	var out any
	err := s.ui(r.Context(), func() error {
		tree := s.app.Tree()
		switch format {
		case "", "xml":
			xml, err := tree.XMLSource()
			if err != nil {
				return err
			}
			out = xml
		case "json":
			out = tree.JSONSource()
		default:
			return ErrInvalidArgument.with("unknown source format %q", format)
		}
		return nil
	})
	return out, err
}

func (s *Server) screenshot(r *request) (any, error) {
	var png []byte
	err := s.ui(r.Context(), func() error {
		var err error
		png, err = rendering.Screenshot(s.app.Tree(), s.app.Window().Scale())
		return err
	})
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// orientationName is the value the orientation endpoint reports.
func orientationName(o orientation.Orientation) string {
	switch o {
	case orientation.Portrait:
		return "PORTRAIT"
	case orientation.LandscapeLeft, orientation.LandscapeRight:
		return "LANDSCAPE"
	}
	return o.WDAName()
}

func (s *Server) getOrientation(r *request) (any, error) {
	var out string
	err := s.ui(r.Context(), func() error {
		out = orientationName(s.app.Orientation().Current())
		return nil
	})
	return out, err
}

func (s *Server) setOrientation(r *request) (any, error) {
	name, err := r.requiredStr("orientation")
	if err != nil {
		return nil, err
	}
	o, ok := orientation.Parse(name)
	if !ok || o == orientation.Unknown {
		return nil, ErrInvalidArgument.with("Unable To Rotate Device: unknown orientation %q", name)
	}
	return nil, s.ui(r.Context(), func() error {
		s.app.SetOrientation(o)
		return nil
	})
}

// rotations maps orientations to their z rotation in degrees.
var rotations = map[orientation.Orientation]int{
	orientation.Portrait:           0,
	orientation.LandscapeRight:     90,
	orientation.PortraitUpsideDown: 180,
	orientation.LandscapeLeft:      270,
}

func (s *Server) getRotation(r *request) (any, error) {
	var z int
	err := s.ui(r.Context(), func() error {
		z = rotations[s.app.Orientation().Current()]
		return nil
	})
	return map[string]int{"x": 0, "y": 0, "z": z}, err
}

func (s *Server) setRotation(r *request) (any, error) {
	z, err := r.num("z")
	if err != nil {
		return nil, err
	}
	for o, deg := range rotations {
		if float64(deg) == z {
			return nil, s.ui(r.Context(), func() error {
				s.app.SetOrientation(o)
				return nil
			})
		}
	}
	return nil, ErrInvalidArgument.with("Unable To Rotate Device: unsupported rotation %v", z)
}

func (s *Server) windowSize(r *request) (any, error) {
	var out map[string]int
	err := s.ui(r.Context(), func() error {
		size := s.app.Window().Size()
		out = map[string]int{"width": int(size.Width), "height": int(size.Height)}
		return nil
	})
	return out, err
}

func (s *Server) screen(r *request) (any, error) {
	var out map[string]any
	err := s.ui(r.Context(), func() error {
		w := s.app.Window()
		out = map[string]any{
			"statusBarSize": map[string]int{"width": int(w.Size().Width), "height": int(app.StatusBarHeight)},
			"scale":         int(w.Scale()),
		}
		return nil
	})
	return out, err
}

func (s *Server) batteryInfo(r *request) (any, error) {
	// UIDeviceBatteryStateFull
	return map[string]any{"level": s.opts.Device.BatteryLevel, "state": 3}, nil
}

func (s *Server) deviceInfo(r *request) (any, error) {
	d := s.opts.Device
	return map[string]any{
		"timeZone":           d.TimeZone,
		"currentLocale":      d.Locale,
		"model":              d.Model,
		"uuid":               d.UUID,
		"thermalState":       0,
		"userInterfaceIdiom": 1,
		"userInterfaceStyle": "light",
		"name":               d.Name,
		"isSimulator":        true,
	}, nil
}

func (s *Server) activeAppInfo(r *request) (any, error) {
	var out map[string]any
	err := s.ui(r.Context(), func() error {
		out = map[string]any{
			"pid":              0,
			"bundleId":         SpringboardBundleID,
			"name":             "",
			"processArguments": map[string]any{"env": map[string]any{}, "args": []string{}},
		}
		if s.app.State() == app.StateRunningForeground && !s.locked {
			out["pid"] = s.pid()
			out["bundleId"] = s.app.BundleID()
			out["name"] = s.app.Name()
		}
		return nil
	})
	return out, err
}

// pid is a stable fake process id for the running app.
func (s *Server) pid() int {
	return 1000 + int(s.started.Unix()%9000)
}

func (s *Server) homescreen(r *request) (any, error) {
	return nil, s.ui(r.Context(), func() error {
		s.app.Background()
		return nil
	})
}

func (s *Server) isLocked(r *request) (any, error) {
	var locked bool
	err := s.ui(r.Context(), func() error {
		locked = s.locked
		return nil
	})
	return locked, err
}

// lock shows the lock screen. The app is backgrounded and comes back to the
// foreground on unlock if it was there before.
func (s *Server) lock(r *request) (any, error) {
	return nil, s.ui(r.Context(), func() error {
		if s.locked {
			return nil
		}
		s.locked = true
		s.resume = s.app.State() == app.StateRunningForeground
		s.app.Background()
		return nil
	})
}

func (s *Server) unlock(r *request) (any, error) {
	return nil, s.ui(r.Context(), func() error {
		if !s.locked {
			return nil
		}
		s.locked = false
		if s.resume {
			s.app.Activate()
		}
		s.resume = false
		return nil
	})
}

// checkBundle rejects bundle ids other than the hosted app's.
func (s *Server) checkBundle(r *request) (string, error) {
	id, err := r.requiredStr("bundleId")
	if err != nil {
		return "", err
	}
	if id != s.app.BundleID() {
		return "", ErrInvalidArgument.with("application %q is not installed", id)
	}
	return id, nil
}

func (s *Server) launchApp(r *request) (any, error) {
	if _, err := s.checkBundle(r); err != nil {
		return nil, err
	}
	return nil, s.ui(r.Context(), func() error {
		s.app.Terminate()
		s.app.Launch()
		return nil
	})
}

func (s *Server) activateApp(r *request) (any, error) {
	if _, err := s.checkBundle(r); err != nil {
		return nil, err
	}
	return nil, s.ui(r.Context(), func() error {
		s.app.Activate()
		return nil
	})
}

func (s *Server) terminateApp(r *request) (any, error) {
	id, err := r.requiredStr("bundleId")
	if err != nil {
		return nil, err
	}
	if id != s.app.BundleID() {
		return false, nil
	}
	var wasRunning bool
	err = s.ui(r.Context(), func() error {
		wasRunning = s.app.State() != app.StateNotRunning
		s.app.Terminate()
		return nil
	})
	return wasRunning, err
}

func (s *Server) appState(r *request) (any, error) {
	id, err := r.requiredStr("bundleId")
	if err != nil {
		return nil, err
	}
	if id != s.app.BundleID() {
		return int(app.StateNotRunning), nil
	}
	var state app.State
	err = s.ui(r.Context(), func() error {
		state = s.app.State()
		return nil
	})
	return int(state), err
}

func (s *Server) listApps(r *request) (any, error) {
	var out []map[string]any
	err := s.ui(r.Context(), func() error {
		out = []map[string]any{}
		if s.app.State() != app.StateNotRunning {
			out = append(out, map[string]any{"pid": s.pid(), "bundleId": s.app.BundleID()})
		}
		return nil
	})
	return out, err
}

// deactivateApp backgrounds the app for the requested number of seconds.
func (s *Server) deactivateApp(r *request) (any, error) {
	d, err := r.seconds("duration", 3*time.Second)
	if err != nil {
		return nil, err
	}
	ctx := r.Context()
	if err := s.ui(ctx, func() error { s.app.Background(); return nil }); err != nil {
		return nil, err
	}
	if err := s.sleep(ctx, d); err != nil {
		return nil, err
	}
	return nil, s.ui(ctx, func() error { s.app.Activate(); return nil })
}

func (s *Server) dismissKeyboard(r *request) (any, error) {
	return nil, s.ui(r.Context(), func() error {
		if err := s.app.Keyboard().Dismiss(); err != nil {
			return ErrInvalidElementState.with("The keyboard cannot be dismissed: %v", err)
		}
		return nil
	})
}

func (s *Server) setPasteboard(r *request) (any, error) {
	content, err := r.str("content")
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, ErrInvalidArgument.with("'content' must be base64: %v", err)
	}
	return nil, s.ui(r.Context(), func() error {
		s.pasteboard = data
		return nil
	})
}

func (s *Server) getPasteboard(r *request) (any, error) {
	var out string
	err := s.ui(r.Context(), func() error {
		out = base64.StdEncoding.EncodeToString(s.pasteboard)
		return nil
	})
	return out, err
}

