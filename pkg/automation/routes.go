package automation

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-drift/e2e/pkg/errors"
)

// handlerFunc serves one endpoint. The returned value becomes the "value"
// field of the response.
type handlerFunc func(r *request) (any, error)

// routeScope says under which prefixes an endpoint is mounted.
type routeScope int

const (
	// inSession mounts the endpoint under /session/{sid}.
	inSession routeScope = 1 << iota
	// atRoot mounts the endpoint without a session prefix.
	atRoot

	anywhere = inSession | atRoot
)

// request is an incoming command with its decoded JSON body.
type request struct {
	*http.Request
	body map[string]any
}

func (s *Server) routes() {
	s.handle("GET /status", s.status, atRoot)
	s.handle("GET /health", s.health, atRoot)
	s.handle("GET /wda/healthcheck", s.healthcheck, atRoot)
	s.handle("POST /session", s.createSession, atRoot)
	s.mux.Handle("GET /session/{sid}", s.wrap(s.getSession, inSession))
	s.mux.Handle("DELETE /session/{sid}", s.wrap(s.deleteSession, inSession))

	s.handle("GET /source", s.source, anywhere)
	s.handle("GET /screenshot", s.screenshot, anywhere)
	s.handle("GET /orientation", s.getOrientation, anywhere)
	s.handle("POST /orientation", s.setOrientation, anywhere)
	s.handle("GET /rotation", s.getRotation, anywhere)
	s.handle("POST /rotation", s.setRotation, anywhere)
	s.handle("GET /window/size", s.windowSize, anywhere)
	s.handle("GET /wda/screen", s.screen, anywhere)
	s.handle("GET /wda/batteryInfo", s.batteryInfo, anywhere)
	s.handle("GET /wda/device/info", s.deviceInfo, anywhere)
	s.handle("GET /wda/activeAppInfo", s.activeAppInfo, anywhere)
	s.handle("POST /wda/homescreen", s.homescreen, atRoot)
	s.handle("GET /wda/locked", s.isLocked, anywhere)
	s.handle("POST /wda/lock", s.lock, anywhere)
	s.handle("POST /wda/unlock", s.unlock, anywhere)
	s.handle("GET /appium/settings", s.getSettings, inSession)
	s.handle("POST /appium/settings", s.updateSettings, inSession)

	s.handle("GET /alert/text", s.alertText, anywhere)
	s.handle("POST /alert/text", s.setAlertText, anywhere)
	s.handle("POST /alert/accept", s.acceptAlert, anywhere)
	s.handle("POST /alert/dismiss", s.dismissAlert, anywhere)
	s.handle("GET /wda/alert/buttons", s.alertButtons, anywhere)

	s.handle("POST /wda/apps/launch", s.launchApp, inSession)
	s.handle("POST /wda/apps/activate", s.activateApp, inSession)
	s.handle("POST /wda/apps/terminate", s.terminateApp, inSession)
	s.handle("POST /wda/apps/state", s.appState, inSession)
	s.handle("GET /wda/apps/list", s.listApps, inSession)
	s.handle("POST /wda/deactivateApp", s.deactivateApp, inSession)
	s.handle("POST /wda/keyboard/dismiss", s.dismissKeyboard, inSession)
	s.handle("POST /wda/setPasteboard", s.setPasteboard, inSession)
	s.handle("POST /wda/getPasteboard", s.getPasteboard, inSession)

	s.handle("POST /element", s.findElement, inSession)
	s.handle("POST /elements", s.findElements, inSession)
	s.handle("GET /element/active", s.activeElement, inSession)
	s.handle("POST /element/{id}/element", s.findChildElement, inSession)
	s.handle("POST /element/{id}/elements", s.findChildElements, inSession)
	s.handle("GET /element/{id}/rect", s.elementRect, anywhere)
	s.handle("GET /element/{id}/enabled", s.elementEnabled, anywhere)
	s.handle("GET /element/{id}/displayed", s.elementDisplayed, anywhere)
	s.handle("GET /element/{id}/selected", s.elementSelected, anywhere)
	s.handle("GET /element/{id}/name", s.elementName, anywhere)
	s.handle("GET /element/{id}/text", s.elementText, anywhere)
	s.handle("GET /element/{id}/attribute/{name}", s.elementAttribute, anywhere)
	s.handle("GET /element/{id}/screenshot", s.elementScreenshot, anywhere)
	s.handle("GET /wda/element/{id}/accessible", s.elementAccessible, anywhere)
	s.handle("GET /wda/element/{id}/accessibilityContainer", s.elementContainer, anywhere)
	s.handle("GET /wda/element/{id}/getVisibleCells", s.visibleCells, inSession)

	s.handle("POST /element/{id}/click", s.click, inSession)
	s.handle("POST /element/{id}/value", s.setValue, inSession)
	s.handle("POST /element/{id}/clear", s.clear, inSession)
	s.handle("POST /wda/element/{id}/tap", s.tapElement, inSession)
	s.handle("POST /wda/element/{id}/doubleTap", s.doubleTapElement, inSession)
	s.handle("POST /wda/element/{id}/touchAndHold", s.touchAndHoldElement, inSession)
	s.handle("POST /wda/element/{id}/swipe", s.swipeElement, inSession)
	s.handle("POST /wda/element/{id}/dragfromtoforduration", s.dragElement, inSession)

	s.handle("POST /wda/tap", s.tapCoordinate, inSession)
	s.handle("POST /wda/tap/{id}", s.tapCoordinate, inSession)
	s.handle("POST /wda/doubleTap", s.doubleTapCoordinate, inSession)
	s.handle("POST /wda/touchAndHold", s.touchAndHoldCoordinate, inSession)
	s.handle("POST /wda/dragfromtoforduration", s.dragCoordinate, inSession)
	s.handle("POST /wda/keys", s.keys, inSession)

	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, s.currentSession(), ErrUnknownCommand.with("Unhandled endpoint: %s %s", r.Method, r.URL.Path))
	})
}

// handle mounts h at pattern ("METHOD /path") under the given scope.
func (s *Server) handle(pattern string, h handlerFunc, scope routeScope) {
	method, path, _ := strings.Cut(pattern, " ")
	if scope&inSession != 0 {
		s.mux.Handle(method+" /session/{sid}"+path, s.wrap(h, inSession))
	}
	if scope&atRoot != 0 {
		s.mux.Handle(method+" "+path, s.wrap(h, atRoot))
	}
}

// wrap adapts h to http.Handler: it decodes the body, validates the session
// id in the path, recovers panics and writes the response envelope.
func (s *Server) wrap(h handlerFunc, scope routeScope) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := "automation." + r.Pattern
		defer errors.RecoverWithCallback(op, func(rec any) {
			writeError(w, s.currentSession(), ErrUnknownError.with("panic: %v", rec))
		})

		req := &request{Request: r}
		if err := req.decode(); err != nil {
			writeError(w, s.currentSession(), asWebDriverError(err))
			return
		}
		if scope == inSession {
			if sid := r.PathValue("sid"); sid != s.currentSession() {
				writeError(w, s.currentSession(), ErrInvalidSession.with("Session does not exist: %s", sid))
				return
			}
		}

		value, err := h(req)
		if err != nil {
			wd := asWebDriverError(err)
			if wd.Code == ErrUnknownError.Code {
				errors.Report(&errors.FixtureError{
					Op:      op,
					Kind:    errors.KindAutomation,
					Err:     err,
					Session: s.currentSession(),
				})
			}
			writeError(w, s.currentSession(), wd)
			return
		}
		writeValue(w, s.currentSession(), value)
	})
}

// decode reads a JSON object body. Empty bodies decode to an empty map.
func (r *request) decode() error {
	r.body = map[string]any{}
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodDelete {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		return ErrInvalidArgument.with("reading request body: %v", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return ErrInvalidArgument.with("request body is not valid JSON: %v", err)
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return ErrInvalidArgument.with("%v", &errors.ParseError{Source: r.URL.Path, DataType: "object", Got: body})
	}
	r.body = obj
	return nil
}

// str returns a string parameter, or "" when absent.
func (r *request) str(key string) (string, error) {
	v, ok := r.body[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", ErrInvalidArgument.with("%v", &errors.ParseError{Source: key, DataType: "string", Got: v})
	}
	return s, nil
}

// requiredStr is like str but rejects missing or empty values.
func (r *request) requiredStr(key string) (string, error) {
	s, err := r.str(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", ErrInvalidArgument.with("'%s' is required", key)
	}
	return s, nil
}

// num returns a numeric parameter.
func (r *request) num(key string) (float64, error) {
	v, ok := r.body[key]
	if !ok || v == nil {
		return 0, ErrInvalidArgument.with("'%s' is required", key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, ErrInvalidArgument.with("%v", &errors.ParseError{Source: key, DataType: "number", Got: v})
	}
	return f, nil
}

// seconds returns a duration given in (fractional) seconds, or def when
// the parameter is absent.
func (r *request) seconds(key string, def time.Duration) (time.Duration, error) {
	if _, ok := r.body[key]; !ok {
		return def, nil
	}
	f, err := r.num(key)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, ErrInvalidArgument.with("'%s' must not be negative", key)
	}
	return time.Duration(f * float64(time.Second)), nil
}

// text returns the typed text of a value/keys command. Clients send either
// a "value" array of strings or a "text" string.
func (r *request) text() (string, error) {
	if t, ok := r.body["text"].(string); ok {
		return t, nil
	}
	switch v := r.body["value"].(type) {
	case string:
		return v, nil
	case []any:
		var sb strings.Builder
		for _, part := range v {
			s, ok := part.(string)
			if !ok {
				return "", ErrInvalidArgument.with("%v", &errors.ParseError{Source: "value", DataType: "string", Got: part})
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	}
	return "", ErrInvalidArgument.with("'value' or 'text' is required")
}

// logRequests logs each request with its status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		entry := s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Microsecond),
		})
		if rec.status >= http.StatusBadRequest {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// elementID returns the {id} path value.
func (r *request) elementID() string {
	return r.PathValue("id")
}
