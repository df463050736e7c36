package automation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/e2e/pkg/app"
	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/handoff"
	fixturetest "github.com/go-drift/e2e/pkg/testing"
)

// testClient talks to a server whose loop runs on a fake clock. Gesture
// sleeps advance the clock on the loop, so holds take no wall time.
type testClient struct {
	t      *testing.T
	srv    *Server
	http   *httptest.Server
	clock  *fixturetest.FakeClock
	sessID string

	// afterSleep, when set, runs once after the next gesture sleep.
	afterSleep func()
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	clk := fixturetest.NewFakeClock()

	var (
		srv *Server
		c   *testClient
	)
	srv = New(Options{
		Logger: quiet,
		Clock:  clk,
		Sleep: func(ctx context.Context, d time.Duration) error {
			err := srv.Loop().Call(ctx, func() error {
				clk.Advance(d)
				return nil
			})
			if hook := c.afterSleep; hook != nil {
				c.afterSleep = nil
				hook()
			}
			return err
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Loop().Run(ctx)
	}()
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		cancel()
		<-done
		srv.Loop().Close()
	})
	c = &testClient{t: t, srv: srv, http: hs, clock: clk}
	return c
}

type response struct {
	Status    int
	Value     any
	SessionID *string
}

func (r response) errorCode() string {
	m, _ := r.Value.(map[string]any)
	code, _ := m["error"].(string)
	return code
}

func (r response) errorMessage() string {
	m, _ := r.Value.(map[string]any)
	msg, _ := m["message"].(string)
	return msg
}

func (c *testClient) do(method, path string, body any) response {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.http.URL+path, rd)
	require.NoError(c.t, err)
	resp, err := c.http.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env struct {
		Value     any     `json:"value"`
		SessionID *string `json:"sessionId"`
	}
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	return response{Status: resp.StatusCode, Value: env.Value, SessionID: env.SessionID}
}

// session prefixes path with the current session.
func (c *testClient) session(path string) string {
	return "/session/" + c.sessID + path
}

func (c *testClient) start() {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/session", map[string]any{
		"capabilities": map[string]any{"alwaysMatch": map[string]any{"bundleId": app.DefaultBundleID}},
	})
	require.Equal(c.t, http.StatusOK, resp.Status)
	require.NotNil(c.t, resp.SessionID)
	c.sessID = *resp.SessionID
}

func (c *testClient) find(using, value string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, c.session("/element"), map[string]any{"using": using, "value": value})
	require.Equal(c.t, http.StatusOK, resp.Status, "find %s=%q: %v", using, value, resp.Value)
	ref := resp.Value.(map[string]any)
	return ref[w3cElementKey].(string)
}

func (c *testClient) get(elementID, what string) any {
	c.t.Helper()
	resp := c.do(http.MethodGet, c.session("/element/"+elementID+"/"+what), nil)
	require.Equal(c.t, http.StatusOK, resp.Status, "%s: %v", what, resp.Value)
	return resp.Value
}

func (c *testClient) rect(elementID string) map[string]float64 {
	c.t.Helper()
	raw := c.get(elementID, "rect").(map[string]any)
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		out[k] = v.(float64)
	}
	return out
}

func (c *testClient) alertText() response {
	c.t.Helper()
	return c.do(http.MethodGet, "/alert/text", nil)
}

func TestStatus(t *testing.T) {
	c := newTestClient(t)

	resp := c.do(http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	status := resp.Value.(map[string]any)
	assert.Equal(t, true, status["ready"])
	assert.Equal(t, "success", status["state"])
	assert.Contains(t, status, "build")
	assert.Contains(t, status, "os")
	assert.Nil(t, resp.SessionID)
}

func TestSessionLifecycle(t *testing.T) {
	c := newTestClient(t)

	resp := c.do(http.MethodGet, "/wda/healthcheck", nil)
	assert.Nil(t, resp.Value)
	assert.Nil(t, resp.SessionID)

	c.start()
	resp = c.do(http.MethodGet, "/wda/healthcheck", nil)
	require.NotNil(t, resp.SessionID)
	assert.Equal(t, c.sessID, *resp.SessionID)

	resp = c.do(http.MethodGet, c.session(""), nil)
	require.Equal(t, http.StatusOK, resp.Status)
	caps := resp.Value.(map[string]any)["capabilities"].(map[string]any)
	assert.Equal(t, app.DefaultBundleID, caps["CFBundleIdentifier"])

	resp = c.do(http.MethodGet, "/session/BOGUS/source", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, ErrInvalidSession.Code, resp.errorCode())

	resp = c.do(http.MethodDelete, c.session(""), nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Nil(t, resp.SessionID)
}

func TestCreateSession_UnknownBundle(t *testing.T) {
	c := newTestClient(t)

	resp := c.do(http.MethodPost, "/session", map[string]any{
		"desiredCapabilities": map[string]any{"bundleId": "com.example.missing"},
	})
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, ErrSessionNotCreated.Code, resp.errorCode())
}

func TestUnknownCommand(t *testing.T) {
	c := newTestClient(t)

	resp := c.do(http.MethodGet, "/wda/shutdown", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, ErrUnknownCommand.Code, resp.errorCode())
}

func TestElementReads(t *testing.T) {
	c := newTestClient(t)
	c.start()

	enabled := c.find(ByAccessibilityID, app.IDEnabledButton)
	assert.Equal(t, true, c.get(enabled, "enabled"))
	assert.Equal(t, true, c.get(enabled, "displayed"))
	assert.Equal(t, "XCUIElementTypeButton", c.get(enabled, "name"))
	assert.Equal(t, app.IDEnabledButton, c.get(enabled, "text"))
	assert.Equal(t, app.IDEnabledButton, c.get(enabled, "attribute/label"))
	assert.Equal(t, true, c.do(http.MethodGet, c.session("/wda/element/"+enabled+"/accessible"), nil).Value)

	rect := c.rect(enabled)
	for _, k := range []string{"x", "y", "width", "height"} {
		assert.Equal(t, float64(int(rect[k])), rect[k], "%s should be whole", k)
	}

	disabled := c.find(ByID, app.IDDisabledButton)
	assert.Equal(t, false, c.get(disabled, "enabled"))

	hidden := c.find(ByName, app.IDHiddenButton)
	assert.Equal(t, false, c.get(hidden, "displayed"))
	resp := c.do(http.MethodGet, c.session("/wda/element/"+hidden+"/accessible"), nil)
	assert.Equal(t, false, resp.Value)

	checked := c.find(ByID, app.IDCheckedButton)
	assert.Equal(t, true, c.get(checked, "selected"))
	unchecked := c.find(ByID, app.IDUncheckedButton)
	assert.Equal(t, false, c.get(unchecked, "selected"))

	img := c.find(ByID, app.IDImageButton)
	assert.Equal(t, "XCUIElementTypeImage", c.get(img, "name"))
	assert.Equal(t, "applogo", c.get(img, "text"))

	resp = c.do(http.MethodGet, c.session("/wda/element/"+enabled+"/accessibilityContainer"), nil)
	assert.Equal(t, false, resp.Value)

	resp = c.do(http.MethodGet, c.session("/element/"+enabled+"/attribute/invalid_attribute_name"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, ErrInvalidArgument.Code, resp.errorCode())
}

func TestFindElement_Strategies(t *testing.T) {
	c := newTestClient(t)
	c.start()

	byPredicate := c.find(ByPredicateString, "label == 'ENABLED_BTN' AND type == 'XCUIElementTypeButton'")
	byID := c.find(ByID, app.IDEnabledButton)
	assert.Equal(t, byID, byPredicate, "element ids are stable per element")

	// The check buttons carry only an identifier, which name falls back to.
	byChain := c.find(ByClassChain, "**/XCUIElementTypeButton[`name == 'CHECKED_BTN'`]")
	assert.Equal(t, c.find(ByID, app.IDCheckedButton), byChain)
	resp := c.do(http.MethodPost, c.session("/elements"), map[string]any{
		"using": ByClassChain, "value": "**/XCUIElementTypeButton[`label == 'CHECKED_BTN'`]",
	})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, resp.Value)

	c.find(ByLinkText, "label=DragView")
	c.find(ByPartialLinkText, "label=Second line")

	resp = c.do(http.MethodPost, c.session("/elements"), map[string]any{"using": ByClassName, "value": "XCUIElementTypeButton"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Greater(t, len(resp.Value.([]any)), 5)

	resp = c.do(http.MethodPost, c.session("/elements"), map[string]any{"using": ByID, "value": "NOPE"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, resp.Value)

	resp = c.do(http.MethodPost, c.session("/element"), map[string]any{"using": ByXPath, "value": "//XCUIElementTypeButton"})
	assert.Equal(t, ErrInvalidSelector.Code, resp.errorCode())
}

func TestFindElement_SuggestsCloseName(t *testing.T) {
	c := newTestClient(t)
	c.start()

	resp := c.do(http.MethodPost, c.session("/element"), map[string]any{"using": ByID, "value": "ENABLED_BTM"})
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, ErrNoSuchElement.Code, resp.errorCode())
	assert.Contains(t, resp.errorMessage(), "Did you mean 'ENABLED_BTN'?")
}

func TestStaleElement(t *testing.T) {
	c := newTestClient(t)
	c.start()

	enabled := c.find(ByID, app.IDEnabledButton)
	link := c.find(ByID, app.LinkListView)
	resp := c.do(http.MethodPost, c.session("/element/"+link+"/click"), nil)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = c.do(http.MethodGet, c.session("/element/"+enabled+"/rect"), nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, ErrStaleElement.Code, resp.errorCode())
}

func TestAlerts(t *testing.T) {
	c := newTestClient(t)
	c.start()

	resp := c.alertText()
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, ErrNoSuchAlert.Code, resp.errorCode())
	assert.Equal(t, ErrNoSuchAlert.Message, resp.errorMessage())

	btn := c.find(ByID, app.IDAcceptOrRejectAlert)
	c.do(http.MethodPost, c.session("/element/"+btn+"/click"), nil)

	resp = c.alertText()
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "Confirmation\nDo you accept?", resp.Value)

	resp = c.do(http.MethodGet, c.session("/wda/alert/buttons"), nil)
	assert.Equal(t, []any{"Reject", "Accept"}, resp.Value)

	resp = c.do(http.MethodPost, c.session("/alert/text"), map[string]any{"value": []string{"x"}})
	assert.Equal(t, ErrNotInteractable.Code, resp.errorCode())

	resp = c.do(http.MethodPost, "/alert/accept", map[string]any{"name": "Maybe"})
	assert.Equal(t, ErrInvalidElementState.Code, resp.errorCode())

	resp = c.do(http.MethodPost, "/alert/dismiss", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, ErrNoSuchAlert.Code, c.alertText().errorCode())

	resp = c.do(http.MethodPost, "/alert/accept", nil)
	assert.Equal(t, ErrNoSuchAlert.Code, resp.errorCode())
}

func TestValueAndClear(t *testing.T) {
	c := newTestClient(t)
	c.start()

	resp := c.do(http.MethodPost, c.session("/wda/keyboard/dismiss"), nil)
	assert.Equal(t, ErrInvalidElementState.Code, resp.errorCode(), "no keyboard yet")

	field := c.find(ByID, app.IDInputField)
	resp = c.do(http.MethodPost, c.session("/element/"+field+"/value"), map[string]any{"value": []string{"te", "st"}})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "test", c.get(field, "attribute/value"))

	active := c.do(http.MethodGet, c.session("/element/active"), nil)
	require.Equal(t, http.StatusOK, active.Status)
	assert.Equal(t, field, active.Value.(map[string]any)[legacyElementKey])

	resp = c.do(http.MethodPost, c.session("/wda/keys"), map[string]any{"value": []string{"!"}})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "test!", c.get(field, "attribute/value"))

	clearBtn := c.find(ByID, app.IDClearInputButton)
	c.do(http.MethodPost, c.session("/element/"+clearBtn+"/click"), nil)
	assert.Nil(t, c.get(field, "attribute/value"))

	c.do(http.MethodPost, c.session("/element/"+field+"/value"), map[string]any{"text": "again"})
	resp = c.do(http.MethodPost, c.session("/element/"+field+"/clear"), nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Nil(t, c.get(field, "attribute/value"))

	resp = c.do(http.MethodPost, c.session("/wda/keyboard/dismiss"), nil)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestTouchAndHold_LongTapAlert(t *testing.T) {
	c := newTestClient(t)
	c.start()

	el := c.find(ByName, app.IDLongTapAlert)
	resp := c.do(http.MethodPost, c.session("/wda/element/"+el+"/touchAndHold"), map[string]any{"duration": 1.0})
	require.Equal(t, http.StatusOK, resp.Status)

	resp = c.alertText()
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Value, "Long Tap Alert")

	resp = c.do(http.MethodPost, "/alert/accept", map[string]any{"name": app.IDLongTapAlertOK})
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestTouchAndHold_TooShort(t *testing.T) {
	c := newTestClient(t)
	c.start()

	el := c.find(ByName, app.IDLongTapAlert)
	r := c.rect(el)
	resp := c.do(http.MethodPost, c.session("/wda/touchAndHold"), map[string]any{
		"x": r["x"] + r["width"]/2, "y": r["y"] + r["height"]/2, "duration": 0.3,
	})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, ErrNoSuchAlert.Code, c.alertText().errorCode())
}

func TestDoubleTap(t *testing.T) {
	c := newTestClient(t)
	c.start()

	el := c.find(ByName, app.IDDoubleTapAlert)
	resp := c.do(http.MethodPost, c.session("/wda/element/"+el+"/doubleTap"), nil)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = c.alertText()
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Value, "DOUBLE Tap Alert")
}

func (c *testClient) openDragScreen() (source, target map[string]float64) {
	c.t.Helper()
	link := c.find(ByID, app.LinkDragView)
	resp := c.do(http.MethodPost, c.session("/element/"+link+"/click"), nil)
	require.Equal(c.t, http.StatusOK, resp.Status)
	return c.rect(c.find(ByID, app.IDDragSource)), c.rect(c.find(ByID, app.IDDragTarget))
}

func center(r map[string]float64) (float64, float64) {
	return r["x"] + r["width"]/2, r["y"] + r["height"]/2
}

func TestDragHandoff(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		onTarget bool
		want     bool
	}{
		{name: "hold and drop on target", duration: 0.6, onTarget: true, want: true},
		{name: "no hold", duration: 0, onTarget: true, want: false},
		{name: "hold and drop beside target", duration: 0.6, onTarget: false, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t)
			c.start()
			source, target := c.openDragScreen()

			fromX, fromY := center(source)
			toX, toY := center(target)
			if !tt.onTarget {
				toY = target["y"] + target["height"] + 200
			}
			resp := c.do(http.MethodPost, c.session("/wda/dragfromtoforduration"), map[string]any{
				"fromX": fromX, "fromY": fromY, "toX": toX, "toY": toY, "duration": tt.duration,
			})
			require.Equal(t, http.StatusOK, resp.Status)

			resp = c.alertText()
			if !tt.want {
				assert.Equal(t, ErrNoSuchAlert.Code, resp.errorCode())
				return
			}
			require.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, "Success\nYou long-pressed and dragged onto Button B!", resp.Value)
		})
	}
}

func TestDragHandoff_InterruptedStrokeReleasesPointer(t *testing.T) {
	c := newTestClient(t)
	c.start()
	source, target := c.openDragScreen()
	fromX, fromY := center(source)
	toX, toY := center(target)

	// Cancel the request once the hold is over and keep the loop busy, so
	// the first move is still queued when the context ends.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	release := make(chan struct{})
	c.afterSleep = func() {
		cancel()
		c.srv.Loop().Dispatch(func() { <-release })
	}

	err := c.srv.stroke(ctx, geometry.Offset{X: fromX, Y: fromY}, geometry.Offset{X: toX, Y: toY}, 600*time.Millisecond)
	require.ErrorIs(t, err, context.Canceled)
	close(release)

	var active int
	var state handoff.State
	require.NoError(t, c.srv.Loop().Call(context.Background(), func() error {
		active = c.srv.app.ActivePointers()
		state = c.srv.app.Screen().(*app.DragScreen).Handoff().State()
		return nil
	}))
	assert.Zero(t, active, "the interrupted pointer is cancelled")
	assert.Equal(t, handoff.StateIdle, state)
	assert.Equal(t, ErrNoSuchAlert.Code, c.alertText().errorCode())

	resp := c.do(http.MethodPost, c.session("/wda/dragfromtoforduration"), map[string]any{
		"fromX": fromX, "fromY": fromY, "toX": toX, "toY": toY, "duration": 0.6,
	})
	require.Equal(t, http.StatusOK, resp.Status)
	resp = c.alertText()
	require.Equal(t, http.StatusOK, resp.Status, "a later drag still hands off")
	assert.Equal(t, "Success\nYou long-pressed and dragged onto Button B!", resp.Value)
}

func TestDragHandoff_ElementRelative(t *testing.T) {
	c := newTestClient(t)
	c.start()
	source, target := c.openDragScreen()

	src := c.find(ByID, app.IDDragSource)
	toX, toY := center(target)
	resp := c.do(http.MethodPost, c.session("/wda/element/"+src+"/dragfromtoforduration"), map[string]any{
		"fromX": source["width"] / 2, "fromY": source["height"] / 2,
		"toX": toX - source["x"], "toY": toY - source["y"],
		"duration": 0.6,
	})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, http.StatusOK, c.alertText().Status)
}

func TestListSwipeAndVisibleCells(t *testing.T) {
	c := newTestClient(t)
	c.start()

	link := c.find(ByID, app.LinkListView)
	c.do(http.MethodPost, c.session("/element/"+link+"/click"), nil)

	table := c.find(ByName, app.IDListContainer)
	row1 := c.find(ByClassChain, "**/XCUIElementTypeCell[1]")
	assert.Equal(t, true, c.get(row1, "displayed"))

	resp := c.do(http.MethodGet, c.session("/wda/element/"+table+"/getVisibleCells"), nil)
	require.Equal(t, http.StatusOK, resp.Status)
	before := len(resp.Value.([]any))
	assert.Greater(t, before, 0)
	assert.Less(t, before, app.ListRowCount)

	resp = c.do(http.MethodPost, c.session("/wda/element/"+table+"/swipe"), map[string]any{"direction": "up"})
	require.Equal(t, http.StatusOK, resp.Status)

	resp = c.do(http.MethodGet, c.session("/element/"+row1+"/displayed"), nil)
	if resp.Status == http.StatusOK {
		assert.Equal(t, false, resp.Value, "Row1 scrolled out of view")
	} else {
		assert.Equal(t, ErrStaleElement.Code, resp.errorCode(), "Row1 unloaded")
	}

	resp = c.do(http.MethodPost, c.session("/wda/element/"+table+"/swipe"), map[string]any{"direction": "sideways"})
	assert.Equal(t, ErrInvalidArgument.Code, resp.errorCode())
}

func TestOrientation(t *testing.T) {
	c := newTestClient(t)
	c.start()

	assert.Equal(t, "PORTRAIT", c.do(http.MethodGet, c.session("/orientation"), nil).Value)
	size := c.do(http.MethodGet, c.session("/window/size"), nil).Value.(map[string]any)
	assert.Equal(t, app.DefaultWindowSize.Width, size["width"])

	resp := c.do(http.MethodPost, c.session("/orientation"), map[string]any{"orientation": "LANDSCAPE"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "LANDSCAPE", c.do(http.MethodGet, c.session("/orientation"), nil).Value)
	size = c.do(http.MethodGet, c.session("/window/size"), nil).Value.(map[string]any)
	assert.Equal(t, app.DefaultWindowSize.Height, size["width"])

	label := c.find(ByID, app.IDOrientationText)
	assert.Equal(t, "LANDSCAPE", c.get(label, "text"))

	rot := c.do(http.MethodGet, c.session("/rotation"), nil).Value.(map[string]any)
	assert.Equal(t, float64(270), rot["z"])
	c.do(http.MethodPost, c.session("/rotation"), map[string]any{"x": 0, "y": 0, "z": 0})
	assert.Equal(t, "PORTRAIT", c.do(http.MethodGet, c.session("/orientation"), nil).Value)

	resp = c.do(http.MethodPost, c.session("/orientation"), map[string]any{"orientation": "DIAGONAL"})
	assert.Equal(t, ErrInvalidArgument.Code, resp.errorCode())
}

func TestApps(t *testing.T) {
	c := newTestClient(t)
	c.start()

	state := func(bundle string) any {
		return c.do(http.MethodPost, c.session("/wda/apps/state"), map[string]any{"bundleId": bundle}).Value
	}
	active := func() any {
		return c.do(http.MethodGet, "/wda/activeAppInfo", nil).Value.(map[string]any)["bundleId"]
	}

	assert.Equal(t, float64(app.StateRunningForeground), state(app.DefaultBundleID))
	assert.Equal(t, float64(app.StateNotRunning), state("com.example.unknown"))
	assert.Equal(t, app.DefaultBundleID, active())

	c.do(http.MethodPost, "/wda/homescreen", nil)
	assert.Equal(t, SpringboardBundleID, active())
	assert.Equal(t, float64(app.StateRunningBackground), state(app.DefaultBundleID))

	c.do(http.MethodPost, c.session("/wda/apps/activate"), map[string]any{"bundleId": app.DefaultBundleID})
	assert.Equal(t, app.DefaultBundleID, active())

	apps := c.do(http.MethodGet, c.session("/wda/apps/list"), nil).Value.([]any)
	require.Len(t, apps, 1)
	assert.Equal(t, app.DefaultBundleID, apps[0].(map[string]any)["bundleId"])

	resp := c.do(http.MethodPost, c.session("/wda/apps/terminate"), map[string]any{"bundleId": app.DefaultBundleID})
	assert.Equal(t, true, resp.Value)
	assert.Equal(t, float64(app.StateNotRunning), state(app.DefaultBundleID))

	resp = c.do(http.MethodPost, c.session("/wda/apps/launch"), map[string]any{"bundleId": "com.example.unknown"})
	assert.Equal(t, ErrInvalidArgument.Code, resp.errorCode())

	c.do(http.MethodPost, c.session("/wda/apps/launch"), map[string]any{"bundleId": app.DefaultBundleID})
	assert.Equal(t, float64(app.StateRunningForeground), state(app.DefaultBundleID))

	resp = c.do(http.MethodPost, c.session("/wda/deactivateApp"), map[string]any{"duration": 1})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, app.DefaultBundleID, active())
}

func TestLockUnlock(t *testing.T) {
	c := newTestClient(t)
	c.start()

	assert.Equal(t, false, c.do(http.MethodGet, "/wda/locked", nil).Value)
	c.do(http.MethodPost, "/wda/lock", nil)
	assert.Equal(t, true, c.do(http.MethodGet, "/wda/locked", nil).Value)
	assert.Equal(t, SpringboardBundleID, c.do(http.MethodGet, "/wda/activeAppInfo", nil).Value.(map[string]any)["bundleId"])

	c.do(http.MethodPost, "/wda/unlock", nil)
	assert.Equal(t, false, c.do(http.MethodGet, "/wda/locked", nil).Value)
	assert.Equal(t, app.DefaultBundleID, c.do(http.MethodGet, "/wda/activeAppInfo", nil).Value.(map[string]any)["bundleId"])
}

func TestSourceAndScreenshot(t *testing.T) {
	c := newTestClient(t)
	c.start()

	xml := c.do(http.MethodGet, "/source", nil).Value.(string)
	assert.Contains(t, xml, "<XCUIElementTypeApplication")
	assert.Contains(t, xml, app.IDEnabledButton)

	tree := c.do(http.MethodGet, c.session("/source?format=json"), nil).Value.(map[string]any)
	assert.Equal(t, "Application", tree["type"])

	resp := c.do(http.MethodGet, c.session("/source?format=yaml"), nil)
	assert.Equal(t, ErrInvalidArgument.Code, resp.errorCode())

	shot := c.do(http.MethodGet, "/screenshot", nil).Value.(string)
	png, err := base64.StdEncoding.DecodeString(shot)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	el := c.find(ByID, app.IDEnabledButton)
	crop, err := base64.StdEncoding.DecodeString(c.get(el, "screenshot").(string))
	require.NoError(t, err)
	assert.Less(t, len(crop), len(png))
}

func TestDeviceEndpoints(t *testing.T) {
	c := newTestClient(t)
	c.start()

	screen := c.do(http.MethodGet, c.session("/wda/screen"), nil).Value.(map[string]any)
	assert.Equal(t, app.DefaultScale, screen["scale"])

	info := c.do(http.MethodGet, "/wda/device/info", nil).Value.(map[string]any)
	for _, k := range []string{"timeZone", "currentLocale", "model", "uuid", "thermalState", "userInterfaceIdiom", "userInterfaceStyle", "name", "isSimulator"} {
		assert.Contains(t, info, k)
	}

	battery := c.do(http.MethodGet, c.session("/wda/batteryInfo"), nil).Value.(map[string]any)
	assert.Contains(t, battery, "level")
	assert.Contains(t, battery, "state")

	active := c.do(http.MethodGet, "/wda/activeAppInfo", nil).Value.(map[string]any)
	assert.Contains(t, active, "processArguments")
	assert.Contains(t, active, "pid")
}

func TestSettingsAndPasteboard(t *testing.T) {
	c := newTestClient(t)
	c.start()

	settings := c.do(http.MethodGet, c.session("/appium/settings"), nil).Value.(map[string]any)
	assert.Equal(t, true, settings["shouldUseCompactResponses"])
	assert.Len(t, settings, len(defaultSettings()))

	updated := c.do(http.MethodPost, c.session("/appium/settings"), map[string]any{
		"settings": map[string]any{"snapshotMaxDepth": 10},
	}).Value.(map[string]any)
	assert.Equal(t, float64(10), updated["snapshotMaxDepth"])

	content := base64.StdEncoding.EncodeToString([]byte("test"))
	resp := c.do(http.MethodPost, c.session("/wda/setPasteboard"), map[string]any{"content": content, "contentType": "plaintext"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, content, c.do(http.MethodPost, c.session("/wda/getPasteboard"), nil).Value)

	resp = c.do(http.MethodPost, c.session("/wda/setPasteboard"), map[string]any{"content": "%%%"})
	assert.Equal(t, ErrInvalidArgument.Code, resp.errorCode())
}

func TestInvalidBody(t *testing.T) {
	c := newTestClient(t)
	c.start()

	req, err := http.NewRequest(http.MethodPost, c.http.URL+c.session("/element"), bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := c.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
