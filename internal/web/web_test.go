package web_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/greenlight/internal/factory"
	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/testutil"
	"github.com/mcoot/greenlight/internal/web"
	"github.com/mcoot/greenlight/internal/web/middleware"
)

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
	cookies *cookieJar
}

// newWebTestServer creates a new test server with all dependencies wired
func newWebTestServer(t *testing.T) *webTestServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Close(ctx)
	})

	router := web.NewRouter(web.RouterConfig{
		Logger:      testutil.NopLogger(),
		Sessions:    app.Sessions,
		Leaderboard: app.Leaderboard,
		HubManager:  app.HubManager,
		Broadcaster: app.Broadcaster,
	})

	return &webTestServer{
		t:       t,
		handler: router,
		app:     app,
		cookies: newCookieJar(),
	}
}

// request makes an HTTP request and returns the response
func (ts *webTestServer) request(method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}

	// Add cookies from jar
	ts.cookies.addTo(req)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	// Extract Set-Cookie headers into jar
	ts.cookies.extract(rr)

	return rr
}

// get makes a GET request
func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil, false)
}

// post makes a POST request with form data (non-HTMX)
func (ts *webTestServer) post(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form, false)
}

// postHTMX makes a POST request with form data as an HTMX request
func (ts *webTestServer) postHTMX(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form, true)
}

// sessionID returns the id held in the session cookie
func (ts *webTestServer) sessionID() model.SessionID {
	c, ok := ts.cookies.cookies[middleware.SessionCookieName]
	if !ok {
		return ""
	}
	return model.SessionID(c.Value)
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// cookieJar maintains cookies across requests (like a browser would)
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{
		cookies: make(map[string]*http.Cookie),
	}
}

// addTo adds all cookies to the request
func (j *cookieJar) addTo(req *http.Request) {
	for _, cookie := range j.cookies {
		req.AddCookie(cookie)
	}
}

// extract extracts Set-Cookie headers from response
func (j *cookieJar) extract(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			// Cookie being deleted
			delete(j.cookies, cookie.Name)
		} else {
			j.cookies[cookie.Name] = cookie
		}
	}
}

func validForm(difficulty string) url.Values {
	return url.Values{
		"name":       {"Jessica"},
		"email":      {"jessica@example.com"},
		"mobile":     {"0400123456"},
		"difficulty": {difficulty},
	}
}

// Home page tests

func TestHome_RendersRegistrationForm(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))

	doc := parseHTML(rr.Body)
	form := doc.Find("form#registration")
	require.Equal(t, 1, form.Length())
	assert.Equal(t, "/play", form.AttrOr("action", ""))
	assert.Equal(t, "post", form.AttrOr("method", ""))

	for _, name := range []string{"name", "email", "mobile"} {
		assert.Equal(t, 1, form.Find(`input[name="`+name+`"]`).Length(), "missing input %s", name)
	}

	options := form.Find(`select[name="difficulty"] option`)
	require.Equal(t, 3, options.Length())
	assert.Equal(t, "easy", options.Eq(0).AttrOr("value", ""))
	assert.Contains(t, options.Eq(0).Text(), "11 clicks in 40s")
	assert.Equal(t, "hard", options.Eq(2).AttrOr("value", ""))

	assert.Equal(t, 1, doc.Find("#leaderboard .leaderboard-empty").Length())
}

func TestHome_PrefilledAfterRegistration(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/play", validForm("medium"))
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.get("/").Body)
	assert.Equal(t, "Jessica", doc.Find(`input[name="name"]`).AttrOr("value", ""))
	assert.Equal(t, "jessica@example.com", doc.Find(`input[name="email"]`).AttrOr("value", ""))
	assert.Equal(t, "medium", doc.Find(`select[name="difficulty"] option[selected]`).AttrOr("value", ""))
}

// Play tests

func TestPlay_StartsGameAndRedirects(t *testing.T) {
	ts := newWebTestServer(t)
	ts.app.MockRandom.QueueString("WEB001")

	rr := ts.post("/play", validForm("easy"))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/play", rr.Header().Get("Location"))
	assert.Equal(t, model.SessionID("WEB001"), ts.sessionID())

	state, err := ts.app.Sessions.State("WEB001")
	require.NoError(t, err)
	assert.True(t, state.Running())

	rr = ts.get("/play")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assert.Equal(t, "/play/events", doc.Find("[sse-connect]").AttrOr("sse-connect", ""))

	box := doc.Find("#game-box")
	require.Equal(t, 1, box.Length())
	assert.True(t, box.HasClass("stop"))
	assert.Equal(t, "/play/click", box.AttrOr("hx-post", ""))
	assert.Equal(t, "40", doc.Find("#time-left").Text())
	assert.Equal(t, "0", doc.Find("#score").Text())
	assert.Contains(t, doc.Find(".player").First().Text(), "Jessica")
}

func TestPlay_InvalidRegistrationShowsErrors(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{
		"name":       {"Jessica"},
		"email":      {"not-an-email"},
		"mobile":     {"12345678901"},
		"difficulty": {"easy"},
	}
	rr := ts.post("/play", form)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	doc := parseHTML(rr.Body)
	assert.Contains(t, doc.Find(".flash-error").Text(), model.StartRejectedMessage)
	assert.NotEmpty(t, strings.TrimSpace(doc.Find(`.error[data-field="email"]`).Text()))
	assert.NotEmpty(t, strings.TrimSpace(doc.Find(`.error[data-field="mobile"]`).Text()))
	assert.Empty(t, strings.TrimSpace(doc.Find(`.error[data-field="name"]`).Text()))

	// Submitted values are kept
	assert.Equal(t, "Jessica", doc.Find(`input[name="name"]`).AttrOr("value", ""))
	assert.Equal(t, "not-an-email", doc.Find(`input[name="email"]`).AttrOr("value", ""))

	state, err := ts.app.Sessions.State(ts.sessionID())
	require.NoError(t, err)
	assert.False(t, state.Running())
}

func TestPlay_UnknownDifficultyRejected(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/play", validForm("impossible"))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	doc := parseHTML(rr.Body)
	assert.NotEmpty(t, strings.TrimSpace(doc.Find(`.error[data-field="difficulty"]`).Text()))
}

func TestPlay_WhileRunningKeepsCurrentRound(t *testing.T) {
	ts := newWebTestServer(t)

	require.Equal(t, http.StatusSeeOther, ts.post("/play", validForm("easy")).Code)
	id := ts.sessionID()

	rr := ts.post("/play", validForm("hard"))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, id, ts.sessionID())

	state, err := ts.app.Sessions.State(id)
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyEasy, state.Difficulty)

	doc := parseHTML(ts.get("/play").Body)
	assert.Contains(t, doc.Find(".flash-info").Text(), "already in progress")
}

func TestPlay_ViewWithoutSessionRedirects(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/play")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestPlay_StaleCookieStartsNewSession(t *testing.T) {
	ts := newWebTestServer(t)
	ts.cookies.cookies[middleware.SessionCookieName] = &http.Cookie{Name: middleware.SessionCookieName, Value: "GONE00"}
	ts.app.MockRandom.QueueString("NEW001")

	rr := ts.post("/play", validForm("easy"))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, model.SessionID("NEW001"), ts.sessionID())
}

// Click tests

func TestClick_WithoutSession(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.postHTMX("/play/click", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("HX-Redirect"))
}

func TestClick_OnStopSignalEndsRound(t *testing.T) {
	ts := newWebTestServer(t)
	require.Equal(t, http.StatusSeeOther, ts.post("/play", validForm("easy")).Code)
	id := ts.sessionID()

	rr := ts.postHTMX("/play/click", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	assert.Eventually(t, func() bool {
		state, err := ts.app.Sessions.State(id)
		return err == nil && !state.Running()
	}, time.Second, 5*time.Millisecond)

	doc := parseHTML(ts.get("/play").Body)
	assert.Equal(t, 0, doc.Find("#game-box").Length())
	assert.Equal(t, "/", doc.Find("#game-panel a").AttrOr("href", ""))
}

func TestClick_ClosedSession(t *testing.T) {
	ts := newWebTestServer(t)
	require.Equal(t, http.StatusSeeOther, ts.post("/play", validForm("easy")).Code)

	// Closing the engine keeps nothing for the cookie to resolve to
	require.NoError(t, ts.app.Sessions.CloseSession(context.Background(), ts.sessionID()))

	rr := ts.postHTMX("/play/click", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// SSE tests

func TestEvents_StreamsInitialState(t *testing.T) {
	ts := newWebTestServer(t)
	require.Equal(t, http.StatusSeeOther, ts.post("/play", validForm("easy")).Code)

	req := httptest.NewRequest(http.MethodGet, "/play/events", nil)
	ts.cookies.addTo(req)

	// SSE is long-running, so the request is cut off by its context
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))

	body := rr.Body.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: state\ndata: {\"status\":\"running\"")
	assert.Contains(t, body, "event: game\n")
	assert.Contains(t, body, `id="game-box"`)
}

func TestEvents_RequiresSession(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/play/events")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/scores/ABC")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
