package exchange

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"cmlsync/internal/reporter"
	"cmlsync/internal/transport"
)

type reply struct {
	status int
	body   string
}

func ok(body string) reply { return reply{status: http.StatusOK, body: body} }

type siteRequest struct {
	Mode     string
	Filename string
	Body     []byte
}

// fakeSite scripts the exchange endpoint of a shop
type fakeSite struct {
	mu sync.Mutex

	auth      reply
	initReply reply
	file      func(n int, body []byte) reply // n counts file requests from 0
	imports   map[string][]reply            // per file; the last reply repeats
	onReq     func(r siteRequest, seq int)  // called before replying

	requests []siteRequest
	importN  map[string]int
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		auth:      ok("success\nPHPSESSID\nq1w2\nsessid=abc123"),
		initReply: ok("zip=yes\nfile_limit=0"),
		file:      func(int, []byte) reply { return ok("success") },
		imports:   map[string][]reply{},
		importN:   map[string]int{},
	}
}

func (s *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	q := r.URL.Query()
	req := siteRequest{Mode: q.Get("mode"), Filename: q.Get("filename"), Body: body}

	s.mu.Lock()
	seq := len(s.requests)
	s.requests = append(s.requests, req)

	var rep reply
	switch req.Mode {
	case "checkauth":
		rep = s.auth
	case "init":
		rep = s.initReply
	case "file":
		n := 0
		for _, prev := range s.requests[:seq] {
			if prev.Mode == "file" {
				n++
			}
		}
		rep = s.file(n, body)
	case "import":
		script := s.imports[req.Filename]
		i := s.importN[req.Filename]
		s.importN[req.Filename] = i + 1
		switch {
		case len(script) == 0:
			rep = ok("success")
		case i < len(script):
			rep = script[i]
		default:
			rep = script[len(script)-1]
		}
	default:
		rep = reply{status: http.StatusBadRequest, body: "failure\nunknown mode"}
	}
	hook := s.onReq
	s.mu.Unlock()

	if hook != nil {
		hook(req, seq)
	}
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (s *fakeSite) Requests() []siteRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]siteRequest(nil), s.requests...)
}

func (s *fakeSite) Modes() []string {
	var modes []string
	for _, r := range s.Requests() {
		modes = append(modes, r.Mode)
	}
	return modes
}

func (s *fakeSite) ByMode(mode string) []siteRequest {
	var out []siteRequest
	for _, r := range s.Requests() {
		if r.Mode == mode {
			out = append(out, r)
		}
	}
	return out
}

// countingConn records how often the session is released
type countingConn struct {
	*transport.Client
	closes atomic.Int32
}

func (c *countingConn) Close() error {
	c.closes.Add(1)
	return c.Client.Close()
}

func newConn(t *testing.T, srv *httptest.Server) *countingConn {
	t.Helper()
	client, err := transport.NewClient(transport.Config{
		BaseURL:  srv.URL + "/bitrix/admin/1c_exchange.php",
		Login:    "admin",
		Password: "secret",
		Type:     "catalog",
		Version:  "3.1",
	}, srv.Client())
	require.NoError(t, err)
	return &countingConn{Client: client}
}

// eventLog is a thread-safe reporter.Sink
type eventLog struct {
	mu     sync.Mutex
	events []reporter.Event
}

func (l *eventLog) Emit(e reporter.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) All() []reporter.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]reporter.Event(nil), l.events...)
}

func (l *eventLog) Percents() []int {
	var out []int
	for _, e := range l.All() {
		if e.Kind == reporter.KindPercent {
			out = append(out, e.Percent)
		}
	}
	return out
}

func (l *eventLog) Outcomes() []bool {
	var out []bool
	for _, e := range l.All() {
		if e.Kind == reporter.KindOutcome {
			out = append(out, e.Success)
		}
	}
	return out
}

// NonLog drops log lines, leaving the structural events
func (l *eventLog) NonLog() []reporter.Event {
	var out []reporter.Event
	for _, e := range l.All() {
		if e.Kind != reporter.KindLog {
			e.Time = time.Time{}
			out = append(out, e)
		}
	}
	return out
}

func newTestEngine(fs afero.Fs, opts ...Option) *Engine {
	base := []Option{WithFs(fs), WithPollInterval(5 * time.Millisecond)}
	return NewEngine(append(base, opts...)...)
}

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

// stubConn is a Conn driven by functions, for paths a real server cannot produce
type stubConn struct {
	checkAuth func(ctx context.Context) (*transport.Response, error)
	initFn    func(ctx context.Context) (*transport.Response, error)
	sendFile  func(ctx context.Context, filename string, chunk []byte) (*transport.Response, error)
	imp       func(ctx context.Context, filename string) (*transport.Response, error)
	sessid    string
	closes    atomic.Int32
}

func okResponse(body string) *transport.Response {
	return &transport.Response{Method: http.MethodGet, URL: "http://stub/", StatusCode: http.StatusOK, Body: body}
}

func (s *stubConn) CheckAuth(ctx context.Context) (*transport.Response, error) {
	if s.checkAuth != nil {
		return s.checkAuth(ctx)
	}
	return okResponse("success\nsessid=stub"), nil
}

func (s *stubConn) Init(ctx context.Context) (*transport.Response, error) {
	if s.initFn != nil {
		return s.initFn(ctx)
	}
	return okResponse("file_limit=0"), nil
}

func (s *stubConn) SendFile(ctx context.Context, filename string, chunk []byte) (*transport.Response, error) {
	if s.sendFile != nil {
		return s.sendFile(ctx, filename, chunk)
	}
	return okResponse("success"), nil
}

func (s *stubConn) Import(ctx context.Context, filename string) (*transport.Response, error) {
	if s.imp != nil {
		return s.imp(ctx, filename)
	}
	return okResponse("success"), nil
}

func (s *stubConn) SetSessionID(id string) { s.sessid = id }

func (s *stubConn) Close() error {
	s.closes.Add(1)
	return nil
}
