package endpoint

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/apifire/component"
	"github.com/kbukum/apifire/config"
	"github.com/kbukum/apifire/errors"
	"github.com/kbukum/apifire/logger"
	"github.com/kbukum/apifire/session"
)

type recordedCall struct {
	timeout time.Duration
	req     *session.Request
	body    []byte
}

// recorder captures every request the fake sessions execute.
type recorder struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(req *session.Request) *session.Response
}

func (r *recorder) Calls() []recordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedCall(nil), r.calls...)
}

type fakeSession struct {
	timeout time.Duration
	rec     *recorder
}

func (s *fakeSession) Timeout() time.Duration { return s.timeout }
func (s *fakeSession) Close()                 {}

func (s *fakeSession) Execute(ctx context.Context, req *session.Request) *session.Response {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	s.rec.mu.Lock()
	s.rec.calls = append(s.rec.calls, recordedCall{timeout: s.timeout, req: req, body: body})
	s.rec.mu.Unlock()
	return s.rec.respond(req)
}

func newTestDispatcher(t *testing.T, respond func(*session.Request) *session.Response, opts ...Option) (*Dispatcher, *recorder) {
	t.Helper()
	rec := &recorder{respond: respond}
	pool := session.NewPool(session.WithFactory(func(timeout time.Duration) session.Session {
		return &fakeSession{timeout: timeout, rec: rec}
	}))
	base := []Option{WithPool(pool), WithLogger(logger.Nop())}
	d := NewDispatcher(nil, append(base, opts...)...)
	t.Cleanup(func() { _ = d.Stop(context.Background()) })
	return d, rec
}

func respondJSON(status int, body string) func(*session.Request) *session.Response {
	return func(*session.Request) *session.Response {
		return &session.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       []byte(body),
		}
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callbacks")
	}
}

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestData_GetEncodesQuery(t *testing.T) {
	d, rec := newTestDispatcher(t, respondJSON(200, `{"id":1,"name":"ada"}`))

	e := &Data[user]{Endpoint: Endpoint{
		URL:        "https://api.example.com/users/1",
		Parameters: map[string]any{"active": true, "tag": nil},
	}}
	r := e.Do(context.Background(), d)

	u, err := r.Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Name != "ada" {
		t.Errorf("expected ada, got %q", u.Name)
	}

	calls := rec.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 request, got %d", len(calls))
	}
	if calls[0].req.Method != http.MethodGet {
		t.Errorf("expected GET, got %s", calls[0].req.Method)
	}
	if q := calls[0].req.Query.Encode(); q != "active=true" {
		t.Errorf("expected active=true, got %q", q)
	}
	if calls[0].body != nil {
		t.Errorf("expected no body, got %s", calls[0].body)
	}
}

func TestData_PostEncodesJSON(t *testing.T) {
	d, rec := newTestDispatcher(t, respondJSON(200, `{}`))

	e := &Data[NoResponse]{Endpoint: Endpoint{
		URL:        "https://api.example.com/users",
		Method:     http.MethodPost,
		Parameters: map[string]any{"active": true, "tag": nil},
	}}
	if r := e.Do(context.Background(), d); !r.IsSuccess() {
		t.Fatalf("unexpected failure: %v", r.Err())
	}

	calls := rec.Calls()
	if string(calls[0].body) != `{"active":true}` {
		t.Errorf("expected {\"active\":true}, got %s", calls[0].body)
	}
	if len(calls[0].req.Query) != 0 {
		t.Errorf("expected empty query, got %v", calls[0].req.Query)
	}
	if ct := calls[0].req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
}

func TestData_MalformedBodyReachesEveryCallback(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(200, `<html>oops</html>`))

	e := &Data[user]{Endpoint: Endpoint{URL: "https://api.example.com/users/1"}}

	var mu sync.Mutex
	var errs []error
	cb := func(r Result[user]) {
		mu.Lock()
		errs = append(errs, r.Err())
		mu.Unlock()
	}
	waitDone(t, e.Call(context.Background(), d, cb, cb, cb))

	if len(errs) != 3 {
		t.Fatalf("expected 3 callbacks, got %d", len(errs))
	}
	for i, err := range errs {
		if !errors.IsMalformedBody(err) {
			t.Errorf("callback %d: expected MalformedBody, got %v", i, err)
		}
	}
}

func TestData_NoResponseAcceptsEmptyBody(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(200, ``))

	e := &Data[NoResponse]{Endpoint: Endpoint{URL: "https://api.example.com/ping"}}
	if r := e.Do(context.Background(), d); !r.IsSuccess() {
		t.Errorf("expected success, got %v", r.Err())
	}
}

func TestData_Timeout(t *testing.T) {
	d, _ := newTestDispatcher(t, func(*session.Request) *session.Response {
		return &session.Response{StatusCode: session.StatusTimeout, Err: errors.Timeout()}
	})

	e := &Data[user]{Endpoint: Endpoint{URL: "https://api.example.com/slow"}}
	r := e.Do(context.Background(), d)
	if !errors.IsTimeout(r.Err()) {
		t.Errorf("expected Timeout, got %v", r.Err())
	}
}

func TestData_NotOkKeepsValueAndResponse(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(404, `{"id":0,"name":"missing"}`))

	e := &Data[user]{Endpoint: Endpoint{URL: "https://api.example.com/users/9"}}
	r := e.Do(context.Background(), d)

	if !errors.IsNotOkResponse(r.Err()) {
		t.Fatalf("expected NotOkResponse, got %v", r.Err())
	}
	if v, ok := r.Value(); !ok || v.Name != "missing" {
		t.Errorf("expected partial value, got %+v (ok=%v)", v, ok)
	}
	re, ok := ServerResponse[user](r.Err())
	if !ok {
		t.Fatal("expected ResponseError")
	}
	if re.Response.StatusCode != 404 {
		t.Errorf("expected 404, got %d", re.Response.StatusCode)
	}
}

func TestData_ConnectionFailure(t *testing.T) {
	d, _ := newTestDispatcher(t, func(*session.Request) *session.Response {
		return &session.Response{Err: errors.ConnectionFailed(fmt.Errorf("refused"))}
	})

	e := &Data[user]{Endpoint: Endpoint{URL: "https://api.example.com/users"}}
	r := e.Do(context.Background(), d)
	if !errors.IsNotOkResponse(r.Err()) {
		t.Errorf("expected NotOkResponse for no status, got %v", r.Err())
	}
}

func TestData_PreflightFailureSkipsTransport(t *testing.T) {
	d, rec := newTestDispatcher(t, respondJSON(200, `{}`))

	e := &Data[user]{
		Endpoint: Endpoint{
			URL:       "https://api.example.com/me",
			Timeout:   30 * time.Second,
			Preflight: func(context.Context) error { return fmt.Errorf("no token") },
		},
		TransformError: func(err error) Result[user] {
			if errors.IsPreflightFailed(err) {
				return Failure[user](errors.TokenExpired().WithCause(err))
			}
			return Failure[user](err)
		},
	}

	var mu sync.Mutex
	var got []error
	cb := func(r Result[user]) {
		mu.Lock()
		got = append(got, r.Err())
		mu.Unlock()
	}
	waitDone(t, e.Call(context.Background(), d, cb, cb))

	if len(rec.Calls()) != 0 {
		t.Errorf("expected no transport invocation, got %d", len(rec.Calls()))
	}
	if d.Pool().Len() != 1 {
		t.Errorf("expected no session to be created, got %d", d.Pool().Len())
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(got))
	}
	for _, err := range got {
		if !errors.IsTokenExpired(err) {
			t.Errorf("expected TokenExpired, got %v", err)
		}
	}
}

func TestData_TransformErrorOnClassifiedFailure(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(401, ``))

	e := &Data[user]{
		Endpoint: Endpoint{URL: "https://api.example.com/me"},
		TransformError: func(err error) Result[user] {
			if re, ok := ServerResponse[user](err); ok && re.Response.StatusCode == 401 {
				return Failure[user](errors.TokenExpired())
			}
			return Failure[user](err)
		},
	}
	if r := e.Do(context.Background(), d); !errors.IsTokenExpired(r.Err()) {
		t.Errorf("expected TokenExpired, got %v", r.Err())
	}
}

func TestData_TransformErrorRecoversWithFallback(t *testing.T) {
	fallback := user{ID: -1, Name: "cached"}
	recoverAll := func(error) Result[user] { return Success(fallback) }

	tests := []struct {
		name      string
		respond   func(*session.Request) *session.Response
		preflight PreflightFunc
		wantCalls int
	}{
		{
			name:      "preflight failure",
			respond:   respondJSON(200, `{"id":1}`),
			preflight: func(context.Context) error { return fmt.Errorf("offline") },
		},
		{
			name:      "server error",
			respond:   respondJSON(500, `{"error":"boom"}`),
			wantCalls: 1,
		},
		{
			name:      "malformed body",
			respond:   respondJSON(200, `{`),
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec := newTestDispatcher(t, tt.respond)
			e := &Data[user]{
				Endpoint:       Endpoint{URL: "https://api.example.com/me", Preflight: tt.preflight},
				TransformError: recoverAll,
			}

			var got []Result[user]
			cb := func(r Result[user]) { got = append(got, r) }
			waitDone(t, e.Call(context.Background(), d, cb, cb))

			if len(rec.Calls()) != tt.wantCalls {
				t.Errorf("expected %d transport calls, got %d", tt.wantCalls, len(rec.Calls()))
			}
			if len(got) != 2 {
				t.Fatalf("expected 2 callbacks, got %d", len(got))
			}
			for _, r := range got {
				u, err := r.Unwrap()
				if err != nil {
					t.Fatalf("expected recovered success, got %v", err)
				}
				if u != fallback {
					t.Errorf("expected %+v, got %+v", fallback, u)
				}
			}
		})
	}
}

func TestData_TransformErrorSkippedOnSuccess(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(200, `{"id":1,"name":"ada"}`))

	called := false
	e := &Data[user]{
		Endpoint: Endpoint{URL: "https://api.example.com/me"},
		TransformError: func(err error) Result[user] {
			called = true
			return Failure[user](err)
		},
	}
	if u, err := e.Do(context.Background(), d).Unwrap(); err != nil || u.Name != "ada" {
		t.Errorf("expected ada, got %+v (%v)", u, err)
	}
	if called {
		t.Error("expected TransformError to be skipped on success")
	}
}

func TestData_TransformResponse(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(201, `{"id":5,"name":"new"}`))

	e := &Data[user]{
		Endpoint: Endpoint{URL: "https://api.example.com/users", Method: http.MethodPost},
		TransformResponse: func(resp *session.Response, v *user) Result[user] {
			if resp.StatusCode == http.StatusCreated && v != nil {
				return Success(*v)
			}
			return Classify(resp.StatusCode, v)
		},
	}
	r := e.Do(context.Background(), d)
	if u, err := r.Unwrap(); err != nil || u.ID != 5 {
		t.Errorf("expected user 5, got %+v (%v)", u, err)
	}
}

func TestData_CustomDecoder(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(200, `plain text`))

	e := &Data[string]{
		Endpoint: Endpoint{URL: "https://api.example.com/motd"},
		Decoder: func(body []byte) (*string, error) {
			s := string(body)
			return &s, nil
		},
	}
	if v, err := e.Do(context.Background(), d).Unwrap(); err != nil || v != "plain text" {
		t.Errorf("expected plain text, got %q (%v)", v, err)
	}
}

func TestData_ListenersRunFirst(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(200, `{"id":1}`))

	var order []string
	e := &Data[user]{
		Endpoint:  Endpoint{URL: "https://api.example.com/users/1"},
		Listeners: []Callback[user]{func(Result[user]) { order = append(order, "listener") }},
	}
	waitDone(t, e.Call(context.Background(), d,
		func(Result[user]) { order = append(order, "a") },
		func(Result[user]) { order = append(order, "b") },
	))

	want := []string{"listener", "a", "b"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestData_SessionPerTimeout(t *testing.T) {
	d, rec := newTestDispatcher(t, respondJSON(200, `{}`))

	for _, timeout := range []time.Duration{0, 30 * time.Second, 30 * time.Second} {
		e := &Data[NoResponse]{Endpoint: Endpoint{URL: "https://api.example.com", Timeout: timeout}}
		e.Do(context.Background(), d)
	}

	calls := rec.Calls()
	if calls[0].timeout != session.DefaultTimeout {
		t.Errorf("expected default timeout, got %s", calls[0].timeout)
	}
	if calls[1].timeout != 30*time.Second || calls[2].timeout != 30*time.Second {
		t.Errorf("expected 30s sessions, got %s and %s", calls[1].timeout, calls[2].timeout)
	}
	if d.Pool().Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", d.Pool().Len())
	}
}

type authorizerFunc func(*session.Request) error

func (f authorizerFunc) Authorize(req *session.Request) error { return f(req) }

func TestData_Authorizer(t *testing.T) {
	d, rec := newTestDispatcher(t, respondJSON(200, `{}`))

	e := &Data[NoResponse]{Endpoint: Endpoint{
		URL: "https://api.example.com",
		Auth: authorizerFunc(func(req *session.Request) error {
			req.Header.Set("Authorization", "Bearer t0k")
			return nil
		}),
	}}
	e.Do(context.Background(), d)

	if got := rec.Calls()[0].req.Header.Get("Authorization"); got != "Bearer t0k" {
		t.Errorf("expected bearer header, got %q", got)
	}
}

func TestData_AuthorizerFailureSkipsTransport(t *testing.T) {
	d, rec := newTestDispatcher(t, respondJSON(200, `{}`))

	e := &Data[NoResponse]{Endpoint: Endpoint{
		URL:  "https://api.example.com",
		Auth: authorizerFunc(func(*session.Request) error { return fmt.Errorf("no key") }),
	}}
	r := e.Do(context.Background(), d)

	if len(rec.Calls()) != 0 {
		t.Errorf("expected no transport invocation, got %d", len(rec.Calls()))
	}
	if !errors.HasCode(r.Err(), errors.ErrCodeNotOkResponse) {
		t.Errorf("expected NotOkResponse, got %v", r.Err())
	}
	appErr, _ := errors.AsAppError(r.Err())
	if appErr == nil || !errors.HasCode(appErr.Cause, errors.ErrCodeInvalidEndpoint) {
		t.Errorf("expected InvalidEndpoint cause, got %v", r.Err())
	}
}

type countingHooks struct {
	mu      sync.Mutex
	name    string
	events  *[]string
	started int
	ended   int
}

func (h *countingHooks) CallStarted(ctx context.Context, info CallInfo) context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started++
	*h.events = append(*h.events, h.name+":start:"+string(info.Kind))
	return ctx
}

func (h *countingHooks) CallEnded(ctx context.Context, info CallInfo, resp *session.Response) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ended++
	*h.events = append(*h.events, h.name+":end")
}

func TestData_Hooks(t *testing.T) {
	var events []string
	global := &countingHooks{name: "global", events: &events}
	local := &countingHooks{name: "local", events: &events}
	d, _ := newTestDispatcher(t, respondJSON(200, `{}`), WithHooks(global))

	e := &Data[NoResponse]{Endpoint: Endpoint{URL: "https://api.example.com", Hooks: local}}
	e.Do(context.Background(), d)

	want := "[global:start:data local:start:data local:end global:end]"
	if fmt.Sprint(events) != want {
		t.Errorf("expected %s, got %v", want, events)
	}

	failing := &Data[NoResponse]{Endpoint: Endpoint{}}
	failing.Do(context.Background(), d)
	if global.started != 1 {
		t.Errorf("expected hooks to skip preflight failures, got %d starts", global.started)
	}
}

func TestData_LogHooks(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(200, `{}`))

	e := &Data[NoResponse]{Endpoint: Endpoint{URL: "https://api.example.com", Hooks: LogHooks(logger.Nop())}}
	if r := e.Do(context.Background(), d); !r.IsSuccess() {
		t.Errorf("expected success, got %v", r.Err())
	}
}

func TestData_EndpointExecutor(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(200, `{}`))

	submitted := 0
	exec := ExecutorFunc(func(fn func()) {
		submitted++
		fn()
	})
	e := &Data[NoResponse]{Endpoint: Endpoint{URL: "https://api.example.com", Executor: exec}}
	e.Do(context.Background(), d)

	if submitted != 1 {
		t.Errorf("expected callbacks on the endpoint executor, got %d submissions", submitted)
	}
}

func TestDispatcher_Lifecycle(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(200, `{}`), WithName("api"))
	ctx := context.Background()

	if d.Name() != "api" {
		t.Errorf("expected name api, got %q", d.Name())
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h := d.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}
	if desc := d.Describe(); desc.Type != "dispatcher" {
		t.Errorf("expected dispatcher type, got %q", desc.Type)
	}

	var delivered int
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		e := &Data[NoResponse]{Endpoint: Endpoint{URL: "https://api.example.com"}}
		e.Call(ctx, d, func(Result[NoResponse]) {
			mu.Lock()
			delivered++
			mu.Unlock()
		})
	}

	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if delivered != 10 {
		t.Errorf("expected Stop to wait for 10 deliveries, got %d", delivered)
	}
	if h := d.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy after stop, got %s", h.Status)
	}
	if err := d.Start(ctx); err == nil {
		t.Error("expected error starting a stopped dispatcher")
	}
}

func TestNewDispatcher_FromConfig(t *testing.T) {
	cfg := &config.Config{
		Name:           "billing",
		DefaultTimeout: 20 * time.Second,
		Logger:         logger.Config{Level: "disabled", Output: "discard"},
	}
	d := NewDispatcher(cfg)
	defer func() { _ = d.Stop(context.Background()) }()

	if d.Name() != "billing" {
		t.Errorf("expected billing, got %q", d.Name())
	}
	if d.Pool().DefaultTimeout() != 20*time.Second {
		t.Errorf("expected 20s default session, got %s", d.Pool().DefaultTimeout())
	}
}

func TestNewDispatcher_LeavesConfigUntouched(t *testing.T) {
	cfg := &config.Config{Logger: logger.Config{Level: "disabled", Output: "discard"}}
	d := NewDispatcher(cfg)
	defer func() { _ = d.Stop(context.Background()) }()

	if cfg.Name != "" || cfg.DefaultTimeout != 0 || cfg.UserAgent != "" {
		t.Errorf("expected caller config unchanged, got %+v", cfg)
	}
	if d.Name() != "apifire" {
		t.Errorf("expected default name, got %q", d.Name())
	}
	if d.Pool().DefaultTimeout() != session.DefaultTimeout {
		t.Errorf("expected default timeout, got %s", d.Pool().DefaultTimeout())
	}
}

func TestDispatcher_CallAfterStopIsRejected(t *testing.T) {
	d, rec := newTestDispatcher(t, respondJSON(200, `{"id":1}`))
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	e := &Data[user]{Endpoint: Endpoint{URL: "https://api.example.com/me"}}
	var got []Result[user]
	cb := func(r Result[user]) { got = append(got, r) }
	waitDone(t, e.Call(context.Background(), d, cb, cb))

	if len(got) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(got))
	}
	for _, r := range got {
		if !errors.IsDispatcherStopped(r.Err()) {
			t.Errorf("expected DispatcherStopped, got %v", r.Err())
		}
	}
	if len(rec.Calls()) != 0 {
		t.Errorf("expected no transport calls, got %d", len(rec.Calls()))
	}
}

func TestDispatcher_CallsRacingStop(t *testing.T) {
	d, _ := newTestDispatcher(t, respondJSON(200, `{"id":1}`))
	ctx := context.Background()

	const n = 50
	var mu sync.Mutex
	delivered := map[int]int{}
	var wg sync.WaitGroup
	dones := make([]<-chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := &Data[user]{Endpoint: Endpoint{URL: "https://api.example.com/me"}}
			dones[i] = e.Call(ctx, d, func(r Result[user]) {
				if err := r.Err(); err != nil && !errors.IsDispatcherStopped(err) {
					t.Errorf("expected success or DispatcherStopped, got %v", err)
				}
				mu.Lock()
				delivered[i]++
				mu.Unlock()
			})
		}(i)
	}
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	wg.Wait()
	for _, done := range dones {
		waitDone(t, done)
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < n; i++ {
		if delivered[i] != 1 {
			t.Errorf("expected call %d delivered once, got %d", i, delivered[i])
		}
	}
}
