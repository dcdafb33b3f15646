package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/sdncli-go/internal/core/domain"
)

// controller is a fake identity + API server on one listener.
type controller struct {
	srv       *httptest.Server
	authCalls atomic.Int32
	apiCalls  atomic.Int32
	api       http.HandlerFunc
}

func newController(t *testing.T, api http.HandlerFunc) *controller {
	t.Helper()
	c := &controller{api: api}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2.0/tokens" {
			n := c.authCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"access": map[string]any{"token": map[string]any{"id": "tok-" + string(rune('0'+n))}},
			})
			return
		}
		c.apiCalls.Add(1)
		c.api(w, r)
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *controller) client(t *testing.T, opts Options) *HTTPClient {
	t.Helper()
	host, port := hostPort(t, c.srv)
	opts.Host, opts.Port = host, port
	client := NewHTTPClient(nil, opts)
	client.session = NewAuthSession(AuthConfig{Host: host, Port: port, User: "u", Password: "p"}, client.HTTP())
	return client
}

type recordingObserver struct {
	mu       sync.Mutex
	requests []int
	waits    int
	auths    int
	retries  int
}

func (o *recordingObserver) ObserveRequest(_ string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, status)
}
func (o *recordingObserver) ObserveRateLimitWait(time.Duration) { o.waits++ }
func (o *recordingObserver) ObserveAuth(string, error)          { o.auths++ }
func (o *recordingObserver) IncAuthRetry()                      { o.retries++ }

func TestHTTPClient_Post(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/neutron/network" {
			t.Errorf("path = %q, want /neutron/network", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Auth-Token") != "tok-1" {
			t.Errorf("X-Auth-Token = %q, want tok-1", r.Header.Get("X-Auth-Token"))
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "sdncli/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if body["name"] != "test" {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(`[{"id":"1"}]`))
	})

	client := ctl.client(t, Options{})
	for i := 0; i < 2; i++ {
		resp, err := client.Post(context.Background(), "neutron/network", map[string]any{"name": "test"})
		if err != nil {
			t.Fatalf("Post failed: %v", err)
		}
		if resp.Status != http.StatusOK || string(resp.Body) != `[{"id":"1"}]` {
			t.Errorf("unexpected response: %d %s", resp.Status, resp.Body)
		}
	}

	if ctl.authCalls.Load() != 1 {
		t.Errorf("token should be fetched once, got %d auth calls", ctl.authCalls.Load())
	}
}

func TestHTTPClient_RawBody(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		buf.ReadFrom(r.Body)
		if buf.String() != `{"count":999999}` {
			t.Errorf("body = %q", buf.String())
		}
	})

	_, err := ctl.client(t, Options{}).Post(context.Background(), "/obj-cache", json.RawMessage(`{"count":999999}`))
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
}

func TestHTTPClient_Get_NoBody(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %q, want GET", r.Method)
		}
		if r.ContentLength > 0 {
			t.Errorf("GET should have no body, got %d bytes", r.ContentLength)
		}
		if r.URL.RawQuery != "cfilt=NodeStatus" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
	})

	resp, err := ctl.client(t, Options{}).Get(context.Background(), "/analytics/uves/vrouter/*?cfilt=NodeStatus")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(resp.Body) != 0 {
		t.Errorf("expected empty body, got %q", resp.Body)
	}
}

func TestHTTPClient_ErrorStatus(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"NeutronError":"in use"}`))
	})

	_, err := ctl.client(t, Options{}).Post(context.Background(), "/neutron/network", map[string]any{})
	if !errors.Is(err, domain.ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if domain.HTTPStatus(err) != http.StatusConflict {
		t.Errorf("status = %d, want 409", domain.HTTPStatus(err))
	}
	if !strings.Contains(err.Error(), `{"NeutronError":"in use"}`) {
		t.Errorf("error should carry the body verbatim: %v", err)
	}
	if ctl.apiCalls.Load() != 1 {
		t.Errorf("non-401 errors must not be retried, got %d calls", ctl.apiCalls.Load())
	}
}

func TestHTTPClient_RetryOn401(t *testing.T) {
	var seen []string
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("X-Auth-Token"))
		if len(seen) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	})

	obs := &recordingObserver{}
	resp, err := ctl.client(t, Options{Observer: obs}).Post(context.Background(), "/neutron/port", nil)
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d", resp.Status)
	}
	if len(seen) != 2 || seen[0] != "tok-1" || seen[1] != "tok-2" {
		t.Errorf("tokens sent = %v, want [tok-1 tok-2]", seen)
	}
	if obs.retries != 1 {
		t.Errorf("retries = %d, want 1", obs.retries)
	}
}

func TestHTTPClient_RetryOn401_Once(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("expired"))
	})

	_, err := ctl.client(t, Options{}).Post(context.Background(), "/neutron/port", nil)
	if domain.HTTPStatus(err) != http.StatusUnauthorized {
		t.Fatalf("expected a 401 RequestError, got %v", err)
	}
	if ctl.apiCalls.Load() != 2 {
		t.Errorf("expected exactly 2 API calls, got %d", ctl.apiCalls.Load())
	}
	if ctl.authCalls.Load() != 2 {
		t.Errorf("expected exactly 2 auth calls, got %d", ctl.authCalls.Load())
	}
}

func TestHTTPClient_NoReauth(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	obs := &recordingObserver{}
	_, err := ctl.client(t, Options{NoReauth: true, Observer: obs}).Post(context.Background(), "/neutron/port", nil)
	if domain.HTTPStatus(err) != http.StatusUnauthorized {
		t.Fatalf("expected a 401 RequestError, got %v", err)
	}
	if ctl.apiCalls.Load() != 1 || ctl.authCalls.Load() != 1 {
		t.Errorf("expected one round trip, got %d API and %d auth calls", ctl.apiCalls.Load(), ctl.authCalls.Load())
	}
	if obs.retries != 0 {
		t.Errorf("retries = %d, want 0", obs.retries)
	}
}

func TestHTTPClient_PortOverride(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the default port")
	})

	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"other"`))
	}))
	defer other.Close()
	_, otherPort := hostPort(t, other)

	resp, err := ctl.client(t, Options{}).Do(context.Background(), Request{Method: "get", URI: "/x", Port: otherPort})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if string(resp.Body) != `"other"` {
		t.Errorf("body = %s", resp.Body)
	}
}

func TestHTTPClient_Timing(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2,3]`))
	})

	var timing bytes.Buffer
	client := ctl.client(t, Options{Timing: &timing})

	if _, err := client.Post(context.Background(), "/neutron/network", nil); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	line := regexp.MustCompile(`^time: \d+\.\d{6} \[status: 200 OK length: 7 B\]\n$`)
	if !line.MatchString(timing.String()) {
		t.Errorf("timing line = %q", timing.String())
	}

	timing.Reset()
	if _, err := client.Do(context.Background(), Request{URI: "/neutron/network", Quiet: true}); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if timing.Len() != 0 {
		t.Errorf("quiet request should not print timing, got %q", timing.String())
	}
}

func TestHTTPClient_Observer(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	obs := &recordingObserver{}
	client := ctl.client(t, Options{Observer: obs, Rate: 1000})
	client.session.SetObserver(obs)

	client.Post(context.Background(), "/neutron/network", nil)

	if len(obs.requests) != 1 || obs.requests[0] != http.StatusNotFound {
		t.Errorf("observed = %v, want [404]", obs.requests)
	}
	if obs.auths != 1 {
		t.Errorf("auths = %d, want 1", obs.auths)
	}
	if obs.waits != 1 {
		t.Errorf("rate limiter waits = %d, want 1", obs.waits)
	}
}

func TestHTTPClient_ContextCanceled(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ctl.client(t, Options{}).Post(ctx, "/neutron/network", nil); err == nil {
		t.Error("expected an error for a canceled context")
	}
}

func TestBaseURL(t *testing.T) {
	c := NewHTTPClient(nil, Options{Host: "10.0.0.1", Port: 8082})
	if got := c.BaseURL(0); got != "http://10.0.0.1:8082" {
		t.Errorf("BaseURL(0) = %q", got)
	}
	if got := c.BaseURL(8081); got != "http://10.0.0.1:8081" {
		t.Errorf("BaseURL(8081) = %q", got)
	}

	c.SetPort(9000)
	if got := c.BaseURL(0); got != "http://10.0.0.1:9000" {
		t.Errorf("BaseURL after SetPort = %q", got)
	}

	v6 := NewHTTPClient(nil, Options{Scheme: "https", Host: "::1", Port: 443})
	if got := v6.BaseURL(0); got != "https://[::1]:443" {
		t.Errorf("BaseURL(v6) = %q", got)
	}
}

func TestCurlLine(t *testing.T) {
	line := curlLine("POST", "http://h:1/x", "$SDN_TOKEN", []byte(`{"a":1}`))
	want := `curl -D - -s -X POST http://h:1/x -H "Content-Type:application/json" -H "X-Auth-Token:$SDN_TOKEN" -d '{"a":1}'`
	if line != want {
		t.Errorf("curlLine() = %q, want %q", line, want)
	}
}

func TestHTTPClient_DispatchAndQuery(t *testing.T) {
	ctl := newController(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x"}`))
	})

	var timing bytes.Buffer
	client := ctl.client(t, Options{Timing: &timing})

	body, err := client.Query(context.Background(), "/neutron/network", map[string]any{})
	if err != nil || string(body) != `{"id":"x"}` {
		t.Fatalf("Query() = %s, %v", body, err)
	}
	if timing.Len() != 0 {
		t.Error("Query should not print timing")
	}

	if _, err := client.Dispatch(context.Background(), "/neutron/network", map[string]any{}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !strings.HasPrefix(timing.String(), "time: ") {
		t.Errorf("Dispatch should print timing, got %q", timing.String())
	}
}
