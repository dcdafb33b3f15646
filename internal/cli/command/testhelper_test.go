package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sdncli-go/internal/cli/config"
	"github.com/yndnr/sdncli-go/internal/core/domain"
)

// mockServer is a fake controller: Keystone v2 tokens plus handlers
// registered by path prefix. Received envelopes are recorded.
type mockServer struct {
	*httptest.Server
	mu        sync.Mutex
	handlers  map[string]http.HandlerFunc
	envelopes []domain.Envelope
	paths     []string
	tokens    int
}

// newMockServer creates a new mock server.
func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2.0/tokens" {
			m.mu.Lock()
			m.tokens++
			m.mu.Unlock()
			jsonResponse(w, http.StatusOK, map[string]any{
				"access": map[string]any{"token": map[string]any{"id": "tok-test"}},
			})
			return
		}
		if r.Header.Get("X-Auth-Token") != "tok-test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m.mu.Lock()
		m.paths = append(m.paths, r.Method+" "+r.URL.Path)
		var env domain.Envelope
		if r.Method == http.MethodPost && json.NewDecoder(r.Body).Decode(&env) == nil {
			m.envelopes = append(m.envelopes, env)
		}
		handler := m.match(r.URL.Path)
		m.mu.Unlock()

		if handler == nil {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), envelopeKey{}, env))
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

type envelopeKey struct{}

// envelopeOf returns the decoded envelope of a POST.
func envelopeOf(r *http.Request) domain.Envelope {
	env, _ := r.Context().Value(envelopeKey{}).(domain.Envelope)
	return env
}

// match finds the handler with the longest matching prefix.
func (m *mockServer) match(path string) http.HandlerFunc {
	var best string
	for pattern := range m.handlers {
		if strings.HasPrefix(path, pattern) && len(pattern) > len(best) {
			best = pattern
		}
	}
	return m.handlers[best]
}

// handle registers a handler for a path pattern.
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = handler
}

// collection serves READALL lookups from records, filtering by name, and
// answers every other operation with its envelope resource.
func (m *mockServer) collection(pattern string, records ...map[string]any) {
	m.handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		env := envelopeOf(r)
		if env.Context.Operation != domain.OpReadAll {
			jsonResponse(w, http.StatusOK, env.Data.Resource)
			return
		}
		name, _ := env.Data.Filters.(map[string]any)["name"].(string)
		out := []map[string]any{}
		for _, rec := range records {
			if name == "" || strings.Contains(rec["name"].(string), name) {
				out = append(out, rec)
			}
		}
		jsonResponse(w, http.StatusOK, out)
	})
}

func (m *mockServer) tokenRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens
}

func (m *mockServer) recorded() ([]string, []domain.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...), append([]domain.Envelope(nil), m.envelopes...)
}

// testConfig points auth and API at the mock server.
func (m *mockServer) testConfig(t *testing.T) *config.CLIConfig {
	t.Helper()
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(m.URL, "http://"))
	if err != nil {
		t.Fatalf("split %s: %v", m.URL, err)
	}
	port, _ := strconv.Atoi(portStr)

	cfg := config.Default()
	cfg.Auth.Host, cfg.Auth.Port = host, port
	cfg.Auth.User, cfg.Auth.Password, cfg.Auth.Project = "admin", "secret", "admin"
	cfg.API.Port = port
	cfg.Output.Choose = "fail"
	return cfg
}

// testConfigOffline is a config for commands that never reach the network.
func testConfigOffline() *config.CLIConfig {
	cfg := config.Default()
	cfg.Auth.Host = "127.0.0.1"
	cfg.Auth.User, cfg.Auth.Password, cfg.Auth.Project = "admin", "secret", "admin"
	return cfg
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type result struct {
	stdout string
	stderr string
	err    error
}

// runApp runs sdncli with args against cfg and captures its output.
func runApp(t *testing.T, cfg *config.CLIConfig, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer

	app := App(cfg, "")
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(context.Background(), append([]string{"sdncli"}, args...))
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

const (
	netID1  = "6bd0768b-0beb-4b30-9916-a3c445fede1c"
	netID2  = "6665ab5e-b566-45e1-acb4-e4a00aa9729b"
	poolID  = "0c6a1b8e-7a39-4ef3-9b53-3c1a4b5e7f10"
	memberA = "3f1d2c4b-5a6e-4f70-8192-a3b4c5d6e7f8"
)

func sampleNetworks() []map[string]any {
	return []map[string]any{
		{"id": netID1, "name": "net1", "mtu": 1500, "created_at": "2024-01-01T00:00:00"},
		{"id": netID2, "name": "net10", "mtu": 9000, "created_at": "2024-02-01T00:00:00"},
	}
}
