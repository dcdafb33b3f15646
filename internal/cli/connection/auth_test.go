package connection

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yndnr/sdncli-go/internal/core/domain"
)

// hostPort splits an httptest server URL.
func hostPort(t *testing.T, srv *httptest.Server) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func newTestSession(t *testing.T, srv *httptest.Server, version string) *AuthSession {
	t.Helper()
	host, port := hostPort(t, srv)
	return NewAuthSession(AuthConfig{
		Host:     host,
		Port:     port,
		User:     "ArcherAdmin",
		Password: "ArcherAdmin@123",
		Project:  "ArcherAdmin",
		Version:  version,
	}, srv.Client())
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", AuthV2, false},
		{"v2", AuthV2, false},
		{"V3", AuthV3, false},
		{"v3", AuthV3, false},
		{"v4", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeVersion(tt.in)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrConfig) {
				t.Errorf("NormalizeVersion(%q) error = %v, want ErrConfig", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizeVersion(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestAuthSession_V2(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v2.0/tokens" {
			t.Errorf("path = %q, want /v2.0/tokens", r.URL.Path)
		}
		var body struct {
			Auth struct {
				TenantName          string `json:"tenantName"`
				PasswordCredentials struct {
					Username string `json:"username"`
					Password string `json:"password"`
				} `json:"passwordCredentials"`
			} `json:"auth"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Auth.TenantName != "ArcherAdmin" || body.Auth.PasswordCredentials.Username != "ArcherAdmin" {
			t.Errorf("unexpected auth body: %+v", body)
		}
		w.Write([]byte(`{"access":{"token":{"id":"tok-v2"}}}`))
	}))
	defer srv.Close()

	s := newTestSession(t, srv, "")

	for i := 0; i < 3; i++ {
		token, err := s.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if token != "tok-v2" {
			t.Errorf("Token() = %q, want tok-v2", token)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected one auth call, got %d", calls.Load())
	}

	s.Reset()
	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("Token() after Reset error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Reset should force a new auth call, got %d calls", calls.Load())
	}
}

func TestAuthSession_V3(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/auth/tokens" {
			t.Errorf("path = %q, want /v3/auth/tokens", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		user := body["auth"].(map[string]any)["identity"].(map[string]any)["password"].(map[string]any)["user"].(map[string]any)
		if user["domain"].(map[string]any)["name"] != "Default" {
			t.Errorf("domain = %v, want Default", user["domain"])
		}
		w.Header().Set("X-Subject-Token", "tok-v3")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	token, err := newTestSession(t, srv, "V3").Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "tok-v3" {
		t.Errorf("Token() = %q, want tok-v3", token)
	}
}

func TestAuthSession_Errors(t *testing.T) {
	tests := []struct {
		name    string
		version string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name:    "rejected credentials",
			version: "v2",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("bad credentials"))
			},
			check: func(t *testing.T, err error) {
				if domain.HTTPStatus(err) != http.StatusUnauthorized {
					t.Errorf("status = %d, want 401", domain.HTTPStatus(err))
				}
				if !strings.Contains(err.Error(), "bad credentials") {
					t.Errorf("error should carry the body: %v", err)
				}
			},
		},
		{
			name:    "v3 without header",
			version: "v3",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			},
		},
		{
			name:    "v2 invalid json",
			version: "v2",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>"))
			},
		},
		{
			name:    "v2 missing token path",
			version: "v2",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"access":{}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestSession(t, srv, tt.version).Token(context.Background())
			if !errors.Is(err, domain.ErrAuthFailed) {
				t.Fatalf("expected ErrAuthFailed, got %v", err)
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestAuthSession_UnknownVersion(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := newTestSession(t, srv, "v9").Token(context.Background())
	if !errors.Is(err, domain.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("no request should be sent for an unknown version")
	}
}

func TestAuthSession_Fetch(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := n.Add(1)
		w.Write([]byte(`{"access":{"token":{"id":"tok-` + strconv.Itoa(int(id)) + `"}}}`))
	}))
	defer srv.Close()

	s := newTestSession(t, srv, "v2")
	first, _ := s.Token(context.Background())
	fetched, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if fetched == first {
		t.Error("Fetch() should always authenticate")
	}
	cached, _ := s.Token(context.Background())
	if cached != fetched {
		t.Errorf("Token() = %q, want the fetched %q", cached, fetched)
	}
}
