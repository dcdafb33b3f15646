package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/yndnr/sdncli-go/internal/core/domain"
	"github.com/yndnr/sdncli-go/internal/infra/buildinfo"
	"github.com/yndnr/sdncli-go/internal/telemetry/logger"
)

// Identity API versions.
const (
	AuthV2 = "v2"
	AuthV3 = "v3"
)

// subjectTokenHeader carries the token of a v3 password authentication.
const subjectTokenHeader = "X-Subject-Token"

// AuthConfig describes the identity endpoint and the credentials.
type AuthConfig struct {
	Scheme   string
	Host     string
	Port     int
	User     string
	Password string
	Project  string
	Version  string
	Domain   string
}

// NormalizeVersion maps a configured version onto AuthV2 or AuthV3.
// An empty version means v2.
func NormalizeVersion(version string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(version)) {
	case "", AuthV2, "v2.0":
		return AuthV2, nil
	case AuthV3:
		return AuthV3, nil
	default:
		return "", domain.NewConfigError("unsupported auth version %q", version)
	}
}

// AuthSession obtains a token lazily and caches it for the rest of the
// process. It is safe for concurrent use, although the CLI drives it from
// a single goroutine.
type AuthSession struct {
	cfg      AuthConfig
	client   *http.Client
	observer Observer
	log      logger.Logger

	mu    sync.Mutex
	token string
}

// NewAuthSession creates a session. A nil client uses http.DefaultClient.
func NewAuthSession(cfg AuthConfig, client *http.Client) *AuthSession {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	if cfg.Domain == "" {
		cfg.Domain = "Default"
	}
	return &AuthSession{
		cfg:      cfg,
		client:   client,
		observer: nopObserver{},
		log:      logger.Default(),
	}
}

// SetObserver installs a metrics observer.
func (s *AuthSession) SetObserver(o Observer) {
	if o != nil {
		s.observer = o
	}
}

// SetLogger replaces the session logger.
func (s *AuthSession) SetLogger(l logger.Logger) {
	if l != nil {
		s.log = l
	}
}

// Token returns the cached token, authenticating on first use.
func (s *AuthSession) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}
	token, err := s.authenticate(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	return token, nil
}

// Fetch always authenticates and replaces the cached token.
func (s *AuthSession) Fetch(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.authenticate(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	return token, nil
}

// Reset forgets the cached token.
func (s *AuthSession) Reset() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// URL returns the token endpoint for the configured version.
func (s *AuthSession) URL() (string, error) {
	version, err := NormalizeVersion(s.cfg.Version)
	if err != nil {
		return "", err
	}
	base := s.cfg.Scheme + "://" + net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if version == AuthV3 {
		return base + "/v3/auth/tokens", nil
	}
	return base + "/v2.0/tokens", nil
}

func (s *AuthSession) authenticate(ctx context.Context) (string, error) {
	version, err := NormalizeVersion(s.cfg.Version)
	if err != nil {
		return "", err
	}
	url, _ := s.URL()

	token, err := s.exchange(ctx, version, url)
	s.observer.ObserveAuth(version, err)
	if err != nil {
		s.log.Debug("authentication failed", "url", url, "error", err)
		return "", err
	}
	s.log.Debug("authenticated", "url", url, "user", s.cfg.User)
	return token, nil
}

func (s *AuthSession) exchange(ctx context.Context, version, url string) (string, error) {
	data, err := json.Marshal(s.requestBody(version))
	if err != nil {
		return "", fmt.Errorf("marshal auth body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", domain.ErrAuthFailed.WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	s.log.Debug("authenticating", "curl", curlLine(http.MethodPost, url, "", nil))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.ErrAuthFailed.WithDetails(url).WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.ErrAuthFailed.WithCause(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", domain.NewAuthError(resp.StatusCode, string(body))
	}

	if version == AuthV3 {
		token := resp.Header.Get(subjectTokenHeader)
		if token == "" {
			return "", domain.ErrAuthFailed.WithDetails("no X-Subject-Token header in response")
		}
		return token, nil
	}

	var out struct {
		Access struct {
			Token struct {
				ID string `json:"id"`
			} `json:"token"`
		} `json:"access"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", domain.ErrAuthFailed.WithDetails("invalid token response").
			WithResponse(resp.StatusCode, string(body)).WithCause(err)
	}
	if out.Access.Token.ID == "" {
		return "", domain.ErrAuthFailed.WithDetails("no access.token.id in response").
			WithResponse(resp.StatusCode, string(body))
	}
	return out.Access.Token.ID, nil
}

func (s *AuthSession) requestBody(version string) map[string]any {
	if version == AuthV3 {
		return map[string]any{
			"auth": map[string]any{
				"identity": map[string]any{
					"methods": []string{"password"},
					"password": map[string]any{
						"user": map[string]any{
							"name":     s.cfg.User,
							"password": s.cfg.Password,
							"domain":   map[string]any{"name": s.cfg.Domain},
						},
					},
				},
			},
		}
	}
	return map[string]any{
		"auth": map[string]any{
			"tenantName": s.cfg.Project,
			"passwordCredentials": map[string]any{
				"username": s.cfg.User,
				"password": s.cfg.Password,
			},
		},
	}
}
