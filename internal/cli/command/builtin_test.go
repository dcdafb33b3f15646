package command

import (
	"bytes"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zlib"

	"github.com/yndnr/sdncli-go/internal/core/domain"
)

func hexZlib(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return hex.EncodeToString(buf.Bytes())
}

func TestToken(t *testing.T) {
	m := newMockServer(t)
	r := runApp(t, m.testConfig(t), "", "token")
	if r.err != nil {
		t.Fatalf("token error = %v", r.err)
	}
	if r.stdout != "tok-test\n" {
		t.Errorf("stdout = %q", r.stdout)
	}
}

func TestToken_AuthFailure(t *testing.T) {
	m := newMockServer(t)
	cfg := m.testConfig(t)
	cfg.Auth.Port = 1 // nothing listens here
	r := runApp(t, cfg, "", "token")
	if r.err == nil {
		t.Fatal("expected an auth error")
	}
}

func TestCache(t *testing.T) {
	m := newMockServer(t)
	m.handle("/obj-cache", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{"network": 3, "port": 12})
	})

	r := runApp(t, m.testConfig(t), "", "--no-timing", "cache")
	if r.err != nil {
		t.Fatalf("cache error = %v", r.err)
	}
	if paths, _ := m.recorded(); len(paths) != 1 || paths[0] != "POST /obj-cache" {
		t.Errorf("paths = %q", paths)
	}
	want := "{\n  \"network\": 3,\n  \"port\": 12\n}\nTotal: 1\n"
	if r.stdout != want {
		t.Errorf("stdout = %q, want %q", r.stdout, want)
	}
}

func TestDecodePayload_JSON(t *testing.T) {
	raw, value, err := DecodePayload(` {"a": [1, 2]} `)
	if err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if raw != "" {
		t.Errorf("raw = %q, want empty for plain JSON", raw)
	}
	if _, ok := value.(map[string]any); !ok {
		t.Errorf("value = %#v", value)
	}
}

func TestDecodePayload_HexLooking(t *testing.T) {
	// "12" is valid hex but not zlib; it must still decode as JSON.
	_, value, err := DecodePayload("12")
	if err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if value == nil {
		t.Error("value is nil")
	}
}

func TestDecodePayload_PythonZlib(t *testing.T) {
	repr := "{u'name': u'net1', 'mtu': 1500L, 'shared': True, 'qos': None, 'note': 'say \"hi\"'}"
	raw, value, err := DecodePayload(hexZlib(t, repr))
	if err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if raw != repr {
		t.Errorf("raw = %q", raw)
	}
	m, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("value = %#v", value)
	}
	if m["name"] != "net1" || m["shared"] != true || m["qos"] != nil || m["note"] != `say "hi"` {
		t.Errorf("decoded = %#v", m)
	}
	if n, _ := m["mtu"].(interface{ String() string }); n == nil || n.String() != "1500" {
		t.Errorf("mtu = %#v", m["mtu"])
	}
}

func TestDecodePayload_Invalid(t *testing.T) {
	for _, in := range []string{"not json", "zz", hexZlib(t, "{'a': }")} {
		if _, _, err := DecodePayload(in); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("DecodePayload(%q) error = %v", in, err)
		}
	}
}

func TestDecodeCommand(t *testing.T) {
	r := runApp(t, testConfigOffline(), "", "decode", hexZlib(t, "{'b': False, 'a': 1}"))
	if r.err != nil {
		t.Fatalf("decode error = %v", r.err)
	}
	want := "{'b': False, 'a': 1}\n" + strings.Repeat("=", 80) + "\n{\n  \"a\": 1,\n  \"b\": false\n}\n"
	if r.stdout != want {
		t.Errorf("stdout = %q, want %q", r.stdout, want)
	}

	r = runApp(t, testConfigOffline(), "", "decode")
	if !errors.Is(r.err, domain.ErrInvalidArgument) {
		t.Errorf("decode without TEXT error = %v", r.err)
	}
}

func TestParseTimestamp(t *testing.T) {
	base := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	tests := []struct {
		in   int64
		want time.Time
	}{
		{1700000000, base},
		{1700000000123, base.Add(123 * time.Millisecond)},
		{1700000000123456, base.Add(123456 * time.Microsecond)},
		{0, time.Unix(0, 0).UTC()},
		{-1700000000, time.Unix(-1700000000, 0).UTC()},
	}
	for _, tt := range tests {
		if got := ParseTimestamp(tt.in); !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTimestampCommand(t *testing.T) {
	tests := map[string]string{
		"1700000000":       "2023-11-14T22:13:20Z\n",
		"1700000000123":    "2023-11-14T22:13:20.123Z\n",
		"1700000000123456": "2023-11-14T22:13:20.123456Z\n",
	}
	for in, want := range tests {
		r := runApp(t, testConfigOffline(), "", "ts", in)
		if r.err != nil || r.stdout != want {
			t.Errorf("ts %s = %q, %v; want %q", in, r.stdout, r.err, want)
		}
	}

	r := runApp(t, testConfigOffline(), "", "timestamp", "yesterday")
	if !errors.Is(r.err, domain.ErrInvalidArgument) {
		t.Errorf("non-integer timestamp error = %v", r.err)
	}
}

func TestResourcesCommand(t *testing.T) {
	r := runApp(t, testConfigOffline(), "", "resources")
	if r.err != nil {
		t.Fatalf("resources error = %v", r.err)
	}
	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	if !strings.HasPrefix(lines[0], "COMMAND") || !strings.Contains(lines[0], "PARENTS") {
		t.Errorf("header = %q", lines[0])
	}
	var member string
	for _, l := range lines {
		if strings.HasPrefix(l, "lbm ") {
			member = l
		}
	}
	if !strings.Contains(member, "/neutron/pool/<pool_id>/member") || !strings.HasSuffix(member, "pool") {
		t.Errorf("lbm row = %q", member)
	}
}

func TestVersionCommand(t *testing.T) {
	r := runApp(t, testConfigOffline(), "", "-o", "json", "version")
	if r.err != nil {
		t.Fatalf("version error = %v", r.err)
	}
	for _, key := range []string{`"version"`, `"go_version"`, `"platform"`} {
		if !strings.Contains(r.stdout, key) {
			t.Errorf("stdout missing %s:\n%s", key, r.stdout)
		}
	}
}
