package webtui

import (
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, cfg ServerConfig) *httptest.Server {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestNewServer_RequiresAddr(t *testing.T) {
	if _, err := NewServer(ServerConfig{Addr: "  "}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestRootRedirectKeepsQuery(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	res, err := client.Get(ts.URL + "/?roomId=2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusFound || res.Header.Get("Location") != "/terminal?roomId=2" {
		t.Fatalf("unexpected redirect: %d %q", res.StatusCode, res.Header.Get("Location"))
	}
}

func TestTerminalPagePassesRoomToSocket(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})

	body := func(path string) string {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		defer res.Body.Close()
		b, _ := io.ReadAll(res.Body)
		return string(b)
	}

	if got := body("/terminal?roomId=3"); !strings.Contains(got, `data-ws-path="/ws?roomId=3"`) || !strings.Contains(got, "room 3") {
		t.Fatalf("expected room 3 in page:\n%s", got)
	}
	if got := body("/terminal?roomId=abc"); !strings.Contains(got, `data-ws-path="/ws"`) {
		t.Fatalf("expected plain socket path for invalid room:\n%s", got)
	}
}

func TestSessionArgs(t *testing.T) {
	srv, err := NewServer(ServerConfig{Addr: ":0", Args: []string{"--server", "http://api:8080"}})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/ws?roomId=1", nil)
	want := []string{"--server", "http://api:8080", "--room", "1"}
	if got := srv.sessionArgs(r); !reflect.DeepEqual(got, want) {
		t.Fatalf("sessionArgs: got %v want %v", got, want)
	}
	r = httptest.NewRequest(http.MethodGet, "/ws?roomId=-1", nil)
	if got := srv.sessionArgs(r); len(got) != 2 {
		t.Fatalf("expected no --room for invalid id, got %v", got)
	}
	if !reflect.DeepEqual(srv.cfg.Args, []string{"--server", "http://api:8080"}) {
		t.Fatalf("configured args were modified: %v", srv.cfg.Args)
	}
}

func TestParseControl(t *testing.T) {
	m, ok := parseControl(websocket.TextMessage, []byte(`{"type":" Resize ","cols":80,"rows":24}`))
	if !ok || m.Type != "resize" || m.Cols != 80 || m.Rows != 24 {
		t.Fatalf("unexpected control parse: %+v %v", m, ok)
	}
	if _, ok := parseControl(websocket.TextMessage, []byte("{")); ok {
		t.Fatalf("a typed brace is a keystroke")
	}
	if _, ok := parseControl(websocket.BinaryMessage, []byte(`{"type":"resize"}`)); ok {
		t.Fatalf("binary frames are keystrokes")
	}
}

func TestSameOrigin(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:3334/ws", nil)
	if !sameOrigin(r) {
		t.Fatalf("expected missing origin to be allowed")
	}
	r.Header.Set("Origin", "http://127.0.0.1:3334")
	if !sameOrigin(r) {
		t.Fatalf("expected same origin to be allowed")
	}
	r.Header.Set("Origin", "http://evil.example")
	if sameOrigin(r) {
		t.Fatalf("expected foreign origin to be rejected")
	}
}
