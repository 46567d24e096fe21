package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"roomboard/internal/api"
	"roomboard/internal/sandbox"
)

func newTestServer(t *testing.T) (*httptest.Server, *sandbox.Server) {
	t.Helper()
	sb := sandbox.New(sandbox.DemoRooms())
	apiSrv := httptest.NewServer(sb.Handler())
	t.Cleanup(apiSrv.Close)

	srv, err := NewServer(ServerConfig{Addr: "127.0.0.1:0", API: api.New(api.Options{BaseURL: apiSrv.URL}), Server: apiSrv.URL})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, sb
}

func noRedirect() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
}

func get(t *testing.T, u string) (int, string) {
	t.Helper()
	res, err := http.Get(u)
	if err != nil {
		t.Fatalf("get %s: %v", u, err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func TestNewServer_Validates(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := NewServer(ServerConfig{Addr: ":0"}); err == nil {
		t.Fatalf("expected error for missing api")
	}
}

func TestHome_NoSelection(t *testing.T) {
	ts, _ := newTestServer(t)
	code, body := get(t, ts.URL+"/")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	for _, want := range []string{"Planning", "Retro", "No room selected", `href="/?roomId=1"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Add card") {
		t.Fatalf("expected no board without a selection")
	}
}

func TestHome_SelectedRoomRendersMarkdownCards(t *testing.T) {
	ts, _ := newTestServer(t)
	_, body := get(t, ts.URL+"/?roomId=0")
	for _, want := range []string{"<h1>Goals</h1>", "Collect feedback", `class="selected"`, "/cards?roomId=0", `value="2,1,3"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body:\n%s", want, body)
		}
	}
}

func TestHome_OutOfRangeRoomShowsNoBoard(t *testing.T) {
	ts, _ := newTestServer(t)
	_, body := get(t, ts.URL+"/?roomId=7")
	if !strings.Contains(body, "No room selected") {
		t.Fatalf("expected no board for out-of-range room:\n%s", body)
	}
}

func TestHome_LoadFailureRendersErrorPanel(t *testing.T) {
	ts, sb := newTestServer(t)
	sb.FailNext(http.MethodGet, http.StatusInternalServerError)
	code, body := get(t, ts.URL+"/?roomId=0")
	if code != http.StatusBadGateway || !strings.Contains(body, "Could not load rooms") {
		t.Fatalf("expected error panel, got %d:\n%s", code, body)
	}
}

func TestFormPostRedirectsBack(t *testing.T) {
	ts, sb := newTestServer(t)
	sb.ResetCalls()

	res, err := noRedirect().PostForm(ts.URL+"/cards?roomId=0", url.Values{})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusSeeOther || res.Header.Get("Location") != "/?roomId=0" {
		t.Fatalf("expected redirect to room, got %d %q", res.StatusCode, res.Header.Get("Location"))
	}
	calls := sb.Calls()
	if len(calls) != 2 || calls[0].Method != http.MethodPost || calls[0].Path != "/rooms/0/cards" || calls[1].Path != "/rooms" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestFormPostWithoutRoomIsNoop(t *testing.T) {
	ts, sb := newTestServer(t)
	sb.ResetCalls()

	res, err := noRedirect().PostForm(ts.URL+"/cards/1/delete", url.Values{})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", res.StatusCode)
	}
	if n := len(sb.Calls()); n != 0 {
		t.Fatalf("expected no API calls, got %d", n)
	}
}

func TestFormPostErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	res, err := noRedirect().PostForm(ts.URL+"/cards/99/delete?roomId=0", url.Values{})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown card, got %d", res.StatusCode)
	}

	res, err = noRedirect().PostForm(ts.URL+"/cards/1/position?roomId=0", url.Values{"x": {"abc"}, "y": {"1"}})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad position, got %d", res.StatusCode)
	}
}

func datastarPost(t *testing.T, u, contentType, body string) (string, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, u, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Datastar-Request", "true")
	req.Header.Set("Content-Type", contentType)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return res.Header.Get("Content-Type"), string(b)
}

func TestDatastarPostPatchesBoardAndSidebar(t *testing.T) {
	ts, sb := newTestServer(t)
	sb.ResetCalls()

	ct, body := datastarPost(t, ts.URL+"/cards/2/text?roomId=0", "application/json", `{"text":"hi **there**"}`)
	if !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected SSE response, got %q", ct)
	}
	for _, want := range []string{"datastar-patch-elements", "#board", "#sidebar", "<strong>there</strong>"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in stream:\n%s", want, body)
		}
	}
	calls := sb.Calls()
	if len(calls) != 2 || calls[0].Body != `{"text":"hi **there**"}` {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestDatastarFormPostReorders(t *testing.T) {
	ts, sb := newTestServer(t)
	sb.ResetCalls()

	_, body := datastarPost(t, ts.URL+"/order?roomId=0", "application/x-www-form-urlencoded", url.Values{"order": {"3,1,2"}}.Encode())
	if !strings.Contains(body, "#board") {
		t.Fatalf("expected board patch:\n%s", body)
	}
	calls := sb.Calls()
	if len(calls) != 2 || calls[0].Path != "/rooms/0/order" || calls[0].Body != `[3,1,2]` {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestDatastarPostFailurePatchesFlash(t *testing.T) {
	ts, sb := newTestServer(t)
	sb.FailNext(http.MethodPost, http.StatusInternalServerError)
	sb.ResetCalls()

	_, body := datastarPost(t, ts.URL+"/cards?roomId=0", "application/x-www-form-urlencoded", "")
	if !strings.Contains(body, "#flash") || strings.Contains(body, "#board") {
		t.Fatalf("expected only a flash patch:\n%s", body)
	}
	if n := len(sb.Calls()); n != 1 {
		t.Fatalf("expected no refetch after failure, got %d calls", n)
	}
}

func TestRenderMarkdownHTML_Sanitizes(t *testing.T) {
	out := string(renderMarkdownHTML("**hi** :smile: <script>alert(1)</script>\n\n[x](javascript:alert(1))"))
	if strings.Contains(out, "<script") || strings.Contains(out, "javascript:") {
		t.Fatalf("expected sanitized output, got %q", out)
	}
	hasEmoji := strings.Contains(out, "😄") || strings.Contains(strings.ToLower(out), "&#x1f604;")
	if !strings.Contains(out, "<strong>hi</strong>") || !hasEmoji {
		t.Fatalf("expected markdown and emoji rendering, got %q", out)
	}
}
