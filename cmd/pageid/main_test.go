package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chromedp/cdproto"
	cdpb "github.com/chromedp/cdproto/browser"
	cdpr "github.com/chromedp/cdproto/runtime"
	cdpt "github.com/chromedp/cdproto/target"
	"github.com/gorilla/websocket"
	"github.com/mailru/easyjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testCatalog = `
pages:
  - name: LoginPage
    locators:
      submit_btn: "#submit"
    validations:
      - kind: url
        pattern: '/login$'
      - kind: element_presence
        locator: submit_btn
  - name: AccountPage
    validations:
      - kind: url
        pattern: '/account'
      - kind: title
        pattern: 'My account*'
        syntax: glob
  - name: OldPage
    legacy_url: '/old$'
`

func writeCatalog(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestList(t *testing.T) {
	t.Parallel()

	code, out, _ := execute(t, "list", "-c", writeCatalog(t))
	require.Equal(t, 0, code)
	assert.Contains(t, out, "LoginPage\n  url =~ /login$\n")
	assert.Contains(t, out, "-> #submit")
	assert.Contains(t, out, "OldPage (no validations)")
	assert.Contains(t, out, "legacy url =~ /old$")
}

func TestIdentify(t *testing.T) {
	t.Parallel()

	catalog := writeCatalog(t)

	testCases := []struct {
		name string
		args []string
		code int
		out  string
	}{
		{name: "url", args: []string{"--url", "https://x/login"}, code: 0, out: "LoginPage"},
		{name: "url_and_title", args: []string{"--url", "https://x/account", "--title", "My account | x"}, code: 0, out: "AccountPage"},
		{name: "title_mismatch", args: []string{"--url", "https://x/account", "--title", "Sign in"}, code: 1, out: "no page type matches"},
		{name: "no_match", args: []string{"--url", "https://x/home"}, code: 1, out: "no page type matches"},
		{name: "legacy_is_not_identified", args: []string{"--url", "https://x/old", "--legacy-fallback"}, code: 1},
		{name: "no_input", code: 2},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			code, out, _ := execute(t, append([]string{"identify", "-c", catalog}, tc.args...)...)
			assert.Equal(t, tc.code, code)
			assert.Contains(t, out, tc.out)
		})
	}
}

func TestSetupErrors(t *testing.T) {
	t.Parallel()

	code, _, errOut := execute(t, "list", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "opening catalog")

	code, _, errOut = execute(t, "list", "-c", writeCatalog(t), "--ambiguity", "shrug")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "invalid ambiguity policy")

	code, _, errOut = execute(t, "check", "-c", writeCatalog(t))
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `"ws"`)
}

func TestMetricsDump(t *testing.T) {
	t.Parallel()

	code, out, _ := execute(t, "identify", "-c", writeCatalog(t), "--url", "https://x/login", "--metrics")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `pageid_identify_total{outcome="match"} 1`)
}

// serveCDP answers the commands a check sends for a tab showing url.
func serveCDP(t *testing.T, url, title string, selectors ...string) string {
	t.Helper()

	present := make(map[string]bool)
	for _, s := range selectors {
		present[s] = true
	}
	handle := func(msg *cdproto.Message) (easyjson.Marshaler, *cdproto.Error) {
		switch msg.Method {
		case cdpb.CommandGetVersion:
			return &cdpb.GetVersionReturns{Product: "HeadlessChrome"}, nil
		case cdpt.CommandGetTargets:
			return &cdpt.GetTargetsReturns{TargetInfos: []*cdpt.Info{{TargetID: "T1", Type: "page"}}}, nil
		case cdpt.CommandAttachToTarget:
			return &cdpt.AttachToTargetReturns{SessionID: "S1"}, nil
		case cdpr.CommandEvaluate:
			var p cdpr.EvaluateParams
			if err := easyjson.Unmarshal(msg.Params, &p); err != nil {
				return nil, &cdproto.Error{Code: -32602, Message: err.Error()}
			}
			typ, v := cdpr.TypeBoolean, "false"
			switch {
			case p.Expression == "location.href":
				typ, v = cdpr.TypeString, `"`+url+`"`
			case p.Expression == "document.title":
				typ, v = cdpr.TypeString, `"`+title+`"`
			case present[strings.TrimSuffix(strings.TrimPrefix(p.Expression, `document.querySelector("`), `") !== null`)]:
				v = "true"
			}
			return &cdpr.EvaluateReturns{Result: &cdpr.RemoteObject{Type: typ, Value: easyjson.RawMessage(v)}}, nil
		}
		return nil, &cdproto.Error{Code: -32601, Message: "not found"}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = ws.Close() }()
		for {
			var msg cdproto.Message
			_, buf, err := ws.ReadMessage()
			if err != nil || easyjson.Unmarshal(buf, &msg) != nil {
				return
			}
			reply := &cdproto.Message{ID: msg.ID, SessionID: msg.SessionID}
			res, cerr := handle(&msg)
			if cerr != nil {
				reply.Error = cerr
			} else if reply.Result, err = easyjson.Marshal(res); err != nil {
				return
			}
			out, err := easyjson.Marshal(reply)
			if err != nil || ws.WriteMessage(websocket.TextMessage, out) != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestCheck(t *testing.T) {
	t.Parallel()

	catalog := writeCatalog(t)

	t.Run("all_pages", func(t *testing.T) {
		t.Parallel()

		ws := serveCDP(t, "https://x/login", "Sign in", "#submit")
		report := filepath.Join(t.TempDir(), "report.yaml")
		code, out, _ := execute(t, "check", "-c", catalog, "--ws", ws, "--report", report, "--timeout", "100ms")
		require.Equal(t, 0, code)
		assert.Contains(t, out, "open:  LoginPage")

		bb, err := os.ReadFile(report)
		require.NoError(t, err)
		var rep checkReport
		require.NoError(t, yaml.Unmarshal(bb, &rep))
		assert.Equal(t, "https://x/login", rep.URL)
		assert.Equal(t, []string{"LoginPage"}, rep.Matched)
	})
	t.Run("one_page", func(t *testing.T) {
		t.Parallel()

		ws := serveCDP(t, "https://x/login", "Sign in")
		report := filepath.Join(t.TempDir(), "report.yaml")
		code, out, _ := execute(t, "check", "-c", catalog, "--ws", ws, "--page", "LoginPage", "--report", report, "--timeout", "100ms")
		assert.Equal(t, 1, code)
		assert.Contains(t, out, "LoginPage closed")
		assert.Contains(t, out, "no page type is open")

		bb, err := os.ReadFile(report)
		require.NoError(t, err)
		var rep checkReport
		require.NoError(t, yaml.Unmarshal(bb, &rep))
		require.Len(t, rep.Pages, 1)
		require.Len(t, rep.Pages[0].Rules, 2)
		assert.Equal(t, "pass", rep.Pages[0].Rules[0].Outcome)
		assert.Equal(t, "fail", rep.Pages[0].Rules[1].Outcome)
	})
	t.Run("legacy", func(t *testing.T) {
		t.Parallel()

		ws := serveCDP(t, "https://x/old", "")
		code, out, _ := execute(t, "check", "-c", catalog, "--ws", ws, "--page", "OldPage", "--legacy-fallback")
		assert.Equal(t, 0, code)
		assert.Contains(t, out, "OldPage open (legacy url)")
	})
	t.Run("unknown_page", func(t *testing.T) {
		t.Parallel()

		code, _, errOut := execute(t, "check", "-c", catalog, "--ws", "ws://127.0.0.1:1", "--page", "Nope")
		assert.Equal(t, 2, code)
		assert.Contains(t, errOut, `unknown page type "Nope"`)
	})
}
