package serve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/eager/lang"
	"github.com/ardnew/eager/log"
)

const testRules = `
eager_macro_rules!{ $eager_1
	macro_rules! one { () => { 1 }; }
}
macro_rules! plain { () => { 0 }; }`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	set, err := lang.LoadRules(context.Background(), strings.NewReader(testRules))
	require.NoError(t, err)

	macros, err := set.Macros()
	require.NoError(t, err)

	return New(lang.NewRegistry(macros...), log.Logger{})
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}

	return w, out
}

func TestServer_Healthz(t *testing.T) {
	w, out := do(t, newTestServer(t).Router(), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["ok"])
}

func TestServer_Expand(t *testing.T) {
	h := newTestServer(t).Router()

	tests := []struct {
		name   string
		body   string
		status int
		output string
	}{
		{"shared", `{"source":"one!() + one!()"}`, http.StatusOK, "1 + 1"},
		{"eager", `{"source":"eager!{ one!() } plain!()"}`, http.StatusOK, "1 0"},
		{"local", `{"source":"macro_rules! two { () => { 2 }; } two!() one!()"}`, http.StatusOK, "2 1"},
		{"missing source", `{}`, http.StatusBadRequest, ""},
		{"bad format", `{"source":"a","format":"xml"}`, http.StatusBadRequest, ""},
		{"unclosed", `{"source":"{ a"}`, http.StatusBadRequest, ""},
		{"unresolved", `{"source":"missing!()"}`, http.StatusUnprocessableEntity, ""},
		{"not eager", `{"source":"eager!{ plain!() }"}`, http.StatusUnprocessableEntity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := do(t, h, http.MethodPost, "/v1/expand", tt.body)

			require.Equal(t, tt.status, w.Code, w.Body.String())

			if tt.status == http.StatusOK {
				assert.Equal(t, tt.output, out["output"])
			} else {
				assert.NotEmpty(t, out["error"])
			}
		})
	}
}

func TestServer_ExpandFormats(t *testing.T) {
	h := newTestServer(t).Router()

	w, out := do(t, h, http.MethodPost, "/v1/expand", `{"source":"(one!())","format":"json"}`)
	require.Equal(t, http.StatusOK, w.Code)

	tokens, ok := out["tokens"].([]any)
	require.True(t, ok, "tokens = %v", out["tokens"])
	assert.Len(t, tokens, 1)

	w, _ = do(t, h, http.MethodPost, "/v1/expand", `{"source":"one!()","format":"yaml"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "kind:")
}

func TestServer_LocalMacrosStayLocal(t *testing.T) {
	h := newTestServer(t).Router()

	w, _ := do(t, h, http.MethodPost, "/v1/expand", `{"source":"macro_rules! two { () => { 2 }; } two!()"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, h, http.MethodPost, "/v1/expand", `{"source":"two!()"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestServer_Eval(t *testing.T) {
	h := newTestServer(t).Router()

	w, out := do(t, h, http.MethodPost, "/v1/eval", `{"source":"x + one!()","env":{"x":"20"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "x + 1", out["expansion"])
	assert.Equal(t, "21", out["result"])

	w, out = do(t, h, http.MethodPost, "/v1/eval", `{"source":"one!() +"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out["error"], "expression compilation failed")
}

func TestServer_Macros(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	w, out := do(t, h, http.MethodGet, "/v1/macros", "")
	require.Equal(t, http.StatusOK, w.Code)

	macros, ok := out["macros"].([]any)
	require.True(t, ok)
	require.Len(t, macros, 2)

	first := macros[0].(map[string]any)
	assert.Equal(t, "one", first["name"])
	assert.Equal(t, true, first["eager"])

	second := macros[1].(map[string]any)
	assert.Equal(t, "plain", second["name"])
	assert.Equal(t, false, second["eager"])

	w, _ = do(t, h, http.MethodGet, "/v1/macros?format=yaml", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "name: one")

	s.registry.Replace()

	_, out = do(t, h, http.MethodGet, "/v1/macros", "")
	assert.Empty(t, out["macros"])
}

func TestServer_RequestsNotCached(t *testing.T) {
	h := newTestServer(t).Router()
	before := lang.CacheLen()

	for i := range 50 {
		body := `{"source":"macro_rules! n { () => { ` + strconv.Itoa(i) + ` }; } n!()"}`

		w, out := do(t, h, http.MethodPost, "/v1/expand", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Equal(t, strconv.Itoa(i), out["output"])
	}

	assert.Equal(t, before, lang.CacheLen(), "request sources stay out of the rules cache")
}
