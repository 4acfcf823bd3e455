package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kevinaaaquil/bookshelf/graph"
	"github.com/kevinaaaquil/bookshelf/middleware"
	"github.com/kevinaaaquil/bookshelf/service"
	"github.com/kevinaaaquil/bookshelf/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestRouter(t *testing.T, cfg RouterConfig) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := store.NewMemory()
	tokens, err := service.NewTokenService(service.TokenConfig{Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)
	accounts, err := service.NewAccountService(users, tokens, bcrypt.MinCost, logger)
	require.NoError(t, err)

	schema, err := graph.NewSchema(graph.NewResolver(accounts, service.NewBookSearch("http://127.0.0.1:0"), service.NewExporter(nil, users, time.Minute), logger))
	require.NoError(t, err)

	cfg.Schema = schema
	cfg.Auth = middleware.NewResolver(tokens, logger)
	cfg.Logger = logger
	return NewRouter(cfg)
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

func post(t *testing.T, h http.Handler, token, query string, vars map[string]interface{}) (*httptest.ResponseRecorder, gqlResponse) {
	t.Helper()
	body, err := json.Marshal(GraphQLRequest{Query: query, Variables: vars})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestGraphQL_SignupSaveAndMe(t *testing.T) {
	h := newTestRouter(t, RouterConfig{RateLimitPerMinute: 100})

	rec, out := post(t, h, "", `mutation($u: String!, $e: String!, $p: String!) {
		addUser(username: $u, email: $e, password: $p) { token user { email } }
	}`, map[string]interface{}{"u": "reader", "e": "reader@example.com", "p": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, out.Errors)
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(out.Data["addUser"], &auth))
	require.NotEmpty(t, auth.Token)

	_, out = post(t, h, auth.Token, `mutation { saveBook(newBook: {bookId: "vol-1", title: "Dune"}) { bookCount } }`, nil)
	require.Empty(t, out.Errors)

	_, out = post(t, h, auth.Token, `{ me { email bookCount savedBooks { bookId title } } }`, nil)
	require.Empty(t, out.Errors)
	assert.JSONEq(t, `{"email":"reader@example.com","bookCount":1,"savedBooks":[{"bookId":"vol-1","title":"Dune"}]}`, string(out.Data["me"]))
}

func TestGraphQL_AnonymousGetsErrorNotHTTPFailure(t *testing.T) {
	h := newTestRouter(t, RouterConfig{RateLimitPerMinute: 100})

	rec, out := post(t, h, "not-a-token", `{ me { email } }`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "Not logged in", out.Errors[0].Message)
	assert.Equal(t, graph.CodeUnauthenticated, out.Errors[0].Extensions["code"])
}

func TestGraphQL_ExportDisabled(t *testing.T) {
	h := newTestRouter(t, RouterConfig{RateLimitPerMinute: 100})

	_, out := post(t, h, "", `mutation($u: String!, $e: String!, $p: String!) {
		addUser(username: $u, email: $e, password: $p) { token }
	}`, map[string]interface{}{"u": "reader", "e": "reader@example.com", "p": "correct-horse"})
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(out.Data["addUser"], &auth))

	_, out = post(t, h, auth.Token, `mutation { exportSavedBooks { url } }`, nil)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, graph.CodeFeatureDisabled, out.Errors[0].Extensions["code"])
}

func TestGraphQL_BadRequests(t *testing.T) {
	h := newTestRouter(t, RouterConfig{RateLimitPerMinute: 100})

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"get", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "{", http.StatusBadRequest},
		{"empty query", http.MethodPost, `{"query":"  "}`, http.StatusBadRequest},
		{"too large", http.MethodPost, `{"query":"` + strings.Repeat("a", MaxRequestBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/graphql", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"errors"`)
		})
	}
}

func TestGraphQL_RateLimited(t *testing.T) {
	h := newTestRouter(t, RouterConfig{RateLimitPerMinute: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ __typename }"}`))
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestWelcomeAndHealth(t *testing.T) {
	h := newTestRouter(t, RouterConfig{RateLimitPerMinute: 100})

	for path, want := range map[string]string{
		"/":       `{"message":"welcome to bookshelf."}`,
		"/health": `{"status":"ok"}`,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, want, rec.Body.String(), path)
	}
}

func TestStatic_ProductionServesClient(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "static"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "static", "main.js"), []byte("console.log(1)"), 0o644))

	h := newTestRouter(t, RouterConfig{Production: true, StaticDir: dir, RateLimitPerMinute: 100})

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/static/main.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = get("/saved")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app")

	rec = get("/health")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
