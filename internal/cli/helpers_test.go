package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const (
	testCompany = "4821"
	testToken   = "test-token-value"
)

// fakePerpetua serves the goal creation and product search endpoints.
type fakePerpetua struct {
	mu sync.Mutex

	// products maps ASINs to product ids returned by search.
	products     map[string]int64
	createStatus int
	createBody   string

	createCalls int
	searchCalls int
	goals       []map[string]any
}

func (f *fakePerpetua) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v2/companies/{companyID}/goals/custom/", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.createCalls++

		var goal map[string]any
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &goal)
		f.goals = append(f.goals, goal)

		status := f.createStatus
		if status == 0 {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
		respBody := f.createBody
		if respBody == "" && status < 300 {
			respBody = `{"id": 901}`
		}
		_, _ = io.WriteString(w, respBody)
	})
	r.Post("/graphql", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.searchCalls++

		var query struct {
			Variables map[string]any `json:"variables"`
		}
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &query)
		asin, _ := query.Variables["search"].(string)

		type node struct {
			ID    int64  `json:"id"`
			ASIN  string `json:"asin"`
			Title string `json:"title"`
		}
		edges := []map[string]node{}
		if id, ok := f.products[asin]; ok {
			edges = append(edges, map[string]node{"node": {ID: id, ASIN: asin, Title: "Product " + asin}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"products": map[string]any{"edges": edges}},
		})
	})
	return r
}

func (f *fakePerpetua) calls() (create, search int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls, f.searchCalls
}

// testEnv points goalsync at a fake server and a temporary state directory.
type testEnv struct {
	home     string
	stateDir string
	fake     *fakePerpetua
}

func newTestEnv(t *testing.T, fake *fakePerpetua) *testEnv {
	t.Helper()

	home := t.TempDir()
	stateDir := filepath.Join(home, "state")

	t.Setenv("GOALSYNC_HOME", home)
	t.Setenv("GOALSYNC_LEDGER_DIR", stateDir)
	t.Setenv("GOALSYNC_RUN_DELAY", "0s")
	t.Setenv("GOALSYNC_RUN_RETRY_BACKOFF", "0s")
	t.Setenv("GOALSYNC_API_COMPANY_ID", testCompany)
	t.Setenv("PERPETUA_TOKEN", testToken)

	if fake != nil {
		srv := httptest.NewServer(fake.router())
		t.Cleanup(srv.Close)
		t.Setenv("GOALSYNC_API_BASE_URL", srv.URL+"/v2")
		t.Setenv("GOALSYNC_API_GRAPHQL_URL", srv.URL+"/graphql")
	}

	t.Cleanup(CloseLogFile)
	return &testEnv{home: home, stateDir: stateDir, fake: fake}
}

// writeFile writes content under the env home and returns its path.
func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.home, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs goalsync with args and returns stdout and the command error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "test"})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

const twoTaskFile = `{"tasks": [
  {"asin": "B07Y5L9WLP", "sku": "NT15511A", "segment": "unbranded", "mode": "keyword", "terms": ["nut driver", "Nut Driver"]},
  {"asin": "B0NOTFOUND", "sku": "ZZ1", "segment": "branded", "mode": "keyword", "terms": ["acme"]}
]}`
