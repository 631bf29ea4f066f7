package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/goalsync/internal/batch"
	"github.com/mrz1836/goalsync/internal/constants"
	"github.com/mrz1836/goalsync/internal/domain"
	gserrors "github.com/mrz1836/goalsync/internal/errors"
)

func decodeSummary(t *testing.T, out string) batch.Summary {
	t.Helper()
	var s batch.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s), out)
	return s
}

func TestRun_CreatesGoalsAndResumes(t *testing.T) {
	fake := &fakePerpetua{products: map[string]int64{"B07Y5L9WLP": 5551}}
	env := newTestEnv(t, fake)
	tasks := env.writeFile(t, "goals.json", twoTaskFile)

	out, err := execute(t, "run", "--tasks", tasks, "--output", "json")
	require.NoError(t, err)

	s := decodeSummary(t, out)
	assert.Equal(t, 2, s.Planned)
	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 1, s.Skipped)
	assert.False(t, s.Halted)
	require.Len(t, s.Records, 2)
	assert.Equal(t, domain.StatusSuccess, s.Records[0].Status)
	assert.Equal(t, "901", s.Records[0].RemoteID)
	assert.Equal(t, domain.StatusSkipped, s.Records[1].Status)

	create, search := fake.calls()
	assert.Equal(t, 1, create)
	assert.Equal(t, 2, search)

	require.Len(t, fake.goals, 1)
	assert.Equal(t, "NT15511A -JN[SP_NON-BRANDED]", fake.goals[0]["name"])
	assert.Len(t, fake.goals[0]["search_space"], 1)

	assert.FileExists(t, filepath.Join(env.stateDir, constants.LedgerFileName))
	cacheData, err := os.ReadFile(filepath.Join(env.stateDir, constants.ProductCacheFileName))
	require.NoError(t, err)
	assert.Contains(t, string(cacheData), `"B07Y5L9WLP": 5551`)

	// The second run skips the completed task
	// and retries only the skipped one.
	out, err = execute(t, "run", "--tasks", tasks, "--output", "json")
	require.NoError(t, err)

	s = decodeSummary(t, out)
	assert.Equal(t, 1, s.AlreadyCompleted)
	assert.Equal(t, 1, s.Planned)
	assert.Equal(t, 1, s.Skipped)
	create, search = fake.calls()
	assert.Equal(t, 1, create, "completed task must not be created again")
	assert.Equal(t, 3, search)
}

func TestRun_AuthRejectionHalts(t *testing.T) {
	fake := &fakePerpetua{
		products:     map[string]int64{"B07Y5L9WLP": 5551, "B0NOTFOUND": 5552},
		createStatus: http.StatusUnauthorized,
		createBody:   `{"detail":"token expired"}`,
	}
	env := newTestEnv(t, fake)
	tasks := env.writeFile(t, "goals.json", twoTaskFile)

	out, err := execute(t, "run", "--tasks", tasks, "--output", "json")
	require.Error(t, err)
	require.ErrorIs(t, err, gserrors.ErrAuthRejected)
	assert.Equal(t, ExitHaltedAuth, ExitCodeForError(err))

	s := decodeSummary(t, out)
	assert.True(t, s.Halted)
	assert.Equal(t, 1, s.Attempted)
	assert.Equal(t, 1, s.Failed)

	create, _ := fake.calls()
	assert.Equal(t, 1, create, "no task after the halt is attempted")

	ledgerData, err := os.ReadFile(filepath.Join(env.stateDir, constants.LedgerFileName))
	require.NoError(t, err)
	assert.Contains(t, string(ledgerData), "B07Y5L9WLP")
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	fake := &fakePerpetua{products: map[string]int64{"B07Y5L9WLP": 5551}}
	env := newTestEnv(t, fake)
	tasks := env.writeFile(t, "goals.json", twoTaskFile)

	out, err := execute(t, "run", "--tasks", tasks, "--dry-run", "--output", "json")
	require.NoError(t, err)

	s := decodeSummary(t, out)
	assert.True(t, s.DryRun)
	require.Len(t, s.Records, 2)
	assert.Equal(t, domain.StatusPlanned, s.Records[0].Status)
	assert.Equal(t, domain.StatusSkipped, s.Records[1].Status)

	create, _ := fake.calls()
	assert.Zero(t, create)
	assert.NoFileExists(t, filepath.Join(env.stateDir, constants.LedgerFileName))
	assert.NoFileExists(t, filepath.Join(env.stateDir, constants.ProductCacheFileName))
}

func TestRun_DryRunLeavesSQLiteLedgerUntouched(t *testing.T) {
	fake := &fakePerpetua{products: map[string]int64{"B07Y5L9WLP": 5551}}
	env := newTestEnv(t, fake)
	t.Setenv("GOALSYNC_LEDGER_BACKEND", "sqlite")
	tasks := env.writeFile(t, "goals.json", twoTaskFile)

	_, err := execute(t, "run", "--tasks", tasks, "--output", "json")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(env.stateDir, constants.LedgerDBFileName))
	before := stateFiles(t, env.stateDir)

	out, err := execute(t, "run", "--tasks", tasks, "--dry-run", "--output", "json")
	require.NoError(t, err)

	s := decodeSummary(t, out)
	assert.True(t, s.DryRun)
	assert.Equal(t, 1, s.AlreadyCompleted)
	assert.Equal(t, before, stateFiles(t, env.stateDir))
}

// stateFiles maps each file in dir to its size and modification time.
func stateFiles(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	files := make(map[string]string, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		require.NoError(t, err)
		files[e.Name()] = fmt.Sprintf("%d@%s", info.Size(), info.ModTime().Format(time.RFC3339Nano))
	}
	return files
}

func TestRun_FlagOverrides(t *testing.T) {
	fake := &fakePerpetua{products: map[string]int64{"B07Y5L9WLP": 5551, "B0NOTFOUND": 5552}}
	env := newTestEnv(t, fake)
	tasks := env.writeFile(t, "goals.json", twoTaskFile)

	out, err := execute(t, "run", "--tasks", tasks, "--start-row", "1", "--max-tasks", "5", "--output", "json")
	require.NoError(t, err)

	s := decodeSummary(t, out)
	require.Len(t, s.Records, 1)
	assert.Equal(t, "ZZ1/B0NOTFOUND/BRANDED_EXACT", s.Records[0].TaskID)
	assert.Equal(t, domain.StatusSuccess, s.Records[0].Status)
}

func TestRun_InvalidInput(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := execute(t, "run")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))

	bad := env.writeFile(t, "bad.json", `{"tasks": [{"asin": "", "segment": "branded", "mode": "keyword"}]}`)
	_, err = execute(t, "run", "--tasks", bad)
	require.ErrorIs(t, err, gserrors.ErrTaskSourceInvalid)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))

	_, err = execute(t, "run", "--tasks", env.writeFile(t, "goals.csv", "asin\n"))
	require.ErrorIs(t, err, gserrors.ErrUnsupportedFormat)

	good := env.writeFile(t, "goals.json", twoTaskFile)
	_, err = execute(t, "run", "--tasks", good, "--max-tasks=-1")
	require.ErrorIs(t, err, gserrors.ErrValueOutOfRange)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRun_MissingCompanyOrToken(t *testing.T) {
	env := newTestEnv(t, nil)
	tasks := env.writeFile(t, "goals.json", twoTaskFile)

	t.Setenv("GOALSYNC_API_COMPANY_ID", "")
	_, err := execute(t, "run", "--tasks", tasks)
	require.ErrorIs(t, err, gserrors.ErrConfigInvalidAPI)

	t.Setenv("GOALSYNC_API_COMPANY_ID", testCompany)
	t.Setenv("PERPETUA_TOKEN", "")
	_, err = execute(t, "run", "--tasks", tasks)
	require.ErrorIs(t, err, gserrors.ErrMissingToken)
}

func TestRenderSummary_Text(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	s := &batch.Summary{
		Planned: 3, Attempted: 3, Succeeded: 1, Skipped: 1, Failed: 1, AlreadyCompleted: 2,
		Records: []domain.Outcome{
			{TaskID: "B07Y5L9WLP", Status: domain.StatusSuccess, RemoteID: "901"},
			{TaskID: "B0SKIPPED1", Status: domain.StatusSkipped, Reason: "product not found"},
			{TaskID: "B0FAILED01", Status: domain.StatusError, Reason: "HTTP 400: bad keyword"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, renderSummary(newOutput(&buf, OutputText), &GlobalFlags{Output: OutputText}, s))

	got := buf.String()
	assert.Contains(t, got, "Created 1 goal(s): 1 skipped, 1 failed")
	assert.Contains(t, got, "2 task(s) already completed")
	assert.Contains(t, got, "⊘ skipped")
	assert.Contains(t, got, "✗ error")
	assert.Contains(t, got, "HTTP 400: bad keyword")
	assert.NotContains(t, got, "B07Y5L9WLP", "successes are listed only with --verbose")
}
