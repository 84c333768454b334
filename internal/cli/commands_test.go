package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/raffle/internal/engine"
	"github.com/roach88/raffle/internal/ledger"
	"github.com/roach88/raffle/internal/selection"
)

const (
	testLedger = "email,First Name,Last Name,Class,Absent,Late,Attended,Attended Events,Latest Attended\n" +
		"a@x.com,Ada,Lovelace,10A,0,1,2,,\n"
	testSignups = "Email,First Name,Last Name,Participation Status\n" +
		"a@x.com,Ada,Lovelace,planned\n" +
		"b@y.com,Bo,Chen,yes\n"
)

var testSeed = selection.Seed{1, 2, 3}

// envelope mirrors CLIResponse with the payload left raw.
type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Error    *CLIError       `json:"error"`
	Warnings []string        `json:"warnings"`
}

type cliEnv struct {
	t   *testing.T
	dir string
	db  string
	ids *engine.FixedGenerator
}

func newCLIEnv(t *testing.T, ids ...string) *cliEnv {
	t.Helper()
	t.Setenv("RAFFLE_PRINCIPAL", "default")
	t.Setenv("RAFFLE_LOG_LEVEL", "warn")
	dir := t.TempDir()
	if len(ids) == 0 {
		ids = []string{"run-1", "run-2", "run-3"}
	}
	return &cliEnv{t: t, dir: dir, db: filepath.Join(dir, "raffle.db"), ids: engine.NewFixedGenerator(ids...)}
}

// file writes content under the env's temp dir and returns its path.
func (e *cliEnv) file(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI against the env's database. Each call gets a fresh
// root command, as separate processes would; run ids continue across calls.
func (e *cliEnv) run(args ...string) (stdout, stderr string, code int) {
	e.t.Helper()
	opts := &RootOptions{
		EngineOptions: []engine.Option{
			engine.WithRunIDGenerator(e.ids),
			engine.WithSeed(testSeed),
			engine.WithClock(engine.FixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))),
			engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		},
	}
	var out, errOut bytes.Buffer
	code = execute(append([]string{"--db", e.db}, args...), strings.NewReader(""), &out, &errOut, opts)
	return out.String(), errOut.String(), code
}

func decode(t *testing.T, stdout string, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(stdout), &env), stdout)
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestRunCommand_FirstRunSeedsLedger(t *testing.T) {
	e := newCLIEnv(t)
	signups := e.file("signups.csv", testSignups)
	seed := e.file("ledger.csv", testLedger)

	stdout, _, code := e.run("run", signups, "--event", "Spring Fair", "-n", "1", "--ledger", seed, "--format", "json")
	require.Equal(t, ExitSuccess, code, stdout)

	var summary RunSummary
	env := decode(t, stdout, &summary)
	assert.Equal(t, "ok", env.Status)
	assert.Equal(t, "run-1", summary.RunID)
	assert.EqualValues(t, 1, summary.Seq)
	assert.Equal(t, "Spring Fair", summary.Event)
	assert.Equal(t, testSeed.String(), summary.Seed)
	assert.Equal(t, 2, summary.Eligible)
	require.Len(t, summary.Selected, 1)
	assert.Equal(t, "b@y.com", summary.Selected[0].Email)
	assert.Equal(t, 1, summary.Selected[0].Rank)
	assert.Equal(t, []string{"b@y.com"}, summary.UnknownSelected)
	require.Len(t, env.Warnings, 1)
	assert.Contains(t, env.Warnings[0], "b@y.com")

	stdout, _, code = e.run("ledger", "export")
	require.Equal(t, ExitSuccess, code)
	students := ledger.Parse([]byte(stdout))
	require.Len(t, students, 2)
	for _, s := range students {
		switch s.Email {
		case "a@x.com":
			assert.Equal(t, 2, s.Attended)
		case "b@y.com":
			assert.Equal(t, 1, s.Attended)
			assert.Equal(t, []string{"Spring Fair"}, s.EventsAttended)
		default:
			t.Errorf("unexpected ledger row %q", s.Email)
		}
	}
}

func TestRunCommand_LedgerFlagRejectedOnceStored(t *testing.T) {
	e := newCLIEnv(t)
	signups := e.file("signups.csv", testSignups)
	seed := e.file("ledger.csv", testLedger)

	_, _, code := e.run("run", signups, "-e", "First", "-n", "1", "--ledger", seed)
	require.Equal(t, ExitSuccess, code)

	stdout, _, code := e.run("run", signups, "-e", "Second", "-n", "1", "--ledger", seed, "--format", "json")
	assert.Equal(t, ExitCommandError, code)
	env := decode(t, stdout, nil)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Error.Message, "ledger import")

	stdout, _, code = e.run("runs", "list", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	var runs []RunInfo
	decode(t, stdout, &runs)
	assert.Len(t, runs, 1, "the rejected run must not be archived")
}

func TestRunCommand_PlanFileAndFlags(t *testing.T) {
	e := newCLIEnv(t)
	signups := e.file("signups.csv", testSignups)
	plan := e.file("plan.yaml", "event: Gala\ncapacity: 5\ndate: 2024-06-01\n")

	stdout, _, code := e.run("run", signups, "--plan", plan, "-n", "2", "--format", "json")
	require.Equal(t, ExitSuccess, code, stdout)

	var summary RunSummary
	decode(t, stdout, &summary)
	assert.Equal(t, "Gala", summary.Event)
	assert.Equal(t, 2, summary.Capacity)
	assert.Len(t, summary.Selected, 2)

	stdout, _, code = e.run("runs", "show", "run-1", "--format", "json")
	require.Equal(t, ExitSuccess, code, stdout)
	var info RunInfo
	decode(t, stdout, &info)
	assert.Equal(t, "2024-06-01", info.EventDate)
	assert.Equal(t, 2, info.Selected)
	require.NotNil(t, info.Report)
}

func TestRunCommand_Errors(t *testing.T) {
	e := newCLIEnv(t)
	signups := e.file("signups.csv", testSignups)

	tests := []struct {
		name    string
		args    []string
		code    int
		errCode string
	}{
		{"missing capacity", []string{"run", signups, "-e", "E"}, ExitFailure, ErrCodeInvalidPlan},
		{"missing event", []string{"run", signups, "-n", "2"}, ExitFailure, ErrCodeInvalidPlan},
		{"negative capacity", []string{"run", signups, "-e", "E", "-n", "-1"}, ExitFailure, ErrCodeInvalidPlan},
		{"bad date", []string{"run", signups, "-e", "E", "-n", "1", "--date", "someday"}, ExitFailure, ErrCodeInvalidPlan},
		{"unreadable signups", []string{"run", filepath.Join(e.dir, "missing.csv"), "-e", "E", "-n", "1"}, ExitCommandError, ErrCodeReadFailed},
		{"bad seed", []string{"run", signups, "-e", "E", "-n", "1", "--seed", "zz"}, ExitCommandError, ErrCodeGeneric},
		{"missing plan file", []string{"run", signups, "--plan", filepath.Join(e.dir, "nope.yaml")}, ExitCommandError, ErrCodeReadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, code := e.run(append(tt.args, "--format", "json")...)
			assert.Equal(t, tt.code, code)
			env := decode(t, stdout, nil)
			require.NotNil(t, env.Error, stdout)
			assert.Equal(t, tt.errCode, env.Error.Code)
		})
	}

	_, _, code := e.run("runs", "list")
	assert.Equal(t, ExitSuccess, code)
}

func TestRunCommand_SeedReplaysRanking(t *testing.T) {
	e := newCLIEnv(t)
	signups := e.file("signups.csv", testSignups)

	stdout, _, code := e.run("rank", signups, "-n", "1", "--seed", testSeed.String(), "--format", "json")
	require.Equal(t, ExitSuccess, code, stdout)

	var summary RankSummary
	decode(t, stdout, &summary)
	assert.Equal(t, testSeed.String(), summary.Seed)
	assert.Len(t, summary.Eligible, 2)
	assert.Equal(t, 1, summary.Selected)
}

func TestRankCommand_WritesNothing(t *testing.T) {
	e := newCLIEnv(t)
	signups := e.file("signups.csv", testSignups)
	seed := e.file("ledger.csv", testLedger)
	out := filepath.Join(e.dir, "ranking.csv")

	stdout, _, code := e.run("rank", signups, "-n", "1", "--ledger", seed, "-o", out)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "2 eligible, top 1 would be selected")

	ranking, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(ranking)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "rank,selected,"))
	assert.Contains(t, lines[1], "b@y.com")

	stdout, _, code = e.run("ledger", "show", "--format", "json")
	assert.Equal(t, ExitCommandError, code)
	env := decode(t, stdout, nil)
	assert.Equal(t, ErrCodeNotFound, env.Error.Code)
}

func TestLedgerCommands(t *testing.T) {
	e := newCLIEnv(t)
	dup := testLedger + "A@X.com,Ada,Lovelace,10A,1,0,1,,\n" + ",,,,0,0,0,,\n"
	path := e.file("ledger.csv", dup)

	stdout, stderr, code := e.run("ledger", "import", path)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Imported 1 students")
	assert.Contains(t, stderr, "warning: 1 row(s) had no identity")

	stdout, _, code = e.run("ledger", "adjust", "--absent", "a@x.com", "--late", "zz@x.com", "--format", "json")
	require.Equal(t, ExitSuccess, code, stdout)
	var info LedgerInfo
	env := decode(t, stdout, &info)
	assert.EqualValues(t, 2, info.Revision)
	assert.Equal(t, []string{"zz@x.com"}, info.Unmatched)
	require.Len(t, env.Warnings, 1)

	stdout, _, code = e.run("ledger", "export")
	require.Equal(t, ExitSuccess, code)
	students := ledger.Parse([]byte(stdout))
	require.Len(t, students, 1)
	assert.Equal(t, 2, students[0].Absences, "merged max 1 plus one adjustment")

	_, _, code = e.run("ledger", "adjust")
	assert.Equal(t, ExitCommandError, code)

	_, _, code = e.run("ledger", "delete")
	assert.Equal(t, ExitCommandError, code)

	_, _, code = e.run("ledger", "delete", "--yes")
	require.Equal(t, ExitSuccess, code)

	stdout, _, code = e.run("ledger", "adjust", "--absent", "a@x.com", "--format", "json")
	assert.Equal(t, ExitCommandError, code)
	assert.Equal(t, ErrCodeNotFound, decode(t, stdout, nil).Error.Code)
}

func TestLedgerShow_Search(t *testing.T) {
	e := newCLIEnv(t)
	path := e.file("ledger.csv", "email,First Name,Last Name,Class,Absent,Late,Attended\n"+
		"ada@x.com,Ada,Lovelace,10A,0,0,2\n"+
		"bo@y.com,Bo,Chen,11B,1,0,0\n"+
		"cy@z.com,Cy,Adams,11B,0,0,1\n")
	_, _, code := e.run("ledger", "import", path)
	require.Equal(t, ExitSuccess, code)

	for _, tc := range []struct {
		query string
		want  []string
	}{
		{"", []string{"ada@x.com", "bo@y.com", "cy@z.com"}},
		{"ADA", []string{"ada@x.com", "cy@z.com"}},
		{"11b", []string{"bo@y.com", "cy@z.com"}},
		{"@y.com", []string{"bo@y.com"}},
		{"bo chen", []string{"bo@y.com"}},
		{"nobody", []string{}},
	} {
		t.Run(tc.query, func(t *testing.T) {
			stdout, _, code := e.run("ledger", "show", "-q", tc.query, "--format", "json")
			require.Equal(t, ExitSuccess, code, stdout)

			var info LedgerInfo
			decode(t, stdout, &info)
			assert.Equal(t, 3, info.Students)
			got := []string{}
			for _, r := range info.Records {
				got = append(got, r.Email)
			}
			assert.Equal(t, tc.want, got)
		})
	}

	stdout, _, code := e.run("ledger", "show", "--search", "lovelace")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, `1 matching "lovelace"`)
	assert.Contains(t, stdout, "ada@x.com")
	assert.NotContains(t, stdout, "bo@y.com")
}

func TestLedgerCommands_PrincipalsAreIsolated(t *testing.T) {
	e := newCLIEnv(t)
	path := e.file("ledger.csv", testLedger)

	_, _, code := e.run("--principal", "club-a", "ledger", "import", path)
	require.Equal(t, ExitSuccess, code)

	_, _, code = e.run("--principal", "club-b", "ledger", "show")
	assert.Equal(t, ExitCommandError, code)

	stdout, _, code := e.run("--principal", "club-a", "ledger", "show", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	var info LedgerInfo
	decode(t, stdout, &info)
	assert.Equal(t, "club-a", info.Principal)
	assert.Equal(t, 1, info.Students)
}

func TestRunsCommands(t *testing.T) {
	e := newCLIEnv(t)
	signups := e.file("signups.csv", testSignups)

	for _, event := range []string{"One", "Two"} {
		_, stderr, code := e.run("run", signups, "-e", event, "-n", "1")
		require.Equal(t, ExitSuccess, code, stderr)
	}

	stdout, _, code := e.run("runs", "list", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	var runs []RunInfo
	decode(t, stdout, &runs)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "One", runs[0].Event)
	assert.EqualValues(t, 2, runs[1].Seq)
	assert.Nil(t, runs[0].Report, "list omits run detail")

	stdout, _, code = e.run("runs", "export", "run-2", "--artifact", "signups")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, testSignups, stdout)

	stdout, _, code = e.run("runs", "export", "run-2")
	require.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(stdout, "rank,selected,"))

	_, _, code = e.run("runs", "export", "run-2", "--artifact", "bogus")
	assert.Equal(t, ExitCommandError, code)

	stdout, _, code = e.run("runs", "show", "nope", "--format", "json")
	assert.Equal(t, ExitCommandError, code)
	assert.Equal(t, ErrCodeNotFound, decode(t, stdout, nil).Error.Code)
}

func TestTestCommand_HarnessScenarios(t *testing.T) {
	e := newCLIEnv(t)

	stdout, _, code := e.run("test", "../harness/testdata/scenarios", "--format", "json")
	require.Equal(t, ExitSuccess, code, stdout)

	var result TestResult
	decode(t, stdout, &result)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 4, result.Passed)
}

func TestTestCommand_FilterAndFailure(t *testing.T) {
	e := newCLIEnv(t)
	scenarios := filepath.Join(e.dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "wrong.yaml"), []byte(`name: wrong
description: expects a student who never signed up
event: E
capacity: 1
signups: |
  email,first name,last name,status
  a@x.com,Ada,Lovelace,yes
expect:
  selected: [someone@else.com]
`), 0o644))

	stdout, _, code := e.run("test", scenarios, "--filter", "nomatch")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "No scenarios found.")

	stdout, stderr, code := e.run("test", scenarios)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "✗ wrong")
	assert.Contains(t, stdout, "Results: 0 passed, 1 failed, 1 total")
	assert.Empty(t, stderr, "reported failures are not printed twice")

	_, _, code = e.run("test", scenarios, "--update")
	assert.Equal(t, ExitFailure, code, "expectations still fail when updating goldens")
	_, err := os.Stat(filepath.Join(e.dir, "golden", "wrong.golden"))
	assert.NoError(t, err)

	_, _, code = e.run("test", filepath.Join(e.dir, "missing"))
	assert.Equal(t, ExitCommandError, code)
}
