package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestScenarios_Golden(t *testing.T) {
	for _, name := range []string{"raffle-example", "passthrough-and-adjust", "no-eligible", "structured-rows"} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, loadTestScenario(t, name)))
		})
	}
}

func TestRun_ArchivesRun(t *testing.T) {
	result, err := Run(loadTestScenario(t, "raffle-example"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, "run-example", result.Run.ID)
	assert.Equal(t, int64(1), result.Run.Seq)
	assert.Equal(t, "Spring Fair", result.Run.Name)
	assert.Equal(t, 1, result.Run.SelectedCount)
	assert.Equal(t, []string{"email:b@y.com"}, result.Run.UnknownSelected)
}

func TestRun_DefaultRunID(t *testing.T) {
	result, err := Run(loadTestScenario(t, "no-eligible"))
	require.NoError(t, err)
	assert.Equal(t, "test-run-default", result.Run.ID)
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	s := loadTestScenario(t, "raffle-example")
	two := 2
	s.Expect.Selected = []string{"a@x.com"}
	s.Expect.DroppedSignups = &two
	s.Expect.LedgerContains = append(s.Expect.LedgerContains, LedgerRow{Email: "ghost@x.com"})

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "selected")
	assert.Contains(t, result.Errors[1], "dropped_signups")
	assert.Contains(t, result.Errors[2], "ghost@x.com")
}

func TestRun_CheckRowMismatch(t *testing.T) {
	s := loadTestScenario(t, "raffle-example")
	ten := 10
	s.Expect = Expectations{LedgerContains: []LedgerRow{{
		Email:    "A@X.COM",
		Attended: &ten,
		Columns:  map[string]string{"Event9": "Attended"},
	}}}

	result, err := Run(s)
	require.NoError(t, err)

	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "attended: got 2, want 10")
	assert.Contains(t, result.Errors[1], "column Event9")
}

func TestRun_BadSeed(t *testing.T) {
	s := loadTestScenario(t, "raffle-example")
	s.Seed = "not-hex"

	_, err := Run(s)
	assert.Error(t, err)
}

func TestRun_Cutoff(t *testing.T) {
	s := &Scenario{
		Name:        "cutoff",
		Description: "late registrations are not eligible",
		Event:       "Fair",
		Capacity:    5,
		Cutoff:      "2024-04-01",
		Signups: "email,first name,last name,status,registration time\n" +
			"a@x.com,A,A,yes,2024-04-01 20:00:00\n" +
			"b@x.com,B,B,yes,2024-04-02 08:00:00\n",
		Expect: Expectations{Selected: []string{"a@x.com"}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.Outcome.Report.AfterCutoff)
}

func TestLoadScenario_RowsEncodeToCSV(t *testing.T) {
	s := loadTestScenario(t, "structured-rows")

	assert.Equal(t, Table("absent,attended,email,first name,last name,late\n0,2,a@x.com,Ada,Lovelace,1\n"), s.Historical)
	assert.Equal(t, Table("email,first name,last name,status\nA@x.com,Ada,Lovelace,yes\nc@z.com,Cy,Dee,planned\n"), s.Signups)
}

func TestLoadScenario_RejectsNonTableSignups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	doc := "name: n\ndescription: d\nevent: e\nsignups:\n  email: a@x.com\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want CSV text or a list of rows")
}

func TestLoadScenario_Validation(t *testing.T) {
	dir := t.TempDir()
	for name, doc := range map[string]string{
		"missing name":        "description: d\nevent: e\nsignups: \"\"\n",
		"missing description": "name: n\nevent: e\n",
		"missing event":       "name: n\ndescription: d\n",
		"negative capacity":   "name: n\ndescription: d\nevent: e\ncapacity: -1\n",
		"unknown field":       "name: n\ndescription: d\nevent: e\nexpects: {}\n",
		"ledger row no email": "name: n\ndescription: d\nevent: e\nexpect:\n  ledger_contains:\n    - attended: 1\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "s.yaml")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
			_, err := LoadScenario(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
