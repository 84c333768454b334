package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "rank", "ledger", "runs", "test"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	var out, errOut bytes.Buffer
	code := execute([]string{"runs", "list", "--format", "yaml"}, strings.NewReader(""), &out, &errOut, &RootOptions{})

	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, errOut.String(), `invalid format "yaml"`)
}

func TestRootCommand_EnvironmentDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RAFFLE_DB", dir+"/env.db")
	t.Setenv("RAFFLE_PRINCIPAL", "drama-club")
	t.Setenv("RAFFLE_LOG_LEVEL", "error")

	opts := &RootOptions{}
	var out, errOut bytes.Buffer
	code := execute([]string{"runs", "list"}, strings.NewReader(""), &out, &errOut, opts)
	require.Equal(t, ExitSuccess, code, errOut.String())

	assert.Equal(t, dir+"/env.db", opts.DB)
	assert.Equal(t, "drama-club", opts.Principal)
	assert.Equal(t, "No runs\n", out.String())
}

func TestRootCommand_FlagsOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RAFFLE_DB", dir+"/env.db")
	t.Setenv("RAFFLE_PRINCIPAL", "drama-club")

	opts := &RootOptions{}
	var out, errOut bytes.Buffer
	code := execute([]string{"--db", dir + "/flag.db", "--principal", "chess", "runs", "list"},
		strings.NewReader(""), &out, &errOut, opts)
	require.Equal(t, ExitSuccess, code, errOut.String())

	assert.Equal(t, dir+"/flag.db", opts.DB)
	assert.Equal(t, "chess", opts.Principal)
}

func TestReadInput_Stdin(t *testing.T) {
	e := newCLIEnv(t)

	opts := &RootOptions{}
	var out, errOut bytes.Buffer
	code := execute([]string{"--db", e.db, "ledger", "import", "-"},
		strings.NewReader(testLedger), &out, &errOut, opts)
	require.Equal(t, ExitSuccess, code, errOut.String())
	assert.Contains(t, out.String(), "Imported 1 students")
}
