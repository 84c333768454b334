package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/raffle/internal/engine"
	"github.com/roach88/raffle/internal/record"
)

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("RAFFLE_DB", "")
	os.Unsetenv("RAFFLE_DB")
	t.Setenv("RAFFLE_PRINCIPAL", "")
	os.Unsetenv("RAFFLE_PRINCIPAL")
	t.Setenv("RAFFLE_LOG_LEVEL", "")
	os.Unsetenv("RAFFLE_LOG_LEVEL")

	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "raffle.db", e.DB)
	assert.Equal(t, "default", e.Principal)
	assert.Equal(t, slog.LevelWarn, e.Level())
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("RAFFLE_DB", "/tmp/x.db")
	t.Setenv("RAFFLE_PRINCIPAL", "club-a")
	t.Setenv("RAFFLE_LOG_LEVEL", "debug")

	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", e.DB)
	assert.Equal(t, "club-a", e.Principal)
	assert.Equal(t, slog.LevelDebug, e.Level())
}

func TestEnv_LevelUnknown(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, Env{LogLevel: "loud"}.Level())
}

func TestParsePlan_Full(t *testing.T) {
	data := []byte(`
event: Spring Fair
capacity: 12
date: "2024-04-20"
cutoff: "2024-04-10 18:00:00"
adjustments:
  a@x.com:
    absent: true
  b@y.com:
    late: true
`)

	pf, err := ParsePlan(data)
	require.NoError(t, err)

	assert.True(t, pf.HasCapacity)
	assert.Equal(t, engine.Plan{
		Event:    "Spring Fair",
		Capacity: 12,
		Date:     time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
		Cutoff:   time.Date(2024, 4, 10, 18, 0, 0, 0, time.UTC),
		Adjustments: record.Adjustments{
			"a@x.com": {Absent: true},
			"b@y.com": {Late: true},
		},
	}, pf.Plan)
}

func TestParsePlan_NormalisesAdjustmentEmails(t *testing.T) {
	pf, err := ParsePlan([]byte(`
adjustments:
  " A@X.com":
    absent: true
  a@x.com:
    late: true
`))
	require.NoError(t, err)

	assert.Equal(t, record.Adjustments{"a@x.com": {Absent: true, Late: true}}, pf.Plan.Adjustments)
}

func TestParsePlan_UnquotedDate(t *testing.T) {
	pf, err := ParsePlan([]byte("event: Fair\ndate: 2024-04-20\n"))
	require.NoError(t, err)
	assert.True(t, pf.Plan.Date.Equal(time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)))
	assert.False(t, pf.HasCapacity)
}

func TestParsePlan_BareDateCutoffIsEndOfDay(t *testing.T) {
	pf, err := ParsePlan([]byte("cutoff: \"2024-04-10\"\n"))
	require.NoError(t, err)

	assert.True(t, pf.Plan.Cutoff.After(time.Date(2024, 4, 10, 23, 59, 0, 0, time.UTC)))
	assert.True(t, pf.Plan.Cutoff.Before(time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC)))
}

func TestParsePlan_Empty(t *testing.T) {
	pf, err := ParsePlan(nil)
	require.NoError(t, err)
	assert.Equal(t, PlanFile{}, pf)
}

func TestParsePlan_Rejects(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":       "event: Fair\nseats: 3\n",
		"negative capacity": "capacity: -1\n",
		"string capacity":   "capacity: lots\n",
		"empty event":       "event: \"\"\n",
		"bad date":          "date: \"April 20\"\n",
		"bad adjustment":    "adjustments:\n  a@x.com:\n    absent: maybe\n",
		"bad cutoff":        "cutoff: soon\n",
		"not yaml":          "event: [unclosed\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlan([]byte(doc))
			require.Error(t, err)
			assert.True(t, engine.IsPlanError(err), "got %v", err)
		})
	}
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("event: Fair\ncapacity: 0\n"), 0o644))

	pf, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, "Fair", pf.Plan.Event)
	assert.True(t, pf.HasCapacity)
	assert.Equal(t, 0, pf.Plan.Capacity)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
