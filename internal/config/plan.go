package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/raffle/internal/engine"
	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/record"
)

//go:embed plan.cue
var planSchema string

// planFile mirrors the YAML layout of a plan.
type planFile struct {
	Event       string                       `yaml:"event"`
	Capacity    *int                         `yaml:"capacity"`
	Date        string                       `yaml:"date"`
	Cutoff      string                       `yaml:"cutoff"`
	Adjustments map[string]record.Adjustment `yaml:"adjustments"`
}

// PlanFile is a decoded plan. HasCapacity distinguishes "capacity: 0" from
// an omitted capacity so flags can fill the gap.
type PlanFile struct {
	Plan        engine.Plan
	HasCapacity bool
}

// LoadPlan reads and validates a plan file.
func LoadPlan(path string) (PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PlanFile{}, fmt.Errorf("read plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan validates YAML plan text against the plan schema and decodes
// it. Schema violations are reported as *engine.PlanError.
func ParsePlan(data []byte) (PlanFile, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return PlanFile{}, &engine.PlanError{Field: "plan", Message: err.Error()}
	}
	if err := validate(raw); err != nil {
		return PlanFile{}, err
	}

	var pf planFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil && !errors.Is(err, io.EOF) {
		return PlanFile{}, &engine.PlanError{Field: "plan", Message: err.Error()}
	}

	out := PlanFile{
		Plan: engine.Plan{
			Event:       pf.Event,
			Adjustments: record.NormalizeAdjustments(pf.Adjustments),
		},
	}
	if pf.Capacity != nil {
		out.Plan.Capacity = *pf.Capacity
		out.HasCapacity = true
	}
	if pf.Date != "" {
		out.Plan.Date = ingest.ParseDate(pf.Date)
		if out.Plan.Date.IsZero() {
			return PlanFile{}, &engine.PlanError{Field: "date", Message: fmt.Sprintf("unparseable date %q", pf.Date)}
		}
	}
	if pf.Cutoff != "" {
		cut, err := ParseCutoff(pf.Cutoff)
		if err != nil {
			return PlanFile{}, err
		}
		out.Plan.Cutoff = cut
	}
	return out, nil
}

// ParseCutoff accepts a timestamp or a bare date. A bare date cuts off at
// the end of that day.
func ParseCutoff(s string) (time.Time, error) {
	if t := ingest.ParseDateTime(s); !t.IsZero() {
		return t, nil
	}
	if d := ingest.ParseDate(s); !d.IsZero() {
		return d.Add(24*time.Hour - time.Nanosecond), nil
	}
	return time.Time{}, &engine.PlanError{Field: "cutoff", Message: fmt.Sprintf("unparseable cutoff %q", s)}
}

// validate unifies the decoded document with #Plan. The definition is
// closed, so unknown keys fail here.
func validate(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(planSchema).LookupPath(cue.ParsePath("#Plan"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile plan schema: %w", err)
	}

	doc := ctx.Encode(normalizeTimes(raw))
	if err := doc.Err(); err != nil {
		return &engine.PlanError{Field: "plan", Message: err.Error()}
	}
	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &engine.PlanError{Field: "plan", Message: err.Error()}
	}
	return nil
}

// normalizeTimes rewrites YAML timestamps (unquoted dates) back to the
// text form the schema expects.
func normalizeTimes(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalizeTimes(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeTimes(e)
		}
		return out
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	}
	return v
}
