package loader

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seifb13/tlsbench/internal/harness/runner"
	"github.com/seifb13/tlsbench/pkg/cari"
	"github.com/seifb13/tlsbench/pkg/handshake"
)

// ParsePlan parses a campaign plan from YAML bytes.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks a plan for configuration errors. Group and driver
// mismatches surface here, before any trial runs.
func (p *Plan) Validate() error {
	if p.Target == "" {
		return &LoadError{Message: "plan target is required"}
	}
	if len(p.Groups) == 0 {
		return &LoadError{Message: "plan must have at least one group"}
	}
	switch p.Driver.Kind {
	case "", "tls", "openssl":
	default:
		return &LoadError{
			Message: fmt.Sprintf("unknown driver kind %q (want tls or openssl)", p.Driver.Kind),
		}
	}
	for _, g := range p.Groups {
		if g.Group == "" {
			return &LoadError{Message: "group name is required"}
		}
		group, err := handshake.LookupGroup(g.Group)
		if err != nil {
			return &LoadError{Message: err.Error(), Cause: err}
		}
		if !group.Embedded() && p.Driver.Kind != "openssl" {
			return &LoadError{
				Message: fmt.Sprintf("group %s needs the openssl driver", group.Name),
			}
		}
	}
	return nil
}

// LoadPlan loads a campaign plan from a file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	p, err := ParsePlan(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{
			File:    path,
			Message: err.Error(),
		}
	}

	return p, nil
}

// RunnerConfig converts the plan into a campaign configuration, applying
// the documented defaults (1000 iterations, 50 warm-up trials, 5s timeout).
func (p *Plan) RunnerConfig() (runner.Config, error) {
	cfg := runner.Config{
		Target:           p.Target,
		FailureThreshold: p.FailureThreshold,
	}

	if p.Pause != "" {
		d, err := time.ParseDuration(p.Pause)
		if err != nil {
			return runner.Config{}, &LoadError{
				Message: fmt.Sprintf("invalid pause %q", p.Pause),
				Cause:   err,
			}
		}
		cfg.Pause = d
	}

	for _, g := range p.Groups {
		gc := runner.GroupConfig{
			Group:      g.Group,
			Iterations: g.Iterations,
			Warmup:     runner.DefaultWarmup,
			Timeout:    handshake.DefaultTimeout,
		}
		if gc.Iterations == 0 {
			gc.Iterations = runner.DefaultIterations
		}
		if g.Warmup != nil {
			gc.Warmup = *g.Warmup
		}
		if g.Timeout != "" {
			d, err := time.ParseDuration(g.Timeout)
			if err != nil {
				return runner.Config{}, &LoadError{
					Message: fmt.Sprintf("group %s: invalid timeout %q", g.Group, g.Timeout),
					Cause:   err,
				}
			}
			gc.Timeout = d
		}
		cfg.Groups = append(cfg.Groups, gc)
	}

	return cfg, nil
}

// BuildDriver constructs the handshake driver the plan asks for, wrapped
// in a retry policy when one is configured.
func (p *Plan) BuildDriver() (handshake.Driver, error) {
	var (
		driver handshake.Driver
		err    error
	)

	switch p.Driver.Kind {
	case "", "tls":
		driver, err = handshake.NewTLSDriver(handshake.Config{
			Target:             p.Target,
			InsecureSkipVerify: p.Driver.Insecure,
		})
	case "openssl":
		driver, err = handshake.NewExecDriver(handshake.ExecConfig{
			Target:      p.Target,
			OpenSSLPath: p.Driver.OpenSSLPath,
			BaseDir:     p.Driver.BaseDir,
		})
	default:
		err = fmt.Errorf("unknown driver kind %q", p.Driver.Kind)
	}
	if err != nil {
		return nil, &LoadError{Message: "failed to build driver", Cause: err}
	}

	if p.Retry == nil {
		return driver, nil
	}
	if p.Retry.MaxAttempts < 1 {
		return nil, &LoadError{
			Message: fmt.Sprintf("retry max_attempts must be >= 1, got %d", p.Retry.MaxAttempts),
		}
	}
	policy := &runner.RetryPolicy{
		Driver:      driver,
		MaxAttempts: p.Retry.MaxAttempts,
	}
	if p.Retry.BaseDelay != "" {
		d, err := time.ParseDuration(p.Retry.BaseDelay)
		if err != nil {
			return nil, &LoadError{
				Message: fmt.Sprintf("invalid retry base_delay %q", p.Retry.BaseDelay),
				Cause:   err,
			}
		}
		policy.BaseDelay = d
	}
	return policy, nil
}

// ParseAssessment parses an assessment from YAML bytes.
func ParseAssessment(data []byte) (*Assessment, error) {
	var a Assessment
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	if len(a.Profiles) == 0 {
		return nil, &LoadError{
			Message: "assessment must have at least one profile",
		}
	}
	for _, p := range a.Profiles {
		if p.Name == "" {
			return nil, &LoadError{
				Message: "profile name is required",
			}
		}
		if len(p.BrakeScores) > 0 && len(p.Scores) > 0 {
			return nil, &LoadError{
				Message: fmt.Sprintf("profile %s: brake_scores and scores are mutually exclusive", p.Name),
			}
		}
		if len(p.BrakeScores) == 0 && len(p.Scores) == 0 {
			return nil, &LoadError{
				Message: fmt.Sprintf("profile %s: brake_scores or scores is required", p.Name),
			}
		}
	}

	return &a, nil
}

// LoadAssessment loads an assessment from a file.
func LoadAssessment(path string) (*Assessment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	a, err := ParseAssessment(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{
			File:    path,
			Message: err.Error(),
		}
	}

	return a, nil
}

// BuildRubric returns the rubric the assessment declares, or the built-in
// one when the assessment has none.
func (a *Assessment) BuildRubric() (*cari.Rubric, error) {
	if len(a.Rubric) == 0 {
		return cari.DefaultRubric(), nil
	}

	criteria := make([]cari.Criterion, 0, len(a.Rubric))
	for _, c := range a.Rubric {
		criteria = append(criteria, cari.Criterion{
			ID:     c.ID,
			Label:  c.Label,
			Weight: c.Weight,
		})
	}
	r, err := cari.NewRubric(criteria)
	if err != nil {
		return nil, &LoadError{Message: "invalid rubric", Cause: err}
	}
	return r, nil
}

// MaturityScores returns the profile's scores on the [0,1] maturity scale,
// inverting brake-scale survey answers when that is what the profile
// carries.
func (p *ProfileSpec) MaturityScores() (map[string]float64, error) {
	if len(p.Scores) > 0 {
		out := make(map[string]float64, len(p.Scores))
		for id, s := range p.Scores {
			out[id] = s
		}
		return out, nil
	}

	out := make(map[string]float64, len(p.BrakeScores))
	for id, brake := range p.BrakeScores {
		m, err := cari.MaturityFromBrake(brake)
		if err != nil {
			return nil, &LoadError{
				Message: fmt.Sprintf("profile %s: criterion %s: %v", p.Name, id, err),
				Cause:   err,
			}
		}
		out[id] = m
	}
	return out, nil
}
