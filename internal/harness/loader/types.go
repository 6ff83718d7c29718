// Package loader provides YAML loading for campaign plans and
// crypto-agility assessment files.
package loader

// Plan describes a measurement campaign loaded from YAML.
type Plan struct {
	// Target is the endpoint under test (host:port).
	Target string `yaml:"target"`

	// Driver selects and configures the handshake driver.
	Driver DriverSpec `yaml:"driver,omitempty"`

	// FailureThreshold is the tolerated failure fraction per configuration
	// (default 0.05).
	FailureThreshold float64 `yaml:"failure_threshold,omitempty"`

	// Pause is the delay between configurations (e.g. "2s").
	Pause string `yaml:"pause,omitempty"`

	// Retry configures optional trial retries for transient failures.
	Retry *RetrySpec `yaml:"retry,omitempty"`

	// Groups are the configurations to measure, in order.
	Groups []GroupSpec `yaml:"groups"`
}

// DriverSpec selects the handshake driver.
type DriverSpec struct {
	// Kind is "tls" (in-process, default) or "openssl" (external binary,
	// required for groups the embedded stack does not implement).
	Kind string `yaml:"kind,omitempty"`

	// OpenSSLPath overrides openssl binary discovery (openssl kind only).
	OpenSSLPath string `yaml:"openssl_path,omitempty"`

	// BaseDir points at an OpenSSL installation carrying the PQC provider
	// (openssl kind only).
	BaseDir string `yaml:"base_dir,omitempty"`

	// Insecure disables certificate verification (tls kind only). Meant
	// for lab endpoints with self-signed certificates.
	Insecure bool `yaml:"insecure,omitempty"`
}

// RetrySpec configures trial retries.
type RetrySpec struct {
	// MaxAttempts is the total attempts per trial, including the first.
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the initial backoff (e.g. "50ms").
	BaseDelay string `yaml:"base_delay,omitempty"`
}

// GroupSpec is one measurement configuration.
type GroupSpec struct {
	// Group is the key-exchange group name (e.g. "X25519",
	// "X25519MLKEM768").
	Group string `yaml:"group"`

	// Iterations is the measured trial count (default 1000).
	Iterations int `yaml:"iterations,omitempty"`

	// Warmup is the discarded leading trial count. Absent means the
	// default of 50; an explicit 0 disables warm-up.
	Warmup *int `yaml:"warmup,omitempty"`

	// Timeout bounds each trial (e.g. "5s", default 5s).
	Timeout string `yaml:"timeout,omitempty"`
}

// Assessment describes a crypto-agility readiness evaluation loaded from
// YAML: an optional rubric (the built-in one applies when absent) and the
// profiles to score against it.
type Assessment struct {
	// Rubric overrides the built-in criteria when present. Weights must
	// sum to 1.
	Rubric []CriterionSpec `yaml:"rubric,omitempty"`

	// Profiles are the respondent profiles to evaluate.
	Profiles []ProfileSpec `yaml:"profiles"`
}

// CriterionSpec is one rubric criterion.
type CriterionSpec struct {
	ID     string  `yaml:"id"`
	Label  string  `yaml:"label,omitempty"`
	Weight float64 `yaml:"weight"`
}

// ProfileSpec is one respondent profile. Exactly one of BrakeScores and
// Scores must be present.
type ProfileSpec struct {
	// Name identifies the profile (e.g. "specialistes").
	Name string `yaml:"name"`

	// BrakeScores are survey answers on the 1..5 brake scale, one per
	// criterion; they are inverted into maturity scores.
	BrakeScores map[string]float64 `yaml:"brake_scores,omitempty"`

	// Scores are direct maturity scores in [0,1], one per criterion.
	Scores map[string]float64 `yaml:"scores,omitempty"`
}

// LoadError provides details about a plan or assessment loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	if e.File != "" {
		return e.File + ": " + e.Message
	}
	return e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
