// Package config loads workspace settings for context-compress.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/classify"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
)

// FileName is the config file looked up in the workspace root.
const FileName = ".context-compress.yaml"

// Drift policies.
const (
	DriftRestore = "restore"
	DriftWarn    = "warn"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Ceilings holds byte limits per artifact kind.
type Ceilings struct {
	Index     int `yaml:"index"`
	Bootstrap int `yaml:"bootstrap"`
	Skills    int `yaml:"skills"`
}

// RuleConfig is one entry of a classifier table override.
type RuleConfig struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Config holds every tunable of a run.
type Config struct {
	MemoryDir      string       `yaml:"memory_dir"`
	IndexFile      string       `yaml:"index_file"`
	SkillIndexFile string       `yaml:"skill_index_file"`
	SkillsGlob     string       `yaml:"skills_glob"`
	BootstrapFiles []string     `yaml:"bootstrap_files"`
	RecencyWindow  string       `yaml:"recency_window"`
	DriftThreshold float64      `yaml:"drift_threshold"`
	DriftPolicy    string       `yaml:"drift_policy"`
	Ceilings       Ceilings     `yaml:"ceilings"`
	Exclude        []string     `yaml:"exclude,omitempty"`
	Rules          []RuleConfig `yaml:"rules,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MemoryDir:      "memory",
		IndexFile:      "MEMORY.md",
		SkillIndexFile: "SKILLS.md",
		SkillsGlob:     "skills/**/SKILL.md",
		BootstrapFiles: []string{"AGENTS.md", "SOUL.md", "TOOLS.md", "IDENTITY.md", "USER.md"},
		RecencyWindow:  "12h",
		DriftThreshold: 0.10,
		DriftPolicy:    DriftRestore,
		Ceilings: Ceilings{
			Index:     model.IndexCeiling,
			Bootstrap: model.DefaultCeiling,
			Skills:    model.DefaultCeiling,
		},
	}
}

// Load reads a YAML config over the defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path) // #nosec G304
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.MemoryDir == "" || c.IndexFile == "" || c.SkillIndexFile == "" {
		return fmt.Errorf("%w: memory_dir, index_file and skill_index_file are required", ErrInvalid)
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	if c.DriftThreshold < 0 || c.DriftThreshold > 1 {
		return fmt.Errorf("%w: drift_threshold %v outside [0,1]", ErrInvalid, c.DriftThreshold)
	}
	if c.DriftPolicy != DriftRestore && c.DriftPolicy != DriftWarn {
		return fmt.Errorf("%w: drift_policy %q (valid: restore, warn)", ErrInvalid, c.DriftPolicy)
	}
	if c.Ceilings.Index <= 0 || c.Ceilings.Bootstrap <= 0 || c.Ceilings.Skills <= 0 {
		return fmt.Errorf("%w: ceilings must be positive", ErrInvalid)
	}
	for _, p := range append([]string{c.SkillsGlob}, c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: bad pattern %q", ErrInvalid, p)
		}
	}
	if _, err := c.Classifier(); err != nil {
		return err
	}
	return nil
}

// Window returns the recency window as a duration.
func (c Config) Window() (time.Duration, error) {
	d, err := parseWindow(c.RecencyWindow)
	if err != nil {
		return 0, fmt.Errorf("%w: recency_window: %v", ErrInvalid, err)
	}
	return d, nil
}

// Classifier builds the classifier from the rule override, or the default
// table when none is configured.
func (c Config) Classifier() (*classify.Classifier, error) {
	if len(c.Rules) == 0 {
		return classify.Default(), nil
	}
	rules := make([]classify.Rule, 0, len(c.Rules))
	for _, rc := range c.Rules {
		cat, ok := model.ParseCategory(rc.Category)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalid, rc.Category)
		}
		r, err := classify.NewRule(cat, rc.Keywords...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		rules = append(rules, r)
	}
	return classify.New(rules), nil
}

// IsExcluded reports whether a memory file name matches an exclude pattern.
func (c Config) IsExcluded(name string) bool {
	for _, p := range c.Exclude {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// parseWindow parses a duration like "12h", "1d", "30m" or "45s".
var windowRegex = regexp.MustCompile(`^(\d+)([dhms])$`)

func parseWindow(s string) (time.Duration, error) {
	m := windowRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid format %q (use e.g. 1d, 12h, 30m, 60s)", s)
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "s":
		return time.Duration(n) * time.Second, nil
	}
	return 0, fmt.Errorf("unknown unit %q", m[2])
}
