package reminder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pulselog-lab/pulselog/internal/core/period"
)

// Rule declares one reminder: nudge a recipient when a subject has no event
// logged for the current period. Rules are loaded at startup from YAML files.
type Rule struct {
	Name       string      `yaml:"name"`
	SubjectID  string      `yaml:"subject_id"`
	PeriodKind period.Kind `yaml:"period"` // day | week
	Recipient  string      `yaml:"recipient"`
	Message    string      `yaml:"message"`
}

// rawRule is the on-disk YAML shape.
type rawRule struct {
	Name      string `yaml:"name"`
	SubjectID string `yaml:"subject_id"`
	Period    string `yaml:"period"`
	Recipient string `yaml:"recipient"`
	Message   string `yaml:"message"`
}

// RuleRepository defines the interface for loading reminder rules.
type RuleRepository interface {
	// Get returns the rule with the given name, or an error if not found.
	Get(ctx context.Context, name string) (*Rule, error)

	// GetRules returns all rules as a slice (for the sweep loop).
	GetRules() []Rule
}

// FileSystemRuleRepository loads reminder rules from *.yaml files in a
// directory. Each file contains exactly one rule at the top level. Rules are
// loaded once at startup and cached in memory — no hot reload.
type FileSystemRuleRepository struct {
	dir   string
	rules map[string]Rule // keyed by Name
}

// NewFileSystemRuleRepository creates a new repository and eagerly loads all
// rules from dir. Returns an error if any rule file is malformed or invalid.
func NewFileSystemRuleRepository(dir string) (*FileSystemRuleRepository, error) {
	repo := &FileSystemRuleRepository{
		dir:   dir,
		rules: make(map[string]Rule),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRuleRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil // no rules directory — valid (zero rules configured)
	}
	if err != nil {
		return fmt.Errorf("reminder rule dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("reminder rule path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading reminder rule dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading rule file %s: %w", path, err)
		}

		var raw rawRule
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing rule file %s: %w", path, err)
		}
		if raw.Name == "" {
			continue // skip empty / comment-only files
		}

		if raw.SubjectID == "" {
			return fmt.Errorf("rule %q: subject_id must not be empty", raw.Name)
		}
		if raw.Recipient == "" {
			return fmt.Errorf("rule %q: recipient must not be empty", raw.Name)
		}

		kind := period.Kind(raw.Period)
		if kind == "" {
			kind = period.Day
		}
		if kind != period.Day && kind != period.Week {
			return fmt.Errorf("rule %q: unsupported period %q (use day or week)", raw.Name, raw.Period)
		}

		if _, exists := r.rules[raw.Name]; exists {
			return fmt.Errorf("rule %q: duplicate rule name (check multiple YAML files)", raw.Name)
		}

		r.rules[raw.Name] = Rule{
			Name:       raw.Name,
			SubjectID:  raw.SubjectID,
			PeriodKind: kind,
			Recipient:  raw.Recipient,
			Message:    raw.Message,
		}
	}
	return nil
}

// Get returns the rule with the given name, or an error if not found.
func (r *FileSystemRuleRepository) Get(_ context.Context, name string) (*Rule, error) {
	rule, ok := r.rules[name]
	if !ok {
		return nil, fmt.Errorf("reminder rule %q not found", name)
	}
	return &rule, nil
}

// GetRules returns all rules as a slice (for the sweep loop).
func (r *FileSystemRuleRepository) GetRules() []Rule {
	rules := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	return rules
}
