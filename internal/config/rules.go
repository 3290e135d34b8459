package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/marketlens/intrascan/internal/rules"
)

// LoadRuleSet reads one strategy's rule file from the rules directory. Rule
// files are human-edited; validation happens at load time so a scan never
// sees a malformed operator.
func LoadRuleSet(rulesDir, strategy string) (rules.RuleSet, error) {
	path := filepath.Join(rulesDir, strategy+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("failed to read rule set %s: %w", path, err)
	}

	var set rules.RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return rules.RuleSet{}, fmt.Errorf("failed to parse rule set YAML %s: %w", path, err)
	}
	if set.Strategy == "" {
		set.Strategy = strategy
	}
	if err := set.Validate(); err != nil {
		return rules.RuleSet{}, fmt.Errorf("invalid rule set %s: %w", path, err)
	}
	return set, nil
}

// SaveRuleSet writes a rule set back to its strategy file.
func SaveRuleSet(rulesDir string, set rules.RuleSet) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid rule set: %w", err)
	}
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal rule set: %w", err)
	}
	path := filepath.Join(rulesDir, set.Strategy+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write rule set %s: %w", path, err)
	}
	return nil
}
