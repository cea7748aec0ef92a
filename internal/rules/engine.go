// Package rules provides a YAML-based rules engine for transaction categorization.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KAFKA2306/expense2/internal/domain"
)

//go:embed rules.yaml
var embeddedRules []byte

// MatchType defines how patterns are matched against transaction descriptions
type MatchType string

const (
	// MatchTypeExact requires the pattern to match the entire description exactly
	MatchTypeExact MatchType = "exact"
	// MatchTypeContains requires the pattern to be a substring of the description
	MatchTypeContains MatchType = "contains"
)

// Rule represents a single categorization rule.
//
// Rules should be created via:
//   - YAML loading: NewEngine, LoadEmbedded, LoadFromFile
//   - Programmatic construction: NewRule constructor
//
// Both methods validate all invariants:
//   - Name must not be empty and must be unique within a rule set
//   - Priority in range [0, 999]
//   - Pattern must not be empty after trimming
//   - MatchType must be "exact" or "contains"
//   - Category must not be empty
//
// Source is optional; when set, a match also overrides the transaction source.
// Direct struct construction bypasses validation. Fields are exported for YAML
// unmarshaling and testing; prefer the constructors elsewhere.
type Rule struct {
	Name      string    `yaml:"name"`
	Pattern   string    `yaml:"pattern"`
	MatchType MatchType `yaml:"match_type"`
	Priority  int       `yaml:"priority"`
	Category  string    `yaml:"category"`
	Source    string    `yaml:"source"`
}

// NewRule creates a validated rule. All invariants are checked.
// YAML loading via NewEngine performs equivalent validation automatically.
func NewRule(name, pattern string, matchType MatchType, priority int, category, source string) (*Rule, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	if priority < 0 || priority > 999 {
		return nil, fmt.Errorf("priority must be in [0,999], got %d", priority)
	}

	if matchType != MatchTypeExact && matchType != MatchTypeContains {
		return nil, fmt.Errorf("invalid match_type %q (must be 'exact' or 'contains')", matchType)
	}

	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("pattern cannot be empty")
	}

	if strings.TrimSpace(category) == "" {
		return nil, fmt.Errorf("category cannot be empty")
	}

	return &Rule{
		Name:      name,
		Pattern:   pattern,
		MatchType: matchType,
		Priority:  priority,
		Category:  category,
		Source:    source,
	}, nil
}

// RuleSet represents the top-level YAML structure
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Engine performs rule matching on transaction descriptions
type Engine struct {
	rules []Rule // Sorted by priority (highest first)
}

// MatchResult contains the result of applying a rule
type MatchResult struct {
	Category string
	Source   string
	RuleName string // For debugging
}

// NewEngine creates a rules engine from YAML data
func NewEngine(rulesData []byte) (*Engine, error) {
	var ruleSet RuleSet
	if err := yaml.Unmarshal(rulesData, &ruleSet); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules (check syntax, indentation, and field names): %w", err)
	}

	// Names identify rules in match results and error messages, so they must
	// be present and unique.
	names := make(map[string]int, len(ruleSet.Rules))
	for i, rule := range ruleSet.Rules {
		if strings.TrimSpace(rule.Name) == "" {
			return nil, fmt.Errorf("rule %d: name cannot be empty", i)
		}
		if prev, ok := names[rule.Name]; ok {
			return nil, fmt.Errorf("rule %d (%s): name already used by rule %d", i, rule.Name, prev)
		}
		names[rule.Name] = i

		if rule.Priority < 0 || rule.Priority > 999 {
			return nil, fmt.Errorf("rule %d (%s): priority must be in [0,999], got %d", i, rule.Name, rule.Priority)
		}

		if rule.MatchType != MatchTypeExact && rule.MatchType != MatchTypeContains {
			return nil, fmt.Errorf("rule %d (%s): invalid match_type %q (must be 'exact' or 'contains')", i, rule.Name, rule.MatchType)
		}

		if strings.TrimSpace(rule.Pattern) == "" {
			return nil, fmt.Errorf("rule %d (%s): pattern cannot be empty", i, rule.Name)
		}

		if strings.TrimSpace(rule.Category) == "" {
			return nil, fmt.Errorf("rule %d (%s): category cannot be empty", i, rule.Name)
		}
	}

	// Sort rules by priority (highest first). Use SliceStable to preserve YAML file
	// order for rules with equal priority (guarantees deterministic matching).
	sortedRules := make([]Rule, len(ruleSet.Rules))
	copy(sortedRules, ruleSet.Rules)
	sort.SliceStable(sortedRules, func(i, j int) bool {
		return sortedRules[i].Priority > sortedRules[j].Priority
	})

	return &Engine{
		rules: sortedRules,
	}, nil
}

// LoadEmbedded loads the embedded rules.yaml file
func LoadEmbedded() (*Engine, error) {
	engine, err := NewEngine(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules (possible binary corruption): %w", err)
	}
	return engine, nil
}

// LoadFromFile loads rules from a filesystem path
func LoadFromFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	engine, err := NewEngine(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %q: %w", path, err)
	}
	return engine, nil
}

// Match applies rules to a transaction description and returns the first match.
// Rules are evaluated in priority order (highest first). Rules with equal priority
// are evaluated in their original YAML file order (stable sort in NewEngine preserves
// this ordering). Matching is case-insensitive on both sides. Returns (nil, false)
// if no rules match.
func (e *Engine) Match(description string) (*MatchResult, bool) {
	normalizedDesc := strings.ToLower(strings.TrimSpace(description))

	for _, rule := range e.rules {
		normalizedPattern := strings.ToLower(strings.TrimSpace(rule.Pattern))

		matched := false
		switch rule.MatchType {
		case MatchTypeExact:
			matched = normalizedDesc == normalizedPattern
		case MatchTypeContains:
			matched = strings.Contains(normalizedDesc, normalizedPattern)
		}

		if matched {
			return &MatchResult{
				Category: rule.Category,
				Source:   rule.Source,
				RuleName: rule.Name,
			}, true
		}
	}

	return nil, false
}

// Apply enriches transactions in place. For each transaction whose description
// matches a rule, the category is overridden; the source is overridden only when
// the rule provides one. The transfer flag is left untouched since it reflects
// the transfer marker seen at parse time, not the category label.
func (e *Engine) Apply(txs []domain.Transaction) []domain.Transaction {
	for i := range txs {
		result, ok := e.Match(txs[i].Description)
		if !ok {
			continue
		}
		txs[i].Category = result.Category
		if result.Source != "" {
			txs[i].Source = result.Source
		}
	}
	return txs
}

// GetRules returns a copy of the rules for inspection/debugging.
//
// Rules are returned in priority order (highest first). For equal priorities,
// rules appear in YAML file order (stable sort).
func (e *Engine) GetRules() []Rule {
	result := make([]Rule, len(e.rules))
	copy(result, e.rules)
	return result
}
